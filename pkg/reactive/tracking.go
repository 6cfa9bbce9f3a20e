package reactive

import (
	"runtime"
	"sync"
)

// batchContext holds the batching state for one goroutine.
type batchContext struct {
	// depth tracks nested Batch calls.
	depth int

	// pending accumulates listeners to notify when the outermost batch ends.
	pending []Listener
}

// batchContexts stores per-goroutine batch state.
var batchContexts sync.Map

// getGoroutineID returns the current goroutine's ID as printed by the
// runtime in stack headers ("goroutine <id> [...]").
func getGoroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)

	var id uint64
	for i := len("goroutine "); i < n; i++ {
		if buf[i] == ' ' {
			break
		}
		id = id*10 + uint64(buf[i]-'0')
	}
	return id
}

// lookupBatchContext returns the batch context for the current goroutine,
// or nil when the goroutine is not batching.
func lookupBatchContext() *batchContext {
	if ctx, ok := batchContexts.Load(getGoroutineID()); ok {
		return ctx.(*batchContext)
	}
	return nil
}

// getBatchDepth returns the current batch nesting depth.
func getBatchDepth() int {
	if ctx := lookupBatchContext(); ctx != nil {
		return ctx.depth
	}
	return 0
}

// incrementBatchDepth increases the batch depth by 1, creating the
// goroutine's context on first use.
func incrementBatchDepth() {
	gid := getGoroutineID()
	ctx, _ := batchContexts.LoadOrStore(gid, &batchContext{})
	ctx.(*batchContext).depth++
}

// decrementBatchDepth decreases the batch depth by 1 and returns the queued
// listeners once the outermost batch ends. The goroutine's context is
// released at that point.
func decrementBatchDepth() (done bool, pending []Listener) {
	gid := getGoroutineID()
	v, ok := batchContexts.Load(gid)
	if !ok {
		return true, nil
	}
	ctx := v.(*batchContext)
	ctx.depth--
	if ctx.depth > 0 {
		return false, nil
	}
	batchContexts.Delete(gid)
	return true, ctx.pending
}

// queuePendingUpdate adds a listener to the current goroutine's queue.
func queuePendingUpdate(l Listener) {
	if ctx := lookupBatchContext(); ctx != nil {
		ctx.pending = append(ctx.pending, l)
		return
	}
	l.MarkDirty()
}
