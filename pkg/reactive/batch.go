package reactive

import "log/slog"

// Batch groups signal writes into a single notification phase.
// Writes inside fn are applied immediately; subscribers are deduplicated and
// notified once when the outermost batch returns.
//
// Example:
//
//	Batch(func() {
//	    numFrames.Set(120)
//	    frame.Set(0)
//	    playing.Set(true)
//	})
func Batch(fn func()) {
	incrementBatchDepth()

	defer func() {
		if done, pending := decrementBatchDepth(); done {
			flush(pending)
		}
	}()

	fn()
}

// flush deduplicates and notifies pending listeners in arrival order.
func flush(updates []Listener) {
	if len(updates) == 0 {
		return
	}

	seen := make(map[uint64]bool, len(updates))
	for _, listener := range updates {
		id := listener.ID()
		if seen[id] {
			continue
		}
		seen[id] = true
		listener.MarkDirty()
	}
}

// Tx is an alias for Batch.
func Tx(fn func()) {
	Batch(fn)
}

// TxNamed runs fn as a batch and logs its boundaries at debug level, which
// makes it easy to see which UI action produced a burst of notifications.
func TxNamed(name string, fn func()) {
	logger := slog.Default().With("component", "reactive")
	logger.Debug("tx start", "name", name)
	defer logger.Debug("tx end", "name", name)
	Batch(fn)
}
