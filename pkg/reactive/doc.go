// Package reactive provides the single-slot reactive cells that back every
// skellyview store field.
//
// A Signal holds one value. Set overwrites it and synchronously notifies
// subscribers when the value actually changed:
//
//	frame := reactive.NewSignal(0)
//	stop := frame.Subscribe(func(n int) { fmt.Println("frame", n) })
//	frame.Set(45) // prints "frame 45"
//	frame.Set(45) // no-op, value unchanged
//	stop()
//
// # Batching
//
// Several writes can be grouped so each subscriber hears about them once:
//
//	reactive.Batch(func() {
//	    numFrames.Set(120)
//	    frame.Set(0)
//	})
//
// Batch state is tracked per goroutine. Signals themselves are safe for
// concurrent use; notifications run on the writing goroutine.
package reactive
