// Package store holds the shared state registry of the skeleton viewer.
//
// A Registry owns three independent stores:
//
//   - AnimationState: current frame, frame count, play flag and frame rate.
//   - RendererHandles: the renderer, scene and camera handles created by the
//     rendering layer. The registry never owns their lifecycle.
//   - FetchTrigger: a one-shot "fetch this tracker's data" signal.
//
// Every field is a single-slot cell: getters always succeed and setters
// overwrite the value unconditionally. There is no validation and no cross
// field invariant; callers keep, for example, the frame number inside the
// frame count themselves.
//
// A Registry is created once at startup and passed to whatever needs it,
// either directly or through a context.Context:
//
//	reg := store.NewRegistry(store.WithLogger(logger))
//	ctx = store.NewContext(ctx, reg)
//	...
//	reg, _ := store.FromContext(ctx)
//	reg.Fetch().TriggerDataFetch("mediapipe")
//
// Observers can watch a single field (OnFrameNumber, OnTrigger, ...) or the
// whole registry (Registry.Subscribe). Notifications are synchronous and
// only fire when a value actually changes.
package store
