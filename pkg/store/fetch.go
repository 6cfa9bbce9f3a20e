package store

import "github.com/vango-dev/skellyview/pkg/reactive"

// FetchStoreName is the registry name of the fetch trigger store.
const FetchStoreName = "fetch"

// FieldTrackerToFetch is the fetch trigger's only field.
const FieldTrackerToFetch = "trackerToFetch"

// FetchTrigger asks whoever loads skeleton data to fetch a tracker's
// recording. An empty tracker means no request is active. The consumer is
// expected to call ResetFetchTracker once it has picked the request up.
type FetchTrigger struct {
	tracker *reactive.StringSignal
}

// NewFetchTrigger creates a fetch trigger with no active request.
func NewFetchTrigger() *FetchTrigger {
	return newFetchTrigger(nil)
}

func newFetchTrigger(emit emitFunc) *FetchTrigger {
	f := &FetchTrigger{tracker: reactive.NewStringSignal("")}
	bindField(f.tracker.Signal, FieldTrackerToFetch, emit, nil)
	return f
}

// Name implements Store.
func (f *FetchTrigger) Name() string { return FetchStoreName }

// TrackerToFetch returns the requested tracker, or "" when idle.
func (f *FetchTrigger) TrackerToFetch() string {
	return f.tracker.Get()
}

// TriggerDataFetch requests data for tracker.
func (f *FetchTrigger) TriggerDataFetch(tracker string) {
	f.tracker.Set(tracker)
}

// ResetFetchTracker clears the active request.
func (f *FetchTrigger) ResetFetchTracker() {
	f.tracker.Clear()
}

// Pending reports whether a request is waiting to be picked up.
func (f *FetchTrigger) Pending() bool {
	return !f.tracker.IsEmpty()
}

// OnChange calls fn after every change of the tracker, including resets.
func (f *FetchTrigger) OnChange(fn func(tracker string)) (unsubscribe func()) {
	return f.tracker.Subscribe(fn)
}

// OnTrigger calls fn whenever a new non-empty tracker is requested.
// Resets are not reported.
func (f *FetchTrigger) OnTrigger(fn func(tracker string)) (unsubscribe func()) {
	return f.tracker.Subscribe(func(tracker string) {
		if tracker != "" {
			fn(tracker)
		}
	})
}

// FetchSnapshot is a point-in-time copy of FetchTrigger.
type FetchSnapshot struct {
	TrackerToFetch string `json:"trackerToFetch"`
	Pending        bool   `json:"pending"`
}

// Snapshot returns a copy of the trigger state.
func (f *FetchTrigger) Snapshot() FetchSnapshot {
	t := f.TrackerToFetch()
	return FetchSnapshot{TrackerToFetch: t, Pending: t != ""}
}

// Fields implements Store.
func (f *FetchTrigger) Fields() map[string]any {
	return map[string]any{FieldTrackerToFetch: f.TrackerToFetch()}
}
