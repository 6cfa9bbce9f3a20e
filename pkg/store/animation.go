package store

import (
	"encoding/json"
	"strconv"

	"github.com/vango-dev/skellyview/pkg/reactive"
)

// AnimationStoreName is the registry name of the animation store.
const AnimationStoreName = "animation"

// DefaultFPS is the playback rate used when none is configured.
const DefaultFPS = 30.0

// Animation field names as reported in Change and Fields.
const (
	FieldCurrentFrameNumber = "currentFrameNumber"
	FieldNumFrames          = "numFrames"
	FieldIsPlaying          = "isPlaying"
	FieldFPS                = "fps"
)

// FrameNumber is a frame index that may be absent.
// The zero value is absent.
type FrameNumber struct {
	Value int
	Valid bool
}

// Frame returns a present frame number.
func Frame(n int) FrameNumber {
	return FrameNumber{Value: n, Valid: true}
}

// NoFrame is the absent frame number.
var NoFrame = FrameNumber{}

// Int returns the frame index and whether it is present.
func (f FrameNumber) Int() (int, bool) {
	return f.Value, f.Valid
}

// String returns the index, or "none" when absent.
func (f FrameNumber) String() string {
	if !f.Valid {
		return "none"
	}
	return strconv.Itoa(f.Value)
}

// MarshalJSON encodes an absent frame as null.
func (f FrameNumber) MarshalJSON() ([]byte, error) {
	if !f.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(f.Value)
}

// UnmarshalJSON accepts an integer or null.
func (f *FrameNumber) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = NoFrame
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = Frame(n)
	return nil
}

// AnimationState holds the playback position of the loaded recording.
// Nothing ties NumFrames to CurrentFrameNumber; callers keep them
// consistent.
type AnimationState struct {
	frame     *reactive.Signal[FrameNumber]
	numFrames *reactive.IntSignal
	playing   *reactive.BoolSignal
	fps       *reactive.Float64Signal
}

// NewAnimationState creates an animation store with default values: frame 0,
// no frames loaded, paused, DefaultFPS.
func NewAnimationState() *AnimationState {
	return newAnimationState(DefaultFPS, nil)
}

func newAnimationState(fps float64, emit emitFunc) *AnimationState {
	a := &AnimationState{
		frame:     reactive.NewSignal(Frame(0)),
		numFrames: reactive.NewIntSignal(0),
		playing:   reactive.NewBoolSignal(false),
		fps:       reactive.NewFloat64Signal(fps),
	}
	bindField(a.frame, FieldCurrentFrameNumber, emit, nil)
	bindField(a.numFrames.Signal, FieldNumFrames, emit, nil)
	bindField(a.playing.Signal, FieldIsPlaying, emit, nil)
	bindField(a.fps.Signal, FieldFPS, emit, nil)
	return a
}

// Name implements Store.
func (a *AnimationState) Name() string { return AnimationStoreName }

// CurrentFrameNumber returns the current frame.
func (a *AnimationState) CurrentFrameNumber() FrameNumber {
	return a.frame.Get()
}

// SetFrameNumber sets the current frame to n.
func (a *AnimationState) SetFrameNumber(n int) {
	a.frame.Set(Frame(n))
}

// ClearFrameNumber marks the current frame as absent.
func (a *AnimationState) ClearFrameNumber() {
	a.frame.Set(NoFrame)
}

// NumFrames returns the number of frames in the loaded recording.
func (a *AnimationState) NumFrames() int {
	return a.numFrames.Get()
}

// SetNumFrames sets the number of frames.
func (a *AnimationState) SetNumFrames(n int) {
	a.numFrames.Set(n)
}

// IsPlaying reports whether playback is running.
func (a *AnimationState) IsPlaying() bool {
	return a.playing.Get()
}

// SetPlaying sets the play flag.
func (a *AnimationState) SetPlaying(playing bool) {
	a.playing.Set(playing)
}

// Play starts playback.
func (a *AnimationState) Play() { a.playing.SetTrue() }

// Pause stops playback.
func (a *AnimationState) Pause() { a.playing.SetFalse() }

// TogglePlaying flips the play flag.
func (a *AnimationState) TogglePlaying() { a.playing.Toggle() }

// FPS returns the playback rate in frames per second.
func (a *AnimationState) FPS() float64 {
	return a.fps.Get()
}

// SetFPS sets the playback rate. Any value is stored as given.
func (a *AnimationState) SetFPS(fps float64) {
	a.fps.Set(fps)
}

// OnFrameNumber calls fn after every change of the current frame.
func (a *AnimationState) OnFrameNumber(fn func(FrameNumber)) (unsubscribe func()) {
	return a.frame.Subscribe(fn)
}

// OnNumFrames calls fn after every change of the frame count.
func (a *AnimationState) OnNumFrames(fn func(int)) (unsubscribe func()) {
	return a.numFrames.Subscribe(fn)
}

// OnPlaying calls fn after every change of the play flag.
func (a *AnimationState) OnPlaying(fn func(bool)) (unsubscribe func()) {
	return a.playing.Subscribe(fn)
}

// OnFPS calls fn after every change of the playback rate.
func (a *AnimationState) OnFPS(fn func(float64)) (unsubscribe func()) {
	return a.fps.Subscribe(fn)
}

// AnimationSnapshot is a point-in-time copy of AnimationState.
type AnimationSnapshot struct {
	CurrentFrameNumber FrameNumber `json:"currentFrameNumber"`
	NumFrames          int         `json:"numFrames"`
	IsPlaying          bool        `json:"isPlaying"`
	FPS                float64     `json:"fps"`
}

// Snapshot returns a copy of every field.
func (a *AnimationState) Snapshot() AnimationSnapshot {
	return AnimationSnapshot{
		CurrentFrameNumber: a.CurrentFrameNumber(),
		NumFrames:          a.NumFrames(),
		IsPlaying:          a.IsPlaying(),
		FPS:                a.FPS(),
	}
}

// Fields implements Store.
func (a *AnimationState) Fields() map[string]any {
	s := a.Snapshot()
	return map[string]any{
		FieldCurrentFrameNumber: s.CurrentFrameNumber,
		FieldNumFrames:          s.NumFrames,
		FieldIsPlaying:          s.IsPlaying,
		FieldFPS:                s.FPS,
	}
}
