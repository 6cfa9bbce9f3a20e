// Package playback advances the animation store's current frame while
// playback is on.
package playback

import (
	"context"
	"log/slog"
	"math"
	"sync/atomic"
	"time"

	"github.com/vango-dev/skellyview/pkg/store"
)

// idleInterval is the tick interval used while the frame rate is unusable.
const idleInterval = 100 * time.Millisecond

// Player drives an AnimationState at its configured frame rate.
type Player struct {
	anim     *store.AnimationState
	clock    Clock
	logger   *slog.Logger
	loop     bool
	autoplay bool

	// tickDone, when set, is called after each tick has been handled.
	tickDone func()
}

// Option configures a Player.
type Option func(*Player)

// WithClock replaces the wall clock.
func WithClock(c Clock) Option {
	return func(p *Player) {
		p.clock = c
	}
}

// WithLogger sets the player's logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Player) {
		p.logger = l
	}
}

// WithLoop controls what happens at the last frame: wrap to frame 0 (the
// default) or pause.
func WithLoop(loop bool) Option {
	return func(p *Player) {
		p.loop = loop
	}
}

// WithAutoplay starts playback when a recording with frames is loaded,
// that is when NumFrames goes from zero to a positive count.
func WithAutoplay(autoplay bool) Option {
	return func(p *Player) {
		p.autoplay = autoplay
	}
}

// New creates a player for anim.
func New(anim *store.AnimationState, opts ...Option) *Player {
	p := &Player{
		anim:  anim,
		clock: realClock{},
		loop:  true,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	p.logger = p.logger.With("component", "playback")
	return p
}

// Interval returns the time between frames at fps. The second result is
// false when fps cannot drive playback (zero, negative, NaN or infinite).
func Interval(fps float64) (time.Duration, bool) {
	if fps <= 0 || math.IsNaN(fps) || math.IsInf(fps, 0) {
		return idleInterval, false
	}
	d := time.Duration(float64(time.Second) / fps)
	if d <= 0 {
		d = time.Nanosecond
	}
	return d, true
}

// Run advances the current frame once per tick while playback is on. It
// blocks until ctx is cancelled and then returns nil.
func (p *Player) Run(ctx context.Context) error {
	if p.autoplay {
		var prev atomic.Int64
		prev.Store(int64(p.anim.NumFrames()))
		stop := p.anim.OnNumFrames(func(n int) {
			if prev.Swap(int64(n)) <= 0 && n > 0 {
				p.logger.Debug("autoplay", "numFrames", n)
				p.anim.Play()
			}
		})
		defer stop()
	}

	fps := p.anim.FPS()
	interval, _ := Interval(fps)
	ticker := p.clock.NewTicker(interval)
	defer ticker.Stop()

	p.logger.Info("playback loop started", "fps", fps)
	defer p.logger.Info("playback loop stopped")

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C():
		}

		fps = p.tick(ticker, fps)
		if p.tickDone != nil {
			p.tickDone()
		}
	}
}

// tick handles one ticker tick given the frame rate the ticker was last
// set for, and returns the frame rate now in effect.
func (p *Player) tick(ticker Ticker, fps float64) float64 {
	if now := p.anim.FPS(); now != fps {
		fps = now
		interval, _ := Interval(fps)
		ticker.Reset(interval)
		p.logger.Debug("frame rate changed", "fps", fps, "interval", interval)
	}

	if _, ok := Interval(fps); ok && p.anim.IsPlaying() {
		p.Step(1)
	}
	return fps
}

// Step moves the current frame by n (negative steps go back). An absent
// frame counts as the position just before frame 0. Step does nothing when
// no frames are loaded.
func (p *Player) Step(n int) {
	total := p.anim.NumFrames()
	if total <= 0 {
		return
	}

	cur, ok := p.anim.CurrentFrameNumber().Int()
	if !ok {
		cur = -1
	}
	next := cur + n

	if !p.loop && (next >= total || next < 0) {
		if next >= total {
			next = total - 1
		} else {
			next = 0
		}
		p.anim.SetFrameNumber(next)
		p.anim.Pause()
		return
	}

	next %= total
	if next < 0 {
		next += total
	}
	p.anim.SetFrameNumber(next)
}
