package audio

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
)

// Sink is a platform audio output. Play returns once playback has
// completed naturally or ctx is done.
type Sink interface {
	Play(ctx context.Context, buf *Buffer) error
}

// ErrPlayerBusy is returned when a buffer is submitted while another plays.
var ErrPlayerBusy = errors.New("player is already speaking")

// Player owns one buffer at a time. Speaking reports true from submission
// until the sink signals completion.
type Player struct {
	sink     Sink
	mu       sync.Mutex
	speaking atomic.Bool
	played   atomic.Int64
}

func NewPlayer(sink Sink) *Player {
	return &Player{sink: sink}
}

// Play blocks for the whole playback. Concurrent calls are rejected, not
// mixed: callers serialize through the post-action runner.
func (p *Player) Play(ctx context.Context, buf *Buffer) error {
	if buf == nil || buf.FrameCount() == 0 {
		return nil
	}
	if !p.mu.TryLock() {
		return ErrPlayerBusy
	}
	defer p.mu.Unlock()

	p.speaking.Store(true)
	defer p.speaking.Store(false)

	if err := p.sink.Play(ctx, buf); err != nil {
		return fmt.Errorf("audio sink: %w", err)
	}
	p.played.Add(1)
	return nil
}

func (p *Player) Speaking() bool { return p.speaking.Load() }

// Played counts buffers that completed playback.
func (p *Player) Played() int64 { return p.played.Load() }

// DiscardSink drops audio immediately. Used headless and in tests.
type DiscardSink struct{}

func (DiscardSink) Play(ctx context.Context, buf *Buffer) error { return ctx.Err() }
