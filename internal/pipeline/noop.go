package pipeline

import (
	"context"
	"sync"
)

// Noop is a Pipeline that tracks state transitions in memory without ever
// touching real media. It exists so the coordinator and hub can be built
// and tested end to end without a GStreamer (or equivalent) binding wired
// in; a production build swaps it for a real backend behind the same
// interface.
type Noop struct {
	mu       sync.Mutex
	uri      string
	state    PlaybackState
	position float64
	duration float64
	volume   float64
	rate     float64

	events chan Event
	closed bool
}

func NewNoop() *Noop {
	return &Noop{
		events: make(chan Event, 16),
		rate:   1,
		volume: 1,
	}
}

func (p *Noop) SetURI(_ context.Context, uri string, _ map[string]string) error {
	p.mu.Lock()
	p.uri = uri
	p.position = 0
	p.duration = 0
	p.mu.Unlock()
	p.emit(Event{Kind: EventURISet})
	p.emit(Event{Kind: EventURILoaded})
	return nil
}

func (p *Noop) SetState(_ context.Context, state PlaybackState) error {
	p.mu.Lock()
	old := p.state
	p.state = state
	p.mu.Unlock()
	p.emit(Event{Kind: EventStateChanged, OldState: old, NewState: state})
	return nil
}

func (p *Noop) Seek(_ context.Context, seconds float64) error {
	p.mu.Lock()
	p.position = seconds
	p.mu.Unlock()
	return nil
}

func (p *Noop) SetVolume(_ context.Context, volume float64) error {
	p.mu.Lock()
	p.volume = volume
	p.mu.Unlock()
	p.emit(Event{Kind: EventVolumeChanged, Volume: &volume})
	return nil
}

func (p *Noop) SetRate(_ context.Context, rate float64) error {
	p.mu.Lock()
	p.rate = rate
	p.mu.Unlock()
	p.emit(Event{Kind: EventRateChanged})
	return nil
}

func (p *Noop) Position(_ context.Context) (float64, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.uri == "" {
		return 0, false
	}
	return p.position, true
}

func (p *Noop) Duration(_ context.Context) (float64, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.uri == "" {
		return 0, false
	}
	return p.duration, true
}

func (p *Noop) Events() <-chan Event { return p.events }

func (p *Noop) Close(_ context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	close(p.events)
	return nil
}

func (p *Noop) emit(ev Event) {
	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		return
	}
	select {
	case p.events <- ev:
	default:
	}
}
