package store

import (
	"context"
	"sync"
	"time"

	"github.com/prasannakumar32/smart-bookmark/internal/logging"
	"github.com/prasannakumar32/smart-bookmark/internal/types"
)

// PollInterval is how often the fallback re-fetches the full list while
// the push channel is degraded.
const PollInterval = 5 * time.Second

// Poller periodically re-fetches the full bookmark list and hands it to
// the engine. It runs only while the push channel is down; the subscriber
// starts it on failure and stops it on recovery, so at most one truth
// source is active at a time.
type Poller struct {
	Engine   *Engine
	Fetch    func(ctx context.Context) ([]types.Bookmark, error)
	Interval time.Duration

	mu      sync.Mutex
	cancel  context.CancelFunc
	running bool
}

func (p *Poller) interval() time.Duration {
	if p.Interval > 0 {
		return p.Interval
	}
	return PollInterval
}

// Start begins polling. Calling Start while already running is a no-op.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return
	}
	pollCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.running = true
	go p.loop(pollCtx)
	logging.Logger.Infow("polling fallback started", "interval", p.interval())
}

// Stop cancels the poll loop. An in-flight fetch sees its context
// cancelled; if its response arrives anyway, the engine's issuance check
// keeps it from clobbering fresher state.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.running {
		return
	}
	p.cancel()
	p.running = false
	logging.Logger.Infow("polling fallback stopped")
}

func (p *Poller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *Poller) loop(ctx context.Context) {
	ticker := time.NewTicker(p.interval())
	defer ticker.Stop()

	p.poll(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.poll(ctx)
		}
	}
}

func (p *Poller) poll(ctx context.Context) {
	issuedAt := time.Now()
	list, err := p.Fetch(ctx)
	if err != nil {
		if ctx.Err() == nil {
			logging.Logger.Warnw("poll fetch failed", "error", err)
		}
		return
	}
	p.Engine.ApplyPollSnapshot(list, issuedAt)
}
