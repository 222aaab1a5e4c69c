// Package poller keeps the unread-notification aggregate approximately fresh
// on a fixed interval, independent of which views are open.
package poller

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	DefaultInterval = 30 * time.Second
	DefaultTimeout  = 10 * time.Second
)

// CountSource fetches the aggregate from the server.
type CountSource interface {
	UnreadCount(ctx context.Context) (int64, error)
}

// Status is the poller's health snapshot.
type Status struct {
	Value     int64     `json:"value"`
	Known     bool      `json:"known"`
	LastSync  time.Time `json:"lastSync"`
	LastError string    `json:"lastError,omitempty"`
	Running   bool      `json:"running"`
}

// Poller owns the unread count. Nothing else writes it; every update is a
// wholesale replacement from a successful fetch.
type Poller struct {
	src      CountSource
	interval time.Duration
	timeout  time.Duration

	// refreshMu serializes fetches so a forced refresh never races a tick.
	refreshMu sync.Mutex

	mu       sync.RWMutex
	value    int64
	known    bool
	lastSync time.Time
	lastErr  error
	subs     map[int]func(int64)
	nextSub  int
	running  bool

	triggerCh chan struct{}
	stopCh    chan struct{}
	done      chan struct{}
}

// New creates a Poller. Non-positive durations take the defaults.
func New(src CountSource, interval, timeout time.Duration) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Poller{
		src:       src,
		interval:  interval,
		timeout:   timeout,
		subs:      make(map[int]func(int64)),
		triggerCh: make(chan struct{}, 1),
	}
}

// Start polls once immediately, then every interval until Stop or until ctx
// is cancelled. Calling Start on a running poller is a no-op.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.done = make(chan struct{})
	stopCh, done := p.stopCh, p.done
	p.mu.Unlock()

	log.Info().Dur("interval", p.interval).Msg("unread-count poller started")
	go p.loop(ctx, stopCh, done)
}

// Stop halts the loop and waits for an in-progress poll to finish.
func (p *Poller) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	close(p.stopCh)
	done := p.done
	p.mu.Unlock()

	<-done
	log.Info().Msg("unread-count poller stopped")
}

func (p *Poller) loop(ctx context.Context, stopCh <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	_ = p.Refresh(ctx)

	for {
		select {
		case <-stopCh:
			return
		case <-ctx.Done():
			p.mu.Lock()
			p.running = false
			p.mu.Unlock()
			return
		case <-ticker.C:
			_ = p.Refresh(ctx)
		case <-p.triggerCh:
			_ = p.Refresh(ctx)
			ticker.Reset(p.interval)
		}
	}
}

// Current returns the last known count. ok is false until the first
// successful fetch. The value may be up to one interval old.
func (p *Poller) Current() (value int64, ok bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.value, p.known
}

// Refresh fetches the count now. On failure the last known value is kept and
// the error is returned to the caller only; Current never reflects it.
func (p *Poller) Refresh(ctx context.Context) error {
	p.refreshMu.Lock()
	defer p.refreshMu.Unlock()

	fctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	count, err := p.src.UnreadCount(fctx)
	if err != nil {
		p.mu.Lock()
		p.lastErr = err
		prev, known := p.value, p.known
		p.mu.Unlock()

		log.Warn().Err(err).Int64("kept", prev).Bool("known", known).Msg("unread-count poll failed, keeping last value")
		return err
	}

	p.mu.Lock()
	changed := !p.known || p.value != count
	p.value = count
	p.known = true
	p.lastSync = time.Now()
	p.lastErr = nil
	var subs []func(int64)
	if changed {
		subs = make([]func(int64), 0, len(p.subs))
		for _, fn := range p.subs {
			subs = append(subs, fn)
		}
	}
	p.mu.Unlock()

	if changed {
		log.Debug().Int64("count", count).Msg("unread count changed")
		for _, fn := range subs {
			fn(count)
		}
	}
	return nil
}

// Trigger requests an asynchronous refresh from the loop without blocking.
// Requests coalesce while one is pending.
func (p *Poller) Trigger() {
	select {
	case p.triggerCh <- struct{}{}:
	default:
	}
}

// Subscribe registers fn for every change of the count. If a value is
// already known fn receives it first. A refresh in flight completes before
// registration, so fn never sees an older value after a newer one. fn must
// not call Refresh or Subscribe.
func (p *Poller) Subscribe(fn func(int64)) (unsubscribe func()) {
	p.refreshMu.Lock()
	defer p.refreshMu.Unlock()

	p.mu.Lock()
	id := p.nextSub
	p.nextSub++
	p.subs[id] = fn
	value, known := p.value, p.known
	p.mu.Unlock()

	if known {
		fn(value)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			p.mu.Lock()
			delete(p.subs, id)
			p.mu.Unlock()
		})
	}
}

// Status returns a health snapshot.
func (p *Poller) Status() Status {
	p.mu.RLock()
	defer p.mu.RUnlock()

	s := Status{Value: p.value, Known: p.known, LastSync: p.lastSync, Running: p.running}
	if p.lastErr != nil {
		s.LastError = p.lastErr.Error()
	}
	return s
}
