package poller

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-logr/logr"

	"github.com/five82/femg/internal/backend"
	"github.com/five82/femg/internal/state"
)

var (
	// ErrStarted is returned by Start on a poller that is already running.
	ErrStarted = errors.New("poller already started")
	// ErrStopped is returned once a poller has been stopped.
	ErrStopped = errors.New("poller stopped")
)

// Recorder receives the outcome of every fetch.
type Recorder interface {
	FetchDone(view string, dur time.Duration, err error)
}

// Options configure a Poller.
type Options[T any] struct {
	Name string
	// Interval between scheduled fetches. Zero disables the timer: the view
	// is fetched once on Start and afterwards only on demand.
	Interval time.Duration
	Fetch    func(ctx context.Context) (T, error)

	// Feeds are tables whose change notifications trigger an extra fetch.
	Feeds      []string
	Subscriber backend.Subscriber

	// FailureMessage prefixes fetch errors stored in the view state.
	FailureMessage string

	Logger   logr.Logger
	Recorder Recorder
}

// Status is the data-independent part of a view's state.
type Status struct {
	View                string
	HasData             bool
	Loading             bool
	Error               string
	LastUpdate          time.Time
	ConsecutiveFailures int
}

// Offline reports whether the view has failed several fetches in a row.
func (s Status) Offline() bool { return s.ConsecutiveFailures >= 2 }

type lifecycle int

const (
	idle lifecycle = iota
	running
	stopped
)

// Poller keeps one view's state fresh.
type Poller[T any] struct {
	name     string
	interval time.Duration
	fetch    func(ctx context.Context) (T, error)
	feeds    []string
	sub      backend.Subscriber
	failMsg  string
	log      logr.Logger
	rec      Recorder

	store *state.Store[T]
	kick  chan struct{}

	mu     sync.Mutex
	phase  lifecycle
	cancel context.CancelFunc
	subs   []backend.Subscription
	done   chan struct{}
}

// New builds a poller. It does not fetch until Start or Refetch is called.
func New[T any](opts Options[T]) (*Poller[T], error) {
	if opts.Name == "" {
		return nil, errors.New("poller name is required")
	}
	if opts.Fetch == nil {
		return nil, fmt.Errorf("poller %s: fetch func is required", opts.Name)
	}
	if opts.Interval < 0 {
		return nil, fmt.Errorf("poller %s: negative interval %v", opts.Name, opts.Interval)
	}
	if len(opts.Feeds) > 0 && opts.Subscriber == nil {
		return nil, fmt.Errorf("poller %s: feeds configured without a subscriber", opts.Name)
	}
	return &Poller[T]{
		name:     opts.Name,
		interval: opts.Interval,
		fetch:    opts.Fetch,
		feeds:    append([]string(nil), opts.Feeds...),
		sub:      opts.Subscriber,
		failMsg:  opts.FailureMessage,
		log:      opts.Logger.WithValues("view", opts.Name),
		rec:      opts.Recorder,
		store:    state.NewStore[T](),
		kick:     make(chan struct{}, 1),
	}, nil
}

// Name returns the view name.
func (p *Poller[T]) Name() string { return p.name }

// Interval returns the scheduled fetch interval.
func (p *Poller[T]) Interval() time.Duration { return p.interval }

// Store returns the view's state store.
func (p *Poller[T]) Store() *state.Store[T] { return p.store }

// Snapshot returns the view's current state.
func (p *Poller[T]) Snapshot() state.Snapshot[T] { return p.store.Snapshot() }

// Changed returns a channel closed on the next change of the view state.
func (p *Poller[T]) Changed() <-chan struct{} { return p.store.Changed() }

// ClearError dismisses the view's current error.
func (p *Poller[T]) ClearError() { p.store.ClearError() }

// Status summarizes the view state without its data.
func (p *Poller[T]) Status() Status {
	snap := p.store.Snapshot()
	return Status{
		View:                p.name,
		HasData:             snap.HasData,
		Loading:             snap.Loading,
		Error:               snap.Error,
		LastUpdate:          snap.LastUpdate,
		ConsecutiveFailures: snap.ConsecutiveFailures,
	}
}

// Start subscribes to the configured feeds and launches the fetch loop. The
// first fetch starts immediately. It returns without waiting for it.
func (p *Poller[T]) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch p.phase {
	case running:
		return ErrStarted
	case stopped:
		return ErrStopped
	}

	runCtx, cancel := context.WithCancel(ctx)
	for _, table := range p.feeds {
		sub, err := p.sub.Subscribe(table, p.notify)
		if err != nil {
			// Polling still covers the view; only push refreshes are lost.
			p.log.Error(err, "change feed unavailable", "table", table)
			continue
		}
		p.subs = append(p.subs, sub)
	}

	p.cancel = cancel
	p.done = make(chan struct{})
	p.phase = running
	go p.run(runCtx, p.done)
	return nil
}

// Stop cancels the timer, releases feed subscriptions and tears the store
// down. A fetch still in flight finishes in the background but its result is
// discarded. Stop is idempotent.
func (p *Poller[T]) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.phase == stopped {
		return
	}
	p.phase = stopped
	p.store.Close()
	if p.cancel != nil {
		p.cancel()
	}
	for _, sub := range p.subs {
		sub.Release()
	}
	p.subs = nil
}

// Done is closed when the fetch loop has exited. It is nil before Start.
func (p *Poller[T]) Done() <-chan struct{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.done
}

// Refetch runs one fetch on the caller's goroutine and returns its error.
// Concurrent fetches are not cancelled; the last one begun is the one kept.
// When this fetch is superseded, Refetch waits for the newer one to settle
// and returns its outcome instead.
func (p *Poller[T]) Refetch(ctx context.Context) error {
	return p.refetch(ctx, "manual")
}

func (p *Poller[T]) notify() {
	select {
	case p.kick <- struct{}{}:
	default:
		// a refetch is already pending
	}
}

func (p *Poller[T]) run(ctx context.Context, done chan<- struct{}) {
	defer close(done)

	var tick <-chan time.Time
	if p.interval > 0 {
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	_ = p.refetch(ctx, "mount")
	for {
		select {
		case <-ctx.Done():
			return
		case <-tick:
			_ = p.refetch(ctx, "interval")
		case <-p.kick:
			_ = p.refetch(ctx, "change")
		}
	}
}

func (p *Poller[T]) refetch(ctx context.Context, reason string) error {
	seq, ok := p.store.Begin()
	if !ok {
		return ErrStopped
	}

	start := time.Now()
	data, err := p.fetch(ctx)
	if p.rec != nil {
		p.rec.FetchDone(p.name, time.Since(start), err)
	}
	if err != nil && p.failMsg != "" {
		err = fmt.Errorf("%s: %w", p.failMsg, err)
	}

	if !p.store.Apply(seq, data, err) {
		p.log.V(1).Info("discarded fetch result", "reason", reason, "seq", seq)
		if p.store.Closed() {
			return ErrStopped
		}
		// A newer fetch owns the view; its outcome is the result of this call.
		snap, werr := p.store.WaitSettled(ctx)
		if werr != nil {
			return werr
		}
		if p.store.Closed() {
			return ErrStopped
		}
		return snap.Err()
	}
	if err != nil {
		p.log.V(1).Info("fetch failed", "reason", reason, "error", err.Error())
	} else {
		p.log.V(2).Info("fetch settled", "reason", reason, "took", time.Since(start))
	}
	return err
}
