package poller

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-logr/logr"

	"github.com/five82/femg/internal/backend"
	"github.com/five82/femg/internal/backend/backendtest"
)

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}

func newPoller[T any](t *testing.T, opts Options[T]) *Poller[T] {
	t.Helper()
	if opts.Name == "" {
		opts.Name = "test"
	}
	opts.Logger = logr.Discard()
	p, err := New(opts)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	t.Cleanup(p.Stop)
	return p
}

func TestNew_ValidatesOptions(t *testing.T) {
	fetch := func(context.Context) (int, error) { return 0, nil }
	tests := []struct {
		name string
		opts Options[int]
	}{
		{"missing name", Options[int]{Fetch: fetch}},
		{"missing fetch", Options[int]{Name: "x"}},
		{"negative interval", Options[int]{Name: "x", Fetch: fetch, Interval: -time.Second}},
		{"feeds without subscriber", Options[int]{Name: "x", Fetch: fetch, Feeds: []string{backend.TableSystemHealth}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.opts); err == nil {
				t.Fatal("New returned nil error")
			}
		})
	}
}

func TestPoller_FetchesImmediatelyOnStart(t *testing.T) {
	var calls atomic.Int32
	p := newPoller(t, Options[int]{
		Interval: time.Hour,
		Fetch: func(context.Context) (int, error) {
			return int(calls.Add(1)), nil
		},
	})

	if snap := p.Snapshot(); !snap.Loading {
		t.Fatal("Loading = false before the first fetch")
	}
	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	waitFor(t, "first fetch", func() bool { return p.Snapshot().HasData })

	snap := p.Snapshot()
	if snap.Data != 1 || snap.Loading || snap.Error != "" {
		t.Fatalf("snapshot = %+v, want data=1 settled", snap)
	}
}

func TestPoller_RefetchesOnInterval(t *testing.T) {
	var calls atomic.Int32
	p := newPoller(t, Options[int]{
		Interval: 5 * time.Millisecond,
		Fetch: func(context.Context) (int, error) {
			return int(calls.Add(1)), nil
		},
	})
	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	waitFor(t, "three fetches", func() bool { return calls.Load() >= 3 })
}

func TestPoller_ZeroIntervalFetchesOnce(t *testing.T) {
	var calls atomic.Int32
	p := newPoller(t, Options[int]{
		Fetch: func(context.Context) (int, error) {
			calls.Add(1)
			return 1, nil
		},
	})
	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	waitFor(t, "first fetch", func() bool { return p.Snapshot().HasData })
	time.Sleep(30 * time.Millisecond)
	if got := calls.Load(); got != 1 {
		t.Fatalf("fetches = %d, want 1 without a timer", got)
	}
}

func TestPoller_ChangeBurstTriggersOneExtraFetch(t *testing.T) {
	subs := &backendtest.MockSubscriber{}
	gate := make(chan struct{})
	var calls atomic.Int32
	p := newPoller(t, Options[int]{
		Feeds:      []string{backend.TableSystemHealth},
		Subscriber: subs,
		Fetch: func(context.Context) (int, error) {
			n := calls.Add(1)
			if n == 1 {
				<-gate
			}
			return int(n), nil
		},
	})
	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	if got := subs.Active(backend.TableSystemHealth); got != 1 {
		t.Fatalf("active subscriptions = %d, want 1", got)
	}

	for range 5 {
		subs.Emit(backend.TableSystemHealth)
	}
	close(gate)

	waitFor(t, "extra fetch", func() bool { return calls.Load() == 2 })
	time.Sleep(30 * time.Millisecond)
	if got := calls.Load(); got != 2 {
		t.Fatalf("fetches after burst = %d, want 2", got)
	}

	subs.Emit(backend.TableSystemHealth)
	waitFor(t, "fetch after single notification", func() bool { return calls.Load() == 3 })
	time.Sleep(30 * time.Millisecond)
	if got := calls.Load(); got != 3 {
		t.Fatalf("fetches after one notification = %d, want 3", got)
	}
	waitFor(t, "settled", func() bool { return p.Snapshot().Data == 3 })
}

func TestPoller_StopDiscardsInFlightResult(t *testing.T) {
	subs := &backendtest.MockSubscriber{}
	entered := make(chan struct{})
	gate := make(chan struct{})
	p := newPoller(t, Options[int]{
		Interval:   time.Hour,
		Feeds:      []string{backend.TableSystemHealth},
		Subscriber: subs,
		Fetch: func(context.Context) (int, error) {
			close(entered)
			<-gate
			return 42, nil
		},
	})
	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	<-entered

	before := p.Snapshot()
	p.Stop()
	if got := subs.Active(backend.TableSystemHealth); got != 0 {
		t.Fatalf("active subscriptions after Stop = %d, want 0", got)
	}
	close(gate)
	select {
	case <-p.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("fetch loop did not exit after Stop")
	}

	after := p.Snapshot()
	if after.HasData || after.Loading != before.Loading || after.Error != "" {
		t.Fatalf("state changed after Stop: before %+v after %+v", before, after)
	}
	if err := p.Refetch(context.Background()); !errors.Is(err, ErrStopped) {
		t.Fatalf("Refetch after Stop = %v, want ErrStopped", err)
	}
}

func TestPoller_ErrorKeepsStaleData(t *testing.T) {
	var fail atomic.Bool
	p := newPoller(t, Options[string]{
		FailureMessage: "Failed to load executive data",
		Fetch: func(context.Context) (string, error) {
			if fail.Load() {
				return "", errors.New("boom")
			}
			return "overview", nil
		},
	})

	if err := p.Refetch(context.Background()); err != nil {
		t.Fatalf("Refetch returned error: %v", err)
	}
	fail.Store(true)
	err := p.Refetch(context.Background())
	if err == nil {
		t.Fatal("Refetch returned nil error on failure")
	}

	snap := p.Snapshot()
	if snap.Data != "overview" || !snap.HasData {
		t.Fatalf("Data = %q, want stale overview kept", snap.Data)
	}
	if snap.Error != "Failed to load executive data: boom" || snap.Loading {
		t.Fatalf("snapshot = %+v, want prefixed error and not loading", snap)
	}
}

func TestPoller_DoubleRefetchIsIdempotent(t *testing.T) {
	p := newPoller(t, Options[[]string]{
		Fetch: func(context.Context) ([]string, error) {
			return []string{"a", "b"}, nil
		},
	})

	for i := range 2 {
		if err := p.Refetch(context.Background()); err != nil {
			t.Fatalf("Refetch #%d returned error: %v", i+1, err)
		}
	}
	snap := p.Snapshot()
	if len(snap.Data) != 2 || snap.Data[0] != "a" || snap.Error != "" || snap.Loading {
		t.Fatalf("snapshot = %+v, want unchanged data", snap)
	}
}

func TestPoller_LastInitiatedWins(t *testing.T) {
	entered := make(chan struct{})
	slow := make(chan struct{})
	var calls atomic.Int32
	p := newPoller(t, Options[int]{
		Fetch: func(context.Context) (int, error) {
			if calls.Add(1) == 1 {
				close(entered)
				<-slow
				return 1, nil
			}
			return 2, nil
		},
	})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = p.Refetch(context.Background())
	}()
	<-entered

	if err := p.Refetch(context.Background()); err != nil {
		t.Fatalf("second Refetch returned error: %v", err)
	}
	close(slow)
	wg.Wait()

	if got := p.Snapshot().Data; got != 2 {
		t.Fatalf("Data = %d, want 2 from the last initiated fetch", got)
	}
}

func TestPoller_SupersededRefetchWaitsForNewer(t *testing.T) {
	entered := []chan struct{}{make(chan struct{}), make(chan struct{})}
	release := []chan struct{}{make(chan struct{}), make(chan struct{})}
	var calls atomic.Int32
	p := newPoller(t, Options[int]{
		FailureMessage: "Failed to load test",
		Fetch: func(context.Context) (int, error) {
			i := calls.Add(1) - 1
			close(entered[i])
			<-release[i]
			if i == 1 {
				return 0, errors.New("boom")
			}
			return 1, nil
		},
	})

	first := make(chan error, 1)
	go func() { first <- p.Refetch(context.Background()) }()
	<-entered[0]
	second := make(chan error, 1)
	go func() { second <- p.Refetch(context.Background()) }()
	<-entered[1]

	close(release[0])
	select {
	case err := <-first:
		t.Fatalf("superseded Refetch returned %v before the newer fetch settled", err)
	case <-time.After(20 * time.Millisecond):
	}

	close(release[1])
	for name, ch := range map[string]chan error{"first": first, "second": second} {
		select {
		case err := <-ch:
			if err == nil || err.Error() != "Failed to load test: boom" {
				t.Fatalf("%s Refetch = %v, want the newer fetch's error", name, err)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("%s Refetch did not return", name)
		}
	}
}

func TestPoller_StartLifecycle(t *testing.T) {
	p := newPoller(t, Options[int]{
		Interval: time.Hour,
		Fetch:    func(context.Context) (int, error) { return 1, nil },
	})
	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	if err := p.Start(context.Background()); !errors.Is(err, ErrStarted) {
		t.Fatalf("second Start = %v, want ErrStarted", err)
	}
	p.Stop()
	p.Stop()
	if err := p.Start(context.Background()); !errors.Is(err, ErrStopped) {
		t.Fatalf("Start after Stop = %v, want ErrStopped", err)
	}
}

func TestPoller_ContextCancelEndsLoop(t *testing.T) {
	p := newPoller(t, Options[int]{
		Interval: time.Hour,
		Fetch:    func(context.Context) (int, error) { return 1, nil },
	})
	ctx, cancel := context.WithCancel(context.Background())
	if err := p.Start(ctx); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	cancel()
	select {
	case <-p.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("fetch loop did not exit after context cancel")
	}
}

func TestPoller_SubscribeFailureStillPolls(t *testing.T) {
	p := newPoller(t, Options[int]{
		Feeds:      []string{backend.TableNetworkAnalytics},
		Subscriber: &backendtest.MockSubscriber{Err: errors.New("realtime down")},
		Fetch:      func(context.Context) (int, error) { return 7, nil },
	})
	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	waitFor(t, "fetch", func() bool { return p.Snapshot().Data == 7 })
}

type countingRecorder struct {
	mu       sync.Mutex
	fetches  int
	failures int
}

func (r *countingRecorder) FetchDone(_ string, _ time.Duration, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fetches++
	if err != nil {
		r.failures++
	}
}

func TestPoller_RecordsFetches(t *testing.T) {
	rec := &countingRecorder{}
	var fail atomic.Bool
	p := newPoller(t, Options[int]{
		Recorder: rec,
		Fetch: func(context.Context) (int, error) {
			if fail.Load() {
				return 0, errors.New("down")
			}
			return 1, nil
		},
	})
	_ = p.Refetch(context.Background())
	fail.Store(true)
	_ = p.Refetch(context.Background())

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if rec.fetches != 2 || rec.failures != 1 {
		t.Fatalf("recorder = %d fetches %d failures, want 2 and 1", rec.fetches, rec.failures)
	}
}

func TestPoller_StatusAndChanged(t *testing.T) {
	p := newPoller(t, Options[int]{
		Name:  "executive",
		Fetch: func(context.Context) (int, error) { return 0, errors.New("down") },
	})
	ch := p.Changed()
	_ = p.Refetch(context.Background())
	select {
	case <-ch:
	default:
		t.Fatal("Changed not closed after a fetch")
	}
	_ = p.Refetch(context.Background())

	st := p.Status()
	if st.View != "executive" || st.HasData || st.Loading || st.Error != "down" || !st.Offline() {
		t.Fatalf("Status = %+v, want offline executive with error", st)
	}
}
