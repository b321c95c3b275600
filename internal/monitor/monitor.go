// Package monitor keeps per-view fetch statistics and periodically logs them.
package monitor

import (
	"sort"
	"sync"
	"time"

	movingaverage "github.com/RobinUS2/golang-moving-average"
	"github.com/go-logr/logr"
)

const (
	defaultWindow = 5
	defaultPeriod = time.Minute
)

// Stats is the report for one view.
type Stats struct {
	View       string
	Fetches    int
	Failures   int
	AvgLatency time.Duration // moving average over the last few fetches
	LastError  string
}

type viewStats struct {
	latency   *movingaverage.MovingAverage
	fetches   int
	failures  int
	lastError string
}

// Monitor keeps fetch stats for every view.
type Monitor struct {
	sync.Mutex
	log    logr.Logger
	window int
	views  map[string]*viewStats
	stopCh chan struct{}
	doneCh chan struct{}
}

// New returns a Monitor averaging latency over window samples.
func New(log logr.Logger, window int) *Monitor {
	if window <= 0 {
		window = defaultWindow
	}
	return &Monitor{
		log:    log.WithName("monitor"),
		window: window,
		views:  make(map[string]*viewStats),
	}
}

// FetchDone records one settled fetch of view.
func (m *Monitor) FetchDone(view string, dur time.Duration, err error) {
	if m == nil {
		return
	}
	m.Lock()
	defer m.Unlock()

	vs, ok := m.views[view]
	if !ok {
		vs = &viewStats{latency: movingaverage.New(m.window)}
		m.views[view] = vs
	}
	vs.fetches++
	vs.latency.Add(float64(dur/time.Microsecond) / 1000.0)
	if err != nil {
		vs.failures++
		vs.lastError = err.Error()
	}
}

// Stats returns the current stats sorted by view name.
func (m *Monitor) Stats() []Stats {
	m.Lock()
	defer m.Unlock()

	out := make([]Stats, 0, len(m.views))
	for name, vs := range m.views {
		out = append(out, Stats{
			View:       name,
			Fetches:    vs.fetches,
			Failures:   vs.failures,
			AvgLatency: time.Duration(vs.latency.Avg() * float64(time.Millisecond)),
			LastError:  vs.lastError,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].View < out[j].View })
	return out
}

// Start starts the Monitor worker, logging a report every period.
func (m *Monitor) Start(period time.Duration) {
	m.Lock()
	defer m.Unlock()

	if m.stopCh != nil {
		return
	}
	if period <= 0 {
		period = defaultPeriod
	}
	m.stopCh = make(chan struct{})
	m.doneCh = make(chan struct{})
	go m.worker(period, m.stopCh, m.doneCh)
}

// Stop stops the Monitor worker and waits for it to exit.
func (m *Monitor) Stop() {
	m.Lock()
	stopCh, doneCh := m.stopCh, m.doneCh
	m.stopCh, m.doneCh = nil, nil
	m.Unlock()

	if stopCh == nil {
		return
	}
	close(stopCh)
	<-doneCh
}

func (m *Monitor) worker(period time.Duration, stopCh <-chan struct{}, doneCh chan<- struct{}) {
	defer close(doneCh)

	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			m.report()
		}
	}
}

func (m *Monitor) report() {
	for _, s := range m.Stats() {
		m.log.V(1).Info("fetch stats",
			"view", s.View,
			"fetches", s.Fetches,
			"failures", s.Failures,
			"avgLatencyMs", s.AvgLatency.Milliseconds(),
			"lastError", s.LastError,
		)
	}
}
