package views

import (
	"context"
	"time"

	"github.com/go-logr/logr"

	"github.com/five82/femg/internal/backend"
	"github.com/five82/femg/internal/poller"
)

// View names, also used as log and monitor keys.
const (
	NameExecutive            = "executive"
	NameSystemHealth         = "system_health"
	NameMissionControl       = "mission_control"
	NameBusinessIntelligence = "business_intelligence"
	NameAdmins               = "admins"
)

// Names returns every view name.
func Names() []string {
	return []string{NameExecutive, NameSystemHealth, NameMissionControl, NameBusinessIntelligence, NameAdmins}
}

// Intervals holds the refetch cadence of every view. Zero disables the timer.
type Intervals struct {
	Executive            time.Duration
	SystemHealth         time.Duration
	MissionControl       time.Duration
	BusinessIntelligence time.Duration
	Admins               time.Duration
}

// DefaultIntervals returns the standard dashboard cadence.
func DefaultIntervals() Intervals {
	return Intervals{
		Executive:            30 * time.Second,
		SystemHealth:         15 * time.Second,
		MissionControl:       10 * time.Second,
		BusinessIntelligence: 60 * time.Second,
	}
}

// Deps are shared by every view.
type Deps struct {
	API *backend.API
	// Subscriber provides change feeds. Nil disables them.
	Subscriber backend.Subscriber
	Intervals  Intervals
	// NetworkAnalyticsFeed refreshes business intelligence on
	// network_analytics changes.
	NetworkAnalyticsFeed bool
	Logger               logr.Logger
	Recorder             poller.Recorder
}

func (d Deps) feeds(tables ...string) []string {
	if d.Subscriber == nil {
		return nil
	}
	return tables
}

func newPoller[T any](d Deps, name string, interval time.Duration, failMsg string, fetch func(context.Context) (T, error), feeds []string) (*poller.Poller[T], error) {
	return poller.New(poller.Options[T]{
		Name:           name,
		Interval:       interval,
		Fetch:          fetch,
		Feeds:          feeds,
		Subscriber:     d.Subscriber,
		FailureMessage: failMsg,
		Logger:         d.Logger,
		Recorder:       d.Recorder,
	})
}

// Executive is the executive overview view.
type Executive struct {
	*poller.Poller[backend.ExecutiveOverview]
}

// NewExecutive builds the executive overview view.
func NewExecutive(d Deps) (*Executive, error) {
	p, err := newPoller(d, NameExecutive, d.Intervals.Executive,
		"Failed to load executive data", d.API.ExecutiveOverview, nil)
	if err != nil {
		return nil, err
	}
	return &Executive{Poller: p}, nil
}

// SystemHealth is the per-platform service health view. It also refreshes on
// every change to the system_health table.
type SystemHealth struct {
	*poller.Poller[backend.SystemStatus]
}

// NewSystemHealth builds the system health view.
func NewSystemHealth(d Deps) (*SystemHealth, error) {
	p, err := newPoller(d, NameSystemHealth, d.Intervals.SystemHealth,
		"Failed to load system health", d.API.SystemStatus, d.feeds(backend.TableSystemHealth))
	if err != nil {
		return nil, err
	}
	return &SystemHealth{Poller: p}, nil
}

// BusinessIntelligence is the revenue, growth and engagement view.
type BusinessIntelligence struct {
	*poller.Poller[backend.BusinessIntelligence]
}

// NewBusinessIntelligence builds the business intelligence view.
func NewBusinessIntelligence(d Deps) (*BusinessIntelligence, error) {
	var feeds []string
	if d.NetworkAnalyticsFeed {
		feeds = d.feeds(backend.TableNetworkAnalytics)
	}
	p, err := newPoller(d, NameBusinessIntelligence, d.Intervals.BusinessIntelligence,
		"Failed to load business data", d.API.BusinessIntelligence, feeds)
	if err != nil {
		return nil, err
	}
	return &BusinessIntelligence{Poller: p}, nil
}
