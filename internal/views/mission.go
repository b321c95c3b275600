package views

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/five82/femg/internal/backend"
	"github.com/five82/femg/internal/poller"
)

// MissionControl is the real-time network view. It also carries the report
// and health check commands.
type MissionControl struct {
	*poller.Poller[backend.RealTimeMetrics]
	api *backend.API
}

// NewMissionControl builds the mission control view.
func NewMissionControl(d Deps) (*MissionControl, error) {
	p, err := newPoller(d, NameMissionControl, d.Intervals.MissionControl,
		"Failed to load mission control data", d.API.RealTimeMetrics, nil)
	if err != nil {
		return nil, err
	}
	return &MissionControl{Poller: p, api: d.API}, nil
}

// GenerateExecutiveReport fetches a report document. Failures are also
// recorded as the view's error.
func (m *MissionControl) GenerateExecutiveReport(ctx context.Context) (json.RawMessage, error) {
	doc, err := m.api.GenerateExecutiveReport(ctx)
	if err != nil {
		return nil, m.fail("generate report", err)
	}
	return doc, nil
}

// PerformHealthCheck triggers a network-wide health check. Failures are also
// recorded as the view's error.
func (m *MissionControl) PerformHealthCheck(ctx context.Context) (json.RawMessage, error) {
	res, err := m.api.NetworkHealthCheck(ctx)
	if err != nil {
		return nil, m.fail("perform health check", err)
	}
	return res, nil
}

func (m *MissionControl) fail(verb string, err error) error {
	err = fmt.Errorf("Failed to %s: %w", verb, err)
	m.Store().SetError(err.Error())
	return err
}
