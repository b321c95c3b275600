package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrEmptyResult is returned by write actions whose response carried no data.
var ErrEmptyResult = errors.New("empty response")

// API is the typed view over an Invoker: one method per endpoint/action pair,
// each decoding into its own response type.
type API struct {
	inv Invoker
}

// NewAPI wraps inv.
func NewAPI(inv Invoker) *API {
	return &API{inv: inv}
}

// Invoker returns the underlying gateway.
func (a *API) Invoker() Invoker {
	return a.inv
}

// ExecutiveOverview fetches the executive overview.
func (a *API) ExecutiveOverview(ctx context.Context) (ExecutiveOverview, error) {
	return read[ExecutiveOverview](ctx, a.inv, DashboardQuery, ActionExecutiveOverview)
}

// SystemStatus fetches per-platform service health.
func (a *API) SystemStatus(ctx context.Context) (SystemStatus, error) {
	return read[SystemStatus](ctx, a.inv, DashboardQuery, ActionSystemStatus)
}

// BusinessIntelligence fetches revenue, growth and engagement metrics.
func (a *API) BusinessIntelligence(ctx context.Context) (BusinessIntelligence, error) {
	return read[BusinessIntelligence](ctx, a.inv, DashboardQuery, ActionBusinessIntelligence)
}

// RealTimeMetrics fetches the mission control overview and alerts.
func (a *API) RealTimeMetrics(ctx context.Context) (RealTimeMetrics, error) {
	return read[RealTimeMetrics](ctx, a.inv, MissionControlAction, ActionRealTimeMetrics)
}

// Admins fetches all administrator records.
func (a *API) Admins(ctx context.Context) (AdminList, error) {
	return read[AdminList](ctx, a.inv, AdminAction, ActionGetAdmins)
}

// CreateAdmin creates an administrator and returns the raw response.
func (a *API) CreateAdmin(ctx context.Context, in AdminInput) (json.RawMessage, error) {
	return write(ctx, a.inv, AdminAction, ActionCreateAdmin, in)
}

// UpdateAdmin updates an administrator and returns the raw response.
func (a *API) UpdateAdmin(ctx context.Context, in AdminInput) (json.RawMessage, error) {
	if in.ID == "" {
		return nil, fmt.Errorf("update_admin: id is required")
	}
	return write(ctx, a.inv, AdminAction, ActionUpdateAdmin, in)
}

// DeactivateAdmin deactivates the administrator with the given id.
func (a *API) DeactivateAdmin(ctx context.Context, id string) (json.RawMessage, error) {
	if id == "" {
		return nil, fmt.Errorf("deactivate_admin: id is required")
	}
	return write(ctx, a.inv, AdminAction, ActionDeactivateAdmin, map[string]string{"id": id})
}

// GenerateExecutiveReport asks mission control for a report document.
func (a *API) GenerateExecutiveReport(ctx context.Context) (json.RawMessage, error) {
	return write(ctx, a.inv, MissionControlAction, ActionGenerateExecutiveReport, nil)
}

// NetworkHealthCheck triggers a network-wide health check.
func (a *API) NetworkHealthCheck(ctx context.Context) (json.RawMessage, error) {
	return write(ctx, a.inv, MissionControlAction, ActionNetworkHealthCheck, nil)
}

// read decodes a query result. Empty data is a valid empty state.
func read[T any](ctx context.Context, inv Invoker, endpoint Endpoint, action string) (T, error) {
	var out T
	res := inv.Invoke(ctx, Request{Endpoint: endpoint, Action: action})
	if err := res.Err(); err != nil {
		return out, err
	}
	if res.Empty() {
		return out, nil
	}
	if err := json.Unmarshal(res.Data, &out); err != nil {
		var zero T
		return zero, fmt.Errorf("decode %s: %w", action, err)
	}
	return out, nil
}

// write returns the raw response of a command. Empty data is a failure.
func write(ctx context.Context, inv Invoker, endpoint Endpoint, action string, payload any) (json.RawMessage, error) {
	res := inv.Invoke(ctx, Request{Endpoint: endpoint, Action: action, Payload: payload})
	if err := res.Err(); err != nil {
		return nil, err
	}
	if res.Empty() {
		return nil, fmt.Errorf("%s: %w", action, ErrEmptyResult)
	}
	return res.Data, nil
}
