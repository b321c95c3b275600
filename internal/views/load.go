package views

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"github.com/five82/femg/internal/backend"
)

// Overview is a one-shot read of every dashboard view.
type Overview struct {
	Executive            *backend.ExecutiveOverview    `json:"executive,omitempty"`
	SystemHealth         *backend.SystemStatus         `json:"systemHealth,omitempty"`
	MissionControl       *backend.RealTimeMetrics      `json:"missionControl,omitempty"`
	BusinessIntelligence *backend.BusinessIntelligence `json:"businessIntelligence,omitempty"`
	Admins               *backend.AdminList            `json:"admins,omitempty"`
	// Errors maps view name to the failure that left its field nil.
	Errors map[string]string `json:"errors,omitempty"`
}

// LoadAll fetches every view in parallel, without pollers. One view failing
// does not affect the others; the returned error joins all failures.
func LoadAll(ctx context.Context, api *backend.API) (Overview, error) {
	var (
		out  Overview
		errs = make([]error, 5)
		g    errgroup.Group
	)
	g.Go(func() error {
		v, err := api.ExecutiveOverview(ctx)
		if errs[0] = err; err == nil {
			out.Executive = &v
		}
		return nil
	})
	g.Go(func() error {
		v, err := api.SystemStatus(ctx)
		if errs[1] = err; err == nil {
			out.SystemHealth = &v
		}
		return nil
	})
	g.Go(func() error {
		v, err := api.RealTimeMetrics(ctx)
		if errs[2] = err; err == nil {
			out.MissionControl = &v
		}
		return nil
	})
	g.Go(func() error {
		v, err := api.BusinessIntelligence(ctx)
		if errs[3] = err; err == nil {
			out.BusinessIntelligence = &v
		}
		return nil
	})
	g.Go(func() error {
		v, err := api.Admins(ctx)
		if errs[4] = err; err == nil {
			out.Admins = &v
		}
		return nil
	})
	_ = g.Wait()

	names := Names()
	for i, err := range errs {
		if err == nil {
			continue
		}
		if out.Errors == nil {
			out.Errors = make(map[string]string)
		}
		out.Errors[names[i]] = err.Error()
	}
	return out, errors.Join(errs...)
}
