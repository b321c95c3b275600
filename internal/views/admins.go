package views

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/five82/femg/internal/backend"
	"github.com/five82/femg/internal/poller"
)

// MutationKind selects an admin mutation.
type MutationKind int

const (
	Create MutationKind = iota
	Update
	Deactivate
)

func (k MutationKind) String() string {
	switch k {
	case Create:
		return "create"
	case Update:
		return "update"
	case Deactivate:
		return "deactivate"
	default:
		return fmt.Sprintf("MutationKind(%d)", int(k))
	}
}

// Admins is the administrator list. It has no timer; it is fetched on mount
// and then after every successful mutation or manual refresh.
type Admins struct {
	*poller.Poller[backend.AdminList]
	api *backend.API
}

// NewAdmins builds the admin view.
func NewAdmins(d Deps) (*Admins, error) {
	p, err := newPoller(d, NameAdmins, d.Intervals.Admins,
		"Failed to load admins", d.API.Admins, nil)
	if err != nil {
		return nil, err
	}
	return &Admins{Poller: p, api: d.API}, nil
}

// Mutate sends one admin mutation. On success it waits for the admin list to
// be refetched before returning the mutation's response; the response itself
// is never merged into the list. On failure the error is recorded in the view
// and no refetch happens. Deactivate uses in.ID.
func (a *Admins) Mutate(ctx context.Context, kind MutationKind, in backend.AdminInput) (json.RawMessage, error) {
	var (
		resp json.RawMessage
		err  error
	)
	switch kind {
	case Create:
		resp, err = a.api.CreateAdmin(ctx, in)
	case Update:
		resp, err = a.api.UpdateAdmin(ctx, in)
	case Deactivate:
		resp, err = a.api.DeactivateAdmin(ctx, in.ID)
	default:
		return nil, fmt.Errorf("unknown mutation %v", kind)
	}
	if err != nil {
		err = fmt.Errorf("Failed to %s admin: %w", kind, err)
		a.Store().SetError(err.Error())
		return nil, err
	}

	if err := a.Refetch(ctx); err != nil {
		return resp, fmt.Errorf("refresh admins after %s: %w", kind, err)
	}
	return resp, nil
}

// Create adds an administrator.
func (a *Admins) Create(ctx context.Context, in backend.AdminInput) (json.RawMessage, error) {
	return a.Mutate(ctx, Create, in)
}

// Update changes an existing administrator.
func (a *Admins) Update(ctx context.Context, in backend.AdminInput) (json.RawMessage, error) {
	return a.Mutate(ctx, Update, in)
}

// Deactivate disables the administrator with the given id.
func (a *Admins) Deactivate(ctx context.Context, id string) (json.RawMessage, error) {
	return a.Mutate(ctx, Deactivate, backend.AdminInput{ID: id})
}
