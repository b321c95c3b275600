package views

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/five82/femg/internal/poller"
)

// Page is one dashboard tab.
type Page string

const (
	PageExecutive    Page = "executive"
	PageOperations   Page = "operations"
	PageIntelligence Page = "intelligence"
	PageAdmin        Page = "admin"
)

// Pages returns all pages in tab order.
func Pages() []Page {
	return []Page{PageExecutive, PageOperations, PageIntelligence, PageAdmin}
}

// Title returns the tab label.
func (p Page) Title() string {
	switch p {
	case PageExecutive:
		return "Executive Overview"
	case PageOperations:
		return "Operations"
	case PageIntelligence:
		return "Business Intelligence"
	case PageAdmin:
		return "Admin Management"
	default:
		return string(p)
	}
}

// ParsePage resolves a page name, case-insensitively.
func ParsePage(name string) (Page, error) {
	want := Page(strings.ToLower(strings.TrimSpace(name)))
	for _, p := range Pages() {
		if p == want {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown page %q (want one of executive, operations, intelligence, admin)", name)
}

// view is the lifecycle shared by every view type.
type view interface {
	Name() string
	Start(ctx context.Context) error
	Stop()
	Refetch(ctx context.Context) error
	Changed() <-chan struct{}
	Status() poller.Status
	ClearError()
}

// Mounted is the set of running views for one page. Fields for views the
// page does not show are nil.
type Mounted struct {
	Page                 Page
	Executive            *Executive
	SystemHealth         *SystemHealth
	MissionControl       *MissionControl
	BusinessIntelligence *BusinessIntelligence
	Admins               *Admins

	views []view
}

// Mount builds and starts the views of page. Each view fetches immediately.
func Mount(ctx context.Context, page Page, d Deps) (*Mounted, error) {
	if d.API == nil {
		return nil, errors.New("mount: backend API is required")
	}
	m := &Mounted{Page: page}

	var err error
	switch page {
	case PageExecutive:
		if m.Executive, err = NewExecutive(d); err == nil {
			m.views = append(m.views, m.Executive)
		}
	case PageOperations:
		if m.SystemHealth, err = NewSystemHealth(d); err == nil {
			m.views = append(m.views, m.SystemHealth)
			if m.MissionControl, err = NewMissionControl(d); err == nil {
				m.views = append(m.views, m.MissionControl)
			}
		}
	case PageIntelligence:
		if m.BusinessIntelligence, err = NewBusinessIntelligence(d); err == nil {
			m.views = append(m.views, m.BusinessIntelligence)
			if m.MissionControl, err = NewMissionControl(d); err == nil {
				m.views = append(m.views, m.MissionControl)
			}
		}
	case PageAdmin:
		if m.Admins, err = NewAdmins(d); err == nil {
			m.views = append(m.views, m.Admins)
		}
	default:
		return nil, fmt.Errorf("mount: unknown page %q", page)
	}
	if err != nil {
		return nil, fmt.Errorf("mount %s: %w", page, err)
	}

	for _, v := range m.views {
		if err := v.Start(ctx); err != nil {
			m.Unmount()
			return nil, fmt.Errorf("start %s: %w", v.Name(), err)
		}
	}
	d.Logger.V(1).Info("page mounted", "page", page, "views", len(m.views))
	return m, nil
}

// Unmount stops every view of the page. Results still in flight are dropped.
func (m *Mounted) Unmount() {
	for _, v := range m.views {
		v.Stop()
	}
}

// Refresh refetches every view concurrently and waits for all of them. It
// returns the first error; every view still records its own.
func (m *Mounted) Refresh(ctx context.Context) error {
	var g errgroup.Group
	for _, v := range m.views {
		g.Go(func() error { return v.Refetch(ctx) })
	}
	return g.Wait()
}

// Statuses returns the status of every view in mount order.
func (m *Mounted) Statuses() []poller.Status {
	out := make([]poller.Status, 0, len(m.views))
	for _, v := range m.views {
		out = append(out, v.Status())
	}
	return out
}

// DismissErrors clears the error of every view.
func (m *Mounted) DismissErrors() {
	for _, v := range m.views {
		v.ClearError()
	}
}

// Settled reports whether every view has finished at least one fetch.
func (m *Mounted) Settled() bool {
	for _, st := range m.Statuses() {
		if st.Loading {
			return false
		}
	}
	return true
}

// Watch emits the name of a view every time its state changes after Watch
// returns, until ctx is done. The channel is closed afterwards.
func (m *Mounted) Watch(ctx context.Context) <-chan string {
	out := make(chan string, len(m.views))
	var g errgroup.Group
	for _, v := range m.views {
		// Taken before Watch returns so a change right after it is not missed.
		changed := v.Changed()
		g.Go(func() error {
			for {
				select {
				case <-ctx.Done():
					return nil
				case <-changed:
				}
				changed = v.Changed()
				select {
				case out <- v.Name():
				case <-ctx.Done():
					return nil
				}
			}
		})
	}
	go func() {
		_ = g.Wait()
		close(out)
	}()
	return out
}
