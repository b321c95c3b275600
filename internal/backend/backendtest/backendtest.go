// Package backendtest provides in-memory fakes of the backend gateway and
// change feeds for tests.
package backendtest

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/five82/femg/internal/backend"
)

// MockInvoker is an in-memory Invoker for tests. Handler decides every
// response; calls are recorded in order.
type MockInvoker struct {
	mu      sync.Mutex
	Handler func(ctx context.Context, req backend.Request) backend.Result
	calls   []backend.Request
}

// Invoke records req and delegates to Handler.
func (m *MockInvoker) Invoke(ctx context.Context, req backend.Request) backend.Result {
	m.mu.Lock()
	m.calls = append(m.calls, req)
	handler := m.Handler
	m.mu.Unlock()

	if err := backend.ValidateAction(req.Endpoint, req.Action); err != nil {
		return backend.Result{ErrorMessage: err.Error()}
	}
	if handler == nil {
		return backend.Result{ErrorMessage: "mock: no handler"}
	}
	return handler(ctx, req)
}

// Calls returns a copy of all recorded requests.
func (m *MockInvoker) Calls() []backend.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]backend.Request, len(m.calls))
	copy(out, m.calls)
	return out
}

// CallCount returns how many times action was invoked.
func (m *MockInvoker) CallCount(action string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		if c.Action == action {
			n++
		}
	}
	return n
}

// OKResult marshals v into a successful backend.Result. A nil v yields empty data.
func OKResult(v any) backend.Result {
	if v == nil {
		return backend.Result{OK: true}
	}
	data, err := json.Marshal(v)
	if err != nil {
		return backend.Result{ErrorMessage: err.Error()}
	}
	return backend.Result{OK: true, Data: data}
}

// ErrResult builds a failed backend.Result.
func ErrResult(msg string) backend.Result {
	return backend.Result{ErrorMessage: msg}
}

// MockSubscriber is an in-memory Subscriber. Emit simulates a change
// notification on a table.
type MockSubscriber struct {
	mu   sync.Mutex
	subs map[string][]*mockSubscription
	Err  error
}

type mockSubscription struct {
	owner    *MockSubscriber
	table    string
	onChange func()
	released bool
}

// Subscribe registers onChange for table, or returns Err when set.
func (m *MockSubscriber) Subscribe(table string, onChange func()) (backend.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	if m.subs == nil {
		m.subs = make(map[string][]*mockSubscription)
	}
	sub := &mockSubscription{owner: m, table: table, onChange: onChange}
	m.subs[table] = append(m.subs[table], sub)
	return sub, nil
}

// Emit invokes every live callback for table and returns how many fired.
func (m *MockSubscriber) Emit(table string) int {
	m.mu.Lock()
	var live []func()
	for _, s := range m.subs[table] {
		if !s.released {
			live = append(live, s.onChange)
		}
	}
	m.mu.Unlock()

	for _, fn := range live {
		fn()
	}
	return len(live)
}

// Active returns the number of unreleased subscriptions on table.
func (m *MockSubscriber) Active(table string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, s := range m.subs[table] {
		if !s.released {
			n++
		}
	}
	return n
}

func (s *mockSubscription) Release() {
	s.owner.mu.Lock()
	defer s.owner.mu.Unlock()
	s.released = true
}
