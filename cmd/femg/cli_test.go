package main

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-logr/logr"

	"github.com/five82/femg/internal/backend"
	"github.com/five82/femg/internal/backend/backendtest"
	"github.com/five82/femg/internal/views"
)

type routes map[string]func(req backend.Request) backend.Result

func testDeps(r routes) (views.Deps, *backendtest.MockInvoker) {
	inv := &backendtest.MockInvoker{Handler: func(_ context.Context, req backend.Request) backend.Result {
		if h, ok := r[req.Action]; ok {
			return h(req)
		}
		return backendtest.ErrResult("no route for " + req.Action)
	}}
	return views.Deps{
		API:        backend.NewAPI(inv),
		Subscriber: &backendtest.MockSubscriber{},
		Logger:     logr.Discard(),
	}, inv
}

func raw(s string) backend.Result {
	return backend.Result{OK: true, Data: json.RawMessage(s)}
}

func TestMutateAdmin_RereadsListAfterWrite(t *testing.T) {
	var created atomic.Bool
	deps, inv := testDeps(routes{
		backend.ActionCreateAdmin: func(backend.Request) backend.Result {
			created.Store(true)
			return raw(`{"ok":true}`)
		},
		backend.ActionGetAdmins: func(backend.Request) backend.Result {
			if !created.Load() {
				return raw(`{"admins":[]}`)
			}
			return raw(`{"admins":[{"id":"9","name":"Ada","email":"ada@femg.net","role":"CTO","is_active":true,"created_at":"2026-10-18T00:00:00Z"}]}`)
		},
	})

	var out bytes.Buffer
	in := backend.AdminInput{Email: "ADA@femg.net", Name: "Ada", Role: "CTO"}
	if err := mutateAdmin(context.Background(), &out, deps, views.Create, in); err != nil {
		t.Fatalf("mutateAdmin returned error: %v", err)
	}

	calls := inv.Calls()
	if len(calls) != 2 || calls[0].Action != backend.ActionCreateAdmin || calls[1].Action != backend.ActionGetAdmins {
		t.Fatalf("calls = %+v, want create_admin then get_admins", calls)
	}
	var rec backend.AdminRecord
	if err := json.Unmarshal(out.Bytes(), &rec); err != nil {
		t.Fatalf("output is not an admin record: %v\n%s", err, out.String())
	}
	if rec.ID != "9" {
		t.Fatalf("printed record = %+v, want the re-read admin 9", rec)
	}
}

func TestMutateAdmin_DeactivatePrintsRereadRecord(t *testing.T) {
	var active atomic.Bool
	active.Store(true)
	deps, inv := testDeps(routes{
		backend.ActionDeactivateAdmin: func(backend.Request) backend.Result {
			active.Store(false)
			return raw(`{"ok":true}`)
		},
		backend.ActionGetAdmins: func(backend.Request) backend.Result {
			flag := "false"
			if active.Load() {
				flag = "true"
			}
			return raw(`{"admins":[{"id":"3","name":"G","email":"g@femg.net","role":"CEO","is_active":` + flag + `,"created_at":"2026-10-18T00:00:00Z"}]}`)
		},
	})

	var out bytes.Buffer
	if err := mutateAdmin(context.Background(), &out, deps, views.Deactivate, backend.AdminInput{ID: "3"}); err != nil {
		t.Fatalf("mutateAdmin returned error: %v", err)
	}
	if got := inv.CallCount(backend.ActionGetAdmins); got != 1 {
		t.Fatalf("get_admins calls = %d, want 1 after the write", got)
	}
	if !strings.Contains(out.String(), `"is_active": false`) {
		t.Fatalf("output = %s, want the deactivated record", out.String())
	}
}

func TestMutateAdmin_FailureSkipsReread(t *testing.T) {
	deps, inv := testDeps(routes{
		backend.ActionUpdateAdmin: func(backend.Request) backend.Result { return backendtest.ErrResult("duplicate email") },
	})

	var out bytes.Buffer
	err := mutateAdmin(context.Background(), &out, deps, views.Update, backend.AdminInput{ID: "1", Email: "x@y.z"})
	if err == nil || err.Error() != "Failed to update admin: duplicate email" {
		t.Fatalf("error = %v, want Failed to update admin: duplicate email", err)
	}
	if got := inv.CallCount(backend.ActionGetAdmins); got != 0 {
		t.Fatalf("get_admins calls = %d, want none after a failed write", got)
	}
	if out.Len() != 0 {
		t.Fatalf("output = %q, want nothing", out.String())
	}
}

func TestWatchPage_OnceSeesGatedSettlement(t *testing.T) {
	release := make(chan struct{})
	deps, _ := testDeps(routes{
		backend.ActionGetAdmins: func(backend.Request) backend.Result {
			<-release
			return raw(`{"admins":[]}`)
		},
	})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mounted, err := views.Mount(ctx, views.PageAdmin, deps)
	if err != nil {
		t.Fatalf("Mount returned error: %v", err)
	}
	defer mounted.Unmount()

	var out bytes.Buffer
	done := make(chan error, 1)
	go func() { done <- watchPage(ctx, &out, mounted, true) }()

	// Let watchPage subscribe and observe the unsettled view first.
	time.Sleep(10 * time.Millisecond)
	close(release)

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("watchPage returned error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("watch --once never returned after the view settled")
	}
	if !strings.Contains(out.String(), "admins") || !strings.Contains(out.String(), "ok, updated") {
		t.Fatalf("output = %q, want the settled admins status", out.String())
	}
}
