package backend

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-logr/logr"
	"github.com/gorilla/websocket"
)

// fakeRealtime is a minimal Phoenix channel server. Each connection gets the
// join reply, then the events produced by script for that connection number.
type fakeRealtime struct {
	t        *testing.T
	upgrader websocket.Upgrader
	conns    atomic.Int32
	joins    chan phxMessage
	script   func(conn *websocket.Conn, n int32, join phxMessage)
}

func (f *fakeRealtime) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != realtimePath || r.URL.Query().Get("apikey") != "anon-key" {
		http.Error(w, "bad realtime request", http.StatusBadRequest)
		return
	}
	conn, err := f.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()
	n := f.conns.Add(1)

	var join phxMessage
	if err := conn.ReadJSON(&join); err != nil {
		return
	}
	f.joins <- join
	reply, _ := json.Marshal(replyPayload{Status: "ok", Response: json.RawMessage(`{}`)})
	_ = conn.WriteJSON(phxMessage{Topic: join.Topic, Event: eventReply, Payload: reply, Ref: join.Ref})
	f.script(conn, n, join)
}

func change(topic string) phxMessage {
	return phxMessage{Topic: topic, Event: eventPostgresChanges, Payload: json.RawMessage(`{"data":{"type":"UPDATE"}}`)}
}

func newFakeRealtime(t *testing.T, script func(conn *websocket.Conn, n int32, join phxMessage)) (*fakeRealtime, *Client) {
	t.Helper()
	fake := &fakeRealtime{t: t, joins: make(chan phxMessage, 8), script: script}
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	c, err := NewClient(Options{
		URL:               server.URL,
		AnonKey:           "anon-key",
		Logger:            logr.Discard(),
		RetryBaseDelay:    5 * time.Millisecond,
		HeartbeatInterval: 20 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	return fake, c
}

func waitSignal(t *testing.T, ch <-chan struct{}, what string) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for %s", what)
	}
}

func TestClient_RealtimeURL(t *testing.T) {
	c, err := NewClient(Options{URL: "https://demo.supabase.co", AnonKey: "k", Logger: logr.Discard()})
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	got := c.realtimeURL()
	if !strings.HasPrefix(got, "wss://demo.supabase.co/realtime/v1/websocket?") ||
		!strings.Contains(got, "apikey=k") || !strings.Contains(got, "vsn=1.0.0") {
		t.Fatalf("realtimeURL = %q", got)
	}
}

func TestSubscribe_JoinsTableChannelAndNotifies(t *testing.T) {
	hold := make(chan struct{})
	fake, c := newFakeRealtime(t, func(conn *websocket.Conn, _ int32, join phxMessage) {
		_ = conn.WriteJSON(change(join.Topic))
		_ = conn.WriteJSON(change("realtime:other_changes"))
		<-hold
	})
	t.Cleanup(func() { close(hold) })

	changed := make(chan struct{}, 4)
	sub, err := c.Subscribe(TableSystemHealth, func() { changed <- struct{}{} })
	if err != nil {
		t.Fatalf("Subscribe returned error: %v", err)
	}

	var join phxMessage
	select {
	case join = <-fake.joins:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for join")
	}
	if join.Topic != "realtime:system_health_changes" || join.Event != eventJoin {
		t.Fatalf("join = %s %s, want phx_join on realtime:system_health_changes", join.Event, join.Topic)
	}
	var payload joinPayload
	if err := json.Unmarshal(join.Payload, &payload); err != nil {
		t.Fatalf("decode join payload: %v", err)
	}
	if len(payload.Config.PostgresChanges) != 1 || payload.Config.PostgresChanges[0].Table != TableSystemHealth {
		t.Fatalf("join config = %+v, want system_health filter", payload.Config)
	}

	waitSignal(t, changed, "change notification")
	sub.Release()

	select {
	case <-changed:
		t.Fatalf("received notification for another topic")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSubscribe_ReconnectsAfterDrop(t *testing.T) {
	fake, c := newFakeRealtime(t, func(conn *websocket.Conn, n int32, join phxMessage) {
		if n == 1 {
			return // drop the first connection right after joining
		}
		_ = conn.WriteJSON(change(join.Topic))
		var msg phxMessage
		for conn.ReadJSON(&msg) == nil {
		}
	})

	changed := make(chan struct{}, 4)
	sub, err := c.Subscribe(TableNetworkAnalytics, func() { changed <- struct{}{} })
	if err != nil {
		t.Fatalf("Subscribe returned error: %v", err)
	}
	defer sub.Release()

	waitSignal(t, changed, "notification after reconnect")
	if got := fake.conns.Load(); got < 2 {
		t.Fatalf("connections = %d, want >= 2", got)
	}
}

func TestSubscribe_ReleaseStopsCallbacks(t *testing.T) {
	release := make(chan struct{})
	_, c := newFakeRealtime(t, func(conn *websocket.Conn, _ int32, join phxMessage) {
		<-release
		_ = conn.WriteJSON(change(join.Topic))
	})

	var calls atomic.Int32
	sub, err := c.Subscribe(TableSystemHealth, func() { calls.Add(1) })
	if err != nil {
		t.Fatalf("Subscribe returned error: %v", err)
	}
	time.Sleep(50 * time.Millisecond)
	sub.Release()
	sub.Release() // idempotent
	close(release)
	time.Sleep(50 * time.Millisecond)

	if got := calls.Load(); got != 0 {
		t.Fatalf("callbacks after Release = %d, want 0", got)
	}
}

func TestSubscribe_ValidatesArguments(t *testing.T) {
	c, err := NewClient(Options{URL: "http://127.0.0.1:1", Logger: logr.Discard()})
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	if _, err := c.Subscribe("", func() {}); err == nil {
		t.Fatalf("Subscribe with empty table returned nil error")
	}
	if _, err := c.Subscribe(TableSystemHealth, nil); err == nil {
		t.Fatalf("Subscribe with nil callback returned nil error")
	}
}
