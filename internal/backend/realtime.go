package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// Change-feed tables.
const (
	TableSystemHealth     = "system_health"
	TableNetworkAnalytics = "network_analytics"
)

const (
	realtimePath     = "/realtime/v1/websocket"
	realtimeVersion  = "1.0.0"
	defaultHeartbeat = 30 * time.Second
	maxRetryShift    = 5
	writeTimeout     = 5 * time.Second
)

// Phoenix channel events used by the realtime server.
const (
	eventJoin            = "phx_join"
	eventLeave           = "phx_leave"
	eventReply           = "phx_reply"
	eventError           = "phx_error"
	eventClose           = "phx_close"
	eventHeartbeat       = "heartbeat"
	eventPostgresChanges = "postgres_changes"
)

type phxMessage struct {
	Topic   string          `json:"topic"`
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
	Ref     *string         `json:"ref"`
}

type joinPayload struct {
	Config      joinConfig `json:"config"`
	AccessToken string     `json:"access_token,omitempty"`
}

type joinConfig struct {
	Broadcast       map[string]bool   `json:"broadcast"`
	Presence        map[string]string `json:"presence"`
	PostgresChanges []changeFilter    `json:"postgres_changes"`
	Private         bool              `json:"private"`
}

type changeFilter struct {
	Event  string `json:"event"`
	Schema string `json:"schema"`
	Table  string `json:"table"`
}

type replyPayload struct {
	Status   string          `json:"status"`
	Response json.RawMessage `json:"response"`
}

// ChannelTopic returns the realtime topic used for a table's change feed.
func ChannelTopic(table string) string {
	return "realtime:" + table + "_changes"
}

// Subscribe opens a change feed on table. onChange runs once per
// insert/update/delete notification, on the feed's goroutine. The connection
// is established in the background and re-established with backoff when it
// drops; Subscribe itself only fails on invalid arguments.
func (c *Client) Subscribe(table string, onChange func()) (Subscription, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	if table == "" {
		return nil, fmt.Errorf("subscribe: table is required")
	}
	if onChange == nil {
		return nil, fmt.Errorf("subscribe %s: callback is required", table)
	}

	ctx, cancel := context.WithCancel(context.Background())
	f := &feed{
		client:   c,
		table:    table,
		topic:    ChannelTopic(table),
		onChange: onChange,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	go f.run(ctx)
	return f, nil
}

func (c *Client) realtimeURL() string {
	u := *c.baseURL
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = realtimePath
	q := url.Values{}
	if c.anonKey != "" {
		q.Set("apikey", c.anonKey)
	}
	q.Set("vsn", realtimeVersion)
	u.RawQuery = q.Encode()
	return u.String()
}

// feed is one table subscription and owns its websocket connection.
type feed struct {
	client   *Client
	table    string
	topic    string
	onChange func()

	cancel   context.CancelFunc
	done     chan struct{}
	once     sync.Once
	released atomic.Bool

	mu      sync.Mutex // guards conn and serializes writes
	conn    *websocket.Conn
	nextRef int
}

// Release closes the feed and waits for its goroutine to exit.
func (f *feed) Release() {
	f.once.Do(func() {
		f.released.Store(true)
		_, _ = f.send(f.topic, eventLeave, struct{}{})
		f.cancel()
		f.mu.Lock()
		if f.conn != nil {
			_ = f.conn.Close()
		}
		f.mu.Unlock()
		<-f.done
	})
}

func (f *feed) run(ctx context.Context) {
	defer close(f.done)
	log := f.client.log.WithValues("table", f.table)

	for attempt := 0; ; attempt++ {
		joined, err := f.session(ctx)
		if ctx.Err() != nil {
			return
		}
		if joined {
			attempt = 0
		}
		log.Info("change feed disconnected, reconnecting", "attempt", attempt+1, "reason", errString(err))
		if !f.retryBackoff(ctx, attempt) {
			return
		}
	}
}

// retryBackoff sleeps with exponential backoff, returning false if ctx is cancelled.
func (f *feed) retryBackoff(ctx context.Context, attempt int) bool {
	delay := f.client.retryBase * time.Duration(1<<min(attempt, maxRetryShift))
	select {
	case <-ctx.Done():
		return false
	case <-time.After(delay):
		return true
	}
}

// session runs one connection until it fails. joined reports whether the
// server acknowledged the channel join.
func (f *feed) session(ctx context.Context) (joined bool, err error) {
	conn, _, err := f.client.dialer.DialContext(ctx, f.client.realtimeURL(), nil)
	if err != nil {
		return false, fmt.Errorf("dial realtime: %w", err)
	}
	f.mu.Lock()
	if f.released.Load() {
		f.mu.Unlock()
		_ = conn.Close()
		return false, context.Canceled
	}
	f.conn = conn
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.conn = nil
		f.mu.Unlock()
		_ = conn.Close()
	}()

	joinRef, err := f.send(f.topic, eventJoin, joinPayload{
		Config: joinConfig{
			Broadcast: map[string]bool{"ack": false, "self": false},
			Presence:  map[string]string{"key": ""},
			PostgresChanges: []changeFilter{
				{Event: "*", Schema: "public", Table: f.table},
			},
		},
		AccessToken: f.client.anonKey,
	})
	if err != nil {
		return false, err
	}

	sessCtx, stop := context.WithCancel(ctx)
	defer stop()
	go f.heartbeat(sessCtx)

	for {
		var msg phxMessage
		if err := conn.ReadJSON(&msg); err != nil {
			return joined, fmt.Errorf("read realtime: %w", err)
		}
		switch msg.Event {
		case eventReply:
			if msg.Topic != f.topic || msg.Ref == nil || *msg.Ref != joinRef {
				continue
			}
			var reply replyPayload
			_ = json.Unmarshal(msg.Payload, &reply)
			if reply.Status != "ok" {
				return false, fmt.Errorf("join %s rejected: %s %s", f.topic, reply.Status, string(reply.Response))
			}
			joined = true
			f.client.log.V(1).Info("change feed joined", "table", f.table)
		case eventPostgresChanges, "INSERT", "UPDATE", "DELETE", "*":
			if msg.Topic == f.topic {
				f.notify()
			}
		case eventError, eventClose:
			if msg.Topic == f.topic {
				return joined, fmt.Errorf("channel %s: %s", f.topic, msg.Event)
			}
		}
	}
}

func (f *feed) notify() {
	if f.released.Load() {
		return
	}
	f.onChange()
}

func (f *feed) heartbeat(ctx context.Context) {
	ticker := time.NewTicker(f.client.heartbeat)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := f.send("phoenix", eventHeartbeat, struct{}{}); err != nil {
				return
			}
		}
	}
}

func (f *feed) send(topic, event string, payload any) (string, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode %s: %w", event, err)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.conn == nil {
		return "", errors.New("connection closed")
	}
	f.nextRef++
	ref := strconv.Itoa(f.nextRef)
	msg := phxMessage{Topic: topic, Event: event, Payload: raw, Ref: &ref}
	_ = f.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := f.conn.WriteJSON(msg); err != nil {
		return "", fmt.Errorf("write %s: %w", event, err)
	}
	return ref, nil
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
