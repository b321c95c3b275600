package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-logr/logr"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Endpoint names one of the remote edge functions.
type Endpoint string

const (
	DashboardQuery       Endpoint = "corporate-dashboard"
	AdminAction          Endpoint = "admin-management"
	MissionControlAction Endpoint = "mission-control"
)

// Remote actions, grouped by endpoint.
const (
	ActionExecutiveOverview    = "executive_overview"
	ActionSystemStatus         = "system_status"
	ActionBusinessIntelligence = "business_intelligence"

	ActionGetAdmins       = "get_admins"
	ActionCreateAdmin     = "create_admin"
	ActionUpdateAdmin     = "update_admin"
	ActionDeactivateAdmin = "deactivate_admin"

	ActionRealTimeMetrics         = "real_time_metrics"
	ActionGenerateExecutiveReport = "generate_executive_report"
	ActionNetworkHealthCheck      = "network_health_check"
)

var endpointActions = map[Endpoint][]string{
	DashboardQuery:       {ActionExecutiveOverview, ActionSystemStatus, ActionBusinessIntelligence},
	AdminAction:          {ActionGetAdmins, ActionCreateAdmin, ActionUpdateAdmin, ActionDeactivateAdmin},
	MissionControlAction: {ActionRealTimeMetrics, ActionGenerateExecutiveReport, ActionNetworkHealthCheck},
}

// ErrUnknownAction is reported when an action does not belong to its endpoint.
var ErrUnknownAction = errors.New("unknown action")

// ValidateAction checks that action is one of the endpoint's remote operations.
func ValidateAction(endpoint Endpoint, action string) error {
	if strings.TrimSpace(action) == "" {
		return fmt.Errorf("%s: action is required", endpoint)
	}
	actions, ok := endpointActions[endpoint]
	if !ok {
		return fmt.Errorf("endpoint %q: %w", endpoint, ErrUnknownAction)
	}
	for _, a := range actions {
		if a == action {
			return nil
		}
	}
	return fmt.Errorf("%s/%s: %w", endpoint, action, ErrUnknownAction)
}

// Request is a single remote function invocation.
type Request struct {
	Endpoint Endpoint
	Action   string
	Payload  any
}

// Result is the outcome of an invocation. Failures never escape as panics or
// errors; they are reported with OK=false and a message.
type Result struct {
	OK           bool
	Data         json.RawMessage
	ErrorMessage string
}

// Err returns nil for successful results and an error carrying ErrorMessage otherwise.
func (r Result) Err() error {
	if r.OK {
		return nil
	}
	if r.ErrorMessage == "" {
		return errors.New("remote call failed")
	}
	return errors.New(r.ErrorMessage)
}

// Empty reports whether a successful result carried no data.
func (r Result) Empty() bool {
	return len(r.Data) == 0
}

// Invoker sends requests to the remote functions.
type Invoker interface {
	Invoke(ctx context.Context, req Request) Result
}

// Subscriber opens change feeds on backing tables.
type Subscriber interface {
	Subscribe(table string, onChange func()) (Subscription, error)
}

// Subscription is a live change feed. Release tears it down and blocks until
// no further callbacks can fire.
type Subscription interface {
	Release()
}

// Remote combines both capabilities of the backend.
type Remote interface {
	Invoker
	Subscriber
}

// Ensure Client implements Remote at compile time.
var _ Remote = (*Client)(nil)

const (
	defaultUserAgent      = "femg/0.1"
	defaultRequestTimeout = 10 * time.Second
	functionsPath         = "/functions/v1/"
	maxErrorBody          = 4096
)

// Options configure a Client.
type Options struct {
	URL        string
	AnonKey    string
	Timeout    time.Duration
	Logger     logr.Logger
	HTTPClient *http.Client

	// HeartbeatInterval and RetryBaseDelay tune change feeds; zero uses defaults.
	HeartbeatInterval time.Duration
	RetryBaseDelay    time.Duration
}

// Client talks to the hosted backend: edge functions over HTTP and table
// change feeds over the realtime websocket.
type Client struct {
	baseURL   *url.URL
	anonKey   string
	http      *http.Client
	userAgent string
	log       logr.Logger

	dialer    *websocket.Dialer
	heartbeat time.Duration
	retryBase time.Duration
}

// NewClient builds a Client for the project at opts.URL.
func NewClient(opts Options) (*Client, error) {
	base, err := parseBaseURL(opts.URL)
	if err != nil {
		return nil, err
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultRequestTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	heartbeat := opts.HeartbeatInterval
	if heartbeat <= 0 {
		heartbeat = defaultHeartbeat
	}
	retryBase := opts.RetryBaseDelay
	if retryBase <= 0 {
		retryBase = time.Second
	}
	return &Client{
		baseURL:   base,
		anonKey:   opts.AnonKey,
		http:      httpClient,
		userAgent: defaultUserAgent,
		log:       opts.Logger,
		dialer:    &websocket.Dialer{HandshakeTimeout: 10 * time.Second, Proxy: http.ProxyFromEnvironment},
		heartbeat: heartbeat,
		retryBase: retryBase,
	}, nil
}

type invokeBody struct {
	Action    string `json:"action"`
	AdminData any    `json:"adminData,omitempty"`
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error json.RawMessage `json:"error"`
}

// Invoke performs exactly one POST to the endpoint's edge function and
// unwraps the response envelope.
func (c *Client) Invoke(ctx context.Context, req Request) Result {
	if c == nil {
		return Result{ErrorMessage: "client is nil"}
	}
	if err := ValidateAction(req.Endpoint, req.Action); err != nil {
		return c.fail(req, "", err)
	}

	requestID := uuid.NewString()
	data, err := c.call(ctx, req, requestID)
	if err != nil {
		return c.fail(req, requestID, err)
	}
	c.log.V(1).Info("remote call ok", "endpoint", req.Endpoint, "action", req.Action, "requestId", requestID, "bytes", len(data))
	return Result{OK: true, Data: data}
}

func (c *Client) fail(req Request, requestID string, err error) Result {
	c.log.Error(err, "remote call failed", "endpoint", req.Endpoint, "action", req.Action, "requestId", requestID)
	return Result{ErrorMessage: err.Error()}
}

func (c *Client) call(ctx context.Context, req Request, requestID string) (json.RawMessage, error) {
	body, err := json.Marshal(invokeBody{Action: req.Action, AdminData: req.Payload})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	rel := &url.URL{Path: functionsPath + string(req.Endpoint)}
	reqURL := c.baseURL.ResolveReference(rel)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL.String(), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", c.userAgent)
	httpReq.Header.Set("X-Request-Id", requestID)
	if c.anonKey != "" {
		httpReq.Header.Set("apikey", c.anonKey)
		httpReq.Header.Set("Authorization", "Bearer "+c.anonKey)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		msg := errorFromBody(raw)
		if msg == "" {
			return nil, fmt.Errorf("%s returned status %d", req.Endpoint, resp.StatusCode)
		}
		return nil, fmt.Errorf("%s returned status %d: %s", req.Endpoint, resp.StatusCode, msg)
	}

	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if msg := errorText(env.Error); msg != "" {
		return nil, fmt.Errorf("%s/%s: %s", req.Endpoint, req.Action, msg)
	}
	if isNull(env.Data) {
		return nil, nil
	}
	return env.Data, nil
}

// errorText extracts a message from an envelope error field, which may be a
// string or an object with a message.
func errorText(raw json.RawMessage) string {
	if isNull(raw) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var obj struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		if obj.Message != "" {
			return obj.Message
		}
		if obj.Error != "" {
			return obj.Error
		}
	}
	return strings.TrimSpace(string(raw))
}

func errorFromBody(raw []byte) string {
	var env envelope
	if err := json.Unmarshal(raw, &env); err == nil {
		if msg := errorText(env.Error); msg != "" {
			return msg
		}
	}
	var obj struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil && obj.Message != "" {
		return obj.Message
	}
	text := strings.TrimSpace(string(raw))
	if len(text) > maxErrorBody {
		text = text[:maxErrorBody]
	}
	return text
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

func parseBaseURL(raw string) (*url.URL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, fmt.Errorf("backend url is required")
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "https://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse backend url %q: %w", raw, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("parse backend url %q: missing host", raw)
	}
	u.Path = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
