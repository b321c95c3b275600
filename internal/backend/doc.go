// Package backend is the remote gateway for the FEMG Command Center backend.
//
// # Overview
//
// All business logic lives in hosted edge functions and a managed relational
// store. This package is the only place that talks to them:
//
//   - client.go: Client.Invoke, one POST per call to /functions/v1/<endpoint>
//   - api.go: API, the typed layer (one method per endpoint/action pair)
//   - realtime.go: Client.Subscribe, table change feeds over the realtime websocket
//   - types.go: response types for every action
//   - backendtest: MockInvoker and MockSubscriber fakes for tests
//
// # Endpoints
//
//	corporate-dashboard  executive_overview | system_status | business_intelligence
//	admin-management     get_admins | create_admin | update_admin | deactivate_admin
//	mission-control      real_time_metrics | generate_executive_report | network_health_check
//
// Requests carry {"action": ..., "adminData": ...}; responses are wrapped in an
// envelope {"data": ..., "error": ...}.
//
// # Error Handling
//
// Invoke never returns an error. Transport failures, HTTP errors, envelope
// errors and undecodable bodies all become Result{OK: false} with a message,
// and are logged once at the gateway. Callers cannot tell a network failure
// from a remote logical error at this layer.
//
// The API layer turns results back into Go errors. Queries treat missing data
// as an empty state; commands treat it as ErrEmptyResult.
//
// # Change Feeds
//
// Subscribe joins a Phoenix channel named realtime:<table>_changes filtered on
// the table's insert/update/delete events. Every notification calls the
// callback once, without inspecting the payload. The feed owns its connection,
// heartbeats it, and reconnects with exponential backoff (1s base, capped at
// 32x). Release is synchronous: once it returns the callback never fires again.
package backend
