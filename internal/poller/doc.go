// Package poller keeps one dashboard view fresh.
//
// # Overview
//
// A Poller owns a state.Store for its view and refetches it from three
// sources:
//
//   - a timer, every Interval (no timer when Interval is zero)
//   - change notifications from the configured feeds
//   - Refetch, called by the UI, the CLI or the admin mutation path
//
// # Lifecycle
//
//	New ──> Start(ctx) ──> fetch now, then on every tick/notification
//	                   └─> Stop() cancels the timer, releases the feeds and
//	                       tears the store down
//
// Start fetches immediately with no initial delay and returns without waiting
// for the result. Stop is synchronous for everything the poller owns; a fetch
// that is still in flight completes in the background and its result is
// discarded by the torn-down store. A stopped poller cannot be restarted;
// mount a new one instead.
//
// # Ordering
//
// Fetches are never cancelled by other fetches. A manual Refetch that overlaps
// a timer fetch runs to completion alongside it, and whichever was begun last
// is the one whose result is kept.
//
// # Change Notifications
//
// Notifications are coalesced through a one-slot channel. However many arrive
// while a fetch is running or pending, they cause exactly one extra fetch. A
// feed that cannot be subscribed is logged and skipped; the timer still keeps
// the view fresh.
//
// # Error Handling
//
// Fetch errors are wrapped with FailureMessage ("Failed to load admins: ...")
// and stored in the view state. Previous data stays visible. Polling continues
// after failures at the normal interval.
package poller
