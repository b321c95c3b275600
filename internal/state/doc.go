// Package state holds the per-view state shared between pollers and the UI.
//
// # Overview
//
// Every dashboard view owns one Store[T]. Fetches (scheduled ticks, change
// notifications, manual refreshes and post-mutation re-reads) write into it;
// the UI and CLI read it through Snapshot. The store is the single point where
// overlapping fetches are reconciled.
//
//	Writers (poller goroutine,      Readers (UI, CLI):
//	refresh callers):
//	┌────────────────┐             ┌─────────────────┐
//	│ seq := Begin() │             │                 │
//	│ data, err :=   │             │                 │
//	│   fetch(ctx)   │             │                 │
//	│ Apply(seq, …)  │────────────→│ Snapshot()      │
//	└────────────────┘   (mutex)   │ <-Changed()     │
//	                               └─────────────────┘
//
// # Sequencing
//
// Begin hands out a monotonically increasing sequence number and marks the view
// as loading. Apply only takes effect when its sequence number is the latest
// one handed out, so when fetches overlap the last one initiated wins and
// earlier results are discarded whatever order they finish in. Loading stays
// true until that latest fetch settles.
//
// # Update Semantics
//
//	// Success: replace data, clear error
//	store.Apply(seq, data, nil)
//	→ Data = data, HasData = true, Error = "", LastUpdate = now
//
//	// Failure: keep data, record error
//	store.Apply(seq, zero, err)
//	→ Data = <unchanged>, Error = err.Error()
//
// SetError records errors that do not come from a fetch (a failed admin
// mutation, a failed report download) without touching data or loading.
//
// # Teardown
//
// Close marks the store torn down. From then on Begin reports ok=false and
// every write is a no-op, so a fetch still in flight when its view unmounts
// cannot publish anything.
//
// # Change Notification
//
// Changed returns a channel closed on the next state change. The UI waits on
// it instead of polling snapshots:
//
//	for {
//		select {
//		case <-store.Changed():
//			render(store.Snapshot())
//		case <-ctx.Done():
//			return
//		}
//	}
package state
