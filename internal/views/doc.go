// Package views defines the dashboard's view states and the pages that mount
// them.
//
// # Views
//
//	view                   action                  interval  feed
//	executive              executive_overview      30s       -
//	system_health          system_status           15s       system_health
//	mission_control        real_time_metrics       10s       -
//	business_intelligence  business_intelligence   60s       network_analytics (optional)
//	admins                 get_admins              none      -
//
// Each view is a poller.Poller over one typed backend response. Admins is
// fetched on mount and afterwards only on demand.
//
// # Pages
//
// Mount builds and starts the views a page shows; Unmount stops them. Switching
// tabs is an Unmount followed by a Mount, so a hidden page does no polling.
//
//	executive     executive
//	operations    system_health, mission_control
//	intelligence  business_intelligence, mission_control
//	admin         admins
//
// # Mutations
//
// Admins.Mutate sends create_admin, update_admin or deactivate_admin. A
// successful mutation is followed by a full admin refetch and Mutate returns
// only after it settles, so the list the caller sees next already includes
// the change. A failed mutation records "Failed to <verb> admin: <cause>" as
// the view's error and leaves the list alone.
//
// MissionControl carries the report and health check commands, which record
// their failures on the mission control view the same way.
package views
