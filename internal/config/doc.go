// Package config loads the femg configuration file.
//
// # Configuration Discovery
//
// The Load function follows this resolution order:
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/femg/config.toml (default)
//  3. If the config file doesn't exist, fall back to defaults
//  4. If the file exists but fields are missing/empty, use defaults
//  5. FEMG_BACKEND_URL and FEMG_ANON_KEY, when set, replace the backend
//     credentials from the file
//
// # TOML Format
//
//	[backend]
//	url = "https://<project>.supabase.co"
//	anon_key = "..."
//	timeout = "10s"
//
//	[poll]
//	executive = "30s"
//	system_health = "15s"
//	mission_control = "10s"
//	business_intelligence = "60s"
//
//	[feeds]
//	network_analytics = true
//
//	[log]
//	level = "info"                        # trace, debug, info, warn, error
//	file = "~/.local/state/femg/femg.log"
//
//	[report]
//	dir = "~/Downloads"
//
// Durations use Go syntax ("15s", "1m30s"). A poll interval of "0" disables
// that view's timer; it is then refreshed only by change feeds and manual
// refreshes. The backend timeout must be positive.
//
// # Path Expansion
//
// Paths beginning with ~ are expanded to the user's home directory and made
// absolute, so callers never see a tilde.
//
// # Validation
//
// Load accepts a config without backend credentials so that commands which
// never talk to the backend (femg logs) keep working. Commands that do call
// Validate first.
package config
