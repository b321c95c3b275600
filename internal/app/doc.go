// Package app is the composition root for femg.
//
// Setup turns configuration into a wired Env: the zap-backed logger, the
// backend client (which is both the edge-function gateway and the change-feed
// subscriber), the typed API and the fetch monitor. The dashboard and every
// one-shot CLI command start from the same Env.
//
//  1. Load ~/.config/femg/config.toml (env vars override credentials)
//  2. Validate backend URL and anon key
//  3. Open the log file, or stderr for CLI commands
//  4. Build backend.Client and backend.API
//  5. Create the monitor that records every view fetch
//
// Run adds the dashboard on top: it resolves the start page from flags or the
// saved preferences, starts the monitor and blocks in ui.Run.
package app
