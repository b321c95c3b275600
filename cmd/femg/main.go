package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/five82/femg/internal/app"
)

var (
	configPath string
	prefsPath  string
	logLevel   string
	logStderr  bool
	startPage  string
)

var rootCmd = &cobra.Command{
	Use:   "femg",
	Short: "FEMG Command Center dashboard",
	Long: "femg shows the FEMG network's executive, operations, business and admin\n" +
		"views in the terminal. Subcommands run one-shot reads and commands.",
	SilenceUsage: true,
	Args:         cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return app.Run(cmd.Context(), app.Options{
			ConfigPath: configPath,
			PrefsPath:  prefsPath,
			Page:       startPage,
			LogLevel:   logLevel,
		})
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "config file (default ~/.config/femg/config.toml)")
	flags.StringVar(&prefsPath, "prefs", "", "preferences file (default ~/.config/femg/prefs.toml)")
	flags.StringVar(&logLevel, "log-level", "", "log level: trace, debug, info, warn, error")
	flags.BoolVar(&logStderr, "log-stderr", false, "log to stderr instead of the log file (subcommands only)")
	rootCmd.Flags().StringVar(&startPage, "page", "", "start page: executive, operations, intelligence, admin")
}

func main() {
	os.Exit(run())
}

func run() int {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "femg: %v\n", err)
		return 1
	}
	return 0
}

// setup builds the runtime for a one-shot subcommand.
func setup() (*app.Env, error) {
	return app.Setup(app.Options{
		ConfigPath: configPath,
		LogLevel:   logLevel,
		LogConsole: logStderr,
	})
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
