package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/five82/femg/internal/config"
	"github.com/five82/femg/internal/logtail"
)

var (
	logLines    int
	logMinLevel string
)

var levelStyles = map[int]lipgloss.Style{
	0: lipgloss.NewStyle().Faint(true),
	2: lipgloss.NewStyle().Foreground(lipgloss.Color("#dbc074")),
	3: lipgloss.NewStyle().Foreground(lipgloss.Color("#c94f6d")),
	4: lipgloss.NewStyle().Foreground(lipgloss.Color("#c94f6d")).Bold(true),
}

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Print the tail of the femg log file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		lines, err := logtail.Read(cfg.LogFile, logLines)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, e := range logtail.Filter(lines, logMinLevel) {
			line := e.String()
			if style, ok := levelStyles[logtail.Severity(e.Level)]; ok && e.Raw == "" {
				line = style.Render(line)
			}
			fmt.Fprintln(out, line)
		}
		return nil
	},
}

func init() {
	logsCmd.Flags().IntVarP(&logLines, "lines", "n", 100, "number of lines to read (0 for all)")
	logsCmd.Flags().StringVar(&logMinLevel, "level", "debug", "minimum level to show")
	rootCmd.AddCommand(logsCmd)
}
