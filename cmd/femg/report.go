package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/five82/femg/internal/report"
	"github.com/five82/femg/internal/views"
)

var reportDir string

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Generate the executive report and save it as JSON",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := setup()
		if err != nil {
			return err
		}
		defer env.Close()

		mc, err := views.NewMissionControl(env.Deps())
		if err != nil {
			return err
		}
		doc, err := mc.GenerateExecutiveReport(cmd.Context())
		if err != nil {
			return err
		}

		dir := reportDir
		if dir == "" {
			dir = env.Config.ReportDir
		}
		path, err := report.Save(dir, doc, time.Now())
		if err != nil {
			return fmt.Errorf("save report: %w", err)
		}
		env.Log.Info("report saved", "path", path)
		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	},
}

var healthCheckCmd = &cobra.Command{
	Use:   "health-check",
	Short: "Run a network-wide health check and print the result",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := setup()
		if err != nil {
			return err
		}
		defer env.Close()

		mc, err := views.NewMissionControl(env.Deps())
		if err != nil {
			return err
		}
		res, err := mc.PerformHealthCheck(cmd.Context())
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), res)
	},
}

func init() {
	reportCmd.Flags().StringVar(&reportDir, "dir", "", "output directory (default from config)")
	rootCmd.AddCommand(reportCmd, healthCheckCmd)
}
