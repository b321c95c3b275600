package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/five82/femg/internal/app"
	"github.com/five82/femg/internal/views"
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Fetch every view once and print it as JSON",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := setup()
		if err != nil {
			return err
		}
		defer env.Close()

		overview, err := views.LoadAll(cmd.Context(), env.API)
		if err != nil {
			env.Log.Error(err, "snapshot incomplete")
			if len(overview.Errors) == len(views.Names()) {
				return fmt.Errorf("%w: %v", app.ErrNoData, err)
			}
			names := make([]string, 0, len(overview.Errors))
			for name := range overview.Errors {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s: %s\n", name, overview.Errors[name])
			}
		}
		return printJSON(cmd.OutOrStdout(), overview)
	},
}

func init() {
	rootCmd.AddCommand(snapshotCmd)
}
