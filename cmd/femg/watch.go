package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/five82/femg/internal/format"
	"github.com/five82/femg/internal/poller"
	"github.com/five82/femg/internal/views"
)

var watchOnce bool

var watchCmd = &cobra.Command{
	Use:   "watch <page>",
	Short: "Mount a page and print view status as it changes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		page, err := views.ParsePage(args[0])
		if err != nil {
			return err
		}
		env, err := setup()
		if err != nil {
			return err
		}
		defer env.Close()

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		mounted, err := views.Mount(ctx, page, env.Deps())
		if err != nil {
			return err
		}
		defer mounted.Unmount()

		return watchPage(ctx, cmd.OutOrStdout(), mounted, watchOnce)
	},
}

func init() {
	watchCmd.Flags().BoolVar(&watchOnce, "once", false, "exit once every view has settled")
	rootCmd.AddCommand(watchCmd)
}

// watchPage prints view statuses as they settle. With once set it returns as
// soon as every view has settled, printing the full set.
func watchPage(ctx context.Context, w io.Writer, mounted *views.Mounted, once bool) error {
	changes := mounted.Watch(ctx)
	if once && mounted.Settled() {
		printStatuses(w, mounted.Statuses())
		return nil
	}
	for name := range changes {
		if once {
			if mounted.Settled() {
				printStatuses(w, mounted.Statuses())
				return nil
			}
			continue
		}
		st, ok := findStatus(mounted.Statuses(), name)
		if !ok || st.Loading {
			continue
		}
		printStatus(w, st)
	}
	return nil
}

func findStatus(statuses []poller.Status, view string) (poller.Status, bool) {
	for _, st := range statuses {
		if st.View == view {
			return st, true
		}
	}
	return poller.Status{}, false
}

func printStatuses(w io.Writer, statuses []poller.Status) {
	for _, st := range statuses {
		printStatus(w, st)
	}
}

func printStatus(w io.Writer, st poller.Status) {
	var state string
	switch {
	case st.Error != "" && st.Offline():
		state = "offline: " + st.Error
	case st.Error != "":
		state = "error: " + st.Error
	case st.HasData:
		state = "ok, updated " + format.Date(st.LastUpdate)
	default:
		state = "no data"
	}
	fmt.Fprintf(w, "%s  %-22s %s\n", time.Now().Format(time.TimeOnly), st.View, state)
}
