package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/five82/femg/internal/backend"
	"github.com/five82/femg/internal/format"
	"github.com/five82/femg/internal/views"
)

var (
	adminSearch string
	adminRole   string
	adminJSON   bool

	adminEmail       string
	adminName        string
	adminNewRole     string
	adminPlatforms   []string
	adminPermissions []string
	adminActive      bool
)

var adminsCmd = &cobra.Command{
	Use:   "admins",
	Short: "List and manage corporate administrators",
}

var adminsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List administrators",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := setup()
		if err != nil {
			return err
		}
		defer env.Close()

		list, err := env.API.Admins(cmd.Context())
		if err != nil {
			return fmt.Errorf("Failed to load admins: %w", err)
		}
		rows := list.Filter(adminSearch, adminRole)
		if adminJSON {
			return printJSON(cmd.OutOrStdout(), rows)
		}
		fmt.Fprintln(cmd.OutOrStdout(), adminTable(rows, time.Now()))
		return nil
	},
}

var adminsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an administrator",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := setup()
		if err != nil {
			return err
		}
		defer env.Close()

		return mutateAdmin(cmd.Context(), cmd.OutOrStdout(), env.Deps(), views.Create, adminInput(cmd, ""))
	},
}

var adminsUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Update an administrator; only the given flags change",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := setup()
		if err != nil {
			return err
		}
		defer env.Close()

		return mutateAdmin(cmd.Context(), cmd.OutOrStdout(), env.Deps(), views.Update, adminInput(cmd, args[0]))
	},
}

var adminsDeactivateCmd = &cobra.Command{
	Use:   "deactivate <id>",
	Short: "Deactivate an administrator",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := setup()
		if err != nil {
			return err
		}
		defer env.Close()

		return mutateAdmin(cmd.Context(), cmd.OutOrStdout(), env.Deps(), views.Deactivate, backend.AdminInput{ID: args[0]})
	},
}

func init() {
	list := adminsListCmd.Flags()
	list.StringVar(&adminSearch, "search", "", "match name or email")
	list.StringVar(&adminRole, "role", "", "only this role")
	list.BoolVar(&adminJSON, "json", false, "print JSON")

	for _, c := range []*cobra.Command{adminsCreateCmd, adminsUpdateCmd} {
		f := c.Flags()
		f.StringVar(&adminEmail, "email", "", "email address")
		f.StringVar(&adminName, "name", "", "display name")
		f.StringVar(&adminNewRole, "role", "", "role")
		f.StringSliceVar(&adminPlatforms, "platform", nil, "platform access (repeatable)")
		f.StringSliceVar(&adminPermissions, "permission", nil, "granted permission (repeatable)")
	}
	adminsUpdateCmd.Flags().BoolVar(&adminActive, "active", true, "set the active flag")
	for _, name := range []string{"email", "name", "role"} {
		_ = adminsCreateCmd.MarkFlagRequired(name)
	}

	adminsCmd.AddCommand(adminsListCmd, adminsCreateCmd, adminsUpdateCmd, adminsDeactivateCmd)
	rootCmd.AddCommand(adminsCmd)
}

// adminInput builds the adminData payload from the flags the user set.
func adminInput(cmd *cobra.Command, id string) backend.AdminInput {
	in := backend.AdminInput{
		ID:             id,
		Email:          adminEmail,
		Name:           adminName,
		Role:           adminNewRole,
		PlatformAccess: adminPlatforms,
	}
	if len(adminPermissions) > 0 {
		in.Permissions = make(map[string]bool, len(adminPermissions))
		for _, p := range adminPermissions {
			in.Permissions[p] = true
		}
	}
	if cmd.Flags().Changed("active") {
		active := adminActive
		in.IsActive = &active
	}
	return in
}

func adminTable(rows []backend.AdminRecord, now time.Time) string {
	inactive := lipgloss.NewStyle().Faint(true)
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "NAME", "EMAIL", "ROLE", "STATUS", "LAST LOGIN")
	for _, a := range rows {
		status := "active"
		if !a.IsActive {
			status = inactive.Render("inactive")
		}
		last := "never"
		if a.LastLogin != nil {
			last = format.Relative(a.LastLogin.Time, now)
		}
		t.Row(a.ID, a.Name, a.Email, a.Role, status, last)
	}
	return t.Render()
}

// mutateAdmin sends one mutation through the admin view, which re-reads the
// admin list afterwards, and prints the affected record from that list.
func mutateAdmin(ctx context.Context, w io.Writer, deps views.Deps, kind views.MutationKind, in backend.AdminInput) error {
	admins, err := views.NewAdmins(deps)
	if err != nil {
		return err
	}
	defer admins.Stop()

	resp, err := admins.Mutate(ctx, kind, in)
	if err != nil {
		if resp != nil {
			// The write went through; only the re-read failed.
			_ = printJSON(w, resp)
		}
		return err
	}

	list := admins.Snapshot().Data
	if rec, ok := mutatedRecord(list, in); ok {
		return printJSON(w, rec)
	}
	return printJSON(w, list.Admins)
}

// mutatedRecord finds the record a mutation touched, by id or, for creates,
// by email.
func mutatedRecord(list backend.AdminList, in backend.AdminInput) (backend.AdminRecord, bool) {
	if in.ID != "" {
		return list.Find(in.ID)
	}
	for _, a := range list.Admins {
		if in.Email != "" && strings.EqualFold(a.Email, in.Email) {
			return a, true
		}
	}
	return backend.AdminRecord{}, false
}
