package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/user/docdash/internal/permissions"
	"github.com/user/docdash/internal/workflow"
	"github.com/user/docdash/pkg/docapi"
)

func init() {
	rootCmd.AddCommand(dashboardCmd)
}

// dashboardCmd renders the full overview: only the sections the session's
// role may see, fetched concurrently, each degrading on its own failure.
var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Show the role-gated overview",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app := newApp()
		if err := app.requireSession(cmd.Context()); err != nil {
			return err
		}

		role := app.session.Current().Role()
		admin := workflow.NewAdmin(app.api, app.session)
		var (
			usage   *docapi.UsageSummary
			metrics *docapi.Metrics
			rows    []workflow.UserRow
		)

		g, ctx := errgroup.WithContext(cmd.Context())
		if permissions.Can(role, permissions.CanViewDocs) {
			g.Go(func() error { app.catalog.RefreshDocuments(ctx, ""); return nil })
			g.Go(func() error { app.catalog.RefreshFolders(ctx); return nil })
		}
		if permissions.Can(role, permissions.CanRunAI) {
			g.Go(func() error { usage, _ = app.api.Usage(ctx); return nil })
		}
		if permissions.Can(role, permissions.CanViewMetrics) {
			g.Go(func() error { metrics, _ = app.api.Metrics(ctx); return nil })
		}
		if permissions.Can(role, permissions.CanManageUsers) {
			g.Go(func() error { rows, _ = admin.Refresh(ctx); return nil })
		}
		g.Wait()

		user := app.session.Current().User
		fmt.Fprintf(os.Stdout, "%s (%s)\n\n", user.Email, user.Role)

		if permissions.Can(role, permissions.CanViewMetrics) {
			fmt.Fprint(os.Stdout, app.theme.RenderMetrics(metrics), "\n")
		}
		if permissions.Can(role, permissions.CanViewDocs) {
			fmt.Fprint(os.Stdout, app.theme.RenderFolders(app.catalog.Folders()), "\n")
			fmt.Fprint(os.Stdout, app.theme.RenderDocuments(app.catalog.Documents()), "\n")
		}
		if permissions.Can(role, permissions.CanRunAI) {
			fmt.Fprint(os.Stdout, app.theme.RenderUsage(usage))
		}
		if permissions.Can(role, permissions.CanManageUsers) {
			fmt.Fprint(os.Stdout, "\n", app.theme.RenderUsers(rows))
		}
		return nil
	},
}
