package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/user/docdash/internal/permissions"
	"github.com/user/docdash/internal/workflow"
)

func init() {
	rootCmd.AddCommand(adminCmd)
	adminCmd.AddCommand(adminUsersCmd, adminSetRoleCmd)
}

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Manage users",
}

var adminUsersCmd = &cobra.Command{
	Use:   "users",
	Short: "List users with credit totals",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app := newApp()
		if err := app.requireSession(cmd.Context()); err != nil {
			return err
		}
		admin := workflow.NewAdmin(app.api, app.session)
		rows, err := admin.Refresh(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprint(os.Stdout, app.theme.RenderUsers(rows))
		return nil
	},
}

var adminSetRoleCmd = &cobra.Command{
	Use:   "set-role <user-id> <role>",
	Short: "Change a user's role (admin, support, or user)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := newApp()
		if err := app.requireSession(cmd.Context()); err != nil {
			return err
		}
		admin := workflow.NewAdmin(app.api, app.session)
		message, err := admin.SetRole(cmd.Context(), args[0], permissions.Role(args[1]))
		if err != nil {
			return err
		}
		fmt.Fprintln(os.Stdout, message)
		return nil
	},
}
