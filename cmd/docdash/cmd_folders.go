package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(foldersCmd)
	foldersCmd.AddCommand(foldersListCmd)
}

var foldersCmd = &cobra.Command{
	Use:   "folders",
	Short: "Browse folders",
}

var foldersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List folders with document counts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app := newApp()
		if err := app.requireSession(cmd.Context()); err != nil {
			return err
		}
		if err := app.catalog.RefreshFolders(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprint(os.Stdout, app.theme.RenderFolders(app.catalog.Folders()))
		return nil
	},
}
