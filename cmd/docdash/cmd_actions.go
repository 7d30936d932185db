package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/user/docdash/internal/workflow"
	"github.com/user/docdash/pkg/docapi"
)

var (
	actionFolder   string
	actionPrompt   string
	actionSaveDir  string
	actionDocument bool
	actionCSV      bool
	actionRaw      bool
	usageMonthOnly bool
)

func init() {
	rootCmd.AddCommand(actionsCmd)
	actionsCmd.AddCommand(actionsRunCmd, actionsUsageCmd)

	actionsRunCmd.Flags().StringVar(&actionFolder, "folder", "", "scope the run to a folder")
	actionsRunCmd.Flags().StringVar(&actionPrompt, "prompt", "", "instruction for the run (defaults to a summary request)")
	actionsRunCmd.Flags().StringVar(&actionSaveDir, "save", "", "download produced artifacts into this directory")
	actionsRunCmd.Flags().BoolVar(&actionDocument, "make-document", true, "request a summary document")
	actionsRunCmd.Flags().BoolVar(&actionCSV, "make-csv", true, "request a CSV export")
	actionsRunCmd.Flags().BoolVar(&actionRaw, "raw", false, "print the full response payload")
	actionsUsageCmd.Flags().BoolVar(&usageMonthOnly, "month", false, "show this month's credit total instead")
}

var actionsCmd = &cobra.Command{
	Use:   "actions",
	Short: "Run AI actions over documents",
}

var actionsRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Run an AI action over all documents or a folder",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app := newApp()
		if err := app.requireSession(cmd.Context()); err != nil {
			return err
		}

		scope := docapi.Scope{Type: "all"}
		if actionFolder != "" {
			scope = docapi.Scope{Type: "folder", Name: actionFolder}
		}

		runner := workflow.NewActionRunner(app.api, app.session, app.refreshHooks())
		run, err := runner.Run(cmd.Context(), scope, actionPrompt, actionDocument, actionCSV)
		if err != nil {
			return err
		}
		fmt.Fprint(os.Stdout, app.theme.RenderStatus(run))

		result := runner.Result()
		if actionRaw {
			fmt.Fprintf(os.Stdout, "%s\n", result.Raw)
		}
		for _, line := range actionSummary(result) {
			fmt.Fprintln(os.Stdout, line)
		}
		for _, artifact := range runner.Artifacts() {
			if actionSaveDir == "" {
				fmt.Fprintf(os.Stdout, "Artifact (%s): %s\n", artifact.Kind, artifact.URI)
				continue
			}
			path, err := runner.Download(cmd.Context(), artifact, actionSaveDir)
			if err != nil {
				return fmt.Errorf("download %s artifact: %w", artifact.Kind, err)
			}
			fmt.Fprintf(os.Stdout, "Saved %s\n", path)
		}
		return nil
	},
}

// actionSummary lists the accounting lines for a completed run. Credits
// are always reported, even when the run consumed none.
func actionSummary(result *docapi.ActionResult) []string {
	lines := []string{fmt.Sprintf("Credits used: %d", result.CreditsUsed)}
	for _, id := range result.NewDocs {
		lines = append(lines, "New document: "+id)
	}
	return lines
}

var actionsUsageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Show credit usage",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app := newApp()
		if err := app.requireSession(cmd.Context()); err != nil {
			return err
		}
		if usageMonthOnly {
			credits, err := app.api.MonthlyUsage(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "Credits this month: %d\n", credits.TotalCredits)
			return nil
		}
		usage, err := app.api.Usage(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprint(os.Stdout, app.theme.RenderUsage(usage))
		return nil
	},
}
