package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/user/docdash/internal/workflow"
)

var (
	docsFolder    string
	uploadPrimary string
	uploadTags    string
	uploadOCR     bool
	downloadDir   string
)

func init() {
	rootCmd.AddCommand(docsCmd)
	docsCmd.AddCommand(docsListCmd, docsSearchCmd, docsUploadCmd, docsDownloadCmd)

	docsListCmd.Flags().StringVar(&docsFolder, "folder", "", "limit to a folder")
	docsSearchCmd.Flags().StringVar(&docsFolder, "folder", "", "limit to a folder")
	docsUploadCmd.Flags().StringVar(&uploadPrimary, "primary-tag", "", "primary tag (the folder)")
	docsUploadCmd.Flags().StringVar(&uploadTags, "tags", "", "comma-separated secondary tags")
	docsUploadCmd.Flags().BoolVar(&uploadOCR, "ocr", false, "run the file through OCR classification")
	docsDownloadCmd.Flags().StringVar(&downloadDir, "dir", ".", "directory to save into")
}

var docsCmd = &cobra.Command{
	Use:   "docs",
	Short: "Browse, search, and upload documents",
}

var docsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List documents",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app := newApp()
		if err := app.requireSession(cmd.Context()); err != nil {
			return err
		}
		if err := app.catalog.RefreshDocuments(cmd.Context(), docsFolder); err != nil {
			return err
		}
		fmt.Fprint(os.Stdout, app.theme.RenderDocuments(app.catalog.Documents()))
		return nil
	},
}

var docsSearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search documents",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := newApp()
		if err := app.requireSession(cmd.Context()); err != nil {
			return err
		}
		if err := app.catalog.Search(cmd.Context(), args[0], docsFolder); err != nil {
			return err
		}
		fmt.Fprint(os.Stdout, app.theme.RenderDocuments(app.catalog.Documents()))
		return nil
	},
}

var docsUploadCmd = &cobra.Command{
	Use:   "upload <file>",
	Short: "Upload a document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := newApp()
		if err := app.requireSession(cmd.Context()); err != nil {
			return err
		}
		uploader := workflow.NewUploader(app.api, app.session, app.refreshHooks())
		run, err := uploader.Upload(cmd.Context(), workflow.UploadRequest{
			Path:          args[0],
			PrimaryTag:    uploadPrimary,
			SecondaryTags: uploadTags,
			OCR:           uploadOCR,
		})
		if err != nil {
			return err
		}
		fmt.Fprint(os.Stdout, app.theme.RenderStatus(run))
		return nil
	},
}

var docsDownloadCmd = &cobra.Command{
	Use:   "download <id>",
	Short: "Download a document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := newApp()
		if err := app.requireSession(cmd.Context()); err != nil {
			return err
		}
		path, err := app.catalog.Download(cmd.Context(), args[0], downloadDir)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "Saved %s\n", path)
		return nil
	},
}
