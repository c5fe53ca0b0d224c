package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"ytupload/internal/lister"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the channel's most recent uploads",
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	svc, err := loadService(ctx)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Consent may print a URL, so it has to finish before the spinner starts.
	cred, err := svc.Authorize(ctx)
	if err != nil {
		return err
	}

	var uploads []lister.Upload
	err = runWithSpinner("Fetching recent uploads", func() error {
		var listErr error
		uploads, listErr = svc.ListRecentUploadsWith(ctx, cred)
		return listErr
	})
	if err != nil {
		return err
	}

	if len(uploads) == 0 {
		fmt.Println(infoStyle.Render("No videos found."))
		return nil
	}
	for _, u := range uploads {
		fmt.Println(u.String())
	}
	return nil
}
