package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove the stored credential",
	Long:  `Delete the token file. The next command that needs YouTube access runs the consent flow again.`,
	RunE:  runClear,
}

func init() {
	authCmd.AddCommand(clearCmd)
}

func runClear(cmd *cobra.Command, args []string) error {
	svc, err := loadService(cmd.Context())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if err := svc.ClearCredential(cmd.Context()); err != nil {
		return err
	}

	fmt.Printf("Removed credential %s\n", svc.Config().TokenPath)
	return nil
}
