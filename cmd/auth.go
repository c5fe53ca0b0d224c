package cmd

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"ytupload/internal/auth"
)

var (
	authInfoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	authSuccessStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	authWarnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	authErrorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Obtain and store YouTube credentials",
	Long: `Make sure a usable credential is stored. A valid credential is left alone,
an expired one is refreshed, and otherwise the browser consent flow runs.`,
	RunE: runAuth,
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the state of the stored credential",
	RunE:  runAuthStatus,
}

func init() {
	authCmd.AddCommand(authStatusCmd)
	rootCmd.AddCommand(authCmd)
}

func runAuth(cmd *cobra.Command, args []string) error {
	svc, err := loadService(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	cred, err := svc.Authorize(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Println(authSuccessStyle.Render("✓ YouTube authentication complete"))
	fmt.Println(authSuccessStyle.Render("  Token saved to: " + svc.Config().TokenPath))
	if !cred.Expiry.IsZero() {
		fmt.Println(authInfoStyle.Render("  Access token expires: " + cred.Expiry.Local().Format(time.RFC1123)))
	}
	return nil
}

func runAuthStatus(cmd *cobra.Command, args []string) error {
	svc, err := loadService(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg := svc.Config()

	fmt.Println(authInfoStyle.Render("\nYouTube Credential Status:\n"))
	fmt.Println(authInfoStyle.Render("  Client secrets: " + cfg.ClientSecrets))
	fmt.Println(authInfoStyle.Render("  Token file:     " + cfg.TokenPath))
	fmt.Println()

	cred, err := svc.StoredCredential(cmd.Context())
	switch {
	case errors.Is(err, auth.ErrNoCredential):
		fmt.Println(authErrorStyle.Render("✗ Not authenticated"))
		fmt.Println(authInfoStyle.Render("  Run: ytupload auth"))
		fmt.Println()
		return nil
	case err != nil:
		fmt.Println(authErrorStyle.Render("✗ Stored credential is unreadable: " + err.Error()))
		fmt.Println(authInfoStyle.Render("  Run: ytupload auth"))
		fmt.Println()
		return nil
	}

	now := time.Now()
	switch {
	case cred.Valid(now) && cred.Expiry.IsZero():
		fmt.Println(authSuccessStyle.Render("✓ Access token stored without expiry"))
	case cred.Valid(now):
		fmt.Println(authSuccessStyle.Render("✓ Access token valid until " + cred.Expiry.Local().Format(time.RFC1123)))
	case cred.RefreshToken != "":
		fmt.Println(authWarnStyle.Render("○ Access token expired, will be refreshed on next use"))
	default:
		fmt.Println(authErrorStyle.Render("✗ Access token expired and no refresh token stored"))
	}

	if cred.HasScopes(cfg.Auth.Scopes) {
		fmt.Println(authSuccessStyle.Render("✓ Scopes: " + strings.Join(cred.Scopes, ", ")))
	} else {
		fmt.Println(authWarnStyle.Render("○ Missing scopes, consent will be asked again: " + strings.Join(missingScopes(cred, cfg.Auth.Scopes), ", ")))
	}

	fmt.Println()
	return nil
}

func missingScopes(cred *auth.Credential, want []string) []string {
	var missing []string
	for _, s := range want {
		if !cred.HasScopes([]string{s}) {
			missing = append(missing, s)
		}
	}
	return missing
}
