package cmd

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/huh/spinner"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"ytupload/internal/secrets"
	"ytupload/internal/upload"
	"ytupload/pkg/config"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212")).MarginBottom(1)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Interactive setup wizard for ytupload",
	Long:  `Choose where the OAuth client secrets live, write .env and config.yaml, and optionally authenticate.`,
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(cmd *cobra.Command, args []string) error {
	fmt.Println(titleStyle.Render("ytupload Setup"))

	env := make(map[string]string)

	steps := []struct {
		name string
		fn   func() error
	}{
		{"Configuring client secrets", func() error { return configureClientSecrets(env) }},
		{"Configuring environment", func() error { return configureEnv(env) }},
		{"Writing config", writeConfigFile},
	}

	for _, step := range steps {
		if err := step.fn(); err != nil {
			return fmt.Errorf("%s: %w", step.name, err)
		}
	}

	var authenticate bool
	if err := huh.NewConfirm().
		Title("Authenticate with YouTube now?").
		Description("Opens browser to complete OAuth flow").
		Value(&authenticate).
		Run(); err != nil {
		return err
	}
	if !authenticate {
		printNextSteps()
		return nil
	}

	// Pick up the .env just written.
	for key, val := range env {
		_ = os.Setenv(key, val)
	}
	if err := runAuth(cmd, nil); err != nil {
		fmt.Println(warnStyle.Render(fmt.Sprintf("OAuth flow failed: %v", err)))
		fmt.Println(infoStyle.Render("You can retry later with: ytupload auth"))
	}
	return nil
}

func configureClientSecrets(env map[string]string) error {
	fmt.Println(infoStyle.Render(`
To create OAuth credentials:
1. Go to https://console.cloud.google.com/apis/credentials
2. Click "Create Credentials" → "OAuth client ID"
3. Choose "Desktop app" as application type
4. Download the JSON file
`))

	var source string
	if err := huh.NewSelect[string]().
		Title("Where are the client secrets stored?").
		Options(
			huh.NewOption("Local file", "file"),
			huh.NewOption("Cloud Storage object (gs://)", "gs"),
			huh.NewOption("Secret Manager (sm://)", "sm"),
		).
		Value(&source).
		Run(); err != nil {
		return err
	}

	switch source {
	case "gs":
		return configureStorageSecrets(env)
	case "sm":
		return configureSecretManager(env)
	default:
		return configureLocalSecrets(env)
	}
}

func configureLocalSecrets(env map[string]string) error {
	path := "client_secrets.json"
	if err := huh.NewInput().
		Title("Client secrets file").
		Value(&path).
		Validate(validSecretsFile).
		Run(); err != nil {
		return err
	}
	env["YOUTUBE_CLIENT_SECRETS"] = strings.TrimSpace(path)
	return nil
}

func configureStorageSecrets(env map[string]string) error {
	var location string
	if err := huh.NewInput().
		Title("Object URL").
		Placeholder("gs://my-bucket/client_secrets.json").
		Value(&location).
		Validate(func(s string) error {
			if !strings.HasPrefix(s, "gs://") {
				return fmt.Errorf("must start with gs://")
			}
			return nil
		}).
		Run(); err != nil {
		return err
	}
	env["YOUTUBE_CLIENT_SECRETS"] = strings.TrimSpace(location)
	return nil
}

func configureSecretManager(env map[string]string) error {
	project, err := getOrSelectGCPProject()
	if err != nil {
		return err
	}
	env["GOOGLE_CLOUD_PROJECT"] = project

	name := "youtube-client-secrets"
	if err := huh.NewInput().
		Title("Secret name").
		Value(&name).
		Validate(required("Secret name")).
		Run(); err != nil {
		return err
	}
	name = strings.TrimSpace(name)
	env["YOUTUBE_CLIENT_SECRETS"] = "sm://" + name

	var create bool
	if err := huh.NewConfirm().
		Title("Create the secret from a local file?").
		Description("Requires the gcloud CLI").
		Value(&create).
		Run(); err != nil || !create {
		return err
	}

	if !commandExists("gcloud") {
		fmt.Println(warnStyle.Render("gcloud CLI not found - install from https://cloud.google.com/sdk/docs/install"))
		return nil
	}

	path := "client_secrets.json"
	if err := huh.NewInput().
		Title("Client secrets file").
		Value(&path).
		Validate(validSecretsFile).
		Run(); err != nil {
		return err
	}

	if err := enableGCPAPIs(project); err != nil {
		fmt.Println(warnStyle.Render(fmt.Sprintf("API enablement failed: %v", err)))
	}

	return runWithSpinner("Creating secret", func() error {
		return runSetupCmd("gcloud", "secrets", "create", name,
			"--data-file", strings.TrimSpace(path),
			"--replication-policy", "automatic",
			"--project", project)
	})
}

func getOrSelectGCPProject() (string, error) {
	existing := os.Getenv("GOOGLE_CLOUD_PROJECT")
	if existing == "" && commandExists("gcloud") {
		existing = getActiveProject()
	}

	var choice string
	options := []huh.Option[string]{
		huh.NewOption("Enter project ID manually", "manual"),
	}
	if existing != "" {
		options = append([]huh.Option[string]{
			huh.NewOption(fmt.Sprintf("Use current: %s", existing), existing),
		}, options...)
	}

	if err := huh.NewSelect[string]().
		Title("Google Cloud Project").
		Options(options...).
		Value(&choice).
		Run(); err != nil {
		return "", err
	}

	if choice != "manual" {
		return choice, nil
	}

	var projectID string
	if err := huh.NewInput().
		Title("Project ID").
		Value(&projectID).
		Validate(required("Project ID")).
		Run(); err != nil {
		return "", err
	}
	return strings.TrimSpace(projectID), nil
}

func getActiveProject() string {
	out, err := exec.Command("gcloud", "config", "get-value", "project").Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}

func enableGCPAPIs(project string) error {
	apis := []string{
		"youtube.googleapis.com",
		"secretmanager.googleapis.com",
	}

	return runWithSpinner("Enabling APIs", func() error {
		args := append([]string{"services", "enable"}, apis...)
		args = append(args, "--project", project)
		return runSetupCmd("gcloud", args...)
	})
}

func configureEnv(env map[string]string) error {
	tokenPath := "./token.json"
	if err := huh.NewInput().
		Title("Token file").
		Description("Where the OAuth credential is stored between runs").
		Value(&tokenPath).
		Validate(required("Token file")).
		Run(); err != nil {
		return err
	}
	env["YOUTUBE_TOKEN_PATH"] = strings.TrimSpace(tokenPath)

	if _, err := os.Stat(".env"); err == nil {
		var overwrite bool
		if err := huh.NewConfirm().
			Title("Found existing .env file").
			Description("Overwrite?").
			Value(&overwrite).
			Run(); err != nil {
			return err
		}
		if !overwrite {
			fmt.Println(infoStyle.Render("Kept existing .env"))
			return nil
		}
	}

	return writeEnvFile(env)
}

func writeEnvFile(env map[string]string) error {
	f, err := os.Create(".env")
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	order := []string{
		"YOUTUBE_CLIENT_SECRETS",
		"YOUTUBE_TOKEN_PATH",
		"GOOGLE_CLOUD_PROJECT",
	}

	for _, key := range order {
		if val, ok := env[key]; ok && val != "" {
			_, _ = fmt.Fprintf(f, "%s=%s\n", key, val)
		}
	}

	fmt.Println(successStyle.Render("✓ Created .env file"))
	return nil
}

// configFile is the part of config.yaml the wizard manages.
type configFile struct {
	Upload config.UploadConfig `yaml:"upload"`
}

func writeConfigFile() error {
	if _, err := os.Stat(configPath); err == nil {
		fmt.Println(infoStyle.Render("Kept existing " + configPath))
		return nil
	}

	out := configFile{Upload: config.UploadConfig{
		VideoFile:     "dummy_video.mp4",
		Title:         "My Dummy Video",
		Category:      upload.PeopleAndBlogs,
		PrivacyStatus: upload.PrivacyPrivate,
		ChunkSize:     upload.DefaultChunkSize,
	}}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Default video file").
				Value(&out.Upload.VideoFile),
			huh.NewInput().
				Title("Default title").
				Value(&out.Upload.Title).
				Validate(required("Title")),
			huh.NewSelect[string]().
				Title("Default privacy").
				Options(huh.NewOptions(upload.PrivacyPrivate, upload.PrivacyUnlisted, upload.PrivacyPublic)...).
				Value(&out.Upload.PrivacyStatus),
		),
	)
	if err := form.Run(); err != nil {
		return err
	}

	data, err := yaml.Marshal(out)
	if err != nil {
		return err
	}
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return err
	}

	fmt.Println(successStyle.Render("✓ Created " + configPath))
	return nil
}

func printNextSteps() {
	fmt.Println()
	fmt.Println(titleStyle.Render("Next steps:"))
	fmt.Println("  1. Run: ytupload auth")
	fmt.Println("  2. Run: ytupload upload path/to/video.mp4")
	fmt.Println("  3. Run: ytupload list")
}

func validSecretsFile(path string) error {
	data, err := os.ReadFile(strings.TrimSpace(path))
	if err != nil {
		return err
	}
	_, err = secrets.Parse(data)
	return err
}

func required(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", field)
		}
		return nil
	}
}

func commandExists(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

func runSetupCmd(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s: %s", err, stderr.String())
	}
	return nil
}

func runWithSpinner(title string, fn func() error) error {
	var err error
	_ = spinner.New().
		Title(title).
		Action(func() { err = fn() }).
		Run()
	if err != nil {
		return err
	}
	fmt.Println(successStyle.Render("✓ " + title))
	return nil
}
