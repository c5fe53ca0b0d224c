package cmd

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"ytupload/internal/upload"
)

var (
	uploadTitle       string
	uploadDescription string
	uploadCategory    string
	uploadPrivacy     string
	uploadTags        []string
	uploadChunkSize   int64
	uploadInteractive bool
)

var (
	progressStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	uploadOKStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	uploadErrStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

var uploadCmd = &cobra.Command{
	Use:   "upload [file]",
	Short: "Upload a video in resumable chunks",
	Long: `Upload a video file to YouTube. Metadata defaults come from config.yaml
and can be overridden by flags or collected interactively with --interactive.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runUpload,
}

func init() {
	uploadCmd.Flags().StringVarP(&uploadTitle, "title", "t", "", "Video title")
	uploadCmd.Flags().StringVarP(&uploadDescription, "description", "d", "", "Video description")
	uploadCmd.Flags().StringVar(&uploadCategory, "category", "", "Category id or name")
	uploadCmd.Flags().StringVarP(&uploadPrivacy, "privacy", "p", "", "Privacy status: public, private or unlisted")
	uploadCmd.Flags().StringSliceVar(&uploadTags, "tags", nil, "Comma separated tags")
	uploadCmd.Flags().Int64Var(&uploadChunkSize, "chunk-size", 0, "Chunk size in bytes, a multiple of 262144, or -1 for a single request")
	uploadCmd.Flags().BoolVarP(&uploadInteractive, "interactive", "i", false, "Prompt for the file and metadata")
	rootCmd.AddCommand(uploadCmd)
}

func runUpload(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	svc, err := loadService(ctx)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg := svc.Config()

	path := cfg.Upload.VideoFile
	if len(args) == 1 {
		path = args[0]
	}
	if cmd.Flags().Changed("chunk-size") {
		cfg.Upload.ChunkSize = uploadChunkSize
	}

	meta := svc.DefaultMetadata()
	flags := cmd.Flags()
	if flags.Changed("title") {
		meta.Title = uploadTitle
	}
	if flags.Changed("description") {
		meta.Description = uploadDescription
	}
	if flags.Changed("category") {
		meta.Category = uploadCategory
	}
	if flags.Changed("privacy") {
		meta.Privacy = uploadPrivacy
	}
	if flags.Changed("tags") {
		meta.Tags = uploadTags
	}

	if uploadInteractive {
		if err := promptMetadata(&path, &meta); err != nil {
			return err
		}
	}

	id, err := svc.Upload(ctx, path, meta, func(percent int) {
		fmt.Println(progressStyle.Render(upload.ProgressMessage(percent)))
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, uploadErrStyle.Render("An error occurred: "+err.Error()))
		fmt.Fprintln(os.Stderr, uploadErrStyle.Render("Video upload aborted."))
		cmd.SilenceErrors = true
		return err
	}

	fmt.Println(uploadOKStyle.Render(fmt.Sprintf("Uploaded video with ID %q", id)))
	fmt.Println(uploadOKStyle.Render("  " + upload.WatchURL(id)))
	return nil
}

func promptMetadata(path *string, meta *upload.Metadata) error {
	meta.Category = upload.CategoryID(meta.Category)
	tags := strings.Join(meta.Tags, ", ")

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Video file").
				Value(path).
				Validate(fileExists),
			huh.NewInput().
				Title("Title").
				Value(&meta.Title).
				Validate(required("Title")),
			huh.NewText().
				Title("Description").
				Value(&meta.Description),
			huh.NewInput().
				Title("Tags").
				Description("Comma separated (optional)").
				Value(&tags),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Category").
				Options(categoryOptions()...).
				Value(&meta.Category),
			huh.NewSelect[string]().
				Title("Privacy").
				Options(huh.NewOptions(upload.PrivacyPrivate, upload.PrivacyUnlisted, upload.PrivacyPublic)...).
				Value(&meta.Privacy),
		),
	)
	if err := form.Run(); err != nil {
		return err
	}

	meta.Tags = splitTags(tags)
	return nil
}

func categoryOptions() []huh.Option[string] {
	categories := upload.Categories()
	ids := make([]string, 0, len(categories))
	for id := range categories {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, func(a, b string) int {
		x, _ := strconv.Atoi(a)
		y, _ := strconv.Atoi(b)
		return x - y
	})

	options := make([]huh.Option[string], 0, len(ids))
	for _, id := range ids {
		options = append(options, huh.NewOption(fmt.Sprintf("%s (%s)", categories[id], id), id))
	}
	return options
}

func splitTags(s string) []string {
	var tags []string
	for _, tag := range strings.Split(s, ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

func fileExists(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}
	return nil
}
