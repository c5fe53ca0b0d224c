package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"ytupload/internal/app"
	"ytupload/pkg/config"
)

var (
	verbose    bool
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "ytupload",
	Short: "Upload videos to YouTube and list recent uploads",
	Long: `ytupload authorizes against the YouTube Data API with OAuth2, keeps the
credential on disk between runs, uploads videos in resumable chunks and lists
the channel's recent uploads.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "Path to the YAML config file")
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		setupLogger()
	}
}

func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func setupLogger() {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})))
}

func loadConfig(ctx context.Context) (*config.Config, error) {
	if rootCmd.PersistentFlags().Changed("config") {
		return config.LoadFile(ctx, configPath)
	}
	return config.Load(ctx)
}

func loadService(ctx context.Context) (*app.Service, error) {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return nil, err
	}
	return app.BuildService(cfg, slog.Default()), nil
}
