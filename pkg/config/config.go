package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultConfigPath    = "config.yaml"
	defaultSecretsPath   = "client_secrets.json"
	defaultTokenPath     = "./token.json"
	defaultCallbackPort  = 8080
	defaultVideoFile     = "dummy_video.mp4"
	defaultTitle         = "My Dummy Video"
	defaultDescription   = "This is a dummy video uploaded using the YouTube Data API."
	defaultCategory      = "22"
	defaultPrivacyStatus = "private"
	defaultChunkSize     = 8 << 20
	defaultMaxResults    = 50
)

var defaultScopes = []string{
	"https://www.googleapis.com/auth/youtube.upload",
	"https://www.googleapis.com/auth/youtube.readonly",
}

type Config struct {
	ClientSecrets string `yaml:"-"`
	TokenPath     string `yaml:"-"`
	GCPProject    string `yaml:"-"`

	Auth   AuthConfig   `yaml:"auth"`
	Upload UploadConfig `yaml:"upload"`
	List   ListConfig   `yaml:"list"`
}

type AuthConfig struct {
	CallbackPort int      `yaml:"callback_port"`
	Scopes       []string `yaml:"scopes"`
}

type UploadConfig struct {
	VideoFile     string `yaml:"video_file"`
	Title         string `yaml:"title"`
	Description   string `yaml:"description"`
	Category      string `yaml:"category"`
	PrivacyStatus string `yaml:"privacy_status"`
	ChunkSize     int64  `yaml:"chunk_size"` // -1 sends the whole file in one request
}

type ListConfig struct {
	MaxResults int64 `yaml:"max_results"`
}

func Load(ctx context.Context) (*Config, error) {
	return LoadFile(ctx, defaultConfigPath)
}

func LoadFile(_ context.Context, path string) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file found, relying on environment variables")
	}

	cfg := &Config{
		ClientSecrets: getEnvOrDefault("YOUTUBE_CLIENT_SECRETS", defaultSecretsPath),
		TokenPath:     getEnvOrDefault("YOUTUBE_TOKEN_PATH", defaultTokenPath),
		GCPProject:    os.Getenv("GOOGLE_CLOUD_PROJECT"),
	}

	if err := loadYAMLConfig(cfg, path); err != nil {
		return nil, err
	}
	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadYAMLConfig(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		slog.Debug("No config file found, using defaults", "path", path)
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func applyDefaults(cfg *Config) {
	applyAuthDefaults(cfg)
	applyUploadDefaults(cfg)
	applyListDefaults(cfg)
}

func applyAuthDefaults(cfg *Config) {
	if cfg.Auth.CallbackPort == 0 {
		cfg.Auth.CallbackPort = defaultCallbackPort
	}
	if len(cfg.Auth.Scopes) == 0 {
		cfg.Auth.Scopes = append([]string(nil), defaultScopes...)
	}
}

func applyUploadDefaults(cfg *Config) {
	if cfg.Upload.VideoFile == "" {
		cfg.Upload.VideoFile = defaultVideoFile
	}
	if cfg.Upload.Title == "" {
		cfg.Upload.Title = defaultTitle
	}
	if cfg.Upload.Description == "" {
		cfg.Upload.Description = defaultDescription
	}
	if cfg.Upload.Category == "" {
		cfg.Upload.Category = defaultCategory
	}
	if cfg.Upload.PrivacyStatus == "" {
		cfg.Upload.PrivacyStatus = defaultPrivacyStatus
	}
	if cfg.Upload.ChunkSize == 0 {
		cfg.Upload.ChunkSize = defaultChunkSize
	}
}

func applyListDefaults(cfg *Config) {
	if cfg.List.MaxResults == 0 {
		cfg.List.MaxResults = defaultMaxResults
	}
}

func (c *Config) validate() error {
	if c.Auth.CallbackPort < 1 || c.Auth.CallbackPort > 65535 {
		return fmt.Errorf("auth.callback_port %d out of range", c.Auth.CallbackPort)
	}
	if c.List.MaxResults < 1 || c.List.MaxResults > 50 {
		return fmt.Errorf("list.max_results must be between 1 and 50, got %d", c.List.MaxResults)
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
