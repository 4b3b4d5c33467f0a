package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"whisper-transcriber/internal/config"
	"whisper-transcriber/internal/domain"
	"whisper-transcriber/internal/logging"
	"whisper-transcriber/internal/models"
)

var (
	Verbose  bool
	cacheDir string
	baseURL  string
)

var rootCmd = &cobra.Command{
	Use:   "whisperctl",
	Short: "Manage whisper models and transcribe audio without the desktop window",
	Long: `whisperctl shares the model cache and settings of the desktop app.
- list model sizes and whether their weights are cached
- download weights for a model size
- transcribe an audio file and print the text`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(modelsCmd)
	rootCmd.AddCommand(downloadCmd)
	rootCmd.AddCommand(transcribeCmd)

	rootCmd.PersistentFlags().BoolVarP(&Verbose, "verbose", "V", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&cacheDir, "cache-dir", "", "model cache directory (default from settings, then ~/.cache/whisper)")
	rootCmd.PersistentFlags().StringVar(&baseURL, "base-url", "", "mirror serving ggml-*.bin weights")
}

// env is what every subcommand needs: settings, cache and a logger.
type env struct {
	settings domain.Settings
	cache    *models.Cache
	logger   *zap.Logger
}

func loadEnv() (*env, error) {
	logger, err := logging.New(Verbose)
	if err != nil {
		return nil, err
	}
	if _, err := config.LoadEnv(); err != nil {
		return nil, err
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve user home: %w", err)
	}
	settings, err := config.NewJSONStore(config.DefaultSettingsPath(homeDir)).Load()
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	settings = config.ApplyEnv(settings)
	if cacheDir != "" {
		settings.CacheDir = filepath.Clean(cacheDir)
	}
	settings = config.Normalize(settings)

	mirror := baseURL
	if mirror == "" {
		mirror = os.Getenv(config.EnvModelBaseURL)
	}

	return &env{
		settings: settings,
		cache:    models.NewCache(settings.CacheDir, models.NewCatalog(mirror), nil),
		logger:   logger,
	}, nil
}
