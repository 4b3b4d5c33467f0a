package main

import (
	"context"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"whisper-transcriber/internal/logging"
	"whisper-transcriber/internal/requirements"
)

var (
	filePath string
	python   string
	verbose  bool
)

var rootCmd = &cobra.Command{
	Use:   "update-requirements",
	Short: "Pin every package in requirements.txt to its installed version",
	Long: `Reads the requirements file, asks pip which versions are installed and
rewrites the file sorted, with each known package pinned as name==version.
Packages that are not installed keep their original line. A missing file
is created empty.`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := logging.Must(verbose)
		defer func() { _ = logger.Sync() }()

		path := filePath
		if path == "" {
			path = defaultRequirementsPath()
		}

		res, err := requirements.Update(context.Background(), path, requirements.NewPipFreezer(python))
		if err != nil {
			return err
		}

		if res.Created {
			logger.Info("requirements file not found, created a new one", zap.String("path", res.Path))
		}
		logger.Info("updated requirements file",
			zap.String("path", res.Path),
			zap.Int("packages", len(res.Lines)),
			zap.Int("changed", res.Changed))
		return nil
	},
}

// defaultRequirementsPath is requirements.txt in the parent of the
// executable's directory.
func defaultRequirementsPath() string {
	exe, err := os.Executable()
	if err != nil {
		return "requirements.txt"
	}
	return filepath.Clean(filepath.Join(filepath.Dir(exe), "..", "requirements.txt"))
}

func init() {
	rootCmd.Flags().StringVarP(&filePath, "file", "f", "", "requirements file (default ../requirements.txt relative to the executable)")
	rootCmd.Flags().StringVar(&python, "python", "python3", "python interpreter whose packages are inspected")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "V", false, "console logging")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
