package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"whisper-transcriber/internal/command"
	"whisper-transcriber/internal/config"
	"whisper-transcriber/internal/device"
	"whisper-transcriber/internal/domain"
	"whisper-transcriber/internal/transcribe"
	"whisper-transcriber/internal/window"
)

var (
	sizeFlag     string
	languageFlag string
	cpuOnly      bool
)

var transcribeCmd = &cobra.Command{
	Use:   "transcribe <audio>",
	Short: "Transcribe an audio file and print the text",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv()
		if err != nil {
			return err
		}
		audio := args[0]
		if !window.IsAudioFile(audio) {
			return fmt.Errorf("%s: %w", audio, window.ErrUnsupportedAudio)
		}
		if _, err := os.Stat(audio); err != nil {
			return err
		}

		size := e.settings.ModelSize
		if sizeFlag != "" {
			if size, err = domain.ParseModelSize(sizeFlag); err != nil {
				return err
			}
		}
		if !e.cache.Exists(size) {
			return fmt.Errorf("%s model is not cached, run: whisperctl download %s", size, size)
		}
		modelPath, err := e.cache.Path(size)
		if err != nil {
			return err
		}

		language := e.settings.Language
		if languageFlag != "" {
			language = languageFlag
		}

		dev := domain.Device{Kind: domain.DeviceCPU, Name: "cpu"}
		if !cpuOnly {
			dev = device.NewDetector().Detect()
		}

		engine := transcribe.NewWhisperEngine(
			transcribe.WithBinaries(os.Getenv(config.EnvFFmpegBin), os.Getenv(config.EnvWhisperBin)),
			transcribe.WithCommandLog(func(l command.Log) {
				e.logger.Debug("external command",
					zap.String("command", l.Command),
					zap.Strings("args", l.Args),
					zap.Int("exit", l.ExitCode))
			}),
		)

		ctx := context.Background()
		model, err := engine.Load(ctx, transcribe.LoadRequest{
			Size:      size,
			ModelPath: modelPath,
			Device:    dev,
			Language:  language,
		})
		if err != nil {
			return fmt.Errorf("load %s model: %w", size, err)
		}
		e.logger.Info("model loaded", zap.String("size", string(size)), zap.String("device", string(dev.Kind)))

		text, err := model.Transcribe(ctx, audio)
		if err != nil {
			return err
		}
		fmt.Println(text)
		return nil
	},
}

func init() {
	transcribeCmd.Flags().StringVarP(&sizeFlag, "size", "s", "", "model size (tiny, base, small, medium, large)")
	transcribeCmd.Flags().StringVarP(&languageFlag, "language", "l", "", "spoken language, or auto")
	transcribeCmd.Flags().BoolVar(&cpuOnly, "cpu", false, "skip GPU detection and run on the CPU")
}
