package transcribe

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"whisper-transcriber/internal/command"
	"whisper-transcriber/internal/domain"
)

const (
	StagePreprocessing = "preprocessing"
	StageTranscribing  = "transcribing"
	StageReading       = "reading"
)

// PipelineError is a stage-aware error with optional command context.
type PipelineError struct {
	Stage      string      `json:"stage"`
	Message    string      `json:"message"`
	CommandLog command.Log `json:"commandLog"`
	Err        error       `json:"-"`
}

// Error formats pipeline failures for logs and UI.
func (e *PipelineError) Error() string {
	if e == nil {
		return ""
	}
	if e.CommandLog.Command == "" {
		return fmt.Sprintf("%s: %s", e.Stage, e.Message)
	}

	return fmt.Sprintf(
		"%s: %s (cmd=%s exit=%d)",
		e.Stage,
		e.Message,
		e.CommandLog.Command,
		e.CommandLog.ExitCode,
	)
}

// Unwrap exposes underlying error for errors.Is / errors.As.
func (e *PipelineError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// run converts the input to 16 kHz mono WAV, runs whisper.cpp on it and
// returns the transcript. The temporary workspace is always removed.
func (e *WhisperEngine) run(ctx context.Context, m *whisperModel, audioPath string) (string, error) {
	if strings.TrimSpace(audioPath) == "" {
		return "", &PipelineError{
			Stage:   StagePreprocessing,
			Message: "audio path is required",
		}
	}

	if _, err := e.stat(audioPath); err != nil {
		return "", &PipelineError{
			Stage:   StagePreprocessing,
			Message: fmt.Sprintf("cannot access audio file: %s", audioPath),
			Err:     err,
		}
	}

	tempDir, err := e.mkdirTemp("", "whisper-transcriber-*")
	if err != nil {
		return "", &PipelineError{
			Stage:   StagePreprocessing,
			Message: "failed to create temporary workspace",
			Err:     err,
		}
	}
	defer func() { _ = e.removeAll(tempDir) }()

	wavPath := filepath.Join(tempDir, "input-16k-mono.wav")
	ffmpegArgs := buildFFmpegArgs(audioPath, wavPath)
	ffmpegLog, err := e.exec(ctx, e.ffmpegPath, ffmpegArgs)
	if err != nil {
		return "", &PipelineError{
			Stage:      StagePreprocessing,
			Message:    "ffmpeg audio conversion failed",
			CommandLog: ffmpegLog,
			Err:        err,
		}
	}
	if _, err := e.stat(wavPath); err != nil {
		return "", &PipelineError{
			Stage:      StagePreprocessing,
			Message:    "ffmpeg completed but output file is missing",
			CommandLog: ffmpegLog,
			Err:        err,
		}
	}

	textBase := filepath.Join(tempDir, "transcript")
	whisperArgs := buildWhisperArgs(m.path, wavPath, textBase, m.language, m.device)
	whisperLog, err := e.exec(ctx, e.whisperPath, whisperArgs)
	if err != nil {
		return "", &PipelineError{
			Stage:      StageTranscribing,
			Message:    "whisper.cpp transcription failed",
			CommandLog: whisperLog,
			Err:        err,
		}
	}

	content, err := e.readFile(textBase + ".txt")
	if err != nil {
		return "", &PipelineError{
			Stage:      StageReading,
			Message:    "whisper.cpp completed but transcript file is missing",
			CommandLog: whisperLog,
			Err:        err,
		}
	}

	return strings.TrimSpace(string(content)), nil
}

// exec runs one command and forwards its log when a callback is configured.
func (e *WhisperEngine) exec(ctx context.Context, name string, args []string) (command.Log, error) {
	res, err := e.runner.Run(ctx, name, args...)
	log := command.NewLog(name, args, res)
	if e.onLog != nil {
		e.onLog(log)
	}
	return log, err
}

// normalizeLanguage maps "auto" and empty language to no CLI override.
func normalizeLanguage(raw string) string {
	lang := strings.TrimSpace(raw)
	if lang == "" || strings.EqualFold(lang, "auto") {
		return ""
	}
	return lang
}

// buildFFmpegArgs builds preprocessing CLI args for mono 16k PCM WAV output.
func buildFFmpegArgs(inputPath, outPath string) []string {
	return []string{
		"-hide_banner",
		"-nostdin",
		"-y",
		"-i", inputPath,
		"-vn",
		"-ac", "1",
		"-ar", "16000",
		"-c:a", "pcm_s16le",
		outPath,
	}
}

// buildWhisperArgs builds whisper.cpp args for txt transcript output.
func buildWhisperArgs(modelPath, audioPath, textBase, language string, device domain.Device) []string {
	args := []string{
		"-m", modelPath,
		"-f", audioPath,
		"-of", textBase,
		"-otxt",
		"-np",
	}

	if lang := normalizeLanguage(language); lang != "" {
		args = append(args, "-l", lang)
	}
	if !device.Accelerated() {
		args = append(args, "-ng")
	}
	return args
}
