package transcribe

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"whisper-transcriber/internal/command"
	"whisper-transcriber/internal/domain"
)

// fakeRunner simulates command execution order and outcomes.
type fakeRunner struct {
	run func(ctx context.Context, name string, args ...string) (command.Result, error)
}

// Run delegates to injected behavior.
func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) (command.Result, error) {
	if f.run == nil {
		return command.Result{}, nil
	}
	return f.run(ctx, name, args...)
}

// loadTestModel writes GGML weights and loads them on device.
func loadTestModel(t *testing.T, e *WhisperEngine, device domain.Device, language string) Model {
	t.Helper()
	modelPath := filepath.Join(t.TempDir(), "ggml-base.bin")
	mustWriteFile(t, modelPath, "lmgg-weights")

	m, err := e.Load(context.Background(), LoadRequest{
		Size:      domain.ModelSizeBase,
		ModelPath: modelPath,
		Device:    device,
		Language:  language,
	})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	return m
}

// TestTranscribeSuccessAutoLanguage checks full happy path with auto lang on CPU.
func TestTranscribeSuccessAutoLanguage(t *testing.T) {
	inputPath := filepath.Join(t.TempDir(), "meeting.m4a")
	mustWriteFile(t, inputPath, "media")

	call := 0
	var whisperArgs []string
	var tempDir string
	var logs []command.Log
	runner := &fakeRunner{
		run: func(ctx context.Context, name string, args ...string) (command.Result, error) {
			call++
			switch call {
			case 1:
				if name != "ffmpeg-custom" {
					t.Fatalf("command 1 name = %q, want ffmpeg-custom", name)
				}
				outPath := args[len(args)-1]
				tempDir = filepath.Dir(outPath)
				mustWriteFile(t, outPath, "wav")
				return command.Result{Stdout: "ffmpeg ok"}, nil
			case 2:
				if name != "whisper-custom" {
					t.Fatalf("command 2 name = %q, want whisper-custom", name)
				}
				whisperArgs = append([]string{}, args...)
				mustWriteFile(t, argValue(args, "-of")+".txt", "  hello world\n")
				return command.Result{Stdout: "whisper ok"}, nil
			default:
				t.Fatalf("unexpected command call: %d", call)
				return command.Result{}, nil
			}
		},
	}

	engine := NewWhisperEngine(
		WithBinaries("ffmpeg-custom", "whisper-custom"),
		WithRunner(runner),
		WithCommandLog(func(l command.Log) { logs = append(logs, l) }),
	)
	model := loadTestModel(t, engine, domain.Device{Kind: domain.DeviceCPU, Name: "cpu"}, "auto")

	text, err := model.Transcribe(context.Background(), inputPath)
	if err != nil {
		t.Fatalf("Transcribe() error = %v", err)
	}
	if text != "hello world" {
		t.Fatalf("transcript = %q", text)
	}
	if call != 2 {
		t.Fatalf("command calls = %d, want 2", call)
	}
	if len(logs) != 2 {
		t.Fatalf("logs count = %d, want 2", len(logs))
	}
	if hasArg(whisperArgs, "-l") {
		t.Fatalf("auto language should not pass -l, args=%v", whisperArgs)
	}
	if !hasArg(whisperArgs, "-ng") {
		t.Fatalf("cpu device should pass -ng, args=%v", whisperArgs)
	}
	if _, err := os.Stat(tempDir); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected temp dir cleanup, stat err = %v", err)
	}
}

// TestTranscribeFixedLanguageOnGPU checks language flag and GPU use.
func TestTranscribeFixedLanguageOnGPU(t *testing.T) {
	inputPath := filepath.Join(t.TempDir(), "clip.wav")
	mustWriteFile(t, inputPath, "media")

	var whisperArgs []string
	runner := &fakeRunner{
		run: func(ctx context.Context, name string, args ...string) (command.Result, error) {
			if name == "ffmpeg" {
				mustWriteFile(t, args[len(args)-1], "wav")
				return command.Result{}, nil
			}
			whisperArgs = append([]string{}, args...)
			mustWriteFile(t, argValue(args, "-of")+".txt", "transcribed")
			return command.Result{}, nil
		},
	}

	engine := NewWhisperEngine(WithRunner(runner))
	model := loadTestModel(t, engine, domain.Device{Kind: domain.DeviceCUDA, Name: "rtx"}, "en")

	text, err := model.Transcribe(context.Background(), inputPath)
	if err != nil {
		t.Fatalf("Transcribe() error = %v", err)
	}
	if text != "transcribed" {
		t.Fatalf("transcript = %q", text)
	}
	if got := argValue(whisperArgs, "-l"); got != "en" {
		t.Fatalf("language arg = %q, want en", got)
	}
	if hasArg(whisperArgs, "-ng") {
		t.Fatalf("accelerated device should not pass -ng, args=%v", whisperArgs)
	}
	if model.Device().Kind != domain.DeviceCUDA {
		t.Fatalf("device = %v, want cuda", model.Device())
	}
}

// TestTranscribeFFmpegFailureReturnsPreprocessingError checks conversion error path.
func TestTranscribeFFmpegFailureReturnsPreprocessingError(t *testing.T) {
	inputPath := filepath.Join(t.TempDir(), "clip.mp3")
	mustWriteFile(t, inputPath, "media")

	runner := &fakeRunner{
		run: func(ctx context.Context, name string, args ...string) (command.Result, error) {
			return command.Result{Stderr: "ffmpeg failed", ExitCode: 1}, errors.New("exit status 1")
		},
	}

	model := loadTestModel(t, NewWhisperEngine(WithRunner(runner)), domain.Device{}, "auto")
	_, err := model.Transcribe(context.Background(), inputPath)
	if err == nil {
		t.Fatal("expected error")
	}

	var pErr *PipelineError
	if !errors.As(err, &pErr) {
		t.Fatalf("error type = %T, want *PipelineError", err)
	}
	if pErr.Stage != StagePreprocessing {
		t.Fatalf("stage = %s, want preprocessing", pErr.Stage)
	}
	if pErr.CommandLog.Command != "ffmpeg" {
		t.Fatalf("command = %q, want ffmpeg", pErr.CommandLog.Command)
	}
	if pErr.CommandLog.ExitCode != 1 {
		t.Fatalf("exit code = %d, want 1", pErr.CommandLog.ExitCode)
	}
}

// TestTranscribeWhisperFailureCleansTempDir checks failure cleanup path.
func TestTranscribeWhisperFailureCleansTempDir(t *testing.T) {
	inputPath := filepath.Join(t.TempDir(), "clip.wma")
	mustWriteFile(t, inputPath, "media")

	var tempDir string
	runner := &fakeRunner{
		run: func(ctx context.Context, name string, args ...string) (command.Result, error) {
			if name == "ffmpeg" {
				outPath := args[len(args)-1]
				tempDir = filepath.Dir(outPath)
				mustWriteFile(t, outPath, "wav")
				return command.Result{}, nil
			}
			return command.Result{Stderr: "whisper failed", ExitCode: 1}, errors.New("exit status 1")
		},
	}

	model := loadTestModel(t, NewWhisperEngine(WithRunner(runner)), domain.Device{}, "auto")
	_, err := model.Transcribe(context.Background(), inputPath)

	var pErr *PipelineError
	if !errors.As(err, &pErr) {
		t.Fatalf("error type = %T, want *PipelineError", err)
	}
	if pErr.Stage != StageTranscribing {
		t.Fatalf("stage = %s, want transcribing", pErr.Stage)
	}
	if pErr.CommandLog.Command != "whisper.cpp" {
		t.Fatalf("command = %q, want whisper.cpp", pErr.CommandLog.Command)
	}
	if _, statErr := os.Stat(tempDir); !errors.Is(statErr, os.ErrNotExist) {
		t.Fatalf("temp dir should be removed on failure, stat err = %v", statErr)
	}
}

// TestTranscribeMissingAudio checks validation before any command runs.
func TestTranscribeMissingAudio(t *testing.T) {
	runner := &fakeRunner{
		run: func(ctx context.Context, name string, args ...string) (command.Result, error) {
			t.Fatalf("unexpected command %s", name)
			return command.Result{}, nil
		},
	}

	model := loadTestModel(t, NewWhisperEngine(WithRunner(runner)), domain.Device{}, "auto")
	_, err := model.Transcribe(context.Background(), filepath.Join(t.TempDir(), "missing.mp3"))

	var pErr *PipelineError
	if !errors.As(err, &pErr) {
		t.Fatalf("error type = %T, want *PipelineError", err)
	}
	if pErr.Stage != StagePreprocessing {
		t.Fatalf("stage = %s, want preprocessing", pErr.Stage)
	}
}

// TestLoadRejectsInvalidWeights checks model file validation.
func TestLoadRejectsInvalidWeights(t *testing.T) {
	root := t.TempDir()
	empty := filepath.Join(root, "empty.bin")
	mustWriteFile(t, empty, "")
	bogus := filepath.Join(root, "bogus.bin")
	mustWriteFile(t, bogus, "<html>not found</html>")

	cases := map[string]string{
		"blank":     "",
		"missing":   filepath.Join(root, "missing.bin"),
		"directory": root,
		"empty":     empty,
		"bad magic": bogus,
	}

	engine := NewWhisperEngine()
	for name, path := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := engine.Load(context.Background(), LoadRequest{ModelPath: path}); err == nil {
				t.Fatalf("expected error for %s", path)
			}
		})
	}
}

// TestLoadAcceptsGGUF checks the alternative header.
func TestLoadAcceptsGGUF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.gguf")
	mustWriteFile(t, path, "GGUF....")

	m, err := NewWhisperEngine().Load(context.Background(), LoadRequest{Size: domain.ModelSizeTiny, ModelPath: path})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if m.Size() != domain.ModelSizeTiny {
		t.Fatalf("size = %s, want tiny", m.Size())
	}
	if m.Device().Kind != domain.DeviceCPU {
		t.Fatalf("default device = %s, want cpu", m.Device().Kind)
	}
}

// TestBuildFFmpegArgs verifies deterministic ffmpeg command arguments.
func TestBuildFFmpegArgs(t *testing.T) {
	args := buildFFmpegArgs("/in.mp3", "/tmp/out.wav")
	want := []string{
		"-hide_banner",
		"-nostdin",
		"-y",
		"-i", "/in.mp3",
		"-vn",
		"-ac", "1",
		"-ar", "16000",
		"-c:a", "pcm_s16le",
		"/tmp/out.wav",
	}

	if len(args) != len(want) {
		t.Fatalf("args len = %d, want %d", len(args), len(want))
	}
	for i := range want {
		if args[i] != want[i] {
			t.Fatalf("args[%d] = %q, want %q", i, args[i], want[i])
		}
	}
}

// TestBuildWhisperArgsFixedLanguage verifies language flag for fixed mode.
func TestBuildWhisperArgsFixedLanguage(t *testing.T) {
	args := buildWhisperArgs("/m.bin", "/audio.wav", "/out/base", "ru", domain.Device{Kind: domain.DeviceMetal})
	if got := argValue(args, "-l"); got != "ru" {
		t.Fatalf("language arg = %q, want ru", got)
	}
	if got := argValue(args, "-m"); got != "/m.bin" {
		t.Fatalf("model arg = %q, want /m.bin", got)
	}
}

// mustWriteFile creates parent directory and writes file content.
func mustWriteFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir parent: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write file %s: %v", path, err)
	}
}

// argValue returns value for key-style CLI args.
func argValue(args []string, key string) string {
	for i := 0; i < len(args)-1; i++ {
		if args[i] == key {
			return args[i+1]
		}
	}
	return ""
}

// hasArg reports whether args include the target flag.
func hasArg(args []string, key string) bool {
	for _, arg := range args {
		if arg == key {
			return true
		}
	}
	return false
}
