package transcribe

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"whisper-transcriber/internal/command"
	"whisper-transcriber/internal/domain"
)

var weightMagics = [][]byte{
	[]byte("lmgg"), // ggml, little-endian 0x67676d6c
	[]byte("GGUF"),
}

// LoadRequest selects weights and the device a model is bound to.
type LoadRequest struct {
	Size      domain.ModelSize
	ModelPath string
	Device    domain.Device
	Language  string
}

// Model is a loaded speech recognition model.
type Model interface {
	Size() domain.ModelSize
	Device() domain.Device
	Transcribe(ctx context.Context, audioPath string) (string, error)
}

// Engine loads models for transcription.
type Engine interface {
	Load(ctx context.Context, req LoadRequest) (Model, error)
}

// WhisperEngine loads whisper.cpp GGML weights and runs inference through
// the ffmpeg and whisper.cpp executables.
type WhisperEngine struct {
	ffmpegPath  string
	whisperPath string
	runner      command.Runner
	onLog       func(command.Log)
	mkdirTemp   func(dir, pattern string) (string, error)
	removeAll   func(path string) error
	stat        func(name string) (os.FileInfo, error)
	open        func(name string) (*os.File, error)
	readFile    func(name string) ([]byte, error)
}

// EngineOption customizes a WhisperEngine.
type EngineOption func(*WhisperEngine)

// WithBinaries overrides the ffmpeg and whisper.cpp executable names.
func WithBinaries(ffmpegPath, whisperPath string) EngineOption {
	return func(e *WhisperEngine) {
		if strings.TrimSpace(ffmpegPath) != "" {
			e.ffmpegPath = ffmpegPath
		}
		if strings.TrimSpace(whisperPath) != "" {
			e.whisperPath = whisperPath
		}
	}
}

// WithRunner replaces process execution.
func WithRunner(runner command.Runner) EngineOption {
	return func(e *WhisperEngine) {
		e.runner = runner
	}
}

// WithCommandLog receives every external command invocation.
func WithCommandLog(fn func(command.Log)) EngineOption {
	return func(e *WhisperEngine) {
		e.onLog = fn
	}
}

// NewWhisperEngine constructs the production engine with OS dependencies.
func NewWhisperEngine(opts ...EngineOption) *WhisperEngine {
	e := &WhisperEngine{
		ffmpegPath:  "ffmpeg",
		whisperPath: "whisper.cpp",
		runner:      command.ExecRunner{},
		mkdirTemp:   os.MkdirTemp,
		removeAll:   os.RemoveAll,
		stat:        os.Stat,
		open:        os.Open,
		readFile:    os.ReadFile,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Binaries returns the configured ffmpeg and whisper.cpp executables.
func (e *WhisperEngine) Binaries() (ffmpegPath, whisperPath string) {
	return e.ffmpegPath, e.whisperPath
}

// Load validates the weights file and binds it to req.Device.
func (e *WhisperEngine) Load(ctx context.Context, req LoadRequest) (Model, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := strings.TrimSpace(req.ModelPath)
	if path == "" {
		return nil, fmt.Errorf("model path is required")
	}

	info, err := e.stat(path)
	if err != nil {
		return nil, fmt.Errorf("cannot access model weights: %w", err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("model weights are not a regular file: %s", path)
	}
	if info.Size() == 0 {
		return nil, fmt.Errorf("model weights file is empty: %s", path)
	}
	if err := e.checkMagic(path); err != nil {
		return nil, err
	}

	device := req.Device
	if device.Kind == "" {
		device = domain.Device{Kind: domain.DeviceCPU, Name: "CPU"}
	}

	return &whisperModel{
		engine:   e,
		size:     req.Size,
		path:     path,
		device:   device,
		language: req.Language,
	}, nil
}

func (e *WhisperEngine) checkMagic(path string) error {
	f, err := e.open(path)
	if err != nil {
		return fmt.Errorf("open model weights: %w", err)
	}
	defer f.Close()

	head := make([]byte, 4)
	if _, err := io.ReadFull(f, head); err != nil {
		return fmt.Errorf("read model header: %w", err)
	}
	for _, magic := range weightMagics {
		if bytes.Equal(head, magic) {
			return nil
		}
	}
	return fmt.Errorf("not a whisper.cpp model file: %s", path)
}

// whisperModel is the handle returned by WhisperEngine.Load.
type whisperModel struct {
	engine   *WhisperEngine
	size     domain.ModelSize
	path     string
	device   domain.Device
	language string
}

func (m *whisperModel) Size() domain.ModelSize { return m.size }

func (m *whisperModel) Device() domain.Device { return m.device }

// Transcribe converts audioPath to text.
func (m *whisperModel) Transcribe(ctx context.Context, audioPath string) (string, error) {
	return m.engine.run(ctx, m, audioPath)
}
