package bootstrap

import (
	"context"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"sync"

	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"
	"go.uber.org/zap"

	"whisper-transcriber/internal/command"
	"whisper-transcriber/internal/config"
	"whisper-transcriber/internal/device"
	"whisper-transcriber/internal/diagnostics"
	"whisper-transcriber/internal/domain"
	"whisper-transcriber/internal/lifecycle"
	"whisper-transcriber/internal/models"
	"whisper-transcriber/internal/transcribe"
	"whisper-transcriber/internal/window"

	wailsruntime "github.com/wailsapp/wails/v2/pkg/runtime"
)

const windowEventName = "window:event"

// App binds the transcriber window to the Wails frontend. Bound actions
// never return errors: failures are already shown in the window, and the
// frontend only re-renders the returned snapshot.
type App struct {
	Window *window.Window
	Store  config.Store
	Checks domain.CheckReport

	assets     fs.FS
	checker    *diagnostics.Checker
	installer  *toolInstaller
	ffmpegBin  string
	whisperBin string
	logger     *zap.Logger

	mu         sync.Mutex
	runtimeCtx context.Context
}

// New builds the application for development, serving ./frontend from disk.
func New(logger *zap.Logger) (*App, error) {
	return NewWithAssets(nil, logger)
}

// NewWithAssets builds the application and optionally configures embedded frontend assets.
func NewWithAssets(assets fs.FS, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve user home: %w", err)
	}

	if envFile, err := config.LoadEnv(); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	} else if envFile != "" {
		logger.Info("loaded environment file", zap.String("path", envFile))
	}

	store := config.NewJSONStore(config.DefaultSettingsPath(homeDir))
	settings, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	settings = config.Normalize(config.ApplyEnv(settings))

	app := &App{
		Store:     store,
		assets:    assets,
		installer: newToolInstaller(logger.Named("install")),
		logger:    logger,
	}

	cache := models.NewCache(settings.CacheDir, models.NewCatalog(os.Getenv(config.EnvModelBaseURL)), nil)
	engine := transcribe.NewWhisperEngine(
		transcribe.WithBinaries(os.Getenv(config.EnvFFmpegBin), os.Getenv(config.EnvWhisperBin)),
		transcribe.WithCommandLog(func(l command.Log) {
			logger.Debug("external command",
				zap.String("command", l.Command),
				zap.Strings("args", l.Args),
				zap.Int("exit", l.ExitCode),
				zap.String("stderr", l.Stderr))
			app.Window.RecordCommand(l)
		}),
	)
	app.ffmpegBin, app.whisperBin = engine.Binaries()
	app.checker = diagnostics.NewChecker(cache, app.ffmpegBin, app.whisperBin)
	app.Window = window.New(settings, window.Deps{
		UI:       &wailsUI{ctx: app.runtimeContext},
		Engine:   engine,
		Cache:    cache,
		Detector: device.NewDetector(),
		Store:    store,
		Events:   lifecycle.NewEventBus(1000),
		Logger:   logger.Named("window"),
		OnEvent:  app.emit,
	})
	app.Checks = app.checker.Run(settings)

	logger.Info("application ready",
		zap.String("settings", store.Path()),
		zap.String("cache", settings.CacheDir),
		zap.String("model", string(settings.ModelSize)),
		zap.String("device", string(app.Window.Device().Kind)),
		zap.Bool("checks_failed", app.Checks.HasFailures))
	return app, nil
}

// Run starts the Wails desktop application and binds backend methods.
func (a *App) Run() error {
	assetOptions := &assetserver.Options{}
	if a.assets != nil {
		assetOptions.Assets = a.assets
	} else {
		assetOptions.Handler = http.FileServer(http.Dir("./frontend"))
	}

	return wails.Run(&options.App{
		Title:       "Whisper Transcriber",
		Width:       800,
		Height:      600,
		AssetServer: assetOptions,
		OnStartup:   a.Startup,
		OnShutdown: func(ctx context.Context) {
			a.mu.Lock()
			defer a.mu.Unlock()
			a.runtimeCtx = nil
		},
		Bind: []interface{}{a},
	})
}

// Startup stores Wails runtime context for dialogs and push events.
func (a *App) Startup(ctx context.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.runtimeCtx = ctx
}

// GetState returns the current window state.
func (a *App) GetState() window.Snapshot {
	return a.Window.Snapshot()
}

// GetDiagnostics returns the latest cached diagnostics report.
func (a *App) GetDiagnostics() domain.CheckReport {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.Checks
}

// RefreshDiagnostics reloads settings and reruns the startup checks.
func (a *App) RefreshDiagnostics() (domain.CheckReport, error) {
	settings, err := a.Store.Load()
	if err != nil {
		return domain.CheckReport{}, fmt.Errorf("load settings: %w", err)
	}
	return a.refreshChecks(config.Normalize(config.ApplyEnv(settings))), nil
}

// SelectModelSize changes the model size selection.
func (a *App) SelectModelSize(size string) window.Snapshot {
	a.swallow("select model size", a.Window.SelectModelSize(size))
	a.refreshWindowChecks()
	return a.Window.Snapshot()
}

// DownloadModel downloads weights for the selected model size.
func (a *App) DownloadModel() window.Snapshot {
	a.swallow("download model", a.Window.DownloadModel(a.actionContext()))
	a.refreshWindowChecks()
	return a.Window.Snapshot()
}

// LoadModel loads the selected model on the detected device.
func (a *App) LoadModel() window.Snapshot {
	a.swallow("load model", a.Window.LoadModel(a.actionContext()))
	a.refreshWindowChecks()
	return a.Window.Snapshot()
}

// Transcribe asks for an audio file and transcribes it.
func (a *App) Transcribe() window.Snapshot {
	a.swallow("transcribe", a.Window.Transcribe(a.actionContext()))
	return a.Window.Snapshot()
}

// CopyTranscript copies the displayed transcript to the clipboard.
func (a *App) CopyTranscript() window.Snapshot {
	a.swallow("copy transcript", a.Window.CopyTranscript())
	return a.Window.Snapshot()
}

// SetTranscript mirrors edits made in the transcript text area.
func (a *App) SetTranscript(text string) {
	a.Window.SetTranscript(text)
}

// Events returns window events with sequence greater than sinceSeq.
func (a *App) Events(sinceSeq int64) []lifecycle.Event {
	return a.Window.Events(sinceSeq)
}

// swallow logs an action failure that the window has already displayed.
func (a *App) swallow(action string, err error) {
	if err != nil {
		a.logger.Debug("action failed", zap.String("action", action), zap.Error(err))
	}
}

func (a *App) refreshWindowChecks() {
	settings, err := a.Store.Load()
	if err != nil {
		a.logger.Warn("reload settings", zap.Error(err))
		return
	}
	a.refreshChecks(config.Normalize(config.ApplyEnv(settings)))
}

func (a *App) refreshChecks(settings domain.Settings) domain.CheckReport {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.checker != nil {
		a.Checks = a.checker.Run(settings)
	}
	return a.Checks
}

// emit pushes a window event to the frontend once the runtime is up.
func (a *App) emit(event lifecycle.Event) {
	a.mu.Lock()
	ctx := a.runtimeCtx
	a.mu.Unlock()
	if ctx != nil {
		wailsruntime.EventsEmit(ctx, windowEventName, event)
	}
}

// actionContext is the runtime context, or Background before startup.
func (a *App) actionContext() context.Context {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.runtimeCtx == nil {
		return context.Background()
	}
	return a.runtimeCtx
}

// runtimeContext returns current Wails runtime context for dialog APIs.
func (a *App) runtimeContext() (context.Context, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.runtimeCtx == nil {
		return nil, fmt.Errorf("runtime context is not initialized")
	}
	return a.runtimeCtx, nil
}
