// Package window holds the transcriber window logic: model selection,
// weight downloads, lazy model loading, transcription and clipboard copy.
// Toolkit calls go through UI so the logic runs without a desktop session.
package window

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"whisper-transcriber/internal/command"
	"whisper-transcriber/internal/config"
	"whisper-transcriber/internal/domain"
	"whisper-transcriber/internal/lifecycle"
	"whisper-transcriber/internal/models"
	"whisper-transcriber/internal/transcribe"
)

var (
	// ErrDownloadDeclined is returned when a load needs weights the user
	// chose not to download.
	ErrDownloadDeclined = errors.New("model download declined")
	// ErrUnsupportedAudio is returned for files outside AudioExtensions.
	ErrUnsupportedAudio = errors.New("unsupported audio file type")
)

// ModelCache stores downloaded weights per model size.
type ModelCache interface {
	Path(size domain.ModelSize) (string, error)
	Exists(size domain.ModelSize) bool
	Options() []domain.WhisperModelOption
	Download(ctx context.Context, size domain.ModelSize, onProgress models.ProgressFunc) (string, error)
}

// DeviceDetector picks the compute device for a new model handle.
type DeviceDetector interface {
	Detect() domain.Device
}

// Deps are the collaborators of a Window.
type Deps struct {
	UI       UI
	Engine   transcribe.Engine
	Cache    ModelCache
	Detector DeviceDetector
	Store    config.Store
	Events   *lifecycle.EventBus
	Logger   *zap.Logger
	// OnEvent is called after each published event, outside of any lock
	// held by the event bus.
	OnEvent func(lifecycle.Event)
}

// Snapshot is the state rendered by the frontend.
type Snapshot struct {
	Status     string                      `json:"status"`
	Transcript string                      `json:"transcript"`
	ModelSize  domain.ModelSize            `json:"modelSize"`
	ModelState domain.ModelState           `json:"modelState"`
	LoadedSize domain.ModelSize            `json:"loadedSize,omitempty"`
	ModelError string                      `json:"modelError,omitempty"`
	Device     domain.Device               `json:"device"`
	Sizes      []domain.ModelSize          `json:"sizes"`
	Models     []domain.WhisperModelOption `json:"models"`
}

// Window owns the model handle and the displayed transcript. Actions hold
// mu for their whole duration, so at most one runs at a time, like clicks
// on a single UI thread.
type Window struct {
	mu       sync.Mutex
	ui       UI
	engine   transcribe.Engine
	cache    ModelCache
	detector DeviceDetector
	store    config.Store
	tracker  *lifecycle.Tracker
	events   *lifecycle.EventBus
	logger   *zap.Logger
	onEvent  func(lifecycle.Event)

	settings   domain.Settings
	model      transcribe.Model
	device     domain.Device
	status     string
	transcript string
}

// New creates a window with the given settings and no loaded model.
func New(settings domain.Settings, deps Deps) *Window {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	events := deps.Events
	if events == nil {
		events = lifecycle.NewEventBus(1000)
	}

	return &Window{
		ui:       deps.UI,
		engine:   deps.Engine,
		cache:    deps.Cache,
		detector: deps.Detector,
		store:    deps.Store,
		tracker:  lifecycle.NewTracker(),
		events:   events,
		logger:   logger,
		onEvent:  deps.OnEvent,
		settings: config.Normalize(settings),
		device:   deps.Detector.Detect(),
		status:   "Ready",
	}
}

// Snapshot returns the current display state.
func (w *Window) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.snapshotLocked()
}

// Status returns the status label text.
func (w *Window) Status() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.status
}

// Transcript returns the displayed transcript text.
func (w *Window) Transcript() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.transcript
}

// SelectedModelSize returns the current model size selection.
func (w *Window) SelectedModelSize() domain.ModelSize {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.settings.ModelSize
}

// ModelState returns the lifecycle state of the model handle.
func (w *Window) ModelState() domain.ModelState {
	return w.tracker.State()
}

// Device returns the compute device a new model handle would use.
func (w *Window) Device() domain.Device {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.device
}

// Models returns the catalog with cache state.
func (w *Window) Models() []domain.WhisperModelOption {
	return w.cache.Options()
}

// Events returns published events with sequence greater than since.
func (w *Window) Events(since int64) []lifecycle.Event {
	return w.events.Since(since)
}

// SelectModelSize changes the selection. A different size drops the
// loaded model handle.
func (w *Window) SelectModelSize(raw string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	size, err := domain.ParseModelSize(raw)
	if err != nil {
		w.setStatus(err.Error())
		return err
	}
	if size == w.settings.ModelSize {
		return nil
	}

	w.settings.ModelSize = size
	if w.store != nil {
		if err := w.store.Save(w.settings); err != nil {
			w.logger.Warn("persist model selection", zap.Error(err))
		}
	}

	if w.model != nil {
		w.logger.Info("model handle invalidated",
			zap.String("old", string(w.model.Size())),
			zap.String("new", string(size)))
	}
	w.model = nil
	w.tracker.Invalidate()
	w.setStatus(fmt.Sprintf("Selected %s model", size))
	return nil
}

// DownloadModel fetches weights for the selected size. Cached weights are
// only replaced after the user confirms.
func (w *Window) DownloadModel(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	size := w.settings.ModelSize
	if w.cache.Exists(size) {
		path, _ := w.cache.Path(size)
		ok, err := w.ui.Confirm(
			"Model already downloaded",
			fmt.Sprintf("The %s model is already cached at %s.\nDo you want to download it again?", size, path),
		)
		if err != nil {
			w.setStatus(fmt.Sprintf("Error: %v", err))
			return err
		}
		if !ok {
			w.setStatus(fmt.Sprintf("Kept cached %s model", size))
			return nil
		}
	}

	return w.downloadLocked(ctx, size)
}

// LoadModel builds a model handle for the selected size, offering to
// download missing weights first.
func (w *Window) LoadModel(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.loadLocked(ctx)
}

// Transcribe asks for an audio file and replaces the transcript with the
// model output. The model is loaded first when needed; a failed load
// skips the file prompt.
func (w *Window) Transcribe(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.model == nil {
		if err := w.loadLocked(ctx); err != nil {
			return err
		}
	}

	path, err := w.ui.PickFile("Select Audio File", AudioFilters())
	if err != nil {
		w.setStatus(fmt.Sprintf("Error: %v", err))
		return err
	}
	if path == "" {
		w.setStatus("Ready")
		return nil
	}
	if !IsAudioFile(path) {
		err := fmt.Errorf("%w: %s", ErrUnsupportedAudio, path)
		w.showFailure("Error during transcription", err)
		return err
	}

	runID := uuid.NewString()
	w.setStatus("Transcribing audio...")
	w.logger.Info("transcription started",
		zap.String("run", runID),
		zap.String("file", path),
		zap.String("size", string(w.model.Size())))

	text, err := w.model.Transcribe(ctx, path)
	if err != nil {
		w.logger.Error("transcription failed", zap.String("run", runID), zap.Error(err))
		w.showFailure("Error during transcription", err)
		return err
	}

	w.transcript = text
	w.setStatus("Transcription complete")
	w.publish(lifecycle.Event{
		RunID:     runID,
		Type:      lifecycle.EventTypeResult,
		ModelSize: w.model.Size(),
		Message:   "Transcription complete",
	})
	return nil
}

// CopyTranscript places the displayed transcript on the clipboard.
func (w *Window) CopyTranscript() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.ui.SetClipboard(w.transcript); err != nil {
		w.setStatus(fmt.Sprintf("Error copying transcription: %v", err))
		return err
	}
	w.setStatus("Transcription copied to clipboard")
	return nil
}

// RecordCommand publishes an external command run as a log event. It does
// not take the window lock, so the engine may call it mid-transcription.
func (w *Window) RecordCommand(l command.Log) {
	msg := l.Command
	if l.ExitCode != 0 {
		msg = fmt.Sprintf("%s exited with code %d", l.Command, l.ExitCode)
	}
	w.publish(lifecycle.Event{
		Type:     lifecycle.EventTypeLog,
		Message:  msg,
		Command:  l.Command,
		ExitCode: l.ExitCode,
	})
}

// SetTranscript replaces the displayed text, mirroring edits made in the
// transcript area.
func (w *Window) SetTranscript(text string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.transcript = text
}

func (w *Window) loadLocked(ctx context.Context) error {
	size := w.settings.ModelSize
	if w.model != nil && w.model.Size() == size {
		return nil
	}

	if !w.cache.Exists(size) {
		ok, err := w.ui.Confirm(
			"Model not downloaded",
			fmt.Sprintf("The %s model has not been downloaded yet.\nDo you want to download it now?", size),
		)
		if err != nil {
			w.setStatus(fmt.Sprintf("Error: %v", err))
			return err
		}
		if !ok {
			w.setStatus(fmt.Sprintf("Model not loaded: %s weights are not downloaded", size))
			return ErrDownloadDeclined
		}
		if err := w.downloadLocked(ctx, size); err != nil {
			return err
		}
	}

	if err := w.tracker.Transition(domain.ModelStateLoading, size); err != nil {
		return err
	}

	device := w.detector.Detect()
	w.device = device
	w.setStatus(fmt.Sprintf("Loading %s model...", size))

	path, err := w.cache.Path(size)
	if err == nil {
		var model transcribe.Model
		model, err = w.engine.Load(ctx, transcribe.LoadRequest{
			Size:      size,
			ModelPath: path,
			Device:    device,
			Language:  w.settings.Language,
		})
		if err == nil {
			w.model = model
			if err := w.tracker.Transition(domain.ModelStateLoaded, size); err != nil {
				w.logger.Warn("model state", zap.String("size", string(size)), zap.Error(err))
			}
			w.logger.Info("model loaded",
				zap.String("size", string(size)),
				zap.String("device", string(device.Kind)))
			w.setStatus(fmt.Sprintf("Successfully loaded %s model on %s", size, device.Kind))
			return nil
		}
	}

	w.model = nil
	if failErr := w.tracker.Fail(size, err.Error()); failErr != nil {
		w.logger.Warn("model state", zap.String("size", string(size)), zap.Error(failErr))
	}
	w.logger.Error("model load failed", zap.String("size", string(size)), zap.Error(err))
	w.showFailure("Error loading model", err)
	return err
}

func (w *Window) downloadLocked(ctx context.Context, size domain.ModelSize) error {
	w.setStatus(fmt.Sprintf("Downloading %s model...", size))
	progress := newProgressReporter(func(written, total int64) {
		w.publish(lifecycle.Event{
			Type:      lifecycle.EventTypeProgress,
			ModelSize: size,
			Message:   "Downloading",
			Written:   written,
			Total:     total,
		})
	})

	path, err := w.cache.Download(ctx, size, progress.report)
	if err != nil {
		msg := fmt.Sprintf("Error downloading %s model: %v", size, err)
		w.logger.Error("model download failed", zap.String("size", string(size)), zap.Error(err))
		w.setStatus(msg)
		w.publish(lifecycle.Event{Type: lifecycle.EventTypeError, ModelSize: size, Message: msg})
		_ = w.ui.Error("Download failed", msg)
		return err
	}

	if w.model != nil && w.model.Size() == size {
		w.model = nil
		w.tracker.Invalidate()
	}

	w.logger.Info("model downloaded", zap.String("size", string(size)), zap.String("path", path))
	w.setStatus(fmt.Sprintf("Downloaded %s model", size))
	_ = w.ui.Info("Download complete", fmt.Sprintf("The %s model was saved to %s.", size, path))
	return nil
}

// showFailure puts err in the status label and the transcript area.
func (w *Window) showFailure(prefix string, err error) {
	msg := fmt.Sprintf("%s: %v", prefix, err)
	w.transcript = msg
	w.setStatus(msg)
	w.publish(lifecycle.Event{Type: lifecycle.EventTypeError, Message: msg})
}

func (w *Window) setStatus(status string) {
	w.status = status
	w.publish(lifecycle.Event{
		Type:       lifecycle.EventTypeStatus,
		ModelState: w.tracker.State(),
		ModelSize:  w.settings.ModelSize,
		Message:    status,
	})
}

func (w *Window) publish(event lifecycle.Event) {
	published := w.events.Publish(event)
	if w.onEvent != nil {
		w.onEvent(published)
	}
}

func (w *Window) snapshotLocked() Snapshot {
	return Snapshot{
		Status:     w.status,
		Transcript: w.transcript,
		ModelSize:  w.settings.ModelSize,
		ModelState: w.tracker.State(),
		LoadedSize: w.tracker.Size(),
		ModelError: w.tracker.LastError(),
		Device:     w.device,
		Sizes:      domain.ModelSizes(),
		Models:     w.cache.Options(),
	}
}

// progressReporter forwards download progress at most once per percent,
// or once per 4 MiB when the size is unknown.
type progressReporter struct {
	fn   func(written, total int64)
	last int64
}

const unknownSizeStep = 4 << 20

func newProgressReporter(fn func(written, total int64)) *progressReporter {
	return &progressReporter{fn: fn, last: -1}
}

func (p *progressReporter) report(written, total int64) {
	var mark int64
	if total > 0 {
		mark = written * 100 / total
	} else {
		mark = written / unknownSizeStep
	}
	if mark == p.last {
		return
	}
	p.last = mark
	p.fn(written, total)
}
