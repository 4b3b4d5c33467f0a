package domain

import (
	"fmt"
	"strings"
)

// ModelSize identifies one whisper model preset.
type ModelSize string

const (
	ModelSizeTiny   ModelSize = "tiny"
	ModelSizeBase   ModelSize = "base"
	ModelSizeSmall  ModelSize = "small"
	ModelSizeMedium ModelSize = "medium"
	ModelSizeLarge  ModelSize = "large"
)

// DefaultModelSize is selected on first launch.
const DefaultModelSize = ModelSizeSmall

// ModelSizes lists every selectable size in UI order.
func ModelSizes() []ModelSize {
	return []ModelSize{
		ModelSizeTiny,
		ModelSizeBase,
		ModelSizeSmall,
		ModelSizeMedium,
		ModelSizeLarge,
	}
}

// ParseModelSize validates a raw selection against the fixed set.
func ParseModelSize(raw string) (ModelSize, error) {
	size := ModelSize(strings.ToLower(strings.TrimSpace(raw)))
	for _, known := range ModelSizes() {
		if size == known {
			return size, nil
		}
	}
	return "", fmt.Errorf("unknown model size: %q", raw)
}

// ModelState tracks the lifecycle of the window's model handle.
type ModelState string

const (
	ModelStateUnloaded ModelState = "unloaded"
	ModelStateLoading  ModelState = "loading"
	ModelStateLoaded   ModelState = "loaded"
	ModelStateError    ModelState = "error"
)

// DeviceKind is the compute backend a model is bound to.
type DeviceKind string

const (
	DeviceCUDA  DeviceKind = "cuda"
	DeviceMetal DeviceKind = "metal"
	DeviceCPU   DeviceKind = "cpu"
)

// Device describes the compute device chosen for inference.
type Device struct {
	Kind DeviceKind `json:"kind"`
	Name string     `json:"name"`
}

// Accelerated reports whether the device is anything other than the CPU.
func (d Device) Accelerated() bool {
	return d.Kind != "" && d.Kind != DeviceCPU
}

// Settings contains user-selectable runtime configuration.
type Settings struct {
	ModelSize ModelSize `json:"modelSize"`
	CacheDir  string    `json:"cacheDir"`
	Language  string    `json:"language"`
}

// WhisperModelOption describes one downloadable model preset.
type WhisperModelOption struct {
	Size        ModelSize `json:"size"`
	Name        string    `json:"name"`
	FileName    string    `json:"fileName"`
	URL         string    `json:"url"`
	SizeLabel   string    `json:"sizeLabel,omitempty"`
	Description string    `json:"description,omitempty"`
	Downloaded  bool      `json:"downloaded"`
	LocalPath   string    `json:"localPath,omitempty"`
}
