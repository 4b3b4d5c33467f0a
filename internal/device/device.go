// Package device picks the compute backend whisper.cpp runs on.
package device

import (
	goruntime "runtime"
	"strings"

	"github.com/jaypipes/ghw"

	"whisper-transcriber/internal/domain"
)

// GraphicsCard is the subset of GPU information needed for selection.
type GraphicsCard struct {
	Vendor  string
	Product string
}

// Detector chooses an accelerator when one is available, else the CPU.
type Detector struct {
	goos   string
	goarch string
	cards  func() ([]GraphicsCard, error)
}

// NewDetector builds a detector that enumerates GPUs through ghw.
func NewDetector() *Detector {
	return &Detector{
		goos:   goruntime.GOOS,
		goarch: goruntime.GOARCH,
		cards:  ghwCards,
	}
}

// NewDetectorForTests builds a detector with injectable platform and GPU list.
func NewDetectorForTests(goos, goarch string, cards func() ([]GraphicsCard, error)) *Detector {
	return &Detector{goos: goos, goarch: goarch, cards: cards}
}

// Detect returns the device a freshly loaded model should be bound to.
func (d *Detector) Detect() domain.Device {
	if d.goos == "darwin" && d.goarch == "arm64" {
		return domain.Device{Kind: domain.DeviceMetal, Name: "Apple Silicon GPU"}
	}

	cards, err := d.cards()
	if err == nil {
		for _, card := range cards {
			if strings.Contains(strings.ToUpper(card.Vendor), "NVIDIA") {
				name := strings.TrimSpace(card.Product)
				if name == "" {
					name = "NVIDIA GPU"
				}
				return domain.Device{Kind: domain.DeviceCUDA, Name: name}
			}
		}
	}

	return domain.Device{Kind: domain.DeviceCPU, Name: d.goarch + " CPU"}
}

func ghwCards() ([]GraphicsCard, error) {
	info, err := ghw.GPU()
	if err != nil {
		return nil, err
	}

	cards := make([]GraphicsCard, 0, len(info.GraphicsCards))
	for _, gc := range info.GraphicsCards {
		if gc == nil || gc.DeviceInfo == nil {
			continue
		}
		var card GraphicsCard
		if gc.DeviceInfo.Vendor != nil {
			card.Vendor = gc.DeviceInfo.Vendor.Name
		}
		if gc.DeviceInfo.Product != nil {
			card.Product = gc.DeviceInfo.Product.Name
		}
		cards = append(cards, card)
	}
	return cards, nil
}
