package models

import (
	"strings"

	"github.com/samber/lo"

	"whisper-transcriber/internal/domain"
)

// DefaultBaseURL hosts the whisper.cpp GGML weights.
const DefaultBaseURL = "https://huggingface.co/ggerganov/whisper.cpp/resolve/main"

type preset struct {
	size        domain.ModelSize
	name        string
	fileName    string
	sizeLabel   string
	description string
}

var presets = []preset{
	{
		size:        domain.ModelSizeTiny,
		name:        "Tiny",
		fileName:    "ggml-tiny.bin",
		sizeLabel:   "~75 MB",
		description: "Fastest multilingual model.",
	},
	{
		size:        domain.ModelSizeBase,
		name:        "Base",
		fileName:    "ggml-base.bin",
		sizeLabel:   "~142 MB",
		description: "Balanced speed/quality, multilingual.",
	},
	{
		size:        domain.ModelSizeSmall,
		name:        "Small",
		fileName:    "ggml-small.bin",
		sizeLabel:   "~466 MB",
		description: "Higher quality multilingual model.",
	},
	{
		size:        domain.ModelSizeMedium,
		name:        "Medium",
		fileName:    "ggml-medium.bin",
		sizeLabel:   "~1.5 GB",
		description: "High quality multilingual model.",
	},
	{
		size:        domain.ModelSizeLarge,
		name:        "Large v3",
		fileName:    "ggml-large-v3.bin",
		sizeLabel:   "~2.9 GB",
		description: "Best quality, slowest on CPU.",
	},
}

// Catalog resolves model sizes to downloadable files.
type Catalog struct {
	baseURL string
}

// NewCatalog builds a catalog rooted at baseURL, or DefaultBaseURL when empty.
func NewCatalog(baseURL string) Catalog {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return Catalog{baseURL: baseURL}
}

// Lookup returns the catalog entry for size.
func (c Catalog) Lookup(size domain.ModelSize) (domain.WhisperModelOption, bool) {
	p, found := lo.Find(presets, func(p preset) bool { return p.size == size })
	if !found {
		return domain.WhisperModelOption{}, false
	}
	return c.option(p), true
}

// Options returns every preset in UI order.
func (c Catalog) Options() []domain.WhisperModelOption {
	return lo.Map(presets, func(p preset, _ int) domain.WhisperModelOption {
		return c.option(p)
	})
}

func (c Catalog) option(p preset) domain.WhisperModelOption {
	return domain.WhisperModelOption{
		Size:        p.size,
		Name:        p.name,
		FileName:    p.fileName,
		URL:         c.baseURL + "/" + p.fileName,
		SizeLabel:   p.sizeLabel,
		Description: p.description,
	}
}
