package window

import (
	"path/filepath"
	"strings"

	"github.com/samber/lo"
)

// AudioExtensions are the file types offered by the open-file dialog.
var AudioExtensions = []string{".mp3", ".wav", ".m4a", ".wma"}

// FileFilter is one entry of a native open-file dialog filter list.
type FileFilter struct {
	DisplayName string
	Pattern     string
}

// AudioFilters restricts the picker to AudioExtensions.
func AudioFilters() []FileFilter {
	patterns := lo.Map(AudioExtensions, func(ext string, _ int) string { return "*" + ext })
	return []FileFilter{{
		DisplayName: "Audio Files (" + strings.Join(patterns, " ") + ")",
		Pattern:     strings.Join(patterns, ";"),
	}}
}

// IsAudioFile reports whether path has one of the supported extensions.
func IsAudioFile(path string) bool {
	return lo.Contains(AudioExtensions, strings.ToLower(filepath.Ext(path)))
}

// UI is the toolkit surface the window drives. Every method blocks until
// the user has answered.
type UI interface {
	// Confirm asks a yes/no question.
	Confirm(title, message string) (bool, error)
	Info(title, message string) error
	Error(title, message string) error
	// PickFile returns an empty path when the user cancels.
	PickFile(title string, filters []FileFilter) (string, error)
	SetClipboard(text string) error
}
