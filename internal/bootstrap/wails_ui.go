package bootstrap

import (
	"context"
	"strings"

	wailsruntime "github.com/wailsapp/wails/v2/pkg/runtime"

	"whisper-transcriber/internal/window"
)

const (
	buttonYes = "Yes"
	buttonNo  = "No"
)

// wailsUI implements window.UI with native Wails dialogs and clipboard.
type wailsUI struct {
	ctx func() (context.Context, error)
}

// Confirm shows a blocking yes/no question dialog.
func (u *wailsUI) Confirm(title, message string) (bool, error) {
	ctx, err := u.ctx()
	if err != nil {
		return false, err
	}

	answer, err := wailsruntime.MessageDialog(ctx, wailsruntime.MessageDialogOptions{
		Type:          wailsruntime.QuestionDialog,
		Title:         title,
		Message:       message,
		Buttons:       []string{buttonYes, buttonNo},
		DefaultButton: buttonNo,
		CancelButton:  buttonNo,
	})
	if err != nil {
		return false, err
	}
	return strings.EqualFold(strings.TrimSpace(answer), buttonYes), nil
}

// Info shows a blocking information dialog.
func (u *wailsUI) Info(title, message string) error {
	return u.message(wailsruntime.InfoDialog, title, message)
}

// Error shows a blocking error dialog.
func (u *wailsUI) Error(title, message string) error {
	return u.message(wailsruntime.ErrorDialog, title, message)
}

func (u *wailsUI) message(kind wailsruntime.DialogType, title, message string) error {
	ctx, err := u.ctx()
	if err != nil {
		return err
	}

	_, err = wailsruntime.MessageDialog(ctx, wailsruntime.MessageDialogOptions{
		Type:    kind,
		Title:   title,
		Message: message,
	})
	return err
}

// PickFile opens a native file dialog restricted to filters.
func (u *wailsUI) PickFile(title string, filters []window.FileFilter) (string, error) {
	ctx, err := u.ctx()
	if err != nil {
		return "", err
	}

	dialogFilters := make([]wailsruntime.FileFilter, 0, len(filters))
	for _, f := range filters {
		dialogFilters = append(dialogFilters, wailsruntime.FileFilter{
			DisplayName: f.DisplayName,
			Pattern:     f.Pattern,
		})
	}

	path, err := wailsruntime.OpenFileDialog(ctx, wailsruntime.OpenDialogOptions{
		Title:   title,
		Filters: dialogFilters,
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(path), nil
}

// SetClipboard replaces the system clipboard text.
func (u *wailsUI) SetClipboard(text string) error {
	ctx, err := u.ctx()
	if err != nil {
		return err
	}
	return wailsruntime.ClipboardSetText(ctx, text)
}
