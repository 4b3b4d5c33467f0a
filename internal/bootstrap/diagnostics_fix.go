package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	goruntime "runtime"
	"strings"
	"time"

	"go.uber.org/zap"

	"whisper-transcriber/internal/command"
	"whisper-transcriber/internal/config"
	"whisper-transcriber/internal/domain"
)

const installCommandTimeout = 45 * time.Minute

// whisperAliases are executable names distro packages ship whisper.cpp under.
var whisperAliases = []string{"whisper-cli", "whisper-cpp", "whisper"}

type installOption struct {
	manager  string
	commands [][]string
}

// toolInstaller installs missing tools with the first package manager found.
type toolInstaller struct {
	goos     string
	runner   command.Runner
	lookPath func(string) (string, error)
	logger   *zap.Logger
}

func newToolInstaller(logger *zap.Logger) *toolInstaller {
	return &toolInstaller{
		goos:     goruntime.GOOS,
		runner:   command.ExecRunner{},
		lookPath: exec.LookPath,
		logger:   logger,
	}
}

// InstallOrFixDiagnostic applies a remediation for one failed check item
// and returns the refreshed report.
func (a *App) InstallOrFixDiagnostic(itemID string) (domain.CheckReport, error) {
	if a.Store == nil {
		return domain.CheckReport{}, fmt.Errorf("settings store is not configured")
	}

	id := strings.TrimSpace(itemID)
	if id == "" {
		return domain.CheckReport{}, fmt.Errorf("diagnostic item id is required")
	}

	settings, err := a.Store.Load()
	if err != nil {
		return domain.CheckReport{}, fmt.Errorf("load settings: %w", err)
	}
	settings = config.Normalize(config.ApplyEnv(settings))

	ctx, cancel := context.WithTimeout(a.actionContext(), installCommandTimeout)
	defer cancel()

	var fixErr error
	switch id {
	case "cache_dir":
		if err := os.MkdirAll(settings.CacheDir, 0o755); err != nil {
			fixErr = fmt.Errorf("create cache directory %s: %w", settings.CacheDir, err)
		}
	case "model_weights":
		fixErr = a.Window.DownloadModel(ctx)
	case "tool_" + a.ffmpegBin:
		fixErr = a.installer.install(ctx, a.ffmpegBin, ffmpegOptions(a.installer.goos))
	case "tool_" + a.whisperBin:
		fixErr = a.installer.install(ctx, a.whisperBin, whisperOptions(a.installer.goos))
		if fixErr != nil {
			fixErr = a.installer.explainAlias(a.whisperBin, fixErr)
		}
	default:
		return a.refreshChecks(settings), fmt.Errorf("unsupported diagnostic item id: %s", id)
	}

	report := a.refreshChecks(settings)
	if fixErr != nil {
		a.logger.Warn("diagnostic fix failed", zap.String("item", id), zap.Error(fixErr))
		return report, fixErr
	}
	a.logger.Info("diagnostic fixed", zap.String("item", id))
	return report, nil
}

// install runs the first available package manager's commands and then
// checks tool is on PATH.
func (i *toolInstaller) install(ctx context.Context, tool string, options []installOption) error {
	if _, err := i.lookPath(tool); err == nil {
		return nil
	}
	if len(options) == 0 {
		return fmt.Errorf("no install commands configured for OS %s", i.goos)
	}

	failures := make([]string, 0, len(options))
	tried := false
	for _, option := range options {
		if _, err := i.lookPath(option.manager); err != nil {
			continue
		}
		tried = true
		if err := i.runAll(ctx, option.commands); err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", option.manager, err))
			continue
		}
		if _, err := i.lookPath(tool); err != nil {
			return fmt.Errorf("installed with %s but %s is still not on PATH", option.manager, tool)
		}
		return nil
	}

	if !tried {
		return fmt.Errorf("no supported package manager found for %s", i.goos)
	}
	return fmt.Errorf("install %s: %s", tool, strings.Join(failures, " | "))
}

func (i *toolInstaller) runAll(ctx context.Context, commands [][]string) error {
	for _, cmd := range commands {
		if err := i.runElevated(ctx, cmd); err != nil {
			return err
		}
	}
	return nil
}

// runElevated retries system package managers through pkexec or sudo on linux.
func (i *toolInstaller) runElevated(ctx context.Context, cmd []string) error {
	candidates := [][]string{cmd}
	if i.goos == "linux" && requiresElevation(cmd[0]) {
		for _, wrapper := range [][]string{{"pkexec"}, {"sudo", "-n"}} {
			if _, err := i.lookPath(wrapper[0]); err == nil {
				candidates = append(candidates, append(append([]string{}, wrapper...), cmd...))
			}
		}
	}

	attempts := make([]string, 0, len(candidates))
	for _, candidate := range candidates {
		result, err := i.runner.Run(ctx, candidate[0], candidate[1:]...)
		if i.logger != nil {
			i.logger.Debug("install command",
				zap.Strings("command", candidate),
				zap.Int("exit", result.ExitCode))
		}
		if err == nil {
			return nil
		}
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%s timed out after %s", strings.Join(candidate, " "), installCommandTimeout)
		}
		attempts = append(attempts, formatFailure(candidate, err, result.Stderr))
	}
	return errors.New(strings.Join(attempts, " | "))
}

// explainAlias points at a whisper.cpp build installed under another name.
func (i *toolInstaller) explainAlias(tool string, cause error) error {
	for _, alias := range whisperAliases {
		if path, err := i.lookPath(alias); err == nil {
			return fmt.Errorf("%w; found %s, set %s=%s to use it instead of %s", cause, path, config.EnvWhisperBin, path, tool)
		}
	}
	return cause
}

func formatFailure(cmd []string, err error, stderr string) string {
	trimmed := strings.TrimSpace(stderr)
	if len(trimmed) > 500 {
		trimmed = trimmed[:500] + "..."
	}
	if trimmed == "" {
		return fmt.Sprintf("%s failed: %v", strings.Join(cmd, " "), err)
	}
	return fmt.Sprintf("%s failed: %v (%s)", strings.Join(cmd, " "), err, trimmed)
}

func requiresElevation(manager string) bool {
	switch manager {
	case "apt-get", "dnf", "pacman", "zypper":
		return true
	default:
		return false
	}
}

func ffmpegOptions(goos string) []installOption {
	switch goos {
	case "windows":
		return []installOption{
			{manager: "winget", commands: [][]string{{"winget", "install", "--id", "Gyan.FFmpeg", "--exact", "--accept-source-agreements", "--accept-package-agreements"}}},
			{manager: "choco", commands: [][]string{{"choco", "install", "ffmpeg", "-y"}}},
			{manager: "scoop", commands: [][]string{{"scoop", "install", "ffmpeg"}}},
		}
	case "darwin":
		return []installOption{
			{manager: "brew", commands: [][]string{{"brew", "install", "ffmpeg"}}},
		}
	default:
		return []installOption{
			{manager: "apt-get", commands: [][]string{{"apt-get", "update"}, {"apt-get", "install", "-y", "ffmpeg"}}},
			{manager: "dnf", commands: [][]string{{"dnf", "install", "-y", "ffmpeg"}}},
			{manager: "pacman", commands: [][]string{{"pacman", "-Sy", "--noconfirm", "ffmpeg"}}},
			{manager: "zypper", commands: [][]string{{"zypper", "install", "-y", "ffmpeg"}}},
			{manager: "brew", commands: [][]string{{"brew", "install", "ffmpeg"}}},
		}
	}
}

func whisperOptions(goos string) []installOption {
	switch goos {
	case "windows":
		return []installOption{
			{manager: "winget", commands: [][]string{{"winget", "install", "--id", "ggerganov.whisper.cpp", "--exact", "--accept-source-agreements", "--accept-package-agreements"}}},
			{manager: "scoop", commands: [][]string{{"scoop", "install", "whisper-cpp"}}},
		}
	case "darwin":
		return []installOption{
			{manager: "brew", commands: [][]string{{"brew", "install", "whisper-cpp"}}},
		}
	default:
		return []installOption{
			{manager: "apt-get", commands: [][]string{{"apt-get", "update"}, {"apt-get", "install", "-y", "whisper-cpp"}}},
			{manager: "dnf", commands: [][]string{{"dnf", "install", "-y", "whisper-cpp"}}},
			{manager: "pacman", commands: [][]string{{"pacman", "-Sy", "--noconfirm", "whisper.cpp"}}},
			{manager: "brew", commands: [][]string{{"brew", "install", "whisper-cpp"}}},
		}
	}
}
