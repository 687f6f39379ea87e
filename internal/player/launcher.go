package player

import (
	"fmt"
	"log/slog"
	"os/exec"
)

// Launcher hands a stream URL to an external media player. Playback itself
// is entirely out of process.
type Launcher struct {
	command string
	args    []string
	logger  *slog.Logger
}

// NewLauncher creates a launcher for the configured player command.
func NewLauncher(command string, args []string, logger *slog.Logger) *Launcher {
	if command == "" {
		command = "mpv"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Launcher{command: command, args: args, logger: logger}
}

// Launch starts the player detached with the given URL and title.
func (l *Launcher) Launch(url, title string) error {
	args := append([]string(nil), l.args...)
	if title != "" && l.command == "mpv" {
		args = append(args, "--force-media-title="+title)
	}
	args = append(args, url)

	cmd := exec.Command(l.command, args...)
	if err := cmd.Start(); err != nil {
		l.logger.Error("failed to launch player", "command", l.command, "error", err)
		return fmt.Errorf("failed to launch %s: %w", l.command, err)
	}
	l.logger.Info("launched player", "command", l.command, "title", title)

	// Reap the process in the background so it doesn't zombie
	go cmd.Wait()
	return nil
}
