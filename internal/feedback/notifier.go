package feedback

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/banshee-data/posture.report/internal/security"
)

// LogNotifier writes notifications to the feedback log. It never fails.
type LogNotifier struct{}

// Notify logs n.
func (LogNotifier) Notify(_ context.Context, n Notification) error {
	logf("%s: %s", n.Tag, n.Message)
	return nil
}

// ErrNoPlayback is returned when neither a clip nor a speech command can
// voice a notification.
var ErrNoPlayback = errors.New("no clip or speech command available")

// CommandNotifier voices notifications with external programs. A clip named
// <ClipDir>/<tag>.mp3 is played with PlayCommand when present; otherwise the
// message text is passed to SpeakCommand. Commands are split on whitespace
// and receive the clip path or message as their final argument.
type CommandNotifier struct {
	ClipDir      string
	PlayCommand  string
	SpeakCommand string
	Timeout      time.Duration
}

// Notify runs the playback command for n and waits for it to finish.
func (c *CommandNotifier) Notify(ctx context.Context, n Notification) error {
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	if clip := c.clipPath(n.Tag); clip != "" && c.PlayCommand != "" {
		return run(ctx, c.PlayCommand, clip)
	}
	if c.SpeakCommand != "" {
		return run(ctx, c.SpeakCommand, n.Message)
	}
	return fmt.Errorf("%s: %w", n.Tag, ErrNoPlayback)
}

func (c *CommandNotifier) clipPath(tag Tag) string {
	if c.ClipDir == "" || tag == "" {
		return ""
	}
	p := filepath.Join(c.ClipDir, security.SanitizeFilename(string(tag))+".mp3")
	if _, err := os.Stat(p); err != nil {
		return ""
	}
	if err := security.WithinDir(p, c.ClipDir); err != nil {
		logf("ignoring clip for %s: %v", tag, err)
		return ""
	}
	return p
}

func run(ctx context.Context, command, arg string) error {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return fmt.Errorf("empty command: %w", ErrNoPlayback)
	}
	args := append(fields[1:], arg)
	cmd := exec.CommandContext(ctx, fields[0], args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s failed: %w (output: %s)", fields[0], err, strings.TrimSpace(string(out)))
	}
	return nil
}
