package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"syscall"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"

	"github.com/tbourn/lotto-console/internal/domain"
	"github.com/tbourn/lotto-console/internal/notify"
	"github.com/tbourn/lotto-console/internal/observability"
)

// BotManager starts and stops the purchase worker as a child process and
// tracks it through a pid file, so a restarted backend still sees a
// worker it started earlier.
type BotManager struct {
	// Command is the worker argv. Empty disables start.
	Command []string
	// Dir is the worker's working directory.
	Dir string
	// PIDPath is where the worker pid is kept.
	PIDPath string
	// LogPath receives the worker's stdout and stderr. Optional.
	LogPath string
	// Announce is called after a start or stop, outside the manager's
	// lock. Optional.
	Announce func(context.Context, notify.Event)

	mu sync.Mutex
}

// Running reports whether the pid file names a live process.
func (m *BotManager) Running() bool {
	pid, err := m.readPID()
	if err != nil {
		return false
	}
	return processAlive(pid)
}

// Start launches the worker. It fails with ErrAlreadyRunning when a live
// worker is recorded and ErrNoCommand when none is configured.
func (m *BotManager) Start(ctx context.Context) (err error) {
	ctx, span := observability.Start(ctx, "bot.start", attribute.StringSlice("bot.command", m.Command))
	defer func() { observability.End(span, err) }()

	pid, err := m.start()
	if err != nil {
		return err
	}
	log.Info().Int("pid", pid).Strs("command", m.Command).Msg("bot started")
	m.announce(ctx, notify.Event{Kind: notify.KindInfo, Title: "Bot started", Message: fmt.Sprintf("pid %d", pid)})
	return nil
}

func (m *BotManager) start() (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Running() {
		return 0, ErrAlreadyRunning
	}
	if len(m.Command) == 0 {
		return 0, ErrNoCommand
	}

	cmd := exec.Command(m.Command[0], m.Command[1:]...)
	cmd.Dir = m.Dir
	if m.LogPath != "" {
		f, err := os.OpenFile(m.LogPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return 0, fmt.Errorf("open bot log: %w", err)
		}
		defer f.Close()
		cmd.Stdout, cmd.Stderr = f, f
	}
	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("start bot: %w", err)
	}
	if err := m.writePID(cmd.Process.Pid); err != nil {
		_ = cmd.Process.Kill()
		return 0, err
	}
	// Reap the child so it does not linger as a zombie.
	go func() { _ = cmd.Wait() }()
	return cmd.Process.Pid, nil
}

// Stop terminates the recorded worker and removes the pid file. A stale
// pid file is cleaned up and reported as a successful stop.
func (m *BotManager) Stop(ctx context.Context) (alreadyGone bool, err error) {
	ctx, span := observability.Start(ctx, "bot.stop")
	defer func() {
		span.SetAttributes(attribute.Bool("bot.already_gone", alreadyGone))
		observability.End(span, err)
	}()

	pid, alreadyGone, err := m.stop()
	if err != nil || alreadyGone {
		return alreadyGone, err
	}
	log.Info().Int("pid", pid).Msg("bot stopped")
	m.announce(ctx, notify.Event{Kind: notify.KindWarn, Title: "Bot stopped", Message: fmt.Sprintf("pid %d", pid)})
	return false, nil
}

func (m *BotManager) stop() (pid int, alreadyGone bool, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	pid, err = m.readPID()
	if err != nil {
		return 0, false, ErrNotRunning
	}
	defer os.Remove(m.PIDPath)

	if !processAlive(pid) {
		return pid, true, nil
	}
	p, err := os.FindProcess(pid)
	if err == nil {
		err = p.Signal(syscall.SIGTERM)
	}
	if errors.Is(err, os.ErrProcessDone) {
		return pid, true, nil
	}
	if err != nil {
		return pid, false, fmt.Errorf("stop bot: %w", err)
	}
	return pid, false, nil
}

// RunState returns domain.StatusRunning or domain.StatusStopped.
func (m *BotManager) RunState() string {
	if m.Running() {
		return domain.StatusRunning
	}
	return domain.StatusStopped
}

func (m *BotManager) announce(ctx context.Context, ev notify.Event) {
	if m.Announce != nil {
		m.Announce(ctx, ev)
	}
}

func (m *BotManager) readPID() (int, error) {
	b, err := os.ReadFile(m.PIDPath)
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(b)))
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("bad pid file %s", m.PIDPath)
	}
	return pid, nil
}

func (m *BotManager) writePID(pid int) error {
	if dir := filepath.Dir(m.PIDPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(m.PIDPath, []byte(strconv.Itoa(pid)), 0o644)
}

// processAlive probes pid with signal 0.
func processAlive(pid int) bool {
	p, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return p.Signal(syscall.Signal(0)) == nil
}
