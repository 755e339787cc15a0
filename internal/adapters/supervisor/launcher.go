package supervisor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"

	"go.uber.org/zap"

	"skillwatch/internal/domain"
	"skillwatch/internal/ports"
)

const logsDir = ".logs"

// Launcher starts observers as detached children of the current
// executable and stops them by pid.
type Launcher struct {
	execPath string
	root     string
	logger   *zap.Logger
}

var _ ports.WorkerLauncher = (*Launcher)(nil)

func NewLauncher(execPath, root string, logger *zap.Logger) *Launcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Launcher{execPath: execPath, root: filepath.Clean(root), logger: logger}
}

// LogFile is where a spawned observer writes its log.
func (l *Launcher) LogFile(name string) string {
	return filepath.Join(l.root, logsDir, name+".log")
}

// Spawn launches the observer in its own session with stdio detached,
// so it survives the manager and never receives its terminal signals.
func (l *Launcher) Spawn(ctx context.Context, spec domain.SpawnSpec) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := spec.Skill.Validate(); err != nil {
		return 0, err
	}

	if err := os.MkdirAll(filepath.Join(l.root, logsDir), dirMode); err != nil {
		return 0, fmt.Errorf("create observer log directory: %w", err)
	}

	args := []string{
		"observer", spec.Skill.Name,
		"--description", spec.Skill.Description,
		"--project", spec.ProjectPath,
		"--log-file", l.LogFile(spec.Skill.Name),
	}
	if spec.ConfigPath != "" {
		args = append(args, "--config", spec.ConfigPath)
	}
	if spec.IncludeHistory {
		args = append(args, "--include-history")
	}

	// Deliberately not CommandContext: the child must outlive the
	// manager's shutdown context.
	cmd := exec.Command(l.execPath, args...)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("spawn observer %q: %w", spec.Skill.Name, err)
	}

	pid := cmd.Process.Pid
	go func() {
		_ = cmd.Wait()
	}()

	l.logger.Info("spawned observer",
		zap.String("skill", spec.Skill.Name),
		zap.Int("pid", pid),
		zap.Bool("include_history", spec.IncludeHistory))

	return pid, nil
}

// Stop sends SIGTERM. A process that is already gone is success.
func (l *Launcher) Stop(ctx context.Context, name string, pid int) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := syscall.Kill(pid, syscall.SIGTERM)
	if err == nil || errors.Is(err, syscall.ESRCH) {
		l.logger.Info("stopped observer", zap.String("skill", name), zap.Int("pid", pid))
		return nil
	}

	return fmt.Errorf("stop observer %q (pid %d): %w", name, pid, err)
}
