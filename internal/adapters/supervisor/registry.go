package supervisor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"skillwatch/internal/ports"
)

const (
	dirMode     = 0o755
	pidFileMode = 0o644
	pidSuffix   = ".pid"
)

// Registry keeps the skill→pid bookkeeping as hidden pid files under
// the skills root. It is shared by convention: the manager reads it,
// each observer writes only its own entry.
type Registry struct {
	root   string
	logger *zap.Logger
}

var _ ports.WorkerRegistry = (*Registry)(nil)

func NewRegistry(root string, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{root: filepath.Clean(root), logger: logger}
}

func (r *Registry) pidPath(name string) string {
	return filepath.Join(r.root, "."+name+pidSuffix)
}

func (r *Registry) Write(ctx context.Context, name string, pid int) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := os.MkdirAll(r.root, dirMode); err != nil {
		return fmt.Errorf("create skills root: %w", err)
	}

	data := []byte(strconv.Itoa(pid) + "\n")
	if err := os.WriteFile(r.pidPath(name), data, pidFileMode); err != nil {
		return fmt.Errorf("write pid file for %q: %w", name, err)
	}

	return nil
}

func (r *Registry) Remove(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := os.Remove(r.pidPath(name))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove pid file for %q: %w", name, err)
	}

	return nil
}

// Running probes every pid file under the root and returns the alive
// entries. Entries whose process is gone, or whose content is not a
// pid, are deleted opportunistically.
func (r *Registry) Running(ctx context.Context) (map[string]int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(r.root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]int{}, nil
		}
		return nil, fmt.Errorf("list skills root: %w", err)
	}

	running := map[string]int{}
	for _, entry := range entries {
		fileName := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(fileName, ".") || !strings.HasSuffix(fileName, pidSuffix) {
			continue
		}
		name := strings.TrimSuffix(strings.TrimPrefix(fileName, "."), pidSuffix)
		if name == "" {
			continue
		}

		pid, ok := r.readPid(fileName)
		if !ok || !processAlive(pid) {
			r.prune(fileName, name)
			continue
		}
		running[name] = pid
	}

	return running, nil
}

func (r *Registry) readPid(fileName string) (int, bool) {
	data, err := os.ReadFile(filepath.Join(r.root, fileName))
	if err != nil {
		return 0, false
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, false
	}
	return pid, true
}

func (r *Registry) prune(fileName, name string) {
	if err := os.Remove(filepath.Join(r.root, fileName)); err != nil && !errors.Is(err, os.ErrNotExist) {
		r.logger.Debug("prune stale pid file", zap.String("skill", name), zap.Error(err))
		return
	}
	r.logger.Debug("removed stale pid file", zap.String("skill", name))
}

// processAlive sends signal 0, which performs the existence check
// without delivering anything. A pid owned by another user counts as
// not ours and therefore stale.
func processAlive(pid int) bool {
	return syscall.Kill(pid, 0) == nil
}
