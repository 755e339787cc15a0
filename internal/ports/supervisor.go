package ports

import (
	"context"

	"skillwatch/internal/domain"
)

// WorkerLauncher starts and stops detached observer processes.
type WorkerLauncher interface {
	// Spawn launches a detached worker and returns its pid.
	Spawn(ctx context.Context, spec domain.SpawnSpec) (int, error)
	// Stop sends a graceful termination signal. Stopping a process
	// that is already gone is success.
	Stop(ctx context.Context, name string, pid int) error
}

// WorkerRegistry is the pid bookkeeping shared between manager and
// observers. Running probes liveness and prunes stale entries.
type WorkerRegistry interface {
	Write(ctx context.Context, name string, pid int) error
	Remove(ctx context.Context, name string) error
	Running(ctx context.Context) (map[string]int, error)
}
