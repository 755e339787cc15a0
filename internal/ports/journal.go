package ports

import (
	"context"

	"skillwatch/internal/domain"
)

// Journal persists the decision trail. Writes are best-effort from the
// caller's point of view and must never block a loop on failure.
type Journal interface {
	Record(ctx context.Context, entry domain.JournalEntry) error
	Recent(ctx context.Context, skill string, limit int) ([]domain.JournalEntry, error)
	Close() error
}
