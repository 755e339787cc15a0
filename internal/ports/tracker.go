package ports

import (
	"context"

	"skillwatch/internal/domain"
)

// TranscriptTracker incrementally reads one project's append-only
// conversation transcript. Each Poll consumes the stream forward and
// returns only turns not seen before.
type TranscriptTracker interface {
	Poll(ctx context.Context) ([]domain.Message, error)
}
