package sqlite

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skillwatch/internal/domain"
)

func TestJournalRecordAndRecent(t *testing.T) {
	t.Parallel()

	journal, err := Open(t.TempDir())
	require.NoError(t, err)
	defer journal.Close()

	ctx := context.Background()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, journal.Record(ctx, domain.JournalEntry{
		OccurredAt: base,
		Process:    domain.ProcessManager,
		Event:      domain.EventDecision,
		Detail:     "start=[api] reason=new topic",
	}))
	require.NoError(t, journal.Record(ctx, domain.JournalEntry{
		OccurredAt: base.Add(time.Minute),
		Process:    domain.ProcessObserver,
		Skill:      "api",
		Event:      domain.EventDistill,
		Detail:     "5 messages",
	}))

	entries, err := journal.Recent(ctx, "", 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, domain.EventDistill, entries[0].Event, "newest first")
	assert.Equal(t, "api", entries[0].Skill)
	assert.Equal(t, base.Add(time.Minute), entries[0].OccurredAt)
	assert.Equal(t, domain.EventDecision, entries[1].Event)
}

func TestJournalRecentFiltersBySkill(t *testing.T) {
	t.Parallel()

	journal, err := Open(t.TempDir())
	require.NoError(t, err)
	defer journal.Close()

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		require.NoError(t, journal.Record(ctx, domain.JournalEntry{
			Process: domain.ProcessObserver,
			Skill:   "api",
			Event:   domain.EventDistill,
			Detail:  fmt.Sprintf("batch %d", i),
		}))
	}
	require.NoError(t, journal.Record(ctx, domain.JournalEntry{
		Process: domain.ProcessObserver,
		Skill:   "docs",
		Event:   domain.EventDistill,
	}))

	entries, err := journal.Recent(ctx, "api", 2)
	require.NoError(t, err)
	require.Len(t, entries, 2, "limit applies")
	assert.Equal(t, "batch 2", entries[0].Detail)
	assert.Equal(t, "batch 1", entries[1].Detail)
}

func TestJournalReopenKeepsEvents(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	ctx := context.Background()

	journal, err := Open(root)
	require.NoError(t, err)
	require.NoError(t, journal.Record(ctx, domain.JournalEntry{
		Process: domain.ProcessManager,
		Event:   domain.EventSpawn,
		Skill:   "api",
	}))
	require.NoError(t, journal.Close())

	reopened, err := Open(root)
	require.NoError(t, err)
	defer reopened.Close()

	entries, err := reopened.Recent(ctx, "", 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, domain.EventSpawn, entries[0].Event)

	assert.FileExists(t, filepath.Join(root, FileName))
}
