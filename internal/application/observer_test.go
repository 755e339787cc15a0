package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skillwatch/internal/domain"
)

func newTestObserver(p ObserverParams) *Observer {
	if p.Skill.Name == "" {
		p.Skill = domain.Skill{Name: "go-testing", Description: "Testing patterns in Go"}
	}
	if p.Pid == 0 {
		p.Pid = 12345
	}
	if p.MaxSkillBytes == 0 {
		p.MaxSkillBytes = 32768
	}
	if p.MaxIndexBytes == 0 {
		p.MaxIndexBytes = 4096
	}
	if p.PollInterval == 0 {
		p.PollInterval = time.Second
	}
	if p.Journal == nil {
		p.Journal = &inMemoryJournal{}
	}
	return NewObserver(p)
}

func TestObserverRunRegistersAndRemovesPid(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	registry := &inMemoryRegistry{}

	obs := newTestObserver(ObserverParams{
		Tracker:          &scriptedTracker{},
		Store:            &inMemoryStore{name: "go-testing", skill: &inMemorySkill{}},
		Registry:         registry,
		Engine:           &scriptedEngine{},
		Clock:            &stepClock{cancel: cancel, limit: 1},
		MessageThreshold: 5,
	})

	require.NoError(t, obs.Run(ctx))

	assert.Equal(t, []string{"go-testing"}, registry.writes)
	assert.Equal(t, []string{"go-testing"}, registry.removes)
	assert.Empty(t, registry.pids)
}

func TestObserverDistillsAtThreshold(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	skill := &inMemorySkill{details: "## Old notes\nkeep tests fast"}
	engine := &scriptedEngine{responses: []string{
		"## Testing notes\nprefer table tests\n" +
			"NEW_FILE: examples.md\n" +
			"func TestFoo(t *testing.T) {}",
	}}
	journal := &inMemoryJournal{}

	obs := newTestObserver(ObserverParams{
		Tracker: &scriptedTracker{batches: [][]domain.Message{{
			{Role: "user", Content: "how do I structure table tests?"},
			{Role: "assistant", Content: "use a slice of cases"},
		}}},
		Store:            &inMemoryStore{name: "go-testing", skill: skill},
		Registry:         &inMemoryRegistry{},
		Engine:           engine,
		Journal:          journal,
		Clock:            &stepClock{cancel: cancel, limit: 1},
		MessageThreshold: 2,
	})

	require.NoError(t, obs.Run(ctx))

	assert.Equal(t, "## Testing notes\nprefer table tests", skill.details)
	assert.Equal(t, "func TestFoo(t *testing.T) {}", skill.resources["examples.md"])
	// First distillation; the periodic index refresh has not come due.
	assert.Empty(t, skill.index)

	require.Len(t, engine.prompts, 1)
	assert.Contains(t, engine.prompts[0], `knowledge distiller for the skill: "go-testing"`)
	assert.Contains(t, engine.prompts[0], "## Old notes")
	assert.Contains(t, engine.prompts[0], "[user]: how do I structure table tests?")

	assert.Equal(t, []string{"go-testing"}, journal.skills(domain.EventDistill))
	assert.Empty(t, journal.skills(domain.EventSummarize))
}

func TestObserverFlushesPendingOnShutdown(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	skill := &inMemorySkill{}
	engine := &scriptedEngine{responses: []string{
		"## Fresh notes",
		"go-testing: table tests, fast suites",
	}}
	journal := &inMemoryJournal{}

	obs := newTestObserver(ObserverParams{
		Tracker: &scriptedTracker{batches: [][]domain.Message{{
			{Role: "user", Content: "one message, below threshold"},
		}}},
		Store:            &inMemoryStore{name: "go-testing", skill: skill},
		Registry:         &inMemoryRegistry{},
		Engine:           engine,
		Journal:          journal,
		Clock:            &stepClock{cancel: cancel, limit: 1},
		MessageThreshold: 100,
	})

	require.NoError(t, obs.Run(ctx))

	// The shutdown pass distills what is pending and, being final,
	// refreshes the index as well.
	assert.Equal(t, "## Fresh notes", skill.details)
	assert.Equal(t, "go-testing: table tests, fast suites", skill.index)
	assert.Len(t, engine.prompts, 2)
	assert.Equal(t, []string{"go-testing"}, journal.skills(domain.EventDistill))
	assert.Equal(t, []string{"go-testing"}, journal.skills(domain.EventSummarize))
}

func TestObserverNoUpdateLeavesSkillUntouched(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	skill := &inMemorySkill{details: "## Existing"}
	engine := &scriptedEngine{responses: []string{"NO_UPDATE"}}
	journal := &inMemoryJournal{}

	obs := newTestObserver(ObserverParams{
		Tracker: &scriptedTracker{batches: [][]domain.Message{{
			{Role: "user", Content: "smalltalk"},
			{Role: "assistant", Content: "indeed"},
		}}},
		Store:            &inMemoryStore{name: "go-testing", skill: skill},
		Registry:         &inMemoryRegistry{},
		Engine:           engine,
		Journal:          journal,
		Clock:            &stepClock{cancel: cancel, limit: 2},
		MessageThreshold: 2,
	})

	require.NoError(t, obs.Run(ctx))

	assert.Equal(t, "## Existing", skill.details)
	assert.Empty(t, skill.resources)
	assert.Empty(t, journal.entries)
	// The declined batch is not retried on later polls.
	assert.Len(t, engine.prompts, 1)
}

func TestObserverDiscardsPendingAfterFailedDistillation(t *testing.T) {
	t.Parallel()

	// The pending batch is consumed by its distillation attempt even
	// when the engine call fails; those messages are never retried.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	skill := &inMemorySkill{}
	engine := &scriptedEngine{errs: []error{errors.New("engine down")}}

	obs := newTestObserver(ObserverParams{
		Tracker: &scriptedTracker{batches: [][]domain.Message{{
			{Role: "user", Content: "lost to the outage"},
		}}},
		Store:            &inMemoryStore{name: "go-testing", skill: skill},
		Registry:         &inMemoryRegistry{},
		Engine:           engine,
		Clock:            &stepClock{cancel: cancel, limit: 3},
		MessageThreshold: 1,
	})

	require.NoError(t, obs.Run(ctx))

	assert.Len(t, engine.prompts, 1)
	assert.Empty(t, skill.details)
}

func TestObserverResourceOnlyResponseWritesNothing(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	skill := &inMemorySkill{}
	engine := &scriptedEngine{responses: []string{
		"NEW_FILE: orphan.md\ncontent without any details",
	}}

	obs := newTestObserver(ObserverParams{
		Tracker: &scriptedTracker{batches: [][]domain.Message{{
			{Role: "user", Content: "hello"},
		}}},
		Store:            &inMemoryStore{name: "go-testing", skill: skill},
		Registry:         &inMemoryRegistry{},
		Engine:           engine,
		Clock:            &stepClock{cancel: cancel, limit: 1},
		MessageThreshold: 1,
	})

	require.NoError(t, obs.Run(ctx))

	// Resource files only ride along with a details update.
	assert.Empty(t, skill.details)
	assert.Empty(t, skill.resources)
}

func TestObserverRejectsInvalidResourceName(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	skill := &inMemorySkill{}
	engine := &scriptedEngine{responses: []string{
		"## Notes\nNEW_FILE: ../escape.md\nnope\nNEW_FILE: good.md\nkept",
	}}

	obs := newTestObserver(ObserverParams{
		Tracker: &scriptedTracker{batches: [][]domain.Message{{
			{Role: "user", Content: "hello"},
		}}},
		Store:            &inMemoryStore{name: "go-testing", skill: skill},
		Registry:         &inMemoryRegistry{},
		Engine:           engine,
		Clock:            &stepClock{cancel: cancel, limit: 1},
		MessageThreshold: 1,
	})

	require.NoError(t, obs.Run(ctx))

	assert.Equal(t, "## Notes", skill.details)
	assert.Equal(t, map[string]string{"good.md": "kept"}, skill.resources)
}

func TestObserverRefreshesIndexEveryThirdDistillation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	skill := &inMemorySkill{}
	engine := &scriptedEngine{responses: []string{
		"details one",
		"details two",
		"details three",
		"compact index",
	}}
	journal := &inMemoryJournal{}

	obs := newTestObserver(ObserverParams{
		Tracker: &scriptedTracker{batches: [][]domain.Message{
			{{Role: "user", Content: "first"}},
			{{Role: "user", Content: "second"}},
			{{Role: "user", Content: "third"}},
		}},
		Store:            &inMemoryStore{name: "go-testing", skill: skill},
		Registry:         &inMemoryRegistry{},
		Engine:           engine,
		Journal:          journal,
		Clock:            &stepClock{cancel: cancel, limit: 4},
		MessageThreshold: 1,
	})

	require.NoError(t, obs.Run(ctx))

	assert.Equal(t, "details three", skill.details)
	assert.Equal(t, "compact index", skill.index)
	assert.Len(t, engine.prompts, 4)
	assert.Equal(t, []string{"go-testing", "go-testing", "go-testing"}, journal.skills(domain.EventDistill))
	assert.Equal(t, []string{"go-testing"}, journal.skills(domain.EventSummarize))
}

func TestObserverCapsIndexBytes(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	skill := &inMemorySkill{}
	engine := &scriptedEngine{responses: []string{
		"## Details",
		"aaaa日本語",
	}}

	obs := newTestObserver(ObserverParams{
		Tracker: &scriptedTracker{batches: [][]domain.Message{{
			{Role: "user", Content: "one"},
		}}},
		Store:            &inMemoryStore{name: "go-testing", skill: skill},
		Registry:         &inMemoryRegistry{},
		Engine:           engine,
		Clock:            &stepClock{cancel: cancel, limit: 1},
		MaxIndexBytes:    8,
		MessageThreshold: 100,
	})

	require.NoError(t, obs.Run(ctx))

	// 8 bytes falls inside 本; the cut backs up to the rune boundary.
	assert.Equal(t, "aaaa日", skill.index)
}
