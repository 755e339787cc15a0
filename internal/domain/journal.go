package domain

import "time"

const (
	ProcessManager  = "manager"
	ProcessObserver = "observer"

	EventDecision  = "decision"
	EventSpawn     = "spawn"
	EventStop      = "stop"
	EventDistill   = "distill"
	EventSummarize = "summarize"
)

// JournalEntry is one step of the decision trail.
type JournalEntry struct {
	ID         int64
	OccurredAt time.Time
	Process    string
	Skill      string
	Event      string
	Detail     string
}
