package domain

// SpawnSpec carries the startup contract for one observer process.
type SpawnSpec struct {
	Skill       Skill
	ProjectPath string
	ConfigPath  string
	// IncludeHistory makes the new observer ingest the existing
	// transcript instead of only turns appended after launch.
	IncludeHistory bool
}
