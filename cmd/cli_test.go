package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skillwatch/internal/adapters/transcript"
)

func TestVersionCommandPrintsVersion(t *testing.T) {
	stdout, _, err := executeCLI(t, t.TempDir(), "version")
	require.NoError(t, err)
	assert.Contains(t, stdout, "dev")
}

func TestStatusJSONListsSkillsAndArtifacts(t *testing.T) {
	home := t.TempDir()
	project := t.TempDir()
	require.NoError(t, writeSkillsFixture(project))

	stdout, _, err := executeCLI(t, home, "status", "--project", project, "--json")
	require.NoError(t, err)
	assert.True(t, json.Valid([]byte(stdout)))
	assert.Contains(t, stdout, "\"Name\": \"go-testing\"")
	assert.Contains(t, stdout, "\"IndexBytes\"")
	assert.Contains(t, stdout, "\"old-notes\"")
	assert.Contains(t, stdout, "\"Legacy\": true")
}

func TestStatusRendersOverview(t *testing.T) {
	home := t.TempDir()
	project := t.TempDir()
	require.NoError(t, writeSkillsFixture(project))

	stdout, _, err := executeCLI(t, home, "status", "--project", project)
	require.NoError(t, err)
	assert.Contains(t, stdout, "skills: 2")
	assert.Contains(t, stdout, "go-testing (idle)")
	assert.Contains(t, stdout, "index:")
	assert.Contains(t, stdout, "details:")
	assert.Contains(t, stdout, "old-notes (idle)")
	assert.Contains(t, stdout, "legacy flat file, not yet distilled")
}

func TestSkillsListMarksRunningObserver(t *testing.T) {
	home := t.TempDir()
	project := t.TempDir()
	require.NoError(t, writeSkillsFixture(project))

	// The test process itself stands in for a live observer.
	pidFile := filepath.Join(project, "skills", ".go-testing.pid")
	require.NoError(t, os.WriteFile(pidFile, fmt.Appendf(nil, "%d\n", os.Getpid()), 0o644))

	stdout, _, err := executeCLI(t, home, "skills", "list", "--project", project)
	require.NoError(t, err)
	assert.Contains(t, stdout, "* go-testing")
	assert.Contains(t, stdout, "old-notes")
	assert.NotContains(t, stdout, "* old-notes")
}

func TestSkillsListEmptyProject(t *testing.T) {
	home := t.TempDir()
	project := t.TempDir()

	stdout, _, err := executeCLI(t, home, "skills", "list", "--project", project)
	require.NoError(t, err)
	assert.Contains(t, stdout, "No skills yet.")
}

func TestSkillsShowPrintsArtifactSections(t *testing.T) {
	home := t.TempDir()
	project := t.TempDir()
	require.NoError(t, writeSkillsFixture(project))

	stdout, _, err := executeCLI(t, home, "skills", "show", "go-testing", "--project", project)
	require.NoError(t, err)
	assert.Contains(t, stdout, "# index.md")
	assert.Contains(t, stdout, "Table-driven tests")
	assert.Contains(t, stdout, "# details.md")
	assert.Contains(t, stdout, "# resources")
	assert.Contains(t, stdout, "- examples.md")
}

func TestSkillsShowUnknownSkill(t *testing.T) {
	home := t.TempDir()
	project := t.TempDir()
	require.NoError(t, writeSkillsFixture(project))

	_, _, err := executeCLI(t, home, "skills", "show", "ghost", "--project", project)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "skill not found")
}

func TestSkillsShowRejectsTraversalName(t *testing.T) {
	home := t.TempDir()
	project := t.TempDir()

	_, _, err := executeCLI(t, home, "skills", "show", "../escape", "--project", project)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid skill name")
}

func TestConfigInitWritesAndRefusesOverwrite(t *testing.T) {
	home := t.TempDir()
	project := t.TempDir()

	stdout, _, err := executeCLI(t, home, "config", "init", "--project", project)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Wrote")

	data, err := os.ReadFile(filepath.Join(project, "skillwatch.toml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "max_skill_bytes")

	_, _, err = executeCLI(t, home, "config", "init", "--project", project)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	_, _, err = executeCLI(t, home, "config", "init", "--project", project, "--force")
	require.NoError(t, err)
}

func TestConfigShowPrintsEffectiveConfig(t *testing.T) {
	home := t.TempDir()
	project := t.TempDir()

	stdout, _, err := executeCLI(t, home, "config", "show", "--project", project)
	require.NoError(t, err)
	assert.Contains(t, stdout, "max_skill_bytes = 32768")
	assert.Contains(t, stdout, "max_index_bytes = 4096")
	assert.Contains(t, stdout, "transcripts_root")
	assert.Contains(t, stdout, "[engine]")
}

func TestEvaluateJSONReportsDecision(t *testing.T) {
	home := t.TempDir()
	project := t.TempDir()
	require.NoError(t, writeTranscriptFixture(home, project))
	require.NoError(t, writeEngineFixture(t.TempDir(), project,
		`{"result":"START: none\nSTOP: none\nNEW: none\nREASON: quiet session"}`, 0))

	stdout, _, err := executeCLI(t, home, "evaluate", "--project", project, "--json")
	require.NoError(t, err)
	assert.True(t, json.Valid([]byte(stdout)))
	assert.Contains(t, stdout, "\"Reason\": \"quiet session\"")
}

func TestEvaluateShowsSpinnerAndDecision(t *testing.T) {
	home := t.TempDir()
	project := t.TempDir()
	require.NoError(t, writeTranscriptFixture(home, project))
	require.NoError(t, writeEngineFixture(t.TempDir(), project,
		`{"result":"START: none\nSTOP: none\nNEW: go-mocking: Faking collaborators in tests\nREASON: session is about test doubles"}`, 200))

	stdout, stderr, err := executeCLI(t, home, "evaluate", "--project", project)
	require.NoError(t, err)
	assert.Contains(t, stderr, "Evaluating conversation")
	assert.Contains(t, stdout, "START: none")
	assert.Contains(t, stdout, "NEW: go-mocking: Faking collaborators in tests")
	assert.Contains(t, stdout, "REASON: session is about test doubles")
}

func TestEvaluateWithoutTranscriptSaysSo(t *testing.T) {
	home := t.TempDir()
	project := t.TempDir()

	stdout, _, err := executeCLI(t, home, "evaluate", "--project", project, "--json")
	require.NoError(t, err)
	assert.Contains(t, stdout, "No conversation messages to evaluate.")
}

func TestObserverRejectsInvalidSkillName(t *testing.T) {
	home := t.TempDir()
	project := t.TempDir()

	_, _, err := executeCLI(t, home, "observer", "../bad", "--project", project)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid skill name")
}

func TestStopRequiresTargetOrAll(t *testing.T) {
	home := t.TempDir()
	project := t.TempDir()

	_, _, err := executeCLI(t, home, "stop", "--project", project)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "provide a skill name or --all")

	_, _, err = executeCLI(t, home, "stop", "go-testing", "--all", "--project", project)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--all takes no skill name")
}

func TestStopUnknownObserver(t *testing.T) {
	home := t.TempDir()
	project := t.TempDir()

	_, _, err := executeCLI(t, home, "stop", "ghost", "--project", project)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no running observer")
}

func TestStopAllWithNothingRunning(t *testing.T) {
	home := t.TempDir()
	project := t.TempDir()

	stdout, _, err := executeCLI(t, home, "stop", "--all", "--project", project)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Stopped 0 observer(s)")
}

func TestHistoryEmptyJournal(t *testing.T) {
	home := t.TempDir()
	project := t.TempDir()

	stdout, _, err := executeCLI(t, home, "history", "--project", project)
	require.NoError(t, err)
	assert.Contains(t, stdout, "No events recorded.")
}

func executeCLI(t *testing.T, home string, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("HOME", home)

	root := newRootCmd()
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetArgs(args)

	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func writeSkillsFixture(project string) error {
	root := filepath.Join(project, "skills")
	dir := filepath.Join(root, "go-testing")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	files := []struct {
		path    string
		content string
	}{
		{filepath.Join(dir, "index.md"), "# go-testing\n\nTable-driven tests with subtests.\n"},
		{filepath.Join(dir, "details.md"), "## Patterns\n\nUse t.Run for table cases, testify for assertions.\n"},
		{filepath.Join(dir, "examples.md"), "```go\nfunc TestExample(t *testing.T) {}\n```\n"},
		{filepath.Join(root, "old-notes.md"), "Assorted notes that predate structured skills.\n"},
	}
	for _, file := range files {
		if err := os.WriteFile(file.path, []byte(file.content), 0o644); err != nil {
			return err
		}
	}
	return nil
}

// writeTranscriptFixture drops one conversation into the cache
// directory the tracker derives from the project path.
func writeTranscriptFixture(home, project string) error {
	dir := transcript.ProjectDir(filepath.Join(home, ".claude", "projects"), project)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	lines := `{"type":"user","message":{"role":"user","content":"how do I mock time in Go tests?"}}
{"type":"assistant","message":{"role":"assistant","content":[{"type":"text","text":"Inject a clock interface and fake it in tests."}]}}
`
	return os.WriteFile(filepath.Join(dir, "session.jsonl"), []byte(lines), 0o644)
}

// writeEngineFixture installs a stand-in engine binary that answers
// with a canned CLI response, plus a project config pointing at it.
func writeEngineFixture(binDir, project, response string, delayMillis int) error {
	script := "#!/bin/sh\n"
	if delayMillis > 0 {
		script += fmt.Sprintf("sleep %0.1f\n", float64(delayMillis)/1000)
	}
	script += "printf '%s' '" + response + "'\n"

	enginePath := filepath.Join(binDir, "fake-engine")
	if err := os.WriteFile(enginePath, []byte(script), 0o755); err != nil {
		return err
	}

	cfg := fmt.Sprintf("[engine]\ncommand = %q\n", enginePath)
	return os.WriteFile(filepath.Join(project, "skillwatch.toml"), []byte(cfg), 0o644)
}
