package transcript

import (
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"skillwatch/internal/domain"
)

const (
	fileExtension = ".jsonl"
	// Sub-conversation transcripts carry this prefix and are never
	// part of the main dialogue.
	subagentPrefix = "agent-"
)

// ProjectDir maps an absolute project path to its transcript cache
// directory: every path separator becomes a dash.
func ProjectDir(root, projectPath string) string {
	return filepath.Join(root, strings.ReplaceAll(projectPath, "/", "-"))
}

// ActiveFile picks the most recently modified transcript under dir,
// recursively, skipping sub-conversation files. It returns "" when the
// directory is missing or holds no transcript.
func ActiveFile(dir string) string {
	var (
		newest  string
		modTime time.Time
	)

	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return filepath.SkipAll
			}
			return nil
		}
		if d.IsDir() || filepath.Ext(path) != fileExtension || strings.HasPrefix(d.Name(), subagentPrefix) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		if newest == "" || info.ModTime().After(modTime) {
			newest = path
			modTime = info.ModTime()
		}
		return nil
	})

	return newest
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type rawEntry struct {
	Type    string `json:"type"`
	Message struct {
		Role    string          `json:"role"`
		Content json.RawMessage `json:"content"`
	} `json:"message"`
}

// parseEntry converts one transcript line into a Message. Lines that
// are not well-formed user/assistant turns with text content are
// dropped.
func parseEntry(line string) (domain.Message, bool) {
	var entry rawEntry
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		return domain.Message{}, false
	}
	if entry.Type != "user" && entry.Type != "assistant" {
		return domain.Message{}, false
	}

	role := entry.Message.Role
	if role == "" {
		role = entry.Type
	}

	content, ok := extractText(entry.Message.Content)
	if !ok || content == "" {
		return domain.Message{}, false
	}

	return domain.Message{Role: role, Content: content}, true
}

// extractText accepts either a plain string or a list of typed
// segments, keeping only text segments joined by newlines.
func extractText(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 {
		return "", false
	}

	var plain string
	if err := json.Unmarshal(raw, &plain); err == nil {
		return plain, true
	}

	var segments []json.RawMessage
	if err := json.Unmarshal(raw, &segments); err != nil {
		return "", false
	}

	var parts []string
	for _, segment := range segments {
		var block contentBlock
		if err := json.Unmarshal(segment, &block); err != nil {
			continue
		}
		if block.Type == "text" {
			parts = append(parts, block.Text)
		}
	}

	return strings.Join(parts, "\n"), true
}
