package domain

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	IndexFile   = "index.md"
	DetailsFile = "details.md"
)

// Skill is a named topic maintained by exactly one observer.
type Skill struct {
	Name        string
	Description string
}

func (s Skill) Validate() error {
	if err := ValidateSkillName(s.Name); err != nil {
		return err
	}
	return nil
}

// ValidateSkillName enforces filesystem-safe names: letters, digits,
// '-', '_' and '.', no path separators, not hidden.
func ValidateSkillName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: empty", ErrInvalidSkillName)
	}
	if strings.HasPrefix(name, ".") {
		return fmt.Errorf("%w: %q is hidden", ErrInvalidSkillName, name)
	}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-' || r == '_' || r == '.':
		default:
			return fmt.Errorf("%w: %q contains %q", ErrInvalidSkillName, name, r)
		}
	}
	return nil
}

// ValidateResourceName rejects names that would escape the skill
// directory or shadow the index/details artifacts.
func ValidateResourceName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: empty", ErrInvalidSkillName)
	}
	if strings.ContainsAny(name, "/\\") || name == "." || name == ".." {
		return fmt.Errorf("%w: %q", ErrInvalidSkillName, name)
	}
	if name == IndexFile || name == DetailsFile {
		return fmt.Errorf("%w: %q", ErrReservedName, name)
	}
	if stem := strings.TrimSuffix(name, ".md"); stem == "index" || stem == "details" {
		return fmt.Errorf("%w: %q", ErrReservedName, name)
	}
	return nil
}

// TruncateBytes cuts s to at most max bytes without splitting a
// multi-byte character, so the result may be shorter than max.
func TruncateBytes(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
