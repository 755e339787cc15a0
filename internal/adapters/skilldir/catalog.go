package skilldir

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"skillwatch/internal/domain"
	"skillwatch/internal/ports"
)

const legacyExtension = ".md"

// Catalog enumerates skills under one root: subdirectories holding an
// index or details artifact, plus legacy flat markdown files.
type Catalog struct {
	root string
}

var _ ports.SkillCatalog = (*Catalog)(nil)

func NewCatalog(root string) *Catalog {
	return &Catalog{root: filepath.Clean(root)}
}

// Root is the skills directory this catalog scans.
func (c *Catalog) Root() string { return c.root }

func (c *Catalog) Store(name string) ports.SkillStore {
	return NewStore(c.root, name)
}

func (c *Catalog) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(c.root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("list skills root: %w", err)
	}

	seen := map[string]struct{}{}
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		if entry.IsDir() {
			if hasArtifact(filepath.Join(c.root, name)) {
				seen[name] = struct{}{}
			}
			continue
		}
		if filepath.Ext(name) == legacyExtension {
			seen[strings.TrimSuffix(name, legacyExtension)] = struct{}{}
		}
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)

	return names, nil
}

// LegacyContent reads a flat-file skill, returning empty content when
// the file does not exist.
func (c *Catalog) LegacyContent(ctx context.Context, name string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	data, err := os.ReadFile(filepath.Join(c.root, name+legacyExtension))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("read legacy skill %q: %w", name, err)
	}

	return string(data), nil
}

func hasArtifact(dir string) bool {
	for _, file := range []string{domain.IndexFile, domain.DetailsFile} {
		if _, err := os.Stat(filepath.Join(dir, file)); err == nil {
			return true
		}
	}
	return false
}
