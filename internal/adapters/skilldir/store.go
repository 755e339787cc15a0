package skilldir

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"skillwatch/internal/domain"
	"skillwatch/internal/ports"
)

const (
	dirMode         = 0o755
	artifactMode    = 0o644
	tempFilePattern = ".artifact-*.tmp"
)

// Store owns the artifact set of one skill directory. Reads of absent
// artifacts yield empty content; writes create the directory and are
// atomic via temp file plus rename.
type Store struct {
	root string
	name string
}

var _ ports.SkillStore = (*Store)(nil)

func NewStore(root, name string) *Store {
	return &Store{root: filepath.Clean(root), name: name}
}

func (s *Store) Name() string { return s.name }

// Dir is the skill's directory under the skills root.
func (s *Store) Dir() string { return filepath.Join(s.root, s.name) }

func (s *Store) ReadIndex(ctx context.Context) (string, error) {
	return s.readArtifact(ctx, domain.IndexFile)
}

func (s *Store) ReadDetails(ctx context.Context) (string, error) {
	return s.readArtifact(ctx, domain.DetailsFile)
}

func (s *Store) WriteIndex(ctx context.Context, content string) error {
	return s.writeArtifact(ctx, domain.IndexFile, content)
}

func (s *Store) WriteDetails(ctx context.Context, content string) error {
	return s.writeArtifact(ctx, domain.DetailsFile, content)
}

func (s *Store) WriteResource(ctx context.Context, name, content string) error {
	if err := domain.ValidateResourceName(name); err != nil {
		return err
	}
	return s.writeArtifact(ctx, name, content)
}

func (s *Store) ListResources(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(s.Dir())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("list skill directory %q: %w", s.name, err)
	}

	var resources []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if name := entry.Name(); name != domain.IndexFile && name != domain.DetailsFile {
			resources = append(resources, name)
		}
	}
	sort.Strings(resources)

	return resources, nil
}

func (s *Store) readArtifact(ctx context.Context, file string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	data, err := os.ReadFile(filepath.Join(s.Dir(), file))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("read skill artifact %q: %w", file, err)
	}

	return string(data), nil
}

func (s *Store) writeArtifact(ctx context.Context, file, content string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	dir := s.Dir()
	if err := os.MkdirAll(dir, dirMode); err != nil {
		return fmt.Errorf("create skill directory %q: %w", s.name, err)
	}

	tempFile, err := os.CreateTemp(dir, tempFilePattern)
	if err != nil {
		return fmt.Errorf("create temp artifact file: %w", err)
	}

	tempName := tempFile.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tempName)
		}
	}()

	if _, err := tempFile.WriteString(content); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("write temp artifact file: %w", err)
	}

	if err := tempFile.Chmod(artifactMode); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("chmod temp artifact file: %w", err)
	}

	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("close temp artifact file: %w", err)
	}

	if err := os.Rename(tempName, filepath.Join(dir, file)); err != nil {
		return fmt.Errorf("replace skill artifact %q: %w", file, err)
	}

	cleanup = false

	return nil
}
