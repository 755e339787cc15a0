package ports

import "context"

// SkillStore owns one skill's on-disk artifact set. Reads return an
// empty string when the artifact does not exist yet.
type SkillStore interface {
	Name() string
	ReadIndex(ctx context.Context) (string, error)
	ReadDetails(ctx context.Context) (string, error)
	WriteIndex(ctx context.Context, content string) error
	WriteDetails(ctx context.Context, content string) error
	WriteResource(ctx context.Context, name, content string) error
	ListResources(ctx context.Context) ([]string, error)
}

// SkillCatalog enumerates the skills under one root, both the
// directory form and legacy flat files.
type SkillCatalog interface {
	List(ctx context.Context) ([]string, error)
	Store(name string) SkillStore
	LegacyContent(ctx context.Context, name string) (string, error)
}
