package application

import (
	"context"
	"fmt"
	"slices"

	"skillwatch/internal/domain"
	"skillwatch/internal/ports"
)

type SkillStatus struct {
	Name         string
	Running      bool
	Pid          int
	IndexBytes   int
	DetailsBytes int
	Resources    int
	Legacy       bool
}

type SkillDetail struct {
	Name      string
	Index     string
	Details   string
	Resources []string
	Legacy    string
}

type StatusService struct {
	catalog  ports.SkillCatalog
	registry ports.WorkerRegistry
	journal  ports.Journal
}

func NewStatusService(catalog ports.SkillCatalog, registry ports.WorkerRegistry, journal ports.Journal) *StatusService {
	return &StatusService{
		catalog:  catalog,
		registry: registry,
		journal:  journal,
	}
}

// Overview reports every known skill plus any running observer whose
// skill has no artifacts yet, sorted by name.
func (s *StatusService) Overview(ctx context.Context) ([]SkillStatus, error) {
	skills, err := s.catalog.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list skills: %w", err)
	}
	running, err := s.registry.Running(ctx)
	if err != nil {
		return nil, fmt.Errorf("list running observers: %w", err)
	}

	names := slices.Clone(skills)
	for name := range running {
		if !slices.Contains(names, name) {
			names = append(names, name)
		}
	}
	slices.Sort(names)

	statuses := make([]SkillStatus, 0, len(names))
	for _, name := range names {
		status, err := s.statusFor(ctx, name, running)
		if err != nil {
			return nil, err
		}
		statuses = append(statuses, status)
	}

	return statuses, nil
}

func (s *StatusService) statusFor(ctx context.Context, name string, running map[string]int) (SkillStatus, error) {
	store := s.catalog.Store(name)

	index, err := store.ReadIndex(ctx)
	if err != nil {
		return SkillStatus{}, fmt.Errorf("read index for %q: %w", name, err)
	}
	details, err := store.ReadDetails(ctx)
	if err != nil {
		return SkillStatus{}, fmt.Errorf("read details for %q: %w", name, err)
	}
	resources, err := store.ListResources(ctx)
	if err != nil {
		return SkillStatus{}, fmt.Errorf("list resources for %q: %w", name, err)
	}
	legacy, err := s.catalog.LegacyContent(ctx, name)
	if err != nil {
		return SkillStatus{}, fmt.Errorf("read legacy file for %q: %w", name, err)
	}

	pid, ok := running[name]

	return SkillStatus{
		Name:         name,
		Running:      ok,
		Pid:          pid,
		IndexBytes:   len(index),
		DetailsBytes: len(details),
		Resources:    len(resources),
		Legacy:       legacy != "",
	}, nil
}

// Show returns the full artifact set of one skill.
func (s *StatusService) Show(ctx context.Context, name string) (SkillDetail, error) {
	if err := domain.ValidateSkillName(name); err != nil {
		return SkillDetail{}, err
	}

	store := s.catalog.Store(name)

	index, err := store.ReadIndex(ctx)
	if err != nil {
		return SkillDetail{}, fmt.Errorf("read index: %w", err)
	}
	details, err := store.ReadDetails(ctx)
	if err != nil {
		return SkillDetail{}, fmt.Errorf("read details: %w", err)
	}
	resources, err := store.ListResources(ctx)
	if err != nil {
		return SkillDetail{}, fmt.Errorf("list resources: %w", err)
	}
	legacy, err := s.catalog.LegacyContent(ctx, name)
	if err != nil {
		return SkillDetail{}, fmt.Errorf("read legacy file: %w", err)
	}

	if index == "" && details == "" && len(resources) == 0 && legacy == "" {
		return SkillDetail{}, fmt.Errorf("%w: %q", domain.ErrSkillNotFound, name)
	}

	return SkillDetail{
		Name:      name,
		Index:     index,
		Details:   details,
		Resources: resources,
		Legacy:    legacy,
	}, nil
}

// History lists recent journal entries, optionally filtered to one
// skill.
func (s *StatusService) History(ctx context.Context, skill string, limit int) ([]domain.JournalEntry, error) {
	entries, err := s.journal.Recent(ctx, skill, limit)
	if err != nil {
		return nil, fmt.Errorf("read journal: %w", err)
	}
	return entries, nil
}
