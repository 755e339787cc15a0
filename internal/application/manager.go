package application

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"go.uber.org/zap"

	"skillwatch/internal/domain"
	"skillwatch/internal/ports"
)

var ErrNoMessages = errors.New("no conversation messages available")

type ManagerParams struct {
	Tracker  ports.TranscriptTracker
	Catalog  ports.SkillCatalog
	Launcher ports.WorkerLauncher
	Registry ports.WorkerRegistry
	Engine   ports.ReasoningEngine
	Journal  ports.Journal
	Clock    ports.Clock
	Logger   *zap.Logger

	ProjectPath      string
	ConfigPath       string
	MessageThreshold int
	PollInterval     time.Duration
}

type Manager struct {
	tracker  ports.TranscriptTracker
	catalog  ports.SkillCatalog
	launcher ports.WorkerLauncher
	registry ports.WorkerRegistry
	engine   ports.ReasoningEngine
	journal  ports.Journal
	clock    ports.Clock
	logger   *zap.Logger

	projectPath string
	configPath  string
	threshold   int
	interval    time.Duration
}

func NewManager(p ManagerParams) *Manager {
	if p.Clock == nil {
		p.Clock = ports.SystemClock{}
	}
	if p.Logger == nil {
		p.Logger = zap.NewNop()
	}

	return &Manager{
		tracker:     p.Tracker,
		catalog:     p.Catalog,
		launcher:    p.Launcher,
		registry:    p.Registry,
		engine:      p.Engine,
		journal:     p.Journal,
		clock:       p.Clock,
		logger:      p.Logger,
		projectPath: p.ProjectPath,
		configPath:  p.ConfigPath,
		threshold:   p.MessageThreshold,
		interval:    p.PollInterval,
	}
}

// Run polls the transcript until ctx is cancelled, evaluating skills
// once enough messages have accumulated. On exit every observer still
// registered is stopped.
func (m *Manager) Run(ctx context.Context) error {
	m.logStartup(ctx)

	var pending []domain.Message

	for ctx.Err() == nil {
		batch, err := m.tracker.Poll(ctx)
		if err != nil {
			break
		}
		if len(batch) > 0 {
			pending = append(pending, batch...)
			m.logger.Debug("new messages",
				zap.Int("count", len(batch)),
				zap.Int("pending", len(pending)))
		}

		if len(pending) >= m.threshold {
			m.evaluate(context.WithoutCancel(ctx), pending)
			pending = pending[:0]
		}

		if err := m.clock.Sleep(ctx, m.interval); err != nil {
			break
		}
	}

	return m.drain(context.WithoutCancel(ctx))
}

// EvaluateOnce asks the engine for a decision over whatever messages a
// single poll yields, without acting on it. ErrNoMessages is returned
// when the transcript has nothing to evaluate.
func (m *Manager) EvaluateOnce(ctx context.Context) (domain.Decision, error) {
	messages, err := m.tracker.Poll(ctx)
	if err != nil {
		return domain.Decision{}, fmt.Errorf("poll transcript: %w", err)
	}
	if len(messages) == 0 {
		return domain.Decision{}, ErrNoMessages
	}

	skills, err := m.catalog.List(ctx)
	if err != nil {
		return domain.Decision{}, fmt.Errorf("list skills: %w", err)
	}
	running, err := m.registry.Running(ctx)
	if err != nil {
		return domain.Decision{}, fmt.Errorf("list running observers: %w", err)
	}

	return m.decide(ctx, messages, skills, running)
}

// StopObserver stops one running observer by name.
func (m *Manager) StopObserver(ctx context.Context, name string) error {
	running, err := m.registry.Running(ctx)
	if err != nil {
		return fmt.Errorf("list running observers: %w", err)
	}

	pid, ok := running[name]
	if !ok {
		return fmt.Errorf("%w: no running observer %q", domain.ErrSkillNotFound, name)
	}
	if err := m.launcher.Stop(ctx, name, pid); err != nil {
		return fmt.Errorf("stop observer %q: %w", name, err)
	}

	m.record(ctx, name, domain.EventStop, fmt.Sprintf("pid %d", pid))
	return nil
}

// StopAll stops every registered observer and reports how many were
// signalled.
func (m *Manager) StopAll(ctx context.Context) (int, error) {
	running, err := m.registry.Running(ctx)
	if err != nil {
		return 0, fmt.Errorf("list running observers: %w", err)
	}

	stopped := 0
	for _, name := range sortedNames(running) {
		if err := m.launcher.Stop(ctx, name, running[name]); err != nil {
			m.logger.Warn("stop observer failed",
				zap.String("skill", name),
				zap.Error(err))
			continue
		}
		m.record(ctx, name, domain.EventStop, fmt.Sprintf("pid %d", running[name]))
		stopped++
	}

	return stopped, nil
}

func (m *Manager) logStartup(ctx context.Context) {
	skills, err := m.catalog.List(ctx)
	if err != nil {
		m.logger.Warn("list skills", zap.Error(err))
	}
	running, err := m.registry.Running(ctx)
	if err != nil {
		m.logger.Warn("list running observers", zap.Error(err))
	}

	m.logger.Info("manager started",
		zap.String("project", m.projectPath),
		zap.Int("message_threshold", m.threshold),
		zap.Duration("poll_interval", m.interval),
		zap.Strings("skills", skills),
		zap.Strings("running", sortedNames(running)))
}

func (m *Manager) evaluate(ctx context.Context, pending []domain.Message) {
	m.logger.Info("evaluating skills", zap.Int("messages", len(pending)))

	skills, err := m.catalog.List(ctx)
	if err != nil {
		m.logger.Warn("list skills", zap.Error(err))
		return
	}
	running, err := m.registry.Running(ctx)
	if err != nil {
		m.logger.Warn("list running observers", zap.Error(err))
		return
	}

	decision, err := m.decide(ctx, pending, skills, running)
	if err != nil {
		m.logger.Warn("skill evaluation failed", zap.Error(err))
		return
	}

	m.logger.Info("decision",
		zap.Strings("start", decision.Start),
		zap.Strings("stop", decision.Stop),
		zap.Int("new", len(decision.Create)),
		zap.String("reason", decision.Reason))
	m.record(ctx, "", domain.EventDecision, decision.Reason)

	m.apply(ctx, decision, skills, running)
}

func (m *Manager) decide(ctx context.Context, messages []domain.Message, skills []string, running map[string]int) (domain.Decision, error) {
	prompt := decisionPrompt(messages, skillSummaries(ctx, m.catalog, skills), sortedNames(running))

	response, err := m.engine.Complete(ctx, prompt)
	if err != nil {
		return domain.Decision{}, fmt.Errorf("complete decision prompt: %w", err)
	}

	decision, err := domain.ParseDecision(response)
	if err != nil {
		return domain.Decision{}, fmt.Errorf("parse decision: %w", err)
	}
	return decision, nil
}

func (m *Manager) apply(ctx context.Context, decision domain.Decision, skills []string, running map[string]int) {
	for _, proposal := range decision.Create {
		if err := domain.ValidateSkillName(proposal.Name); err != nil {
			m.logger.Warn("rejected proposed skill", zap.Error(err))
			continue
		}
		if _, ok := running[proposal.Name]; ok {
			continue
		}
		skill := domain.Skill{Name: proposal.Name, Description: proposal.Description}
		if pid := m.spawn(ctx, skill, true); pid > 0 {
			running[proposal.Name] = pid
		}
	}

	for _, name := range decision.Start {
		if _, ok := running[name]; ok {
			m.logger.Info("observer already running", zap.String("skill", name))
			continue
		}
		if !slices.Contains(skills, name) {
			m.logger.Warn("cannot start unknown skill", zap.String("skill", name))
			continue
		}
		skill := domain.Skill{Name: name, Description: "Knowledge about " + name}
		if pid := m.spawn(ctx, skill, false); pid > 0 {
			running[name] = pid
		}
	}

	for _, name := range decision.Stop {
		pid, ok := running[name]
		if !ok {
			continue
		}
		if err := m.launcher.Stop(ctx, name, pid); err != nil {
			m.logger.Warn("stop observer failed",
				zap.String("skill", name),
				zap.Error(err))
		} else {
			m.record(ctx, name, domain.EventStop, fmt.Sprintf("pid %d", pid))
		}
		delete(running, name)
	}
}

func (m *Manager) spawn(ctx context.Context, skill domain.Skill, includeHistory bool) int {
	spec := domain.SpawnSpec{
		Skill:          skill,
		ProjectPath:    m.projectPath,
		ConfigPath:     m.configPath,
		IncludeHistory: includeHistory,
	}

	pid, err := m.launcher.Spawn(ctx, spec)
	if err != nil {
		m.logger.Error("spawn observer failed",
			zap.String("skill", skill.Name),
			zap.Error(err))
		return 0
	}

	m.record(ctx, skill.Name, domain.EventSpawn, fmt.Sprintf("pid %d", pid))
	return pid
}

func (m *Manager) drain(ctx context.Context) error {
	stopped, err := m.StopAll(ctx)
	if err != nil {
		return err
	}

	m.logger.Info("manager stopped", zap.Int("observers_stopped", stopped))
	return nil
}

func (m *Manager) record(ctx context.Context, skill, event, detail string) {
	entry := domain.JournalEntry{
		OccurredAt: m.clock.Now(),
		Process:    domain.ProcessManager,
		Skill:      skill,
		Event:      event,
		Detail:     detail,
	}
	if err := m.journal.Record(ctx, entry); err != nil {
		m.logger.Debug("journal write failed", zap.Error(err))
	}
}

func sortedNames(running map[string]int) []string {
	names := make([]string, 0, len(running))
	for name := range running {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
