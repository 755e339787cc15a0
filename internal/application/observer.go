package application

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"

	"skillwatch/internal/domain"
	"skillwatch/internal/ports"
)

const indexRefreshEvery = 3

type ObserverParams struct {
	Tracker  ports.TranscriptTracker
	Store    ports.SkillStore
	Registry ports.WorkerRegistry
	Engine   ports.ReasoningEngine
	Journal  ports.Journal
	Clock    ports.Clock
	Logger   *zap.Logger

	Skill            domain.Skill
	Pid              int
	MaxSkillBytes    int
	MaxIndexBytes    int
	MessageThreshold int
	PollInterval     time.Duration
}

type Observer struct {
	tracker  ports.TranscriptTracker
	store    ports.SkillStore
	registry ports.WorkerRegistry
	engine   ports.ReasoningEngine
	journal  ports.Journal
	clock    ports.Clock
	logger   *zap.Logger

	skill         domain.Skill
	pid           int
	maxSkillBytes int
	maxIndexBytes int
	threshold     int
	interval      time.Duration

	distills int
}

func NewObserver(p ObserverParams) *Observer {
	if p.Clock == nil {
		p.Clock = ports.SystemClock{}
	}
	if p.Logger == nil {
		p.Logger = zap.NewNop()
	}

	return &Observer{
		tracker:       p.Tracker,
		store:         p.Store,
		registry:      p.Registry,
		engine:        p.Engine,
		journal:       p.Journal,
		clock:         p.Clock,
		logger:        p.Logger,
		skill:         p.Skill,
		pid:           p.Pid,
		maxSkillBytes: p.MaxSkillBytes,
		maxIndexBytes: p.MaxIndexBytes,
		threshold:     p.MessageThreshold,
		interval:      p.PollInterval,
	}
}

// Run registers the observer's pid and polls the transcript until ctx
// is cancelled. Pending messages are distilled into the skill whenever
// the threshold is reached, and once more on the way out so nothing
// observed is left behind. The pid file is removed on exit.
func (o *Observer) Run(ctx context.Context) error {
	if err := o.registry.Write(ctx, o.skill.Name, o.pid); err != nil {
		return fmt.Errorf("register observer: %w", err)
	}
	defer func() {
		cleanupCtx := context.WithoutCancel(ctx)
		if err := o.registry.Remove(cleanupCtx, o.skill.Name); err != nil {
			o.logger.Warn("remove pid file", zap.Error(err))
		}
		o.logger.Info("observer stopped", zap.String("skill", o.skill.Name))
	}()

	o.logger.Info("observer started",
		zap.String("skill", o.skill.Name),
		zap.String("description", o.skill.Description),
		zap.Int("pid", o.pid),
		zap.Int("message_threshold", o.threshold),
		zap.Duration("poll_interval", o.interval))

	var pending []domain.Message

	for {
		shutdown := ctx.Err() != nil

		if !shutdown {
			batch, err := o.tracker.Poll(ctx)
			if err != nil {
				shutdown = true
			} else if len(batch) > 0 {
				pending = append(pending, batch...)
				o.logger.Info("new messages",
					zap.Int("count", len(batch)),
					zap.Int("pending", len(pending)))
			}
		}

		if len(pending) > 0 && (len(pending) >= o.threshold || shutdown) {
			if shutdown {
				o.logger.Info("final distillation before shutdown")
			}
			o.distill(context.WithoutCancel(ctx), pending, shutdown)
			pending = pending[:0]
		}

		if shutdown {
			return nil
		}

		if err := o.clock.Sleep(ctx, o.interval); err != nil {
			continue
		}
	}
}

// distill runs one engine pass over the pending messages. The skill is
// only touched when the response carries replacement details content;
// resource files and the periodic index refresh ride along with it.
func (o *Observer) distill(ctx context.Context, pending []domain.Message, final bool) {
	o.logger.Info("distilling", zap.Int("messages", len(pending)))

	details, err := o.store.ReadDetails(ctx)
	if err != nil {
		o.logger.Warn("read details", zap.Error(err))
		return
	}
	resources, err := o.store.ListResources(ctx)
	if err != nil {
		o.logger.Warn("list resources", zap.Error(err))
		return
	}

	prompt := distillPrompt(o.skill, details, resources, pending, o.maxSkillBytes)
	response, err := o.engine.Complete(ctx, prompt)
	if err != nil {
		o.logger.Warn("distillation call failed", zap.Error(err))
		return
	}

	result := domain.ParseDistillation(response)
	if result.Details == "" {
		o.logger.Info("no relevant updates")
		return
	}

	if err := o.store.WriteDetails(ctx, result.Details); err != nil {
		o.logger.Error("write details", zap.Error(err))
		return
	}
	o.distills++
	o.logger.Info("updated details", zap.Int("bytes", len(result.Details)))
	o.record(ctx, domain.EventDistill, fmt.Sprintf("%d bytes", len(result.Details)))

	o.writeResources(ctx, result.Resources)

	if o.distills%indexRefreshEvery == 0 || final {
		o.refreshIndex(ctx, result.Details)
	}
}

func (o *Observer) writeResources(ctx context.Context, resources map[string]string) {
	names := make([]string, 0, len(resources))
	for name := range resources {
		names = append(names, name)
	}
	slices.Sort(names)

	for _, name := range names {
		if err := o.store.WriteResource(ctx, name, resources[name]); err != nil {
			o.logger.Warn("write resource",
				zap.String("resource", name),
				zap.Error(err))
			continue
		}
		o.logger.Info("created resource",
			zap.String("resource", name),
			zap.Int("bytes", len(resources[name])))
	}
}

func (o *Observer) refreshIndex(ctx context.Context, details string) {
	response, err := o.engine.Complete(ctx, summarizePrompt(o.skill, details, o.maxIndexBytes))
	if err != nil {
		o.logger.Warn("index summarization failed", zap.Error(err))
		return
	}

	index := domain.TruncateBytes(strings.TrimSpace(response), o.maxIndexBytes)
	if index == "" {
		return
	}
	if err := o.store.WriteIndex(ctx, index); err != nil {
		o.logger.Error("write index", zap.Error(err))
		return
	}

	o.logger.Info("updated index", zap.Int("bytes", len(index)))
	o.record(ctx, domain.EventSummarize, fmt.Sprintf("%d bytes", len(index)))
}

func (o *Observer) record(ctx context.Context, event, detail string) {
	entry := domain.JournalEntry{
		OccurredAt: o.clock.Now(),
		Process:    domain.ProcessObserver,
		Skill:      o.skill.Name,
		Event:      event,
		Detail:     detail,
	}
	if err := o.journal.Record(ctx, entry); err != nil {
		o.logger.Debug("journal write failed", zap.Error(err))
	}
}
