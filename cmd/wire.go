package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"skillwatch/internal/adapters/engine/claude"
	journalsqlite "skillwatch/internal/adapters/journal/sqlite"
	statusrender "skillwatch/internal/adapters/render/status"
	"skillwatch/internal/adapters/skilldir"
	"skillwatch/internal/adapters/supervisor"
	"skillwatch/internal/adapters/transcript"
	"skillwatch/internal/application"
	"skillwatch/internal/config"
	"skillwatch/internal/domain"
)

type app struct {
	configPath  string
	projectPath string
	verbose     bool

	cfg            *config.Config
	logger         *zap.Logger
	statusRenderer func([]application.SkillStatus, statusrender.RenderOptions) (string, error)
}

func newApp() *app {
	return &app{
		logger:         zap.NewNop(),
		statusRenderer: statusrender.Render,
	}
}

func (a *app) initLogger() error {
	logger, err := buildLogger(a.verbose, "")
	if err != nil {
		return err
	}
	a.logger = logger
	return nil
}

// redirectLogs rebuilds the logger onto a file; observers spawned with
// stdio on /dev/null report through it.
func (a *app) redirectLogs(logFile string) error {
	a.sync()
	logger, err := buildLogger(a.verbose, logFile)
	if err != nil {
		return err
	}
	a.logger = logger
	return nil
}

func (a *app) sync() {
	if a.logger != nil {
		_ = a.logger.Sync()
	}
}

func (a *app) project() (string, error) {
	if a.projectPath == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("resolve working directory: %w", err)
		}
		a.projectPath = wd
	}

	abs, err := filepath.Abs(a.projectPath)
	if err != nil {
		return "", fmt.Errorf("resolve project path: %w", err)
	}
	a.projectPath = abs
	return abs, nil
}

func (a *app) loadConfig() (*config.Config, error) {
	if a.cfg != nil {
		return a.cfg, nil
	}

	project, err := a.project()
	if err != nil {
		return nil, err
	}

	searchDirs := []string{project}
	if home, err := os.UserHomeDir(); err == nil {
		searchDirs = append(searchDirs, filepath.Join(home, ".config", "skillwatch"))
	}

	cfg, err := config.Load(a.configPath, searchDirs...)
	if err != nil {
		return nil, err
	}
	a.cfg = cfg
	return cfg, nil
}

func (a *app) skillsRoot() (string, error) {
	cfg, err := a.loadConfig()
	if err != nil {
		return "", err
	}
	project, err := a.project()
	if err != nil {
		return "", err
	}
	return cfg.ResolveSkillsDir(project), nil
}

func (a *app) transcriptDir() (string, error) {
	cfg, err := a.loadConfig()
	if err != nil {
		return "", err
	}
	project, err := a.project()
	if err != nil {
		return "", err
	}
	return transcript.ProjectDir(cfg.TranscriptsRoot, project), nil
}

func (a *app) buildManager(includeHistory bool) (*application.Manager, func(), error) {
	cfg, err := a.loadConfig()
	if err != nil {
		return nil, nil, err
	}
	project, err := a.project()
	if err != nil {
		return nil, nil, err
	}
	root, err := a.skillsRoot()
	if err != nil {
		return nil, nil, err
	}
	transcripts, err := a.transcriptDir()
	if err != nil {
		return nil, nil, err
	}

	execPath, err := os.Executable()
	if err != nil {
		return nil, nil, fmt.Errorf("resolve executable path: %w", err)
	}

	journal, err := journalsqlite.Open(root)
	if err != nil {
		return nil, nil, fmt.Errorf("open journal: %w", err)
	}

	mgr := application.NewManager(application.ManagerParams{
		Tracker:          transcript.NewTracker(transcripts, !includeHistory, a.logger),
		Catalog:          skilldir.NewCatalog(root),
		Launcher:         supervisor.NewLauncher(execPath, root, a.logger),
		Registry:         supervisor.NewRegistry(root, a.logger),
		Engine:           claude.NewClient(cfg.Engine.Command, cfg.Engine.Model, cfg.Engine.Timeout, a.logger),
		Journal:          journal,
		Logger:           a.logger,
		ProjectPath:      project,
		ConfigPath:       a.configPath,
		MessageThreshold: cfg.Manager.MessageThreshold,
		PollInterval:     cfg.Manager.PollInterval,
	})

	return mgr, func() { _ = journal.Close() }, nil
}

func (a *app) buildObserver(skill domain.Skill, includeHistory bool) (*application.Observer, func(), error) {
	cfg, err := a.loadConfig()
	if err != nil {
		return nil, nil, err
	}
	root, err := a.skillsRoot()
	if err != nil {
		return nil, nil, err
	}
	transcripts, err := a.transcriptDir()
	if err != nil {
		return nil, nil, err
	}

	journal, err := journalsqlite.Open(root)
	if err != nil {
		return nil, nil, fmt.Errorf("open journal: %w", err)
	}

	obs := application.NewObserver(application.ObserverParams{
		Tracker:          transcript.NewTracker(transcripts, !includeHistory, a.logger),
		Store:            skilldir.NewStore(root, skill.Name),
		Registry:         supervisor.NewRegistry(root, a.logger),
		Engine:           claude.NewClient(cfg.Engine.Command, cfg.Engine.Model, cfg.Engine.Timeout, a.logger),
		Journal:          journal,
		Logger:           a.logger,
		Skill:            skill,
		Pid:              os.Getpid(),
		MaxSkillBytes:    cfg.MaxSkillBytes,
		MaxIndexBytes:    cfg.MaxIndexBytes,
		MessageThreshold: cfg.Observer.MessageThreshold,
		PollInterval:     cfg.Observer.PollInterval,
	})

	return obs, func() { _ = journal.Close() }, nil
}

func (a *app) buildStatusService() (*application.StatusService, func(), error) {
	root, err := a.skillsRoot()
	if err != nil {
		return nil, nil, err
	}

	journal, err := journalsqlite.Open(root)
	if err != nil {
		return nil, nil, fmt.Errorf("open journal: %w", err)
	}

	svc := application.NewStatusService(
		skilldir.NewCatalog(root),
		supervisor.NewRegistry(root, a.logger),
		journal,
	)

	return svc, func() { _ = journal.Close() }, nil
}
