package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
)

const (
	FileName = "skillwatch.toml"

	configType = "toml"

	keySkillsDir         = "skills_dir"
	keyTranscriptsRoot   = "transcripts_root"
	keyMaxSkillBytes     = "max_skill_bytes"
	keyMaxIndexBytes     = "max_index_bytes"
	keyManagerThreshold  = "manager.message_threshold"
	keyManagerInterval   = "manager.poll_interval"
	keyObserverThreshold = "observer.message_threshold"
	keyObserverInterval  = "observer.poll_interval"
	keyEngineCommand     = "engine.command"
	keyEngineModel       = "engine.model"
	keyEngineTimeout     = "engine.timeout"

	defaultSkillsDir       = "skills"
	defaultTranscriptsRoot = "~/.claude/projects"
	defaultMaxSkillBytes   = 32768
	defaultMaxIndexBytes   = 4096
	defaultThreshold       = 5
	defaultEngineCommand   = "claude"
	defaultEngineModel     = "sonnet"

	defaultManagerInterval  = 30 * time.Second
	defaultObserverInterval = 10 * time.Second
	defaultEngineTimeout    = 5 * time.Minute

	minSkillBytes   = 1024
	minIndexBytes   = 256
	minThreshold    = 1
	minPollInterval = time.Second

	fileMode        = 0o644
	dirMode         = 0o755
	tempFilePattern = ".skillwatch-*.toml.tmp"
)

type LoopConfig struct {
	MessageThreshold int
	PollInterval     time.Duration
}

type EngineConfig struct {
	Command string
	Model   string
	Timeout time.Duration
}

type Config struct {
	SkillsDir       string
	TranscriptsRoot string
	MaxSkillBytes   int
	MaxIndexBytes   int
	Manager         LoopConfig
	Observer        LoopConfig
	Engine          EngineConfig
}

func Default() *Config {
	return &Config{
		SkillsDir:       defaultSkillsDir,
		TranscriptsRoot: defaultTranscriptsRoot,
		MaxSkillBytes:   defaultMaxSkillBytes,
		MaxIndexBytes:   defaultMaxIndexBytes,
		Manager:         LoopConfig{MessageThreshold: defaultThreshold, PollInterval: defaultManagerInterval},
		Observer:        LoopConfig{MessageThreshold: defaultThreshold, PollInterval: defaultObserverInterval},
		Engine:          EngineConfig{Command: defaultEngineCommand, Model: defaultEngineModel, Timeout: defaultEngineTimeout},
	}
}

// Load reads the configuration file, falling back to defaults for any
// missing key. An explicit path that does not exist yields defaults; a
// file that exists but cannot be parsed is an error. When path is
// empty the search dirs are probed for skillwatch.toml.
func Load(path string, searchDirs ...string) (*Config, error) {
	v := viper.New()
	v.SetConfigType(configType)
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(strings.TrimSuffix(FileName, ".toml"))
		for _, dir := range searchDirs {
			v.AddConfigPath(dir)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := &Config{
		SkillsDir:       v.GetString(keySkillsDir),
		TranscriptsRoot: v.GetString(keyTranscriptsRoot),
		MaxSkillBytes:   v.GetInt(keyMaxSkillBytes),
		MaxIndexBytes:   v.GetInt(keyMaxIndexBytes),
		Manager: LoopConfig{
			MessageThreshold: v.GetInt(keyManagerThreshold),
			PollInterval:     v.GetDuration(keyManagerInterval),
		},
		Observer: LoopConfig{
			MessageThreshold: v.GetInt(keyObserverThreshold),
			PollInterval:     v.GetDuration(keyObserverInterval),
		},
		Engine: EngineConfig{
			Command: v.GetString(keyEngineCommand),
			Model:   v.GetString(keyEngineModel),
			Timeout: v.GetDuration(keyEngineTimeout),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.expandTranscriptsRoot(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(keySkillsDir, defaultSkillsDir)
	v.SetDefault(keyTranscriptsRoot, defaultTranscriptsRoot)
	v.SetDefault(keyMaxSkillBytes, defaultMaxSkillBytes)
	v.SetDefault(keyMaxIndexBytes, defaultMaxIndexBytes)
	v.SetDefault(keyManagerThreshold, defaultThreshold)
	v.SetDefault(keyManagerInterval, defaultManagerInterval.String())
	v.SetDefault(keyObserverThreshold, defaultThreshold)
	v.SetDefault(keyObserverInterval, defaultObserverInterval.String())
	v.SetDefault(keyEngineCommand, defaultEngineCommand)
	v.SetDefault(keyEngineModel, defaultEngineModel)
	v.SetDefault(keyEngineTimeout, defaultEngineTimeout.String())
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.SkillsDir) == "" {
		return errors.New("skills_dir is required")
	}
	if strings.TrimSpace(c.TranscriptsRoot) == "" {
		return errors.New("transcripts_root is required")
	}
	if c.MaxSkillBytes < minSkillBytes {
		return fmt.Errorf("max_skill_bytes must be at least %d, got %d", minSkillBytes, c.MaxSkillBytes)
	}
	if c.MaxIndexBytes < minIndexBytes {
		return fmt.Errorf("max_index_bytes must be at least %d, got %d", minIndexBytes, c.MaxIndexBytes)
	}
	if err := c.Manager.validate("manager"); err != nil {
		return err
	}
	if err := c.Observer.validate("observer"); err != nil {
		return err
	}
	if strings.TrimSpace(c.Engine.Command) == "" {
		return errors.New("engine.command is required")
	}
	if c.Engine.Timeout < time.Second {
		return fmt.Errorf("engine.timeout must be at least 1s, got %s", c.Engine.Timeout)
	}

	return nil
}

func (l LoopConfig) validate(section string) error {
	if l.MessageThreshold < minThreshold {
		return fmt.Errorf("%s.message_threshold must be at least %d, got %d", section, minThreshold, l.MessageThreshold)
	}
	if l.PollInterval < minPollInterval {
		return fmt.Errorf("%s.poll_interval must be at least %s, got %s", section, minPollInterval, l.PollInterval)
	}

	return nil
}

// ResolveSkillsDir joins a relative skills_dir onto the project path.
func (c *Config) ResolveSkillsDir(projectPath string) string {
	if filepath.IsAbs(c.SkillsDir) {
		return filepath.Clean(c.SkillsDir)
	}
	return filepath.Join(projectPath, c.SkillsDir)
}

func (c *Config) expandTranscriptsRoot() error {
	if !strings.HasPrefix(c.TranscriptsRoot, "~") {
		return nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("resolve home directory: %w", err)
	}
	c.TranscriptsRoot = filepath.Join(homeDir, strings.TrimPrefix(c.TranscriptsRoot, "~"))

	return nil
}

type fileSchema struct {
	SkillsDir       string        `toml:"skills_dir"`
	TranscriptsRoot string        `toml:"transcripts_root"`
	MaxSkillBytes   int           `toml:"max_skill_bytes"`
	MaxIndexBytes   int           `toml:"max_index_bytes"`
	Manager         sectionSchema `toml:"manager"`
	Observer        sectionSchema `toml:"observer"`
	Engine          engineSchema  `toml:"engine"`
}

type sectionSchema struct {
	MessageThreshold int    `toml:"message_threshold"`
	PollInterval     string `toml:"poll_interval"`
}

type engineSchema struct {
	Command string `toml:"command"`
	Model   string `toml:"model"`
	Timeout string `toml:"timeout"`
}

func (c *Config) toSchema() fileSchema {
	return fileSchema{
		SkillsDir:       c.SkillsDir,
		TranscriptsRoot: c.TranscriptsRoot,
		MaxSkillBytes:   c.MaxSkillBytes,
		MaxIndexBytes:   c.MaxIndexBytes,
		Manager: sectionSchema{
			MessageThreshold: c.Manager.MessageThreshold,
			PollInterval:     c.Manager.PollInterval.String(),
		},
		Observer: sectionSchema{
			MessageThreshold: c.Observer.MessageThreshold,
			PollInterval:     c.Observer.PollInterval.String(),
		},
		Engine: engineSchema{
			Command: c.Engine.Command,
			Model:   c.Engine.Model,
			Timeout: c.Engine.Timeout.String(),
		},
	}
}

// Encode renders the configuration as TOML.
func (c *Config) Encode() ([]byte, error) {
	data, err := toml.Marshal(c.toSchema())
	if err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return data, nil
}

// Save writes the configuration atomically.
func (c *Config) Save(path string) error {
	data, err := c.Encode()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), dirMode); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	tempFile, err := os.CreateTemp(filepath.Dir(path), tempFilePattern)
	if err != nil {
		return fmt.Errorf("create temp config file: %w", err)
	}

	tempName := tempFile.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tempName)
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("write temp config file: %w", err)
	}

	if err := tempFile.Chmod(fileMode); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("chmod temp config file: %w", err)
	}

	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("close temp config file: %w", err)
	}

	if err := os.Rename(tempName, path); err != nil {
		return fmt.Errorf("replace config file: %w", err)
	}

	cleanup = false

	return nil
}
