package main

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/Phoenix-070/Edutranscribe/config"
	"github.com/Phoenix-070/Edutranscribe/internal/audio"
	"github.com/Phoenix-070/Edutranscribe/internal/cache"
	"github.com/Phoenix-070/Edutranscribe/internal/chat"
	"github.com/Phoenix-070/Edutranscribe/internal/logger"
	"github.com/Phoenix-070/Edutranscribe/internal/pipeline"
	"github.com/Phoenix-070/Edutranscribe/internal/remote"
	"github.com/Phoenix-070/Edutranscribe/internal/workspace"
	"github.com/Phoenix-070/Edutranscribe/pkg/executor"
)

// commandContext builds the client-side components once per invocation.
type commandContext struct {
	configFlag  *string
	sessionFlag *string

	configOnce sync.Once
	config     config.CLIConfig
	configErr  error

	log    *logrus.Logger
	client *remote.Client

	pipelineOnce sync.Once
	pipeline     *pipeline.Pipeline
	pipelineErr  error
}

func newCommandContext(configFlag, sessionFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag, sessionFlag: sessionFlag}
}

func (c *commandContext) ensureConfig() (config.CLIConfig, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, err := config.LoadCLI(path)
		if err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.log = logger.NewWith(os.Stderr, cfg.LogLevel, "text")
		c.client = remote.NewClient(remote.Config{
			BaseURL: cfg.Server,
			Token:   cfg.Token,
			Timeout: cfg.Timeout(),
		})
	})
	return c.config, c.configErr
}

func (c *commandContext) session() string {
	if c.sessionFlag == nil || strings.TrimSpace(*c.sessionFlag) == "" {
		return "default"
	}
	return strings.TrimSpace(*c.sessionFlag)
}

// ensurePipeline wires the workspace backend and the audio port chosen in the
// configuration.
func (c *commandContext) ensurePipeline() (*pipeline.Pipeline, error) {
	c.pipelineOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.pipelineErr = err
			return
		}
		backend, err := c.workspaceBackend(cfg)
		if err != nil {
			c.pipelineErr = err
			return
		}

		exec := executor.New()
		var port audio.Port
		switch cfg.Audio {
		case config.AudioLocal:
			port = audio.NewLocalPort(cfg.SpeechCommand, exec)
		default:
			port = audio.NewRemotePort(c.client, cfg.Player, exec)
		}
		player := audio.NewManager(port, c.log)
		player.OnEvent(func(e audio.Event) {
			c.log.WithFields(logrus.Fields{"session": e.Session, "state": e.State, "outcome": e.Outcome}).Debug("playback")
		})

		c.pipeline = pipeline.New(workspace.New(backend), c.client, player, c.log)
	})
	return c.pipeline, c.pipelineErr
}

func (c *commandContext) workspaceBackend(cfg config.CLIConfig) (workspace.Backend, error) {
	switch cfg.Workspace {
	case config.WorkspaceRedis:
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("redis_url: %w", err)
		}
		return workspace.NewCacheBackend(cache.NewRedisCache(redis.NewClient(opt), cache.WithNamespace("edutranscribe-cli")), c.session(), 0), nil
	default:
		return workspace.NewFileBackend(cfg.WorkspaceDir, c.session())
	}
}

// chatManager keeps one session per document for this invocation.
func (c *commandContext) chatManager() (*chat.Manager, error) {
	if _, err := c.ensureConfig(); err != nil {
		return nil, err
	}
	return chat.NewManager(c.client, c.log), nil
}
