package main

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"bookreel/internal/config"
	"bookreel/internal/cost"
	"bookreel/internal/jobstore"
	"bookreel/internal/logging"
	"bookreel/internal/muxer"
	"bookreel/internal/orchestrator"
	"bookreel/internal/qc"
	"bookreel/internal/resultcache"
	"bookreel/internal/services/imagegen"
	"bookreel/internal/services/scriptgen"
	"bookreel/internal/services/videogen"
	"bookreel/internal/storage"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) newLogger() (*slog.Logger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return logger, nil
}

// buildEngine wires the full generation stack from configuration.
func (c *commandContext) buildEngine(logger *slog.Logger) (*orchestrator.Engine, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}

	store, err := storage.NewLocal(cfg.Paths.DataDir, logger)
	if err != nil {
		return nil, fmt.Errorf("init artifact store: %w", err)
	}

	cachePath := cfg.Cache.Path
	if !cfg.Cache.Enabled {
		cachePath = ""
	}
	cache := resultcache.New(cachePath, time.Duration(cfg.Cache.TTLDays)*24*time.Hour, logger)

	engine := orchestrator.NewEngine(cfg, orchestrator.Dependencies{
		Scripts:    scriptgen.NewClient(cfg.Providers.Script),
		Images:     imagegen.NewClient(cfg.Providers.Image),
		Videos:     videogen.NewClient(cfg.Providers.Video),
		Store:      store,
		Cache:      cache,
		Gate:       qc.New(cfg, logger),
		Accountant: cost.New(cfg, logger),
		Assembler:  muxer.NewFFmpeg(logger, muxer.WithBinary(cfg.FFmpegBinary())),
	}, logger)

	return engine, nil
}

func (c *commandContext) openResultCache(logger *slog.Logger) (*resultcache.Cache, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	if !cfg.Cache.Enabled || strings.TrimSpace(cfg.Cache.Path) == "" {
		return nil, nil
	}
	return resultcache.New(cfg.Cache.Path, time.Duration(cfg.Cache.TTLDays)*24*time.Hour, logger), nil
}

func (c *commandContext) openJobStore() (*jobstore.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return jobstore.Open(cfg)
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
