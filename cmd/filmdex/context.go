package main

import (
	"log/slog"
	"strings"
	"sync"

	"filmdex/internal/config"
	"filmdex/internal/logging"
	"filmdex/internal/schema"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		if err := schema.VerifyFieldGroups(); err != nil {
			c.configErr = err
			return
		}
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

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		logCfg := *cfg
		switch strings.TrimSpace(logCfg.Logging.Format) {
		case "", "auto":
			logCfg.Logging.Format = terminalLogFormat()
		}
		c.logger, c.loggerErr = logging.NewFromConfig(&logCfg)
	})
	return c.logger, c.loggerErr
}
