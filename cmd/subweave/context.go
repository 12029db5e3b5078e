package main

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"

	"subweave/internal/config"
	"subweave/internal/logging"
	"subweave/internal/syncer"
	"subweave/internal/translate"
)

type commandContext struct {
	configFlag   *string
	logLevelFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
}

func newCommandContext(configFlag, logLevelFlag *string) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		logLevelFlag: logLevelFlag,
	}
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

// buildLogger honors the configured format but falls back to JSON when
// stderr is not a terminal, so piped output stays machine-readable. When a
// log directory is configured the same stream is appended to subweave.log.
func (c *commandContext) buildLogger() *slog.Logger {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil || cfg == nil {
			c.logger = logging.NewNop()
			return
		}
		format := cfg.Logging.Format
		if format == "console" && !isatty.IsTerminal(os.Stderr.Fd()) && !isatty.IsCygwinTerminal(os.Stderr.Fd()) {
			format = "json"
		}
		level := cfg.Logging.Level
		if c.logLevelFlag != nil && strings.TrimSpace(*c.logLevelFlag) != "" {
			level = strings.TrimSpace(*c.logLevelFlag)
		}
		var output io.Writer = os.Stderr
		if cfg.Paths.LogDir != "" {
			if file, fileErr := logging.EnsureLogFile(filepath.Join(cfg.Paths.LogDir, "subweave.log")); fileErr == nil {
				output = io.MultiWriter(os.Stderr, file)
			}
		}
		logger, err := logging.New(logging.Options{Level: level, Format: format, Output: output})
		if err != nil {
			c.logger = logging.NewNop()
			return
		}
		c.logger = logger
	})
	return c.logger
}

// buildTranslator returns the configured translation client, or nil when
// translation is disabled.
func (c *commandContext) buildTranslator() syncer.Translator {
	cfg, err := c.ensureConfig()
	if err != nil || cfg == nil || !cfg.Translation.Enabled {
		return nil
	}
	return translate.NewClient(translate.Config{
		APIKey:         cfg.Translation.APIKey,
		BaseURL:        cfg.Translation.BaseURL,
		TimeoutSeconds: cfg.Translation.TimeoutSeconds,
	})
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
