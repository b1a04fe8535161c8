package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/memberdesk/internal/app"
	"github.com/JonMunkholm/memberdesk/internal/config"
	"github.com/JonMunkholm/memberdesk/internal/core"
	"github.com/JonMunkholm/memberdesk/internal/logging"
)

type commandContext struct {
	envFile *string
	actor   *string

	configOnce sync.Once
	config     *config.Config
	logger     *slog.Logger
	configErr  error
}

func newCommandContext(envFile, actor *string) *commandContext {
	return &commandContext{envFile: envFile, actor: actor}
}

// ensureConfig loads the dotenv file, if any, then the environment. Logs
// go to stderr so stdout stays machine readable.
func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		if path := strings.TrimSpace(*c.envFile); path != "" {
			if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
				c.configErr = err
				return
			}
		}
		cfg, err := config.Load()
		if err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.logger = logging.New(os.Stderr, cfg.Logging.Level, cfg.Logging.Format)
	})
	return c.config, c.configErr
}

// withApp opens the stores for the duration of fn. The context passed to
// fn carries the CLI logger and the audit actor.
func (c *commandContext) withApp(ctx context.Context, fn func(context.Context, *app.App) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}

	a, err := app.Open(ctx, cfg, c.logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(context.WithoutCancel(ctx)); err != nil {
			c.logger.Warn("close failed", "error", err)
		}
	}()

	ctx = logging.WithLogger(ctx, c.logger)
	ctx = core.ContextWithActor(ctx, strings.TrimSpace(*c.actor))
	return fn(ctx, a)
}
