package main

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"flowboard/internal/config"
	"flowboard/internal/logging"
	"flowboard/internal/store"
	"flowboard/internal/workflow"
)

type commandContext struct {
	configFlag *string
	asFlag     *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag, asFlag *string) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		asFlag:     asFlag,
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

// withStore opens the data store for the duration of one command invocation.
// The store holds the single-writer lock, so it is opened late and closed as
// soon as the command returns.
func (c *commandContext) withStore(fn func(*store.Store) error) error {
	return c.withStoreLogger(func(st *store.Store, _ *slog.Logger) error {
		return fn(st)
	})
}

func (c *commandContext) withStoreLogger(fn func(*store.Store, *slog.Logger) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return err
	}
	st, err := store.Open(cfg, logger)
	if err != nil {
		if errors.Is(err, store.ErrLocked) {
			return fmt.Errorf("another flowboard process is using the data directory: %w", err)
		}
		return err
	}
	defer st.Close()
	return fn(st, logger)
}

func (c *commandContext) withEngine(fn func(*store.Store, *workflow.Engine) error) error {
	return c.withStoreLogger(func(st *store.Store, logger *slog.Logger) error {
		return fn(st, workflow.NewEngine(st, logger))
	})
}

// actingUser resolves the user performing the command: the --as flag first,
// then the stored default user, then the config fallback.
func (c *commandContext) actingUser(st *store.Store) (string, error) {
	if c.asFlag != nil {
		if id := strings.TrimSpace(*c.asFlag); id != "" {
			if _, err := st.UserByID(id); err != nil {
				return "", fmt.Errorf("acting user %q: %w", id, err)
			}
			return id, nil
		}
	}
	if id := st.Settings().DefaultUserID; id != "" {
		return id, nil
	}
	cfg, err := c.ensureConfig()
	if err != nil {
		return "", err
	}
	if id := cfg.Defaults.ActingUser; id != "" {
		if _, err := st.UserByID(id); err != nil {
			return "", fmt.Errorf("configured acting user %q: %w", id, err)
		}
		return id, nil
	}
	return "", errors.New("no acting user: pass --as or set defaults.acting_user in the config")
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
