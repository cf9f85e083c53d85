package main

import (
	"strings"
	"sync"

	"greenhouse/internal/config"
	"greenhouse/internal/plants"
	"greenhouse/internal/queue"
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

// withStores opens the shared database for the duration of one command. The
// daemon may hold the same file; SQLite's WAL mode and the store's busy
// retries make concurrent access safe.
func (c *commandContext) withStores(fn func(cfg *config.Config, store *queue.Store, plantStore *plants.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	store, err := queue.Open(cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(cfg, store, plants.NewStore(store.DB()))
}
