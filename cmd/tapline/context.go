package main

import (
	"context"
	"os"
	"strings"
	"sync"

	"tapline/internal/capture"
	"tapline/internal/config"
	"tapline/internal/logging"
	"tapline/internal/queue"
	"tapline/internal/remote"
	"tapline/internal/roster"
	"tapline/internal/settings"
	"tapline/internal/sms"
	"tapline/internal/storage"
	"tapline/internal/syncer"
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

// environment bundles the stores and services a command needs. Commands run
// in-process against the shared database; the daemon's busy_timeout keeps
// concurrent access safe.
type environment struct {
	cfg      *config.Config
	db       *storage.DB
	roster   *roster.Store
	queue    *queue.Store
	remote   *remote.Client
	settings *settings.Store
	messages sms.Service
	syncer   *syncer.Syncer

	onlineOnce sync.Once
	online     bool
}

func (c *commandContext) withEnvironment(ctx context.Context, fn func(context.Context, *environment) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}

	logger, err := logging.New(logging.Options{
		Level:  "warn",
		Format: cfg.Logging.Format,
		Output: os.Stderr,
	})
	if err != nil {
		return err
	}

	db, err := storage.Open(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	settingsStore, err := settings.Open(cfg.SettingsPath(), cfg.Site.ID)
	if err != nil {
		return err
	}

	backend := remote.NewClient(cfg, logger)
	rosterStore := roster.NewStore(db)
	queueStore := queue.NewStore(db)
	messages := sms.NewService(cfg, logger)

	env := &environment{
		cfg:      cfg,
		db:       db,
		roster:   rosterStore,
		queue:    queueStore,
		remote:   backend,
		settings: settingsStore,
		messages: messages,
		syncer:   syncer.New(rosterStore, queueStore, backend, messages, settingsStore, cfg, logger),
	}
	return fn(ctx, env)
}

// isOnline probes the backend once per command invocation.
func (env *environment) isOnline(ctx context.Context) bool {
	env.onlineOnce.Do(func() {
		env.online = env.remote.Probe(ctx)
	})
	return env.online
}

func (env *environment) captureService(ctx context.Context) *capture.Service {
	return capture.NewService(env.roster, env.queue, env.remote, env.messages, env.settings,
		func() bool { return env.isOnline(ctx) }, env.cfg, nil)
}
