package main

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/irfansharif/curaq/pkg/browser"
	"github.com/irfansharif/curaq/pkg/browser/fetch"
	"github.com/irfansharif/curaq/pkg/browser/safari"
	"github.com/irfansharif/curaq/pkg/channel"
	"github.com/irfansharif/curaq/pkg/client"
	"github.com/irfansharif/curaq/pkg/config"
	"github.com/irfansharif/curaq/pkg/contentscript"
	"github.com/irfansharif/curaq/pkg/credential"
	"github.com/irfansharif/curaq/pkg/extractor"
	"github.com/irfansharif/curaq/pkg/kv"
	"github.com/irfansharif/curaq/pkg/logging"
	"github.com/irfansharif/curaq/pkg/notify"
	"github.com/irfansharif/curaq/pkg/saver"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		if path == "" {
			c.config, c.configErr = config.Load()
			return
		}
		c.config, c.configErr = config.LoadFile(path)
	})
	return c.config, c.configErr
}

// app is one process's worth of wiring: the background coordinator
// listening on the bus, with the tab source chosen by configuration.
type app struct {
	cfg    config.Config
	logger *logrus.Logger
	bus    *channel.Bus
	host   browser.Host
	client *client.Client
	saver  *saver.Saver

	closers []io.Closer
	stop    func()
}

// withApp builds the app, runs fn, and tears the app down. A nil host
// selects the one named by the browser setting.
func (c *commandContext) withApp(host browser.Host, fn func(*app) error) (err error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	a, err := newApp(cfg, host)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, a.close())
	}()
	return fn(a)
}

func newApp(cfg config.Config, host browser.Host) (*app, error) {
	logger, logCloser, err := logging.New(logging.Options{Level: cfg.LogLevel, Path: cfg.LogFile})
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, logger: logger, closers: []io.Closer{logCloser}}

	store, err := openStore(cfg)
	if err != nil {
		_ = a.close()
		return nil, err
	}
	a.closers = append(a.closers, store)

	if host == nil {
		switch cfg.Browser {
		case "fetch":
			host = fetch.New()
		default:
			host = safari.New()
		}
	}
	a.host = host

	var notifier notify.Notifier
	switch cfg.Notifier {
	case "ntfy":
		notifier = notify.NewNtfy(cfg.NtfyTopic)
	case "log":
		notifier = notify.NewLog(logger)
	default:
		notifier = notify.NewDesktop()
	}

	settle, err := cfg.Settle()
	if err != nil {
		_ = a.close()
		return nil, err
	}

	a.bus = channel.NewBus(logger)
	a.client = client.New(cfg.Endpoint, nil, logger)
	a.saver = saver.New(saver.Options{
		Credentials: credential.New(store),
		Bus:         a.bus,
		Host:        host,
		Injector:    contentscript.NewInjector(a.bus, host, extractor.New(), logger),
		Client:      a.client,
		Notifier:    notifier,
		Settle:      settle,
		Logger:      logger,
	})
	a.stop = a.saver.Serve(a.bus)

	logger.WithFields(logrus.Fields{
		"endpoint": cfg.Endpoint,
		"browser":  cfg.Browser,
		"store":    cfg.Store,
	}).Debug("curaq started")
	return a, nil
}

func openStore(cfg config.Config) (kv.Store, error) {
	switch cfg.Store {
	case "sqlite":
		return kv.OpenSQLite(filepath.Join(cfg.DataDir, "curaq.db"))
	default:
		return kv.OpenFile(filepath.Join(cfg.DataDir, "curaq.json"))
	}
}

func (a *app) close() error {
	if a.stop != nil {
		a.stop()
	}
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing: %w", err))
		}
	}
	return errors.Join(errs...)
}
