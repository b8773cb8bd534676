// Command usercore seeds, loads, lists and flags users in the configured
// data context. Storage, fixture blobs and logging are configured through
// USERCORE_* environment variables.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"usercore/internal/blob"
	"usercore/internal/config"
	"usercore/internal/core"
	"usercore/internal/logger"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	exitFunc   = os.Exit
	loadConfig = config.Load
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cli(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	exitFunc(code)
}

func cli(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	a := &app{stdout: stdout, stderr: stderr, loadConfig: loadConfig}
	defer a.close()
	root := newRootCommand(a)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	if err := root.ExecuteContext(ctx); err != nil {
		_, _ = fmt.Fprintf(stderr, "error: %v\n", err)
		var notFound core.ErrNotFound
		if errors.As(err, &notFound) {
			return 2
		}
		return 1
	}
	return 0
}

// app carries the per-invocation wiring shared by subcommands.
type app struct {
	stdout, stderr io.Writer
	loadConfig     func() (config.Config, error)

	// flag overrides
	storageDriver string
	logLevel      string
	metricsOut    string

	cfg       config.Config
	log       logger.Logger
	registry  *prometheus.Registry
	data      core.TrackedContext
	closeData func() error
	svc       *core.Service
}

// setup loads configuration and opens the data context.
func (a *app) setup(ctx context.Context) error {
	cfg, err := a.loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if a.storageDriver != "" {
		cfg.Storage.Driver = a.storageDriver
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg
	a.log = logger.New(logger.Config{Level: cfg.Log.Level, JSON: cfg.Log.JSON, Output: a.stderr})

	a.registry = prometheus.NewRegistry()
	metrics, err := core.NewPrometheusMetricsRecorder(a.registry)
	if err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	data, closeData, err := core.OpenDataContext(ctx, cfg.Storage, core.NewDefaultRulesEngine())
	if err != nil {
		return fmt.Errorf("open %s storage: %w", cfg.Storage.Driver, err)
	}
	a.data, a.closeData = data, closeData
	a.svc = core.NewService(data, core.WithLogger(a.log), core.WithMetricsRecorder(metrics))
	a.log.Debug("storage opened", "driver", cfg.Storage.Driver)
	return nil
}

func (a *app) blobStore(ctx context.Context) (blob.Store, error) {
	store, err := blob.Open(ctx, a.cfg.Blob)
	if err != nil {
		return nil, fmt.Errorf("open %s blob store: %w", a.cfg.Blob.Driver, err)
	}
	return store, nil
}

func (a *app) close() {
	if a.metricsOut != "" && a.registry != nil {
		if err := prometheus.WriteToTextfile(a.metricsOut, a.registry); err != nil && a.log != nil {
			a.log.Error("write metrics", "path", a.metricsOut, "error", err)
		}
	}
	if a.closeData != nil {
		if err := a.closeData(); err != nil && a.log != nil {
			a.log.Error("close storage", "error", err)
		}
		a.closeData = nil
	}
}
