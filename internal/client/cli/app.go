package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/iobis/edna-sample-app/internal/client/client"
	"github.com/iobis/edna-sample-app/internal/client/config"
	"github.com/iobis/edna-sample-app/internal/client/connectivity"
	"github.com/iobis/edna-sample-app/internal/client/orchestrator"
	"github.com/iobis/edna-sample-app/internal/client/services"
	"github.com/iobis/edna-sample-app/internal/filex"
	"github.com/iobis/edna-sample-app/internal/logging"
	"github.com/iobis/edna-sample-app/internal/metrics"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

// IO bundles the streams the commands read from and write to.
type IO struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

func stdIO() IO {
	return IO{In: os.Stdin, Out: os.Stdout, Err: os.Stderr}
}

// App wires the local store, the remote client and the sync machinery for
// one CLI invocation.
type App struct {
	cfg *config.Config
	log logging.Logger
	io  IO
	in  *bufio.Reader

	store   *client.Store
	api     client.Client
	monitor connectivity.Monitor
	// probe is nil when the app was started with --offline.
	probe   *connectivity.ProbeMonitor
	samples services.SampleService
	stats   *services.StatsService
	history *services.History
	records *services.RecordSyncer
	images  *services.ImageSyncer
	metrics *metrics.Metrics

	closers []io.Closer
}

// AppOptions tunes NewApp.
type AppOptions struct {
	// Offline disables probing; every sync reports no connection.
	Offline bool
	// JSONLogs selects the JSON log handler.
	JSONLogs bool
	IO       IO
}

func NewApp(ctx context.Context, cfg *config.Config, opts AppOptions) (*App, error) {
	if opts.IO.In == nil {
		opts.IO = stdIO()
	}

	log, logCloser, err := logging.New(logging.Options{
		Level:  cfg.LogLevel,
		JSON:   opts.JSONLogs,
		File:   cfg.LogFile,
		Output: opts.IO.Err,
	})
	if err != nil {
		return nil, fmt.Errorf("setting up logging: %w", err)
	}

	a := &App{
		cfg:     cfg,
		log:     log,
		io:      opts.IO,
		in:      bufio.NewReader(opts.IO.In),
		metrics: metrics.NewMetrics(),
		closers: []io.Closer{logCloser},
	}

	if _, err := filex.EnsureDir(cfg.DataDir); err != nil {
		_ = a.Close()
		return nil, err
	}
	store, err := client.OpenStore(ctx, client.SQLiteDSN(cfg.DBPath()))
	if err != nil {
		log.Error(ctx, "error initializing database", "path", cfg.DBPath(), "error", err)
		_ = a.Close()
		return nil, err
	}
	a.store = store
	a.closers = append([]io.Closer{store}, a.closers...)

	a.api = client.NewHTTPClient(cfg.APIBaseURL, cfg.RequestTimeout)
	if opts.Offline {
		a.monitor = connectivity.NewManual(false)
	} else {
		a.probe = connectivity.NewProbeMonitor(a.api, cfg.OnlineCheckInterval, log.With("component", "connectivity"))
		a.monitor = a.probe
	}

	a.samples = services.NewSampleService(store.Samples, store.Images, log)
	a.stats = services.NewStatsService(store.Samples, store.Images)
	a.history = services.NewHistory(store.Metadata)
	a.records = services.NewRecordSyncer(a.api, store.Samples, a.monitor, log)
	a.images = services.NewImageSyncer(a.api, store.Images, a.monitor, log)
	return a, nil
}

// Close releases the database and the log file.
func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// newOrchestrator builds the pass runner. images may be a progress-reporting
// copy of the app's image syncer. Each orchestrator competes for the store's
// sync lease under its own owner id.
func (a *App) newOrchestrator(images orchestrator.ImageEngine) *orchestrator.Orchestrator {
	if images == nil {
		images = a.images
	}
	return orchestrator.New(
		orchestrator.Config{StatsInterval: a.cfg.StatsInterval},
		a.records,
		images,
		a.stats,
		a.monitor,
		orchestrator.WithNotifier(newTermNotifier(a.io.Out, a.io.Err)),
		orchestrator.WithObserver(a.metrics),
		orchestrator.WithHistory(a.history),
		orchestrator.WithLock(services.NewSyncLease(a.store.Metadata, services.DefaultLeaseTTL)),
		orchestrator.WithLogger(a.log),
	)
}

// checkOnline probes once, unless the app runs offline.
func (a *App) checkOnline(ctx context.Context) bool {
	if a.probe == nil {
		return a.monitor.IsOnline()
	}
	return a.probe.Check(ctx)
}

func (a *App) mode() Mode {
	if a.monitor.IsOnline() {
		return ModeOnline
	}
	return ModeOffline
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.io.Out, format, args...)
}

func (a *App) println(args ...any) {
	fmt.Fprintln(a.io.Out, args...)
}
