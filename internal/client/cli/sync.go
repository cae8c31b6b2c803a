package cli

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"github.com/iobis/edna-sample-app/internal/client/models"
	"github.com/iobis/edna-sample-app/internal/client/orchestrator"
)

// isTerminal is a test seam for terminal detection.
var isTerminal = func(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

const (
	shutdownTimeout = 5 * time.Second
	msgOffline      = "No internet connection"
	msgSyncRunning  = "A sync is already running"
)

func (c *command) syncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Push queued samples and photos now",
		Args:  cobra.NoArgs,
		RunE: c.withApp(func(ctx context.Context, a *App, _ []string) error {
			_, err := a.Sync(ctx)
			return err
		}),
	}
}

func (c *command) runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Watch connectivity and sync automatically until interrupted",
		Args:  cobra.NoArgs,
		RunE: c.withApp(func(ctx context.Context, a *App, _ []string) error {
			return a.Run(ctx)
		}),
	}
}

// Sync runs one pass. It fails with errPassFailed when an engine failed,
// after the notifier has printed the reason.
func (a *App) Sync(ctx context.Context) (models.PassResult, error) {
	if !a.checkOnline(ctx) {
		a.log.Warn(ctx, "sync skipped, endpoint unreachable", "url", a.cfg.APIBaseURL)
		newTermNotifier(a.io.Out, a.io.Err).Error(msgOffline)
		return models.PassResult{}, errPassFailed
	}

	var images orchestrator.ImageEngine = a.images
	if bar := a.progressBar(ctx); bar != nil {
		images = a.images.WithProgress(func(models.Image, error) { bar.Increment() })
		defer bar.Finish()
	}

	res, err := a.newOrchestrator(images).RunPass(ctx, orchestrator.TriggerManual)
	if errors.Is(err, orchestrator.ErrSyncInProgress) {
		newTermNotifier(a.io.Out, a.io.Err).Error(msgSyncRunning)
		return res, errPassFailed
	}
	if err != nil {
		return res, err
	}
	if res.Samples.Failed() || res.Images.Failed() {
		return res, errPassFailed
	}
	if res.Samples.Synced == 0 && res.Images.Synced == 0 {
		a.println("Nothing to sync")
	}
	return res, nil
}

// progressBar returns a started bar over the queued images, or nil when
// there is nothing to show.
func (a *App) progressBar(ctx context.Context) *pb.ProgressBar {
	if !isTerminal(a.io.Out) {
		return nil
	}
	pending, err := a.images.Pending(ctx)
	if err != nil || len(pending) == 0 {
		return nil
	}
	bar := pb.New(len(pending))
	bar.SetTemplate(`Uploading photos {{counters . }} {{bar . }} {{percent . }}`)
	bar.SetWriter(a.io.Out)
	return bar.Start()
}

// Run keeps the app syncing in the background: the probe monitor feeds
// connectivity changes to the orchestrator, and metrics are served when
// configured. It returns when ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	var srv *http.Server
	if a.cfg.MetricsAddr != "" {
		var err error
		if srv, err = a.metricsServer(a.cfg.MetricsAddr); err != nil {
			return err
		}
	}

	orch := a.newOrchestrator(nil)
	g, ctx := errgroup.WithContext(ctx)

	if a.probe != nil {
		g.Go(func() error {
			a.probe.Run(ctx)
			return nil
		})
	}
	g.Go(func() error { return orch.Run(ctx) })

	if srv != nil {
		g.Go(func() error {
			a.log.Info(ctx, "serving metrics", "addr", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(sctx)
		})
	}

	a.log.Info(ctx, "sync loop started", "url", a.cfg.APIBaseURL, "data_dir", a.cfg.DataDir)
	err := g.Wait()
	a.log.Info(context.WithoutCancel(ctx), "sync loop stopped")
	return err
}

func (a *App) metricsServer(addr string) (*http.Server, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	if err := a.metrics.Register(reg); err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}, nil
}
