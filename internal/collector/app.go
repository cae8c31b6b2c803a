package collector

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/iobis/edna-sample-app/internal/logging"
	"github.com/iobis/edna-sample-app/internal/metrics"
)

const shutdownTimeout = 5 * time.Second

// AppConfig configures the standalone collector process.
type AppConfig struct {
	Addr         string
	MaxImageSize int64
}

// App serves a collector Server next to its Prometheus metrics.
type App struct {
	cfg    AppConfig
	log    logging.Logger
	server *Server
	reg    *prometheus.Registry
}

func NewApp(cfg AppConfig, log logging.Logger) (*App, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	em := metrics.NewEndpointMetrics()
	if err := em.Register(reg); err != nil {
		return nil, err
	}

	opts := []Option{WithLogger(log), WithMetrics(em)}
	if cfg.MaxImageSize > 0 {
		opts = append(opts, WithMaxImageSize(cfg.MaxImageSize))
	}
	return &App{cfg: cfg, log: log, server: New(opts...), reg: reg}, nil
}

// Handler routes /metrics to the registry and everything else to the
// collector.
func (a *App) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(a.reg, promhttp.HandlerOpts{}))
	mux.Handle("/", a.server.Handler())
	return mux
}

// Run listens on the configured address until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.cfg.Addr)
	if err != nil {
		return err
	}
	return a.Serve(ctx, ln)
}

// Serve accepts connections on ln and shuts the server down gracefully
// once ctx is done.
func (a *App) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           a.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.log.Info(ctx, "starting collector", "address", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		a.log.Info(ctx, "stopping collector")
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(sctx)
	})
	return g.Wait()
}
