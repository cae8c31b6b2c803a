// Command collector runs a development stand-in for the eDNA collection
// endpoint. It accepts sample batches and photos, keeps them in memory and
// exposes Prometheus metrics on /metrics.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/iobis/edna-sample-app/internal/buildinfo"
	"github.com/iobis/edna-sample-app/internal/collector"
	"github.com/iobis/edna-sample-app/internal/logging"
)

func main() {
	fs := pflag.NewFlagSet("collector", pflag.ExitOnError)
	addr := fs.String("addr", ":8080", "listen address")
	maxImage := fs.Int64("max-image-size", collector.DefaultMaxImageSize, "largest accepted photo in bytes")
	level := fs.String("log-level", "info", "debug, info, warn or error")
	_ = fs.Parse(os.Args[1:])

	buildinfo.PrintBuildData(os.Stdout)

	logger, closer, err := logging.New(logging.Options{Level: *level, JSON: true, Output: os.Stdout})
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer closer.Close()

	app, err := collector.NewApp(collector.AppConfig{Addr: *addr, MaxImageSize: *maxImage}, logger)
	if err != nil {
		log.Fatalf("%v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()
	if err := app.Run(ctx); err != nil {
		logger.Error(ctx, "collector stopped", "error", err)
	}
}
