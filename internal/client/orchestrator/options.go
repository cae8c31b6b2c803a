package orchestrator

import (
	"github.com/iobis/edna-sample-app/internal/client/models"
	"github.com/iobis/edna-sample-app/internal/logging"
)

// Notifier shows transient messages to the user.
type Notifier interface {
	Success(msg string)
	Error(msg string)
}

// Observer is told about passes and stats refreshes. metrics.Metrics
// implements it.
type Observer interface {
	PassStarted(trigger string)
	PassFinished(res models.PassResult)
	StatsUpdated(st models.Stats)
}

type Option func(*Orchestrator)

func WithNotifier(n Notifier) Option {
	return func(o *Orchestrator) { o.notifier = n }
}

func WithObserver(obs Observer) Option {
	return func(o *Orchestrator) { o.observer = obs }
}

func WithLogger(l logging.Logger) Option {
	return func(o *Orchestrator) { o.log = l }
}

// WithHistory stores the outcome of every pass in h.
func WithHistory(h HistoryRecorder) Option {
	return func(o *Orchestrator) { o.history = h }
}

// WithLock makes every pass hold l.
func WithLock(l PassLock) Option {
	return func(o *Orchestrator) { o.lock = l }
}

type nopNotifier struct{}

func (nopNotifier) Success(string) {}
func (nopNotifier) Error(string)   {}

type nopObserver struct{}

func (nopObserver) PassStarted(string)             {}
func (nopObserver) PassFinished(models.PassResult) {}
func (nopObserver) StatsUpdated(models.Stats)      {}
