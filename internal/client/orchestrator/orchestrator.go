package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/iobis/edna-sample-app/internal/client/connectivity"
	"github.com/iobis/edna-sample-app/internal/client/models"
	"github.com/iobis/edna-sample-app/internal/logging"
)

// DefaultStatsInterval is how often the aggregate stats are refreshed.
const DefaultStatsInterval = 2 * time.Second

// Pass triggers, as reported in PassResult.Trigger and metrics labels.
const (
	TriggerManual      = "manual"
	TriggerReconnect   = "reconnect"
	TriggerQueueGrowth = "queue_growth"
	TriggerFollowUp    = "follow_up"
)

type State int

const (
	Idle State = iota
	Syncing
)

func (s State) String() string {
	if s == Syncing {
		return "syncing"
	}
	return "idle"
}

type RecordEngine interface {
	SyncSamples(ctx context.Context) models.SyncResult
}

type ImageEngine interface {
	SyncAllImages(ctx context.Context) models.SyncResult
}

type StatsSource interface {
	Stats(ctx context.Context) (models.Stats, error)
	// QueuedSince counts unsynced samples created in [since, until).
	QueuedSince(ctx context.Context, since, until time.Time) (int, error)
}

// PassLock is held for the whole of a pass. services.SyncLease implements
// it over the shared store so passes exclude each other across processes.
type PassLock interface {
	Acquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
	RenewEvery() time.Duration
}

type HistoryRecorder interface {
	RecordPass(ctx context.Context, res models.PassResult) error
}

type Config struct {
	StatsInterval time.Duration
}

type eventKind int

const (
	evConnectivity eventKind = iota
	evPoke
	evSyncNow
	evPassDone
)

type event struct {
	kind   eventKind
	online bool
	reply  chan passReply
	result models.PassResult
	err    error
}

type passReply struct {
	result models.PassResult
	err    error
}

type Orchestrator struct {
	records  RecordEngine
	images   ImageEngine
	stats    StatsSource
	monitor  connectivity.Monitor
	notifier Notifier
	observer Observer
	history  HistoryRecorder
	lock     PassLock
	log      logging.Logger
	interval time.Duration
	now      func() time.Time

	events  chan event
	done    chan struct{}
	running atomic.Bool

	// Owned by the Run goroutine.
	state      State
	lastQueued int
	followUp   bool
	waiters    []chan passReply

	mu       sync.RWMutex
	snapshot models.Stats
	view     State
}

func New(cfg Config, records RecordEngine, images ImageEngine, stats StatsSource, monitor connectivity.Monitor, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		records:  records,
		images:   images,
		stats:    stats,
		monitor:  monitor,
		notifier: nopNotifier{},
		observer: nopObserver{},
		log:      logging.Nop(),
		interval: cfg.StatsInterval,
		now:      func() time.Time { return time.Now().UTC() },
		events:   make(chan event, 16),
		done:     make(chan struct{}),
	}
	if o.interval <= 0 {
		o.interval = DefaultStatsInterval
	}
	for _, opt := range opts {
		opt(o)
	}
	o.log = o.log.With("component", "orchestrator")
	return o
}

// Run drives automatic syncing until ctx is cancelled. A pass that is
// already running is allowed to finish before Run returns. Run may be
// called once.
func (o *Orchestrator) Run(ctx context.Context) error {
	if !o.running.CompareAndSwap(false, true) {
		return errors.New("orchestrator: already started")
	}
	defer close(o.done)

	cancel := o.monitor.OnChange(func(online bool) {
		o.send(event{kind: evConnectivity, online: online})
	})
	defer cancel()

	ticker := time.NewTicker(o.interval)
	defer ticker.Stop()

	// Passes outlive ctx so that marks are written for a batch the
	// endpoint already accepted.
	passCtx := context.WithoutCancel(ctx)

	o.refresh(passCtx)
	for {
		select {
		case <-ctx.Done():
			o.drain()
			return nil
		case <-ticker.C:
			o.refresh(passCtx)
		case ev := <-o.events:
			o.handle(passCtx, ev)
		}
	}
}

// Poke tells the loop that the queue may have grown.
func (o *Orchestrator) Poke() {
	select {
	case o.events <- event{kind: evPoke}:
	default:
	}
}

// SyncNow starts a pass and waits for its result. It fails fast with
// ErrOffline or ErrSyncInProgress.
func (o *Orchestrator) SyncNow(ctx context.Context) (models.PassResult, error) {
	if !o.running.Load() {
		return models.PassResult{}, ErrStopped
	}
	reply := make(chan passReply, 1)
	select {
	case o.events <- event{kind: evSyncNow, reply: reply}:
	case <-o.done:
		return models.PassResult{}, ErrStopped
	case <-ctx.Done():
		return models.PassResult{}, ctx.Err()
	}

	select {
	case r := <-reply:
		return r.result, r.err
	case <-o.done:
		select {
		case r := <-reply:
			return r.result, r.err
		default:
			return models.PassResult{}, ErrStopped
		}
	case <-ctx.Done():
		return models.PassResult{}, ctx.Err()
	}
}

// Stats returns the most recently loaded aggregate stats.
func (o *Orchestrator) Stats() models.Stats {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.snapshot
}

func (o *Orchestrator) State() State {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.view
}

// RunPass runs the record engine and then the image engine once, whatever
// the outcome of the first. It does not consult the loop's state, so
// one-shot commands can call it without Run; the PassLock keeps it from
// overlapping any other pass on the same store. It fails with
// ErrSyncInProgress when the lock is taken.
func (o *Orchestrator) RunPass(ctx context.Context, trigger string) (models.PassResult, error) {
	res := models.PassResult{Trigger: trigger, StartedAt: o.now()}
	release, err := o.hold(ctx)
	if err != nil {
		return res, err
	}
	defer release()

	o.observer.PassStarted(trigger)
	o.log.Info(ctx, "sync pass started", "trigger", trigger)

	res.Samples = o.records.SyncSamples(ctx)
	o.report(res.Samples, "Synced", "sample")
	o.loadStats(ctx)

	res.Images = o.images.SyncAllImages(ctx)
	o.report(res.Images, "Uploaded", "image")
	o.loadStats(ctx)

	res.FinishedAt = o.now()
	if o.history != nil {
		if err := o.history.RecordPass(ctx, res); err != nil {
			o.log.Warn(ctx, "failed to record sync history", "error", err)
		}
	}
	o.observer.PassFinished(res)
	o.log.Info(ctx, "sync pass finished",
		"trigger", trigger,
		"samples", res.Samples.Synced,
		"images", res.Images.Synced,
		"duration", res.Duration())
	return res, nil
}

// hold takes the pass lock and keeps renewing it until the returned
// release func is called.
func (o *Orchestrator) hold(ctx context.Context) (func(), error) {
	if o.lock == nil {
		return func() {}, nil
	}
	ok, err := o.lock.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("taking the sync lease: %w", err)
	}
	if !ok {
		return nil, ErrSyncInProgress
	}

	every := o.lock.RenewEvery()
	if every <= 0 {
		every = 20 * time.Second
	}
	stop, done := make(chan struct{}), make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(every)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				if ok, err := o.lock.Acquire(ctx); err != nil || !ok {
					o.log.Warn(ctx, "failed to renew sync lease", "held", ok, "error", err)
				}
			}
		}
	}()

	return func() {
		close(stop)
		<-done
		if err := o.lock.Release(ctx); err != nil {
			o.log.Warn(ctx, "failed to release sync lease", "error", err)
		}
	}, nil
}

func (o *Orchestrator) send(ev event) {
	select {
	case o.events <- ev:
	case <-o.done:
	}
}

func (o *Orchestrator) handle(ctx context.Context, ev event) {
	switch ev.kind {
	case evConnectivity:
		o.log.Debug(ctx, "connectivity changed", "online", ev.online)
		o.refresh(ctx)
		if ev.online && o.state == Idle {
			o.start(ctx, TriggerReconnect)
		}
	case evPoke:
		o.refresh(ctx)
	case evSyncNow:
		switch {
		case !o.monitor.IsOnline():
			ev.reply <- passReply{err: ErrOffline}
		case o.state == Syncing:
			ev.reply <- passReply{err: ErrSyncInProgress}
		default:
			o.waiters = append(o.waiters, ev.reply)
			o.start(ctx, TriggerManual)
		}
	case evPassDone:
		o.finish(ctx, ev.result, ev.err)
	}
}

// refresh loads stats and starts a pass when the sample queue grew since
// the previous observation.
func (o *Orchestrator) refresh(ctx context.Context) {
	st, ok := o.loadStats(ctx)
	if !ok {
		return
	}
	queued := st.Samples.Queued
	grew := queued > o.lastQueued
	o.lastQueued = queued
	if !grew {
		return
	}
	if o.state == Syncing {
		o.followUp = true
		return
	}
	if o.monitor.IsOnline() {
		o.start(ctx, TriggerQueueGrowth)
	}
}

func (o *Orchestrator) start(ctx context.Context, trigger string) {
	o.setState(Syncing)
	go func() {
		res, err := o.RunPass(ctx, trigger)
		o.events <- event{kind: evPassDone, result: res, err: err}
	}()
}

func (o *Orchestrator) finish(ctx context.Context, res models.PassResult, err error) {
	o.setState(Idle)
	for _, w := range o.waiters {
		w <- passReply{result: res, err: err}
	}
	o.waiters = nil
	if err != nil {
		o.log.Info(ctx, "sync pass skipped", "trigger", res.Trigger, "reason", err)
	}

	st, ok := o.loadStats(ctx)
	if ok {
		o.lastQueued = st.Samples.Queued
	}
	// The record engine lowers the queue mid-pass, so a sample added after
	// its batch was read may not show up as growth. Anything created since
	// the pass started and still queued was not part of it.
	if !o.followUp && err == nil && ok && st.Samples.Queued > 0 {
		n, qerr := o.stats.QueuedSince(ctx, res.StartedAt, o.now())
		switch {
		case qerr != nil:
			o.log.Warn(ctx, "failed to count new samples", "error", qerr)
		case n > 0:
			o.followUp = true
		}
	}
	if o.followUp {
		o.followUp = false
		if o.monitor.IsOnline() {
			o.start(ctx, TriggerFollowUp)
		}
	}
}

// drain waits for a running pass and answers queued requests.
func (o *Orchestrator) drain() {
	for o.state == Syncing {
		ev := <-o.events
		switch ev.kind {
		case evPassDone:
			o.followUp = false
			o.setState(Idle)
			for _, w := range o.waiters {
				w <- passReply{result: ev.result, err: ev.err}
			}
			o.waiters = nil
		case evSyncNow:
			ev.reply <- passReply{err: ErrStopped}
		}
	}
}

func (o *Orchestrator) setState(s State) {
	o.state = s
	o.mu.Lock()
	o.view = s
	o.mu.Unlock()
}

func (o *Orchestrator) loadStats(ctx context.Context) (models.Stats, bool) {
	st, err := o.stats.Stats(ctx)
	if err != nil {
		o.log.Warn(ctx, "failed to load sync stats", "error", err)
		return models.Stats{}, false
	}
	o.mu.Lock()
	o.snapshot = st
	o.mu.Unlock()
	o.observer.StatsUpdated(st)
	return st, true
}

func (o *Orchestrator) report(res models.SyncResult, verb, noun string) {
	switch {
	case res.Failed():
		if res.Err.Message != "" {
			o.notifier.Error(res.Err.Message)
		}
	case res.Synced > 0:
		o.notifier.Success(fmt.Sprintf("%s %d %s", verb, res.Synced, plural(res.Synced, noun)))
	}
}

func plural(n int, noun string) string {
	if n == 1 {
		return noun
	}
	return noun + "s"
}
