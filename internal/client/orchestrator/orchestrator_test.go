package orchestrator

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iobis/edna-sample-app/internal/client/client"
	"github.com/iobis/edna-sample-app/internal/client/connectivity"
	"github.com/iobis/edna-sample-app/internal/client/models"
	"github.com/iobis/edna-sample-app/internal/client/repositories/images"
	"github.com/iobis/edna-sample-app/internal/client/repositories/metadata"
	"github.com/iobis/edna-sample-app/internal/client/repositories/samples"
	"github.com/iobis/edna-sample-app/internal/client/services"
	"github.com/iobis/edna-sample-app/internal/logging"
)

const (
	waitFor = 2 * time.Second
	tick    = 5 * time.Millisecond
)

type stubClient struct {
	mu        sync.Mutex
	batches   int
	uploads   int
	submitErr error

	// block, when set, holds every SubmitSamples call until it is closed.
	block   chan struct{}
	started chan struct{}
}

func (c *stubClient) SubmitSamples(_ context.Context, _ []models.RemoteSample) (*client.SubmitResponse, error) {
	c.mu.Lock()
	c.batches++
	err := c.submitErr
	c.mu.Unlock()

	select {
	case c.started <- struct{}{}:
	default:
	}
	if c.block != nil {
		<-c.block
	}
	if err != nil {
		return nil, err
	}
	return &client.SubmitResponse{Success: true}, nil
}

func (c *stubClient) UploadImage(context.Context, client.ImageUpload) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.uploads++
	return nil
}

func (c *stubClient) Ping(context.Context) error { return nil }

func (c *stubClient) batchCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.batches
}

// gatedImages holds the image phase while release is open, so tests can
// act between the two engines of a pass.
type gatedImages struct {
	ImageEngine
	entered chan struct{}
	release chan struct{}
}

func (g *gatedImages) SyncAllImages(ctx context.Context) models.SyncResult {
	if g.release != nil {
		select {
		case g.entered <- struct{}{}:
		default:
		}
		<-g.release
	}
	return g.ImageEngine.SyncAllImages(ctx)
}

func (g *gatedImages) hold() {
	g.entered = make(chan struct{}, 1)
	g.release = make(chan struct{})
}

type recorder struct {
	mu        sync.Mutex
	successes []string
	errors    []string
	triggers  []string
	stats     []models.Stats
}

func (r *recorder) Success(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.successes = append(r.successes, msg)
}

func (r *recorder) Error(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors = append(r.errors, msg)
}

func (r *recorder) PassStarted(trigger string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.triggers = append(r.triggers, trigger)
}

func (r *recorder) PassFinished(models.PassResult) {}

func (r *recorder) StatsUpdated(st models.Stats) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stats = append(r.stats, st)
}

func (r *recorder) snapshot() (successes, errors, triggers []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.successes...),
		append([]string(nil), r.errors...),
		append([]string(nil), r.triggers...)
}

func (r *recorder) sawQueued(n int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, st := range r.stats {
		if st.Samples.Queued == n {
			return true
		}
	}
	return false
}

type env struct {
	samples *samples.MemoryRepository
	images  *images.MemoryRepository
	meta    *metadata.MemoryRepository
	monitor *connectivity.Manual
	client  *stubClient
	gate    *gatedImages
	rec     *recorder
	orch    *Orchestrator
}

func newEnv(online bool) *env {
	e := &env{
		samples: samples.NewMemoryRepository(),
		images:  images.NewMemoryRepository(),
		meta:    metadata.NewMemoryRepository(),
		monitor: connectivity.NewManual(online),
		client:  &stubClient{started: make(chan struct{}, 1)},
		rec:     &recorder{},
	}
	log := logging.Nop()
	e.gate = &gatedImages{ImageEngine: services.NewImageSyncer(e.client, e.images, e.monitor, log)}
	e.orch = New(Config{StatsInterval: 10 * time.Millisecond},
		services.NewRecordSyncer(e.client, e.samples, e.monitor, log),
		e.gate,
		services.NewStatsService(e.samples, e.images),
		e.monitor,
		WithNotifier(e.rec),
		WithObserver(e.rec),
		WithHistory(services.NewHistory(e.meta)),
		WithLock(services.NewSyncLease(e.meta, time.Minute)),
		WithLogger(log),
	)
	return e
}

var created = time.Date(2024, 7, 1, 9, 0, 0, 0, time.UTC)

// addSample stores a queued sample created now, as the sample service
// would.
func (e *env) addSample(t *testing.T, id string) {
	t.Helper()
	now := time.Now().UTC()
	smp := &models.Sample{
		ID:        id,
		SampleID:  "KIT-" + id,
		DateTime:  created,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, e.samples.Put(context.Background(), smp))
}

// start runs the loop until the test ends and returns a stop function that
// waits for Run to return.
func (e *env) start(t *testing.T) func() error {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- e.orch.Run(ctx) }()

	var once sync.Once
	var runErr error
	stop := func() error {
		once.Do(func() {
			cancel()
			runErr = <-errCh
		})
		return runErr
	}
	t.Cleanup(func() { _ = stop() })

	require.Eventually(t, func() bool { return e.orch.running.Load() }, waitFor, tick)
	return stop
}

func TestOfflineQueueSyncsOnceOnReconnect(t *testing.T) {
	e := newEnv(false)
	for _, id := range []string{"1", "2", "3"} {
		e.addSample(t, id)
	}
	e.start(t)

	require.Eventually(t, func() bool { return e.orch.Stats().Samples.Queued == 3 }, waitFor, tick)
	assert.Zero(t, e.client.batchCount())

	e.monitor.Set(true)

	require.Eventually(t, func() bool {
		st := e.orch.Stats()
		return st.Samples.Synced == 3 && st.Samples.Queued == 0 && e.orch.State() == Idle
	}, waitFor, tick)

	// A few more ticks must not start another pass.
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, e.client.batchCount())

	successes, errs, triggers := e.rec.snapshot()
	assert.Equal(t, []string{"Synced 3 samples"}, successes)
	assert.Empty(t, errs)
	assert.Equal(t, []string{TriggerReconnect}, triggers)

	at, msg, err := services.NewHistory(e.meta).Last(context.Background())
	require.NoError(t, err)
	assert.False(t, at.IsZero())
	assert.Empty(t, msg)
}

func TestSyncNowWhilePassRunning(t *testing.T) {
	e := newEnv(true)
	e.client.block = make(chan struct{})
	e.addSample(t, "1")
	e.start(t)

	select {
	case <-e.client.started:
	case <-time.After(waitFor):
		t.Fatal("no pass started")
	}
	assert.Equal(t, Syncing, e.orch.State())

	_, err := e.orch.SyncNow(context.Background())
	require.ErrorIs(t, err, ErrSyncInProgress)

	close(e.client.block)
	require.Eventually(t, func() bool {
		return e.orch.State() == Idle && e.orch.Stats().Samples.Synced == 1
	}, waitFor, tick)
	assert.Equal(t, 1, e.client.batchCount())
}

func TestSyncNowOffline(t *testing.T) {
	e := newEnv(false)
	e.addSample(t, "1")
	e.start(t)

	_, err := e.orch.SyncNow(context.Background())
	require.ErrorIs(t, err, ErrOffline)
	assert.Zero(t, e.client.batchCount())
}

func TestSyncNowNothingQueuedIsSilent(t *testing.T) {
	e := newEnv(true)
	e.start(t)

	res, err := e.orch.SyncNow(context.Background())
	require.NoError(t, err)
	assert.Equal(t, TriggerManual, res.Trigger)
	assert.True(t, res.Samples.Success)
	assert.True(t, res.Images.Success)
	assert.Zero(t, e.client.batchCount())

	successes, errs, _ := e.rec.snapshot()
	assert.Empty(t, successes)
	assert.Empty(t, errs)
}

func TestSyncNowRequiresRun(t *testing.T) {
	e := newEnv(true)
	_, err := e.orch.SyncNow(context.Background())
	require.ErrorIs(t, err, ErrStopped)
}

func TestQueueGrowthTriggersPass(t *testing.T) {
	e := newEnv(true)
	e.start(t)
	require.Eventually(t, func() bool { return e.rec.sawQueued(0) }, waitFor, tick)

	e.addSample(t, "1")
	e.orch.Poke()

	require.Eventually(t, func() bool { return e.orch.Stats().Samples.Synced == 1 }, waitFor, tick)
	_, _, triggers := e.rec.snapshot()
	assert.Equal(t, []string{TriggerQueueGrowth}, triggers)
}

func TestGrowthDuringPassRunsFollowUp(t *testing.T) {
	e := newEnv(true)
	e.client.block = make(chan struct{})
	e.addSample(t, "1")
	e.start(t)

	select {
	case <-e.client.started:
	case <-time.After(waitFor):
		t.Fatal("no pass started")
	}

	e.addSample(t, "2")
	e.orch.Poke()
	require.Eventually(t, func() bool { return e.rec.sawQueued(2) }, waitFor, tick)

	close(e.client.block)
	require.Eventually(t, func() bool {
		st := e.orch.Stats()
		return st.Samples.Synced == 2 && st.Samples.Queued == 0 && e.orch.State() == Idle
	}, waitFor, tick)

	assert.Equal(t, 2, e.client.batchCount())
	_, _, triggers := e.rec.snapshot()
	assert.Equal(t, []string{TriggerQueueGrowth, TriggerFollowUp}, triggers)
}

func TestSampleAddedDuringImagePhaseRunsFollowUp(t *testing.T) {
	e := newEnv(true)
	e.gate.hold()
	e.addSample(t, "1")
	e.addSample(t, "2")
	e.start(t)

	select {
	case <-e.gate.entered:
	case <-time.After(waitFor):
		t.Fatal("image phase not reached")
	}
	// The batch is already marked, so the queue is lower than before the
	// pass even after the new sample arrives.
	e.addSample(t, "3")
	e.orch.Poke()
	require.Eventually(t, func() bool { return e.rec.sawQueued(1) }, waitFor, tick)

	close(e.gate.release)
	require.Eventually(t, func() bool {
		st := e.orch.Stats()
		return st.Samples.Synced == 3 && st.Samples.Queued == 0 && e.orch.State() == Idle
	}, waitFor, tick)

	assert.Equal(t, 2, e.client.batchCount())
	_, _, triggers := e.rec.snapshot()
	assert.Equal(t, []string{TriggerQueueGrowth, TriggerFollowUp}, triggers)
}

func TestPassSkippedWhileLeaseHeldElsewhere(t *testing.T) {
	e := newEnv(true)
	other := services.NewSyncLease(e.meta, time.Minute)
	ok, err := other.Acquire(context.Background())
	require.NoError(t, err)
	require.True(t, ok)

	e.start(t)
	require.Eventually(t, func() bool { return e.rec.sawQueued(0) }, waitFor, tick)

	_, err = e.orch.SyncNow(context.Background())
	require.ErrorIs(t, err, ErrSyncInProgress)
	_, _, triggers := e.rec.snapshot()
	assert.Empty(t, triggers)

	require.NoError(t, other.Release(context.Background()))
	e.addSample(t, "1")
	e.orch.Poke()
	require.Eventually(t, func() bool { return e.orch.Stats().Samples.Synced == 1 }, waitFor, tick)
	assert.Equal(t, 1, e.client.batchCount())
}

func TestRunPassExcludesOtherProcessOnSameStore(t *testing.T) {
	ctx := context.Background()
	dsn := client.SQLiteDSN(filepath.Join(t.TempDir(), "edna.db"))
	open := func() *client.Store {
		st, err := client.OpenStore(ctx, dsn)
		require.NoError(t, err)
		t.Cleanup(func() { _ = st.Close() })
		return st
	}
	build := func(st *client.Store, c *stubClient) *Orchestrator {
		m := connectivity.NewManual(true)
		log := logging.Nop()
		return New(Config{},
			services.NewRecordSyncer(c, st.Samples, m, log),
			services.NewImageSyncer(c, st.Images, m, log),
			services.NewStatsService(st.Samples, st.Images),
			m,
			WithLock(services.NewSyncLease(st.Metadata, time.Minute)),
		)
	}

	st1, st2 := open(), open()
	c1 := &stubClient{started: make(chan struct{}, 1), block: make(chan struct{})}
	c2 := &stubClient{started: make(chan struct{}, 1)}
	o1, o2 := build(st1, c1), build(st2, c2)

	now := time.Now().UTC()
	require.NoError(t, st1.Samples.Put(ctx, &models.Sample{
		ID: "1", SampleID: "KIT-1", DateTime: now, CreatedAt: now, UpdatedAt: now,
	}))

	type outcome struct {
		res models.PassResult
		err error
	}
	first := make(chan outcome, 1)
	go func() {
		res, err := o1.RunPass(ctx, TriggerManual)
		first <- outcome{res, err}
	}()
	select {
	case <-c1.started:
	case <-time.After(waitFor):
		t.Fatal("first pass did not reach the endpoint")
	}

	_, err := o2.RunPass(ctx, TriggerManual)
	require.ErrorIs(t, err, ErrSyncInProgress)
	assert.Zero(t, c2.batchCount())

	close(c1.block)
	var got outcome
	select {
	case got = <-first:
	case <-time.After(waitFor):
		t.Fatal("first pass did not finish")
	}
	require.NoError(t, got.err)
	assert.Equal(t, 1, got.res.Samples.Synced)

	res, err := o2.RunPass(ctx, TriggerManual)
	require.NoError(t, err)
	assert.True(t, res.Samples.Success)
	assert.Zero(t, res.Samples.Synced)
	assert.Zero(t, c2.batchCount())
	assert.Equal(t, 1, c1.batchCount())
}

func TestRunWaitsForRunningPass(t *testing.T) {
	e := newEnv(true)
	e.client.block = make(chan struct{})
	e.addSample(t, "1")
	stop := e.start(t)

	select {
	case <-e.client.started:
	case <-time.After(waitFor):
		t.Fatal("no pass started")
	}

	done := make(chan error, 1)
	go func() { done <- stop() }()

	select {
	case <-done:
		t.Fatal("Run returned while a pass was running")
	case <-time.After(30 * time.Millisecond):
	}

	close(e.client.block)
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(waitFor):
		t.Fatal("Run did not return")
	}

	smp, err := e.samples.GetByID(context.Background(), "1")
	require.NoError(t, err)
	assert.True(t, smp.Synced)

	_, err = e.orch.SyncNow(context.Background())
	require.ErrorIs(t, err, ErrStopped)
}

func TestRunPassImagesNotBlockedByRecordFailure(t *testing.T) {
	e := newEnv(true)
	e.client.submitErr = &client.RemoteError{StatusCode: 500, Reason: "Internal Server Error"}
	e.addSample(t, "1")
	require.NoError(t, e.images.Put(context.Background(), &models.Image{
		ID:        "img-1",
		SampleID:  "KIT-1",
		Data:      []byte{0xff, 0xd8},
		Filename:  "kit.jpg",
		MimeType:  "image/jpeg",
		CreatedAt: created,
		UpdatedAt: created,
	}))

	res, err := e.orch.RunPass(context.Background(), TriggerManual)
	require.NoError(t, err)

	require.True(t, res.Samples.Failed())
	assert.Equal(t, models.KindRemoteRejected, res.Samples.Err.Kind)
	assert.True(t, res.Images.Success)
	assert.Equal(t, 1, res.Images.Synced)

	successes, errs, _ := e.rec.snapshot()
	assert.Equal(t, []string{"Uploaded 1 image"}, successes)
	assert.Equal(t, []string{
		"Sync failed (500): Internal Server Error, please contact helpdesk@obis.org if the error persists.",
	}, errs)

	st := e.orch.Stats()
	assert.Equal(t, models.CollectionStats{Queued: 1}, st.Samples)
	assert.Equal(t, models.CollectionStats{Synced: 1}, st.Images)

	_, msg, err := services.NewHistory(e.meta).Last(context.Background())
	require.NoError(t, err)
	assert.Equal(t, errs[0], msg)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "syncing", Syncing.String())
}
