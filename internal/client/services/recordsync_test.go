package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/iobis/edna-sample-app/internal/client/client"
	"github.com/iobis/edna-sample-app/internal/client/connectivity"
	"github.com/iobis/edna-sample-app/internal/client/models"
	"github.com/iobis/edna-sample-app/internal/client/repositories/samples"
	"github.com/iobis/edna-sample-app/internal/common"
	"github.com/iobis/edna-sample-app/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordFixture struct {
	repo    *samples.MemoryRepository
	client  *fakeClient
	monitor *connectivity.Manual
	syncer  *RecordSyncer
}

func newRecordFixture(t *testing.T, online bool, queued ...string) *recordFixture {
	t.Helper()
	f := &recordFixture{
		repo:    samples.NewMemoryRepository(),
		client:  &fakeClient{},
		monitor: connectivity.NewManual(online),
	}
	f.syncer = NewRecordSyncer(f.client, f.repo, f.monitor, logging.Nop())
	f.syncer.now = fixedClock()

	for i, id := range queued {
		s := models.NewSample(id, "key-"+id, validForm("KIT-"+id), t0.Add(time.Duration(i)*time.Second))
		require.NoError(t, f.repo.Put(context.Background(), s))
	}
	return f
}

func (f *recordFixture) stats(t *testing.T) models.CollectionStats {
	t.Helper()
	st, err := f.repo.Count(context.Background())
	require.NoError(t, err)
	return st
}

func TestSyncSamples_OfflineMakesNoRequest(t *testing.T) {
	f := newRecordFixture(t, false, "a", "b")

	res := f.syncer.SyncSamples(context.Background())

	assert.False(t, res.Success)
	assert.Zero(t, res.Synced)
	require.NotNil(t, res.Err)
	assert.Equal(t, models.KindNoConnection, res.Err.Kind)
	assert.Equal(t, "No internet connection", res.Err.Message)
	assert.Zero(t, f.client.requests())
	assert.Equal(t, models.CollectionStats{Queued: 2}, f.stats(t))
}

func TestSyncSamples_EmptyQueueIsSuccess(t *testing.T) {
	f := newRecordFixture(t, true)

	res := f.syncer.SyncSamples(context.Background())

	assert.Equal(t, models.SyncResult{Success: true}, res)
	assert.Zero(t, f.client.requests())
}

func TestSyncSamples_SendsOneBatchAndMarksAll(t *testing.T) {
	f := newRecordFixture(t, true, "a", "b", "c")

	res := f.syncer.SyncSamples(context.Background())

	assert.Equal(t, models.SyncResult{Success: true, Synced: 3}, res)
	require.Len(t, f.client.batches, 1)
	assert.Len(t, f.client.batches[0], 3)
	assert.Equal(t, "KIT-a", f.client.batches[0][0].SampleID)
	assert.Equal(t, models.CollectionStats{Synced: 3}, f.stats(t))

	got, err := f.repo.GetByID(context.Background(), "a")
	require.NoError(t, err)
	assert.True(t, got.UpdatedAt.After(got.CreatedAt))
}

func TestSyncSamples_SecondRunIsIdempotent(t *testing.T) {
	f := newRecordFixture(t, true, "a", "b")

	first := f.syncer.SyncSamples(context.Background())
	second := f.syncer.SyncSamples(context.Background())

	assert.Equal(t, 2, first.Synced)
	assert.Equal(t, models.SyncResult{Success: true, Synced: 0}, second)
	assert.Len(t, f.client.batches, 1)
}

func TestSyncSamples_ServerErrorMarksNothing(t *testing.T) {
	f := newRecordFixture(t, true, "a", "b")
	f.client.submitFn = func([]models.RemoteSample) (*client.SubmitResponse, error) {
		return nil, &client.RemoteError{StatusCode: http.StatusInternalServerError, Reason: "Internal Server Error"}
	}

	res := f.syncer.SyncSamples(context.Background())

	assert.False(t, res.Success)
	assert.Zero(t, res.Synced)
	require.NotNil(t, res.Err)
	assert.Equal(t, models.KindRemoteRejected, res.Err.Kind)
	assert.Equal(t, 500, res.Err.Status)
	assert.Equal(t, "Sync failed (500): Internal Server Error, please contact helpdesk@obis.org if the error persists.",
		res.Err.Message)
	assert.Equal(t, models.CollectionStats{Queued: 2}, f.stats(t))
}

// A single sample the endpoint refuses keeps the whole batch queued; the
// well-formed ones are resubmitted with it on every pass.
func TestSyncSamples_OneBadSampleBlocksBatch(t *testing.T) {
	f := newRecordFixture(t, true, "good-1", "bad", "good-2")
	f.client.submitFn = func(batch []models.RemoteSample) (*client.SubmitResponse, error) {
		for _, s := range batch {
			if s.SampleID == "KIT-bad" {
				return nil, &client.RemoteError{StatusCode: http.StatusUnprocessableEntity, Reason: "Unprocessable Entity"}
			}
		}
		return &client.SubmitResponse{Success: true}, nil
	}

	for range 2 {
		res := f.syncer.SyncSamples(context.Background())
		assert.False(t, res.Success)
		assert.Equal(t, 422, res.Err.Status)
	}
	assert.Len(t, f.client.batches, 2)
	assert.Len(t, f.client.batches[1], 3)
	assert.Equal(t, models.CollectionStats{Queued: 3}, f.stats(t))
}

func TestSyncSamples_UnconfirmedBatchMarksNothing(t *testing.T) {
	f := newRecordFixture(t, true, "a")
	f.client.submitFn = func([]models.RemoteSample) (*client.SubmitResponse, error) {
		return &client.SubmitResponse{Success: false, Message: "queued for review"}, nil
	}

	res := f.syncer.SyncSamples(context.Background())

	assert.False(t, res.Success)
	require.NotNil(t, res.Err)
	assert.Equal(t, models.KindRemoteRejected, res.Err.Kind)
	assert.Contains(t, res.Err.Message, "helpdesk@obis.org")
	assert.Equal(t, models.CollectionStats{Queued: 1}, f.stats(t))
}

func TestSyncSamples_TransportFailure(t *testing.T) {
	f := newRecordFixture(t, true, "a")
	f.client.submitFn = func([]models.RemoteSample) (*client.SubmitResponse, error) {
		return nil, fmt.Errorf("%w: %w", client.ErrUnavailable, errors.New("connection reset by peer"))
	}

	res := f.syncer.SyncSamples(context.Background())

	assert.False(t, res.Success)
	require.NotNil(t, res.Err)
	assert.Equal(t, models.KindTransport, res.Err.Kind)
	assert.Contains(t, res.Err.Message, "Network error while syncing samples")
	assert.Contains(t, res.Err.Message, "connection reset by peer")
	assert.ErrorIs(t, res.Err, client.ErrUnavailable)
	assert.Equal(t, models.CollectionStats{Queued: 1}, f.stats(t))
}

func TestSyncSamples_MarkFailureIsSkipped(t *testing.T) {
	f := newRecordFixture(t, true, "a", "b", "c")
	f.repo.UpdateErr = func(id string) error {
		if id == "b" {
			return common.ErrStorage
		}
		return nil
	}

	res := f.syncer.SyncSamples(context.Background())
	assert.Equal(t, models.SyncResult{Success: true, Synced: 2}, res)
	assert.Equal(t, models.CollectionStats{Synced: 2, Queued: 1}, f.stats(t))

	// next pass resubmits only the sample that stayed queued
	f.repo.UpdateErr = nil
	res = f.syncer.SyncSamples(context.Background())
	assert.Equal(t, models.SyncResult{Success: true, Synced: 1}, res)
	require.Len(t, f.client.batches, 2)
	require.Len(t, f.client.batches[1], 1)
	assert.Equal(t, "KIT-b", f.client.batches[1][0].SampleID)
}

func TestSyncSamples_OfflineQueueCountMatchesCreations(t *testing.T) {
	f := newRecordFixture(t, false)
	svc := NewSampleService(f.repo, nil, logging.Nop())

	for i := range 5 {
		_, err := svc.Create(context.Background(), validForm(fmt.Sprintf("EDNA-%d", i)), nil)
		require.NoError(t, err)
		f.syncer.SyncSamples(context.Background())
		assert.Equal(t, i+1, f.stats(t).Queued)
	}
	assert.Zero(t, f.client.requests())
}
