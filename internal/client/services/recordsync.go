package services

import (
	"context"
	"time"

	"github.com/iobis/edna-sample-app/internal/client/client"
	"github.com/iobis/edna-sample-app/internal/client/connectivity"
	"github.com/iobis/edna-sample-app/internal/client/models"
	"github.com/iobis/edna-sample-app/internal/client/repositories/samples"
	"github.com/iobis/edna-sample-app/internal/logging"
)

const (
	msgSyncFailed      = "Sync failed"
	msgSyncNetwork     = "Network error while syncing samples"
	msgSyncUnconfirmed = "Sync not confirmed by server, please contact " + HelpdeskEmail + " if the error persists."
)

// RecordSyncer drains queued samples to the collection endpoint in one
// batch per run.
type RecordSyncer struct {
	client  client.Client
	repo    samples.Repository
	monitor connectivity.Monitor
	log     logging.Logger
	now     func() time.Time
}

func NewRecordSyncer(c client.Client, repo samples.Repository, m connectivity.Monitor, log logging.Logger) *RecordSyncer {
	return &RecordSyncer{
		client:  c,
		repo:    repo,
		monitor: m,
		log:     log.With("component", "record-sync"),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// SyncSamples submits every unsynced sample in a single request and marks
// them synced once the endpoint confirms the batch. A rejected batch marks
// nothing, so one bad sample holds back the whole queue until it is fixed
// on the remote side.
func (s *RecordSyncer) SyncSamples(ctx context.Context) models.SyncResult {
	if !s.monitor.IsOnline() {
		return noConnection()
	}

	queued, err := s.repo.GetUnsynced(ctx)
	if err != nil {
		s.log.Error(ctx, "failed to load queued samples", "error", err)
		return failed(storageFault("queued samples", err))
	}
	if len(queued) == 0 {
		return models.SyncResult{Success: true}
	}

	batch := make([]models.RemoteSample, len(queued))
	for i, smp := range queued {
		batch[i] = smp.Remote()
	}

	s.log.Debug(ctx, "submitting samples", "count", len(batch))
	resp, err := s.client.SubmitSamples(ctx, batch)
	if err != nil {
		se := remoteFailure(err, msgSyncFailed, msgSyncNetwork)
		s.log.Warn(ctx, "sample batch failed", "count", len(batch), "kind", se.Kind, "status", se.Status, "error", err)
		return failed(se)
	}
	if !resp.Success {
		s.log.Warn(ctx, "sample batch not confirmed", "count", len(batch), "message", resp.Message)
		return failed(&models.SyncError{Kind: models.KindRemoteRejected, Message: msgSyncUnconfirmed})
	}

	synced := 0
	yes := true
	for _, smp := range queued {
		now := s.now()
		if err := s.repo.Update(ctx, smp.ID, models.SamplePatch{Synced: &yes, UpdatedAt: &now}); err != nil {
			s.log.Warn(ctx, "failed to mark sample synced", "id", smp.ID, "sample_id", smp.SampleID, "error", err)
			continue
		}
		synced++
	}

	s.log.Info(ctx, "samples synced", "count", synced)
	return models.SyncResult{Success: true, Synced: synced}
}
