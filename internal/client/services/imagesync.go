package services

import (
	"context"
	"time"

	"github.com/iobis/edna-sample-app/internal/client/client"
	"github.com/iobis/edna-sample-app/internal/client/connectivity"
	"github.com/iobis/edna-sample-app/internal/client/models"
	"github.com/iobis/edna-sample-app/internal/client/repositories/images"
	"github.com/iobis/edna-sample-app/internal/logging"
)

const (
	msgImageFailed  = "Image upload failed"
	msgImageNetwork = "Network error while uploading image"
)

// ProgressFunc is called after every image upload attempt; err is nil on
// success.
type ProgressFunc func(img models.Image, err error)

// ImageSyncer uploads queued photos one request at a time.
type ImageSyncer struct {
	client   client.Client
	repo     images.Repository
	monitor  connectivity.Monitor
	log      logging.Logger
	now      func() time.Time
	progress ProgressFunc
}

func NewImageSyncer(c client.Client, repo images.Repository, m connectivity.Monitor, log logging.Logger) *ImageSyncer {
	return &ImageSyncer{
		client:  c,
		repo:    repo,
		monitor: m,
		log:     log.With("component", "image-sync"),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// WithProgress returns a copy of s that reports every attempt to fn.
func (s *ImageSyncer) WithProgress(fn ProgressFunc) *ImageSyncer {
	cp := *s
	cp.progress = fn
	return &cp
}

// Pending returns the images SyncAllImages would upload.
func (s *ImageSyncer) Pending(ctx context.Context) ([]models.Image, error) {
	return s.repo.GetUnsynced(ctx)
}

// SyncAllImages uploads every unsynced image sequentially. A failed upload
// does not stop the rest; the run succeeds when at least one image went
// through, and carries the last error only when none did.
func (s *ImageSyncer) SyncAllImages(ctx context.Context) models.SyncResult {
	if !s.monitor.IsOnline() {
		return noConnection()
	}

	queued, err := s.repo.GetUnsynced(ctx)
	if err != nil {
		s.log.Error(ctx, "failed to load queued images", "error", err)
		return failed(storageFault("queued images", err))
	}
	if len(queued) == 0 {
		return models.SyncResult{Success: true}
	}

	var (
		synced  int
		lastErr *models.SyncError
	)
	for _, img := range queued {
		ok, se := s.upload(ctx, img)
		if se != nil {
			lastErr = se
		}
		if ok {
			synced++
		}
		if s.progress != nil {
			var perr error
			if se != nil {
				perr = se
			}
			s.progress(img, perr)
		}
	}

	s.log.Info(ctx, "images synced", "count", synced, "queued", len(queued))
	res := models.SyncResult{Success: synced > 0, Synced: synced}
	if synced == 0 {
		res.Err = lastErr
	}
	return res
}

// SyncImage uploads a single image.
func (s *ImageSyncer) SyncImage(ctx context.Context, img models.Image) models.SyncResult {
	if !s.monitor.IsOnline() {
		return noConnection()
	}
	ok, se := s.upload(ctx, img)
	if se != nil {
		return failed(se)
	}
	if !ok {
		return models.SyncResult{Success: true}
	}
	return models.SyncResult{Success: true, Synced: 1}
}

// upload sends img and marks it synced. ok is false when the upload failed
// or the image could not be marked; only upload failures produce an error.
func (s *ImageSyncer) upload(ctx context.Context, img models.Image) (ok bool, se *models.SyncError) {
	err := s.client.UploadImage(ctx, client.ImageUpload{
		SampleID:      img.SampleID,
		SubmissionKey: img.SubmissionKey,
		Filename:      img.Filename,
		MimeType:      img.MimeType,
		Data:          img.Data,
	})
	if err != nil {
		se := remoteFailure(err, msgImageFailed, msgImageNetwork+" "+img.Filename)
		s.log.Warn(ctx, "image upload failed", "id", img.ID, "sample_id", img.SampleID, "kind", se.Kind, "error", err)
		return false, se
	}

	yes := true
	now := s.now()
	if err := s.repo.Update(ctx, img.ID, models.ImagePatch{Synced: &yes, UpdatedAt: &now}); err != nil {
		s.log.Warn(ctx, "failed to mark image synced", "id", img.ID, "error", err)
		return false, nil
	}
	return true, nil
}
