package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/iobis/edna-sample-app/internal/client/models"
	"github.com/iobis/edna-sample-app/internal/client/repositories/images"
	"github.com/iobis/edna-sample-app/internal/client/repositories/samples"
	"github.com/iobis/edna-sample-app/internal/common"
	"github.com/iobis/edna-sample-app/internal/logging"
)

type SampleService interface {
	// Create validates the form, stores a new queued sample and, if given,
	// its photo. A photo that cannot be stored is logged and dropped; the
	// sample is kept.
	Create(ctx context.Context, form models.SampleForm, photo *models.Photo) (*models.Sample, error)
	// List returns all samples, newest first.
	List(ctx context.Context) ([]models.Sample, error)
	// Get returns a sample and its photo, which may be nil.
	Get(ctx context.Context, id string) (*models.Sample, *models.Image, error)
	// Delete removes a sample together with its photo.
	Delete(ctx context.Context, id string) error
}

type sampleService struct {
	samples samples.Repository
	images  images.Repository
	log     logging.Logger
	now     func() time.Time
}

func NewSampleService(samplesRepo samples.Repository, imagesRepo images.Repository, log logging.Logger) SampleService {
	return &sampleService{
		samples: samplesRepo,
		images:  imagesRepo,
		log:     log.With("component", "samples"),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *sampleService) Create(ctx context.Context, form models.SampleForm, photo *models.Photo) (*models.Sample, error) {
	if err := ValidateForm(form); err != nil {
		return nil, err
	}

	oversized := false
	if photo != nil {
		var err error
		if oversized, err = ValidatePhoto(*photo); err != nil {
			return nil, err
		}
	}

	now := s.now()
	smp := models.NewSample(uuid.NewString(), uuid.NewString(), form, now)
	var img *models.Image
	if photo != nil {
		img = &models.Image{
			ID:            uuid.NewString(),
			SampleID:      smp.SampleID,
			SubmissionKey: smp.SubmissionKey,
			Data:          photo.Data,
			Filename:      photo.Filename,
			MimeType:      photo.MimeType,
			Size:          int64(len(photo.Data)),
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		// The link is part of the stored record from the start.
		smp.ImageID = img.ID
	}

	if err := s.samples.Put(ctx, smp); err != nil {
		return nil, fmt.Errorf("saving sample: %w", err)
	}
	s.log.Info(ctx, "sample queued", "id", smp.ID, "sample_id", smp.SampleID)

	if img == nil {
		return smp, nil
	}
	if oversized {
		s.log.Warn(ctx, "photo is larger than recommended", "sample_id", smp.SampleID,
			"size", len(photo.Data), "limit", MaxPhotoSize)
	}
	if err := s.images.Put(ctx, img); err != nil {
		s.log.Warn(ctx, "failed to save photo, sample kept without it", "sample_id", smp.SampleID, "error", err)
		none := ""
		if err := s.samples.Update(ctx, smp.ID, models.SamplePatch{ImageID: &none}); err != nil {
			s.log.Warn(ctx, "failed to unlink missing photo", "sample_id", smp.SampleID, "error", err)
		}
		smp.ImageID = ""
	}
	return smp, nil
}

func (s *sampleService) List(ctx context.Context) ([]models.Sample, error) {
	list, err := s.samples.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing samples: %w", err)
	}
	slices.Reverse(list)
	return list, nil
}

func (s *sampleService) Get(ctx context.Context, id string) (*models.Sample, *models.Image, error) {
	smp, err := s.samples.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	var img *models.Image
	if smp.ImageID != "" {
		img, err = s.images.GetByID(ctx, smp.ImageID)
	} else {
		img, err = s.images.GetBySampleID(ctx, smp.SampleID)
	}
	if errors.Is(err, common.ErrorNotFound) {
		return smp, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("loading photo: %w", err)
	}
	return smp, img, nil
}

func (s *sampleService) Delete(ctx context.Context, id string) error {
	smp, err := s.samples.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if smp.ImageID != "" {
		if err := s.images.Delete(ctx, smp.ImageID); err != nil {
			return fmt.Errorf("deleting photo: %w", err)
		}
	}
	if err := s.samples.Delete(ctx, id); err != nil {
		return fmt.Errorf("deleting sample: %w", err)
	}
	s.log.Info(ctx, "sample deleted", "id", id, "sample_id", smp.SampleID)
	return nil
}
