package samples

import (
	"context"
	"time"

	"github.com/iobis/edna-sample-app/internal/client/models"
)

// Repository describes storage operations for Sample records.
type Repository interface {
	// Put inserts the sample or overwrites the stored one with the same ID.
	Put(ctx context.Context, s *models.Sample) error

	// GetAll returns every stored sample, oldest first.
	GetAll(ctx context.Context) ([]models.Sample, error)

	// GetByID returns the sample with the given internal ID or
	// common.ErrorNotFound.
	GetByID(ctx context.Context, id string) (*models.Sample, error)

	// GetBySampleID returns all samples carrying the given kit identifier.
	GetBySampleID(ctx context.Context, sampleID string) ([]models.Sample, error)

	// GetUnsynced returns samples not yet acknowledged by the remote, oldest first.
	GetUnsynced(ctx context.Context) ([]models.Sample, error)

	// GetCreatedBetween returns samples created in [from, to), oldest first.
	GetCreatedBetween(ctx context.Context, from, to time.Time) ([]models.Sample, error)

	// Update merges the non-nil patch fields into the stored sample.
	// It returns common.ErrorNotFound when id is unknown.
	Update(ctx context.Context, id string, patch models.SamplePatch) error

	// Delete removes the sample. Deleting a missing sample is not an error.
	Delete(ctx context.Context, id string) error

	// Clear removes all samples.
	Clear(ctx context.Context) error

	// Count returns the number of synced and queued samples.
	Count(ctx context.Context) (models.CollectionStats, error)
}
