package images

import (
	"context"

	"github.com/iobis/edna-sample-app/internal/client/models"
)

// Repository describes storage operations for Image records.
type Repository interface {
	// Put inserts the image or overwrites the stored one with the same ID.
	Put(ctx context.Context, img *models.Image) error

	// GetAll returns every stored image, oldest first.
	GetAll(ctx context.Context) ([]models.Image, error)

	// GetByID returns the image or common.ErrorNotFound.
	GetByID(ctx context.Context, id string) (*models.Image, error)

	// GetBySampleID returns the latest image linked to sampleID or
	// common.ErrorNotFound.
	GetBySampleID(ctx context.Context, sampleID string) (*models.Image, error)

	// GetUnsynced returns images still waiting for upload, oldest first.
	GetUnsynced(ctx context.Context) ([]models.Image, error)

	// Update merges the non-nil patch fields, or returns common.ErrorNotFound.
	Update(ctx context.Context, id string, patch models.ImagePatch) error

	// Delete removes one image.
	Delete(ctx context.Context, id string) error

	// DeleteBySampleID removes every image linked to sampleID.
	DeleteBySampleID(ctx context.Context, sampleID string) error

	// Clear removes all images.
	Clear(ctx context.Context) error

	// Count returns the number of synced and queued images.
	Count(ctx context.Context) (models.CollectionStats, error)
}
