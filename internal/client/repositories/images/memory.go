package images

import (
	"context"
	"sort"
	"sync"

	"github.com/iobis/edna-sample-app/internal/client/models"
	"github.com/iobis/edna-sample-app/internal/common"
)

// MemoryRepository is a map-backed Repository for tests.
//
// PutErr and UpdateErr, when set, are consulted before Put and Update and
// their error is returned instead of touching the map.
type MemoryRepository struct {
	mu     sync.Mutex
	images map[string]models.Image

	PutErr    func(img *models.Image) error
	UpdateErr func(id string) error
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{images: make(map[string]models.Image)}
}

func (r *MemoryRepository) Put(_ context.Context, img *models.Image) error {
	if r.PutErr != nil {
		if err := r.PutErr(img); err != nil {
			return err
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.images[img.ID] = *img
	return nil
}

func (r *MemoryRepository) GetAll(_ context.Context) ([]models.Image, error) {
	return r.filter(func(models.Image) bool { return true }), nil
}

func (r *MemoryRepository) GetByID(_ context.Context, id string) (*models.Image, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	img, ok := r.images[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &img, nil
}

func (r *MemoryRepository) GetBySampleID(_ context.Context, sampleID string) (*models.Image, error) {
	list := r.filter(func(img models.Image) bool { return img.SampleID == sampleID })
	if len(list) == 0 {
		return nil, common.ErrorNotFound
	}
	latest := list[len(list)-1]
	return &latest, nil
}

func (r *MemoryRepository) GetUnsynced(_ context.Context) ([]models.Image, error) {
	return r.filter(func(img models.Image) bool { return !img.Synced }), nil
}

func (r *MemoryRepository) Update(_ context.Context, id string, p models.ImagePatch) error {
	if r.UpdateErr != nil {
		if err := r.UpdateErr(id); err != nil {
			return err
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	img, ok := r.images[id]
	if !ok {
		return common.ErrorNotFound
	}
	if p.Synced != nil {
		img.Synced = *p.Synced
	}
	if p.UpdatedAt != nil {
		img.UpdatedAt = *p.UpdatedAt
	}
	r.images[id] = img
	return nil
}

func (r *MemoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.images, id)
	return nil
}

func (r *MemoryRepository) DeleteBySampleID(_ context.Context, sampleID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, img := range r.images {
		if img.SampleID == sampleID {
			delete(r.images, id)
		}
	}
	return nil
}

func (r *MemoryRepository) Clear(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.images = make(map[string]models.Image)
	return nil
}

func (r *MemoryRepository) Count(_ context.Context) (models.CollectionStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var st models.CollectionStats
	for _, img := range r.images {
		if img.Synced {
			st.Synced++
		} else {
			st.Queued++
		}
	}
	return st, nil
}

func (r *MemoryRepository) filter(keep func(models.Image) bool) []models.Image {
	r.mu.Lock()
	defer r.mu.Unlock()

	result := make([]models.Image, 0, len(r.images))
	for _, img := range r.images {
		if keep(img) {
			result = append(result, img)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result
}
