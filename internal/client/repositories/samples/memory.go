package samples

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/iobis/edna-sample-app/internal/client/models"
	"github.com/iobis/edna-sample-app/internal/common"
)

// MemoryRepository is a map-backed Repository for tests.
//
// UpdateErr, when set, is consulted before every Update and its error is
// returned instead of applying the patch.
type MemoryRepository struct {
	mu      sync.Mutex
	samples map[string]models.Sample

	UpdateErr func(id string) error
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{samples: make(map[string]models.Sample)}
}

func (r *MemoryRepository) Put(_ context.Context, s *models.Sample) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.samples[s.ID] = *s
	return nil
}

func (r *MemoryRepository) GetAll(_ context.Context) ([]models.Sample, error) {
	return r.filter(func(models.Sample) bool { return true }), nil
}

func (r *MemoryRepository) GetByID(_ context.Context, id string) (*models.Sample, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.samples[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &s, nil
}

func (r *MemoryRepository) GetBySampleID(_ context.Context, sampleID string) ([]models.Sample, error) {
	return r.filter(func(s models.Sample) bool { return s.SampleID == sampleID }), nil
}

func (r *MemoryRepository) GetUnsynced(_ context.Context) ([]models.Sample, error) {
	return r.filter(func(s models.Sample) bool { return !s.Synced }), nil
}

func (r *MemoryRepository) GetCreatedBetween(_ context.Context, from, to time.Time) ([]models.Sample, error) {
	return r.filter(func(s models.Sample) bool {
		return !s.CreatedAt.Before(from) && s.CreatedAt.Before(to)
	}), nil
}

func (r *MemoryRepository) Update(_ context.Context, id string, p models.SamplePatch) error {
	if r.UpdateErr != nil {
		if err := r.UpdateErr(id); err != nil {
			return err
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.samples[id]
	if !ok {
		return common.ErrorNotFound
	}
	if p.Synced != nil {
		s.Synced = *p.Synced
	}
	if p.UpdatedAt != nil {
		s.UpdatedAt = *p.UpdatedAt
	}
	if p.ImageID != nil {
		s.ImageID = *p.ImageID
	}
	r.samples[id] = s
	return nil
}

func (r *MemoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.samples, id)
	return nil
}

func (r *MemoryRepository) Clear(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.samples = make(map[string]models.Sample)
	return nil
}

func (r *MemoryRepository) Count(_ context.Context) (models.CollectionStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var st models.CollectionStats
	for _, s := range r.samples {
		if s.Synced {
			st.Synced++
		} else {
			st.Queued++
		}
	}
	return st, nil
}

func (r *MemoryRepository) filter(keep func(models.Sample) bool) []models.Sample {
	r.mu.Lock()
	defer r.mu.Unlock()

	result := make([]models.Sample, 0, len(r.samples))
	for _, s := range r.samples {
		if keep(s) {
			result = append(result, s)
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
