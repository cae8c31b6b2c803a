package services

import (
	"context"
	"fmt"
	"time"

	"github.com/iobis/edna-sample-app/internal/client/models"
	"github.com/iobis/edna-sample-app/internal/client/repositories/images"
	"github.com/iobis/edna-sample-app/internal/client/repositories/samples"
)

// StatsService counts synced and queued items in the local store.
type StatsService struct {
	samples samples.Repository
	images  images.Repository
}

func NewStatsService(samplesRepo samples.Repository, imagesRepo images.Repository) *StatsService {
	return &StatsService{samples: samplesRepo, images: imagesRepo}
}

func (s *StatsService) Stats(ctx context.Context) (models.Stats, error) {
	var st models.Stats
	var err error
	if st.Samples, err = s.samples.Count(ctx); err != nil {
		return models.Stats{}, fmt.Errorf("counting samples: %w", err)
	}
	if st.Images, err = s.images.Count(ctx); err != nil {
		return models.Stats{}, fmt.Errorf("counting images: %w", err)
	}
	return st, nil
}

// QueuedSince counts unsynced samples created in [since, until).
func (s *StatsService) QueuedSince(ctx context.Context, since, until time.Time) (int, error) {
	list, err := s.samples.GetCreatedBetween(ctx, since, until)
	if err != nil {
		return 0, fmt.Errorf("listing recent samples: %w", err)
	}
	n := 0
	for _, smp := range list {
		if !smp.Synced {
			n++
		}
	}
	return n, nil
}
