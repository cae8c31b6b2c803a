package services

import (
	"context"
	"sync"
	"time"

	"github.com/iobis/edna-sample-app/internal/client/client"
	"github.com/iobis/edna-sample-app/internal/client/models"
)

// fakeClient records every call and answers through the optional hooks.
type fakeClient struct {
	mu sync.Mutex

	submitFn func(batch []models.RemoteSample) (*client.SubmitResponse, error)
	uploadFn func(img client.ImageUpload) error

	batches [][]models.RemoteSample
	uploads []client.ImageUpload
}

func (f *fakeClient) SubmitSamples(_ context.Context, batch []models.RemoteSample) (*client.SubmitResponse, error) {
	f.mu.Lock()
	f.batches = append(f.batches, batch)
	fn := f.submitFn
	f.mu.Unlock()
	if fn != nil {
		return fn(batch)
	}
	return &client.SubmitResponse{Success: true}, nil
}

func (f *fakeClient) UploadImage(_ context.Context, img client.ImageUpload) error {
	f.mu.Lock()
	f.uploads = append(f.uploads, img)
	fn := f.uploadFn
	f.mu.Unlock()
	if fn != nil {
		return fn(img)
	}
	return nil
}

func (f *fakeClient) Ping(context.Context) error { return nil }

func (f *fakeClient) requests() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.batches) + len(f.uploads)
}

var t0 = time.Date(2024, 7, 1, 9, 0, 0, 0, time.UTC)

// fixedClock returns increasing timestamps one second apart.
func fixedClock() func() time.Time {
	var mu sync.Mutex
	n := 0
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		n++
		return t0.Add(time.Duration(n) * time.Second)
	}
}

func validForm(sampleID string) models.SampleForm {
	return models.SampleForm{
		SampleID:              sampleID,
		ContactName:           "Field Team",
		ContactEmail:          "team@example.org",
		DateTime:              t0.Add(-time.Hour),
		VolumeFiltered:        models.Float(1000),
		Latitude:              models.Float(43.29568),
		Longitude:             models.Float(5.36978),
		CoordinateUncertainty: models.Float(50),
	}
}
