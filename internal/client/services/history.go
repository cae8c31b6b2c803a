package services

import (
	"context"
	"time"

	"github.com/iobis/edna-sample-app/internal/client/models"
	"github.com/iobis/edna-sample-app/internal/client/repositories/metadata"
)

// History remembers when the last clean sync pass finished and the last
// error users were shown.
type History struct {
	repo metadata.Repository
}

func NewHistory(repo metadata.Repository) *History {
	return &History{repo: repo}
}

// RecordPass stores the outcome of p. A pass counts as clean when neither
// engine failed; a clean pass clears the stored error.
func (h *History) RecordPass(ctx context.Context, p models.PassResult) error {
	var msg string
	switch {
	case p.Samples.Failed():
		msg = p.Samples.Err.Message
	case p.Images.Failed():
		msg = p.Images.Err.Message
	}

	if msg != "" {
		return h.repo.Set(ctx, metadata.KeyLastSyncError, msg)
	}
	if err := h.repo.Set(ctx, metadata.KeyLastSyncAt, p.FinishedAt.UTC().Format(time.RFC3339)); err != nil {
		return err
	}
	return h.repo.Delete(ctx, metadata.KeyLastSyncError)
}

// Last returns the time of the last clean pass (zero if none) and the last
// stored error message.
func (h *History) Last(ctx context.Context) (time.Time, string, error) {
	var at time.Time
	v, ok, err := h.repo.Get(ctx, metadata.KeyLastSyncAt)
	if err != nil {
		return at, "", err
	}
	if ok {
		if at, err = time.Parse(time.RFC3339, v); err != nil {
			return time.Time{}, "", err
		}
	}
	msg, _, err := h.repo.Get(ctx, metadata.KeyLastSyncError)
	if err != nil {
		return at, "", err
	}
	return at, msg, nil
}
