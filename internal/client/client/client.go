package client

import (
	"context"

	"github.com/iobis/edna-sample-app/internal/client/models"
)

// Client is the contract of the remote collection endpoint.
type Client interface {
	// SubmitSamples posts the whole batch in a single request.
	SubmitSamples(ctx context.Context, samples []models.RemoteSample) (*SubmitResponse, error)
	// UploadImage posts one photo.
	UploadImage(ctx context.Context, img ImageUpload) error
	// Ping checks that the endpoint can be reached at all.
	Ping(ctx context.Context) error
}

// SubmitRequest is the JSON body of a sample batch.
type SubmitRequest struct {
	Samples []models.RemoteSample `json:"samples"`
}

// SubmitResponse is the JSON answer to a sample batch.
type SubmitResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Count   int    `json:"count,omitempty"`
}

// ImageUpload carries one photo and the kit identifier it belongs to.
type ImageUpload struct {
	SampleID      string
	SubmissionKey string
	Filename      string
	MimeType      string
	Data          []byte
}

// Form field names of an image upload.
const (
	FieldImage         = "image"
	FieldSampleID      = "sampleId"
	FieldSubmissionKey = "submission_key"
)
