package models

import "time"

// Image is a photo attached to a Sample, linked by the kit SampleID.
type Image struct {
	ID            string
	SampleID      string
	SubmissionKey string

	// Data holds the raw bytes of the photo.
	Data     []byte
	Filename string
	MimeType string
	// Size is the length of Data in bytes.
	Size int64

	Synced bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ImagePatch lists the fields of a stored Image that may change.
type ImagePatch struct {
	Synced    *bool
	UpdatedAt *time.Time
}

// Photo is a picture supplied by the user before it is stored.
type Photo struct {
	Filename string
	MimeType string
	Data     []byte
}
