// Package models defines the field-sampling records, their photo
// attachments and the value types exchanged by the sync engines.
package models

import (
	"time"
)

// Sample is a single sampling event captured in the field.
//
// Everything except Synced and UpdatedAt is fixed once the sample is stored.
type Sample struct {
	// ID is the internal key generated on the device.
	ID string
	// SampleID is the identifier printed on the sampling kit.
	SampleID string
	// SubmissionKey groups the sample with its photo on the remote side.
	SubmissionKey string

	ContactName  string
	ContactEmail string

	// DateTime is when the sample was taken.
	DateTime time.Time

	// VolumeFiltered is in millilitres.
	VolumeFiltered *float64
	// WaterTemperature is in degrees Celsius.
	WaterTemperature *float64

	Remarks            string
	EnvironmentRemarks string
	Replicate          *int
	Site               string
	Locality           string

	Latitude  float64
	Longitude float64
	// CoordinateUncertainty is a radius in metres.
	CoordinateUncertainty float64

	// ImageID references the attached Image, if any.
	ImageID string

	// Synced is set once the collection endpoint acknowledged the sample.
	Synced bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// SamplePatch lists the fields of a stored Sample that may change.
// Nil fields are left untouched.
type SamplePatch struct {
	Synced    *bool
	UpdatedAt *time.Time
	ImageID   *string
}

// SampleForm is the user-entered payload a Sample is built from.
//
// Required numeric fields are pointers so a missing value can be told
// apart from zero.
type SampleForm struct {
	SampleID     string
	ContactName  string
	ContactEmail string
	DateTime     time.Time

	VolumeFiltered   *float64
	WaterTemperature *float64

	Remarks            string
	EnvironmentRemarks string
	Replicate          *int
	Site               string
	Locality           string

	Latitude              *float64
	Longitude             *float64
	CoordinateUncertainty *float64
}

// NewSample builds an unsynced Sample from a validated form.
func NewSample(id, submissionKey string, f SampleForm, now time.Time) *Sample {
	s := &Sample{
		ID:                 id,
		SampleID:           f.SampleID,
		SubmissionKey:      submissionKey,
		ContactName:        f.ContactName,
		ContactEmail:       f.ContactEmail,
		DateTime:           f.DateTime.UTC(),
		VolumeFiltered:     f.VolumeFiltered,
		WaterTemperature:   f.WaterTemperature,
		Remarks:            f.Remarks,
		EnvironmentRemarks: f.EnvironmentRemarks,
		Replicate:          f.Replicate,
		Site:               f.Site,
		Locality:           f.Locality,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if f.Latitude != nil {
		s.Latitude = *f.Latitude
	}
	if f.Longitude != nil {
		s.Longitude = *f.Longitude
	}
	if f.CoordinateUncertainty != nil {
		s.CoordinateUncertainty = *f.CoordinateUncertainty
	}
	return s
}

// Float returns a pointer to v.
func Float(v float64) *float64 { return &v }

// Int returns a pointer to v.
func Int(v int) *int { return &v }
