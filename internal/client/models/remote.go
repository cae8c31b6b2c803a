package models

import "time"

// RemoteSample is the JSON shape the collection endpoint expects for each
// sample. Optional values are sent as explicit nulls.
type RemoteSample struct {
	SampleID              string   `json:"sample_id"`
	SubmissionKey         *string  `json:"submission_key"`
	ContactName           string   `json:"contact_name"`
	ContactEmail          string   `json:"contact_email"`
	DateTime              string   `json:"date_time"`
	VolumeFiltered        *float64 `json:"volume_filtered"`
	WaterTemperature      *float64 `json:"water_temperature"`
	Remarks               *string  `json:"remarks"`
	EnvironmentRemarks    *string  `json:"environment_remarks"`
	Replicate             *int     `json:"replicate"`
	Site                  *string  `json:"site"`
	Locality              *string  `json:"locality"`
	Latitude              float64  `json:"latitude"`
	Longitude             float64  `json:"longitude"`
	CoordinateUncertainty float64  `json:"coordinate_uncertainty"`
	ImageID               *string  `json:"image_id"`
}

// Remote maps s to its wire representation. Internal bookkeeping fields
// (ID, Synced, CreatedAt, UpdatedAt) are not part of it.
func (s Sample) Remote() RemoteSample {
	return RemoteSample{
		SampleID:              s.SampleID,
		SubmissionKey:         optString(s.SubmissionKey),
		ContactName:           s.ContactName,
		ContactEmail:          s.ContactEmail,
		DateTime:              s.DateTime.UTC().Format(time.RFC3339Nano),
		VolumeFiltered:        s.VolumeFiltered,
		WaterTemperature:      s.WaterTemperature,
		Remarks:               optString(s.Remarks),
		EnvironmentRemarks:    optString(s.EnvironmentRemarks),
		Replicate:             s.Replicate,
		Site:                  optString(s.Site),
		Locality:              optString(s.Locality),
		Latitude:              s.Latitude,
		Longitude:             s.Longitude,
		CoordinateUncertainty: s.CoordinateUncertainty,
		ImageID:               optString(s.ImageID),
	}
}

func optString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
