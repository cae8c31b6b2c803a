package services

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/iobis/edna-sample-app/internal/client/models"
	"github.com/iobis/edna-sample-app/internal/common"
)

// MaxPhotoSize is the size above which a photo is stored with a warning.
const MaxPhotoSize = 10 << 20

var emailRe = regexp.MustCompile(`(?i)^[A-Z0-9._%+-]+@[A-Z0-9.-]+\.[A-Z]{2,}$`)

// ValidationError lists the offending form fields and why.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + e.Fields[k]
	}
	return "invalid sample: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return common.ErrValidation }

// ValidateForm checks a sample form before anything is stored.
func ValidateForm(f models.SampleForm) error {
	errs := map[string]string{}

	required := map[string]string{
		"sample_id":     f.SampleID,
		"contact_name":  f.ContactName,
		"contact_email": f.ContactEmail,
	}
	for field, v := range required {
		if strings.TrimSpace(v) == "" {
			errs[field] = "is required"
		}
	}
	if _, ok := errs["contact_email"]; !ok && !emailRe.MatchString(strings.TrimSpace(f.ContactEmail)) {
		errs["contact_email"] = "is not a valid email address"
	}
	if f.DateTime.IsZero() {
		errs["date_time"] = "is required"
	}

	checkRange(errs, "latitude", f.Latitude, true, -90, 90)
	checkRange(errs, "longitude", f.Longitude, true, -180, 180)
	checkRange(errs, "coordinate_uncertainty", f.CoordinateUncertainty, true, 0, math.Inf(1))
	checkRange(errs, "volume_filtered", f.VolumeFiltered, true, 0, math.Inf(1))
	checkRange(errs, "water_temperature", f.WaterTemperature, false, math.Inf(-1), math.Inf(1))

	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}

func checkRange(errs map[string]string, field string, v *float64, required bool, lo, hi float64) {
	if v == nil {
		if required {
			errs[field] = "is required"
		}
		return
	}
	if math.IsNaN(*v) || math.IsInf(*v, 0) {
		errs[field] = "must be a finite number"
		return
	}
	if *v < lo || *v > hi {
		if math.IsInf(hi, 1) {
			errs[field] = fmt.Sprintf("must be at least %g", lo)
		} else {
			errs[field] = fmt.Sprintf("must be between %g and %g", lo, hi)
		}
	}
}

// ValidatePhoto rejects attachments that are not images. The second return
// value reports a photo above MaxPhotoSize, which is accepted.
func ValidatePhoto(p models.Photo) (oversized bool, err error) {
	if len(p.Data) == 0 {
		return false, &ValidationError{Fields: map[string]string{"photo": "is empty"}}
	}
	if !strings.HasPrefix(strings.ToLower(p.MimeType), "image/") {
		return false, &ValidationError{Fields: map[string]string{"photo": fmt.Sprintf("unsupported media type %q", p.MimeType)}}
	}
	return len(p.Data) > MaxPhotoSize, nil
}

// RoundCoordinate rounds a GPS reading to 5 decimal places, about a metre.
func RoundCoordinate(v float64) float64 {
	return math.Round(v*1e5) / 1e5
}
