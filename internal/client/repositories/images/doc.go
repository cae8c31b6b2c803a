// Package images stores photos attached to field samples.
//
// Images are linked to their sample by the kit identifier (SampleID), not
// by the internal sample key, because that is what the collection endpoint
// understands. A sample normally has at most one image; when several exist
// GetBySampleID returns the most recent one.
package images
