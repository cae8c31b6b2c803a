// Package filex has the filesystem helpers used by the CLI.
package filex

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/iobis/edna-sample-app/internal/client/models"
)

// EnsureDir creates dir and its parents if needed and returns its absolute
// path.
func EnsureDir(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("abs %s: %w", dir, err)
	}
	if err := os.MkdirAll(abs, 0o700); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", abs, err)
	}
	return abs, nil
}

// ReadPhoto loads a picture from disk. The media type is sniffed from the
// content, not taken from the extension.
func ReadPhoto(path string) (models.Photo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return models.Photo{}, fmt.Errorf("read photo: %w", err)
	}
	return models.Photo{
		Filename: filepath.Base(path),
		MimeType: http.DetectContentType(data),
		Data:     data,
	}, nil
}
