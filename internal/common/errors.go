// Package common defines sentinel errors shared by the local store, the
// services and the command line. Callers should match them with errors.Is.
package common

import "errors"

var (
	// repository specific errors
	ErrorNotFound = errors.New("not found")
	ErrStorage    = errors.New("storage error")

	// service specific errors
	ErrValidation = errors.New("validation error")
)
