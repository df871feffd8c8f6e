package repository

import "errors"

// ErrNotFound indicates the requested job definition does not exist
var ErrNotFound = errors.New("job definition not found")

// IsNotFoundError checks if an error is a missing-record error
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}
