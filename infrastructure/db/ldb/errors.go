package ldb

import (
	"github.com/pkg/errors"
)

// ErrNotFound denotes that the requested item was not
// found in the database.
var ErrNotFound = errors.New("not found")

// IsNotFoundError checks whether err is an ErrNotFound.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}
