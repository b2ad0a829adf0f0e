package repositories

import (
	"errors"

	"gorm.io/gorm"
)

// ErrNotFound is returned by repositories that are not backed by gorm
var ErrNotFound = errors.New("record not found")

// IsNotFoundError reports whether err means the requested row does not exist
func IsNotFoundError(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound) || errors.Is(err, ErrNotFound)
}
