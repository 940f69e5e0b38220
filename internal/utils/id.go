package utils

import "github.com/google/uuid"

// NewID returns a time-ordered opaque identifier (UUIDv7).
func NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}
