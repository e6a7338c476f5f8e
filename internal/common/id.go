package common

import "github.com/google/uuid"

// NewID returns a random identifier for jobs and sessions.
func NewID() string {
	return uuid.New().String()
}
