package services

import (
	"github.com/google/uuid"

	"vantage/internal/domain"
)

// streamSession tracks the one listing session currently accepting
// batches. previous holds the outgoing file list so sticky derived
// fields can be carried into the new listing as batches land.
type streamSession struct {
	id       string
	path     string
	previous []domain.FileEntry
}

// newSessionID generates the opaque caller-side session id
func newSessionID() string {
	return uuid.New().String()
}
