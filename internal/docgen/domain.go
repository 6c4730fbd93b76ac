package docgen

import (
	"errors"
	"time"
)

// Document is a generated PDF stored on disk with its metadata in postgres.
type Document struct {
	ID         int64
	EntityType string
	EntityID   int64
	Filename   string
	Path       string
	SizeBytes  int64
	CreatedAt  time.Time
}

var (
	// ErrNotFound indicates the document does not exist.
	ErrNotFound = errors.New("docgen: document not found")
	// ErrNotRenderable indicates the entity is in a state that has no
	// printable document, such as a draft or cancelled bill.
	ErrNotRenderable = errors.New("docgen: entity not renderable in current state")
	// ErrUnknownEntity indicates an unsupported entity type.
	ErrUnknownEntity = errors.New("docgen: unknown entity type")
)
