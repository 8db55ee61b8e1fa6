package repository

import (
	"context"
	"errors"

	"sozoku-docs/internal/models"
)

// ErrNotFound is returned when the requested document id is absent.
var ErrNotFound = errors.New("document not found")

// DocumentRepository is the storage contract for processed documents.
// Implementations must be safe for concurrent use; records are keyed
// independently and no cross-record invariant is required.
type DocumentRepository interface {
	// Put inserts or replaces a document by id. The caller assigns the id.
	Put(ctx context.Context, doc *models.ProcessedDocument) error
	// Get returns the document or ErrNotFound.
	Get(ctx context.Context, id string) (*models.ProcessedDocument, error)
	// List returns all documents, optionally filtered by category.
	// Iteration order is not specified.
	List(ctx context.Context, category *models.DocumentCategory) ([]*models.ProcessedDocument, error)
	// Update merges manual field corrections into the document, or
	// returns ErrNotFound. Every key lands in ManualEdits; ExtractedData
	// is only overwritten for keys it already has, never widened.
	Update(ctx context.Context, id string, updates map[string]any) (*models.ProcessedDocument, error)
	// Delete removes the document permanently, or returns ErrNotFound.
	Delete(ctx context.Context, id string) error
}

// applyUpdates implements the shared correction-merge semantics.
func applyUpdates(doc *models.ProcessedDocument, updates map[string]any) {
	if doc.ManualEdits == nil {
		doc.ManualEdits = make(map[string]any, len(updates))
	}
	for key, value := range updates {
		doc.ManualEdits[key] = value
		if _, exists := doc.ExtractedData[key]; exists {
			doc.ExtractedData[key] = value
		}
	}
}
