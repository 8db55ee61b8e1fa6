package repository

import (
	"context"
	"fmt"
	"sync"

	"sozoku-docs/internal/models"
)

// MemoryRepository keeps documents in process memory. It is the default
// backend: state lives for the lifetime of the process, matching the
// review workflow where an operator processes a batch, corrects it, and
// exports in one session. Safe for concurrent use.
type MemoryRepository struct {
	mu   sync.RWMutex
	docs map[string]*models.ProcessedDocument
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		docs: make(map[string]*models.ProcessedDocument),
	}
}

func (r *MemoryRepository) Put(ctx context.Context, doc *models.ProcessedDocument) error {
	if doc.ID == "" {
		return fmt.Errorf("document ID is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Store a copy so later mutations of the caller's value do not leak in.
	r.docs[doc.ID] = doc.Clone()
	return nil
}

func (r *MemoryRepository) Get(ctx context.Context, id string) (*models.ProcessedDocument, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	doc, exists := r.docs[id]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return doc.Clone(), nil
}

func (r *MemoryRepository) List(ctx context.Context, category *models.DocumentCategory) ([]*models.ProcessedDocument, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*models.ProcessedDocument, 0, len(r.docs))
	for _, doc := range r.docs {
		if category != nil && doc.Category != *category {
			continue
		}
		result = append(result, doc.Clone())
	}
	return result, nil
}

func (r *MemoryRepository) Update(ctx context.Context, id string, updates map[string]any) (*models.ProcessedDocument, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, exists := r.docs[id]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	applyUpdates(doc, updates)
	return doc.Clone(), nil
}

func (r *MemoryRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.docs[id]; !exists {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	delete(r.docs, id)
	return nil
}

// Ensure MemoryRepository implements DocumentRepository.
var _ DocumentRepository = (*MemoryRepository)(nil)
