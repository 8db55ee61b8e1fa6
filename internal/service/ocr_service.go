package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"sozoku-docs/internal/models"
	"sozoku-docs/internal/registry"

	"go.uber.org/zap"
)

// ErrUnsupportedCategory is returned when no extraction schema is
// registered for a category. The caller is expected to fall back to raw
// text handling instead.
var ErrUnsupportedCategory = errors.New("unsupported document category")

// OCRService is the extraction dispatcher: it routes a document and its
// category to the right prompt, hands the image to the vision model, and
// normalizes the raw output into the category's typed shape. Passbooks
// additionally pass through balance reconciliation. This is the seam for
// swapping OCR providers or adding validation rules; categories in,
// normalized records out.
type OCRService struct {
	vision     VisionClient
	reconciler *Reconciler
	logger     *zap.Logger
}

func NewOCRService(vision VisionClient, reconciler *Reconciler, logger *zap.Logger) *OCRService {
	return &OCRService{
		vision:     vision,
		reconciler: reconciler,
		logger:     logger,
	}
}

// ProcessPassbook extracts ledger rows from a passbook page and
// reconciles them. The boolean reports balance consistency; inconsistent
// data is still returned.
func (s *OCRService) ProcessPassbook(ctx context.Context, document []byte, mimeType string, includeHandwriting bool) ([]models.PassbookTransaction, bool, error) {
	prompt := registry.PassbookPrompt(time.Now(), includeHandwriting)

	raw, err := s.vision.GenerateJSON(ctx, prompt, document, mimeType)
	if err != nil {
		return nil, false, fmt.Errorf("passbook extraction: %w", err)
	}

	var txs []models.PassbookTransaction
	if err := json.Unmarshal(raw, &txs); err != nil {
		return nil, false, fmt.Errorf("passbook extraction: parse model output: %w", err)
	}

	filtered, consistent := s.reconciler.Reconcile(txs)

	s.logger.Info("通帳OCR処理完了",
		zap.Int("transactions", len(filtered)),
		zap.Bool("balances_consistent", consistent),
	)
	return filtered, consistent, nil
}

// ProcessDocument extracts the registered schema's fields for any
// non-passbook category. Parse failures of the model output are hard
// failures, not retried.
func (s *OCRService) ProcessDocument(ctx context.Context, document []byte, mimeType string, category models.DocumentCategory) (map[string]any, error) {
	schema, ok := registry.SchemaFor(category)
	if !ok || schema.Prompt == "" {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedCategory, category.Name())
	}

	raw, err := s.vision.GenerateJSON(ctx, schema.Prompt, document, mimeType)
	if err != nil {
		return nil, fmt.Errorf("extraction (%s): %w", category.Name(), err)
	}

	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("extraction (%s): parse model output: %w", category.Name(), err)
	}
	return data, nil
}

// Extract dispatches on category and returns the normalized
// extracted_data payload for a ProcessedDocument.
func (s *OCRService) Extract(ctx context.Context, document []byte, mimeType string, category models.DocumentCategory, includeHandwriting bool) (map[string]any, error) {
	if category == models.CategoryPassbook {
		txs, _, err := s.ProcessPassbook(ctx, document, mimeType, includeHandwriting)
		if err != nil {
			return nil, err
		}
		return map[string]any{models.TransactionsKey: txs}, nil
	}
	return s.ProcessDocument(ctx, document, mimeType, category)
}
