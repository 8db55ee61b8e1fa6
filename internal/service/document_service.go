package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"sozoku-docs/internal/dto"
	"sozoku-docs/internal/models"
	"sozoku-docs/internal/repository"

	"go.uber.org/zap"
)

// defaultConfidence is recorded when the classifier supplied no score;
// the vision model's structured output is treated as high confidence.
const defaultConfidence = 0.95

// UploadedFile is one document handed to the pipeline.
type UploadedFile struct {
	Filename string
	Data     []byte
	MimeType string
}

// ProcessOptions controls classification and extraction of an upload.
type ProcessOptions struct {
	// Category forces a category, skipping classification.
	Category *models.DocumentCategory
	// AutoClassify asks the vision model when no category is forced.
	AutoClassify bool
	// IncludeHandwriting lets passbook extraction read handwritten rows.
	IncludeHandwriting bool
}

// DocumentService orchestrates the per-document pipeline (classify →
// extract → store) and the best-effort batch fan-out, and fronts the
// document store for the API layer.
type DocumentService struct {
	repo        repository.DocumentRepository
	classifier  *ClassifierService
	ocr         *OCRService
	maxParallel int
	itemTimeout time.Duration
	logger      *zap.Logger
}

func NewDocumentService(
	repo repository.DocumentRepository,
	classifier *ClassifierService,
	ocr *OCRService,
	maxParallel int,
	itemTimeout time.Duration,
	logger *zap.Logger,
) *DocumentService {
	if maxParallel < 1 {
		maxParallel = 1
	}
	return &DocumentService{
		repo:        repo,
		classifier:  classifier,
		ocr:         ocr,
		maxParallel: maxParallel,
		itemTimeout: itemTimeout,
		logger:      logger,
	}
}

// ProcessFile runs the full pipeline for one upload and stores the
// result. Extraction failure is returned to the caller; nothing partial
// is stored.
func (s *DocumentService) ProcessFile(ctx context.Context, file UploadedFile, opts ProcessOptions) (*models.ProcessedDocument, error) {
	if s.itemTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.itemTimeout)
		defer cancel()
	}

	category := models.CategoryUnknown
	confidence := defaultConfidence
	switch {
	case opts.Category != nil:
		category = *opts.Category
	case opts.AutoClassify:
		result := s.classifier.Classify(ctx, file.Data, file.MimeType)
		category = result.Category
		if result.Confidence > 0 {
			confidence = result.Confidence
		}
		s.logger.Info("書類分類結果",
			zap.String("filename", file.Filename),
			zap.String("category", category.Name()),
			zap.Float64("confidence", confidence),
		)
	}

	data, err := s.ocr.Extract(ctx, file.Data, file.MimeType, category, opts.IncludeHandwriting)
	if err != nil {
		return nil, err
	}

	doc := &models.ProcessedDocument{
		ID:               models.NewDocumentID(category),
		OriginalFilename: file.Filename,
		Category:         category,
		ExtractedData:    data,
		OCRConfidence:    &confidence,
		ProcessedAt:      time.Now(),
		ManualEdits:      map[string]any{},
	}

	if err := s.repo.Put(ctx, doc); err != nil {
		return nil, fmt.Errorf("store document: %w", err)
	}
	return doc, nil
}

// ProcessBatch fans the files out with bounded parallelism. Each item
// succeeds or fails on its own; failures are collected as
// "filename: message" strings and never abort siblings.
func (s *DocumentService) ProcessBatch(ctx context.Context, files []UploadedFile, opts ProcessOptions) *dto.BatchResult {
	result := &dto.BatchResult{
		Success:   true,
		Documents: []*models.ProcessedDocument{},
		Errors:    []string{},
	}

	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		sem = make(chan struct{}, s.maxParallel)
	)

	for _, file := range files {
		wg.Add(1)
		sem <- struct{}{}
		go func(file UploadedFile) {
			defer wg.Done()
			defer func() { <-sem }()

			doc, err := s.ProcessFile(ctx, file, opts)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				s.logger.Error("ファイル処理エラー",
					zap.String("filename", file.Filename),
					zap.Error(err),
				)
				result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", file.Filename, err))
				result.FailedCount++
				return
			}
			result.Documents = append(result.Documents, doc)
			result.ProcessedCount++
		}(file)
	}
	wg.Wait()

	// Batch order is not promised, but a stable report is easier to read.
	sort.Slice(result.Documents, func(i, j int) bool {
		return result.Documents[i].OriginalFilename < result.Documents[j].OriginalFilename
	})
	sort.Strings(result.Errors)

	s.logger.Info("一括処理完了",
		zap.Int("processed", result.ProcessedCount),
		zap.Int("failed", result.FailedCount),
	)
	return result
}

// Store inserts or replaces an already-built document, e.g. one edited
// and re-submitted by the operator.
func (s *DocumentService) Store(ctx context.Context, doc *models.ProcessedDocument) error {
	if doc.ID == "" {
		doc.ID = models.NewDocumentID(doc.Category)
	}
	if doc.ManualEdits == nil {
		doc.ManualEdits = map[string]any{}
	}
	if doc.ProcessedAt.IsZero() {
		doc.ProcessedAt = time.Now()
	}
	return s.repo.Put(ctx, doc)
}

func (s *DocumentService) Get(ctx context.Context, id string) (*models.ProcessedDocument, error) {
	return s.repo.Get(ctx, id)
}

func (s *DocumentService) List(ctx context.Context, category *models.DocumentCategory) ([]*models.ProcessedDocument, error) {
	return s.repo.List(ctx, category)
}

// Update applies manual field corrections; see the repository contract
// for the merge semantics.
func (s *DocumentService) Update(ctx context.Context, id string, updates map[string]any) (*models.ProcessedDocument, error) {
	return s.repo.Update(ctx, id, updates)
}

func (s *DocumentService) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}
