package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"sozoku-docs/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const documentsSchema = `
CREATE TABLE IF NOT EXISTS documents (
	id                TEXT PRIMARY KEY,
	original_filename TEXT NOT NULL,
	category          TEXT NOT NULL,
	renamed_filename  TEXT NOT NULL DEFAULT '',
	extracted_data    JSONB NOT NULL DEFAULT '{}',
	ocr_confidence    DOUBLE PRECISION,
	processed_at      TIMESTAMPTZ NOT NULL,
	manual_edits      JSONB NOT NULL DEFAULT '{}',
	error_message     TEXT NOT NULL DEFAULT ''
)`

var documentColumns = []string{
	"id", "original_filename", "category", "renamed_filename",
	"extracted_data", "ocr_confidence", "processed_at", "manual_edits", "error_message",
}

// PostgresRepository is the durable DocumentRepository backend. The
// schema-free payloads are stored as JSONB so the category-driven shape
// of extracted_data survives unchanged.
type PostgresRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewPostgresRepository(db *pgxpool.Pool, logger *zap.Logger) *PostgresRepository {
	return &PostgresRepository{
		db:     db,
		logger: logger,
	}
}

// EnsureSchema creates the documents table when missing.
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, documentsSchema); err != nil {
		return fmt.Errorf("ensure documents schema: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Put(ctx context.Context, doc *models.ProcessedDocument) error {
	if doc.ID == "" {
		return fmt.Errorf("document ID is required")
	}

	extracted, edits, err := marshalPayloads(doc)
	if err != nil {
		return err
	}

	query := squirrel.Insert("documents").
		Columns(documentColumns...).
		Values(doc.ID, doc.OriginalFilename, doc.Category, doc.RenamedFilename,
			extracted, doc.OCRConfidence, doc.ProcessedAt, edits, doc.ErrorMessage).
		Suffix(`ON CONFLICT (id) DO UPDATE SET
			original_filename = EXCLUDED.original_filename,
			category = EXCLUDED.category,
			renamed_filename = EXCLUDED.renamed_filename,
			extracted_data = EXCLUDED.extracted_data,
			ocr_confidence = EXCLUDED.ocr_confidence,
			processed_at = EXCLUDED.processed_at,
			manual_edits = EXCLUDED.manual_edits,
			error_message = EXCLUDED.error_message`).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (*models.ProcessedDocument, error) {
	query := squirrel.Select(documentColumns...).
		From("documents").
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	doc, err := scanDocument(r.db.QueryRow(ctx, sql, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return doc, err
}

func (r *PostgresRepository) List(ctx context.Context, category *models.DocumentCategory) ([]*models.ProcessedDocument, error) {
	query := squirrel.Select(documentColumns...).
		From("documents").
		PlaceholderFormat(squirrel.Dollar)
	if category != nil {
		query = query.Where(squirrel.Eq{"category": *category})
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var documents []*models.ProcessedDocument
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		documents = append(documents, doc)
	}
	return documents, rows.Err()
}

func (r *PostgresRepository) Update(ctx context.Context, id string, updates map[string]any) (*models.ProcessedDocument, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	selectSQL, selectArgs, err := squirrel.Select(documentColumns...).
		From("documents").
		Where(squirrel.Eq{"id": id}).
		Suffix("FOR UPDATE").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	doc, err := scanDocument(tx.QueryRow(ctx, selectSQL, selectArgs...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	applyUpdates(doc, updates)

	extracted, edits, err := marshalPayloads(doc)
	if err != nil {
		return nil, err
	}

	updateSQL, updateArgs, err := squirrel.Update("documents").
		Set("extracted_data", extracted).
		Set("manual_edits", edits).
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	if _, err := tx.Exec(ctx, updateSQL, updateArgs...); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return doc, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	query := squirrel.Delete("documents").
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

func marshalPayloads(doc *models.ProcessedDocument) ([]byte, []byte, error) {
	extracted, err := json.Marshal(doc.ExtractedData)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal extracted_data: %w", err)
	}
	edits, err := json.Marshal(doc.ManualEdits)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal manual_edits: %w", err)
	}
	return extracted, edits, nil
}

func scanDocument(row pgx.Row) (*models.ProcessedDocument, error) {
	var (
		doc       models.ProcessedDocument
		extracted []byte
		edits     []byte
	)
	if err := row.Scan(
		&doc.ID, &doc.OriginalFilename, &doc.Category, &doc.RenamedFilename,
		&extracted, &doc.OCRConfidence, &doc.ProcessedAt, &edits, &doc.ErrorMessage,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(extracted, &doc.ExtractedData); err != nil {
		return nil, fmt.Errorf("unmarshal extracted_data: %w", err)
	}
	if err := json.Unmarshal(edits, &doc.ManualEdits); err != nil {
		return nil, fmt.Errorf("unmarshal manual_edits: %w", err)
	}
	return &doc, nil
}

// Ensure PostgresRepository implements DocumentRepository.
var _ DocumentRepository = (*PostgresRepository)(nil)
