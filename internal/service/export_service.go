package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"time"

	"sozoku-docs/internal/models"
	"sozoku-docs/internal/registry"
	"sozoku-docs/internal/repository"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// ErrNothingToExport is returned when the selection matches no documents
// or produces zero rows. An empty file is never emitted.
var ErrNothingToExport = errors.New("nothing to export")

// utf8BOM is prepended so spreadsheet tools decode the multi-byte column
// headers correctly.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ExportService projects stored documents into the flat row layout the
// estate-inventory spreadsheet imports. Column sets differ per category;
// a mixed selection gets the union of columns in first-seen order, with
// the 区分 column first to disambiguate row shapes.
type ExportService struct {
	repo   repository.DocumentRepository
	logger *zap.Logger
}

func NewExportService(repo repository.DocumentRepository, logger *zap.Logger) *ExportService {
	return &ExportService{
		repo:   repo,
		logger: logger,
	}
}

// ExportCSV serializes the selection as a BOM-prefixed UTF-8 CSV and
// returns the bytes plus the download filename.
func (s *ExportService) ExportCSV(ctx context.Context, ids []string, categories []models.DocumentCategory) ([]byte, string, error) {
	columns, rows, err := s.project(ctx, ids, categories)
	if err != nil {
		return nil, "", err
	}

	var buf bytes.Buffer
	buf.Write(utf8BOM)

	w := csv.NewWriter(&buf)
	if err := w.Write(columns); err != nil {
		return nil, "", fmt.Errorf("write csv header: %w", err)
	}
	record := make([]string, len(columns))
	for _, row := range rows {
		for i, col := range columns {
			record[i] = row[col]
		}
		if err := w.Write(record); err != nil {
			return nil, "", fmt.Errorf("write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, "", fmt.Errorf("flush csv: %w", err)
	}

	filename := fmt.Sprintf("inheritance_data_%s.csv", time.Now().Format("20060102_150405"))
	s.logger.Info("CSVエクスポート完了",
		zap.Int("rows", len(rows)),
		zap.String("filename", filename),
	)
	return buf.Bytes(), filename, nil
}

// ExportExcel serializes the same projection as an .xlsx workbook.
func (s *ExportService) ExportExcel(ctx context.Context, ids []string, categories []models.DocumentCategory) ([]byte, string, error) {
	columns, rows, err := s.project(ctx, ids, categories)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Sheet1"
	for i, col := range columns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, "", err
		}
		if err := f.SetCellValue(sheet, cell, col); err != nil {
			return nil, "", err
		}
	}
	for r, row := range rows {
		for i, col := range columns {
			cell, err := excelize.CoordinatesToCellName(i+1, r+2)
			if err != nil {
				return nil, "", err
			}
			if err := f.SetCellValue(sheet, cell, row[col]); err != nil {
				return nil, "", err
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", fmt.Errorf("write workbook: %w", err)
	}

	filename := fmt.Sprintf("inheritance_data_%s.xlsx", time.Now().Format("20060102_150405"))
	s.logger.Info("Excelエクスポート完了",
		zap.Int("rows", len(rows)),
		zap.String("filename", filename),
	)
	return buf.Bytes(), filename, nil
}

// project resolves the selected ids, applies the category allow-list,
// and flattens each document through its registry projection. Missing
// ids are skipped rather than failing the whole export.
func (s *ExportService) project(ctx context.Context, ids []string, categories []models.DocumentCategory) ([]string, []registry.Row, error) {
	allowed := make(map[models.DocumentCategory]bool, len(categories))
	for _, c := range categories {
		allowed[c] = true
	}

	var docs []*models.ProcessedDocument
	for _, id := range ids {
		doc, err := s.repo.Get(ctx, id)
		if errors.Is(err, repository.ErrNotFound) {
			s.logger.Warn("エクスポート対象が見つかりません", zap.String("id", id))
			continue
		}
		if err != nil {
			return nil, nil, err
		}
		if len(allowed) > 0 && !allowed[doc.Category] {
			continue
		}
		docs = append(docs, doc)
	}
	if len(docs) == 0 {
		return nil, nil, ErrNothingToExport
	}

	var (
		columns []string
		seen    = make(map[string]bool)
		rows    []registry.Row
	)
	for _, doc := range docs {
		cols, docRows := registry.Project(doc)
		for _, col := range cols {
			if !seen[col] {
				seen[col] = true
				columns = append(columns, col)
			}
		}
		rows = append(rows, docRows...)
	}
	if len(rows) == 0 {
		return nil, nil, ErrNothingToExport
	}
	return columns, rows, nil
}
