package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"
	"time"

	"sozoku-docs/internal/models"
	"sozoku-docs/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

func seedPassbookDoc(t *testing.T, repo repository.DocumentRepository, id string) {
	t.Helper()
	d1, d2, d3 := "2023-04-01", "2023-04-10", "2023-04-20"
	b1, b2, b3 := int64(1000), int64(1500), int64(1200)
	doc := &models.ProcessedDocument{
		ID:               id,
		OriginalFilename: "passbook.png",
		Category:         models.CategoryPassbook,
		ExtractedData: map[string]any{
			models.TransactionsKey: []models.PassbookTransaction{
				{TransactionDate: &d1, Deposit: 1000, Balance: &b1, Description: "入金"},
				{TransactionDate: &d2, Deposit: 500, Balance: &b2, Description: "振込 ヤマダタロウ"},
				{TransactionDate: &d3, Withdrawal: 300, Balance: &b3, Description: "引出"},
			},
		},
		ProcessedAt: time.Now(),
		ManualEdits: map[string]any{},
	}
	require.NoError(t, repo.Put(context.Background(), doc))
}

func seedDepositDoc(t *testing.T, repo repository.DocumentRepository, id string) {
	t.Helper()
	doc := &models.ProcessedDocument{
		ID:               id,
		OriginalFilename: "certificate.pdf",
		Category:         models.CategoryDeposit,
		ExtractedData: map[string]any{
			"financial_institution": "○○銀行",
			"branch":                "本店",
			"account_type":          "普通預金",
			"account_number":        "1234567",
			"balance":               int64(2500000),
		},
		ProcessedAt: time.Now(),
		ManualEdits: map[string]any{},
	}
	require.NoError(t, repo.Put(context.Background(), doc))
}

func parseCSV(t *testing.T, data []byte) [][]string {
	t.Helper()
	require.True(t, bytes.HasPrefix(data, []byte{0xEF, 0xBB, 0xBF}),
		"export must start with a UTF-8 BOM")
	records, err := csv.NewReader(bytes.NewReader(data[3:])).ReadAll()
	require.NoError(t, err)
	return records
}

func TestExportCSVMixedCategories(t *testing.T) {
	repo := repository.NewMemoryRepository()
	seedPassbookDoc(t, repo, "T_1")
	seedDepositDoc(t, repo, "D_1")
	svc := NewExportService(repo, zap.NewNop())

	data, filename, err := svc.ExportCSV(context.Background(), []string{"T_1", "D_1"}, nil)
	require.NoError(t, err)
	assert.Regexp(t, `^inheritance_data_\d{8}_\d{6}\.csv$`, filename)

	records := parseCSV(t, data)
	// Header plus three passbook rows plus one deposit row.
	require.Len(t, records, 5)

	// Column union in first-seen order: passbook columns, then the
	// deposit columns not already present.
	assert.Equal(t, []string{
		"区分", "取引日", "出金額", "入金額", "残高", "取引内容", "元ファイル",
		"金融機関", "支店", "種類", "口座番号", "既経過利子",
	}, records[0])

	header := records[0]
	cell := func(row []string, col string) string {
		for i, c := range header {
			if c == col {
				return row[i]
			}
		}
		t.Fatalf("column %s not in header", col)
		return ""
	}

	assert.Equal(t, "通帳", cell(records[1], "区分"))
	assert.Equal(t, "passbook.png", cell(records[1], "元ファイル"))
	assert.Equal(t, "500", cell(records[2], "入金額"))
	assert.Equal(t, "振込 ヤマダタロウ", cell(records[2], "取引内容"))

	assert.Equal(t, "預貯金", cell(records[4], "区分"))
	assert.Equal(t, "certificate.pdf", cell(records[4], "元ファイル"))
	assert.Equal(t, "○○銀行", cell(records[4], "金融機関"))
	assert.Equal(t, "2500000", cell(records[4], "残高"))
	// Passbook-only columns stay empty on the deposit row.
	assert.Equal(t, "", cell(records[4], "取引日"))
}

func TestExportCSVCategoryFilter(t *testing.T) {
	repo := repository.NewMemoryRepository()
	seedPassbookDoc(t, repo, "T_1")
	seedDepositDoc(t, repo, "D_1")
	svc := NewExportService(repo, zap.NewNop())

	data, _, err := svc.ExportCSV(context.Background(), []string{"T_1", "D_1"},
		[]models.DocumentCategory{models.CategoryDeposit})
	require.NoError(t, err)

	records := parseCSV(t, data)
	require.Len(t, records, 2)
	assert.Equal(t, []string{"区分", "金融機関", "支店", "種類", "口座番号", "残高", "既経過利子", "元ファイル"}, records[0])
}

func TestExportCSVSkipsMissingIDs(t *testing.T) {
	repo := repository.NewMemoryRepository()
	seedDepositDoc(t, repo, "D_1")
	svc := NewExportService(repo, zap.NewNop())

	data, _, err := svc.ExportCSV(context.Background(), []string{"D_missing", "D_1"}, nil)
	require.NoError(t, err)

	records := parseCSV(t, data)
	assert.Len(t, records, 2)
}

func TestExportCSVNothingToExport(t *testing.T) {
	repo := repository.NewMemoryRepository()
	seedDepositDoc(t, repo, "D_1")
	svc := NewExportService(repo, zap.NewNop())

	tests := []struct {
		name       string
		ids        []string
		categories []models.DocumentCategory
	}{
		{name: "empty selection", ids: nil},
		{name: "only missing ids", ids: []string{"D_missing"}},
		{
			name:       "filter excludes everything",
			ids:        []string{"D_1"},
			categories: []models.DocumentCategory{models.CategoryPassbook},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := svc.ExportCSV(context.Background(), tt.ids, tt.categories)
			assert.ErrorIs(t, err, ErrNothingToExport)
		})
	}
}

func TestExportCSVPassbookWithoutTransactions(t *testing.T) {
	repo := repository.NewMemoryRepository()
	doc := &models.ProcessedDocument{
		ID:               "T_1",
		OriginalFilename: "passbook.png",
		Category:         models.CategoryPassbook,
		ExtractedData:    map[string]any{models.TransactionsKey: []models.PassbookTransaction{}},
		ProcessedAt:      time.Now(),
	}
	require.NoError(t, repo.Put(context.Background(), doc))
	svc := NewExportService(repo, zap.NewNop())

	_, _, err := svc.ExportCSV(context.Background(), []string{"T_1"}, nil)
	assert.ErrorIs(t, err, ErrNothingToExport)
}

func TestExportExcel(t *testing.T) {
	repo := repository.NewMemoryRepository()
	seedDepositDoc(t, repo, "D_1")
	svc := NewExportService(repo, zap.NewNop())

	data, filename, err := svc.ExportExcel(context.Background(), []string{"D_1"}, nil)
	require.NoError(t, err)
	assert.Regexp(t, `^inheritance_data_\d{8}_\d{6}\.xlsx$`, filename)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Sheet1")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "区分", rows[0][0])
	assert.Equal(t, "預貯金", rows[1][0])
}
