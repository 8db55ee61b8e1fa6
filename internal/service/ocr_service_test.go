package service

import (
	"context"
	"sync"
	"testing"

	"sozoku-docs/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeVision scripts the model's answer per call. The generate func sees
// the prompt, so category routing can be asserted from the outside. Batch
// processing calls it from multiple goroutines, hence the mutex.
type fakeVision struct {
	mu       sync.Mutex
	generate func(prompt string, document []byte) ([]byte, error)
	prompts  []string
}

func (f *fakeVision) GenerateJSON(_ context.Context, prompt string, document []byte, _ string) ([]byte, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()
	return f.generate(prompt, document)
}

func staticVision(response string, err error) *fakeVision {
	return &fakeVision{generate: func(string, []byte) ([]byte, error) {
		if err != nil {
			return nil, err
		}
		return []byte(response), nil
	}}
}

func newOCRService(vision VisionClient) *OCRService {
	logger := zap.NewNop()
	return NewOCRService(vision, NewReconciler(logger), logger)
}

func TestProcessPassbookReconcilesModelOutput(t *testing.T) {
	vision := staticVision(`[
		{"取引日": "R5.4.1", "出金額": 0, "入金額": 0, "残高": 1000, "取引内容": "繰越"},
		{"取引日": "R5.4.10", "出金額": 0, "入金額": 500, "残高": 1500, "取引内容": "振込 ヤマダタロウ"},
		{"取引日": "R5.4.20", "出金額": 300, "入金額": 0, "残高": 1200, "取引内容": "引出"}
	]`, nil)
	svc := newOCRService(vision)

	txs, consistent, err := svc.ProcessPassbook(context.Background(), []byte("img"), "image/png", false)

	require.NoError(t, err)
	assert.True(t, consistent)
	require.Len(t, txs, 2, "carry-forward row must be filtered out")
	assert.Equal(t, int64(500), txs[0].Deposit)
	assert.Equal(t, "引出", txs[1].Description)
}

func TestProcessPassbookReportsInconsistentBalances(t *testing.T) {
	vision := staticVision(`[
		{"取引日": "R5.4.1", "出金額": 0, "入金額": 1000, "残高": 1000, "取引内容": "入金"},
		{"取引日": "R5.4.2", "出金額": 0, "入金額": 100, "残高": 1050, "取引内容": "入金"}
	]`, nil)
	svc := newOCRService(vision)

	txs, consistent, err := svc.ProcessPassbook(context.Background(), []byte("img"), "image/png", false)

	require.NoError(t, err)
	assert.False(t, consistent)
	require.Len(t, txs, 2, "inconsistent rows are still returned")
}

func TestProcessPassbookPromptVariants(t *testing.T) {
	vision := staticVision(`[]`, nil)
	svc := newOCRService(vision)

	_, _, err := svc.ProcessPassbook(context.Background(), []byte("img"), "image/png", false)
	require.NoError(t, err)
	_, _, err = svc.ProcessPassbook(context.Background(), []byte("img"), "image/png", true)
	require.NoError(t, err)

	require.Len(t, vision.prompts, 2)
	assert.Contains(t, vision.prompts[0], "手書きと思われる文字や数字は無視し")
	assert.Contains(t, vision.prompts[1], "手書きの文字や数字も認識に含めてください")
}

func TestProcessPassbookRejectsUnparseableOutput(t *testing.T) {
	svc := newOCRService(staticVision(`残高は1000円です`, nil))

	_, _, err := svc.ProcessPassbook(context.Background(), []byte("img"), "image/png", false)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse model output")
}

func TestProcessDocumentExtractsSchemaFields(t *testing.T) {
	svc := newOCRService(staticVision(`{"financial_institution": "○○銀行", "balance": 1234567}`, nil))

	data, err := svc.ProcessDocument(context.Background(), []byte("img"), "image/png", models.CategoryDeposit)

	require.NoError(t, err)
	assert.Equal(t, "○○銀行", data["financial_institution"])
	assert.Equal(t, float64(1234567), data["balance"])
}

func TestProcessDocumentUnsupportedCategory(t *testing.T) {
	svc := newOCRService(staticVision(`{}`, nil))

	for _, category := range []models.DocumentCategory{
		models.CategoryFuneralExpense,
		models.CategoryProcedureDoc,
		models.CategoryUnknown,
	} {
		_, err := svc.ProcessDocument(context.Background(), []byte("img"), "image/png", category)
		assert.ErrorIs(t, err, ErrUnsupportedCategory, category.Name())
	}
}

func TestExtractWrapsPassbookTransactions(t *testing.T) {
	vision := staticVision(`[
		{"取引日": "R5.4.10", "出金額": 0, "入金額": 500, "残高": 1500, "取引内容": "振込"}
	]`, nil)
	svc := newOCRService(vision)

	data, err := svc.Extract(context.Background(), []byte("img"), "image/png", models.CategoryPassbook, false)

	require.NoError(t, err)
	txs, ok := data[models.TransactionsKey].([]models.PassbookTransaction)
	require.True(t, ok)
	require.Len(t, txs, 1)
	assert.Equal(t, "振込", txs[0].Description)
}

func TestExtractDispatchesToRegisteredSchema(t *testing.T) {
	svc := newOCRService(staticVision(`{"insurance_company": "△△生命"}`, nil))

	data, err := svc.Extract(context.Background(), []byte("img"), "image/png", models.CategoryLifeInsurance, false)

	require.NoError(t, err)
	assert.Equal(t, "△△生命", data["insurance_company"])
}
