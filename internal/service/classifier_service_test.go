package service

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"sozoku-docs/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestClassifyParsesModelVerdict(t *testing.T) {
	vision := staticVision(`{
		"document_type": "PASSBOOK",
		"confidence": 0.92,
		"detected_keywords": ["通帳", "普通預金"]
	}`, nil)
	svc := NewClassifierService(vision, zap.NewNop())

	result := svc.Classify(context.Background(), []byte("img"), "image/png")

	assert.Equal(t, models.CategoryPassbook, result.Category)
	assert.InDelta(t, 0.92, result.Confidence, 1e-9)
	assert.Equal(t, []string{"通帳", "普通預金"}, result.DetectedKeywords)
}

func TestClassifyAcceptsCategoryCode(t *testing.T) {
	vision := staticVision(`{"document_type": "D", "confidence": 0.8}`, nil)
	svc := NewClassifierService(vision, zap.NewNop())

	result := svc.Classify(context.Background(), []byte("img"), "image/png")

	assert.Equal(t, models.CategoryDeposit, result.Category)
}

func TestClassifyDegradesToUnknown(t *testing.T) {
	tests := []struct {
		name   string
		vision *fakeVision
	}{
		{
			name:   "model call fails",
			vision: staticVision("", errors.New("quota exceeded")),
		},
		{
			name:   "output not json",
			vision: staticVision("たぶん通帳です", nil),
		},
		{
			name:   "unrecognized document type",
			vision: staticVision(`{"document_type": "RECEIPT", "confidence": 0.9}`, nil),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewClassifierService(tt.vision, zap.NewNop())

			result := svc.Classify(context.Background(), []byte("img"), "image/png")

			assert.Equal(t, models.CategoryUnknown, result.Category)
			assert.Zero(t, result.Confidence)
		})
	}
}

func TestSuggestFilename(t *testing.T) {
	svc := NewClassifierService(staticVision(`{}`, nil), zap.NewNop())

	name := svc.SuggestFilename(models.CategoryDeposit, "○○銀行", "2023-04-01")

	assert.Regexp(t, regexp.MustCompile(`^D\d{3}_預貯金_○○銀行_R230401\.pdf$`), name)
}

func TestSuggestFilenameDefaultsDate(t *testing.T) {
	svc := NewClassifierService(staticVision(`{}`, nil), zap.NewNop())

	name := svc.SuggestFilename(models.CategoryPassbook, "○○銀行", "")

	assert.Regexp(t, regexp.MustCompile(`^T\d{3}_通帳_○○銀行_R05\.pdf$`), name)
}

func TestSuggestFilenameSequenceAdvances(t *testing.T) {
	svc := NewClassifierService(staticVision(`{}`, nil), zap.NewNop())

	first := svc.SuggestFilename(models.CategoryDebt, "病院", "")
	second := svc.SuggestFilename(models.CategoryDebt, "病院", "")

	require.NotEqual(t, first, second)
}
