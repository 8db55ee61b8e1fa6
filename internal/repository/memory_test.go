package repository

import (
	"context"
	"testing"
	"time"

	"sozoku-docs/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDepositDoc(id string) *models.ProcessedDocument {
	return &models.ProcessedDocument{
		ID:               id,
		OriginalFilename: "scan_001.pdf",
		Category:         models.CategoryDeposit,
		ExtractedData: map[string]any{
			"financial_institution": "○○銀行",
			"balance":               int64(1000000),
		},
		ProcessedAt: time.Now(),
		ManualEdits: map[string]any{},
	}
}

// runRepositoryContract exercises the DocumentRepository semantics that
// every backend must share.
func runRepositoryContract(t *testing.T, newRepo func(t *testing.T) DocumentRepository) {
	ctx := context.Background()

	t.Run("put then get", func(t *testing.T) {
		repo := newRepo(t)
		doc := newDepositDoc("D_1")
		require.NoError(t, repo.Put(ctx, doc))

		got, err := repo.Get(ctx, "D_1")
		require.NoError(t, err)
		assert.Equal(t, doc.OriginalFilename, got.OriginalFilename)
		assert.Equal(t, models.CategoryDeposit, got.Category)
		assert.Equal(t, "○○銀行", got.ExtractedData["financial_institution"])
	})

	t.Run("put replaces existing id", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Put(ctx, newDepositDoc("D_1")))

		replacement := newDepositDoc("D_1")
		replacement.OriginalFilename = "scan_002.pdf"
		require.NoError(t, repo.Put(ctx, replacement))

		got, err := repo.Get(ctx, "D_1")
		require.NoError(t, err)
		assert.Equal(t, "scan_002.pdf", got.OriginalFilename)
	})

	t.Run("get missing", func(t *testing.T) {
		repo := newRepo(t)
		_, err := repo.Get(ctx, "D_missing")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("list filters by category", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Put(ctx, newDepositDoc("D_1")))
		require.NoError(t, repo.Put(ctx, newDepositDoc("D_2")))
		passbook := newDepositDoc("T_1")
		passbook.Category = models.CategoryPassbook
		require.NoError(t, repo.Put(ctx, passbook))

		all, err := repo.List(ctx, nil)
		require.NoError(t, err)
		assert.Len(t, all, 3)

		category := models.CategoryDeposit
		deposits, err := repo.List(ctx, &category)
		require.NoError(t, err)
		assert.Len(t, deposits, 2)
		for _, doc := range deposits {
			assert.Equal(t, models.CategoryDeposit, doc.Category)
		}
	})

	t.Run("update overwrites existing extracted key", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Put(ctx, newDepositDoc("D_1")))

		got, err := repo.Update(ctx, "D_1", map[string]any{"balance": int64(2000000)})
		require.NoError(t, err)

		assert.Equal(t, int64(2000000), got.ExtractedData["balance"])
		assert.Equal(t, int64(2000000), got.ManualEdits["balance"])
	})

	t.Run("update never widens extracted data", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Put(ctx, newDepositDoc("D_1")))

		got, err := repo.Update(ctx, "D_1", map[string]any{"reviewer_note": "要確認"})
		require.NoError(t, err)

		assert.Equal(t, "要確認", got.ManualEdits["reviewer_note"])
		assert.NotContains(t, got.ExtractedData, "reviewer_note")
	})

	t.Run("updates accumulate across calls", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Put(ctx, newDepositDoc("D_1")))

		_, err := repo.Update(ctx, "D_1", map[string]any{"balance": int64(500)})
		require.NoError(t, err)
		got, err := repo.Update(ctx, "D_1", map[string]any{"reviewer_note": "済"})
		require.NoError(t, err)

		assert.Equal(t, int64(500), got.ManualEdits["balance"])
		assert.Equal(t, "済", got.ManualEdits["reviewer_note"])
	})

	t.Run("update missing", func(t *testing.T) {
		repo := newRepo(t)
		_, err := repo.Update(ctx, "D_missing", map[string]any{"balance": 1})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("delete then get", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Put(ctx, newDepositDoc("D_1")))

		require.NoError(t, repo.Delete(ctx, "D_1"))

		_, err := repo.Get(ctx, "D_1")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("delete missing leaves store intact", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Put(ctx, newDepositDoc("D_1")))

		assert.ErrorIs(t, repo.Delete(ctx, "D_missing"), ErrNotFound)

		all, err := repo.List(ctx, nil)
		require.NoError(t, err)
		assert.Len(t, all, 1)
	})
}

func TestMemoryRepositoryContract(t *testing.T) {
	runRepositoryContract(t, func(t *testing.T) DocumentRepository {
		return NewMemoryRepository()
	})
}

func TestMemoryRepositoryRejectsEmptyID(t *testing.T) {
	repo := NewMemoryRepository()
	doc := newDepositDoc("")
	assert.Error(t, repo.Put(context.Background(), doc))
}

func TestMemoryRepositoryReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	require.NoError(t, repo.Put(ctx, newDepositDoc("D_1")))

	first, err := repo.Get(ctx, "D_1")
	require.NoError(t, err)
	first.ExtractedData["balance"] = int64(0)
	first.OriginalFilename = "tampered.pdf"

	second, err := repo.Get(ctx, "D_1")
	require.NoError(t, err)
	assert.Equal(t, int64(1000000), second.ExtractedData["balance"])
	assert.Equal(t, "scan_001.pdf", second.OriginalFilename)
}
