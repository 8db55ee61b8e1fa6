package service

import (
	"sozoku-docs/internal/models"

	"go.uber.org/zap"
)

// balanceTolerance absorbs 1-yen rounding slack between printed balances.
const balanceTolerance = 1

// Reconciler verifies that a passbook's extracted ledger rows are
// internally consistent: each printed balance must equal the previous
// balance adjusted by that row's amounts. Inconsistency is reported, not
// fatal; noisy extractions are resolved by a human through manual edits.
type Reconciler struct {
	logger *zap.Logger
}

func NewReconciler(logger *zap.Logger) *Reconciler {
	return &Reconciler{logger: logger}
}

// Filter drops rows that represent no economic movement, such as
// carry-forward lines printed by the bank.
func (r *Reconciler) Filter(txs []models.PassbookTransaction) []models.PassbookTransaction {
	filtered := make([]models.PassbookTransaction, 0, len(txs))
	for _, tx := range txs {
		if tx.Withdrawal == 0 && tx.Deposit == 0 {
			continue
		}
		filtered = append(filtered, tx)
	}
	return filtered
}

// Verify checks every adjacent pair with two known balances for
// arithmetic consistency. Pairs with an unknown balance on either side
// are skipped. Fewer than two rows are trivially consistent.
func (r *Reconciler) Verify(txs []models.PassbookTransaction) bool {
	if len(txs) < 2 {
		return true
	}

	consistent := true
	for i := 1; i < len(txs); i++ {
		prev, curr := txs[i-1], txs[i]
		if prev.Balance == nil || curr.Balance == nil {
			continue
		}

		expected := *prev.Balance + curr.Deposit - curr.Withdrawal
		diff := *curr.Balance - expected
		if diff < 0 {
			diff = -diff
		}
		if diff > balanceTolerance {
			r.logger.Warn("残高不一致",
				zap.Int("row", i+1),
				zap.Int64("expected", expected),
				zap.Int64("actual", *curr.Balance),
			)
			consistent = false
		}
	}
	return consistent
}

// Reconcile filters non-economic rows and then verifies balances.
// The filtered rows are always returned; the flag only reports whether
// the running balances added up.
func (r *Reconciler) Reconcile(txs []models.PassbookTransaction) ([]models.PassbookTransaction, bool) {
	filtered := r.Filter(txs)
	consistent := r.Verify(filtered)
	if !consistent {
		r.logger.Warn("残高検算が一致しませんでした",
			zap.Int("transactions", len(filtered)),
		)
	}
	return filtered, consistent
}
