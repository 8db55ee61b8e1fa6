package models

import (
	"time"

	"github.com/google/uuid"
)

// DocumentCategory is the closed set of inheritance-tax document
// classifications. The values are the single-letter codes used in
// document ids and rename proposals.
type DocumentCategory string

const (
	CategoryLandBuilding    DocumentCategory = "L"  // 土地・建物
	CategoryListedStock     DocumentCategory = "S"  // 上場株式・投資信託
	CategoryOtherInvestment DocumentCategory = "OI" // その他出資金
	CategoryPublicBond      DocumentCategory = "PB" // 公社債
	CategoryDeposit         DocumentCategory = "D"  // 預貯金
	CategoryLifeInsurance   DocumentCategory = "I"  // 生命保険
	CategoryDeathRetirement DocumentCategory = "DR" // 死亡退職金
	CategoryOtherProperty   DocumentCategory = "O"  // その他財産
	CategoryDebt            DocumentCategory = "C"  // 債務
	CategoryFuneralExpense  DocumentCategory = "F"  // 葬式費用
	CategoryPassbook        DocumentCategory = "T"  // 通帳
	CategoryProcedureDoc    DocumentCategory = "P"  // 手続き関係書類
	CategoryUnknown         DocumentCategory = "U"  // 不明書類
)

type categoryInfo struct {
	name  string
	label string
}

var categories = map[DocumentCategory]categoryInfo{
	CategoryLandBuilding:    {"LAND_BUILDING", "土地・建物"},
	CategoryListedStock:     {"LISTED_STOCK", "上場株式"},
	CategoryOtherInvestment: {"OTHER_INVESTMENT", "その他出資金"},
	CategoryPublicBond:      {"PUBLIC_BOND", "公社債"},
	CategoryDeposit:         {"DEPOSIT", "預貯金"},
	CategoryLifeInsurance:   {"LIFE_INSURANCE", "生命保険"},
	CategoryDeathRetirement: {"DEATH_RETIREMENT", "死亡退職金"},
	CategoryOtherProperty:   {"OTHER_PROPERTY", "その他財産"},
	CategoryDebt:            {"DEBT", "債務"},
	CategoryFuneralExpense:  {"FUNERAL_EXPENSE", "葬式費用"},
	CategoryPassbook:        {"PASSBOOK", "通帳"},
	CategoryProcedureDoc:    {"PROCEDURE_DOC", "手続き関係書類"},
	CategoryUnknown:         {"UNKNOWN", "不明書類"},
}

// AllCategories returns every category in a stable order.
func AllCategories() []DocumentCategory {
	return []DocumentCategory{
		CategoryLandBuilding,
		CategoryListedStock,
		CategoryOtherInvestment,
		CategoryPublicBond,
		CategoryDeposit,
		CategoryLifeInsurance,
		CategoryDeathRetirement,
		CategoryOtherProperty,
		CategoryDebt,
		CategoryFuneralExpense,
		CategoryPassbook,
		CategoryProcedureDoc,
		CategoryUnknown,
	}
}

// Valid reports whether c is one of the known category codes.
func (c DocumentCategory) Valid() bool {
	_, ok := categories[c]
	return ok
}

// Name returns the upper-snake classification name, e.g. "PASSBOOK".
func (c DocumentCategory) Name() string {
	if info, ok := categories[c]; ok {
		return info.name
	}
	return categories[CategoryUnknown].name
}

// Label returns the Japanese 区分 label used in exports and rename
// proposals, e.g. "通帳".
func (c DocumentCategory) Label() string {
	if info, ok := categories[c]; ok {
		return info.label
	}
	return categories[CategoryUnknown].label
}

// ParseCategory resolves a category from either its code ("T") or its
// classification name ("PASSBOOK").
func ParseCategory(s string) (DocumentCategory, bool) {
	if c := DocumentCategory(s); c.Valid() {
		return c, true
	}
	for c, info := range categories {
		if info.name == s {
			return c, true
		}
	}
	return CategoryUnknown, false
}

// ProcessedDocument is one scanned file after classification and
// extraction. ExtractedData is schema-free by design: its shape is
// dictated by the category's registry entry. ManualEdits records every
// human correction ever applied, including keys the base schema never had.
type ProcessedDocument struct {
	ID               string           `json:"id"`
	OriginalFilename string           `json:"original_filename"`
	Category         DocumentCategory `json:"category"`
	RenamedFilename  string           `json:"renamed_filename,omitempty"`
	ExtractedData    map[string]any   `json:"extracted_data"`
	OCRConfidence    *float64         `json:"ocr_confidence,omitempty"`
	ProcessedAt      time.Time        `json:"processed_at"`
	ManualEdits      map[string]any   `json:"manual_edits"`
	ErrorMessage     string           `json:"error_message,omitempty"`
}

// NewDocumentID builds a collision-free id carrying the category code.
func NewDocumentID(category DocumentCategory) string {
	return string(category) + "_" + uuid.NewString()
}

// Clone returns a copy whose top-level maps are independent of the
// original, so a stored document cannot be mutated through a returned
// reference.
func (d *ProcessedDocument) Clone() *ProcessedDocument {
	c := *d
	c.ExtractedData = cloneMap(d.ExtractedData)
	c.ManualEdits = cloneMap(d.ManualEdits)
	return &c
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// TransactionsKey is the ExtractedData key holding a passbook document's
// transaction array.
const TransactionsKey = "transactions"

// PassbookTransaction is one ledger row extracted from a passbook page.
// The JSON keys match the extraction contract with the vision model,
// which answers with Japanese field names. A nil date or balance means
// the model could not read that cell.
type PassbookTransaction struct {
	TransactionDate *string `json:"取引日"`
	Withdrawal      int64   `json:"出金額"`
	Deposit         int64   `json:"入金額"`
	Balance         *int64  `json:"残高"`
	Description     string  `json:"取引内容"`
}
