// Package registry is the static mapping from document category to its
// extraction schema (expected fields and vision prompt) and its CSV
// projection (column set and row builder). Dispatcher and exporter code
// must stay category-agnostic; every category-specific decision lives in
// this table. Categories without a registered projection degrade to the
// generic {区分, データ, 元ファイル} row.
package registry

import (
	"encoding/json"
	"fmt"
	"strconv"

	"sozoku-docs/internal/models"
)

// FieldType is the semantic type of an extracted field.
type FieldType string

const (
	FieldString  FieldType = "string"
	FieldInteger FieldType = "integer"
	FieldNumber  FieldType = "number"
	FieldDate    FieldType = "date"
)

// Field describes one expected key in a category's extracted data.
type Field struct {
	Name  string
	Type  FieldType
	Label string
}

// Schema is a category's extraction contract: the fields the vision
// model is asked to fill and the instruction prompt handed to it.
type Schema struct {
	Category models.DocumentCategory
	Fields   []Field
	Prompt   string
}

// Row is one flat CSV row, keyed by column name.
type Row map[string]string

// Projection turns a processed document into export rows.
type Projection struct {
	Columns []string
	Rows    func(doc *models.ProcessedDocument) []Row
}

var schemas = map[models.DocumentCategory]*Schema{
	models.CategoryPassbook: {
		Category: models.CategoryPassbook,
		Fields: []Field{
			{Name: "取引日", Type: FieldDate, Label: "取引日"},
			{Name: "出金額", Type: FieldInteger, Label: "出金額"},
			{Name: "入金額", Type: FieldInteger, Label: "入金額"},
			{Name: "残高", Type: FieldInteger, Label: "残高"},
			{Name: "取引内容", Type: FieldString, Label: "取引内容"},
		},
		// The passbook prompt depends on the current date and the
		// handwriting option; see PassbookPrompt.
	},
	models.CategoryDeposit: {
		Category: models.CategoryDeposit,
		Fields: []Field{
			{Name: "financial_institution", Type: FieldString, Label: "金融機関"},
			{Name: "branch", Type: FieldString, Label: "支店"},
			{Name: "account_type", Type: FieldString, Label: "種類"},
			{Name: "account_number", Type: FieldString, Label: "口座番号"},
			{Name: "balance", Type: FieldInteger, Label: "残高"},
			{Name: "accrued_interest", Type: FieldInteger, Label: "既経過利子"},
		},
		Prompt: depositPrompt,
	},
	models.CategoryListedStock: {
		Category: models.CategoryListedStock,
		Fields: []Field{
			{Name: "stock_name", Type: FieldString, Label: "銘柄名"},
			{Name: "securities_company", Type: FieldString, Label: "証券会社"},
			{Name: "branch_name", Type: FieldString, Label: "支店名"},
			{Name: "valuation", Type: FieldInteger, Label: "評価額"},
			{Name: "quantity", Type: FieldNumber, Label: "株式数"},
		},
		Prompt: stockPrompt,
	},
	models.CategoryLifeInsurance: {
		Category: models.CategoryLifeInsurance,
		Fields: []Field{
			{Name: "insurance_company", Type: FieldString, Label: "保険会社"},
			{Name: "policy_number", Type: FieldString, Label: "証券番号"},
			{Name: "policyholder", Type: FieldString, Label: "契約者"},
			{Name: "insured", Type: FieldString, Label: "被保険者"},
			{Name: "beneficiary", Type: FieldString, Label: "保険金受取人"},
			{Name: "receipt_date", Type: FieldDate, Label: "受取年月日"},
			{Name: "insurance_amount", Type: FieldInteger, Label: "保険金額"},
			{Name: "surrender_value", Type: FieldInteger, Label: "解約返戻金額"},
		},
		Prompt: insurancePrompt,
	},
	models.CategoryLandBuilding: {
		Category: models.CategoryLandBuilding,
		Fields: []Field{
			{Name: "prefecture", Type: FieldString, Label: "都道府県"},
			{Name: "city", Type: FieldString, Label: "市区町村"},
			{Name: "address", Type: FieldString, Label: "大字・丁目"},
			{Name: "lot_number", Type: FieldString, Label: "地番"},
			{Name: "house_number", Type: FieldString, Label: "家屋番号"},
			{Name: "registered_land_category", Type: FieldString, Label: "登記地目"},
			{Name: "taxed_land_category", Type: FieldString, Label: "課税地目"},
			{Name: "ownership_ratio", Type: FieldString, Label: "持分"},
			{Name: "area", Type: FieldNumber, Label: "地積"},
			{Name: "site_right_ratio", Type: FieldString, Label: "敷地権割合"},
			{Name: "fixed_asset_tax_value", Type: FieldInteger, Label: "固定資産税評価額"},
		},
		Prompt: landBuildingPrompt,
	},
}

// SchemaFor returns the extraction schema for a category, if one is
// registered.
func SchemaFor(category models.DocumentCategory) (*Schema, bool) {
	s, ok := schemas[category]
	return s, ok
}

var projections = map[models.DocumentCategory]*Projection{
	models.CategoryPassbook: {
		Columns: []string{"区分", "取引日", "出金額", "入金額", "残高", "取引内容", "元ファイル"},
		Rows:    passbookRows,
	},
	models.CategoryDeposit: {
		Columns: []string{"区分", "金融機関", "支店", "種類", "口座番号", "残高", "既経過利子", "元ファイル"},
		Rows: singleRow(models.CategoryDeposit, map[string]string{
			"金融機関":  "financial_institution",
			"支店":    "branch",
			"種類":    "account_type",
			"口座番号":  "account_number",
			"残高":    "balance",
			"既経過利子": "accrued_interest",
		}),
	},
	models.CategoryListedStock: {
		Columns: []string{"区分", "銘柄名", "証券会社", "支店名", "評価額", "株式数", "元ファイル"},
		Rows: singleRow(models.CategoryListedStock, map[string]string{
			"銘柄名":  "stock_name",
			"証券会社": "securities_company",
			"支店名":  "branch_name",
			"評価額":  "valuation",
			"株式数":  "quantity",
		}),
	},
	models.CategoryLandBuilding: {
		Columns: []string{
			"区分", "都道府県", "市区町村", "大字・丁目", "地番", "家屋番号",
			"登記地目", "課税地目", "持分", "地積", "敷地権割合", "固定資産税評価額", "元ファイル",
		},
		Rows: singleRow(models.CategoryLandBuilding, map[string]string{
			"都道府県":     "prefecture",
			"市区町村":     "city",
			"大字・丁目":    "address",
			"地番":       "lot_number",
			"家屋番号":     "house_number",
			"登記地目":     "registered_land_category",
			"課税地目":     "taxed_land_category",
			"持分":       "ownership_ratio",
			"地積":       "area",
			"敷地権割合":    "site_right_ratio",
			"固定資産税評価額": "fixed_asset_tax_value",
		}),
	},
}

// GenericColumns is the fallback projection for categories with no
// registered column set.
var GenericColumns = []string{"区分", "データ", "元ファイル"}

// ProjectionFor returns the export projection for a category. The second
// result reports whether a dedicated projection is registered; when it is
// false the generic fallback is returned.
func ProjectionFor(category models.DocumentCategory) (*Projection, bool) {
	if p, ok := projections[category]; ok {
		return p, true
	}
	return &Projection{Columns: GenericColumns, Rows: genericRows}, false
}

// Project flattens a document into export rows via its category's
// projection.
func Project(doc *models.ProcessedDocument) ([]string, []Row) {
	p, _ := ProjectionFor(doc.Category)
	return p.Columns, p.Rows(doc)
}

func singleRow(category models.DocumentCategory, fieldByColumn map[string]string) func(*models.ProcessedDocument) []Row {
	return func(doc *models.ProcessedDocument) []Row {
		row := Row{
			"区分":    category.Label(),
			"元ファイル": doc.OriginalFilename,
		}
		for column, field := range fieldByColumn {
			row[column] = formatValue(doc.ExtractedData[field])
		}
		return []Row{row}
	}
}

func passbookRows(doc *models.ProcessedDocument) []Row {
	txs := PassbookTransactions(doc.ExtractedData)
	rows := make([]Row, 0, len(txs))
	for _, tx := range txs {
		date := ""
		if tx.TransactionDate != nil {
			date = *tx.TransactionDate
		}
		balance := ""
		if tx.Balance != nil {
			balance = strconv.FormatInt(*tx.Balance, 10)
		}
		rows = append(rows, Row{
			"区分":    models.CategoryPassbook.Label(),
			"取引日":   date,
			"出金額":   strconv.FormatInt(tx.Withdrawal, 10),
			"入金額":   strconv.FormatInt(tx.Deposit, 10),
			"残高":    balance,
			"取引内容":  tx.Description,
			"元ファイル": doc.OriginalFilename,
		})
	}
	return rows
}

func genericRows(doc *models.ProcessedDocument) []Row {
	data := ""
	if len(doc.ExtractedData) > 0 {
		if b, err := json.Marshal(doc.ExtractedData); err == nil {
			data = string(b)
		}
	}
	return []Row{{
		"区分":    doc.Category.Label(),
		"データ":   data,
		"元ファイル": doc.OriginalFilename,
	}}
}

// PassbookTransactions reads the transaction array out of a passbook
// document's extracted data. The array may be the typed slice produced by
// the extraction pipeline or plain JSON maps when a document was stored
// through the API, so it is normalized through a JSON round trip.
func PassbookTransactions(data map[string]any) []models.PassbookTransaction {
	raw, ok := data[models.TransactionsKey]
	if !ok {
		return nil
	}
	if txs, ok := raw.([]models.PassbookTransaction); ok {
		return txs
	}
	b, err := json.Marshal(raw)
	if err != nil {
		return nil
	}
	var txs []models.PassbookTransaction
	if err := json.Unmarshal(b, &txs); err != nil {
		return nil
	}
	return txs
}

func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		if val == float64(int64(val)) {
			return strconv.FormatInt(int64(val), 10)
		}
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return fmt.Sprint(val)
	}
}
