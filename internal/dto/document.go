package dto

import "sozoku-docs/internal/models"

// PassbookResponse is the result of a single passbook extraction.
type PassbookResponse struct {
	Success            bool                         `json:"success"`
	Filename           string                       `json:"filename"`
	Transactions       []models.PassbookTransaction `json:"transactions"`
	Count              int                          `json:"count"`
	BalancesConsistent bool                         `json:"balances_consistent"`
}

// ProcessDocumentResponse wraps a single processed document.
type ProcessDocumentResponse struct {
	Success  bool                      `json:"success"`
	Document *models.ProcessedDocument `json:"document"`
}

// BatchResult summarizes a best-effort batch run. A failed file never
// aborts its siblings; it is reported here as a "filename: message" pair.
type BatchResult struct {
	Success        bool                        `json:"success"`
	ProcessedCount int                         `json:"processed_count"`
	FailedCount    int                         `json:"failed_count"`
	Documents      []*models.ProcessedDocument `json:"documents"`
	Errors         []string                    `json:"errors"`
}

// CSVExportRequest selects documents for export.
type CSVExportRequest struct {
	DocumentIDs       []string                  `json:"document_ids"`
	IncludeCategories []models.DocumentCategory `json:"include_categories"`
	OutputFormat      string                    `json:"output_format"` // "csv" (default) or "excel"
}

// DeleteResponse confirms a deletion.
type DeleteResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// StoreResponse confirms a direct document insert.
type StoreResponse struct {
	Success    bool   `json:"success"`
	DocumentID string `json:"document_id"`
}
