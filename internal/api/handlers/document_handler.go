package handlers

import (
	"errors"

	"sozoku-docs/internal/dto"
	"sozoku-docs/internal/models"
	"sozoku-docs/internal/repository"
	"sozoku-docs/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// DocumentHandler exposes the processed-document store and the export
// projector.
type DocumentHandler struct {
	docService    *service.DocumentService
	exportService *service.ExportService
	logger        *zap.Logger
}

func NewDocumentHandler(docService *service.DocumentService, exportService *service.ExportService, logger *zap.Logger) *DocumentHandler {
	return &DocumentHandler{
		docService:    docService,
		exportService: exportService,
		logger:        logger,
	}
}

// ListDocuments godoc
// @Summary List processed documents
// @Produce json
// @Param category query string false "Category code or name filter"
// @Success 200 {array} models.ProcessedDocument
// @Failure 400 {object} map[string]string
// @Router /api/documents/list [get]
func (h *DocumentHandler) ListDocuments(c *fiber.Ctx) error {
	var category *models.DocumentCategory
	if categoryStr := c.Query("category"); categoryStr != "" {
		parsed, ok := models.ParseCategory(categoryStr)
		if !ok {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid category",
			})
		}
		category = &parsed
	}

	docs, err := h.docService.List(c.Context(), category)
	if err != nil {
		h.logger.Error("Failed to list documents", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list documents",
		})
	}
	if docs == nil {
		docs = []*models.ProcessedDocument{}
	}
	return c.JSON(docs)
}

// GetDocument godoc
// @Summary Get one processed document
// @Produce json
// @Param id path string true "Document ID"
// @Success 200 {object} models.ProcessedDocument
// @Failure 404 {object} map[string]string
// @Router /api/documents/{id} [get]
func (h *DocumentHandler) GetDocument(c *fiber.Ctx) error {
	doc, err := h.docService.Get(c.Context(), c.Params("id"))
	if errors.Is(err, repository.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Document not found",
		})
	}
	if err != nil {
		h.logger.Error("Failed to get document", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to get document",
		})
	}
	return c.JSON(doc)
}

// UpdateDocument godoc
// @Summary Apply manual corrections
// @Description Merge field corrections into the document; every key is recorded in manual_edits, keys already present in extracted_data are overwritten there too
// @Accept json
// @Produce json
// @Param id path string true "Document ID"
// @Param updates body map[string]interface{} true "Field corrections"
// @Success 200 {object} models.ProcessedDocument
// @Failure 404 {object} map[string]string
// @Router /api/documents/{id} [put]
func (h *DocumentHandler) UpdateDocument(c *fiber.Ctx) error {
	var updates map[string]any
	if err := c.BodyParser(&updates); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	doc, err := h.docService.Update(c.Context(), c.Params("id"), updates)
	if errors.Is(err, repository.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Document not found",
		})
	}
	if err != nil {
		h.logger.Error("Failed to update document", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update document",
		})
	}
	return c.JSON(doc)
}

// DeleteDocument godoc
// @Summary Delete a processed document
// @Produce json
// @Param id path string true "Document ID"
// @Success 200 {object} dto.DeleteResponse
// @Failure 404 {object} map[string]string
// @Router /api/documents/{id} [delete]
func (h *DocumentHandler) DeleteDocument(c *fiber.Ctx) error {
	err := h.docService.Delete(c.Context(), c.Params("id"))
	if errors.Is(err, repository.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Document not found",
		})
	}
	if err != nil {
		h.logger.Error("Failed to delete document", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete document",
		})
	}
	return c.JSON(dto.DeleteResponse{
		Success: true,
		Message: "Document deleted",
	})
}

// StoreDocument godoc
// @Summary Store a document directly
// @Description Insert or replace an already-built document, e.g. after external correction
// @Accept json
// @Produce json
// @Param document body models.ProcessedDocument true "Document"
// @Success 200 {object} dto.StoreResponse
// @Failure 400 {object} map[string]string
// @Router /api/documents/store [post]
func (h *DocumentHandler) StoreDocument(c *fiber.Ctx) error {
	var doc models.ProcessedDocument
	if err := c.BodyParser(&doc); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if err := h.docService.Store(c.Context(), &doc); err != nil {
		h.logger.Error("Failed to store document", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to store document",
		})
	}
	return c.JSON(dto.StoreResponse{
		Success:    true,
		DocumentID: doc.ID,
	})
}

// ExportCSV godoc
// @Summary Export selected documents
// @Description Project the selection into the estate-inventory layout and download it as BOM-prefixed CSV or as an Excel workbook
// @Accept json
// @Produce text/csv
// @Param request body dto.CSVExportRequest true "Selection"
// @Success 200 {file} file
// @Failure 404 {object} map[string]string
// @Router /api/documents/export/csv [post]
func (h *DocumentHandler) ExportCSV(c *fiber.Ctx) error {
	var req dto.CSVExportRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	var (
		data        []byte
		filename    string
		contentType string
		err         error
	)
	if req.OutputFormat == "excel" {
		data, filename, err = h.exportService.ExportExcel(c.Context(), req.DocumentIDs, req.IncludeCategories)
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	} else {
		data, filename, err = h.exportService.ExportCSV(c.Context(), req.DocumentIDs, req.IncludeCategories)
		contentType = "text/csv; charset=utf-8"
	}
	if errors.Is(err, service.ErrNothingToExport) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "No documents found",
		})
	}
	if err != nil {
		h.logger.Error("CSVエクスポートエラー", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	c.Set(fiber.HeaderContentType, contentType)
	c.Set(fiber.HeaderContentDisposition, `attachment; filename=`+filename)
	return c.Send(data)
}
