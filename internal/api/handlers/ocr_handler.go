package handlers

import (
	"errors"

	"sozoku-docs/internal/dto"
	"sozoku-docs/internal/models"
	"sozoku-docs/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// OCRHandler exposes the extraction pipeline: single passbook, single
// classified document, and best-effort batch.
type OCRHandler struct {
	docService *service.DocumentService
	ocrService *service.OCRService
	logger     *zap.Logger
}

func NewOCRHandler(docService *service.DocumentService, ocrService *service.OCRService, logger *zap.Logger) *OCRHandler {
	return &OCRHandler{
		docService: docService,
		ocrService: ocrService,
		logger:     logger,
	}
}

// ProcessPassbook godoc
// @Summary Extract passbook transactions
// @Description Run OCR on one passbook image and reconcile the ledger rows
// @Tags ocr
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Passbook image or PDF"
// @Param include_handwriting formData bool false "Also read handwritten rows"
// @Success 200 {object} dto.PassbookResponse
// @Failure 400 {object} map[string]string
// @Router /api/ocr/process-passbook [post]
func (h *OCRHandler) ProcessPassbook(c *fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "File is required",
		})
	}

	mimeType, err := detectMimeType(fh.Filename)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	data, err := readMultipartFile(fh)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Failed to read file",
		})
	}

	includeHandwriting := c.FormValue("include_handwriting") == "true"

	txs, consistent, err := h.ocrService.ProcessPassbook(c.Context(), data, mimeType, includeHandwriting)
	if err != nil {
		h.logger.Error("通帳処理エラー", zap.String("filename", fh.Filename), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(dto.PassbookResponse{
		Success:            true,
		Filename:           fh.Filename,
		Transactions:       txs,
		Count:              len(txs),
		BalancesConsistent: consistent,
	})
}

// ProcessDocument godoc
// @Summary Process one document
// @Description Classify (optional) and extract a single scanned document, storing the result
// @Tags ocr
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Scanned document"
// @Param document_type formData string false "Force a category code or name"
// @Param auto_classify formData bool false "Classify automatically when no category is given" default(true)
// @Success 200 {object} dto.ProcessDocumentResponse
// @Failure 400 {object} map[string]string
// @Router /api/ocr/process-document [post]
func (h *OCRHandler) ProcessDocument(c *fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "File is required",
		})
	}

	mimeType, err := detectMimeType(fh.Filename)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	data, err := readMultipartFile(fh)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Failed to read file",
		})
	}

	opts := service.ProcessOptions{
		AutoClassify:       c.FormValue("auto_classify", "true") == "true",
		IncludeHandwriting: c.FormValue("include_handwriting") == "true",
	}
	if typeStr := c.FormValue("document_type"); typeStr != "" {
		category, ok := models.ParseCategory(typeStr)
		if !ok {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid document type",
			})
		}
		opts.Category = &category
	}

	doc, err := h.docService.ProcessFile(c.Context(), service.UploadedFile{
		Filename: fh.Filename,
		Data:     data,
		MimeType: mimeType,
	}, opts)
	if err != nil {
		h.logger.Error("書類処理エラー", zap.String("filename", fh.Filename), zap.Error(err))
		status := fiber.StatusInternalServerError
		if errors.Is(err, service.ErrUnsupportedCategory) {
			status = fiber.StatusBadRequest
		}
		return c.Status(status).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(dto.ProcessDocumentResponse{
		Success:  true,
		Document: doc,
	})
}

// ProcessBatch godoc
// @Summary Process many documents
// @Description Best-effort fan-out over the uploaded files; one failure never aborts the batch
// @Tags ocr
// @Accept multipart/form-data
// @Produce json
// @Param files formData file true "Scanned documents"
// @Param auto_classify formData bool false "Classify each file automatically" default(true)
// @Success 200 {object} dto.BatchResult
// @Failure 400 {object} map[string]string
// @Router /api/ocr/process-batch [post]
func (h *OCRHandler) ProcessBatch(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Multipart form is required",
		})
	}

	headers := form.File["files"]
	if len(headers) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "At least one file is required",
		})
	}

	opts := service.ProcessOptions{
		AutoClassify:       c.FormValue("auto_classify", "true") == "true",
		IncludeHandwriting: c.FormValue("include_handwriting") == "true",
	}

	var files []service.UploadedFile
	result := &dto.BatchResult{Success: true, Documents: nil, Errors: []string{}}
	for _, fh := range headers {
		mimeType, err := detectMimeType(fh.Filename)
		if err != nil {
			result.Errors = append(result.Errors, fh.Filename+": "+err.Error())
			result.FailedCount++
			continue
		}
		data, err := readMultipartFile(fh)
		if err != nil {
			result.Errors = append(result.Errors, fh.Filename+": "+err.Error())
			result.FailedCount++
			continue
		}
		files = append(files, service.UploadedFile{
			Filename: fh.Filename,
			Data:     data,
			MimeType: mimeType,
		})
	}

	processed := h.docService.ProcessBatch(c.Context(), files, opts)
	processed.FailedCount += result.FailedCount
	processed.Errors = append(processed.Errors, result.Errors...)

	return c.JSON(processed)
}
