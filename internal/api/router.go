package api

import (
	"sozoku-docs/internal/api/handlers"
	"sozoku-docs/pkg/config"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

func SetupRouter(
	cfg *config.ServerConfig,
	ocrHandler *handlers.OCRHandler,
	docHandler *handlers.DocumentHandler,
) *fiber.App {
	app := fiber.New(fiber.Config{
		BodyLimit:    cfg.BodyLimit,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	// Middleware
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept",
	}))
	app.Use(logger.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api")

	ocr := api.Group("/ocr")
	ocr.Post("/process-passbook", ocrHandler.ProcessPassbook)
	ocr.Post("/process-document", ocrHandler.ProcessDocument)
	ocr.Post("/process-batch", ocrHandler.ProcessBatch)

	documents := api.Group("/documents")
	documents.Get("/list", docHandler.ListDocuments)
	documents.Post("/store", docHandler.StoreDocument)
	documents.Post("/export/csv", docHandler.ExportCSV)
	documents.Get("/:id", docHandler.GetDocument)
	documents.Put("/:id", docHandler.UpdateDocument)
	documents.Delete("/:id", docHandler.DeleteDocument)

	return app
}
