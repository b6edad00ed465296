package handler

import (
	"go-minimart-pos/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ImportHandler struct {
	service service.ImportService
}

func NewImportHandler(s service.ImportService) *ImportHandler {
	return &ImportHandler{service: s}
}

// Import loads an xlsx workbook uploaded as the "file" form field
// POST /api/v1/import
func (h *ImportHandler) Import(c *fiber.Ctx) error {
	header, err := c.FormFile("file")
	if err != nil {
		return badRequest(c, "Workbook file is required (form field 'file')")
	}
	f, err := header.Open()
	if err != nil {
		return badRequest(c, "Could not read uploaded file")
	}
	defer f.Close()

	result, err := h.service.Import(c.UserContext(), f, actor(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Import completed", "data": result})
}
