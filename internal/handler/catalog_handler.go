package handler

import (
	"go-minimart-pos/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CatalogHandler exposes CRUD for one catalog entity
type CatalogHandler[T any] struct {
	service *service.CatalogService[T]
}

func NewCatalogHandler[T any](s *service.CatalogService[T]) *CatalogHandler[T] {
	return &CatalogHandler[T]{service: s}
}

// Register mounts list, get, create, update and delete on r
func (h *CatalogHandler[T]) Register(r fiber.Router, write fiber.Handler) {
	r.Get("/", h.List)
	r.Get("/:id", h.Get)
	r.Post("/", write, h.Create)
	r.Put("/:id", write, h.Update)
	r.Delete("/:id", write, h.Delete)
}

func (h *CatalogHandler[T]) Create(c *fiber.Ctx) error {
	item := new(T)
	if err := c.BodyParser(item); err != nil {
		return badRequest(c, "Invalid JSON")
	}
	created, err := h.service.Create(c.UserContext(), item, actor(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(201).JSON(fiber.Map{"message": h.service.Entity() + " created", "data": created})
}

func (h *CatalogHandler[T]) Update(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, "Invalid "+h.service.Entity()+" ID")
	}
	item := new(T)
	if err := c.BodyParser(item); err != nil {
		return badRequest(c, "Invalid JSON")
	}
	updated, err := h.service.Update(c.UserContext(), id, item, actor(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": h.service.Entity() + " updated", "data": updated})
}

func (h *CatalogHandler[T]) Delete(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, "Invalid "+h.service.Entity()+" ID")
	}
	if err := h.service.Delete(c.UserContext(), id, actor(c)); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": h.service.Entity() + " deleted"})
}

func (h *CatalogHandler[T]) Get(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, "Invalid "+h.service.Entity()+" ID")
	}
	item, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(item)
}

func (h *CatalogHandler[T]) List(c *fiber.Ctx) error {
	items, err := h.service.List(c.UserContext(), c.Query("search"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(items)
}
