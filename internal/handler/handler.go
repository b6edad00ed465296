package handler

import (
	"strconv"
	"time"

	"go-minimart-pos/internal/apperr"
	"go-minimart-pos/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// actor builds the acting user from the locals set by RequireAuth
func actor(c *fiber.Ctx) service.Actor {
	a := service.Actor{Name: "Unknown"}
	if id, ok := c.Locals("user_id").(string); ok {
		if parsed, err := uuid.Parse(id); err == nil {
			a.UserID = parsed
		}
	}
	if name, ok := c.Locals("user_name").(string); ok {
		a.Name = name
	}
	if email, ok := c.Locals("user_email").(string); ok {
		a.Email = email
	}
	return a
}

// respondError writes err as {"error", "code", "details"} with the status
// matching its kind
func respondError(c *fiber.Ctx, err error) error {
	e := apperr.As(err)
	body := fiber.Map{"error": e.Message, "code": e.Code}
	if len(e.Details) > 0 {
		body["details"] = e.Details
	}
	return c.Status(apperr.HTTPStatus(e)).JSON(body)
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg, "code": apperr.ErrInvalidInput.Code})
}

func paramID(c *fiber.Ctx, name string) (uuid.UUID, error) {
	return uuid.Parse(c.Params(name))
}

func queryID(c *fiber.Ctx, name string) (*uuid.UUID, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, apperr.Invalid("invalid %s", name).With("field", name)
	}
	return &id, nil
}

// queryTime accepts RFC 3339 or YYYY-MM-DD. A bare date used as an upper
// bound covers the whole day.
func queryTime(c *fiber.Ctx, name string, endOfDay bool) (*time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, apperr.Invalid("invalid %s, use YYYY-MM-DD", name).With("field", name)
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}

func queryInt(c *fiber.Ctx, name string, def int) int {
	n, err := strconv.Atoi(c.Query(name))
	if err != nil || n < 0 {
		return def
	}
	return n
}

func queryRange(c *fiber.Ctx) (from, to *time.Time, err error) {
	if from, err = queryTime(c, "from", false); err != nil {
		return nil, nil, err
	}
	if to, err = queryTime(c, "to", true); err != nil {
		return nil, nil, err
	}
	return from, to, nil
}
