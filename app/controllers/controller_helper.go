package controllers

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/SubTrack/app/models"
	"github.com/ManuelReschke/SubTrack/internal/pkg/usercontext"
)

// Locals/session keys shared with the middleware
const (
	AUTH_KEY       string = usercontext.AuthKey
	USER_ID        string = usercontext.KeyUserID
	USER_NAME      string = usercontext.KeyUsername
	FROM_PROTECTED string = usercontext.KeyFromProtected
)

// TotalsInvalidator drops cached dashboard totals after a write.
type TotalsInvalidator interface {
	Invalidate(ctx context.Context, userID string)
}

func respondData(c *fiber.Ctx, status int, data interface{}) error {
	return c.Status(status).JSON(fiber.Map{"data": data})
}

func errorJSON(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(fiber.Map{"error": code, "message": message})
}

// respondError maps service errors onto HTTP statuses. fallback is the message
// shown for unexpected failures, whose details are only logged.
func respondError(c *fiber.Ctx, err error, fallback string) error {
	var verr *models.ValidationError
	switch {
	case errors.As(err, &verr):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "validation_error",
			"message": verr.Error(),
			"field":   verr.Field,
		})
	case errors.Is(err, models.ErrNotFound):
		return errorJSON(c, fiber.StatusNotFound, "not_found", err.Error())
	default:
		log.Errorf("[API] %s %s: %v", c.Method(), c.Path(), err)
		return errorJSON(c, fiber.StatusInternalServerError, "internal_server_error", fallback)
	}
}

// parseBody decodes the JSON body into out; malformed input is a validation error.
func parseBody(c *fiber.Ctx, out interface{}) error {
	if err := c.BodyParser(out); err != nil {
		return models.NewValidationError("", "invalid request body")
	}
	return nil
}

// parseDate accepts YYYY-MM-DD or RFC 3339 and returns the calendar day at midnight UTC.
func parseDate(field, value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if d, err := time.Parse(time.DateOnly, value); err == nil {
		return d, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		y, m, d := t.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
	}
	return time.Time{}, models.NewValidationError(field, "must be a date (YYYY-MM-DD)")
}

// parseNullableDate converts a nullable date string patch into a nullable time patch.
func parseNullableDate(field string, in models.Nullable[string]) (models.Nullable[time.Time], error) {
	if !in.Set || in.Value == nil {
		return models.Nullable[time.Time]{Set: in.Set}, nil
	}
	d, err := parseDate(field, *in.Value)
	if err != nil {
		return models.Nullable[time.Time]{}, err
	}
	return models.Of(d), nil
}

func queryInt(c *fiber.Ctx, key string) (int, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, models.NewValidationError(key, "must be a number")
	}
	return v, nil
}

func formatDate(t time.Time) string {
	return t.Format(time.DateOnly)
}

func formatDatePtr(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return formatDate(*t)
}

func formatTimePtr(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}
