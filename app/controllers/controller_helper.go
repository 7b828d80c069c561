package controllers

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/soukly/soukly/internal/pkg/entitlements"
	"github.com/soukly/soukly/internal/pkg/usercontext"
	"github.com/soukly/soukly/pkg/apperrors"
)

const defaultPageSize = 20
const maxPageSize = 100

// respondError translates a service error into the JSON error envelope
// all API endpoints share.
func respondError(c *fiber.Ctx, err error) error {
	message := err.Error()
	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		message = appErr.Message
	}
	return c.Status(apperrors.HTTPStatus(err)).JSON(fiber.Map{
		"error":   strings.ToLower(string(apperrors.KindOf(err))),
		"message": message,
	})
}

// requireUser returns the authenticated user context or writes a 401.
func requireUser(c *fiber.Ctx) (usercontext.UserContext, bool) {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		_ = c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Missing or invalid authentication"})
		return userCtx, false
	}
	return userCtx, true
}

// callerTier resolves the caller's tier, failing hard on unknown values.
func callerTier(c *fiber.Ctx) (entitlements.Tier, error) {
	return entitlements.ParseTier(usercontext.GetTier(c))
}

// parseIDParam reads a positive numeric path parameter.
func parseIDParam(c *fiber.Ctx, name string) (uint, error) {
	raw := c.Params(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, apperrors.Validation("invalid " + name)
	}
	return uint(id), nil
}

// pagination reads page/page_size query parameters with sane bounds.
func pagination(c *fiber.Ctx) (offset, limit int) {
	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}
	limit = c.QueryInt("page_size", defaultPageSize)
	if limit < 1 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return (page - 1) * limit, limit
}

func formatTimePtr(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}
