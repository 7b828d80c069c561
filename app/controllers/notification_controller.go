package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/soukly/soukly/app/repository"
	"github.com/soukly/soukly/pkg/apperrors"
)

// HandleGetNotifications returns the caller's notification inbox.
func HandleGetNotifications(c *fiber.Ctx) error {
	userCtx, ok := requireUser(c)
	if !ok {
		return nil
	}

	offset, limit := pagination(c)
	repo := repository.GetGlobalFactory().GetNotificationRepository()
	items, err := repo.GetByUserID(userCtx.UserID, offset, limit)
	if err != nil {
		return respondError(c, apperrors.Internal(err))
	}

	unread, err := repo.CountUnread(userCtx.UserID)
	if err != nil {
		return respondError(c, apperrors.Internal(err))
	}

	return c.JSON(fiber.Map{"notifications": items, "count": len(items), "unread": unread})
}

// HandleMarkNotificationRead marks one of the caller's notifications read.
func HandleMarkNotificationRead(c *fiber.Ctx) error {
	userCtx, ok := requireUser(c)
	if !ok {
		return nil
	}

	id, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	repo := repository.GetGlobalFactory().GetNotificationRepository()
	if err := repo.MarkRead(id, userCtx.UserID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return respondError(c, apperrors.NotFound("notification not found"))
		}
		return respondError(c, apperrors.Internal(err))
	}

	return c.SendStatus(fiber.StatusNoContent)
}
