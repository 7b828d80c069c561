package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/soukly/soukly/app/repository"
	"github.com/soukly/soukly/internal/pkg/entitlements"
	"github.com/soukly/soukly/internal/pkg/jobqueue"
	"github.com/soukly/soukly/internal/pkg/statistics"
)

// HandleAdminSetUserTier overrides any account's subscription tier.
func HandleAdminSetUserTier(c *fiber.Ctx) error {
	userID, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	var req changeTierRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "validation_failed", "message": "Invalid request body"})
	}

	tier, err := entitlements.ParseTier(req.Tier)
	if err != nil {
		return respondError(c, err)
	}

	repo := repository.GetGlobalFactory().GetUserRepository()
	if err := repo.UpdateTier(userID, string(tier)); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "User not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to change tier"})
	}

	return c.JSON(fiber.Map{"id": userID, "tier": string(tier)})
}

// HandleAdminQueueStats reports job queue depth and outcomes.
func HandleAdminQueueStats(c *fiber.Ctx) error {
	queue := jobqueue.GetManager().GetQueue()

	stats, err := queue.GetJobStats(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load queue stats"})
	}
	pending, _ := queue.GetQueueSize(c.Context())
	processing, _ := queue.GetProcessingSize(c.Context())

	return c.JSON(fiber.Map{
		"pending":    pending,
		"processing": processing,
		"outcomes":   stats,
	})
}

// HandlePublicStats returns cached marketplace aggregates.
func HandlePublicStats(c *fiber.Ctx) error {
	data := statistics.GetStatistics()
	return c.JSON(fiber.Map{
		"total_listings": data.TotalListings,
		"today_listings": data.TodayListings,
		"total_users":    data.TotalUsers,
	})
}
