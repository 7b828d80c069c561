package controllers

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/soukly/soukly/app/models"
	"github.com/soukly/soukly/app/repository"
	"github.com/soukly/soukly/internal/pkg/entitlements"
)

// HandleGetAccount returns the authenticated account with its tier limits
// and current consumption.
func HandleGetAccount(c *fiber.Ctx) error {
	userCtx, ok := requireUser(c)
	if !ok {
		return nil
	}

	repo := repository.GetGlobalFactory().GetUserRepository()
	account, err := repo.GetByID(userCtx.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "User not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load user"})
	}

	tier, err := entitlements.ParseTier(account.Tier)
	if err != nil {
		return respondError(c, err)
	}
	profile, err := entitlements.ProfileFor(tier)
	if err != nil {
		return respondError(c, err)
	}

	usage, err := repository.GetGlobalFactory().GetUsageRepository().GetUsage(c.Context(), userCtx.UserID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load usage"})
	}

	return c.JSON(fiber.Map{
		"id":                   account.ID,
		"name":                 account.Name,
		"email":                account.Email,
		"phone":                account.Phone,
		"city":                 account.City,
		"status":               account.Status,
		"tier":                 account.Tier,
		"is_admin":             account.Role == models.ROLE_ADMIN,
		"created_at":           account.CreatedAt.UTC().Format(time.RFC3339),
		"last_login_at":        formatTimePtr(account.LastLoginAt),
		"api_key_prefix":       account.APIKeyPrefix,
		"api_key_last_used_at": formatTimePtr(account.APIKeyLastUsedAt),
		"limits": fiber.Map{
			"max_active_listings":     capValue(profile.MaxActiveListings),
			"max_photos_per_listing":  capValue(profile.MaxPhotosPerListing),
			"max_featured_slots":      capValue(profile.MaxFeaturedSlots),
			"featured_duration_days":  profile.FeaturedDurationDays,
			"free_mods_per_listing":   capValue(profile.MaxFreeModsPerListing),
			"free_boosts_per_cycle":   capValue(profile.FreeBoostsPerCycle),
			"boost_unit_price":        profile.BoostUnitPrice,
			"boost_bundle_price":      profile.BoostBundlePrice,
			"has_verified_badge":      profile.HasVerifiedBadge,
			"has_detailed_statistics": profile.HasDetailedStatistics,
			"can_manage_team":         profile.CanManageTeam,
			"max_team_members":        capValue(profile.MaxTeamMembers),
		},
		"usage": fiber.Map{
			"active_listings":        usage.ActiveListingCount,
			"featured_slots_used":    usage.FeaturedSlotsUsed,
			"boosts_used_this_cycle": usage.BoostsUsedThisCycle,
			"team_members":           usage.TeamMemberCount,
			"cycle_started_at":       usage.CycleStartedAt.UTC().Format(time.RFC3339),
		},
	})
}

type changeTierRequest struct {
	Tier string `json:"tier"`
}

// HandleChangeTier switches the account to another subscription tier.
// Unknown tier names are rejected outright.
func HandleChangeTier(c *fiber.Ctx) error {
	userCtx, ok := requireUser(c)
	if !ok {
		return nil
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
	if err := repo.UpdateTier(userCtx.UserID, string(tier)); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "User not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to change tier"})
	}

	return c.JSON(fiber.Map{"id": userCtx.UserID, "tier": string(tier)})
}

// HandleRotateAPIKey replaces the account's API key and returns the new
// raw key once.
func HandleRotateAPIKey(c *fiber.Ctx) error {
	userCtx, ok := requireUser(c)
	if !ok {
		return nil
	}

	repo := repository.GetGlobalFactory().GetUserRepository()
	account, err := repo.GetByID(userCtx.UserID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load user"})
	}

	rawKey, err := account.IssueAPIKey()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to issue API key"})
	}
	if err := repo.Update(account); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to store API key"})
	}

	return c.JSON(fiber.Map{"api_key": rawKey, "api_key_prefix": account.APIKeyPrefix})
}

// HandleRevokeAPIKey invalidates the account's current API key.
func HandleRevokeAPIKey(c *fiber.Ctx) error {
	userCtx, ok := requireUser(c)
	if !ok {
		return nil
	}

	repo := repository.GetGlobalFactory().GetUserRepository()
	account, err := repo.GetByID(userCtx.UserID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load user"})
	}

	account.RevokeAPIKey()
	if err := repo.Update(account); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to revoke API key"})
	}

	return c.SendStatus(fiber.StatusNoContent)
}

type teamMemberRequest struct {
	Email string `json:"email"`
}

// HandleAddTeamMember attaches another account to the caller's team,
// consuming one of the tier's team seats.
func HandleAddTeamMember(c *fiber.Ctx) error {
	userCtx, ok := requireUser(c)
	if !ok {
		return nil
	}

	var req teamMemberRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "validation_failed", "message": "Invalid request body"})
	}

	tier, err := callerTier(c)
	if err != nil {
		return respondError(c, err)
	}

	repo := repository.GetGlobalFactory().GetUserRepository()
	member, err := repo.GetByEmail(strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "No account with that email"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to look up account"})
	}
	if member.ID == userCtx.UserID {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "validation_failed", "message": "You cannot add yourself to your own team"})
	}
	if member.TeamOwnerID != nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "validation_failed", "message": "Account already belongs to a team"})
	}

	consumer := entitlements.NewConsumer(repository.GetGlobalFactory().GetUsageRepository())
	if err := consumer.ConsumeTeamSeat(c.Context(), tier, userCtx.UserID); err != nil {
		return respondError(c, err)
	}

	member.TeamOwnerID = &userCtx.UserID
	if err := repo.Update(member); err != nil {
		// Hand the seat back; the membership was never stored.
		_ = consumer.ReleaseTeamSeat(c.Context(), userCtx.UserID)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to add team member"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"member_id": member.ID, "team_owner_id": userCtx.UserID})
}

// HandleRemoveTeamMember detaches a member and frees the seat.
func HandleRemoveTeamMember(c *fiber.Ctx) error {
	userCtx, ok := requireUser(c)
	if !ok {
		return nil
	}

	memberID, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	repo := repository.GetGlobalFactory().GetUserRepository()
	member, err := repo.GetByID(memberID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Member not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to look up member"})
	}
	if member.TeamOwnerID == nil || *member.TeamOwnerID != userCtx.UserID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "unauthorized", "message": "Account is not on your team"})
	}

	member.TeamOwnerID = nil
	if err := repo.Update(member); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to remove team member"})
	}

	consumer := entitlements.NewConsumer(repository.GetGlobalFactory().GetUsageRepository())
	if err := consumer.ReleaseTeamSeat(c.Context(), userCtx.UserID); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to release team seat"})
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// capValue renders a numeric cap, mapping the unlimited sentinel to null.
func capValue(cap int) interface{} {
	if cap == entitlements.Unlimited {
		return nil
	}
	return cap
}
