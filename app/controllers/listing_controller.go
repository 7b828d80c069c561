package controllers

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/soukly/soukly/app/models"
	"github.com/soukly/soukly/app/repository"
	"github.com/soukly/soukly/internal/pkg/database"
	"github.com/soukly/soukly/internal/pkg/entitlements"
	"github.com/soukly/soukly/internal/pkg/ledger"
	metrics "github.com/soukly/soukly/internal/pkg/metrics/counter"
	"github.com/soukly/soukly/pkg/apperrors"
)

type listingRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Price       int64  `json:"price"`
	Currency    string `json:"currency"`
	Category    string `json:"category"`
	City        string `json:"city"`
}

func newConsumer() *entitlements.Consumer {
	return entitlements.NewConsumer(repository.GetGlobalFactory().GetUsageRepository())
}

// HandleCreateListing publishes a new classified ad. One active-listing
// quota slot is consumed first; a failed insert hands the slot back.
func HandleCreateListing(c *fiber.Ctx) error {
	userCtx, ok := requireUser(c)
	if !ok {
		return nil
	}

	var req listingRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "validation_failed", "message": "Invalid request body"})
	}

	tier, err := callerTier(c)
	if err != nil {
		return respondError(c, err)
	}

	listing := &models.Listing{
		UserID:      userCtx.UserID,
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Price:       req.Price,
		Category:    strings.TrimSpace(req.Category),
		City:        strings.TrimSpace(req.City),
		Status:      models.ListingStatusActive,
	}
	if req.Currency != "" {
		listing.Currency = req.Currency
	}
	if listing.Price < 0 {
		return respondError(c, apperrors.InvalidAmount("price must not be negative"))
	}
	if err := listing.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "validation_failed", "message": err.Error()})
	}

	consumer := newConsumer()
	if err := consumer.ConsumeListingSlot(c.Context(), tier, userCtx.UserID); err != nil {
		return respondError(c, err)
	}

	repo := repository.GetGlobalFactory().GetListingRepository()
	if err := repo.Create(listing); err != nil {
		if relErr := consumer.ReleaseListingSlot(c.Context(), userCtx.UserID); relErr != nil {
			log.Errorf("failed to release listing slot for user %d after failed create: %v", userCtx.UserID, relErr)
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to create listing"})
	}

	return c.Status(fiber.StatusCreated).JSON(listing)
}

// HandleGetListing returns one listing and records the view.
func HandleGetListing(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	repo := repository.GetGlobalFactory().GetListingRepository()
	listing, err := repo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Listing not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load listing"})
	}

	if err := metrics.AddListingView(listing.ID); err != nil {
		log.Debugf("failed to count view for listing %d: %v", listing.ID, err)
	}

	return c.JSON(listing)
}

// HandleBrowseListings returns the public marketplace feed. Boosted
// listings come first; a search query narrows the feed.
func HandleBrowseListings(c *fiber.Ctx) error {
	offset, limit := pagination(c)
	repo := repository.GetGlobalFactory().GetListingRepository()

	var (
		listings []models.Listing
		err      error
	)
	if q := strings.TrimSpace(c.Query("q")); q != "" {
		listings, err = repo.Search(q, offset, limit)
	} else {
		listings, err = repo.GetPublic(offset, limit)
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load listings"})
	}

	return c.JSON(fiber.Map{"listings": listings, "count": len(listings)})
}

// HandleFeaturedListings returns listings currently holding a featured slot.
func HandleFeaturedListings(c *fiber.Ctx) error {
	_, limit := pagination(c)
	repo := repository.GetGlobalFactory().GetListingRepository()
	listings, err := repo.GetFeatured(time.Now(), limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load featured listings"})
	}
	return c.JSON(fiber.Map{"listings": listings, "count": len(listings)})
}

// HandleMyListings returns the caller's own listings, all statuses.
func HandleMyListings(c *fiber.Ctx) error {
	userCtx, ok := requireUser(c)
	if !ok {
		return nil
	}

	offset, limit := pagination(c)
	repo := repository.GetGlobalFactory().GetListingRepository()
	listings, err := repo.GetByUserID(userCtx.UserID, offset, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load listings"})
	}
	return c.JSON(fiber.Map{"listings": listings, "count": len(listings)})
}

// HandleUpdateListing edits a listing, consuming one of the tier's free
// modifications for it.
func HandleUpdateListing(c *fiber.Ctx) error {
	userCtx, ok := requireUser(c)
	if !ok {
		return nil
	}

	listing, err := loadOwnListing(c, userCtx.UserID)
	if err != nil {
		return respondError(c, err)
	}
	if listing.Status == models.ListingStatusSold || listing.Status == models.ListingStatusArchived {
		return respondError(c, apperrors.InvalidTransition("sold or archived listings cannot be edited"))
	}

	var req listingRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "validation_failed", "message": "Invalid request body"})
	}

	tier, err := callerTier(c)
	if err != nil {
		return respondError(c, err)
	}

	if err := newConsumer().ConsumeModification(c.Context(), tier, listing.ID); err != nil {
		return respondError(c, err)
	}

	if req.Title != "" {
		listing.Title = strings.TrimSpace(req.Title)
	}
	if req.Description != "" {
		listing.Description = req.Description
	}
	if req.Price > 0 {
		listing.Price = req.Price
	}
	if req.Category != "" {
		listing.Category = strings.TrimSpace(req.Category)
	}
	if req.City != "" {
		listing.City = strings.TrimSpace(req.City)
	}
	if err := listing.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "validation_failed", "message": err.Error()})
	}

	repo := repository.GetGlobalFactory().GetListingRepository()
	if err := repo.Update(listing); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to update listing"})
	}

	return c.JSON(listing)
}

type listingImageRequest struct {
	URL      string `json:"url"`
	Position int    `json:"position"`
}

// HandleAddListingImage attaches an externally hosted photo, consuming
// one of the listing's photo slots.
func HandleAddListingImage(c *fiber.Ctx) error {
	userCtx, ok := requireUser(c)
	if !ok {
		return nil
	}

	listing, err := loadOwnListing(c, userCtx.UserID)
	if err != nil {
		return respondError(c, err)
	}

	var req listingImageRequest
	if err := c.BodyParser(&req); err != nil || strings.TrimSpace(req.URL) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "validation_failed", "message": "Image URL is required"})
	}

	tier, err := callerTier(c)
	if err != nil {
		return respondError(c, err)
	}

	if err := newConsumer().ConsumePhotoSlot(c.Context(), tier, listing.ID); err != nil {
		return respondError(c, err)
	}

	image := &models.ListingImage{
		ListingID: listing.ID,
		URL:       strings.TrimSpace(req.URL),
		Position:  req.Position,
	}
	repo := repository.GetGlobalFactory().GetListingRepository()
	if err := repo.AddImage(image); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to store image"})
	}

	return c.Status(fiber.StatusCreated).JSON(image)
}

// HandleArchiveListing takes a listing off the market and frees its
// quota slot.
func HandleArchiveListing(c *fiber.Ctx) error {
	userCtx, ok := requireUser(c)
	if !ok {
		return nil
	}

	listing, err := loadOwnListing(c, userCtx.UserID)
	if err != nil {
		return respondError(c, err)
	}

	occupiedSlot := listing.Status == models.ListingStatusActive || listing.Status == models.ListingStatusReserved

	repo := repository.GetGlobalFactory().GetListingRepository()
	if err := repo.Archive(listing.ID); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to archive listing"})
	}

	if occupiedSlot {
		if err := newConsumer().ReleaseListingSlot(c.Context(), userCtx.UserID); err != nil {
			log.Errorf("failed to release listing slot for user %d after archive: %v", userCtx.UserID, err)
		}
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// HandleFeatureListing places a listing in a featured slot for the
// tier's featured duration.
func HandleFeatureListing(c *fiber.Ctx) error {
	userCtx, ok := requireUser(c)
	if !ok {
		return nil
	}

	listing, err := loadOwnListing(c, userCtx.UserID)
	if err != nil {
		return respondError(c, err)
	}
	if listing.Status != models.ListingStatusActive {
		return respondError(c, apperrors.InvalidTransition("only active listings can be featured"))
	}
	if listing.IsFeatured(time.Now()) {
		return respondError(c, apperrors.InvalidTransition("listing is already featured"))
	}

	tier, err := callerTier(c)
	if err != nil {
		return respondError(c, err)
	}

	consumer := newConsumer()
	if err := consumer.ConsumeFeaturedSlot(c.Context(), tier, userCtx.UserID); err != nil {
		return respondError(c, err)
	}

	until := time.Now().AddDate(0, 0, entitlements.FeaturedDurationDays(tier))
	repo := repository.GetGlobalFactory().GetListingRepository()
	if err := repo.SetFeaturedUntil(listing.ID, until); err != nil {
		if relErr := consumer.ReleaseFeaturedSlot(c.Context(), userCtx.UserID); relErr != nil {
			log.Errorf("failed to release featured slot for user %d: %v", userCtx.UserID, relErr)
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to feature listing"})
	}

	return c.JSON(fiber.Map{"id": listing.ID, "featured_until": until.UTC().Format(time.RFC3339)})
}

// HandleBoostListing bumps a listing to the top of the feed. A free
// boost is consumed when the tier still has one this cycle; otherwise
// the boost is charged to the wallet at the tier's boost price.
func HandleBoostListing(c *fiber.Ctx) error {
	userCtx, ok := requireUser(c)
	if !ok {
		return nil
	}

	listing, err := loadOwnListing(c, userCtx.UserID)
	if err != nil {
		return respondError(c, err)
	}
	if listing.Status != models.ListingStatusActive {
		return respondError(c, apperrors.InvalidTransition("only active listings can be boosted"))
	}

	tier, err := callerTier(c)
	if err != nil {
		return respondError(c, err)
	}

	var charged int64
	freeErr := newConsumer().ConsumeFreeBoost(c.Context(), tier, userCtx.UserID)
	if freeErr != nil {
		if !apperrors.IsKind(freeErr, apperrors.KindQuotaExceeded) {
			return respondError(c, freeErr)
		}
		charged = entitlements.BoostPrice(tier, 1)
		if charged > 0 {
			reference := fmt.Sprintf("boost:%d", listing.ID)
			svc := ledger.NewServiceFromDB(database.GetDB())
			if _, err := svc.DebitPayment(c.Context(), userCtx.UserID, charged, reference); err != nil {
				return respondError(c, err)
			}
		}
	}

	repo := repository.GetGlobalFactory().GetListingRepository()
	if err := repo.StampBoost(listing.ID); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to boost listing"})
	}

	return c.JSON(fiber.Map{"id": listing.ID, "charged": charged})
}

// loadOwnListing fetches a listing and verifies the caller owns it.
func loadOwnListing(c *fiber.Ctx, userID uint) (*models.Listing, error) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return nil, err
	}

	repo := repository.GetGlobalFactory().GetListingRepository()
	listing, err := repo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("listing not found")
		}
		return nil, apperrors.Internal(err)
	}
	if listing.UserID != userID {
		return nil, apperrors.Unauthorized("you do not own this listing")
	}
	return listing, nil
}
