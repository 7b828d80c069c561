package controllers

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/soukly/soukly/app/models"
	"github.com/soukly/soukly/app/repository"
	"github.com/soukly/soukly/internal/pkg/cache"
	"github.com/soukly/soukly/internal/pkg/database"
	"github.com/soukly/soukly/internal/pkg/jobqueue"
	"github.com/soukly/soukly/internal/pkg/ledger"
	"github.com/soukly/soukly/internal/pkg/notifications"
	"github.com/soukly/soukly/internal/pkg/reservation"
)

func reservationService() *reservation.Service {
	db := database.GetDB()
	// Notifications go through the job queue so inbox writes, pub/sub
	// and email leave the request path.
	emitter := jobqueue.NewQueueEmitter(notifications.NewPubSubEmitter(cache.GetClient(), db))
	return reservation.NewService(
		repository.GetGlobalFactory().GetReservationRepository(),
		repository.NewListingDirectory(db),
		ledger.NewServiceFromDB(db),
		emitter,
	)
}

type createReservationRequest struct {
	ListingID uint   `json:"listing_id"`
	Message   string `json:"message"`
}

type payReservationRequest struct {
	Method    string `json:"method"`
	Reference string `json:"reference"`
}

// HandleCreateReservation opens a pending reservation on a listing.
func HandleCreateReservation(c *fiber.Ctx) error {
	userCtx, ok := requireUser(c)
	if !ok {
		return nil
	}

	var req createReservationRequest
	if err := c.BodyParser(&req); err != nil || req.ListingID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "validation_failed", "message": "listing_id is required"})
	}

	r, err := reservationService().Create(c.Context(), userCtx.UserID, req.ListingID, req.Message)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(r)
}

// HandleGetReservation returns one reservation to one of its parties.
func HandleGetReservation(c *fiber.Ctx) error {
	userCtx, ok := requireUser(c)
	if !ok {
		return nil
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	r, err := reservationService().Get(c.Context(), userCtx.UserID, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(r)
}

// HandleListReservations returns the caller's reservations, as buyer by
// default or as seller with ?role=seller.
func HandleListReservations(c *fiber.Ctx) error {
	userCtx, ok := requireUser(c)
	if !ok {
		return nil
	}
	offset, limit := pagination(c)

	var (
		reservations []models.Reservation
		err          error
	)
	if c.Query("role") == "seller" {
		reservations, err = reservationService().ListForSeller(c.Context(), userCtx.UserID, limit, offset)
	} else {
		reservations, err = reservationService().ListForBuyer(c.Context(), userCtx.UserID, limit, offset)
	}
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"reservations": reservations, "count": len(reservations)})
}

// HandleAcceptReservation lets the seller take one pending reservation;
// all other pending ones on the listing are rejected with it.
func HandleAcceptReservation(c *fiber.Ctx) error {
	return transition(c, reservationService().Accept)
}

// HandleRejectReservation lets the seller decline a pending reservation.
func HandleRejectReservation(c *fiber.Ctx) error {
	return transition(c, reservationService().Reject)
}

// HandleCancelReservation lets the buyer withdraw before payment.
func HandleCancelReservation(c *fiber.Ctx) error {
	return transition(c, reservationService().Cancel)
}

// HandleMarkDelivered lets the seller record the handover.
func HandleMarkDelivered(c *fiber.Ctx) error {
	return transition(c, reservationService().Deliver)
}

// HandleConfirmDelivery lets the buyer acknowledge receipt.
func HandleConfirmDelivery(c *fiber.Ctx) error {
	return transition(c, reservationService().ConfirmDelivery)
}

// HandlePayReservation records payment for a delivered item.
func HandlePayReservation(c *fiber.Ctx) error {
	userCtx, ok := requireUser(c)
	if !ok {
		return nil
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	var req payReservationRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "validation_failed", "message": "Invalid request body"})
	}

	r, err := reservationService().Pay(c.Context(), userCtx.UserID, id, req.Method, req.Reference)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(r)
}

// HandleCompleteReservation closes a paid deal and marks the listing sold.
func HandleCompleteReservation(c *fiber.Ctx) error {
	userCtx, ok := requireUser(c)
	if !ok {
		return nil
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	r, err := reservationService().Complete(c.Context(), userCtx.UserID, id, userCtx.IsAdmin)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(r)
}

// transition runs one actor-and-id reservation transition.
func transition(c *fiber.Ctx, fn func(ctx context.Context, actorID, reservationID uint) (*models.Reservation, error)) error {
	userCtx, ok := requireUser(c)
	if !ok {
		return nil
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	r, err := fn(c.Context(), userCtx.UserID, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(r)
}
