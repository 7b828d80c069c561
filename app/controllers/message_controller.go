package controllers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/soukly/soukly/app/models"
	"github.com/soukly/soukly/app/repository"
	"github.com/soukly/soukly/internal/pkg/cache"
	"github.com/soukly/soukly/internal/pkg/database"
	metrics "github.com/soukly/soukly/internal/pkg/metrics/counter"
	"github.com/soukly/soukly/internal/pkg/notifications"
	"github.com/soukly/soukly/pkg/apperrors"
)

type sendMessageRequest struct {
	ListingID     uint   `json:"listing_id"`
	RecipientID   uint   `json:"recipient_id"`
	ReservationID *uint  `json:"reservation_id,omitempty"`
	Body          string `json:"body"`
}

// HandleSendMessage appends a message to the conversation about a
// listing. Messages are immutable once stored.
func HandleSendMessage(c *fiber.Ctx) error {
	userCtx, ok := requireUser(c)
	if !ok {
		return nil
	}

	var req sendMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "validation_failed", "message": "Invalid request body"})
	}
	body := strings.TrimSpace(req.Body)
	if req.ListingID == 0 || body == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "validation_failed", "message": "listing_id and body are required"})
	}

	listingRepo := repository.GetGlobalFactory().GetListingRepository()
	listing, err := listingRepo.GetByID(req.ListingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return respondError(c, apperrors.NotFound("listing not found"))
		}
		return respondError(c, apperrors.Internal(err))
	}

	recipientID := req.RecipientID
	if recipientID == 0 {
		recipientID = listing.UserID
	}
	if recipientID == userCtx.UserID {
		return respondError(c, apperrors.Validation("you cannot message yourself"))
	}
	// Only the seller and interested buyers belong in a conversation.
	if userCtx.UserID != listing.UserID && recipientID != listing.UserID {
		return respondError(c, apperrors.Unauthorized("recipient is not a party to this listing"))
	}

	message := &models.Message{
		ListingID:     req.ListingID,
		SenderID:      userCtx.UserID,
		RecipientID:   recipientID,
		ReservationID: req.ReservationID,
		Body:          body,
	}
	repo := repository.GetGlobalFactory().GetMessageRepository()
	if err := repo.Append(message); err != nil {
		return respondError(c, apperrors.Internal(err))
	}

	if userCtx.UserID != listing.UserID {
		if err := metrics.AddListingContact(listing.ID); err != nil {
			log.Debugf("failed to count contact for listing %d: %v", listing.ID, err)
		}
	}

	emitter := notifications.NewPubSubEmitter(cache.GetClient(), database.GetDB())
	emitter.Emit(c.Context(), notifications.Event{
		Type:    models.NotificationMessageReceived,
		UserID:  recipientID,
		ActorID: userCtx.UserID,
		RefID:   req.ListingID,
		Message: "You have a new message.",
	})

	return c.Status(fiber.StatusCreated).JSON(message)
}

// HandleGetConversation returns the message thread between the caller
// and another account about a listing, oldest first. Messages addressed
// to the caller are marked read.
func HandleGetConversation(c *fiber.Ctx) error {
	userCtx, ok := requireUser(c)
	if !ok {
		return nil
	}

	listingID, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	otherID, err := parseIDParam(c, "user_id")
	if err != nil {
		return respondError(c, err)
	}

	offset, limit := pagination(c)
	repo := repository.GetGlobalFactory().GetMessageRepository()
	messages, err := repo.GetConversation(listingID, userCtx.UserID, otherID, offset, limit)
	if err != nil {
		return respondError(c, apperrors.Internal(err))
	}

	if err := repo.MarkRead(userCtx.UserID, listingID, otherID); err != nil {
		log.Errorf("failed to mark conversation read for user %d: %v", userCtx.UserID, err)
	}

	return c.JSON(fiber.Map{"messages": messages, "count": len(messages)})
}

// HandleGetInbox returns the caller's received messages, newest first.
func HandleGetInbox(c *fiber.Ctx) error {
	userCtx, ok := requireUser(c)
	if !ok {
		return nil
	}

	offset, limit := pagination(c)
	repo := repository.GetGlobalFactory().GetMessageRepository()
	messages, err := repo.GetInbox(userCtx.UserID, offset, limit)
	if err != nil {
		return respondError(c, apperrors.Internal(err))
	}

	unread, err := repo.CountUnread(userCtx.UserID)
	if err != nil {
		return respondError(c, apperrors.Internal(err))
	}

	return c.JSON(fiber.Map{"messages": messages, "count": len(messages), "unread": unread})
}
