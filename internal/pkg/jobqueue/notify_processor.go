package jobqueue

import (
	"context"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2/log"

	"github.com/soukly/soukly/app/models"
	"github.com/soukly/soukly/app/repository"
	"github.com/soukly/soukly/internal/pkg/cache"
	"github.com/soukly/soukly/internal/pkg/database"
	"github.com/soukly/soukly/internal/pkg/mail"
	"github.com/soukly/soukly/internal/pkg/notifications"
)

// processNotifyUserJob delivers one notification event through the emitter.
// Used for fan-out that must not block the request path, such as digest
// style announcements to many users.
func (q *Queue) processNotifyUserJob(ctx context.Context, job *Job) error {
	payload, err := NotifyUserJobPayloadFromMap(job.Payload)
	if err != nil {
		return fmt.Errorf("invalid notify_user payload: %w", err)
	}
	if payload.UserID == 0 {
		return fmt.Errorf("notify_user payload missing user_id")
	}

	refID := payload.ReservationID
	if refID == 0 {
		refID = payload.ListingID
	}

	emitter := notifications.NewPubSubEmitter(cache.GetClient(), database.GetDB())
	emitter.Emit(ctx, notifications.Event{
		Type:    payload.Type,
		UserID:  payload.UserID,
		RefID:   refID,
		Message: payload.Message,
	})

	// reservation events additionally go out by email, best effort
	if emailWorthy(payload.Type) {
		if user, err := repository.GetGlobalFactory().GetUserRepository().GetByID(payload.UserID); err == nil && user != nil {
			subject := fmt.Sprintf("Soukly: %s", strings.ReplaceAll(payload.Type, "_", " "))
			if mailErr := mail.SendMail(user.Email, subject, payload.Message); mailErr != nil {
				log.Warnf("[JobQueue] Email delivery failed for user %d: %v", payload.UserID, mailErr)
			}
		}
	}
	return nil
}

func emailWorthy(notificationType string) bool {
	switch notificationType {
	case models.NotificationReservationAccepted,
		models.NotificationPaymentRecorded,
		models.NotificationDeliveryConfirmed:
		return true
	}
	return false
}
