package jobqueue

import (
	"context"

	"github.com/gofiber/fiber/v2/log"

	"github.com/soukly/soukly/app/models"
	"github.com/soukly/soukly/internal/pkg/notifications"
)

// QueueEmitter hands notification events to the job queue so delivery
// (inbox row, pub/sub publish, email) happens off the request path. When
// enqueueing fails the event is delivered synchronously through the
// fallback emitter instead of being dropped.
type QueueEmitter struct {
	enqueue  func(jobType JobType, payload map[string]interface{}) (*Job, error)
	fallback notifications.Emitter
}

// NewQueueEmitter creates an emitter backed by the global job queue.
func NewQueueEmitter(fallback notifications.Emitter) *QueueEmitter {
	if fallback == nil {
		fallback = notifications.NoopEmitter{}
	}
	return &QueueEmitter{
		enqueue: func(jobType JobType, payload map[string]interface{}) (*Job, error) {
			return GetManager().GetQueue().EnqueueJob(jobType, payload)
		},
		fallback: fallback,
	}
}

func (e *QueueEmitter) Emit(ctx context.Context, event notifications.Event) {
	payload := NotifyUserJobPayload{
		UserID:  event.UserID,
		Type:    event.Type,
		Message: event.Message,
	}
	if refersToReservation(event.Type) {
		payload.ReservationID = event.RefID
	} else {
		payload.ListingID = event.RefID
	}

	if _, err := e.enqueue(JobTypeNotifyUser, payload.ToMap()); err != nil {
		log.Warnf("[JobQueue] Falling back to synchronous delivery of %s: %v", event.Type, err)
		e.fallback.Emit(ctx, event)
	}
}

func refersToReservation(notificationType string) bool {
	switch notificationType {
	case models.NotificationReservationCreated,
		models.NotificationReservationAccepted,
		models.NotificationReservationRejected,
		models.NotificationReservationCancelled,
		models.NotificationDeliveryMarked,
		models.NotificationDeliveryConfirmed,
		models.NotificationPaymentRecorded:
		return true
	}
	return false
}
