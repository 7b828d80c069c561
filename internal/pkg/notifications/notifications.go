package notifications

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/soukly/soukly/app/models"
)

// EventChannel is the redis pub/sub channel push/realtime workers listen on.
const EventChannel = "soukly:events"

// Event is one domain event handed to the notification collaborator.
type Event struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	UserID    uint      `json:"user_id"` // recipient
	ActorID   uint      `json:"actor_id"`
	RefID     uint      `json:"ref_id"` // reservation or listing the event refers to
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// Emitter delivers events to the outside world. Delivery is best-effort:
// a failed emit is logged and never rolls back the transition that
// produced it.
type Emitter interface {
	Emit(ctx context.Context, event Event)
}

// PubSubEmitter publishes events on redis and stores an inbox copy.
type PubSubEmitter struct {
	client *redis.Client
	db     *gorm.DB
}

// NewPubSubEmitter creates an emitter over the given redis client and DB.
func NewPubSubEmitter(client *redis.Client, db *gorm.DB) *PubSubEmitter {
	return &PubSubEmitter{client: client, db: db}
}

func (e *PubSubEmitter) Emit(ctx context.Context, event Event) {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	if e.db != nil && event.UserID != 0 {
		if err := models.CreateNotification(e.db, event.UserID, event.Type, event.Message, event.RefID); err != nil {
			log.Errorf("notifications: failed to store inbox copy of %s: %v", event.Type, err)
		}
	}

	if e.client == nil {
		return
	}
	payload, err := json.Marshal(event)
	if err != nil {
		log.Errorf("notifications: failed to marshal event %s: %v", event.Type, err)
		return
	}
	if err := e.client.Publish(ctx, EventChannel, payload).Err(); err != nil {
		log.Errorf("notifications: failed to publish event %s: %v", event.Type, err)
	}
}

// NoopEmitter drops all events, used in tests.
type NoopEmitter struct{}

func (NoopEmitter) Emit(context.Context, Event) {}

// RecordingEmitter collects events in memory, used in tests.
type RecordingEmitter struct {
	Events []Event
}

func (r *RecordingEmitter) Emit(_ context.Context, event Event) {
	r.Events = append(r.Events, event)
}
