package loyaltyevents

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/bloomretail/bloom-backend/internal/loyalty"
	"github.com/bloomretail/bloom-backend/pkg/db/models"
	"github.com/bloomretail/bloom-backend/pkg/enums"
	pkgerrors "github.com/bloomretail/bloom-backend/pkg/errors"
	"github.com/bloomretail/bloom-backend/pkg/logger"
)

// Event names published by upstream services onto the earn-events topic.
const (
	EventOrderCompleted      = "order.completed"
	EventReviewSubmitted     = "review.submitted"
	EventSubscriptionRenewed = "subscription.renewed"
)

var eventSources = map[string]enums.PointSource{
	EventOrderCompleted:      enums.PointSourcePurchase,
	EventReviewSubmitted:     enums.PointSourceReview,
	EventSubscriptionRenewed: enums.PointSourceSubscription,
}

type earner interface {
	Earn(ctx context.Context, params loyalty.EarnParams) (*models.Balance, error)
}

// EarnEvent is the payload upstream services publish when a customer does
// something that earns points. SourceID identifies the triggering entity
// (order, review, subscription period) and backs the once-per-source guard.
type EarnEvent struct {
	EventType   string    `json:"event_type"`
	CustomerID  uuid.UUID `json:"customer_id"`
	SourceID    uuid.UUID `json:"source_id"`
	Points      int       `json:"points"`
	Description string    `json:"description,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// Consumer applies earn events from Pub/Sub to the points ledger.
type Consumer struct {
	svc          earner
	subscription *pubsub.Subscriber
	logg         *logger.Logger
}

// NewConsumer constructs a consumer watching the earn-events subscription.
func NewConsumer(svc earner, subscription *pubsub.Subscriber, logg *logger.Logger) (*Consumer, error) {
	if svc == nil {
		return nil, errors.New("loyalty service is required")
	}
	if subscription == nil {
		return nil, errors.New("earn events subscription is required")
	}
	if logg == nil {
		return nil, errors.New("logger is required")
	}
	return &Consumer{svc: svc, subscription: subscription, logg: logg}, nil
}

// Run processes messages until the context is canceled or the subscription errors.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		result := c.process(ctx, msg)
		if result.nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	ack  bool
	nack bool
}

func (c *Consumer) process(ctx context.Context, msg *pubsub.Message) processResult {
	logCtx := c.logg.WithField(ctx, "message_id", msg.ID)

	var event EarnEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		c.logg.Error(logCtx, "failed to decode earn event", err)
		return processResult{ack: true}
	}

	logCtx = c.logg.WithFields(ctx, map[string]any{
		"message_id":  msg.ID,
		"event_type":  event.EventType,
		"customer_id": event.CustomerID.String(),
		"source_id":   event.SourceID.String(),
	})

	source, ok := eventSources[strings.TrimSpace(event.EventType)]
	if !ok {
		c.logg.Info(logCtx, "event not handled by loyalty consumer")
		return processResult{ack: true}
	}
	if err := validateEvent(event); err != nil {
		c.logg.Error(logCtx, "malformed earn event", err)
		return processResult{ack: true}
	}

	sourceID := event.SourceID
	_, err := c.svc.Earn(ctx, loyalty.EarnParams{
		CustomerID:  event.CustomerID,
		Points:      event.Points,
		SourceType:  source,
		SourceID:    &sourceID,
		Description: event.Description,
	})
	if err != nil {
		if pkgerrors.HasCode(err, pkgerrors.CodeConflict) {
			c.logg.Info(logCtx, "points already awarded for this source")
			return processResult{ack: true}
		}
		if pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
			c.logg.Error(logCtx, "earn event rejected", err)
			return processResult{ack: true}
		}
		// Storage or downstream failure: let Pub/Sub redeliver.
		c.logg.Error(logCtx, "failed to apply earn event", err)
		return processResult{nack: true}
	}

	c.logg.Info(logCtx, "earn event applied")
	return processResult{ack: true}
}

func validateEvent(event EarnEvent) error {
	if event.CustomerID == uuid.Nil {
		return fmt.Errorf("customer id missing")
	}
	if event.SourceID == uuid.Nil {
		return fmt.Errorf("source id missing")
	}
	if event.Points <= 0 {
		return fmt.Errorf("points must be positive, got %d", event.Points)
	}
	return nil
}
