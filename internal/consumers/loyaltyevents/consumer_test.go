package loyaltyevents

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/bloomretail/bloom-backend/internal/loyalty"
	"github.com/bloomretail/bloom-backend/pkg/db/models"
	"github.com/bloomretail/bloom-backend/pkg/enums"
	pkgerrors "github.com/bloomretail/bloom-backend/pkg/errors"
	"github.com/bloomretail/bloom-backend/pkg/logger"
)

type fakeEarner struct {
	calls []loyalty.EarnParams
	err   error
}

func (f *fakeEarner) Earn(ctx context.Context, params loyalty.EarnParams) (*models.Balance, error) {
	f.calls = append(f.calls, params)
	if f.err != nil {
		return nil, f.err
	}
	return &models.Balance{CustomerID: params.CustomerID, CurrentPoints: params.Points}, nil
}

func newTestConsumer(svc earner) *Consumer {
	return &Consumer{
		svc: svc,
		logg: logger.New(logger.Options{
			ServiceName: "loyalty-events-test",
			Output:      io.Discard,
		}),
	}
}

func buildMessage(t *testing.T, event EarnEvent) *pubsub.Message {
	t.Helper()
	data, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("marshal event: %v", err)
	}
	return &pubsub.Message{ID: uuid.NewString(), Data: data}
}

func TestConsumerAppliesOrderCompleted(t *testing.T) {
	svc := &fakeEarner{}
	consumer := newTestConsumer(svc)

	customerID := uuid.New()
	orderID := uuid.New()
	msg := buildMessage(t, EarnEvent{
		EventType:   EventOrderCompleted,
		CustomerID:  customerID,
		SourceID:    orderID,
		Points:      120,
		Description: "order #1042",
		OccurredAt:  time.Now().UTC(),
	})

	result := consumer.process(context.Background(), msg)
	if !result.ack || result.nack {
		t.Fatalf("expected ack, got %+v", result)
	}
	if len(svc.calls) != 1 {
		t.Fatalf("expected one earn call, got %d", len(svc.calls))
	}
	call := svc.calls[0]
	if call.SourceType != enums.PointSourcePurchase {
		t.Errorf("source type = %s, want purchase", call.SourceType)
	}
	if call.SourceID == nil || *call.SourceID != orderID {
		t.Error("source id not forwarded")
	}
	if call.Points != 120 {
		t.Errorf("points = %d, want 120", call.Points)
	}
}

func TestConsumerMapsEventSources(t *testing.T) {
	cases := map[string]enums.PointSource{
		EventReviewSubmitted:     enums.PointSourceReview,
		EventSubscriptionRenewed: enums.PointSourceSubscription,
	}
	for eventType, want := range cases {
		svc := &fakeEarner{}
		consumer := newTestConsumer(svc)
		msg := buildMessage(t, EarnEvent{
			EventType:  eventType,
			CustomerID: uuid.New(),
			SourceID:   uuid.New(),
			Points:     50,
		})
		if result := consumer.process(context.Background(), msg); !result.ack {
			t.Fatalf("%s: expected ack", eventType)
		}
		if len(svc.calls) != 1 || svc.calls[0].SourceType != want {
			t.Fatalf("%s: expected earn with source %s", eventType, want)
		}
	}
}

func TestConsumerAcksUnknownEventType(t *testing.T) {
	svc := &fakeEarner{}
	consumer := newTestConsumer(svc)

	msg := buildMessage(t, EarnEvent{
		EventType:  "customer.signed_in",
		CustomerID: uuid.New(),
		SourceID:   uuid.New(),
		Points:     10,
	})
	if result := consumer.process(context.Background(), msg); !result.ack {
		t.Fatal("expected unknown events to be acked")
	}
	if len(svc.calls) != 0 {
		t.Fatal("unknown events must not reach the ledger")
	}
}

func TestConsumerAcksDuplicateSource(t *testing.T) {
	svc := &fakeEarner{err: pkgerrors.New(pkgerrors.CodeConflict, "points already awarded for this source")}
	consumer := newTestConsumer(svc)

	msg := buildMessage(t, EarnEvent{
		EventType:  EventOrderCompleted,
		CustomerID: uuid.New(),
		SourceID:   uuid.New(),
		Points:     120,
	})
	result := consumer.process(context.Background(), msg)
	if !result.ack || result.nack {
		t.Fatal("duplicate awards should be acked, not retried")
	}
}

func TestConsumerNacksStorageFailure(t *testing.T) {
	svc := &fakeEarner{err: pkgerrors.Wrap(pkgerrors.CodeDependency, errors.New("connection refused"), "record award")}
	consumer := newTestConsumer(svc)

	msg := buildMessage(t, EarnEvent{
		EventType:  EventOrderCompleted,
		CustomerID: uuid.New(),
		SourceID:   uuid.New(),
		Points:     120,
	})
	if result := consumer.process(context.Background(), msg); !result.nack {
		t.Fatal("storage failures should be nacked for redelivery")
	}
}

func TestConsumerAcksMalformedPayload(t *testing.T) {
	svc := &fakeEarner{}
	consumer := newTestConsumer(svc)

	msg := &pubsub.Message{ID: uuid.NewString(), Data: []byte("{not json")}
	if result := consumer.process(context.Background(), msg); !result.ack {
		t.Fatal("undecodable payloads should be acked")
	}

	msg = buildMessage(t, EarnEvent{
		EventType:  EventOrderCompleted,
		CustomerID: uuid.New(),
		SourceID:   uuid.New(),
		Points:     -5,
	})
	if result := consumer.process(context.Background(), msg); !result.ack {
		t.Fatal("non-positive points should be acked")
	}
	if len(svc.calls) != 0 {
		t.Fatal("malformed events must not reach the ledger")
	}
}
