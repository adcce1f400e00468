package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
)

// recordingAcknowledger captures ack/nack decisions for assertions.
type recordingAcknowledger struct {
	acks     int
	nacks    int
	requeues []bool
}

func (a *recordingAcknowledger) Ack(tag uint64, multiple bool) error {
	a.acks++
	return nil
}

func (a *recordingAcknowledger) Nack(tag uint64, multiple bool, requeue bool) error {
	a.nacks++
	a.requeues = append(a.requeues, requeue)
	return nil
}

func (a *recordingAcknowledger) Reject(tag uint64, requeue bool) error {
	a.requeues = append(a.requeues, requeue)
	return nil
}

func delivery(ack amqp.Acknowledger, body []byte) amqp.Delivery {
	return amqp.Delivery{Acknowledger: ack, DeliveryTag: 1, Body: body}
}

func TestConsumer_FailingEventDroppedAfterMaxAttempts(t *testing.T) {
	t.Parallel()

	consumer := NewCompletionConsumer(nil, "test_queue", func(ctx context.Context, event BookingCompleted) error {
		return errors.New("handler down")
	})

	body, _ := json.Marshal(BookingCompleted{BookingID: "booking-1"})

	ack := &recordingAcknowledger{}
	for i := 0; i < maxDeliveryAttempts; i++ {
		consumer.handleDelivery(context.Background(), delivery(ack, body))
	}

	if ack.nacks != maxDeliveryAttempts {
		t.Fatalf("expected %d nacks, got %d", maxDeliveryAttempts, ack.nacks)
	}
	for i := 0; i < maxDeliveryAttempts-1; i++ {
		if !ack.requeues[i] {
			t.Errorf("attempt %d: expected requeue", i+1)
		}
	}
	// The final attempt drops the message instead of requeueing it.
	if ack.requeues[maxDeliveryAttempts-1] {
		t.Error("expected the last nack to not requeue")
	}
}

func TestConsumer_SuccessResetsAttemptCount(t *testing.T) {
	t.Parallel()

	var fail bool
	consumer := NewCompletionConsumer(nil, "test_queue", func(ctx context.Context, event BookingCompleted) error {
		if fail {
			return errors.New("handler down")
		}
		return nil
	})

	body, _ := json.Marshal(BookingCompleted{BookingID: "booking-1"})
	ack := &recordingAcknowledger{}

	fail = true
	for i := 0; i < maxDeliveryAttempts-1; i++ {
		consumer.handleDelivery(context.Background(), delivery(ack, body))
	}
	fail = false
	consumer.handleDelivery(context.Background(), delivery(ack, body))
	if ack.acks != 1 {
		t.Fatalf("expected 1 ack, got %d", ack.acks)
	}

	// After a success the failure budget starts over.
	fail = true
	consumer.handleDelivery(context.Background(), delivery(ack, body))
	last := ack.requeues[len(ack.requeues)-1]
	if !last {
		t.Error("expected the first failure after a success to requeue")
	}
}

func TestConsumer_InvalidJSONNotRequeued(t *testing.T) {
	t.Parallel()

	consumer := NewCompletionConsumer(nil, "test_queue", func(ctx context.Context, event BookingCompleted) error {
		t.Fatal("handler must not run for invalid payloads")
		return nil
	})

	ack := &recordingAcknowledger{}
	consumer.handleDelivery(context.Background(), delivery(ack, []byte("{broken")))

	if ack.nacks != 1 || ack.requeues[0] {
		t.Fatalf("expected one nack without requeue, got nacks=%d requeues=%v", ack.nacks, ack.requeues)
	}
}
