package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	amqp "github.com/rabbitmq/amqp091-go"
)

// CompletedHandler processes a booking-completed event. Delivery is
// at-least-once, so handlers must be idempotent.
type CompletedHandler func(ctx context.Context, event BookingCompleted) error

// maxDeliveryAttempts bounds how often a failing event is requeued before
// it is dropped as poison.
const maxDeliveryAttempts = 5

// CompletionConsumer consumes booking-completed events from a dedicated
// queue. Each interested subsystem (route aggregation, load recommendation)
// gets its own queue bound to the same routing key, so consumers stay
// independent.
type CompletionConsumer struct {
	ch      *amqp.Channel
	queue   string
	handler CompletedHandler

	// attempts counts consecutive handler failures per booking; touched
	// only from the consume goroutine.
	attempts map[string]int
}

// NewCompletionConsumer creates a consumer on the given queue.
func NewCompletionConsumer(ch *amqp.Channel, queue string, handler CompletedHandler) *CompletionConsumer {
	return &CompletionConsumer{
		ch:       ch,
		queue:    queue,
		handler:  handler,
		attempts: make(map[string]int),
	}
}

// Start declares and binds the queue, then consumes until the channel closes.
// Failed deliveries are requeued so the handler sees them again.
func (c *CompletionConsumer) Start(ctx context.Context) error {
	if _, err := c.ch.QueueDeclare(
		c.queue,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		nil,
	); err != nil {
		return fmt.Errorf("failed to declare queue %s: %w", c.queue, err)
	}

	if err := c.ch.QueueBind(c.queue, KeyBookingCompleted, Exchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind queue %s: %w", c.queue, err)
	}

	msgs, err := c.ch.Consume(
		c.queue,
		"",    // consumer tag
		false, // manual ack: requeue on failure for at-least-once delivery
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to consume from %s: %w", c.queue, err)
	}

	go func() {
		for msg := range msgs {
			c.handleDelivery(ctx, msg)
		}
	}()

	log.Printf("%s consumer started", c.queue)
	return nil
}

// handleDelivery dispatches one delivery. Failures requeue the message up to
// maxDeliveryAttempts, then drop it so a poison event cannot hot-loop the
// queue.
func (c *CompletionConsumer) handleDelivery(ctx context.Context, msg amqp.Delivery) {
	var event BookingCompleted
	if err := json.Unmarshal(msg.Body, &event); err != nil {
		log.Printf("[%s] invalid JSON: %v", c.queue, err)
		_ = msg.Nack(false, false)
		return
	}

	if err := c.handler(ctx, event); err != nil {
		c.attempts[event.BookingID]++
		if c.attempts[event.BookingID] >= maxDeliveryAttempts {
			log.Printf("[%s] dropping booking %s after %d attempts: %v",
				c.queue, event.BookingID, maxDeliveryAttempts, err)
			delete(c.attempts, event.BookingID)
			_ = msg.Nack(false, false)
			return
		}
		log.Printf("[%s] handle booking %s failed: %v", c.queue, event.BookingID, err)
		_ = msg.Nack(false, true)
		return
	}

	delete(c.attempts, event.BookingID)
	_ = msg.Ack(false)
}
