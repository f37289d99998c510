package booking

import (
	"context"
	"encoding/json"
	"net/http"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
	"github.com/tazkarti/tz-booking/internal/module/customerapp/payment"
	"github.com/tazkarti/tz-booking/pkg/errors"
)

type DeliverySource interface {
	Deliveries(ctx context.Context) (<-chan amqp.Delivery, error)
}

// PaymentConsumer resolves bookings from payment results published by the payment service.
type PaymentConsumer struct {
	logger  *logrus.Logger
	source  DeliverySource
	usecase BookingUseCase
}

func NewPaymentConsumer(logger *logrus.Logger, source DeliverySource, usecase BookingUseCase) *PaymentConsumer {
	return &PaymentConsumer{
		logger:  logger,
		source:  source,
		usecase: usecase,
	}
}

// Run blocks until ctx is done or the delivery channel closes.
func (c *PaymentConsumer) Run(ctx context.Context) error {
	deliveries, err := c.source.Deliveries(ctx)
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return nil
			}
			c.handle(ctx, d)
		}
	}
}

func outcomeOf(routingKey string) string {
	switch routingKey {
	case RoutingKeyPaymentCompleted:
		return payment.OutcomeSettled
	case RoutingKeyPaymentFailed:
		return payment.OutcomeFailed
	}

	return ""
}

func (c *PaymentConsumer) handle(ctx context.Context, d amqp.Delivery) {
	entry := c.logger.WithContext(ctx).WithFields(logrus.Fields{
		"object":      "payment-consumer",
		"routing_key": d.RoutingKey,
	})

	outcome := outcomeOf(d.RoutingKey)
	var msg PaymentMessage
	if err := json.Unmarshal(d.Body, &msg); err != nil || outcome == "" || msg.BookingID == "" {
		entry.WithError(err).Warn("dropping malformed payment message")
		d.Nack(false, false)
		return
	}

	err := c.usecase.OnPaymentNotification(ctx, payment.Notification{
		BookingID:     msg.BookingID,
		TransactionID: msg.TransactionID,
		Gateway:       msg.Gateway,
		Outcome:       outcome,
	})
	if err != nil {
		ae := errors.Destruct(err)
		if ae.HTTPStatusCode < http.StatusInternalServerError {
			entry.WithField("booking_id", msg.BookingID).Warn(ae.Message)
			d.Ack(false)
			return
		}

		entry.WithField("booking_id", msg.BookingID).WithError(err).Error("requeueing payment message")
		d.Nack(false, true)
		return
	}

	d.Ack(false)
}
