package booking

import "time"

const (
	RoutingKeyPaymentCompleted = "payment.completed"
	RoutingKeyPaymentFailed    = "payment.failed"
)

// ExpireBookingEvent is the body of the deferred on-expire callback.
type ExpireBookingEvent struct {
	ID string `json:"id"`
}

// PaymentMessage arrives on the payment queue.
type PaymentMessage struct {
	BookingID     string `json:"booking_id"`
	TransactionID string `json:"transaction_id"`
	Gateway       string `json:"gateway"`
}

// BookingEvent is published after every committed transition.
type BookingEvent struct {
	ID            string        `json:"id"`
	Code          string        `json:"code"`
	EventID       string        `json:"event_id"`
	TicketID      string        `json:"ticket_id"`
	CustomerID    string        `json:"customer_id"`
	Quantity      int64         `json:"quantity"`
	TotalPrice    float64       `json:"total_price"`
	Currency      string        `json:"currency"`
	Status        Status        `json:"status"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	Actor         string        `json:"actor"`
	OccurredAt    time.Time     `json:"occurred_at"`
}

func TopicOf(s Status) string {
	return "booking-" + string(s)
}

func newBookingEvent(b Booking, actor string) BookingEvent {
	return BookingEvent{
		ID:            b.ID,
		Code:          b.Code,
		EventID:       b.EventID,
		TicketID:      b.TicketStockID,
		CustomerID:    b.CustomerID,
		Quantity:      b.Quantity,
		TotalPrice:    b.TotalPrice,
		Currency:      b.Currency,
		Status:        b.Status,
		PaymentStatus: b.PaymentStatus,
		Actor:         actor,
		OccurredAt:    b.UpdatedAt,
	}
}
