package booking

import (
	"time"

	"github.com/tazkarti/tz-booking/pkg/response"
)

type BookingResponse struct {
	ID            string        `json:"id"`
	Code          string        `json:"booking_code"`
	EventID       string        `json:"event_id"`
	EventName     string        `json:"event_name"`
	TicketID      string        `json:"ticket_id"`
	Tier          string        `json:"tier"`
	Quantity      int64         `json:"quantity"`
	UnitPrice     float64       `json:"unit_price"`
	TotalPrice    float64       `json:"total_price"`
	Currency      string        `json:"currency"`
	Status        Status        `json:"status"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	PaymentMethod string        `json:"payment_method"`
	AttendeeName  string        `json:"attendee_name"`
	AttendeeEmail string        `json:"attendee_email"`
	AttendeePhone string        `json:"attendee_phone"`
	CreatedAt     time.Time     `json:"created_at"`
	ExpiresAt     time.Time     `json:"expires_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

func (r *BookingResponse) PopulateFromEntity(b Booking) {
	r.ID = b.ID
	r.Code = b.Code
	r.EventID = b.EventID
	r.EventName = b.EventName
	r.TicketID = b.TicketStockID
	r.Tier = b.Tier
	r.Quantity = b.Quantity
	r.UnitPrice = b.UnitPrice
	r.TotalPrice = b.TotalPrice
	r.Currency = b.Currency
	r.Status = b.Status
	r.PaymentStatus = b.PaymentStatus
	r.PaymentMethod = b.PaymentMethod
	r.AttendeeName = b.AttendeeName
	r.AttendeeEmail = b.AttendeeEmail
	r.AttendeePhone = b.AttendeePhone
	r.CreatedAt = b.CreatedAt
	r.ExpiresAt = b.ExpiresAt
	r.UpdatedAt = b.UpdatedAt
}

type CustomerContactResponse struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type PaymentInstructionResponse struct {
	Gateway string `json:"gateway"`
	Method  string `json:"method"`
	// Reference is the booking code shown on the customer's statement.
	Reference     string `json:"reference"`
	TransactionID string `json:"transaction_id"`
	// PaymentCode is a virtual account number for bank transfers and a client secret for cards.
	PaymentCode string                  `json:"payment_code"`
	Amount      int64                   `json:"amount"`
	Currency    string                  `json:"currency"`
	Description string                  `json:"description"`
	Customer    CustomerContactResponse `json:"customer"`
	ExpiresAt   time.Time               `json:"expires_at"`
}

type CreateSecureBookingResponse struct {
	Booking BookingResponse            `json:"booking"`
	Payment PaymentInstructionResponse `json:"payment"`
}

type PaymentResponse struct {
	Method        string        `json:"method"`
	Status        PaymentStatus `json:"status"`
	TransactionID *string       `json:"transaction_id"`
	Reference     *string       `json:"reference"`
}

type HistoryResponse struct {
	FromStatus    *Status       `json:"from_status"`
	ToStatus      Status        `json:"to_status"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	Actor         string        `json:"actor"`
	Reason        string        `json:"reason"`
	CreatedAt     time.Time     `json:"created_at"`
}

type BookingStatusResponse struct {
	BookingResponse
	Payment *PaymentResponse  `json:"payment"`
	QRCode  *string           `json:"qr_code"`
	History []HistoryResponse `json:"history"`
}

func (r *BookingStatusResponse) PopulateFromEntity(b Booking, history []History) {
	r.BookingResponse.PopulateFromEntity(b)

	if b.TransactionID != nil || b.PaymentReference != nil {
		r.Payment = &PaymentResponse{
			Method:        b.PaymentMethod,
			Status:        b.PaymentStatus,
			TransactionID: b.TransactionID,
			Reference:     b.PaymentReference,
		}
	}

	r.History = make([]HistoryResponse, len(history))
	for k, h := range history {
		r.History[k] = HistoryResponse{
			FromStatus:    h.FromStatus,
			ToStatus:      h.ToStatus,
			PaymentStatus: h.PaymentStatus,
			Actor:         h.Actor,
			Reason:        h.Reason,
			CreatedAt:     h.CreatedAt,
		}
	}
}

type GetManyBookingResponse struct {
	Bookings   []BookingResponse
	Pagination response.PaginationMeta
}
