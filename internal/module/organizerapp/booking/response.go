package booking

import (
	"time"

	"github.com/tazkarti/tz-booking/pkg/response"
)

type BookingResponse struct {
	ID            string    `json:"id"`
	Code          string    `json:"booking_code"`
	EventID       string    `json:"event_id"`
	EventName     string    `json:"event_name"`
	TicketID      string    `json:"ticket_id"`
	Tier          string    `json:"tier"`
	CustomerID    string    `json:"customer_id"`
	Quantity      int64     `json:"quantity"`
	UnitPrice     float64   `json:"unit_price"`
	TotalPrice    float64   `json:"total_price"`
	Currency      string    `json:"currency"`
	Status        string    `json:"status"`
	PaymentStatus string    `json:"payment_status"`
	PaymentMethod string    `json:"payment_method"`
	AttendeeName  string    `json:"attendee_name"`
	AttendeeEmail string    `json:"attendee_email"`
	CreatedAt     time.Time `json:"created_at"`
	ExpiresAt     time.Time `json:"expires_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (r *BookingResponse) PopulateFromEntity(b Booking) {
	r.ID = b.ID
	r.Code = b.Code
	r.EventID = b.EventID
	r.EventName = b.EventName
	r.TicketID = b.TicketStockID
	r.Tier = b.Tier
	r.CustomerID = b.CustomerID
	r.Quantity = b.Quantity
	r.UnitPrice = b.UnitPrice
	r.TotalPrice = b.TotalPrice
	r.Currency = b.Currency
	r.Status = b.Status
	r.PaymentStatus = b.PaymentStatus
	r.PaymentMethod = b.PaymentMethod
	r.AttendeeName = b.AttendeeName
	r.AttendeeEmail = b.AttendeeEmail
	r.CreatedAt = b.CreatedAt
	r.ExpiresAt = b.ExpiresAt
	r.UpdatedAt = b.UpdatedAt
}

func populateMany(data []Booking) []BookingResponse {
	resp := make([]BookingResponse, len(data))
	for k, v := range data {
		resp[k].PopulateFromEntity(v)
	}

	return resp
}

type GetManyBookingResponse struct {
	Bookings   []BookingResponse       `json:"bookings"`
	Pagination response.PaginationMeta `json:"pagination"`
}

type StatsResponse struct {
	TotalBookings     int64             `json:"total_bookings"`
	TotalTicketsSold  int64             `json:"total_tickets_sold"`
	TotalRevenue      float64           `json:"total_revenue"`
	BookingsByStatus  map[string]int64  `json:"bookings_by_status"`
	BookingsByPayment map[string]int64  `json:"bookings_by_payment_status"`
	RecentBookings    []BookingResponse `json:"recent_bookings"`
}
