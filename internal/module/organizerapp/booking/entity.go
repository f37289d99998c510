package booking

import (
	"fmt"
	"time"
)

// Booking is the organizer's projection of a booking, scanned with sqlx.
type Booking struct {
	ID            string    `db:"id"`
	Code          string    `db:"code"`
	EventID       string    `db:"event_id"`
	EventName     string    `db:"event_name"`
	TicketStockID string    `db:"ticket_stock_id"`
	Tier          string    `db:"tier"`
	CustomerID    string    `db:"customer_id"`
	Quantity      int64     `db:"quantity"`
	UnitPrice     float64   `db:"unit_price"`
	TotalPrice    float64   `db:"total_price"`
	Currency      string    `db:"currency"`
	Status        string    `db:"status"`
	PaymentStatus string    `db:"payment_status"`
	PaymentMethod string    `db:"payment_method"`
	AttendeeName  string    `db:"attendee_name"`
	AttendeeEmail string    `db:"attendee_email"`
	CreatedAt     time.Time `db:"created_at"`
	ExpiresAt     time.Time `db:"expires_at"`
	UpdatedAt     time.Time `db:"updated_at"`
}

var sortColumns = map[string]string{
	"createdAt":  "b.created_at",
	"updatedAt":  "b.updated_at",
	"totalPrice": "b.total_price",
}

// Filter scopes organizer queries. An empty OrganizerID means every organizer (admin).
type Filter struct {
	OrganizerID   string `db:"organizer_id"`
	EventID       string `db:"event_id"`
	Status        string `db:"status"`
	PaymentStatus string `db:"payment_status"`
	Search        string `db:"search"`
	SortBy        string `db:"-"`
	SortOrder     string `db:"-"`
	Page          int64  `db:"-"`
	Limit         int64  `db:"limit"`
	Offset        int64  `db:"offset"`
}

func (f Filter) orderClause() string {
	column, ok := sortColumns[f.SortBy]
	if !ok {
		column = sortColumns["createdAt"]
	}

	direction := "DESC"
	if f.SortOrder == "asc" {
		direction = "ASC"
	}

	return fmt.Sprintf("%s %s, b.id %s", column, direction, direction)
}

type Summary struct {
	TotalBookings int64   `db:"total_bookings"`
	TicketsSold   int64   `db:"tickets_sold"`
	TotalRevenue  float64 `db:"total_revenue"`
}

type countRow struct {
	Key   string `db:"key"`
	Count int64  `db:"count"`
}
