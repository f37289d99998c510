package ticket

import "time"

const (
	StatusActive  = "ACTIVE"
	StatusRetired = "RETIRED"
)

const (
	ReservationHeld      = "HELD"
	ReservationCommitted = "COMMITTED"
	ReservationReleased  = "RELEASED"
)

// TicketStock is the inventory of one ticket type. Available + Reserved + Sold == Total.
type TicketStock struct {
	ID        string
	EventID   string
	Tier      string
	Price     float64
	Currency  string
	Total     int64
	Available int64
	Reserved  int64
	Sold      int64
	Status    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Reservation is the hold a pending booking has on a ticket stock.
// It is finalized at most once, either committed or released.
type Reservation struct {
	BookingID     string
	TicketStockID string
	Quantity      int64
	Status        string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
