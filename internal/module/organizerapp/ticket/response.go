package ticket

import (
	"time"

	"github.com/tazkarti/tz-booking/internal/module/customerapp/ticket"
)

type TicketResponse struct {
	ID        string    `json:"id"`
	EventID   string    `json:"event_id"`
	Tier      string    `json:"tier"`
	Price     float64   `json:"price"`
	Currency  string    `json:"currency"`
	Total     int64     `json:"total"`
	Available int64     `json:"available"`
	Reserved  int64     `json:"reserved"`
	Sold      int64     `json:"sold"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (r *TicketResponse) PopulateFromEntity(ts ticket.TicketStock) {
	r.ID = ts.ID
	r.EventID = ts.EventID
	r.Tier = ts.Tier
	r.Price = ts.Price
	r.Currency = ts.Currency
	r.Total = ts.Total
	r.Available = ts.Available
	r.Reserved = ts.Reserved
	r.Sold = ts.Sold
	r.Status = ts.Status
	r.CreatedAt = ts.CreatedAt
	r.UpdatedAt = ts.UpdatedAt
}
