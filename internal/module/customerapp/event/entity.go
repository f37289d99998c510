package event

import (
	"fmt"
	"net/http"
	"time"

	"github.com/tazkarti/tz-booking/pkg/errors"
	"github.com/tazkarti/tz-booking/pkg/status"
)

const (
	StatusPublished = "PUBLISHED"
	StatusCancelled = "CANCELLED"
)

type Event struct {
	ID          string
	OrganizerID string
	Name        string
	Description string
	Venue       string
	Status      string
	StartsAt    time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// BookingRule limits when and how much of an event can be booked at once.
// Zero values mean no limit.
type BookingRule struct {
	EventID       string
	StartDate     *time.Time
	EndDate       *time.Time
	MaximumTicket int64
}

func (r BookingRule) Check(now time.Time, quantity int64) error {
	if r.StartDate != nil && now.Before(*r.StartDate) {
		return errors.New(http.StatusBadRequest, status.BAD_REQUEST, "booking for this event has not opened yet")
	}

	if r.EndDate != nil && now.After(*r.EndDate) {
		return errors.New(http.StatusBadRequest, status.BAD_REQUEST, "booking for this event has been closed")
	}

	if r.MaximumTicket > 0 && quantity > r.MaximumTicket {
		return errors.New(http.StatusBadRequest, status.BAD_REQUEST, fmt.Sprintf("at most %d tickets can be booked at once for this event", r.MaximumTicket))
	}

	return nil
}
