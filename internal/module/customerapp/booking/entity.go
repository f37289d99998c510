package booking

import (
	"fmt"
	"net/http"
	"time"

	"github.com/tazkarti/tz-booking/pkg/errors"
	"github.com/tazkarti/tz-booking/pkg/status"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
	StatusExpired   Status = "expired"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled, StatusExpired:
		return true
	}

	return false
}

// IsTerminal reports whether no transition can leave s.
func (s Status) IsTerminal() bool {
	return len(transitions[s]) == 0
}

type PaymentStatus string

const (
	PaymentPending    PaymentStatus = "pending"
	PaymentProcessing PaymentStatus = "processing"
	PaymentCompleted  PaymentStatus = "completed"
	PaymentFailed     PaymentStatus = "failed"
	PaymentRefunded   PaymentStatus = "refunded"
	PaymentExpired    PaymentStatus = "expired"
)

func (p PaymentStatus) Valid() bool {
	switch p {
	case PaymentPending, PaymentProcessing, PaymentCompleted, PaymentFailed, PaymentRefunded, PaymentExpired:
		return true
	}

	return false
}

// Who moved a booking.
const (
	ActorCustomer  = "customer"
	ActorOrganizer = "organizer"
	ActorPayment   = "payment"
	ActorScheduler = "scheduler"
)

// LedgerEffect is what a transition does to the ticket reservation.
type LedgerEffect int

const (
	LedgerNone LedgerEffect = iota
	LedgerCommit
	LedgerRelease
)

// transitions is the whole booking state machine.
var transitions = map[Status]map[Status]LedgerEffect{
	StatusPending: {
		StatusConfirmed: LedgerCommit,
		StatusCancelled: LedgerRelease,
		StatusExpired:   LedgerRelease,
	},
}

func InvalidStateTransitionError(from, to Status) error {
	return errors.New(
		http.StatusBadRequest,
		status.INVALID_STATE_TRANSITION,
		fmt.Sprintf("cannot move booking from '%s' to '%s'", from, to),
	)
}

// ValidateTransition returns the ledger effect of moving from -> to.
func ValidateTransition(from, to Status) (LedgerEffect, error) {
	effect, ok := transitions[from][to]
	if !ok {
		return LedgerNone, InvalidStateTransitionError(from, to)
	}

	return effect, nil
}

type Booking struct {
	ID               string
	Code             string
	TicketStockID    string
	EventID          string
	EventName        string
	Tier             string
	CustomerID       string
	Quantity         int64
	UnitPrice        float64
	TotalPrice       float64
	Currency         string
	Status           Status
	PaymentStatus    PaymentStatus
	PaymentMethod    string
	PaymentReference *string
	TransactionID    *string
	AttendeeName     string
	AttendeeEmail    string
	AttendeePhone    string
	CreatedAt        time.Time
	ExpiresAt        time.Time
	UpdatedAt        time.Time
}

// Apply moves b to the target status and derives its payment status.
func (b *Booking) Apply(to Status, now time.Time) (LedgerEffect, error) {
	effect, err := ValidateTransition(b.Status, to)
	if err != nil {
		return LedgerNone, err
	}

	switch to {
	case StatusConfirmed:
		b.PaymentStatus = PaymentCompleted
	case StatusCancelled:
		if b.PaymentStatus == PaymentPending || b.PaymentStatus == PaymentProcessing {
			b.PaymentStatus = PaymentFailed
		}
	case StatusExpired:
		b.PaymentStatus = PaymentExpired
	}

	b.Status = to
	b.UpdatedAt = now

	return effect, nil
}

// IsDue reports whether the hold of a pending booking has run out.
func (b Booking) IsDue(now time.Time) bool {
	return b.Status == StatusPending && !now.Before(b.ExpiresAt)
}

type History struct {
	ID            int64
	BookingID     string
	FromStatus    *Status
	ToStatus      Status
	PaymentStatus PaymentStatus
	Actor         string
	Reason        string
	CreatedAt     time.Time
}

const (
	SortByCreatedAt  = "createdAt"
	SortByUpdatedAt  = "updatedAt"
	SortByTotalPrice = "totalPrice"
	SortAsc          = "asc"
	SortDesc         = "desc"
)

var sortColumns = map[string]string{
	SortByCreatedAt:  "created_at",
	SortByUpdatedAt:  "updated_at",
	SortByTotalPrice: "total_price",
}

type ListFilter struct {
	Status        Status
	PaymentStatus PaymentStatus
	SortBy        string
	SortOrder     string
	Page          int64
	Limit         int64
}

// OrderClause renders a whitelisted ORDER BY expression.
func (f ListFilter) OrderClause() string {
	column, ok := sortColumns[f.SortBy]
	if !ok {
		column = sortColumns[SortByCreatedAt]
	}

	direction := "DESC"
	if f.SortOrder == SortAsc {
		direction = "ASC"
	}

	return fmt.Sprintf("%s %s, id %s", column, direction, direction)
}

func (f ListFilter) Offset() int64 {
	if f.Page < 1 {
		return 0
	}

	return (f.Page - 1) * f.Limit
}
