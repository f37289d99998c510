package ticket

import (
	"context"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tazkarti/tz-booking/internal/module/customerapp/event"
	"github.com/tazkarti/tz-booking/internal/module/customerapp/ticket"
	"github.com/tazkarti/tz-booking/internal/pkg/clock"
	"github.com/tazkarti/tz-booking/internal/pkg/session"
	"github.com/tazkarti/tz-booking/internal/pkg/util"
	"github.com/tazkarti/tz-booking/pkg/errors"
	"github.com/tazkarti/tz-booking/pkg/status"
)

type TicketUseCase interface {
	CreateTicket(ctx context.Context, req CreateTicketRequest) (TicketResponse, error)
	GetManyTicket(ctx context.Context, eventID string) ([]TicketResponse, error)
	// RetireTicket stops new reservations. Existing holds still commit or release.
	RetireTicket(ctx context.Context, ticketID string) (TicketResponse, error)
}

type ticketUseCase struct {
	logger                *logrus.Logger
	timeout               time.Duration
	currency              string
	clock                 clock.Clock
	eventRepository       event.EventRepository
	ticketStockRepository ticket.TicketStockRepository
}

type TicketUseCaseProperty struct {
	Logger                *logrus.Logger
	Timeout               time.Duration
	Currency              string
	Clock                 clock.Clock
	EventRepository       event.EventRepository
	TicketStockRepository ticket.TicketStockRepository
}

func NewTicketUseCase(props TicketUseCaseProperty) TicketUseCase {
	c := props.Clock
	if c == nil {
		c = clock.NewSystem()
	}

	return &ticketUseCase{
		logger:                props.Logger,
		timeout:               props.Timeout,
		currency:              props.Currency,
		clock:                 c,
		eventRepository:       props.EventRepository,
		ticketStockRepository: props.TicketStockRepository,
	}
}

func (u *ticketUseCase) ownedEvent(ctx context.Context, eventID string) (event.Event, error) {
	acc, err := session.GetAccountFromCtx(ctx)
	if err != nil {
		return event.Event{}, err
	}

	ev, err := u.eventRepository.FindByID(ctx, eventID, nil)
	if err != nil {
		return event.Event{}, err
	}

	if !acc.IsAdmin() && ev.OrganizerID != acc.ID {
		return event.Event{}, errors.New(http.StatusForbidden, status.FORBIDDEN, "event does not belong to you")
	}

	return ev, nil
}

// CreateTicket implements TicketUseCase.
func (u *ticketUseCase) CreateTicket(ctx context.Context, req CreateTicketRequest) (TicketResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	ev, err := u.ownedEvent(ctx, req.EventID)
	if err != nil {
		return TicketResponse{}, err
	}

	currency := req.Currency
	if currency == "" {
		currency = u.currency
	}

	now := u.clock.Now()
	ts := ticket.TicketStock{
		ID:        util.GenerateID(),
		EventID:   ev.ID,
		Tier:      req.Tier,
		Price:     req.Price,
		Currency:  currency,
		Total:     req.Total,
		Available: req.Total,
		Reserved:  0,
		Sold:      0,
		Status:    ticket.StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := u.ticketStockRepository.Save(ctx, ts, nil); err != nil {
		return TicketResponse{}, err
	}

	u.logger.WithContext(ctx).WithFields(logrus.Fields{
		"event_id":        ev.ID,
		"ticket_stock_id": ts.ID,
		"total":           ts.Total,
	}).Info("ticket type has been defined")

	resp := TicketResponse{}
	resp.PopulateFromEntity(ts)

	return resp, nil
}

// GetManyTicket implements TicketUseCase.
func (u *ticketUseCase) GetManyTicket(ctx context.Context, eventID string) ([]TicketResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	if _, err := u.ownedEvent(ctx, eventID); err != nil {
		return nil, err
	}

	stocks, err := u.ticketStockRepository.FindManyByEventID(ctx, eventID, nil)
	if err != nil {
		return nil, err
	}

	resp := make([]TicketResponse, len(stocks))
	for k, v := range stocks {
		resp[k].PopulateFromEntity(v)
	}

	return resp, nil
}

// RetireTicket implements TicketUseCase.
func (u *ticketUseCase) RetireTicket(ctx context.Context, ticketID string) (TicketResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	ts, err := u.ticketStockRepository.FindByID(ctx, ticketID, nil)
	if err != nil {
		return TicketResponse{}, err
	}

	if _, err := u.ownedEvent(ctx, ts.EventID); err != nil {
		return TicketResponse{}, err
	}

	if ts.Status != ticket.StatusRetired {
		now := u.clock.Now()
		if err := u.ticketStockRepository.Retire(ctx, ts.ID, now, nil); err != nil {
			return TicketResponse{}, err
		}
		ts.Status = ticket.StatusRetired
		ts.UpdatedAt = now
	}

	resp := TicketResponse{}
	resp.PopulateFromEntity(ts)

	return resp, nil
}
