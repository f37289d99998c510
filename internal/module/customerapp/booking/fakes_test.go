package booking

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/tazkarti/tz-booking/internal/module/customerapp/event"
	"github.com/tazkarti/tz-booking/internal/module/customerapp/payment"
	"github.com/tazkarti/tz-booking/internal/module/customerapp/ticket"
	"github.com/tazkarti/tz-booking/pkg/errors"
	"github.com/tazkarti/tz-booking/pkg/gctasks"
	"github.com/tazkarti/tz-booking/pkg/status"
)

type memData struct {
	events       map[string]event.Event
	rules        map[string]event.BookingRule
	stocks       map[string]ticket.TicketStock
	reservations map[string]ticket.Reservation
	bookings     map[string]Booking
	history      []History
}

func (d memData) clone() memData {
	c := memData{
		events:       make(map[string]event.Event, len(d.events)),
		rules:        make(map[string]event.BookingRule, len(d.rules)),
		stocks:       make(map[string]ticket.TicketStock, len(d.stocks)),
		reservations: make(map[string]ticket.Reservation, len(d.reservations)),
		bookings:     make(map[string]Booking, len(d.bookings)),
		history:      append([]History(nil), d.history...),
	}
	for k, v := range d.events {
		c.events[k] = v
	}
	for k, v := range d.rules {
		c.rules[k] = v
	}
	for k, v := range d.stocks {
		c.stocks[k] = v
	}
	for k, v := range d.reservations {
		c.reservations[k] = v
	}
	for k, v := range d.bookings {
		c.bookings[k] = v
	}
	return c
}

// memStore emulates a serializable database: one transaction at a time, rollback restores a snapshot.
type memStore struct {
	txMu     sync.Mutex
	mu       sync.Mutex
	inTx     bool
	snapshot memData
	data     memData

	failHistorySave   bool
	failBookingUpdate bool
}

func newMemStore() *memStore {
	return &memStore{data: memData{}.clone()}
}

func (s *memStore) stock(id string) ticket.TicketStock {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.stocks[id]
}

func (s *memStore) booking(id string) Booking {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.bookings[id]
}

func (s *memStore) bookingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data.bookings)
}

type memBookingRepository struct{ s *memStore }

func (r memBookingRepository) BeginTx(ctx context.Context) (*sql.Tx, error) {
	r.s.txMu.Lock()
	r.s.mu.Lock()
	r.s.snapshot = r.s.data.clone()
	r.s.inTx = true
	r.s.mu.Unlock()
	return nil, nil
}

func (r memBookingRepository) CommitTx(ctx context.Context, tx *sql.Tx) error {
	r.s.mu.Lock()
	r.s.inTx = false
	r.s.mu.Unlock()
	r.s.txMu.Unlock()
	return nil
}

func (r memBookingRepository) Rollback(ctx context.Context, tx *sql.Tx) error {
	r.s.mu.Lock()
	if !r.s.inTx {
		r.s.mu.Unlock()
		return nil
	}
	r.s.data = r.s.snapshot
	r.s.inTx = false
	r.s.mu.Unlock()
	r.s.txMu.Unlock()
	return nil
}

func (r memBookingRepository) Save(ctx context.Context, b Booking, tx *sql.Tx) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failBookingUpdate {
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while updating booking")
	}
	r.s.data.bookings[b.ID] = b
	return nil
}

func (r memBookingRepository) FindByID(ctx context.Context, ID string, tx *sql.Tx) (Booking, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b, ok := r.s.data.bookings[ID]
	if !ok {
		return Booking{}, errors.New(http.StatusNotFound, status.NOT_FOUND, fmt.Sprintf("booking's properties with id '%s' is not found", ID))
	}
	return b, nil
}

func (r memBookingRepository) FindByIDForUpdate(ctx context.Context, ID string, tx *sql.Tx) (Booking, error) {
	return r.FindByID(ctx, ID, tx)
}

func (r memBookingRepository) Update(ctx context.Context, b Booking, tx *sql.Tx) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.data.bookings[b.ID] = b
	return nil
}

func (r memBookingRepository) filtered(customerID string, filter ListFilter) []Booking {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []Booking
	for _, b := range r.s.data.bookings {
		if b.CustomerID != customerID {
			continue
		}
		if filter.Status != "" && b.Status != filter.Status {
			continue
		}
		if filter.PaymentStatus != "" && b.PaymentStatus != filter.PaymentStatus {
			continue
		}
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r memBookingRepository) FindManyByCustomerID(ctx context.Context, customerID string, filter ListFilter, tx *sql.Tx) ([]Booking, error) {
	all := r.filtered(customerID, filter)
	start := filter.Offset()
	if start > int64(len(all)) {
		return []Booking{}, nil
	}
	end := start + filter.Limit
	if end > int64(len(all)) {
		end = int64(len(all))
	}
	return all[start:end], nil
}

func (r memBookingRepository) CountByCustomerID(ctx context.Context, customerID string, filter ListFilter, tx *sql.Tx) (int64, error) {
	return int64(len(r.filtered(customerID, filter))), nil
}

func (r memBookingRepository) FindManyDueIDs(ctx context.Context, now time.Time, limit int64, tx *sql.Tx) ([]string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ids := make([]string, 0)
	for _, b := range r.s.data.bookings {
		if b.IsDue(now) {
			ids = append(ids, b.ID)
		}
	}
	sort.Strings(ids)
	if int64(len(ids)) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

type memHistoryRepository struct{ s *memStore }

func (r memHistoryRepository) Save(ctx context.Context, h History, tx *sql.Tx) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failHistorySave {
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while saving booking status history")
	}
	h.ID = int64(len(r.s.data.history) + 1)
	r.s.data.history = append(r.s.data.history, h)
	return nil
}

func (r memHistoryRepository) FindManyByBookingID(ctx context.Context, bookingID string, tx *sql.Tx) ([]History, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]History, 0)
	for _, h := range r.s.data.history {
		if h.BookingID == bookingID {
			out = append(out, h)
		}
	}
	return out, nil
}

type memReservationRepository struct{ s *memStore }

func (r memReservationRepository) Reserve(ctx context.Context, rsv ticket.Reservation, tx *sql.Tx) (ticket.Reservation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ts, ok := r.s.data.stocks[rsv.TicketStockID]
	if !ok || ts.Status != ticket.StatusActive {
		return ticket.Reservation{}, errors.New(http.StatusNotFound, status.NOT_FOUND, "ticket is not found")
	}
	if ts.Available < rsv.Quantity {
		return ticket.Reservation{}, ticket.InsufficientInventoryError(ts.Available)
	}
	ts.Available -= rsv.Quantity
	ts.Reserved += rsv.Quantity
	r.s.data.stocks[ts.ID] = ts
	rsv.Status = ticket.ReservationHeld
	r.s.data.reservations[rsv.BookingID] = rsv
	return rsv, nil
}

func (r memReservationRepository) finalize(bookingID, to string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rsv, ok := r.s.data.reservations[bookingID]
	if !ok || rsv.Status != ticket.ReservationHeld {
		return false, nil
	}
	ts := r.s.data.stocks[rsv.TicketStockID]
	ts.Reserved -= rsv.Quantity
	if to == ticket.ReservationCommitted {
		ts.Sold += rsv.Quantity
	} else {
		ts.Available += rsv.Quantity
	}
	r.s.data.stocks[ts.ID] = ts
	rsv.Status = to
	r.s.data.reservations[bookingID] = rsv
	return true, nil
}

func (r memReservationRepository) Commit(ctx context.Context, bookingID string, now time.Time, tx *sql.Tx) (bool, error) {
	return r.finalize(bookingID, ticket.ReservationCommitted)
}

func (r memReservationRepository) Release(ctx context.Context, bookingID string, now time.Time, tx *sql.Tx) (bool, error) {
	return r.finalize(bookingID, ticket.ReservationReleased)
}

func (r memReservationRepository) FindByBookingID(ctx context.Context, bookingID string, tx *sql.Tx) (ticket.Reservation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rsv, ok := r.s.data.reservations[bookingID]
	if !ok {
		return ticket.Reservation{}, errors.New(http.StatusNotFound, status.NOT_FOUND, "reservation is not found")
	}
	return rsv, nil
}

type memTicketStockRepository struct{ s *memStore }

func (r memTicketStockRepository) FindByID(ctx context.Context, ID string, tx *sql.Tx) (ticket.TicketStock, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ts, ok := r.s.data.stocks[ID]
	if !ok {
		return ticket.TicketStock{}, errors.New(http.StatusNotFound, status.NOT_FOUND, fmt.Sprintf("ticket's properties with id '%s' is not found", ID))
	}
	return ts, nil
}

func (r memTicketStockRepository) FindManyByEventID(ctx context.Context, eventID string, tx *sql.Tx) ([]ticket.TicketStock, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]ticket.TicketStock, 0)
	for _, ts := range r.s.data.stocks {
		if ts.EventID == eventID {
			out = append(out, ts)
		}
	}
	return out, nil
}

func (r memTicketStockRepository) Save(ctx context.Context, ts ticket.TicketStock, tx *sql.Tx) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.data.stocks[ts.ID] = ts
	return nil
}

func (r memTicketStockRepository) Retire(ctx context.Context, ID string, now time.Time, tx *sql.Tx) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ts := r.s.data.stocks[ID]
	ts.Status = ticket.StatusRetired
	r.s.data.stocks[ID] = ts
	return nil
}

type memEventRepository struct{ s *memStore }

func (r memEventRepository) FindByID(ctx context.Context, ID string, tx *sql.Tx) (event.Event, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ev, ok := r.s.data.events[ID]
	if !ok {
		return event.Event{}, errors.New(http.StatusNotFound, status.NOT_FOUND, fmt.Sprintf("event's properties with id '%s' is not found", ID))
	}
	return ev, nil
}

// The share lock is covered by the store's transaction mutex.
func (r memEventRepository) FindByIDForShare(ctx context.Context, ID string, tx *sql.Tx) (event.Event, error) {
	return r.FindByID(ctx, ID, tx)
}

type memBookingRuleRepository struct{ s *memStore }

func (r memBookingRuleRepository) FindByEventID(ctx context.Context, eventID string, tx *sql.Tx) (event.BookingRule, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rule, ok := r.s.data.rules[eventID]
	if !ok {
		return event.BookingRule{EventID: eventID}, nil
	}
	return rule, nil
}

type fakeGateway struct {
	mu    sync.Mutex
	err   error
	calls []payment.AuthorizeRequest
}

func (g *fakeGateway) Authorize(ctx context.Context, req payment.AuthorizeRequest) (payment.Authorization, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, req)
	if err := ctx.Err(); err != nil {
		return payment.Authorization{}, errors.New(http.StatusGatewayTimeout, status.UPSTREAM_PAYMENT_ERROR, err.Error())
	}
	if g.err != nil {
		return payment.Authorization{}, g.err
	}
	return payment.Authorization{
		Gateway:          payment.GatewayMidtrans,
		TransactionID:    "trx-" + req.Reference,
		PaymentReference: "8800123456",
		Status:           "pending",
	}, nil
}

type fakeMidtrans struct {
	valid bool
}

func (f fakeMidtrans) Charge(ctx context.Context, req payment.AuthorizeRequest) (payment.Authorization, error) {
	return payment.Authorization{}, nil
}

func (f fakeMidtrans) VerifyNotification(n payment.MidtransNotification) bool {
	return f.valid
}

type fakeStripe struct {
	n   payment.Notification
	ok  bool
	err error
}

func (f fakeStripe) CreatePaymentIntent(ctx context.Context, req payment.AuthorizeRequest) (payment.Authorization, error) {
	return payment.Authorization{}, nil
}

func (f fakeStripe) ParseWebhook(payload []byte, signature string) (payment.Notification, bool, error) {
	return f.n, f.ok, f.err
}

type publishedMessage struct {
	topic, key string
	body       []byte
}

type fakePublisher struct {
	mu       sync.Mutex
	messages []publishedMessage
	// err fails every delivery. stall blocks each delivery until its context is done.
	err      error
	stall    bool
	timedOut int
}

func (p *fakePublisher) Publish(ctx context.Context, topic string, key string, headers map[string]string, message []byte) error {
	p.mu.Lock()
	p.messages = append(p.messages, publishedMessage{topic: topic, key: key, body: message})
	stall, err := p.stall, p.err
	p.mu.Unlock()

	if stall {
		<-ctx.Done()
		p.mu.Lock()
		p.timedOut++
		p.mu.Unlock()
		return ctx.Err()
	}
	return err
}

func (p *fakePublisher) stalled() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.timedOut
}

func (p *fakePublisher) Close() error { return nil }

func (p *fakePublisher) topics() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.messages))
	for k, m := range p.messages {
		out[k] = m.topic
	}
	return out
}

type scheduledTask struct {
	queueID  string
	request  gctasks.Request
	schedule time.Time
}

type fakeTasks struct {
	mu    sync.Mutex
	tasks []scheduledTask
}

func (f *fakeTasks) CreateTask(ctx context.Context, queueID string, request gctasks.Request) error {
	return f.DeferCreateTaskInTime(ctx, queueID, request, time.Time{})
}

func (f *fakeTasks) DeferCreateTaskInTime(ctx context.Context, queueID string, request gctasks.Request, schedule time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tasks = append(f.tasks, scheduledTask{queueID: queueID, request: request, schedule: schedule})
	return nil
}

func (f *fakeTasks) Close() error { return nil }
