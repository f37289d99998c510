package booking

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"time"

	"cloud.google.com/go/cloudtasks/apiv2/cloudtaskspb"
	"github.com/sirupsen/logrus"
	"github.com/tazkarti/tz-booking/internal/module/customerapp/event"
	"github.com/tazkarti/tz-booking/internal/module/customerapp/payment"
	"github.com/tazkarti/tz-booking/internal/module/customerapp/ticket"
	"github.com/tazkarti/tz-booking/internal/pkg/clock"
	"github.com/tazkarti/tz-booking/internal/pkg/session"
	"github.com/tazkarti/tz-booking/internal/pkg/util"
	"github.com/tazkarti/tz-booking/pkg/errors"
	"github.com/tazkarti/tz-booking/pkg/gctasks"
	"github.com/tazkarti/tz-booking/pkg/pubsub"
	"github.com/tazkarti/tz-booking/pkg/response"
	"github.com/tazkarti/tz-booking/pkg/status"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
)

type BookingUseCase interface {
	CreateSecureBooking(ctx context.Context, req CreateSecureBookingRequest) (CreateSecureBookingResponse, error)
	CancelPendingBooking(ctx context.Context, bookingID string) (BookingResponse, error)
	GetBookingStatus(ctx context.Context, bookingID string) (BookingStatusResponse, error)
	GetManyBooking(ctx context.Context, req GetManyBookingRequest) (GetManyBookingResponse, error)
	// OverrideStatus is the organizer's manual status change. Ownership is checked by the caller.
	OverrideStatus(ctx context.Context, req UpdateStatusRequest) (BookingResponse, error)
	OnPaymentNotification(ctx context.Context, n payment.Notification) error
	OnMidtransNotification(ctx context.Context, n payment.MidtransNotification) error
	OnStripeWebhook(ctx context.Context, payload []byte, signature string) error
	OnExpireBooking(ctx context.Context, e ExpireBookingEvent) error
	// ExpireDueBookings expires up to limit pending bookings whose hold ran out.
	ExpireDueBookings(ctx context.Context, limit int64) (int, error)
}

const DefaultPublishTimeout = 2 * time.Second

type bookingUseCase struct {
	logger                *logrus.Logger
	timeout               time.Duration
	baseURL               string
	holdDuration          time.Duration
	maxQuantity           int64
	currency              string
	expiryQueue           string
	clock                 clock.Clock
	eventRepository       event.EventRepository
	bookingRuleRepository event.BookingRuleRepository
	ticketStockRepository ticket.TicketStockRepository
	reservationRepository ticket.ReservationRepository
	bookingRepository     BookingRepository
	historyRepository     HistoryRepository
	gateway               payment.Gateway
	midtransRepository    payment.MidtransRepository
	stripeRepository      payment.StripeRepository
	publisher             pubsub.Publisher
	publishTimeout        time.Duration
	cloudTask             gctasks.Client
}

type BookingUseCaseProperty struct {
	Logger                *logrus.Logger
	Timeout               time.Duration
	BaseURL               string
	HoldDuration          time.Duration
	MaxQuantity           int64
	Currency              string
	ExpiryQueue           string
	Clock                 clock.Clock
	EventRepository       event.EventRepository
	BookingRuleRepository event.BookingRuleRepository
	TicketStockRepository ticket.TicketStockRepository
	ReservationRepository ticket.ReservationRepository
	BookingRepository     BookingRepository
	HistoryRepository     HistoryRepository
	Gateway               payment.Gateway
	MidtransRepository    payment.MidtransRepository
	StripeRepository      payment.StripeRepository
	Publisher             pubsub.Publisher
	// PublishTimeout bounds a single event delivery. Defaults to DefaultPublishTimeout.
	PublishTimeout time.Duration
	// CloudTask is optional. When nil, expiry relies on the sweeper alone.
	CloudTask gctasks.Client
}

func NewBookingUseCase(props BookingUseCaseProperty) BookingUseCase {
	c := props.Clock
	if c == nil {
		c = clock.NewSystem()
	}

	publishTimeout := props.PublishTimeout
	if publishTimeout <= 0 {
		publishTimeout = DefaultPublishTimeout
	}

	return &bookingUseCase{
		logger:                props.Logger,
		timeout:               props.Timeout,
		baseURL:               props.BaseURL,
		holdDuration:          props.HoldDuration,
		maxQuantity:           props.MaxQuantity,
		currency:              props.Currency,
		expiryQueue:           props.ExpiryQueue,
		clock:                 c,
		eventRepository:       props.EventRepository,
		bookingRuleRepository: props.BookingRuleRepository,
		ticketStockRepository: props.TicketStockRepository,
		reservationRepository: props.ReservationRepository,
		bookingRepository:     props.BookingRepository,
		historyRepository:     props.HistoryRepository,
		gateway:               props.Gateway,
		midtransRepository:    props.MidtransRepository,
		stripeRepository:      props.StripeRepository,
		publisher:             props.Publisher,
		publishTimeout:        publishTimeout,
		cloudTask:             props.CloudTask,
	}
}

// transitionGuard runs against the locked booking row. Returning false leaves the booking untouched.
type transitionGuard func(b Booking, now time.Time) (bool, error)

type transition struct {
	bookingID string
	to        Status
	actor     string
	reason    string
	guard     transitionGuard
	mutate    func(b *Booking)
}

// transition locks the booking row and moves it through the state machine. The ledger effect
// and the history row are written in the same transaction.
func (u *bookingUseCase) transition(ctx context.Context, t transition) (Booking, bool, error) {
	tx, err := u.bookingRepository.BeginTx(ctx)
	if err != nil {
		return Booking{}, false, err
	}

	b, err := u.bookingRepository.FindByIDForUpdate(ctx, t.bookingID, tx)
	if err != nil {
		u.bookingRepository.Rollback(ctx, tx)
		return Booking{}, false, err
	}

	now := u.clock.Now()
	if t.guard != nil {
		proceed, err := t.guard(b, now)
		if err != nil || !proceed {
			u.bookingRepository.Rollback(ctx, tx)
			return b, false, err
		}
	}

	from := b.Status
	effect, err := b.Apply(t.to, now)
	if err != nil {
		u.bookingRepository.Rollback(ctx, tx)
		return Booking{}, false, err
	}

	if t.mutate != nil {
		t.mutate(&b)
	}

	if err := u.applyLedgerEffect(ctx, b.ID, effect, now, tx); err != nil {
		u.bookingRepository.Rollback(ctx, tx)
		return Booking{}, false, err
	}

	if err := u.bookingRepository.Update(ctx, b, tx); err != nil {
		u.bookingRepository.Rollback(ctx, tx)
		return Booking{}, false, err
	}

	if err := u.historyRepository.Save(ctx, History{
		BookingID:     b.ID,
		FromStatus:    &from,
		ToStatus:      b.Status,
		PaymentStatus: b.PaymentStatus,
		Actor:         t.actor,
		Reason:        t.reason,
		CreatedAt:     now,
	}, tx); err != nil {
		u.bookingRepository.Rollback(ctx, tx)
		return Booking{}, false, err
	}

	if err := u.bookingRepository.CommitTx(ctx, tx); err != nil {
		return Booking{}, false, err
	}

	u.publish(ctx, b, t.actor)

	return b, true, nil
}

func (u *bookingUseCase) applyLedgerEffect(ctx context.Context, bookingID string, effect LedgerEffect, now time.Time, tx *sql.Tx) error {
	var changed bool
	var err error

	switch effect {
	case LedgerCommit:
		changed, err = u.reservationRepository.Commit(ctx, bookingID, now, tx)
	case LedgerRelease:
		changed, err = u.reservationRepository.Release(ctx, bookingID, now, tx)
	default:
		return nil
	}
	if err != nil {
		return err
	}

	if !changed {
		u.logger.WithContext(ctx).WithField("booking_id", bookingID).Warn("reservation was already finalized")
	}

	return nil
}

func (u *bookingUseCase) pendingOnly(ctx context.Context) transitionGuard {
	return func(b Booking, _ time.Time) (bool, error) {
		if b.Status != StatusPending {
			u.logger.WithContext(ctx).WithFields(logrus.Fields{
				"booking_id": b.ID,
				"status":     b.Status,
			}).Info("booking is already resolved, transition skipped")
			return false, nil
		}

		return true, nil
	}
}

func dueOnly(b Booking, now time.Time) (bool, error) {
	return b.IsDue(now), nil
}

func (u *bookingUseCase) publish(ctx context.Context, b Booking, actor string) {
	if u.publisher == nil {
		return
	}

	buff, err := json.Marshal(newBookingEvent(b, actor))
	if err != nil {
		u.logger.WithContext(ctx).WithError(err).Error()
		return
	}

	// Delivery is bounded by its own deadline, detached from the request.
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), u.publishTimeout)
	defer cancel()

	if err := u.publisher.Publish(pctx, TopicOf(b.Status), b.ID, nil, buff); err != nil {
		u.logger.WithContext(ctx).WithError(err).WithField("booking_id", b.ID).Error("failed to publish booking event")
	}
}

func (u *bookingUseCase) scheduleExpiry(ctx context.Context, b Booking) {
	if u.cloudTask == nil {
		return
	}

	body, _ := json.Marshal(ExpireBookingEvent{ID: b.ID})

	err := u.cloudTask.DeferCreateTaskInTime(ctx, u.expiryQueue, gctasks.Request{
		Name:   "expire-" + b.ID,
		URL:    u.baseURL + "/api/booking/on-expire",
		Method: cloudtaskspb.HttpMethod_POST,
		Header: map[string]string{"Content-Type": "application/json"},
		Body:   body,
	}, b.ExpiresAt)
	if err != nil {
		u.logger.WithContext(ctx).WithError(err).WithField("booking_id", b.ID).Warn("failed to schedule booking expiry, the sweeper will pick it up")
	}
}

func roundPrice(v float64) float64 {
	return math.Round(v*100) / 100
}

// CreateSecureBooking implements BookingUseCase.
func (u *bookingUseCase) CreateSecureBooking(ctx context.Context, req CreateSecureBookingRequest) (CreateSecureBookingResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	acc, err := session.GetAccountFromCtx(ctx)
	if err != nil {
		return CreateSecureBookingResponse{}, err
	}

	if req.Quantity < 1 {
		return CreateSecureBookingResponse{}, errors.New(http.StatusBadRequest, status.BAD_REQUEST, "quantity must be at least 1")
	}
	if u.maxQuantity > 0 && req.Quantity > u.maxQuantity {
		return CreateSecureBookingResponse{}, errors.New(http.StatusBadRequest, status.BAD_REQUEST, fmt.Sprintf("quantity must not exceed %d", u.maxQuantity))
	}

	tx, err := u.bookingRepository.BeginTx(ctx)
	if err != nil {
		return CreateSecureBookingResponse{}, err
	}

	now := u.clock.Now()

	ev, err := u.eventRepository.FindByIDForShare(ctx, req.EventID, tx)
	if err != nil {
		u.bookingRepository.Rollback(ctx, tx)
		return CreateSecureBookingResponse{}, err
	}
	if ev.Status != event.StatusPublished {
		u.bookingRepository.Rollback(ctx, tx)
		return CreateSecureBookingResponse{}, errors.New(http.StatusBadRequest, status.BAD_REQUEST, fmt.Sprintf("event '%s' is not open for booking", ev.ID))
	}

	rule, err := u.bookingRuleRepository.FindByEventID(ctx, ev.ID, tx)
	if err != nil {
		u.bookingRepository.Rollback(ctx, tx)
		return CreateSecureBookingResponse{}, err
	}
	if err := rule.Check(now, req.Quantity); err != nil {
		u.bookingRepository.Rollback(ctx, tx)
		return CreateSecureBookingResponse{}, err
	}

	ts, err := u.ticketStockRepository.FindByID(ctx, req.TicketID, tx)
	if err != nil {
		u.bookingRepository.Rollback(ctx, tx)
		return CreateSecureBookingResponse{}, err
	}
	if ts.EventID != ev.ID || ts.Status != ticket.StatusActive {
		u.bookingRepository.Rollback(ctx, tx)
		return CreateSecureBookingResponse{}, errors.New(http.StatusNotFound, status.NOT_FOUND, fmt.Sprintf("ticket's properties with id '%s' is not found", req.TicketID))
	}

	currency := ts.Currency
	if currency == "" {
		currency = u.currency
	}

	b := Booking{
		ID:            util.GenerateID(),
		Code:          util.GenerateBookingCode(),
		TicketStockID: ts.ID,
		EventID:       ev.ID,
		EventName:     ev.Name,
		Tier:          ts.Tier,
		CustomerID:    acc.ID,
		Quantity:      req.Quantity,
		UnitPrice:     ts.Price,
		TotalPrice:    roundPrice(ts.Price * float64(req.Quantity)),
		Currency:      currency,
		Status:        StatusPending,
		PaymentStatus: PaymentPending,
		PaymentMethod: req.PaymentMethod,
		AttendeeName:  req.AttendeeName,
		AttendeeEmail: req.AttendeeEmail,
		AttendeePhone: req.AttendeePhone,
		CreatedAt:     now,
		ExpiresAt:     now.Add(u.holdDuration),
		UpdatedAt:     now,
	}
	if b.AttendeeName == "" {
		b.AttendeeName = acc.Name
	}
	if b.AttendeeEmail == "" {
		b.AttendeeEmail = acc.Email
	}
	if b.AttendeePhone == "" {
		b.AttendeePhone = acc.Phone
	}

	if _, err := u.reservationRepository.Reserve(ctx, ticket.Reservation{
		BookingID:     b.ID,
		TicketStockID: ts.ID,
		Quantity:      b.Quantity,
		Status:        ticket.ReservationHeld,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, tx); err != nil {
		u.bookingRepository.Rollback(ctx, tx)
		return CreateSecureBookingResponse{}, err
	}

	if err := u.bookingRepository.Save(ctx, b, tx); err != nil {
		u.bookingRepository.Rollback(ctx, tx)
		return CreateSecureBookingResponse{}, err
	}

	if err := u.historyRepository.Save(ctx, History{
		BookingID:     b.ID,
		ToStatus:      b.Status,
		PaymentStatus: b.PaymentStatus,
		Actor:         ActorCustomer,
		Reason:        "booking created",
		CreatedAt:     now,
	}, tx); err != nil {
		u.bookingRepository.Rollback(ctx, tx)
		return CreateSecureBookingResponse{}, err
	}

	if err := u.bookingRepository.CommitTx(ctx, tx); err != nil {
		return CreateSecureBookingResponse{}, err
	}

	// The inventory is held now. The gateway is called outside of any transaction.
	payReq := payment.AuthorizeRequest{
		Reference:   b.ID,
		Method:      b.PaymentMethod,
		Amount:      b.TotalPrice,
		AmountMinor: int64(math.Round(b.TotalPrice * 100)),
		Currency:    b.Currency,
		Description: fmt.Sprintf("%s - %s x%d", b.EventName, b.Tier, b.Quantity),
		Customer: payment.Customer{
			Name:  b.AttendeeName,
			Email: b.AttendeeEmail,
			Phone: b.AttendeePhone,
		},
		ExpiresAt: b.ExpiresAt,
	}

	auth, err := u.gateway.Authorize(ctx, payReq)
	if err != nil {
		u.compensate(ctx, b.ID)

		ae := errors.Destruct(err)
		if ae.HTTPStatusCode >= http.StatusInternalServerError && ae.Status != status.UPSTREAM_PAYMENT_ERROR {
			return CreateSecureBookingResponse{}, errors.New(http.StatusBadGateway, status.UPSTREAM_PAYMENT_ERROR, "payment gateway is unavailable, your booking has been cancelled")
		}
		return CreateSecureBookingResponse{}, ae
	}

	b = u.attachPayment(ctx, b, auth)
	u.scheduleExpiry(ctx, b)
	u.publish(ctx, b, ActorCustomer)

	resp := CreateSecureBookingResponse{}
	resp.Booking.PopulateFromEntity(b)
	resp.Payment = PaymentInstructionResponse{
		Gateway:       auth.Gateway,
		Method:        b.PaymentMethod,
		Reference:     b.Code,
		TransactionID: auth.TransactionID,
		PaymentCode:   auth.PaymentReference,
		Amount:        payReq.AmountMinor,
		Currency:      b.Currency,
		Description:   payReq.Description,
		Customer: CustomerContactResponse{
			Name:  payReq.Customer.Name,
			Email: payReq.Customer.Email,
			Phone: payReq.Customer.Phone,
		},
		ExpiresAt: b.ExpiresAt,
	}

	return resp, nil
}

// compensate cancels a booking whose payment could not be authorized, releasing its hold.
func (u *bookingUseCase) compensate(ctx context.Context, bookingID string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), u.timeout)
	defer cancel()

	_, _, err := u.transition(ctx, transition{
		bookingID: bookingID,
		to:        StatusCancelled,
		actor:     ActorPayment,
		reason:    "payment authorization failed",
		guard:     u.pendingOnly(ctx),
	})
	if err != nil {
		u.logger.WithContext(ctx).WithError(err).WithField("booking_id", bookingID).Error("failed to cancel booking after payment authorization failure")
	}
}

// attachPayment stores the gateway references. Failures are logged and not returned
// since notifications carry the booking id.
func (u *bookingUseCase) attachPayment(ctx context.Context, b Booking, auth payment.Authorization) Booking {
	log := u.logger.WithContext(ctx).WithField("booking_id", b.ID).WithField("transaction_id", auth.TransactionID)

	tx, err := u.bookingRepository.BeginTx(ctx)
	if err != nil {
		log.WithError(err).Warn("could not attach payment references to booking")
		return b
	}

	current, err := u.bookingRepository.FindByIDForUpdate(ctx, b.ID, tx)
	if err != nil {
		u.bookingRepository.Rollback(ctx, tx)
		log.WithError(err).Warn("could not attach payment references to booking")
		return b
	}

	if current.TransactionID == nil && auth.TransactionID != "" {
		current.TransactionID = &auth.TransactionID
	}
	if current.PaymentReference == nil && auth.PaymentReference != "" {
		current.PaymentReference = &auth.PaymentReference
	}
	current.UpdatedAt = u.clock.Now()

	if err := u.bookingRepository.Update(ctx, current, tx); err != nil {
		u.bookingRepository.Rollback(ctx, tx)
		log.WithError(err).Warn("could not attach payment references to booking")
		return b
	}

	if err := u.bookingRepository.CommitTx(ctx, tx); err != nil {
		log.WithError(err).Warn("could not attach payment references to booking")
		return b
	}

	return current
}

// CancelPendingBooking implements BookingUseCase.
func (u *bookingUseCase) CancelPendingBooking(ctx context.Context, bookingID string) (BookingResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	acc, err := session.GetAccountFromCtx(ctx)
	if err != nil {
		return BookingResponse{}, err
	}

	b, _, err := u.transition(ctx, transition{
		bookingID: bookingID,
		to:        StatusCancelled,
		actor:     ActorCustomer,
		reason:    "cancelled by customer",
		guard: func(b Booking, _ time.Time) (bool, error) {
			if b.CustomerID != acc.ID {
				return false, errors.New(http.StatusForbidden, status.FORBIDDEN, "you are not allowed to cancel this booking")
			}
			if b.Status != StatusPending {
				return false, errors.New(http.StatusBadRequest, status.INVALID_STATE_TRANSITION, fmt.Sprintf("cannot cancel a booking that is already %s", b.Status))
			}
			return true, nil
		},
	})
	if err != nil {
		return BookingResponse{}, err
	}

	resp := BookingResponse{}
	resp.PopulateFromEntity(b)

	return resp, nil
}

// GetBookingStatus implements BookingUseCase.
func (u *bookingUseCase) GetBookingStatus(ctx context.Context, bookingID string) (BookingStatusResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	acc, err := session.GetAccountFromCtx(ctx)
	if err != nil {
		return BookingStatusResponse{}, err
	}

	b, err := u.bookingRepository.FindByID(ctx, bookingID, nil)
	if err != nil {
		return BookingStatusResponse{}, err
	}

	if b.CustomerID != acc.ID && !acc.IsAdmin() {
		return BookingStatusResponse{}, errors.New(http.StatusForbidden, status.FORBIDDEN, "you are not allowed to see this booking")
	}

	history, err := u.historyRepository.FindManyByBookingID(ctx, b.ID, nil)
	if err != nil {
		return BookingStatusResponse{}, err
	}

	resp := BookingStatusResponse{}
	resp.PopulateFromEntity(b, history)

	qr, ok, err := QRCodeDataURI(b)
	if err != nil {
		u.logger.WithContext(ctx).WithError(err).WithField("booking_id", b.ID).Error("failed to render qr code")
	}
	if ok {
		resp.QRCode = &qr
	}

	return resp, nil
}

// GetManyBooking implements BookingUseCase.
func (u *bookingUseCase) GetManyBooking(ctx context.Context, req GetManyBookingRequest) (GetManyBookingResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	acc, err := session.GetAccountFromCtx(ctx)
	if err != nil {
		return GetManyBookingResponse{}, err
	}

	if req.Page < 1 {
		req.Page = DefaultPage
	}
	if req.Limit < 1 {
		req.Limit = DefaultLimit
	}
	filter := req.Filter()

	bookings, err := u.bookingRepository.FindManyByCustomerID(ctx, acc.ID, filter, nil)
	if err != nil {
		return GetManyBookingResponse{}, err
	}

	total, err := u.bookingRepository.CountByCustomerID(ctx, acc.ID, filter, nil)
	if err != nil {
		return GetManyBookingResponse{}, err
	}

	resp := GetManyBookingResponse{
		Bookings:   make([]BookingResponse, len(bookings)),
		Pagination: response.NewPaginationMeta(filter.Page, filter.Limit, total),
	}
	for k, b := range bookings {
		resp.Bookings[k].PopulateFromEntity(b)
	}

	return resp, nil
}

// OverrideStatus implements BookingUseCase.
func (u *bookingUseCase) OverrideStatus(ctx context.Context, req UpdateStatusRequest) (BookingResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	to := Status(req.Status)
	switch to {
	case StatusPending, StatusConfirmed, StatusCancelled:
	default:
		return BookingResponse{}, errors.New(http.StatusBadRequest, status.BAD_REQUEST, fmt.Sprintf("invalid status '%s'", req.Status))
	}

	reason := req.Reason
	if reason == "" {
		reason = "updated by organizer"
	}

	b, _, err := u.transition(ctx, transition{
		bookingID: req.BookingID,
		to:        to,
		actor:     ActorOrganizer,
		reason:    reason,
	})
	if err != nil {
		return BookingResponse{}, err
	}

	resp := BookingResponse{}
	resp.PopulateFromEntity(b)

	return resp, nil
}

// OnPaymentNotification implements BookingUseCase.
func (u *bookingUseCase) OnPaymentNotification(ctx context.Context, n payment.Notification) error {
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	switch n.Outcome {
	case payment.OutcomeSettled:
		_, _, err := u.transition(ctx, transition{
			bookingID: n.BookingID,
			to:        StatusConfirmed,
			actor:     ActorPayment,
			reason:    fmt.Sprintf("payment settled on %s", n.Gateway),
			guard:     u.pendingOnly(ctx),
			mutate: func(b *Booking) {
				if b.TransactionID == nil && n.TransactionID != "" {
					b.TransactionID = &n.TransactionID
				}
			},
		})
		return err
	case payment.OutcomeExpired:
		_, _, err := u.transition(ctx, transition{
			bookingID: n.BookingID,
			to:        StatusExpired,
			actor:     ActorPayment,
			reason:    fmt.Sprintf("payment expired on %s", n.Gateway),
			guard:     u.pendingOnly(ctx),
		})
		return err
	case payment.OutcomePending:
		return u.updatePaymentStatus(ctx, n, PaymentProcessing)
	case payment.OutcomeFailed:
		return u.updatePaymentStatus(ctx, n, PaymentFailed)
	}

	return errors.New(http.StatusBadRequest, status.BAD_REQUEST, fmt.Sprintf("unknown payment outcome '%s'", n.Outcome))
}

// updatePaymentStatus records gateway progress without moving the booking status.
func (u *bookingUseCase) updatePaymentStatus(ctx context.Context, n payment.Notification, ps PaymentStatus) error {
	tx, err := u.bookingRepository.BeginTx(ctx)
	if err != nil {
		return err
	}

	b, err := u.bookingRepository.FindByIDForUpdate(ctx, n.BookingID, tx)
	if err != nil {
		u.bookingRepository.Rollback(ctx, tx)
		return err
	}

	if b.Status != StatusPending {
		u.bookingRepository.Rollback(ctx, tx)
		return nil
	}

	b.PaymentStatus = ps
	if b.TransactionID == nil && n.TransactionID != "" {
		b.TransactionID = &n.TransactionID
	}
	b.UpdatedAt = u.clock.Now()

	if err := u.bookingRepository.Update(ctx, b, tx); err != nil {
		u.bookingRepository.Rollback(ctx, tx)
		return err
	}

	return u.bookingRepository.CommitTx(ctx, tx)
}

// OnMidtransNotification implements BookingUseCase.
func (u *bookingUseCase) OnMidtransNotification(ctx context.Context, n payment.MidtransNotification) error {
	if !u.midtransRepository.VerifyNotification(n) {
		return errors.New(http.StatusUnauthorized, status.UNAUTHORIZED, "invalid midtrans signature")
	}

	outcome := n.Outcome()
	if outcome == "" {
		u.logger.WithContext(ctx).WithFields(logrus.Fields{
			"order_id":           n.OrderID,
			"transaction_status": n.TransactionStatus,
		}).Debug("midtrans notification ignored")
		return nil
	}

	return u.OnPaymentNotification(ctx, payment.Notification{
		BookingID:     n.OrderID,
		TransactionID: n.TransactionID,
		Gateway:       payment.GatewayMidtrans,
		Outcome:       outcome,
	})
}

// OnStripeWebhook implements BookingUseCase.
func (u *bookingUseCase) OnStripeWebhook(ctx context.Context, payload []byte, signature string) error {
	n, ok, err := u.stripeRepository.ParseWebhook(payload, signature)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	return u.OnPaymentNotification(ctx, n)
}

func (u *bookingUseCase) expire(ctx context.Context, bookingID, reason string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	_, changed, err := u.transition(ctx, transition{
		bookingID: bookingID,
		to:        StatusExpired,
		actor:     ActorScheduler,
		reason:    reason,
		guard:     dueOnly,
	})

	return changed, err
}

// OnExpireBooking implements BookingUseCase. Early or duplicate deliveries are no-ops.
func (u *bookingUseCase) OnExpireBooking(ctx context.Context, e ExpireBookingEvent) error {
	_, err := u.expire(ctx, e.ID, "hold expired (deferred task)")
	return err
}

// ExpireDueBookings implements BookingUseCase.
func (u *bookingUseCase) ExpireDueBookings(ctx context.Context, limit int64) (int, error) {
	lctx, cancel := context.WithTimeout(ctx, u.timeout)
	ids, err := u.bookingRepository.FindManyDueIDs(lctx, u.clock.Now(), limit, nil)
	cancel()
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, id := range ids {
		if ctx.Err() != nil {
			break
		}

		changed, err := u.expire(ctx, id, "hold expired")
		if err != nil {
			u.logger.WithContext(ctx).WithError(err).WithField("booking_id", id).Error("failed to expire booking")
			continue
		}
		if changed {
			expired++
		}
	}

	return expired, nil
}
