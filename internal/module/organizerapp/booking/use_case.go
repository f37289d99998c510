package booking

import (
	"context"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	customerBooking "github.com/tazkarti/tz-booking/internal/module/customerapp/booking"
	"github.com/tazkarti/tz-booking/internal/pkg/session"
	"github.com/tazkarti/tz-booking/pkg/errors"
	"github.com/tazkarti/tz-booking/pkg/response"
	"github.com/tazkarti/tz-booking/pkg/status"
)

type BookingUseCase interface {
	GetManyBooking(ctx context.Context, req GetManyBookingRequest) (GetManyBookingResponse, error)
	GetStats(ctx context.Context, req GetStatsRequest) (StatsResponse, error)
	UpdateStatus(ctx context.Context, req customerBooking.UpdateStatusRequest) (customerBooking.BookingResponse, error)
}

type bookingUseCase struct {
	logger                 *logrus.Logger
	timeout                time.Duration
	bookingRepository      BookingRepository
	customerBookingUseCase customerBooking.BookingUseCase
}

type BookingUseCaseProperty struct {
	Logger                 *logrus.Logger
	Timeout                time.Duration
	BookingRepository      BookingRepository
	CustomerBookingUseCase customerBooking.BookingUseCase
}

func NewBookingUseCase(props BookingUseCaseProperty) BookingUseCase {
	return &bookingUseCase{
		logger:                 props.Logger,
		timeout:                props.Timeout,
		bookingRepository:      props.BookingRepository,
		customerBookingUseCase: props.CustomerBookingUseCase,
	}
}

// scope returns the organizer id to filter by. Admins see every organizer.
func scope(ctx context.Context) (string, error) {
	acc, err := session.GetAccountFromCtx(ctx)
	if err != nil {
		return "", err
	}

	if !acc.IsOrganizer() {
		return "", errors.New(http.StatusForbidden, status.FORBIDDEN, "organizer role is required")
	}

	if acc.IsAdmin() {
		return "", nil
	}

	return acc.ID, nil
}

// GetManyBooking implements BookingUseCase.
func (u *bookingUseCase) GetManyBooking(ctx context.Context, req GetManyBookingRequest) (GetManyBookingResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	organizerID, err := scope(ctx)
	if err != nil {
		return GetManyBookingResponse{}, err
	}

	if req.Page < 1 {
		req.Page = DefaultPage
	}
	if req.Limit < 1 {
		req.Limit = DefaultLimit
	}

	filter := req.filter(organizerID)

	total, err := u.bookingRepository.Count(ctx, filter)
	if err != nil {
		return GetManyBookingResponse{}, err
	}

	data, err := u.bookingRepository.FindMany(ctx, filter)
	if err != nil {
		return GetManyBookingResponse{}, err
	}

	return GetManyBookingResponse{
		Bookings:   populateMany(data),
		Pagination: response.NewPaginationMeta(req.Page, req.Limit, total),
	}, nil
}

// GetStats implements BookingUseCase.
func (u *bookingUseCase) GetStats(ctx context.Context, req GetStatsRequest) (StatsResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	organizerID, err := scope(ctx)
	if err != nil {
		return StatsResponse{}, err
	}

	filter := Filter{
		OrganizerID: organizerID,
		EventID:     req.EventID,
	}

	summary, err := u.bookingRepository.Summarize(ctx, filter)
	if err != nil {
		return StatsResponse{}, err
	}

	byStatus, err := u.bookingRepository.CountByStatus(ctx, filter)
	if err != nil {
		return StatsResponse{}, err
	}

	byPayment, err := u.bookingRepository.CountByPaymentStatus(ctx, filter)
	if err != nil {
		return StatsResponse{}, err
	}

	recentFilter := filter
	recentFilter.SortBy = "createdAt"
	recentFilter.SortOrder = "desc"
	recentFilter.Page = 1
	recentFilter.Limit = RecentLimit

	recent, err := u.bookingRepository.FindMany(ctx, recentFilter)
	if err != nil {
		return StatsResponse{}, err
	}

	return StatsResponse{
		TotalBookings:     summary.TotalBookings,
		TotalTicketsSold:  summary.TicketsSold,
		TotalRevenue:      summary.TotalRevenue,
		BookingsByStatus:  byStatus,
		BookingsByPayment: byPayment,
		RecentBookings:    populateMany(recent),
	}, nil
}

// UpdateStatus implements BookingUseCase.
func (u *bookingUseCase) UpdateStatus(ctx context.Context, req customerBooking.UpdateStatusRequest) (customerBooking.BookingResponse, error) {
	organizerID, err := scope(ctx)
	if err != nil {
		return customerBooking.BookingResponse{}, err
	}

	owner, err := u.bookingRepository.FindOwnerByBookingID(ctx, req.BookingID)
	if err != nil {
		return customerBooking.BookingResponse{}, err
	}

	if organizerID != "" && owner != organizerID {
		u.logger.WithContext(ctx).WithFields(logrus.Fields{
			"booking_id":   req.BookingID,
			"organizer_id": organizerID,
		}).Warn("organizer attempted to update a booking of another organizer")
		return customerBooking.BookingResponse{}, errors.New(http.StatusForbidden, status.FORBIDDEN, "booking does not belong to your events")
	}

	return u.customerBookingUseCase.OverrideStatus(ctx, req)
}
