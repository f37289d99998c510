package booking

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	customerBooking "github.com/tazkarti/tz-booking/internal/module/customerapp/booking"
	"github.com/tazkarti/tz-booking/internal/pkg/session"
	"github.com/tazkarti/tz-booking/pkg/errors"
	"github.com/tazkarti/tz-booking/pkg/status"
)

func newTestUseCase() (BookingUseCase, *mockBookingRepository, *mockCustomerBookingUseCase) {
	repo := &mockBookingRepository{}
	customer := &mockCustomerBookingUseCase{}

	return NewBookingUseCase(BookingUseCaseProperty{
		Logger:                 logrus.New(),
		Timeout:                5 * time.Second,
		BookingRepository:      repo,
		CustomerBookingUseCase: customer,
	}), repo, customer
}

func organizerCtx(id string) context.Context {
	return session.ContextWithAccount(context.Background(), session.Account{ID: id, Role: session.RoleOrganizer})
}

func TestGetManyBooking(t *testing.T) {
	t.Run("organizer sees own events with pagination", func(t *testing.T) {
		uc, repo, _ := newTestUseCase()

		expected := Filter{OrganizerID: "org-1", Status: "confirmed", Page: 2, Limit: 10, Offset: 10}
		repo.On("Count", mock.Anything, expected).Return(int64(25), nil)
		repo.On("FindMany", mock.Anything, expected).Return([]Booking{{ID: "bk-1", Code: "BOOK-1", TicketStockID: "ts-1"}}, nil)

		resp, err := uc.GetManyBooking(organizerCtx("org-1"), GetManyBookingRequest{Page: 2, Limit: 10, Status: "confirmed"})
		require.NoError(t, err)
		require.Len(t, resp.Bookings, 1)
		assert.Equal(t, "ts-1", resp.Bookings[0].TicketID)
		assert.Equal(t, int64(3), resp.Pagination.TotalPages)
		assert.Equal(t, int64(25), resp.Pagination.TotalItems)
		repo.AssertExpectations(t)
	})

	t.Run("admin is not scoped", func(t *testing.T) {
		uc, repo, _ := newTestUseCase()

		expected := Filter{Page: DefaultPage, Limit: DefaultLimit}
		repo.On("Count", mock.Anything, expected).Return(int64(0), nil)
		repo.On("FindMany", mock.Anything, expected).Return([]Booking{}, nil)

		ctx := session.ContextWithAccount(context.Background(), session.Account{ID: "adm-1", Role: session.RoleAdmin})
		resp, err := uc.GetManyBooking(ctx, GetManyBookingRequest{})
		require.NoError(t, err)
		assert.Empty(t, resp.Bookings)
		repo.AssertExpectations(t)
	})

	t.Run("customer is forbidden", func(t *testing.T) {
		uc, repo, _ := newTestUseCase()

		ctx := session.ContextWithAccount(context.Background(), session.Account{ID: "u-1", Role: session.RoleCustomer})
		_, err := uc.GetManyBooking(ctx, GetManyBookingRequest{Page: 1, Limit: 10})
		ae := errors.Destruct(err)
		assert.Equal(t, http.StatusForbidden, ae.HTTPStatusCode)
		repo.AssertNotCalled(t, "FindMany", mock.Anything, mock.Anything)
	})
}

func TestGetStats(t *testing.T) {
	uc, repo, _ := newTestUseCase()

	base := Filter{OrganizerID: "org-1", EventID: "ev-1"}
	recent := base
	recent.SortBy = "createdAt"
	recent.SortOrder = "desc"
	recent.Page = 1
	recent.Limit = RecentLimit

	repo.On("Summarize", mock.Anything, base).Return(Summary{TotalBookings: 4, TicketsSold: 6, TotalRevenue: 1500}, nil)
	repo.On("CountByStatus", mock.Anything, base).Return(map[string]int64{"confirmed": 3, "pending": 1}, nil)
	repo.On("CountByPaymentStatus", mock.Anything, base).Return(map[string]int64{"completed": 3, "pending": 1}, nil)
	repo.On("FindMany", mock.Anything, recent).Return([]Booking{{ID: "bk-4"}, {ID: "bk-3"}}, nil)

	resp, err := uc.GetStats(organizerCtx("org-1"), GetStatsRequest{EventID: "ev-1"})
	require.NoError(t, err)
	assert.Equal(t, int64(4), resp.TotalBookings)
	assert.Equal(t, int64(6), resp.TotalTicketsSold)
	assert.Equal(t, 1500.0, resp.TotalRevenue)
	assert.Equal(t, int64(3), resp.BookingsByStatus["confirmed"])
	assert.Equal(t, int64(1), resp.BookingsByPayment["pending"])
	require.Len(t, resp.RecentBookings, 2)
	assert.Equal(t, "bk-4", resp.RecentBookings[0].ID)
	repo.AssertExpectations(t)
}

func TestUpdateStatus(t *testing.T) {
	req := customerBooking.UpdateStatusRequest{BookingID: "bk-1", Status: "cancelled"}

	t.Run("owner delegates to the booking lifecycle", func(t *testing.T) {
		uc, repo, customer := newTestUseCase()

		repo.On("FindOwnerByBookingID", mock.Anything, "bk-1").Return("org-1", nil)
		customer.On("OverrideStatus", mock.Anything, req).Return(customerBooking.BookingResponse{ID: "bk-1", Status: customerBooking.StatusCancelled}, nil)

		resp, err := uc.UpdateStatus(organizerCtx("org-1"), req)
		require.NoError(t, err)
		assert.Equal(t, customerBooking.StatusCancelled, resp.Status)
		customer.AssertExpectations(t)
	})

	t.Run("other organizer is forbidden", func(t *testing.T) {
		uc, repo, customer := newTestUseCase()

		repo.On("FindOwnerByBookingID", mock.Anything, "bk-1").Return("org-2", nil)

		_, err := uc.UpdateStatus(organizerCtx("org-1"), req)
		ae := errors.Destruct(err)
		assert.Equal(t, http.StatusForbidden, ae.HTTPStatusCode)
		assert.Equal(t, status.FORBIDDEN, ae.Status)
		customer.AssertNotCalled(t, "OverrideStatus", mock.Anything, mock.Anything)
	})

	t.Run("admin may update any booking", func(t *testing.T) {
		uc, repo, customer := newTestUseCase()

		repo.On("FindOwnerByBookingID", mock.Anything, "bk-1").Return("org-2", nil)
		customer.On("OverrideStatus", mock.Anything, req).Return(customerBooking.BookingResponse{ID: "bk-1"}, nil)

		ctx := session.ContextWithAccount(context.Background(), session.Account{ID: "adm-1", Role: session.RoleAdmin})
		_, err := uc.UpdateStatus(ctx, req)
		require.NoError(t, err)
		customer.AssertExpectations(t)
	})

	t.Run("unknown booking", func(t *testing.T) {
		uc, repo, _ := newTestUseCase()

		repo.On("FindOwnerByBookingID", mock.Anything, "bk-1").Return("", errors.New(http.StatusNotFound, status.NOT_FOUND, "booking's properties with id 'bk-1' is not found"))

		_, err := uc.UpdateStatus(organizerCtx("org-1"), req)
		assert.True(t, errors.HasStatus(err, status.NOT_FOUND))
	})
}
