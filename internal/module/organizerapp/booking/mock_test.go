package booking

import (
	"context"

	"github.com/stretchr/testify/mock"
	customerBooking "github.com/tazkarti/tz-booking/internal/module/customerapp/booking"
)

type mockBookingRepository struct {
	mock.Mock
}

func (m *mockBookingRepository) FindMany(ctx context.Context, filter Filter) ([]Booking, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]Booking), args.Error(1)
}

func (m *mockBookingRepository) Count(ctx context.Context, filter Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockBookingRepository) Summarize(ctx context.Context, filter Filter) (Summary, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(Summary), args.Error(1)
}

func (m *mockBookingRepository) CountByStatus(ctx context.Context, filter Filter) (map[string]int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(map[string]int64), args.Error(1)
}

func (m *mockBookingRepository) CountByPaymentStatus(ctx context.Context, filter Filter) (map[string]int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(map[string]int64), args.Error(1)
}

func (m *mockBookingRepository) FindOwnerByBookingID(ctx context.Context, bookingID string) (string, error) {
	args := m.Called(ctx, bookingID)
	return args.String(0), args.Error(1)
}

// mockCustomerBookingUseCase only answers OverrideStatus.
type mockCustomerBookingUseCase struct {
	customerBooking.BookingUseCase
	mock.Mock
}

func (m *mockCustomerBookingUseCase) OverrideStatus(ctx context.Context, req customerBooking.UpdateStatusRequest) (customerBooking.BookingResponse, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(customerBooking.BookingResponse), args.Error(1)
}
