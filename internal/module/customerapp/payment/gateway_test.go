package payment

import (
	"context"
	"net/http"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tazkarti/tz-booking/pkg/errors"
	"github.com/tazkarti/tz-booking/pkg/status"
)

type mockMidtrans struct {
	mock.Mock
}

func (m *mockMidtrans) Charge(ctx context.Context, req AuthorizeRequest) (Authorization, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(Authorization), args.Error(1)
}

func (m *mockMidtrans) VerifyNotification(n MidtransNotification) bool {
	return m.Called(n).Bool(0)
}

type mockStripe struct {
	mock.Mock
}

func (m *mockStripe) CreatePaymentIntent(ctx context.Context, req AuthorizeRequest) (Authorization, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(Authorization), args.Error(1)
}

func (m *mockStripe) ParseWebhook(payload []byte, signature string) (Notification, bool, error) {
	args := m.Called(payload, signature)
	return args.Get(0).(Notification), args.Bool(1), args.Error(2)
}

func TestGatewayRoutesByMethod(t *testing.T) {
	mt := &mockMidtrans{}
	st := &mockStripe{}
	g := NewGateway(logrus.New(), mt, st)
	ctx := context.Background()

	bank := newAuthorizeRequest(MethodBRI)
	mt.On("Charge", ctx, bank).Return(Authorization{Gateway: GatewayMidtrans, PaymentReference: "va"}, nil).Once()

	auth, err := g.Authorize(ctx, bank)
	require.NoError(t, err)
	assert.Equal(t, "va", auth.PaymentReference)

	card := newAuthorizeRequest(MethodCard)
	st.On("CreatePaymentIntent", ctx, card).Return(Authorization{Gateway: GatewayStripe, PaymentReference: "secret"}, nil).Once()

	auth, err = g.Authorize(ctx, card)
	require.NoError(t, err)
	assert.Equal(t, "secret", auth.PaymentReference)

	_, err = g.Authorize(ctx, newAuthorizeRequest("cash"))
	assert.True(t, errors.HasStatus(err, status.BAD_REQUEST))

	mt.AssertExpectations(t)
	st.AssertExpectations(t)
}

func TestGatewayOpensBreakerAfterRepeatedFailures(t *testing.T) {
	mt := &mockMidtrans{}
	g := NewGateway(logrus.New(), mt, &mockStripe{})
	ctx := context.Background()
	req := newAuthorizeRequest(MethodBCA)

	upstream := errors.New(http.StatusBadGateway, status.UPSTREAM_PAYMENT_ERROR, "midtrans down")
	mt.On("Charge", ctx, req).Return(Authorization{}, upstream).Times(5)

	for i := 0; i < 5; i++ {
		_, err := g.Authorize(ctx, req)
		assert.Equal(t, upstream, err)
	}

	_, err := g.Authorize(ctx, req)
	ae := errors.Destruct(err)
	assert.Equal(t, status.UPSTREAM_PAYMENT_ERROR, ae.Status)
	assert.Contains(t, ae.Message, "temporarily unavailable")

	mt.AssertExpectations(t)
}
