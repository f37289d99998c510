package payment

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"github.com/tazkarti/tz-booking/pkg/errors"
	"github.com/tazkarti/tz-booking/pkg/status"
)

// Gateway authorizes the payment of a booking with the processor matching its method.
type Gateway interface {
	Authorize(ctx context.Context, req AuthorizeRequest) (Authorization, error)
}

type gateway struct {
	logger   *logrus.Logger
	midtrans MidtransRepository
	stripe   StripeRepository
	breakers map[string]*gobreaker.CircuitBreaker
}

func newBreaker(logger *logrus.Logger, name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"object":  "payment-gateway",
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("circuit breaker state changed")
		},
	})
}

func NewGateway(logger *logrus.Logger, midtrans MidtransRepository, stripe StripeRepository) Gateway {
	return &gateway{
		logger:   logger,
		midtrans: midtrans,
		stripe:   stripe,
		breakers: map[string]*gobreaker.CircuitBreaker{
			GatewayMidtrans: newBreaker(logger, GatewayMidtrans),
			GatewayStripe:   newBreaker(logger, GatewayStripe),
		},
	}
}

// Authorize implements Gateway.
func (g *gateway) Authorize(ctx context.Context, req AuthorizeRequest) (Authorization, error) {
	var name string
	var call func() (Authorization, error)

	switch {
	case IsBankTransfer(req.Method):
		name = GatewayMidtrans
		call = func() (Authorization, error) { return g.midtrans.Charge(ctx, req) }
	case req.Method == MethodCard:
		name = GatewayStripe
		call = func() (Authorization, error) { return g.stripe.CreatePaymentIntent(ctx, req) }
	default:
		return Authorization{}, errors.New(http.StatusBadRequest, status.BAD_REQUEST, fmt.Sprintf("unsupported payment method '%s'", req.Method))
	}

	result, err := g.breakers[name].Execute(func() (interface{}, error) {
		return call()
	})
	if err != nil {
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			g.logger.WithContext(ctx).WithField("gateway", name).Warn(err)
			return Authorization{}, errors.New(http.StatusBadGateway, status.UPSTREAM_PAYMENT_ERROR, fmt.Sprintf("%s is temporarily unavailable", name))
		}
		return Authorization{}, err
	}

	return result.(Authorization), nil
}
