package payment

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"
	"github.com/stripe/stripe-go"
	"github.com/stripe/stripe-go/client"
	"github.com/stripe/stripe-go/webhook"
	"github.com/tazkarti/tz-booking/pkg/errors"
	"github.com/tazkarti/tz-booking/pkg/status"
)

const stripeBookingMetadataKey = "booking_id"

type StripeRepository interface {
	CreatePaymentIntent(ctx context.Context, req AuthorizeRequest) (Authorization, error)
	// ParseWebhook verifies the signature. Events that do not concern a booking return ok == false.
	ParseWebhook(payload []byte, signature string) (n Notification, ok bool, err error)
}

type stripeRepository struct {
	logger        *logrus.Logger
	api           *client.API
	webhookSecret string
}

// NewStripeRepository talks to baseURL when set, to the stripe API otherwise.
func NewStripeRepository(secretKey, webhookSecret, baseURL string, logger *logrus.Logger, hc *http.Client) StripeRepository {
	backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		HTTPClient: hc,
		URL:        baseURL,
	})

	return &stripeRepository{
		logger:        logger,
		api:           client.New(secretKey, &stripe.Backends{API: backend, Uploads: backend}),
		webhookSecret: webhookSecret,
	}
}

// CreatePaymentIntent implements StripeRepository.
func (r *stripeRepository) CreatePaymentIntent(ctx context.Context, req AuthorizeRequest) (Authorization, error) {
	params := &stripe.PaymentIntentParams{
		Amount:             stripe.Int64(req.AmountMinor),
		Currency:           stripe.String(req.Currency),
		Description:        stripe.String(req.Description),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
	}
	if req.Customer.Email != "" {
		params.ReceiptEmail = stripe.String(req.Customer.Email)
	}
	params.Context = ctx
	params.AddMetadata(stripeBookingMetadataKey, req.Reference)
	params.SetIdempotencyKey(req.Reference)

	pi, err := r.api.PaymentIntents.New(params)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return Authorization{}, upstreamError(GatewayStripe)
	}

	return Authorization{
		Gateway:          GatewayStripe,
		TransactionID:    pi.ID,
		PaymentReference: pi.ClientSecret,
		Status:           string(pi.Status),
	}, nil
}

func stripeOutcome(eventType string) string {
	switch eventType {
	case "payment_intent.succeeded":
		return OutcomeSettled
	case "payment_intent.processing":
		return OutcomePending
	case "payment_intent.payment_failed", "payment_intent.canceled":
		return OutcomeFailed
	}

	return ""
}

// ParseWebhook implements StripeRepository.
func (r *stripeRepository) ParseWebhook(payload []byte, signature string) (Notification, bool, error) {
	event, err := webhook.ConstructEvent(payload, signature, r.webhookSecret)
	if err != nil {
		return Notification{}, false, errors.New(http.StatusBadRequest, status.BAD_REQUEST, "invalid stripe signature")
	}

	outcome := stripeOutcome(string(event.Type))
	if outcome == "" || event.Data == nil {
		return Notification{}, false, nil
	}

	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		return Notification{}, false, errors.New(http.StatusBadRequest, status.BAD_REQUEST, "invalid stripe payment intent payload")
	}

	bookingID := pi.Metadata[stripeBookingMetadataKey]
	if bookingID == "" {
		return Notification{}, false, nil
	}

	return Notification{
		BookingID:     bookingID,
		TransactionID: pi.ID,
		Gateway:       GatewayStripe,
		Outcome:       outcome,
	}, true, nil
}
