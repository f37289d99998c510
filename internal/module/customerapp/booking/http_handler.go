package booking

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/tazkarti/tz-booking/internal/module/customerapp/payment"
	"github.com/tazkarti/tz-booking/internal/pkg/middleware"
	"github.com/tazkarti/tz-booking/pkg/errors"
	publicMiddleware "github.com/tazkarti/tz-booking/pkg/middleware"
	"github.com/tazkarti/tz-booking/pkg/response"
	"github.com/tazkarti/tz-booking/pkg/status"
)

const maxWebhookBody = 64 << 10

type HTTPHandler struct {
	Validate       *validator.Validate
	BookingUseCase BookingUseCase
}

func InitHTTPHandler(router *mux.Router, customerSession *middleware.CustomerSession, validate *validator.Validate, bookingUseCase BookingUseCase) {
	handler := &HTTPHandler{
		Validate:       validate,
		BookingUseCase: bookingUseCase,
	}

	router.HandleFunc("/api/booking/create-secure-booking", publicMiddleware.SetRouteChain(handler.CreateSecureBooking, customerSession.Verify)).Methods(http.MethodPost)
	router.HandleFunc("/api/booking/cancel-pending/{bookingId}", publicMiddleware.SetRouteChain(handler.CancelPendingBooking, customerSession.Verify)).Methods(http.MethodDelete)
	router.HandleFunc("/api/booking/status/{bookingId}", publicMiddleware.SetRouteChain(handler.GetBookingStatus, customerSession.Verify)).Methods(http.MethodGet)
	router.HandleFunc("/api/booking/my-bookings", publicMiddleware.SetRouteChain(handler.GetManyBooking, customerSession.Verify)).Methods(http.MethodGet)
	router.HandleFunc("/api/booking/on-expire", publicMiddleware.SetRouteChain(handler.OnExpireBooking)).Methods(http.MethodPost)
	router.HandleFunc("/api/booking/payment/midtrans-notification", publicMiddleware.SetRouteChain(handler.OnMidtransNotification)).Methods(http.MethodPost)
	router.HandleFunc("/api/booking/payment/stripe-webhook", publicMiddleware.SetRouteChain(handler.OnStripeWebhook)).Methods(http.MethodPost)
}

func (handler HTTPHandler) validate(ctx context.Context, payload interface{}) error {
	err := handler.Validate.StructCtx(ctx, payload)
	if err == nil {
		return nil
	}

	errorFields := err.(validator.ValidationErrors)

	errMessages := make([]string, len(errorFields))

	for k, errorField := range errorFields {
		errMessages[k] = fmt.Sprintf("invalid '%s' with value '%v'", errorField.Field(), errorField.Value())
	}

	errorMessage := strings.Join(errMessages, ", ")

	return fmt.Errorf(errorMessage)

}

func writeError(w http.ResponseWriter, err error) {
	ae := errors.Destruct(err)
	response.JSON(w, ae.HTTPStatusCode, response.RESTEnvelope{
		Status:  ae.Status,
		Message: ae.Message,
		Data:    ae.Data,
	})
}

func (handler HTTPHandler) CreateSecureBooking(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req := CreateSecureBookingRequest{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.JSON(w, http.StatusUnprocessableEntity, response.RESTEnvelope{
			Status:  status.UNPROCESSABLE_ENTITY,
			Message: err.Error(),
		})

		return
	}

	if err := handler.validate(ctx, req); err != nil {
		response.JSON(w, http.StatusBadRequest, response.RESTEnvelope{
			Status:  status.BAD_REQUEST,
			Message: err.Error(),
		})

		return
	}

	resp, err := handler.BookingUseCase.CreateSecureBooking(ctx, req)
	if err != nil {
		writeError(w, err)

		return
	}
	response.JSON(w, http.StatusCreated, response.RESTEnvelope{
		Status:  status.CREATED,
		Message: "booking has been created, please complete the payment before it expires",
		Data:    resp,
		Meta:    nil,
	})

}

func (handler HTTPHandler) CancelPendingBooking(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	bookingID := mux.Vars(r)["bookingId"]

	resp, err := handler.BookingUseCase.CancelPendingBooking(ctx, bookingID)
	if err != nil {
		writeError(w, err)

		return
	}
	response.JSON(w, http.StatusOK, response.RESTEnvelope{
		Status:  status.OK,
		Message: "booking has been cancelled",
		Data:    resp,
		Meta:    nil,
	})

}

func (handler HTTPHandler) GetBookingStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	bookingID := mux.Vars(r)["bookingId"]

	resp, err := handler.BookingUseCase.GetBookingStatus(ctx, bookingID)
	if err != nil {
		writeError(w, err)

		return
	}
	response.JSON(w, http.StatusOK, response.RESTEnvelope{
		Status:  status.OK,
		Message: "booking status",
		Data:    resp,
		Meta:    nil,
	})

}

func parseInt(qs string, fallback int64) int64 {
	if qs == "" {
		return fallback
	}

	v, err := strconv.ParseInt(qs, 10, 64)
	if err != nil {
		// Let the validator reject it.
		return 0
	}

	return v
}

func (handler HTTPHandler) GetManyBooking(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	qs := r.URL.Query()

	req := GetManyBookingRequest{
		Page:          parseInt(qs.Get("page"), DefaultPage),
		Limit:         parseInt(qs.Get("limit"), DefaultLimit),
		Status:        qs.Get("status"),
		PaymentStatus: qs.Get("paymentStatus"),
		SortBy:        qs.Get("sortBy"),
		SortOrder:     qs.Get("sortOrder"),
	}

	if err := handler.validate(ctx, req); err != nil {
		response.JSON(w, http.StatusBadRequest, response.RESTEnvelope{
			Status:  status.BAD_REQUEST,
			Message: err.Error(),
		})

		return
	}

	resp, err := handler.BookingUseCase.GetManyBooking(ctx, req)
	if err != nil {
		writeError(w, err)

		return
	}
	response.JSON(w, http.StatusOK, response.RESTEnvelope{
		Status:  status.OK,
		Message: "list of bookings",
		Data:    resp.Bookings,
		Meta:    resp.Pagination,
	})

}

func (handler HTTPHandler) OnExpireBooking(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	e := ExpireBookingEvent{}
	if err := json.NewDecoder(r.Body).Decode(&e); err != nil {
		response.JSON(w, http.StatusUnprocessableEntity, response.RESTEnvelope{
			Status:  status.UNPROCESSABLE_ENTITY,
			Message: err.Error(),
		})

		return
	}

	err := handler.BookingUseCase.OnExpireBooking(ctx, e)
	if err != nil {
		writeError(w, err)

		return
	}
	response.JSON(w, http.StatusOK, response.RESTEnvelope{
		Status:  status.OK,
		Message: "booking expiry has been processed",
		Data:    nil,
		Meta:    nil,
	})

}

func (handler HTTPHandler) OnMidtransNotification(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	n := payment.MidtransNotification{}
	if err := json.NewDecoder(r.Body).Decode(&n); err != nil {
		response.JSON(w, http.StatusUnprocessableEntity, response.RESTEnvelope{
			Status:  status.UNPROCESSABLE_ENTITY,
			Message: err.Error(),
		})

		return
	}

	err := handler.BookingUseCase.OnMidtransNotification(ctx, n)
	if err != nil {
		writeError(w, err)

		return
	}
	response.JSON(w, http.StatusOK, response.RESTEnvelope{
		Status:  status.OK,
		Message: "booking has been updated by payment notification",
		Data:    nil,
		Meta:    nil,
	})

}

func (handler HTTPHandler) OnStripeWebhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		response.JSON(w, http.StatusUnprocessableEntity, response.RESTEnvelope{
			Status:  status.UNPROCESSABLE_ENTITY,
			Message: err.Error(),
		})

		return
	}

	err = handler.BookingUseCase.OnStripeWebhook(ctx, payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		writeError(w, err)

		return
	}
	response.JSON(w, http.StatusOK, response.RESTEnvelope{
		Status:  status.OK,
		Message: "booking has been updated by payment notification",
		Data:    nil,
		Meta:    nil,
	})

}
