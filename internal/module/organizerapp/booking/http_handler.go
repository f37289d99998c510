package booking

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	customerBooking "github.com/tazkarti/tz-booking/internal/module/customerapp/booking"
	"github.com/tazkarti/tz-booking/internal/pkg/middleware"
	"github.com/tazkarti/tz-booking/pkg/errors"
	publicMiddleware "github.com/tazkarti/tz-booking/pkg/middleware"
	"github.com/tazkarti/tz-booking/pkg/response"
	"github.com/tazkarti/tz-booking/pkg/status"
)

type HTTPHandler struct {
	Validate       *validator.Validate
	BookingUseCase BookingUseCase
}

func InitHTTPHandler(router *mux.Router, organizerSession *middleware.OrganizerSession, validate *validator.Validate, bookingUseCase BookingUseCase) {
	handler := &HTTPHandler{
		Validate:       validate,
		BookingUseCase: bookingUseCase,
	}

	router.HandleFunc("/api/booking/organizer/bookings", publicMiddleware.SetRouteChain(handler.GetManyBooking, organizerSession.Verify)).Methods(http.MethodGet)
	router.HandleFunc("/api/booking/organizer/bookings/stats", publicMiddleware.SetRouteChain(handler.GetStats, organizerSession.Verify)).Methods(http.MethodGet)
	router.HandleFunc("/api/booking/organizer/bookings/{bookingId}/status", publicMiddleware.SetRouteChain(handler.UpdateStatus, organizerSession.Verify)).Methods(http.MethodPut)
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

func parseInt(qs string, fallback int64) int64 {
	if qs == "" {
		return fallback
	}

	v, err := strconv.ParseInt(qs, 10, 64)
	if err != nil {
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
		EventID:       qs.Get("eventId"),
		Status:        qs.Get("status"),
		PaymentStatus: qs.Get("paymentStatus"),
		Search:        strings.TrimSpace(qs.Get("search")),
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
		ae := errors.Destruct(err)
		response.JSON(w, ae.HTTPStatusCode, response.RESTEnvelope{
			Status:  ae.Status,
			Message: ae.Message,
		})

		return
	}
	response.JSON(w, http.StatusOK, response.RESTEnvelope{
		Status:  status.OK,
		Message: "list of bookings",
		Data:    resp.Bookings,
		Meta:    resp.Pagination,
	})

}

func (handler HTTPHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req := GetStatsRequest{
		EventID: r.URL.Query().Get("eventId"),
	}

	if err := handler.validate(ctx, req); err != nil {
		response.JSON(w, http.StatusBadRequest, response.RESTEnvelope{
			Status:  status.BAD_REQUEST,
			Message: err.Error(),
		})

		return
	}

	resp, err := handler.BookingUseCase.GetStats(ctx, req)
	if err != nil {
		ae := errors.Destruct(err)
		response.JSON(w, ae.HTTPStatusCode, response.RESTEnvelope{
			Status:  ae.Status,
			Message: ae.Message,
		})

		return
	}
	response.JSON(w, http.StatusOK, response.RESTEnvelope{
		Status:  status.OK,
		Message: "booking statistics",
		Data:    resp,
		Meta:    nil,
	})

}

func (handler HTTPHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req := customerBooking.UpdateStatusRequest{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.JSON(w, http.StatusUnprocessableEntity, response.RESTEnvelope{
			Status:  status.UNPROCESSABLE_ENTITY,
			Message: err.Error(),
		})

		return
	}
	req.BookingID = mux.Vars(r)["bookingId"]

	if err := handler.validate(ctx, req); err != nil {
		response.JSON(w, http.StatusBadRequest, response.RESTEnvelope{
			Status:  status.BAD_REQUEST,
			Message: err.Error(),
		})

		return
	}

	resp, err := handler.BookingUseCase.UpdateStatus(ctx, req)
	if err != nil {
		ae := errors.Destruct(err)
		response.JSON(w, ae.HTTPStatusCode, response.RESTEnvelope{
			Status:  ae.Status,
			Message: ae.Message,
		})

		return
	}
	response.JSON(w, http.StatusOK, response.RESTEnvelope{
		Status:  status.OK,
		Message: "booking status has been updated",
		Data:    resp,
		Meta:    nil,
	})

}
