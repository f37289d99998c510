package ticket

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/tazkarti/tz-booking/internal/pkg/middleware"
	"github.com/tazkarti/tz-booking/pkg/errors"
	publicMiddleware "github.com/tazkarti/tz-booking/pkg/middleware"
	"github.com/tazkarti/tz-booking/pkg/response"
	"github.com/tazkarti/tz-booking/pkg/status"
)

type HTTPHandler struct {
	Validate      *validator.Validate
	TicketUseCase TicketUseCase
}

func InitHTTPHandler(router *mux.Router, organizerSession *middleware.OrganizerSession, validate *validator.Validate, ticketUseCase TicketUseCase) {
	handler := &HTTPHandler{
		Validate:      validate,
		TicketUseCase: ticketUseCase,
	}

	router.HandleFunc("/api/booking/organizer/events/{eventId}/tickets", publicMiddleware.SetRouteChain(handler.CreateTicket, organizerSession.Verify)).Methods(http.MethodPost)
	router.HandleFunc("/api/booking/organizer/events/{eventId}/tickets", publicMiddleware.SetRouteChain(handler.GetManyTicket, organizerSession.Verify)).Methods(http.MethodGet)
	router.HandleFunc("/api/booking/organizer/tickets/{ticketId}", publicMiddleware.SetRouteChain(handler.RetireTicket, organizerSession.Verify)).Methods(http.MethodDelete)
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

func (handler HTTPHandler) CreateTicket(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req := CreateTicketRequest{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.JSON(w, http.StatusUnprocessableEntity, response.RESTEnvelope{
			Status:  status.UNPROCESSABLE_ENTITY,
			Message: err.Error(),
		})

		return
	}
	req.EventID = mux.Vars(r)["eventId"]

	if err := handler.validate(ctx, req); err != nil {
		response.JSON(w, http.StatusBadRequest, response.RESTEnvelope{
			Status:  status.BAD_REQUEST,
			Message: err.Error(),
		})

		return
	}

	resp, err := handler.TicketUseCase.CreateTicket(ctx, req)
	if err != nil {
		ae := errors.Destruct(err)
		response.JSON(w, ae.HTTPStatusCode, response.RESTEnvelope{
			Status:  ae.Status,
			Message: ae.Message,
		})

		return
	}
	response.JSON(w, http.StatusCreated, response.RESTEnvelope{
		Status:  status.CREATED,
		Message: "ticket type has been created",
		Data:    resp,
		Meta:    nil,
	})
}

func (handler HTTPHandler) GetManyTicket(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	resp, err := handler.TicketUseCase.GetManyTicket(ctx, mux.Vars(r)["eventId"])
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
		Message: "list of ticket types",
		Data:    resp,
		Meta:    nil,
	})
}

func (handler HTTPHandler) RetireTicket(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	resp, err := handler.TicketUseCase.RetireTicket(ctx, mux.Vars(r)["ticketId"])
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
		Message: "ticket type has been retired",
		Data:    resp,
		Meta:    nil,
	})
}
