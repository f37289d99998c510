package ticket

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tazkarti/tz-booking/internal/module/customerapp/event"
	"github.com/tazkarti/tz-booking/internal/module/customerapp/ticket"
	"github.com/tazkarti/tz-booking/internal/pkg/jwt"
	"github.com/tazkarti/tz-booking/internal/pkg/middleware"
	"github.com/tazkarti/tz-booking/internal/pkg/session"
	"github.com/tazkarti/tz-booking/pkg/errors"
	"github.com/tazkarti/tz-booking/pkg/status"
	"github.com/tazkarti/tz-booking/pkg/validator"
)

type stubTokens map[string]jwt.Claims

func (s stubTokens) Parse(tokenString string) (jwt.Claims, error) {
	c, ok := s[tokenString]
	if !ok {
		return jwt.Claims{}, fmt.Errorf("bad token")
	}
	return c, nil
}

type stubSessions map[string]session.Account

func (s stubSessions) Get(ctx context.Context, sessionID string) (session.Account, error) {
	acc, ok := s[sessionID]
	if !ok {
		return session.Account{}, errors.New(http.StatusUnauthorized, status.UNAUTHORIZED, "session is expired or does not exist")
	}
	return acc, nil
}

func newTestRouter(uc TicketUseCase) *mux.Router {
	organizerSession := middleware.NewOrganizerSessionMiddleware(
		stubTokens{"token-org": {SessionID: "s-org"}},
		stubSessions{"s-org": {ID: "org-1", Role: session.RoleOrganizer}},
	)

	router := mux.NewRouter()
	InitHTTPHandler(router, organizerSession, validator.Get(), uc)
	return router
}

func serve(router http.Handler, method, target, token, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	env := map[string]interface{}{}
	json.Unmarshal(rec.Body.Bytes(), &env)
	return rec, env
}

func TestHTTPCreateTicket(t *testing.T) {
	uc, events, stocks := newTestUseCase()
	router := newTestRouter(uc)

	events.On("FindByID", mock.Anything, "ev-1").Return(event.Event{ID: "ev-1", OrganizerID: "org-1"}, nil)
	stocks.On("Save", mock.Anything, mock.AnythingOfType("ticket.TicketStock")).Return(nil)

	t.Run("created", func(t *testing.T) {
		rec, env := serve(router, http.MethodPost, "/api/booking/organizer/events/ev-1/tickets", "token-org", `{"tier":"GENERAL","price":250,"total":40}`)
		require.Equal(t, http.StatusCreated, rec.Code)
		data := env["data"].(map[string]interface{})
		assert.Equal(t, float64(40), data["available"])
		assert.Equal(t, "EGP", data["currency"])
	})

	t.Run("total is required", func(t *testing.T) {
		rec, env := serve(router, http.MethodPost, "/api/booking/organizer/events/ev-1/tickets", "token-org", `{"tier":"GENERAL","price":250}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, env["message"], "invalid 'total'")
	})

	t.Run("negative price", func(t *testing.T) {
		rec, _ := serve(router, http.MethodPost, "/api/booking/organizer/events/ev-1/tickets", "token-org", `{"tier":"GENERAL","price":-1,"total":5}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("missing token", func(t *testing.T) {
		rec, _ := serve(router, http.MethodPost, "/api/booking/organizer/events/ev-1/tickets", "", `{}`)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestHTTPRetireTicket(t *testing.T) {
	uc, events, stocks := newTestUseCase()
	router := newTestRouter(uc)

	stocks.On("FindByID", mock.Anything, "ts-9").Return(ticket.TicketStock{}, errors.New(http.StatusNotFound, status.NOT_FOUND, "ticket stock's properties with id 'ts-9' is not found"))
	stocks.On("FindByID", mock.Anything, "ts-1").Return(ticket.TicketStock{ID: "ts-1", EventID: "ev-1", Status: ticket.StatusActive}, nil)
	events.On("FindByID", mock.Anything, "ev-1").Return(event.Event{ID: "ev-1", OrganizerID: "org-1"}, nil)
	stocks.On("Retire", mock.Anything, "ts-1", testNow).Return(nil)

	rec, env := serve(router, http.MethodDelete, "/api/booking/organizer/tickets/ts-1", "token-org", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, ticket.StatusRetired, env["data"].(map[string]interface{})["status"])

	rec, env = serve(router, http.MethodDelete, "/api/booking/organizer/tickets/ts-9", "token-org", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, status.NOT_FOUND, env["status"])
}
