package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/tazkarti/tz-booking/internal/pkg/jwt"
	"github.com/tazkarti/tz-booking/internal/pkg/session"
	"github.com/tazkarti/tz-booking/pkg/errors"
	"github.com/tazkarti/tz-booking/pkg/response"
	"github.com/tazkarti/tz-booking/pkg/status"
)

type TokenParser interface {
	Parse(tokenString string) (jwt.Claims, error)
}

// CustomerSession authenticates a bearer token against the session store.
type CustomerSession struct {
	tokens   TokenParser
	sessions session.SessionStore
}

func NewCustomerSessionMiddleware(tokens TokenParser, sessions session.SessionStore) *CustomerSession {
	return &CustomerSession{
		tokens:   tokens,
		sessions: sessions,
	}
}

func unauthorized(w http.ResponseWriter, message string) {
	response.JSON(w, http.StatusUnauthorized, response.RESTEnvelope{
		Status:  status.UNAUTHORIZED,
		Message: message,
	})
}

func (cs *CustomerSession) authenticate(ctx context.Context, r *http.Request) (session.Account, error) {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return session.Account{}, errors.New(http.StatusUnauthorized, status.UNAUTHORIZED, "missing bearer token")
	}

	claims, err := cs.tokens.Parse(strings.TrimPrefix(header, "Bearer "))
	if err != nil {
		return session.Account{}, errors.New(http.StatusUnauthorized, status.UNAUTHORIZED, "invalid bearer token")
	}

	acc, err := cs.sessions.Get(ctx, claims.SessionID)
	if err != nil {
		return session.Account{}, err
	}

	if acc.ID == "" {
		acc.ID = claims.Subject
	}

	return acc, nil
}

func (cs *CustomerSession) Verify(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		acc, err := cs.authenticate(ctx, r)
		if err != nil {
			ae := errors.Destruct(err)
			if ae.HTTPStatusCode == http.StatusUnauthorized {
				unauthorized(w, ae.Message)
				return
			}
			response.JSON(w, ae.HTTPStatusCode, response.RESTEnvelope{
				Status:  ae.Status,
				Message: ae.Message,
			})
			return
		}

		next(w, r.WithContext(session.ContextWithAccount(ctx, acc)))
	}
}

// OrganizerSession additionally requires the organizer or admin role.
type OrganizerSession struct {
	*CustomerSession
}

func NewOrganizerSessionMiddleware(tokens TokenParser, sessions session.SessionStore) *OrganizerSession {
	return &OrganizerSession{CustomerSession: NewCustomerSessionMiddleware(tokens, sessions)}
}

func (o *OrganizerSession) Verify(next http.HandlerFunc) http.HandlerFunc {
	return o.CustomerSession.Verify(func(w http.ResponseWriter, r *http.Request) {
		acc, _ := session.GetAccountFromCtx(r.Context())
		if !acc.IsOrganizer() {
			response.JSON(w, http.StatusForbidden, response.RESTEnvelope{
				Status:  status.FORBIDDEN,
				Message: "organizer role is required",
			})
			return
		}

		next(w, r)
	})
}
