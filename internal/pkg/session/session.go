package session

import (
	"context"
	"net/http"

	"github.com/tazkarti/tz-booking/pkg/errors"
	"github.com/tazkarti/tz-booking/pkg/status"
)

const (
	RoleCustomer  = "customer"
	RoleOrganizer = "organizer"
	RoleAdmin     = "admin"
)

type Account struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
	Role  string `json:"role"`
}

func (a Account) IsOrganizer() bool {
	return a.Role == RoleOrganizer || a.Role == RoleAdmin
}

func (a Account) IsAdmin() bool {
	return a.Role == RoleAdmin
}

type accountKey struct{}

func ContextWithAccount(ctx context.Context, acc Account) context.Context {
	return context.WithValue(ctx, accountKey{}, acc)
}

func GetAccountFromCtx(ctx context.Context) (Account, error) {
	acc, ok := ctx.Value(accountKey{}).(Account)
	if !ok {
		return Account{}, errors.New(http.StatusUnauthorized, status.UNAUTHORIZED, "unauthorized")
	}

	return acc, nil
}
