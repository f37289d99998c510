package session

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tazkarti/tz-booking/pkg/errors"
)

func TestAccountContext(t *testing.T) {
	_, err := GetAccountFromCtx(context.Background())
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, errors.Destruct(err).HTTPStatusCode)

	ctx := ContextWithAccount(context.Background(), Account{ID: "u-1", Role: RoleOrganizer})
	acc, err := GetAccountFromCtx(ctx)
	require.NoError(t, err)
	assert.Equal(t, "u-1", acc.ID)
	assert.True(t, acc.IsOrganizer())
	assert.False(t, acc.IsAdmin())
	assert.False(t, Account{Role: RoleCustomer}.IsOrganizer())
}
