package booking

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tazkarti/tz-booking/pkg/errors"
	"github.com/tazkarti/tz-booking/pkg/status"
)

func TestValidateTransition(t *testing.T) {
	cases := []struct {
		from, to Status
		effect   LedgerEffect
		ok       bool
	}{
		{StatusPending, StatusConfirmed, LedgerCommit, true},
		{StatusPending, StatusCancelled, LedgerRelease, true},
		{StatusPending, StatusExpired, LedgerRelease, true},
		{StatusPending, StatusPending, LedgerNone, false},
		{StatusConfirmed, StatusCancelled, LedgerNone, false},
		{StatusCancelled, StatusConfirmed, LedgerNone, false},
		{StatusExpired, StatusConfirmed, LedgerNone, false},
		{StatusExpired, StatusExpired, LedgerNone, false},
	}

	for _, c := range cases {
		t.Run(string(c.from)+"->"+string(c.to), func(t *testing.T) {
			effect, err := ValidateTransition(c.from, c.to)
			assert.Equal(t, c.effect, effect)
			if c.ok {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.HasStatus(err, status.INVALID_STATE_TRANSITION))
		})
	}
}

func TestStatusIsTerminal(t *testing.T) {
	assert.False(t, StatusPending.IsTerminal())
	assert.True(t, StatusConfirmed.IsTerminal())
	assert.True(t, StatusCancelled.IsTerminal())
	assert.True(t, StatusExpired.IsTerminal())
}

func TestBookingApply(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("confirm completes the payment", func(t *testing.T) {
		b := Booking{Status: StatusPending, PaymentStatus: PaymentProcessing}
		effect, err := b.Apply(StatusConfirmed, now)
		require.NoError(t, err)
		assert.Equal(t, LedgerCommit, effect)
		assert.Equal(t, PaymentCompleted, b.PaymentStatus)
		assert.Equal(t, now, b.UpdatedAt)
	})

	t.Run("cancel fails an open payment", func(t *testing.T) {
		b := Booking{Status: StatusPending, PaymentStatus: PaymentPending}
		_, err := b.Apply(StatusCancelled, now)
		require.NoError(t, err)
		assert.Equal(t, StatusCancelled, b.Status)
		assert.Equal(t, PaymentFailed, b.PaymentStatus)
	})

	t.Run("expire marks the payment expired", func(t *testing.T) {
		b := Booking{Status: StatusPending, PaymentStatus: PaymentFailed}
		_, err := b.Apply(StatusExpired, now)
		require.NoError(t, err)
		assert.Equal(t, PaymentExpired, b.PaymentStatus)
	})

	t.Run("terminal booking is left untouched", func(t *testing.T) {
		b := Booking{Status: StatusConfirmed, PaymentStatus: PaymentCompleted}
		_, err := b.Apply(StatusCancelled, now)
		require.Error(t, err)
		assert.Equal(t, StatusConfirmed, b.Status)
		assert.Equal(t, PaymentCompleted, b.PaymentStatus)
		assert.True(t, b.UpdatedAt.IsZero())
	})
}

func TestBookingIsDue(t *testing.T) {
	expiresAt := time.Date(2026, 3, 1, 12, 15, 0, 0, time.UTC)
	b := Booking{Status: StatusPending, ExpiresAt: expiresAt}

	assert.False(t, b.IsDue(expiresAt.Add(-time.Second)))
	assert.True(t, b.IsDue(expiresAt))

	b.Status = StatusConfirmed
	assert.False(t, b.IsDue(expiresAt.Add(time.Hour)))
}

func TestListFilterOrderClause(t *testing.T) {
	assert.Equal(t, "created_at DESC, id DESC", ListFilter{}.OrderClause())
	assert.Equal(t, "total_price ASC, id ASC", ListFilter{SortBy: SortByTotalPrice, SortOrder: SortAsc}.OrderClause())
	assert.Equal(t, "created_at DESC, id DESC", ListFilter{SortBy: "id; DROP TABLE booking"}.OrderClause())
}

func TestListFilterOffset(t *testing.T) {
	assert.Equal(t, int64(0), ListFilter{Page: 0, Limit: 10}.Offset())
	assert.Equal(t, int64(0), ListFilter{Page: 1, Limit: 10}.Offset())
	assert.Equal(t, int64(20), ListFilter{Page: 3, Limit: 10}.Offset())
}

func TestQRCodeDataURI(t *testing.T) {
	b := Booking{ID: "bk-1", Code: "BOOK-ABCDEF12", Status: StatusPending}

	_, ok, err := QRCodeDataURI(b)
	require.NoError(t, err)
	assert.False(t, ok)

	b.Status = StatusConfirmed
	uri, ok, err := QRCodeDataURI(b)
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, strings.HasPrefix(uri, "data:image/png;base64,"))

	png, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(uri, "data:image/png;base64,"))
	require.NoError(t, err)
	assert.Equal(t, "\x89PNG", string(png[:4]))
	assert.Equal(t, "TAZKARTI|BOOK-ABCDEF12|bk-1", QRCodePayload(b))
}
