package ticket

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tazkarti/tz-booking/internal/pkg/testutil"
	"github.com/tazkarti/tz-booking/pkg/errors"
	"github.com/tazkarti/tz-booking/pkg/status"
)

func TestReserveNeverOversells(t *testing.T) {
	db := testutil.NewTestDB(t)
	testutil.InsertEvent(t, db, "evt-1", "org-1", "Amr Diab Live")
	testutil.InsertTicketStock(t, db, "ts-1", "evt-1", 5, 500)

	repo := NewReservationRepository(logrus.New(), db)
	ctx := context.Background()

	const attempts = 20
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		soldOut   int
	)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()

			_, err := repo.Reserve(ctx, Reservation{
				BookingID:     fmt.Sprintf("bk-%d", i),
				TicketStockID: "ts-1",
				Quantity:      1,
				CreatedAt:     time.Now().UTC(),
			}, nil)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.HasStatus(err, status.INSUFFICIENT_INVENTORY), errors.HasStatus(err, status.CONFLICT):
				soldOut++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 5, succeeded)
	assert.Equal(t, attempts-5, soldOut)

	stock, err := NewTicketStockRepository(logrus.New(), db).FindByID(ctx, "ts-1", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(0), stock.Available)
	assert.Equal(t, int64(5), stock.Reserved)
}

func TestCommitAndReleaseAgainstPostgres(t *testing.T) {
	db := testutil.NewTestDB(t)
	testutil.InsertEvent(t, db, "evt-1", "org-1", "Cairokee")
	testutil.InsertTicketStock(t, db, "ts-1", "evt-1", 5, 300)

	ctx := context.Background()
	repo := NewReservationRepository(logrus.New(), db)
	stocks := NewTicketStockRepository(logrus.New(), db)
	now := time.Now().UTC()

	_, err := repo.Reserve(ctx, Reservation{BookingID: "bk-a", TicketStockID: "ts-1", Quantity: 2, CreatedAt: now}, nil)
	require.NoError(t, err)
	_, err = repo.Reserve(ctx, Reservation{BookingID: "bk-b", TicketStockID: "ts-1", Quantity: 2, CreatedAt: now}, nil)
	require.NoError(t, err)

	applied, err := repo.Commit(ctx, "bk-a", now, nil)
	require.NoError(t, err)
	assert.True(t, applied)

	applied, err = repo.Release(ctx, "bk-a", now, nil)
	require.NoError(t, err)
	assert.False(t, applied)

	applied, err = repo.Release(ctx, "bk-b", now, nil)
	require.NoError(t, err)
	assert.True(t, applied)

	applied, err = repo.Release(ctx, "bk-b", now, nil)
	require.NoError(t, err)
	assert.False(t, applied)

	stock, err := stocks.FindByID(ctx, "ts-1", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stock.Available)
	assert.Equal(t, int64(0), stock.Reserved)
	assert.Equal(t, int64(2), stock.Sold)

	_, err = repo.Reserve(ctx, Reservation{BookingID: "bk-c", TicketStockID: "ts-1", Quantity: 4, CreatedAt: now}, nil)
	ae := errors.Destruct(err)
	assert.Equal(t, status.INSUFFICIENT_INVENTORY, ae.Status)
	assert.Equal(t, map[string]int64{"available": 3}, ae.Data)
}
