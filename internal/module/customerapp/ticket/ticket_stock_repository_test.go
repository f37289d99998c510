package ticket

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tazkarti/tz-booking/pkg/errors"
)

var ticketStockRowColumns = []string{"id", "event_id", "tier", "price", "currency", "total", "available", "reserved", "sold", "status", "created_at", "updated_at"}

func TestTicketStockRepositoryFindByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewTicketStockRepository(logrus.New(), db)
	now := time.Now()

	mock.ExpectPrepare("FROM ticket_stock").
		ExpectQuery().
		WithArgs("ts-1").
		WillReturnRows(sqlmock.NewRows(ticketStockRowColumns).
			AddRow("ts-1", "evt-1", "VIP", 750.0, "EGP", int64(100), int64(90), int64(4), int64(6), StatusActive, now, now))

	ts, err := repo.FindByID(context.Background(), "ts-1", nil)
	require.NoError(t, err)
	assert.Equal(t, ts.Total, ts.Available+ts.Reserved+ts.Sold)
	assert.Equal(t, "VIP", ts.Tier)

	mock.ExpectPrepare("FROM ticket_stock").
		ExpectQuery().
		WithArgs("ts-2").
		WillReturnRows(sqlmock.NewRows(ticketStockRowColumns))

	_, err = repo.FindByID(context.Background(), "ts-2", nil)
	assert.Equal(t, http.StatusNotFound, errors.Destruct(err).HTTPStatusCode)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTicketStockRepositoryRetire(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewTicketStockRepository(logrus.New(), db)
	now := time.Now()

	mock.ExpectPrepare("UPDATE ticket_stock").
		ExpectExec().
		WithArgs(StatusRetired, now, "ts-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectPrepare("UPDATE ticket_stock").
		ExpectExec().
		WithArgs(StatusRetired, now, "ts-404").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.Retire(context.Background(), "ts-1", now, nil))

	err = repo.Retire(context.Background(), "ts-404", now, nil)
	assert.Equal(t, http.StatusNotFound, errors.Destruct(err).HTTPStatusCode)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTicketStockRepositoryFindManyByEventID(t *testing.T) {
	now := time.Now()

	t.Run("lists the tiers", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		repo := NewTicketStockRepository(logrus.New(), db)

		mock.ExpectPrepare("ORDER BY price ASC, tier ASC").
			ExpectQuery().
			WithArgs("evt-1").
			WillReturnRows(sqlmock.NewRows(ticketStockRowColumns).
				AddRow("ts-1", "evt-1", "GENERAL", 250.0, "EGP", int64(100), int64(100), int64(0), int64(0), StatusActive, now, now).
				AddRow("ts-2", "evt-1", "VIP", 750.0, "EGP", int64(10), int64(9), int64(1), int64(0), StatusActive, now, now))

		data, err := repo.FindManyByEventID(context.Background(), "evt-1", nil)
		require.NoError(t, err)
		require.Len(t, data, 2)
		assert.Equal(t, "VIP", data[1].Tier)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("interrupted iteration is an error", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		repo := NewTicketStockRepository(logrus.New(), db)

		mock.ExpectPrepare("ORDER BY price ASC, tier ASC").
			ExpectQuery().
			WithArgs("evt-1").
			WillReturnRows(sqlmock.NewRows(ticketStockRowColumns).
				AddRow("ts-1", "evt-1", "GENERAL", 250.0, "EGP", int64(100), int64(100), int64(0), int64(0), StatusActive, now, now).
				AddRow("ts-2", "evt-1", "VIP", 750.0, "EGP", int64(10), int64(9), int64(1), int64(0), StatusActive, now, now).
				RowError(1, fmt.Errorf("connection reset by peer")))

		data, err := repo.FindManyByEventID(context.Background(), "evt-1", nil)
		assert.Nil(t, data)
		assert.Equal(t, http.StatusInternalServerError, errors.Destruct(err).HTTPStatusCode)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
