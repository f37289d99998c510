package booking

import (
	"context"
	"database/sql"
	"net/http"

	"github.com/sirupsen/logrus"
	"github.com/tazkarti/tz-booking/pkg/errors"
	"github.com/tazkarti/tz-booking/pkg/status"
)

type HistoryRepository interface {
	Save(ctx context.Context, h History, tx *sql.Tx) error
	FindManyByBookingID(ctx context.Context, bookingID string, tx *sql.Tx) ([]History, error)
}

type historyRepository struct {
	logger *logrus.Logger
	db     *sql.DB
}

func NewHistoryRepository(logger *logrus.Logger, db *sql.DB) HistoryRepository {
	return &historyRepository{
		logger: logger,
		db:     db,
	}
}

// Save implements HistoryRepository.
func (r *historyRepository) Save(ctx context.Context, h History, tx *sql.Tx) error {
	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	query := `
		INSERT INTO booking_status_history
		(
			booking_id, from_status, to_status, payment_status, actor, reason, created_at
		)
		VALUES
		(
			$1, $2, $3, $4, $5, $6, $7
		)
	`

	stmt, err := cmd.PrepareContext(ctx, query)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while saving booking status history")
	}
	defer stmt.Close()

	var from sql.NullString
	if h.FromStatus != nil {
		from = sql.NullString{Valid: true, String: string(*h.FromStatus)}
	}

	_, err = stmt.ExecContext(ctx, h.BookingID, from, h.ToStatus, h.PaymentStatus, h.Actor, h.Reason, h.CreatedAt)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while saving booking status history")
	}

	return nil
}

// FindManyByBookingID implements HistoryRepository.
func (r *historyRepository) FindManyByBookingID(ctx context.Context, bookingID string, tx *sql.Tx) ([]History, error) {
	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	query := `
		SELECT
			id, booking_id, from_status, to_status, payment_status, actor, reason, created_at
		FROM booking_status_history
		WHERE
			booking_id = $1
		ORDER BY id ASC
	`

	stmt, err := cmd.PrepareContext(ctx, query)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return nil, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting booking status history")
	}
	defer stmt.Close()

	rows, err := stmt.QueryContext(ctx, bookingID)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return nil, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting booking status history")
	}
	defer rows.Close()

	var data = make([]History, 0)
	for rows.Next() {
		var h History
		var from sql.NullString
		if err := rows.Scan(&h.ID, &h.BookingID, &from, &h.ToStatus, &h.PaymentStatus, &h.Actor, &h.Reason, &h.CreatedAt); err != nil {
			r.logger.WithContext(ctx).WithError(err).Error()
			return nil, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting booking status history")
		}
		if from.Valid {
			s := Status(from.String)
			h.FromStatus = &s
		}
		data = append(data, h)
	}

	if err := rows.Err(); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return nil, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting booking status history")
	}

	return data, nil
}
