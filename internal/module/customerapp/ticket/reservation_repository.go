package ticket

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tazkarti/tz-booking/pkg/errors"
	"github.com/tazkarti/tz-booking/pkg/postgresql"
	"github.com/tazkarti/tz-booking/pkg/status"
)

// ReservationRepository is the inventory ledger. Every change to the
// available/reserved/sold counters goes through Reserve, Commit or Release.
type ReservationRepository interface {
	// Reserve moves quantity from available to reserved and records the hold. It never partially succeeds.
	Reserve(ctx context.Context, rsv Reservation, tx *sql.Tx) (Reservation, error)
	// Commit moves a held quantity from reserved to sold. It reports false when the hold was already finalized.
	Commit(ctx context.Context, bookingID string, now time.Time, tx *sql.Tx) (bool, error)
	// Release moves a held quantity back to available. It reports false when the hold was already finalized.
	Release(ctx context.Context, bookingID string, now time.Time, tx *sql.Tx) (bool, error)
	FindByBookingID(ctx context.Context, bookingID string, tx *sql.Tx) (Reservation, error)
}

type reservationRepository struct {
	logger *logrus.Logger
	db     *sql.DB
}

func NewReservationRepository(logger *logrus.Logger, db *sql.DB) ReservationRepository {
	return &reservationRepository{
		logger: logger,
		db:     db,
	}
}

func InsufficientInventoryError(available int64) error {
	noun := "tickets"
	if available == 1 {
		noun = "ticket"
	}

	return errors.NewWithData(
		http.StatusBadRequest,
		status.INSUFFICIENT_INVENTORY,
		fmt.Sprintf("only %d %s available", available, noun),
		map[string]int64{"available": available},
	)
}

func conflictError() error {
	return errors.New(http.StatusConflict, status.CONFLICT, "the tickets are being booked by someone else, please try again")
}

// Reserve implements ReservationRepository.
func (r *reservationRepository) Reserve(ctx context.Context, rsv Reservation, tx *sql.Tx) (Reservation, error) {
	if rsv.Quantity <= 0 {
		return Reservation{}, errors.New(http.StatusBadRequest, status.BAD_REQUEST, "quantity must be at least 1")
	}

	ownTx := tx == nil
	if ownTx {
		var err error
		tx, err = r.db.BeginTx(ctx, nil)
		if err != nil {
			r.logger.WithContext(ctx).WithError(err).Error()
			return Reservation{}, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred trying to begin transaction")
		}
	}

	result, err := r.reserve(ctx, rsv, tx)
	if ownTx {
		if err != nil {
			tx.Rollback()
			return Reservation{}, err
		}
		if err := tx.Commit(); err != nil {
			r.logger.WithContext(ctx).WithError(err).Error()
			if postgresql.IsConflict(err) {
				return Reservation{}, conflictError()
			}
			return Reservation{}, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred trying to commit transaction")
		}
	}

	return result, err
}

func (r *reservationRepository) reserve(ctx context.Context, rsv Reservation, tx *sql.Tx) (Reservation, error) {
	query := `
		UPDATE ticket_stock
		SET
			available = available - $1,
			reserved = reserved + $1,
			updated_at = $2
		WHERE
			id = $3
			AND status = 'ACTIVE'
			AND available >= $1
		RETURNING available
	`

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return Reservation{}, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while reserving tickets")
	}
	defer stmt.Close()

	var remaining int64
	err = stmt.QueryRowContext(ctx, rsv.Quantity, rsv.CreatedAt, rsv.TicketStockID).Scan(&remaining)
	if err != nil {
		if err == sql.ErrNoRows {
			return Reservation{}, r.explainRefusal(ctx, rsv.TicketStockID, tx)
		}
		r.logger.WithContext(ctx).WithError(err).Error()
		if postgresql.IsConflict(err) {
			return Reservation{}, conflictError()
		}
		return Reservation{}, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while reserving tickets")
	}

	insert := `
		INSERT INTO ticket_reservation
		(
			booking_id, ticket_stock_id, quantity, status, created_at, updated_at
		)
		VALUES
		(
			$1, $2, $3, $4, $5, $6
		)
	`

	insertStmt, err := tx.PrepareContext(ctx, insert)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return Reservation{}, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while saving ticket reservation")
	}
	defer insertStmt.Close()

	rsv.Status = ReservationHeld
	rsv.UpdatedAt = rsv.CreatedAt

	_, err = insertStmt.ExecContext(ctx, rsv.BookingID, rsv.TicketStockID, rsv.Quantity, rsv.Status, rsv.CreatedAt, rsv.UpdatedAt)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		if postgresql.IsConflict(err) || postgresql.IsUniqueViolation(err) {
			return Reservation{}, conflictError()
		}
		return Reservation{}, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while saving ticket reservation")
	}

	return rsv, nil
}

// explainRefusal tells a missing or retired ticket apart from a sold out one.
func (r *reservationRepository) explainRefusal(ctx context.Context, ticketStockID string, tx *sql.Tx) error {
	query := `
		SELECT
			available, status
		FROM ticket_stock
		WHERE
			id = $1
	`

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while reserving tickets")
	}
	defer stmt.Close()

	var available int64
	var stockStatus string
	if err := stmt.QueryRowContext(ctx, ticketStockID).Scan(&available, &stockStatus); err != nil {
		if err == sql.ErrNoRows {
			return errors.New(http.StatusNotFound, status.NOT_FOUND, fmt.Sprintf("ticket stock's properties with id '%s' is not found", ticketStockID))
		}
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while reserving tickets")
	}

	if stockStatus != StatusActive {
		return errors.New(http.StatusNotFound, status.NOT_FOUND, fmt.Sprintf("ticket stock's properties with id '%s' is no longer on sale", ticketStockID))
	}

	return InsufficientInventoryError(available)
}

// finalize flips a HELD reservation and moves its quantity in a single statement.
func (r *reservationRepository) finalize(ctx context.Context, bookingID string, now time.Time, tx *sql.Tx, query, action string) (bool, error) {
	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	stmt, err := cmd.PrepareContext(ctx, query)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return false, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, fmt.Sprintf("an error occurred while %s ticket reservation", action))
	}
	defer stmt.Close()

	result, err := stmt.ExecContext(ctx, bookingID, now)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		if postgresql.IsConflict(err) {
			return false, conflictError()
		}
		return false, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, fmt.Sprintf("an error occurred while %s ticket reservation", action))
	}

	affected, err := result.RowsAffected()
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return false, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, fmt.Sprintf("an error occurred while %s ticket reservation", action))
	}

	return affected > 0, nil
}

// Commit implements ReservationRepository.
func (r *reservationRepository) Commit(ctx context.Context, bookingID string, now time.Time, tx *sql.Tx) (bool, error) {
	query := `
		WITH held AS (
			UPDATE ticket_reservation
			SET
				status = 'COMMITTED',
				updated_at = $2
			WHERE
				booking_id = $1
				AND status = 'HELD'
			RETURNING ticket_stock_id, quantity
		)
		UPDATE ticket_stock ts
		SET
			reserved = ts.reserved - held.quantity,
			sold = ts.sold + held.quantity,
			updated_at = $2
		FROM held
		WHERE
			ts.id = held.ticket_stock_id
	`

	return r.finalize(ctx, bookingID, now, tx, query, "committing")
}

// Release implements ReservationRepository.
func (r *reservationRepository) Release(ctx context.Context, bookingID string, now time.Time, tx *sql.Tx) (bool, error) {
	query := `
		WITH held AS (
			UPDATE ticket_reservation
			SET
				status = 'RELEASED',
				updated_at = $2
			WHERE
				booking_id = $1
				AND status = 'HELD'
			RETURNING ticket_stock_id, quantity
		)
		UPDATE ticket_stock ts
		SET
			reserved = ts.reserved - held.quantity,
			available = ts.available + held.quantity,
			updated_at = $2
		FROM held
		WHERE
			ts.id = held.ticket_stock_id
	`

	return r.finalize(ctx, bookingID, now, tx, query, "releasing")
}

// FindByBookingID implements ReservationRepository.
func (r *reservationRepository) FindByBookingID(ctx context.Context, bookingID string, tx *sql.Tx) (Reservation, error) {
	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	query := `
		SELECT
			booking_id, ticket_stock_id, quantity, status, created_at, updated_at
		FROM ticket_reservation
		WHERE
			booking_id = $1
	`

	stmt, err := cmd.PrepareContext(ctx, query)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return Reservation{}, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting ticket reservation's properties")
	}
	defer stmt.Close()

	var data Reservation
	err = stmt.QueryRowContext(ctx, bookingID).Scan(&data.BookingID, &data.TicketStockID, &data.Quantity, &data.Status, &data.CreatedAt, &data.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return Reservation{}, errors.New(http.StatusNotFound, status.NOT_FOUND, fmt.Sprintf("ticket reservation's properties with booking id '%s' is not found", bookingID))
		}
		r.logger.WithContext(ctx).WithError(err).Error()
		return Reservation{}, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting ticket reservation's properties")
	}

	return data, nil
}
