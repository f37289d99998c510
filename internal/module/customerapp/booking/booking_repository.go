package booking

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

type BookingRepository interface {
	BeginTx(ctx context.Context) (*sql.Tx, error)
	CommitTx(ctx context.Context, tx *sql.Tx) error
	Rollback(ctx context.Context, tx *sql.Tx) error

	Save(ctx context.Context, b Booking, tx *sql.Tx) error
	FindByID(ctx context.Context, ID string, tx *sql.Tx) (Booking, error)
	// FindByIDForUpdate locks the booking row until tx ends.
	FindByIDForUpdate(ctx context.Context, ID string, tx *sql.Tx) (Booking, error)
	Update(ctx context.Context, b Booking, tx *sql.Tx) error
	FindManyByCustomerID(ctx context.Context, customerID string, filter ListFilter, tx *sql.Tx) ([]Booking, error)
	CountByCustomerID(ctx context.Context, customerID string, filter ListFilter, tx *sql.Tx) (int64, error)
	// FindManyDueIDs lists pending bookings whose hold ran out, oldest first.
	FindManyDueIDs(ctx context.Context, now time.Time, limit int64, tx *sql.Tx) ([]string, error)
}

type sqlCommand interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
}

type bookingRepository struct {
	logger *logrus.Logger
	db     *sql.DB
}

func NewBookingRepository(logger *logrus.Logger, db *sql.DB) BookingRepository {
	return &bookingRepository{
		logger: logger,
		db:     db,
	}
}

// Columns shared by every booking projection.
const bookingColumns = `
	id, code, ticket_stock_id, event_id, event_name, tier, customer_id, quantity, unit_price, total_price,
	currency, status, payment_status, payment_method, payment_reference, transaction_id,
	attendee_name, attendee_email, attendee_phone, created_at, expires_at, updated_at
`

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanBooking(s scanner, b *Booking) error {
	var paymentReference, transactionID sql.NullString

	err := s.Scan(
		&b.ID, &b.Code, &b.TicketStockID, &b.EventID, &b.EventName, &b.Tier, &b.CustomerID, &b.Quantity, &b.UnitPrice, &b.TotalPrice,
		&b.Currency, &b.Status, &b.PaymentStatus, &b.PaymentMethod, &paymentReference, &transactionID,
		&b.AttendeeName, &b.AttendeeEmail, &b.AttendeePhone, &b.CreatedAt, &b.ExpiresAt, &b.UpdatedAt,
	)
	if err != nil {
		return err
	}

	if paymentReference.Valid {
		b.PaymentReference = &paymentReference.String
	}
	if transactionID.Valid {
		b.TransactionID = &transactionID.String
	}

	return nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}

	return sql.NullString{Valid: true, String: *s}
}

// BeginTx implements BookingRepository.
func (r *bookingRepository) BeginTx(ctx context.Context) (*sql.Tx, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return nil, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred trying to begin transaction")
	}

	return tx, nil
}

// CommitTx implements BookingRepository.
func (r *bookingRepository) CommitTx(ctx context.Context, tx *sql.Tx) error {
	if err := tx.Commit(); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		if postgresql.IsConflict(err) {
			return errors.New(http.StatusConflict, status.CONFLICT, "the booking was changed concurrently, please try again")
		}
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred trying to commit transaction")
	}

	return nil
}

// Rollback implements BookingRepository.
func (r *bookingRepository) Rollback(ctx context.Context, tx *sql.Tx) error {
	if tx == nil {
		return nil
	}

	if err := tx.Rollback(); err != nil && err != sql.ErrTxDone {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred trying to rollback transaction")
	}

	return nil
}

// Save implements BookingRepository.
func (r *bookingRepository) Save(ctx context.Context, b Booking, tx *sql.Tx) error {
	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	query := fmt.Sprintf(`
		INSERT INTO booking
		(
			%s
		)
		VALUES
		(
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
			$11, $12, $13, $14, $15, $16,
			$17, $18, $19, $20, $21, $22
		)
	`, bookingColumns)

	stmt, err := cmd.PrepareContext(ctx, query)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while saving booking's properties")
	}
	defer stmt.Close()

	_, err = stmt.ExecContext(ctx,
		b.ID, b.Code, b.TicketStockID, b.EventID, b.EventName, b.Tier, b.CustomerID, b.Quantity, b.UnitPrice, b.TotalPrice,
		b.Currency, b.Status, b.PaymentStatus, b.PaymentMethod, nullString(b.PaymentReference), nullString(b.TransactionID),
		b.AttendeeName, b.AttendeeEmail, b.AttendeePhone, b.CreatedAt, b.ExpiresAt, b.UpdatedAt,
	)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		if postgresql.IsUniqueViolation(err) || postgresql.IsConflict(err) {
			return errors.New(http.StatusConflict, status.CONFLICT, "booking already exists, please try again")
		}
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while saving booking's properties")
	}

	return nil
}

func (r *bookingRepository) findOne(ctx context.Context, ID string, tx *sql.Tx, forUpdate bool) (Booking, error) {
	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	query := fmt.Sprintf(`
		SELECT
			%s
		FROM booking
		WHERE
			id = $1
		LIMIT 1
	`, bookingColumns)
	if forUpdate {
		query += " FOR UPDATE"
	}

	stmt, err := cmd.PrepareContext(ctx, query)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return Booking{}, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting booking's properties")
	}
	defer stmt.Close()

	var data Booking
	if err := scanBooking(stmt.QueryRowContext(ctx, ID), &data); err != nil {
		if err == sql.ErrNoRows {
			return Booking{}, errors.New(http.StatusNotFound, status.NOT_FOUND, fmt.Sprintf("booking's properties with id '%s' is not found", ID))
		}
		r.logger.WithContext(ctx).WithError(err).Error()
		if postgresql.IsConflict(err) {
			return Booking{}, errors.New(http.StatusConflict, status.CONFLICT, "the booking is being changed by another request, please try again")
		}
		return Booking{}, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting booking's properties")
	}

	return data, nil
}

// FindByID implements BookingRepository.
func (r *bookingRepository) FindByID(ctx context.Context, ID string, tx *sql.Tx) (Booking, error) {
	return r.findOne(ctx, ID, tx, false)
}

// FindByIDForUpdate implements BookingRepository.
func (r *bookingRepository) FindByIDForUpdate(ctx context.Context, ID string, tx *sql.Tx) (Booking, error) {
	return r.findOne(ctx, ID, tx, true)
}

// Update implements BookingRepository.
func (r *bookingRepository) Update(ctx context.Context, b Booking, tx *sql.Tx) error {
	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	query := `
		UPDATE booking
		SET
			status = $1,
			payment_status = $2,
			payment_reference = $3,
			transaction_id = $4,
			updated_at = $5
		WHERE
			id = $6
	`

	stmt, err := cmd.PrepareContext(ctx, query)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while updating booking's properties")
	}
	defer stmt.Close()

	_, err = stmt.ExecContext(ctx, b.Status, b.PaymentStatus, nullString(b.PaymentReference), nullString(b.TransactionID), b.UpdatedAt, b.ID)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		if postgresql.IsConflict(err) {
			return errors.New(http.StatusConflict, status.CONFLICT, "the booking was changed concurrently, please try again")
		}
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while updating booking's properties")
	}

	return nil
}

// FindManyByCustomerID implements BookingRepository.
func (r *bookingRepository) FindManyByCustomerID(ctx context.Context, customerID string, filter ListFilter, tx *sql.Tx) ([]Booking, error) {
	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	query := fmt.Sprintf(`
		SELECT
			%s
		FROM booking
		WHERE
			customer_id = $1
			AND ($2 = '' OR status = $2)
			AND ($3 = '' OR payment_status = $3)
		ORDER BY %s
		LIMIT $4 OFFSET $5
	`, bookingColumns, filter.OrderClause())

	stmt, err := cmd.PrepareContext(ctx, query)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return nil, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting bunch of booking's properties")
	}
	defer stmt.Close()

	rows, err := stmt.QueryContext(ctx, customerID, string(filter.Status), string(filter.PaymentStatus), filter.Limit, filter.Offset())
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return nil, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting bunch of booking's properties")
	}
	defer rows.Close()

	var data = make([]Booking, 0)
	for rows.Next() {
		var b Booking
		if err := scanBooking(rows, &b); err != nil {
			r.logger.WithContext(ctx).WithError(err).Error()
			return nil, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting bunch of booking's properties")
		}

		data = append(data, b)
	}

	if err := rows.Err(); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return nil, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting bunch of booking's properties")
	}

	return data, nil
}

// CountByCustomerID implements BookingRepository.
func (r *bookingRepository) CountByCustomerID(ctx context.Context, customerID string, filter ListFilter, tx *sql.Tx) (int64, error) {
	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	query := `
		SELECT
			COUNT(id)
		FROM booking
		WHERE
			customer_id = $1
			AND ($2 = '' OR status = $2)
			AND ($3 = '' OR payment_status = $3)
	`

	stmt, err := cmd.PrepareContext(ctx, query)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return 0, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while counting booking's properties")
	}
	defer stmt.Close()

	var count int64
	if err := stmt.QueryRowContext(ctx, customerID, string(filter.Status), string(filter.PaymentStatus)).Scan(&count); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return 0, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while counting booking's properties")
	}

	return count, nil
}

// FindManyDueIDs implements BookingRepository.
func (r *bookingRepository) FindManyDueIDs(ctx context.Context, now time.Time, limit int64, tx *sql.Tx) ([]string, error) {
	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	query := `
		SELECT
			id
		FROM booking
		WHERE
			status = 'pending'
			AND expires_at <= $1
		ORDER BY expires_at ASC
		LIMIT $2
	`

	stmt, err := cmd.PrepareContext(ctx, query)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return nil, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting due bookings")
	}
	defer stmt.Close()

	rows, err := stmt.QueryContext(ctx, now, limit)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return nil, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting due bookings")
	}
	defer rows.Close()

	var ids = make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			r.logger.WithContext(ctx).WithError(err).Error()
			return nil, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting due bookings")
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return nil, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting due bookings")
	}

	return ids, nil
}
