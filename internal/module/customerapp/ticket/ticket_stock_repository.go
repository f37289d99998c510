package ticket

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tazkarti/tz-booking/pkg/errors"
	"github.com/tazkarti/tz-booking/pkg/status"
)

type TicketStockRepository interface {
	FindByID(ctx context.Context, ID string, tx *sql.Tx) (TicketStock, error)
	FindManyByEventID(ctx context.Context, eventID string, tx *sql.Tx) ([]TicketStock, error)
	Save(ctx context.Context, ts TicketStock, tx *sql.Tx) error
	Retire(ctx context.Context, ID string, now time.Time, tx *sql.Tx) error
}

type sqlCommand interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
}

type ticketStockRepository struct {
	logger *logrus.Logger
	db     *sql.DB
}

func NewTicketStockRepository(logger *logrus.Logger, db *sql.DB) TicketStockRepository {
	return &ticketStockRepository{
		logger: logger,
		db:     db,
	}
}

const ticketStockColumns = `id, event_id, tier, price, currency, total, available, reserved, sold, status, created_at, updated_at`

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanTicketStock(s scanner, ts *TicketStock) error {
	return s.Scan(&ts.ID, &ts.EventID, &ts.Tier, &ts.Price, &ts.Currency, &ts.Total, &ts.Available, &ts.Reserved, &ts.Sold, &ts.Status, &ts.CreatedAt, &ts.UpdatedAt)
}

// FindByID implements TicketStockRepository.
func (r *ticketStockRepository) FindByID(ctx context.Context, ID string, tx *sql.Tx) (TicketStock, error) {
	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	query := fmt.Sprintf(`
		SELECT
			%s
		FROM ticket_stock
		WHERE
			id = $1
	`, ticketStockColumns)

	stmt, err := cmd.PrepareContext(ctx, query)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return TicketStock{}, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting ticket stock's properties")
	}
	defer stmt.Close()

	var data TicketStock
	if err := scanTicketStock(stmt.QueryRowContext(ctx, ID), &data); err != nil {
		if err == sql.ErrNoRows {
			return TicketStock{}, errors.New(http.StatusNotFound, status.NOT_FOUND, fmt.Sprintf("ticket stock's properties with id '%s' is not found", ID))
		}
		r.logger.WithContext(ctx).WithError(err).Error()
		return TicketStock{}, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting ticket stock's properties")
	}

	return data, nil
}

// FindManyByEventID implements TicketStockRepository.
func (r *ticketStockRepository) FindManyByEventID(ctx context.Context, eventID string, tx *sql.Tx) ([]TicketStock, error) {
	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	query := fmt.Sprintf(`
		SELECT
			%s
		FROM ticket_stock
		WHERE
			event_id = $1
		ORDER BY price ASC, tier ASC
	`, ticketStockColumns)

	stmt, err := cmd.PrepareContext(ctx, query)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return nil, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting bunch of ticket stock's properties")
	}
	defer stmt.Close()

	rows, err := stmt.QueryContext(ctx, eventID)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return nil, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting bunch of ticket stock's properties")
	}
	defer rows.Close()

	var data = make([]TicketStock, 0)
	for rows.Next() {
		var ts TicketStock
		if err := scanTicketStock(rows, &ts); err != nil {
			r.logger.WithContext(ctx).WithError(err).Error()
			return nil, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting bunch of ticket stock's properties")
		}

		data = append(data, ts)
	}

	if err := rows.Err(); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return nil, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting bunch of ticket stock's properties")
	}

	return data, nil
}

// Save implements TicketStockRepository.
func (r *ticketStockRepository) Save(ctx context.Context, ts TicketStock, tx *sql.Tx) error {
	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	query := fmt.Sprintf(`
		INSERT INTO ticket_stock
		(
			%s
		)
		VALUES
		(
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12
		)
	`, ticketStockColumns)

	stmt, err := cmd.PrepareContext(ctx, query)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while saving ticket stock's properties")
	}
	defer stmt.Close()

	_, err = stmt.ExecContext(ctx, ts.ID, ts.EventID, ts.Tier, ts.Price, ts.Currency, ts.Total, ts.Available, ts.Reserved, ts.Sold, ts.Status, ts.CreatedAt, ts.UpdatedAt)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while saving ticket stock's properties")
	}

	return nil
}

// Retire implements TicketStockRepository. Existing holds can still be committed or released.
func (r *ticketStockRepository) Retire(ctx context.Context, ID string, now time.Time, tx *sql.Tx) error {
	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	query := `
		UPDATE ticket_stock
		SET
			status = $1,
			updated_at = $2
		WHERE
			id = $3
	`

	stmt, err := cmd.PrepareContext(ctx, query)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while retiring ticket stock")
	}
	defer stmt.Close()

	result, err := stmt.ExecContext(ctx, StatusRetired, now, ID)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while retiring ticket stock")
	}

	if affected, _ := result.RowsAffected(); affected == 0 {
		return errors.New(http.StatusNotFound, status.NOT_FOUND, fmt.Sprintf("ticket stock's properties with id '%s' is not found", ID))
	}

	return nil
}
