package event

import (
	"context"
	"database/sql"
	"net/http"

	"github.com/sirupsen/logrus"
	"github.com/tazkarti/tz-booking/pkg/errors"
	"github.com/tazkarti/tz-booking/pkg/status"
)

type BookingRuleRepository interface {
	// FindByEventID returns an empty rule when the event has none.
	FindByEventID(ctx context.Context, eventID string, tx *sql.Tx) (BookingRule, error)
}

type bookingRuleRepository struct {
	logger *logrus.Logger
	db     *sql.DB
}

func NewBookingRuleRepository(logger *logrus.Logger, db *sql.DB) BookingRuleRepository {
	return &bookingRuleRepository{
		logger: logger,
		db:     db,
	}
}

// FindByEventID implements BookingRuleRepository.
func (r *bookingRuleRepository) FindByEventID(ctx context.Context, eventID string, tx *sql.Tx) (BookingRule, error) {
	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	query := `
		SELECT
			event_id, start_date, end_date, maximum_ticket
		FROM booking_rule
		WHERE
			event_id = $1
		LIMIT 1
	`

	stmt, err := cmd.PrepareContext(ctx, query)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return BookingRule{}, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting booking rule's properties")
	}
	defer stmt.Close()

	row := stmt.QueryRowContext(ctx, eventID)

	var data BookingRule
	var startDate, endDate sql.NullTime

	err = row.Scan(&data.EventID, &startDate, &endDate, &data.MaximumTicket)
	if err != nil {
		if err == sql.ErrNoRows {
			return BookingRule{EventID: eventID}, nil
		}
		r.logger.WithContext(ctx).WithError(err).Error()
		return BookingRule{}, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting booking rule's properties")
	}

	if startDate.Valid {
		data.StartDate = &startDate.Time
	}
	if endDate.Valid {
		data.EndDate = &endDate.Time
	}

	return data, nil
}
