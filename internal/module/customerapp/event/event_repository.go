package event

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"
	"github.com/tazkarti/tz-booking/pkg/errors"
	"github.com/tazkarti/tz-booking/pkg/status"
)

type EventRepository interface {
	FindByID(ctx context.Context, ID string, tx *sql.Tx) (Event, error)
	// FindByIDForShare holds a share lock on the event row until tx ends, so its
	// status cannot change while a booking against it is being written.
	FindByIDForShare(ctx context.Context, ID string, tx *sql.Tx) (Event, error)
}

type sqlCommand interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
}

type eventRepository struct {
	logger *logrus.Logger
	db     *sql.DB
}

func NewEventRepository(logger *logrus.Logger, db *sql.DB) EventRepository {
	return &eventRepository{
		logger: logger,
		db:     db,
	}
}

const eventColumns = `id, organizer_id, name, description, venue, status, starts_at, created_at, updated_at`

func (r *eventRepository) findOne(ctx context.Context, ID string, lockClause string, tx *sql.Tx) (Event, error) {
	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	query := fmt.Sprintf(`
		SELECT
			%s
		FROM event
		WHERE
			id = $1
		LIMIT 1
		%s
	`, eventColumns, lockClause)

	stmt, err := cmd.PrepareContext(ctx, query)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return Event{}, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting event's properties")
	}
	defer stmt.Close()

	var data Event
	err = stmt.QueryRowContext(ctx, ID).Scan(
		&data.ID, &data.OrganizerID, &data.Name, &data.Description, &data.Venue, &data.Status, &data.StartsAt, &data.CreatedAt, &data.UpdatedAt,
	)
	switch {
	case err == sql.ErrNoRows:
		return Event{}, errors.New(http.StatusNotFound, status.NOT_FOUND, fmt.Sprintf("event's properties with id '%s' is not found", ID))
	case err != nil:
		r.logger.WithContext(ctx).WithError(err).WithField("event_id", ID).Error()
		return Event{}, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting event's properties")
	}

	return data, nil
}

// FindByID implements EventRepository.
func (r *eventRepository) FindByID(ctx context.Context, ID string, tx *sql.Tx) (Event, error) {
	return r.findOne(ctx, ID, "", tx)
}

// FindByIDForShare implements EventRepository.
func (r *eventRepository) FindByIDForShare(ctx context.Context, ID string, tx *sql.Tx) (Event, error) {
	return r.findOne(ctx, ID, "FOR SHARE", tx)
}
