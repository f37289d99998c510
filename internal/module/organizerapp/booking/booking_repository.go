package booking

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"github.com/tazkarti/tz-booking/pkg/errors"
	"github.com/tazkarti/tz-booking/pkg/status"
)

type BookingRepository interface {
	FindMany(ctx context.Context, filter Filter) ([]Booking, error)
	Count(ctx context.Context, filter Filter) (int64, error)
	Summarize(ctx context.Context, filter Filter) (Summary, error)
	CountByStatus(ctx context.Context, filter Filter) (map[string]int64, error)
	CountByPaymentStatus(ctx context.Context, filter Filter) (map[string]int64, error)
	// FindOwnerByBookingID returns the organizer of the booking's event.
	FindOwnerByBookingID(ctx context.Context, bookingID string) (string, error)
}

type bookingRepository struct {
	logger *logrus.Logger
	db     *sqlx.DB
}

func NewBookingRepository(logger *logrus.Logger, db *sqlx.DB) BookingRepository {
	return &bookingRepository{
		logger: logger,
		db:     db,
	}
}

const organizerBookingColumns = `
	b.id, b.code, b.event_id, b.event_name, b.ticket_stock_id, b.tier, b.customer_id, b.quantity,
	b.unit_price, b.total_price, b.currency, b.status, b.payment_status, b.payment_method,
	b.attendee_name, b.attendee_email, b.created_at, b.expires_at, b.updated_at
`

// where renders the named conditions shared by every organizer query.
func where(filter Filter) string {
	conditions := []string{"TRUE"}

	if filter.OrganizerID != "" {
		conditions = append(conditions, "e.organizer_id = :organizer_id")
	}
	if filter.EventID != "" {
		conditions = append(conditions, "b.event_id = :event_id")
	}
	if filter.Status != "" {
		conditions = append(conditions, "b.status = :status")
	}
	if filter.PaymentStatus != "" {
		conditions = append(conditions, "b.payment_status = :payment_status")
	}
	if filter.Search != "" {
		conditions = append(conditions, `(b.code ILIKE :search ESCAPE '\' OR b.attendee_name ILIKE :search ESCAPE '\' OR b.attendee_email ILIKE :search ESCAPE '\')`)
	}

	return strings.Join(conditions, " AND ")
}

// likeEscaper makes user input match literally inside an ILIKE pattern.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (r *bookingRepository) bind(query string, filter Filter) (string, []interface{}, error) {
	if filter.Search != "" {
		filter.Search = "%" + likeEscaper.Replace(filter.Search) + "%"
	}

	query, args, err := sqlx.Named(query, filter)
	if err != nil {
		return "", nil, err
	}

	return r.db.Rebind(query), args, nil
}

// FindMany implements BookingRepository.
func (r *bookingRepository) FindMany(ctx context.Context, filter Filter) ([]Booking, error) {
	query := fmt.Sprintf(`
		SELECT
			%s
		FROM booking b
		JOIN event e ON e.id = b.event_id
		WHERE %s
		ORDER BY %s
		LIMIT :limit OFFSET :offset
	`, organizerBookingColumns, where(filter), filter.orderClause())

	query, args, err := r.bind(query, filter)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return nil, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting bunch of booking's properties")
	}

	data := make([]Booking, 0)
	if err := r.db.SelectContext(ctx, &data, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return nil, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting bunch of booking's properties")
	}

	return data, nil
}

// Count implements BookingRepository.
func (r *bookingRepository) Count(ctx context.Context, filter Filter) (int64, error) {
	query := fmt.Sprintf(`
		SELECT
			COUNT(b.id)
		FROM booking b
		JOIN event e ON e.id = b.event_id
		WHERE %s
	`, where(filter))

	query, args, err := r.bind(query, filter)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return 0, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while counting booking's properties")
	}

	var count int64
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return 0, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while counting booking's properties")
	}

	return count, nil
}

// Summarize implements BookingRepository.
func (r *bookingRepository) Summarize(ctx context.Context, filter Filter) (Summary, error) {
	query := fmt.Sprintf(`
		SELECT
			COUNT(b.id) AS total_bookings,
			COALESCE(SUM(b.quantity) FILTER (WHERE b.status = 'confirmed'), 0) AS tickets_sold,
			COALESCE(SUM(b.total_price) FILTER (WHERE b.payment_status = 'completed'), 0) AS total_revenue
		FROM booking b
		JOIN event e ON e.id = b.event_id
		WHERE %s
	`, where(filter))

	query, args, err := r.bind(query, filter)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return Summary{}, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while summarizing bookings")
	}

	var data Summary
	if err := r.db.GetContext(ctx, &data, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return Summary{}, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while summarizing bookings")
	}

	return data, nil
}

func (r *bookingRepository) countBy(ctx context.Context, column string, filter Filter) (map[string]int64, error) {
	query := fmt.Sprintf(`
		SELECT
			%s AS key, COUNT(b.id) AS count
		FROM booking b
		JOIN event e ON e.id = b.event_id
		WHERE %s
		GROUP BY %s
	`, column, where(filter), column)

	query, args, err := r.bind(query, filter)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return nil, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while counting booking's properties")
	}

	var rows []countRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return nil, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while counting booking's properties")
	}

	data := make(map[string]int64, len(rows))
	for _, row := range rows {
		data[row.Key] = row.Count
	}

	return data, nil
}

// CountByStatus implements BookingRepository.
func (r *bookingRepository) CountByStatus(ctx context.Context, filter Filter) (map[string]int64, error) {
	return r.countBy(ctx, "b.status", filter)
}

// CountByPaymentStatus implements BookingRepository.
func (r *bookingRepository) CountByPaymentStatus(ctx context.Context, filter Filter) (map[string]int64, error) {
	return r.countBy(ctx, "b.payment_status", filter)
}

// FindOwnerByBookingID implements BookingRepository.
func (r *bookingRepository) FindOwnerByBookingID(ctx context.Context, bookingID string) (string, error) {
	query := `
		SELECT
			e.organizer_id
		FROM booking b
		JOIN event e ON e.id = b.event_id
		WHERE
			b.id = $1
	`

	var organizerID string
	if err := r.db.GetContext(ctx, &organizerID, query, bookingID); err != nil {
		if err == sql.ErrNoRows {
			return "", errors.New(http.StatusNotFound, status.NOT_FOUND, fmt.Sprintf("booking's properties with id '%s' is not found", bookingID))
		}
		r.logger.WithContext(ctx).WithError(err).Error()
		return "", errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting booking's properties")
	}

	return organizerID, nil
}
