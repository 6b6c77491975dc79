package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/example/roombook/internal/persistence"
)

const bookingColumns = `id, room_id, user_id, title, description, start_time, end_time, attendee_count, attendees,
	status, requires_approval_snapshot, rejection_reason, cancellation_reason, approved_by, approved_at,
	cancelled_by, cancelled_at, is_recurring, recurrence_rule, created_at, updated_at`

// BookingRepository implements persistence.BookingRepository using SQLite
type BookingRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewBookingRepository creates a new SQLite booking repository
func NewBookingRepository(pool *ConnectionPool) *BookingRepository {
	return &BookingRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

// CreateBooking inserts a booking row. Overlapping rows for the same room are accepted.
func (r *BookingRepository) CreateBooking(ctx context.Context, booking persistence.Booking) error {
	if booking.ID == "" || booking.RoomID == "" || booking.UserID == "" {
		return persistence.ErrConstraintViolation
	}
	if !booking.StartTime.Before(booking.EndTime) {
		return persistence.ErrConstraintViolation
	}

	if booking.CreatedAt.IsZero() {
		booking.CreatedAt = time.Now().UTC()
	}
	if booking.UpdatedAt.IsZero() {
		booking.UpdatedAt = booking.CreatedAt
	}

	attendees, err := encodeList(booking.Attendees)
	if err != nil {
		return err
	}

	query := `INSERT INTO bookings (` + bookingColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = r.helper.Exec(ctx, query,
		booking.ID,
		booking.RoomID,
		booking.UserID,
		booking.Title,
		nullString(booking.Description),
		formatTime(booking.StartTime),
		formatTime(booking.EndTime),
		booking.AttendeeCount,
		attendees,
		booking.Status,
		booking.RequiresApprovalSnapshot,
		nullString(booking.RejectionReason),
		nullString(booking.CancellationReason),
		nullString(booking.ApprovedBy),
		nullTime(booking.ApprovedAt),
		nullString(booking.CancelledBy),
		nullTime(booking.CancelledAt),
		booking.IsRecurring,
		nullString(booking.RecurrenceRule),
		formatTime(booking.CreatedAt),
		formatTime(booking.UpdatedAt),
	)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return nil
}

// UpdateBooking persists status and descriptive fields. The approval snapshot
// and owner are fixed at creation and never rewritten.
func (r *BookingRepository) UpdateBooking(ctx context.Context, booking persistence.Booking) error {
	if booking.ID == "" {
		return persistence.ErrConstraintViolation
	}
	if booking.UpdatedAt.IsZero() {
		booking.UpdatedAt = time.Now().UTC()
	}

	attendees, err := encodeList(booking.Attendees)
	if err != nil {
		return err
	}

	query := `
		UPDATE bookings
		SET title = ?, description = ?, start_time = ?, end_time = ?, attendee_count = ?, attendees = ?,
			status = ?, rejection_reason = ?, cancellation_reason = ?, approved_by = ?, approved_at = ?,
			cancelled_by = ?, cancelled_at = ?, is_recurring = ?, recurrence_rule = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.helper.Exec(ctx, query,
		booking.Title,
		nullString(booking.Description),
		formatTime(booking.StartTime),
		formatTime(booking.EndTime),
		booking.AttendeeCount,
		attendees,
		booking.Status,
		nullString(booking.RejectionReason),
		nullString(booking.CancellationReason),
		nullString(booking.ApprovedBy),
		nullTime(booking.ApprovedAt),
		nullString(booking.CancelledBy),
		nullTime(booking.CancelledAt),
		booking.IsRecurring,
		nullString(booking.RecurrenceRule),
		formatTime(booking.UpdatedAt),
		booking.ID,
	)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return requireAffected(result)
}

// GetBooking retrieves a booking by ID
func (r *BookingRepository) GetBooking(ctx context.Context, id string) (persistence.Booking, error) {
	if id == "" {
		return persistence.Booking{}, persistence.ErrNotFound
	}

	booking, err := scanBooking(r.helper.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, id))
	if err != nil {
		return persistence.Booking{}, r.mapper.MapError(err)
	}
	return booking, nil
}

// ListBookings returns bookings matching filter ordered by start time, then creation.
func (r *BookingRepository) ListBookings(ctx context.Context, filter persistence.BookingFilter) ([]persistence.Booking, error) {
	var (
		clauses []string
		args    []any
	)
	if filter.UserID != "" {
		clauses = append(clauses, "user_id = ?")
		args = append(args, filter.UserID)
	}
	if filter.RoomID != "" {
		clauses = append(clauses, "room_id = ?")
		args = append(args, filter.RoomID)
	}
	if filter.Status != "" {
		clauses = append(clauses, "status = ?")
		args = append(args, filter.Status)
	}
	if filter.StartsBefore != nil {
		clauses = append(clauses, "start_time < ?")
		args = append(args, formatTime(*filter.StartsBefore))
	}
	if filter.EndsAfter != nil {
		clauses = append(clauses, "end_time > ?")
		args = append(args, formatTime(*filter.EndsAfter))
	}

	query := `SELECT ` + bookingColumns + ` FROM bookings`
	if len(clauses) > 0 {
		query += ` WHERE ` + strings.Join(clauses, " AND ")
	}
	query += ` ORDER BY start_time ASC, created_at ASC, id ASC`

	rows, err := r.helper.Query(ctx, query, args...)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var bookings []persistence.Booking
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, r.mapper.MapError(err)
		}
		bookings = append(bookings, booking)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return bookings, nil
}

// DeleteBooking hard deletes a booking by ID
func (r *BookingRepository) DeleteBooking(ctx context.Context, id string) error {
	if id == "" {
		return persistence.ErrNotFound
	}
	result, err := r.helper.Exec(ctx, `DELETE FROM bookings WHERE id = ?`, id)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return requireAffected(result)
}

func scanBooking(row rowScanner) (persistence.Booking, error) {
	var (
		booking                              persistence.Booking
		description, rejection, cancellation sql.NullString
		approvedBy, approvedAt               sql.NullString
		cancelledBy, cancelledAt             sql.NullString
		recurrenceRule                       sql.NullString
		attendees                            string
		startStr, endStr                     string
		createdAtStr, updatedAtStr           string
	)

	err := row.Scan(
		&booking.ID,
		&booking.RoomID,
		&booking.UserID,
		&booking.Title,
		&description,
		&startStr,
		&endStr,
		&booking.AttendeeCount,
		&attendees,
		&booking.Status,
		&booking.RequiresApprovalSnapshot,
		&rejection,
		&cancellation,
		&approvedBy,
		&approvedAt,
		&cancelledBy,
		&cancelledAt,
		&booking.IsRecurring,
		&recurrenceRule,
		&createdAtStr,
		&updatedAtStr,
	)
	if err != nil {
		return persistence.Booking{}, err
	}

	booking.Description = stringPtr(description)
	booking.RejectionReason = stringPtr(rejection)
	booking.CancellationReason = stringPtr(cancellation)
	booking.ApprovedBy = stringPtr(approvedBy)
	booking.CancelledBy = stringPtr(cancelledBy)
	booking.RecurrenceRule = stringPtr(recurrenceRule)

	if booking.Attendees, err = decodeList(attendees); err != nil {
		return persistence.Booking{}, err
	}
	if booking.StartTime, err = parseTime(startStr); err != nil {
		return persistence.Booking{}, fmt.Errorf("failed to parse start_time: %w", err)
	}
	if booking.EndTime, err = parseTime(endStr); err != nil {
		return persistence.Booking{}, fmt.Errorf("failed to parse end_time: %w", err)
	}
	if booking.ApprovedAt, err = parseNullTime(approvedAt); err != nil {
		return persistence.Booking{}, fmt.Errorf("failed to parse approved_at: %w", err)
	}
	if booking.CancelledAt, err = parseNullTime(cancelledAt); err != nil {
		return persistence.Booking{}, fmt.Errorf("failed to parse cancelled_at: %w", err)
	}
	if booking.CreatedAt, err = parseTime(createdAtStr); err != nil {
		return persistence.Booking{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if booking.UpdatedAt, err = parseTime(updatedAtStr); err != nil {
		return persistence.Booking{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	return booking, nil
}
