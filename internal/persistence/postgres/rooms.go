package postgres

import (
	"context"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/example/roombook/internal/persistence"
)

const roomColumns = `id, name, description, capacity, location, equipment, tags, image_urls, color,
	requires_approval, cancellation_hours, time_slot_minutes, min_duration_minutes, max_duration_minutes,
	bookable, active, created_at, updated_at`

const bookingColumns = `id, room_id, user_id, title, description, start_time, end_time, attendee_count, attendees,
	status, requires_approval_snapshot, rejection_reason, cancellation_reason, approved_by, approved_at,
	cancelled_by, cancelled_at, is_recurring, recurrence_rule, created_at, updated_at`

// CreateRoom inserts a room.
func (s *Storage) CreateRoom(ctx context.Context, room persistence.Room) error {
	if room.ID == "" || room.Capacity <= 0 {
		return persistence.ErrConstraintViolation
	}
	room.CreatedAt = stampNow(room.CreatedAt)
	if room.UpdatedAt.IsZero() {
		room.UpdatedAt = room.CreatedAt
	}
	_, err := s.pool.Exec(ctx, `INSERT INTO rooms (`+roomColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`,
		room.ID, room.Name, room.Description, room.Capacity, room.Location,
		listOrEmpty(room.Equipment), listOrEmpty(room.Tags), listOrEmpty(room.ImageURLs), room.Color,
		room.RequiresApproval, room.CancellationHours, room.TimeSlotMinutes,
		room.MinDurationMinutes, room.MaxDurationMinutes, room.Bookable, room.Active,
		room.CreatedAt, room.UpdatedAt,
	)
	return mapError(err)
}

// UpdateRoom replaces the mutable columns of a room.
func (s *Storage) UpdateRoom(ctx context.Context, room persistence.Room) error {
	if room.ID == "" || room.Capacity <= 0 {
		return persistence.ErrConstraintViolation
	}
	tag, err := s.pool.Exec(ctx, `
		UPDATE rooms
		SET name = $1, description = $2, capacity = $3, location = $4, equipment = $5, tags = $6,
			image_urls = $7, color = $8, requires_approval = $9, cancellation_hours = $10,
			time_slot_minutes = $11, min_duration_minutes = $12, max_duration_minutes = $13,
			bookable = $14, active = $15, updated_at = $16
		WHERE id = $17`,
		room.Name, room.Description, room.Capacity, room.Location,
		listOrEmpty(room.Equipment), listOrEmpty(room.Tags), listOrEmpty(room.ImageURLs), room.Color,
		room.RequiresApproval, room.CancellationHours, room.TimeSlotMinutes,
		room.MinDurationMinutes, room.MaxDurationMinutes, room.Bookable, room.Active,
		stampNow(room.UpdatedAt), room.ID,
	)
	if err != nil {
		return mapError(err)
	}
	return requireAffected(tag)
}

// GetRoom returns a room by ID.
func (s *Storage) GetRoom(ctx context.Context, id string) (persistence.Room, error) {
	if id == "" {
		return persistence.Room{}, persistence.ErrNotFound
	}
	room, err := scanRoom(s.pool.QueryRow(ctx, `SELECT `+roomColumns+` FROM rooms WHERE id = $1`, id))
	if err != nil {
		return persistence.Room{}, mapError(err)
	}
	return room, nil
}

// ListRooms returns rooms ordered by name, optionally filtered by active flag.
func (s *Storage) ListRooms(ctx context.Context, filter persistence.RoomFilter) ([]persistence.Room, error) {
	query := `SELECT ` + roomColumns + ` FROM rooms`
	var args []any
	if filter.Active != nil {
		query += ` WHERE active = $1`
		args = append(args, *filter.Active)
	}
	query += ` ORDER BY name, id`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var rooms []persistence.Room
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, mapError(err)
		}
		rooms = append(rooms, room)
	}
	return rooms, mapError(rows.Err())
}

// DeleteRoom removes a room; bookings and blocks cascade.
func (s *Storage) DeleteRoom(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM rooms WHERE id = $1`, id)
	if err != nil {
		return mapError(err)
	}
	return requireAffected(tag)
}

func scanRoom(row pgx.Row) (persistence.Room, error) {
	var room persistence.Room
	err := row.Scan(
		&room.ID, &room.Name, &room.Description, &room.Capacity, &room.Location,
		&room.Equipment, &room.Tags, &room.ImageURLs, &room.Color,
		&room.RequiresApproval, &room.CancellationHours, &room.TimeSlotMinutes,
		&room.MinDurationMinutes, &room.MaxDurationMinutes, &room.Bookable, &room.Active,
		&room.CreatedAt, &room.UpdatedAt,
	)
	if err != nil {
		return persistence.Room{}, err
	}
	room.Equipment = emptyToNil(room.Equipment)
	room.Tags = emptyToNil(room.Tags)
	room.ImageURLs = emptyToNil(room.ImageURLs)
	return room, nil
}

// CreateBooking inserts a booking. Overlapping rows are accepted.
func (s *Storage) CreateBooking(ctx context.Context, b persistence.Booking) error {
	if b.ID == "" || b.RoomID == "" || b.UserID == "" || !b.StartTime.Before(b.EndTime) {
		return persistence.ErrConstraintViolation
	}
	b.CreatedAt = stampNow(b.CreatedAt)
	if b.UpdatedAt.IsZero() {
		b.UpdatedAt = b.CreatedAt
	}
	_, err := s.pool.Exec(ctx, `INSERT INTO bookings (`+bookingColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)`,
		b.ID, b.RoomID, b.UserID, b.Title, b.Description, b.StartTime, b.EndTime, b.AttendeeCount,
		listOrEmpty(b.Attendees), b.Status, b.RequiresApprovalSnapshot, b.RejectionReason,
		b.CancellationReason, b.ApprovedBy, b.ApprovedAt, b.CancelledBy, b.CancelledAt,
		b.IsRecurring, b.RecurrenceRule, b.CreatedAt, b.UpdatedAt,
	)
	return mapError(err)
}

// UpdateBooking persists status and descriptive fields. The owner and the
// approval snapshot are never rewritten.
func (s *Storage) UpdateBooking(ctx context.Context, b persistence.Booking) error {
	if b.ID == "" {
		return persistence.ErrConstraintViolation
	}
	tag, err := s.pool.Exec(ctx, `
		UPDATE bookings
		SET title = $1, description = $2, start_time = $3, end_time = $4, attendee_count = $5,
			attendees = $6, status = $7, rejection_reason = $8, cancellation_reason = $9,
			approved_by = $10, approved_at = $11, cancelled_by = $12, cancelled_at = $13,
			is_recurring = $14, recurrence_rule = $15, updated_at = $16
		WHERE id = $17`,
		b.Title, b.Description, b.StartTime, b.EndTime, b.AttendeeCount, listOrEmpty(b.Attendees),
		b.Status, b.RejectionReason, b.CancellationReason, b.ApprovedBy, b.ApprovedAt,
		b.CancelledBy, b.CancelledAt, b.IsRecurring, b.RecurrenceRule, stampNow(b.UpdatedAt), b.ID,
	)
	if err != nil {
		return mapError(err)
	}
	return requireAffected(tag)
}

// GetBooking returns a booking by ID.
func (s *Storage) GetBooking(ctx context.Context, id string) (persistence.Booking, error) {
	if id == "" {
		return persistence.Booking{}, persistence.ErrNotFound
	}
	b, err := scanBooking(s.pool.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id))
	if err != nil {
		return persistence.Booking{}, mapError(err)
	}
	return b, nil
}

// ListBookings returns bookings matching filter ordered by start time.
func (s *Storage) ListBookings(ctx context.Context, filter persistence.BookingFilter) ([]persistence.Booking, error) {
	var (
		clauses []string
		args    []any
	)
	add := func(clause string, arg any) {
		args = append(args, arg)
		clauses = append(clauses, clause+" $"+strconv.Itoa(len(args)))
	}
	if filter.UserID != "" {
		add("user_id =", filter.UserID)
	}
	if filter.RoomID != "" {
		add("room_id =", filter.RoomID)
	}
	if filter.Status != "" {
		add("status =", filter.Status)
	}
	if filter.StartsBefore != nil {
		add("start_time <", *filter.StartsBefore)
	}
	if filter.EndsAfter != nil {
		add("end_time >", *filter.EndsAfter)
	}

	query := `SELECT ` + bookingColumns + ` FROM bookings`
	if len(clauses) > 0 {
		query += ` WHERE ` + strings.Join(clauses, " AND ")
	}
	query += ` ORDER BY start_time, created_at, id`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var bookings []persistence.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, mapError(err)
		}
		bookings = append(bookings, b)
	}
	return bookings, mapError(rows.Err())
}

// DeleteBooking hard deletes a booking.
func (s *Storage) DeleteBooking(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM bookings WHERE id = $1`, id)
	if err != nil {
		return mapError(err)
	}
	return requireAffected(tag)
}

func scanBooking(row pgx.Row) (persistence.Booking, error) {
	var b persistence.Booking
	err := row.Scan(
		&b.ID, &b.RoomID, &b.UserID, &b.Title, &b.Description, &b.StartTime, &b.EndTime,
		&b.AttendeeCount, &b.Attendees, &b.Status, &b.RequiresApprovalSnapshot, &b.RejectionReason,
		&b.CancellationReason, &b.ApprovedBy, &b.ApprovedAt, &b.CancelledBy, &b.CancelledAt,
		&b.IsRecurring, &b.RecurrenceRule, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return persistence.Booking{}, err
	}
	b.Attendees = emptyToNil(b.Attendees)
	b.StartTime = b.StartTime.UTC()
	b.EndTime = b.EndTime.UTC()
	return b, nil
}
