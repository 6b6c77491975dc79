package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/roombook/internal/persistence"
)

const roomColumns = `id, name, description, capacity, location, equipment, tags, image_urls, color,
	requires_approval, cancellation_hours, time_slot_minutes, min_duration_minutes, max_duration_minutes,
	bookable, active, created_at, updated_at`

// RoomRepository implements persistence.RoomRepository using SQLite
type RoomRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewRoomRepository creates a new SQLite room repository
func NewRoomRepository(pool *ConnectionPool) *RoomRepository {
	return &RoomRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

// CreateRoom inserts a new room into the database
func (r *RoomRepository) CreateRoom(ctx context.Context, room persistence.Room) error {
	if room.ID == "" || room.Capacity <= 0 {
		return persistence.ErrConstraintViolation
	}

	if room.CreatedAt.IsZero() {
		room.CreatedAt = time.Now().UTC()
	}
	if room.UpdatedAt.IsZero() {
		room.UpdatedAt = room.CreatedAt
	}

	args, err := roomArgs(room)
	if err != nil {
		return err
	}

	query := `INSERT INTO rooms (` + roomColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	if _, err := r.helper.Exec(ctx, query, args...); err != nil {
		return r.mapper.MapError(err)
	}
	return nil
}

// UpdateRoom replaces every mutable column of an existing room
func (r *RoomRepository) UpdateRoom(ctx context.Context, room persistence.Room) error {
	if room.ID == "" || room.Capacity <= 0 {
		return persistence.ErrConstraintViolation
	}
	if room.UpdatedAt.IsZero() {
		room.UpdatedAt = time.Now().UTC()
	}

	equipment, tags, images, err := encodeRoomLists(room)
	if err != nil {
		return err
	}

	query := `
		UPDATE rooms
		SET name = ?, description = ?, capacity = ?, location = ?, equipment = ?, tags = ?, image_urls = ?,
			color = ?, requires_approval = ?, cancellation_hours = ?, time_slot_minutes = ?,
			min_duration_minutes = ?, max_duration_minutes = ?, bookable = ?, active = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.helper.Exec(ctx, query,
		room.Name,
		nullString(room.Description),
		room.Capacity,
		room.Location,
		equipment,
		tags,
		images,
		room.Color,
		room.RequiresApproval,
		room.CancellationHours,
		room.TimeSlotMinutes,
		nullInt(room.MinDurationMinutes),
		nullInt(room.MaxDurationMinutes),
		room.Bookable,
		room.Active,
		formatTime(room.UpdatedAt),
		room.ID,
	)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return requireAffected(result)
}

// GetRoom retrieves a room by ID from the database
func (r *RoomRepository) GetRoom(ctx context.Context, id string) (persistence.Room, error) {
	if id == "" {
		return persistence.Room{}, persistence.ErrNotFound
	}

	row := r.helper.QueryRow(ctx, `SELECT `+roomColumns+` FROM rooms WHERE id = ?`, id)
	room, err := scanRoom(row)
	if err != nil {
		return persistence.Room{}, r.mapper.MapError(err)
	}
	return room, nil
}

// ListRooms returns rooms ordered by name then ID, optionally filtered by the active flag
func (r *RoomRepository) ListRooms(ctx context.Context, filter persistence.RoomFilter) ([]persistence.Room, error) {
	query := `SELECT ` + roomColumns + ` FROM rooms`
	var args []any
	if filter.Active != nil {
		query += ` WHERE active = ?`
		args = append(args, *filter.Active)
	}
	query += ` ORDER BY name ASC, id ASC`

	rows, err := r.helper.Query(ctx, query, args...)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var rooms []persistence.Room
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, r.mapper.MapError(err)
		}
		rooms = append(rooms, room)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return rooms, nil
}

// DeleteRoom removes a room by ID; bookings and blocks cascade
func (r *RoomRepository) DeleteRoom(ctx context.Context, id string) error {
	if id == "" {
		return persistence.ErrNotFound
	}

	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `DELETE FROM rooms WHERE id = ?`, id)
		if err != nil {
			return r.mapper.MapError(err)
		}
		return requireAffected(result)
	})
}

func encodeRoomLists(room persistence.Room) (equipment, tags, images string, err error) {
	if equipment, err = encodeList(room.Equipment); err != nil {
		return
	}
	if tags, err = encodeList(room.Tags); err != nil {
		return
	}
	images, err = encodeList(room.ImageURLs)
	return
}

func roomArgs(room persistence.Room) ([]any, error) {
	equipment, tags, images, err := encodeRoomLists(room)
	if err != nil {
		return nil, err
	}
	return []any{
		room.ID,
		room.Name,
		nullString(room.Description),
		room.Capacity,
		room.Location,
		equipment,
		tags,
		images,
		room.Color,
		room.RequiresApproval,
		room.CancellationHours,
		room.TimeSlotMinutes,
		nullInt(room.MinDurationMinutes),
		nullInt(room.MaxDurationMinutes),
		room.Bookable,
		room.Active,
		formatTime(room.CreatedAt),
		formatTime(room.UpdatedAt),
	}, nil
}

func scanRoom(row rowScanner) (persistence.Room, error) {
	var (
		room                       persistence.Room
		description                sql.NullString
		equipment, tags, images    string
		minDuration, maxDuration   sql.NullInt64
		createdAtStr, updatedAtStr string
	)

	err := row.Scan(
		&room.ID,
		&room.Name,
		&description,
		&room.Capacity,
		&room.Location,
		&equipment,
		&tags,
		&images,
		&room.Color,
		&room.RequiresApproval,
		&room.CancellationHours,
		&room.TimeSlotMinutes,
		&minDuration,
		&maxDuration,
		&room.Bookable,
		&room.Active,
		&createdAtStr,
		&updatedAtStr,
	)
	if err != nil {
		return persistence.Room{}, err
	}

	room.Description = stringPtr(description)
	room.MinDurationMinutes = intPtr(minDuration)
	room.MaxDurationMinutes = intPtr(maxDuration)

	if room.Equipment, err = decodeList(equipment); err != nil {
		return persistence.Room{}, err
	}
	if room.Tags, err = decodeList(tags); err != nil {
		return persistence.Room{}, err
	}
	if room.ImageURLs, err = decodeList(images); err != nil {
		return persistence.Room{}, err
	}
	if room.CreatedAt, err = parseTime(createdAtStr); err != nil {
		return persistence.Room{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if room.UpdatedAt, err = parseTime(updatedAtStr); err != nil {
		return persistence.Room{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	return room, nil
}
