package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/example/roombook/internal/persistence"
)

// AdminRepository implements the room block, audit log and organisation
// settings repositories using SQLite
type AdminRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewAdminRepository creates a new SQLite admin repository
func NewAdminRepository(pool *ConnectionPool) *AdminRepository {
	return &AdminRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

// CreateRoomBlock inserts a blackout window
func (r *AdminRepository) CreateRoomBlock(ctx context.Context, block persistence.RoomBlock) error {
	if block.ID == "" || block.RoomID == "" || !block.StartTime.Before(block.EndTime) {
		return persistence.ErrConstraintViolation
	}
	if block.CreatedAt.IsZero() {
		block.CreatedAt = time.Now().UTC()
	}

	_, err := r.helper.Exec(ctx, `
		INSERT INTO room_blocks (id, room_id, start_time, end_time, reason, created_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		block.ID,
		block.RoomID,
		formatTime(block.StartTime),
		formatTime(block.EndTime),
		nullString(block.Reason),
		block.CreatedBy,
		formatTime(block.CreatedAt),
	)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return nil
}

// GetRoomBlock retrieves a blackout window by ID
func (r *AdminRepository) GetRoomBlock(ctx context.Context, id string) (persistence.RoomBlock, error) {
	if id == "" {
		return persistence.RoomBlock{}, persistence.ErrNotFound
	}
	block, err := scanRoomBlock(r.helper.QueryRow(ctx, `
		SELECT id, room_id, start_time, end_time, reason, created_by, created_at
		FROM room_blocks WHERE id = ?
	`, id))
	if err != nil {
		return persistence.RoomBlock{}, r.mapper.MapError(err)
	}
	return block, nil
}

// ListRoomBlocks returns the blackout windows of a room ordered by start
func (r *AdminRepository) ListRoomBlocks(ctx context.Context, roomID string) ([]persistence.RoomBlock, error) {
	rows, err := r.helper.Query(ctx, `
		SELECT id, room_id, start_time, end_time, reason, created_by, created_at
		FROM room_blocks
		WHERE room_id = ?
		ORDER BY start_time ASC, id ASC
	`, roomID)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var blocks []persistence.RoomBlock
	for rows.Next() {
		block, err := scanRoomBlock(rows)
		if err != nil {
			return nil, r.mapper.MapError(err)
		}
		blocks = append(blocks, block)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return blocks, nil
}

// DeleteRoomBlock removes a blackout window
func (r *AdminRepository) DeleteRoomBlock(ctx context.Context, id string) error {
	if id == "" {
		return persistence.ErrNotFound
	}
	result, err := r.helper.Exec(ctx, `DELETE FROM room_blocks WHERE id = ?`, id)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return requireAffected(result)
}

// AppendAudit records an audit entry
func (r *AdminRepository) AppendAudit(ctx context.Context, entry persistence.AuditEntry) error {
	if entry.ID == "" || entry.Action == "" {
		return persistence.ErrConstraintViolation
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	_, err := r.helper.Exec(ctx, `
		INSERT INTO audit_log (id, actor_id, action, entity_type, entity_id, details, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		entry.ID,
		entry.ActorID,
		entry.Action,
		entry.EntityType,
		entry.EntityID,
		nullString(entry.Details),
		formatTime(entry.CreatedAt),
	)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return nil
}

// ListAudit returns the most recent audit entries, newest first
func (r *AdminRepository) ListAudit(ctx context.Context, limit int) ([]persistence.AuditEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.helper.Query(ctx, `
		SELECT id, actor_id, action, entity_type, entity_id, details, created_at
		FROM audit_log
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var entries []persistence.AuditEntry
	for rows.Next() {
		var (
			entry        persistence.AuditEntry
			details      sql.NullString
			createdAtStr string
		)
		if err := rows.Scan(&entry.ID, &entry.ActorID, &entry.Action, &entry.EntityType, &entry.EntityID, &details, &createdAtStr); err != nil {
			return nil, r.mapper.MapError(err)
		}
		entry.Details = stringPtr(details)
		if entry.CreatedAt, err = parseTime(createdAtStr); err != nil {
			return nil, fmt.Errorf("failed to parse created_at: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return entries, nil
}

// GetSettings returns the settings row or persistence.ErrNotFound when none was saved
func (r *AdminRepository) GetSettings(ctx context.Context) (persistence.OrgSettings, error) {
	var (
		settings     persistence.OrgSettings
		email        sql.NullString
		updatedAtStr string
	)
	err := r.helper.QueryRow(ctx, `
		SELECT organization_name, timezone, default_cancellation_hours, notification_email, updated_at
		FROM org_settings WHERE id = 1
	`).Scan(&settings.OrganizationName, &settings.Timezone, &settings.DefaultCancellationHours, &email, &updatedAtStr)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.OrgSettings{}, persistence.ErrNotFound
		}
		return persistence.OrgSettings{}, r.mapper.MapError(err)
	}
	settings.NotificationEmail = stringPtr(email)
	if settings.UpdatedAt, err = parseTime(updatedAtStr); err != nil {
		return persistence.OrgSettings{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	return settings, nil
}

// SaveSettings upserts the single settings row
func (r *AdminRepository) SaveSettings(ctx context.Context, settings persistence.OrgSettings) error {
	if settings.UpdatedAt.IsZero() {
		settings.UpdatedAt = time.Now().UTC()
	}
	_, err := r.helper.Exec(ctx, `
		INSERT INTO org_settings (id, organization_name, timezone, default_cancellation_hours, notification_email, updated_at)
		VALUES (1, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			organization_name = excluded.organization_name,
			timezone = excluded.timezone,
			default_cancellation_hours = excluded.default_cancellation_hours,
			notification_email = excluded.notification_email,
			updated_at = excluded.updated_at
	`,
		settings.OrganizationName,
		settings.Timezone,
		settings.DefaultCancellationHours,
		nullString(settings.NotificationEmail),
		formatTime(settings.UpdatedAt),
	)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return nil
}

func scanRoomBlock(row rowScanner) (persistence.RoomBlock, error) {
	var (
		block                     persistence.RoomBlock
		reason                    sql.NullString
		startStr, endStr, created string
	)
	if err := row.Scan(&block.ID, &block.RoomID, &startStr, &endStr, &reason, &block.CreatedBy, &created); err != nil {
		return persistence.RoomBlock{}, err
	}
	block.Reason = stringPtr(reason)

	var err error
	if block.StartTime, err = parseTime(startStr); err != nil {
		return persistence.RoomBlock{}, fmt.Errorf("failed to parse start_time: %w", err)
	}
	if block.EndTime, err = parseTime(endStr); err != nil {
		return persistence.RoomBlock{}, fmt.Errorf("failed to parse end_time: %w", err)
	}
	if block.CreatedAt, err = parseTime(created); err != nil {
		return persistence.RoomBlock{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	return block, nil
}
