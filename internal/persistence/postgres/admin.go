package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/example/roombook/internal/persistence"
)

// CreateRoomBlock inserts a blackout window.
func (s *Storage) CreateRoomBlock(ctx context.Context, block persistence.RoomBlock) error {
	if block.ID == "" || block.RoomID == "" || !block.StartTime.Before(block.EndTime) {
		return persistence.ErrConstraintViolation
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO room_blocks (id, room_id, start_time, end_time, reason, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		block.ID, block.RoomID, block.StartTime, block.EndTime, block.Reason, block.CreatedBy, stampNow(block.CreatedAt),
	)
	return mapError(err)
}

// GetRoomBlock returns a blackout window by ID.
func (s *Storage) GetRoomBlock(ctx context.Context, id string) (persistence.RoomBlock, error) {
	block, err := scanRoomBlock(s.pool.QueryRow(ctx, `
		SELECT id, room_id, start_time, end_time, reason, created_by, created_at
		FROM room_blocks WHERE id = $1`, id))
	if err != nil {
		return persistence.RoomBlock{}, mapError(err)
	}
	return block, nil
}

// ListRoomBlocks returns the blackout windows of a room ordered by start.
func (s *Storage) ListRoomBlocks(ctx context.Context, roomID string) ([]persistence.RoomBlock, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, room_id, start_time, end_time, reason, created_by, created_at
		FROM room_blocks WHERE room_id = $1 ORDER BY start_time, id`, roomID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var blocks []persistence.RoomBlock
	for rows.Next() {
		block, err := scanRoomBlock(rows)
		if err != nil {
			return nil, mapError(err)
		}
		blocks = append(blocks, block)
	}
	return blocks, mapError(rows.Err())
}

// DeleteRoomBlock removes a blackout window.
func (s *Storage) DeleteRoomBlock(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM room_blocks WHERE id = $1`, id)
	if err != nil {
		return mapError(err)
	}
	return requireAffected(tag)
}

func scanRoomBlock(row pgx.Row) (persistence.RoomBlock, error) {
	var block persistence.RoomBlock
	err := row.Scan(&block.ID, &block.RoomID, &block.StartTime, &block.EndTime, &block.Reason, &block.CreatedBy, &block.CreatedAt)
	return block, err
}

// AppendAudit records an audit entry.
func (s *Storage) AppendAudit(ctx context.Context, entry persistence.AuditEntry) error {
	if entry.ID == "" || entry.Action == "" {
		return persistence.ErrConstraintViolation
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO audit_log (id, actor_id, action, entity_type, entity_id, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		entry.ID, entry.ActorID, entry.Action, entry.EntityType, entry.EntityID, entry.Details, stampNow(entry.CreatedAt),
	)
	return mapError(err)
}

// ListAudit returns the newest audit entries first.
func (s *Storage) ListAudit(ctx context.Context, limit int) ([]persistence.AuditEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, actor_id, action, entity_type, entity_id, details, created_at
		FROM audit_log ORDER BY created_at DESC, id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var entries []persistence.AuditEntry
	for rows.Next() {
		var e persistence.AuditEntry
		if err := rows.Scan(&e.ID, &e.ActorID, &e.Action, &e.EntityType, &e.EntityID, &e.Details, &e.CreatedAt); err != nil {
			return nil, mapError(err)
		}
		entries = append(entries, e)
	}
	return entries, mapError(rows.Err())
}

// GetSettings returns the settings row or persistence.ErrNotFound.
func (s *Storage) GetSettings(ctx context.Context) (persistence.OrgSettings, error) {
	var settings persistence.OrgSettings
	err := s.pool.QueryRow(ctx, `
		SELECT organization_name, timezone, default_cancellation_hours, notification_email, updated_at
		FROM org_settings WHERE id = 1`,
	).Scan(&settings.OrganizationName, &settings.Timezone, &settings.DefaultCancellationHours, &settings.NotificationEmail, &settings.UpdatedAt)
	if err != nil {
		return persistence.OrgSettings{}, mapError(err)
	}
	return settings, nil
}

// SaveSettings upserts the settings row.
func (s *Storage) SaveSettings(ctx context.Context, settings persistence.OrgSettings) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO org_settings (id, organization_name, timezone, default_cancellation_hours, notification_email, updated_at)
		VALUES (1, $1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			organization_name = EXCLUDED.organization_name,
			timezone = EXCLUDED.timezone,
			default_cancellation_hours = EXCLUDED.default_cancellation_hours,
			notification_email = EXCLUDED.notification_email,
			updated_at = EXCLUDED.updated_at`,
		settings.OrganizationName, settings.Timezone, settings.DefaultCancellationHours,
		settings.NotificationEmail, stampNow(settings.UpdatedAt),
	)
	return mapError(err)
}
