package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/example/roombook/internal/persistence"
)

// SessionRepository implements persistence.SessionRepository using SQLite
type SessionRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewSessionRepository creates a new SQLite session repository
func NewSessionRepository(pool *ConnectionPool) *SessionRepository {
	return &SessionRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

// CreateSession stores a new session for a user
func (r *SessionRepository) CreateSession(ctx context.Context, session persistence.Session) (persistence.Session, error) {
	if session.ID == "" || session.UserID == "" || strings.TrimSpace(session.Token) == "" {
		return persistence.Session{}, persistence.ErrConstraintViolation
	}
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now().UTC()
	}
	if session.UpdatedAt.IsZero() {
		session.UpdatedAt = session.CreatedAt
	}

	_, err := r.helper.Exec(ctx, `
		INSERT INTO sessions (id, user_id, token, fingerprint, expires_at, revoked_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		session.ID,
		session.UserID,
		strings.TrimSpace(session.Token),
		strings.TrimSpace(session.Fingerprint),
		formatTime(session.ExpiresAt),
		nullTime(session.RevokedAt),
		formatTime(session.CreatedAt),
		formatTime(session.UpdatedAt),
	)
	if err != nil {
		return persistence.Session{}, r.mapper.MapError(err)
	}
	return r.GetSession(ctx, session.ID)
}

// GetSession retrieves a session by its ID
func (r *SessionRepository) GetSession(ctx context.Context, id string) (persistence.Session, error) {
	if strings.TrimSpace(id) == "" {
		return persistence.Session{}, persistence.ErrNotFound
	}

	var (
		session                                  persistence.Session
		expiresAtStr, createdAtStr, updatedAtStr string
		revokedAt                                sql.NullString
	)
	err := r.helper.QueryRow(ctx, `
		SELECT id, user_id, token, fingerprint, expires_at, revoked_at, created_at, updated_at
		FROM sessions
		WHERE id = ?
	`, strings.TrimSpace(id)).Scan(
		&session.ID,
		&session.UserID,
		&session.Token,
		&session.Fingerprint,
		&expiresAtStr,
		&revokedAt,
		&createdAtStr,
		&updatedAtStr,
	)
	if err != nil {
		return persistence.Session{}, r.mapper.MapError(err)
	}

	if session.RevokedAt, err = parseNullTime(revokedAt); err != nil {
		return persistence.Session{}, fmt.Errorf("failed to parse revoked_at: %w", err)
	}
	if session.ExpiresAt, err = parseTime(expiresAtStr); err != nil {
		return persistence.Session{}, fmt.Errorf("failed to parse expires_at: %w", err)
	}
	if session.CreatedAt, err = parseTime(createdAtStr); err != nil {
		return persistence.Session{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if session.UpdatedAt, err = parseTime(updatedAtStr); err != nil {
		return persistence.Session{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	return session, nil
}

// UpdateSession updates the token, fingerprint and expiry of an existing session
func (r *SessionRepository) UpdateSession(ctx context.Context, session persistence.Session) (persistence.Session, error) {
	if session.ID == "" || strings.TrimSpace(session.Token) == "" {
		return persistence.Session{}, persistence.ErrConstraintViolation
	}
	if session.UpdatedAt.IsZero() {
		session.UpdatedAt = time.Now().UTC()
	}

	result, err := r.helper.Exec(ctx, `
		UPDATE sessions
		SET token = ?, fingerprint = ?, expires_at = ?, updated_at = ?
		WHERE id = ?
	`,
		strings.TrimSpace(session.Token),
		strings.TrimSpace(session.Fingerprint),
		formatTime(session.ExpiresAt),
		formatTime(session.UpdatedAt),
		session.ID,
	)
	if err != nil {
		return persistence.Session{}, r.mapper.MapError(err)
	}
	if err := requireAffected(result); err != nil {
		return persistence.Session{}, err
	}
	return r.GetSession(ctx, session.ID)
}

// RevokeSession marks a session as revoked; revoking twice keeps the first timestamp
func (r *SessionRepository) RevokeSession(ctx context.Context, id string, revokedAt time.Time) (persistence.Session, error) {
	if strings.TrimSpace(id) == "" {
		return persistence.Session{}, persistence.ErrNotFound
	}

	stamp := formatTime(revokedAt)
	result, err := r.helper.Exec(ctx, `
		UPDATE sessions
		SET revoked_at = COALESCE(revoked_at, ?), updated_at = ?
		WHERE id = ?
	`, stamp, stamp, id)
	if err != nil {
		return persistence.Session{}, r.mapper.MapError(err)
	}
	if err := requireAffected(result); err != nil {
		return persistence.Session{}, err
	}
	return r.GetSession(ctx, id)
}

// DeleteExpiredSessions removes sessions that expired at or before reference
func (r *SessionRepository) DeleteExpiredSessions(ctx context.Context, reference time.Time) error {
	if _, err := r.helper.Exec(ctx, `DELETE FROM sessions WHERE expires_at <= ?`, formatTime(reference)); err != nil {
		return r.mapper.MapError(err)
	}
	return nil
}
