package postgres

import (
	"context"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/example/roombook/internal/persistence"
)

const profileColumns = `id, display_name, email, role, job_title, phone, active, created_at, updated_at`

const sessionColumns = `id, user_id, token, fingerprint, expires_at, revoked_at, created_at, updated_at`

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CreateProfile inserts a profile.
func (s *Storage) CreateProfile(ctx context.Context, p persistence.Profile) error {
	if p.ID == "" || normalizeEmail(p.Email) == "" {
		return persistence.ErrConstraintViolation
	}
	p.CreatedAt = stampNow(p.CreatedAt)
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = p.CreatedAt
	}
	_, err := s.pool.Exec(ctx, `INSERT INTO profiles (`+profileColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		p.ID, p.DisplayName, normalizeEmail(p.Email), p.Role, p.JobTitle, p.Phone, p.Active, p.CreatedAt, p.UpdatedAt,
	)
	return mapError(err)
}

// UpdateProfile replaces the mutable columns of a profile.
func (s *Storage) UpdateProfile(ctx context.Context, p persistence.Profile) error {
	if p.ID == "" {
		return persistence.ErrConstraintViolation
	}
	tag, err := s.pool.Exec(ctx, `
		UPDATE profiles
		SET display_name = $1, email = $2, role = $3, job_title = $4, phone = $5, active = $6, updated_at = $7
		WHERE id = $8`,
		p.DisplayName, normalizeEmail(p.Email), p.Role, p.JobTitle, p.Phone, p.Active, stampNow(p.UpdatedAt), p.ID,
	)
	if err != nil {
		return mapError(err)
	}
	return requireAffected(tag)
}

// GetProfile returns a profile by ID.
func (s *Storage) GetProfile(ctx context.Context, id string) (persistence.Profile, error) {
	if id == "" {
		return persistence.Profile{}, persistence.ErrNotFound
	}
	p, err := scanProfile(s.pool.QueryRow(ctx, `SELECT `+profileColumns+` FROM profiles WHERE id = $1`, id))
	if err != nil {
		return persistence.Profile{}, mapError(err)
	}
	return p, nil
}

// ListProfiles returns profiles ordered by display name.
func (s *Storage) ListProfiles(ctx context.Context) ([]persistence.Profile, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+profileColumns+` FROM profiles ORDER BY display_name, id`)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var profiles []persistence.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, mapError(err)
		}
		profiles = append(profiles, p)
	}
	return profiles, mapError(rows.Err())
}

// DeleteProfile removes a profile; its bookings cascade.
func (s *Storage) DeleteProfile(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM profiles WHERE id = $1`, id)
	if err != nil {
		return mapError(err)
	}
	return requireAffected(tag)
}

func scanProfile(row pgx.Row) (persistence.Profile, error) {
	var p persistence.Profile
	if err := row.Scan(&p.ID, &p.DisplayName, &p.Email, &p.Role, &p.JobTitle, &p.Phone, &p.Active, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return persistence.Profile{}, err
	}
	return p, nil
}

// CreateIdentity stores sign-in credentials.
func (s *Storage) CreateIdentity(ctx context.Context, identity persistence.Identity) error {
	if identity.ID == "" || normalizeEmail(identity.Email) == "" || identity.PasswordHash == "" {
		return persistence.ErrConstraintViolation
	}
	identity.CreatedAt = stampNow(identity.CreatedAt)
	if identity.UpdatedAt.IsZero() {
		identity.UpdatedAt = identity.CreatedAt
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO identities (id, email, password_hash, disabled, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		identity.ID, normalizeEmail(identity.Email), identity.PasswordHash, identity.Disabled,
		identity.CreatedAt, identity.UpdatedAt,
	)
	return mapError(err)
}

// GetIdentity returns credentials by ID.
func (s *Storage) GetIdentity(ctx context.Context, id string) (persistence.Identity, error) {
	if id == "" {
		return persistence.Identity{}, persistence.ErrNotFound
	}
	return s.queryIdentity(ctx, `id = $1`, id)
}

// GetIdentityByEmail returns credentials by normalised email.
func (s *Storage) GetIdentityByEmail(ctx context.Context, email string) (persistence.Identity, error) {
	normalized := normalizeEmail(email)
	if normalized == "" {
		return persistence.Identity{}, persistence.ErrNotFound
	}
	return s.queryIdentity(ctx, `email = $1`, normalized)
}

// DeleteIdentity removes credentials; sessions cascade.
func (s *Storage) DeleteIdentity(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM identities WHERE id = $1`, id)
	if err != nil {
		return mapError(err)
	}
	return requireAffected(tag)
}

func (s *Storage) queryIdentity(ctx context.Context, where string, arg any) (persistence.Identity, error) {
	var identity persistence.Identity
	err := s.pool.QueryRow(ctx,
		`SELECT id, email, password_hash, disabled, created_at, updated_at FROM identities WHERE `+where, arg,
	).Scan(&identity.ID, &identity.Email, &identity.PasswordHash, &identity.Disabled, &identity.CreatedAt, &identity.UpdatedAt)
	if err != nil {
		return persistence.Identity{}, mapError(err)
	}
	return identity, nil
}

// CreateSession stores a session.
func (s *Storage) CreateSession(ctx context.Context, session persistence.Session) (persistence.Session, error) {
	if session.ID == "" || session.UserID == "" || strings.TrimSpace(session.Token) == "" {
		return persistence.Session{}, persistence.ErrConstraintViolation
	}
	session.CreatedAt = stampNow(session.CreatedAt)
	if session.UpdatedAt.IsZero() {
		session.UpdatedAt = session.CreatedAt
	}
	created, err := scanSession(s.pool.QueryRow(ctx, `
		INSERT INTO sessions (`+sessionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+sessionColumns,
		session.ID, session.UserID, strings.TrimSpace(session.Token), strings.TrimSpace(session.Fingerprint),
		session.ExpiresAt, session.RevokedAt, session.CreatedAt, session.UpdatedAt,
	))
	if err != nil {
		return persistence.Session{}, mapError(err)
	}
	return created, nil
}

// GetSession returns a session by ID.
func (s *Storage) GetSession(ctx context.Context, id string) (persistence.Session, error) {
	if strings.TrimSpace(id) == "" {
		return persistence.Session{}, persistence.ErrNotFound
	}
	session, err := scanSession(s.pool.QueryRow(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE id = $1`, id))
	if err != nil {
		return persistence.Session{}, mapError(err)
	}
	return session, nil
}

// UpdateSession rotates the token and expiry of a session.
func (s *Storage) UpdateSession(ctx context.Context, session persistence.Session) (persistence.Session, error) {
	if session.ID == "" || strings.TrimSpace(session.Token) == "" {
		return persistence.Session{}, persistence.ErrConstraintViolation
	}
	updated, err := scanSession(s.pool.QueryRow(ctx, `
		UPDATE sessions SET token = $1, fingerprint = $2, expires_at = $3, updated_at = $4
		WHERE id = $5
		RETURNING `+sessionColumns,
		strings.TrimSpace(session.Token), strings.TrimSpace(session.Fingerprint), session.ExpiresAt,
		stampNow(session.UpdatedAt), session.ID,
	))
	if err != nil {
		return persistence.Session{}, mapError(err)
	}
	return updated, nil
}

// RevokeSession marks a session revoked, keeping the first revocation time.
func (s *Storage) RevokeSession(ctx context.Context, id string, revokedAt time.Time) (persistence.Session, error) {
	revoked, err := scanSession(s.pool.QueryRow(ctx, `
		UPDATE sessions SET revoked_at = COALESCE(revoked_at, $1), updated_at = $1
		WHERE id = $2
		RETURNING `+sessionColumns,
		revokedAt.UTC(), id,
	))
	if err != nil {
		return persistence.Session{}, mapError(err)
	}
	return revoked, nil
}

// DeleteExpiredSessions removes sessions expired at or before reference.
func (s *Storage) DeleteExpiredSessions(ctx context.Context, reference time.Time) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM sessions WHERE expires_at <= $1`, reference.UTC())
	return mapError(err)
}

func scanSession(row pgx.Row) (persistence.Session, error) {
	var session persistence.Session
	err := row.Scan(
		&session.ID, &session.UserID, &session.Token, &session.Fingerprint,
		&session.ExpiresAt, &session.RevokedAt, &session.CreatedAt, &session.UpdatedAt,
	)
	if err != nil {
		return persistence.Session{}, err
	}
	return session, nil
}
