package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/example/roombook/internal/persistence"
)

const profileColumns = `id, display_name, email, role, job_title, phone, active, created_at, updated_at`

// ProfileRepository implements persistence.ProfileRepository and
// persistence.IdentityRepository using SQLite
type ProfileRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewProfileRepository creates a new SQLite profile repository
func NewProfileRepository(pool *ConnectionPool) *ProfileRepository {
	return &ProfileRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

// CreateProfile inserts a new profile
func (r *ProfileRepository) CreateProfile(ctx context.Context, profile persistence.Profile) error {
	if profile.ID == "" || strings.TrimSpace(profile.Email) == "" {
		return persistence.ErrConstraintViolation
	}
	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = time.Now().UTC()
	}
	if profile.UpdatedAt.IsZero() {
		profile.UpdatedAt = profile.CreatedAt
	}

	_, err := r.helper.Exec(ctx, `INSERT INTO profiles (`+profileColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		profile.ID,
		profile.DisplayName,
		strings.ToLower(strings.TrimSpace(profile.Email)),
		profile.Role,
		nullString(profile.JobTitle),
		nullString(profile.Phone),
		profile.Active,
		formatTime(profile.CreatedAt),
		formatTime(profile.UpdatedAt),
	)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return nil
}

// UpdateProfile replaces the mutable columns of a profile
func (r *ProfileRepository) UpdateProfile(ctx context.Context, profile persistence.Profile) error {
	if profile.ID == "" {
		return persistence.ErrConstraintViolation
	}
	if profile.UpdatedAt.IsZero() {
		profile.UpdatedAt = time.Now().UTC()
	}

	result, err := r.helper.Exec(ctx, `
		UPDATE profiles
		SET display_name = ?, email = ?, role = ?, job_title = ?, phone = ?, active = ?, updated_at = ?
		WHERE id = ?
	`,
		profile.DisplayName,
		strings.ToLower(strings.TrimSpace(profile.Email)),
		profile.Role,
		nullString(profile.JobTitle),
		nullString(profile.Phone),
		profile.Active,
		formatTime(profile.UpdatedAt),
		profile.ID,
	)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return requireAffected(result)
}

// GetProfile retrieves a profile by ID
func (r *ProfileRepository) GetProfile(ctx context.Context, id string) (persistence.Profile, error) {
	if id == "" {
		return persistence.Profile{}, persistence.ErrNotFound
	}
	profile, err := scanProfile(r.helper.QueryRow(ctx, `SELECT `+profileColumns+` FROM profiles WHERE id = ?`, id))
	if err != nil {
		return persistence.Profile{}, r.mapper.MapError(err)
	}
	return profile, nil
}

// ListProfiles returns all profiles ordered by display name then ID
func (r *ProfileRepository) ListProfiles(ctx context.Context) ([]persistence.Profile, error) {
	rows, err := r.helper.Query(ctx, `SELECT `+profileColumns+` FROM profiles ORDER BY display_name ASC, id ASC`)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var profiles []persistence.Profile
	for rows.Next() {
		profile, err := scanProfile(rows)
		if err != nil {
			return nil, r.mapper.MapError(err)
		}
		profiles = append(profiles, profile)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return profiles, nil
}

// DeleteProfile removes a profile; its bookings cascade
func (r *ProfileRepository) DeleteProfile(ctx context.Context, id string) error {
	if id == "" {
		return persistence.ErrNotFound
	}
	result, err := r.helper.Exec(ctx, `DELETE FROM profiles WHERE id = ?`, id)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return requireAffected(result)
}

// CreateIdentity stores sign-in credentials
func (r *ProfileRepository) CreateIdentity(ctx context.Context, identity persistence.Identity) error {
	if identity.ID == "" || strings.TrimSpace(identity.Email) == "" || identity.PasswordHash == "" {
		return persistence.ErrConstraintViolation
	}
	if identity.CreatedAt.IsZero() {
		identity.CreatedAt = time.Now().UTC()
	}
	if identity.UpdatedAt.IsZero() {
		identity.UpdatedAt = identity.CreatedAt
	}

	_, err := r.helper.Exec(ctx, `
		INSERT INTO identities (id, email, password_hash, disabled, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		identity.ID,
		strings.ToLower(strings.TrimSpace(identity.Email)),
		identity.PasswordHash,
		identity.Disabled,
		formatTime(identity.CreatedAt),
		formatTime(identity.UpdatedAt),
	)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return nil
}

// GetIdentity retrieves credentials by identity ID
func (r *ProfileRepository) GetIdentity(ctx context.Context, id string) (persistence.Identity, error) {
	if id == "" {
		return persistence.Identity{}, persistence.ErrNotFound
	}
	return r.queryIdentity(ctx, `WHERE id = ?`, id)
}

// GetIdentityByEmail retrieves credentials by normalised email address
func (r *ProfileRepository) GetIdentityByEmail(ctx context.Context, email string) (persistence.Identity, error) {
	normalized := strings.ToLower(strings.TrimSpace(email))
	if normalized == "" {
		return persistence.Identity{}, persistence.ErrNotFound
	}
	return r.queryIdentity(ctx, `WHERE email = ?`, normalized)
}

// DeleteIdentity removes credentials; sessions cascade
func (r *ProfileRepository) DeleteIdentity(ctx context.Context, id string) error {
	if id == "" {
		return persistence.ErrNotFound
	}
	result, err := r.helper.Exec(ctx, `DELETE FROM identities WHERE id = ?`, id)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return requireAffected(result)
}

func (r *ProfileRepository) queryIdentity(ctx context.Context, where string, arg any) (persistence.Identity, error) {
	var (
		identity                   persistence.Identity
		createdAtStr, updatedAtStr string
	)
	err := r.helper.QueryRow(ctx,
		`SELECT id, email, password_hash, disabled, created_at, updated_at FROM identities `+where, arg,
	).Scan(
		&identity.ID,
		&identity.Email,
		&identity.PasswordHash,
		&identity.Disabled,
		&createdAtStr,
		&updatedAtStr,
	)
	if err != nil {
		return persistence.Identity{}, r.mapper.MapError(err)
	}
	if identity.CreatedAt, err = parseTime(createdAtStr); err != nil {
		return persistence.Identity{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if identity.UpdatedAt, err = parseTime(updatedAtStr); err != nil {
		return persistence.Identity{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	return identity, nil
}

func scanProfile(row rowScanner) (persistence.Profile, error) {
	var (
		profile                    persistence.Profile
		jobTitle, phone            sql.NullString
		createdAtStr, updatedAtStr string
	)
	err := row.Scan(
		&profile.ID,
		&profile.DisplayName,
		&profile.Email,
		&profile.Role,
		&jobTitle,
		&phone,
		&profile.Active,
		&createdAtStr,
		&updatedAtStr,
	)
	if err != nil {
		return persistence.Profile{}, err
	}
	profile.JobTitle = stringPtr(jobTitle)
	profile.Phone = stringPtr(phone)
	if profile.CreatedAt, err = parseTime(createdAtStr); err != nil {
		return persistence.Profile{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if profile.UpdatedAt, err = parseTime(updatedAtStr); err != nil {
		return persistence.Profile{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	return profile, nil
}
