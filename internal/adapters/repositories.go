// Package adapters bridges the persistence repositories onto the
// repository interfaces consumed by the application services.
package adapters

import (
	"context"
	"strings"
	"time"

	"github.com/example/roombook/internal/application"
	"github.com/example/roombook/internal/persistence"
)

// Store is the full set of repositories a backend provides.
type Store interface {
	persistence.ProfileRepository
	persistence.IdentityRepository
	persistence.RoomRepository
	persistence.BookingRepository
	persistence.SessionRepository
	persistence.RoomBlockRepository
	persistence.AuditRepository
	persistence.SettingsRepository
}

// RoomRepository adapts persistence rooms.
type RoomRepository struct {
	repo persistence.RoomRepository
}

// NewRoomRepository wraps repo.
func NewRoomRepository(repo persistence.RoomRepository) *RoomRepository {
	return &RoomRepository{repo: repo}
}

func (a *RoomRepository) CreateRoom(ctx context.Context, room application.Room) (application.Room, error) {
	if err := a.repo.CreateRoom(ctx, toPersistenceRoom(room)); err != nil {
		return application.Room{}, err
	}
	return a.GetRoom(ctx, room.ID)
}

func (a *RoomRepository) GetRoom(ctx context.Context, id string) (application.Room, error) {
	stored, err := a.repo.GetRoom(ctx, id)
	if err != nil {
		return application.Room{}, err
	}
	return toApplicationRoom(stored), nil
}

func (a *RoomRepository) UpdateRoom(ctx context.Context, room application.Room) (application.Room, error) {
	if err := a.repo.UpdateRoom(ctx, toPersistenceRoom(room)); err != nil {
		return application.Room{}, err
	}
	return a.GetRoom(ctx, room.ID)
}

func (a *RoomRepository) DeleteRoom(ctx context.Context, id string) error {
	return a.repo.DeleteRoom(ctx, id)
}

func (a *RoomRepository) ListRooms(ctx context.Context, filter application.RoomFilter) ([]application.Room, error) {
	models, err := a.repo.ListRooms(ctx, persistence.RoomFilter{Active: filter.Active})
	if err != nil {
		return nil, err
	}
	rooms := make([]application.Room, 0, len(models))
	for _, model := range models {
		rooms = append(rooms, toApplicationRoom(model))
	}
	return rooms, nil
}

// BookingRepository adapts persistence bookings.
type BookingRepository struct {
	repo persistence.BookingRepository
}

// NewBookingRepository wraps repo.
func NewBookingRepository(repo persistence.BookingRepository) *BookingRepository {
	return &BookingRepository{repo: repo}
}

func (a *BookingRepository) CreateBooking(ctx context.Context, booking application.Booking) (application.Booking, error) {
	if err := a.repo.CreateBooking(ctx, toPersistenceBooking(booking)); err != nil {
		return application.Booking{}, err
	}
	return a.GetBooking(ctx, booking.ID)
}

func (a *BookingRepository) UpdateBooking(ctx context.Context, booking application.Booking) (application.Booking, error) {
	if err := a.repo.UpdateBooking(ctx, toPersistenceBooking(booking)); err != nil {
		return application.Booking{}, err
	}
	return a.GetBooking(ctx, booking.ID)
}

func (a *BookingRepository) GetBooking(ctx context.Context, id string) (application.Booking, error) {
	stored, err := a.repo.GetBooking(ctx, id)
	if err != nil {
		return application.Booking{}, err
	}
	return toApplicationBooking(stored), nil
}

func (a *BookingRepository) ListBookings(ctx context.Context, filter application.BookingFilter) ([]application.Booking, error) {
	models, err := a.repo.ListBookings(ctx, persistence.BookingFilter{
		UserID:       filter.UserID,
		RoomID:       filter.RoomID,
		Status:       string(filter.Status),
		StartsBefore: filter.StartsBefore,
		EndsAfter:    filter.EndsAfter,
	})
	if err != nil {
		return nil, err
	}
	bookings := make([]application.Booking, 0, len(models))
	for _, model := range models {
		bookings = append(bookings, toApplicationBooking(model))
	}
	return bookings, nil
}

func (a *BookingRepository) DeleteBooking(ctx context.Context, id string) error {
	return a.repo.DeleteBooking(ctx, id)
}

// ProfileRepository adapts persistence profiles.
type ProfileRepository struct {
	repo persistence.ProfileRepository
}

// NewProfileRepository wraps repo.
func NewProfileRepository(repo persistence.ProfileRepository) *ProfileRepository {
	return &ProfileRepository{repo: repo}
}

func (a *ProfileRepository) CreateProfile(ctx context.Context, user application.User) (application.User, error) {
	if err := a.repo.CreateProfile(ctx, toPersistenceProfile(user)); err != nil {
		return application.User{}, err
	}
	return a.GetProfile(ctx, user.ID)
}

func (a *ProfileRepository) GetProfile(ctx context.Context, id string) (application.User, error) {
	stored, err := a.repo.GetProfile(ctx, id)
	if err != nil {
		return application.User{}, err
	}
	return toApplicationUser(stored), nil
}

func (a *ProfileRepository) UpdateProfile(ctx context.Context, user application.User) (application.User, error) {
	if err := a.repo.UpdateProfile(ctx, toPersistenceProfile(user)); err != nil {
		return application.User{}, err
	}
	return a.GetProfile(ctx, user.ID)
}

func (a *ProfileRepository) DeleteProfile(ctx context.Context, id string) error {
	return a.repo.DeleteProfile(ctx, id)
}

func (a *ProfileRepository) ListProfiles(ctx context.Context) ([]application.User, error) {
	models, err := a.repo.ListProfiles(ctx)
	if err != nil {
		return nil, err
	}
	users := make([]application.User, 0, len(models))
	for _, model := range models {
		users = append(users, toApplicationUser(model))
	}
	return users, nil
}

// IdentityRepository adapts persistence identities to credentials.
type IdentityRepository struct {
	repo persistence.IdentityRepository
	now  func() time.Time
}

// NewIdentityRepository wraps repo.
func NewIdentityRepository(repo persistence.IdentityRepository, now func() time.Time) *IdentityRepository {
	if now == nil {
		now = time.Now
	}
	return &IdentityRepository{repo: repo, now: now}
}

func (a *IdentityRepository) CreateIdentity(ctx context.Context, creds application.Credentials) error {
	created := creds.CreatedAt
	if created.IsZero() {
		created = a.now()
	}
	return a.repo.CreateIdentity(ctx, persistence.Identity{
		ID:           creds.UserID,
		Email:        strings.ToLower(strings.TrimSpace(creds.Email)),
		PasswordHash: creds.PasswordHash,
		Disabled:     creds.Disabled,
		CreatedAt:    created,
		UpdatedAt:    created,
	})
}

func (a *IdentityRepository) GetIdentityByEmail(ctx context.Context, email string) (application.Credentials, error) {
	stored, err := a.repo.GetIdentityByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return application.Credentials{}, err
	}
	return toApplicationCredentials(stored), nil
}

func (a *IdentityRepository) DeleteIdentity(ctx context.Context, id string) error {
	return a.repo.DeleteIdentity(ctx, id)
}

// SessionRepository adapts persistence sessions.
type SessionRepository struct {
	repo persistence.SessionRepository
}

// NewSessionRepository wraps repo.
func NewSessionRepository(repo persistence.SessionRepository) *SessionRepository {
	return &SessionRepository{repo: repo}
}

func (a *SessionRepository) CreateSession(ctx context.Context, session application.Session) (application.Session, error) {
	stored, err := a.repo.CreateSession(ctx, persistence.Session(session))
	if err != nil {
		return application.Session{}, err
	}
	return application.Session(stored), nil
}

func (a *SessionRepository) GetSession(ctx context.Context, id string) (application.Session, error) {
	stored, err := a.repo.GetSession(ctx, id)
	if err != nil {
		return application.Session{}, err
	}
	return application.Session(stored), nil
}

func (a *SessionRepository) UpdateSession(ctx context.Context, session application.Session) (application.Session, error) {
	stored, err := a.repo.UpdateSession(ctx, persistence.Session(session))
	if err != nil {
		return application.Session{}, err
	}
	return application.Session(stored), nil
}

func (a *SessionRepository) RevokeSession(ctx context.Context, id string, revokedAt time.Time) (application.Session, error) {
	stored, err := a.repo.RevokeSession(ctx, id, revokedAt)
	if err != nil {
		return application.Session{}, err
	}
	return application.Session(stored), nil
}

func (a *SessionRepository) DeleteExpiredSessions(ctx context.Context, reference time.Time) error {
	return a.repo.DeleteExpiredSessions(ctx, reference)
}

// RoomBlockRepository adapts persistence room blocks.
type RoomBlockRepository struct {
	repo persistence.RoomBlockRepository
}

// NewRoomBlockRepository wraps repo.
func NewRoomBlockRepository(repo persistence.RoomBlockRepository) *RoomBlockRepository {
	return &RoomBlockRepository{repo: repo}
}

func (a *RoomBlockRepository) CreateRoomBlock(ctx context.Context, block application.RoomBlock) (application.RoomBlock, error) {
	if err := a.repo.CreateRoomBlock(ctx, toPersistenceRoomBlock(block)); err != nil {
		return application.RoomBlock{}, err
	}
	return a.GetRoomBlock(ctx, block.ID)
}

func (a *RoomBlockRepository) GetRoomBlock(ctx context.Context, id string) (application.RoomBlock, error) {
	stored, err := a.repo.GetRoomBlock(ctx, id)
	if err != nil {
		return application.RoomBlock{}, err
	}
	return toApplicationRoomBlock(stored), nil
}

func (a *RoomBlockRepository) ListRoomBlocks(ctx context.Context, roomID string) ([]application.RoomBlock, error) {
	models, err := a.repo.ListRoomBlocks(ctx, roomID)
	if err != nil {
		return nil, err
	}
	blocks := make([]application.RoomBlock, 0, len(models))
	for _, model := range models {
		blocks = append(blocks, toApplicationRoomBlock(model))
	}
	return blocks, nil
}

func (a *RoomBlockRepository) DeleteRoomBlock(ctx context.Context, id string) error {
	return a.repo.DeleteRoomBlock(ctx, id)
}

// AuditRepository adapts the persistence audit log.
type AuditRepository struct {
	repo persistence.AuditRepository
}

// NewAuditRepository wraps repo.
func NewAuditRepository(repo persistence.AuditRepository) *AuditRepository {
	return &AuditRepository{repo: repo}
}

func (a *AuditRepository) AppendAudit(ctx context.Context, entry application.AuditEntry) error {
	return a.repo.AppendAudit(ctx, persistence.AuditEntry(entry))
}

func (a *AuditRepository) ListAudit(ctx context.Context, limit int) ([]application.AuditEntry, error) {
	models, err := a.repo.ListAudit(ctx, limit)
	if err != nil {
		return nil, err
	}
	entries := make([]application.AuditEntry, 0, len(models))
	for _, model := range models {
		entries = append(entries, application.AuditEntry(model))
	}
	return entries, nil
}

// SettingsRepository adapts the organisation settings row.
type SettingsRepository struct {
	repo persistence.SettingsRepository
}

// NewSettingsRepository wraps repo.
func NewSettingsRepository(repo persistence.SettingsRepository) *SettingsRepository {
	return &SettingsRepository{repo: repo}
}

func (a *SettingsRepository) GetSettings(ctx context.Context) (application.Settings, error) {
	stored, err := a.repo.GetSettings(ctx)
	if err != nil {
		return application.Settings{}, err
	}
	return toApplicationSettings(stored), nil
}

func (a *SettingsRepository) SaveSettings(ctx context.Context, settings application.Settings) (application.Settings, error) {
	if err := a.repo.SaveSettings(ctx, toPersistenceSettings(settings)); err != nil {
		return application.Settings{}, err
	}
	return a.GetSettings(ctx)
}

// Repositories bundles every adapter over one Store.
type Repositories struct {
	Rooms      *RoomRepository
	Bookings   *BookingRepository
	Profiles   *ProfileRepository
	Identities *IdentityRepository
	Sessions   *SessionRepository
	RoomBlocks *RoomBlockRepository
	Audit      *AuditRepository
	Settings   *SettingsRepository
}

// Wrap builds all adapters over store.
func Wrap(store Store, now func() time.Time) Repositories {
	return Repositories{
		Rooms:      NewRoomRepository(store),
		Bookings:   NewBookingRepository(store),
		Profiles:   NewProfileRepository(store),
		Identities: NewIdentityRepository(store, now),
		Sessions:   NewSessionRepository(store),
		RoomBlocks: NewRoomBlockRepository(store),
		Audit:      NewAuditRepository(store),
		Settings:   NewSettingsRepository(store),
	}
}
