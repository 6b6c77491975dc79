package persistence

import (
	"context"
	"time"
)

// ProfileRepository exposes CRUD operations for profiles.
type ProfileRepository interface {
	CreateProfile(ctx context.Context, profile Profile) error
	UpdateProfile(ctx context.Context, profile Profile) error
	GetProfile(ctx context.Context, id string) (Profile, error)
	ListProfiles(ctx context.Context) ([]Profile, error)
	DeleteProfile(ctx context.Context, id string) error
}

// IdentityRepository stores credentials used to sign in.
type IdentityRepository interface {
	CreateIdentity(ctx context.Context, identity Identity) error
	GetIdentity(ctx context.Context, id string) (Identity, error)
	GetIdentityByEmail(ctx context.Context, email string) (Identity, error)
	DeleteIdentity(ctx context.Context, id string) error
}

// RoomFilter narrows room queries.
type RoomFilter struct {
	Active *bool
}

// RoomRepository exposes CRUD operations for rooms.
type RoomRepository interface {
	CreateRoom(ctx context.Context, room Room) error
	UpdateRoom(ctx context.Context, room Room) error
	GetRoom(ctx context.Context, id string) (Room, error)
	ListRooms(ctx context.Context, filter RoomFilter) ([]Room, error)
	DeleteRoom(ctx context.Context, id string) error
}

// BookingFilter narrows booking queries. Zero values are ignored.
type BookingFilter struct {
	UserID string
	RoomID string
	Status string
	// StartsBefore keeps bookings whose start is strictly before the bound.
	StartsBefore *time.Time
	// EndsAfter keeps bookings whose end is strictly after the bound.
	EndsAfter *time.Time
}

// BookingRepository stores reservations.
type BookingRepository interface {
	CreateBooking(ctx context.Context, booking Booking) error
	UpdateBooking(ctx context.Context, booking Booking) error
	GetBooking(ctx context.Context, id string) (Booking, error)
	ListBookings(ctx context.Context, filter BookingFilter) ([]Booking, error)
	DeleteBooking(ctx context.Context, id string) error
}

// RoomBlockRepository stores blackout windows.
type RoomBlockRepository interface {
	CreateRoomBlock(ctx context.Context, block RoomBlock) error
	GetRoomBlock(ctx context.Context, id string) (RoomBlock, error)
	ListRoomBlocks(ctx context.Context, roomID string) ([]RoomBlock, error)
	DeleteRoomBlock(ctx context.Context, id string) error
}

// AuditRepository appends and reads the administrative audit trail.
type AuditRepository interface {
	AppendAudit(ctx context.Context, entry AuditEntry) error
	ListAudit(ctx context.Context, limit int) ([]AuditEntry, error)
}

// SettingsRepository reads and writes the organisation settings row.
type SettingsRepository interface {
	GetSettings(ctx context.Context) (OrgSettings, error)
	SaveSettings(ctx context.Context, settings OrgSettings) error
}

// SessionRepository stores authentication session state.
type SessionRepository interface {
	CreateSession(ctx context.Context, session Session) (Session, error)
	GetSession(ctx context.Context, id string) (Session, error)
	UpdateSession(ctx context.Context, session Session) (Session, error)
	RevokeSession(ctx context.Context, id string, revokedAt time.Time) (Session, error)
	DeleteExpiredSessions(ctx context.Context, reference time.Time) error
}
