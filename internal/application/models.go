package application

import "time"

// Role is the coarse permission level stored on a profile.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleEditor Role = "editor"
	RoleUser   Role = "user"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleEditor, RoleUser:
		return true
	}
	return false
}

// Principal represents the authenticated user invoking a service method.
type Principal struct {
	UserID string
	Role   Role
}

// BookingStatus is the lifecycle state of a booking.
type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingApproved  BookingStatus = "approved"
	BookingRejected  BookingStatus = "rejected"
	BookingCancelled BookingStatus = "cancelled"
)

// Valid reports whether s is one of the known statuses.
func (s BookingStatus) Valid() bool {
	switch s {
	case BookingPending, BookingApproved, BookingRejected, BookingCancelled:
		return true
	}
	return false
}

// Room represents a bookable resource.
type Room struct {
	ID                 string
	Name               string
	Description        *string
	Capacity           int
	Location           string
	Equipment          []string
	Tags               []string
	ImageURLs          []string
	Color              string
	RequiresApproval   bool
	CancellationHours  int
	TimeSlotMinutes    int
	MinDurationMinutes *int
	MaxDurationMinutes *int
	Bookable           bool
	Active             bool
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// RoomInput captures caller provided room fields on creation. Nil pointers
// fall back to defaults.
type RoomInput struct {
	Name               string  `validate:"required,max=200"`
	Description        *string `validate:"omitempty,max=2000"`
	Capacity           int     `validate:"min=1"`
	Location           string  `validate:"max=200"`
	Equipment          []string
	Tags               []string
	ImageURLs          []string
	Color              string `validate:"omitempty,roomcolor"`
	RequiresApproval   bool
	CancellationHours  *int `validate:"omitempty,min=0"`
	TimeSlotMinutes    *int `validate:"omitempty,min=1"`
	MinDurationMinutes *int `validate:"omitempty,min=0"`
	MaxDurationMinutes *int `validate:"omitempty,min=0"`
	Bookable           *bool
	Active             *bool
}

// RoomPatch carries a partial room update; nil fields are left untouched.
type RoomPatch struct {
	Name               *string `validate:"omitempty,min=1,max=200"`
	Description        *string `validate:"omitempty,max=2000"`
	Capacity           *int    `validate:"omitempty,min=1"`
	Location           *string `validate:"omitempty,max=200"`
	Equipment          *[]string
	Tags               *[]string
	ImageURLs          *[]string
	Color              *string `validate:"omitempty,roomcolor"`
	RequiresApproval   *bool
	CancellationHours  *int `validate:"omitempty,min=0"`
	TimeSlotMinutes    *int `validate:"omitempty,min=1"`
	MinDurationMinutes *int `validate:"omitempty,min=0"`
	MaxDurationMinutes *int `validate:"omitempty,min=0"`
	Bookable           *bool
	Active             *bool
}

// RoomFilter narrows room listings.
type RoomFilter struct {
	Active *bool
}

// RoomBlock is an administrator defined blackout window on a room.
type RoomBlock struct {
	ID        string
	RoomID    string
	Start     time.Time
	End       time.Time
	Reason    *string
	CreatedBy string
	CreatedAt time.Time
}

// RoomBlockInput captures caller provided blackout window fields.
type RoomBlockInput struct {
	RoomID string
	Start  time.Time
	End    time.Time
	Reason *string
}

// Booking represents a reservation of a room by a user.
type Booking struct {
	ID                       string
	RoomID                   string
	UserID                   string
	Title                    string
	Description              *string
	Start                    time.Time
	End                      time.Time
	AttendeeCount            int
	Attendees                []string
	Status                   BookingStatus
	RequiresApprovalSnapshot bool
	RejectionReason          *string
	CancellationReason       *string
	ApprovedBy               *string
	ApprovedAt               *time.Time
	CancelledBy              *string
	CancelledAt              *time.Time
	IsRecurring              bool
	RecurrenceRule           *string
	CreatedAt                time.Time
	UpdatedAt                time.Time
}

// BookingInput captures caller provided booking fields.
type BookingInput struct {
	RoomID         string
	UserID         string
	Title          string
	Description    *string
	Start          time.Time
	End            time.Time
	AttendeeCount  int
	Attendees      []string
	IsRecurring    bool
	RecurrenceRule *string
}

// BookingFilter narrows booking listings. Zero values are ignored.
type BookingFilter struct {
	UserID string
	RoomID string
	Status BookingStatus
	// StartsBefore keeps bookings starting strictly before the bound.
	StartsBefore *time.Time
	// EndsAfter keeps bookings ending strictly after the bound.
	EndsAfter *time.Time
}

// RoomSummary is the room projection joined onto booking listings.
type RoomSummary struct {
	ID       string
	Name     string
	Location string
	Color    string
}

// UserSummary is the profile projection joined onto booking listings.
type UserSummary struct {
	ID          string
	DisplayName string
	Email       string
}

// BookingView is a booking with its room and owner joined in.
type BookingView struct {
	Booking
	Room *RoomSummary
	User *UserSummary
}

// ConflictWarning describes an overlapping booking surfaced alongside a new booking.
type ConflictWarning struct {
	BookingID   string
	Type        string
	RoomID      string
	Participant string
}

// CreateBookingParams wraps the data required to create a booking.
type CreateBookingParams struct {
	Principal Principal
	Input     BookingInput
}

// CreateBookingResult carries the stored booking and any overlap warnings.
type CreateBookingResult struct {
	Booking  Booking
	Warnings []ConflictWarning
}

// TransitionParams wraps an administrative status change.
type TransitionParams struct {
	Principal Principal
	BookingID string
	Status    BookingStatus
	Reason    *string
}

// UpdateBookingStatusParams is the payload of a status update request, which
// is either an administrative transition or an owner cancellation.
type UpdateBookingStatusParams struct {
	Principal          Principal
	BookingID          string
	Status             BookingStatus
	RejectionReason    *string
	CancellationReason *string
}

// User is a directory profile.
type User struct {
	ID          string
	Email       string
	DisplayName string
	Role        Role
	JobTitle    *string
	Phone       *string
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// UserInput captures caller provided fields when an administrator creates a user.
type UserInput struct {
	Email       string `validate:"required,email"`
	Password    string `validate:"required,min=8"`
	DisplayName string `validate:"required,max=200"`
	Role        Role   `validate:"omitempty,oneof=admin editor user"`
	JobTitle    *string
	Phone       *string
}

// UserPatch carries a partial profile update; nil fields are left untouched.
type UserPatch struct {
	DisplayName *string `validate:"omitempty,min=1,max=200"`
	Email       *string `validate:"omitempty,email"`
	Role        *Role   `validate:"omitempty,oneof=admin editor user"`
	JobTitle    *string
	Phone       *string
	Active      *bool
}

// Credentials models the sign-in identity stored for a user.
type Credentials struct {
	UserID       string
	Email        string
	PasswordHash string
	Disabled     bool
	CreatedAt    time.Time
}

// Session represents an authenticated session issued to a user.
type Session struct {
	ID          string
	UserID      string
	Token       string
	Fingerprint string
	ExpiresAt   time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
	RevokedAt   *time.Time
}

// AuthenticateParams captures the data required to authenticate a user.
type AuthenticateParams struct {
	Email       string
	Password    string
	Fingerprint string
}

// AuthenticateResult captures the outcome of a successful authentication attempt.
type AuthenticateResult struct {
	User        User
	Session     Session
	AccessToken string
}

// RefreshSessionParams captures the data required to refresh an existing session.
type RefreshSessionParams struct {
	Token       string
	Fingerprint string
}

// RefreshSessionResult captures the outcome of rotating a session token.
type RefreshSessionResult struct {
	Session     Session
	AccessToken string
}

// Settings is the organisation wide configuration row.
type Settings struct {
	OrganizationName         string  `validate:"required,max=200"`
	Timezone                 string  `validate:"required,timezone"`
	DefaultCancellationHours int     `validate:"min=0"`
	NotificationEmail        *string `validate:"omitempty,email"`
	UpdatedAt                time.Time
}

// AuditEntry records an administrative mutation.
type AuditEntry struct {
	ID         string
	ActorID    string
	Action     string
	EntityType string
	EntityID   string
	Details    *string
	CreatedAt  time.Time
}
