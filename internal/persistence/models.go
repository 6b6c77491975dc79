package persistence

import "time"

// Profile is the directory record for a person who can sign in.
type Profile struct {
	ID          string
	DisplayName string
	Email       string
	Role        string
	JobTitle    *string
	Phone       *string
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Identity stores the sign-in credentials that back a profile.
type Identity struct {
	ID           string
	Email        string
	PasswordHash string
	Disabled     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
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

// Booking represents a reservation row.
type Booking struct {
	ID                       string
	RoomID                   string
	UserID                   string
	Title                    string
	Description              *string
	StartTime                time.Time
	EndTime                  time.Time
	AttendeeCount            int
	Attendees                []string
	Status                   string
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

// RoomBlock is an administrator defined blackout window on a room.
type RoomBlock struct {
	ID        string
	RoomID    string
	StartTime time.Time
	EndTime   time.Time
	Reason    *string
	CreatedBy string
	CreatedAt time.Time
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

// OrgSettings is the single organisation wide settings row.
type OrgSettings struct {
	OrganizationName         string
	Timezone                 string
	DefaultCancellationHours int
	NotificationEmail        *string
	UpdatedAt                time.Time
}

// Session represents an authentication session persisted for a user.
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
