package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/roombook/internal/application"
)

var (
	profileCounter uint64
	roomCounter    uint64
	bookingCounter uint64
)

var referenceTime = time.Date(2024, time.March, 1, 8, 0, 0, 0, time.UTC)

// ReferenceTime is the baseline instant used by fixtures and NewClock.
func ReferenceTime() time.Time {
	return referenceTime
}

// ----------------------------- Profile fixtures -----------------------------

// ProfileFixture is a deterministic directory profile.
type ProfileFixture struct {
	ID          string
	Email       string
	DisplayName string
	Role        application.Role
	Active      bool
	CreatedAt   time.Time
}

type ProfileOption func(*ProfileFixture)

func NewProfileFixture(opts ...ProfileOption) ProfileFixture {
	idx := atomic.AddUint64(&profileCounter, 1)
	id := fmt.Sprintf("user-%03d", idx)
	fixture := ProfileFixture{
		ID:          id,
		Email:       id + "@example.com",
		DisplayName: fmt.Sprintf("User %03d", idx),
		Role:        application.RoleUser,
		Active:      true,
		CreatedAt:   referenceTime,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

func WithProfileID(id string) ProfileOption {
	return func(f *ProfileFixture) { f.ID = id }
}

func WithProfileEmail(email string) ProfileOption {
	return func(f *ProfileFixture) { f.Email = email }
}

func WithProfileRole(role application.Role) ProfileOption {
	return func(f *ProfileFixture) { f.Role = role }
}

func WithProfileInactive() ProfileOption {
	return func(f *ProfileFixture) { f.Active = false }
}

func (f ProfileFixture) Application() application.User {
	return application.User{
		ID:          f.ID,
		Email:       f.Email,
		DisplayName: f.DisplayName,
		Role:        f.Role,
		Active:      f.Active,
		CreatedAt:   f.CreatedAt,
		UpdatedAt:   f.CreatedAt,
	}
}

func (f ProfileFixture) Principal() application.Principal {
	return application.Principal{UserID: f.ID, Role: f.Role}
}

// Input returns a creation payload with password.
func (f ProfileFixture) Input(password string) application.UserInput {
	return application.UserInput{
		Email:       f.Email,
		Password:    password,
		DisplayName: f.DisplayName,
		Role:        f.Role,
	}
}

// ----------------------------- Room fixtures -----------------------------

// RoomFixture is a deterministic room definition.
type RoomFixture struct {
	ID                string
	Name              string
	Location          string
	Capacity          int
	Color             string
	RequiresApproval  bool
	CancellationHours int
	Equipment         []string
}

type RoomOption func(*RoomFixture)

func NewRoomFixture(opts ...RoomOption) RoomFixture {
	idx := atomic.AddUint64(&roomCounter, 1)
	fixture := RoomFixture{
		ID:                fmt.Sprintf("room-%03d", idx),
		Name:              fmt.Sprintf("Room %03d", idx),
		Location:          fmt.Sprintf("Floor %d", idx%10+1),
		Capacity:          6,
		Color:             "#3B82F6",
		CancellationHours: 24,
		Equipment:         []string{"projector"},
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

func WithRoomID(id string) RoomOption {
	return func(f *RoomFixture) { f.ID = id }
}

func WithRoomName(name string) RoomOption {
	return func(f *RoomFixture) { f.Name = name }
}

func WithRoomApproval(required bool) RoomOption {
	return func(f *RoomFixture) { f.RequiresApproval = required }
}

func WithRoomCancellationHours(hours int) RoomOption {
	return func(f *RoomFixture) { f.CancellationHours = hours }
}

func (f RoomFixture) Application() application.Room {
	return application.Room{
		ID:                f.ID,
		Name:              f.Name,
		Capacity:          f.Capacity,
		Location:          f.Location,
		Equipment:         append([]string(nil), f.Equipment...),
		Tags:              []string{},
		ImageURLs:         []string{},
		Color:             f.Color,
		RequiresApproval:  f.RequiresApproval,
		CancellationHours: f.CancellationHours,
		TimeSlotMinutes:   30,
		Bookable:          true,
		Active:            true,
		CreatedAt:         referenceTime,
		UpdatedAt:         referenceTime,
	}
}

func (f RoomFixture) Input() application.RoomInput {
	hours := f.CancellationHours
	return application.RoomInput{
		Name:              f.Name,
		Capacity:          f.Capacity,
		Location:          f.Location,
		Equipment:         append([]string(nil), f.Equipment...),
		Color:             f.Color,
		RequiresApproval:  f.RequiresApproval,
		CancellationHours: &hours,
	}
}

// ----------------------------- Booking fixtures -----------------------------

// BookingFixture is a deterministic one hour booking starting an hour after ReferenceTime.
type BookingFixture struct {
	ID            string
	RoomID        string
	UserID        string
	Title         string
	Start         time.Time
	End           time.Time
	AttendeeCount int
	Attendees     []string
	Status        application.BookingStatus
}

type BookingOption func(*BookingFixture)

func NewBookingFixture(opts ...BookingOption) BookingFixture {
	idx := atomic.AddUint64(&bookingCounter, 1)
	start := referenceTime.Add(time.Hour)
	fixture := BookingFixture{
		ID:            fmt.Sprintf("booking-%03d", idx),
		RoomID:        "room-001",
		UserID:        "user-001",
		Title:         fmt.Sprintf("Meeting %03d", idx),
		Start:         start,
		End:           start.Add(time.Hour),
		AttendeeCount: 1,
		Status:        application.BookingApproved,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

func WithBookingID(id string) BookingOption {
	return func(f *BookingFixture) { f.ID = id }
}

func WithBookingRoom(roomID string) BookingOption {
	return func(f *BookingFixture) { f.RoomID = roomID }
}

func WithBookingOwner(userID string) BookingOption {
	return func(f *BookingFixture) { f.UserID = userID }
}

func WithBookingWindow(start, end time.Time) BookingOption {
	return func(f *BookingFixture) { f.Start, f.End = start, end }
}

func WithBookingStatus(status application.BookingStatus) BookingOption {
	return func(f *BookingFixture) { f.Status = status }
}

func WithBookingAttendees(attendees ...string) BookingOption {
	return func(f *BookingFixture) {
		f.Attendees = attendees
		if len(attendees) > f.AttendeeCount {
			f.AttendeeCount = len(attendees)
		}
	}
}

func (f BookingFixture) Application() application.Booking {
	return application.Booking{
		ID:            f.ID,
		RoomID:        f.RoomID,
		UserID:        f.UserID,
		Title:         f.Title,
		Start:         f.Start,
		End:           f.End,
		AttendeeCount: f.AttendeeCount,
		Attendees:     append([]string{}, f.Attendees...),
		Status:        f.Status,
		CreatedAt:     referenceTime,
		UpdatedAt:     referenceTime,
	}
}

func (f BookingFixture) Input() application.BookingInput {
	return application.BookingInput{
		RoomID:        f.RoomID,
		UserID:        f.UserID,
		Title:         f.Title,
		Start:         f.Start,
		End:           f.End,
		AttendeeCount: f.AttendeeCount,
		Attendees:     append([]string(nil), f.Attendees...),
	}
}
