package application

import (
	"context"
	"time"
)

// AvailabilityStatus is the derived state of a room at an instant.
type AvailabilityStatus string

const (
	AvailabilityBusy      AvailabilityStatus = "busy"
	AvailabilityAvailable AvailabilityStatus = "available"
)

// Availability is the result of evaluating one room.
type Availability struct {
	Status  AvailabilityStatus
	Booking *Booking
}

// RoomAvailability pairs a room with its evaluated state.
type RoomAvailability struct {
	Room Room
	Availability
}

// EvaluateAvailability scans bookings for roomID and reports busy when an
// approved booking satisfies start <= now <= end. The first match wins.
func EvaluateAvailability(roomID string, bookings []Booking, now time.Time) Availability {
	for i := range bookings {
		b := bookings[i]
		if b.RoomID != roomID || b.Status != BookingApproved {
			continue
		}
		if !now.Before(b.Start) && !now.After(b.End) {
			return Availability{Status: AvailabilityBusy, Booking: &b}
		}
	}
	return Availability{Status: AvailabilityAvailable}
}

// RoomAvailability evaluates every active room at the instant at. Rooms and
// bookings are fetched once per call.
func (s *BookingService) RoomAvailability(ctx context.Context, principal Principal, at time.Time) (out []RoomAvailability, err error) {
	if s == nil {
		err = errServiceNil("BookingService")
		return
	}
	if principal.UserID == "" {
		err = ErrUnauthorized
		return
	}
	if s.rooms == nil || s.bookings == nil {
		return nil, nil
	}
	if at.IsZero() {
		at = s.now()
	}

	logger := s.loggerWith(ctx, "RoomAvailability", "principal_id", principal.UserID)
	defer func() {
		if err != nil {
			logFailure(ctx, logger, "failed to evaluate availability", err)
		}
	}()

	callCtx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	active := true
	var rooms []Room
	rooms, err = s.rooms.ListRooms(callCtx, RoomFilter{Active: &active})
	if err != nil {
		err = mapRepoError(err)
		return
	}

	startsBefore, endsAfter := availabilityWindow(at)
	var bookings []Booking
	bookings, err = s.bookings.ListBookings(callCtx, BookingFilter{
		Status:       BookingApproved,
		StartsBefore: &startsBefore,
		EndsAfter:    &endsAfter,
	})
	if err != nil {
		err = mapRepoError(err)
		return
	}

	sortRooms(rooms)
	out = make([]RoomAvailability, 0, len(rooms))
	for _, room := range rooms {
		out = append(out, RoomAvailability{Room: room, Availability: EvaluateAvailability(room.ID, bookings, at)})
	}
	return
}

// availabilityWindowMargin pads the day window so strict repository bounds
// hold at any stored timestamp precision.
const availabilityWindowMargin = time.Second

// availabilityWindow returns the repository bounds for the day containing at.
// It only narrows the candidate set; EvaluateAvailability makes the inclusive
// start <= at <= end decision.
func availabilityWindow(at time.Time) (startsBefore, endsAfter time.Time) {
	y, m, d := at.Date()
	dayStart := time.Date(y, m, d, 0, 0, 0, 0, at.Location())
	return dayStart.AddDate(0, 0, 1).Add(availabilityWindowMargin), dayStart.Add(-availabilityWindowMargin)
}
