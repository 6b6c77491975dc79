// Package scheduler detects overlapping bookings. Overlaps are reported as
// warnings only; nothing here prevents a booking from being stored.
package scheduler

import (
	"strings"
	"time"
)

// Booking is the slice of a reservation the overlap detector looks at.
type Booking struct {
	ID     string
	RoomID string
	// Participants holds the owner and attendee identifiers (ids or emails).
	Participants []string
	Start        time.Time
	End          time.Time
}

// ConflictType describes the kind of overlap detected between bookings.
type ConflictType string

const (
	// ConflictTypeRoom indicates the same room is reserved twice.
	ConflictTypeRoom ConflictType = "room"
	// ConflictTypeParticipant indicates a participant is double-booked across rooms.
	ConflictTypeParticipant ConflictType = "participant"
)

// Conflict details an overlapping booking that callers can present to users.
type Conflict struct {
	WithBookingID string
	Type          ConflictType
	RoomID        string
	Participant   string
}

// Overlaps reports whether two half-open intervals [aStart, aEnd) and
// [bStart, bEnd) intersect.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// DetectRoomOverlaps returns the existing bookings of the candidate's room
// whose ranges overlap it, in input order. The candidate itself is skipped.
func DetectRoomOverlaps(existing []Booking, candidate Booking) []Booking {
	var out []Booking
	for _, b := range existing {
		if b.ID == candidate.ID && candidate.ID != "" {
			continue
		}
		if b.RoomID != candidate.RoomID {
			continue
		}
		if Overlaps(b.Start, b.End, candidate.Start, candidate.End) {
			out = append(out, b)
		}
	}
	return out
}

// DetectConflicts identifies room and participant conflicts for the candidate
// booking against existing ones. A room conflict is reported once per
// booking; participant conflicts are reported once per shared participant.
func DetectConflicts(existing []Booking, candidate Booking) []Conflict {
	if !candidate.Start.Before(candidate.End) {
		return nil
	}

	wanted := make(map[string]string, len(candidate.Participants))
	for _, p := range candidate.Participants {
		key := normalizeParticipant(p)
		if key != "" {
			wanted[key] = p
		}
	}

	var conflicts []Conflict
	for _, b := range existing {
		if candidate.ID != "" && b.ID == candidate.ID {
			continue
		}
		if !Overlaps(b.Start, b.End, candidate.Start, candidate.End) {
			continue
		}

		if b.RoomID == candidate.RoomID {
			conflicts = append(conflicts, Conflict{
				WithBookingID: b.ID,
				Type:          ConflictTypeRoom,
				RoomID:        b.RoomID,
			})
			continue
		}

		seen := make(map[string]struct{})
		for _, p := range b.Participants {
			key := normalizeParticipant(p)
			original, ok := wanted[key]
			if !ok {
				continue
			}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			conflicts = append(conflicts, Conflict{
				WithBookingID: b.ID,
				Type:          ConflictTypeParticipant,
				RoomID:        b.RoomID,
				Participant:   original,
			})
		}
	}
	return conflicts
}

func normalizeParticipant(p string) string {
	return strings.ToLower(strings.TrimSpace(p))
}
