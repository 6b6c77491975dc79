package application

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/example/roombook/internal/persistence"
)

type bookingRepoStub struct {
	bookings  map[string]Booking
	order     []string
	createErr error
	listErr   error
	updates   int
	deleted   []string
	// precision truncates filter bounds the way a microsecond TIMESTAMPTZ column does.
	precision time.Duration
}

func newBookingRepoStub(existing ...Booking) *bookingRepoStub {
	repo := &bookingRepoStub{bookings: make(map[string]Booking)}
	for _, b := range existing {
		repo.bookings[b.ID] = b
		repo.order = append(repo.order, b.ID)
	}
	return repo
}

func (r *bookingRepoStub) CreateBooking(ctx context.Context, booking Booking) (Booking, error) {
	if r.createErr != nil {
		return Booking{}, r.createErr
	}
	r.bookings[booking.ID] = booking
	r.order = append(r.order, booking.ID)
	return booking, nil
}

func (r *bookingRepoStub) UpdateBooking(ctx context.Context, booking Booking) (Booking, error) {
	if _, ok := r.bookings[booking.ID]; !ok {
		return Booking{}, persistence.ErrNotFound
	}
	r.updates++
	r.bookings[booking.ID] = booking
	return booking, nil
}

func (r *bookingRepoStub) GetBooking(ctx context.Context, id string) (Booking, error) {
	b, ok := r.bookings[id]
	if !ok {
		return Booking{}, persistence.ErrNotFound
	}
	return b, nil
}

func (r *bookingRepoStub) ListBookings(ctx context.Context, filter BookingFilter) ([]Booking, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	var out []Booking
	for _, id := range r.order {
		b, ok := r.bookings[id]
		if !ok {
			continue
		}
		if filter.UserID != "" && b.UserID != filter.UserID {
			continue
		}
		if filter.RoomID != "" && b.RoomID != filter.RoomID {
			continue
		}
		if filter.Status != "" && b.Status != filter.Status {
			continue
		}
		if filter.StartsBefore != nil && !b.Start.Before(r.bound(*filter.StartsBefore)) {
			continue
		}
		if filter.EndsAfter != nil && !b.End.After(r.bound(*filter.EndsAfter)) {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

func (r *bookingRepoStub) bound(t time.Time) time.Time {
	if r.precision <= 0 {
		return t
	}
	return t.Truncate(r.precision)
}

func (r *bookingRepoStub) DeleteBooking(ctx context.Context, id string) error {
	if _, ok := r.bookings[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(r.bookings, id)
	r.deleted = append(r.deleted, id)
	return nil
}

type userDirectoryStub struct {
	users map[string]User
}

func (u *userDirectoryStub) GetProfile(ctx context.Context, id string) (User, error) {
	user, ok := u.users[id]
	if !ok {
		return User{}, persistence.ErrNotFound
	}
	return user, nil
}

func (u *userDirectoryStub) ListProfiles(ctx context.Context) ([]User, error) {
	out := make([]User, 0, len(u.users))
	for _, user := range u.users {
		out = append(out, user)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type bookingFixture struct {
	repo     *bookingRepoStub
	rooms    *roomRepoStub
	notifier *notifierStub
	audit    *auditRepoStub
	svc      *BookingService
	now      time.Time
}

func newBookingFixture(t *testing.T, existing ...Booking) *bookingFixture {
	t.Helper()

	now := time.Date(2024, time.September, 2, 8, 0, 0, 0, time.UTC)
	rooms := &roomRepoStub{rooms: map[string]Room{
		"open":     {ID: "open", Name: "Open", Active: true, Bookable: true, CancellationHours: 24},
		"approval": {ID: "approval", Name: "Approval", Active: true, Bookable: true, RequiresApproval: true, CancellationHours: 24},
		"closed":   {ID: "closed", Name: "Closed", Active: true, Bookable: false},
		"short":    {ID: "short", Name: "Short", Active: true, Bookable: true, MaxDurationMinutes: intPtr(30)},
	}}
	rooms.list = []Room{rooms.rooms["open"], rooms.rooms["approval"]}

	users := &userDirectoryStub{users: map[string]User{
		"user-1": {ID: "user-1", DisplayName: "Hanako", Email: "hanako@example.com"},
	}}

	seq := 0
	ids := func() string {
		seq++
		return fmt.Sprintf("booking-%d", seq)
	}

	repo := newBookingRepoStub(existing...)
	notifier := &notifierStub{}
	audit := &auditRepoStub{}
	svc := NewBookingService(repo, rooms, users, ids, func() time.Time { return now }).
		WithNotifier(notifier).
		WithAudit(NewAuditRecorder(audit, nil, nil, nil))

	return &bookingFixture{repo: repo, rooms: rooms, notifier: notifier, audit: audit, svc: svc, now: now}
}

func (f *bookingFixture) input(roomID string) BookingInput {
	start := time.Date(2024, time.September, 2, 9, 0, 0, 0, time.UTC)
	return BookingInput{
		RoomID: roomID,
		UserID: userPrincipal.UserID,
		Title:  "Standup",
		Start:  start,
		End:    start.Add(time.Hour),
	}
}

func TestBookingService_CreateBooking(t *testing.T) {
	t.Run("status follows room approval policy", func(t *testing.T) {
		cases := []struct {
			room         string
			wantStatus   BookingStatus
			wantSnapshot bool
			wantNotified int
		}{
			{room: "open", wantStatus: BookingApproved, wantSnapshot: false, wantNotified: 0},
			{room: "approval", wantStatus: BookingPending, wantSnapshot: true, wantNotified: 1},
		}
		for _, tc := range cases {
			t.Run(tc.room, func(t *testing.T) {
				f := newBookingFixture(t)
				result, err := f.svc.CreateBooking(context.Background(), CreateBookingParams{
					Principal: userPrincipal,
					Input:     f.input(tc.room),
				})
				if err != nil {
					t.Fatalf("expected success, got %v", err)
				}
				if result.Booking.Status != tc.wantStatus {
					t.Fatalf("expected status %s, got %s", tc.wantStatus, result.Booking.Status)
				}
				if result.Booking.RequiresApprovalSnapshot != tc.wantSnapshot {
					t.Fatalf("expected snapshot %v, got %v", tc.wantSnapshot, result.Booking.RequiresApprovalSnapshot)
				}
				if len(f.notifier.pending) != tc.wantNotified {
					t.Fatalf("expected %d pending notifications, got %d", tc.wantNotified, len(f.notifier.pending))
				}
				if result.Booking.AttendeeCount != 1 {
					t.Fatalf("expected attendee count default of 1, got %d", result.Booking.AttendeeCount)
				}
				if len(f.audit.entries) != 1 || f.audit.entries[0].Action != "booking.create" {
					t.Fatalf("expected audit entry, got %+v", f.audit.entries)
				}
			})
		}
	})

	t.Run("rejects missing required fields before storage", func(t *testing.T) {
		f := newBookingFixture(t)
		_, err := f.svc.CreateBooking(context.Background(), CreateBookingParams{
			Principal: userPrincipal,
			Input:     BookingInput{Title: "  "},
		})
		var vErr *ValidationError
		if !errors.As(err, &vErr) || !vErr.MissingRequired() {
			t.Fatalf("expected missing required validation error, got %v", err)
		}
		for _, field := range []string{"room_id", "user_id", "title", "start_time", "end_time"} {
			if vErr.FieldErrors[field] != msgRequired {
				t.Fatalf("expected %s to be required, got %v", field, vErr.FieldErrors)
			}
		}
		if len(f.repo.bookings) != 0 {
			t.Fatalf("expected nothing stored")
		}
	})

	t.Run("rejects inverted range", func(t *testing.T) {
		f := newBookingFixture(t)
		input := f.input("open")
		input.End = input.Start
		_, err := f.svc.CreateBooking(context.Background(), CreateBookingParams{Principal: userPrincipal, Input: input})
		var vErr *ValidationError
		if !errors.As(err, &vErr) || vErr.FieldErrors["end_time"] != msgStartBeforeEnd {
			t.Fatalf("expected range validation error, got %v", err)
		}
	})

	t.Run("unknown room is not found", func(t *testing.T) {
		f := newBookingFixture(t)
		_, err := f.svc.CreateBooking(context.Background(), CreateBookingParams{Principal: userPrincipal, Input: f.input("missing")})
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("room lookup failure propagates", func(t *testing.T) {
		f := newBookingFixture(t)
		f.rooms.getErr = errors.New("connection reset")
		_, err := f.svc.CreateBooking(context.Background(), CreateBookingParams{Principal: userPrincipal, Input: f.input("open")})
		if err == nil || ErrorKind(err) != "unexpected" {
			t.Fatalf("expected upstream error, got %v", err)
		}
	})

	t.Run("room policy constraints", func(t *testing.T) {
		f := newBookingFixture(t)
		_, err := f.svc.CreateBooking(context.Background(), CreateBookingParams{Principal: userPrincipal, Input: f.input("closed")})
		var vErr *ValidationError
		if !errors.As(err, &vErr) || vErr.FieldErrors["room_id"] != msgRoomUnavailable {
			t.Fatalf("expected unavailable room error, got %v", err)
		}

		_, err = f.svc.CreateBooking(context.Background(), CreateBookingParams{Principal: userPrincipal, Input: f.input("short")})
		if !errors.As(err, &vErr) || vErr.FieldErrors["end_time"] != msgDurationTooLong {
			t.Fatalf("expected max duration error, got %v", err)
		}
	})

	t.Run("users cannot book for others", func(t *testing.T) {
		f := newBookingFixture(t)
		input := f.input("open")
		input.UserID = "someone-else"
		_, err := f.svc.CreateBooking(context.Background(), CreateBookingParams{Principal: userPrincipal, Input: input})
		if !errors.Is(err, ErrForbidden) {
			t.Fatalf("expected ErrForbidden, got %v", err)
		}

		if _, err := f.svc.CreateBooking(context.Background(), CreateBookingParams{Principal: adminPrincipal, Input: input}); err != nil {
			t.Fatalf("expected admin to book on behalf, got %v", err)
		}
	})

	t.Run("overlaps are stored with warnings", func(t *testing.T) {
		start := time.Date(2024, time.September, 2, 9, 30, 0, 0, time.UTC)
		existing := Booking{ID: "existing", RoomID: "open", UserID: "user-2", Status: BookingApproved, Start: start, End: start.Add(time.Hour)}
		cancelled := Booking{ID: "old", RoomID: "open", UserID: "user-3", Status: BookingCancelled, Start: start, End: start.Add(time.Hour)}
		f := newBookingFixture(t, existing, cancelled)

		result, err := f.svc.CreateBooking(context.Background(), CreateBookingParams{Principal: userPrincipal, Input: f.input("open")})
		if err != nil {
			t.Fatalf("expected overlapping booking to be stored, got %v", err)
		}
		if len(result.Warnings) != 1 || result.Warnings[0].BookingID != "existing" || result.Warnings[0].Type != "room" {
			t.Fatalf("expected one room warning, got %+v", result.Warnings)
		}
		if _, ok := f.repo.bookings[result.Booking.ID]; !ok {
			t.Fatalf("expected booking to be persisted")
		}
	})

	t.Run("notification failure does not fail creation", func(t *testing.T) {
		f := newBookingFixture(t)
		f.notifier.err = errors.New("smtp down")
		result, err := f.svc.CreateBooking(context.Background(), CreateBookingParams{Principal: userPrincipal, Input: f.input("approval")})
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if result.Booking.Status != BookingPending {
			t.Fatalf("expected pending booking, got %s", result.Booking.Status)
		}
	})
}

func TestBookingService_SnapshotSurvivesRoomChange(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()

	result, err := f.svc.CreateBooking(ctx, CreateBookingParams{Principal: userPrincipal, Input: f.input("approval")})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}

	room := f.rooms.rooms["approval"]
	room.RequiresApproval = false
	f.rooms.rooms["approval"] = room

	if _, err := f.svc.TransitionBooking(ctx, TransitionParams{Principal: adminPrincipal, BookingID: result.Booking.ID, Status: BookingApproved}); err != nil {
		t.Fatalf("expected approval, got %v", err)
	}
	view, err := f.svc.GetBooking(ctx, userPrincipal, result.Booking.ID)
	if err != nil {
		t.Fatalf("expected booking, got %v", err)
	}
	if !view.RequiresApprovalSnapshot {
		t.Fatalf("expected snapshot to stay true after room policy change")
	}
}

func TestBookingService_TransitionBooking(t *testing.T) {
	start := time.Date(2024, time.September, 3, 9, 0, 0, 0, time.UTC)
	pending := Booking{ID: "b1", RoomID: "approval", UserID: "user-1", Status: BookingPending, Start: start, End: start.Add(time.Hour)}

	t.Run("requires approve capability", func(t *testing.T) {
		f := newBookingFixture(t, pending)
		_, err := f.svc.TransitionBooking(context.Background(), TransitionParams{Principal: userPrincipal, BookingID: "b1", Status: BookingApproved})
		if !errors.Is(err, ErrForbidden) {
			t.Fatalf("expected ErrForbidden, got %v", err)
		}
	})

	t.Run("approve stamps approver", func(t *testing.T) {
		f := newBookingFixture(t, pending)
		got, err := f.svc.TransitionBooking(context.Background(), TransitionParams{Principal: editorPrincipal, BookingID: "b1", Status: BookingApproved})
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if got.Status != BookingApproved || got.ApprovedAt == nil || !got.ApprovedAt.Equal(f.now) {
			t.Fatalf("expected approved_at to be stamped, got %+v", got)
		}
		if got.ApprovedBy == nil || *got.ApprovedBy != editorPrincipal.UserID {
			t.Fatalf("expected approved_by to be editor")
		}
		if len(f.notifier.decisions) != 1 || f.notifier.decisions[0] != "b1:approved" {
			t.Fatalf("expected owner notification, got %v", f.notifier.decisions)
		}
	})

	t.Run("reject requires a reason", func(t *testing.T) {
		f := newBookingFixture(t, pending)
		_, err := f.svc.TransitionBooking(context.Background(), TransitionParams{Principal: adminPrincipal, BookingID: "b1", Status: BookingRejected, Reason: strPtr("  ")})
		var vErr *ValidationError
		if !errors.As(err, &vErr) || vErr.FieldErrors["rejection_reason"] != msgReasonRequired {
			t.Fatalf("expected rejection reason error, got %v", err)
		}
		if f.repo.updates != 0 {
			t.Fatalf("expected no update")
		}

		got, err := f.svc.TransitionBooking(context.Background(), TransitionParams{Principal: adminPrincipal, BookingID: "b1", Status: BookingRejected, Reason: strPtr("room closed")})
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if got.RejectionReason == nil || *got.RejectionReason != "room closed" {
			t.Fatalf("expected rejection reason to be stored")
		}
	})

	t.Run("cancel stamps canceller", func(t *testing.T) {
		f := newBookingFixture(t, pending)
		got, err := f.svc.TransitionBooking(context.Background(), TransitionParams{Principal: adminPrincipal, BookingID: "b1", Status: BookingCancelled})
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if got.CancelledAt == nil || got.CancelledBy == nil || *got.CancelledBy != adminPrincipal.UserID {
			t.Fatalf("expected cancellation stamps, got %+v", got)
		}
		if got.CancellationReason != nil {
			t.Fatalf("expected optional reason to stay empty")
		}
		if len(f.notifier.decisions) != 0 {
			t.Fatalf("expected no decision notification on cancel")
		}
	})

	t.Run("unsupported target", func(t *testing.T) {
		f := newBookingFixture(t, pending)
		_, err := f.svc.TransitionBooking(context.Background(), TransitionParams{Principal: adminPrincipal, BookingID: "b1", Status: BookingPending})
		var vErr *ValidationError
		if !errors.As(err, &vErr) || vErr.FieldErrors["status"] != msgUnsupportedStatus {
			t.Fatalf("expected status validation error, got %v", err)
		}
	})

	t.Run("admin may re-approve a cancelled booking", func(t *testing.T) {
		cancelled := pending
		cancelled.Status = BookingCancelled
		f := newBookingFixture(t, cancelled)
		got, err := f.svc.TransitionBooking(context.Background(), TransitionParams{Principal: adminPrincipal, BookingID: "b1", Status: BookingApproved})
		if err != nil || got.Status != BookingApproved {
			t.Fatalf("expected override to succeed, got %v %v", got.Status, err)
		}
	})

	t.Run("missing booking", func(t *testing.T) {
		f := newBookingFixture(t)
		_, err := f.svc.TransitionBooking(context.Background(), TransitionParams{Principal: adminPrincipal, BookingID: "nope", Status: BookingApproved})
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestOwnerCanCancel(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, time.September, 2, 8, 0, 0, 0, time.UTC)
	room := Room{CancellationHours: 24}
	cases := []struct {
		name   string
		status BookingStatus
		start  time.Time
		want   bool
	}{
		{name: "approved well ahead", status: BookingApproved, start: now.Add(48 * time.Hour), want: true},
		{name: "approved exactly at window", status: BookingApproved, start: now.Add(24 * time.Hour), want: false},
		{name: "approved inside window", status: BookingApproved, start: now.Add(2 * time.Hour), want: false},
		{name: "pending booking", status: BookingPending, start: now.Add(48 * time.Hour), want: false},
		{name: "already started", status: BookingApproved, start: now.Add(-time.Hour), want: false},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			b := Booking{Status: tc.status, Start: tc.start, End: tc.start.Add(time.Hour)}
			if got := OwnerCanCancel(b, room, now); got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestBookingService_CancelByOwner(t *testing.T) {
	far := time.Date(2024, time.September, 5, 9, 0, 0, 0, time.UTC)
	near := time.Date(2024, time.September, 2, 12, 0, 0, 0, time.UTC)
	farBooking := Booking{ID: "far", RoomID: "open", UserID: "user-1", Status: BookingApproved, Start: far, End: far.Add(time.Hour)}
	nearBooking := Booking{ID: "near", RoomID: "open", UserID: "user-1", Status: BookingApproved, Start: near, End: near.Add(time.Hour)}

	t.Run("owner cancels outside the window", func(t *testing.T) {
		f := newBookingFixture(t, farBooking)
		got, err := f.svc.CancelByOwner(context.Background(), userPrincipal, "far", nil)
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if got.Status != BookingCancelled || got.CancellationReason == nil || *got.CancellationReason != defaultOwnerCancellationReason {
			t.Fatalf("unexpected cancelled booking %+v", got)
		}
	})

	t.Run("refused inside the window", func(t *testing.T) {
		f := newBookingFixture(t, nearBooking)
		_, err := f.svc.CancelByOwner(context.Background(), userPrincipal, "near", nil)
		if !errors.Is(err, ErrCancellationWindowClosed) {
			t.Fatalf("expected ErrCancellationWindowClosed, got %v", err)
		}
	})

	t.Run("refused for other users", func(t *testing.T) {
		f := newBookingFixture(t, farBooking)
		_, err := f.svc.CancelByOwner(context.Background(), Principal{UserID: "user-9", Role: RoleUser}, "far", nil)
		if !errors.Is(err, ErrForbidden) {
			t.Fatalf("expected ErrForbidden, got %v", err)
		}
	})
}

func TestBookingService_UpdateBookingStatus(t *testing.T) {
	far := time.Date(2024, time.September, 5, 9, 0, 0, 0, time.UTC)
	booking := Booking{ID: "b1", RoomID: "open", UserID: "user-1", Status: BookingApproved, Start: far, End: far.Add(time.Hour)}

	t.Run("owner cancellation routes to cancel by owner", func(t *testing.T) {
		f := newBookingFixture(t, booking)
		got, err := f.svc.UpdateBookingStatus(context.Background(), UpdateBookingStatusParams{
			Principal:          userPrincipal,
			BookingID:          "b1",
			Status:             BookingCancelled,
			CancellationReason: strPtr("plans changed"),
		})
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if *got.CancellationReason != "plans changed" {
			t.Fatalf("expected reason to be kept, got %q", *got.CancellationReason)
		}
	})

	t.Run("owner cannot approve", func(t *testing.T) {
		f := newBookingFixture(t, booking)
		_, err := f.svc.UpdateBookingStatus(context.Background(), UpdateBookingStatusParams{Principal: userPrincipal, BookingID: "b1", Status: BookingApproved})
		if !errors.Is(err, ErrForbidden) {
			t.Fatalf("expected ErrForbidden, got %v", err)
		}
	})

	t.Run("approver rejection uses rejection reason", func(t *testing.T) {
		f := newBookingFixture(t, booking)
		got, err := f.svc.UpdateBookingStatus(context.Background(), UpdateBookingStatusParams{
			Principal:       adminPrincipal,
			BookingID:       "b1",
			Status:          BookingRejected,
			RejectionReason: strPtr("double booked"),
		})
		if err != nil || got.Status != BookingRejected {
			t.Fatalf("expected rejection, got %v", err)
		}
	})

	t.Run("status is required", func(t *testing.T) {
		f := newBookingFixture(t, booking)
		_, err := f.svc.UpdateBookingStatus(context.Background(), UpdateBookingStatusParams{Principal: adminPrincipal, BookingID: "b1"})
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
	})
}

func TestBookingService_ListAndDelete(t *testing.T) {
	start := time.Date(2024, time.September, 3, 9, 0, 0, 0, time.UTC)
	mine := Booking{ID: "mine", RoomID: "open", UserID: "user-1", Status: BookingApproved, Start: start, End: start.Add(time.Hour)}
	theirs := Booking{ID: "theirs", RoomID: "approval", UserID: "user-2", Status: BookingPending, Start: start, End: start.Add(time.Hour)}

	t.Run("users only see their own bookings", func(t *testing.T) {
		f := newBookingFixture(t, mine, theirs)
		views, err := f.svc.ListBookings(context.Background(), userPrincipal, BookingFilter{UserID: "user-2"})
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if len(views) != 1 || views[0].ID != "mine" {
			t.Fatalf("expected only own booking, got %+v", views)
		}
		if views[0].Room == nil || views[0].Room.Name != "Open" {
			t.Fatalf("expected room summary to be joined")
		}
		if views[0].User == nil || views[0].User.DisplayName != "Hanako" {
			t.Fatalf("expected user summary to be joined")
		}
	})

	t.Run("approvers filter by status", func(t *testing.T) {
		f := newBookingFixture(t, mine, theirs)
		views, err := f.svc.ListBookings(context.Background(), editorPrincipal, BookingFilter{Status: BookingPending})
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if len(views) != 1 || views[0].ID != "theirs" {
			t.Fatalf("expected pending booking, got %+v", views)
		}
		if views[0].User != nil {
			t.Fatalf("expected unknown owner to have no summary")
		}
	})

	t.Run("get refuses other users bookings", func(t *testing.T) {
		f := newBookingFixture(t, mine, theirs)
		if _, err := f.svc.GetBooking(context.Background(), userPrincipal, "theirs"); !errors.Is(err, ErrForbidden) {
			t.Fatalf("expected ErrForbidden, got %v", err)
		}
	})

	t.Run("delete by owner or approver", func(t *testing.T) {
		f := newBookingFixture(t, mine, theirs)
		ctx := context.Background()
		if err := f.svc.DeleteBooking(ctx, userPrincipal, "theirs"); !errors.Is(err, ErrForbidden) {
			t.Fatalf("expected ErrForbidden, got %v", err)
		}
		if err := f.svc.DeleteBooking(ctx, userPrincipal, "mine"); err != nil {
			t.Fatalf("expected owner delete, got %v", err)
		}
		if err := f.svc.DeleteBooking(ctx, adminPrincipal, "theirs"); err != nil {
			t.Fatalf("expected admin delete, got %v", err)
		}
		if err := f.svc.DeleteBooking(ctx, adminPrincipal, "theirs"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound on second delete, got %v", err)
		}
	})
}
