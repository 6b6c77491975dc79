package application

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/example/roombook/internal/scheduler"
)

const defaultOwnerCancellationReason = "Cancelled by booking owner"

// BookingRepository captures the persistence operations needed for bookings.
type BookingRepository interface {
	CreateBooking(ctx context.Context, booking Booking) (Booking, error)
	UpdateBooking(ctx context.Context, booking Booking) (Booking, error)
	GetBooking(ctx context.Context, id string) (Booking, error)
	ListBookings(ctx context.Context, filter BookingFilter) ([]Booking, error)
	DeleteBooking(ctx context.Context, id string) error
}

// RoomCatalog is the read side of the room repository used when booking.
type RoomCatalog interface {
	GetRoom(ctx context.Context, id string) (Room, error)
	ListRooms(ctx context.Context, filter RoomFilter) ([]Room, error)
}

// UserDirectory resolves profile summaries for booking listings.
type UserDirectory interface {
	GetProfile(ctx context.Context, id string) (User, error)
	ListProfiles(ctx context.Context) ([]User, error)
}

// BookingService implements the booking lifecycle.
type BookingService struct {
	bookings    BookingRepository
	rooms       RoomCatalog
	users       UserDirectory
	notifier    Notifier
	audit       *AuditRecorder
	idGenerator func() string
	now         func() time.Time
	timeout     time.Duration
	logger      *slog.Logger
}

// NewBookingService wires dependencies for booking operations.
func NewBookingService(bookings BookingRepository, rooms RoomCatalog, users UserDirectory, idGenerator func() string, now func() time.Time) *BookingService {
	return NewBookingServiceWithLogger(bookings, rooms, users, idGenerator, now, nil)
}

// NewBookingServiceWithLogger wires dependencies with a specified logger.
func NewBookingServiceWithLogger(bookings BookingRepository, rooms RoomCatalog, users UserDirectory, idGenerator func() string, now func() time.Time, logger *slog.Logger) *BookingService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &BookingService{
		bookings:    bookings,
		rooms:       rooms,
		users:       users,
		idGenerator: idGenerator,
		now:         now,
		timeout:     DefaultUpstreamTimeout,
		logger:      defaultLogger(logger),
	}
}

// WithNotifier sets the notification collaborator.
func (s *BookingService) WithNotifier(notifier Notifier) *BookingService {
	s.notifier = notifier
	return s
}

// WithAudit sets the audit recorder.
func (s *BookingService) WithAudit(audit *AuditRecorder) *BookingService {
	s.audit = audit
	return s
}

// WithTimeout bounds each repository call.
func (s *BookingService) WithTimeout(d time.Duration) *BookingService {
	s.timeout = d
	return s
}

func (s *BookingService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "BookingService", operation, attrs...)
}

// CreateBooking validates the request and stores a booking whose status
// follows the room's approval policy at this moment. Overlapping bookings do
// not block the insert; they are returned as warnings.
func (s *BookingService) CreateBooking(ctx context.Context, params CreateBookingParams) (result CreateBookingResult, err error) {
	if s == nil {
		err = errServiceNil("BookingService")
		return
	}

	input := params.Input
	logger := s.loggerWith(ctx, "CreateBooking",
		"principal_id", params.Principal.UserID,
		"room_id", input.RoomID,
	)
	defer func() {
		if err != nil {
			logFailure(ctx, logger, "failed to create booking", err)
			return
		}
		logger.With(
			"booking_id", result.Booking.ID,
			"status", result.Booking.Status,
			"warning_count", len(result.Warnings),
		).InfoContext(ctx, "booking created")
	}()

	if params.Principal.UserID == "" {
		err = ErrUnauthorized
		return
	}

	input.RoomID = strings.TrimSpace(input.RoomID)
	input.UserID = strings.TrimSpace(input.UserID)
	input.Title = strings.TrimSpace(input.Title)
	if input.AttendeeCount == 0 {
		input.AttendeeCount = 1
	}
	if vErr := validateBookingInput(input); vErr.HasErrors() {
		err = vErr
		return
	}

	if input.UserID != params.Principal.UserID && !Can(params.Principal, CapApproveBookings) {
		err = ErrForbidden
		return
	}
	if s.rooms == nil || s.bookings == nil {
		err = ErrNotFound
		return
	}

	callCtx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	var room Room
	room, err = s.rooms.GetRoom(callCtx, input.RoomID)
	if err != nil {
		err = mapRepoError(err)
		return
	}
	if vErr := validateAgainstRoom(input, room); vErr.HasErrors() {
		err = vErr
		return
	}

	now := s.now()
	booking := Booking{
		ID:                       s.idGenerator(),
		RoomID:                   room.ID,
		UserID:                   input.UserID,
		Title:                    input.Title,
		Description:              normalizeOptionalString(input.Description),
		Start:                    input.Start.UTC(),
		End:                      input.End.UTC(),
		AttendeeCount:            input.AttendeeCount,
		Attendees:                normalizeList(input.Attendees),
		Status:                   BookingApproved,
		RequiresApprovalSnapshot: room.RequiresApproval,
		IsRecurring:              input.IsRecurring,
		RecurrenceRule:           normalizeOptionalString(input.RecurrenceRule),
		CreatedAt:                now,
		UpdatedAt:                now,
	}
	if room.RequiresApproval {
		booking.Status = BookingPending
	}

	booking, err = s.bookings.CreateBooking(callCtx, booking)
	if err != nil {
		err = mapRepoError(err)
		return
	}
	result.Booking = booking
	result.Warnings = s.overlapWarnings(callCtx, logger, booking)

	if booking.Status == BookingPending {
		s.notify(ctx, logger, booking, room, s.notifierPending)
	}
	s.audit.Record(ctx, params.Principal.UserID, "booking.create", "booking", booking.ID, nil)
	return
}

// TransitionBooking applies an administrative status change. Any source
// status is accepted.
func (s *BookingService) TransitionBooking(ctx context.Context, params TransitionParams) (booking Booking, err error) {
	if s == nil {
		err = errServiceNil("BookingService")
		return
	}

	logger := s.loggerWith(ctx, "TransitionBooking",
		"principal_id", params.Principal.UserID,
		"booking_id", params.BookingID,
		"target_status", params.Status,
	)
	defer func() {
		if err != nil {
			logFailure(ctx, logger, "failed to transition booking", err)
			return
		}
		logger.InfoContext(ctx, "booking transitioned")
	}()

	if err = require(params.Principal, CapApproveBookings); err != nil {
		return
	}

	reason := normalizeOptionalString(params.Reason)
	vErr := &ValidationError{}
	if strings.TrimSpace(params.BookingID) == "" {
		vErr.add("id", msgRequired)
	}
	switch params.Status {
	case BookingApproved, BookingCancelled:
	case BookingRejected:
		if reason == nil {
			vErr.add("rejection_reason", msgReasonRequired)
		}
	default:
		vErr.add("status", msgUnsupportedStatus)
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}
	if s.bookings == nil {
		err = ErrNotFound
		return
	}

	callCtx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	booking, err = s.bookings.GetBooking(callCtx, params.BookingID)
	if err != nil {
		err = mapRepoError(err)
		return
	}
	logger = logger.With("source_status", booking.Status)

	now := s.now()
	actor := params.Principal.UserID
	booking.Status = params.Status
	booking.UpdatedAt = now
	switch params.Status {
	case BookingApproved:
		booking.ApprovedAt = &now
		booking.ApprovedBy = &actor
	case BookingRejected:
		booking.RejectionReason = reason
	case BookingCancelled:
		booking.CancelledAt = &now
		booking.CancelledBy = &actor
		booking.CancellationReason = reason
	}

	booking, err = s.bookings.UpdateBooking(callCtx, booking)
	if err != nil {
		err = mapRepoError(err)
		return
	}

	if booking.Status == BookingApproved || booking.Status == BookingRejected {
		s.notify(ctx, logger, booking, s.roomForNotification(callCtx, logger, booking.RoomID), s.notifierDecision)
	}
	s.audit.Record(ctx, actor, "booking."+string(booking.Status), "booking", booking.ID, reason)
	return
}

// OwnerCanCancel reports whether the owner may still cancel the booking: it
// must be approved and start more than the room's cancellation window from now.
func OwnerCanCancel(booking Booking, room Room, now time.Time) bool {
	if booking.Status != BookingApproved {
		return false
	}
	return booking.Start.Sub(now).Hours() > float64(room.CancellationHours)
}

// CancelByOwner cancels a booking on behalf of its owner.
func (s *BookingService) CancelByOwner(ctx context.Context, principal Principal, bookingID string, reason *string) (booking Booking, err error) {
	if s == nil {
		err = errServiceNil("BookingService")
		return
	}

	logger := s.loggerWith(ctx, "CancelByOwner",
		"principal_id", principal.UserID,
		"booking_id", bookingID,
	)
	defer func() {
		if err != nil {
			logFailure(ctx, logger, "failed to cancel booking", err)
			return
		}
		logger.InfoContext(ctx, "booking cancelled by owner")
	}()

	if principal.UserID == "" {
		err = ErrUnauthorized
		return
	}
	if s.bookings == nil || s.rooms == nil {
		err = ErrNotFound
		return
	}

	callCtx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	booking, err = s.bookings.GetBooking(callCtx, bookingID)
	if err != nil {
		err = mapRepoError(err)
		return
	}
	if booking.UserID != principal.UserID {
		err = ErrForbidden
		return
	}

	var room Room
	room, err = s.rooms.GetRoom(callCtx, booking.RoomID)
	if err != nil {
		err = mapRepoError(err)
		return
	}

	now := s.now()
	if !OwnerCanCancel(booking, room, now) {
		err = ErrCancellationWindowClosed
		return
	}

	cancelReason := normalizeOptionalString(reason)
	if cancelReason == nil {
		defaultReason := defaultOwnerCancellationReason
		cancelReason = &defaultReason
	}
	actor := principal.UserID
	booking.Status = BookingCancelled
	booking.CancelledAt = &now
	booking.CancelledBy = &actor
	booking.CancellationReason = cancelReason
	booking.UpdatedAt = now

	booking, err = s.bookings.UpdateBooking(callCtx, booking)
	if err != nil {
		err = mapRepoError(err)
		return
	}
	s.audit.Record(ctx, actor, "booking.cancel_by_owner", "booking", booking.ID, cancelReason)
	return
}

// UpdateBookingStatus routes a status update to an administrative transition
// or, for owners cancelling their own booking, to CancelByOwner.
func (s *BookingService) UpdateBookingStatus(ctx context.Context, params UpdateBookingStatusParams) (Booking, error) {
	if s == nil {
		return Booking{}, errServiceNil("BookingService")
	}
	if params.Principal.UserID == "" {
		return Booking{}, ErrUnauthorized
	}
	if params.Status == "" {
		vErr := &ValidationError{}
		vErr.add("status", msgRequired)
		return Booking{}, vErr
	}

	if Can(params.Principal, CapApproveBookings) {
		reason := params.CancellationReason
		if params.Status == BookingRejected {
			reason = params.RejectionReason
		}
		return s.TransitionBooking(ctx, TransitionParams{
			Principal: params.Principal,
			BookingID: params.BookingID,
			Status:    params.Status,
			Reason:    reason,
		})
	}
	if params.Status == BookingCancelled {
		return s.CancelByOwner(ctx, params.Principal, params.BookingID, params.CancellationReason)
	}
	return Booking{}, ErrForbidden
}

// ListBookings returns bookings matching filter joined with room and owner
// summaries. Callers without view_all_bookings only see their own bookings.
func (s *BookingService) ListBookings(ctx context.Context, principal Principal, filter BookingFilter) (views []BookingView, err error) {
	if s == nil {
		err = errServiceNil("BookingService")
		return
	}
	if principal.UserID == "" {
		err = ErrUnauthorized
		return
	}
	if !Can(principal, CapViewAllBookings) {
		filter.UserID = principal.UserID
	}
	if s.bookings == nil {
		return nil, nil
	}

	logger := s.loggerWith(ctx, "ListBookings",
		"principal_id", principal.UserID,
	)
	defer func() {
		if err != nil {
			logFailure(ctx, logger, "failed to list bookings", err)
			return
		}
		logger.With("result_count", len(views)).DebugContext(ctx, "bookings listed")
	}()

	callCtx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	var bookings []Booking
	bookings, err = s.bookings.ListBookings(callCtx, filter)
	if err != nil {
		err = mapRepoError(err)
		return
	}

	rooms := s.roomSummaries(callCtx, logger)
	users := s.userSummaries(callCtx, logger)
	views = make([]BookingView, 0, len(bookings))
	for _, b := range bookings {
		view := BookingView{Booking: b}
		if r, ok := rooms[b.RoomID]; ok {
			view.Room = &r
		}
		if u, ok := users[b.UserID]; ok {
			view.User = &u
		}
		views = append(views, view)
	}
	return
}

// GetBooking returns one booking. Callers without view_all_bookings may only
// read their own.
func (s *BookingService) GetBooking(ctx context.Context, principal Principal, bookingID string) (view BookingView, err error) {
	if s == nil {
		err = errServiceNil("BookingService")
		return
	}
	if principal.UserID == "" {
		err = ErrUnauthorized
		return
	}
	if s.bookings == nil {
		err = ErrNotFound
		return
	}

	callCtx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	var booking Booking
	booking, err = s.bookings.GetBooking(callCtx, bookingID)
	if err != nil {
		err = mapRepoError(err)
		return
	}
	if booking.UserID != principal.UserID && !Can(principal, CapViewAllBookings) {
		err = ErrForbidden
		return
	}

	view.Booking = booking
	if s.rooms != nil {
		if room, roomErr := s.rooms.GetRoom(callCtx, booking.RoomID); roomErr == nil {
			summary := summarizeRoom(room)
			view.Room = &summary
		}
	}
	if s.users != nil {
		if user, userErr := s.users.GetProfile(callCtx, booking.UserID); userErr == nil {
			summary := summarizeUser(user)
			view.User = &summary
		}
	}
	return
}

// DeleteBooking hard deletes a booking. Owners and approvers may delete.
func (s *BookingService) DeleteBooking(ctx context.Context, principal Principal, bookingID string) error {
	if s == nil {
		return errServiceNil("BookingService")
	}
	if principal.UserID == "" {
		return ErrUnauthorized
	}
	if strings.TrimSpace(bookingID) == "" {
		vErr := &ValidationError{}
		vErr.add("id", msgRequired)
		return vErr
	}
	if s.bookings == nil {
		return ErrNotFound
	}

	logger := s.loggerWith(ctx, "DeleteBooking",
		"principal_id", principal.UserID,
		"booking_id", bookingID,
	)

	callCtx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	booking, err := s.bookings.GetBooking(callCtx, bookingID)
	if err != nil {
		err = mapRepoError(err)
		logFailure(ctx, logger, "failed to load booking", err)
		return err
	}
	if booking.UserID != principal.UserID && !Can(principal, CapApproveBookings) {
		logger.WarnContext(ctx, "booking delete refused", "owner_id", booking.UserID)
		return ErrForbidden
	}
	if err := s.bookings.DeleteBooking(callCtx, bookingID); err != nil {
		err = mapRepoError(err)
		logFailure(ctx, logger, "failed to delete booking", err)
		return err
	}

	s.audit.Record(ctx, principal.UserID, "booking.delete", "booking", bookingID, nil)
	logger.InfoContext(ctx, "booking deleted")
	return nil
}

func validateBookingInput(input BookingInput) *ValidationError {
	vErr := &ValidationError{}
	if input.RoomID == "" {
		vErr.add("room_id", msgRequired)
	}
	if input.UserID == "" {
		vErr.add("user_id", msgRequired)
	}
	if input.Title == "" {
		vErr.add("title", msgRequired)
	}
	if input.Start.IsZero() {
		vErr.add("start_time", msgRequired)
	}
	if input.End.IsZero() {
		vErr.add("end_time", msgRequired)
	}
	if !input.Start.IsZero() && !input.End.IsZero() && !input.Start.Before(input.End) {
		vErr.add("end_time", msgStartBeforeEnd)
	}
	if input.AttendeeCount < 1 {
		vErr.add("attendee_count", msgPositive)
	}
	return vErr
}

func validateAgainstRoom(input BookingInput, room Room) *ValidationError {
	vErr := &ValidationError{}
	if !room.Active || !room.Bookable {
		vErr.add("room_id", msgRoomUnavailable)
		return vErr
	}
	minutes := int(input.End.Sub(input.Start) / time.Minute)
	if room.MinDurationMinutes != nil && *room.MinDurationMinutes > 0 && minutes < *room.MinDurationMinutes {
		vErr.add("end_time", msgDurationTooShort)
	}
	if room.MaxDurationMinutes != nil && *room.MaxDurationMinutes > 0 && minutes > *room.MaxDurationMinutes {
		vErr.add("end_time", msgDurationTooLong)
	}
	return vErr
}

// overlapWarnings lists pending and approved bookings that overlap the new
// one by room or participant. Lookup failures only lose the warnings.
func (s *BookingService) overlapWarnings(ctx context.Context, logger *slog.Logger, booking Booking) []ConflictWarning {
	start, end := booking.Start, booking.End
	existing, err := s.bookings.ListBookings(ctx, BookingFilter{StartsBefore: &end, EndsAfter: &start})
	if err != nil {
		logger.WarnContext(ctx, "overlap lookup failed", "error", err)
		return nil
	}

	candidates := make([]scheduler.Booking, 0, len(existing))
	for _, b := range existing {
		if b.Status != BookingPending && b.Status != BookingApproved {
			continue
		}
		candidates = append(candidates, toSchedulerBooking(b))
	}

	conflicts := scheduler.DetectConflicts(candidates, toSchedulerBooking(booking))
	if len(conflicts) == 0 {
		return nil
	}
	warnings := make([]ConflictWarning, 0, len(conflicts))
	for _, c := range conflicts {
		warnings = append(warnings, ConflictWarning{
			BookingID:   c.WithBookingID,
			Type:        string(c.Type),
			RoomID:      c.RoomID,
			Participant: c.Participant,
		})
	}
	return warnings
}

func toSchedulerBooking(b Booking) scheduler.Booking {
	participants := make([]string, 0, len(b.Attendees)+1)
	participants = append(participants, b.UserID)
	participants = append(participants, b.Attendees...)
	return scheduler.Booking{
		ID:           b.ID,
		RoomID:       b.RoomID,
		Participants: participants,
		Start:        b.Start,
		End:          b.End,
	}
}

func (s *BookingService) notifierPending(ctx context.Context, booking Booking, room Room) error {
	return s.notifier.NotifyBookingPending(ctx, booking, room)
}

func (s *BookingService) notifierDecision(ctx context.Context, booking Booking, room Room) error {
	return s.notifier.NotifyBookingDecision(ctx, booking, room)
}

// notify runs after the status change is committed. Failures are logged and
// never undo the change.
func (s *BookingService) notify(ctx context.Context, logger *slog.Logger, booking Booking, room Room, send func(context.Context, Booking, Room) error) {
	if s.notifier == nil {
		return
	}
	if err := send(ctx, booking, room); err != nil {
		logger.WarnContext(ctx, "booking notification failed", "error", err)
	}
}

func (s *BookingService) roomForNotification(ctx context.Context, logger *slog.Logger, roomID string) Room {
	if s.rooms == nil {
		return Room{ID: roomID}
	}
	room, err := s.rooms.GetRoom(ctx, roomID)
	if err != nil {
		logger.WarnContext(ctx, "room lookup for notification failed", "error", err)
		return Room{ID: roomID}
	}
	return room
}

func (s *BookingService) roomSummaries(ctx context.Context, logger *slog.Logger) map[string]RoomSummary {
	out := make(map[string]RoomSummary)
	if s.rooms == nil {
		return out
	}
	rooms, err := s.rooms.ListRooms(ctx, RoomFilter{})
	if err != nil {
		logger.WarnContext(ctx, "room join failed", "error", err)
		return out
	}
	for _, r := range rooms {
		out[r.ID] = summarizeRoom(r)
	}
	return out
}

func (s *BookingService) userSummaries(ctx context.Context, logger *slog.Logger) map[string]UserSummary {
	out := make(map[string]UserSummary)
	if s.users == nil {
		return out
	}
	users, err := s.users.ListProfiles(ctx)
	if err != nil {
		logger.WarnContext(ctx, "user join failed", "error", err)
		return out
	}
	for _, u := range users {
		out[u.ID] = summarizeUser(u)
	}
	return out
}

func summarizeRoom(r Room) RoomSummary {
	return RoomSummary{ID: r.ID, Name: r.Name, Location: r.Location, Color: r.Color}
}

func summarizeUser(u User) UserSummary {
	return UserSummary{ID: u.ID, DisplayName: u.DisplayName, Email: u.Email}
}
