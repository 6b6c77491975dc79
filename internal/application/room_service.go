package application

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/example/roombook/internal/persistence"
)

const (
	defaultRoomColor         = "#3B82F6"
	defaultTimeSlotMinutes   = 30
	defaultCancellationHours = 24
)

// RoomRepository captures the persistence operations needed by the service.
type RoomRepository interface {
	CreateRoom(ctx context.Context, room Room) (Room, error)
	GetRoom(ctx context.Context, id string) (Room, error)
	UpdateRoom(ctx context.Context, room Room) (Room, error)
	DeleteRoom(ctx context.Context, id string) error
	ListRooms(ctx context.Context, filter RoomFilter) ([]Room, error)
}

// SettingsProvider supplies organisation defaults to other services.
type SettingsProvider interface {
	CurrentSettings(ctx context.Context) Settings
}

// CreateRoomParams wraps the data required to create a room.
type CreateRoomParams struct {
	Principal Principal
	Input     RoomInput
}

// UpdateRoomParams wraps a partial room update.
type UpdateRoomParams struct {
	Principal Principal
	RoomID    string
	Patch     RoomPatch
}

// RoomService orchestrates validation, authorization, and persistence for rooms.
type RoomService struct {
	rooms       RoomRepository
	settings    SettingsProvider
	cache       RoomCache
	audit       *AuditRecorder
	idGenerator func() string
	now         func() time.Time
	timeout     time.Duration
	logger      *slog.Logger
}

// NewRoomService constructs a room service with the provided dependencies.
func NewRoomService(rooms RoomRepository, idGenerator func() string, now func() time.Time) *RoomService {
	return NewRoomServiceWithLogger(rooms, idGenerator, now, nil)
}

// NewRoomServiceWithLogger constructs a room service with a specified logger.
func NewRoomServiceWithLogger(rooms RoomRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) *RoomService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &RoomService{
		rooms:       rooms,
		idGenerator: idGenerator,
		now:         now,
		timeout:     DefaultUpstreamTimeout,
		logger:      defaultLogger(logger),
	}
}

// WithCache sets the listing cache.
func (s *RoomService) WithCache(cache RoomCache) *RoomService {
	s.cache = cache
	return s
}

// WithSettings sets the source of the default cancellation window.
func (s *RoomService) WithSettings(settings SettingsProvider) *RoomService {
	s.settings = settings
	return s
}

// WithAudit sets the audit recorder.
func (s *RoomService) WithAudit(audit *AuditRecorder) *RoomService {
	s.audit = audit
	return s
}

// WithTimeout bounds each repository call.
func (s *RoomService) WithTimeout(d time.Duration) *RoomService {
	s.timeout = d
	return s
}

func (s *RoomService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "RoomService", operation, attrs...)
}

// CreateRoom validates input and persists a new room.
func (s *RoomService) CreateRoom(ctx context.Context, params CreateRoomParams) (room Room, err error) {
	if s == nil {
		err = errServiceNil("RoomService")
		return
	}

	logger := s.loggerWith(ctx, "CreateRoom",
		"principal_id", params.Principal.UserID,
	)
	defer func() {
		if err != nil {
			logFailure(ctx, logger, "failed to create room", err)
			return
		}
		logger.With("room_id", room.ID).InfoContext(ctx, "room created")
	}()

	if err = require(params.Principal, CapManageRooms); err != nil {
		return
	}

	input := params.Input
	vErr := validateStruct(input)
	if strings.TrimSpace(input.Name) == "" {
		vErr.add("name", msgRequired)
	}
	if input.MinDurationMinutes != nil && input.MaxDurationMinutes != nil && *input.MinDurationMinutes > *input.MaxDurationMinutes {
		vErr.add("min_duration_minutes", msgMinExceedsMax)
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	now := s.now()
	room = Room{
		ID:                 s.idGenerator(),
		Name:               strings.TrimSpace(input.Name),
		Description:        normalizeOptionalString(input.Description),
		Capacity:           input.Capacity,
		Location:           strings.TrimSpace(input.Location),
		Equipment:          normalizeList(input.Equipment),
		Tags:               normalizeList(input.Tags),
		ImageURLs:          normalizeList(input.ImageURLs),
		Color:              defaultRoomColor,
		RequiresApproval:   input.RequiresApproval,
		CancellationHours:  s.defaultCancellationHours(ctx),
		TimeSlotMinutes:    defaultTimeSlotMinutes,
		MinDurationMinutes: input.MinDurationMinutes,
		MaxDurationMinutes: input.MaxDurationMinutes,
		Bookable:           true,
		Active:             true,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if input.Color != "" {
		room.Color = strings.ToUpper(input.Color)
	}
	if input.CancellationHours != nil {
		room.CancellationHours = *input.CancellationHours
	}
	if input.TimeSlotMinutes != nil {
		room.TimeSlotMinutes = *input.TimeSlotMinutes
	}
	if input.Bookable != nil {
		room.Bookable = *input.Bookable
	}
	if input.Active != nil {
		room.Active = *input.Active
	}

	if s.rooms == nil {
		return
	}

	callCtx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()
	var persisted Room
	persisted, err = s.rooms.CreateRoom(callCtx, room)
	if err != nil {
		err = mapRoomRepoError(err)
		return
	}
	room = persisted

	s.invalidate(ctx, logger)
	s.audit.Record(ctx, params.Principal.UserID, "room.create", "room", room.ID, nil)
	return
}

// GetRoom returns a single room for any authenticated user.
func (s *RoomService) GetRoom(ctx context.Context, principal Principal, roomID string) (room Room, err error) {
	if s == nil {
		err = errServiceNil("RoomService")
		return
	}
	if principal.UserID == "" {
		err = ErrUnauthorized
		return
	}
	if s.rooms == nil {
		err = ErrNotFound
		return
	}

	callCtx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()
	room, err = s.rooms.GetRoom(callCtx, roomID)
	if err != nil {
		err = mapRoomRepoError(err)
		logFailure(ctx, s.loggerWith(ctx, "GetRoom", "room_id", roomID), "failed to get room", err)
	}
	return
}

// UpdateRoom applies a partial update to an existing room.
func (s *RoomService) UpdateRoom(ctx context.Context, params UpdateRoomParams) (room Room, err error) {
	if s == nil {
		err = errServiceNil("RoomService")
		return
	}

	logger := s.loggerWith(ctx, "UpdateRoom",
		"principal_id", params.Principal.UserID,
		"room_id", params.RoomID,
	)
	defer func() {
		if err != nil {
			logFailure(ctx, logger, "failed to update room", err)
			return
		}
		logger.InfoContext(ctx, "room updated")
	}()

	if err = require(params.Principal, CapManageRooms); err != nil {
		return
	}
	if strings.TrimSpace(params.RoomID) == "" {
		vErr := &ValidationError{}
		vErr.add("id", msgRequired)
		err = vErr
		return
	}
	if s.rooms == nil {
		err = ErrNotFound
		return
	}

	vErr := validateStruct(params.Patch)
	if params.Patch.Name != nil && strings.TrimSpace(*params.Patch.Name) == "" {
		vErr.add("name", msgRequired)
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	callCtx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	var existing Room
	existing, err = s.rooms.GetRoom(callCtx, params.RoomID)
	if err != nil {
		err = mapRoomRepoError(err)
		return
	}

	updated := applyRoomPatch(existing, params.Patch)
	if updated.MinDurationMinutes != nil && updated.MaxDurationMinutes != nil && *updated.MinDurationMinutes > *updated.MaxDurationMinutes {
		vErr.add("min_duration_minutes", msgMinExceedsMax)
		err = vErr
		return
	}
	updated.UpdatedAt = s.now()

	room, err = s.rooms.UpdateRoom(callCtx, updated)
	if err != nil {
		err = mapRoomRepoError(err)
		return
	}

	s.invalidate(ctx, logger)
	s.audit.Record(ctx, params.Principal.UserID, "room.update", "room", room.ID, nil)
	return
}

// DeleteRoom removes an existing room together with its bookings and blocks.
func (s *RoomService) DeleteRoom(ctx context.Context, principal Principal, roomID string) error {
	if s == nil {
		return errServiceNil("RoomService")
	}
	if err := require(principal, CapManageRooms); err != nil {
		return err
	}
	if strings.TrimSpace(roomID) == "" {
		vErr := &ValidationError{}
		vErr.add("id", msgRequired)
		return vErr
	}
	if s.rooms == nil {
		return ErrNotFound
	}

	logger := s.loggerWith(ctx, "DeleteRoom",
		"principal_id", principal.UserID,
		"room_id", roomID,
	)

	callCtx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.rooms.DeleteRoom(callCtx, roomID); err != nil {
		err = mapRoomRepoError(err)
		logFailure(ctx, logger, "failed to delete room", err)
		return err
	}

	s.invalidate(ctx, logger)
	s.audit.Record(ctx, principal.UserID, "room.delete", "room", roomID, nil)
	logger.InfoContext(ctx, "room deleted")
	return nil
}

// ListRooms returns the catalog of rooms for any authenticated user, sorted by name.
func (s *RoomService) ListRooms(ctx context.Context, principal Principal, filter RoomFilter) (rooms []Room, err error) {
	if s == nil {
		err = errServiceNil("RoomService")
		return
	}
	if principal.UserID == "" {
		err = ErrUnauthorized
		return
	}
	if s.rooms == nil {
		return nil, nil
	}

	logger := s.loggerWith(ctx, "ListRooms",
		"principal_id", principal.UserID,
	)
	defer func() {
		if err != nil {
			logFailure(ctx, logger, "failed to list rooms", err)
			return
		}
		logger.With("result_count", len(rooms)).DebugContext(ctx, "rooms listed")
	}()

	key := roomCacheKey(filter)
	if s.cache != nil {
		cached, ok, cacheErr := s.cache.GetRooms(ctx, key)
		if cacheErr != nil {
			logger.WarnContext(ctx, "room cache read failed", "error", cacheErr)
		} else if ok {
			rooms = cached
			return
		}
	}

	callCtx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	var raw []Room
	raw, err = s.rooms.ListRooms(callCtx, filter)
	if err != nil {
		err = mapRoomRepoError(err)
		return
	}

	rooms = make([]Room, len(raw))
	copy(rooms, raw)
	sortRooms(rooms)

	if s.cache != nil {
		if cacheErr := s.cache.SetRooms(ctx, key, rooms); cacheErr != nil {
			logger.WarnContext(ctx, "room cache write failed", "error", cacheErr)
		}
	}
	return
}

func (s *RoomService) defaultCancellationHours(ctx context.Context) int {
	if s.settings == nil {
		return defaultCancellationHours
	}
	return s.settings.CurrentSettings(ctx).DefaultCancellationHours
}

func (s *RoomService) invalidate(ctx context.Context, logger *slog.Logger) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateRooms(ctx); err != nil {
		logger.WarnContext(ctx, "room cache invalidation failed", "error", err)
	}
}

func applyRoomPatch(room Room, patch RoomPatch) Room {
	if patch.Name != nil {
		room.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Description != nil {
		room.Description = normalizeOptionalString(patch.Description)
	}
	if patch.Capacity != nil {
		room.Capacity = *patch.Capacity
	}
	if patch.Location != nil {
		room.Location = strings.TrimSpace(*patch.Location)
	}
	if patch.Equipment != nil {
		room.Equipment = normalizeList(*patch.Equipment)
	}
	if patch.Tags != nil {
		room.Tags = normalizeList(*patch.Tags)
	}
	if patch.ImageURLs != nil {
		room.ImageURLs = normalizeList(*patch.ImageURLs)
	}
	if patch.Color != nil {
		room.Color = strings.ToUpper(*patch.Color)
	}
	if patch.RequiresApproval != nil {
		room.RequiresApproval = *patch.RequiresApproval
	}
	if patch.CancellationHours != nil {
		room.CancellationHours = *patch.CancellationHours
	}
	if patch.TimeSlotMinutes != nil {
		room.TimeSlotMinutes = *patch.TimeSlotMinutes
	}
	if patch.MinDurationMinutes != nil {
		room.MinDurationMinutes = patch.MinDurationMinutes
	}
	if patch.MaxDurationMinutes != nil {
		room.MaxDurationMinutes = patch.MaxDurationMinutes
	}
	if patch.Bookable != nil {
		room.Bookable = *patch.Bookable
	}
	if patch.Active != nil {
		room.Active = *patch.Active
	}
	return room
}

func sortRooms(rooms []Room) {
	sort.SliceStable(rooms, func(i, j int) bool {
		if strings.EqualFold(rooms[i].Name, rooms[j].Name) {
			return rooms[i].ID < rooms[j].ID
		}
		return strings.ToLower(rooms[i].Name) < strings.ToLower(rooms[j].Name)
	})
}

func mapRoomRepoError(err error) error {
	if errors.Is(err, persistence.ErrConstraintViolation) {
		vErr := &ValidationError{}
		vErr.add("room", msgInvalid)
		return vErr
	}
	return mapRepoError(err)
}
