package application

import (
	"context"
	"log/slog"
	"strings"
	"time"
)

// RoomBlockRepository stores blackout windows.
type RoomBlockRepository interface {
	CreateRoomBlock(ctx context.Context, block RoomBlock) (RoomBlock, error)
	GetRoomBlock(ctx context.Context, id string) (RoomBlock, error)
	ListRoomBlocks(ctx context.Context, roomID string) ([]RoomBlock, error)
	DeleteRoomBlock(ctx context.Context, id string) error
}

// RoomLookup fetches a single room.
type RoomLookup interface {
	GetRoom(ctx context.Context, id string) (Room, error)
}

// RoomBlockService manages blackout windows. Blocks are informational and do
// not constrain booking creation.
type RoomBlockService struct {
	blocks      RoomBlockRepository
	rooms       RoomLookup
	audit       *AuditRecorder
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewRoomBlockService constructs a RoomBlockService.
func NewRoomBlockService(blocks RoomBlockRepository, rooms RoomLookup, idGenerator func() string, now func() time.Time, logger *slog.Logger) *RoomBlockService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &RoomBlockService{blocks: blocks, rooms: rooms, idGenerator: idGenerator, now: now, logger: defaultLogger(logger)}
}

// WithAudit sets the audit recorder.
func (s *RoomBlockService) WithAudit(audit *AuditRecorder) *RoomBlockService {
	s.audit = audit
	return s
}

func (s *RoomBlockService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "RoomBlockService", operation, attrs...)
}

// ListRoomBlocks returns the blocks of a room ordered by start.
func (s *RoomBlockService) ListRoomBlocks(ctx context.Context, principal Principal, roomID string) ([]RoomBlock, error) {
	if s == nil {
		return nil, errServiceNil("RoomBlockService")
	}
	if principal.UserID == "" {
		return nil, ErrUnauthorized
	}
	if s.blocks == nil {
		return nil, nil
	}
	blocks, err := s.blocks.ListRoomBlocks(ctx, roomID)
	if err != nil {
		err = mapRepoError(err)
		logFailure(ctx, s.loggerWith(ctx, "ListRoomBlocks", "room_id", roomID), "failed to list room blocks", err)
		return nil, err
	}
	return blocks, nil
}

// CreateRoomBlock validates and stores a blackout window.
func (s *RoomBlockService) CreateRoomBlock(ctx context.Context, principal Principal, input RoomBlockInput) (block RoomBlock, err error) {
	if s == nil {
		err = errServiceNil("RoomBlockService")
		return
	}

	logger := s.loggerWith(ctx, "CreateRoomBlock",
		"principal_id", principal.UserID,
		"room_id", input.RoomID,
	)
	defer func() {
		if err != nil {
			logFailure(ctx, logger, "failed to create room block", err)
			return
		}
		logger.With("block_id", block.ID).InfoContext(ctx, "room block created")
	}()

	if err = require(principal, CapManageRooms); err != nil {
		return
	}

	vErr := &ValidationError{}
	if strings.TrimSpace(input.RoomID) == "" {
		vErr.add("room_id", msgRequired)
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
	if vErr.HasErrors() {
		err = vErr
		return
	}

	if s.rooms != nil {
		if _, err = s.rooms.GetRoom(ctx, input.RoomID); err != nil {
			err = mapRepoError(err)
			return
		}
	}

	block = RoomBlock{
		ID:        s.idGenerator(),
		RoomID:    input.RoomID,
		Start:     input.Start.UTC(),
		End:       input.End.UTC(),
		Reason:    normalizeOptionalString(input.Reason),
		CreatedBy: principal.UserID,
		CreatedAt: s.now(),
	}
	if s.blocks == nil {
		return
	}
	block, err = s.blocks.CreateRoomBlock(ctx, block)
	if err != nil {
		err = mapRepoError(err)
		return
	}
	s.audit.Record(ctx, principal.UserID, "room_block.create", "room_block", block.ID, nil)
	return
}

// DeleteRoomBlock removes a block that belongs to roomID.
func (s *RoomBlockService) DeleteRoomBlock(ctx context.Context, principal Principal, roomID, blockID string) error {
	if s == nil {
		return errServiceNil("RoomBlockService")
	}
	if err := require(principal, CapManageRooms); err != nil {
		return err
	}
	if s.blocks == nil {
		return ErrNotFound
	}

	logger := s.loggerWith(ctx, "DeleteRoomBlock",
		"principal_id", principal.UserID,
		"room_id", roomID,
		"block_id", blockID,
	)

	block, err := s.blocks.GetRoomBlock(ctx, blockID)
	if err != nil {
		err = mapRepoError(err)
		logFailure(ctx, logger, "failed to load room block", err)
		return err
	}
	if block.RoomID != roomID {
		logger.WarnContext(ctx, "room block belongs to another room", "actual_room_id", block.RoomID)
		return ErrNotFound
	}
	if err := s.blocks.DeleteRoomBlock(ctx, blockID); err != nil {
		err = mapRepoError(err)
		logFailure(ctx, logger, "failed to delete room block", err)
		return err
	}

	s.audit.Record(ctx, principal.UserID, "room_block.delete", "room_block", blockID, nil)
	logger.InfoContext(ctx, "room block deleted")
	return nil
}
