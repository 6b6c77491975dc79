package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/roombook/internal/persistence"
)

func TestRoomRepository_CreateRoom(t *testing.T) {
	storage := setupStorage(t)
	ctx := context.Background()

	minDuration := 30
	description := "Corner room with a view"
	room := persistence.Room{
		ID:                 "room1",
		Name:               "Conference Room A",
		Description:        &description,
		Capacity:           10,
		Location:           "Building 1, Floor 2",
		Equipment:          []string{"projector", "whiteboard"},
		Tags:               []string{"large"},
		ImageURLs:          []string{"https://cdn.example.com/a.png"},
		Color:              "#10B981",
		RequiresApproval:   true,
		CancellationHours:  48,
		TimeSlotMinutes:    15,
		MinDurationMinutes: &minDuration,
		Bookable:           true,
		Active:             true,
	}

	if err := storage.CreateRoom(ctx, room); err != nil {
		t.Fatalf("CreateRoom failed: %v", err)
	}

	retrieved, err := storage.GetRoom(ctx, "room1")
	if err != nil {
		t.Fatalf("GetRoom failed: %v", err)
	}
	if retrieved.Name != "Conference Room A" {
		t.Errorf("Expected name 'Conference Room A', got '%s'", retrieved.Name)
	}
	if len(retrieved.Equipment) != 2 || retrieved.Equipment[1] != "whiteboard" {
		t.Errorf("Expected equipment to round trip, got %v", retrieved.Equipment)
	}
	if !retrieved.RequiresApproval || retrieved.CancellationHours != 48 {
		t.Errorf("Expected approval settings to round trip, got %+v", retrieved)
	}
	if retrieved.MinDurationMinutes == nil || *retrieved.MinDurationMinutes != 30 {
		t.Errorf("Expected min duration 30, got %v", retrieved.MinDurationMinutes)
	}
	if retrieved.MaxDurationMinutes != nil {
		t.Errorf("Expected nil max duration, got %v", *retrieved.MaxDurationMinutes)
	}
	if retrieved.Description == nil || *retrieved.Description != description {
		t.Errorf("Expected description to round trip, got %v", retrieved.Description)
	}
}

func TestRoomRepository_CreateRoom_InvalidCapacity(t *testing.T) {
	storage := setupStorage(t)

	err := storage.CreateRoom(context.Background(), persistence.Room{ID: "room1", Name: "A", Capacity: 0})
	if !errors.Is(err, persistence.ErrConstraintViolation) {
		t.Fatalf("Expected ErrConstraintViolation, got %v", err)
	}
}

func TestRoomRepository_CreateRoom_Duplicate(t *testing.T) {
	storage := setupStorage(t)
	seedRoom(t, storage, "room1", "A", false)

	err := storage.CreateRoom(context.Background(), persistence.Room{
		ID: "room1", Name: "B", Capacity: 2, Color: "#000000", TimeSlotMinutes: 30,
	})
	if !errors.Is(err, persistence.ErrDuplicate) {
		t.Fatalf("Expected ErrDuplicate, got %v", err)
	}
}

func TestRoomRepository_UpdateRoom(t *testing.T) {
	storage := setupStorage(t)
	ctx := context.Background()
	room := seedRoom(t, storage, "room1", "A", false)

	room.Name = "Renamed"
	room.Tags = []string{"quiet"}
	room.Active = false
	room.UpdatedAt = time.Now().UTC().Add(time.Minute)
	if err := storage.UpdateRoom(ctx, room); err != nil {
		t.Fatalf("UpdateRoom failed: %v", err)
	}

	got, err := storage.GetRoom(ctx, "room1")
	if err != nil {
		t.Fatalf("GetRoom failed: %v", err)
	}
	if got.Name != "Renamed" || got.Active || len(got.Tags) != 1 {
		t.Fatalf("Update not persisted: %+v", got)
	}

	missing := room
	missing.ID = "nope"
	if err := storage.UpdateRoom(ctx, missing); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}

func TestRoomRepository_ListRooms(t *testing.T) {
	storage := setupStorage(t)
	ctx := context.Background()
	seedRoom(t, storage, "room-b", "Beta", false)
	seedRoom(t, storage, "room-a", "Alpha", false)
	inactive := seedRoom(t, storage, "room-c", "Gamma", false)
	inactive.Active = false
	if err := storage.UpdateRoom(ctx, inactive); err != nil {
		t.Fatalf("UpdateRoom failed: %v", err)
	}

	t.Run("all rooms ordered by name", func(t *testing.T) {
		rooms, err := storage.ListRooms(ctx, persistence.RoomFilter{})
		if err != nil {
			t.Fatalf("ListRooms failed: %v", err)
		}
		if len(rooms) != 3 {
			t.Fatalf("Expected 3 rooms, got %d", len(rooms))
		}
		if rooms[0].Name != "Alpha" || rooms[2].Name != "Gamma" {
			t.Fatalf("Unexpected order: %s, %s, %s", rooms[0].Name, rooms[1].Name, rooms[2].Name)
		}
	})

	t.Run("active only", func(t *testing.T) {
		active := true
		rooms, err := storage.ListRooms(ctx, persistence.RoomFilter{Active: &active})
		if err != nil {
			t.Fatalf("ListRooms failed: %v", err)
		}
		if len(rooms) != 2 {
			t.Fatalf("Expected 2 active rooms, got %d", len(rooms))
		}
	})
}

func TestRoomRepository_DeleteRoomCascadesBookings(t *testing.T) {
	storage := setupStorage(t)
	ctx := context.Background()
	seedRoom(t, storage, "room1", "A", false)
	seedProfile(t, storage, "user1", "user1@example.com", "user")

	start := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	booking := persistence.Booking{
		ID: "b1", RoomID: "room1", UserID: "user1", Title: "Sync",
		StartTime: start, EndTime: start.Add(time.Hour), AttendeeCount: 1, Status: "approved",
	}
	if err := storage.CreateBooking(ctx, booking); err != nil {
		t.Fatalf("CreateBooking failed: %v", err)
	}

	if err := storage.DeleteRoom(ctx, "room1"); err != nil {
		t.Fatalf("DeleteRoom failed: %v", err)
	}
	if _, err := storage.GetBooking(ctx, "b1"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("Expected booking to cascade, got %v", err)
	}
	if err := storage.DeleteRoom(ctx, "room1"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound on second delete, got %v", err)
	}
}
