package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/example/roombook/internal/application"
	"github.com/example/roombook/internal/testfixtures"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type memoryObjectStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (m *memoryObjectStore) Put(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.objects == nil {
		m.objects = make(map[string][]byte)
	}
	m.objects[key] = data
	return "https://cdn.example.com/" + key, nil
}

func (m *memoryObjectStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.objects[key]; !ok {
		return application.ErrNotFound
	}
	delete(m.objects, key)
	return nil
}

type apiServer struct {
	t          *testing.T
	handler    http.Handler
	clock      *testfixtures.Clock
	store      *memoryObjectStore
	adminToken string
	userToken  string
}

func newAPIServer(t *testing.T) *apiServer {
	t.Helper()

	ctx := context.Background()
	factory := testfixtures.NewServiceFactory()
	harness := testfixtures.NewSQLiteHarness(t, factory.Clock.NowFunc())
	store := &memoryObjectStore{}

	services, err := factory.NewServices(harness.Repos, testfixtures.ServicesDeps{ObjectStore: store})
	if err != nil {
		t.Fatalf("NewServices returned error: %v", err)
	}
	if _, err := services.Users.BootstrapAdmin(ctx, "admin@example.com", "admin-password"); err != nil {
		t.Fatalf("BootstrapAdmin returned error: %v", err)
	}

	logger := discardLogger()
	handler := NewRouter(RouterConfig{
		Auth:        NewAuthHandler(services.Auth, logger),
		Users:       NewUserHandler(services.Users, logger),
		Rooms:       NewRoomHandler(services.Rooms, logger),
		RoomBlocks:  NewRoomBlockHandler(services.RoomBlocks, logger),
		Bookings:    NewBookingHandler(services.Bookings, logger).WithClock(factory.Clock.NowFunc()),
		Uploads:     NewUploadHandler(services.Uploads, logger),
		Admin:       NewAdminHandler(services.Reports, services.Settings, services.Audit, logger),
		Diagnostics: NewDiagnosticsHandler(DiagnosticsConfig{Sessions: services.Auth, Database: HealthFunc(harness.Storage.Ping)}, logger),
		Sessions:    services.Auth,
		Logger:      logger,
	})

	s := &apiServer{t: t, handler: handler, clock: factory.Clock, store: store}
	s.adminToken = s.login("admin@example.com", "admin-password")

	resp := s.do(http.MethodPost, "/api/users", s.adminToken, map[string]any{
		"email":        "hanako@example.com",
		"password":     "user-password",
		"display_name": "Hanako",
		"role":         "user",
	})
	s.expectStatus(resp, http.StatusCreated)
	s.userToken = s.login("hanako@example.com", "user-password")
	return s
}

func (s *apiServer) login(email, password string) string {
	s.t.Helper()
	resp := s.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": email, "password": password})
	s.expectStatus(resp, http.StatusOK)
	var session sessionDTO
	s.decodeData(resp, &session)
	if session.Token == "" {
		s.t.Fatalf("expected token for %s", email)
	}
	return session.Token
}

func (s *apiServer) do(method, path, token string, body any) *httptest.ResponseRecorder {
	s.t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			s.t.Fatalf("failed to encode body: %v", err)
		}
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	recorder := httptest.NewRecorder()
	s.handler.ServeHTTP(recorder, req)
	return recorder
}

func (s *apiServer) upload(token, filename, contentType string, size int) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, filename))
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	if err != nil {
		s.t.Fatalf("failed to create part: %v", err)
	}
	if _, err := part.Write(bytes.Repeat([]byte{0x42}, size)); err != nil {
		s.t.Fatalf("failed to write part: %v", err)
	}
	if err := writer.Close(); err != nil {
		s.t.Fatalf("failed to close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	recorder := httptest.NewRecorder()
	s.handler.ServeHTTP(recorder, req)
	return recorder
}

func (s *apiServer) expectStatus(resp *httptest.ResponseRecorder, status int) {
	s.t.Helper()
	if resp.Code != status {
		s.t.Fatalf("expected status %d, got %d: %s", status, resp.Code, resp.Body.String())
	}
}

func (s *apiServer) decodeData(resp *httptest.ResponseRecorder, out any) string {
	s.t.Helper()
	var envelope struct {
		Data    json.RawMessage `json:"data"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		s.t.Fatalf("failed to decode envelope %q: %v", resp.Body.String(), err)
	}
	if out != nil {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			s.t.Fatalf("failed to decode data %q: %v", envelope.Data, err)
		}
	}
	return envelope.Message
}

func (s *apiServer) createRoom(body map[string]any) roomDTO {
	s.t.Helper()
	resp := s.do(http.MethodPost, "/api/rooms", s.adminToken, body)
	s.expectStatus(resp, http.StatusCreated)
	var room roomDTO
	s.decodeData(resp, &room)
	return room
}

func TestBookingFlow_ImmediateApproval(t *testing.T) {
	s := newAPIServer(t)

	room := s.createRoom(map[string]any{
		"name":              "X",
		"capacity":          4,
		"location":          "Y",
		"color":             "#000000",
		"requires_approval": false,
	})

	resp := s.do(http.MethodPost, "/api/bookings", s.userToken, map[string]any{
		"room_id":    room.ID,
		"title":      "Standup",
		"start_time": s.clock.Today(9, 0).Format(time.RFC3339),
		"end_time":   s.clock.Today(10, 0).Format(time.RFC3339),
	})
	s.expectStatus(resp, http.StatusCreated)
	var booking bookingDTO
	if msg := s.decodeData(resp, &booking); msg != msgBookingApproved {
		t.Fatalf("expected approved message, got %q", msg)
	}
	if booking.Status != "approved" || booking.RequiresApprovalSnapshot {
		t.Fatalf("expected approved booking without approval snapshot, got %+v", booking)
	}
	if booking.AttendeeCount != 1 {
		t.Fatalf("expected attendee count to default to 1, got %d", booking.AttendeeCount)
	}

	resp = s.do(http.MethodGet, "/api/bookings?roomId="+room.ID, s.adminToken, nil)
	s.expectStatus(resp, http.StatusOK)
	var listed []bookingDTO
	s.decodeData(resp, &listed)
	if len(listed) != 1 || listed[0].ID != booking.ID {
		t.Fatalf("expected the booking to be listed for the room, got %+v", listed)
	}
	if listed[0].Room == nil || listed[0].Room.Name != "X" || listed[0].User == nil || listed[0].User.DisplayName != "Hanako" {
		t.Fatalf("expected joined room and user, got %+v", listed[0])
	}

	s.clock.Set(s.clock.Today(9, 30))
	resp = s.do(http.MethodGet, "/api/availability", s.userToken, nil)
	s.expectStatus(resp, http.StatusOK)
	var availability []availabilityDTO
	s.decodeData(resp, &availability)
	if len(availability) != 1 || availability[0].Status != "busy" || availability[0].Booking == nil {
		t.Fatalf("expected the room to be busy, got %+v", availability)
	}

	for _, at := range []time.Time{s.clock.Today(9, 0), s.clock.Today(10, 0)} {
		resp = s.do(http.MethodGet, "/api/availability?at="+at.UTC().Format(time.RFC3339), s.userToken, nil)
		s.expectStatus(resp, http.StatusOK)
		availability = nil
		s.decodeData(resp, &availability)
		if len(availability) != 1 || availability[0].Status != "busy" {
			t.Fatalf("expected the room to be busy at %s, got %+v", at, availability)
		}
	}

	resp = s.do(http.MethodGet, "/api/availability?at="+s.clock.Today(10, 1).UTC().Format(time.RFC3339), s.userToken, nil)
	s.expectStatus(resp, http.StatusOK)
	availability = nil
	s.decodeData(resp, &availability)
	if len(availability) != 1 || availability[0].Status != "available" {
		t.Fatalf("expected the room to be available after the booking, got %+v", availability)
	}
}

func TestBookingFlow_ApprovalRequired(t *testing.T) {
	s := newAPIServer(t)

	room := s.createRoom(map[string]any{
		"name":              "Board Room",
		"capacity":          12,
		"requires_approval": true,
	})

	resp := s.do(http.MethodPost, "/api/bookings", s.userToken, map[string]any{
		"room_id":    room.ID,
		"title":      "Quarterly review",
		"start_time": s.clock.Today(13, 0).Format(time.RFC3339),
		"end_time":   s.clock.Today(14, 0).Format(time.RFC3339),
	})
	s.expectStatus(resp, http.StatusCreated)
	var booking bookingDTO
	if msg := s.decodeData(resp, &booking); msg != msgBookingPending {
		t.Fatalf("expected pending message, got %q", msg)
	}
	if booking.Status != "pending" || !booking.RequiresApprovalSnapshot {
		t.Fatalf("expected pending booking with snapshot, got %+v", booking)
	}

	resp = s.do(http.MethodGet, "/api/bookings?status=pending", s.adminToken, nil)
	s.expectStatus(resp, http.StatusOK)
	var pending []bookingDTO
	s.decodeData(resp, &pending)
	if len(pending) != 1 || pending[0].ID != booking.ID {
		t.Fatalf("expected one pending booking, got %+v", pending)
	}

	resp = s.do(http.MethodPut, "/api/bookings", s.userToken, map[string]any{"id": booking.ID, "status": "approved"})
	s.expectStatus(resp, http.StatusForbidden)

	resp = s.do(http.MethodPut, "/api/bookings", s.adminToken, map[string]any{"id": booking.ID, "status": "rejected"})
	s.expectStatus(resp, http.StatusBadRequest)

	resp = s.do(http.MethodPut, "/api/bookings", s.adminToken, map[string]any{"id": booking.ID, "status": "approved"})
	s.expectStatus(resp, http.StatusOK)

	resp = s.do(http.MethodGet, "/api/bookings/"+booking.ID, s.userToken, nil)
	s.expectStatus(resp, http.StatusOK)
	var fetched bookingDTO
	s.decodeData(resp, &fetched)
	if fetched.Status != "approved" || fetched.ApprovedAt == nil || fetched.ApprovedBy == nil {
		t.Fatalf("expected approved booking with approval stamp, got %+v", fetched)
	}
}

func TestBookingFlow_Validation(t *testing.T) {
	s := newAPIServer(t)
	room := s.createRoom(map[string]any{"name": "Huddle", "capacity": 2})

	resp := s.do(http.MethodPost, "/api/bookings", s.userToken, map[string]any{
		"room_id":    room.ID,
		"title":      "",
		"start_time": s.clock.Today(11, 0).Format(time.RFC3339),
		"end_time":   s.clock.Today(10, 0).Format(time.RFC3339),
	})
	s.expectStatus(resp, http.StatusBadRequest)

	var body errorResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode error: %v", err)
	}
	if body.Error != msgMissingRequired || body.Details["title"] == "" || body.Details["end_time"] == "" {
		t.Fatalf("expected localized field errors, got %+v", body)
	}

	resp = s.do(http.MethodPost, "/api/bookings", s.userToken, map[string]any{
		"room_id":    room.ID,
		"title":      "Sync",
		"start_time": "tomorrow",
		"end_time":   "later",
	})
	s.expectStatus(resp, http.StatusBadRequest)
}

func TestRoutes_Authorization(t *testing.T) {
	s := newAPIServer(t)

	s.expectStatus(s.do(http.MethodGet, "/api/rooms", "", nil), http.StatusUnauthorized)
	s.expectStatus(s.do(http.MethodPost, "/api/rooms", s.userToken, map[string]any{"name": "Nope", "capacity": 2}), http.StatusForbidden)
	s.expectStatus(s.do(http.MethodGet, "/api/users", s.userToken, nil), http.StatusForbidden)
	s.expectStatus(s.do(http.MethodGet, "/api/reports?from=2024-03-01&to=2024-03-31", s.userToken, nil), http.StatusForbidden)
	s.expectStatus(s.do(http.MethodGet, "/api/reports?from=2024-03-01&to=2024-03-31", s.adminToken, nil), http.StatusOK)
	s.expectStatus(s.do(http.MethodGet, "/api/audit", s.adminToken, nil), http.StatusOK)

	resp := s.do(http.MethodGet, "/api/me", s.userToken, nil)
	s.expectStatus(resp, http.StatusOK)
	var me meDTO
	s.decodeData(resp, &me)
	if me.User.Email != "hanako@example.com" || len(me.Capabilities) != 0 {
		t.Fatalf("unexpected identity %+v", me)
	}

	resp = s.do(http.MethodPost, "/api/auth/logout", s.userToken, nil)
	s.expectStatus(resp, http.StatusOK)
	if msg := s.decodeData(resp, nil); msg == "" {
		t.Fatalf("expected a logout message")
	}
	s.expectStatus(s.do(http.MethodGet, "/api/me", s.userToken, nil), http.StatusUnauthorized)
}

func TestUserRoutes_DuplicateEmailIsBadRequest(t *testing.T) {
	s := newAPIServer(t)

	resp := s.do(http.MethodPost, "/api/users", s.adminToken, map[string]any{
		"email":        "hanako@example.com",
		"password":     "another-password",
		"display_name": "Hanako Again",
		"role":         "user",
	})
	s.expectStatus(resp, http.StatusBadRequest)
	var body errorResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode error: %v", err)
	}
	if body.Error != msgAlreadyExists {
		t.Fatalf("expected %q, got %q", msgAlreadyExists, body.Error)
	}
}

func TestRoomRoutes(t *testing.T) {
	s := newAPIServer(t)
	room := s.createRoom(map[string]any{"name": "Library", "capacity": 8, "equipment": []string{"whiteboard"}})

	resp := s.do(http.MethodPut, "/api/rooms", s.adminToken, map[string]any{"id": room.ID, "capacity": 10})
	s.expectStatus(resp, http.StatusOK)
	var updated roomDTO
	s.decodeData(resp, &updated)
	if updated.Capacity != 10 || updated.Name != "Library" || len(updated.Equipment) != 1 {
		t.Fatalf("expected partial update to keep untouched fields, got %+v", updated)
	}

	resp = s.do(http.MethodPut, "/api/rooms/"+room.ID, s.adminToken, map[string]any{"active": false})
	s.expectStatus(resp, http.StatusOK)

	resp = s.do(http.MethodGet, "/api/rooms?active=true", s.userToken, nil)
	s.expectStatus(resp, http.StatusOK)
	var active []roomDTO
	s.decodeData(resp, &active)
	if len(active) != 0 {
		t.Fatalf("expected inactive room to be filtered out, got %+v", active)
	}

	s.expectStatus(s.do(http.MethodGet, "/api/rooms?active=maybe", s.userToken, nil), http.StatusBadRequest)

	resp = s.do(http.MethodPost, "/api/rooms/"+room.ID+"/blocks", s.adminToken, map[string]any{
		"start_time": s.clock.Today(12, 0).Format(time.RFC3339),
		"end_time":   s.clock.Today(13, 0).Format(time.RFC3339),
		"reason":     "cleaning",
	})
	s.expectStatus(resp, http.StatusCreated)
	var block roomBlockDTO
	s.decodeData(resp, &block)

	resp = s.do(http.MethodGet, "/api/rooms/"+room.ID+"/blocks", s.userToken, nil)
	s.expectStatus(resp, http.StatusOK)
	var blocks []roomBlockDTO
	s.decodeData(resp, &blocks)
	if len(blocks) != 1 || blocks[0].ID != block.ID {
		t.Fatalf("expected one block, got %+v", blocks)
	}
	resp = s.do(http.MethodDelete, "/api/rooms/"+room.ID+"/blocks/"+block.ID, s.adminToken, nil)
	s.expectStatus(resp, http.StatusOK)
	var deleted deletedDTO
	if msg := s.decodeData(resp, &deleted); deleted.ID != block.ID || msg == "" {
		t.Fatalf("expected deleted block envelope, got %+v %q", deleted, msg)
	}

	resp = s.do(http.MethodDelete, "/api/rooms?id="+room.ID, s.adminToken, nil)
	s.expectStatus(resp, http.StatusOK)
	deleted = deletedDTO{}
	if msg := s.decodeData(resp, &deleted); deleted.ID != room.ID || msg == "" {
		t.Fatalf("expected deleted room envelope, got %+v %q", deleted, msg)
	}
	s.expectStatus(s.do(http.MethodGet, "/api/rooms/"+room.ID, s.adminToken, nil), http.StatusNotFound)
	s.expectStatus(s.do(http.MethodDelete, "/api/rooms", s.adminToken, nil), http.StatusBadRequest)
}

func TestUploadRoutes(t *testing.T) {
	s := newAPIServer(t)

	tests := []struct {
		name        string
		token       string
		filename    string
		contentType string
		size        int
		status      int
		message     string
	}{
		{name: "pdf is rejected", token: s.adminToken, filename: "doc.pdf", contentType: "application/pdf", size: 1024, status: http.StatusBadRequest, message: msgUnsupportedType},
		{name: "6MB jpeg is rejected", token: s.adminToken, filename: "big.jpg", contentType: "image/jpeg", size: 6 << 20, status: http.StatusBadRequest, message: msgFileTooLarge},
		{name: "regular user is forbidden", token: s.userToken, filename: "a.png", contentType: "image/png", size: 16, status: http.StatusForbidden, message: msgForbidden},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp := s.upload(tc.token, tc.filename, tc.contentType, tc.size)
			s.expectStatus(resp, tc.status)
			var body errorResponse
			if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
				t.Fatalf("failed to decode error: %v", err)
			}
			if body.Error != tc.message {
				t.Fatalf("expected %q, got %q", tc.message, body.Error)
			}
		})
	}

	t.Run("2MB png is stored", func(t *testing.T) {
		resp := s.upload(s.adminToken, "photo.png", "image/png", 2<<20)
		s.expectStatus(resp, http.StatusCreated)
		var uploaded uploadDTO
		s.decodeData(resp, &uploaded)
		if !strings.HasPrefix(uploaded.Path, "rooms/") || !strings.HasSuffix(uploaded.Path, ".png") {
			t.Fatalf("unexpected object path %q", uploaded.Path)
		}
		if uploaded.Size != 2<<20 || uploaded.URL != "https://cdn.example.com/"+uploaded.Path {
			t.Fatalf("unexpected upload result %+v", uploaded)
		}

		resp = s.do(http.MethodDelete, "/api/upload?path="+uploaded.Path, s.adminToken, nil)
		s.expectStatus(resp, http.StatusOK)
		var deleted deletedDTO
		if msg := s.decodeData(resp, &deleted); deleted.Path != uploaded.Path || msg == "" {
			t.Fatalf("expected deleted upload envelope, got %+v %q", deleted, msg)
		}
		s.expectStatus(s.do(http.MethodDelete, "/api/upload?path="+uploaded.Path, s.adminToken, nil), http.StatusNotFound)
		s.expectStatus(s.do(http.MethodDelete, "/api/upload?path=../etc/passwd", s.adminToken, nil), http.StatusBadRequest)
	})
}

func TestDiagnosticsRoutes(t *testing.T) {
	s := newAPIServer(t)

	resp := s.do(http.MethodGet, "/api/auth-debug", s.userToken, nil)
	s.expectStatus(resp, http.StatusOK)
	var debug authDebugDTO
	s.decodeData(resp, &debug)
	if !debug.TokenPresent || !debug.Valid || debug.Role != "user" {
		t.Fatalf("unexpected auth debug %+v", debug)
	}

	resp = s.do(http.MethodGet, "/api/auth-debug", "not-a-token", nil)
	s.expectStatus(resp, http.StatusOK)
	s.decodeData(resp, &debug)
	if debug.Valid || debug.ErrorKind == "" {
		t.Fatalf("expected invalid token to be reported, got %+v", debug)
	}

	resp = s.do(http.MethodGet, "/api/supabase-health", "", nil)
	s.expectStatus(resp, http.StatusOK)
	var checks map[string]string
	s.decodeData(resp, &checks)
	if checks["database"] != "ok" || checks["object_store"] != "not_configured" {
		t.Fatalf("unexpected health checks %v", checks)
	}

	s.expectStatus(s.do(http.MethodGet, "/ping", "", nil), http.StatusOK)
}
