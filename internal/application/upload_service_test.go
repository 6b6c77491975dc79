package application

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/example/roombook/internal/persistence"
)

type objectStoreStub struct {
	objects map[string][]byte
	types   map[string]string
	putErr  error
}

func newObjectStoreStub() *objectStoreStub {
	return &objectStoreStub{objects: make(map[string][]byte), types: make(map[string]string)}
}

func (s *objectStoreStub) Put(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error) {
	if s.putErr != nil {
		return "", s.putErr
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	s.objects[key] = data
	s.types[key] = contentType
	return "https://cdn.example.com/" + key, nil
}

func (s *objectStoreStub) Delete(ctx context.Context, key string) error {
	if _, ok := s.objects[key]; !ok {
		return persistence.ErrNotFound
	}
	delete(s.objects, key)
	return nil
}

func newUploadServiceForTest(store ObjectStore) *UploadService {
	return NewUploadService(store, func() string { return "img-1" }, nil)
}

func TestUploadService_Upload(t *testing.T) {
	t.Run("stores supported images", func(t *testing.T) {
		store := newObjectStoreStub()
		svc := newUploadServiceForTest(store)
		body := bytes.Repeat([]byte{0x89}, 2<<20)

		result, err := svc.Upload(context.Background(), UploadParams{
			Principal:   editorPrincipal,
			Filename:    "room.png",
			ContentType: "image/png",
			Size:        int64(len(body)),
			Body:        bytes.NewReader(body),
		})
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if result.Path != "rooms/img-1.png" || result.URL != "https://cdn.example.com/rooms/img-1.png" {
			t.Fatalf("unexpected result %+v", result)
		}
		if len(store.objects["rooms/img-1.png"]) != len(body) {
			t.Fatalf("expected full body to be stored")
		}
	})

	t.Run("accepts content type parameters", func(t *testing.T) {
		store := newObjectStoreStub()
		svc := newUploadServiceForTest(store)
		result, err := svc.Upload(context.Background(), UploadParams{
			Principal:   adminPrincipal,
			ContentType: "IMAGE/JPEG; charset=binary",
			Body:        bytes.NewReader([]byte("jpeg")),
		})
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if result.Path != "rooms/img-1.jpg" || store.types[result.Path] != "image/jpeg" {
			t.Fatalf("unexpected result %+v", result)
		}
	})

	cases := []struct {
		name        string
		principal   Principal
		contentType string
		size        int64
		body        []byte
		want        error
	}{
		{name: "rejects pdf", principal: adminPrincipal, contentType: "application/pdf", body: []byte("%PDF"), want: ErrUnsupportedFileType},
		{name: "rejects oversized jpeg", principal: adminPrincipal, contentType: "image/jpeg", size: 6 << 20, body: []byte("x"), want: ErrFileTooLarge},
		{name: "rejects oversized body without declared size", principal: adminPrincipal, contentType: "image/jpeg", body: make([]byte, 6<<20), want: ErrFileTooLarge},
		{name: "type is checked before size", principal: adminPrincipal, contentType: "application/pdf", size: 6 << 20, body: []byte("x"), want: ErrUnsupportedFileType},
		{name: "rejects empty files", principal: adminPrincipal, contentType: "image/gif", body: []byte{}, want: ErrEmptyFile},
		{name: "requires manage rooms", principal: userPrincipal, contentType: "image/png", body: []byte("x"), want: ErrForbidden},
		{name: "requires a session", principal: Principal{}, contentType: "image/png", body: []byte("x"), want: ErrUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := newObjectStoreStub()
			svc := newUploadServiceForTest(store)
			_, err := svc.Upload(context.Background(), UploadParams{
				Principal:   tc.principal,
				ContentType: tc.contentType,
				Size:        tc.size,
				Body:        bytes.NewReader(tc.body),
			})
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			if len(store.objects) != 0 {
				t.Fatalf("expected nothing to be stored")
			}
		})
	}

	t.Run("propagates store failures", func(t *testing.T) {
		store := newObjectStoreStub()
		store.putErr = errors.New("bucket unavailable")
		svc := newUploadServiceForTest(store)
		_, err := svc.Upload(context.Background(), UploadParams{Principal: adminPrincipal, ContentType: "image/webp", Body: bytes.NewReader([]byte("x"))})
		if err == nil || ErrorKind(err) != "unexpected" {
			t.Fatalf("expected unexpected error, got %v", err)
		}
	})
}

func TestUploadService_DeleteUpload(t *testing.T) {
	t.Run("deletes stored objects", func(t *testing.T) {
		store := newObjectStoreStub()
		store.objects["rooms/img-1.png"] = []byte("x")
		svc := newUploadServiceForTest(store)
		if err := svc.DeleteUpload(context.Background(), adminPrincipal, "/rooms/img-1.png"); err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if len(store.objects) != 0 {
			t.Fatalf("expected object to be removed")
		}
	})

	t.Run("maps missing objects to not found", func(t *testing.T) {
		svc := newUploadServiceForTest(newObjectStoreStub())
		if err := svc.DeleteUpload(context.Background(), adminPrincipal, "rooms/missing.png"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	for _, p := range []string{"", "rooms/../secrets.txt", "avatars/a.png", "rooms/"} {
		t.Run("rejects path "+p, func(t *testing.T) {
			svc := newUploadServiceForTest(newObjectStoreStub())
			err := svc.DeleteUpload(context.Background(), adminPrincipal, p)
			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}

	t.Run("requires manage rooms", func(t *testing.T) {
		svc := newUploadServiceForTest(newObjectStoreStub())
		if err := svc.DeleteUpload(context.Background(), userPrincipal, "rooms/a.png"); !errors.Is(err, ErrForbidden) {
			t.Fatalf("expected ErrForbidden, got %v", err)
		}
	})
}
