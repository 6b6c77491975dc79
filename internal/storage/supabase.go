// Package storage implements object stores for uploaded room photos.
package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/example/roombook/internal/application"
	"github.com/example/roombook/internal/persistence"
)

// Supabase stores objects in a Supabase Storage bucket through its REST API.
type Supabase struct {
	baseURL    string
	apiKey     string
	bucket     string
	httpClient *http.Client
}

var _ application.ObjectStore = (*Supabase)(nil)

// NewSupabase constructs a bucket client. A nil client gets a 30s timeout.
func NewSupabase(baseURL, apiKey, bucket string, client *http.Client) *Supabase {
	if !strings.HasPrefix(baseURL, "http") {
		baseURL = "https://" + baseURL
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Supabase{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		bucket:     bucket,
		httpClient: client,
	}
}

func (s *Supabase) objectURL(key string) string {
	return s.baseURL + "/storage/v1/object/" + url.PathEscape(s.bucket) + "/" + escapeKey(key)
}

// PublicURL returns the public address of key in the bucket.
func (s *Supabase) PublicURL(key string) string {
	return s.baseURL + "/storage/v1/object/public/" + url.PathEscape(s.bucket) + "/" + escapeKey(key)
}

func (s *Supabase) newRequest(ctx context.Context, method, target string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("supabase: create request: %w", err)
	}
	req.Header.Set("apikey", s.apiKey)
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	return req, nil
}

func (s *Supabase) do(req *http.Request) error {
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("supabase: send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 400 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: supabase object", persistence.ErrNotFound)
	}
	return fmt.Errorf("supabase: %s %s failed with status %d: %s", req.Method, req.URL.Path, resp.StatusCode, strings.TrimSpace(string(detail)))
}

// Put uploads body under key and returns its public URL.
func (s *Supabase) Put(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error) {
	req, err := s.newRequest(ctx, http.MethodPost, s.objectURL(key), body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Cache-Control", "max-age=3600")
	req.Header.Set("x-upsert", "false")
	if size > 0 {
		req.ContentLength = size
	}
	if err := s.do(req); err != nil {
		return "", err
	}
	return s.PublicURL(key), nil
}

// Delete removes key from the bucket.
func (s *Supabase) Delete(ctx context.Context, key string) error {
	req, err := s.newRequest(ctx, http.MethodDelete, s.objectURL(key), nil)
	if err != nil {
		return err
	}
	return s.do(req)
}

// Health checks that the bucket exists and the service key is accepted.
func (s *Supabase) Health(ctx context.Context) error {
	req, err := s.newRequest(ctx, http.MethodGet, s.baseURL+"/storage/v1/bucket/"+url.PathEscape(s.bucket), nil)
	if err != nil {
		return err
	}
	return s.do(req)
}

func escapeKey(key string) string {
	parts := strings.Split(strings.TrimPrefix(key, "/"), "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return strings.Join(parts, "/")
}
