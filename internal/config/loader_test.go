package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

var allKeys = []string{
	"HTTP_PORT", "ENVIRONMENT", "LOG_LEVEL", "DATABASE_DRIVER", "SQLITE_DSN", "DATABASE_URL",
	"SESSION_SECRET", "SESSION_TTL", "REQUEST_TIMEOUT", "REDIS_ADDR", "ROOM_CACHE_TTL",
	"STORAGE_DRIVER", "UPLOAD_DIR", "PUBLIC_BASE_URL", "SUPABASE_URL", "SUPABASE_SERVICE_KEY",
	"STORAGE_BUCKET", "ALLOWED_ORIGINS", "BOOTSTRAP_ADMIN_EMAIL", "BOOTSTRAP_ADMIN_PASSWORD",
	"ENV_FILE",
}

// clearEnvironment blanks every recognised variable for the duration of the test.
func clearEnvironment(t *testing.T) {
	t.Helper()
	for _, name := range allKeys {
		t.Setenv(key(name), "")
	}
}

const testSecret = "0123456789abcdef-secret"

func TestLoader_ParseEnvironment(t *testing.T) {
	t.Run("applies defaults when variables are missing", func(t *testing.T) {
		clearEnvironment(t)
		t.Setenv(key("SESSION_SECRET"), testSecret)

		cfg, err := FromEnvironment()
		if err != nil {
			t.Fatalf("FromEnvironment returned error: %v", err)
		}

		if cfg.HTTPPort != 8080 {
			t.Fatalf("expected default HTTP port 8080, got %d", cfg.HTTPPort)
		}
		if cfg.DatabaseDriver != DriverSQLite || cfg.SQLiteDSN != "file:roombook.db" {
			t.Fatalf("unexpected default database settings: %q %q", cfg.DatabaseDriver, cfg.SQLiteDSN)
		}
		if cfg.RequestTimeout != 8*time.Second {
			t.Fatalf("expected default request timeout 8s, got %s", cfg.RequestTimeout)
		}
		if cfg.StorageDriver != StorageLocal || cfg.UploadDir != "uploads" {
			t.Fatalf("unexpected default storage settings: %q %q", cfg.StorageDriver, cfg.UploadDir)
		}
		if cfg.LogLevel != slog.LevelInfo {
			t.Fatalf("expected info log level, got %v", cfg.LogLevel)
		}
		if cfg.Production() {
			t.Fatalf("expected development environment by default")
		}
		if cfg.SessionSecret != testSecret {
			t.Fatalf("expected session secret to be %q, got %q", testSecret, cfg.SessionSecret)
		}
	})

	t.Run("errors when required values are missing", func(t *testing.T) {
		clearEnvironment(t)

		_, err := FromEnvironment()
		if err == nil {
			t.Fatalf("expected error when required values are missing")
		}
		expected := "必須の環境変数が設定されていません: ROOMBOOK_SESSION_SECRET"
		if err.Error() != expected {
			t.Fatalf("unexpected error message: %q", err.Error())
		}
	})

	t.Run("requires driver specific settings", func(t *testing.T) {
		clearEnvironment(t)
		t.Setenv(key("SESSION_SECRET"), testSecret)
		t.Setenv(key("DATABASE_DRIVER"), "postgres")
		t.Setenv(key("STORAGE_DRIVER"), "supabase")

		_, err := FromEnvironment()
		if err == nil {
			t.Fatalf("expected error for missing driver settings")
		}
		expected := "必須の環境変数が設定されていません: ROOMBOOK_DATABASE_URL, ROOMBOOK_SUPABASE_URL, ROOMBOOK_SUPABASE_SERVICE_KEY"
		if err.Error() != expected {
			t.Fatalf("unexpected error message: %q", err.Error())
		}
	})

	t.Run("reports invalid values", func(t *testing.T) {
		clearEnvironment(t)
		t.Setenv(key("SESSION_SECRET"), "short")
		t.Setenv(key("HTTP_PORT"), "abc")
		t.Setenv(key("SESSION_TTL"), "-1h")
		t.Setenv(key("BOOTSTRAP_ADMIN_EMAIL"), "admin@example.com")

		_, err := FromEnvironment()
		if err == nil {
			t.Fatalf("expected error for invalid values")
		}
		expected := "環境変数の値が不正です: ROOMBOOK_HTTP_PORT, ROOMBOOK_SESSION_SECRET, ROOMBOOK_SESSION_TTL, ROOMBOOK_BOOTSTRAP_ADMIN_EMAIL/ROOMBOOK_BOOTSTRAP_ADMIN_PASSWORD"
		if err.Error() != expected {
			t.Fatalf("unexpected error message: %q", err.Error())
		}
	})

	t.Run("parses duration list and numeric fields", func(t *testing.T) {
		clearEnvironment(t)
		t.Setenv(key("SESSION_SECRET"), testSecret)
		t.Setenv(key("HTTP_PORT"), "9090")
		t.Setenv(key("ENVIRONMENT"), "Production")
		t.Setenv(key("LOG_LEVEL"), "debug")
		t.Setenv(key("DATABASE_DRIVER"), "postgres")
		t.Setenv(key("DATABASE_URL"), "postgres://localhost/roombook")
		t.Setenv(key("SESSION_TTL"), "12h")
		t.Setenv(key("REQUEST_TIMEOUT"), "3s")
		t.Setenv(key("ROOM_CACHE_TTL"), "30s")
		t.Setenv(key("REDIS_ADDR"), "localhost:6379")
		t.Setenv(key("ALLOWED_ORIGINS"), "https://a.example.com, ,https://b.example.com")
		t.Setenv(key("PUBLIC_BASE_URL"), "https://rooms.example.com/")

		cfg, err := FromEnvironment()
		if err != nil {
			t.Fatalf("FromEnvironment returned error: %v", err)
		}

		if cfg.HTTPPort != 9090 {
			t.Fatalf("expected HTTP port 9090, got %d", cfg.HTTPPort)
		}
		if !cfg.Production() || cfg.LogLevel != slog.LevelDebug {
			t.Fatalf("unexpected environment %q level %v", cfg.Environment, cfg.LogLevel)
		}
		if cfg.SessionTTL != 12*time.Hour || cfg.RequestTimeout != 3*time.Second || cfg.RoomCacheTTL != 30*time.Second {
			t.Fatalf("unexpected durations %s %s %s", cfg.SessionTTL, cfg.RequestTimeout, cfg.RoomCacheTTL)
		}
		if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "https://b.example.com" {
			t.Fatalf("unexpected origins %v", cfg.AllowedOrigins)
		}
		if cfg.PublicBaseURL != "https://rooms.example.com" {
			t.Fatalf("expected trailing slash to be trimmed, got %q", cfg.PublicBaseURL)
		}
		if cfg.RedisAddr != "localhost:6379" || cfg.DatabaseURL != "postgres://localhost/roombook" {
			t.Fatalf("unexpected connection settings %q %q", cfg.RedisAddr, cfg.DatabaseURL)
		}
	})
}

func TestLoad_ReadsEnvFile(t *testing.T) {
	clearEnvironment(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	content := "ROOMBOOK_SESSION_SECRET=" + testSecret + "\nROOMBOOK_HTTP_PORT=7070\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write env file: %v", err)
	}
	t.Setenv(key("ENV_FILE"), path)
	// godotenv does not override variables that are already present, so the
	// blanked port must be removed for the file value to apply.
	os.Unsetenv(key("HTTP_PORT"))
	os.Unsetenv(key("SESSION_SECRET"))
	t.Cleanup(func() {
		os.Unsetenv(key("HTTP_PORT"))
		os.Unsetenv(key("SESSION_SECRET"))
	})

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.HTTPPort != 7070 || cfg.SessionSecret != testSecret {
		t.Fatalf("expected env file values, got port %d secret %q", cfg.HTTPPort, cfg.SessionSecret)
	}
}

func TestLoad_MissingEnvFileIsIgnored(t *testing.T) {
	clearEnvironment(t)
	t.Setenv(key("ENV_FILE"), filepath.Join(t.TempDir(), "absent.env"))
	t.Setenv(key("SESSION_SECRET"), testSecret)

	if _, err := Load(); err != nil {
		t.Fatalf("expected missing env file to be ignored, got %v", err)
	}
}

func TestConfig_Presence(t *testing.T) {
	t.Parallel()

	cfg := Config{SessionSecret: testSecret, SupabaseURL: "https://x.supabase.co"}
	presence := cfg.Presence()
	if !presence["session_secret"] || !presence["supabase_url"] {
		t.Fatalf("expected configured keys to be reported, got %v", presence)
	}
	if presence["supabase_service_key"] || presence["redis_addr"] {
		t.Fatalf("expected unset keys to be reported as absent, got %v", presence)
	}
}
