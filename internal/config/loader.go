package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Object storage drivers.
const (
	StorageLocal    = "local"
	StorageSupabase = "supabase"
)

// Config captures environment driven configuration values for the booking service.
type Config struct {
	HTTPPort       int
	Environment    string
	LogLevel       slog.Level
	DatabaseDriver string
	SQLiteDSN      string
	DatabaseURL    string
	SessionSecret  string
	SessionTTL     time.Duration
	RequestTimeout time.Duration

	RedisAddr    string
	RoomCacheTTL time.Duration

	StorageDriver      string
	UploadDir          string
	PublicBaseURL      string
	SupabaseURL        string
	SupabaseServiceKey string
	StorageBucket      string

	AllowedOrigins []string

	BootstrapAdminEmail    string
	BootstrapAdminPassword string
}

// Production reports whether the service runs in the production environment.
func (c Config) Production() bool {
	return strings.EqualFold(c.Environment, "production")
}

// Presence reports which optional settings are configured without exposing values.
func (c Config) Presence() map[string]bool {
	return map[string]bool{
		"database_url":         c.DatabaseURL != "",
		"session_secret":       c.SessionSecret != "",
		"redis_addr":           c.RedisAddr != "",
		"supabase_url":         c.SupabaseURL != "",
		"supabase_service_key": c.SupabaseServiceKey != "",
		"storage_bucket":       c.StorageBucket != "",
		"bootstrap_admin":      c.BootstrapAdminEmail != "",
	}
}

// Load reads an optional .env file and then parses configuration values from
// the process environment. Variables already set in the environment win over
// the file. ROOMBOOK_ENV_FILE overrides the file location.
func Load() (Config, error) {
	path := strings.TrimSpace(os.Getenv("ROOMBOOK_ENV_FILE"))
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("環境設定ファイルを読み込めません (%s): %w", path, err)
	}
	return FromEnvironment()
}

// FromEnvironment parses configuration values from the current process environment.
//
// The loader applies sensible defaults for optional fields while validating
// required values and reporting localized error messages for missing entries.
func FromEnvironment() (Config, error) {
	cfg := Config{
		HTTPPort:       8080,
		Environment:    "development",
		LogLevel:       slog.LevelInfo,
		DatabaseDriver: DriverSQLite,
		SQLiteDSN:      "file:roombook.db",
		SessionTTL:     24 * time.Hour,
		RequestTimeout: 8 * time.Second,
		RoomCacheTTL:   time.Minute,
		StorageDriver:  StorageLocal,
		UploadDir:      "uploads",
		PublicBaseURL:  "http://localhost:8080",
		StorageBucket:  "room-images",
		AllowedOrigins: []string{"http://localhost:3000"},
	}

	missing := make([]string, 0, 2)
	invalid := make([]string, 0, 4)

	if portValue := env("HTTP_PORT"); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 || port > 65535 {
			invalid = append(invalid, key("HTTP_PORT"))
		} else {
			cfg.HTTPPort = port
		}
	}

	if environment := env("ENVIRONMENT"); environment != "" {
		cfg.Environment = strings.ToLower(environment)
	}

	if levelValue := env("LOG_LEVEL"); levelValue != "" {
		var level slog.Level
		if err := level.UnmarshalText([]byte(levelValue)); err != nil {
			invalid = append(invalid, key("LOG_LEVEL"))
		} else {
			cfg.LogLevel = level
		}
	}

	if driver := strings.ToLower(env("DATABASE_DRIVER")); driver != "" {
		switch driver {
		case DriverSQLite, DriverPostgres:
			cfg.DatabaseDriver = driver
		default:
			invalid = append(invalid, key("DATABASE_DRIVER"))
		}
	}

	if dsn := env("SQLITE_DSN"); dsn != "" {
		cfg.SQLiteDSN = dsn
	}

	cfg.DatabaseURL = env("DATABASE_URL")
	if cfg.DatabaseDriver == DriverPostgres && cfg.DatabaseURL == "" {
		missing = append(missing, key("DATABASE_URL"))
	}

	if secret := env("SESSION_SECRET"); secret == "" {
		missing = append(missing, key("SESSION_SECRET"))
	} else if len(secret) < 16 {
		invalid = append(invalid, key("SESSION_SECRET"))
	} else {
		cfg.SessionSecret = secret
	}

	parseDuration := func(name string, target *time.Duration) {
		value := env(name)
		if value == "" {
			return
		}
		d, err := time.ParseDuration(value)
		if err != nil || d <= 0 {
			invalid = append(invalid, key(name))
			return
		}
		*target = d
	}
	parseDuration("SESSION_TTL", &cfg.SessionTTL)
	parseDuration("REQUEST_TIMEOUT", &cfg.RequestTimeout)
	parseDuration("ROOM_CACHE_TTL", &cfg.RoomCacheTTL)

	cfg.RedisAddr = env("REDIS_ADDR")

	if driver := strings.ToLower(env("STORAGE_DRIVER")); driver != "" {
		switch driver {
		case StorageLocal, StorageSupabase:
			cfg.StorageDriver = driver
		default:
			invalid = append(invalid, key("STORAGE_DRIVER"))
		}
	}
	if dir := env("UPLOAD_DIR"); dir != "" {
		cfg.UploadDir = dir
	}
	if base := env("PUBLIC_BASE_URL"); base != "" {
		if !validURL(base) {
			invalid = append(invalid, key("PUBLIC_BASE_URL"))
		} else {
			cfg.PublicBaseURL = strings.TrimRight(base, "/")
		}
	}
	if bucket := env("STORAGE_BUCKET"); bucket != "" {
		cfg.StorageBucket = bucket
	}

	if supabaseURL := env("SUPABASE_URL"); supabaseURL != "" {
		if !validURL(supabaseURL) {
			invalid = append(invalid, key("SUPABASE_URL"))
		} else {
			cfg.SupabaseURL = strings.TrimRight(supabaseURL, "/")
		}
	}
	cfg.SupabaseServiceKey = env("SUPABASE_SERVICE_KEY")
	if cfg.StorageDriver == StorageSupabase {
		if env("SUPABASE_URL") == "" {
			missing = append(missing, key("SUPABASE_URL"))
		}
		if cfg.SupabaseServiceKey == "" {
			missing = append(missing, key("SUPABASE_SERVICE_KEY"))
		}
	}

	if origins := env("ALLOWED_ORIGINS"); origins != "" {
		cfg.AllowedOrigins = splitList(origins)
	}

	cfg.BootstrapAdminEmail = env("BOOTSTRAP_ADMIN_EMAIL")
	cfg.BootstrapAdminPassword = env("BOOTSTRAP_ADMIN_PASSWORD")
	if (cfg.BootstrapAdminEmail == "") != (cfg.BootstrapAdminPassword == "") {
		invalid = append(invalid, key("BOOTSTRAP_ADMIN_EMAIL")+"/"+key("BOOTSTRAP_ADMIN_PASSWORD"))
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("必須の環境変数が設定されていません: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("環境変数の値が不正です: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}

const envPrefix = "ROOMBOOK_"

func key(name string) string {
	return envPrefix + name
}

func env(name string) string {
	return strings.TrimSpace(os.Getenv(key(name)))
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func validURL(value string) bool {
	parsed, err := url.Parse(value)
	return err == nil && (parsed.Scheme == "http" || parsed.Scheme == "https") && parsed.Host != ""
}
