package testfixtures

import (
	"log/slog"
	"time"

	"github.com/example/roombook/internal/adapters"
	"github.com/example/roombook/internal/application"
)

// TestTokenSecret signs session tokens issued by factory built services.
const TestTokenSecret = "roombook-test-secret-0123456789"

// FastArgon2idParams keeps password hashing cheap in tests.
var FastArgon2idParams = application.Argon2idParams{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 8, KeyLength: 16}

// ServiceFactory builds application services with deterministic identifiers and clocks.
type ServiceFactory struct {
	Clock       *Clock
	IDGenerator *IDGenerator
	Logger      *slog.Logger
}

// ServiceFactoryOption configures a ServiceFactory instance.
type ServiceFactoryOption func(*ServiceFactory)

func NewServiceFactory(opts ...ServiceFactoryOption) *ServiceFactory {
	factory := &ServiceFactory{
		Clock:       NewClock(time.Time{}),
		IDGenerator: NewIDGenerator("id"),
		Logger:      DiscardLogger(),
	}
	for _, opt := range opts {
		opt(factory)
	}
	if factory.Clock == nil {
		factory.Clock = NewClock(time.Time{})
	}
	if factory.IDGenerator == nil {
		factory.IDGenerator = NewIDGenerator("id")
	}
	if factory.Logger == nil {
		factory.Logger = DiscardLogger()
	}
	return factory
}

func WithClock(clock *Clock) ServiceFactoryOption {
	return func(factory *ServiceFactory) { factory.Clock = clock }
}

func WithIDGenerator(generator *IDGenerator) ServiceFactoryOption {
	return func(factory *ServiceFactory) { factory.IDGenerator = generator }
}

func WithLogger(logger *slog.Logger) ServiceFactoryOption {
	return func(factory *ServiceFactory) { factory.Logger = logger }
}

// Services is the full application service graph.
type Services struct {
	Auth       *application.AuthService
	Users      *application.UserService
	Rooms      *application.RoomService
	RoomBlocks *application.RoomBlockService
	Bookings   *application.BookingService
	Reports    *application.ReportService
	Settings   *application.SettingsService
	Audit      *application.AuditService
	Uploads    *application.UploadService
}

// ServicesDeps supplies the optional collaborators of the service graph.
type ServicesDeps struct {
	Notifier    application.Notifier
	ObjectStore application.ObjectStore
	RoomCache   application.RoomCache
	SessionTTL  time.Duration
}

// NewServices wires every service over repos the way cmd/roombook does.
func (f *ServiceFactory) NewServices(repos adapters.Repositories, deps ServicesDeps) (Services, error) {
	now := f.Clock.NowFunc()
	nextID := f.IDGenerator.NextFunc()
	ttl := deps.SessionTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	tokens, err := application.NewTokenCodec([]byte(TestTokenSecret), now)
	if err != nil {
		return Services{}, err
	}

	audit := application.NewAuditRecorder(repos.Audit, nextID, now, f.Logger)
	settings := application.NewSettingsService(repos.Settings, now, f.Logger).WithAudit(audit)
	users := application.NewUserServiceWithLogger(repos.Profiles, repos.Identities, nextID, now, f.Logger).
		WithPasswordHasher(application.NewArgon2idHasher(FastArgon2idParams)).
		WithAudit(audit)
	rooms := application.NewRoomServiceWithLogger(repos.Rooms, nextID, now, f.Logger).
		WithSettings(settings).
		WithAudit(audit)
	if deps.RoomCache != nil {
		rooms = rooms.WithCache(deps.RoomCache)
	}
	bookings := application.NewBookingServiceWithLogger(repos.Bookings, repos.Rooms, repos.Profiles, nextID, now, f.Logger).
		WithAudit(audit)
	if deps.Notifier != nil {
		bookings = bookings.WithNotifier(deps.Notifier)
	}

	return Services{
		Auth:       application.NewAuthServiceWithLogger(repos.Identities, users, repos.Profiles, repos.Sessions, tokens, nextID, now, ttl, f.Logger),
		Users:      users,
		Rooms:      rooms,
		RoomBlocks: application.NewRoomBlockService(repos.RoomBlocks, repos.Rooms, nextID, now, f.Logger).WithAudit(audit),
		Bookings:   bookings,
		Reports:    application.NewReportService(repos.Bookings, repos.Rooms, settings, f.Logger),
		Settings:   settings,
		Audit:      application.NewAuditService(repos.Audit, f.Logger),
		Uploads:    application.NewUploadService(deps.ObjectStore, nextID, f.Logger),
	}, nil
}
