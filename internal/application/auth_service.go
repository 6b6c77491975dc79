package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// IdentityLookup resolves sign-in credentials by email.
type IdentityLookup interface {
	GetIdentityByEmail(ctx context.Context, email string) (Credentials, error)
}

// ProfileProvisioner returns the profile behind credentials, creating it when missing.
type ProfileProvisioner interface {
	EnsureProfile(ctx context.Context, creds Credentials) (User, error)
}

// ProfileReader loads a profile by id.
type ProfileReader interface {
	GetProfile(ctx context.Context, id string) (User, error)
}

// SessionRepository captures the persistence interactions for issued sessions.
type SessionRepository interface {
	CreateSession(ctx context.Context, session Session) (Session, error)
	GetSession(ctx context.Context, id string) (Session, error)
	UpdateSession(ctx context.Context, session Session) (Session, error)
	RevokeSession(ctx context.Context, id string, revokedAt time.Time) (Session, error)
	DeleteExpiredSessions(ctx context.Context, reference time.Time) error
}

// PasswordVerifier compares a stored hash with a candidate password.
type PasswordVerifier func(hashedPassword, password string) error

// SessionIdentity is the resolved owner of a valid session token.
type SessionIdentity struct {
	Principal Principal
	User      User
	SessionID string
	ExpiresAt time.Time
}

// AuthService coordinates authentication flows such as login and session refresh.
type AuthService struct {
	identities     IdentityLookup
	provisioner    ProfileProvisioner
	profiles       ProfileReader
	sessions       SessionRepository
	tokens         *TokenCodec
	verifyPassword PasswordVerifier
	tokenGenerator func() string
	now            func() time.Time
	sessionTTL     time.Duration
	logger         *slog.Logger
}

// NewAuthService constructs an AuthService with the provided dependencies.
func NewAuthService(identities IdentityLookup, provisioner ProfileProvisioner, profiles ProfileReader, sessions SessionRepository, tokens *TokenCodec, tokenGenerator func() string, now func() time.Time, sessionTTL time.Duration) *AuthService {
	return NewAuthServiceWithLogger(identities, provisioner, profiles, sessions, tokens, tokenGenerator, now, sessionTTL, nil)
}

// NewAuthServiceWithLogger constructs an AuthService with a specified logger.
func NewAuthServiceWithLogger(identities IdentityLookup, provisioner ProfileProvisioner, profiles ProfileReader, sessions SessionRepository, tokens *TokenCodec, tokenGenerator func() string, now func() time.Time, sessionTTL time.Duration, logger *slog.Logger) *AuthService {
	if tokenGenerator == nil {
		tokenGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	if sessionTTL <= 0 {
		sessionTTL = 24 * time.Hour
	}
	return &AuthService{
		identities:     identities,
		provisioner:    provisioner,
		profiles:       profiles,
		sessions:       sessions,
		tokens:         tokens,
		verifyPassword: VerifyPassword,
		tokenGenerator: tokenGenerator,
		now:            now,
		sessionTTL:     sessionTTL,
		logger:         defaultLogger(logger),
	}
}

// WithPasswordVerifier replaces the argon2id verifier.
func (s *AuthService) WithPasswordVerifier(verify PasswordVerifier) *AuthService {
	if verify != nil {
		s.verifyPassword = verify
	}
	return s
}

func (s *AuthService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "AuthService", operation, attrs...)
}

func (s *AuthService) configured() error {
	if s.identities == nil || s.provisioner == nil || s.profiles == nil || s.sessions == nil || s.tokens == nil {
		return fmt.Errorf("auth service not fully configured")
	}
	return nil
}

// Authenticate validates credentials, provisions the profile if needed and
// issues a signed session token.
func (s *AuthService) Authenticate(ctx context.Context, params AuthenticateParams) (result AuthenticateResult, err error) {
	if s == nil {
		err = errServiceNil("AuthService")
		return
	}
	if err = s.configured(); err != nil {
		return
	}

	email := strings.TrimSpace(strings.ToLower(params.Email))
	password := params.Password

	logger := s.loggerWith(ctx, "Authenticate",
		"email", email,
	)
	defer func() {
		if err != nil {
			logFailure(ctx, logger, "authentication failed", err)
			return
		}
		logger.With(
			"user_id", result.User.ID,
			"session_id", result.Session.ID,
		).InfoContext(ctx, "authentication succeeded")
	}()

	if email == "" || password == "" {
		err = ErrInvalidCredentials
		return
	}

	var creds Credentials
	creds, err = s.identities.GetIdentityByEmail(ctx, email)
	if err != nil {
		if errors.Is(mapRepoError(err), ErrNotFound) {
			err = ErrInvalidCredentials
		}
		return
	}
	if creds.Disabled {
		err = ErrAccountDisabled
		return
	}
	if verifyErr := s.verifyPassword(creds.PasswordHash, password); verifyErr != nil {
		err = ErrInvalidCredentials
		return
	}

	var user User
	user, err = s.provisioner.EnsureProfile(ctx, creds)
	if err != nil {
		return
	}
	if !user.Active {
		err = ErrAccountDisabled
		return
	}

	now := s.now()
	session := Session{
		ID:          s.tokenGenerator(),
		UserID:      user.ID,
		Token:       s.tokenGenerator(),
		Fingerprint: strings.TrimSpace(params.Fingerprint),
		CreatedAt:   now,
		UpdatedAt:   now,
		ExpiresAt:   now.Add(s.sessionTTL),
	}

	if err = s.sessions.DeleteExpiredSessions(ctx, now); err != nil {
		return
	}
	session, err = s.sessions.CreateSession(ctx, session)
	if err != nil {
		return
	}

	var token string
	token, err = s.tokens.Sign(session.ID, user.ID, session.Token, now, session.ExpiresAt)
	if err != nil {
		return
	}

	result = AuthenticateResult{User: user, Session: session, AccessToken: token}
	return
}

// loadSession resolves a token to its stored session and checks that the
// session is still current.
func (s *AuthService) loadSession(ctx context.Context, claims TokenClaims) (Session, error) {
	session, err := s.sessions.GetSession(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(mapRepoError(err), ErrNotFound) {
			return Session{}, ErrUnauthorized
		}
		return Session{}, err
	}
	if session.Token != claims.TokenID {
		return Session{}, ErrUnauthorized
	}
	if session.RevokedAt != nil && !session.RevokedAt.IsZero() {
		return Session{}, ErrSessionRevoked
	}
	if !session.ExpiresAt.IsZero() && !session.ExpiresAt.After(s.now()) {
		return Session{}, ErrSessionExpired
	}
	return session, nil
}

// RefreshSession rotates the token of an active session and extends its expiry.
func (s *AuthService) RefreshSession(ctx context.Context, params RefreshSessionParams) (result RefreshSessionResult, err error) {
	if s == nil {
		err = errServiceNil("AuthService")
		return
	}
	if err = s.configured(); err != nil {
		return
	}

	raw := strings.TrimSpace(params.Token)
	logger := s.loggerWith(ctx, "RefreshSession",
		"token_provided", raw != "",
	)
	defer func() {
		if err != nil {
			logFailure(ctx, logger, "session refresh failed", err)
			return
		}
		logger.With(
			"session_id", result.Session.ID,
			"user_id", result.Session.UserID,
		).InfoContext(ctx, "session refreshed")
	}()

	var claims TokenClaims
	claims, err = s.tokens.Parse(raw)
	if err != nil {
		return
	}

	var session Session
	session, err = s.loadSession(ctx, claims)
	if err != nil {
		return
	}

	now := s.now()
	if next := s.tokenGenerator(); next != "" {
		session.Token = next
	}
	session.UpdatedAt = now
	session.ExpiresAt = now.Add(s.sessionTTL)
	if fp := strings.TrimSpace(params.Fingerprint); fp != "" {
		session.Fingerprint = fp
	}

	session, err = s.sessions.UpdateSession(ctx, session)
	if err != nil {
		return
	}

	var token string
	token, err = s.tokens.Sign(session.ID, session.UserID, session.Token, now, session.ExpiresAt)
	if err != nil {
		return
	}
	result = RefreshSessionResult{Session: session, AccessToken: token}
	return
}

// RevokeSession invalidates the session behind a token, even an expired one.
func (s *AuthService) RevokeSession(ctx context.Context, raw string) error {
	if s == nil {
		return errServiceNil("AuthService")
	}
	if err := s.configured(); err != nil {
		return err
	}

	logger := s.loggerWith(ctx, "RevokeSession")

	claims, err := s.tokens.ParseIgnoringExpiry(strings.TrimSpace(raw))
	if err != nil {
		logFailure(ctx, logger, "failed to revoke session", err)
		return err
	}

	if _, err := s.sessions.RevokeSession(ctx, claims.SessionID, s.now()); err != nil {
		if errors.Is(mapRepoError(err), ErrNotFound) {
			logFailure(ctx, logger, "failed to revoke session", ErrInvalidCredentials)
			return ErrInvalidCredentials
		}
		logFailure(ctx, logger, "failed to revoke session", err)
		return err
	}

	if err := s.sessions.DeleteExpiredSessions(ctx, s.now()); err != nil {
		logFailure(ctx, logger, "failed to prune expired sessions", err)
		return err
	}
	logger.With("session_id", claims.SessionID).InfoContext(ctx, "session revoked")
	return nil
}

// ValidateSession verifies a token and returns the identity behind it.
func (s *AuthService) ValidateSession(ctx context.Context, raw string) (identity SessionIdentity, err error) {
	if s == nil {
		err = errServiceNil("AuthService")
		return
	}
	if err = s.configured(); err != nil {
		return
	}

	trimmed := strings.TrimSpace(raw)
	logger := s.loggerWith(ctx, "ValidateSession", "token_provided", trimmed != "")
	defer func() {
		if err != nil {
			logger.WarnContext(ctx, "session validation failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("principal_id", identity.Principal.UserID).DebugContext(ctx, "session validated")
	}()

	if trimmed == "" {
		err = ErrUnauthorized
		return
	}

	var claims TokenClaims
	claims, err = s.tokens.Parse(trimmed)
	if err != nil {
		return
	}

	var session Session
	session, err = s.loadSession(ctx, claims)
	if err != nil {
		return
	}

	var user User
	user, err = s.profiles.GetProfile(ctx, session.UserID)
	if err != nil {
		if errors.Is(mapRepoError(err), ErrNotFound) {
			err = ErrUnauthorized
		}
		return
	}
	if !user.Active {
		err = ErrAccountDisabled
		return
	}

	identity = SessionIdentity{
		Principal: Principal{UserID: user.ID, Role: user.Role},
		User:      user,
		SessionID: session.ID,
		ExpiresAt: session.ExpiresAt,
	}
	return
}
