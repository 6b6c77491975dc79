package application

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"time"
)

// ProfileRepository captures the persistence operations needed for profiles.
type ProfileRepository interface {
	CreateProfile(ctx context.Context, user User) (User, error)
	GetProfile(ctx context.Context, id string) (User, error)
	UpdateProfile(ctx context.Context, user User) (User, error)
	DeleteProfile(ctx context.Context, id string) error
	ListProfiles(ctx context.Context) ([]User, error)
}

// IdentityProvider stores sign-in credentials.
type IdentityProvider interface {
	CreateIdentity(ctx context.Context, creds Credentials) error
	GetIdentityByEmail(ctx context.Context, email string) (Credentials, error)
	DeleteIdentity(ctx context.Context, id string) error
}

// PasswordHasher derives a storable hash from a password.
type PasswordHasher func(password string) (string, error)

// CreateUserParams wraps the data required to create a user.
type CreateUserParams struct {
	Principal Principal
	Input     UserInput
}

// UpdateUserParams wraps a partial profile update.
type UpdateUserParams struct {
	Principal Principal
	UserID    string
	Patch     UserPatch
}

// UserService orchestrates validation, authorization, and persistence for users.
type UserService struct {
	profiles    ProfileRepository
	identities  IdentityProvider
	hash        PasswordHasher
	audit       *AuditRecorder
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewUserService wires dependencies for the user service.
func NewUserService(profiles ProfileRepository, identities IdentityProvider, idGenerator func() string, now func() time.Time) *UserService {
	return NewUserServiceWithLogger(profiles, identities, idGenerator, now, nil)
}

// NewUserServiceWithLogger wires dependencies with a specified logger.
func NewUserServiceWithLogger(profiles ProfileRepository, identities IdentityProvider, idGenerator func() string, now func() time.Time, logger *slog.Logger) *UserService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &UserService{
		profiles:    profiles,
		identities:  identities,
		hash:        NewArgon2idHasher(DefaultArgon2idParams),
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

// WithPasswordHasher replaces the argon2id hasher.
func (s *UserService) WithPasswordHasher(hash PasswordHasher) *UserService {
	if hash != nil {
		s.hash = hash
	}
	return s
}

// WithAudit sets the audit recorder.
func (s *UserService) WithAudit(audit *AuditRecorder) *UserService {
	s.audit = audit
	return s
}

func (s *UserService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "UserService", operation, attrs...)
}

// CreateUser creates the sign-in identity and then the profile. The two steps
// are not atomic: when the profile insert fails the identity is left behind
// and logged.
func (s *UserService) CreateUser(ctx context.Context, params CreateUserParams) (user User, err error) {
	if s == nil {
		err = errServiceNil("UserService")
		return
	}

	input := normalizeUserInput(params.Input)
	logger := s.loggerWith(ctx, "CreateUser",
		"principal_id", params.Principal.UserID,
		"email", input.Email,
	)
	defer func() {
		if err != nil {
			logFailure(ctx, logger, "failed to create user", err)
			return
		}
		logger.With("user_id", user.ID).InfoContext(ctx, "user created")
	}()

	if err = require(params.Principal, CapManageUsers); err != nil {
		return
	}
	if vErr := validateStruct(input); vErr.HasErrors() {
		err = vErr
		return
	}

	user, err = s.provision(ctx, logger, input)
	if err != nil {
		return
	}
	s.audit.Record(ctx, params.Principal.UserID, "user.create", "user", user.ID, nil)
	return
}

func (s *UserService) provision(ctx context.Context, logger *slog.Logger, input UserInput) (User, error) {
	if s.identities == nil || s.profiles == nil {
		return User{}, errors.New("user stores not configured")
	}

	hashed, err := s.hash(input.Password)
	if err != nil {
		return User{}, err
	}

	now := s.now()
	id := s.idGenerator()
	if err := s.identities.CreateIdentity(ctx, Credentials{
		UserID:       id,
		Email:        input.Email,
		PasswordHash: hashed,
		CreatedAt:    now,
	}); err != nil {
		return User{}, mapRepoError(err)
	}

	user, err := s.profiles.CreateProfile(ctx, User{
		ID:          id,
		Email:       input.Email,
		DisplayName: input.DisplayName,
		Role:        input.Role,
		JobTitle:    input.JobTitle,
		Phone:       input.Phone,
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		logger.ErrorContext(ctx, "profile creation failed after identity was created", "orphaned_identity_id", id)
		return User{}, mapRepoError(err)
	}
	return user, nil
}

// UpdateUser applies a partial profile update.
func (s *UserService) UpdateUser(ctx context.Context, params UpdateUserParams) (user User, err error) {
	if s == nil {
		err = errServiceNil("UserService")
		return
	}

	logger := s.loggerWith(ctx, "UpdateUser",
		"principal_id", params.Principal.UserID,
		"user_id", params.UserID,
	)
	defer func() {
		if err != nil {
			logFailure(ctx, logger, "failed to update user", err)
			return
		}
		logger.InfoContext(ctx, "user updated")
	}()

	if err = require(params.Principal, CapManageUsers); err != nil {
		return
	}
	if strings.TrimSpace(params.UserID) == "" {
		vErr := &ValidationError{}
		vErr.add("id", msgRequired)
		err = vErr
		return
	}

	patch := params.Patch
	if patch.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*patch.Email))
		patch.Email = &email
	}
	if patch.DisplayName != nil {
		name := strings.TrimSpace(*patch.DisplayName)
		patch.DisplayName = &name
	}
	if vErr := validateStruct(patch); vErr.HasErrors() {
		err = vErr
		return
	}
	if s.profiles == nil {
		err = ErrNotFound
		return
	}

	user, err = s.profiles.GetProfile(ctx, params.UserID)
	if err != nil {
		err = mapRepoError(err)
		return
	}
	if patch.DisplayName != nil {
		user.DisplayName = *patch.DisplayName
	}
	if patch.Email != nil {
		user.Email = *patch.Email
	}
	if patch.Role != nil {
		user.Role = *patch.Role
	}
	if patch.JobTitle != nil {
		user.JobTitle = normalizeOptionalString(patch.JobTitle)
	}
	if patch.Phone != nil {
		user.Phone = normalizeOptionalString(patch.Phone)
	}
	if patch.Active != nil {
		user.Active = *patch.Active
	}
	user.UpdatedAt = s.now()

	user, err = s.profiles.UpdateProfile(ctx, user)
	if err != nil {
		err = mapRepoError(err)
		return
	}
	s.audit.Record(ctx, params.Principal.UserID, "user.update", "user", user.ID, nil)
	return
}

// DeleteUser removes the profile and then the identity.
func (s *UserService) DeleteUser(ctx context.Context, principal Principal, userID string) error {
	if s == nil {
		return errServiceNil("UserService")
	}
	if err := require(principal, CapManageUsers); err != nil {
		return err
	}
	vErr := &ValidationError{}
	if strings.TrimSpace(userID) == "" {
		vErr.add("id", msgRequired)
	} else if userID == principal.UserID {
		vErr.add("id", msgCannotDeleteSelf)
	}
	if vErr.HasErrors() {
		return vErr
	}
	if s.profiles == nil {
		return ErrNotFound
	}

	logger := s.loggerWith(ctx, "DeleteUser",
		"principal_id", principal.UserID,
		"user_id", userID,
	)

	if err := s.profiles.DeleteProfile(ctx, userID); err != nil {
		err = mapRepoError(err)
		logFailure(ctx, logger, "failed to delete profile", err)
		return err
	}
	if s.identities != nil {
		if err := s.identities.DeleteIdentity(ctx, userID); err != nil && !errors.Is(mapRepoError(err), ErrNotFound) {
			logFailure(ctx, logger, "failed to delete identity", err)
			return err
		}
	}

	s.audit.Record(ctx, principal.UserID, "user.delete", "user", userID, nil)
	logger.InfoContext(ctx, "user deleted")
	return nil
}

// ListUsers returns all profiles for administrators, ordered by display name.
func (s *UserService) ListUsers(ctx context.Context, principal Principal) ([]User, error) {
	if s == nil {
		return nil, errServiceNil("UserService")
	}
	if err := require(principal, CapManageUsers); err != nil {
		return nil, err
	}
	if s.profiles == nil {
		return nil, nil
	}

	users, err := s.profiles.ListProfiles(ctx)
	if err != nil {
		err = mapRepoError(err)
		logFailure(ctx, s.loggerWith(ctx, "ListUsers"), "failed to list users", err)
		return nil, err
	}

	out := make([]User, len(users))
	copy(out, users)
	sort.SliceStable(out, func(i, j int) bool {
		if strings.EqualFold(out[i].DisplayName, out[j].DisplayName) {
			return out[i].ID < out[j].ID
		}
		return strings.ToLower(out[i].DisplayName) < strings.ToLower(out[j].DisplayName)
	})
	return out, nil
}

// GetUser returns a profile. Users may always read their own.
func (s *UserService) GetUser(ctx context.Context, principal Principal, userID string) (User, error) {
	if s == nil {
		return User{}, errServiceNil("UserService")
	}
	if principal.UserID == "" {
		return User{}, ErrUnauthorized
	}
	if userID != principal.UserID && !Can(principal, CapManageUsers) {
		return User{}, ErrForbidden
	}
	if s.profiles == nil {
		return User{}, ErrNotFound
	}
	user, err := s.profiles.GetProfile(ctx, userID)
	if err != nil {
		return User{}, mapRepoError(err)
	}
	return user, nil
}

// EnsureProfile returns the profile behind creds, creating a user profile on
// first sign-in when none exists.
func (s *UserService) EnsureProfile(ctx context.Context, creds Credentials) (User, error) {
	if s == nil {
		return User{}, errServiceNil("UserService")
	}
	if s.profiles == nil {
		return User{}, errors.New("profile repository not configured")
	}

	user, err := s.profiles.GetProfile(ctx, creds.UserID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(mapRepoError(err), ErrNotFound) {
		return User{}, err
	}

	now := s.now()
	user, err = s.profiles.CreateProfile(ctx, User{
		ID:          creds.UserID,
		Email:       creds.Email,
		DisplayName: displayNameFromEmail(creds.Email),
		Role:        RoleUser,
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return User{}, mapRepoError(err)
	}
	s.loggerWith(ctx, "EnsureProfile", "user_id", user.ID).InfoContext(ctx, "profile provisioned on first sign-in")
	return user, nil
}

// BootstrapAdmin creates an administrator when no identity with email exists.
// It reports whether a user was created.
func (s *UserService) BootstrapAdmin(ctx context.Context, email, password string) (bool, error) {
	if s == nil {
		return false, errServiceNil("UserService")
	}
	input := normalizeUserInput(UserInput{
		Email:       email,
		Password:    password,
		DisplayName: "Administrator",
		Role:        RoleAdmin,
	})
	if vErr := validateStruct(input); vErr.HasErrors() {
		return false, vErr
	}
	if s.identities == nil {
		return false, errors.New("identity provider not configured")
	}

	logger := s.loggerWith(ctx, "BootstrapAdmin", "email", input.Email)
	if _, err := s.identities.GetIdentityByEmail(ctx, input.Email); err == nil {
		logger.DebugContext(ctx, "bootstrap admin already present")
		return false, nil
	} else if !errors.Is(mapRepoError(err), ErrNotFound) {
		return false, err
	}

	user, err := s.provision(ctx, logger, input)
	if err != nil {
		logFailure(ctx, logger, "failed to bootstrap admin", err)
		return false, err
	}
	logger.With("user_id", user.ID).InfoContext(ctx, "bootstrap admin created")
	return true, nil
}

func normalizeUserInput(input UserInput) UserInput {
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	input.DisplayName = strings.TrimSpace(input.DisplayName)
	input.JobTitle = normalizeOptionalString(input.JobTitle)
	input.Phone = normalizeOptionalString(input.Phone)
	if input.Role == "" {
		input.Role = RoleUser
	}
	return input
}

func displayNameFromEmail(email string) string {
	if at := strings.IndexByte(email, '@'); at > 0 {
		return email[:at]
	}
	return email
}
