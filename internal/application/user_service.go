package application

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/example/meetsync/internal/persistence"
)

var usernamePattern = regexp.MustCompile(`^[a-z0-9-]{3,40}$`)

// UserService orchestrates validation and persistence for host accounts.
type UserService struct {
	users       persistence.UserRepository
	idGenerator func() string
	now         func() time.Time
}

// NewUserService wires dependencies for user operations.
func NewUserService(users persistence.UserRepository, idGenerator func() string, now func() time.Time) *UserService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &UserService{users: users, idGenerator: idGenerator, now: now}
}

// CreateOrGetUser registers a new host, or returns the existing account when
// the email is already known. Email matching is case-insensitive.
func (s *UserService) CreateOrGetUser(ctx context.Context, input CreateUserInput) (persistence.User, error) {
	if s == nil || s.users == nil {
		return persistence.User{}, fmt.Errorf("user repository not configured")
	}

	input.Username = strings.ToLower(strings.TrimSpace(input.Username))
	input.Email = strings.TrimSpace(input.Email)
	if input.Timezone == "" {
		input.Timezone = "UTC"
	}

	vErr := &ValidationError{}
	validateUserCore(input.Username, input.Email, input.Timezone, vErr)
	if vErr.HasErrors() {
		return persistence.User{}, vErr
	}

	existing, err := s.users.GetUserByEmail(ctx, input.Email)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, persistence.ErrNotFound) {
		return persistence.User{}, err
	}

	createdAt := s.now()
	user := persistence.User{
		ID:        s.idGenerator(),
		Username:  input.Username,
		Email:     input.Email,
		Timezone:  input.Timezone,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, persistence.ErrDuplicate) {
			return persistence.User{}, ErrAlreadyExists
		}
		return persistence.User{}, err
	}
	return user, nil
}

// GetUser fetches a host account by ID.
func (s *UserService) GetUser(ctx context.Context, id string) (persistence.User, error) {
	user, err := s.users.GetUser(ctx, id)
	if err != nil {
		return persistence.User{}, mapRepoError(err, "User")
	}
	return user, nil
}

// GetUserByUsername fetches a host account by its public username.
func (s *UserService) GetUserByUsername(ctx context.Context, username string) (persistence.User, error) {
	user, err := s.users.GetUserByUsername(ctx, strings.ToLower(strings.TrimSpace(username)))
	if err != nil {
		return persistence.User{}, mapRepoError(err, "User")
	}
	return user, nil
}

// UpdateUser applies the mutable profile fields to an existing account.
func (s *UserService) UpdateUser(ctx context.Context, userID string, input UpdateUserInput) (persistence.User, error) {
	existing, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return persistence.User{}, mapRepoError(err, "User")
	}

	input.Username = strings.ToLower(strings.TrimSpace(input.Username))
	input.Email = strings.TrimSpace(input.Email)
	if input.Timezone == "" {
		input.Timezone = existing.Timezone
	}

	vErr := &ValidationError{}
	validateUserCore(input.Username, input.Email, input.Timezone, vErr)
	if vErr.HasErrors() {
		return persistence.User{}, vErr
	}

	existing.Username = input.Username
	existing.Email = input.Email
	existing.Timezone = input.Timezone
	existing.UpdatedAt = s.now()

	if err := s.users.UpdateUser(ctx, existing); err != nil {
		if errors.Is(err, persistence.ErrDuplicate) {
			return persistence.User{}, ErrAlreadyExists
		}
		return persistence.User{}, mapRepoError(err, "User")
	}
	return existing, nil
}

// DefaultUser returns the oldest registered account, creating a bootstrap
// admin account the first time the service runs against an empty store.
func (s *UserService) DefaultUser(ctx context.Context) (persistence.User, error) {
	user, err := s.users.FirstUser(ctx)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, persistence.ErrNotFound) {
		return persistence.User{}, err
	}

	return s.CreateOrGetUser(ctx, CreateUserInput{
		Username: "admin",
		Email:    "admin@example.com",
		Timezone: "UTC",
	})
}

func validateUserCore(username, email, timezone string, vErr *ValidationError) {
	if username == "" {
		vErr.add("username", "username is required")
	} else if !usernamePattern.MatchString(username) {
		vErr.add("username", "username must be 3-40 lowercase letters, digits or hyphens")
	}

	if email == "" {
		vErr.add("email", "email is required")
	} else if !strings.Contains(email, "@") {
		vErr.add("email", "email must be a valid address")
	}

	if _, err := time.LoadLocation(timezone); err != nil {
		vErr.add("timezone", "timezone must be a valid IANA name")
	}
}

// mapRepoError translates store sentinels, naming the missing entity so the
// transport layer can surface it.
func mapRepoError(err error, resource string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, persistence.ErrNotFound) {
		return &NotFoundError{Resource: resource}
	}
	return err
}
