package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"golang.org/x/crypto/bcrypt"

	"chatroom-api/internal/domain"
	"chatroom-api/internal/repository"
)

var (
	// ErrInvalidCredentials covers both unknown-username and wrong-password
	// so responses never reveal whether an account exists.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrUserAlreadyExists is returned when registering an existing username.
	ErrUserAlreadyExists = errors.New("a user with this username already exists")
	// ErrMemberNotFound indicates the authenticated user has no member profile.
	ErrMemberNotFound = errors.New("member profile not found")
)

// dummyHash is compared against when the username is unknown, so the
// unknown-user path costs the same as a wrong-password one.
var dummyHash = []byte("$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy")

// UserService handles registration, credential verification, and the member
// profiles tied to users.
type UserService interface {
	Register(ctx context.Context, username, password string) (*domain.Member, error)
	Authenticate(ctx context.Context, username, password string) (*domain.Member, error)
	GetMember(ctx context.Context, userID int64) (*domain.Member, error)
}

type userService struct {
	users      repository.UserRepository
	members    repository.MemberRepository
	bcryptCost int
}

func NewUserService(users repository.UserRepository, members repository.MemberRepository, bcryptCost int) UserService {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &userService{
		users:      users,
		members:    members,
		bcryptCost: bcryptCost,
	}
}

// Register creates the user, hashes the password, and creates the linked
// member profile whose username mirrors the user's.
func (s *userService) Register(ctx context.Context, username, password string) (*domain.Member, error) {
	username = strings.TrimSpace(username)

	if err := (validation.Errors{
		"username": validation.Validate(username, validation.Required, validation.RuneLength(1, 150)),
		"password": validation.Validate(password, validation.Required),
	}).Filter(); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Username:     username,
		PasswordHash: string(hash),
	}
	if _, err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrUserAlreadyExists
		}
		return nil, err
	}

	return s.ensureMember(ctx, user)
}

// Authenticate verifies the credentials and guarantees a member profile
// exists for the user before returning it.
func (s *userService) Authenticate(ctx context.Context, username, password string) (*domain.Member, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// burn the same bcrypt cost as the match path
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.ensureMember(ctx, user)
}

func (s *userService) GetMember(ctx context.Context, userID int64) (*domain.Member, error) {
	member, err := s.members.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, err
	}
	return member, nil
}

// ensureMember get-or-creates the profile. Users created outside the
// registration path lack one until their first successful login.
func (s *userService) ensureMember(ctx context.Context, user *domain.User) (*domain.Member, error) {
	member, err := s.members.GetByUserID(ctx, user.ID)
	if err == nil {
		return member, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	member = &domain.Member{
		UserID:   user.ID,
		Username: user.Username,
	}
	if _, err := s.members.Create(ctx, member); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			// lost a concurrent create; the winner's row is the profile
			return s.members.GetByUserID(ctx, user.ID)
		}
		return nil, err
	}
	return member, nil
}
