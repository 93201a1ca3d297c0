// Package accounts creates site users and checks their credentials.
package accounts

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/garnizeh/portfolio/pkg/models"
	"github.com/garnizeh/portfolio/pkg/repository"
)

// ErrInvalidCredentials is returned for an unknown username, a wrong password
// or an inactive account. Callers must not tell these apart to the client.
var ErrInvalidCredentials = errors.New("invalid credentials")

type Service struct {
	users repository.UserRepo
	cost  int
}

// New returns a Service hashing passwords with the given bcrypt cost. A cost
// of 0 uses bcrypt.DefaultCost.
func New(users repository.UserRepo, cost int) *Service {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &Service{users: users, cost: cost}
}

// CreateUser stores an active account without staff or superuser rights.
func (s *Service) CreateUser(ctx context.Context, username, email, password string) (*models.User, error) {
	return s.create(ctx, &models.User{Username: username, Email: email, IsActive: true}, password)
}

// CreateSuperuser stores an active account with staff and superuser rights.
func (s *Service) CreateSuperuser(ctx context.Context, username, email, password string) (*models.User, error) {
	return s.create(ctx, &models.User{Username: username, Email: email, IsActive: true, IsStaff: true, IsSuperuser: true}, password)
}

// NormalizeEmail trims the address and lowercases its domain part. The local
// part is kept as given since mail servers may treat it case-sensitively.
func NormalizeEmail(email string) string {
	email = strings.TrimSpace(email)
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return email
	}
	return email[:at+1] + strings.ToLower(email[at+1:])
}

func (s *Service) create(ctx context.Context, u *models.User, password string) (*models.User, error) {
	u.Username = strings.TrimSpace(u.Username)
	u.Email = NormalizeEmail(u.Email)
	if u.Username == "" {
		return nil, errors.New("username is required")
	}
	if password == "" {
		return nil, errors.New("password is required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u.PasswordHash = string(hash)

	if _, err := s.users.CreateUser(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Authenticate checks username and password and records the login time.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	u, err := s.users.GetUserByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if u == nil || !u.IsActive {
		return nil, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}

	if err := s.users.TouchLastLogin(ctx, u.ID); err != nil {
		return nil, fmt.Errorf("record login: %w", err)
	}
	return u, nil
}

// User returns the account with the given id, or nil when it does not exist.
func (s *Service) User(ctx context.Context, id int64) (*models.User, error) {
	return s.users.GetUserByID(ctx, id)
}
