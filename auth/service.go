package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aanooo/erp-system/models"
)

// ErrInvalidCredentials is returned by Login for an unknown user or a wrong
// password. The two cases are not distinguished.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Session is the result of a successful login or registration.
type Session struct {
	User  *models.User
	Token string
}

type demoUser struct {
	username string
	password string
	name     string
}

var demoUsers = []demoUser{
	{username: "admin", password: "admin123", name: "Admin User"},
	{username: "demo", password: "demo123", name: "Demo User"},
}

// Service handles login and registration.
type Service struct {
	store  CredentialStore
	hasher *PasswordHasher
	tokens *TokenIssuer
}

func NewService(store CredentialStore, hasher *PasswordHasher, tokens *TokenIssuer) *Service {
	return &Service{store: store, hasher: hasher, tokens: tokens}
}

// Init creates the demo accounts that are missing. It is safe to call on
// every start.
func (s *Service) Init(ctx context.Context) error {
	for _, du := range demoUsers {
		_, err := s.store.FindByUsername(ctx, du.username)
		if err == nil {
			continue
		}
		if !errors.Is(err, ErrUserNotFound) {
			return err
		}

		hash, err := s.hasher.Hash(du.password)
		if err != nil {
			return err
		}
		user := &models.User{Username: du.username, Name: du.name, PasswordHash: hash}
		if err := s.store.Create(ctx, user); err != nil && !errors.Is(err, ErrUserExists) {
			return err
		}
		slog.Info("created demo user", "username", du.username)
	}
	return nil
}

// Login checks the password and issues a token.
func (s *Service) Login(ctx context.Context, username, password string) (*Session, error) {
	user, err := s.store.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	return s.session(user)
}

// Register creates an account and logs it in.
func (s *Service) Register(ctx context.Context, username, password, name string) (*Session, error) {
	if strings.TrimSpace(username) == "" {
		return nil, fmt.Errorf("%w: username is required", models.ErrValidation)
	}
	if err := s.hasher.Validate(password); err != nil {
		return nil, err
	}

	if _, err := s.store.FindByUsername(ctx, username); err == nil {
		return nil, ErrUserExists
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}
	if name == "" {
		name = username
	}
	user := &models.User{Username: username, Name: name, PasswordHash: hash}
	if err := s.store.Create(ctx, user); err != nil {
		return nil, err
	}

	slog.Info("user registered", "username", username, "id", user.ID)
	return s.session(user)
}

// Verify checks a token issued by Login or Register.
func (s *Service) Verify(ctx context.Context, token string) (*Claims, error) {
	return s.tokens.Verify(ctx, token)
}

func (s *Service) session(user *models.User) (*Session, error) {
	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}
	return &Session{User: user, Token: token}, nil
}
