package services

import (
	"fmt"
	"log/slog"

	"chat-sync/auth"
	"chat-sync/domain"
	"chat-sync/errors"
	"chat-sync/repositories"
)

type IAuthService interface {
	Register(cmd domain.RegisterCommand) (domain.User, error)
	Login(cmd domain.LoginCommand) (Session, error)
	CheckSession(userID string) (domain.User, error)
}

// Session is what a successful login hands back to the transport.
type Session struct {
	User  domain.User
	Token string
}

// AuthService is the mocked authentication layer: no password is stored or
// verified, and every login resolves to the fixed session identity.
type AuthService struct {
	userRepository repositories.IUserRepository
	sessions       *auth.Sessions
	log            *slog.Logger
}

func NewAuthService(repo repositories.IUserRepository, sessions *auth.Sessions, log *slog.Logger) *AuthService {
	return &AuthService{userRepository: repo, sessions: sessions, log: log}
}

// Register creates a directory entry for the new account. It does not open a
// session.
func (s *AuthService) Register(cmd domain.RegisterCommand) (domain.User, error) {
	if err := auth.ValidateRegister(cmd); err != nil {
		return domain.User{}, err
	}
	user, err := s.userRepository.Create(domain.User{
		Name:      cmd.Name,
		AvatarURL: domain.AvatarURL(cmd.Email),
	})
	if err != nil {
		return domain.User{}, err
	}
	s.log.Info("User registered", "id", user.ID)
	return user, nil
}

func (s *AuthService) Login(cmd domain.LoginCommand) (Session, error) {
	if err := auth.ValidateLogin(cmd); err != nil {
		return Session{}, err
	}
	user, err := s.sessionUser(s.sessions.DefaultUserID())
	if err != nil {
		return Session{}, err
	}
	token, err := s.sessions.Issue(user.ID)
	if err != nil {
		return Session{}, fmt.Errorf("issuing session token: %w", err)
	}
	return Session{User: user, Token: token}, nil
}

// CheckSession returns the user behind an already resolved session.
func (s *AuthService) CheckSession(userID string) (domain.User, error) {
	if userID == "" {
		return domain.User{}, errors.ErrUnauthenticated
	}
	user, err := s.sessionUser(userID)
	if errors.Is(err, errors.ErrNotFound) {
		return domain.User{}, fmt.Errorf("%w: unknown session user %q", errors.ErrUnauthenticated, userID)
	}
	return user, err
}

// sessionUser prefers the directory record, so profile edits show up, and
// falls back to the built-in identity for the fixed id.
func (s *AuthService) sessionUser(userID string) (domain.User, error) {
	user, err := s.userRepository.Get(userID)
	if err == nil {
		return user, nil
	}
	if errors.Is(err, errors.ErrNotFound) && userID == s.sessions.DefaultUserID() {
		fallback := domain.DefaultSessionUser()
		fallback.ID = userID
		return fallback, nil
	}
	return domain.User{}, err
}
