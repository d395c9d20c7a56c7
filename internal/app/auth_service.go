package app

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"

	"gamemaster-quiz/internal/domain"
	"gamemaster-quiz/internal/logger"
)

const (
	minUsernameLen = 3
	minPasswordLen = 4
)

// AuthService registers and authenticates players against the credential store.
type AuthService struct {
	users UserRepository
	salt  string
	log   *logger.Logger
}

func NewAuthService(users UserRepository, salt string, log *logger.Logger) *AuthService {
	return &AuthService{users: users, salt: salt, log: log}
}

// HashPassword is the hex SHA-256 of password followed by the static salt.
func (a *AuthService) HashPassword(password string) string {
	sum := sha256.Sum256([]byte(password + a.salt))
	return hex.EncodeToString(sum[:])
}

func (a *AuthService) Register(ctx context.Context, username, password string) error {
	_, err := a.users.GetUser(ctx, username)
	switch {
	case err == nil:
		return domain.ErrUserExists
	case !errors.Is(err, domain.ErrUserNotFound):
		return err
	}
	if len(username) < minUsernameLen {
		return fmt.Errorf("%w: username must be at least %d characters", domain.ErrInvalidInput, minUsernameLen)
	}
	if len(password) < minPasswordLen {
		return fmt.Errorf("%w: password must be at least %d characters", domain.ErrInvalidInput, minPasswordLen)
	}

	if err := a.users.CreateUser(ctx, domain.User{
		Username:     username,
		PasswordHash: a.HashPassword(password),
	}); err != nil {
		return err
	}
	a.log.Info("user registered", "username", username)
	return nil
}

// Login returns the user record when password matches.
func (a *AuthService) Login(ctx context.Context, username, password string) (domain.User, error) {
	user, err := a.users.GetUser(ctx, username)
	if err != nil {
		return domain.User{}, err
	}
	hash := a.HashPassword(password)
	if subtle.ConstantTimeCompare([]byte(hash), []byte(user.PasswordHash)) != 1 {
		a.log.Warn("login rejected", "username", username)
		return domain.User{}, domain.ErrInvalidCredentials
	}
	return user, nil
}

// Stats returns the games played and total score mirrored in the credential store.
func (a *AuthService) Stats(ctx context.Context, username string) (gamesPlayed, totalScore int, err error) {
	user, err := a.users.GetUser(ctx, username)
	if err != nil {
		return 0, 0, err
	}
	return user.GamesPlayed, user.TotalScore, nil
}
