package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"time"

	"github.com/ponderdome/ponderdome/internal/models"
	"github.com/ponderdome/ponderdome/pkg/logger"
	"github.com/ponderdome/ponderdome/pkg/queue"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_]{3,20}$`)

const minPasswordLength = 8

// TokenRevoker is satisfied by *cache.RedisClient.
type TokenRevoker interface {
	RevokeToken(ctx context.Context, tokenID string, ttl time.Duration) error
}

type AuthService struct {
	store    Store
	revoker  TokenRevoker
	producer EventPublisher
	logger   *logger.Logger
}

func NewAuthService(store Store, revoker TokenRevoker, producer EventPublisher, logger *logger.Logger) *AuthService {
	return &AuthService{
		store:    store,
		revoker:  revoker,
		producer: producer,
		logger:   logger,
	}
}

type SignUpRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	Name     string `json:"name"`
}

type SignInRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (s *AuthService) SignUp(ctx context.Context, req *SignUpRequest) (*models.User, error) {
	username := strings.TrimSpace(req.Username)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	name := strings.TrimSpace(req.Name)

	if !usernamePattern.MatchString(username) {
		return nil, fmt.Errorf("%w: username must be 3-20 letters, digits or underscores", ErrValidation)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, fmt.Errorf("%w: invalid email", ErrValidation)
	}
	if len(req.Password) < minPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrValidation, minPasswordLength)
	}
	if name == "" {
		name = username
	}

	existing, err := s.store.Users().GetByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: username", ErrConflict)
	}

	existing, err = s.store.Users().GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: email", ErrConflict)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Name:     name,
		Username: &username,
		Email:    email,
		Password: string(hashed),
	}
	if err := s.store.Users().Create(ctx, user); err != nil {
		// Lost a race with a concurrent sign-up for the same username or email.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: username or email", ErrConflict)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	publishEvent(ctx, s.producer, s.logger, user.ID.String(), queue.EventUserRegistered, queue.UserEventData{
		UserID:   user.ID.String(),
		Username: username,
	})

	s.logger.WithField("user_id", user.ID).Info("User registered successfully")
	return user, nil
}

func (s *AuthService) SignIn(ctx context.Context, req *SignInRequest) (*models.User, error) {
	user, err := s.store.Users().GetByUsername(ctx, strings.TrimSpace(req.Username))
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("%w: invalid username or password", ErrUnauthorized)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, fmt.Errorf("%w: invalid username or password", ErrUnauthorized)
	}

	s.logger.WithField("user_id", user.ID).Info("User signed in successfully")
	return user, nil
}

// SignOut deny-lists the session token until it would have expired anyway.
func (s *AuthService) SignOut(ctx context.Context, viewer Viewer, tokenID string, expiresAt time.Time) error {
	if err := requireViewer(viewer); err != nil {
		return err
	}
	if tokenID == "" {
		return fmt.Errorf("%w: token has no id", ErrUnauthorized)
	}

	if s.revoker != nil {
		if err := s.revoker.RevokeToken(ctx, tokenID, time.Until(expiresAt)); err != nil {
			return err
		}
	}

	s.logger.WithFields(logrus.Fields{
		"user_id":  viewer.UserID,
		"token_id": tokenID,
	}).Info("User signed out successfully")
	return nil
}
