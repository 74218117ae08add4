// Package users signs users in with Google and maintains their profiles.
package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"

	"github.com/ManuelReschke/SubTrack/app/models"
	"github.com/ManuelReschke/SubTrack/app/repository"
	"github.com/ManuelReschke/SubTrack/internal/pkg/calendar"
	"github.com/ManuelReschke/SubTrack/internal/pkg/utils"
)

// ErrNotFound is returned for unknown users.
var ErrNotFound = fmt.Errorf("user %w", models.ErrNotFound)

// AccountLinker maps Google accounts to local users and stores their tokens.
type AccountLinker interface {
	UserIDFor(ctx context.Context, providerUserID string) (string, error)
	Link(ctx context.Context, userID, providerUserID string, creds calendar.Credentials) error
}

// GoogleProfile is the identity returned by a completed Google sign-in.
type GoogleProfile struct {
	ID          string
	Email       string
	Name        string
	AvatarURL   string
	Credentials calendar.Credentials
}

type Service struct {
	users           repository.UserRepository
	accounts        AccountLinker
	defaultCurrency string
	now             func() time.Time
}

func NewService(users repository.UserRepository, accounts AccountLinker, defaultCurrency string) *Service {
	if defaultCurrency == "" {
		defaultCurrency = models.DefaultCurrency
	}
	return &Service{users: users, accounts: accounts, defaultCurrency: defaultCurrency, now: time.Now}
}

// LoginWithGoogle resolves the user of a Google profile. A linked account wins,
// then a user with the same email is linked, otherwise a new user is created.
// The Google tokens and the last login time are refreshed every time.
func (s *Service) LoginWithGoogle(ctx context.Context, p GoogleProfile) (*models.User, error) {
	if strings.TrimSpace(p.ID) == "" {
		return nil, models.NewValidationError("googleId", "is required")
	}

	user, err := s.linkedUser(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	if user == nil && p.Email != "" {
		user, err = s.users.GetByEmail(ctx, p.Email)
		if errors.Is(err, models.ErrNotFound) {
			user, err = nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("lookup user by email: %w", err)
		}
		if user != nil {
			log.Infof("[Users] Linking Google account %s to existing user %s", p.ID, user.ID)
		}
	}
	if user == nil {
		if user, err = s.create(ctx, p); err != nil {
			return nil, err
		}
	}

	if err := s.accounts.Link(ctx, user.ID, p.ID, p.Credentials); err != nil {
		return nil, fmt.Errorf("link google account: %w", err)
	}
	now := s.now()
	if err := s.users.TouchLastLogin(ctx, user.ID, now); err != nil {
		log.Warnf("[Users] Updating last login of %s failed: %v", user.ID, err)
	} else {
		user.LastLoginAt = &now
	}
	return user, nil
}

func (s *Service) linkedUser(ctx context.Context, googleID string) (*models.User, error) {
	userID, err := s.accounts.UserIDFor(ctx, googleID)
	if errors.Is(err, models.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup google account: %w", err)
	}
	user, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, models.ErrNotFound) {
		log.Warnf("[Users] Google account %s points at missing user %s", googleID, userID)
		return nil, nil
	}
	return user, err
}

func (s *Service) create(ctx context.Context, p GoogleProfile) (*models.User, error) {
	email := p.Email
	if email == "" {
		email = fmt.Sprintf("google_%s@google.oauth.local", p.ID)
	}
	avatar := p.AvatarURL
	if avatar == "" && p.Email != "" {
		avatar = utils.GetGravatarURL(p.Email, 200)
	}
	user := &models.User{
		ID:        uuid.NewString(),
		Name:      firstNonEmpty(p.Name, p.Email, "User"),
		Email:     email,
		AvatarURL: avatar,
		Currency:  s.defaultCurrency,
	}
	if err := user.Validate(); err != nil {
		return nil, err
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	log.Infof("[Users] Created user %s for Google account %s", user.ID, p.ID)
	return user, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if errors.Is(err, models.ErrNotFound) {
		return nil, ErrNotFound
	}
	return user, err
}

// UpdateProfile applies patch to the user id and validates the result.
func (s *Service) UpdateProfile(ctx context.Context, id string, patch models.UserPatch) (*models.User, error) {
	user, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.Currency != nil {
		c := strings.ToUpper(strings.TrimSpace(*patch.Currency))
		patch.Currency = &c
	}
	user.Apply(patch)
	if err := user.Validate(); err != nil {
		return nil, err
	}
	user.UpdatedAt = s.now()
	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	return user, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
