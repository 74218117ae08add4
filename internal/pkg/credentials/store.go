// Package credentials keeps the Google tokens of each user sealed at rest and
// hands them out as calendar.Credentials.
package credentials

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/SubTrack/app/models"
	"github.com/ManuelReschke/SubTrack/app/repository"
	"github.com/ManuelReschke/SubTrack/internal/pkg/calendar"
	"github.com/ManuelReschke/SubTrack/internal/pkg/security"
)

// Store reads and writes provider tokens.
type Store struct {
	accounts repository.ProviderAccountRepository
	box      *security.TokenBox
}

func NewStore(accounts repository.ProviderAccountRepository, box *security.TokenBox) *Store {
	return &Store{accounts: accounts, box: box}
}

// UserIDFor returns the local user linked to a Google account id.
func (s *Store) UserIDFor(ctx context.Context, providerUserID string) (string, error) {
	pa, err := s.accounts.GetByProviderUserID(ctx, models.ProviderGoogle, providerUserID)
	if err != nil {
		return "", err
	}
	return pa.UserID, nil
}

// Link stores the tokens of a Google account and attaches it to userID.
// An empty refresh token keeps the previously stored one.
func (s *Store) Link(ctx context.Context, userID, providerUserID string, creds calendar.Credentials) error {
	pa, err := s.accounts.GetByProviderUserID(ctx, models.ProviderGoogle, providerUserID)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		return err
	}
	if pa == nil {
		pa = &models.ProviderAccount{Provider: models.ProviderGoogle, ProviderUserID: providerUserID}
	}
	pa.UserID = userID

	access, err := s.box.Seal(creds.AccessToken)
	if err != nil {
		return fmt.Errorf("seal access token: %w", err)
	}
	pa.AccessTokenEnc = access
	if creds.RefreshToken != "" {
		refresh, err := s.box.Seal(creds.RefreshToken)
		if err != nil {
			return fmt.Errorf("seal refresh token: %w", err)
		}
		pa.RefreshTokenEnc = refresh
	}
	if creds.Expiry.IsZero() {
		pa.ExpiresAt = nil
	} else {
		exp := creds.Expiry
		pa.ExpiresAt = &exp
	}
	pa.UpdatedAt = time.Now()
	return s.accounts.Save(ctx, pa)
}

// ForUser returns the calendar credentials of userID. ok is false when the
// user has no usable Google tokens; lookup failures are logged, not returned.
func (s *Store) ForUser(ctx context.Context, userID string) (calendar.Credentials, bool) {
	pa, err := s.accounts.GetByUserID(ctx, userID, models.ProviderGoogle)
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			log.Warnf("[Credentials] Lookup for user %s failed: %v", userID, err)
		}
		return calendar.Credentials{}, false
	}
	access, err := s.box.Open(pa.AccessTokenEnc)
	if err != nil {
		log.Warnf("[Credentials] Cannot open access token of user %s: %v", userID, err)
		return calendar.Credentials{}, false
	}
	refresh, err := s.box.Open(pa.RefreshTokenEnc)
	if err != nil {
		log.Warnf("[Credentials] Cannot open refresh token of user %s: %v", userID, err)
		refresh = ""
	}
	creds := calendar.Credentials{AccessToken: access, RefreshToken: refresh}
	if pa.ExpiresAt != nil {
		creds.Expiry = *pa.ExpiresAt
	}
	if creds.AccessToken == "" {
		return calendar.Credentials{}, false
	}
	return creds, true
}
