// Package installments projects payment dates into stored installments, keeps
// the projection window filled, and settles payments.
package installments

import (
	"context"
	"fmt"
	"time"

	"github.com/ManuelReschke/SubTrack/app/models"
	"github.com/ManuelReschke/SubTrack/app/repository"
	"github.com/ManuelReschke/SubTrack/internal/pkg/calendar"
)

// ErrNotFound is returned for unknown installments and for installments owned by another user.
var ErrNotFound = fmt.Errorf("installment %w", models.ErrNotFound)

// CredentialSource resolves the calendar credentials of a user.
type CredentialSource interface {
	ForUser(ctx context.Context, userID string) (calendar.Credentials, bool)
}

// Locker guards a replenishment against concurrent duplicates.
type Locker interface {
	TryLock(ctx context.Context, key string) (release func(), acquired bool, err error)
}

// RetryScheduler queues a calendar event deletion that failed inline.
type RetryScheduler interface {
	ScheduleCalendarDelete(ctx context.Context, userID, eventID, installmentID, link string) error
}

// Deps are the collaborators of Engine and Service. Locker and Retries are optional.
type Deps struct {
	Installments  repository.InstallmentRepository
	Subscriptions repository.SubscriptionRepository
	Users         repository.UserRepository
	Credentials   CredentialSource
	Gateway       calendar.Gateway
	Locker        Locker
	Retries       RetryScheduler
}

type Config struct {
	// APIURL prefixes the confirmation link placed in event descriptions.
	APIURL string
	// Location decides which calendar day "today" is and where events are placed.
	Location *time.Location
	// EventHour is the local hour at which payment events start.
	EventHour int
	// DefaultCurrency formats amounts when the owner has none.
	DefaultCurrency string
	// Now overrides the clock in tests.
	Now func() time.Time
}

func (c Config) withDefaults() Config {
	if c.Location == nil {
		c.Location = time.UTC
	}
	if c.EventHour < 0 || c.EventHour > 23 {
		c.EventHour = 9
	}
	if c.DefaultCurrency == "" {
		c.DefaultCurrency = models.DefaultCurrency
	}
	if c.APIURL == "" {
		c.APIURL = "http://localhost:4000"
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	return c
}
