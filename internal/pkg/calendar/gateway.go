// Package calendar talks to the user's external calendar.
package calendar

import (
	"context"
	"errors"
	"time"
)

// ErrCalendar wraps every failure reported by the calendar provider.
var ErrCalendar = errors.New("calendar request failed")

// DefaultEventDuration is the length of a payment event.
const DefaultEventDuration = time.Hour

// Credentials are the OAuth tokens used to act on the user's calendar.
type Credentials struct {
	AccessToken  string
	RefreshToken string
	Expiry       time.Time
}

// Valid reports whether there is anything to authenticate with.
func (c Credentials) Valid() bool {
	return c.AccessToken != "" || c.RefreshToken != ""
}

// EventRequest describes a payment event.
type EventRequest struct {
	Title           string
	Description     string
	Start           time.Time
	Duration        time.Duration
	TimeZone        string
	ReminderMinutes int
}

// Event is a created calendar event.
type Event struct {
	ID       string
	HTMLLink string
}

// Gateway creates and deletes events on the user's calendar.
type Gateway interface {
	CreateEvent(ctx context.Context, creds Credentials, req EventRequest) (*Event, error)
	DeleteEvent(ctx context.Context, creds Credentials, eventID string) error
}
