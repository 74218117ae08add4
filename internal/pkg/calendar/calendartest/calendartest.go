// Package calendartest provides an in-memory calendar.Gateway.
package calendartest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ManuelReschke/SubTrack/internal/pkg/calendar"
)

// Gateway records created and deleted events.
type Gateway struct {
	mu      sync.Mutex
	seq     int
	created []calendar.EventRequest
	deleted []string

	// FailOn makes CreateEvent fail for events starting on these dates (YYYY-MM-DD).
	FailOn map[string]bool
	// DeleteErr is returned by DeleteEvent when set.
	DeleteErr error
}

func NewGateway() *Gateway {
	return &Gateway{FailOn: map[string]bool{}}
}

func (g *Gateway) CreateEvent(_ context.Context, creds calendar.Credentials, req calendar.EventRequest) (*calendar.Event, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !creds.Valid() {
		return nil, fmt.Errorf("%w: missing credentials", calendar.ErrCalendar)
	}
	if g.FailOn[req.Start.Format(time.DateOnly)] {
		return nil, fmt.Errorf("%w: quota exceeded", calendar.ErrCalendar)
	}
	g.seq++
	g.created = append(g.created, req)
	id := fmt.Sprintf("evt%d", g.seq)
	return &calendar.Event{ID: id, HTMLLink: "https://calendar.google.com/event?eid=" + id}, nil
}

func (g *Gateway) DeleteEvent(_ context.Context, _ calendar.Credentials, eventID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.DeleteErr != nil {
		return g.DeleteErr
	}
	g.deleted = append(g.deleted, eventID)
	return nil
}

// Created returns the requests of all created events.
func (g *Gateway) Created() []calendar.EventRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]calendar.EventRequest(nil), g.created...)
}

// Deleted returns the ids of all deleted events.
func (g *Gateway) Deleted() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.deleted...)
}

// Credentials maps user ids to credentials.
type Credentials map[string]calendar.Credentials

func (c Credentials) ForUser(_ context.Context, userID string) (calendar.Credentials, bool) {
	creds, ok := c[userID]
	return creds, ok && creds.Valid()
}

var _ calendar.Gateway = (*Gateway)(nil)
