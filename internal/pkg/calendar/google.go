package calendar

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// DefaultCalendarID is the authenticated user's primary calendar.
const DefaultCalendarID = "primary"

type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	CalendarID   string
}

// GoogleGateway implements Gateway with the Google Calendar v3 API.
type GoogleGateway struct {
	oauth      *oauth2.Config
	calendarID string
	opts       []option.ClientOption
}

// NewGoogleGateway creates a gateway. Extra client options are appended after
// the per-user token source, so option.WithHTTPClient overrides authentication.
func NewGoogleGateway(cfg GoogleConfig, opts ...option.ClientOption) *GoogleGateway {
	calendarID := cfg.CalendarID
	if calendarID == "" {
		calendarID = DefaultCalendarID
	}
	return &GoogleGateway{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     google.Endpoint,
			Scopes:       []string{gcal.CalendarEventsScope},
		},
		calendarID: calendarID,
		opts:       opts,
	}
}

func (g *GoogleGateway) service(ctx context.Context, creds Credentials) (*gcal.Service, error) {
	if !creds.Valid() {
		return nil, fmt.Errorf("%w: missing credentials", ErrCalendar)
	}
	token := &oauth2.Token{
		AccessToken:  creds.AccessToken,
		RefreshToken: creds.RefreshToken,
		Expiry:       creds.Expiry,
		TokenType:    "Bearer",
	}
	opts := append([]option.ClientOption{option.WithTokenSource(g.oauth.TokenSource(ctx, token))}, g.opts...)
	srv, err := gcal.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCalendar, err)
	}
	return srv, nil
}

// CreateEvent inserts a one-off event with email and popup reminders.
func (g *GoogleGateway) CreateEvent(ctx context.Context, creds Credentials, req EventRequest) (*Event, error) {
	srv, err := g.service(ctx, creds)
	if err != nil {
		return nil, err
	}

	duration := req.Duration
	if duration <= 0 {
		duration = DefaultEventDuration
	}
	end := req.Start.Add(duration)
	minutes := int64(req.ReminderMinutes)

	ev := &gcal.Event{
		Summary:     req.Title,
		Description: req.Description,
		Start:       &gcal.EventDateTime{DateTime: req.Start.Format(time.RFC3339), TimeZone: req.TimeZone},
		End:         &gcal.EventDateTime{DateTime: end.Format(time.RFC3339), TimeZone: req.TimeZone},
		Reminders: &gcal.EventReminders{
			UseDefault: false,
			Overrides: []*gcal.EventReminder{
				{Method: "email", Minutes: minutes, ForceSendFields: []string{"Minutes"}},
				{Method: "popup", Minutes: minutes, ForceSendFields: []string{"Minutes"}},
			},
			ForceSendFields: []string{"UseDefault"},
		},
	}

	created, err := srv.Events.Insert(g.calendarID, ev).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("%w: insert event: %v", ErrCalendar, err)
	}
	if created.Id == "" || created.HtmlLink == "" {
		return nil, fmt.Errorf("%w: insert event returned no id or link", ErrCalendar)
	}
	log.Debugf("[Calendar] Created event %s on %s", created.Id, g.calendarID)
	return &Event{ID: created.Id, HTMLLink: created.HtmlLink}, nil
}

// DeleteEvent removes an event. An event that is already gone counts as deleted.
func (g *GoogleGateway) DeleteEvent(ctx context.Context, creds Credentials, eventID string) error {
	srv, err := g.service(ctx, creds)
	if err != nil {
		return err
	}
	if err := srv.Events.Delete(g.calendarID, eventID).Context(ctx).Do(); err != nil {
		var gerr *googleapi.Error
		if errors.As(err, &gerr) && (gerr.Code == http.StatusNotFound || gerr.Code == http.StatusGone) {
			log.Infof("[Calendar] Event %s already removed", eventID)
			return nil
		}
		return fmt.Errorf("%w: delete event %s: %v", ErrCalendar, eventID, err)
	}
	return nil
}
