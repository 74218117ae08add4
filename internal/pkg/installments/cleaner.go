package installments

import (
	"context"

	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/SubTrack/app/models"
	"github.com/ManuelReschke/SubTrack/internal/pkg/calendarlink"
)

// EventCleaner removes the calendar event attached to an installment.
type EventCleaner struct {
	deps Deps
}

func NewEventCleaner(deps Deps) *EventCleaner {
	return &EventCleaner{deps: deps}
}

// Remove deletes the event of inst from the calendar of userID and reports
// whether it is gone. Every failure is soft; failed deletions are queued for
// retry when a RetryScheduler is configured.
func (c *EventCleaner) Remove(ctx context.Context, userID string, inst *models.Installment) bool {
	if !inst.HasLink() || userID == "" {
		return false
	}
	link := *inst.Link

	eventID, err := calendarlink.EventID(link)
	if err != nil {
		log.Warnf("[Installments] No event id in link of installment %s: %v", inst.ID, err)
		return false
	}
	creds, ok := c.deps.Credentials.ForUser(ctx, userID)
	if !ok {
		log.Infof("[Installments] User %s has no calendar credentials, keeping event %s", userID, eventID)
		return false
	}
	if err := c.deps.Gateway.DeleteEvent(ctx, creds, eventID); err != nil {
		log.Warnf("[Installments] Deleting event %s of installment %s failed: %v", eventID, inst.ID, err)
		if c.deps.Retries != nil {
			if qerr := c.deps.Retries.ScheduleCalendarDelete(ctx, userID, eventID, inst.ID, link); qerr != nil {
				log.Errorf("[Installments] Could not queue retry for event %s: %v", eventID, qerr)
			}
		}
		return false
	}
	return true
}
