package jobqueue

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/SubTrack/app/repository"
	"github.com/ManuelReschke/SubTrack/internal/pkg/calendar"
	"github.com/ManuelReschke/SubTrack/internal/pkg/installments"
)

var _ installments.RetryScheduler = (*Queue)(nil)

// ScheduleCalendarDelete enqueues the deletion of a calendar event that could not be removed inline.
func (q *Queue) ScheduleCalendarDelete(ctx context.Context, userID, eventID, installmentID, link string) error {
	if eventID == "" {
		return errors.New("event id is required")
	}
	payload := CalendarEventDeletePayload{
		UserID:        userID,
		EventID:       eventID,
		InstallmentID: installmentID,
		Link:          link,
	}
	_, err := q.EnqueueJob(ctx, JobTypeCalendarEventDelete, payload.ToMap())
	return err
}

// CalendarDeleteProcessor removes calendar events and detaches them from their installment.
type CalendarDeleteProcessor struct {
	credentials  installments.CredentialSource
	gateway      calendar.Gateway
	installments repository.InstallmentRepository
}

func NewCalendarDeleteProcessor(creds installments.CredentialSource, gateway calendar.Gateway, insts repository.InstallmentRepository) *CalendarDeleteProcessor {
	return &CalendarDeleteProcessor{credentials: creds, gateway: gateway, installments: insts}
}

// Register installs the processor on q.
func (p *CalendarDeleteProcessor) Register(q *Queue) {
	q.Handle(JobTypeCalendarEventDelete, p.Process)
}

// Process deletes the event of job. A user without usable credentials
// completes the job, since no retry can succeed.
func (p *CalendarDeleteProcessor) Process(ctx context.Context, job *Job) error {
	payload, err := CalendarEventDeletePayloadFromMap(job.Payload)
	if err != nil {
		return fmt.Errorf("failed to parse calendar delete payload: %w", err)
	}
	if payload.EventID == "" {
		log.Warnf("[CalendarDeleteJob] Job %s has no event id, dropping", job.ID)
		return nil
	}

	creds, ok := p.credentials.ForUser(ctx, payload.UserID)
	if !ok {
		log.Warnf("[CalendarDeleteJob] No calendar credentials for user %s, event %s left in place", payload.UserID, payload.EventID)
		return nil
	}
	if err := p.gateway.DeleteEvent(ctx, creds, payload.EventID); err != nil {
		return err
	}

	if payload.InstallmentID != "" && payload.Link != "" {
		if err := p.installments.ClearLink(ctx, payload.InstallmentID, payload.Link); err != nil {
			return fmt.Errorf("clear link of installment %s: %w", payload.InstallmentID, err)
		}
	}
	log.Infof("[CalendarDeleteJob] Deleted calendar event %s", payload.EventID)
	return nil
}
