package installments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"

	"github.com/ManuelReschke/SubTrack/app/models"
	"github.com/ManuelReschke/SubTrack/internal/pkg/calendar"
	"github.com/ManuelReschke/SubTrack/internal/pkg/calendarlink"
	"github.com/ManuelReschke/SubTrack/internal/pkg/schedule"
)

// Engine turns subscriptions into stored installments.
type Engine struct {
	deps Deps
	cfg  Config
}

func NewEngine(deps Deps, cfg Config) *Engine {
	return &Engine{deps: deps, cfg: cfg.withDefaults()}
}

// Now returns the current instant of the engine clock.
func (e *Engine) Now() time.Time {
	return e.cfg.Now()
}

// Today returns the current calendar day in the configured location.
func (e *Engine) Today() time.Time {
	return schedule.DateOf(e.cfg.Now(), e.cfg.Location)
}

// Project stores the next batch of installments of sub, starting at the first
// occurrence on or after anchor and never before today.
func (e *Engine) Project(ctx context.Context, sub *models.Subscription, anchor time.Time) ([]models.Installment, error) {
	rule, err := schedule.RuleFor(sub)
	if err != nil {
		return nil, err
	}
	start := schedule.DateOf(anchor, e.cfg.Location)
	if today := e.Today(); start.Before(today) {
		start = today
	}
	return e.generate(ctx, sub, rule, start)
}

// Replenish tops up the installments of a subscription when fewer than
// schedule.ReplenishThresholdMonths months remain ahead. Unknown subscriptions
// and subscriptions that already ended are ignored.
func (e *Engine) Replenish(ctx context.Context, subscriptionID string) ([]models.Installment, error) {
	sub, err := e.deps.Subscriptions.GetByID(ctx, subscriptionID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	today := e.Today()
	if !sub.IsActive(today) {
		return nil, nil
	}
	rule, err := schedule.RuleFor(sub)
	if err != nil {
		return nil, err
	}

	latest, err := e.latest(ctx, sub.ID)
	if err != nil {
		return nil, err
	}
	if latest != nil && schedule.MonthsBetween(today, latest.Date) >= schedule.ReplenishThresholdMonths {
		return nil, nil
	}

	marker := "none"
	if latest != nil {
		marker = latest.Date.Format(time.DateOnly)
	}
	if e.deps.Locker != nil {
		release, acquired, err := e.deps.Locker.TryLock(ctx, fmt.Sprintf("replenish:%s:%s", sub.ID, marker))
		switch {
		case err != nil:
			log.Warnf("[Installments] Replenish lock unavailable for %s, continuing unlocked: %v", sub.ID, err)
		case !acquired:
			log.Debugf("[Installments] Replenish of %s already in progress", sub.ID)
			return nil, nil
		default:
			defer release()
			// Another caller may have finished a top-up between the read and the lock.
			current, err := e.latest(ctx, sub.ID)
			if err != nil {
				return nil, err
			}
			if !sameLatest(latest, current) {
				return nil, nil
			}
		}
	}

	start := today
	if latest != nil {
		if next := rule.After(latest.Date); next.After(start) {
			start = next
		}
	}
	created, err := e.generate(ctx, sub, rule, start)
	if err != nil {
		return nil, err
	}
	if len(created) > 0 {
		log.Infof("[Installments] Replenished %d installments for subscription %s", len(created), sub.ID)
	}
	return created, nil
}

// ReplenishForUser runs Replenish for every subscription of userID. Failures
// are logged per subscription.
func (e *Engine) ReplenishForUser(ctx context.Context, userID string) error {
	subs, err := e.deps.Subscriptions.ListByUserID(ctx, userID)
	if err != nil {
		return fmt.Errorf("list subscriptions: %w", err)
	}
	for _, sub := range subs {
		if _, err := e.Replenish(ctx, sub.ID); err != nil {
			log.Errorf("[Installments] Replenish of subscription %s failed: %v", sub.ID, err)
		}
	}
	return nil
}

func (e *Engine) latest(ctx context.Context, subscriptionID string) (*models.Installment, error) {
	inst, err := e.deps.Installments.GetLatestBySubscriptionID(ctx, subscriptionID)
	if errors.Is(err, models.ErrNotFound) {
		return nil, nil
	}
	return inst, err
}

func sameLatest(a, b *models.Installment) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Date.Equal(b.Date)
}

func (e *Engine) generate(ctx context.Context, sub *models.Subscription, rule schedule.Rule, start time.Time) ([]models.Installment, error) {
	dates := rule.Project(start, sub.LastDay, schedule.BatchSize)
	if len(dates) == 0 {
		return nil, nil
	}

	creds, hasCreds := e.deps.Credentials.ForUser(ctx, sub.UserID)
	currencyCode := e.currencyOf(ctx, sub.UserID, hasCreds)

	out := make([]models.Installment, 0, len(dates))
	for _, d := range dates {
		inst := models.Installment{
			ID:             uuid.NewString(),
			SubscriptionID: sub.ID,
			Date:           d,
		}
		if hasCreds {
			link, err := e.createEvent(ctx, creds, sub, d, currencyCode)
			if err != nil {
				log.Warnf("[Installments] Calendar event for %s on %s not created: %v", sub.ID, d.Format(time.DateOnly), err)
			} else {
				inst.Link = &link
			}
		}
		out = append(out, inst)
	}

	if err := e.deps.Installments.CreateMany(ctx, out); err != nil {
		return nil, fmt.Errorf("store installments: %w", err)
	}
	return out, nil
}

func (e *Engine) currencyOf(ctx context.Context, userID string, needed bool) string {
	if !needed || e.deps.Users == nil {
		return e.cfg.DefaultCurrency
	}
	u, err := e.deps.Users.GetByID(ctx, userID)
	if err != nil || u.Currency == "" {
		return e.cfg.DefaultCurrency
	}
	return u.Currency
}

func (e *Engine) createEvent(ctx context.Context, creds calendar.Credentials, sub *models.Subscription, d time.Time, currencyCode string) (string, error) {
	start := time.Date(d.Year(), d.Month(), d.Day(), e.cfg.EventHour, 0, 0, 0, e.cfg.Location)
	ev, err := e.deps.Gateway.CreateEvent(ctx, creds, calendar.EventRequest{
		Title:           eventTitle(sub),
		Description:     eventDescription(sub, currencyCode, e.cfg.APIURL),
		Start:           start,
		Duration:        calendar.DefaultEventDuration,
		TimeZone:        e.cfg.Location.String(),
		ReminderMinutes: sub.ReminderStart.Minutes(),
	})
	if err != nil {
		return "", err
	}
	return calendarlink.Encode(ev.HTMLLink, ev.ID), nil
}
