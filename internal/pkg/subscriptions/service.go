// Package subscriptions manages the lifecycle of a user's subscriptions.
package subscriptions

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"

	"github.com/ManuelReschke/SubTrack/app/models"
	"github.com/ManuelReschke/SubTrack/app/repository"
	"github.com/ManuelReschke/SubTrack/internal/pkg/installments"
	"github.com/ManuelReschke/SubTrack/internal/pkg/schedule"
)

// ErrNotFound is returned for unknown subscriptions and for subscriptions owned by another user.
var ErrNotFound = fmt.Errorf("subscription %w", models.ErrNotFound)

// Service creates, updates and deletes subscriptions.
type Service struct {
	subscriptions repository.SubscriptionRepository
	installments  repository.InstallmentRepository
	engine        *installments.Engine
	cleaner       *installments.EventCleaner
}

func NewService(deps installments.Deps, engine *installments.Engine) *Service {
	return &Service{
		subscriptions: deps.Subscriptions,
		installments:  deps.Installments,
		engine:        engine,
		cleaner:       installments.NewEventCleaner(deps),
	}
}

// Create validates and stores sub for userID and projects its first batch of installments.
func (s *Service) Create(ctx context.Context, userID string, sub *models.Subscription) (*models.Subscription, error) {
	sub.ID = uuid.NewString()
	sub.UserID = userID
	if sub.ReminderStart == "" {
		sub.ReminderStart = models.ReminderOneDay
	}
	if err := sub.Validate(); err != nil {
		return nil, err
	}
	if err := s.subscriptions.Create(ctx, sub); err != nil {
		return nil, fmt.Errorf("create subscription: %w", err)
	}
	log.Infof("[Subscriptions] Created subscription %s for user %s", sub.ID, userID)

	created, err := s.engine.Project(ctx, sub, s.engine.Now())
	if err != nil {
		return nil, fmt.Errorf("project installments: %w", err)
	}
	log.Debugf("[Subscriptions] Projected %d installments for %s", len(created), sub.ID)
	return sub, nil
}

// Get returns the subscription id if it belongs to userID.
func (s *Service) Get(ctx context.Context, userID, id string) (*models.Subscription, error) {
	sub, err := s.subscriptions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if sub.UserID != userID {
		return nil, ErrNotFound
	}
	return sub, nil
}

// List returns the subscriptions of userID, optionally only those still running today.
func (s *Service) List(ctx context.Context, userID string, activeOnly bool) ([]models.Subscription, error) {
	if activeOnly {
		return s.subscriptions.ListActiveByUserID(ctx, userID, s.engine.Today())
	}
	return s.subscriptions.ListByUserID(ctx, userID)
}

// TopByPrice returns the limit most expensive subscriptions of userID.
func (s *Service) TopByPrice(ctx context.Context, userID string, limit int) ([]models.Subscription, error) {
	return s.subscriptions.ListTopByPrice(ctx, userID, limit)
}

// UpcomingPayment is a subscription with its next payment date.
type UpcomingPayment struct {
	Subscription models.Subscription
	Date         time.Time
}

// Upcoming returns the active subscriptions of userID whose next payment falls
// within days from today, soonest first.
func (s *Service) Upcoming(ctx context.Context, userID string, days int) ([]UpcomingPayment, error) {
	if days < 0 {
		return nil, models.NewValidationError("days", "must not be negative")
	}
	today := s.engine.Today()
	subs, err := s.subscriptions.ListActiveByUserID(ctx, userID, today)
	if err != nil {
		return nil, err
	}
	limit := today.AddDate(0, 0, days)
	var out []UpcomingPayment
	for _, sub := range subs {
		rule, err := schedule.RuleFor(&sub)
		if err != nil {
			log.Warnf("[Subscriptions] Skipping %s: %v", sub.ID, err)
			continue
		}
		next := rule.Next(today)
		if next.After(limit) || (sub.LastDay != nil && next.After(schedule.Civil(*sub.LastDay))) {
			continue
		}
		out = append(out, UpcomingPayment{Subscription: sub, Date: next})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

// Update applies patch to the subscription id of userID. Installments are not regenerated.
func (s *Service) Update(ctx context.Context, userID, id string, patch models.SubscriptionPatch) (*models.Subscription, error) {
	sub, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	sub.Apply(patch)
	if err := sub.Validate(); err != nil {
		return nil, err
	}
	sub.UpdatedAt = s.engine.Now()
	if err := s.subscriptions.Update(ctx, sub); err != nil {
		return nil, fmt.Errorf("update subscription: %w", err)
	}
	return sub, nil
}

// Delete removes the calendar events of all installments, then deletes the
// installments and the subscription in one transaction.
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	sub, err := s.Get(ctx, userID, id)
	if err != nil {
		return err
	}
	insts, err := s.installments.ListBySubscriptionID(ctx, sub.ID)
	if err != nil {
		return fmt.Errorf("list installments: %w", err)
	}
	removed := 0
	for i := range insts {
		if insts[i].HasLink() && s.cleaner.Remove(ctx, sub.UserID, &insts[i]) {
			removed++
		}
	}
	if err := s.subscriptions.DeleteWithInstallments(ctx, sub.ID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("delete subscription: %w", err)
	}
	log.Infof("[Subscriptions] Deleted subscription %s (%d installments, %d calendar events)", sub.ID, len(insts), removed)
	return nil
}

// Today returns the current calendar day in the configured location.
func (s *Service) Today() time.Time {
	return s.engine.Today()
}
