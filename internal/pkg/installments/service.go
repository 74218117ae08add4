package installments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/SubTrack/app/models"
	"github.com/ManuelReschke/SubTrack/app/repository"
)

// Service settles payments and serves installment reads.
type Service struct {
	deps    Deps
	engine  *Engine
	cleaner *EventCleaner
}

func NewService(deps Deps, engine *Engine) *Service {
	return &Service{deps: deps, engine: engine, cleaner: NewEventCleaner(deps)}
}

// MarkPaid settles the installment id on behalf of userID.
func (s *Service) MarkPaid(ctx context.Context, id, userID string) (*models.Installment, error) {
	inst, err := s.deps.Installments.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	sub, err := s.deps.Subscriptions.GetByID(ctx, inst.SubscriptionID)
	if err != nil {
		return nil, notFound(err)
	}
	if sub.UserID != userID {
		return nil, ErrNotFound
	}
	return s.settle(ctx, inst, sub)
}

// ConfirmByLink settles the installment whose calendar link matches link.
func (s *Service) ConfirmByLink(ctx context.Context, link string) (*models.Installment, error) {
	link = strings.TrimSpace(link)
	if link == "" {
		return nil, models.NewValidationError("link", "is required")
	}
	inst, err := s.deps.Installments.GetByLink(ctx, link)
	if err != nil {
		return nil, notFound(err)
	}

	sub, err := s.deps.Subscriptions.GetByID(ctx, inst.SubscriptionID)
	switch {
	case err == nil:
	case errors.Is(err, models.ErrNotFound):
		log.Warnf("[Installments] Installment %s has no subscription", inst.ID)
		sub = nil
	default:
		return nil, err
	}
	return s.settle(ctx, inst, sub)
}

// settle marks inst paid and attaches sub, which may be nil for orphaned rows.
func (s *Service) settle(ctx context.Context, inst *models.Installment, sub *models.Subscription) (*models.Installment, error) {
	ownerID := ""
	if sub != nil {
		ownerID = sub.UserID
	}
	if inst.HasLink() && s.cleaner.Remove(ctx, ownerID, inst) {
		inst.ClearLink()
	}
	inst.MarkAsPaid()
	if err := s.deps.Installments.Update(ctx, inst); err != nil {
		return nil, fmt.Errorf("update installment: %w", err)
	}
	inst.Subscription = sub
	log.Infof("[Installments] Installment %s marked as paid", inst.ID)
	return inst, nil
}

// ListFilter selects installments for List.
type ListFilter struct {
	Status repository.InstallmentStatus
	Days   int
}

// ParseStatus maps a query value onto an installment status.
func ParseStatus(v string) (repository.InstallmentStatus, error) {
	switch st := repository.InstallmentStatus(strings.ToLower(strings.TrimSpace(v))); st {
	case repository.InstallmentsAll, repository.InstallmentsUpcoming, repository.InstallmentsOverdue, repository.InstallmentsPaid:
		return st, nil
	default:
		return "", models.NewValidationError("status", "must be one of upcoming overdue paid")
	}
}

// List tops up every subscription of userID and returns the matching installments.
func (s *Service) List(ctx context.Context, userID string, f ListFilter) ([]models.Installment, error) {
	if f.Days < 0 {
		return nil, models.NewValidationError("days", "must not be negative")
	}
	if err := s.engine.ReplenishForUser(ctx, userID); err != nil {
		return nil, err
	}
	filter := repository.InstallmentFilter{
		Status:    f.Status,
		Today:     s.engine.Today(),
		Days:      f.Days,
		Ascending: f.Status == repository.InstallmentsUpcoming,
	}
	return s.deps.Installments.ListByUserID(ctx, userID, filter)
}

// Today returns the current calendar day in the configured location.
func (s *Service) Today() time.Time {
	return s.engine.Today()
}

func notFound(err error) error {
	if errors.Is(err, models.ErrNotFound) {
		return ErrNotFound
	}
	return err
}
