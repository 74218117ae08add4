// Package statistics aggregates the dashboard of a user.
package statistics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/redis/go-redis/v9"

	"github.com/ManuelReschke/SubTrack/app/models"
	"github.com/ManuelReschke/SubTrack/app/repository"
)

const (
	CacheKeyTotals  = "statistics:user:%s:totals:%s" // user id, date YYYY-MM-DD
	CacheExpiration = 5 * time.Minute

	NextPaymentsLimit     = 10
	TopSubscriptionsLimit = 5
	UpcomingDays          = 30
)

// Replenisher tops up installments before they are read.
type Replenisher interface {
	ReplenishForUser(ctx context.Context, userID string) error
	Today() time.Time
}

// Totals counts the installments of a user by state.
type Totals struct {
	Paid     int64 `json:"total_paid"`
	Overdue  int64 `json:"total_overdue"`
	Upcoming int64 `json:"total_upcoming"`
	All      int64 `json:"total_installments"`
}

// NextPayment is an unpaid installment of the current month.
type NextPayment struct {
	Subscription models.Subscription
	Date         time.Time
}

type Dashboard struct {
	NextPayments     []NextPayment
	TopSubscriptions []models.Subscription
	Totals           Totals
}

type Service struct {
	subscriptions repository.SubscriptionRepository
	installments  repository.InstallmentRepository
	replenisher   Replenisher
	cache         *redis.Client
}

// NewService creates the dashboard service. cache may be nil, which disables caching of totals.
func NewService(subs repository.SubscriptionRepository, insts repository.InstallmentRepository, replenisher Replenisher, cache *redis.Client) *Service {
	return &Service{subscriptions: subs, installments: insts, replenisher: replenisher, cache: cache}
}

// Dashboard tops up every subscription of userID and aggregates the dashboard.
func (s *Service) Dashboard(ctx context.Context, userID string) (*Dashboard, error) {
	if err := s.replenisher.ReplenishForUser(ctx, userID); err != nil {
		return nil, err
	}
	today := s.replenisher.Today()

	monthStart := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)
	monthEnd := monthStart.AddDate(0, 1, -1)
	insts, err := s.installments.ListByUserID(ctx, userID, repository.InstallmentFilter{
		Status:    repository.InstallmentsUnpaid,
		Today:     today,
		From:      &monthStart,
		Until:     &monthEnd,
		Limit:     NextPaymentsLimit,
		Ascending: true,
	})
	if err != nil {
		return nil, fmt.Errorf("list next payments: %w", err)
	}
	next := make([]NextPayment, 0, len(insts))
	for _, inst := range insts {
		if inst.Subscription == nil {
			continue
		}
		next = append(next, NextPayment{Subscription: *inst.Subscription, Date: inst.Date})
	}

	top, err := s.subscriptions.ListTopByPrice(ctx, userID, TopSubscriptionsLimit)
	if err != nil {
		return nil, fmt.Errorf("list top subscriptions: %w", err)
	}

	totals, err := s.Totals(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &Dashboard{NextPayments: next, TopSubscriptions: top, Totals: totals}, nil
}

// Totals returns the installment counters of userID, served from the cache when possible.
func (s *Service) Totals(ctx context.Context, userID string) (Totals, error) {
	today := s.replenisher.Today()
	key := cacheKey(userID, today)
	if s.cache != nil {
		raw, err := s.cache.Get(ctx, key).Bytes()
		switch {
		case err == nil:
			var t Totals
			if err := json.Unmarshal(raw, &t); err == nil {
				return t, nil
			}
			log.Warnf("[Statistics] Discarding malformed cache entry %s", key)
		case !errors.Is(err, redis.Nil):
			log.Warnf("[Statistics] Cache read failed for %s: %v", key, err)
		}
	}

	t, err := s.count(ctx, userID, today)
	if err != nil {
		return Totals{}, err
	}

	if s.cache != nil {
		raw, _ := json.Marshal(t)
		if err := s.cache.Set(ctx, key, raw, CacheExpiration).Err(); err != nil {
			log.Warnf("[Statistics] Cache write failed for %s: %v", key, err)
		}
	}
	return t, nil
}

// Invalidate drops the cached totals of userID for today.
func (s *Service) Invalidate(ctx context.Context, userID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, cacheKey(userID, s.replenisher.Today())).Err(); err != nil {
		log.Warnf("[Statistics] Cache invalidation failed for user %s: %v", userID, err)
	}
}

func (s *Service) count(ctx context.Context, userID string, today time.Time) (Totals, error) {
	var t Totals
	counters := []struct {
		dst    *int64
		filter repository.InstallmentFilter
	}{
		{&t.Paid, repository.InstallmentFilter{Status: repository.InstallmentsPaid, Today: today}},
		{&t.Overdue, repository.InstallmentFilter{Status: repository.InstallmentsOverdue, Today: today}},
		{&t.Upcoming, repository.InstallmentFilter{Status: repository.InstallmentsUpcoming, Today: today, Days: UpcomingDays}},
		{&t.All, repository.InstallmentFilter{Today: today}},
	}
	for _, c := range counters {
		n, err := s.installments.CountByUserID(ctx, userID, c.filter)
		if err != nil {
			return Totals{}, fmt.Errorf("count %s installments: %w", c.filter.Status, err)
		}
		*c.dst = n
	}
	return t, nil
}

func cacheKey(userID string, today time.Time) string {
	return fmt.Sprintf(CacheKeyTotals, userID, today.Format(time.DateOnly))
}
