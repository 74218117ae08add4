// Package memory provides in-memory repository implementations for tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ManuelReschke/SubTrack/app/models"
	"github.com/ManuelReschke/SubTrack/app/repository"
)

func notFound(what string) error {
	return fmt.Errorf("%s: %w", what, models.ErrNotFound)
}

// Installments implements repository.InstallmentRepository.
type Installments struct {
	mu    sync.Mutex
	items map[string]models.Installment
	subs  *Subscriptions
	// CreateCalls counts CreateMany invocations with at least one row.
	CreateCalls int
}

// NewInstallments creates an empty store. subs resolves owners for user scoped queries and may be nil.
func NewInstallments(subs *Subscriptions) *Installments {
	return &Installments{items: map[string]models.Installment{}, subs: subs}
}

func (m *Installments) CreateMany(_ context.Context, in []models.Installment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(in) > 0 {
		m.CreateCalls++
	}
	for _, i := range in {
		m.items[i.ID] = i
	}
	return nil
}

func (m *Installments) GetByID(_ context.Context, id string) (*models.Installment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i, ok := m.items[id]; ok {
		return &i, nil
	}
	return nil, notFound("installment")
}

func (m *Installments) sorted() []models.Installment {
	out := make([]models.Installment, 0, len(m.items))
	for _, i := range m.items {
		out = append(out, i)
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].Date.Equal(out[b].Date) {
			return out[a].ID < out[b].ID
		}
		return out[a].Date.Before(out[b].Date)
	})
	return out
}

func (m *Installments) GetByLink(_ context.Context, link string) (*models.Installment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := m.sorted()
	for _, i := range all {
		if i.Link != nil && *i.Link == link {
			return &i, nil
		}
	}
	for _, i := range all {
		if i.Link != nil && strings.HasPrefix(*i.Link, link) {
			return &i, nil
		}
	}
	return nil, notFound("installment")
}

func (m *Installments) GetLatestBySubscriptionID(_ context.Context, subID string) (*models.Installment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var latest *models.Installment
	for _, i := range m.sorted() {
		i := i // per-iteration copy: preserves go1.22+ loopvar semantics under go 1.21
		if i.SubscriptionID == subID {
			latest = &i
		}
	}
	if latest == nil {
		return nil, notFound("installment")
	}
	return latest, nil
}

func (m *Installments) ListBySubscriptionID(_ context.Context, subID string) ([]models.Installment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Installment
	for _, i := range m.sorted() {
		if i.SubscriptionID == subID {
			out = append(out, i)
		}
	}
	return out, nil
}

func (m *Installments) ListByUserID(_ context.Context, userID string, f repository.InstallmentFilter) ([]models.Installment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Installment
	for _, i := range m.sorted() {
		if m.subs != nil {
			sub, ok := m.subs.get(i.SubscriptionID)
			if !ok || sub.UserID != userID {
				continue
			}
			i.Subscription = &sub
		}
		if !matches(i, f) {
			continue
		}
		out = append(out, i)
	}
	if !f.Ascending {
		for l, r := 0, len(out)-1; l < r; l, r = l+1, r-1 {
			out[l], out[r] = out[r], out[l]
		}
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func matches(i models.Installment, f repository.InstallmentFilter) bool {
	switch f.Status {
	case repository.InstallmentsPaid:
		if !i.Paid {
			return false
		}
	case repository.InstallmentsUnpaid:
		if i.Paid {
			return false
		}
	case repository.InstallmentsOverdue:
		if !i.IsOverdue(f.Today) {
			return false
		}
	case repository.InstallmentsUpcoming:
		if !i.IsUpcoming(f.Today, f.Days) {
			return false
		}
	}
	if f.From != nil && i.Date.Before(*f.From) {
		return false
	}
	if f.Until != nil && i.Date.After(*f.Until) {
		return false
	}
	return true
}

func (m *Installments) CountByUserID(ctx context.Context, userID string, f repository.InstallmentFilter) (int64, error) {
	f.Limit = 0
	l, err := m.ListByUserID(ctx, userID, f)
	return int64(len(l)), err
}

func (m *Installments) Update(_ context.Context, i *models.Installment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *i
	cp.Subscription = nil
	m.items[i.ID] = cp
	return nil
}

func (m *Installments) ClearLink(_ context.Context, id, link string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i, ok := m.items[id]; ok && i.Link != nil && *i.Link == link {
		i.Link = nil
		m.items[id] = i
	}
	return nil
}

// Len returns the number of stored installments.
func (m *Installments) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

// DeleteBySubscription drops all installments of a subscription.
func (m *Installments) DeleteBySubscription(subID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, i := range m.items {
		if i.SubscriptionID == subID {
			delete(m.items, id)
		}
	}
}

// Subscriptions implements repository.SubscriptionRepository.
type Subscriptions struct {
	mu    sync.Mutex
	items map[string]models.Subscription
	// Installments, when set, is cleared on DeleteWithInstallments.
	Installments *Installments
}

func NewSubscriptions(subs ...*models.Subscription) *Subscriptions {
	m := &Subscriptions{items: map[string]models.Subscription{}}
	for _, s := range subs {
		m.items[s.ID] = *s
	}
	return m
}

func (m *Subscriptions) get(id string) (models.Subscription, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.items[id]
	return s, ok
}

func (m *Subscriptions) Create(_ context.Context, s *models.Subscription) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now()
	}
	m.items[s.ID] = *s
	return nil
}

func (m *Subscriptions) GetByID(_ context.Context, id string) (*models.Subscription, error) {
	if s, ok := m.get(id); ok {
		return &s, nil
	}
	return nil, notFound("subscription")
}

func (m *Subscriptions) ListByUserID(_ context.Context, userID string) ([]models.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Subscription
	for _, s := range m.items {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].ID < out[b].ID })
	return out, nil
}

func (m *Subscriptions) ListActiveByUserID(ctx context.Context, userID string, today time.Time) ([]models.Subscription, error) {
	all, _ := m.ListByUserID(ctx, userID)
	var out []models.Subscription
	for _, s := range all {
		if s.IsActive(today) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *Subscriptions) ListTopByPrice(ctx context.Context, userID string, limit int) ([]models.Subscription, error) {
	all, _ := m.ListByUserID(ctx, userID)
	sort.SliceStable(all, func(a, b int) bool { return all[a].Price.GreaterThan(all[b].Price) })
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (m *Subscriptions) Update(_ context.Context, s *models.Subscription) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[s.ID] = *s
	return nil
}

func (m *Subscriptions) DeleteWithInstallments(_ context.Context, id string) error {
	m.mu.Lock()
	_, ok := m.items[id]
	delete(m.items, id)
	m.mu.Unlock()
	if !ok {
		return notFound("subscription")
	}
	if m.Installments != nil {
		m.Installments.DeleteBySubscription(id)
	}
	return nil
}

// Users implements repository.UserRepository.
type Users struct {
	mu    sync.Mutex
	items map[string]models.User
}

func NewUsers(users ...models.User) *Users {
	m := &Users{items: map[string]models.User{}}
	for _, u := range users {
		m.items[u.ID] = u
	}
	return m
}

func (m *Users) Create(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.items {
		if existing.Email == u.Email {
			return fmt.Errorf("duplicate email %s", u.Email)
		}
	}
	m.items[u.ID] = *u
	return nil
}

func (m *Users) GetByID(_ context.Context, id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.items[id]; ok {
		return &u, nil
	}
	return nil, notFound("user")
}

func (m *Users) GetByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.items {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, notFound("user")
}

func (m *Users) Update(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[u.ID] = *u
	return nil
}

func (m *Users) TouchLastLogin(_ context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.items[id]
	if !ok {
		return notFound("user")
	}
	u.LastLoginAt = &at
	m.items[id] = u
	return nil
}

// Len returns the number of stored users.
func (m *Users) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

// ProviderAccounts implements repository.ProviderAccountRepository.
type ProviderAccounts struct {
	mu    sync.Mutex
	items map[string]models.ProviderAccount
}

func NewProviderAccounts() *ProviderAccounts {
	return &ProviderAccounts{items: map[string]models.ProviderAccount{}}
}

func (m *ProviderAccounts) GetByProviderUserID(_ context.Context, provider, providerUserID string) (*models.ProviderAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if pa, ok := m.items[provider+"/"+providerUserID]; ok {
		return &pa, nil
	}
	return nil, notFound("provider account")
}

func (m *ProviderAccounts) GetByUserID(_ context.Context, userID, provider string) (*models.ProviderAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, pa := range m.items {
		if pa.UserID == userID && pa.Provider == provider {
			return &pa, nil
		}
	}
	return nil, notFound("provider account")
}

func (m *ProviderAccounts) Save(_ context.Context, account *models.ProviderAccount) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[account.Provider+"/"+account.ProviderUserID] = *account
	return nil
}

// Get returns the stored account for provider and providerUserID.
func (m *ProviderAccounts) Get(provider, providerUserID string) (models.ProviderAccount, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	pa, ok := m.items[provider+"/"+providerUserID]
	return pa, ok
}

var (
	_ repository.InstallmentRepository     = (*Installments)(nil)
	_ repository.SubscriptionRepository    = (*Subscriptions)(nil)
	_ repository.UserRepository            = (*Users)(nil)
	_ repository.ProviderAccountRepository = (*ProviderAccounts)(nil)
)
