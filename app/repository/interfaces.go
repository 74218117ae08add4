package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/ManuelReschke/SubTrack/app/models"
)

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	TouchLastLogin(ctx context.Context, id string, at time.Time) error
}

// ProviderAccountRepository defines the interface for linked OAuth identities
type ProviderAccountRepository interface {
	GetByProviderUserID(ctx context.Context, provider, providerUserID string) (*models.ProviderAccount, error)
	GetByUserID(ctx context.Context, userID, provider string) (*models.ProviderAccount, error)
	Save(ctx context.Context, account *models.ProviderAccount) error
}

// SubscriptionRepository defines the interface for subscription persistence
type SubscriptionRepository interface {
	Create(ctx context.Context, sub *models.Subscription) error
	GetByID(ctx context.Context, id string) (*models.Subscription, error)
	ListByUserID(ctx context.Context, userID string) ([]models.Subscription, error)
	ListActiveByUserID(ctx context.Context, userID string, today time.Time) ([]models.Subscription, error)
	ListTopByPrice(ctx context.Context, userID string, limit int) ([]models.Subscription, error)
	Update(ctx context.Context, sub *models.Subscription) error
	// DeleteWithInstallments removes the subscription and all of its installments atomically.
	DeleteWithInstallments(ctx context.Context, id string) error
}

// InstallmentStatus selects installments in ListByUserID and CountByUserID.
type InstallmentStatus string

const (
	InstallmentsAll      InstallmentStatus = ""
	InstallmentsUpcoming InstallmentStatus = "upcoming"
	InstallmentsOverdue  InstallmentStatus = "overdue"
	InstallmentsPaid     InstallmentStatus = "paid"
	InstallmentsUnpaid   InstallmentStatus = "unpaid"
)

// InstallmentFilter narrows installment queries. Today is the reference
// calendar day; Days bounds upcoming installments when positive; From and
// Until are inclusive date bounds when set. Results are newest first unless
// Ascending is set.
type InstallmentFilter struct {
	Status    InstallmentStatus
	Today     time.Time
	Days      int
	From      *time.Time
	Until     *time.Time
	Limit     int
	Ascending bool
}

// InstallmentRepository defines the interface for installment persistence
type InstallmentRepository interface {
	CreateMany(ctx context.Context, installments []models.Installment) error
	GetByID(ctx context.Context, id string) (*models.Installment, error)
	// GetByLink matches the stored link exactly, then falls back to the
	// earliest installment whose link starts with the given value.
	GetByLink(ctx context.Context, link string) (*models.Installment, error)
	GetLatestBySubscriptionID(ctx context.Context, subscriptionID string) (*models.Installment, error)
	ListBySubscriptionID(ctx context.Context, subscriptionID string) ([]models.Installment, error)
	ListByUserID(ctx context.Context, userID string, filter InstallmentFilter) ([]models.Installment, error)
	CountByUserID(ctx context.Context, userID string, filter InstallmentFilter) (int64, error)
	Update(ctx context.Context, installment *models.Installment) error
	// ClearLink detaches the calendar event if the stored link still equals link.
	ClearLink(ctx context.Context, id, link string) error
}

// Repositories holds all repository instances
type Repositories struct {
	User            UserRepository
	ProviderAccount ProviderAccountRepository
	Subscription    SubscriptionRepository
	Installment     InstallmentRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:            NewUserRepository(db),
		ProviderAccount: NewProviderAccountRepository(db),
		Subscription:    NewSubscriptionRepository(db),
		Installment:     NewInstallmentRepository(db),
	}
}
