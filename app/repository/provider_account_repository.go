package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ManuelReschke/SubTrack/app/models"
)

type providerAccountRepository struct {
	db *gorm.DB
}

// NewProviderAccountRepository creates a new provider account repository instance
func NewProviderAccountRepository(db *gorm.DB) ProviderAccountRepository {
	return &providerAccountRepository{db: db}
}

func (r *providerAccountRepository) GetByProviderUserID(ctx context.Context, provider, providerUserID string) (*models.ProviderAccount, error) {
	var pa models.ProviderAccount
	err := r.db.WithContext(ctx).Where("provider = ? AND provider_user_id = ?", provider, providerUserID).First(&pa).Error
	if err != nil {
		return nil, translate(err, "provider account")
	}
	return &pa, nil
}

func (r *providerAccountRepository) GetByUserID(ctx context.Context, userID, provider string) (*models.ProviderAccount, error) {
	var pa models.ProviderAccount
	err := r.db.WithContext(ctx).Where("user_id = ? AND provider = ?", userID, provider).
		Order("updated_at DESC").First(&pa).Error
	if err != nil {
		return nil, translate(err, "provider account")
	}
	return &pa, nil
}

// Save upserts on (provider, provider_user_id).
func (r *providerAccountRepository) Save(ctx context.Context, account *models.ProviderAccount) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "provider"}, {Name: "provider_user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"user_id", "access_token", "refresh_token", "expires_at", "updated_at"}),
	}).Create(account).Error
}
