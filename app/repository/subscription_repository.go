package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/ManuelReschke/SubTrack/app/models"
)

type subscriptionRepository struct {
	db *gorm.DB
}

// NewSubscriptionRepository creates a new subscription repository instance
func NewSubscriptionRepository(db *gorm.DB) SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

func (r *subscriptionRepository) Create(ctx context.Context, sub *models.Subscription) error {
	return r.db.WithContext(ctx).Create(sub).Error
}

func (r *subscriptionRepository) GetByID(ctx context.Context, id string) (*models.Subscription, error) {
	var sub models.Subscription
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&sub).Error
	if err != nil {
		return nil, translate(err, "subscription")
	}
	return &sub, nil
}

func (r *subscriptionRepository) ListByUserID(ctx context.Context, userID string) ([]models.Subscription, error) {
	var subs []models.Subscription
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC").Find(&subs).Error
	return subs, err
}

// ListActiveByUserID returns subscriptions without an end date or ending on or after today
func (r *subscriptionRepository) ListActiveByUserID(ctx context.Context, userID string, today time.Time) ([]models.Subscription, error) {
	var subs []models.Subscription
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND (last_day IS NULL OR last_day >= ?)", userID, today).
		Order("created_at DESC").Find(&subs).Error
	return subs, err
}

func (r *subscriptionRepository) ListTopByPrice(ctx context.Context, userID string, limit int) ([]models.Subscription, error) {
	var subs []models.Subscription
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).
		Order("price DESC").Order("name ASC").Limit(limit).Find(&subs).Error
	return subs, err
}

func (r *subscriptionRepository) Update(ctx context.Context, sub *models.Subscription) error {
	return r.db.WithContext(ctx).Omit("Installments").Save(sub).Error
}

func (r *subscriptionRepository) DeleteWithInstallments(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("subscription_id = ?", id).Delete(&models.Installment{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&models.Subscription{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return translate(gorm.ErrRecordNotFound, "subscription")
		}
		return nil
	})
}
