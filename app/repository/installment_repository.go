package repository

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/ManuelReschke/SubTrack/app/models"
)

type installmentRepository struct {
	db *gorm.DB
}

// NewInstallmentRepository creates a new installment repository instance
func NewInstallmentRepository(db *gorm.DB) InstallmentRepository {
	return &installmentRepository{db: db}
}

func (r *installmentRepository) CreateMany(ctx context.Context, installments []models.Installment) error {
	if len(installments) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Omit("Subscription").CreateInBatches(installments, 100).Error
}

func (r *installmentRepository) GetByID(ctx context.Context, id string) (*models.Installment, error) {
	var inst models.Installment
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&inst).Error
	if err != nil {
		return nil, translate(err, "installment")
	}
	return &inst, nil
}

func (r *installmentRepository) GetByLink(ctx context.Context, link string) (*models.Installment, error) {
	var inst models.Installment
	err := r.db.WithContext(ctx).Where("link = ?", link).Order("date ASC").First(&inst).Error
	if err == nil {
		return &inst, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, translate(err, "installment")
	}
	err = r.db.WithContext(ctx).Where("link LIKE ?", escapeLike(link)+"%").Order("date ASC").First(&inst).Error
	if err != nil {
		return nil, translate(err, "installment")
	}
	return &inst, nil
}

func (r *installmentRepository) GetLatestBySubscriptionID(ctx context.Context, subscriptionID string) (*models.Installment, error) {
	var inst models.Installment
	err := r.db.WithContext(ctx).Where("subscription_id = ?", subscriptionID).Order("date DESC").First(&inst).Error
	if err != nil {
		return nil, translate(err, "installment")
	}
	return &inst, nil
}

func (r *installmentRepository) ListBySubscriptionID(ctx context.Context, subscriptionID string) ([]models.Installment, error) {
	var out []models.Installment
	err := r.db.WithContext(ctx).Where("subscription_id = ?", subscriptionID).Order("date ASC").Find(&out).Error
	return out, err
}

func (r *installmentRepository) ListByUserID(ctx context.Context, userID string, filter InstallmentFilter) ([]models.Installment, error) {
	var out []models.Installment
	order := "installments.date DESC"
	if filter.Ascending {
		order = "installments.date ASC"
	}
	q := r.scoped(ctx, userID, filter).Preload("Subscription").Order(order)
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	err := q.Find(&out).Error
	return out, err
}

func (r *installmentRepository) CountByUserID(ctx context.Context, userID string, filter InstallmentFilter) (int64, error) {
	var n int64
	err := r.scoped(ctx, userID, filter).Count(&n).Error
	return n, err
}

func (r *installmentRepository) Update(ctx context.Context, installment *models.Installment) error {
	return r.db.WithContext(ctx).Omit("Subscription").Save(installment).Error
}

func (r *installmentRepository) ClearLink(ctx context.Context, id, link string) error {
	return r.db.WithContext(ctx).Model(&models.Installment{}).
		Where("id = ? AND link = ?", id, link).
		Update("link", nil).Error
}

// scoped builds the owner and status conditions shared by list and count.
func (r *installmentRepository) scoped(ctx context.Context, userID string, filter InstallmentFilter) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&models.Installment{}).
		Joins("JOIN subscriptions ON subscriptions.id = installments.subscription_id").
		Where("subscriptions.user_id = ?", userID)

	switch filter.Status {
	case InstallmentsPaid:
		q = q.Where("installments.paid = ?", true)
	case InstallmentsUnpaid:
		q = q.Where("installments.paid = ?", false)
	case InstallmentsOverdue:
		q = q.Where("installments.paid = ? AND installments.date < ?", false, filter.Today)
	case InstallmentsUpcoming:
		q = q.Where("installments.paid = ? AND installments.date >= ?", false, filter.Today)
		if filter.Days > 0 {
			q = q.Where("installments.date <= ?", filter.Today.AddDate(0, 0, filter.Days))
		}
	}
	if filter.From != nil {
		q = q.Where("installments.date >= ?", *filter.From)
	}
	if filter.Until != nil {
		q = q.Where("installments.date <= ?", *filter.Until)
	}
	return q
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
