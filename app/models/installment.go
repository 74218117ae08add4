package models

import "time"

// Installment is one scheduled payment of a subscription.
type Installment struct {
	ID             string    `gorm:"primaryKey;type:char(36)" json:"id"`
	SubscriptionID string    `gorm:"type:char(36);not null;index:idx_installments_subscription_date,priority:1" json:"subscription_id"`
	Date           time.Time `gorm:"type:date;not null;index:idx_installments_subscription_date,priority:2" json:"date"`
	Link           *string   `gorm:"type:varchar(1024);default:null;index:idx_installments_link,length:191" json:"link"`
	Paid           bool      `gorm:"not null;default:false" json:"paid"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	Subscription *Subscription `gorm:"foreignKey:SubscriptionID" json:"-"`
}

// HasLink reports whether a calendar event is attached.
func (i *Installment) HasLink() bool {
	return i.Link != nil && *i.Link != ""
}

func (i *Installment) MarkAsPaid() {
	i.Paid = true
}

// ClearLink detaches the calendar event.
func (i *Installment) ClearLink() {
	i.Link = nil
}

// IsOverdue reports whether the installment is unpaid and dated before today.
func (i *Installment) IsOverdue(today time.Time) bool {
	return !i.Paid && i.Date.Before(today)
}

// IsUpcoming reports whether the installment is unpaid and falls within [today, today+days].
func (i *Installment) IsUpcoming(today time.Time, days int) bool {
	if i.Paid || i.Date.Before(today) {
		return false
	}
	if days <= 0 {
		return true
	}
	return !i.Date.After(today.AddDate(0, 0, days))
}
