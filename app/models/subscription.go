package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type SubscriptionType string

const (
	SubscriptionMonthly SubscriptionType = "MONTHLY"
	SubscriptionYearly  SubscriptionType = "YEARLY"
)

// ReminderStart is how far ahead of a payment the calendar reminder fires.
type ReminderStart string

const (
	ReminderSameDay   ReminderStart = "D_0"
	ReminderOneDay    ReminderStart = "D_1"
	ReminderThreeDays ReminderStart = "D_3"
	ReminderOneWeek   ReminderStart = "D_7"
	ReminderTwoWeeks  ReminderStart = "D_14"
)

var reminderDays = map[ReminderStart]int{
	ReminderSameDay:   0,
	ReminderOneDay:    1,
	ReminderThreeDays: 3,
	ReminderOneWeek:   7,
	ReminderTwoWeeks:  14,
}

// Days returns the lead time in days. Unknown values fall back to one day.
func (r ReminderStart) Days() int {
	if d, ok := reminderDays[r]; ok {
		return d
	}
	return 1
}

// Minutes returns the lead time in minutes as used by calendar reminders.
func (r ReminderStart) Minutes() int {
	return r.Days() * 24 * 60
}

// Subscription is a recurring payment commitment owned by one user.
type Subscription struct {
	ID            string           `gorm:"primaryKey;type:char(36)" json:"id"`
	UserID        string           `gorm:"type:char(36);not null;index" json:"user_id" validate:"required"`
	Name          string           `gorm:"type:varchar(150);not null" json:"name" validate:"required,max=150"`
	Description   *string          `gorm:"type:text;default:null" json:"description"`
	Day           int              `gorm:"not null" json:"day" validate:"min=1,max=31"`
	Month         *int             `gorm:"default:null" json:"month" validate:"omitempty,min=1,max=12"`
	Price         decimal.Decimal  `gorm:"type:decimal(12,2);not null" json:"price"`
	Type          SubscriptionType `gorm:"type:varchar(16);not null" json:"type" validate:"oneof=MONTHLY YEARLY"`
	ReminderStart ReminderStart    `gorm:"type:varchar(8);not null;default:'D_1'" json:"reminder_start" validate:"oneof=D_0 D_1 D_3 D_7 D_14"`
	LastDay       *time.Time       `gorm:"type:date;default:null" json:"last_day"`
	CreatedAt     time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
	Installments  []Installment    `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

func (s *Subscription) Validate() error {
	if err := validateStruct(s); err != nil {
		return err
	}
	if s.Price.IsNegative() {
		return NewValidationError("price", "must not be negative")
	}
	switch s.Type {
	case SubscriptionYearly:
		if s.Month == nil {
			return NewValidationError("month", "is required for yearly subscriptions")
		}
	case SubscriptionMonthly:
		if s.Month != nil {
			return NewValidationError("month", "must be empty for monthly subscriptions")
		}
	}
	return nil
}

// IsActive reports whether the subscription still runs on the given calendar day.
func (s *Subscription) IsActive(today time.Time) bool {
	if s.LastDay == nil {
		return true
	}
	y1, m1, d1 := s.LastDay.Date()
	y2, m2, d2 := today.Date()
	last := time.Date(y1, m1, d1, 0, 0, 0, 0, time.UTC)
	cur := time.Date(y2, m2, d2, 0, 0, 0, 0, time.UTC)
	return !cur.After(last)
}

// SubscriptionPatch carries a partial update. Nil pointers and unset Nullables leave fields untouched.
type SubscriptionPatch struct {
	Name          *string
	Description   Nullable[string]
	Day           *int
	Month         Nullable[int]
	Price         *decimal.Decimal
	Type          *SubscriptionType
	ReminderStart *ReminderStart
	LastDay       Nullable[time.Time]
}

// Apply merges the patch into s. Switching to MONTHLY without an explicit month clears the month.
func (s *Subscription) Apply(p SubscriptionPatch) {
	if p.Name != nil {
		s.Name = *p.Name
	}
	if p.Description.Set {
		s.Description = p.Description.Value
	}
	if p.Day != nil {
		s.Day = *p.Day
	}
	if p.Month.Set {
		s.Month = p.Month.Value
	}
	if p.Price != nil {
		s.Price = *p.Price
	}
	if p.Type != nil {
		s.Type = *p.Type
		if s.Type == SubscriptionMonthly && !p.Month.Set {
			s.Month = nil
		}
	}
	if p.ReminderStart != nil {
		s.ReminderStart = *p.ReminderStart
	}
	if p.LastDay.Set {
		s.LastDay = p.LastDay.Value
	}
}
