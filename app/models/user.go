package models

import (
	"time"

	"golang.org/x/text/currency"
)

const DefaultCurrency = "IDR"

type User struct {
	ID          string     `gorm:"primaryKey;type:char(36)" json:"id"`
	Name        string     `gorm:"type:varchar(150)" json:"name" validate:"required,max=150"`
	Email       string     `gorm:"uniqueIndex;type:varchar(200)" json:"email" validate:"required,email,max=200"`
	AvatarURL   string     `gorm:"type:varchar(255);default:null" json:"avatar_url" validate:"max=255"`
	Country     *string    `gorm:"type:varchar(100);default:null" json:"country" validate:"omitempty,max=100"`
	Currency    string     `gorm:"type:varchar(3);not null;default:'IDR'" json:"currency" validate:"required,len=3"`
	Birthdate   *time.Time `gorm:"type:date;default:null" json:"birthdate"`
	LastLoginAt *time.Time `gorm:"type:timestamp;default:null" json:"last_login_at"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (u *User) Validate() error {
	if err := validateStruct(u); err != nil {
		return err
	}
	if _, err := currency.ParseISO(u.Currency); err != nil {
		return NewValidationError("currency", "must be an ISO 4217 code")
	}
	return nil
}

// Age returns the full years between the birthdate and now, or nil when unknown.
func (u *User) Age(now time.Time) *int {
	if u.Birthdate == nil {
		return nil
	}
	b := *u.Birthdate
	age := now.Year() - b.Year()
	if now.Month() < b.Month() || (now.Month() == b.Month() && now.Day() < b.Day()) {
		age--
	}
	return &age
}

// UserPatch carries a partial profile update.
type UserPatch struct {
	Name      *string
	AvatarURL *string
	Country   Nullable[string]
	Currency  *string
	Birthdate Nullable[time.Time]
}

func (u *User) Apply(p UserPatch) {
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.AvatarURL != nil {
		u.AvatarURL = *p.AvatarURL
	}
	if p.Country.Set {
		u.Country = p.Country.Value
	}
	if p.Currency != nil {
		u.Currency = *p.Currency
	}
	if p.Birthdate.Set {
		u.Birthdate = p.Birthdate.Value
	}
}
