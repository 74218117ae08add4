package models

import "time"

const ProviderGoogle = "google"

// ProviderAccount stores external OAuth provider identities linked to a user.
// Tokens are kept sealed; see security.TokenBox.
type ProviderAccount struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	UserID          string     `gorm:"type:char(36);index" json:"user_id"`
	Provider        string     `gorm:"index:provider_uid,unique;type:varchar(50)" json:"provider"`
	ProviderUserID  string     `gorm:"index:provider_uid,unique;type:varchar(191)" json:"provider_user_id"`
	AccessTokenEnc  string     `gorm:"column:access_token;type:text" json:"-"`
	RefreshTokenEnc string     `gorm:"column:refresh_token;type:text" json:"-"`
	ExpiresAt       *time.Time `gorm:"type:timestamp;default:null" json:"expires_at,omitempty"`
	CreatedAt       time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}
