package model

import "time"

type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Username  string    `gorm:"size:128;not null;uniqueIndex" json:"username"`
	Email     string    `gorm:"size:255" json:"email"`
	Active    bool      `gorm:"not null;default:true" json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Credential *TastyTradeCredential `gorm:"foreignKey:UserID" json:"credential,omitempty"`
}

// TastyTradeCredential stores one broker login per user. Password and tokens
// are sealed with security.EncryptString before they hit the database.
type TastyTradeCredential struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	UserID       uint       `gorm:"not null;uniqueIndex" json:"user_id"`
	Environment  string     `gorm:"size:16;not null;default:prod" json:"environment"`
	Username     string     `gorm:"size:128;not null" json:"username"`
	Password     string     `gorm:"size:512" json:"-"`
	AccessToken  string     `gorm:"size:1024" json:"-"`
	RefreshToken string     `gorm:"size:1024" json:"-"`
	TokenExpiry  *time.Time `json:"token_expiry,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`

	User *User `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

const (
	EnvironmentProd    = "prod"
	EnvironmentSandbox = "sandbox"
)
