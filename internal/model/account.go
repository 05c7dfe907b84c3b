// internal/model/account.go
package model

import "time"

type User struct {
	ID           string    `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	PlanType     string    `db:"plan_type" json:"plan_type"`
	IsAdmin      bool      `db:"is_admin" json:"is_admin"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// SnsAccount is a connected publishing destination. Credentials are opaque
// tokens handed to the platform publisher as-is.
type SnsAccount struct {
	ID                string     `db:"id" json:"id"`
	UserID            string     `db:"user_id" json:"-"`
	Platform          Platform   `db:"platform" json:"platform"`
	AccessToken       string     `db:"access_token" json:"-"`
	AccessTokenSecret string     `db:"access_token_secret" json:"-"`
	RefreshToken      string     `db:"refresh_token" json:"-"`
	AccountName       string     `db:"account_name" json:"account_name,omitempty"`
	ExpiresAt         *time.Time `db:"expires_at" json:"expires_at,omitempty"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at"`
}

func (a *SnsAccount) HasCredentials() bool {
	return a != nil && a.AccessToken != ""
}
