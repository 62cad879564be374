package types

import "time"

// User represents an account in the system.
// It contains identity, credentials, and the per-user insight cache.
type User struct {
	// ID is the unique identifier of the user.
	ID int64 `json:"id" db:"id"`

	// Name is the user's display or full name.
	Name string `json:"name" db:"name"`

	// Email is the user's email address. It is unique across all users
	// and is stored lowercased so lookups are case-insensitive.
	Email string `json:"email" db:"email"`

	// PasswordHash stores the hashed representation of the user's password.
	// This field is never exposed in API responses.
	PasswordHash string `json:"-" db:"password_hash"`

	// CachedInsights holds the most recently generated spending insights
	// for this user, or the empty string if none have been generated.
	// It is written only by the insight engine.
	CachedInsights string `json:"-" db:"cached_insights"`

	// InsightsLastGenerated is the instant the cached insights were
	// produced, or nil if insights have never been generated.
	InsightsLastGenerated *time.Time `json:"-" db:"insights_last_generated"`

	// CreatedAt is the timestamp when the user account was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the user account.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
