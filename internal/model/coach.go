package model

import "time"

// Coach links a user to an organization in a coaching capacity.
// Specializations is a comma separated list of sport names; it is kept
// denormalized because it is display-only.
type Coach struct {
	ID              uint64    `json:"id"`
	UserID          uint64    `json:"user_id"`
	OrganizationID  uint64    `json:"organization_id"`
	Specializations *string   `json:"specializations,omitempty"`
	Bio             *string   `json:"bio,omitempty"`
	HourlyRateCents *uint32   `json:"hourly_rate_cents,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}
