package model

import "time"

// Subscription status values for organizations.  New organizations start
// on a free trial and move to "active" after a plan upgrade.
const (
	SubscriptionTrial     = "trial"
	SubscriptionActive    = "active"
	SubscriptionCancelled = "cancelled"
)

// Organization is the tenant entity.  Every class, coach, booking and
// membership belongs to exactly one organization.  The invite code is a
// short uppercase token used by members to join.
//
// Fields:
//
//	ID                 – primary key identifier.
//	Name               – display name of the academy.
//	Description        – optional free-form description.
//	InviteCode         – unique six character join code.
//	PlanType           – commercial plan identifier (starter, pro, ...).
//	SubscriptionStatus – trial, active or cancelled.
//	TrialStartDate     – when the free trial began (nullable).
//	TrialEndDate       – when the free trial ends (nullable).
//	IsActive           – soft-disable flag controlled by the global admin.
type Organization struct {
	ID                 uint64     `json:"id"`
	Name               string     `json:"name"`
	Description        *string    `json:"description,omitempty"`
	Address            *string    `json:"address,omitempty"`
	Phone              *string    `json:"phone,omitempty"`
	Email              *string    `json:"email,omitempty"`
	Logo               *string    `json:"logo,omitempty"`
	InviteCode         string     `json:"invite_code"`
	PlanType           string     `json:"plan_type"`
	SubscriptionStatus string     `json:"subscription_status"`
	TrialStartDate     *time.Time `json:"trial_start_date,omitempty"`
	TrialEndDate       *time.Time `json:"trial_end_date,omitempty"`
	PrimaryColor       *string    `json:"primary_color,omitempty"`
	SecondaryColor     *string    `json:"secondary_color,omitempty"`
	AccentColor        *string    `json:"accent_color,omitempty"`
	IsActive           bool       `json:"is_active"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// UserOrganization links a user to an organization they have joined or
// follow.  The role field is scoped to the organization and is distinct
// from the user's global role.
type UserOrganization struct {
	ID             uint64    `json:"id"`
	UserID         uint64    `json:"user_id"`
	OrganizationID uint64    `json:"organization_id"`
	Role           string    `json:"role"` // admin, coach or member
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
}

// TrialStatus summarises where an organization is in its free trial.  It
// is computed from the stored trial dates rather than persisted.
type TrialStatus struct {
	SubscriptionStatus string     `json:"subscription_status"`
	TrialEndDate       *time.Time `json:"trial_end_date,omitempty"`
	DaysRemaining      int        `json:"days_remaining"`
	Expired            bool       `json:"expired"`
}
