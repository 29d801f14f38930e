package model

import "time"

// Membership status values.  Legal transitions are pending -> active,
// active -> cancelled and active -> expired; anything else is rejected
// with ErrConflict by the handler layer.
const (
	MembershipPending   = "pending"
	MembershipActive    = "active"
	MembershipCancelled = "cancelled"
	MembershipExpired   = "expired"
)

// Billing frequencies supported by the debit-order mandate.
const (
	BillingMonthly  = "monthly"
	BillingWeekly   = "weekly"
	BillingBiWeekly = "bi-weekly"
)

// Membership is a recurring subscription between a user and an
// organization.  It exists only for organizations on the membership
// business model.  MandateRef identifies the signed debit-order mandate
// that authorises recurring collection.
type Membership struct {
	ID               uint64     `json:"id"`
	UserID           uint64     `json:"user_id"`
	OrganizationID   uint64     `json:"organization_id"`
	Status           string     `json:"status"`
	StartDate        time.Time  `json:"start_date"`
	EndDate          *time.Time `json:"end_date,omitempty"`
	PriceCents       uint32     `json:"price_cents"`
	BillingFrequency string     `json:"billing_frequency"`
	NextBillingDate  *time.Time `json:"next_billing_date,omitempty"`
	MandateRef       *string    `json:"mandate_ref,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// MembershipTransitionAllowed reports whether a membership may move from
// one status to another.
func MembershipTransitionAllowed(from, to string) bool {
	switch from {
	case MembershipPending:
		return to == MembershipActive || to == MembershipCancelled
	case MembershipActive:
		return to == MembershipCancelled || to == MembershipExpired
	}
	return false
}

// NextBillingAfter advances a billing date by one period of the given
// frequency.  Unknown frequencies default to monthly.
func NextBillingAfter(from time.Time, frequency string) time.Time {
	switch frequency {
	case BillingWeekly:
		return from.AddDate(0, 0, 7)
	case BillingBiWeekly:
		return from.AddDate(0, 0, 14)
	default:
		return from.AddDate(0, 1, 0)
	}
}
