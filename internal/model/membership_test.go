package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMembershipTransitionAllowed(t *testing.T) {
	cases := []struct {
		from, to string
		want     bool
	}{
		{MembershipPending, MembershipActive, true},
		{MembershipPending, MembershipCancelled, true},
		{MembershipActive, MembershipCancelled, true},
		{MembershipActive, MembershipExpired, true},
		{MembershipPending, MembershipExpired, false},
		{MembershipCancelled, MembershipActive, false},
		{MembershipExpired, MembershipActive, false},
		{MembershipActive, MembershipPending, false},
		{"bogus", MembershipActive, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, MembershipTransitionAllowed(tc.from, tc.to),
			"%s -> %s", tc.from, tc.to)
	}
}

func TestNextBillingAfter(t *testing.T) {
	from := time.Date(2025, 1, 31, 8, 0, 0, 0, time.UTC)

	assert.Equal(t, from.AddDate(0, 0, 7), NextBillingAfter(from, BillingWeekly))
	assert.Equal(t, from.AddDate(0, 0, 14), NextBillingAfter(from, BillingBiWeekly))
	assert.Equal(t, from.AddDate(0, 1, 0), NextBillingAfter(from, BillingMonthly))
	// unknown frequencies fall back to monthly
	assert.Equal(t, from.AddDate(0, 1, 0), NextBillingAfter(from, "quarterly"))
}
