package repository

import (
	"context"
	"database/sql"
	"time"
)

// OrganizationStats is the dashboard summary for a single organization.
// Revenue only counts confirmed bookings; cancelled and refunded money
// never lands here.
type OrganizationStats struct {
	TotalBookings     uint64 `json:"total_bookings"`
	ActiveClasses     uint64 `json:"active_classes"`
	UpcomingClasses   uint64 `json:"upcoming_classes"`
	TotalCoaches      uint64 `json:"total_coaches"`
	ActiveCoaches     uint64 `json:"active_coaches"`
	TotalMembers      uint64 `json:"total_members"`
	TotalRevenueCents uint64 `json:"total_revenue_cents"`
}

// GlobalStats is the platform-wide summary shown to global admins.
type GlobalStats struct {
	TotalOrganizations uint64 `json:"total_organizations"`
	TotalUsers         uint64 `json:"total_users"`
	TotalBookings      uint64 `json:"total_bookings"`
	TotalRevenueCents  uint64 `json:"total_revenue_cents"`
}

// StatsRepo aggregates counts for the dashboards.  Each aggregate is a
// single query so the numbers within one stat are consistent.
type StatsRepo struct {
	db *sql.DB
}

// NewStatsRepo returns a StatsRepo bound to the given database.
func NewStatsRepo(db *sql.DB) *StatsRepo { return &StatsRepo{db: db} }

// Organization computes the dashboard numbers for one organization at
// the given instant.  A class is active while it has not ended and
// upcoming while it has not started.
func (r *StatsRepo) Organization(ctx context.Context, orgID uint64, now time.Time) (OrganizationStats, error) {
	now = now.UTC()
	var s OrganizationStats
	const q = `SELECT
		(SELECT COUNT(*) FROM bookings b JOIN classes c ON c.id = b.class_id WHERE c.organization_id = ?),
		(SELECT COUNT(*) FROM classes WHERE organization_id = ? AND end_time > ?),
		(SELECT COUNT(*) FROM classes WHERE organization_id = ? AND start_time > ?),
		(SELECT COUNT(*) FROM coaches WHERE organization_id = ?),
		(SELECT COUNT(*) FROM coaches co JOIN users u ON u.id = co.user_id
		 WHERE co.organization_id = ? AND u.is_active = 1),
		(SELECT COUNT(*) FROM user_organizations WHERE organization_id = ?),
		(SELECT COALESCE(SUM(b.amount_cents), 0) FROM bookings b
		 JOIN classes c ON c.id = b.class_id
		 WHERE c.organization_id = ? AND b.payment_status = 'confirmed')`
	err := r.db.QueryRowContext(ctx, q,
		orgID, orgID, now, orgID, now, orgID, orgID, orgID, orgID).Scan(
		&s.TotalBookings, &s.ActiveClasses, &s.UpcomingClasses,
		&s.TotalCoaches, &s.ActiveCoaches, &s.TotalMembers, &s.TotalRevenueCents)
	return s, err
}

// Global computes the platform-wide summary.
func (r *StatsRepo) Global(ctx context.Context) (GlobalStats, error) {
	var s GlobalStats
	const q = `SELECT
		(SELECT COUNT(*) FROM organizations),
		(SELECT COUNT(*) FROM users),
		(SELECT COUNT(*) FROM bookings),
		(SELECT COALESCE(SUM(amount_cents), 0) FROM bookings WHERE payment_status = 'confirmed')`
	err := r.db.QueryRowContext(ctx, q).Scan(
		&s.TotalOrganizations, &s.TotalUsers, &s.TotalBookings, &s.TotalRevenueCents)
	return s, err
}
