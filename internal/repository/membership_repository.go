package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/ihacademy/academy-server/internal/model"
)

// ErrMembershipNotFound is returned when a membership lookup misses.
var ErrMembershipNotFound = errors.New("membership not found")

// MembershipRepo stores recurring memberships and their debit-order
// mandate references.
type MembershipRepo struct {
	db *sql.DB
}

// NewMembershipRepo returns a MembershipRepo bound to the given
// database.
func NewMembershipRepo(db *sql.DB) *MembershipRepo { return &MembershipRepo{db: db} }

const membershipCols = `id, user_id, organization_id, status, start_date, end_date,
	price_cents, billing_frequency, next_billing_date, mandate_ref,
	created_at, updated_at`

func scanMembership(sc interface {
	Scan(dest ...interface{}) error
}) (model.Membership, error) {
	var m model.Membership
	err := sc.Scan(
		&m.ID, &m.UserID, &m.OrganizationID, &m.Status, &m.StartDate, &m.EndDate,
		&m.PriceCents, &m.BillingFrequency, &m.NextBillingDate, &m.MandateRef,
		&m.CreatedAt, &m.UpdatedAt,
	)
	return m, err
}

// Create inserts a membership.  A user holds at most one non-cancelled
// membership per organization; a second insert is rejected with
// ErrConflict before touching the table.
func (r *MembershipRepo) Create(ctx context.Context, m *model.Membership) error {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM memberships
		 WHERE user_id = ? AND organization_id = ? AND status IN ('pending','active')`,
		m.UserID, m.OrganizationID).Scan(&n)
	if err != nil {
		return err
	}
	if n > 0 {
		return ErrConflict
	}
	const q = `INSERT INTO memberships
		(user_id, organization_id, status, start_date, end_date, price_cents,
		 billing_frequency, next_billing_date, mandate_ref)
		VALUES (?,?,?,?,?,?,?,?,?)`
	res, err := r.db.ExecContext(ctx, q,
		m.UserID, m.OrganizationID, m.Status, m.StartDate.UTC(), m.EndDate,
		m.PriceCents, m.BillingFrequency, m.NextBillingDate, m.MandateRef)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	got, err := r.GetByID(ctx, uint64(id))
	if err != nil {
		return err
	}
	*m = got
	return nil
}

// GetByID returns a membership or ErrMembershipNotFound.
func (r *MembershipRepo) GetByID(ctx context.Context, id uint64) (model.Membership, error) {
	m, err := scanMembership(r.db.QueryRowContext(ctx,
		`SELECT `+membershipCols+` FROM memberships WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Membership{}, ErrMembershipNotFound
	}
	return m, err
}

// ListByOrganization returns all memberships of an organization.
func (r *MembershipRepo) ListByOrganization(ctx context.Context, orgID uint64) ([]model.Membership, error) {
	return r.list(ctx,
		`SELECT `+membershipCols+` FROM memberships WHERE organization_id = ? ORDER BY created_at DESC`, orgID)
}

// ListByUser returns a user's memberships across organizations.
func (r *MembershipRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Membership, error) {
	return r.list(ctx,
		`SELECT `+membershipCols+` FROM memberships WHERE user_id = ? ORDER BY created_at DESC`, userID)
}

func (r *MembershipRepo) list(ctx context.Context, q string, args ...interface{}) ([]model.Membership, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Membership, 0)
	for rows.Next() {
		m, err := scanMembership(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Transition moves a membership to a new status, enforcing the legal
// state machine.  Activation stamps the mandate reference and first
// billing date; cancellation and expiry clear the next billing date so
// no further collections run.
func (r *MembershipRepo) Transition(ctx context.Context, id uint64, to string, mandateRef *string) (model.Membership, error) {
	m, err := r.GetByID(ctx, id)
	if err != nil {
		return model.Membership{}, err
	}
	if !model.MembershipTransitionAllowed(m.Status, to) {
		return model.Membership{}, ErrConflict
	}
	var res sql.Result
	switch to {
	case model.MembershipActive:
		next := model.NextBillingAfter(m.StartDate, m.BillingFrequency)
		res, err = r.db.ExecContext(ctx,
			`UPDATE memberships SET status = ?, mandate_ref = COALESCE(?, mandate_ref),
			 next_billing_date = ? WHERE id = ? AND status = ?`,
			to, mandateRef, next, id, m.Status)
	default:
		res, err = r.db.ExecContext(ctx,
			`UPDATE memberships SET status = ?, next_billing_date = NULL, end_date = UTC_TIMESTAMP()
			 WHERE id = ? AND status = ?`,
			to, id, m.Status)
	}
	if err != nil {
		return model.Membership{}, err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		// lost a race with a concurrent transition
		return model.Membership{}, ErrConflict
	}
	return r.GetByID(ctx, id)
}

// AdvanceBilling pushes the next billing date of an active membership
// forward by one period.  Called by the debit-order worker after a
// successful collection.
func (r *MembershipRepo) AdvanceBilling(ctx context.Context, id uint64) (model.Membership, error) {
	m, err := r.GetByID(ctx, id)
	if err != nil {
		return model.Membership{}, err
	}
	if m.Status != model.MembershipActive || m.NextBillingDate == nil {
		return model.Membership{}, ErrConflict
	}
	next := model.NextBillingAfter(*m.NextBillingDate, m.BillingFrequency)
	if _, err := r.db.ExecContext(ctx,
		"UPDATE memberships SET next_billing_date = ? WHERE id = ?", next, id); err != nil {
		return model.Membership{}, err
	}
	return r.GetByID(ctx, id)
}
