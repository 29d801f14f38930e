package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/ihacademy/academy-server/internal/model"
)

// ErrInviteCodeTaken is returned when an organization insert collides
// on the unique invite_code column. Callers regenerate and retry.
var ErrInviteCodeTaken = errors.New("invite code taken")

// OrganizationRepo provides CRUD operations for organizations and the
// user_organizations link table. Organizations are the tenant boundary:
// classes, coaches and memberships all hang off an organization row.
// All timestamp fields are assumed to be stored in UTC.
type OrganizationRepo struct {
	db *sql.DB
}

// NewOrganizationRepo returns a new OrganizationRepo bound to the given database.
func NewOrganizationRepo(db *sql.DB) *OrganizationRepo { return &OrganizationRepo{db: db} }

// DB exposes the underlying handle so handlers can open transactions
// spanning multiple repositories.
func (r *OrganizationRepo) DB() *sql.DB { return r.db }

const orgCols = `id, name, description, address, phone, email, logo, invite_code,
	plan_type, subscription_status, trial_start_date, trial_end_date,
	primary_color, secondary_color, accent_color, is_active, created_at, updated_at`

func scanOrg(sc interface {
	Scan(dest ...interface{}) error
}) (model.Organization, error) {
	var o model.Organization
	err := sc.Scan(
		&o.ID, &o.Name, &o.Description, &o.Address, &o.Phone, &o.Email, &o.Logo,
		&o.InviteCode, &o.PlanType, &o.SubscriptionStatus, &o.TrialStartDate,
		&o.TrialEndDate, &o.PrimaryColor, &o.SecondaryColor, &o.AccentColor,
		&o.IsActive, &o.CreatedAt, &o.UpdatedAt,
	)
	return o, err
}

// CreateTx inserts a new organization within the scope of an existing
// transaction and populates the generated ID and timestamps on the
// provided record. Signup uses the transaction to create the admin user
// and the organization atomically; the caller must commit or rollback.
func (r *OrganizationRepo) CreateTx(ctx context.Context, tx *sql.Tx, o *model.Organization) error {
	const q = `INSERT INTO organizations
		(name, description, address, phone, email, logo, invite_code, plan_type,
		 subscription_status, trial_start_date, trial_end_date,
		 primary_color, secondary_color, accent_color)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?)`
	res, err := tx.ExecContext(ctx, q,
		o.Name, o.Description, o.Address, o.Phone, o.Email, o.Logo,
		o.InviteCode, o.PlanType, o.SubscriptionStatus,
		o.TrialStartDate, o.TrialEndDate,
		o.PrimaryColor, o.SecondaryColor, o.AccentColor,
	)
	if err != nil {
		low := strings.ToLower(err.Error())
		if strings.Contains(low, "1062") && strings.Contains(low, "invite_code") {
			return ErrInviteCodeTaken
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	o.ID = uint64(id)
	const sel = `SELECT ` + orgCols + ` FROM organizations WHERE id = ?`
	got, err := scanOrg(tx.QueryRowContext(ctx, sel, o.ID))
	if err != nil {
		return err
	}
	*o = got
	return nil
}

// GetByID returns a single organization or sql.ErrNoRows.
func (r *OrganizationRepo) GetByID(ctx context.Context, id uint64) (model.Organization, error) {
	return scanOrg(r.db.QueryRowContext(ctx,
		`SELECT `+orgCols+` FROM organizations WHERE id = ?`, id))
}

// GetByInviteCode returns the organization carrying the given invite
// code. Codes are stored uppercase; lookup normalizes the input.
func (r *OrganizationRepo) GetByInviteCode(ctx context.Context, code string) (model.Organization, error) {
	return scanOrg(r.db.QueryRowContext(ctx,
		`SELECT `+orgCols+` FROM organizations WHERE invite_code = ?`,
		strings.ToUpper(strings.TrimSpace(code))))
}

// ListAll returns organizations ordered by name. When includeInactive is
// false, soft-disabled organizations are filtered out (the global admin
// view passes true).
func (r *OrganizationRepo) ListAll(ctx context.Context, includeInactive bool) ([]model.Organization, error) {
	q := `SELECT ` + orgCols + ` FROM organizations`
	if !includeInactive {
		q += ` WHERE is_active = 1`
	}
	q += ` ORDER BY name`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	orgs := make([]model.Organization, 0)
	for rows.Next() {
		o, err := scanOrg(rows)
		if err != nil {
			return nil, err
		}
		orgs = append(orgs, o)
	}
	return orgs, rows.Err()
}

// ListByUser returns the organizations a user has joined, newest first.
func (r *OrganizationRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Organization, error) {
	const q = `SELECT ` + orgCols + ` FROM organizations o
		JOIN user_organizations uo ON uo.organization_id = o.id
		WHERE uo.user_id = ? AND uo.is_active = 1
		ORDER BY uo.created_at DESC`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	orgs := make([]model.Organization, 0)
	for rows.Next() {
		o, err := scanOrg(rows)
		if err != nil {
			return nil, err
		}
		orgs = append(orgs, o)
	}
	return orgs, rows.Err()
}

// Update applies a partial update built from the non-nil fields of the
// patch map. Returns sql.ErrNoRows when the organization does not
// exist. Allowed columns are fixed; callers cannot inject arbitrary
// column names.
func (r *OrganizationRepo) Update(ctx context.Context, id uint64, patch map[string]interface{}) (model.Organization, error) {
	allowed := map[string]bool{
		"name": true, "description": true, "address": true, "phone": true,
		"email": true, "logo": true, "plan_type": true,
		"subscription_status": true, "primary_color": true,
		"secondary_color": true, "accent_color": true, "is_active": true,
	}
	sets := make([]string, 0, len(patch))
	args := make([]interface{}, 0, len(patch)+1)
	for col, v := range patch {
		if !allowed[col] {
			continue
		}
		sets = append(sets, col+" = ?")
		args = append(args, v)
	}
	if len(sets) == 0 {
		return r.GetByID(ctx, id)
	}
	args = append(args, id)
	res, err := r.db.ExecContext(ctx,
		"UPDATE organizations SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return model.Organization{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// Either missing or a no-op update; disambiguate with a read.
		if _, err := r.GetByID(ctx, id); err != nil {
			return model.Organization{}, err
		}
	}
	return r.GetByID(ctx, id)
}

// Delete hard-deletes an organization. Dependent rows cascade via
// foreign keys. Only the global admin endpoint reaches this.
func (r *OrganizationRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM organizations WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// AddMember links a user to an organization with the given org-scoped
// role. Re-joining an organization the user already belongs to returns
// ErrConflict via the unique (user_id, organization_id) key.
func (r *OrganizationRepo) AddMember(ctx context.Context, userID, orgID uint64, role string) (model.UserOrganization, error) {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO user_organizations (user_id, organization_id, role) VALUES (?,?,?)",
		userID, orgID, role)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return model.UserOrganization{}, ErrConflict
		}
		return model.UserOrganization{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.UserOrganization{}, err
	}
	var uo model.UserOrganization
	err = r.db.QueryRowContext(ctx,
		"SELECT id, user_id, organization_id, role, is_active, created_at FROM user_organizations WHERE id = ?",
		id).Scan(&uo.ID, &uo.UserID, &uo.OrganizationID, &uo.Role, &uo.IsActive, &uo.CreatedAt)
	return uo, err
}

// AddMemberTx is AddMember scoped to an existing transaction; signup uses
// it to attach the creating user as admin of their new organization.
func (r *OrganizationRepo) AddMemberTx(ctx context.Context, tx *sql.Tx, userID, orgID uint64, role string) error {
	_, err := tx.ExecContext(ctx,
		"INSERT INTO user_organizations (user_id, organization_id, role) VALUES (?,?,?)",
		userID, orgID, role)
	return err
}

// RemoveMember unlinks a user from an organization.
func (r *OrganizationRepo) RemoveMember(ctx context.Context, userID, orgID uint64) error {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM user_organizations WHERE user_id = ? AND organization_id = ?",
		userID, orgID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Memberships returns the link rows for a user, used to answer "is this
// user an admin of org X" authorization questions.
func (r *OrganizationRepo) Memberships(ctx context.Context, userID uint64) ([]model.UserOrganization, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, user_id, organization_id, role, is_active, created_at FROM user_organizations WHERE user_id = ?",
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := make([]model.UserOrganization, 0)
	for rows.Next() {
		var uo model.UserOrganization
		if err := rows.Scan(&uo.ID, &uo.UserID, &uo.OrganizationID, &uo.Role, &uo.IsActive, &uo.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, uo)
	}
	return list, rows.Err()
}

// IsAdmin reports whether the user carries the admin role inside the
// given organization.
func (r *OrganizationRepo) IsAdmin(ctx context.Context, userID, orgID uint64) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM user_organizations
		 WHERE user_id = ? AND organization_id = ? AND role = 'admin' AND is_active = 1`,
		userID, orgID).Scan(&n)
	return n > 0, err
}

// TrialStatus computes the free-trial state for an organization from its
// stored dates. Days remaining are rounded up so a trial ending later
// today still reports one day left.
func (r *OrganizationRepo) TrialStatus(ctx context.Context, orgID uint64, now time.Time) (model.TrialStatus, error) {
	o, err := r.GetByID(ctx, orgID)
	if err != nil {
		return model.TrialStatus{}, err
	}
	st := model.TrialStatus{
		SubscriptionStatus: o.SubscriptionStatus,
		TrialEndDate:       o.TrialEndDate,
	}
	if o.SubscriptionStatus != model.SubscriptionTrial || o.TrialEndDate == nil {
		return st, nil
	}
	remaining := o.TrialEndDate.Sub(now)
	if remaining <= 0 {
		st.Expired = true
		return st, nil
	}
	st.DaysRemaining = int((remaining + 24*time.Hour - time.Nanosecond) / (24 * time.Hour))
	return st, nil
}
