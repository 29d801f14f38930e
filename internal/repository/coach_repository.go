package repository

import (
	"context"
	"database/sql"

	"github.com/ihacademy/academy-server/internal/model"
)

// CoachRepo provides CRUD operations for coaches. A coach row links a
// user account to an organization; a user may coach for several
// organizations under distinct coach rows.
type CoachRepo struct{ db *sql.DB }

func NewCoachRepo(db *sql.DB) *CoachRepo { return &CoachRepo{db: db} }

const coachCols = "id, user_id, organization_id, specializations, bio, hourly_rate_cents, created_at"

// GetByID returns one coach or sql.ErrNoRows.
func (r *CoachRepo) GetByID(ctx context.Context, id uint64) (model.Coach, error) {
	var c model.Coach
	err := r.db.QueryRowContext(ctx,
		"SELECT "+coachCols+" FROM coaches WHERE id = ?", id).
		Scan(&c.ID, &c.UserID, &c.OrganizationID, &c.Specializations, &c.Bio, &c.HourlyRateCents, &c.CreatedAt)
	return c, err
}

// ListByOrganization returns all coaches for one organization.
func (r *CoachRepo) ListByOrganization(ctx context.Context, orgID uint64) ([]model.Coach, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+coachCols+" FROM coaches WHERE organization_id = ? ORDER BY id", orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	coaches := make([]model.Coach, 0)
	for rows.Next() {
		var c model.Coach
		if err := rows.Scan(&c.ID, &c.UserID, &c.OrganizationID, &c.Specializations, &c.Bio, &c.HourlyRateCents, &c.CreatedAt); err != nil {
			return nil, err
		}
		coaches = append(coaches, c)
	}
	return coaches, rows.Err()
}

// Create inserts a coach row and populates its ID.
func (r *CoachRepo) Create(ctx context.Context, c *model.Coach) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO coaches (user_id, organization_id, specializations, bio, hourly_rate_cents) VALUES (?,?,?,?,?)",
		c.UserID, c.OrganizationID, c.Specializations, c.Bio, c.HourlyRateCents)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = uint64(id)
	return nil
}

// Update rewrites the mutable columns of a coach.
func (r *CoachRepo) Update(ctx context.Context, c *model.Coach) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE coaches SET specializations = ?, bio = ?, hourly_rate_cents = ? WHERE id = ?",
		c.Specializations, c.Bio, c.HourlyRateCents, c.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := r.GetByID(ctx, c.ID); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes a coach. Coaches still assigned to classes are
// protected by the foreign key and surface as ErrConflict.
func (r *CoachRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM coaches WHERE id = ?", id)
	if err != nil {
		return mapFKConflict(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
