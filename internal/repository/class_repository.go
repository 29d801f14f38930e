package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/ihacademy/academy-server/internal/model"
)

// ErrClassNotFound is returned when a class lookup misses. It wraps the
// common case so handlers do not need to compare against sql.ErrNoRows
// for the central entity of the system.
var ErrClassNotFound = errors.New("class not found")

// ClassRepo provides CRUD operations for classes plus the availability
// queries used by listings. Availability counts non-cancelled bookings
// (pending and confirmed) because both occupy a spot until cancelled.
type ClassRepo struct {
	db *sql.DB
}

// NewClassRepo returns a new ClassRepo bound to the given database.
func NewClassRepo(db *sql.DB) *ClassRepo { return &ClassRepo{db: db} }

// DB exposes the underlying handle so handlers can open transactions
// spanning multiple repositories.
func (r *ClassRepo) DB() *sql.DB { return r.db }

const classCols = `id, organization_id, sport_id, coach_id, name, description,
	start_time, end_time, capacity, price_cents, is_recurring,
	recurrence_pattern, location, requirements, created_at, updated_at`

func scanClass(sc interface {
	Scan(dest ...interface{}) error
}) (model.Class, error) {
	var c model.Class
	err := sc.Scan(
		&c.ID, &c.OrganizationID, &c.SportID, &c.CoachID, &c.Name, &c.Description,
		&c.StartTime, &c.EndTime, &c.Capacity, &c.PriceCents, &c.IsRecurring,
		&c.RecurrencePattern, &c.Location, &c.Requirements, &c.CreatedAt, &c.UpdatedAt,
	)
	return c, err
}

// GetByID returns a class or ErrClassNotFound.
func (r *ClassRepo) GetByID(ctx context.Context, id uint64) (model.Class, error) {
	c, err := scanClass(r.db.QueryRowContext(ctx,
		`SELECT `+classCols+` FROM classes WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Class{}, ErrClassNotFound
	}
	return c, err
}

// Create inserts a class and populates the generated ID and timestamps.
// Time-order and capacity invariants are validated by the handler before
// reaching here.
func (r *ClassRepo) Create(ctx context.Context, c *model.Class) error {
	const q = `INSERT INTO classes
		(organization_id, sport_id, coach_id, name, description, start_time,
		 end_time, capacity, price_cents, is_recurring, recurrence_pattern,
		 location, requirements)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`
	res, err := r.db.ExecContext(ctx, q,
		c.OrganizationID, c.SportID, c.CoachID, c.Name, c.Description,
		c.StartTime.UTC(), c.EndTime.UTC(), c.Capacity, c.PriceCents,
		c.IsRecurring, c.RecurrencePattern, c.Location, c.Requirements)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = uint64(id)
	got, err := r.GetByID(ctx, c.ID)
	if err != nil {
		return err
	}
	*c = got
	return nil
}

// Update rewrites the mutable columns of a class.
func (r *ClassRepo) Update(ctx context.Context, c *model.Class) error {
	const q = `UPDATE classes SET sport_id = ?, coach_id = ?, name = ?,
		description = ?, start_time = ?, end_time = ?, capacity = ?,
		price_cents = ?, is_recurring = ?, recurrence_pattern = ?,
		location = ?, requirements = ?
		WHERE id = ?`
	_, err := r.db.ExecContext(ctx, q,
		c.SportID, c.CoachID, c.Name, c.Description,
		c.StartTime.UTC(), c.EndTime.UTC(), c.Capacity, c.PriceCents,
		c.IsRecurring, c.RecurrencePattern, c.Location, c.Requirements, c.ID)
	if err != nil {
		return err
	}
	got, err := r.GetByID(ctx, c.ID)
	if err != nil {
		return err
	}
	*c = got
	return nil
}

// Delete removes a class unless it still has non-cancelled bookings, in
// which case ErrConflict is returned so the handler can answer 409.
func (r *ClassRepo) Delete(ctx context.Context, id uint64) error {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM bookings
		 WHERE class_id = ? AND payment_status IN ('pending','confirmed')`, id).Scan(&n)
	if err != nil {
		return err
	}
	if n > 0 {
		return ErrConflict
	}
	res, err := r.db.ExecContext(ctx, "DELETE FROM classes WHERE id = ?", id)
	if err != nil {
		return err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrClassNotFound
	}
	return nil
}

// listFilter narrows ListWithAvailability. Exactly one of the fields is
// normally set; when none is, all classes are returned.
type ClassFilter struct {
	OrganizationID uint64
	CoachID        uint64
	Date           *time.Time // matches classes starting on this calendar day (UTC)
}

// ListWithAvailability returns classes matching the filter, each
// enriched with the live non-cancelled booking count and the remaining
// spots. The count is computed in the same query via a correlated
// subselect so listings need one round-trip.
func (r *ClassRepo) ListWithAvailability(ctx context.Context, f ClassFilter) ([]model.ClassAvailability, error) {
	q := `SELECT ` + classCols + `,
		(SELECT COUNT(*) FROM bookings b
		 WHERE b.class_id = classes.id
		   AND b.payment_status IN ('pending','confirmed')) AS booking_count
		FROM classes`
	var args []interface{}
	switch {
	case f.OrganizationID != 0:
		q += ` WHERE organization_id = ?`
		args = append(args, f.OrganizationID)
	case f.CoachID != 0:
		q += ` WHERE coach_id = ?`
		args = append(args, f.CoachID)
	case f.Date != nil:
		day := f.Date.UTC().Truncate(24 * time.Hour)
		q += ` WHERE start_time >= ? AND start_time < ?`
		args = append(args, day, day.Add(24*time.Hour))
	}
	q += ` ORDER BY start_time`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.ClassAvailability, 0)
	for rows.Next() {
		var ca model.ClassAvailability
		if err := rows.Scan(
			&ca.ID, &ca.OrganizationID, &ca.SportID, &ca.CoachID, &ca.Name, &ca.Description,
			&ca.StartTime, &ca.EndTime, &ca.Capacity, &ca.PriceCents, &ca.IsRecurring,
			&ca.RecurrencePattern, &ca.Location, &ca.Requirements, &ca.CreatedAt, &ca.UpdatedAt,
			&ca.BookingCount,
		); err != nil {
			return nil, err
		}
		if ca.BookingCount < ca.Capacity {
			ca.AvailableSpots = ca.Capacity - ca.BookingCount
		}
		out = append(out, ca)
	}
	return out, rows.Err()
}

// Availability returns the enriched view for a single class.
func (r *ClassRepo) Availability(ctx context.Context, id uint64) (model.ClassAvailability, error) {
	const q = `SELECT ` + classCols + `,
		(SELECT COUNT(*) FROM bookings b
		 WHERE b.class_id = classes.id
		   AND b.payment_status IN ('pending','confirmed')) AS booking_count
		FROM classes WHERE id = ?`
	var ca model.ClassAvailability
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&ca.ID, &ca.OrganizationID, &ca.SportID, &ca.CoachID, &ca.Name, &ca.Description,
		&ca.StartTime, &ca.EndTime, &ca.Capacity, &ca.PriceCents, &ca.IsRecurring,
		&ca.RecurrencePattern, &ca.Location, &ca.Requirements, &ca.CreatedAt, &ca.UpdatedAt,
		&ca.BookingCount,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return model.ClassAvailability{}, ErrClassNotFound
	}
	if err != nil {
		return model.ClassAvailability{}, err
	}
	if ca.BookingCount < ca.Capacity {
		ca.AvailableSpots = ca.Capacity - ca.BookingCount
	}
	return ca, nil
}
