package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/ihacademy/academy-server/internal/model"
)

// ErrAttendanceNotFound is returned when an attendance record lookup
// misses.
var ErrAttendanceNotFound = errors.New("attendance record not found")

// AttendanceRepo stores per-booking attendance records.  The table keys
// on (class_id, booking_id), so marking is an upsert: repeated marks for
// the same booking overwrite the single existing row and the last writer
// wins.
type AttendanceRepo struct {
	db *sql.DB
}

// NewAttendanceRepo returns an AttendanceRepo bound to the given
// database.
func NewAttendanceRepo(db *sql.DB) *AttendanceRepo { return &AttendanceRepo{db: db} }

// ListByClass returns the attendance rows recorded for a class.
// Bookings never marked have no row here; the service layer merges this
// list with the booking roster to present implicit pending records.
func (r *AttendanceRepo) ListByClass(ctx context.Context, classID uint64) ([]model.Attendance, error) {
	const q = `SELECT id, class_id, booking_id, status, marked_by, marked_at
		FROM attendance WHERE class_id = ?`
	rows, err := r.db.QueryContext(ctx, q, classID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Attendance, 0)
	for rows.Next() {
		var a model.Attendance
		if err := rows.Scan(&a.ID, &a.ClassID, &a.BookingID, &a.Status, &a.MarkedBy, &a.MarkedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Get returns the attendance row for a booking in a class, or
// ErrAttendanceNotFound if the booking was never marked.
func (r *AttendanceRepo) Get(ctx context.Context, classID, bookingID uint64) (model.Attendance, error) {
	const q = `SELECT id, class_id, booking_id, status, marked_by, marked_at
		FROM attendance WHERE class_id = ? AND booking_id = ?`
	var a model.Attendance
	err := r.db.QueryRowContext(ctx, q, classID, bookingID).Scan(
		&a.ID, &a.ClassID, &a.BookingID, &a.Status, &a.MarkedBy, &a.MarkedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Attendance{}, ErrAttendanceNotFound
	}
	return a, err
}

// Mark records the attendance status for a booking, creating the row on
// first mark and overwriting it afterwards.  markedBy identifies the
// authenticated coach or admin performing the mark.
func (r *AttendanceRepo) Mark(ctx context.Context, classID, bookingID uint64, status string, markedBy uint64, at time.Time) (model.Attendance, error) {
	const q = `INSERT INTO attendance (class_id, booking_id, status, marked_by, marked_at)
		VALUES (?,?,?,?,?)
		ON DUPLICATE KEY UPDATE
			status = VALUES(status),
			marked_by = VALUES(marked_by),
			marked_at = VALUES(marked_at)`
	if _, err := r.db.ExecContext(ctx, q, classID, bookingID, status, markedBy, at.UTC()); err != nil {
		return model.Attendance{}, err
	}
	return r.Get(ctx, classID, bookingID)
}

// UpdateStatus rewrites the status of an existing attendance row,
// refreshing the marker audit fields.  The row must belong to classID;
// ids from other classes miss and return ErrAttendanceNotFound.
func (r *AttendanceRepo) UpdateStatus(ctx context.Context, classID, id uint64, status string, markedBy uint64, at time.Time) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE attendance SET status = ?, marked_by = ?, marked_at = ? WHERE id = ? AND class_id = ?",
		status, markedBy, at.UTC(), id, classID)
	if err != nil {
		return err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		// MySQL reports zero rows for a no-change update, so distinguish
		// "missing" from "already set".
		var one int
		err := r.db.QueryRowContext(ctx,
			"SELECT 1 FROM attendance WHERE id = ? AND class_id = ?", id, classID).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrAttendanceNotFound
		}
		return err
	}
	return nil
}
