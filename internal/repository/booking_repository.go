package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/ihacademy/academy-server/internal/model"
)

// ErrBookingNotFound is returned when a booking lookup misses.
var ErrBookingNotFound = errors.New("booking not found")

// BookingRepo stores bookings.  Capacity is enforced here rather than in
// the handler: the insert only succeeds when the class still has a free
// spot at the moment the row is written, so two concurrent requests for
// the last spot cannot both succeed.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

// DB exposes the underlying handle so the service layer can compose
// transactions across repositories.
func (r *BookingRepo) DB() *sql.DB { return r.db }

const bookingCols = `id, class_id, participant_name, participant_email,
	participant_phone, participant_age, booking_date, payment_status,
	payment_method, amount_cents, payment_ref, notes, created_at, updated_at`

func scanBooking(sc interface {
	Scan(dest ...interface{}) error
}) (model.Booking, error) {
	var b model.Booking
	err := sc.Scan(
		&b.ID, &b.ClassID, &b.ParticipantName, &b.ParticipantEmail,
		&b.ParticipantPhone, &b.ParticipantAge, &b.BookingDate, &b.PaymentStatus,
		&b.PaymentMethod, &b.AmountCents, &b.PaymentRef, &b.Notes,
		&b.CreatedAt, &b.UpdatedAt,
	)
	return b, err
}

// CreateWithCapacityCheck inserts a booking only if the class still has
// room.  The spot check and the insert happen in a single statement: the
// INSERT ... SELECT produces zero rows when the class is full or does not
// exist, which InnoDB evaluates with the row locks of the counted
// bookings held, closing the race between check and write.  Returns
// ErrClassFull when no row was written but the class exists, and
// ErrClassNotFound when the class itself is missing.
func (r *BookingRepo) CreateWithCapacityCheck(ctx context.Context, b *model.Booking) error {
	const q = `INSERT INTO bookings
		(class_id, participant_name, participant_email, participant_phone,
		 participant_age, booking_date, payment_status, payment_method,
		 amount_cents, payment_ref, notes)
		SELECT c.id, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?
		FROM classes c
		WHERE c.id = ?
		  AND (SELECT COUNT(*) FROM bookings x
		       WHERE x.class_id = c.id
		         AND x.payment_status IN ('pending','confirmed')) < c.capacity`
	res, err := r.db.ExecContext(ctx, q,
		b.ParticipantName, b.ParticipantEmail, b.ParticipantPhone,
		b.ParticipantAge, b.BookingDate.UTC(), b.PaymentStatus, b.PaymentMethod,
		b.AmountCents, b.PaymentRef, b.Notes,
		b.ClassID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		var exists int
		if err := r.db.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM classes WHERE id = ?", b.ClassID).Scan(&exists); err != nil {
			return err
		}
		if exists == 0 {
			return ErrClassNotFound
		}
		return ErrClassFull
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	got, err := r.GetByID(ctx, uint64(id))
	if err != nil {
		return err
	}
	*b = got
	return nil
}

// GetByID returns a booking or ErrBookingNotFound.
func (r *BookingRepo) GetByID(ctx context.Context, id uint64) (model.Booking, error) {
	b, err := scanBooking(r.db.QueryRowContext(ctx,
		`SELECT `+bookingCols+` FROM bookings WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Booking{}, ErrBookingNotFound
	}
	return b, err
}

// GetByPaymentRef resolves the booking a payment gateway notification
// refers to.  Returns ErrBookingNotFound on a miss.
func (r *BookingRepo) GetByPaymentRef(ctx context.Context, ref string) (model.Booking, error) {
	b, err := scanBooking(r.db.QueryRowContext(ctx,
		`SELECT `+bookingCols+` FROM bookings WHERE payment_ref = ?`, ref))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Booking{}, ErrBookingNotFound
	}
	return b, err
}

// ListByClass returns all bookings of a class, newest first.
func (r *BookingRepo) ListByClass(ctx context.Context, classID uint64) ([]model.Booking, error) {
	return r.list(ctx,
		`SELECT `+bookingCols+` FROM bookings WHERE class_id = ? ORDER BY created_at DESC`, classID)
}

// ListByEmail returns a participant's bookings across classes.
func (r *BookingRepo) ListByEmail(ctx context.Context, email string) ([]model.Booking, error) {
	return r.list(ctx,
		`SELECT `+bookingCols+` FROM bookings WHERE participant_email = ? ORDER BY created_at DESC`, email)
}

// ListRecent returns the most recent bookings for an organization's
// dashboard, capped at limit.
func (r *BookingRepo) ListRecent(ctx context.Context, orgID uint64, limit int) ([]model.Booking, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	const q = `SELECT b.id, b.class_id, b.participant_name, b.participant_email,
		b.participant_phone, b.participant_age, b.booking_date, b.payment_status,
		b.payment_method, b.amount_cents, b.payment_ref, b.notes, b.created_at, b.updated_at
		FROM bookings b
		JOIN classes c ON c.id = b.class_id
		WHERE c.organization_id = ?
		ORDER BY b.created_at DESC
		LIMIT ?`
	return r.list(ctx, q, orgID, limit)
}

func (r *BookingRepo) list(ctx context.Context, q string, args ...interface{}) ([]model.Booking, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// UpdatePaymentStatusTx sets the payment status of a booking inside an
// open transaction.  Used by the payment confirmation path so the status
// flip and the payment row commit together.
func (r *BookingRepo) UpdatePaymentStatusTx(ctx context.Context, tx *sql.Tx, id uint64, status string) error {
	res, err := tx.ExecContext(ctx,
		"UPDATE bookings SET payment_status = ? WHERE id = ?", status, id)
	if err != nil {
		return err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrBookingNotFound
	}
	return nil
}

// UpdatePaymentStatus is the non-transactional variant used by
// cancellations, which touch a single row.
func (r *BookingRepo) UpdatePaymentStatus(ctx context.Context, id uint64, status string) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE bookings SET payment_status = ? WHERE id = ?", status, id)
	if err != nil {
		return err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrBookingNotFound
	}
	return nil
}

// ConfirmWithPayment flips a booking to confirmed and records the
// gateway payment in one transaction, so a crash between the two writes
// cannot leave a confirmed booking without its payment row.
func (r *BookingRepo) ConfirmWithPayment(ctx context.Context, bookingID uint64, pay *model.Payment) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if _, err := tx.ExecContext(ctx,
		"UPDATE bookings SET payment_status = ? WHERE id = ?",
		model.PaymentConfirmed, bookingID); err != nil {
		return err
	}
	if err := insertPaymentTx(ctx, tx, pay); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// Move reassigns a booking to another class, recounting the target's
// capacity inside the same transaction.
func (r *BookingRepo) Move(ctx context.Context, bookingID, targetClassID uint64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := r.MoveTx(ctx, tx, bookingID, targetClassID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// MoveTx reassigns a booking to another class inside an open
// transaction.  The target class row is locked first and its
// non-cancelled bookings recounted under that lock, so the move obeys
// the same capacity bound as a fresh booking.  Amount and participant
// details travel with the booking unchanged.
func (r *BookingRepo) MoveTx(ctx context.Context, tx *sql.Tx, bookingID, targetClassID uint64) error {
	var capacity uint32
	err := tx.QueryRowContext(ctx,
		"SELECT capacity FROM classes WHERE id = ? FOR UPDATE", targetClassID).Scan(&capacity)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrClassNotFound
	}
	if err != nil {
		return err
	}
	var count uint32
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM bookings
		 WHERE class_id = ? AND payment_status IN ('pending','confirmed') AND id <> ?`,
		targetClassID, bookingID).Scan(&count)
	if err != nil {
		return err
	}
	if count >= capacity {
		return ErrClassFull
	}
	res, err := tx.ExecContext(ctx,
		"UPDATE bookings SET class_id = ? WHERE id = ?", targetClassID, bookingID)
	if err != nil {
		return err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrBookingNotFound
	}
	return nil
}
