package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/ihacademy/academy-server/internal/model"
)

// ErrPaymentNotFound is returned when a payment lookup misses.
var ErrPaymentNotFound = errors.New("payment not found")

// PaymentRepo stores gateway payment records.  Writes happen inside the
// transaction that flips the booking status, so the two always commit
// together.
type PaymentRepo struct {
	db *sql.DB
}

// NewPaymentRepo returns a PaymentRepo bound to the given database.
func NewPaymentRepo(db *sql.DB) *PaymentRepo { return &PaymentRepo{db: db} }

const paymentCols = `id, booking_id, amount_cents, currency, status,
	gateway_payment_id, gateway_data, processed_at, created_at`

// CreateTx inserts a payment record inside an open transaction.
func (r *PaymentRepo) CreateTx(ctx context.Context, tx *sql.Tx, p *model.Payment) error {
	return insertPaymentTx(ctx, tx, p)
}

// insertPaymentTx is shared with the booking confirmation path, which
// writes the payment inside the same transaction that flips the booking
// status.
func insertPaymentTx(ctx context.Context, tx *sql.Tx, p *model.Payment) error {
	const q = `INSERT INTO payments
		(booking_id, amount_cents, currency, status, gateway_payment_id, gateway_data, processed_at)
		VALUES (?,?,?,?,?,?,?)`
	res, err := tx.ExecContext(ctx, q,
		p.BookingID, p.AmountCents, p.Currency, p.Status,
		p.GatewayPaymentID, p.GatewayData, p.ProcessedAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	return nil
}

// GetByID returns a payment or ErrPaymentNotFound.
func (r *PaymentRepo) GetByID(ctx context.Context, id uint64) (model.Payment, error) {
	var p model.Payment
	err := r.db.QueryRowContext(ctx,
		`SELECT `+paymentCols+` FROM payments WHERE id = ?`, id).Scan(
		&p.ID, &p.BookingID, &p.AmountCents, &p.Currency, &p.Status,
		&p.GatewayPaymentID, &p.GatewayData, &p.ProcessedAt, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Payment{}, ErrPaymentNotFound
	}
	return p, err
}

// ListByBooking returns the payments recorded against a booking, oldest
// first.
func (r *PaymentRepo) ListByBooking(ctx context.Context, bookingID uint64) ([]model.Payment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+paymentCols+` FROM payments WHERE booking_id = ? ORDER BY created_at`, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Payment, 0)
	for rows.Next() {
		var p model.Payment
		if err := rows.Scan(
			&p.ID, &p.BookingID, &p.AmountCents, &p.Currency, &p.Status,
			&p.GatewayPaymentID, &p.GatewayData, &p.ProcessedAt, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
