package model

import "time"

// Payment records a single gateway transaction against a booking.  The
// raw gateway notification is kept verbatim in GatewayData (JSON) for
// reconciliation.
type Payment struct {
	ID               uint64     `json:"id"`
	BookingID        uint64     `json:"booking_id"`
	AmountCents      uint32     `json:"amount_cents"`
	Currency         string     `json:"currency"`
	Status           string     `json:"status"`
	GatewayPaymentID *string    `json:"gateway_payment_id,omitempty"`
	GatewayData      *string    `json:"gateway_data,omitempty"`
	ProcessedAt      *time.Time `json:"processed_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}
