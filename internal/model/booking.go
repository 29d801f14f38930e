package model

import "time"

// Payment status values for bookings.  The lifecycle is
// pending -> confirmed (payment received) and pending|confirmed ->
// cancelled; refunded is reached from confirmed when a gateway refund is
// processed.  There are no reverse transitions.
const (
	PaymentPending   = "pending"
	PaymentConfirmed = "confirmed"
	PaymentCancelled = "cancelled"
	PaymentRefunded  = "refunded"
)

// Booking is a participant's reservation against a class.  Participants
// are not required to hold accounts, so contact details are captured
// inline.  PaymentRef is the opaque reference handed to the payment
// gateway and is unique per booking.
type Booking struct {
	ID               uint64    `json:"id"`
	ClassID          uint64    `json:"class_id"`
	ParticipantName  string    `json:"participant_name"`
	ParticipantEmail string    `json:"participant_email"`
	ParticipantPhone *string   `json:"participant_phone,omitempty"`
	ParticipantAge   *uint32   `json:"participant_age,omitempty"`
	BookingDate      time.Time `json:"booking_date"`
	PaymentStatus    string    `json:"payment_status"`
	PaymentMethod    string    `json:"payment_method"`
	AmountCents      uint32    `json:"amount_cents"`
	PaymentRef       *string   `json:"payment_ref,omitempty"`
	Notes            *string   `json:"notes,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// CountsAgainstCapacity reports whether a booking in the given payment
// status occupies a spot in its class.  Cancelled and refunded bookings
// release their spot.
func CountsAgainstCapacity(status string) bool {
	return status == PaymentPending || status == PaymentConfirmed
}
