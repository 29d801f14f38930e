// Package queue defines the message payloads exchanged over the broker
// and the background consumer that drains them.
package queue

// BookingConfirmedEvent is published when a booking's payment is
// confirmed.  It carries enough denormalized context for downstream
// consumers to log or notify without querying the primary database.
type BookingConfirmedEvent struct {
	BookingID        uint64 `json:"booking_id"`
	ClassID          uint64 `json:"class_id"`
	ClassName        string `json:"class_name"`
	OrganizationID   uint64 `json:"organization_id"`
	OrganizationName string `json:"organization_name"`
	ParticipantName  string `json:"participant_name"`
	ParticipantEmail string `json:"participant_email"`
	StartsAt         string `json:"starts_at"`
	EndsAt           string `json:"ends_at"`
	AmountCents      uint32 `json:"amount_cents"`
	ConfirmedAt      string `json:"confirmed_at"`
}
