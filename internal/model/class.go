package model

import "time"

// Class represents a scheduled session run by a coach for an
// organization.  Capacity bounds the number of non-cancelled bookings the
// class may hold; the bound is enforced in the booking repository, not
// here.
//
// Invariants: StartTime < EndTime and Capacity >= 0 (validated on create
// and update).
//
// Fields:
//
//	ID                – primary key identifier.
//	OrganizationID    – owning tenant.
//	SportID           – sport being taught.
//	CoachID           – primary coach running the class.
//	StartTime         – when the class begins.
//	EndTime           – when the class ends (must be after StartTime).
//	Capacity          – maximum concurrent non-cancelled bookings.
//	PriceCents        – price per booking in cents.
//	IsRecurring       – whether the class repeats.
//	RecurrencePattern – weekly, daily, ... (nullable; only when recurring).
type Class struct {
	ID                uint64    `json:"id"`
	OrganizationID    uint64    `json:"organization_id"`
	SportID           uint64    `json:"sport_id"`
	CoachID           uint64    `json:"coach_id"`
	Name              string    `json:"name"`
	Description       *string   `json:"description,omitempty"`
	StartTime         time.Time `json:"start_time"`
	EndTime           time.Time `json:"end_time"`
	Capacity          uint32    `json:"capacity"`
	PriceCents        uint32    `json:"price_cents"`
	IsRecurring       bool      `json:"is_recurring"`
	RecurrencePattern *string   `json:"recurrence_pattern,omitempty"`
	Location          *string   `json:"location,omitempty"`
	Requirements      *string   `json:"requirements,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// ClassAvailability is a Class enriched with live booking counts for
// listings.  AvailableSpots is Capacity minus confirmed bookings, floored
// at zero.
type ClassAvailability struct {
	Class
	BookingCount   uint32 `json:"booking_count"`
	AvailableSpots uint32 `json:"available_spots"`
}
