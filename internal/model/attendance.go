package model

import "time"

// Attendance status values.  A record starts as pending and is toggled to
// present or absent by a coach.  Re-marking overwrites the same row; the
// (class_id, booking_id) pair is unique so no history accumulates.
const (
	AttendancePending = "pending"
	AttendancePresent = "present"
	AttendanceAbsent  = "absent"
)

// Attendance is the per-session presence record tied to a booking.
// MarkedBy holds the id of the coach or admin who last touched the
// record and MarkedAt when they did; both are nil until first marked.
type Attendance struct {
	ID        uint64     `json:"id"`
	ClassID   uint64     `json:"class_id"`
	BookingID uint64     `json:"booking_id"`
	Status    string     `json:"status"`
	MarkedBy  *uint64    `json:"marked_by,omitempty"`
	MarkedAt  *time.Time `json:"marked_at,omitempty"`
}

// ValidAttendanceStatus reports whether s is one of the recognised
// attendance states.
func ValidAttendanceStatus(s string) bool {
	switch s {
	case AttendancePending, AttendancePresent, AttendanceAbsent:
		return true
	}
	return false
}
