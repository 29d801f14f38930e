package utils

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ihacademy/academy-server/internal/model"
)

func TestBookingICal(t *testing.T) {
	loc := "Court 3, Main Hall"
	c := model.Class{
		ID:        7,
		Name:      "Junior Tennis",
		StartTime: time.Date(2025, 6, 14, 9, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2025, 6, 14, 10, 30, 0, 0, time.UTC),
		Location:  &loc,
	}
	b := model.Booking{ID: 42, ParticipantName: "Thandi M"}
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	ics := BookingICal(c, b, now)

	assert.True(t, strings.HasPrefix(ics, "BEGIN:VCALENDAR\r\n"))
	assert.True(t, strings.HasSuffix(ics, "END:VCALENDAR\r\n"))
	assert.Contains(t, ics, "UID:42@academy-server")
	assert.Contains(t, ics, "DTSTAMP:20250601T120000Z")
	assert.Contains(t, ics, "DTSTART:20250614T090000Z")
	assert.Contains(t, ics, "DTEND:20250614T103000Z")
	assert.Contains(t, ics, "SUMMARY:Junior Tennis")
	// comma in the location must be escaped per RFC 5545
	assert.Contains(t, ics, `LOCATION:Court 3\, Main Hall`)
	assert.Contains(t, ics, "STATUS:CONFIRMED")
}

func TestBookingICalDefaults(t *testing.T) {
	c := model.Class{
		Name:      "Swim Squad",
		StartTime: time.Date(2025, 6, 14, 9, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2025, 6, 14, 10, 0, 0, 0, time.UTC),
	}
	ics := BookingICal(c, model.Booking{ID: 1, ParticipantName: "A"}, time.Now())

	assert.Contains(t, ics, "LOCATION:TBA")
	assert.Contains(t, ics, `Requirements: None`)
}

func TestICalEscape(t *testing.T) {
	assert.Equal(t, `a\;b\,c\\d\ne`, icalEscape("a;b,c\\d\ne"))
}
