package utils

import (
	"fmt"
	"strings"
	"time"

	"github.com/ihacademy/academy-server/internal/model"
)

// icalTime renders a time in the basic UTC format calendars expect,
// e.g. 20250131T090000Z.
func icalTime(t time.Time) string {
	return t.UTC().Format("20060102T150405Z")
}

// icalEscape backslash-escapes the characters RFC 5545 treats as
// special inside text values.
func icalEscape(s string) string {
	r := strings.NewReplacer(`\`, `\\`, ";", `\;`, ",", `\,`, "\n", `\n`)
	return r.Replace(s)
}

// BookingICal renders a single-event VCALENDAR document for a confirmed
// booking, suitable for download or as an email attachment.
func BookingICal(c model.Class, b model.Booking, now time.Time) string {
	location := "TBA"
	if c.Location != nil && *c.Location != "" {
		location = *c.Location
	}
	requirements := "None"
	if c.Requirements != nil && *c.Requirements != "" {
		requirements = *c.Requirements
	}
	description := fmt.Sprintf("Sports class booking for %s\nLocation: %s\nRequirements: %s",
		b.ParticipantName, location, requirements)
	lines := []string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//Academy Server//EN",
		"BEGIN:VEVENT",
		fmt.Sprintf("UID:%d@academy-server", b.ID),
		"DTSTAMP:" + icalTime(now),
		"DTSTART:" + icalTime(c.StartTime),
		"DTEND:" + icalTime(c.EndTime),
		"SUMMARY:" + icalEscape(c.Name),
		"DESCRIPTION:" + icalEscape(description),
		"LOCATION:" + icalEscape(location),
		"STATUS:CONFIRMED",
		"END:VEVENT",
		"END:VCALENDAR",
	}
	return strings.Join(lines, "\r\n") + "\r\n"
}
