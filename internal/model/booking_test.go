package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCountsAgainstCapacity(t *testing.T) {
	assert.True(t, CountsAgainstCapacity(PaymentPending))
	assert.True(t, CountsAgainstCapacity(PaymentConfirmed))
	assert.False(t, CountsAgainstCapacity(PaymentCancelled))
	assert.False(t, CountsAgainstCapacity(PaymentRefunded))
	assert.False(t, CountsAgainstCapacity(""))
}

func TestValidAttendanceStatus(t *testing.T) {
	assert.True(t, ValidAttendanceStatus(AttendancePending))
	assert.True(t, ValidAttendanceStatus(AttendancePresent))
	assert.True(t, ValidAttendanceStatus(AttendanceAbsent))
	assert.False(t, ValidAttendanceStatus("late"))
	assert.False(t, ValidAttendanceStatus(""))
}
