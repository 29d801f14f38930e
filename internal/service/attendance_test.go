package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ihacademy/academy-server/internal/model"
	"github.com/ihacademy/academy-server/internal/repository"
)

func TestSheet_MergesRosterWithMarks(t *testing.T) {
	bookings := &mockBookingStore{}
	attendance := &mockAttendanceStore{}
	svc := NewAttendanceService(attendance, bookings, zap.NewNop())

	markedAt := time.Now().UTC()
	markedBy := uint64(3)
	bookings.On("ListByClass", mock.Anything, uint64(5)).Return([]model.Booking{
		{ID: 1, ClassID: 5, PaymentStatus: model.PaymentConfirmed},
		{ID: 2, ClassID: 5, PaymentStatus: model.PaymentPending},
		{ID: 3, ClassID: 5, PaymentStatus: model.PaymentCancelled},
	}, nil)
	attendance.On("ListByClass", mock.Anything, uint64(5)).Return([]model.Attendance{
		{ID: 10, ClassID: 5, BookingID: 1, Status: model.AttendancePresent, MarkedBy: &markedBy, MarkedAt: &markedAt},
	}, nil)

	sheet, err := svc.Sheet(context.Background(), 5)
	require.NoError(t, err)
	// cancelled booking 3 is off the sheet
	require.Len(t, sheet, 2)
	assert.Equal(t, model.AttendancePresent, sheet[0].Attendance.Status)
	assert.Equal(t, model.AttendancePending, sheet[1].Attendance.Status)
	assert.Zero(t, sheet[1].Attendance.ID)
}

func TestMark_UpsertsSingleRecord(t *testing.T) {
	bookings := &mockBookingStore{}
	attendance := &mockAttendanceStore{}
	svc := NewAttendanceService(attendance, bookings, zap.NewNop())

	bookings.On("GetByID", mock.Anything, uint64(2)).Return(
		model.Booking{ID: 2, ClassID: 5, PaymentStatus: model.PaymentConfirmed}, nil)
	attendance.On("Mark", mock.Anything, uint64(5), uint64(2), model.AttendancePresent, uint64(7), mock.Anything).
		Return(model.Attendance{ID: 11, ClassID: 5, BookingID: 2, Status: model.AttendancePresent}, nil)

	a, err := svc.Mark(context.Background(), 5, 2, model.AttendancePresent, 7)
	require.NoError(t, err)
	assert.Equal(t, model.AttendancePresent, a.Status)
	attendance.AssertExpectations(t)
}

func TestMark_InvalidStatus(t *testing.T) {
	svc := NewAttendanceService(&mockAttendanceStore{}, &mockBookingStore{}, zap.NewNop())
	_, err := svc.Mark(context.Background(), 5, 2, "late", 7)
	assert.ErrorIs(t, err, ErrInvalidAttendanceStatus)
}

func TestMark_BookingFromAnotherClass(t *testing.T) {
	bookings := &mockBookingStore{}
	attendance := &mockAttendanceStore{}
	svc := NewAttendanceService(attendance, bookings, zap.NewNop())

	bookings.On("GetByID", mock.Anything, uint64(2)).Return(
		model.Booking{ID: 2, ClassID: 99, PaymentStatus: model.PaymentConfirmed}, nil)

	_, err := svc.Mark(context.Background(), 5, 2, model.AttendanceAbsent, 7)
	assert.ErrorIs(t, err, repository.ErrConflict)
	attendance.AssertNotCalled(t, "Mark",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdate(t *testing.T) {
	attendance := &mockAttendanceStore{}
	svc := NewAttendanceService(attendance, &mockBookingStore{}, zap.NewNop())

	attendance.On("UpdateStatus", mock.Anything, uint64(5), uint64(11), model.AttendanceAbsent, uint64(7), mock.Anything).Return(nil)
	require.NoError(t, svc.Update(context.Background(), 5, 11, model.AttendanceAbsent, 7))

	assert.ErrorIs(t, svc.Update(context.Background(), 5, 11, "nope", 7), ErrInvalidAttendanceStatus)
}

func TestUpdate_RecordOutsideClass(t *testing.T) {
	attendance := &mockAttendanceStore{}
	svc := NewAttendanceService(attendance, &mockBookingStore{}, zap.NewNop())

	// record 77 lives in another class, so the class-scoped store misses
	attendance.On("UpdateStatus", mock.Anything, uint64(5), uint64(77), model.AttendancePresent, uint64(7), mock.Anything).
		Return(repository.ErrAttendanceNotFound)

	err := svc.Update(context.Background(), 5, 77, model.AttendancePresent, 7)
	assert.ErrorIs(t, err, repository.ErrAttendanceNotFound)
	attendance.AssertExpectations(t)
}
