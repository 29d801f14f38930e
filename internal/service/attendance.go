package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ihacademy/academy-server/internal/metrics"
	"github.com/ihacademy/academy-server/internal/model"
	"github.com/ihacademy/academy-server/internal/repository"
	"github.com/ihacademy/academy-server/internal/service/ports"
)

// ErrInvalidAttendanceStatus is returned for statuses outside
// pending/present/absent.
var ErrInvalidAttendanceStatus = errors.New("invalid attendance status")

// AttendanceService maintains the per-class attendance sheet.  Every
// non-cancelled booking appears on the sheet; bookings that were never
// marked show as pending without a stored row.
type AttendanceService struct {
	attendance ports.AttendanceStore
	bookings   ports.BookingStore
	logger     *zap.Logger
}

func NewAttendanceService(attendance ports.AttendanceStore, bookings ports.BookingStore, logger *zap.Logger) *AttendanceService {
	return &AttendanceService{attendance: attendance, bookings: bookings, logger: logger}
}

// SheetEntry is one line of the attendance sheet: the booking joined
// with its attendance record, implicit or stored.
type SheetEntry struct {
	Booking    model.Booking    `json:"booking"`
	Attendance model.Attendance `json:"attendance"`
}

// Sheet merges the class roster with the stored attendance rows.
// Cancelled and refunded bookings are excluded since they no longer
// hold a spot.
func (s *AttendanceService) Sheet(ctx context.Context, classID uint64) ([]SheetEntry, error) {
	bookings, err := s.bookings.ListByClass(ctx, classID)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	marked, err := s.attendance.ListByClass(ctx, classID)
	if err != nil {
		return nil, fmt.Errorf("list attendance: %w", err)
	}
	byBooking := make(map[uint64]model.Attendance, len(marked))
	for _, a := range marked {
		byBooking[a.BookingID] = a
	}
	entries := make([]SheetEntry, 0, len(bookings))
	for _, b := range bookings {
		if !model.CountsAgainstCapacity(b.PaymentStatus) {
			continue
		}
		a, ok := byBooking[b.ID]
		if !ok {
			a = model.Attendance{
				ClassID:   classID,
				BookingID: b.ID,
				Status:    model.AttendancePending,
			}
		}
		entries = append(entries, SheetEntry{Booking: b, Attendance: a})
	}
	return entries, nil
}

// Mark records the attendance status for a booking in a class.  The
// booking must belong to the class; repeated marks overwrite the same
// record and the last write wins.  markedBy is the authenticated user
// performing the mark.
func (s *AttendanceService) Mark(ctx context.Context, classID, bookingID uint64, status string, markedBy uint64) (model.Attendance, error) {
	if !model.ValidAttendanceStatus(status) {
		return model.Attendance{}, ErrInvalidAttendanceStatus
	}
	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return model.Attendance{}, err
	}
	if b.ClassID != classID {
		return model.Attendance{}, repository.ErrConflict
	}
	a, err := s.attendance.Mark(ctx, classID, bookingID, status, markedBy, time.Now().UTC())
	if err != nil {
		return model.Attendance{}, fmt.Errorf("mark attendance: %w", err)
	}
	metrics.AttendanceMarked.Inc()
	s.logger.Info("attendance marked",
		zap.Uint64("class_id", classID),
		zap.Uint64("booking_id", bookingID),
		zap.String("status", status),
		zap.Uint64("marked_by", markedBy),
	)
	return a, nil
}

// Update rewrites an existing attendance record by its id.  The record
// must belong to classID; ids from another class report not found so a
// caller authorized for one class cannot touch another's rows.
func (s *AttendanceService) Update(ctx context.Context, classID, attendanceID uint64, status string, markedBy uint64) error {
	if !model.ValidAttendanceStatus(status) {
		return ErrInvalidAttendanceStatus
	}
	if err := s.attendance.UpdateStatus(ctx, classID, attendanceID, status, markedBy, time.Now().UTC()); err != nil {
		return err
	}
	s.logger.Info("attendance updated",
		zap.Uint64("class_id", classID),
		zap.Uint64("attendance_id", attendanceID),
		zap.String("status", status),
		zap.Uint64("marked_by", markedBy),
	)
	return nil
}
