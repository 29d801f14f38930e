// Package ports declares the narrow interfaces the service layer
// depends on.  The repository types satisfy them; tests substitute
// mocks.
package ports

import (
	"context"
	"time"

	"github.com/ihacademy/academy-server/internal/model"
	"github.com/ihacademy/academy-server/internal/queue"
)

type BookingStore interface {
	CreateWithCapacityCheck(ctx context.Context, b *model.Booking) error
	GetByID(ctx context.Context, id uint64) (model.Booking, error)
	GetByPaymentRef(ctx context.Context, ref string) (model.Booking, error)
	ListByClass(ctx context.Context, classID uint64) ([]model.Booking, error)
	ConfirmWithPayment(ctx context.Context, bookingID uint64, pay *model.Payment) error
	UpdatePaymentStatus(ctx context.Context, id uint64, status string) error
	Move(ctx context.Context, bookingID, targetClassID uint64) error
}

type ClassStore interface {
	GetByID(ctx context.Context, id uint64) (model.Class, error)
}

type OrganizationStore interface {
	GetByID(ctx context.Context, id uint64) (model.Organization, error)
}

type AttendanceStore interface {
	ListByClass(ctx context.Context, classID uint64) ([]model.Attendance, error)
	Mark(ctx context.Context, classID, bookingID uint64, status string, markedBy uint64, at time.Time) (model.Attendance, error)
	UpdateStatus(ctx context.Context, classID, id uint64, status string, markedBy uint64, at time.Time) error
}

// EventPublisher pushes domain events to the broker.  Implementations
// must not block the request path on broker failures.
type EventPublisher interface {
	BookingConfirmed(ctx context.Context, ev queue.BookingConfirmedEvent)
}
