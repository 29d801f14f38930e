package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/ihacademy/academy-server/internal/queue"
)

// QueuePublisher adapts the broker publisher to the EventPublisher
// port.  Publish errors are already logged inside the queue package and
// deliberately swallowed here so the request path never fails on a down
// broker.
type QueuePublisher struct {
	Logger *zap.Logger
}

func (p *QueuePublisher) BookingConfirmed(ctx context.Context, ev queue.BookingConfirmedEvent) {
	_ = queue.PublishBookingConfirmed(ctx, p.Logger, ev)
}
