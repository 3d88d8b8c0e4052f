package booking

import (
	"context"

	"culturin/internal/domain"
	"culturin/internal/modules/notification"
)

// Catalog supplies bookable items. A missing item is reported with an error
// wrapping repository.ErrNotFound.
type Catalog interface {
	GetBookableItem(ctx context.Context, id string) (*domain.Experience, error)
}

// BookingStore durably records confirmed bookings.
type BookingStore interface {
	Create(ctx context.Context, b *domain.Booking) error
	GetByReference(ctx context.Context, reference string) (*domain.Booking, error)
}

// Pusher delivers toasts to clients watching a session.
type Pusher interface {
	Notifier(topic string) notification.Notifier
	CloseTopic(topic string)
}
