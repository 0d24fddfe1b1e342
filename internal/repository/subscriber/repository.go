package subscriber

import (
	"context"
	"time"

	"storefront/internal/domain"
)

// Repository persists newsletter subscribers.
type Repository interface {
	Create(ctx context.Context, s domain.Subscriber) (*domain.Subscriber, error)
	GetByEmail(ctx context.Context, email string) (*domain.Subscriber, error)
	// MarkWelcomeSent sets welcome_sent_at if it is still unset and reports
	// whether this call set it.
	MarkWelcomeSent(ctx context.Context, email string, at time.Time) (bool, error)
	// ClearWelcomeSent unsets the marker, used when delivery fails after marking.
	ClearWelcomeSent(ctx context.Context, email string) error
}
