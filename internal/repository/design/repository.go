package design

import (
	"context"

	"storefront/internal/domain"
)

// Repository persists custom design submissions.
type Repository interface {
	Create(ctx context.Context, d domain.DesignSubmission) (*domain.DesignSubmission, error)
	ListRecent(ctx context.Context, limit int) ([]domain.DesignSubmission, error)
}
