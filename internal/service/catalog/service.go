package catalog

import (
	"context"
	"strings"

	"storefront/internal/domain"
)

type productRemote interface {
	FetchProductByID(ctx context.Context, id string) (domain.Product, error)
	FetchProductByHandle(ctx context.Context, handle string) (domain.Product, error)
	FetchProductsPaged(ctx context.Context, pageSize int, after string) (domain.ProductPage, error)
}

// Service exposes single-product lookups and live listing pages.
type Service struct {
	remote productRemote
}

func New(remote productRemote) *Service {
	return &Service{remote: remote}
}

// List returns one listing page. pageSize is clamped to [1, PageSize].
func (s *Service) List(ctx context.Context, pageSize int, after string) (domain.ProductPage, error) {
	if pageSize <= 0 || pageSize > PageSize {
		pageSize = PageSize
	}
	return s.remote.FetchProductsPaged(ctx, pageSize, strings.TrimSpace(after))
}

func (s *Service) GetByHandle(ctx context.Context, handle string) (domain.Product, error) {
	handle = strings.TrimSpace(handle)
	if handle == "" {
		return domain.Product{}, domain.ErrProductNotFound
	}
	return s.remote.FetchProductByHandle(ctx, handle)
}

func (s *Service) GetByID(ctx context.Context, id string) (domain.Product, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Product{}, domain.ErrProductNotFound
	}
	return s.remote.FetchProductByID(ctx, id)
}
