package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"eventservices/internal/domain"
)

type providerService struct {
	repo domain.ProviderRepository
}

// NewProviderService returns the provider catalog backed by repo.
func NewProviderService(repo domain.ProviderRepository) domain.ProviderService {
	return &providerService{repo: repo}
}

// GetProvider returns ErrNotFound when the provider does not exist.
func (s *providerService) GetProvider(ctx context.Context, id string) (*domain.Provider, error) {
	if id == "" {
		return nil, domain.ErrNotFound
	}
	return s.repo.GetByID(ctx, id)
}

// Create validates and stores a new listing owned by the requester. Admins may
// name another owner.
func (s *providerService) Create(ctx context.Context, requester domain.Requester, p *domain.Provider) error {
	if requester.Role != domain.RoleOrganizer && requester.Role != domain.RoleAdmin {
		return domain.ErrForbidden
	}
	p.Name = strings.TrimSpace(p.Name)
	p.Description = strings.TrimSpace(p.Description)
	switch {
	case !p.Category.Valid():
		return fmt.Errorf("%w: unknown category %q", domain.ErrInvalidInput, p.Category)
	case p.Name == "":
		return fmt.Errorf("%w: name is required", domain.ErrInvalidInput)
	case p.Capacity < 1:
		return fmt.Errorf("%w: capacity must be at least 1", domain.ErrInvalidInput)
	}
	windows, err := domain.NormalizeWindows(p.AvailabilityWindows)
	if err != nil {
		return err
	}
	p.AvailabilityWindows = windows
	if requester.Role != domain.RoleAdmin || p.OwnerID == "" {
		p.OwnerID = requester.UserID
	}
	now := time.Now()
	p.CreatedAt, p.UpdatedAt = now, now
	if err := s.repo.Create(ctx, p); err != nil {
		return fmt.Errorf("create provider: %w", err)
	}
	return nil
}

func (s *providerService) List(ctx context.Context, category domain.ProviderCategory, page domain.PaginationParams) ([]*domain.Provider, int, error) {
	if category != "" && !category.Valid() {
		return nil, 0, fmt.Errorf("%w: unknown category %q", domain.ErrInvalidInput, category)
	}
	providers, total, err := s.repo.List(ctx, category, page)
	if err != nil {
		return nil, 0, fmt.Errorf("list providers: %w", err)
	}
	return providers, total, nil
}
