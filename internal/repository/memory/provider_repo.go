package memory

import (
	"context"
	"slices"
	"strings"
	"sync"

	"eventservices/internal/domain"

	"github.com/google/uuid"
)

type ProviderRepository struct {
	mu        sync.RWMutex
	providers map[string]domain.Provider
}

var _ domain.ProviderRepository = (*ProviderRepository)(nil)

func NewProviderRepository() *ProviderRepository {
	return &ProviderRepository{providers: make(map[string]domain.Provider)}
}

func cloneProvider(p domain.Provider) *domain.Provider {
	p.AvailabilityWindows = slices.Clone(p.AvailabilityWindows)
	return &p
}

func (r *ProviderRepository) Create(_ context.Context, p *domain.Provider) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	r.providers[p.ID] = *cloneProvider(*p)
	return nil
}

func (r *ProviderRepository) GetByID(_ context.Context, id string) (*domain.Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneProvider(p), nil
}

// List returns providers ordered by name, then id.
func (r *ProviderRepository) List(_ context.Context, category domain.ProviderCategory, page domain.PaginationParams) ([]*domain.Provider, int, error) {
	r.mu.RLock()
	all := make([]*domain.Provider, 0, len(r.providers))
	for _, p := range r.providers {
		if category == "" || p.Category == category {
			all = append(all, cloneProvider(p))
		}
	}
	r.mu.RUnlock()

	slices.SortFunc(all, func(a, b *domain.Provider) int {
		if c := strings.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	start, end := page.Window(len(all))
	return all[start:end], len(all), nil
}
