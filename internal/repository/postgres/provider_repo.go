package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"eventservices/internal/domain"

	"github.com/lib/pq"
)

type providerRepository struct {
	DB *sql.DB
}

func NewProviderRepository(db *sql.DB) domain.ProviderRepository {
	return &providerRepository{DB: db}
}

func nullIfEmpty(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func (r *providerRepository) Create(ctx context.Context, p *domain.Provider) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO providers (category, name, description, owner_id, capacity, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	if err := tx.QueryRowContext(ctx, query, p.Category, p.Name, p.Description, nullIfEmpty(p.OwnerID), p.Capacity, p.CreatedAt, p.UpdatedAt).Scan(&p.ID); err != nil {
		if pqCode(err) == codeForeignKeyViolation {
			return fmt.Errorf("%w: owner does not exist", domain.ErrInvalidInput)
		}
		return fmt.Errorf("insert provider: %w", err)
	}
	for _, w := range p.AvailabilityWindows {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO provider_availability_windows (provider_id, starts_at, ends_at) VALUES ($1, $2, $3)`,
			p.ID, w.Start, w.End,
		); err != nil {
			return fmt.Errorf("insert availability window: %w", err)
		}
	}
	return tx.Commit()
}

func (r *providerRepository) GetByID(ctx context.Context, id string) (*domain.Provider, error) {
	query := `
		SELECT id, category, name, description, owner_id, capacity, created_at, updated_at
		FROM providers
		WHERE id = $1
	`
	p, err := scanProvider(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || isBadID(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	windows, err := r.windowsByProvider(ctx, []string{p.ID})
	if err != nil {
		return nil, err
	}
	p.AvailabilityWindows = windows[p.ID]
	if p.AvailabilityWindows == nil {
		p.AvailabilityWindows = []domain.Slot{}
	}
	return p, nil
}

func (r *providerRepository) List(ctx context.Context, category domain.ProviderCategory, page domain.PaginationParams) ([]*domain.Provider, int, error) {
	var total int
	if err := r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM providers WHERE ($1 = '' OR category = $1)`, category,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT id, category, name, description, owner_id, capacity, created_at, updated_at
		FROM providers
		WHERE ($1 = '' OR category = $1)
		ORDER BY name, id
		LIMIT $2 OFFSET $3
	`
	rows, err := r.DB.QueryContext(ctx, query, category, page.PageSize, page.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	providers := []*domain.Provider{}
	var ids []string
	for rows.Next() {
		p, err := scanProvider(rows)
		if err != nil {
			return nil, 0, err
		}
		providers = append(providers, p)
		ids = append(ids, p.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	if len(ids) == 0 {
		return providers, total, nil
	}

	windows, err := r.windowsByProvider(ctx, ids)
	if err != nil {
		return nil, 0, err
	}
	for _, p := range providers {
		p.AvailabilityWindows = windows[p.ID]
		if p.AvailabilityWindows == nil {
			p.AvailabilityWindows = []domain.Slot{}
		}
	}
	return providers, total, nil
}

func scanProvider(row interface{ Scan(...any) error }) (*domain.Provider, error) {
	p := &domain.Provider{}
	var owner sql.NullString
	if err := row.Scan(&p.ID, &p.Category, &p.Name, &p.Description, &owner, &p.Capacity, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.OwnerID = owner.String
	return p, nil
}

func (r *providerRepository) windowsByProvider(ctx context.Context, providerIDs []string) (map[string][]domain.Slot, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT provider_id, starts_at, ends_at
		FROM provider_availability_windows
		WHERE provider_id = ANY($1)
		ORDER BY provider_id, starts_at
	`, pq.Array(providerIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string][]domain.Slot)
	for rows.Next() {
		var providerID string
		var w domain.Slot
		if err := rows.Scan(&providerID, &w.Start, &w.End); err != nil {
			return nil, err
		}
		out[providerID] = append(out[providerID], w)
	}
	return out, rows.Err()
}
