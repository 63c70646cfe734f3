package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/njprem/travelswipe/internal/domain"
	"github.com/njprem/travelswipe/internal/repository/ports"
)

// PackageRepository reads the catalog from the travel_package table.
type PackageRepository struct {
	db *sqlx.DB
}

func NewPackageRepo(db *sqlx.DB) *PackageRepository {
	return &PackageRepository{db: db}
}

func (r *PackageRepository) List(ctx context.Context) ([]domain.Package, error) {
	const query = `
		SELECT id, destination, price, image_url, description
		FROM travel_package
		ORDER BY position ASC, id ASC
	`
	items := make([]domain.Package, 0)
	if err := r.db.SelectContext(ctx, &items, query); err != nil {
		return nil, fmt.Errorf("list packages: %w", err)
	}
	return items, nil
}

func (r *PackageRepository) FindByID(ctx context.Context, id string) (*domain.Package, error) {
	const query = `
		SELECT id, destination, price, image_url, description
		FROM travel_package
		WHERE id = $1
	`
	var pkg domain.Package
	if err := r.db.GetContext(ctx, &pkg, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrPackageNotFound
		}
		return nil, fmt.Errorf("find package: %w", err)
	}
	return &pkg, nil
}

func (r *PackageRepository) FindByIDs(ctx context.Context, ids []string) ([]domain.Package, error) {
	if len(ids) == 0 {
		return []domain.Package{}, nil
	}
	const query = `
		SELECT id, destination, price, image_url, description
		FROM travel_package
		WHERE id = ANY($1)
		ORDER BY position ASC, id ASC
	`
	items := make([]domain.Package, 0, len(ids))
	if err := r.db.SelectContext(ctx, &items, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("find packages: %w", err)
	}
	return items, nil
}

func (r *PackageRepository) UpdateImage(ctx context.Context, id, imageURL string) (*domain.Package, error) {
	const query = `
		UPDATE travel_package
		SET image_url = $2
		WHERE id = $1
		RETURNING id, destination, price, image_url, description
	`
	var pkg domain.Package
	if err := r.db.GetContext(ctx, &pkg, query, id, imageURL); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrPackageNotFound
		}
		return nil, fmt.Errorf("update package image: %w", err)
	}
	return &pkg, nil
}

var _ ports.PackageCatalog = (*PackageRepository)(nil)
