package ports

import (
	"context"

	"github.com/njprem/travelswipe/internal/domain"
)

type PackageCatalog interface {
	List(ctx context.Context) ([]domain.Package, error)
	FindByID(ctx context.Context, id string) (*domain.Package, error)
	FindByIDs(ctx context.Context, ids []string) ([]domain.Package, error)
	UpdateImage(ctx context.Context, id, imageURL string) (*domain.Package, error)
}
