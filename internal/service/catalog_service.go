package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/njprem/travelswipe/internal/domain"
	"github.com/njprem/travelswipe/internal/media"
	"github.com/njprem/travelswipe/internal/repository/ports"
)

var ErrImageStorageDisabled = errors.New("package image storage is not configured")

const defaultPackageImageMaxBytes = 5 * 1024 * 1024

type CatalogServiceConfig struct {
	ImageMaxBytes     int64
	ImageMaxDimension int
}

type CatalogService struct {
	catalog ports.PackageCatalog
	storage ports.ObjectStorage
	cfg     CatalogServiceConfig
}

// NewCatalogService wires the package catalog. storage may be nil, which
// disables image uploads.
func NewCatalogService(catalog ports.PackageCatalog, storage ports.ObjectStorage, cfg CatalogServiceConfig) *CatalogService {
	if cfg.ImageMaxBytes <= 0 {
		cfg.ImageMaxBytes = defaultPackageImageMaxBytes
	}
	if cfg.ImageMaxDimension <= 0 {
		cfg.ImageMaxDimension = media.DefaultMaxDimension
	}
	return &CatalogService{catalog: catalog, storage: storage, cfg: cfg}
}

func (s *CatalogService) List(ctx context.Context) ([]domain.Package, error) {
	return s.catalog.List(ctx)
}

func (s *CatalogService) Get(ctx context.Context, id string) (*domain.Package, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, domain.ValidationError("no package id provided")
	}
	return s.catalog.FindByID(ctx, id)
}

// UploadImage stores a new card image for the package and points the catalog at it.
func (s *CatalogService) UploadImage(ctx context.Context, id string, upload media.Upload) (*domain.Package, error) {
	if s.storage == nil {
		return nil, ErrImageStorageDisabled
	}
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}

	reader, size, contentType, err := prepareImageForUpload(upload, s.cfg.ImageMaxBytes, s.cfg.ImageMaxDimension)
	if err != nil {
		return nil, err
	}

	objectName := "packages/" + strings.TrimSpace(id) + "/" + uuid.NewString() + media.Extension(contentType)
	url, err := s.storage.Upload(ctx, objectName, contentType, reader, size)
	if err != nil {
		return nil, err
	}
	return s.catalog.UpdateImage(ctx, strings.TrimSpace(id), url)
}

// Hydrate fills in catalog data for liked items that carry no snapshot.
func (s *CatalogService) Hydrate(ctx context.Context, set *domain.LikedSet) error {
	var missing []string
	for _, item := range set.Items {
		if item.Package == nil {
			missing = append(missing, item.PackageID)
		}
	}
	if len(missing) == 0 {
		return nil
	}

	found, err := s.catalog.FindByIDs(ctx, missing)
	if err != nil {
		return err
	}
	for i := range set.Items {
		if set.Items[i].Package != nil {
			continue
		}
		if idx := domain.PackageIndex(found, set.Items[i].PackageID); idx >= 0 {
			pkg := found[idx]
			set.Items[i].Package = &pkg
		}
	}
	return nil
}
