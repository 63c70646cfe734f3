// Package catalog serves travel packages from a YAML document.
package catalog

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/ghodss/yaml"

	"github.com/njprem/travelswipe/internal/domain"
	"github.com/njprem/travelswipe/internal/repository/ports"
)

//go:embed packages.yaml
var defaultSeed []byte

type seedDocument struct {
	Packages []domain.Package `json:"packages"`
}

// Static is an in-memory catalog. Order is the order of the seed document.
type Static struct {
	mu       sync.RWMutex
	packages []domain.Package
}

// Default returns the built-in catalog.
func Default() (*Static, error) {
	return Parse(defaultSeed)
}

// Load reads a seed file; an empty path falls back to the built-in catalog.
func Load(path string) (*Static, error) {
	if strings.TrimSpace(path) == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %s: %w", path, err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Static, error) {
	var doc seedDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("catalog: parse seed: %w", err)
	}
	seen := make(map[string]struct{}, len(doc.Packages))
	for i, pkg := range doc.Packages {
		if !pkg.Valid() {
			return nil, fmt.Errorf("catalog: package %d has no id", i)
		}
		if _, dup := seen[pkg.ID]; dup {
			return nil, fmt.Errorf("catalog: duplicate package id %q", pkg.ID)
		}
		seen[pkg.ID] = struct{}{}
	}
	return NewStatic(doc.Packages), nil
}

func NewStatic(packages []domain.Package) *Static {
	return &Static{packages: append([]domain.Package(nil), packages...)}
}

func (s *Static) List(_ context.Context) ([]domain.Package, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Package(nil), s.packages...), nil
}

func (s *Static) FindByID(_ context.Context, id string) (*domain.Package, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx := domain.PackageIndex(s.packages, id)
	if idx < 0 {
		return nil, domain.ErrPackageNotFound
	}
	pkg := s.packages[idx]
	return &pkg, nil
}

func (s *Static) FindByIDs(_ context.Context, ids []string) ([]domain.Package, error) {
	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Package, 0, len(ids))
	for _, pkg := range s.packages {
		if _, ok := want[pkg.ID]; ok {
			out = append(out, pkg)
		}
	}
	return out, nil
}

func (s *Static) UpdateImage(_ context.Context, id, imageURL string) (*domain.Package, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := domain.PackageIndex(s.packages, id)
	if idx < 0 {
		return nil, domain.ErrPackageNotFound
	}
	s.packages[idx].Image = imageURL
	pkg := s.packages[idx]
	return &pkg, nil
}

var _ ports.PackageCatalog = (*Static)(nil)
