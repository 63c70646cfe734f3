package domain

import (
	"errors"
	"strings"
)

// Package is a travel package card as sourced from the catalog.
type Package struct {
	ID          string `db:"id" json:"id"`
	Destination string `db:"destination" json:"destination"`
	Price       string `db:"price" json:"price"`
	Image       string `db:"image_url" json:"image"`
	Description string `db:"description" json:"description"`
}

func (p Package) Valid() bool {
	return strings.TrimSpace(p.ID) != ""
}

// PackageIndex returns the position of the package with the given id, or -1.
func PackageIndex(items []Package, id string) int {
	for i, item := range items {
		if item.ID == id {
			return i
		}
	}
	return -1
}

var ErrPackageNotFound = errors.New("package not found")
