package service

import (
	_ "embed"
	"fmt"
	"os"

	"leadmarket_backend/platform/apperr"

	"gopkg.in/yaml.v3"
)

//go:embed packages.yaml
var defaultPackagesYAML []byte

// Package is a purchasable credit bundle.
type Package struct {
	ID          string `yaml:"id" json:"id"`
	Name        string `yaml:"name" json:"name"`
	Credits     int    `yaml:"credits" json:"credits"`
	PriceCents  int    `yaml:"priceCents" json:"priceCents"`
	Description string `yaml:"description" json:"description,omitempty"`
}

type packagesFile struct {
	Packages []Package `yaml:"packages"`
}

// LoadPackages reads the credit package catalog. When path is empty the
// embedded defaults are used, so a deployment works without extra files.
func LoadPackages(path string) ([]Package, error) {
	raw := defaultPackagesYAML
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read packages file: %w", err)
		}
		raw = data
	}

	var parsed packagesFile
	if err := yaml.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("parse packages: %w", err)
	}
	if len(parsed.Packages) == 0 {
		return nil, fmt.Errorf("no credit packages defined")
	}

	seen := make(map[string]bool, len(parsed.Packages))
	for _, pkg := range parsed.Packages {
		if pkg.ID == "" || pkg.Credits <= 0 || pkg.PriceCents <= 0 {
			return nil, fmt.Errorf("invalid package %q: credits and price must be positive", pkg.ID)
		}
		if seen[pkg.ID] {
			return nil, fmt.Errorf("duplicate package id %q", pkg.ID)
		}
		seen[pkg.ID] = true
	}
	return parsed.Packages, nil
}

// Catalog is an immutable, id-addressable package catalog.
type Catalog struct {
	packages []Package
	byID     map[string]Package
}

func NewCatalog(packages []Package) *Catalog {
	byID := make(map[string]Package, len(packages))
	for _, pkg := range packages {
		byID[pkg.ID] = pkg
	}
	return &Catalog{packages: packages, byID: byID}
}

// All returns the packages in catalog order.
func (c *Catalog) All() []Package {
	return c.packages
}

// Get looks up a package by id.
func (c *Catalog) Get(id string) (Package, error) {
	pkg, ok := c.byID[id]
	if !ok {
		return Package{}, apperr.NotFound("credit package not found").WithCode("PACKAGE_NOT_FOUND")
	}
	return pkg, nil
}
