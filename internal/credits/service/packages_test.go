package service

import (
	"os"
	"path/filepath"
	"testing"

	"leadmarket_backend/platform/apperr"
)

func TestLoadPackagesDefaults(t *testing.T) {
	packages, err := LoadPackages("")
	if err != nil {
		t.Fatalf("load defaults: %v", err)
	}
	if len(packages) != 3 {
		t.Fatalf("expected 3 default packages, got %d", len(packages))
	}

	catalog := NewCatalog(packages)
	basic, err := catalog.Get("basic")
	if err != nil {
		t.Fatalf("get basic: %v", err)
	}
	if basic.Credits != 10 || basic.PriceCents != 2500 {
		t.Fatalf("unexpected basic package: %+v", basic)
	}

	if _, err := catalog.Get("nonexistent"); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found for unknown package, got %v", err)
	}
}

func TestLoadPackagesFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "packages.yaml")
	content := `packages:
  - id: starter
    name: Starter
    credits: 5
    priceCents: 1000
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	packages, err := LoadPackages(path)
	if err != nil {
		t.Fatalf("load from file: %v", err)
	}
	if len(packages) != 1 || packages[0].ID != "starter" {
		t.Fatalf("unexpected packages: %+v", packages)
	}
}

func TestLoadPackagesRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"zero credits": `packages:
  - id: bad
    name: Bad
    credits: 0
    priceCents: 1000
`,
		"duplicate id": `packages:
  - id: dup
    name: One
    credits: 5
    priceCents: 1000
  - id: dup
    name: Two
    credits: 10
    priceCents: 2000
`,
		"empty": `packages: []`,
	}

	for name, content := range cases {
		path := filepath.Join(t.TempDir(), "packages.yaml")
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatalf("write fixture: %v", err)
		}
		if _, err := LoadPackages(path); err == nil {
			t.Errorf("%s: expected an error", name)
		}
	}
}
