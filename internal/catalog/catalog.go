package catalog

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	pkgerrors "github.com/attirely/storefront-backend/pkg/errors"
)

// Catalog is the read-only product lookup the engine consumes. The real
// catalog service lives outside this engine; handlers resolve snapshots
// through this port before mutating the cart.
type Catalog interface {
	Product(ctx context.Context, id uuid.UUID) (Product, error)
}

// Memory is an in-process catalog seeded with fixture products.
type Memory struct {
	mu       sync.RWMutex
	products map[uuid.UUID]Product
}

// NewMemory builds a catalog holding the provided products.
func NewMemory(products ...Product) *Memory {
	byID := make(map[uuid.UUID]Product, len(products))
	for _, product := range products {
		byID[product.ID] = product
	}
	return &Memory{products: byID}
}

// Product returns the snapshot for the given id, or not-found.
func (m *Memory) Product(ctx context.Context, id uuid.UUID) (Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	product, ok := m.products[id]
	if !ok {
		return Product{}, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return product, nil
}

// Upsert replaces the stored snapshot; used by fixtures and tests.
func (m *Memory) Upsert(product Product) {
	m.mu.Lock()
	m.products[product.ID] = product
	m.mu.Unlock()
}

// List returns every product in the catalog.
func (m *Memory) List(ctx context.Context) []Product {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Product, 0, len(m.products))
	for _, product := range m.products {
		out = append(out, product)
	}
	return out
}

// Fixtures returns the demo storefront assortment used by cmd/api.
func Fixtures() []Product {
	return []Product{
		{
			ID:    uuid.MustParse("0b94f1b2-7cb2-4f0e-9a76-1f1d40a1c101"),
			Name:  "Crewneck Tee",
			Brand: "Attirely Basics",
			Price: decimal.RequireFromString("24.00"),
			Stock: 120,
			Sizes: []SizeOption{
				{Size: "S", Price: decimal.RequireFromString("24.00"), Stock: 40},
				{Size: "M", Price: decimal.RequireFromString("24.00"), Stock: 50},
				{Size: "L", Price: decimal.RequireFromString("26.00"), Stock: 30},
			},
		},
		{
			ID:              uuid.MustParse("5f3c2a88-9a41-4e6d-8a0e-6d8a1c2b3d02"),
			Name:            "Field Jacket",
			Brand:           "Northgate",
			Price:           decimal.RequireFromString("149.00"),
			DiscountPercent: 20,
			Stock:           18,
		},
		{
			ID:    uuid.MustParse("a7e6b9d0-3c5f-4b21-b6a4-9c0d1e2f3a03"),
			Name:  "Trail Runner",
			Brand: "Kestrel",
			Price: decimal.RequireFromString("89.50"),
			Stock: 0,
			Sizes: []SizeOption{
				{Size: "9", Price: decimal.RequireFromString("89.50"), Stock: 6},
				{Size: "10", Price: decimal.RequireFromString("89.50"), Stock: 2},
			},
		},
	}
}
