package wishlist

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/attirely/storefront-backend/internal/catalog"
	pkgerrors "github.com/attirely/storefront-backend/pkg/errors"
	"github.com/attirely/storefront-backend/pkg/kvstore"
)

// Service exposes business rules for wishlist management. The list lives in
// the key-value store so every surface of the same session sees one copy;
// concurrent writers resolve last-writer-wins.
type Service interface {
	List(ctx context.Context, sessionID string) ([]uuid.UUID, error)
	Add(ctx context.Context, sessionID string, productID uuid.UUID) error
	Remove(ctx context.Context, sessionID string, productID uuid.UUID) error
	Toggle(ctx context.Context, sessionID string, productID uuid.UUID) (liked bool, err error)
	Watch(ctx context.Context, sessionID string) (<-chan []uuid.UUID, func(), error)
}

type service struct {
	store   kvstore.Store
	catalog catalog.Catalog
}

// NewService builds a wishlist service with the required dependencies.
func NewService(store kvstore.Store, cat catalog.Catalog) (Service, error) {
	if store == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "kv store is required")
	}
	if cat == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "catalog is required")
	}
	return &service{store: store, catalog: cat}, nil
}

func wishlistKey(sessionID string) string {
	return fmt.Sprintf("wishlist:%s", sessionID)
}

// List returns the liked product IDs for the session, newest first.
func (s *service) List(ctx context.Context, sessionID string) ([]uuid.UUID, error) {
	if sessionID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}
	return s.load(ctx, sessionID)
}

// Add ensures the product exists and records it at the head of the list.
func (s *service) Add(ctx context.Context, sessionID string, productID uuid.UUID) error {
	if err := s.ensureProduct(ctx, sessionID, productID); err != nil {
		return err
	}
	ids, err := s.load(ctx, sessionID)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if id == productID {
			return nil
		}
	}
	return s.save(ctx, sessionID, append([]uuid.UUID{productID}, ids...))
}

// Remove drops the product from the list; no-op when absent.
func (s *service) Remove(ctx context.Context, sessionID string, productID uuid.UUID) error {
	if sessionID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}
	if productID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	ids, err := s.load(ctx, sessionID)
	if err != nil {
		return err
	}
	kept := ids[:0]
	for _, id := range ids {
		if id != productID {
			kept = append(kept, id)
		}
	}
	if len(kept) == len(ids) {
		return nil
	}
	return s.save(ctx, sessionID, kept)
}

// Toggle flips the like state and reports the resulting state.
func (s *service) Toggle(ctx context.Context, sessionID string, productID uuid.UUID) (bool, error) {
	if err := s.ensureProduct(ctx, sessionID, productID); err != nil {
		return false, err
	}
	ids, err := s.load(ctx, sessionID)
	if err != nil {
		return false, err
	}
	for _, id := range ids {
		if id == productID {
			return false, s.Remove(ctx, sessionID, productID)
		}
	}
	return true, s.save(ctx, sessionID, append([]uuid.UUID{productID}, ids...))
}

// Watch streams the session's wishlist on every external write. The caller
// must invoke the returned stop function.
func (s *service) Watch(ctx context.Context, sessionID string) (<-chan []uuid.UUID, func(), error) {
	if sessionID == "" {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}
	events, stop, err := s.store.Watch(ctx, wishlistKey(sessionID))
	if err != nil {
		return nil, nil, err
	}

	out := make(chan []uuid.UUID, 1)
	go func() {
		defer close(out)
		for event := range events {
			ids := decodeIDs(event.Value)
			if event.Deleted {
				ids = nil
			}
			select {
			case out <- ids:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, stop, nil
}

func (s *service) ensureProduct(ctx context.Context, sessionID string, productID uuid.UUID) error {
	if sessionID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}
	if productID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if _, err := s.catalog.Product(ctx, productID); err != nil {
		return err
	}
	return nil
}

func (s *service) load(ctx context.Context, sessionID string) ([]uuid.UUID, error) {
	raw, found, err := s.store.Get(ctx, wishlistKey(sessionID))
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return decodeIDs(raw), nil
}

func (s *service) save(ctx context.Context, sessionID string, ids []uuid.UUID) error {
	encoded, err := json.Marshal(ids)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode wishlist")
	}
	return s.store.Set(ctx, wishlistKey(sessionID), string(encoded))
}

// decodeIDs tolerates malformed stored values: a corrupt entry reads as an
// empty list rather than poisoning the session.
func decodeIDs(raw string) []uuid.UUID {
	if raw == "" {
		return nil
	}
	var ids []uuid.UUID
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		return nil
	}
	return ids
}
