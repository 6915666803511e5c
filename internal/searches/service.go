package searches

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	pkgerrors "github.com/attirely/storefront-backend/pkg/errors"
	"github.com/attirely/storefront-backend/pkg/kvstore"
)

// MaxEntries caps the recent-search history per session.
const MaxEntries = 10

// Service records and replays a session's recent search terms. Terms are
// unique case-insensitively and ordered most recent first.
type Service interface {
	Record(ctx context.Context, sessionID, term string) ([]string, error)
	List(ctx context.Context, sessionID string) ([]string, error)
	Clear(ctx context.Context, sessionID string) error
}

type service struct {
	store kvstore.Store
}

// NewService builds a recent-searches service.
func NewService(store kvstore.Store) (Service, error) {
	if store == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "kv store is required")
	}
	return &service{store: store}, nil
}

func searchesKey(sessionID string) string {
	return fmt.Sprintf("searches:%s", sessionID)
}

// Record promotes the term to the head of the history, evicting the oldest
// entry past the cap. Blank terms are ignored.
func (s *service) Record(ctx context.Context, sessionID, term string) ([]string, error) {
	if sessionID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}
	term = strings.TrimSpace(term)
	if term == "" {
		return s.List(ctx, sessionID)
	}

	terms, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	next := make([]string, 0, MaxEntries)
	next = append(next, term)
	for _, existing := range terms {
		if strings.EqualFold(existing, term) {
			continue
		}
		next = append(next, existing)
		if len(next) == MaxEntries {
			break
		}
	}

	encoded, err := json.Marshal(next)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode searches")
	}
	if err := s.store.Set(ctx, searchesKey(sessionID), string(encoded)); err != nil {
		return nil, err
	}
	return next, nil
}

// List returns the history, most recent first.
func (s *service) List(ctx context.Context, sessionID string) ([]string, error) {
	if sessionID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}
	return s.load(ctx, sessionID)
}

// Clear wipes the history.
func (s *service) Clear(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}
	return s.store.Del(ctx, searchesKey(sessionID))
}

func (s *service) load(ctx context.Context, sessionID string) ([]string, error) {
	raw, found, err := s.store.Get(ctx, searchesKey(sessionID))
	if err != nil {
		return nil, err
	}
	if !found || raw == "" {
		return nil, nil
	}
	var terms []string
	if err := json.Unmarshal([]byte(raw), &terms); err != nil {
		return nil, nil
	}
	return terms, nil
}
