// Package search queries the catalog and keeps a short local history of
// recent search terms.
package search

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/pushp314/crova-storefront/internal/api"
	"github.com/pushp314/crova-storefront/internal/apperrors"
	"github.com/pushp314/crova-storefront/internal/catalog"
	"github.com/pushp314/crova-storefront/internal/state"
)

// Service runs product searches. Results are not cached: every query is
// live.
type Service struct {
	api    *api.Client
	state  *state.Store
	logger *slog.Logger
}

// NewService creates a search service.
func NewService(apiClient *api.Client, st *state.Store, logger *slog.Logger) *Service {
	return &Service{api: apiClient, state: st, logger: logger}
}

// Search runs a product search and records the term in the local
// history. History recording is best effort and never fails the search.
func (s *Service) Search(ctx context.Context, query string) ([]catalog.Product, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperrors.InvalidInput("search query is required")
	}

	var out struct {
		Products []catalog.Product `json:"products"`
	}
	if err := s.api.Get(ctx, "/products/search?q="+url.QueryEscape(query), &out); err != nil {
		return nil, fmt.Errorf("search products: %w", err)
	}

	if err := s.state.AddRecentSearch(query); err != nil {
		s.logger.WarnContext(ctx, "record recent search", slog.String("error", err.Error()))
	}

	s.logger.DebugContext(ctx, "search",
		slog.String("query", query),
		slog.Int("results", len(out.Products)),
	)
	return out.Products, nil
}

// Recent returns the locally stored search history, most recent first.
func (s *Service) Recent() []string {
	return s.state.RecentSearches()
}

// ClearRecent wipes the local search history.
func (s *Service) ClearRecent() error {
	return s.state.ClearRecentSearches()
}
