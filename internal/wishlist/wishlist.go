// Package wishlist manages the authenticated wishlist. Mutations do not
// return the updated list, so the cached copy is invalidated and the
// next read fetches fresh.
package wishlist

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/pushp314/crova-storefront/internal/api"
	"github.com/pushp314/crova-storefront/internal/apperrors"
	"github.com/pushp314/crova-storefront/internal/cache"
	"github.com/pushp314/crova-storefront/internal/catalog"
	"github.com/pushp314/crova-storefront/internal/notify"
	"github.com/pushp314/crova-storefront/internal/session"
)

const cacheKey = "wishlist"

// Item is a wishlisted product.
type Item struct {
	ID        string           `json:"id"`
	ProductID string           `json:"productId"`
	Product   *catalog.Product `json:"product,omitempty"`
}

type sessionGate interface {
	CurrentUser() (*session.User, bool)
	OpenAuthPrompt()
	OnReset(func())
}

// Store reads and mutates the wishlist.
type Store struct {
	api      *api.Client
	cache    *cache.Cache
	session  sessionGate
	notifier notify.Notifier
	logger   *slog.Logger
}

// NewStore creates a wishlist store and hooks identity resets.
func NewStore(apiClient *api.Client, c *cache.Cache, sess sessionGate, notifier notify.Notifier, logger *slog.Logger) *Store {
	s := &Store{api: apiClient, cache: c, session: sess, notifier: notifier, logger: logger}
	sess.OnReset(func() { c.Remove(cacheKey) })
	return s
}

// Items returns the wishlist. Anonymous visitors get an empty list
// without a network call.
func (s *Store) Items(ctx context.Context) ([]Item, error) {
	if _, ok := s.session.CurrentUser(); !ok {
		return nil, nil
	}
	return cache.Fetch(ctx, s.cache, cacheKey, func(ctx context.Context) ([]Item, error) {
		var out []Item
		if err := s.api.Get(ctx, "/wishlist", &out); err != nil {
			return nil, fmt.Errorf("fetch wishlist: %w", err)
		}
		return out, nil
	})
}

// Contains reports whether the product is already wishlisted, using the
// cached list only. Unknown means false.
func (s *Store) Contains(productID string) bool {
	v, ok := s.cache.Peek(cacheKey)
	if !ok {
		return false
	}
	items, ok := v.([]Item)
	if !ok {
		return false
	}
	for _, it := range items {
		if it.ProductID == productID {
			return true
		}
	}
	return false
}

// Add wishlists a product. Anonymous visitors are sent to the auth
// prompt instead of the network.
func (s *Store) Add(ctx context.Context, productID string) error {
	if productID == "" {
		return apperrors.InvalidInput("product id is required")
	}
	if _, ok := s.session.CurrentUser(); !ok {
		s.session.OpenAuthPrompt()
		return apperrors.ErrSignInRequired
	}

	body := struct {
		ProductID string `json:"productId"`
	}{ProductID: productID}
	if err := s.api.Post(ctx, "/wishlist/add", body, nil); err != nil {
		s.notifier.Error("could not update wishlist")
		return fmt.Errorf("add to wishlist: %w", err)
	}

	s.cache.Invalidate(cacheKey)
	s.notifier.Success("added to wishlist")
	s.logger.DebugContext(ctx, "wishlist add", slog.String("product_id", productID))
	return nil
}

// Remove takes a product off the wishlist.
func (s *Store) Remove(ctx context.Context, productID string) error {
	if productID == "" {
		return apperrors.InvalidInput("product id is required")
	}
	if _, ok := s.session.CurrentUser(); !ok {
		return nil
	}

	if err := s.api.Delete(ctx, "/wishlist/remove/"+url.PathEscape(productID), nil); err != nil {
		s.notifier.Error("could not update wishlist")
		return fmt.Errorf("remove from wishlist: %w", err)
	}

	s.cache.Invalidate(cacheKey)
	s.notifier.Success("removed from wishlist")
	return nil
}

// Toggle adds the product if absent, removes it if present.
func (s *Store) Toggle(ctx context.Context, productID string) error {
	if s.Contains(productID) {
		return s.Remove(ctx, productID)
	}
	return s.Add(ctx, productID)
}
