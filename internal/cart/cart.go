// Package cart manages the authenticated shopping cart. The server owns
// the cart; every mutation returns the full updated cart which replaces
// the cached copy. Adds additionally mark the entry stale so the next
// read re-syncs, picking up server-side merges of duplicate lines.
package cart

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

const cacheKey = "cart"

// Item is one line in the cart.
type Item struct {
	ID        string           `json:"id"`
	VariantID string           `json:"variantId"`
	Quantity  int              `json:"quantity"`
	Product   *catalog.Product `json:"product,omitempty"`
	Variant   *catalog.Variant `json:"variant,omitempty"`
}

// Cart is the server's authoritative cart state.
type Cart struct {
	Items []Item `json:"items"`
}

// Subtotal sums price * quantity across all lines, in minor units.
func (c *Cart) Subtotal() int64 {
	var total int64
	for _, it := range c.Items {
		price := int64(0)
		switch {
		case it.Variant != nil && it.Variant.Price > 0:
			price = it.Variant.Price
		case it.Product != nil:
			price = it.Product.Price
		}
		total += price * int64(it.Quantity)
	}
	return total
}

// ItemCount is the total quantity across all lines.
func (c *Cart) ItemCount() int {
	n := 0
	for _, it := range c.Items {
		n += it.Quantity
	}
	return n
}

// sessionGate is the slice of the session store the cart needs.
type sessionGate interface {
	CurrentUser() (*session.User, bool)
	OpenAuthPrompt()
	OnReset(func())
}

// Store reads and mutates the cart through the API client.
type Store struct {
	api      *api.Client
	cache    *cache.Cache
	session  sessionGate
	notifier notify.Notifier
	logger   *slog.Logger
}

// NewStore creates a cart store and hooks identity resets so one user's
// cart never leaks into the next session.
func NewStore(apiClient *api.Client, c *cache.Cache, sess sessionGate, notifier notify.Notifier, logger *slog.Logger) *Store {
	s := &Store{api: apiClient, cache: c, session: sess, notifier: notifier, logger: logger}
	sess.OnReset(func() { c.Remove(cacheKey) })
	return s
}

// Get returns the current cart. Anonymous visitors get an empty cart
// without a network call.
func (s *Store) Get(ctx context.Context) (*Cart, error) {
	if _, ok := s.session.CurrentUser(); !ok {
		return &Cart{}, nil
	}
	return cache.Fetch(ctx, s.cache, cacheKey, func(ctx context.Context) (*Cart, error) {
		var c Cart
		if err := s.api.Get(ctx, "/cart", &c); err != nil {
			return nil, fmt.Errorf("fetch cart: %w", err)
		}
		return &c, nil
	})
}

// Add puts a variant in the cart. Anonymous visitors are sent to the
// auth prompt instead of the network.
func (s *Store) Add(ctx context.Context, variantID string, quantity int) (*Cart, error) {
	if variantID == "" {
		return nil, apperrors.InvalidInput("variant id is required")
	}
	if quantity < 1 {
		quantity = 1
	}
	if _, ok := s.session.CurrentUser(); !ok {
		s.session.OpenAuthPrompt()
		return nil, apperrors.ErrSignInRequired
	}

	body := struct {
		VariantID string `json:"variantId"`
		Quantity  int    `json:"quantity"`
	}{VariantID: variantID, Quantity: quantity}

	cart, err := s.mutate(ctx, func(ctx context.Context, out *Cart) error {
		return s.api.Post(ctx, "/cart/add", body, out)
	})
	if err != nil {
		s.notifier.Error("could not add to cart")
		return nil, fmt.Errorf("add to cart: %w", err)
	}
	s.cache.Invalidate(cacheKey)
	s.notifier.Success("added to cart")
	return cart, nil
}

// UpdateQuantity changes a line's quantity. Quantities never go below
// one; removal is explicit.
func (s *Store) UpdateQuantity(ctx context.Context, variantID string, quantity int) (*Cart, error) {
	if variantID == "" {
		return nil, apperrors.InvalidInput("variant id is required")
	}
	if quantity < 1 {
		quantity = 1
	}
	if _, ok := s.session.CurrentUser(); !ok {
		return &Cart{}, nil
	}

	body := struct {
		VariantID string `json:"variantId"`
		Quantity  int    `json:"quantity"`
	}{VariantID: variantID, Quantity: quantity}

	cart, err := s.mutate(ctx, func(ctx context.Context, out *Cart) error {
		return s.api.Put(ctx, "/cart/update", body, out)
	})
	if err != nil {
		return nil, fmt.Errorf("update cart quantity: %w", err)
	}
	return cart, nil
}

// Remove deletes a line from the cart.
func (s *Store) Remove(ctx context.Context, variantID string) (*Cart, error) {
	if variantID == "" {
		return nil, apperrors.InvalidInput("variant id is required")
	}
	if _, ok := s.session.CurrentUser(); !ok {
		return &Cart{}, nil
	}

	cart, err := s.mutate(ctx, func(ctx context.Context, out *Cart) error {
		return s.api.Delete(ctx, "/cart/remove/"+url.PathEscape(variantID), out)
	})
	if err != nil {
		return nil, fmt.Errorf("remove from cart: %w", err)
	}
	s.notifier.Success("removed from cart")
	return cart, nil
}

// Clear empties the cart.
func (s *Store) Clear(ctx context.Context) error {
	if _, ok := s.session.CurrentUser(); !ok {
		return nil
	}
	if err := s.api.Delete(ctx, "/cart/clear", nil); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	s.cache.Replace(cacheKey, &Cart{})
	return nil
}

// mutate runs one write and replaces the cached cart with the server's
// response.
func (s *Store) mutate(ctx context.Context, call func(context.Context, *Cart) error) (*Cart, error) {
	var c Cart
	if err := call(ctx, &c); err != nil {
		return nil, err
	}
	s.cache.Replace(cacheKey, &c)
	s.logger.DebugContext(ctx, "cart updated", slog.Int("items", c.ItemCount()))
	return &c, nil
}
