package checkout

import (
	"context"
	"fmt"
	"net/url"

	"github.com/pushp314/crova-storefront/internal/api"
	"github.com/pushp314/crova-storefront/internal/apperrors"
)

// TrackingEvent is one step of an order's fulfilment trail.
type TrackingEvent struct {
	Status    string `json:"status"`
	Location  string `json:"location"`
	Note      string `json:"note"`
	Timestamp string `json:"timestamp"`
}

// Tracking is the fulfilment state of an order.
type Tracking struct {
	OrderID        string          `json:"orderId"`
	Status         string          `json:"status"`
	Carrier        string          `json:"carrier"`
	TrackingNumber string          `json:"trackingNumber"`
	Events         []TrackingEvent `json:"events"`
}

// History reads the signed-in user's past orders. Orders are not
// cached; totals and statuses change server-side.
type History struct {
	api *api.Client
}

// NewHistory creates an order history reader.
func NewHistory(apiClient *api.Client) *History {
	return &History{api: apiClient}
}

// List returns the user's orders, newest first.
func (h *History) List(ctx context.Context) ([]Order, error) {
	var out []Order
	if err := h.api.Get(ctx, "/orders", &out); err != nil {
		return nil, fmt.Errorf("fetch orders: %w", err)
	}
	return out, nil
}

// Get returns one order by id.
func (h *History) Get(ctx context.Context, id string) (*Order, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("order id is required")
	}
	var out Order
	if err := h.api.Get(ctx, "/orders/"+url.PathEscape(id), &out); err != nil {
		return nil, fmt.Errorf("fetch order %s: %w", id, err)
	}
	return &out, nil
}

// Track returns the fulfilment trail for an order.
func (h *History) Track(ctx context.Context, id string) (*Tracking, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("order id is required")
	}
	var out Tracking
	if err := h.api.Get(ctx, "/orders/track/"+url.PathEscape(id), &out); err != nil {
		return nil, fmt.Errorf("track order %s: %w", id, err)
	}
	return &out, nil
}
