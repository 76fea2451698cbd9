// Package admin is the typed client for the /admin surface. Every call
// requires an authenticated ADMIN session; the role is checked locally
// before any network traffic so a plain user gets an immediate
// forbidden error.
package admin

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"

	"github.com/google/uuid"

	"github.com/pushp314/crova-storefront/internal/api"
	"github.com/pushp314/crova-storefront/internal/apperrors"
	"github.com/pushp314/crova-storefront/internal/catalog"
	"github.com/pushp314/crova-storefront/internal/checkout"
	"github.com/pushp314/crova-storefront/internal/session"
	"github.com/pushp314/crova-storefront/internal/slug"
	"github.com/pushp314/crova-storefront/internal/validation"
)

type sessionInfo interface {
	CurrentUser() (*session.User, bool)
}

// Client calls the admin API.
type Client struct {
	api     *api.Client
	session sessionInfo
	logger  *slog.Logger
}

// NewClient creates an admin client.
func NewClient(apiClient *api.Client, sess sessionInfo, logger *slog.Logger) *Client {
	return &Client{api: apiClient, session: sess, logger: logger}
}

func (c *Client) requireAdmin() error {
	u, ok := c.session.CurrentUser()
	if !ok {
		return apperrors.ErrSignInRequired
	}
	if !u.IsAdmin() {
		return apperrors.Forbidden("admin access required")
	}
	return nil
}

// ProductInput creates or updates a product.
type ProductInput struct {
	Name         string            `json:"name" validate:"required,min=1,max=200"`
	Slug         string            `json:"slug" validate:"required,min=1,max=200"`
	Description  string            `json:"description" validate:"max=10000"`
	Price        int64             `json:"price" validate:"required,gt=0"`
	Category     string            `json:"category" validate:"required"`
	CollectionID string            `json:"collectionId,omitempty"`
	Images       []string          `json:"images,omitempty"`
	Variants     []catalog.Variant `json:"variants,omitempty"`
}

// Products lists products with admin fields, paged.
func (c *Client) Products(ctx context.Context, page int) (*catalog.ProductList, error) {
	if err := c.requireAdmin(); err != nil {
		return nil, err
	}
	path := "/admin/products"
	if page > 0 {
		path += "?page=" + strconv.Itoa(page)
	}
	var out catalog.ProductList
	if err := c.api.Get(ctx, path, &out); err != nil {
		return nil, fmt.Errorf("list admin products: %w", err)
	}
	return &out, nil
}

// CreateProduct adds a product to the catalog. An empty slug is derived
// from the name.
func (c *Client) CreateProduct(ctx context.Context, input ProductInput) (*catalog.Product, error) {
	if err := c.requireAdmin(); err != nil {
		return nil, err
	}
	if input.Slug == "" {
		input.Slug = slug.Generate(input.Name)
	}
	if err := validation.Validate(input); err != nil {
		return nil, err
	}
	var out catalog.Product
	if err := c.api.Post(ctx, "/admin/products", input, &out, api.WithIdempotencyKey(uuid.NewString())); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	c.logger.InfoContext(ctx, "product created", slog.String("product_id", out.ID))
	return &out, nil
}

// UpdateProduct replaces a product's editable fields.
func (c *Client) UpdateProduct(ctx context.Context, id string, input ProductInput) (*catalog.Product, error) {
	if err := c.requireAdmin(); err != nil {
		return nil, err
	}
	if id == "" {
		return nil, apperrors.InvalidInput("product id is required")
	}
	if err := validation.Validate(input); err != nil {
		return nil, err
	}
	var out catalog.Product
	if err := c.api.Put(ctx, "/admin/products/"+url.PathEscape(id), input, &out); err != nil {
		return nil, fmt.Errorf("update product %s: %w", id, err)
	}
	return &out, nil
}

// DeleteProduct removes a product.
func (c *Client) DeleteProduct(ctx context.Context, id string) error {
	if err := c.requireAdmin(); err != nil {
		return err
	}
	if id == "" {
		return apperrors.InvalidInput("product id is required")
	}
	if err := c.api.Delete(ctx, "/admin/products/"+url.PathEscape(id), nil); err != nil {
		return fmt.Errorf("delete product %s: %w", id, err)
	}
	c.logger.InfoContext(ctx, "product deleted", slog.String("product_id", id))
	return nil
}

// Orders lists all customer orders.
func (c *Client) Orders(ctx context.Context) ([]checkout.Order, error) {
	if err := c.requireAdmin(); err != nil {
		return nil, err
	}
	var out []checkout.Order
	if err := c.api.Get(ctx, "/admin/orders", &out); err != nil {
		return nil, fmt.Errorf("list admin orders: %w", err)
	}
	return out, nil
}

// Order statuses an admin can set.
const (
	OrderProcessing = "PROCESSING"
	OrderShipped    = "SHIPPED"
	OrderDelivered  = "DELIVERED"
	OrderCancelled  = "CANCELLED"
)

// UpdateOrderStatus moves an order through fulfilment.
func (c *Client) UpdateOrderStatus(ctx context.Context, orderID, status string) error {
	if err := c.requireAdmin(); err != nil {
		return err
	}
	if orderID == "" {
		return apperrors.InvalidInput("order id is required")
	}
	switch status {
	case OrderProcessing, OrderShipped, OrderDelivered, OrderCancelled:
	default:
		return apperrors.InvalidInput("unknown order status")
	}
	body := struct {
		Status string `json:"status"`
	}{Status: status}
	if err := c.api.Put(ctx, "/admin/orders/"+url.PathEscape(orderID)+"/status", body, nil); err != nil {
		return fmt.Errorf("update order %s status: %w", orderID, err)
	}
	c.logger.InfoContext(ctx, "order status updated",
		slog.String("order_id", orderID),
		slog.String("status", status),
	)
	return nil
}

// Users lists registered users.
func (c *Client) Users(ctx context.Context) ([]session.User, error) {
	if err := c.requireAdmin(); err != nil {
		return nil, err
	}
	var out []session.User
	if err := c.api.Get(ctx, "/admin/users", &out); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return out, nil
}

// CollectionInput creates or updates a collection.
type CollectionInput struct {
	Name        string `json:"name" validate:"required,min=1,max=100"`
	Slug        string `json:"slug" validate:"required,min=1,max=100"`
	Description string `json:"description" validate:"max=2000"`
	Image       string `json:"image,omitempty"`
}

// CreateCollection adds a collection.
func (c *Client) CreateCollection(ctx context.Context, input CollectionInput) (*catalog.Collection, error) {
	if err := c.requireAdmin(); err != nil {
		return nil, err
	}
	if input.Slug == "" {
		input.Slug = slug.Generate(input.Name)
	}
	if err := validation.Validate(input); err != nil {
		return nil, err
	}
	var out catalog.Collection
	if err := c.api.Post(ctx, "/admin/collections", input, &out); err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}
	return &out, nil
}

// DeleteCollection removes a collection. Products keep existing but
// lose the grouping.
func (c *Client) DeleteCollection(ctx context.Context, id string) error {
	if err := c.requireAdmin(); err != nil {
		return err
	}
	if id == "" {
		return apperrors.InvalidInput("collection id is required")
	}
	if err := c.api.Delete(ctx, "/admin/collections/"+url.PathEscape(id), nil); err != nil {
		return fmt.Errorf("delete collection %s: %w", id, err)
	}
	return nil
}

// Settings is the store-wide configuration block.
type Settings struct {
	StoreName       string `json:"storeName"`
	SupportEmail    string `json:"supportEmail"`
	Currency        string `json:"currency"`
	CODEnabled      bool   `json:"codEnabled"`
	MaintenanceMode bool   `json:"maintenanceMode"`
}

// GetSettings reads the store settings.
func (c *Client) GetSettings(ctx context.Context) (*Settings, error) {
	if err := c.requireAdmin(); err != nil {
		return nil, err
	}
	var out Settings
	if err := c.api.Get(ctx, "/admin/settings", &out); err != nil {
		return nil, fmt.Errorf("fetch settings: %w", err)
	}
	return &out, nil
}

// UpdateSettings replaces the store settings.
func (c *Client) UpdateSettings(ctx context.Context, s Settings) error {
	if err := c.requireAdmin(); err != nil {
		return err
	}
	if err := c.api.Put(ctx, "/admin/settings", s, nil); err != nil {
		return fmt.Errorf("update settings: %w", err)
	}
	c.logger.InfoContext(ctx, "settings updated")
	return nil
}

// AuditEntry is one admin action record.
type AuditEntry struct {
	ID        string `json:"id"`
	ActorID   string `json:"actorId"`
	Action    string `json:"action"`
	Target    string `json:"target"`
	Timestamp string `json:"timestamp"`
}

// AuditLog returns the most recent admin actions.
func (c *Client) AuditLog(ctx context.Context, limit int) ([]AuditEntry, error) {
	if err := c.requireAdmin(); err != nil {
		return nil, err
	}
	path := "/admin/audit"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var out []AuditEntry
	if err := c.api.Get(ctx, path, &out); err != nil {
		return nil, fmt.Errorf("fetch audit log: %w", err)
	}
	return out, nil
}
