// Package catalog exposes the read-only browse surface: products,
// collections, categories, and reviews. Everything reads through the
// server-state cache; nothing here mutates the catalog.
package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"

	"github.com/pushp314/crova-storefront/internal/api"
	"github.com/pushp314/crova-storefront/internal/apperrors"
	"github.com/pushp314/crova-storefront/internal/cache"
	"github.com/pushp314/crova-storefront/internal/validation"
)

// Sort options accepted by the product listing endpoint.
const (
	SortNewest    = "newest"
	SortPriceAsc  = "price_asc"
	SortPriceDesc = "price_desc"
	SortRating    = "rating"
)

// Variant is a purchasable variation of a product (size/color).
type Variant struct {
	ID    string `json:"id"`
	Size  string `json:"size"`
	Color string `json:"color"`
	SKU   string `json:"sku"`
	Price int64  `json:"price"`
	Stock int    `json:"stock"`
}

// Product is a catalog product as the API returns it.
type Product struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Slug         string    `json:"slug"`
	Description  string    `json:"description"`
	Price        int64     `json:"price"`
	Images       []string  `json:"images"`
	Category     string    `json:"category"`
	CollectionID string    `json:"collectionId"`
	Variants     []Variant `json:"variants"`
	Rating       float64   `json:"rating"`
	NumReviews   int       `json:"numReviews"`
	InStock      bool      `json:"inStock"`
}

// Collection is a curated grouping of products.
type Collection struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	Image       string `json:"image"`
}

// Category is a product category.
type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// Review is a customer product review.
type Review struct {
	ID        string `json:"id"`
	ProductID string `json:"productId"`
	UserName  string `json:"userName"`
	Rating    int    `json:"rating"`
	Comment   string `json:"comment"`
	CreatedAt string `json:"createdAt"`
}

// ProductList is a page of products.
type ProductList struct {
	Products []Product `json:"products"`
	Total    int       `json:"total"`
	Page     int       `json:"page"`
	Pages    int       `json:"pages"`
}

// ListParams filters and pages the product listing.
type ListParams struct {
	Collection string
	Category   string
	MinPrice   int64
	MaxPrice   int64
	Sort       string
	Page       int
	PerPage    int
}

func (p ListParams) encode() string {
	q := url.Values{}
	if p.Collection != "" {
		q.Set("collection", p.Collection)
	}
	if p.Category != "" {
		q.Set("category", p.Category)
	}
	if p.MinPrice > 0 {
		q.Set("minPrice", strconv.FormatInt(p.MinPrice, 10))
	}
	if p.MaxPrice > 0 {
		q.Set("maxPrice", strconv.FormatInt(p.MaxPrice, 10))
	}
	if p.Sort != "" {
		q.Set("sort", p.Sort)
	}
	if p.Page > 0 {
		q.Set("page", strconv.Itoa(p.Page))
	}
	if p.PerPage > 0 {
		q.Set("perPage", strconv.Itoa(p.PerPage))
	}
	return q.Encode()
}

// Service fetches catalog data through the cache layer.
type Service struct {
	api    *api.Client
	cache  *cache.Cache
	logger *slog.Logger
}

// NewService creates a catalog service.
func NewService(apiClient *api.Client, c *cache.Cache, logger *slog.Logger) *Service {
	return &Service{api: apiClient, cache: c, logger: logger}
}

// Products returns a page of products matching the params.
func (s *Service) Products(ctx context.Context, params ListParams) (*ProductList, error) {
	path := "/products"
	if qs := params.encode(); qs != "" {
		path += "?" + qs
	}
	key := "products:" + params.encode()

	return cache.Fetch(ctx, s.cache, key, func(ctx context.Context) (*ProductList, error) {
		var list ProductList
		if err := s.api.Get(ctx, path, &list); err != nil {
			return nil, fmt.Errorf("fetch products: %w", err)
		}
		return &list, nil
	})
}

// Product returns a single product by slug or id.
func (s *Service) Product(ctx context.Context, slugOrID string) (*Product, error) {
	if slugOrID == "" {
		return nil, apperrors.InvalidInput("product slug or id is required")
	}

	return cache.Fetch(ctx, s.cache, "product:"+slugOrID, func(ctx context.Context) (*Product, error) {
		var p Product
		if err := s.api.Get(ctx, "/products/"+url.PathEscape(slugOrID), &p); err != nil {
			return nil, fmt.Errorf("fetch product %s: %w", slugOrID, err)
		}
		return &p, nil
	})
}

// Collections returns all collections.
func (s *Service) Collections(ctx context.Context) ([]Collection, error) {
	return cache.Fetch(ctx, s.cache, "collections", func(ctx context.Context) ([]Collection, error) {
		var out []Collection
		if err := s.api.Get(ctx, "/collections", &out); err != nil {
			return nil, fmt.Errorf("fetch collections: %w", err)
		}
		return out, nil
	})
}

// Categories returns all categories.
func (s *Service) Categories(ctx context.Context) ([]Category, error) {
	return cache.Fetch(ctx, s.cache, "categories", func(ctx context.Context) ([]Category, error) {
		var out []Category
		if err := s.api.Get(ctx, "/categories", &out); err != nil {
			return nil, fmt.Errorf("fetch categories: %w", err)
		}
		return out, nil
	})
}

// Reviews returns the reviews for a product.
func (s *Service) Reviews(ctx context.Context, productID string) ([]Review, error) {
	if productID == "" {
		return nil, apperrors.InvalidInput("product id is required")
	}

	return cache.Fetch(ctx, s.cache, "reviews:"+productID, func(ctx context.Context) ([]Review, error) {
		var out []Review
		if err := s.api.Get(ctx, "/reviews/product/"+url.PathEscape(productID), &out); err != nil {
			return nil, fmt.Errorf("fetch reviews for %s: %w", productID, err)
		}
		return out, nil
	})
}

// ReviewInput holds the parameters for submitting a review.
type ReviewInput struct {
	Rating  int    `json:"rating" validate:"required,gte=1,lte=5"`
	Comment string `json:"comment" validate:"required,min=3,max=2000"`
}

// SubmitReview posts a review for a product and invalidates the cached
// reviews and product (its aggregate rating changed server-side).
func (s *Service) SubmitReview(ctx context.Context, productID string, input ReviewInput) error {
	if productID == "" {
		return apperrors.InvalidInput("product id is required")
	}
	if err := validation.Validate(input); err != nil {
		return err
	}

	if err := s.api.Post(ctx, "/reviews/product/"+url.PathEscape(productID), input, nil); err != nil {
		return fmt.Errorf("submit review: %w", err)
	}

	s.cache.Invalidate("reviews:"+productID, "product:"+productID)

	s.logger.InfoContext(ctx, "review submitted",
		slog.String("product_id", productID),
		slog.Int("rating", input.Rating),
	)
	return nil
}

// DesignInquiry is a custom-design contact request.
type DesignInquiry struct {
	Name    string `json:"name" validate:"required,min=1,max=100"`
	Email   string `json:"email" validate:"required,email"`
	Message string `json:"message" validate:"required,min=10,max=5000"`
}

// SubmitDesignInquiry sends a custom-design inquiry to the studio.
func (s *Service) SubmitDesignInquiry(ctx context.Context, inquiry DesignInquiry) error {
	if err := validation.Validate(inquiry); err != nil {
		return err
	}
	if err := s.api.Post(ctx, "/design/inquire", inquiry, nil); err != nil {
		return fmt.Errorf("submit design inquiry: %w", err)
	}
	return nil
}
