// Package checkout drives the order placement flow: shipping address,
// payment method, order creation, and online payment collection with
// server-side verification.
package checkout

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/pushp314/crova-storefront/internal/api"
	"github.com/pushp314/crova-storefront/internal/apperrors"
	"github.com/pushp314/crova-storefront/internal/cart"
	"github.com/pushp314/crova-storefront/internal/notify"
	"github.com/pushp314/crova-storefront/internal/session"
	"github.com/pushp314/crova-storefront/internal/tracing"
	"github.com/pushp314/crova-storefront/internal/validation"
)

// State is the checkout flow's current step.
type State int

const (
	StateIdle State = iota
	StateCollectingAddress
	StateAddressConfirmed
	StatePaymentPending
	StatePaymentFailed
	StateComplete
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateCollectingAddress:
		return "collecting_address"
	case StateAddressConfirmed:
		return "address_confirmed"
	case StatePaymentPending:
		return "payment_pending"
	case StatePaymentFailed:
		return "payment_failed"
	case StateComplete:
		return "complete"
	default:
		return "unknown"
	}
}

// Payment methods accepted at checkout.
const (
	PaymentOnline = "ONLINE"
	PaymentCOD    = "COD"
)

// Address is a shipping address.
type Address struct {
	ID         string `json:"id,omitempty"`
	Name       string `json:"name" validate:"required,min=1,max=100"`
	Phone      string `json:"phone" validate:"required,min=7,max=20"`
	Line1      string `json:"line1" validate:"required,min=3,max=200"`
	Line2      string `json:"line2,omitempty" validate:"max=200"`
	City       string `json:"city" validate:"required,min=1,max=100"`
	State      string `json:"state" validate:"required,min=1,max=100"`
	PostalCode string `json:"postalCode" validate:"required,min=3,max=12"`
	Country    string `json:"country" validate:"required,len=2"`
}

// PaymentIntent is what the server hands back for an online order: the
// gateway-side order the widget must collect against.
type PaymentIntent struct {
	GatewayOrderID string `json:"gatewayOrderId"`
	Amount         int64  `json:"amount"`
	Currency       string `json:"currency"`
	KeyID          string `json:"keyId"`
}

// PaymentResult is what the gateway returns after collecting payment.
type PaymentResult struct {
	PaymentID string `json:"paymentId"`
	Signature string `json:"signature"`
}

// Order is an order as the API returns it.
type Order struct {
	ID            string         `json:"id"`
	Status        string         `json:"status"`
	Total         int64          `json:"total"`
	PaymentMethod string         `json:"paymentMethod"`
	Items         []cart.Item    `json:"items"`
	Address       *Address       `json:"address,omitempty"`
	Payment       *PaymentIntent `json:"payment,omitempty"`
	CreatedAt     string         `json:"createdAt"`
}

// orderLine is one cart line as submitted with the order. The server
// prices the order itself; the client states only what is being bought.
type orderLine struct {
	VariantID string `json:"variantId"`
	Quantity  int    `json:"quantity"`
}

// Gateway collects an online payment for an order.
type Gateway interface {
	Collect(ctx context.Context, order Order) (*PaymentResult, error)
}

type cartAccess interface {
	Get(ctx context.Context) (*cart.Cart, error)
	Clear(ctx context.Context) error
}

type sessionGate interface {
	CurrentUser() (*session.User, bool)
	OpenAuthPrompt()
}

// Flow is one checkout attempt. It is not reusable after completion;
// start a new Flow for the next order.
type Flow struct {
	api      *api.Client
	cart     cartAccess
	session  sessionGate
	gateway  Gateway
	notifier notify.Notifier
	logger   *slog.Logger

	mu      sync.Mutex
	state   State
	address *Address
	method  string
	order   *Order
}

// NewFlow creates a checkout flow.
func NewFlow(apiClient *api.Client, c cartAccess, sess sessionGate, gw Gateway, notifier notify.Notifier, logger *slog.Logger) *Flow {
	return &Flow{
		api:      apiClient,
		cart:     c,
		session:  sess,
		gateway:  gw,
		notifier: notifier,
		logger:   logger,
		state:    StateIdle,
		method:   PaymentOnline,
	}
}

// State returns the flow's current step.
func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Order returns the created order, if any.
func (f *Flow) Order() *Order {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.order
}

// Begin starts checkout. It requires a signed-in user and a non-empty
// cart.
func (f *Flow) Begin(ctx context.Context) error {
	if _, ok := f.session.CurrentUser(); !ok {
		f.session.OpenAuthPrompt()
		return apperrors.ErrSignInRequired
	}

	c, err := f.cart.Get(ctx)
	if err != nil {
		return fmt.Errorf("load cart for checkout: %w", err)
	}
	if len(c.Items) == 0 {
		return apperrors.InvalidInput("cart is empty")
	}

	f.mu.Lock()
	f.state = StateCollectingAddress
	f.mu.Unlock()
	return nil
}

// SetAddress validates and records the shipping address.
func (f *Flow) SetAddress(addr Address) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state != StateCollectingAddress && f.state != StateAddressConfirmed {
		return apperrors.InvalidInput("checkout has not started")
	}
	if err := validation.Validate(addr); err != nil {
		return err
	}

	f.address = &addr
	f.state = StateAddressConfirmed
	return nil
}

// SavedAddresses returns the user's stored addresses.
func (f *Flow) SavedAddresses(ctx context.Context) ([]Address, error) {
	var out []Address
	if err := f.api.Get(ctx, "/users/addresses", &out); err != nil {
		return nil, fmt.Errorf("fetch saved addresses: %w", err)
	}
	return out, nil
}

// SaveAddress stores an address on the user's profile for future
// checkouts and uses it for this one.
func (f *Flow) SaveAddress(ctx context.Context, addr Address) error {
	if err := f.SetAddress(addr); err != nil {
		return err
	}
	var saved Address
	if err := f.api.Post(ctx, "/users/addresses", addr, &saved); err != nil {
		return fmt.Errorf("save address: %w", err)
	}
	f.mu.Lock()
	f.address = &saved
	f.mu.Unlock()
	return nil
}

// UseSavedAddress picks one of the user's stored addresses by id.
func (f *Flow) UseSavedAddress(ctx context.Context, id string) error {
	addrs, err := f.SavedAddresses(ctx)
	if err != nil {
		return err
	}
	for _, a := range addrs {
		if a.ID == id {
			return f.SetAddress(a)
		}
	}
	return apperrors.NotFound("address", id)
}

// SetPaymentMethod selects ONLINE or COD.
func (f *Flow) SetPaymentMethod(method string) error {
	if method != PaymentOnline && method != PaymentCOD {
		return apperrors.InvalidInput("payment method must be ONLINE or COD")
	}
	f.mu.Lock()
	f.method = method
	f.mu.Unlock()
	return nil
}

// Submit creates the order and, for online payment, collects and
// verifies it. The cart is cleared only once the order is fully
// settled; any payment failure leaves it intact so the buyer can retry.
func (f *Flow) Submit(ctx context.Context) (*Order, error) {
	f.mu.Lock()
	if f.state != StateAddressConfirmed && f.state != StatePaymentFailed {
		f.mu.Unlock()
		return nil, apperrors.InvalidInput("shipping address not confirmed")
	}
	addr := f.address
	method := f.method
	f.mu.Unlock()

	ctx, span := tracing.Tracer("checkout").Start(ctx, "checkout.submit",
		trace.WithAttributes(attribute.String("payment.method", method)))
	defer span.End()

	c, err := f.cart.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("load cart for order: %w", err)
	}
	if len(c.Items) == 0 {
		return nil, apperrors.InvalidInput("cart is empty")
	}

	lines := make([]orderLine, 0, len(c.Items))
	for _, it := range c.Items {
		lines = append(lines, orderLine{VariantID: it.VariantID, Quantity: it.Quantity})
	}

	body := struct {
		Items         []orderLine `json:"items"`
		Address       Address     `json:"address"`
		PaymentMethod string      `json:"paymentMethod"`
	}{Items: lines, Address: *addr, PaymentMethod: method}

	var order Order
	err = f.api.Post(ctx, "/orders", body, &order, api.WithIdempotencyKey(uuid.NewString()))
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	f.mu.Lock()
	f.order = &order
	f.mu.Unlock()

	if method == PaymentCOD {
		f.settle(ctx, &order)
		return &order, nil
	}

	f.setState(StatePaymentPending)

	result, err := f.gateway.Collect(ctx, order)
	if err != nil {
		f.setState(StatePaymentFailed)
		f.notifier.Error("payment was not completed")
		f.logger.WarnContext(ctx, "payment collection failed",
			slog.String("order_id", order.ID),
			slog.String("error", err.Error()),
		)
		return nil, apperrors.PaymentFailed("payment was not completed")
	}

	verify := struct {
		OrderID   string `json:"orderId"`
		PaymentID string `json:"paymentId"`
		Signature string `json:"signature"`
	}{OrderID: order.ID, PaymentID: result.PaymentID, Signature: result.Signature}

	if err := f.api.Post(ctx, "/orders/verify-payment", verify, &order); err != nil {
		f.setState(StatePaymentFailed)
		f.logger.ErrorContext(ctx, "payment verification failed",
			slog.String("order_id", order.ID),
			slog.String("payment_id", result.PaymentID),
			slog.String("error", err.Error()),
		)
		return nil, apperrors.PaymentVerification("payment could not be verified, please contact support")
	}

	f.mu.Lock()
	f.order = &order
	f.mu.Unlock()

	f.settle(ctx, &order)
	return &order, nil
}

// settle marks the flow complete and clears the cart. Cart clearing is
// best effort; the order already exists server-side.
func (f *Flow) settle(ctx context.Context, order *Order) {
	if err := f.cart.Clear(ctx); err != nil {
		f.logger.WarnContext(ctx, "clear cart after order", slog.String("error", err.Error()))
	}
	f.setState(StateComplete)
	f.notifier.Success("order placed")
	f.logger.InfoContext(ctx, "order placed",
		slog.String("order_id", order.ID),
		slog.String("payment_method", order.PaymentMethod),
	)
}

func (f *Flow) setState(s State) {
	f.mu.Lock()
	f.state = s
	f.mu.Unlock()
}
