package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// ErrPaymentDeclined is returned when the hosted page reports a
// declined or abandoned payment.
var ErrPaymentDeclined = errors.New("payment declined")

// HostedGateway collects payment through the provider's hosted page.
// It starts a short-lived local HTTP listener, hands the buyer a
// checkout URL whose callback points at that listener, and waits for
// the provider to redirect back with the payment result.
type HostedGateway struct {
	// CheckoutURL is the provider's hosted page base, e.g.
	// https://pay.example.com/checkout.
	CheckoutURL string
	// Port is the local callback listener port. Zero picks a free one.
	Port int
	// Open is called with the URL the buyer must visit. The default
	// logs it for the terminal user to follow.
	Open func(url string) error
	// Timeout bounds the wait for the redirect. Zero means 5 minutes.
	Timeout time.Duration

	Logger *slog.Logger
}

type callbackResult struct {
	result *PaymentResult
	err    error
}

// Collect implements Gateway.
func (g *HostedGateway) Collect(ctx context.Context, order Order) (*PaymentResult, error) {
	if order.Payment == nil || order.Payment.GatewayOrderID == "" {
		return nil, errors.New("order has no payment intent")
	}

	ln, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", g.Port))
	if err != nil {
		return nil, fmt.Errorf("start payment callback listener: %w", err)
	}

	done := make(chan callbackResult, 1)
	// Only the first callback counts; a refreshed or duplicated
	// redirect must not block its handler once Collect has returned.
	report := func(r callbackResult) {
		select {
		case done <- r:
		default:
		}
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/payment/callback", func(w http.ResponseWriter, req *http.Request) {
		q := req.URL.Query()
		if reason := q.Get("error"); reason != "" {
			http.Error(w, "payment failed, you can close this window", http.StatusOK)
			report(callbackResult{err: fmt.Errorf("%w: %s", ErrPaymentDeclined, reason)})
			return
		}
		res := &PaymentResult{
			PaymentID: q.Get("paymentId"),
			Signature: q.Get("signature"),
		}
		if res.PaymentID == "" || res.Signature == "" {
			http.Error(w, "malformed callback", http.StatusBadRequest)
			report(callbackResult{err: errors.New("malformed payment callback")})
			return
		}
		_, _ = w.Write([]byte("payment received, you can close this window"))
		report(callbackResult{result: res})
	})

	srv := &http.Server{Handler: r}
	go func() { _ = srv.Serve(ln) }()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	callback := fmt.Sprintf("http://%s/payment/callback", ln.Addr().String())
	checkout := fmt.Sprintf("%s?order=%s&callback=%s",
		g.CheckoutURL,
		url.QueryEscape(order.Payment.GatewayOrderID),
		url.QueryEscape(callback),
	)

	open := g.Open
	if open == nil {
		open = func(u string) error {
			g.Logger.Info("complete payment in your browser", slog.String("url", u))
			return nil
		}
	}
	if err := open(checkout); err != nil {
		return nil, fmt.Errorf("open checkout page: %w", err)
	}

	timeout := g.Timeout
	if timeout == 0 {
		timeout = 5 * time.Minute
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case res := <-done:
		return res.result, res.err
	case <-timer.C:
		return nil, errors.New("timed out waiting for payment")
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
