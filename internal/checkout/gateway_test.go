package checkout

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func callbackFromCheckoutURL(t *testing.T, checkout string) string {
	t.Helper()
	u, err := url.Parse(checkout)
	require.NoError(t, err)
	cb := u.Query().Get("callback")
	require.NotEmpty(t, cb)
	return cb
}

func hostedOrder() Order {
	return Order{
		ID:      "o1",
		Payment: &PaymentIntent{GatewayOrderID: "gw_1", Amount: 4999, Currency: "INR"},
	}
}

func newHostedGateway(open func(string) error) *HostedGateway {
	return &HostedGateway{
		CheckoutURL: "https://pay.example.com/checkout",
		Open:        open,
		Timeout:     5 * time.Second,
		Logger:      slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError})),
	}
}

func TestHostedGateway_SuccessCallback(t *testing.T) {
	visited := make(chan string, 1)
	gw := newHostedGateway(func(u string) error {
		visited <- u
		return nil
	})

	go func() {
		cb := callbackFromCheckoutURL(t, <-visited)
		resp, err := http.Get(cb + "?paymentId=pay_1&signature=sig_1")
		if err == nil {
			_ = resp.Body.Close()
		}
	}()

	res, err := gw.Collect(context.Background(), hostedOrder())
	require.NoError(t, err)
	assert.Equal(t, "pay_1", res.PaymentID)
	assert.Equal(t, "sig_1", res.Signature)
}

func TestHostedGateway_DeclinedCallback(t *testing.T) {
	visited := make(chan string, 1)
	gw := newHostedGateway(func(u string) error {
		visited <- u
		return nil
	})

	go func() {
		cb := callbackFromCheckoutURL(t, <-visited)
		resp, err := http.Get(cb + "?error=card_declined")
		if err == nil {
			_ = resp.Body.Close()
		}
	}()

	_, err := gw.Collect(context.Background(), hostedOrder())
	assert.ErrorIs(t, err, ErrPaymentDeclined)
}

func TestHostedGateway_DuplicateCallbackFirstResultWins(t *testing.T) {
	gw := newHostedGateway(nil)
	gw.Open = func(u string) error {
		cb := callbackFromCheckoutURL(t, u)
		// A refreshed redirect hits the callback again. Every request
		// must complete and the first result must win.
		for _, q := range []string{
			"?paymentId=pay_1&signature=sig_1",
			"?paymentId=pay_2&signature=sig_2",
			"?paymentId=pay_3&signature=sig_3",
		} {
			resp, err := http.Get(cb + q)
			require.NoError(t, err)
			_ = resp.Body.Close()
		}
		return nil
	}

	start := time.Now()
	res, err := gw.Collect(context.Background(), hostedOrder())
	require.NoError(t, err)
	assert.Equal(t, "pay_1", res.PaymentID)
	assert.Less(t, time.Since(start), 2*time.Second,
		"no handler may be left blocking through shutdown")
}

func TestHostedGateway_ContextCancelled(t *testing.T) {
	gw := newHostedGateway(func(string) error { return nil })

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	_, err := gw.Collect(ctx, hostedOrder())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestHostedGateway_RequiresPaymentIntent(t *testing.T) {
	gw := newHostedGateway(func(string) error { return nil })

	_, err := gw.Collect(context.Background(), Order{ID: "o1"})
	assert.Error(t, err)
}

func TestHostedGateway_CheckoutURLCarriesGatewayOrder(t *testing.T) {
	visited := make(chan string, 1)
	gw := newHostedGateway(func(u string) error {
		visited <- u
		return nil
	})

	go func() {
		raw := <-visited
		u, _ := url.Parse(raw)
		assert.Equal(t, "gw_1", u.Query().Get("order"))
		cb := u.Query().Get("callback")
		resp, err := http.Get(cb + "?paymentId=p&signature=s")
		if err == nil {
			_ = resp.Body.Close()
		}
	}()

	_, err := gw.Collect(context.Background(), hostedOrder())
	require.NoError(t, err)
}
