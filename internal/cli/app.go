// Package cli is the terminal storefront: a read-eval-print loop over
// the client services for browsing, cart, wishlist, and checkout.
package cli

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/pushp314/crova-storefront/internal/admin"
	"github.com/pushp314/crova-storefront/internal/api"
	"github.com/pushp314/crova-storefront/internal/cache"
	"github.com/pushp314/crova-storefront/internal/cart"
	"github.com/pushp314/crova-storefront/internal/catalog"
	"github.com/pushp314/crova-storefront/internal/checkout"
	"github.com/pushp314/crova-storefront/internal/config"
	"github.com/pushp314/crova-storefront/internal/search"
	"github.com/pushp314/crova-storefront/internal/session"
	"github.com/pushp314/crova-storefront/internal/state"
	"github.com/pushp314/crova-storefront/internal/wishlist"
)

// App holds the wired client services plus terminal I/O.
type App struct {
	cfg      *config.Config
	session  *session.Store
	catalog  *catalog.Service
	cart     *cart.Store
	wishlist *wishlist.Store
	search   *search.Service
	orders   *checkout.History
	admin    *admin.Client
	apiC     *api.Client
	notifier *terminalNotifier
	reader   *bufio.Reader
	out      io.Writer
	logger   *slog.Logger
}

// NewApp wires the full client stack from configuration.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	st, err := state.NewStore(cfg.StateDir)
	if err != nil {
		return nil, fmt.Errorf("open state store: %w", err)
	}

	apiCfg := api.DefaultConfig(cfg.APIBaseURL)
	apiCfg.Timeout = time.Duration(cfg.HTTPTimeoutSeconds) * time.Second
	apiClient, err := api.New(apiCfg, st, logger)
	if err != nil {
		return nil, fmt.Errorf("create api client: %w", err)
	}

	out := os.Stdout
	notifier := &terminalNotifier{out: out}

	c := cache.New()
	sess := session.New(apiClient, st, logger)
	cartStore := cart.NewStore(apiClient, c, sess, notifier, logger)

	return &App{
		cfg:      cfg,
		session:  sess,
		catalog:  catalog.NewService(apiClient, c, logger),
		cart:     cartStore,
		wishlist: wishlist.NewStore(apiClient, c, sess, notifier, logger),
		search:   search.NewService(apiClient, st, logger),
		orders:   checkout.NewHistory(apiClient),
		admin:    admin.NewClient(apiClient, sess, logger),
		apiC:     apiClient,
		notifier: notifier,
		reader:   bufio.NewReader(os.Stdin),
		out:      out,
		logger:   logger,
	}, nil
}

// gateway builds a fresh hosted payment gateway for one checkout.
func (a *App) gateway() checkout.Gateway {
	return &checkout.HostedGateway{
		CheckoutURL: a.cfg.APIBaseURL + "/pay",
		Port:        a.cfg.PaymentCallbackPort,
		Logger:      a.logger,
	}
}

// status is the prompt segment showing who is signed in.
func (a *App) status() string {
	switch a.session.Status() {
	case session.StatusAuthenticated:
		if u, ok := a.session.CurrentUser(); ok {
			return u.Email
		}
		return "signed in"
	case session.StatusAnonymous:
		return "guest"
	default:
		return "..."
	}
}

// terminalNotifier prints service feedback straight to the terminal.
type terminalNotifier struct {
	out io.Writer
}

func (n *terminalNotifier) Success(msg string) {
	fmt.Fprintln(n.out, "ok:", msg)
}

func (n *terminalNotifier) Error(msg string) {
	fmt.Fprintln(n.out, "error:", msg)
}
