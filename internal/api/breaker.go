package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"
)

// ErrCircuitOpen is returned when the read breaker is open and rejects the request.
var ErrCircuitOpen = gobreaker.ErrOpenState

// readBreaker protects read-only API traffic (catalog, search, reviews)
// with a circuit breaker. Mutations are deliberately not routed through it:
// a cart add or an order creation must fail loudly rather than be rejected
// by a tripped breaker fed by unrelated browse errors.
type readBreaker struct {
	cb   *gobreaker.CircuitBreaker[*http.Response]
	name string
}

func newReadBreaker(name string, logger *slog.Logger) *readBreaker {
	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 5 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= 0.5
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
			breakerState.WithLabelValues(name).Set(stateToFloat(to))
		},
	}

	breakerState.WithLabelValues(name).Set(0)

	return &readBreaker{
		cb:   gobreaker.NewCircuitBreaker[*http.Response](settings),
		name: name,
	}
}

// execute runs fn through the breaker. A 5xx response counts as a failure;
// 4xx responses are the caller's problem and leave the breaker closed.
func (b *readBreaker) execute(fn func() (*http.Response, error)) (*http.Response, error) {
	return b.cb.Execute(func() (*http.Response, error) {
		resp, err := fn()
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= 500 {
			return resp, errServerStatus{status: resp.StatusCode}
		}
		return resp, nil
	})
}

// errServerStatus marks a 5xx response as a breaker failure while still
// handing the response back so the caller can parse the error body.
type errServerStatus struct {
	status int
}

func (e errServerStatus) Error() string {
	return http.StatusText(e.status)
}

func (b *readBreaker) state() gobreaker.State {
	return b.cb.State()
}

// stateToFloat maps gobreaker states to prometheus gauge values.
func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
