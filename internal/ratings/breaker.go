package ratings

import (
	"context"
	"errors"
	"time"

	"book_catalog/internal/metrics"

	"github.com/sirupsen/logrus"
	gobreaker "github.com/sony/gobreaker/v2"
)

// breaker wraps the outbound call so a failing rating service is skipped fast
// instead of stalling every detail page for the full timeout.
type breaker struct {
	cb   *gobreaker.CircuitBreaker[*Summary]
	name string
}

// newBreaker opens after 5 consecutive failures and probes again after 30s.
func newBreaker(name string) *breaker {
	metrics.SetBreakerState(name, stateToFloat(gobreaker.StateClosed))

	cb := gobreaker.NewCircuitBreaker[*Summary](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// A caller that went away says nothing about the service
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logrus.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("Circuit breaker state change")
			metrics.SetBreakerState(name, stateToFloat(to))
		},
	})
	return &breaker{cb: cb, name: name}
}

func (b *breaker) execute(fn func() (*Summary, error)) (*Summary, error) {
	res, err := b.cb.Execute(fn)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, errors.Join(ErrUnavailable, err)
	}
	return res, err
}

func (b *breaker) state() gobreaker.State {
	return b.cb.State()
}

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
