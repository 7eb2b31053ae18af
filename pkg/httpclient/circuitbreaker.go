package httpclient

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"

	apperrors "github.com/HarryOhm33/We-Hack/pkg/errors"
)

// BreakerClient wraps a Client with a circuit breaker so a failing upstream
// is given time to recover instead of being hammered.
type BreakerClient struct {
	client  *Client
	breaker *gobreaker.CircuitBreaker[any]
	logger  *slog.Logger
}

// NewBreakerClient creates a breaker around the given client. The circuit
// opens after 5 consecutive failures and probes again after 30 seconds.
// Client-side 4xx errors do not count as failures.
func NewBreakerClient(name string, client *Client, logger *slog.Logger) *BreakerClient {
	settings := gobreaker.Settings{
		Name:    name,
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			var appErr *apperrors.AppError
			return errors.As(err, &appErr) && appErr.Status < 500
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				"breaker", name,
				"from", from.String(),
				"to", to.String())
		},
	}

	return &BreakerClient{
		client:  client,
		breaker: gobreaker.NewCircuitBreaker[any](settings),
		logger:  logger,
	}
}

// PostJSON executes the request through the breaker.
func (b *BreakerClient) PostJSON(ctx context.Context, path string, body any, out any) error {
	_, err := b.breaker.Execute(func() (any, error) {
		return nil, b.client.PostJSON(ctx, path, body, out)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return apperrors.Wrap(apperrors.ErrInternal, "upstream temporarily unavailable")
		}
		return err
	}
	return nil
}
