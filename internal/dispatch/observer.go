package dispatch

import (
	"context"
	"time"

	"github.com/hpn/hpn-text-optimizer/internal/domain"
)

// DispatchEvent describes one optimize call that reached the network path.
type DispatchEvent struct {
	Provider domain.ProviderID
	Model    string

	// Status is the HTTP status, zero when no response arrived.
	Status  int
	Latency time.Duration
	Result  domain.Result
}

// CacheHitEvent describes one optimize call answered from the cache.
type CacheHitEvent struct {
	Key     string
	Latency time.Duration
	Savings SavingsMetrics
}

// Observer receives engine events. Implementations must be safe for concurrent use.
type Observer interface {
	OnDispatch(DispatchEvent)
	OnCacheHit(CacheHitEvent)
}

type nopObserver struct{}

func (nopObserver) OnDispatch(DispatchEvent) {}
func (nopObserver) OnCacheHit(CacheHitEvent) {}

type requestIDKey struct{}

// WithRequestID attaches a request id used to correlate engine logs.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID returns the request id attached to ctx, or "".
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
