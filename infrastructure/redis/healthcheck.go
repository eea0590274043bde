// infrastructure/redis/healthcheck.go
package redis

import (
	"context"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// HealthChecker monitors Redis connection health behind a circuit breaker
// so a flapping connection does not hammer the server with pings.
type HealthChecker struct {
	client         redis.UniversalClient
	circuitBreaker *gobreaker.CircuitBreaker
	status         bool
	mu             sync.RWMutex
	checkInterval  time.Duration
	logger         *zap.Logger
}

// NewHealthChecker creates a Redis health checker and starts its periodic
// checks. The loop stops when ctx is cancelled.
func NewHealthChecker(ctx context.Context, client redis.UniversalClient, checkInterval time.Duration, logger *zap.Logger) *HealthChecker {
	settings := gobreaker.Settings{
		Name:    "redis-health",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	}

	checker := &HealthChecker{
		client:         client,
		circuitBreaker: gobreaker.NewCircuitBreaker(settings),
		checkInterval:  checkInterval,
		logger:         logger,
	}

	go checker.run(ctx)
	return checker
}

// IsHealthy returns the last observed Redis health status.
func (h *HealthChecker) IsHealthy() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.status
}

// Check performs a single health check and records the result.
func (h *HealthChecker) Check(ctx context.Context) bool {
	result, err := h.circuitBreaker.Execute(func() (interface{}, error) {
		return h.client.Ping(ctx).Result()
	})

	healthy := err == nil && result == "PONG"

	h.mu.Lock()
	changed := h.status != healthy
	h.status = healthy
	h.mu.Unlock()

	if changed {
		h.logger.Info("redis health changed", zap.Bool("healthy", healthy))
	}
	return healthy
}

func (h *HealthChecker) run(ctx context.Context) {
	// Prime the status before the first tick.
	checkCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	h.Check(checkCtx)
	cancel()

	ticker := time.NewTicker(h.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			checkCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
			h.Check(checkCtx)
			cancel()
		}
	}
}
