package directory

import (
	"context"
	"fmt"
	"time"

	"github.com/avast/retry-go/v5"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

// callGuard — защитный слой вокруг вызовов директории:
// rate limiter бережет чужой сервис, circuit breaker — наш,
// ретраи сглаживают короткие сетевые сбои.
type callGuard struct {
	cb      *gobreaker.CircuitBreaker
	limiter *rate.Limiter
}

func newCallGuard(rps int) *callGuard {
	if rps <= 0 {
		rps = 50
	}

	// Настройка предохранителя
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "user-directory",
		MaxRequests: 3,
		Interval:    5 * time.Second,
		Timeout:     30 * time.Second, // Время, через которое CB попробует "закрыться"
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			// Если более 5 ошибок подряд — открываемся (блокируем трафик)
			return counts.ConsecutiveFailures > 5
		},
	})

	return &callGuard{
		cb:      cb,
		limiter: rate.NewLimiter(rate.Limit(rps), rps),
	}
}

func (g *callGuard) Do(ctx context.Context, call func() error) error {
	// 1. Rate Limiter
	if err := g.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit exceeded: %w", err)
	}

	// 2. Circuit Breaker + ретраи внутри него:
	// серия ретраев считается одним отказом для предохранителя
	_, err := g.cb.Execute(func() (interface{}, error) {
		r := retry.New(
			retry.Context(ctx),
			retry.Attempts(3),
		)
		return nil, r.Do(call)
	})
	return err
}
