package openweather

import (
	"context"
	"fmt"

	"github.com/couchcryptid/disease-risk-service/internal/domain"
	"golang.org/x/time/rate"
)

// RateLimitedSource wraps a LiveSource so upstream calls respect a shared
// requests-per-second budget.
type RateLimitedSource struct {
	inner   domain.LiveSource
	limiter *rate.Limiter
}

// NewRateLimitedSource allows rps requests per second with the given burst.
// rps may be fractional.
func NewRateLimitedSource(inner domain.LiveSource, rps float64, burst int) *RateLimitedSource {
	return &RateLimitedSource{
		inner:   inner,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

func (r *RateLimitedSource) Current(ctx context.Context, city string) (domain.WeatherObservation, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return domain.WeatherObservation{}, fmt.Errorf("rate limit wait canceled: %w", err)
	}
	return r.inner.Current(ctx, city)
}

func (r *RateLimitedSource) Forecast(ctx context.Context, city string) ([]domain.WeatherObservation, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait canceled: %w", err)
	}
	return r.inner.Forecast(ctx, city)
}

var (
	_ domain.LiveSource = (*Client)(nil)
	_ domain.LiveSource = (*CachedSource)(nil)
	_ domain.LiveSource = (*RateLimitedSource)(nil)
)
