package marketdata

import (
	"context"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/yourusername/alphalab/internal/models"
)

// CachedProvider memoizes fetches so repeated runs over the same range, as
// the robustness suite performs, hit the upstream provider once per symbol.
type CachedProvider struct {
	inner Provider
	cache *gocache.Cache
}

// NewCachedProvider wraps a provider with an in-memory TTL cache.
func NewCachedProvider(inner Provider, ttl time.Duration) *CachedProvider {
	return &CachedProvider{
		inner: inner,
		cache: gocache.New(ttl, 10*time.Minute),
	}
}

// Name returns the wrapped provider's identifier.
func (p *CachedProvider) Name() string {
	return p.inner.Name()
}

// FetchOHLCV serves from cache when possible, keyed by symbol and range.
func (p *CachedProvider) FetchOHLCV(ctx context.Context, symbol string, start, end time.Time) (*models.PriceSeries, error) {
	key := fmt.Sprintf("%s|%s|%s", symbol, start.Format("2006-01-02"), end.Format("2006-01-02"))
	if cached, found := p.cache.Get(key); found {
		return cached.(*models.PriceSeries), nil
	}

	series, err := p.inner.FetchOHLCV(ctx, symbol, start, end)
	if err != nil {
		return nil, err
	}
	p.cache.Set(key, series, gocache.DefaultExpiration)
	return series, nil
}
