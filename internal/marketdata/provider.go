// Package marketdata fetches daily continuous-contract OHLCV series.
package marketdata

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/yourusername/alphalab/internal/config"
	"github.com/yourusername/alphalab/internal/models"
)

// Provider fetches the daily bars of one symbol over an inclusive date range.
// Implementations return series that already satisfy the price series
// invariants.
type Provider interface {
	Name() string
	FetchOHLCV(ctx context.Context, symbol string, start, end time.Time) (*models.PriceSeries, error)
}

// FromConfig constructs the configured provider, wrapped in a cache when a
// positive TTL is set.
func FromConfig(cfg *config.Config, logger *logrus.Logger) (Provider, error) {
	var provider Provider
	switch cfg.Data.Provider {
	case "csv":
		provider = NewCSVProvider(cfg.Data.CSVDir, logger)
	case "eodhd":
		if cfg.Data.APIKey == "" {
			return nil, models.NewConfigError("data.api_key is required when data.provider is eodhd")
		}
		provider = NewEODHDProvider(cfg.Data.APIKey, logger)
	default:
		return nil, models.NewConfigError("unknown data provider %q", cfg.Data.Provider)
	}

	if cfg.Data.CacheTTLSeconds > 0 {
		provider = NewCachedProvider(provider, time.Duration(cfg.Data.CacheTTLSeconds)*time.Second)
	}
	return provider, nil
}

// FetchAll fetches every symbol concurrently and validates each series
// before returning. A single symbol failure fails the whole fetch.
func FetchAll(ctx context.Context, provider Provider, symbols []string, start, end time.Time) (map[string]*models.PriceSeries, error) {
	if len(symbols) == 0 {
		return nil, models.NewDataFetchError("no symbols requested")
	}

	var mu sync.Mutex
	data := make(map[string]*models.PriceSeries, len(symbols))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(4)
	for _, symbol := range symbols {
		symbol := symbol
		group.Go(func() error {
			series, err := provider.FetchOHLCV(groupCtx, symbol, start, end)
			if err != nil {
				return err
			}
			if err := series.Validate(); err != nil {
				return err
			}
			mu.Lock()
			data[symbol] = series
			mu.Unlock()
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	return data, nil
}
