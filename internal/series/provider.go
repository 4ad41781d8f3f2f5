package series

import (
	"context"
	"log/slog"
	"time"

	"shademap/internal/types"
)

// Compile-time assertion that Provider implements types.SeriesProvider.
var _ types.SeriesProvider = (*Provider)(nil)

// Provider composes the simulator, the optional live client, and the
// optional cache behind the SeriesProvider contract.
//
// The simulator is the default active path. When PreferLive is set and a
// live client is configured, the provider attempts the archive fetch first
// and falls back to simulation on any upstream failure, so a caller always
// receives a series.
type Provider struct {
	sim        *Simulator
	live       *Client
	cache      *Cache
	preferLive bool
	logger     *slog.Logger
}

// ProviderConfig holds the dependencies for creating a Provider.
type ProviderConfig struct {
	Simulator  *Simulator
	Live       *Client // optional
	Cache      *Cache  // optional
	PreferLive bool
	Logger     *slog.Logger
}

// NewProvider creates a Provider. The simulator is mandatory; live client
// and cache are optional.
func NewProvider(cfg ProviderConfig) *Provider {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	sim := cfg.Simulator
	if sim == nil {
		sim = NewSimulator(0)
	}
	return &Provider{
		sim:        sim,
		live:       cfg.Live,
		cache:      cfg.Cache,
		preferLive: cfg.PreferLive,
		logger:     logger,
	}
}

// Series implements types.SeriesProvider.
func (p *Provider) Series(ctx context.Context, lat, lng float64, startDate, endDate time.Time, field string) (*types.Series, error) {
	if p.cache != nil {
		if s := p.cache.Get(ctx, lat, lng, startDate, endDate, field); s != nil {
			return s, nil
		}
	}

	var s *types.Series
	if p.preferLive && p.live != nil {
		fetched, err := p.live.FetchSeries(ctx, lat, lng, startDate, endDate, field)
		if err != nil {
			p.logger.WarnContext(ctx, "live series fetch failed, falling back to simulation",
				"field", field,
				"lat", lat,
				"lng", lng,
				"error", err,
			)
		} else {
			s = fetched
		}
	}

	if s == nil {
		generated, err := p.sim.Series(ctx, lat, lng, startDate, endDate, field)
		if err != nil {
			return nil, err
		}
		s = generated
	}

	if p.cache != nil {
		p.cache.Put(ctx, s, startDate, endDate)
	}
	return s, nil
}
