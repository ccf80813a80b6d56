package services

import (
	"context"
	"math"
	"time"

	"traffic-insight/internal/models"
	"traffic-insight/internal/observability"
	"traffic-insight/pkg/client"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// TrafficProvider is the upstream traffic-flow source. Nil means the
// provider is unconfigured and the gateway always synthesizes.
type TrafficProvider interface {
	FlowSegment(ctx context.Context, lat, lon float64) (client.FlowSegment, error)
}

// WeatherProvider is the upstream weather source.
type WeatherProvider interface {
	CurrentWeather(ctx context.Context, lat, lon float64) (client.CurrentConditions, error)
}

type GatewayConfig struct {
	LiveTTL         time.Duration
	SyntheticTTL    time.Duration
	UpstreamTimeout time.Duration
	CacheMaxSize    int
}

// Gateway fetches live readings per area with caching, per-key
// single-flight deduplication, and deterministic synthetic fallback.
// Upstream failures never propagate to callers; they surface only as
// SYNTHETIC readings with a shorter cache TTL so real data is retried
// sooner.
type Gateway struct {
	traffic TrafficProvider
	weather WeatherProvider
	cache   *readingCache
	flights singleflight.Group
	clock   clockwork.Clock
	cfg     GatewayConfig
	metrics *observability.Metrics
	logger  *zap.Logger
}

func NewGateway(
	traffic TrafficProvider,
	weather WeatherProvider,
	cfg GatewayConfig,
	clock clockwork.Clock,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *Gateway {
	if cfg.CacheMaxSize <= 0 {
		cfg.CacheMaxSize = 256
	}
	return &Gateway{
		traffic: traffic,
		weather: weather,
		cache:   newReadingCache(cfg.CacheMaxSize, clock, logger),
		clock:   clock,
		cfg:     cfg,
		metrics: metrics,
		logger:  logger,
	}
}

// Fetch returns traffic and weather readings for an area. The only error
// it can return is the caller's context error; provider failures are
// absorbed into synthetic readings.
func (g *Gateway) Fetch(ctx context.Context, area models.Area) (models.TrafficReading, models.WeatherReading, error) {
	traffic, err := g.fetchTraffic(ctx, area)
	if err != nil {
		return models.TrafficReading{}, models.WeatherReading{}, err
	}
	weather, err := g.fetchWeather(ctx, area)
	if err != nil {
		return models.TrafficReading{}, models.WeatherReading{}, err
	}
	return traffic, weather, nil
}

func (g *Gateway) fetchTraffic(ctx context.Context, area models.Area) (models.TrafficReading, error) {
	key := area.Name + "\x00traffic"

	if cached, ok := g.cache.get(key); ok {
		g.metrics.CacheLookups.WithLabelValues("traffic", "hit").Inc()
		return cached.(models.TrafficReading), nil
	}
	g.metrics.CacheLookups.WithLabelValues("traffic", "miss").Inc()

	// DoChan + detached fetch context: if this caller goes away, the
	// shared flight still completes and populates the cache for the next
	// caller. Cancellation only abandons the wait.
	ch := g.flights.DoChan(key, func() (interface{}, error) {
		reading := g.loadTraffic(area)
		g.cache.put(key, reading, g.ttlFor(reading.Source))
		return reading, nil
	})

	select {
	case res := <-ch:
		return res.Val.(models.TrafficReading), nil
	case <-ctx.Done():
		return models.TrafficReading{}, ctx.Err()
	}
}

func (g *Gateway) fetchWeather(ctx context.Context, area models.Area) (models.WeatherReading, error) {
	key := area.Name + "\x00weather"

	if cached, ok := g.cache.get(key); ok {
		g.metrics.CacheLookups.WithLabelValues("weather", "hit").Inc()
		return cached.(models.WeatherReading), nil
	}
	g.metrics.CacheLookups.WithLabelValues("weather", "miss").Inc()

	ch := g.flights.DoChan(key, func() (interface{}, error) {
		reading := g.loadWeather(area)
		g.cache.put(key, reading, g.ttlFor(reading.Source))
		return reading, nil
	})

	select {
	case res := <-ch:
		return res.Val.(models.WeatherReading), nil
	case <-ctx.Done():
		return models.WeatherReading{}, ctx.Err()
	}
}

func (g *Gateway) ttlFor(source models.Source) time.Duration {
	if source == models.SourceSynthetic {
		return g.cfg.SyntheticTTL
	}
	return g.cfg.LiveTTL
}

func (g *Gateway) loadTraffic(area models.Area) models.TrafficReading {
	if g.traffic == nil {
		g.metrics.SyntheticFallbacks.WithLabelValues("traffic").Inc()
		return g.syntheticTraffic(area)
	}

	fctx, cancel := context.WithTimeout(context.Background(), g.cfg.UpstreamTimeout)
	defer cancel()

	start := g.clock.Now()
	flow, err := g.traffic.FlowSegment(fctx, area.Latitude, area.Longitude)
	g.metrics.UpstreamDuration.WithLabelValues("traffic").Observe(g.clock.Since(start).Seconds())
	if err != nil {
		g.metrics.UpstreamRequests.WithLabelValues("traffic", "error").Inc()
		g.metrics.SyntheticFallbacks.WithLabelValues("traffic").Inc()
		g.logger.Warn("Traffic provider failed, using synthetic data",
			zap.String("area", area.Name),
			zap.Error(err))
		return g.syntheticTraffic(area)
	}
	g.metrics.UpstreamRequests.WithLabelValues("traffic", "success").Inc()

	congestion := 0.0
	if flow.FreeFlowSpeed > 0 {
		congestion = clamp((1-flow.CurrentSpeed/flow.FreeFlowSpeed)*100, 0, 100)
	}

	return models.TrafficReading{
		Area:            area.Name,
		CongestionPct:   round1(congestion),
		Category:        models.CongestionCategory(congestion),
		CurrentSpeed:    round1(flow.CurrentSpeed),
		FreeFlowSpeed:   round1(flow.FreeFlowSpeed),
		TravelTimeIndex: travelTimeIndex(flow.CurrentSpeed, flow.FreeFlowSpeed),
		RoadClosure:     flow.RoadClosure,
		Source:          models.SourceLive,
		FetchedAt:       g.clock.Now(),
		Baseline:        area.BaselineCongestion,
	}
}

func (g *Gateway) loadWeather(area models.Area) models.WeatherReading {
	if g.weather == nil {
		g.metrics.SyntheticFallbacks.WithLabelValues("weather").Inc()
		return g.syntheticWeather(area)
	}

	fctx, cancel := context.WithTimeout(context.Background(), g.cfg.UpstreamTimeout)
	defer cancel()

	start := g.clock.Now()
	conditions, err := g.weather.CurrentWeather(fctx, area.Latitude, area.Longitude)
	g.metrics.UpstreamDuration.WithLabelValues("weather").Observe(g.clock.Since(start).Seconds())
	if err != nil {
		g.metrics.UpstreamRequests.WithLabelValues("weather", "error").Inc()
		g.metrics.SyntheticFallbacks.WithLabelValues("weather").Inc()
		g.logger.Warn("Weather provider failed, using synthetic data",
			zap.String("area", area.Name),
			zap.Error(err))
		return g.syntheticWeather(area)
	}
	g.metrics.UpstreamRequests.WithLabelValues("weather", "success").Inc()

	return models.WeatherReading{
		Area:         area.Name,
		Condition:    conditions.Condition,
		TemperatureC: round1(conditions.TemperatureC),
		Source:       models.SourceLive,
		FetchedAt:    g.clock.Now(),
	}
}

// syntheticTraffic generates a deterministic fallback reading from
// time-of-day and day-of-week patterns. No randomness: identical clock and
// area always yield identical readings.
func (g *Gateway) syntheticTraffic(area models.Area) models.TrafficReading {
	tc := NewTimeContext(g.clock.Now())

	congestion := 45.0
	if tc.IsPeak() {
		congestion = 75.0
	}
	if area.Hotspot {
		congestion = math.Min(95, congestion+10)
	}

	const freeFlow = 50.0
	current := freeFlow * (1 - congestion/100)

	return models.TrafficReading{
		Area:            area.Name,
		CongestionPct:   round1(congestion),
		Category:        models.CongestionCategory(congestion),
		CurrentSpeed:    round1(current),
		FreeFlowSpeed:   freeFlow,
		TravelTimeIndex: travelTimeIndex(current, freeFlow),
		Source:          models.SourceSynthetic,
		FetchedAt:       g.clock.Now(),
		Baseline:        area.BaselineCongestion,
	}
}

func (g *Gateway) syntheticWeather(area models.Area) models.WeatherReading {
	return models.WeatherReading{
		Area:         area.Name,
		Condition:    models.ConditionClear,
		TemperatureC: 26.0,
		Source:       models.SourceSynthetic,
		FetchedAt:    g.clock.Now(),
	}
}

// Stats exposes cache occupancy for the health endpoint.
func (g *Gateway) Stats() map[string]interface{} {
	return g.cache.stats()
}

func travelTimeIndex(current, freeFlow float64) float64 {
	if current <= 5 {
		return 3.0
	}
	return math.Round(freeFlow/current*100) / 100
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
