package client

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"traffic-insight/internal/models"

	"go.uber.org/zap"
)

// CurrentConditions is the normalized weather snapshot consumed by the
// gateway.
type CurrentConditions struct {
	Condition    models.Condition
	TemperatureC float64
}

// OpenWeatherClient fetches current conditions from OpenWeatherMap.
type OpenWeatherClient struct {
	*BaseClient
	baseURL string
	apiKey  string
}

type openWeatherResponse struct {
	Weather []struct {
		Main        string `json:"main"`
		Description string `json:"description"`
	} `json:"weather"`
	Main struct {
		Temp float64 `json:"temp"`
	} `json:"main"`
}

func NewOpenWeatherClient(apiKey string, config ClientConfig, logger *zap.Logger) *OpenWeatherClient {
	return &OpenWeatherClient{
		BaseClient: NewBaseClient("openweather", config, logger),
		baseURL:    "https://api.openweathermap.org",
		apiKey:     apiKey,
	}
}

// NewOpenWeatherClientWithURL points the client at a custom base URL, used
// for stub servers in tests.
func NewOpenWeatherClientWithURL(apiKey, baseURL string, config ClientConfig, logger *zap.Logger) *OpenWeatherClient {
	c := NewOpenWeatherClient(apiKey, config, logger)
	c.baseURL = baseURL
	return c
}

// CurrentWeather fetches and normalizes the current conditions for a
// coordinate.
func (c *OpenWeatherClient) CurrentWeather(ctx context.Context, lat, lon float64) (CurrentConditions, error) {
	url := fmt.Sprintf(
		"%s/data/2.5/weather?lat=%.4f&lon=%.4f&appid=%s&units=metric",
		c.baseURL, lat, lon, c.apiKey)

	data, err := c.GetWithRetry(ctx, url)
	if err != nil {
		return CurrentConditions{}, fmt.Errorf("failed to fetch weather: %w", err)
	}

	var response openWeatherResponse
	if err := json.Unmarshal(data, &response); err != nil {
		return CurrentConditions{}, fmt.Errorf("failed to parse weather response: %w", err)
	}

	main := ""
	if len(response.Weather) > 0 {
		main = response.Weather[0].Main
	}

	return CurrentConditions{
		Condition:    mapCondition(main),
		TemperatureC: response.Main.Temp,
	}, nil
}

// mapCondition folds OpenWeatherMap's condition groups into the categories
// the attribution engine understands.
func mapCondition(main string) models.Condition {
	switch m := strings.ToLower(main); {
	case strings.Contains(m, "rain"), strings.Contains(m, "drizzle"), strings.Contains(m, "thunder"):
		return models.ConditionRain
	case strings.Contains(m, "fog"), strings.Contains(m, "mist"), strings.Contains(m, "haze"):
		return models.ConditionFog
	case strings.Contains(m, "cloud"):
		return models.ConditionOvercast
	case strings.Contains(m, "squall"), strings.Contains(m, "wind"), strings.Contains(m, "storm"):
		return models.ConditionWindy
	default:
		return models.ConditionClear
	}
}
