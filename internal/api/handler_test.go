package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"traffic-insight/internal/models"
	"traffic-insight/internal/observability"
	"traffic-insight/internal/registry"
	"traffic-insight/internal/services"
	"traffic-insight/pkg/client"

	"github.com/gofiber/fiber/v2"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fixedTraffic struct {
	flow client.FlowSegment
	err  error
}

func (f *fixedTraffic) FlowSegment(_ context.Context, _, _ float64) (client.FlowSegment, error) {
	return f.flow, f.err
}

type fixedWeather struct {
	conditions client.CurrentConditions
	err        error
}

func (f *fixedWeather) CurrentWeather(_ context.Context, _, _ float64) (client.CurrentConditions, error) {
	return f.conditions, f.err
}

// Tuesday 09:00, inside the morning peak window.
var peakTuesday = time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)

func testApp(traffic services.TrafficProvider, weather services.WeatherProvider) *fiber.App {
	logger := zap.NewNop()
	clock := clockwork.NewFakeClockAt(peakTuesday)

	gateway := services.NewGateway(traffic, weather, services.GatewayConfig{
		LiveTTL:         5 * time.Minute,
		SyntheticTTL:    time.Minute,
		UpstreamTimeout: 5 * time.Second,
		CacheMaxSize:    64,
	}, clock, observability.NewMetricsForTesting(), logger)

	explainer := services.NewExplainer(gateway, 5*time.Minute, clock, logger)

	handler := NewHandler(registry.New(logger), explainer, gateway, ProviderStatus{
		TrafficConfigured: traffic != nil,
		WeatherConfigured: weather != nil,
	}, logger)

	app := fiber.New()
	SetupRoutes(app, handler, logger)
	return app
}

func liveApp() *fiber.App {
	return testApp(
		&fixedTraffic{flow: client.FlowSegment{CurrentSpeed: 15, FreeFlowSpeed: 45}},
		&fixedWeather{conditions: client.CurrentConditions{Condition: models.ConditionRain, TemperatureC: 24.3}},
	)
}

func getJSON(t *testing.T, app *fiber.App, path string, out any) *http.Response {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil), -1)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if out != nil {
		require.NoError(t, json.Unmarshal(body, out), "body: %s", body)
	}
	return resp
}

func TestSmartTraffic_LiveRainPeak(t *testing.T) {
	app := liveApp()

	var body struct {
		Location         string                  `json:"location"`
		LocationFound    bool                    `json:"location_found"`
		QueryReceived    string                  `json:"query_received"`
		ContextForPrompt string                  `json:"context_for_prompt"`
		Traffic          models.TrafficReading   `json:"traffic_data"`
		Weather          models.WeatherReading   `json:"weather"`
		Factors          []models.Factor         `json:"factors"`
		Confidence       models.ConfidenceResult `json:"confidence"`
	}
	query := url.QueryEscape("Why is traffic at Silk Board so bad today?")
	resp := getJSON(t, app, "/smart-traffic?query="+query, &body)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Silk Board", body.Location)
	assert.True(t, body.LocationFound)
	assert.Equal(t, "Why is traffic at Silk Board so bad today?", body.QueryReceived)

	assert.Equal(t, models.SourceLive, body.Traffic.Source)
	assert.InDelta(t, 66.7, body.Traffic.CongestionPct, 0.1)
	assert.Equal(t, "Heavy", body.Traffic.Category)
	assert.Equal(t, models.ConditionRain, body.Weather.Condition)

	// Peak-hour rain: both time and weather are high-impact causes, and
	// the contributions account for exactly the whole picture.
	byName := map[string]models.Factor{}
	sum := 0.0
	for _, f := range body.Factors {
		byName[f.Name] = f
		sum += f.ContributionPct
	}
	assert.InDelta(t, 100, sum, 1)
	assert.Equal(t, models.ImpactHigh, byName["Time Pattern"].Impact)
	assert.Equal(t, models.ImpactHigh, byName["Weather Conditions"].Impact)

	assert.Contains(t, []string{"A", "B"}, body.Confidence.Grade)
	assert.Contains(t, body.ContextForPrompt, "=== LIVE TRAFFIC DATA FOR SILK BOARD ===")
}

func TestSmartTraffic_UnknownLocation(t *testing.T) {
	app := liveApp()

	var body struct {
		LocationFound bool     `json:"location_found"`
		QueryReceived string   `json:"query_received"`
		KnownAreas    []string `json:"known_areas"`
		Tip           string   `json:"tip"`
	}
	resp := getJSON(t, app, "/smart-traffic?query=Nowhereville", &body)

	// An unresolved location is a normal outcome, not an error.
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.False(t, body.LocationFound)
	assert.Equal(t, "Nowhereville", body.QueryReceived)
	assert.NotEmpty(t, body.KnownAreas)
	assert.Contains(t, body.KnownAreas, "Koramangala")
	assert.NotEmpty(t, body.Tip)
}

func TestSmartTraffic_EmptyQuery(t *testing.T) {
	app := liveApp()

	var body struct {
		Error struct {
			Kind    string `json:"kind"`
			Message string `json:"message"`
		} `json:"error"`
	}
	resp := getJSON(t, app, "/smart-traffic", &body)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "invalid_query", body.Error.Kind)

	resp = getJSON(t, app, "/smart-traffic?query=%20%20", &body)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSmartTraffic_FullySyntheticWithoutProviders(t *testing.T) {
	app := testApp(nil, nil)

	var body struct {
		LocationFound bool                    `json:"location_found"`
		Traffic       models.TrafficReading   `json:"traffic_data"`
		Weather       models.WeatherReading   `json:"weather"`
		Factors       []models.Factor         `json:"factors"`
		Confidence    models.ConfidenceResult `json:"confidence"`
	}
	resp := getJSON(t, app, "/smart-traffic?query=Koramangala", &body)

	// No credentials at all still yields a complete, clearly-labeled result.
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, body.LocationFound)
	assert.Equal(t, models.SourceSynthetic, body.Traffic.Source)
	assert.Equal(t, models.SourceSynthetic, body.Weather.Source)
	assert.NotEmpty(t, body.Factors)
	assert.NotEmpty(t, body.Confidence.Grade)
	assert.Contains(t, body.Confidence.UncertaintyFlags, "data_recency")
	assert.Contains(t, body.Confidence.UncertaintyFlags, "source_reliability")
}

func TestResolve(t *testing.T) {
	app := liveApp()

	var body struct {
		Location      string `json:"location"`
		LocationFound bool   `json:"location_found"`
	}
	resp := getJSON(t, app, "/resolve?query="+url.QueryEscape("how is the ORR"), &body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, body.LocationFound)
	assert.Equal(t, "Outer Ring Road", body.Location)

	resp = getJSON(t, app, "/resolve?query=Atlantis", &body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.False(t, body.LocationFound)
	assert.Empty(t, body.Location)
}

func TestLiveData_PlainText(t *testing.T) {
	app := liveApp()

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/live-data?query="+url.QueryEscape("Silk Board"), nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get(fiber.HeaderContentType), "text/plain")

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(body), "=== LIVE TRAFFIC DATA FOR SILK BOARD ==="))
	assert.Contains(t, string(body), "CONTRIBUTING FACTORS:")
}

func TestLiveData_UnknownLocationListsAreas(t *testing.T) {
	app := liveApp()

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/live-data?query=Nowhereville", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "No monitored area matched the query")
	assert.Contains(t, string(body), "Silk Board")
}

func TestAnalyze_DirectLookup(t *testing.T) {
	app := liveApp()

	var body struct {
		Location      string `json:"location"`
		LocationFound bool   `json:"location_found"`
	}
	resp := getJSON(t, app, "/analyze/silk-board", &body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, body.LocationFound)
	assert.Equal(t, "Silk Board", body.Location)

	resp = getJSON(t, app, "/analyze/Outer_Ring_Road", &body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Outer Ring Road", body.Location)
}

func TestAnalyze_UnknownLocation(t *testing.T) {
	app := liveApp()

	var body struct {
		Error struct {
			Kind string `json:"kind"`
		} `json:"error"`
	}
	resp := getJSON(t, app, "/analyze/atlantis", &body)

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "location_not_found", body.Error.Kind)
}

func TestAreas(t *testing.T) {
	app := liveApp()

	var body struct {
		Areas []string `json:"areas"`
		Count int      `json:"count"`
		City  string   `json:"city"`
	}
	resp := getJSON(t, app, "/areas", &body)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Bangalore", body.City)
	assert.Equal(t, len(body.Areas), body.Count)
	assert.Contains(t, body.Areas, "Silk Board")
	assert.Contains(t, body.Areas, "Koramangala")
}

func TestStatus_ProviderStates(t *testing.T) {
	var body struct {
		Providers struct {
			Traffic string `json:"traffic"`
			Weather string `json:"weather"`
		} `json:"providers"`
	}

	resp := getJSON(t, liveApp(), "/api/status", &body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "configured", body.Providers.Traffic)
	assert.Equal(t, "configured", body.Providers.Weather)

	resp = getJSON(t, testApp(nil, nil), "/api/status", &body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "missing", body.Providers.Traffic)
	assert.Equal(t, "missing", body.Providers.Weather)
}

func TestHealth(t *testing.T) {
	app := liveApp()

	var body struct {
		Status string `json:"status"`
	}
	resp := getJSON(t, app, "/api/v1/health", &body)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "healthy", body.Status)
}

func TestUnknownRoute(t *testing.T) {
	app := liveApp()

	var body struct {
		Error struct {
			Kind string `json:"kind"`
		} `json:"error"`
	}
	resp := getJSON(t, app, "/nope", &body)

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "not_found", body.Error.Kind)
}
