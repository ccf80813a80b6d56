package api

import (
	"strings"
	"time"

	"traffic-insight/internal/models"
	"traffic-insight/internal/registry"
	"traffic-insight/internal/services"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Error kinds surfaced in structured error bodies. Upstream provider
// failures never appear here; those are absorbed as synthetic readings.
const (
	kindInvalidQuery     = "invalid_query"
	kindLocationNotFound = "location_not_found"
)

// ProviderStatus reports which upstream credentials are configured. Key
// values themselves are never exposed.
type ProviderStatus struct {
	TrafficConfigured bool
	WeatherConfigured bool
}

type Handler struct {
	registry  *registry.Registry
	explainer *services.Explainer
	gateway   *services.Gateway
	providers ProviderStatus
	logger    *zap.Logger
}

func NewHandler(
	reg *registry.Registry,
	explainer *services.Explainer,
	gateway *services.Gateway,
	providers ProviderStatus,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		registry:  reg,
		explainer: explainer,
		gateway:   gateway,
		providers: providers,
		logger:    logger,
	}
}

// explanationResponse is the JSON shape of the primary endpoint. The
// context_for_prompt field is the opaque evidence text the downstream
// generator splices into its prompt.
type explanationResponse struct {
	Location         string                  `json:"location"`
	LocationFound    bool                    `json:"location_found"`
	QueryReceived    string                  `json:"query_received,omitempty"`
	ContextForPrompt string                  `json:"context_for_prompt"`
	Traffic          models.TrafficReading   `json:"traffic_data"`
	Weather          models.WeatherReading   `json:"weather"`
	Factors          []models.Factor         `json:"factors"`
	Confidence       models.ConfidenceResult `json:"confidence"`
	Timestamp        time.Time               `json:"timestamp"`
}

type notFoundResponse struct {
	Location      string   `json:"location"`
	LocationFound bool     `json:"location_found"`
	QueryReceived string   `json:"query_received"`
	KnownAreas    []string `json:"known_areas"`
	Tip           string   `json:"tip"`
}

func errorBody(kind, message string) fiber.Map {
	return fiber.Map{"error": fiber.Map{"kind": kind, "message": message}}
}

// GetSmartTraffic handles GET /smart-traffic?query= — the primary
// endpoint. An unresolved location is a normal outcome and returns 200
// with location_found=false; only an empty query is a client error.
func (h *Handler) GetSmartTraffic(c *fiber.Ctx) error {
	query := strings.TrimSpace(c.Query("query"))
	if query == "" {
		return c.Status(fiber.StatusBadRequest).
			JSON(errorBody(kindInvalidQuery, "query parameter is required"))
	}

	match, found := h.registry.Resolve(query)
	if !found {
		return c.JSON(notFoundResponse{
			LocationFound: false,
			QueryReceived: query,
			KnownAreas:    h.registry.Names(),
			Tip:           "Ask about a specific area, e.g. Koramangala or Silk Board",
		})
	}

	result, err := h.explainer.Explain(c.Context(), match)
	if err != nil {
		return err
	}

	return c.JSON(h.toResponse(result, query))
}

// GetResolve handles GET /resolve?query= — location resolution only.
func (h *Handler) GetResolve(c *fiber.Ctx) error {
	query := strings.TrimSpace(c.Query("query"))
	if query == "" {
		return c.Status(fiber.StatusBadRequest).
			JSON(errorBody(kindInvalidQuery, "query parameter is required"))
	}

	match, found := h.registry.Resolve(query)
	if !found {
		return c.JSON(fiber.Map{"location": "", "location_found": false})
	}
	return c.JSON(fiber.Map{"location": match.Area.Name, "location_found": true})
}

// GetLiveData handles GET /live-data?query= — same computation as
// /smart-traffic but returns the evidence text as a plain-text body for
// callers that cannot parse JSON.
func (h *Handler) GetLiveData(c *fiber.Ctx) error {
	query := strings.TrimSpace(c.Query("query"))
	if query == "" {
		return c.Status(fiber.StatusBadRequest).
			JSON(errorBody(kindInvalidQuery, "query parameter is required"))
	}

	c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)

	match, found := h.registry.Resolve(query)
	if !found {
		return c.SendString("No monitored area matched the query. Known areas: " +
			strings.Join(h.registry.Names(), ", ") + "\n")
	}

	result, err := h.explainer.Explain(c.Context(), match)
	if err != nil {
		return err
	}
	return c.SendString(result.EvidenceText)
}

// GetAnalyze handles GET /analyze/:location — direct area lookup that
// bypasses free-text extraction. Dashes and underscores in the path are
// treated as spaces.
func (h *Handler) GetAnalyze(c *fiber.Ctx) error {
	raw := c.Params("location")
	name, err := fiberParamUnescape(raw)
	if err != nil || strings.TrimSpace(name) == "" {
		return c.Status(fiber.StatusBadRequest).
			JSON(errorBody(kindInvalidQuery, "location path parameter is required"))
	}

	match, found := h.registry.Lookup(name)
	if !found {
		return c.Status(fiber.StatusNotFound).
			JSON(errorBody(kindLocationNotFound, "unknown area; use /areas to list monitored areas"))
	}

	result, err := h.explainer.Explain(c.Context(), match)
	if err != nil {
		return err
	}
	return c.JSON(h.toResponse(result, ""))
}

// GetAreas handles GET /areas.
func (h *Handler) GetAreas(c *fiber.Ctx) error {
	names := h.registry.Names()
	return c.JSON(fiber.Map{
		"areas": names,
		"count": len(names),
		"city":  "Bangalore",
	})
}

// GetStatus handles GET /api/status — per-provider credential health.
func (h *Handler) GetStatus(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"providers": fiber.Map{
			"traffic": providerState(h.providers.TrafficConfigured),
			"weather": providerState(h.providers.WeatherConfigured),
		},
	})
}

// GetHealth handles GET /api/v1/health.
func (h *Handler) GetHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "healthy",
		"uptime": time.Since(startTime).String(),
		"cache":  h.gateway.Stats(),
	})
}

func (h *Handler) toResponse(result models.ExplanationResult, query string) explanationResponse {
	return explanationResponse{
		Location:         result.Area.Name,
		LocationFound:    true,
		QueryReceived:    query,
		ContextForPrompt: result.EvidenceText,
		Traffic:          result.Traffic,
		Weather:          result.Weather,
		Factors:          result.Factors,
		Confidence:       result.Confidence,
		Timestamp:        result.GeneratedAt,
	}
}

func providerState(configured bool) string {
	if configured {
		return "configured"
	}
	return "missing"
}

func fiberParamUnescape(raw string) (string, error) {
	// Fiber keeps percent-encoding in path params; spaces commonly arrive
	// as %20, dashes, or underscores.
	name := strings.NewReplacer("%20", " ", "-", " ", "_", " ").Replace(raw)
	return name, nil
}

var startTime = time.Now()
