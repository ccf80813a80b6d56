package models

import (
	"time"
)

// Source labels where a reading came from. Synthetic readings are
// deterministic stand-ins used when a provider is unavailable; they are
// always flagged so downstream consumers can see data provenance.
type Source string

const (
	SourceLive      Source = "LIVE"
	SourceSynthetic Source = "SYNTHETIC"
)

// Condition is the normalized weather condition category.
type Condition string

const (
	ConditionClear    Condition = "Clear"
	ConditionRain     Condition = "Rain"
	ConditionFog      Condition = "Fog"
	ConditionOvercast Condition = "Overcast"
	ConditionWindy    Condition = "Windy"
)

// Impact is the qualitative impact level of a contributing factor.
type Impact string

const (
	ImpactLow    Impact = "Low"
	ImpactMedium Impact = "Medium"
	ImpactHigh   Impact = "High"
)

// Area is a monitored location. Loaded once at startup, never mutated.
// BaselineCongestion is the static historical average congestion for the
// area (0 means no baseline is available).
type Area struct {
	Name               string   `json:"name"`
	Aliases            []string `json:"aliases"`
	Latitude           float64  `json:"lat"`
	Longitude          float64  `json:"lon"`
	BaselineCongestion float64  `json:"-"`
	Hotspot            bool     `json:"-"`
}

// TrafficReading is a point-in-time traffic snapshot for an area.
// Immutable once constructed.
type TrafficReading struct {
	Area            string    `json:"area"`
	CongestionPct   float64   `json:"congestion_level"`
	Category        string    `json:"congestion_category"`
	CurrentSpeed    float64   `json:"current_speed"`
	FreeFlowSpeed   float64   `json:"free_flow_speed"`
	TravelTimeIndex float64   `json:"travel_time_index"`
	RoadClosure     bool      `json:"road_closure"`
	Source          Source    `json:"source"`
	FetchedAt       time.Time `json:"fetched_at"`
	// Baseline carries the area's static historical average congestion so
	// the attribution engine can stay decoupled from the registry.
	// Zero means no baseline is available.
	Baseline float64 `json:"-"`
}

// WeatherReading is a point-in-time weather snapshot for an area.
type WeatherReading struct {
	Area         string    `json:"area"`
	Condition    Condition `json:"condition"`
	TemperatureC float64   `json:"temperature_c"`
	Source       Source    `json:"source"`
	FetchedAt    time.Time `json:"fetched_at"`
}

// Factor is one attributed cause of the observed congestion.
type Factor struct {
	Name            string  `json:"factor"`
	Description     string  `json:"description"`
	ContributionPct float64 `json:"contribution_pct"`
	Impact          Impact  `json:"impact"`
	Confidence      float64 `json:"confidence"`
	Citation        string  `json:"citation"`
}

// TimeContext captures the time-of-day pattern context for a request.
type TimeContext struct {
	Now        time.Time
	Period     string
	PeakWindow bool
	IsWeekend  bool
}

// IsPeak reports whether this is a weekday peak-hour window, the condition
// that drives the high time-pattern contribution.
func (tc TimeContext) IsPeak() bool {
	return tc.PeakWindow && !tc.IsWeekend
}

// ConfidenceResult is the aggregated confidence for one explanation.
type ConfidenceResult struct {
	Overall          float64            `json:"overall"`
	Grade            string             `json:"grade"`
	Components       map[string]float64 `json:"components"`
	UncertaintyFlags []string           `json:"uncertainty_flags"`
}

// ExplanationResult is the terminal artifact returned to the caller.
// EvidenceText is consumed verbatim by the downstream generator.
type ExplanationResult struct {
	Area         Area             `json:"area"`
	Traffic      TrafficReading   `json:"traffic"`
	Weather      WeatherReading   `json:"weather"`
	Factors      []Factor         `json:"factors"`
	Confidence   ConfidenceResult `json:"confidence"`
	EvidenceText string           `json:"evidence_text"`
	GeneratedAt  time.Time        `json:"generated_at"`
}

// CongestionCategory maps a congestion percentage to its label.
func CongestionCategory(level float64) string {
	switch {
	case level < 30:
		return "Light"
	case level < 60:
		return "Moderate"
	case level < 85:
		return "Heavy"
	default:
		return "Severe"
	}
}
