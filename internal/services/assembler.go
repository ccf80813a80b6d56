package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"traffic-insight/internal/models"
	"traffic-insight/internal/registry"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// Explainer runs the full pipeline for one resolved area: fetch readings,
// attribute factors, score confidence, assemble the result.
type Explainer struct {
	gateway *Gateway
	clock   clockwork.Clock
	liveTTL time.Duration
	logger  *zap.Logger
}

func NewExplainer(gateway *Gateway, liveTTL time.Duration, clock clockwork.Clock, logger *zap.Logger) *Explainer {
	return &Explainer{
		gateway: gateway,
		clock:   clock,
		liveTTL: liveTTL,
		logger:  logger,
	}
}

// Explain produces the structured explanation for a resolved location.
// The only possible error is context cancellation while waiting on the
// gateway.
func (e *Explainer) Explain(ctx context.Context, match registry.Match) (models.ExplanationResult, error) {
	traffic, weather, err := e.gateway.Fetch(ctx, match.Area)
	if err != nil {
		return models.ExplanationResult{}, err
	}

	now := e.clock.Now()
	tc := NewTimeContext(now)
	factors := Attribute(traffic, weather, tc)
	confidence := Score(ScoreInput{
		Factors:    factors,
		Traffic:    traffic,
		Weather:    weather,
		ExactMatch: match.Exact,
		Now:        now,
		LiveTTL:    e.liveTTL,
	})

	result := Assemble(match.Area, traffic, weather, tc, factors, confidence, now)

	e.logger.Info("Explanation assembled",
		zap.String("area", match.Area.Name),
		zap.Float64("congestion", traffic.CongestionPct),
		zap.Float64("confidence", confidence.Overall),
		zap.String("grade", confidence.Grade))

	return result, nil
}

// Assemble composes the final structured result and its evidence text.
// Deterministic given its inputs: generatedAt is the only timestamp and it
// is passed in, never read from a wall clock here.
func Assemble(
	area models.Area,
	traffic models.TrafficReading,
	weather models.WeatherReading,
	tc models.TimeContext,
	factors []models.Factor,
	confidence models.ConfidenceResult,
	generatedAt time.Time,
) models.ExplanationResult {
	return models.ExplanationResult{
		Area:         area,
		Traffic:      traffic,
		Weather:      weather,
		Factors:      factors,
		Confidence:   confidence,
		EvidenceText: evidenceText(area, traffic, weather, tc, factors, confidence, generatedAt),
		GeneratedAt:  generatedAt,
	}
}

// evidenceText renders the fixed-format block consumed verbatim by the
// downstream generator. Every number here traces back to a field on the
// readings or a factor; nothing is invented at render time.
func evidenceText(
	area models.Area,
	traffic models.TrafficReading,
	weather models.WeatherReading,
	tc models.TimeContext,
	factors []models.Factor,
	confidence models.ConfidenceResult,
	generatedAt time.Time,
) string {
	var b strings.Builder

	fmt.Fprintf(&b, "=== LIVE TRAFFIC DATA FOR %s ===\n", strings.ToUpper(area.Name))
	fmt.Fprintf(&b, "Timestamp: %s\n", generatedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "Traffic Source: %s\n", traffic.Source)
	fmt.Fprintf(&b, "Weather Source: %s\n", weather.Source)

	b.WriteString("\nCURRENT CONDITIONS:\n")
	fmt.Fprintf(&b, "- Congestion Level: %.1f%% (%s)\n", traffic.CongestionPct, traffic.Category)
	fmt.Fprintf(&b, "- Current Speed: %.1f km/h\n", traffic.CurrentSpeed)
	fmt.Fprintf(&b, "- Free Flow Speed: %.1f km/h\n", traffic.FreeFlowSpeed)
	fmt.Fprintf(&b, "- Travel Time Index: %.2fx normal\n", traffic.TravelTimeIndex)
	if traffic.RoadClosure {
		b.WriteString("- Road Closure: reported on segment\n")
	}

	b.WriteString("\nWEATHER CONDITIONS:\n")
	fmt.Fprintf(&b, "- Condition: %s\n", weather.Condition)
	fmt.Fprintf(&b, "- Temperature: %.1f C\n", weather.TemperatureC)

	b.WriteString("\nTIME CONTEXT:\n")
	fmt.Fprintf(&b, "- Time: %s\n", tc.Now.Format("15:04"))
	fmt.Fprintf(&b, "- Day: %s\n", tc.Now.Weekday())
	fmt.Fprintf(&b, "- Period: %s\n", tc.Period)
	fmt.Fprintf(&b, "- Peak Hour: %s\n", yesNo(tc.IsPeak()))

	b.WriteString("\nCONTRIBUTING FACTORS:\n")
	for _, f := range factors {
		fmt.Fprintf(&b, "- %s: %.0f%% contribution (%s impact) - %s [Source: %s]\n",
			f.Name, f.ContributionPct, f.Impact, f.Description, f.Citation)
	}

	fmt.Fprintf(&b, "\nANALYSIS CONFIDENCE: %.0f%% (Grade %s)\n", confidence.Overall*100, confidence.Grade)
	if len(confidence.UncertaintyFlags) > 0 {
		fmt.Fprintf(&b, "Uncertainty flags: %s\n", strings.Join(confidence.UncertaintyFlags, ", "))
	}

	return b.String()
}

func yesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}
