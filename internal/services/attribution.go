package services

import (
	"fmt"
	"math"
	"sort"

	"traffic-insight/internal/models"
)

// Knowledge-base citations attached to factors. Every emitted factor cites
// the guideline its rule came from.
const (
	citeTimePatterns    = "Time-Based Traffic Patterns Analysis, Section 1-2"
	citeWeatherImpact   = "Weather Impact on Traffic Congestion, Section 2-3"
	citeCongestionClass = "Traffic Congestion Classification Guidelines, Section 2"
	citeHistorical      = "Bangalore Historical Traffic Baselines, 2022-2024"
)

// Factor category names. Ordering ties break on this priority:
// time > weather > volume > historical.
const (
	factorTimePattern = "Time Pattern"
	factorWeather     = "Weather Conditions"
	factorVolume      = "Traffic Volume"
	factorHistorical  = "Historical Deviation"
)

var categoryPriority = map[string]int{
	factorTimePattern: 0,
	factorWeather:     1,
	factorVolume:      2,
	factorHistorical:  3,
}

// Base confidences per category; halved-down (x0.8) when the underlying
// reading is synthetic. The time factor derives from the clock, not a
// reading, so it is never reduced.
const (
	confidencePeakTime   = 0.95
	confidenceOffPeak    = 0.90
	confidenceWeather    = 0.88
	confidenceVolume     = 0.90
	confidenceHistorical = 0.85

	syntheticPenalty = 0.8
)

// rawFactor is a candidate before normalization. Impact levels derive from
// raw magnitudes, not normalized shares: normalization forces the shares
// to sum to 100, which would allow at most one HIGH factor and misrepresent
// a peak-hour downpour where both time and weather are strong causes.
type rawFactor struct {
	name        string
	description string
	raw         float64
	confidence  float64
	citation    string
}

// Attribute computes the weighted causal factors behind the observed
// congestion. Pure: no I/O, no clock reads, inputs never mutated.
// Contributions are normalized to sum to exactly 100 using
// largest-remainder rounding; zero-contribution categories are omitted.
func Attribute(live models.TrafficReading, weather models.WeatherReading, tc models.TimeContext) []models.Factor {
	candidates := make([]rawFactor, 0, 4)

	candidates = append(candidates, timeFactor(tc))

	if wf, ok := weatherFactor(weather); ok {
		candidates = append(candidates, wf)
	}
	if vf, ok := volumeFactor(live); ok {
		candidates = append(candidates, vf)
	}
	if hf, ok := historicalFactor(live); ok {
		candidates = append(candidates, hf)
	}

	return normalize(candidates)
}

func timeFactor(tc models.TimeContext) rawFactor {
	day := tc.Now.Weekday().String()

	switch {
	case tc.IsPeak():
		return rawFactor{
			name:        factorTimePattern,
			description: fmt.Sprintf("%s on %s", tc.Period, day),
			raw:         35,
			confidence:  confidencePeakTime,
			citation:    citeTimePatterns,
		}
	case tc.PeakWindow: // weekend peak window
		return rawFactor{
			name:        factorTimePattern,
			description: fmt.Sprintf("%s on %s (weekend)", tc.Period, day),
			raw:         15,
			confidence:  confidencePeakTime,
			citation:    citeTimePatterns,
		}
	default:
		return rawFactor{
			name:        factorTimePattern,
			description: fmt.Sprintf("%s - lower demand period", tc.Period),
			raw:         10,
			confidence:  confidenceOffPeak,
			citation:    citeTimePatterns,
		}
	}
}

var conditionContribution = map[models.Condition]float64{
	models.ConditionClear:    0,
	models.ConditionOvercast: 5,
	models.ConditionWindy:    10,
	models.ConditionRain:     30,
	models.ConditionFog:      40,
}

func weatherFactor(weather models.WeatherReading) (rawFactor, bool) {
	raw := conditionContribution[weather.Condition]
	if raw == 0 {
		return rawFactor{}, false
	}
	return rawFactor{
		name:        factorWeather,
		description: fmt.Sprintf("%s conditions reducing road speed", weather.Condition),
		raw:         raw,
		confidence:  applyPenalty(confidenceWeather, weather.Source),
		citation:    citeWeatherImpact,
	}, true
}

func volumeFactor(live models.TrafficReading) (rawFactor, bool) {
	ratio := 0.0
	if live.FreeFlowSpeed > 0 {
		ratio = 1 - live.CurrentSpeed/live.FreeFlowSpeed
	}
	raw := math.Min(30, math.Max(0, ratio*100*0.3))
	if raw == 0 {
		return rawFactor{}, false
	}
	return rawFactor{
		name:        factorVolume,
		description: fmt.Sprintf("Capacity utilization at %.0f%%", live.CongestionPct),
		raw:         raw,
		confidence:  applyPenalty(confidenceVolume, live.Source),
		citation:    citeCongestionClass,
	}, true
}

// historicalFactor needs a per-area baseline; areas without one omit the
// category entirely rather than substituting a placeholder.
func historicalFactor(live models.TrafficReading) (rawFactor, bool) {
	if live.Baseline <= 0 {
		return rawFactor{}, false
	}
	deviation := math.Abs(live.CongestionPct - live.Baseline)
	raw := math.Min(20, deviation/4)
	if raw == 0 {
		return rawFactor{}, false
	}
	direction := "above"
	if live.CongestionPct < live.Baseline {
		direction = "below"
	}
	return rawFactor{
		name:        factorHistorical,
		description: fmt.Sprintf("%.0f%% %s the %.0f%% historical average", deviation, direction, live.Baseline),
		raw:         raw,
		confidence:  applyPenalty(confidenceHistorical, live.Source),
		citation:    citeHistorical,
	}, true
}

func applyPenalty(confidence float64, source models.Source) float64 {
	if source == models.SourceSynthetic {
		return math.Round(confidence*syntheticPenalty*100) / 100
	}
	return confidence
}

// normalize converts raw magnitudes into contribution percentages summing
// to exactly 100 via largest-remainder rounding, then orders by descending
// contribution with category-priority tie breaks.
func normalize(candidates []rawFactor) []models.Factor {
	total := 0.0
	for _, c := range candidates {
		total += c.raw
	}
	if total == 0 {
		return nil
	}

	type share struct {
		idx       int
		floor     int
		remainder float64
	}
	shares := make([]share, len(candidates))
	floorSum := 0
	for i, c := range candidates {
		exact := c.raw / total * 100
		f := int(math.Floor(exact))
		shares[i] = share{idx: i, floor: f, remainder: exact - float64(f)}
		floorSum += f
	}

	// Hand out the leftover points to the largest remainders; priority
	// breaks remainder ties so the result is deterministic.
	sort.SliceStable(shares, func(a, b int) bool {
		if shares[a].remainder != shares[b].remainder {
			return shares[a].remainder > shares[b].remainder
		}
		return categoryPriority[candidates[shares[a].idx].name] < categoryPriority[candidates[shares[b].idx].name]
	})
	for i := 0; i < 100-floorSum; i++ {
		shares[i%len(shares)].floor++
	}

	factors := make([]models.Factor, 0, len(candidates))
	for _, s := range shares {
		c := candidates[s.idx]
		factors = append(factors, models.Factor{
			Name:            c.name,
			Description:     c.description,
			ContributionPct: float64(s.floor),
			Impact:          impactLevel(c.raw),
			Confidence:      c.confidence,
			Citation:        c.citation,
		})
	}

	sort.SliceStable(factors, func(a, b int) bool {
		if factors[a].ContributionPct != factors[b].ContributionPct {
			return factors[a].ContributionPct > factors[b].ContributionPct
		}
		return categoryPriority[factors[a].Name] < categoryPriority[factors[b].Name]
	})

	return factors
}

func impactLevel(raw float64) models.Impact {
	switch {
	case raw >= 30:
		return models.ImpactHigh
	case raw >= 15:
		return models.ImpactMedium
	default:
		return models.ImpactLow
	}
}
