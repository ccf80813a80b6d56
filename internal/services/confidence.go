package services

import (
	"math"
	"time"

	"traffic-insight/internal/models"
)

// Sub-score weights. Fixed within a build for reproducibility; must sum
// to 1.0.
const (
	weightRecency     = 0.30
	weightReliability = 0.25
	weightPattern     = 0.25
	weightSpecificity = 0.20
)

// Sub-score names, also used as uncertainty flags when a component falls
// below the flag threshold.
const (
	subRecency     = "data_recency"
	subReliability = "source_reliability"
	subPattern     = "pattern_match"
	subSpecificity = "query_specificity"

	flagThreshold = 0.6

	partialMatchSpecificity = 0.8
	syntheticRecency        = 0.4
	syntheticReliability    = 0.5
)

// ScoreInput carries everything the scorer needs about how the request
// was resolved and fetched.
type ScoreInput struct {
	Factors    []models.Factor
	Traffic    models.TrafficReading
	Weather    models.WeatherReading
	ExactMatch bool
	Now        time.Time
	LiveTTL    time.Duration
}

// Score aggregates per-factor and per-source confidence into one overall
// score, a letter grade, and uncertainty flags naming any weak sub-score.
func Score(in ScoreInput) models.ConfidenceResult {
	components := map[string]float64{
		subRecency:     recencyScore(in),
		subReliability: reliabilityScore(in),
		subPattern:     patternScore(in.Factors),
		subSpecificity: specificityScore(in.ExactMatch),
	}

	overall := components[subRecency]*weightRecency +
		components[subReliability]*weightReliability +
		components[subPattern]*weightPattern +
		components[subSpecificity]*weightSpecificity
	overall = clamp(overall, 0, 1)

	var flags []string
	for _, name := range []string{subRecency, subReliability, subPattern, subSpecificity} {
		if components[name] < flagThreshold {
			flags = append(flags, name)
		}
	}

	for name, v := range components {
		components[name] = round2(v)
	}

	return models.ConfidenceResult{
		Overall:          round2(overall),
		Grade:            grade(overall),
		Components:       components,
		UncertaintyFlags: flags,
	}
}

// recencyScore is 1.0 for fresh live readings, decays linearly with age
// toward 0.5 at the live TTL, and drops hard for synthetic readings.
func recencyScore(in ScoreInput) float64 {
	return (readingRecency(in.Traffic.Source, in.Traffic.FetchedAt, in.Now, in.LiveTTL) +
		readingRecency(in.Weather.Source, in.Weather.FetchedAt, in.Now, in.LiveTTL)) / 2
}

func readingRecency(source models.Source, fetchedAt, now time.Time, ttl time.Duration) float64 {
	if source == models.SourceSynthetic {
		return syntheticRecency
	}
	if ttl <= 0 {
		return 1.0
	}
	age := now.Sub(fetchedAt)
	if age < 0 {
		age = 0
	}
	return clamp(1-0.5*float64(age)/float64(ttl), 0.5, 1)
}

func reliabilityScore(in ScoreInput) float64 {
	return (sourceReliability(in.Traffic.Source) + sourceReliability(in.Weather.Source)) / 2
}

func sourceReliability(source models.Source) float64 {
	if source == models.SourceSynthetic {
		return syntheticReliability
	}
	return 1.0
}

func patternScore(factors []models.Factor) float64 {
	if len(factors) == 0 {
		return 0.5
	}
	sum := 0.0
	for _, f := range factors {
		sum += f.Confidence
	}
	return sum / float64(len(factors))
}

func specificityScore(exact bool) float64 {
	if exact {
		return 1.0
	}
	return partialMatchSpecificity
}

func grade(overall float64) string {
	switch {
	case overall >= 0.85:
		return "A"
	case overall >= 0.70:
		return "B"
	case overall >= 0.55:
		return "C"
	default:
		return "D"
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
