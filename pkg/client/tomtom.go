package client

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"
)

// FlowSegment is the subset of the TomTom flow-segment response the
// service consumes.
type FlowSegment struct {
	CurrentSpeed  float64
	FreeFlowSpeed float64
	RoadClosure   bool
}

// TomTomClient fetches live traffic flow from the TomTom Traffic API.
type TomTomClient struct {
	*BaseClient
	baseURL string
	apiKey  string
}

type tomTomFlowResponse struct {
	FlowSegmentData struct {
		CurrentSpeed  float64 `json:"currentSpeed"`
		FreeFlowSpeed float64 `json:"freeFlowSpeed"`
		RoadClosure   bool    `json:"roadClosure"`
	} `json:"flowSegmentData"`
}

func NewTomTomClient(apiKey string, config ClientConfig, logger *zap.Logger) *TomTomClient {
	return &TomTomClient{
		BaseClient: NewBaseClient("tomtom", config, logger),
		baseURL:    "https://api.tomtom.com",
		apiKey:     apiKey,
	}
}

// NewTomTomClientWithURL points the client at a custom base URL, used for
// stub servers in tests.
func NewTomTomClientWithURL(apiKey, baseURL string, config ClientConfig, logger *zap.Logger) *TomTomClient {
	c := NewTomTomClient(apiKey, config, logger)
	c.baseURL = baseURL
	return c
}

// FlowSegment fetches the nearest road segment's current and free-flow
// speeds for a coordinate.
func (c *TomTomClient) FlowSegment(ctx context.Context, lat, lon float64) (FlowSegment, error) {
	url := fmt.Sprintf(
		"%s/traffic/services/4/flowSegmentData/relative/10/json?key=%s&point=%.4f,%.4f&unit=KMPH",
		c.baseURL, c.apiKey, lat, lon)

	data, err := c.GetWithRetry(ctx, url)
	if err != nil {
		return FlowSegment{}, fmt.Errorf("failed to fetch traffic flow: %w", err)
	}

	var response tomTomFlowResponse
	if err := json.Unmarshal(data, &response); err != nil {
		return FlowSegment{}, fmt.Errorf("failed to parse flow response: %w", err)
	}

	flow := response.FlowSegmentData
	if flow.FreeFlowSpeed <= 0 {
		return FlowSegment{}, fmt.Errorf("flow response missing free-flow speed")
	}

	return FlowSegment{
		CurrentSpeed:  flow.CurrentSpeed,
		FreeFlowSpeed: flow.FreeFlowSpeed,
		RoadClosure:   flow.RoadClosure,
	}, nil
}
