package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"google.golang.org/genai"

	"github.com/omraut/carbon-terminal/internal/model"
)

// MLForecast is the structured six-month projection returned by the model.
type MLForecast struct {
	PredictedMonths []ForecastMonth `json:"predictedMonths"`
	ConfidenceScore float64         `json:"confidenceScore"`
	AnomalyDetected bool            `json:"anomalyDetected"`
	AnomalyReason   string          `json:"anomalyReason,omitempty"`
	Recommendation  string          `json:"recommendation,omitempty"`
}

type ForecastMonth struct {
	Month string  `json:"month"`
	Value float64 `json:"value"`
}

var forecastSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"predictedMonths": {
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"month": {Type: genai.TypeString},
					"value": {Type: genai.TypeNumber},
				},
				Required: []string{"month", "value"},
			},
		},
		"confidenceScore": {Type: genai.TypeNumber},
		"anomalyDetected": {Type: genai.TypeBoolean},
		"anomalyReason":   {Type: genai.TypeString},
		"recommendation":  {Type: genai.TypeString},
	},
	Required: []string{"predictedMonths", "confidenceScore", "anomalyDetected"},
}

// NeuralForecast projects the next six months from the latest record plus
// up to twelve months of history, oldest first. Thinking is disabled; the
// structured schema keeps latency low and output parseable.
func (c *Client) NeuralForecast(ctx context.Context, latest model.EmissionRecord, history []model.EmissionRecord) (*MLForecast, error) {
	type point struct {
		Total int    `json:"total"`
		Date  string `json:"date"`
	}
	sorted := append([]model.EmissionRecord(nil), history...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].CreatedAt.Before(sorted[j].CreatedAt) })
	if len(sorted) > 12 {
		sorted = sorted[len(sorted)-12:]
	}
	points := make([]point, 0, len(sorted))
	for _, h := range sorted {
		points = append(points, point{Total: h.Total, Date: h.CreatedAt.UTC().Format("2006-01-02")})
	}
	ctxJSON, err := json.Marshal(points)
	if err != nil {
		return nil, err
	}
	prompt := fmt.Sprintf("Predict next 6 months. Input: %d kg. History: %s. JSON format.", latest.Total, ctxJSON)

	cfg := &genai.GenerateContentConfig{
		ThinkingConfig:   &genai.ThinkingConfig{ThinkingBudget: genai.Ptr[int32](0)},
		ResponseMIMEType: "application/json",
		ResponseSchema:   forecastSchema,
	}
	return withRetry(func() (*MLForecast, error) {
		resp, err := c.genc.Models.GenerateContent(ctx, modelFlagship, genai.Text(prompt), cfg)
		if err != nil {
			return nil, err
		}
		text := resp.Text()
		if text == "" {
			return nil, nil
		}
		var out MLForecast
		if err := json.Unmarshal([]byte(text), &out); err != nil {
			return nil, fmt.Errorf("decode forecast: %w", err)
		}
		return &out, nil
	})
}
