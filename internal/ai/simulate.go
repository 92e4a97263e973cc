package ai

import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/genai"
)

// SimulationVariables are the three sandbox sliders, each 0 to 100 percent.
type SimulationVariables struct {
	EVTransition    int `json:"evTransition"`
	RenewableEnergy int `json:"renewableEnergy"`
	RemoteWork      int `json:"remoteWork"`
}

// Simulation is a five-year projection comparing the current trajectory
// against the optimized one the sliders describe.
type Simulation struct {
	ProjectedPath []SimulationYear `json:"projectedPath"`
	Summary       string           `json:"summary"`
}

type SimulationYear struct {
	Year                string  `json:"year"`
	CurrentTrajectory   float64 `json:"currentTrajectory"`
	OptimizedTrajectory float64 `json:"optimizedTrajectory"`
}

var simulationSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"projectedPath": {
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"year":                {Type: genai.TypeString},
					"currentTrajectory":   {Type: genai.TypeNumber},
					"optimizedTrajectory": {Type: genai.TypeNumber},
				},
				Required: []string{"year", "currentTrajectory", "optimizedTrajectory"},
			},
		},
		"summary": {Type: genai.TypeString},
	},
	Required: []string{"projectedPath", "summary"},
}

// WhatIfSimulation projects five years from a base total under the given
// transition percentages.
func (c *Client) WhatIfSimulation(ctx context.Context, baseTotal int, vars SimulationVariables) (*Simulation, error) {
	prompt := fmt.Sprintf("Simulation: Base %dkg. EV:%d%%, Renew:%d%%, Work:%d%%. 5yr JSON path.",
		baseTotal, vars.EVTransition, vars.RenewableEnergy, vars.RemoteWork)

	cfg := &genai.GenerateContentConfig{
		ThinkingConfig:   &genai.ThinkingConfig{ThinkingBudget: genai.Ptr[int32](0)},
		ResponseMIMEType: "application/json",
		ResponseSchema:   simulationSchema,
	}
	return withRetry(func() (*Simulation, error) {
		resp, err := c.genc.Models.GenerateContent(ctx, modelFlagship, genai.Text(prompt), cfg)
		if err != nil {
			return nil, err
		}
		text := resp.Text()
		if text == "" {
			text = "{}"
		}
		var out Simulation
		if err := json.Unmarshal([]byte(text), &out); err != nil {
			return nil, fmt.Errorf("decode simulation: %w", err)
		}
		return &out, nil
	})
}
