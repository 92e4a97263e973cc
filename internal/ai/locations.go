package ai

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// LatLng biases the grounded search toward the caller's position.
type LatLng struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lng"`
}

// LocationResult carries the model's narrative plus the grounding chunks
// backing it. Chunks are passed through untouched so the client can render
// source links exactly as the API returned them.
type LocationResult struct {
	Text   string                  `json:"text"`
	Chunks []*genai.GroundingChunk `json:"groundingChunks,omitempty"`
}

// LocationSustainability runs a maps-and-search grounded query for
// sustainability facilities near the given place. A nil location leaves the
// retrieval unbiased.
func (c *Client) LocationSustainability(ctx context.Context, query string, location *LatLng) (*LocationResult, error) {
	prompt := fmt.Sprintf("Find and analyze sustainability facilities or recycling centers at: %s.", query)

	cfg := &genai.GenerateContentConfig{
		Tools: []*genai.Tool{
			{GoogleMaps: &genai.GoogleMaps{}},
			{GoogleSearch: &genai.GoogleSearch{}},
		},
	}
	if location != nil {
		cfg.ToolConfig = &genai.ToolConfig{
			RetrievalConfig: &genai.RetrievalConfig{
				LatLng: &genai.LatLng{Latitude: &location.Latitude, Longitude: &location.Longitude},
			},
		}
	}

	return withRetry(func() (*LocationResult, error) {
		resp, err := c.genc.Models.GenerateContent(ctx, modelGrounded, genai.Text(prompt), cfg)
		if err != nil {
			return nil, err
		}
		out := &LocationResult{Text: resp.Text()}
		if len(resp.Candidates) > 0 && resp.Candidates[0].GroundingMetadata != nil {
			out.Chunks = resp.Candidates[0].GroundingMetadata.GroundingChunks
		}
		return out, nil
	})
}
