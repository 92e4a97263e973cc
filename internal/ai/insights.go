package ai

import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/genai"

	"github.com/omraut/carbon-terminal/internal/model"
)

// CarbonInsights produces a short markdown brief analysing one computed
// record. The raw model text is returned as-is for the client to render.
func (c *Client) CarbonInsights(ctx context.Context, rec model.EmissionRecord) (string, error) {
	payload, err := json.Marshal(rec)
	if err != nil {
		return "", err
	}
	prompt := fmt.Sprintf("Analyze: %s. Professional brief. Markdown.", payload)

	return withRetry(func() (string, error) {
		resp, err := c.genc.Models.GenerateContent(ctx, modelFlagship,
			genai.Text(prompt), nil)
		if err != nil {
			return "", err
		}
		text := resp.Text()
		if text == "" {
			text = "Analysis interrupted."
		}
		return text, nil
	})
}
