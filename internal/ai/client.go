// Package ai wraps the Gemini API behind typed operations: narrative
// insights, forecasting, what-if simulation, grounded location search and
// document extraction. Every call goes through the shared retry policy so
// transient quota and availability errors never reach handlers raw.
package ai

import (
	"context"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

// Model assignments. The flagship model handles reasoning and structured
// extraction, the grounded model carries the search and maps tools, and the
// image model returns edited image bytes.
const (
	modelFlagship = "gemini-3-flash-preview"
	modelGrounded = "gemini-2.5-flash"
	modelImage    = "gemini-2.5-flash-image"
)

// Client is the terminal's Gemini adapter.
type Client struct {
	genc *genai.Client
	log  *zap.Logger
}

// New dials the Gemini API. The key comes from configuration; callers keep
// the whole adapter nil when no key is configured and the route layer
// answers 503 for AI endpoints in that mode.
func New(ctx context.Context, apiKey string, log *zap.Logger) (*Client, error) {
	genc, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, err
	}
	return &Client{genc: genc, log: log}, nil
}
