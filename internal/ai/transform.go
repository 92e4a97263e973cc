package ai

import (
	"context"
	"errors"

	"google.golang.org/genai"
)

// ErrNoImage is returned when the image model answers without image bytes.
var ErrNoImage = errors.New("model returned no image")

// TransformImage sends a JPEG plus an editing prompt to the image model and
// returns the PNG bytes of the first image part in the answer.
func (c *Client) TransformImage(ctx context.Context, image []byte, prompt string) ([]byte, error) {
	content := genai.NewContentFromParts([]*genai.Part{
		genai.NewPartFromBytes(image, "image/jpeg"),
		genai.NewPartFromText(prompt),
	}, genai.RoleUser)

	return withRetry(func() ([]byte, error) {
		resp, err := c.genc.Models.GenerateContent(ctx, modelImage, []*genai.Content{content}, nil)
		if err != nil {
			return nil, err
		}
		for _, cand := range resp.Candidates {
			if cand.Content == nil {
				continue
			}
			for _, part := range cand.Content.Parts {
				if part.InlineData != nil && len(part.InlineData.Data) > 0 {
					return part.InlineData.Data, nil
				}
			}
		}
		return nil, ErrNoImage
	})
}
