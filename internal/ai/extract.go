package ai

import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/genai"
)

// ReceiptScan is the structured result of reading a purchase receipt.
type ReceiptScan struct {
	Vendor     string  `json:"vendor"`
	Date       string  `json:"date,omitempty"`
	Category   string  `json:"category"`
	Amount     float64 `json:"amount"`
	Currency   string  `json:"currency,omitempty"`
	Confidence float64 `json:"confidence"`
}

// UtilityBillScan is the metered consumption read off a utility bill.
type UtilityBillScan struct {
	Provider   string  `json:"provider"`
	Units      float64 `json:"units"`
	Confidence float64 `json:"confidence"`
}

// PUCScan holds the identifiers read off a pollution-under-control
// certificate.
type PUCScan struct {
	PUCNumber     string  `json:"pucNumber"`
	CertificateNo string  `json:"certificateNo"`
	Confidence    float64 `json:"confidence"`
}

var receiptSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"vendor":     {Type: genai.TypeString},
		"date":       {Type: genai.TypeString},
		"category":   {Type: genai.TypeString},
		"amount":     {Type: genai.TypeNumber},
		"currency":   {Type: genai.TypeString},
		"confidence": {Type: genai.TypeNumber},
	},
	Required: []string{"vendor", "amount", "category", "confidence"},
}

var utilityBillSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"provider":   {Type: genai.TypeString},
		"units":      {Type: genai.TypeNumber},
		"confidence": {Type: genai.TypeNumber},
	},
	Required: []string{"provider", "units", "confidence"},
}

var pucSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"pucNumber":     {Type: genai.TypeString},
		"certificateNo": {Type: genai.TypeString},
		"confidence":    {Type: genai.TypeNumber},
	},
	Required: []string{"pucNumber", "certificateNo", "confidence"},
}

// ProcessReceipt extracts vendor, category and amount from a receipt image.
func (c *Client) ProcessReceipt(ctx context.Context, image []byte) (ReceiptScan, error) {
	return extract[ReceiptScan](ctx, c, image, "image/jpeg",
		"Extract: Vendor, Date, Category, Amount. JSON.", receiptSchema)
}

// ProcessUtilityBill extracts the billed kWh from a utility bill image or
// PDF page.
func (c *Client) ProcessUtilityBill(ctx context.Context, doc []byte, mimeType string) (UtilityBillScan, error) {
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	return extract[UtilityBillScan](ctx, c, doc, mimeType, "Extract kWh. JSON.", utilityBillSchema)
}

// ProcessPUCCertificate extracts the PUC and certificate numbers from a
// certificate photo.
func (c *Client) ProcessPUCCertificate(ctx context.Context, image []byte) (PUCScan, error) {
	return extract[PUCScan](ctx, c, image, "image/jpeg",
		"Extract PUC Number and Certificate Number. JSON.", pucSchema)
}

// extract runs one structured vision extraction. An empty model response
// yields the zero value, not an error; the caller sees a zero confidence
// and treats the scan as unreadable.
func extract[T any](ctx context.Context, c *Client, data []byte, mimeType, prompt string, schema *genai.Schema) (T, error) {
	content := genai.NewContentFromParts([]*genai.Part{
		genai.NewPartFromBytes(data, mimeType),
		genai.NewPartFromText(prompt),
	}, genai.RoleUser)

	cfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   schema,
	}
	return withRetry(func() (T, error) {
		var out T
		resp, err := c.genc.Models.GenerateContent(ctx, modelFlagship, []*genai.Content{content}, cfg)
		if err != nil {
			return out, err
		}
		text := resp.Text()
		if text == "" {
			return out, nil
		}
		if err := json.Unmarshal([]byte(text), &out); err != nil {
			return out, fmt.Errorf("decode scan: %w", err)
		}
		return out, nil
	})
}
