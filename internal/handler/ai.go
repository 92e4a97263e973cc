package handler

import (
	"encoding/base64"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/omraut/carbon-terminal/internal/ai"
	"github.com/omraut/carbon-terminal/internal/history"
	"github.com/omraut/carbon-terminal/internal/model"
)

// AIHandler fronts the Gemini adapter. A nil Client means no API key was
// configured; every endpoint then answers 503 instead of panicking.
type AIHandler struct {
	Client  *ai.Client
	History *history.Service
	Log     *zap.Logger
}

func (h *AIHandler) ready(c echo.Context) error {
	if h.Client == nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "ai features not configured"})
	}
	return nil
}

func (h *AIHandler) fail(c echo.Context, op string, err error) error {
	h.Log.Warn("ai call failed", zap.String("op", op), zap.Error(err))
	return c.JSON(http.StatusBadGateway, echo.Map{"error": "upstream model unavailable"})
}

type insightsReq struct {
	Record model.EmissionRecord `json:"record"`
}

// Insights returns a markdown brief for one record.
func (h *AIHandler) Insights(c echo.Context) error {
	if err := h.ready(c); err != nil {
		return err
	}
	var req insightsReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	text, err := h.Client.CarbonInsights(c.Request().Context(), req.Record)
	if err != nil {
		return h.fail(c, "insights", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"text": text})
}

type forecastReq struct {
	Record model.EmissionRecord `json:"record"`
}

// Forecast projects six months ahead from the caller's stored history plus
// the record in the request.
func (h *AIHandler) Forecast(c echo.Context) error {
	if err := h.ready(c); err != nil {
		return err
	}
	var req forecastReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	uid, _, _ := identity(c)
	hist := h.History.History(c.Request().Context(), uid)

	out, err := h.Client.NeuralForecast(c.Request().Context(), req.Record, hist)
	if err != nil {
		return h.fail(c, "forecast", err)
	}
	if out == nil {
		return c.JSON(http.StatusOK, echo.Map{})
	}
	return c.JSON(http.StatusOK, out)
}

type simulateReq struct {
	BaseTotal int                    `json:"base_total"`
	Variables ai.SimulationVariables `json:"variables"`
}

// Simulate runs the five-year what-if projection.
func (h *AIHandler) Simulate(c echo.Context) error {
	if err := h.ready(c); err != nil {
		return err
	}
	var req simulateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	out, err := h.Client.WhatIfSimulation(c.Request().Context(), req.BaseTotal, req.Variables)
	if err != nil {
		return h.fail(c, "simulate", err)
	}
	return c.JSON(http.StatusOK, out)
}

type locationsReq struct {
	Query    string     `json:"query"`
	Location *ai.LatLng `json:"location"`
}

// Locations runs the grounded facilities search.
func (h *AIHandler) Locations(c echo.Context) error {
	if err := h.ready(c); err != nil {
		return err
	}
	var req locationsReq
	if err := c.Bind(&req); err != nil || req.Query == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "query required"})
	}
	out, err := h.Client.LocationSustainability(c.Request().Context(), req.Query, req.Location)
	if err != nil {
		return h.fail(c, "locations", err)
	}
	return c.JSON(http.StatusOK, out)
}

type scanReq struct {
	Data     string `json:"data"` // base64
	MimeType string `json:"mime_type"`
}

func (r scanReq) decode() ([]byte, error) {
	if r.Data == "" {
		return nil, errors.New("empty payload")
	}
	return base64.StdEncoding.DecodeString(r.Data)
}

// ScanReceipt extracts structured purchase data from a receipt photo.
func (h *AIHandler) ScanReceipt(c echo.Context) error {
	if err := h.ready(c); err != nil {
		return err
	}
	var req scanReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	img, err := req.decode()
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid image data"})
	}
	out, err := h.Client.ProcessReceipt(c.Request().Context(), img)
	if err != nil {
		return h.fail(c, "scan-receipt", err)
	}
	return c.JSON(http.StatusOK, out)
}

// ScanUtilityBill extracts the billed kWh from a bill image or PDF page.
func (h *AIHandler) ScanUtilityBill(c echo.Context) error {
	if err := h.ready(c); err != nil {
		return err
	}
	var req scanReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	doc, err := req.decode()
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid document data"})
	}
	out, err := h.Client.ProcessUtilityBill(c.Request().Context(), doc, req.MimeType)
	if err != nil {
		return h.fail(c, "scan-utility-bill", err)
	}
	return c.JSON(http.StatusOK, out)
}

// ScanPUC extracts certificate identifiers from a PUC photo.
func (h *AIHandler) ScanPUC(c echo.Context) error {
	if err := h.ready(c); err != nil {
		return err
	}
	var req scanReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	img, err := req.decode()
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid image data"})
	}
	out, err := h.Client.ProcessPUCCertificate(c.Request().Context(), img)
	if err != nil {
		return h.fail(c, "scan-puc", err)
	}
	return c.JSON(http.StatusOK, out)
}

type transformReq struct {
	Data   string `json:"data"` // base64 jpeg
	Prompt string `json:"prompt"`
}

// TransformImage runs the image model and returns the edited PNG as base64.
func (h *AIHandler) TransformImage(c echo.Context) error {
	if err := h.ready(c); err != nil {
		return err
	}
	var req transformReq
	if err := c.Bind(&req); err != nil || req.Prompt == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "prompt required"})
	}
	img, err := base64.StdEncoding.DecodeString(req.Data)
	if err != nil || len(img) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid image data"})
	}
	out, err := h.Client.TransformImage(c.Request().Context(), img, req.Prompt)
	if err != nil {
		if errors.Is(err, ai.ErrNoImage) {
			return c.JSON(http.StatusOK, echo.Map{"image": nil})
		}
		return h.fail(c, "transform", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"image": base64.StdEncoding.EncodeToString(out)})
}
