package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/omraut/carbon-terminal/internal/estimator"
	"github.com/omraut/carbon-terminal/internal/history"
	"github.com/omraut/carbon-terminal/internal/model"
	q "github.com/omraut/carbon-terminal/internal/queue"
	"github.com/omraut/carbon-terminal/internal/state"
)

// EventPublisher covers both event streams the emission flow feeds.
type EventPublisher interface {
	ActivityPublisher
	PublishEmissionRecorded(ctx context.Context, ev q.EmissionRecordedEvent) error
}

// EmissionHandler serves the estimate and record endpoints.
type EmissionHandler struct {
	State   *state.ConfigStore
	History *history.Service
	Pub     EventPublisher
	Log     *zap.Logger
}

type recordReq struct {
	Input      estimator.Input `json:"input"`
	AIInsights string          `json:"ai_insights"`
}

// Estimate computes a breakdown without persisting anything.
func (h *EmissionHandler) Estimate(c echo.Context) error {
	var in estimator.Input
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	return c.JSON(http.StatusOK, estimator.Estimate(in, h.State.Get()))
}

// Create recomputes the breakdown server-side from the submitted activity
// profile and persists it. Client-sent totals are never trusted. The write
// never fails the request; storage outages divert the record to the local
// buffer inside the history service.
func (h *EmissionHandler) Create(c echo.Context) error {
	var req recordReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	uid, email, _ := identity(c)

	b := estimator.Estimate(req.Input, h.State.Get())
	rec := model.EmissionRecord{
		ID:         uuid.NewString(),
		UserID:     uid,
		Scope1:     b.Scope1,
		Scope2:     b.Scope2,
		Scope3:     b.Scope3,
		Total:      b.Total,
		AIInsights: req.AIInsights,
		CreatedAt:  time.Now().UTC(),
	}
	h.History.Save(c.Request().Context(), rec)

	if h.Pub != nil {
		ev := q.EmissionRecordedEvent{
			RecordID: rec.ID, UserID: rec.UserID,
			Scope1: rec.Scope1, Scope2: rec.Scope2, Scope3: rec.Scope3, Total: rec.Total,
			RecordedAt: rec.CreatedAt.Format(time.RFC3339),
		}
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := h.Pub.PublishEmissionRecorded(ctx, ev); err != nil {
				h.Log.Warn("emission event publish failed", zap.String("record_id", rec.ID), zap.Error(err))
			}
		}()
	}
	recordActivity(h.Pub, h.Log, uid, email, ActionEmissionSynced, fmt.Sprintf("total=%d", rec.Total))
	return c.JSON(http.StatusCreated, rec)
}

// List returns records oldest first. Regular users only ever see their own;
// OWNER and AUDITOR may pass ?user_id= to inspect one user or omit it for
// the whole fleet.
func (h *EmissionHandler) List(c echo.Context) error {
	uid, _, role := identity(c)

	scope := uid
	if role.Allowed(model.RoleOwner, model.RoleAuditor) {
		scope = c.QueryParam("user_id")
	}
	recs := h.History.History(c.Request().Context(), scope)
	if recs == nil {
		recs = []model.EmissionRecord{}
	}
	return c.JSON(http.StatusOK, recs)
}
