// Package handler contains the HTTP endpoints. Each handler struct bundles
// its dependencies behind small interfaces so failure paths are testable
// without a live database or broker.
package handler

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/omraut/carbon-terminal/internal/middleware"
	"github.com/omraut/carbon-terminal/internal/model"
	q "github.com/omraut/carbon-terminal/internal/queue"
)

// ActivityPublisher sends audit events toward the broker. Implemented by
// service.Publisher.
type ActivityPublisher interface {
	PublishActivity(ctx context.Context, ev q.ActivityEvent) error
}

// Audit action names recorded in the activity trail.
const (
	ActionLogin          = "LOGIN"
	ActionRegister       = "REGISTER"
	ActionEmissionSynced = "EMISSION_SYNCED"
	ActionCalibration    = "CALIBRATION"
	ActionRoleAssigned   = "ROLE_ASSIGNED"
	ActionUserCreated    = "USER_CREATED"
	ActionDataExport     = "DATA_EXPORT"
	ActionOverrideToggle = "SECURITY_OVERRIDE_TOGGLE"
)

// recordActivity publishes an audit event in the background. Broker outages
// must never fail the user-facing request, so errors are only logged.
func recordActivity(pub ActivityPublisher, log *zap.Logger, userID, userName, action, details string) {
	if pub == nil {
		return
	}
	ev := q.ActivityEvent{
		ID:         uuid.NewString(),
		UserID:     userID,
		UserName:   userName,
		Action:     action,
		Details:    details,
		RecordedAt: time.Now().UTC().Format(time.RFC3339),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := pub.PublishActivity(ctx, ev); err != nil {
			log.Warn("audit publish failed", zap.String("action", action), zap.Error(err))
		}
	}()
}

// identity pulls the authenticated identity out of the request context.
func identity(c echo.Context) (userID, email string, role model.Role) {
	userID, _ = c.Get(middleware.CtxUserID).(string)
	email, _ = c.Get(middleware.CtxEmail).(string)
	role, _ = c.Get(middleware.CtxRole).(model.Role)
	return userID, email, role
}
