package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/omraut/carbon-terminal/internal/config"
	"github.com/omraut/carbon-terminal/internal/history"
	"github.com/omraut/carbon-terminal/internal/model"
	"github.com/omraut/carbon-terminal/internal/repository"
	"github.com/omraut/carbon-terminal/internal/state"
)

// UserRegistry is the console's view of the account store.
type UserRegistry interface {
	List(ctx context.Context) ([]model.UserRecord, error)
	GetByEmail(ctx context.Context, email string) (model.UserRecord, error)
	UpdateRole(ctx context.Context, id string, role model.Role) error
}

// SessionRevoker cuts every refresh token a user holds.
type SessionRevoker interface {
	RevokeAllForUser(ctx context.Context, userID string) error
}

// LogReader serves the audit trail.
type LogReader interface {
	List(ctx context.Context, userID string, limit int) ([]model.ActivityLog, error)
}

// AuthorityHandler backs the owner console: calibration, user registry,
// audit trail, data export and the security override.
type AuthorityHandler struct {
	Cfg      config.Config
	State    *state.ConfigStore
	Users    UserRegistry
	Creds    CredentialStore
	Profiles ProfileStore
	Logs     LogReader
	Sessions SessionRevoker
	History  *history.Service
	Pub      ActivityPublisher
	Log      *zap.Logger
}

// GetConfig returns the live calibration plus the override state.
func (h *AuthorityHandler) GetConfig(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"config":     h.State.Get(),
		"overridden": h.State.Overridden(),
	})
}

// PutConfig replaces the calibration. Factors must be positive; the project
// number is display-only and passes through untouched. Last write wins.
func (h *AuthorityHandler) PutConfig(c echo.Context) error {
	var cfg model.GlobalConfig
	if err := c.Bind(&cfg); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if cfg.S1Factor <= 0 || cfg.S2Factor <= 0 || cfg.S3Factor <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "factors must be positive"})
	}
	if cfg.ProjectNumber == "" {
		cfg.ProjectNumber = h.State.Get().ProjectNumber
	}
	h.State.Set(cfg)

	uid, email, _ := identity(c)
	recordActivity(h.Pub, h.Log, uid, email, ActionCalibration,
		fmt.Sprintf("s1=%.2f s2=%.2f s3=%.2f", cfg.S1Factor, cfg.S2Factor, cfg.S3Factor))
	return c.JSON(http.StatusOK, cfg)
}

// ListUsers returns every profile, newest first, with master-email overrides
// applied so the console shows effective authority. ?email= narrows the
// result to one account for the console's lookup box.
func (h *AuthorityHandler) ListUsers(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	// Read failures collapse to an empty registry; the console renders an
	// empty table rather than an error state.
	var (
		users []model.UserRecord
		err   error
	)
	if email := strings.TrimSpace(c.QueryParam("email")); email != "" {
		var u model.UserRecord
		u, err = h.Users.GetByEmail(ctx, email)
		if err == nil {
			users = []model.UserRecord{u}
		} else if errors.Is(err, repository.ErrNotFound) {
			err = nil
		}
	} else {
		users, err = h.Users.List(ctx)
	}
	if err != nil {
		h.Log.Warn("registry read failed", zap.Error(err))
		users = nil
	}
	for i := range users {
		users[i].Role = model.EffectiveRole(users[i].Role, users[i].Email, h.Cfg.MasterEmails)
	}
	if users == nil {
		users = []model.UserRecord{}
	}
	return c.JSON(http.StatusOK, users)
}

type roleReq struct {
	Role string `json:"role"`
}

// AssignRole stores a new role for a user. Master emails cannot be demoted:
// their effective role stays OWNER no matter what is stored.
func (h *AuthorityHandler) AssignRole(c echo.Context) error {
	var req roleReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	id := c.Param("id")
	role := model.ParseRole(req.Role)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Users.UpdateRole(ctx, id, role); err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}
	// Access tokens carry the role claim, so every open session is cut;
	// the user signs back in under the new role.
	if h.Sessions != nil {
		if err := h.Sessions.RevokeAllForUser(ctx, id); err != nil {
			h.Log.Warn("session revocation failed after role change",
				zap.String("user_id", id), zap.Error(err))
		}
	}
	uid, email, _ := identity(c)
	recordActivity(h.Pub, h.Log, uid, email, ActionRoleAssigned,
		fmt.Sprintf("target=%s role=%s", id, role))
	return c.JSON(http.StatusOK, echo.Map{"id": id, "role": role})
}

// ListLogs returns the newest audit entries. ?user_id= narrows to one user,
// ?limit= caps the page (default 50). Owners who are not on the master
// allow-list only ever see their own entries. Read failures collapse to an
// empty trail.
func (h *AuthorityHandler) ListLogs(c echo.Context) error {
	uid, email, _ := identity(c)

	limit := 50
	if raw := c.QueryParam("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}
	scope := c.QueryParam("user_id")
	if !model.IsMasterEmail(email, h.Cfg.MasterEmails) {
		scope = uid
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	logs, err := h.Logs.List(ctx, scope, limit)
	if err != nil {
		h.Log.Warn("audit trail read failed", zap.Error(err))
	}
	if logs == nil {
		logs = []model.ActivityLog{}
	}
	return c.JSON(http.StatusOK, logs)
}

type createUserReq struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// CreateUser provisions an account from the console with an assigned role.
func (h *AuthorityHandler) CreateUser(c echo.Context) error {
	var req createUserReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Name = strings.TrimSpace(req.Name)
	if req.Email == "" || req.Password == "" || req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name/email/password required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	uid, err := h.Creds.Create(ctx, req.Email, req.Password, h.Cfg.BcryptCost)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create identity failed"})
	}
	user := model.UserRecord{
		ID:        uid,
		Name:      req.Name,
		Email:     req.Email,
		Phone:     strings.TrimSpace(req.Phone),
		Role:      model.ParseRole(req.Role),
		Provider:  model.ProviderEmail,
		CreatedAt: time.Now().UTC(),
	}
	if err := h.Profiles.Upsert(ctx, user); err != nil {
		h.Log.Error("profile write failed after credential create",
			zap.String("user_id", uid), zap.Error(err))
	}
	user.Role = model.EffectiveRole(user.Role, user.Email, h.Cfg.MasterEmails)

	actorID, actorEmail, _ := identity(c)
	recordActivity(h.Pub, h.Log, actorID, actorEmail, ActionUserCreated,
		fmt.Sprintf("target=%s role=%s", user.ID, user.Role))
	return c.JSON(http.StatusCreated, user)
}

// Export bundles the registry, every emission record and the recent audit
// trail into one JSON document and logs the export itself.
func (h *AuthorityHandler) Export(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 15*time.Second)
	defer cancel()

	users, err := h.Users.List(ctx)
	if err != nil {
		h.Log.Warn("registry read failed during export", zap.Error(err))
	}
	logs, err := h.Logs.List(ctx, "", 500)
	if err != nil {
		h.Log.Warn("audit trail read failed during export", zap.Error(err))
	}
	emissions := h.History.History(ctx, "")

	uid, email, _ := identity(c)
	recordActivity(h.Pub, h.Log, uid, email, ActionDataExport,
		fmt.Sprintf("users=%d emissions=%d logs=%d", len(users), len(emissions), len(logs)))
	return c.JSON(http.StatusOK, echo.Map{
		"exported_at": time.Now().UTC(),
		"users":       users,
		"emissions":   emissions,
		"logs":        logs,
	})
}

type overrideReq struct {
	Enabled bool   `json:"enabled"`
	Seed    string `json:"seed"`
}

// ToggleOverride flips the security override after checking the verification
// seed. The previous state comes back so the console can render the change.
func (h *AuthorityHandler) ToggleOverride(c echo.Context) error {
	var req overrideReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if strings.TrimSpace(req.Seed) != h.Cfg.MasterSeed {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "verification failed"})
	}
	prev := h.State.SetOverride(req.Enabled)

	uid, email, _ := identity(c)
	recordActivity(h.Pub, h.Log, uid, email, ActionOverrideToggle,
		fmt.Sprintf("enabled=%t", req.Enabled))
	return c.JSON(http.StatusOK, echo.Map{"enabled": req.Enabled, "previous": prev})
}
