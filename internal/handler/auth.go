package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/omraut/carbon-terminal/internal/config"
	"github.com/omraut/carbon-terminal/internal/localstore"
	"github.com/omraut/carbon-terminal/internal/model"
	"github.com/omraut/carbon-terminal/internal/repository"
	"github.com/omraut/carbon-terminal/internal/security"
	"github.com/omraut/carbon-terminal/internal/utils"
)

// CredentialStore is the identity half of the account store.
type CredentialStore interface {
	Create(ctx context.Context, email, password string, cost int) (string, error)
	GetByEmail(ctx context.Context, email string) (repository.Credential, error)
}

// ProfileStore is the visible half of the account store.
type ProfileStore interface {
	Upsert(ctx context.Context, u model.UserRecord) error
	GetByID(ctx context.Context, id string) (model.UserRecord, error)
}

// TokenStore persists refresh token hashes.
type TokenStore interface {
	StoreRefresh(ctx context.Context, userID, tokenHash string, exp time.Time) error
	ValidateRefresh(ctx context.Context, tokenHash string) (string, error)
	RevokeByHash(ctx context.Context, tokenHash string) error
}

// AuthHandler bundles dependencies for the auth endpoints.
type AuthHandler struct {
	Cfg      config.Config
	Creds    CredentialStore
	Profiles ProfileStore
	Tokens   TokenStore
	Vitals   *security.VitalsStore
	Local    *localstore.Store
	Pub      ActivityPublisher
	Log      *zap.Logger
}

// ----- DTOs -----

type registerReq struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}
type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}
type authResp struct {
	User    model.UserRecord `json:"user"`
	Access  tokenPart        `json:"access"`
	Refresh tokenPart        `json:"refresh"`
}

// Register creates the credential row then the profile row and returns a
// token pair. The two writes are separate statements with no transaction; a
// profile failure leaves a credential without a profile, which /v1/me later
// repairs from the token claims.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Name = strings.TrimSpace(req.Name)
	if req.Email == "" || req.Password == "" || req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name/email/password required"})
	}
	if len(req.Password) < 8 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "password too short"})
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
		Role:      model.RoleUser,
		Provider:  model.ProviderEmail,
		CreatedAt: time.Now().UTC(),
	}
	if err := h.Profiles.Upsert(ctx, user); err != nil {
		h.Log.Error("profile write failed after credential create",
			zap.String("user_id", uid), zap.Error(err))
	}
	user.Role = model.EffectiveRole(user.Role, user.Email, h.Cfg.MasterEmails)

	resp, err := h.issuePair(ctx, user)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue tokens failed"})
	}
	recordActivity(h.Pub, h.Log, user.ID, user.Name, ActionRegister, "provider=EMAIL")
	return c.JSON(http.StatusCreated, resp)
}

// Login verifies credentials behind the lockout gate. Three consecutive
// failures lock the email for sixty seconds; the gate answers 423 with the
// seconds remaining while locked.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if locked, until := h.Vitals.Locked(ctx, req.Email); locked {
		return lockedResponse(c, until)
	}

	cred, err := h.Creds.GetByEmail(ctx, req.Email)
	if err != nil || !utils.VerifyPassword(cred.PasswordHash, req.Password) {
		v := h.Vitals.RecordFailure(ctx, req.Email)
		if locked, until := h.Vitals.Locked(ctx, req.Email); locked {
			return lockedResponse(c, until)
		}
		return c.JSON(http.StatusUnauthorized, echo.Map{
			"error":              "invalid credentials",
			"attempts_remaining": security.MaxAttempts - v.Attempts,
		})
	}
	h.Vitals.Reset(ctx, req.Email)

	user, err := h.Profiles.GetByID(ctx, cred.ID)
	if err != nil {
		// Orphaned identity from a half-finished registration: serve a
		// minimal record so login still works.
		user = model.UserRecord{ID: cred.ID, Email: cred.Email, Role: model.RoleUser, Provider: model.ProviderEmail, CreatedAt: cred.CreatedAt}
	}
	user.Role = model.EffectiveRole(user.Role, user.Email, h.Cfg.MasterEmails)

	resp, err := h.issuePair(ctx, user)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue tokens failed"})
	}
	if err := h.Local.Put(localstore.KeySession, user); err != nil {
		h.Log.Warn("session cache write failed", zap.Error(err))
	}
	recordActivity(h.Pub, h.Log, user.ID, user.Name, ActionLogin, "")
	return c.JSON(http.StatusOK, resp)
}

// Refresh rotates a valid refresh token into a fresh pair.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || req.RefreshToken == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	hash := utils.HashRefreshRaw(req.RefreshToken)
	uid, err := h.Tokens.ValidateRefresh(ctx, hash)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
	}
	user, err := h.Profiles.GetByID(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unknown identity"})
	}
	user.Role = model.EffectiveRole(user.Role, user.Email, h.Cfg.MasterEmails)

	// Rotation: the presented token dies with the new issue.
	if err := h.Tokens.RevokeByHash(ctx, hash); err != nil {
		h.Log.Warn("refresh revoke failed", zap.Error(err))
	}
	resp, err := h.issuePair(ctx, user)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue tokens failed"})
	}
	return c.JSON(http.StatusOK, resp)
}

// Logout revokes the refresh token and clears the cached session.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err == nil && req.RefreshToken != "" {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
		defer cancel()
		if err := h.Tokens.RevokeByHash(ctx, utils.HashRefreshRaw(req.RefreshToken)); err != nil {
			h.Log.Warn("logout revoke failed", zap.Error(err))
		}
	}
	if err := h.Local.Delete(localstore.KeySession); err != nil {
		h.Log.Warn("session cache clear failed", zap.Error(err))
	}
	return c.NoContent(http.StatusNoContent)
}

// Me returns the authenticated identity. When the database is down it falls
// back to the locally cached session so an already signed-in terminal keeps
// its identity through an outage.
func (h *AuthHandler) Me(c echo.Context) error {
	uid, email, role := identity(c)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	user, err := h.Profiles.GetByID(ctx, uid)
	if err != nil {
		var cached model.UserRecord
		if ok, gerr := h.Local.Get(localstore.KeySession, &cached); gerr == nil && ok && cached.ID == uid {
			cached.Role = model.EffectiveRole(cached.Role, cached.Email, h.Cfg.MasterEmails)
			return c.JSON(http.StatusOK, cached)
		}
		// No profile row and no cache: reconstruct from token claims.
		user = model.UserRecord{ID: uid, Email: email, Role: role, Provider: model.ProviderEmail}
	}
	user.Role = model.EffectiveRole(user.Role, user.Email, h.Cfg.MasterEmails)
	return c.JSON(http.StatusOK, user)
}

func (h *AuthHandler) issuePair(ctx context.Context, user model.UserRecord) (authResp, error) {
	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, user.ID, user.Email, user.Role, h.Cfg.AccessTTLMin)
	if err != nil {
		return authResp{}, err
	}
	refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
	if err != nil {
		return authResp{}, err
	}
	if err := h.Tokens.StoreRefresh(ctx, user.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return authResp{}, err
	}
	return authResp{
		User:    user,
		Access:  tokenPart{Token: access.Token, Expires: access.Exp},
		Refresh: tokenPart{Token: refresh.Raw, Expires: refresh.Exp},
	}, nil
}

func lockedResponse(c echo.Context, until time.Time) error {
	retry := int(time.Until(until)/time.Second) + 1
	if retry < 1 {
		retry = 1
	}
	c.Response().Header().Set("Retry-After", fmt.Sprintf("%d", retry))
	return c.JSON(http.StatusLocked, echo.Map{
		"error":       "account temporarily locked",
		"retry_after": retry,
	})
}
