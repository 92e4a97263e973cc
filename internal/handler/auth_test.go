package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/omraut/carbon-terminal/internal/config"
	"github.com/omraut/carbon-terminal/internal/localstore"
	"github.com/omraut/carbon-terminal/internal/model"
	"github.com/omraut/carbon-terminal/internal/repository"
	"github.com/omraut/carbon-terminal/internal/security"
	"github.com/omraut/carbon-terminal/internal/utils"
)

type fakeCreds struct {
	byEmail map[string]repository.Credential
}

func (f *fakeCreds) Create(_ context.Context, email, password string, cost int) (string, error) {
	if _, ok := f.byEmail[email]; ok {
		return "", repository.ErrEmailExists
	}
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return "", err
	}
	id := "uid-" + email
	f.byEmail[email] = repository.Credential{ID: id, Email: email, PasswordHash: hash, CreatedAt: time.Now().UTC()}
	return id, nil
}

func (f *fakeCreds) GetByEmail(_ context.Context, email string) (repository.Credential, error) {
	c, ok := f.byEmail[email]
	if !ok {
		return repository.Credential{}, repository.ErrNotFound
	}
	return c, nil
}

type fakeProfiles struct {
	byID map[string]model.UserRecord
}

func (f *fakeProfiles) Upsert(_ context.Context, u model.UserRecord) error {
	f.byID[u.ID] = u
	return nil
}

func (f *fakeProfiles) GetByID(_ context.Context, id string) (model.UserRecord, error) {
	u, ok := f.byID[id]
	if !ok {
		return model.UserRecord{}, repository.ErrNotFound
	}
	return u, nil
}

type fakeTokens struct {
	byHash map[string]string // hash -> userID
}

func (f *fakeTokens) StoreRefresh(_ context.Context, userID, hash string, _ time.Time) error {
	f.byHash[hash] = userID
	return nil
}

func (f *fakeTokens) ValidateRefresh(_ context.Context, hash string) (string, error) {
	uid, ok := f.byHash[hash]
	if !ok {
		return "", repository.ErrNotFound
	}
	return uid, nil
}

func (f *fakeTokens) RevokeByHash(_ context.Context, hash string) error {
	delete(f.byHash, hash)
	return nil
}

func (f *fakeTokens) RevokeAllForUser(_ context.Context, userID string) error {
	for h, uid := range f.byHash {
		if uid == userID {
			delete(f.byHash, h)
		}
	}
	return nil
}

func newAuthHandler(t *testing.T) *AuthHandler {
	t.Helper()
	local, err := localstore.Open(filepath.Join(t.TempDir(), "terminal.json"))
	require.NoError(t, err)
	return &AuthHandler{
		Cfg: config.Config{
			JWTSecret:      "test-secret",
			AccessTTLMin:   15,
			RefreshTTLDays: 7,
			BcryptCost:     4,
			MasterEmails:   []string{"rautom508@gmail.com"},
		},
		Creds:    &fakeCreds{byEmail: map[string]repository.Credential{}},
		Profiles: &fakeProfiles{byID: map[string]model.UserRecord{}},
		Tokens:   &fakeTokens{byHash: map[string]string{}},
		Vitals:   security.NewVitalsStore(nil, local),
		Local:    local,
		Log:      zap.NewNop(),
	}
}

func postJSON(t *testing.T, h echo.HandlerFunc, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	require.NoError(t, h(e.NewContext(req, rec)))
	return rec
}

func register(t *testing.T, h *AuthHandler, email, password string) {
	t.Helper()
	rec := postJSON(t, h.Register, "/v1/auth/register",
		`{"name":"Om Raut","email":"`+email+`","password":"`+password+`"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func TestRegisterThenLogin(t *testing.T) {
	h := newAuthHandler(t)
	register(t, h, "om@example.com", "correct-horse")

	rec := postJSON(t, h.Login, "/v1/auth/login",
		`{"email":"om@example.com","password":"correct-horse"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp authResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, model.RoleUser, resp.User.Role)
	assert.NotEmpty(t, resp.Access.Token)
	assert.NotEmpty(t, resp.Refresh.Token)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	h := newAuthHandler(t)
	register(t, h, "om@example.com", "correct-horse")

	rec := postJSON(t, h.Register, "/v1/auth/register",
		`{"name":"Om Raut","email":"om@example.com","password":"correct-horse"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestLoginLockoutAfterThreeFailures(t *testing.T) {
	h := newAuthHandler(t)
	register(t, h, "om@example.com", "correct-horse")

	bad := `{"email":"om@example.com","password":"wrong"}`
	assert.Equal(t, http.StatusUnauthorized, postJSON(t, h.Login, "/v1/auth/login", bad).Code)
	assert.Equal(t, http.StatusUnauthorized, postJSON(t, h.Login, "/v1/auth/login", bad).Code)

	// Third consecutive failure trips the gate.
	rec := postJSON(t, h.Login, "/v1/auth/login", bad)
	assert.Equal(t, http.StatusLocked, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	// Even the right password is refused while locked.
	good := `{"email":"om@example.com","password":"correct-horse"}`
	assert.Equal(t, http.StatusLocked, postJSON(t, h.Login, "/v1/auth/login", good).Code)
}

func TestLoginSuccessResetsFailureCount(t *testing.T) {
	h := newAuthHandler(t)
	register(t, h, "om@example.com", "correct-horse")

	bad := `{"email":"om@example.com","password":"wrong"}`
	good := `{"email":"om@example.com","password":"correct-horse"}`
	postJSON(t, h.Login, "/v1/auth/login", bad)
	postJSON(t, h.Login, "/v1/auth/login", bad)
	require.Equal(t, http.StatusOK, postJSON(t, h.Login, "/v1/auth/login", good).Code)

	// Counter restarted: two more failures stay at 401.
	postJSON(t, h.Login, "/v1/auth/login", bad)
	assert.Equal(t, http.StatusUnauthorized, postJSON(t, h.Login, "/v1/auth/login", bad).Code)
}

func TestMasterEmailAlwaysOwner(t *testing.T) {
	h := newAuthHandler(t)
	register(t, h, "rautom508@gmail.com", "correct-horse")

	rec := postJSON(t, h.Login, "/v1/auth/login",
		`{"email":"rautom508@gmail.com","password":"correct-horse"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp authResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, model.RoleOwner, resp.User.Role)

	claims, err := utils.ParseAccessToken(h.Cfg.JWTSecret, resp.Access.Token)
	require.NoError(t, err)
	assert.Equal(t, model.RoleOwner, claims.Role)
}

func TestRefreshRotatesToken(t *testing.T) {
	h := newAuthHandler(t)
	register(t, h, "om@example.com", "correct-horse")

	login := postJSON(t, h.Login, "/v1/auth/login",
		`{"email":"om@example.com","password":"correct-horse"}`)
	var first authResp
	require.NoError(t, json.Unmarshal(login.Body.Bytes(), &first))

	rec := postJSON(t, h.Refresh, "/v1/auth/refresh",
		`{"refresh_token":"`+first.Refresh.Token+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	// The original token died with the rotation.
	rec = postJSON(t, h.Refresh, "/v1/auth/refresh",
		`{"refresh_token":"`+first.Refresh.Token+`"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMeFallsBackToCachedSession(t *testing.T) {
	h := newAuthHandler(t)
	cached := model.UserRecord{ID: "u1", Name: "Om Raut", Email: "om@example.com", Role: model.RoleUser}
	require.NoError(t, h.Local.Put(localstore.KeySession, cached))

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/me", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user_id", "u1")
	c.Set("email", "om@example.com")
	c.Set("role", model.RoleUser)

	require.NoError(t, h.Me(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var got model.UserRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "Om Raut", got.Name)
}
