package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/omraut/carbon-terminal/internal/config"
	"github.com/omraut/carbon-terminal/internal/history"
	"github.com/omraut/carbon-terminal/internal/localstore"
	"github.com/omraut/carbon-terminal/internal/model"
	"github.com/omraut/carbon-terminal/internal/repository"
	"github.com/omraut/carbon-terminal/internal/state"
)

type fakeRegistry struct {
	users map[string]model.UserRecord
}

func (f *fakeRegistry) List(_ context.Context) ([]model.UserRecord, error) {
	var out []model.UserRecord
	for _, u := range f.users {
		out = append(out, u)
	}
	return out, nil
}

func (f *fakeRegistry) GetByEmail(_ context.Context, email string) (model.UserRecord, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return model.UserRecord{}, repository.ErrNotFound
}

func (f *fakeRegistry) UpdateRole(_ context.Context, id string, role model.Role) error {
	u, ok := f.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.Role = role
	f.users[id] = u
	return nil
}

type fakeLogs struct{ rows []model.ActivityLog }

func (f *fakeLogs) List(_ context.Context, userID string, limit int) ([]model.ActivityLog, error) {
	var out []model.ActivityLog
	for _, l := range f.rows {
		if userID == "" || l.UserID == userID {
			out = append(out, l)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func newAuthorityHandler(t *testing.T) (*AuthorityHandler, *fakeRegistry) {
	t.Helper()
	local, err := localstore.Open(filepath.Join(t.TempDir(), "terminal.json"))
	require.NoError(t, err)
	reg := &fakeRegistry{users: map[string]model.UserRecord{
		"u1": {ID: "u1", Email: "om@example.com", Role: model.RoleUser},
		"u2": {ID: "u2", Email: "rautom508@gmail.com", Role: model.RoleUser},
	}}
	return &AuthorityHandler{
		Cfg: config.Config{
			BcryptCost:   4,
			MasterEmails: []string{"rautom508@gmail.com"},
			MasterSeed:   "OMRAUT",
		},
		State:    state.NewConfigStore(model.DefaultGlobalConfig("1084459329478")),
		Users:    reg,
		Creds:    &fakeCreds{byEmail: map[string]repository.Credential{}},
		Profiles: &fakeProfiles{byID: map[string]model.UserRecord{}},
		Logs: &fakeLogs{rows: []model.ActivityLog{
			{ID: "l1", UserID: "u1", Action: ActionLogin},
			{ID: "l2", UserID: "owner-1", Action: ActionCalibration},
		}},
		Sessions: &fakeTokens{byHash: map[string]string{}},
		History:  history.New(&memRecords{}, local, zap.NewNop()),
		Log:      zap.NewNop(),
	}, reg
}

func ownerCtx(t *testing.T, h echo.HandlerFunc, method, path, body string, params ...string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user_id", "owner-1")
	c.Set("email", "rautom508@gmail.com")
	c.Set("role", model.RoleOwner)
	for i := 0; i+1 < len(params); i += 2 {
		c.SetParamNames(params[i])
		c.SetParamValues(params[i+1])
	}
	require.NoError(t, h(c))
	return rec
}

func TestPutConfigUpdatesCalibration(t *testing.T) {
	h, _ := newAuthorityHandler(t)
	rec := ownerCtx(t, h.PutConfig, http.MethodPut, "/v1/authority/config",
		`{"s1_factor":2.5,"s2_factor":0.9,"s3_factor":0.2}`)
	require.Equal(t, http.StatusOK, rec.Code)

	got := h.State.Get()
	assert.Equal(t, 0.9, got.S2Factor)
	// Omitted project number survives the write.
	assert.Equal(t, "1084459329478", got.ProjectNumber)
}

func TestPutConfigRejectsNonPositiveFactors(t *testing.T) {
	h, _ := newAuthorityHandler(t)
	rec := ownerCtx(t, h.PutConfig, http.MethodPut, "/v1/authority/config",
		`{"s1_factor":0,"s2_factor":0.9,"s3_factor":0.2}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListUsersAppliesMasterOverride(t *testing.T) {
	h, _ := newAuthorityHandler(t)
	rec := ownerCtx(t, h.ListUsers, http.MethodGet, "/v1/authority/users", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var users []model.UserRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &users))
	byEmail := map[string]model.Role{}
	for _, u := range users {
		byEmail[u.Email] = u.Role
	}
	assert.Equal(t, model.RoleUser, byEmail["om@example.com"])
	assert.Equal(t, model.RoleOwner, byEmail["rautom508@gmail.com"])
}

func TestListUsersEmailFilter(t *testing.T) {
	h, _ := newAuthorityHandler(t)
	rec := ownerCtx(t, h.ListUsers, http.MethodGet, "/v1/authority/users?email=om@example.com", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var users []model.UserRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &users))
	require.Len(t, users, 1)
	assert.Equal(t, "u1", users[0].ID)

	// An unknown email is an empty result, not an error.
	rec = ownerCtx(t, h.ListUsers, http.MethodGet, "/v1/authority/users?email=nobody@example.com", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &users))
	assert.Empty(t, users)
}

func TestAssignRole(t *testing.T) {
	h, reg := newAuthorityHandler(t)
	rec := ownerCtx(t, h.AssignRole, http.MethodPost, "/v1/authority/users/u1/role",
		`{"role":"AUDITOR"}`, "id", "u1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, model.RoleAuditor, reg.users["u1"].Role)

	rec = ownerCtx(t, h.AssignRole, http.MethodPost, "/v1/authority/users/nope/role",
		`{"role":"AUDITOR"}`, "id", "nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAssignRoleCutsOpenSessions(t *testing.T) {
	h, _ := newAuthorityHandler(t)
	sessions := &fakeTokens{byHash: map[string]string{
		"t1": "u1", "t2": "u1", "t3": "u2",
	}}
	h.Sessions = sessions

	rec := ownerCtx(t, h.AssignRole, http.MethodPost, "/v1/authority/users/u1/role",
		`{"role":"USER"}`, "id", "u1")
	require.Equal(t, http.StatusOK, rec.Code)

	// Every token u1 held is revoked; other users keep theirs.
	assert.NotContains(t, sessions.byHash, "t1")
	assert.NotContains(t, sessions.byHash, "t2")
	assert.Contains(t, sessions.byHash, "t3")
}

func TestCreateUserProvisionsAccount(t *testing.T) {
	h, _ := newAuthorityHandler(t)
	rec := ownerCtx(t, h.CreateUser, http.MethodPost, "/v1/authority/users",
		`{"name":"New Auditor","email":"aud@example.com","password":"long-enough","role":"AUDITOR"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var got model.UserRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, model.RoleAuditor, got.Role)
	assert.NotEmpty(t, got.ID)

	// Same email again conflicts.
	rec = ownerCtx(t, h.CreateUser, http.MethodPost, "/v1/authority/users",
		`{"name":"New Auditor","email":"aud@example.com","password":"long-enough","role":"AUDITOR"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestExportBundlesEverything(t *testing.T) {
	h, _ := newAuthorityHandler(t)
	rec := ownerCtx(t, h.Export, http.MethodGet, "/v1/authority/export", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var got map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	for _, key := range []string{"exported_at", "users", "emissions", "logs"} {
		assert.Contains(t, got, key)
	}
}

func TestListLogsScopesNonMasterOwnersToOwnEntries(t *testing.T) {
	h, _ := newAuthorityHandler(t)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/authority/logs", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user_id", "u1")
	c.Set("email", "om@example.com") // owner by assignment, not a master email
	c.Set("role", model.RoleOwner)
	require.NoError(t, h.ListLogs(c))

	var logs []model.ActivityLog
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &logs))
	require.Len(t, logs, 1)
	assert.Equal(t, "u1", logs[0].UserID)
}

func TestListLogsMasterSeesAll(t *testing.T) {
	h, _ := newAuthorityHandler(t)
	rec := ownerCtx(t, h.ListLogs, http.MethodGet, "/v1/authority/logs", "")

	var logs []model.ActivityLog
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &logs))
	assert.Len(t, logs, 2)
}

func TestToggleOverrideRequiresSeed(t *testing.T) {
	h, _ := newAuthorityHandler(t)

	rec := ownerCtx(t, h.ToggleOverride, http.MethodPost, "/v1/authority/override",
		`{"enabled":true,"seed":"wrong"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.False(t, h.State.Overridden())

	rec = ownerCtx(t, h.ToggleOverride, http.MethodPost, "/v1/authority/override",
		`{"enabled":true,"seed":"OMRAUT"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, h.State.Overridden())
}
