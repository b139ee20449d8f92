package bootstrap

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/attachtrack/attachtrack/internal/app/repositories/memstore"
	"github.com/attachtrack/attachtrack/internal/config"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	goleak.VerifyTestMain(m)
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type testAPI struct {
	t      *testing.T
	router *gin.Engine
	deps   *Dependencies
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Server.Mode = "production"
	cfg.Database.Driver = config.DriverMemory
	cfg.JWT.Secret = "router-test-secret"
	cfg.JWT.AccessTokenExpiration = "1h"
	cfg.JWT.Issuer = "attachtrack"
	cfg.Auth.BcryptCost = 4
	cfg.Ingest.MaxBatchSize = config.MaxIngestBatch
	cfg.RateLimit.Enabled = true
	cfg.RateLimit.Requests = 100
	cfg.RateLimit.Window = "1m"
	cfg.Metrics.Enabled = true
	cfg.Metrics.Path = "/metrics"
	return cfg
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	cfg := testConfig()
	deps, err := BuildDependencies(cfg, memstore.New(), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(deps.Close)

	router, err := SetupRouter(cfg, deps, zerolog.Nop())
	require.NoError(t, err)

	created, err := deps.AuthService.EnsureAdmin(context.Background(), "admin", "ChangeMe!")
	require.NoError(t, err)
	require.True(t, created)
	return &testAPI{t: t, router: router, deps: deps}
}

func (a *testAPI) do(method, path, token string, body interface{}) (int, envelope) {
	a.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(a.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 {
		require.NoError(a.t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec.Code, env
}

// signIn walks a fresh credential through the reset and returns a token
func (a *testAPI) signIn(username, initial, password string) string {
	a.t.Helper()
	creds := map[string]string{"username": username, "password": initial}
	status, env := a.do(http.MethodPost, "/api/v1/auth/login", "", creds)
	require.Equal(a.t, http.StatusOK, status)
	var sentinel string
	require.NoError(a.t, json.Unmarshal(env.Data, &sentinel))
	require.Equal(a.t, "Reset", sentinel)

	creds["password"] = password
	status, env = a.do(http.MethodPost, "/api/v1/auth/password-reset", "", creds)
	require.Equal(a.t, http.StatusOK, status)
	var auth struct {
		Token struct {
			AccessToken string `json:"accessToken"`
		} `json:"token"`
		User struct {
			Type   string `json:"type"`
			TypeID int64  `json:"typeID"`
		} `json:"user"`
	}
	require.NoError(a.t, json.Unmarshal(env.Data, &auth))
	require.NotEmpty(a.t, auth.Token.AccessToken)
	return auth.Token.AccessToken
}

func candidates() []map[string]string {
	return []map[string]string{
		{"registrationNo": "SCT211-0001/2020", "firstname": "Jane", "lastname": "Wanjiru", "phone": "0712345601", "email": "jane@example.com"},
		{"registrationNo": "SCT211-0002/2020", "firstname": "John", "lastname": "Kamau", "phone": "0712345602", "email": "john@example.com"},
	}
}

func TestHealthAndPublicEndpoints(t *testing.T) {
	api := newTestAPI(t)

	status, _ := api.do(http.MethodGet, "/api/v1/health", "", nil)
	assert.Equal(t, http.StatusOK, status)

	rec := httptest.NewRecorder()
	api.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	status, env := api.do(http.MethodGet, "/api/v1/students", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "AUTH_007", env.Error.Code)

	status, env = api.do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{"username": "admin", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Invalid username/password", env.Error.Message)

	status, env = api.do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{"username": "admin"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VAL_001", env.Error.Code)
}

func TestRosterUploadOverHTTP(t *testing.T) {
	api := newTestAPI(t)
	admin := api.signIn("admin", "ChangeMe!", "admin-pass")

	status, env := api.do(http.MethodPost, "/api/v1/students?approve=1", admin, candidates())
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "OK", env.Message)

	status, env = api.do(http.MethodPost, "/api/v1/students", admin, candidates())
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Some records were not added", env.Message)
	var result struct {
		Created int `json:"created"`
		Errors  []struct {
			Key    string `json:"key"`
			Reason string `json:"reason"`
		} `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Zero(t, result.Created)
	require.Len(t, result.Errors, 2)
	assert.Equal(t, "Already exists in the database.", result.Errors[0].Reason)

	status, env = api.do(http.MethodPost, "/api/v1/students", admin, []map[string]string{})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "No data provided", env.Error.Message)

	bad := candidates()
	bad[1]["phone"] = "0712345601"
	bad[0]["registrationNo"] = "SCT211-0003/2020"
	bad[1]["registrationNo"] = "SCT211-0004/2020"
	status, env = api.do(http.MethodPost, "/api/v1/students", admin, bad)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Phone No. +254712345601 appears more than once in the data", env.Error.Message)

	status, env = api.do(http.MethodGet, "/api/v1/students?active=1", admin, nil)
	require.Equal(t, http.StatusOK, status)
	var students []struct {
		ID       int64  `json:"id"`
		Phone    string `json:"phone"`
		Approved bool   `json:"approved"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &students))
	require.Len(t, students, 2)
	assert.Equal(t, "+254712345601", students[0].Phone)
	assert.True(t, students[0].Approved)

	status, _ = api.do(http.MethodGet, "/api/v1/students?active=maybe", admin, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status, env = api.do(http.MethodPut, fmt.Sprintf("/api/v1/students/%d", students[0].ID), admin, map[string]string{"phone": "12"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VAL_001", env.Error.Code)

	status, env = api.do(http.MethodDelete, fmt.Sprintf("/api/v1/students?ids=%d,%d", students[0].ID, 999), admin, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "1 Record(s) affected", env.Message)
}

func TestAttachmentFlowOverHTTP(t *testing.T) {
	api := newTestAPI(t)
	admin := api.signIn("admin", "ChangeMe!", "admin-pass")

	status, _ := api.do(http.MethodPost, "/api/v1/students", admin, candidates())
	require.Equal(t, http.StatusOK, status)
	status, _ = api.do(http.MethodPost, "/api/v1/supervisors", admin, []map[string]string{
		{"staffNo": "STF-001", "firstname": "Peter", "lastname": "Otieno", "phone": "0711000001", "email": "peter@example.com"},
	})
	require.Equal(t, http.StatusOK, status)

	student := api.signIn("SCT211-0001/2020", "+254712345601", "student-pass")

	status, _ = api.do(http.MethodGet, "/api/v1/students", student, nil)
	assert.Equal(t, http.StatusForbidden, status)

	placement := map[string]string{
		"company":                   "Safaricom PLC",
		"startDate":                 "2024-05-06",
		"endDate":                   "2024-08-09",
		"industrySupervisor":        "Mary Njeri",
		"industrySupervisorContact": "0722000000",
	}
	status, env := api.do(http.MethodPost, "/api/v1/students/2/attachments", student, placement)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "FORBIDDEN", env.Error.Code)

	status, env = api.do(http.MethodPost, "/api/v1/students/1/attachments", student, placement)
	require.Equal(t, http.StatusCreated, status)
	var attachment struct {
		ID     int64  `json:"id"`
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &attachment))
	assert.Equal(t, "NOT-ASSIGNED", attachment.Status)

	status, env = api.do(http.MethodPost, "/api/v1/students/1/attachments", student, placement)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "There is an attachment that has not been marked as completed", env.Error.Message)

	path := fmt.Sprintf("/api/v1/attachments/%d", attachment.ID)
	status, _ = api.do(http.MethodPut, path, student, map[string]bool{"studentDone": true})
	assert.Equal(t, http.StatusBadRequest, status)

	status, env = api.do(http.MethodPut, path, admin, map[string]int64{"supervisor": 1})
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(env.Data, &attachment))
	assert.Equal(t, "ON-GOING", attachment.Status)

	status, _ = api.do(http.MethodPost, path+"/logs", student, map[string]string{"logDate": "2024-05-07", "log": "Orientation"})
	require.Equal(t, http.StatusCreated, status)
	status, env = api.do(http.MethodGet, path+"/logs", student, nil)
	require.Equal(t, http.StatusOK, status)
	var logs []map[string]interface{}
	require.NoError(t, json.Unmarshal(env.Data, &logs))
	assert.Len(t, logs, 1)

	status, env = api.do(http.MethodPut, path, student, map[string]interface{}{"score": 90, "grade": "A"})
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "FORBIDDEN", env.Error.Code)
	status, _ = api.do(http.MethodPut, path, student, map[string]int64{"supervisor": 1})
	assert.Equal(t, http.StatusForbidden, status)
	status, _ = api.do(http.MethodPut, path, student, map[string]bool{"cancelled": true})
	assert.Equal(t, http.StatusForbidden, status)

	other := api.signIn("SCT211-0002/2020", "+254712345602", "other-pass")
	logPath := fmt.Sprintf("/api/v1/logs/%v", logs[0]["id"])
	forbidden := []struct {
		method string
		path   string
		body   interface{}
	}{
		{http.MethodPut, path, map[string]bool{"studentDone": true}},
		{http.MethodGet, path + "/logs", nil},
		{http.MethodPost, path + "/logs", map[string]string{"logDate": "2024-05-08", "log": "Not mine"}},
		{http.MethodPut, logPath, map[string]string{"logDate": "2024-05-08", "log": "Rewritten"}},
		{http.MethodDelete, logPath, nil},
	}
	for _, req := range forbidden {
		status, _ = api.do(req.method, req.path, other, req.body)
		assert.Equal(t, http.StatusForbidden, status, "%s %s", req.method, req.path)
	}

	status, env = api.do(http.MethodPut, path, admin, map[string]interface{}{"studentDone": true, "score": 0, "grade": "E"})
	require.Equal(t, http.StatusOK, status)
	var graded struct {
		Status string   `json:"status"`
		Score  *float64 `json:"score"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &graded))
	assert.Equal(t, "COMPLETED", graded.Status)
	require.NotNil(t, graded.Score)
	assert.Zero(t, *graded.Score)

	status, env = api.do(http.MethodGet, "/api/v1/attachments?status=COMPLETED", admin, nil)
	require.Equal(t, http.StatusOK, status)
	var listings []struct {
		StudentName    string `json:"studentName"`
		SupervisorName string `json:"supervisorName"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &listings))
	require.Len(t, listings, 1)
	assert.Equal(t, "Jane Wanjiru", listings[0].StudentName)
	assert.Equal(t, "Peter Otieno", listings[0].SupervisorName)

	status, env = api.do(http.MethodDelete, "/api/v1/supervisors?ids=1", admin, nil)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "RES_004", env.Error.Code)
}
