package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/attachtrack/attachtrack/internal/app/models"
	"github.com/attachtrack/attachtrack/internal/app/models/dto"
	"github.com/attachtrack/attachtrack/internal/pkg/apperrors"
	"github.com/attachtrack/attachtrack/internal/pkg/auth"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	goleak.VerifyTestMain(m)
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) dto.APIResponse {
	t.Helper()
	var resp dto.APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestMemoryLimiterWindow(t *testing.T) {
	limiter := NewMemoryLimiter()
	now := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		assert.True(t, limiter.Allow(ctx, "k", 3, time.Minute), "attempt %d", i+1)
	}
	assert.False(t, limiter.Allow(ctx, "k", 3, time.Minute))
	assert.True(t, limiter.Allow(ctx, "other", 3, time.Minute))

	now = now.Add(time.Minute)
	assert.True(t, limiter.Allow(ctx, "k", 3, time.Minute))
	assert.Len(t, limiter.buckets, 1, "expired buckets are swept")
}

func TestRateLimitKeysOnUsername(t *testing.T) {
	router := gin.New()
	var seen string
	router.POST("/login", RateLimit(NewMemoryLimiter(), 1, time.Minute), func(c *gin.Context) {
		body, _ := io.ReadAll(c.Request.Body)
		seen = string(body)
		c.Status(http.StatusOK)
	})

	send := func(username string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		body := fmt.Sprintf(`{"username":%q,"password":"x"}`, username)
		req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(body))
		router.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, send("alice").Code)
	assert.Contains(t, seen, `"alice"`, "body is restored for the handler")

	rec := send(" ALICE ")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	resp := decode(t, rec)
	assert.False(t, resp.Success)
	assert.Equal(t, dto.ErrorCodeTooManyRequests, resp.Error.Code)

	assert.Equal(t, http.StatusOK, send("bob").Code)
}

func TestHandleAPIError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		code    dto.ErrorCode
		message string
	}{
		{"bad request", apperrors.NewBadRequestError("Record not found"), http.StatusBadRequest, dto.ErrorCodeBadRequest, "Record not found"},
		{"open attachment", apperrors.NewCustomError(apperrors.ErrOpenAttachmentExists, "busy"), http.StatusBadRequest, dto.ErrorCodeResourceInvalid, "busy"},
		{"login", apperrors.NewUnauthorizedError("Invalid username/password"), http.StatusUnauthorized, dto.ErrorCodeInvalidCredentials, "Invalid username/password"},
		{"dependents", apperrors.NewHasDependentsError("in use"), http.StatusConflict, dto.ErrorCodeConflict, "in use"},
		{"plain sentinel", fmt.Errorf("wrapped: %w", apperrors.ErrPermissionDenied), http.StatusForbidden, dto.ErrorCodeForbidden, "Permission denied"},
		{"unknown", errors.New("pq: connection refused"), http.StatusInternalServerError, dto.ErrorCodeInternalServer, "Internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(rec)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			HandleAPIError(c, tt.err)

			assert.Equal(t, tt.status, rec.Code)
			resp := decode(t, rec)
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.code, resp.Error.Code)
			assert.Equal(t, tt.message, resp.Error.Message)
		})
	}
}

func TestJWTAuthAndRoles(t *testing.T) {
	jwtService := auth.NewJWTService(auth.JWTConfig{SecretKey: "k", AccessTokenExp: time.Minute, TokenIssuer: "test"})
	m := NewAuthMiddleware(jwtService)

	router := gin.New()
	router.GET("/admin", m.JWTAuth(), m.RoleRequired(models.CredentialAdmin), func(c *gin.Context) {
		id, _ := CredentialID(c)
		typeID, _ := TypeID(c)
		c.JSON(http.StatusOK, gin.H{"id": id, "typeID": typeID})
	})

	call := func(header string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		router.ServeHTTP(rec, req)
		return rec
	}

	rec := call("")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, dto.ErrorCodeTokenNotFound, decode(t, rec).Error.Code)

	rec = call("Basic abc")
	assert.Equal(t, dto.ErrorCodeInvalidToken, decode(t, rec).Error.Code)

	student, _, err := jwtService.GenerateAccessToken(auth.Subject{CredentialID: 5, Username: "S1", Type: "Student", TypeID: 3})
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, call("Bearer "+student).Code)

	admin, _, err := jwtService.GenerateAccessToken(auth.Subject{CredentialID: 1, Username: "admin", Type: "Admin"})
	require.NoError(t, err)
	rec = call("Bearer " + admin)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":1,"typeID":0}`, rec.Body.String())

	// raw token without the scheme is accepted
	assert.Equal(t, http.StatusOK, call(admin).Code)
}

func TestKePhoneBinding(t *testing.T) {
	require.NoError(t, RegisterValidators())

	type body struct {
		Phone string `json:"phone" binding:"omitempty,kephone"`
	}
	router := gin.New()
	router.POST("/", func(c *gin.Context) {
		var b body
		if err := c.ShouldBindJSON(&b); err != nil {
			HandleBindError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	})

	post := func(payload string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(payload)))
		return rec
	}

	assert.Equal(t, http.StatusNoContent, post(`{"phone":"0712345678"}`).Code)
	assert.Equal(t, http.StatusNoContent, post(`{}`).Code)

	rec := post(`{"phone":"12345"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decode(t, rec)
	assert.Equal(t, dto.ErrorCodeValidationFailed, resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "Invalid phone number")
}
