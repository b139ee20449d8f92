package middleware

import (
	"errors"
	"net/http"

	"github.com/attachtrack/attachtrack/internal/app/models"
	"github.com/attachtrack/attachtrack/internal/app/models/dto"
	"github.com/attachtrack/attachtrack/internal/pkg/auth"
	"github.com/gin-gonic/gin"
)

// Context keys set by JWTAuth
const (
	ContextCredentialID = "credentialID"
	ContextUsername     = "username"
	ContextType         = "credentialType"
	ContextTypeID       = "typeID"
)

// AuthMiddleware for authentication and authorization
type AuthMiddleware struct {
	jwtService *auth.JWTService
}

// NewAuthMiddleware creates a new AuthMiddleware
func NewAuthMiddleware(jwtService *auth.JWTService) *AuthMiddleware {
	return &AuthMiddleware{jwtService: jwtService}
}

func abortUnauthorized(c *gin.Context, code dto.ErrorCode, details string) {
	errorDetail := dto.NewErrorDetail(code, "Authentication required").WithDetails(details)
	c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewFailureResponse(errorDetail))
}

// JWTAuth middleware for JWT token validation
func (m *AuthMiddleware) JWTAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortUnauthorized(c, dto.ErrorCodeTokenNotFound, "Authorization header missing")
			return
		}

		tokenString, err := auth.ExtractBearerToken(authHeader)
		if err != nil {
			abortUnauthorized(c, dto.ErrorCodeInvalidToken, "Invalid token format")
			return
		}

		claims, err := m.jwtService.ValidateToken(tokenString)
		if err != nil {
			if errors.Is(err, auth.ErrExpiredToken) {
				abortUnauthorized(c, dto.ErrorCodeExpiredToken, "Token has expired")
				return
			}
			abortUnauthorized(c, dto.ErrorCodeInvalidToken, "Invalid token")
			return
		}

		c.Set(ContextCredentialID, claims.CredentialID)
		c.Set(ContextUsername, claims.Username)
		c.Set(ContextType, models.CredentialType(claims.Type))
		c.Set(ContextTypeID, claims.TypeID)

		c.Next()
	}
}

// RoleRequired lets the request through when the caller holds one of types
func (m *AuthMiddleware) RoleRequired(types ...models.CredentialType) gin.HandlerFunc {
	return func(c *gin.Context) {
		current, ok := CredentialType(c)
		if !ok {
			abortUnauthorized(c, dto.ErrorCodeUnauthorized, "User role not found")
			return
		}

		for _, t := range types {
			if current == t {
				c.Next()
				return
			}
		}

		errorDetail := dto.NewErrorDetail(dto.ErrorCodeForbidden, "Access denied").
			WithDetails("You don't have sufficient permissions for this operation")
		c.AbortWithStatusJSON(http.StatusForbidden, dto.NewFailureResponse(errorDetail))
	}
}

// CredentialID returns the id of the authenticated credential
func CredentialID(c *gin.Context) (int64, bool) {
	v, ok := c.Get(ContextCredentialID)
	if !ok {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok
}

// CredentialType returns the type of the authenticated credential
func CredentialType(c *gin.Context) (models.CredentialType, bool) {
	v, ok := c.Get(ContextType)
	if !ok {
		return "", false
	}
	t, ok := v.(models.CredentialType)
	return t, ok
}

// TypeID returns the roster id behind the authenticated credential
func TypeID(c *gin.Context) (int64, bool) {
	v, ok := c.Get(ContextTypeID)
	if !ok {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok
}
