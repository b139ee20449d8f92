package controllers

import (
	"net/http"

	"github.com/attachtrack/attachtrack/internal/app/models/dto"
	"github.com/attachtrack/attachtrack/internal/app/services"
	"github.com/attachtrack/attachtrack/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// AuthController handles authentication related operations
type AuthController struct {
	authService *services.AuthService
	logger      zerolog.Logger
}

// NewAuthController creates a new AuthController
func NewAuthController(authService *services.AuthService, logger zerolog.Logger) *AuthController {
	return &AuthController{
		authService: authService,
		logger:      logger,
	}
}

// loginResponse renders a login result. Credentials still in the reset
// state get the Reset sentinel instead of a token.
func loginResponse(ctx *gin.Context, result *services.LoginResult) {
	if result.Reset {
		ctx.JSON(http.StatusOK, dto.NewSuccessResponse(services.ResetSentinel, services.ResetSentinel))
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.AuthResponse{
		Token: dto.TokenResponse{
			AccessToken: result.AccessToken,
			TokenType:   "Bearer",
			ExpiresIn:   result.ExpiresIn,
		},
		User: dto.IdentityResponse{
			ID:       result.Identity.ID,
			Username: result.Identity.Username,
			Type:     string(result.Identity.Type),
			TypeID:   result.Identity.TypeID,
		},
	}, "Login successful"))
}

// Login handles user login
// @Summary Log in
// @Description Authenticates a credential. Credentials that still carry their temporary password answer with the "Reset" sentinel and no token.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.LoginRequest true "Credentials"
// @Success 200 {object} dto.APIResponse{data=dto.AuthResponse} "Identity and access token, or the Reset sentinel"
// @Failure 400 {object} dto.APIResponse "Invalid request format"
// @Failure 401 {object} dto.APIResponse "Invalid username/password"
// @Failure 429 {object} dto.APIResponse "Too many attempts"
// @Router /auth/login [post]
func (c *AuthController) Login(ctx *gin.Context) {
	var req dto.LoginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		c.logger.Warn().Err(err).Msg("Invalid login request payload")
		middleware.HandleBindError(ctx, err)
		return
	}

	result, err := c.authService.Login(ctx.Request.Context(), req.Username, req.Password)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	loginResponse(ctx, result)
}

// ResetPassword replaces the temporary password and logs in
// @Summary Reset password
// @Description Sets a new password for a credential, clears its reset state and logs in with the new password
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.PasswordResetRequest true "Username and new password"
// @Success 200 {object} dto.APIResponse{data=dto.AuthResponse} "Login result with the new password"
// @Failure 400 {object} dto.APIResponse "Invalid request"
// @Failure 429 {object} dto.APIResponse "Too many attempts"
// @Router /auth/password-reset [post]
func (c *AuthController) ResetPassword(ctx *gin.Context) {
	var req dto.PasswordResetRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		c.logger.Warn().Err(err).Msg("Invalid password reset payload")
		middleware.HandleBindError(ctx, err)
		return
	}

	result, err := c.authService.ResetPassword(ctx.Request.Context(), req.Username, req.Password)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	loginResponse(ctx, result)
}
