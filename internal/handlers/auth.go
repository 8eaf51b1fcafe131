package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stylevault/backend/internal/auth"
	"github.com/stylevault/backend/internal/logger"
	"github.com/stylevault/backend/internal/util"
	"go.uber.org/zap"
)

// Register creates a new account with email/password
// POST /api/v1/auth/register
func (h *Handlers) Register(c *gin.Context) {
	var req auth.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	resp, err := h.authService.RegisterNativeUser(req)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrUserExists):
			util.RespondConflict(c, "account")
		case errors.Is(err, auth.ErrUsernameExists):
			util.RespondConflict(c, "username")
		default:
			logger.ErrorWithFields("Registration failed", err)
			util.RespondInternalError(c, "Failed to create account")
		}
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// Login authenticates with email/password. Accounts with 2FA enabled
// get a pending response and must call VerifyLogin2FA with a TOTP code.
// POST /api/v1/auth/login
func (h *Handlers) Login(c *gin.Context) {
	var req auth.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	resp, err := h.authService.LoginNativeUser(req)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrTwoFactorRequired):
			c.JSON(http.StatusOK, gin.H{
				"two_factor_required": true,
				"user_id":             resp.User.ID,
			})
		case errors.Is(err, auth.ErrUserNotFound), errors.Is(err, auth.ErrInvalidCredentials):
			// Same response either way, no account enumeration
			util.RespondUnauthorized(c, "invalid email or password")
		default:
			logger.ErrorWithFields("Login failed", err)
			util.RespondInternalError(c, "Failed to log in")
		}
		return
	}

	c.JSON(http.StatusOK, resp)
}

// VerifyLogin2FA completes a 2FA-gated login with a TOTP code
// POST /api/v1/auth/login/2fa
func (h *Handlers) VerifyLogin2FA(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
		Code     string `json:"code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	// Re-verify the password so a leaked user ID is not enough
	_, err := h.authService.LoginNativeUser(auth.LoginRequest{Email: req.Email, Password: req.Password})
	if err != nil && !errors.Is(err, auth.ErrTwoFactorRequired) {
		util.RespondUnauthorized(c, "invalid email or password")
		return
	}

	user, err := h.authService.FindUserByEmail(req.Email)
	if err != nil {
		util.RespondUnauthorized(c, "invalid email or password")
		return
	}

	if err := h.authService.VerifyTwoFactorCode(user, req.Code); err != nil {
		util.RespondUnauthorized(c, "invalid two-factor code")
		return
	}

	resp, err := h.authService.GenerateTokenForUser(user)
	if err != nil {
		logger.ErrorWithFields("Token generation failed", err, zap.String("user_id", user.ID))
		util.RespondInternalError(c, "Failed to log in")
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GoogleLogin redirects to the Google consent screen
// GET /api/v1/auth/google
func (h *Handlers) GoogleLogin(c *gin.Context) {
	state := uuid.New().String()
	// State is echoed back by Google; the mobile client verifies it
	c.JSON(http.StatusOK, gin.H{
		"auth_url": h.authService.GetGoogleOAuthURL(state),
		"state":    state,
	})
}

// GoogleCallback handles the OAuth redirect from Google
// GET /api/v1/auth/google/callback
func (h *Handlers) GoogleCallback(c *gin.Context) {
	code := c.Query("code")
	if code == "" {
		util.RespondBadRequest(c, "missing authorization code")
		return
	}

	resp, err := h.authService.HandleGoogleCallback(code)
	if err != nil {
		logger.ErrorWithFields("Google OAuth callback failed", err)
		util.RespondUpstreamFailed(c, "google")
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Enable2FA initiates TOTP setup for the authenticated user
// POST /api/v1/auth/2fa/enable
func (h *Handlers) Enable2FA(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	setup, err := h.authService.EnableTwoFactor(user)
	if err != nil {
		if errors.Is(err, auth.ErrTwoFactorAlreadyEnabled) {
			util.RespondBadRequest(c, "two-factor auth is already enabled")
			return
		}
		logger.ErrorWithFields("2FA enable failed", err, zap.String("user_id", user.ID))
		util.RespondInternalError(c, "Failed to start 2FA setup")
		return
	}

	c.JSON(http.StatusOK, setup)
}

// Confirm2FA completes TOTP setup by verifying a code
// POST /api/v1/auth/2fa/confirm
func (h *Handlers) Confirm2FA(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	var req struct {
		Code string `json:"code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, "code is required")
		return
	}

	if err := h.authService.ConfirmTwoFactor(user, req.Code); err != nil {
		switch {
		case errors.Is(err, auth.ErrTwoFactorNotInitiated):
			util.RespondBadRequest(c, "2FA setup not initiated, call enable first")
		case errors.Is(err, auth.ErrInvalidTwoFactorCode):
			util.RespondUnauthorized(c, "invalid verification code")
		default:
			logger.ErrorWithFields("2FA confirm failed", err, zap.String("user_id", user.ID))
			util.RespondInternalError(c, "Failed to enable 2FA")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"enabled": true})
}

// Disable2FA turns off TOTP after verifying a current code
// POST /api/v1/auth/2fa/disable
func (h *Handlers) Disable2FA(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	var req struct {
		Code string `json:"code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, "code is required")
		return
	}

	if err := h.authService.DisableTwoFactor(user, req.Code); err != nil {
		switch {
		case errors.Is(err, auth.ErrTwoFactorNotEnabled):
			util.RespondBadRequest(c, "2FA is not enabled")
		case errors.Is(err, auth.ErrInvalidTwoFactorCode):
			util.RespondUnauthorized(c, "invalid verification code")
		default:
			logger.ErrorWithFields("2FA disable failed", err, zap.String("user_id", user.ID))
			util.RespondInternalError(c, "Failed to disable 2FA")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"enabled": false})
}
