package auth

import "github.com/stylevault/backend/internal/models"

// AuthServiceInterface defines the contract for authentication operations.
// This enables mocking for unit tests without requiring a real database.
type AuthServiceInterface interface {
	// Registration and Login
	RegisterNativeUser(req RegisterRequest) (*AuthResponse, error)
	LoginNativeUser(req LoginRequest) (*AuthResponse, error)

	// User lookup
	FindUserByEmail(email string) (*models.User, error)

	// Token operations
	ValidateToken(tokenString string) (*models.User, error)
	GenerateTokenForUser(user *models.User) (*AuthResponse, error)

	// OAuth
	GetGoogleOAuthURL(state string) string
	HandleGoogleCallback(code string) (*AuthResponse, error)

	// Two-factor auth
	EnableTwoFactor(user *models.User) (*TwoFactorSetup, error)
	ConfirmTwoFactor(user *models.User, code string) error
	VerifyTwoFactorCode(user *models.User, code string) error
	DisableTwoFactor(user *models.User, code string) error
}

// Ensure Service implements AuthServiceInterface
var _ AuthServiceInterface = (*Service)(nil)
