package auth

import (
	"errors"
	"fmt"

	"github.com/pquerna/otp/totp"
	"github.com/stylevault/backend/internal/database"
	"github.com/stylevault/backend/internal/models"
)

// OTP issuer name shown in authenticator apps
const otpIssuer = "StyleVault"

var (
	ErrTwoFactorAlreadyEnabled = errors.New("two-factor auth is already enabled")
	ErrTwoFactorNotEnabled     = errors.New("two-factor auth is not enabled")
	ErrTwoFactorNotInitiated   = errors.New("two-factor setup not initiated")
	ErrInvalidTwoFactorCode    = errors.New("invalid two-factor code")
)

// TwoFactorSetup contains the TOTP provisioning data returned on enable
type TwoFactorSetup struct {
	Secret    string `json:"secret"`      // Base32-encoded secret for manual entry
	QRCodeURL string `json:"qr_code_url"` // otpauth:// URL for QR code
}

// EnableTwoFactor generates a TOTP secret for the user. The secret is
// stored but 2FA stays disabled until ConfirmTwoFactor verifies a code.
func (s *Service) EnableTwoFactor(user *models.User) (*TwoFactorSetup, error) {
	if user.TwoFactorEnabled {
		return nil, ErrTwoFactorAlreadyEnabled
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      otpIssuer,
		AccountName: user.Email,
		SecretSize:  32,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate 2FA secret: %w", err)
	}

	secret := key.Secret()
	if err := database.DB.Model(user).Update("two_factor_secret", secret).Error; err != nil {
		return nil, fmt.Errorf("failed to save 2FA setup: %w", err)
	}

	return &TwoFactorSetup{
		Secret:    secret,
		QRCodeURL: key.URL(),
	}, nil
}

// ConfirmTwoFactor completes 2FA setup by verifying a TOTP code
func (s *Service) ConfirmTwoFactor(user *models.User, code string) error {
	if user.TwoFactorSecret == nil || *user.TwoFactorSecret == "" {
		return ErrTwoFactorNotInitiated
	}

	if !totp.Validate(code, *user.TwoFactorSecret) {
		return ErrInvalidTwoFactorCode
	}

	if err := database.DB.Model(user).Update("two_factor_enabled", true).Error; err != nil {
		return fmt.Errorf("failed to enable 2FA: %w", err)
	}
	user.TwoFactorEnabled = true
	return nil
}

// VerifyTwoFactorCode checks a TOTP code for an enabled account
func (s *Service) VerifyTwoFactorCode(user *models.User, code string) error {
	if !user.TwoFactorEnabled || user.TwoFactorSecret == nil {
		return ErrTwoFactorNotEnabled
	}

	if !totp.Validate(code, *user.TwoFactorSecret) {
		return ErrInvalidTwoFactorCode
	}
	return nil
}

// DisableTwoFactor turns off 2FA after verifying a current code
func (s *Service) DisableTwoFactor(user *models.User, code string) error {
	if err := s.VerifyTwoFactorCode(user, code); err != nil {
		return err
	}

	updates := map[string]interface{}{
		"two_factor_enabled": false,
		"two_factor_secret":  nil,
	}
	if err := database.DB.Model(user).Updates(updates).Error; err != nil {
		return fmt.Errorf("failed to disable 2FA: %w", err)
	}
	user.TwoFactorEnabled = false
	user.TwoFactorSecret = nil
	return nil
}
