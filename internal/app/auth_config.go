package app

import (
	"time"

	"github.com/linisbayan/linisbayan/internal/auth"
)

const (
	defaultVerificationCodeTTL     = 10 * time.Minute
	defaultPasswordResetTokenTTL   = time.Hour
	defaultPasswordResetTokenBytes = 48
)

// JWTServiceConfig converts AuthConfig into the parameters expected by the JWT service.
func (c AuthConfig) JWTServiceConfig() auth.JWTConfig {
	ttl := c.JWT.TTL
	if ttl <= 0 {
		ttl = auth.DefaultAccessTokenTTL
	}

	return auth.JWTConfig{
		Secret:         c.JWT.Secret,
		Issuer:         c.JWT.Issuer,
		AccessTokenTTL: ttl,
	}
}

// VerificationCodeTTL returns the lifetime of mailed verification codes.
func (c AuthConfig) VerificationCodeTTL() time.Duration {
	if c.Verification.CodeTTL <= 0 {
		return defaultVerificationCodeTTL
	}
	return c.Verification.CodeTTL
}

// ResetTokenTTL returns the lifetime of password reset links.
func (c AuthConfig) ResetTokenTTL() time.Duration {
	if c.PasswordReset.TokenTTL <= 0 {
		return defaultPasswordResetTokenTTL
	}
	return c.PasswordReset.TokenTTL
}

// ResetTokenLength returns the byte length of generated reset tokens.
func (c AuthConfig) ResetTokenLength() int {
	if c.PasswordReset.TokenLength <= 0 {
		return defaultPasswordResetTokenBytes
	}
	return c.PasswordReset.TokenLength
}
