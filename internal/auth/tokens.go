package auth

import (
	"time"

	"github.com/charlesng35/resumex/pkg/crypto"
)

const (
	// VerificationCodeDigits is the length of the emailed verification code.
	VerificationCodeDigits = 6
	// DefaultVerificationTTL is how long a verification code stays usable.
	DefaultVerificationTTL = 24 * time.Hour

	// ResetTokenBytes is the number of random bytes in a password reset token (hex-encoded to 64 chars).
	ResetTokenBytes = 32
	// DefaultResetTTL is how long a reset token stays usable.
	DefaultResetTTL = time.Hour
)

// GenerateVerificationCode returns a 6-digit code in [100000, 999999] from a CSPRNG.
func GenerateVerificationCode() (string, error) {
	return crypto.GenerateNumericCode(VerificationCodeDigits)
}

// GenerateResetToken returns a 64-character lowercase hex token.
func GenerateResetToken() (string, error) {
	return crypto.GenerateHexToken(ResetTokenBytes)
}
