package services

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	apperrors "github.com/charlesng35/resumex/pkg/errors"
)

var (
	// ErrUserExists is returned when signing up with an email already on file.
	ErrUserExists = apperrors.NewConflict("User already exists")
	// ErrUserNotFound indicates the requested user does not exist.
	ErrUserNotFound = apperrors.NewNotFound("User not found")
	// ErrMissingSignupFields rejects a signup with any blank field.
	ErrMissingSignupFields = apperrors.NewValidation("All fields are required")
	// ErrEmailRequired rejects a blank email on the resend and forgot-password flows.
	ErrEmailRequired = apperrors.NewValidation("Email is required")
	// ErrPasswordTooLong rejects passwords bcrypt cannot hash in full.
	ErrPasswordTooLong = apperrors.NewValidation("Password must be at most 72 bytes")
	// ErrInvalidVerificationCode covers unknown and expired verification codes alike.
	ErrInvalidVerificationCode = apperrors.NewValidation("Invalid or expired verification code")
	// ErrInvalidResetToken covers unknown and expired reset tokens alike.
	ErrInvalidResetToken = apperrors.NewValidation("Invalid or expired reset token")
	// ErrEmailDelivery signals that a required transactional email could not be sent.
	ErrEmailDelivery = apperrors.New("EMAIL_DELIVERY_FAILED", "Email sending failed", http.StatusBadGateway)
)

// isUniqueConstraintError detects database uniqueness constraint violations across vendors.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr != nil && pgErr.Code == "23505" {
		return true
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && myErr != nil && myErr.Number == 1062 {
		return true
	}

	lower := strings.ToLower(err.Error())
	return strings.Contains(lower, "unique constraint") ||
		strings.Contains(lower, "duplicate")
}
