package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/charlesng35/resumex/internal/models"
)

// UserStore persists user credentials and their one-shot tokens.
type UserStore struct {
	db *gorm.DB
}

// NewUserStore constructs a UserStore.
func NewUserStore(db *gorm.DB) (*UserStore, error) {
	if db == nil {
		return nil, errors.New("user store: db is required")
	}
	return &UserStore{db: db}, nil
}

// Create inserts a new user. A duplicate email surfaces as ErrUserExists.
func (s *UserStore) Create(ctx context.Context, user *models.User) error {
	ctx = ensureContext(ctx)
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueConstraintError(err) {
			return ErrUserExists.WithInternal(err)
		}
		return fmt.Errorf("user store: create: %w", err)
	}
	return nil
}

// FindByID loads a user by primary key.
func (s *UserStore) FindByID(ctx context.Context, id string) (*models.User, error) {
	return s.first(ensureContext(ctx), "id = ?", id)
}

// FindByEmail loads a user by normalised email.
func (s *UserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.first(ensureContext(ctx), "email = ?", normaliseEmail(email))
}

// FindByVerificationCode returns the user holding code if it has not expired at now.
func (s *UserStore) FindByVerificationCode(ctx context.Context, code string, now time.Time) (*models.User, error) {
	return s.first(ensureContext(ctx),
		"verification_token = ? AND verification_token_expires_at > ?", code, now.UTC())
}

// FindByResetToken returns the user holding token if it has not expired at now.
func (s *UserStore) FindByResetToken(ctx context.Context, token string, now time.Time) (*models.User, error) {
	return s.first(ensureContext(ctx),
		"reset_password_token = ? AND reset_password_expires_at > ?", token, now.UTC())
}

// MarkVerified flags the user verified and drops the verification code.
func (s *UserStore) MarkVerified(ctx context.Context, user *models.User) error {
	return s.update(ensureContext(ctx), user.ID, map[string]any{
		"is_verified":                   true,
		"verification_token":            nil,
		"verification_token_expires_at": nil,
	})
}

// SetVerificationCode stores a verification code, replacing any earlier one.
func (s *UserStore) SetVerificationCode(ctx context.Context, user *models.User, code string, expiresAt time.Time) error {
	return s.update(ensureContext(ctx), user.ID, map[string]any{
		"verification_token":            code,
		"verification_token_expires_at": expiresAt.UTC(),
	})
}

// SetResetToken stores a reset token, replacing any earlier one.
func (s *UserStore) SetResetToken(ctx context.Context, user *models.User, token string, expiresAt time.Time) error {
	return s.update(ensureContext(ctx), user.ID, map[string]any{
		"reset_password_token":      token,
		"reset_password_expires_at": expiresAt.UTC(),
	})
}

// UpdatePassword stores a new hash and consumes the reset token.
func (s *UserStore) UpdatePassword(ctx context.Context, user *models.User, hash string) error {
	return s.update(ensureContext(ctx), user.ID, map[string]any{
		"password":                  hash,
		"reset_password_token":      nil,
		"reset_password_expires_at": nil,
	})
}

// TouchLastLogin records a successful login time.
func (s *UserStore) TouchLastLogin(ctx context.Context, user *models.User, at time.Time) error {
	return s.update(ensureContext(ctx), user.ID, map[string]any{"last_login_at": at})
}

// PurgeExpiredTokens clears verification codes and reset tokens that expired
// before now and reports how many of each were removed.
func (s *UserStore) PurgeExpiredTokens(ctx context.Context, now time.Time) (verification int64, reset int64, err error) {
	ctx = ensureContext(ctx)

	res := s.db.WithContext(ctx).Model(&models.User{}).
		Where("verification_token IS NOT NULL AND verification_token_expires_at <= ?", now.UTC()).
		Updates(map[string]any{
			"verification_token":            nil,
			"verification_token_expires_at": nil,
		})
	if res.Error != nil {
		return 0, 0, fmt.Errorf("user store: purge verification codes: %w", res.Error)
	}
	verification = res.RowsAffected

	res = s.db.WithContext(ctx).Model(&models.User{}).
		Where("reset_password_token IS NOT NULL AND reset_password_expires_at <= ?", now.UTC()).
		Updates(map[string]any{
			"reset_password_token":      nil,
			"reset_password_expires_at": nil,
		})
	if res.Error != nil {
		return verification, 0, fmt.Errorf("user store: purge reset tokens: %w", res.Error)
	}
	return verification, res.RowsAffected, nil
}

func (s *UserStore) first(ctx context.Context, query string, args ...any) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where(query, args...).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("user store: find: %w", err)
	}
	return &user, nil
}

func (s *UserStore) update(ctx context.Context, id string, values map[string]any) error {
	res := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(values)
	if res.Error != nil {
		return fmt.Errorf("user store: update: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}
