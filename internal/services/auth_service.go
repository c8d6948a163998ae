package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/charlesng35/resumex/internal/auth"
	"github.com/charlesng35/resumex/internal/models"
	"github.com/charlesng35/resumex/pkg/crypto"
	apperrors "github.com/charlesng35/resumex/pkg/errors"
	"github.com/charlesng35/resumex/pkg/logger"
	"github.com/charlesng35/resumex/pkg/metrics"
)

// verificationCodeAttempts bounds how often issuance redraws a code that another user already holds.
const verificationCodeAttempts = 5

// NotifyPolicy decides whether a failed email fails the request that triggered it.
type NotifyPolicy string

const (
	// NotifyStrict fails the request after the state change has been committed.
	NotifyStrict NotifyPolicy = "strict"
	// NotifyLenient logs the failure and lets the request succeed.
	NotifyLenient NotifyPolicy = "lenient"
)

// ParseNotifyPolicy maps a configuration value onto a policy, defaulting to strict.
func ParseNotifyPolicy(value string) NotifyPolicy {
	if strings.EqualFold(strings.TrimSpace(value), string(NotifyLenient)) {
		return NotifyLenient
	}
	return NotifyStrict
}

// Session is an authenticated user together with the issued session token.
type Session struct {
	User      *models.User
	Token     string
	ExpiresAt time.Time
}

// AuthOption customises the AuthService.
type AuthOption func(*AuthService)

// WithAuthClock injects a custom time source.
func WithAuthClock(clock func() time.Time) AuthOption {
	return func(s *AuthService) {
		if clock != nil {
			s.now = clock
		}
	}
}

// WithVerificationTTL overrides the verification code lifetime.
func WithVerificationTTL(d time.Duration) AuthOption {
	return func(s *AuthService) {
		if d > 0 {
			s.verificationTTL = d
		}
	}
}

// WithResetTTL overrides the reset token lifetime.
func WithResetTTL(d time.Duration) AuthOption {
	return func(s *AuthService) {
		if d > 0 {
			s.resetTTL = d
		}
	}
}

// WithPasswordCost sets the bcrypt cost. Values below crypto.MinPasswordCost are raised.
func WithPasswordCost(cost int) AuthOption {
	return func(s *AuthService) {
		if cost > 0 {
			s.passwordCost = cost
		}
	}
}

// WithNotifyPolicy sets how email failures are handled.
func WithNotifyPolicy(policy NotifyPolicy) AuthOption {
	return func(s *AuthService) {
		if policy != "" {
			s.policy = policy
		}
	}
}

// AuthService implements signup, login, email verification and password reset.
type AuthService struct {
	users    *UserStore
	tokens   *auth.SessionSigner
	notifier *Notifier

	verificationTTL time.Duration
	resetTTL        time.Duration
	passwordCost    int
	policy          NotifyPolicy
	now             func() time.Time
	newCode         func() (string, error)
	log             *zap.Logger
}

// NewAuthService constructs an AuthService.
func NewAuthService(users *UserStore, tokens *auth.SessionSigner, notifier *Notifier, opts ...AuthOption) (*AuthService, error) {
	if users == nil {
		return nil, errors.New("auth service: user store is required")
	}
	if tokens == nil {
		return nil, errors.New("auth service: jwt service is required")
	}
	if notifier == nil {
		notifier = NewNotifier(nil)
	}

	svc := &AuthService{
		users:           users,
		tokens:          tokens,
		notifier:        notifier,
		verificationTTL: auth.DefaultVerificationTTL,
		resetTTL:        auth.DefaultResetTTL,
		passwordCost:    crypto.MinPasswordCost,
		policy:          NotifyStrict,
		now:             time.Now,
		newCode:         auth.GenerateVerificationCode,
		log:             logger.WithModule("auth"),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Signup registers an unverified user, emails a verification code and issues a session.
func (s *AuthService) Signup(ctx context.Context, name, email, password string) (*Session, error) {
	ctx = ensureContext(ctx)

	name = strings.TrimSpace(name)
	email = normaliseEmail(email)
	if name == "" || email == "" || password == "" {
		s.record("signup", "invalid")
		return nil, ErrMissingSignupFields
	}
	if len(password) > crypto.MaxPasswordBytes {
		s.record("signup", "invalid")
		return nil, ErrPasswordTooLong
	}

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		s.record("signup", "conflict")
		return nil, ErrUserExists
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}

	hash, err := s.hashPassword(password)
	if err != nil {
		return nil, err
	}

	code, err := s.issueVerificationCode(ctx)
	if err != nil {
		return nil, err
	}
	expiresAt := s.nowUTC().Add(s.verificationTTL)

	user := &models.User{
		Name:                       name,
		Email:                      email,
		Password:                   hash,
		VerificationToken:          &code,
		VerificationTokenExpiresAt: &expiresAt,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, ErrUserExists) {
			s.record("signup", "conflict")
		}
		return nil, err
	}

	session, err := s.issue(user)
	if err != nil {
		return nil, err
	}

	if err := s.checkDelivery(s.notifier.SendVerification(ctx, user, code)); err != nil {
		s.record("signup", "email_failed")
		return nil, err
	}

	s.record("signup", "success")
	s.log.Info("user signed up", zap.String("user_id", user.ID))
	return session, nil
}

// Login authenticates a verified user and issues a session.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	ctx = ensureContext(ctx)

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			s.record("login", "invalid_credentials")
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, err
	}

	if !crypto.VerifyPassword(user.Password, password) {
		s.record("login", "invalid_credentials")
		return nil, apperrors.ErrInvalidCredentials
	}

	if !user.IsVerified {
		s.record("login", "unverified")
		return nil, apperrors.ErrEmailNotVerified
	}

	now := s.nowUTC()
	if err := s.users.TouchLastLogin(ctx, user, now); err != nil {
		return nil, err
	}
	user.LastLoginAt = &now

	session, err := s.issue(user)
	if err != nil {
		return nil, err
	}
	s.record("login", "success")
	return session, nil
}

// VerifyEmail consumes a live verification code and sends the welcome email.
func (s *AuthService) VerifyEmail(ctx context.Context, code string) (*models.User, error) {
	ctx = ensureContext(ctx)

	code = strings.TrimSpace(code)
	if code == "" {
		s.record("verify", "invalid")
		return nil, ErrInvalidVerificationCode
	}

	user, err := s.users.FindByVerificationCode(ctx, code, s.nowUTC())
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			s.record("verify", "invalid")
			return nil, ErrInvalidVerificationCode
		}
		return nil, err
	}

	if err := s.users.MarkVerified(ctx, user); err != nil {
		return nil, err
	}
	user.IsVerified = true
	user.ClearVerification()

	if err := s.checkDelivery(s.notifier.SendWelcome(ctx, user)); err != nil {
		s.record("verify", "email_failed")
		return nil, err
	}

	s.record("verify", "success")
	return user, nil
}

// ResendVerification replaces the verification code of an unverified user and emails it again.
func (s *AuthService) ResendVerification(ctx context.Context, email string) error {
	ctx = ensureContext(ctx)

	if normaliseEmail(email) == "" {
		s.record("resend", "invalid")
		return ErrEmailRequired
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user.IsVerified {
		return apperrors.NewValidation("Email already verified")
	}

	code, err := s.issueVerificationCode(ctx)
	if err != nil {
		return err
	}
	if err := s.users.SetVerificationCode(ctx, user, code, s.nowUTC().Add(s.verificationTTL)); err != nil {
		return err
	}

	if err := s.checkDelivery(s.notifier.SendVerification(ctx, user, code)); err != nil {
		s.record("resend", "email_failed")
		return err
	}
	s.record("resend", "success")
	return nil
}

// ForgotPassword stores a fresh reset token and emails the reset link.
// Unknown addresses report ErrUserNotFound.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	ctx = ensureContext(ctx)

	if normaliseEmail(email) == "" {
		s.record("forgot", "invalid")
		return ErrEmailRequired
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			s.record("forgot", "not_found")
		}
		return err
	}

	token, err := auth.GenerateResetToken()
	if err != nil {
		return fmt.Errorf("auth service: generate reset token: %w", err)
	}
	if err := s.users.SetResetToken(ctx, user, token, s.nowUTC().Add(s.resetTTL)); err != nil {
		return err
	}

	if err := s.checkDelivery(s.notifier.SendPasswordReset(ctx, user, s.notifier.ResetURL(token))); err != nil {
		s.record("forgot", "email_failed")
		return err
	}

	s.record("forgot", "success")
	return nil
}

// ResetPassword replaces the password of the user holding a live reset token.
func (s *AuthService) ResetPassword(ctx context.Context, token, password string) error {
	ctx = ensureContext(ctx)

	token = strings.TrimSpace(token)
	if token == "" {
		s.record("reset", "invalid")
		return ErrInvalidResetToken
	}
	if password == "" {
		s.record("reset", "invalid")
		return apperrors.NewValidation("Password is required")
	}
	if len(password) > crypto.MaxPasswordBytes {
		s.record("reset", "invalid")
		return ErrPasswordTooLong
	}

	user, err := s.users.FindByResetToken(ctx, token, s.nowUTC())
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			s.record("reset", "invalid")
			return ErrInvalidResetToken
		}
		return err
	}

	hash, err := s.hashPassword(password)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, user, hash); err != nil {
		return err
	}
	user.Password = hash
	user.ClearPasswordReset()

	if err := s.checkDelivery(s.notifier.SendResetSuccess(ctx, user)); err != nil {
		s.record("reset", "email_failed")
		return err
	}

	s.record("reset", "success")
	return nil
}

// CheckAuth returns the profile of the session holder.
func (s *AuthService) CheckAuth(ctx context.Context, userID string) (*models.User, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, apperrors.ErrUnauthorized
	}
	return s.users.FindByID(ensureContext(ctx), userID)
}

func (s *AuthService) issue(user *models.User) (*Session, error) {
	signed, err := s.tokens.Sign(user.ID)
	if err != nil {
		return nil, fmt.Errorf("auth service: issue session: %w", err)
	}
	return &Session{User: user, Token: signed.Value, ExpiresAt: signed.ExpiresAt}, nil
}

func (s *AuthService) hashPassword(password string) (string, error) {
	hash, err := crypto.HashPasswordWithCost(password, s.passwordCost)
	if errors.Is(err, crypto.ErrPasswordTooLong) {
		return "", ErrPasswordTooLong
	}
	if err != nil {
		return "", fmt.Errorf("auth service: hash password: %w", err)
	}
	return hash, nil
}

// issueVerificationCode draws codes until one is not live for another user, so
// a submitted code always identifies a single account.
func (s *AuthService) issueVerificationCode(ctx context.Context) (string, error) {
	now := s.nowUTC()
	for attempt := 0; attempt < verificationCodeAttempts; attempt++ {
		code, err := s.newCode()
		if err != nil {
			return "", fmt.Errorf("auth service: generate verification code: %w", err)
		}

		_, err = s.users.FindByVerificationCode(ctx, code, now)
		if errors.Is(err, ErrUserNotFound) {
			return code, nil
		}
		if err != nil {
			return "", err
		}
		s.log.Debug("verification code collision, redrawing", zap.Int("attempt", attempt+1))
	}
	return "", errors.New("auth service: no unused verification code available")
}

func (s *AuthService) checkDelivery(delivery Delivery) error {
	if !delivery.Failed() {
		return nil
	}
	if s.policy == NotifyLenient {
		s.log.Warn("continuing after email failure", zap.Error(delivery.Err))
		return nil
	}
	return ErrEmailDelivery.WithInternal(delivery.Err)
}

func (s *AuthService) record(action, result string) {
	metrics.AuthAttempts.WithLabelValues(action, result).Inc()
}

// nowUTC keeps stored expiries in one zone so string-ordered SQLite timestamps compare correctly.
func (s *AuthService) nowUTC() time.Time {
	return s.now().UTC()
}
