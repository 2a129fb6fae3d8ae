package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ludosixer/ludo_wallet/internal/apperr"
	"github.com/ludosixer/ludo_wallet/internal/clock"
	"github.com/ludosixer/ludo_wallet/internal/identity"
	"github.com/ludosixer/ludo_wallet/internal/lock"
	"github.com/ludosixer/ludo_wallet/internal/metrics"
	"github.com/ludosixer/ludo_wallet/internal/notification"
)

const defaultOTPTTL = 10 * time.Minute

// Options tunes the auth service. Zero values fall back to defaults.
type Options struct {
	OTPTTL  time.Duration
	Clock   clock.Clock
	Logger  *slog.Logger
	Metrics *metrics.Metrics
	// Locker serializes OTP verification per user. Share it with the
	// wallet service so both agree on the user lock.
	Locker lock.Locker
	// LogOTPOnFailure writes the code to the log when SMS delivery fails,
	// which keeps local logins possible without an SMS provider.
	LogOTPOnFailure bool
}

// Service runs the phone + OTP login flow and issues bearer tokens.
type Service struct {
	ids      *identity.Service
	tokens   *Tokens
	notifier notification.Notifier
	otpTTL   time.Duration
	clock    clock.Clock
	logger   *slog.Logger
	metrics  *metrics.Metrics
	locker   lock.Locker
	logOTP   bool
}

func NewService(ids *identity.Service, tokens *Tokens, notifier notification.Notifier, opts Options) *Service {
	s := &Service{
		ids:      ids,
		tokens:   tokens,
		notifier: notifier,
		otpTTL:   opts.OTPTTL,
		clock:    opts.Clock,
		logger:   opts.Logger,
		metrics:  opts.Metrics,
		locker:   opts.Locker,
		logOTP:   opts.LogOTPOnFailure,
	}
	if s.otpTTL <= 0 {
		s.otpTTL = defaultOTPTTL
	}
	if s.clock == nil {
		s.clock = clock.RealClock{}
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.locker == nil {
		s.locker = lock.NewMemoryLocker()
	}
	return s
}

// Signup registers a user and returns a token for them.
func (s *Service) Signup(ctx context.Context, reg identity.Registration) (string, error) {
	user, err := s.ids.Register(ctx, reg)
	if err != nil {
		return "", err
	}
	return s.issue(user.ID)
}

// Login starts an OTP challenge for a registered phone number.
func (s *Service) Login(ctx context.Context, phone string) error {
	if !identity.ValidPhone(phone) {
		return apperr.Validation("Invalid phone number")
	}
	user, err := s.ids.GetByPhone(ctx, phone)
	if err != nil {
		return err
	}

	code, err := generateOTP()
	if err != nil {
		return apperr.Internal("could not generate otp", err)
	}
	hash, err := hashOTP(code)
	if err != nil {
		return apperr.Internal("could not generate otp", err)
	}
	challenge := &identity.OTP{CodeHash: hash, Expiry: s.clock.Now().Add(s.otpTTL)}
	if err := s.ids.Repository().SetOTP(ctx, user.ID, challenge); err != nil {
		return apperr.Internal("could not store otp", err)
	}

	msg := notification.Message{
		Kind:        notification.KindLoginOTP,
		Destination: user.Phone,
		Body:        fmt.Sprintf("Your verification code is: %s", code),
	}
	if err := s.notifier.Send(ctx, msg); err != nil {
		s.metrics.RecordOTPDelivery("failed")
		attrs := []any{"user_id", user.ID, "error", err}
		if s.logOTP {
			attrs = append(attrs, "otp", code)
		}
		s.logger.WarnContext(ctx, "otp delivery failed", attrs...)
		return nil
	}
	s.metrics.RecordOTPDelivery("sent")
	return nil
}

// VerifyOTP completes a challenge and returns a token. The check and the
// clear run under the user lock, so a code can be used once.
func (s *Service) VerifyOTP(ctx context.Context, phone, code string) (string, error) {
	if !identity.ValidPhone(phone) {
		return "", apperr.Validation("Invalid phone number")
	}
	if !otpPattern.MatchString(code) {
		return "", apperr.Validation("OTP must be 4 digits")
	}
	user, err := s.ids.GetByPhone(ctx, phone)
	if err != nil {
		return "", err
	}

	release, err := s.locker.Lock(ctx, user.ID)
	if err != nil {
		return "", apperr.Internal("could not lock user", err)
	}
	defer release()

	// Re-read under the lock: a concurrent verify may have consumed the code.
	user, err = s.ids.Get(ctx, user.ID)
	if err != nil {
		return "", err
	}
	if user.OTP.Expired(s.clock.Now()) {
		s.metrics.RecordOTPVerification("expired")
		return "", apperr.OtpExpired("OTP expired")
	}
	if !otpMatches(user.OTP.CodeHash, code) {
		s.metrics.RecordOTPVerification("invalid")
		return "", apperr.InvalidOtp("Invalid OTP")
	}

	if err := s.ids.Repository().SetOTP(ctx, user.ID, nil); err != nil {
		return "", apperr.Internal("could not clear otp", err)
	}
	s.metrics.RecordOTPVerification("verified")
	return s.issue(user.ID)
}

// Authenticate resolves a bearer token to the user it was issued for.
func (s *Service) Authenticate(ctx context.Context, token string) (identity.User, error) {
	userID, err := s.tokens.Parse(token)
	if err != nil {
		return identity.User{}, apperr.Unauthorized("Invalid token")
	}
	user, err := s.ids.Get(ctx, userID)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return identity.User{}, apperr.Unauthorized("User not found")
		}
		return identity.User{}, err
	}
	return user, nil
}

func (s *Service) issue(userID string) (string, error) {
	token, _, err := s.tokens.Issue(userID)
	if err != nil {
		return "", apperr.Internal("could not issue token", err)
	}
	return token, nil
}
