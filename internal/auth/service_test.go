package auth

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/ludosixer/ludo_wallet/internal/apperr"
	"github.com/ludosixer/ludo_wallet/internal/clock"
	"github.com/ludosixer/ludo_wallet/internal/identity"
	"github.com/ludosixer/ludo_wallet/internal/logging"
	"github.com/ludosixer/ludo_wallet/internal/notification"
)

func init() {
	otpHashCost = bcrypt.MinCost
}

type outbox struct {
	mu   sync.Mutex
	sent []notification.Message
	err  error
}

func (o *outbox) Send(_ context.Context, msg notification.Message) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sent = append(o.sent, msg)
	return o.err
}

func (o *outbox) lastCode(t *testing.T) string {
	t.Helper()
	o.mu.Lock()
	defer o.mu.Unlock()
	require.NotEmpty(t, o.sent)
	body := o.sent[len(o.sent)-1].Body
	return body[strings.LastIndex(body, " ")+1:]
}

type fixture struct {
	svc    *Service
	tokens *Tokens
	clock  *clock.Manual
	box    *outbox
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	clk := clock.NewManual(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))
	ids := identity.NewService(identity.NewMemoryRepository(), clk)
	tokens := NewTokens("test-secret", 7*24*time.Hour, clk)
	box := &outbox{}
	svc := NewService(ids, tokens, box, Options{Clock: clk, Logger: logging.Discard()})
	return fixture{svc: svc, tokens: tokens, clock: clk, box: box}
}

func TestSignupIssuesTokenForNewUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	token, err := f.svc.Signup(ctx, identity.Registration{Name: "Asha", Phone: "9876543210"})
	require.NoError(t, err)

	user, err := f.svc.Authenticate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "9876543210", user.Phone)
	assert.True(t, user.TopUpBalance.IsZero())

	_, err = f.svc.Signup(ctx, identity.Registration{Name: "Other", Phone: "9876543210"})
	assert.True(t, apperr.Is(err, apperr.KindDuplicate))
}

func TestLoginValidatesPhone(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	err := f.svc.Login(ctx, "12345")
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	err = f.svc.Login(ctx, "9000000000")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestOTPRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.Signup(ctx, identity.Registration{Name: "Asha", Phone: "9876543210"})
	require.NoError(t, err)

	require.NoError(t, f.svc.Login(ctx, "9876543210"))
	code := f.box.lastCode(t)
	assert.Len(t, code, 4)
	assert.Equal(t, "9876543210", f.box.sent[0].Destination)

	token, err := f.svc.VerifyOTP(ctx, "9876543210", code)
	require.NoError(t, err)
	userID, err := f.tokens.Parse(token)
	require.NoError(t, err)
	assert.NotEmpty(t, userID)

	_, err = f.svc.VerifyOTP(ctx, "9876543210", code)
	assert.True(t, apperr.Is(err, apperr.KindOtpExpired), "a code is single use")
}

func TestConcurrentVerifyUsesCodeOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.Signup(ctx, identity.Registration{Name: "Asha", Phone: "9876543210"})
	require.NoError(t, err)
	require.NoError(t, f.svc.Login(ctx, "9876543210"))
	code := f.box.lastCode(t)

	const attempts = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		tokens  int
		expired int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.VerifyOTP(ctx, "9876543210", code)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				tokens++
			case apperr.Is(err, apperr.KindOtpExpired):
				expired++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, tokens)
	assert.Equal(t, attempts-1, expired)
}

func TestVerifyOTPRejectsMismatchAndExpiry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.Signup(ctx, identity.Registration{Name: "Asha", Phone: "9876543210"})
	require.NoError(t, err)

	_, err = f.svc.VerifyOTP(ctx, "9876543210", "1234")
	assert.True(t, apperr.Is(err, apperr.KindOtpExpired), "no challenge stored")

	require.NoError(t, f.svc.Login(ctx, "9876543210"))
	code := f.box.lastCode(t)
	wrong := "1000"
	if code == wrong {
		wrong = "1001"
	}
	_, err = f.svc.VerifyOTP(ctx, "9876543210", wrong)
	assert.True(t, apperr.Is(err, apperr.KindInvalidOtp))

	f.clock.Advance(11 * time.Minute)
	_, err = f.svc.VerifyOTP(ctx, "9876543210", code)
	assert.True(t, apperr.Is(err, apperr.KindOtpExpired))
}

func TestVerifyOTPValidatesInput(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.VerifyOTP(ctx, "98765", "1234")
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	_, err = f.svc.VerifyOTP(ctx, "9876543210", "12a4")
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	_, err = f.svc.VerifyOTP(ctx, "9876543210", "1234")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestLoginSurvivesSMSFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.Signup(ctx, identity.Registration{Name: "Asha", Phone: "9876543210"})
	require.NoError(t, err)

	f.box.err = errors.New("provider down")
	require.NoError(t, f.svc.Login(ctx, "9876543210"))

	_, err = f.svc.VerifyOTP(ctx, "9876543210", f.box.lastCode(t))
	assert.NoError(t, err)
}

func TestTokensRejectExpiredAndForeign(t *testing.T) {
	f := newFixture(t)

	token, exp, err := f.tokens.Issue("user-1")
	require.NoError(t, err)
	assert.Equal(t, f.clock.Now().Add(7*24*time.Hour), exp)

	other := NewTokens("another-secret", time.Hour, f.clock)
	_, err = other.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	f.clock.Advance(8 * 24 * time.Hour)
	_, err = f.tokens.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = f.tokens.Parse("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
