package identity

import (
	"context"
	"io"
	"log/slog"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openleague/openleague-go/internal/email"
	"github.com/openleague/openleague-go/internal/store"
	"github.com/openleague/openleague-go/internal/store/memory"
)

// captureSender records sent messages for assertions.
type captureSender struct {
	mu       sync.Mutex
	messages []email.Message
}

func (c *captureSender) Send(ctx context.Context, msg email.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, msg)
	return nil
}

func (c *captureSender) last(t *testing.T) email.Message {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	require.NotEmpty(t, c.messages, "no email was sent")
	return c.messages[len(c.messages)-1]
}

var tokenRe = regexp.MustCompile(`token=([0-9a-f]{64})`)

func (c *captureSender) lastToken(t *testing.T) string {
	t.Helper()
	m := tokenRe.FindStringSubmatch(c.last(t).Body)
	require.Len(t, m, 2, "no token in email body")
	return m[1]
}

func newTestProvider(t *testing.T) (*Provider, *captureSender, *memory.Driver) {
	t.Helper()
	d := memory.New()
	sender := &captureSender{}
	p, err := NewProvider(ProviderOpts{
		Store:   d,
		Sender:  sender,
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		BaseURL: "https://league.test",
	})
	require.NoError(t, err)
	return p, sender, d
}

// signUpVerified registers and verifies a user in one step.
func signUpVerified(t *testing.T, p *Provider, sender *captureSender, name, emailAddr, password string) *store.User {
	t.Helper()
	ctx := context.Background()
	user, err := p.SignUpEmail(ctx, name, emailAddr, password)
	require.NoError(t, err)
	require.NoError(t, p.VerifyEmail(ctx, sender.lastToken(t)))
	return user
}

func TestSignUpEmail(t *testing.T) {
	p, sender, _ := newTestProvider(t)
	ctx := context.Background()

	user, err := p.SignUpEmail(ctx, "Alice", "Alice@Example.COM", "hunter22!pass")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", user.Email, "email is normalized")
	assert.False(t, user.EmailVerified)
	assert.Regexp(t, `^u-`, user.ID)

	msg := sender.last(t)
	assert.Equal(t, "alice@example.com", msg.To)
	assert.Contains(t, msg.Body, "verify-email?token=")

	_, err = p.SignUpEmail(ctx, "Other", "alice@example.com", "hunter22!pass")
	assert.ErrorIs(t, err, ErrEmailTaken)

	_, err = p.SignUpEmail(ctx, "Bob", "not-an-email", "hunter22!pass")
	assert.Error(t, err)

	_, err = p.SignUpEmail(ctx, "Bob", "bob@example.com", "short")
	assert.Error(t, err, "short password rejected")
}

func TestSignInEmail(t *testing.T) {
	p, sender, _ := newTestProvider(t)
	ctx := context.Background()

	_, err := p.SignUpEmail(ctx, "Alice", "alice@example.com", "hunter22!pass")
	require.NoError(t, err)

	// Unverified users cannot sign in.
	_, _, err = p.SignInEmail(ctx, "alice@example.com", "hunter22!pass", "", "")
	assert.ErrorIs(t, err, ErrEmailNotVerified)

	require.NoError(t, p.VerifyEmail(ctx, sender.lastToken(t)))

	session, user, err := p.SignInEmail(ctx, "alice@example.com", "hunter22!pass", "10.0.0.1", "test-agent")
	require.NoError(t, err)
	assert.NotEmpty(t, session.Token)
	assert.Equal(t, user.ID, session.UserID)
	assert.Equal(t, "10.0.0.1", session.IPAddress)
	assert.True(t, session.ExpiresAt.After(time.Now()))

	_, _, err = p.SignInEmail(ctx, "alice@example.com", "wrongpassword", "", "")
	assert.ErrorIs(t, err, ErrInvalidCredential)

	// Unknown email is indistinguishable from a bad password.
	_, _, err = p.SignInEmail(ctx, "nobody@example.com", "hunter22!pass", "", "")
	assert.ErrorIs(t, err, ErrInvalidCredential)
}

func TestGetSession(t *testing.T) {
	p, sender, d := newTestProvider(t)
	ctx := context.Background()

	signUpVerified(t, p, sender, "Alice", "alice@example.com", "hunter22!pass")
	session, user, err := p.SignInEmail(ctx, "alice@example.com", "hunter22!pass", "", "")
	require.NoError(t, err)

	gotSession, gotUser, err := p.GetSession(ctx, session.Token)
	require.NoError(t, err)
	require.NotNil(t, gotSession)
	assert.Equal(t, session.Token, gotSession.Token)
	assert.Equal(t, user.ID, gotUser.ID)

	// Empty and unknown tokens resolve to no session, not an error.
	gotSession, gotUser, err = p.GetSession(ctx, "")
	require.NoError(t, err)
	assert.Nil(t, gotSession)
	assert.Nil(t, gotUser)

	gotSession, _, err = p.GetSession(ctx, "bogus-token")
	require.NoError(t, err)
	assert.Nil(t, gotSession)

	// Expired sessions resolve to nil and are cleaned up.
	expired := &store.Session{
		ID:        NewID(KindSession),
		Token:     "expired-token",
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(-time.Minute),
	}
	require.NoError(t, d.CreateSession(ctx, expired))
	gotSession, _, err = p.GetSession(ctx, "expired-token")
	require.NoError(t, err)
	assert.Nil(t, gotSession)
}

func TestSignOut(t *testing.T) {
	p, sender, _ := newTestProvider(t)
	ctx := context.Background()

	signUpVerified(t, p, sender, "Alice", "alice@example.com", "hunter22!pass")
	session, _, err := p.SignInEmail(ctx, "alice@example.com", "hunter22!pass", "", "")
	require.NoError(t, err)

	require.NoError(t, p.SignOut(ctx, session.Token))
	gotSession, _, err := p.GetSession(ctx, session.Token)
	require.NoError(t, err)
	assert.Nil(t, gotSession)

	// Signing out an unknown token is a no-op.
	assert.NoError(t, p.SignOut(ctx, "bogus"))
	assert.NoError(t, p.SignOut(ctx, ""))
}

func TestPasswordResetFlow(t *testing.T) {
	p, sender, _ := newTestProvider(t)
	ctx := context.Background()

	signUpVerified(t, p, sender, "Alice", "alice@example.com", "hunter22!pass")
	session, _, err := p.SignInEmail(ctx, "alice@example.com", "hunter22!pass", "", "")
	require.NoError(t, err)

	require.NoError(t, p.ForgetPassword(ctx, "alice@example.com"))
	token := sender.lastToken(t)
	assert.Contains(t, sender.last(t).Body, "reset-password?token=")

	require.NoError(t, p.ResetPassword(ctx, token, "newpassword99"))

	// Old password no longer works, new one does.
	_, _, err = p.SignInEmail(ctx, "alice@example.com", "hunter22!pass", "", "")
	assert.ErrorIs(t, err, ErrInvalidCredential)
	_, _, err = p.SignInEmail(ctx, "alice@example.com", "newpassword99", "", "")
	assert.NoError(t, err)

	// Existing sessions were revoked.
	gotSession, _, err := p.GetSession(ctx, session.Token)
	require.NoError(t, err)
	assert.Nil(t, gotSession)

	// Token is single use.
	assert.ErrorIs(t, p.ResetPassword(ctx, token, "anotherpass11"), ErrTokenInvalid)
}

func TestForgetPasswordUnknownEmail(t *testing.T) {
	p, sender, _ := newTestProvider(t)

	// Unknown emails must not leak existence.
	require.NoError(t, p.ForgetPassword(context.Background(), "ghost@example.com"))
	sender.mu.Lock()
	defer sender.mu.Unlock()
	assert.Empty(t, sender.messages)
}

func TestTokenKindsAreNotInterchangeable(t *testing.T) {
	p, sender, _ := newTestProvider(t)
	ctx := context.Background()

	_, err := p.SignUpEmail(ctx, "Alice", "alice@example.com", "hunter22!pass")
	require.NoError(t, err)
	verifyToken := sender.lastToken(t)

	// A verification token cannot reset a password.
	assert.ErrorIs(t, p.ResetPassword(ctx, verifyToken, "newpassword99"), ErrTokenInvalid)

	// And it still works for its own purpose afterwards.
	assert.NoError(t, p.VerifyEmail(ctx, verifyToken))
}

func TestEnsureAdmin(t *testing.T) {
	_, _, d := newTestProvider(t)
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	require.NoError(t, EnsureAdmin(ctx, d, logger, "Root", "admin@example.com", "adminpass123"))

	user, err := d.GetUserByEmail(ctx, "admin@example.com")
	require.NoError(t, err)
	assert.True(t, user.EmailVerified)
	assert.Equal(t, "admin", user.Role)

	// Idempotent on restart.
	require.NoError(t, EnsureAdmin(ctx, d, logger, "Root", "admin@example.com", "adminpass123"))

	// Disabled when unset.
	require.NoError(t, EnsureAdmin(ctx, d, logger, "", "", ""))
}
