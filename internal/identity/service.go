// Package identity implements signup, signin, sessions and the
// token flows for email verification and password reset.
package identity

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/openleague/openleague-go/internal/email"
	"github.com/openleague/openleague-go/internal/store"
)

// Service errors surfaced to handlers.
var (
	ErrEmailTaken        = errors.New("email already registered")
	ErrInvalidCredential = errors.New("invalid email or password")
	ErrEmailNotVerified  = errors.New("email not verified")
	ErrTokenInvalid      = errors.New("token invalid or expired")
)

// Default lifetimes.
const (
	DefaultSessionTTL      = 7 * 24 * time.Hour
	DefaultVerificationTTL = time.Hour
)

// Store is the persistence surface the provider needs.
type Store interface {
	store.UserStore
	store.SessionStore
	store.VerificationStore
}

// Provider implements the authentication operations. Construct with
// NewProvider; the zero value is not usable.
type Provider struct {
	store      Store
	sender     email.Sender
	logger     *slog.Logger
	baseURL    string
	sessionTTL time.Duration
	verifyTTL  time.Duration
}

// ProviderOpts configures a Provider.
type ProviderOpts struct {
	Store   Store
	Sender  email.Sender
	Logger  *slog.Logger
	BaseURL string

	// Zero values fall back to the defaults above.
	SessionTTL      time.Duration
	VerificationTTL time.Duration
}

// NewProvider creates an authentication provider.
func NewProvider(opts ProviderOpts) (*Provider, error) {
	if opts.Store == nil {
		return nil, errors.New("identity: store is required")
	}
	if opts.Sender == nil {
		return nil, errors.New("identity: email sender is required")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = DefaultSessionTTL
	}
	if opts.VerificationTTL <= 0 {
		opts.VerificationTTL = DefaultVerificationTTL
	}
	return &Provider{
		store:      opts.Store,
		sender:     opts.Sender,
		logger:     opts.Logger,
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		sessionTTL: opts.SessionTTL,
		verifyTTL:  opts.VerificationTTL,
	}, nil
}

// GenerateToken returns a 256-bit random token in hex.
func GenerateToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// SignUpEmail registers a new user with an email+password credential.
// The user starts unverified; a verification email is sent.
func (p *Provider) SignUpEmail(ctx context.Context, name, emailAddr, password string) (*store.User, error) {
	emailAddr = NormalizeEmail(emailAddr)
	if emailAddr == "" || !strings.Contains(emailAddr, "@") {
		return nil, errors.New("invalid email address")
	}
	if name == "" {
		return nil, errors.New("name is required")
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user := &store.User{
		ID:        NewID(KindUser),
		Name:      name,
		Email:     emailAddr,
		Role:      "user",
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := p.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	account := &store.Account{
		ID:         NewID(KindAccount),
		ProviderID: store.ProviderCredential,
		UserID:     user.ID,
		Password:   hash,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := p.store.CreateAccount(ctx, account); err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	if err := p.sendVerification(ctx, user, store.VerifyEmail); err != nil {
		// Signup still succeeds; the user can request a new email.
		p.logger.Error("failed to send verification email", "user", user.ID, "error", err)
	}

	p.logger.Info("user signed up", "user", user.ID, "email", user.Email)
	return user, nil
}

// SignInEmail authenticates a credential and opens a session. Unverified
// users are rejected.
func (p *Provider) SignInEmail(ctx context.Context, emailAddr, password, ipAddress, userAgent string) (*store.Session, *store.User, error) {
	emailAddr = NormalizeEmail(emailAddr)

	user, err := p.store.GetUserByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil, ErrInvalidCredential
		}
		return nil, nil, fmt.Errorf("failed to look up user: %w", err)
	}

	account, err := p.store.GetAccountByUser(ctx, user.ID, store.ProviderCredential)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil, ErrInvalidCredential
		}
		return nil, nil, fmt.Errorf("failed to look up account: %w", err)
	}

	if err := VerifyPassword(account.Password, password); err != nil {
		if errors.Is(err, ErrInvalidPassword) {
			return nil, nil, ErrInvalidCredential
		}
		return nil, nil, err
	}

	if !user.EmailVerified {
		return nil, nil, ErrEmailNotVerified
	}

	session, err := p.openSession(ctx, user.ID, ipAddress, userAgent)
	if err != nil {
		return nil, nil, err
	}

	p.logger.Info("user signed in", "user", user.ID)
	return session, user, nil
}

func (p *Provider) openSession(ctx context.Context, userID, ipAddress, userAgent string) (*store.Session, error) {
	token, err := GenerateToken()
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	session := &store.Session{
		ID:        NewID(KindSession),
		Token:     token,
		UserID:    userID,
		IPAddress: ipAddress,
		UserAgent: userAgent,
		ExpiresAt: now.Add(p.sessionTTL),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := p.store.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return session, nil
}

// SignOut deletes the session for a token. Unknown tokens are not an
// error.
func (p *Provider) SignOut(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return p.store.DeleteSessionByToken(ctx, token)
}

// GetSession resolves a session token to the session and its user.
// Missing, expired or empty tokens return (nil, nil, nil).
func (p *Provider) GetSession(ctx context.Context, token string) (*store.Session, *store.User, error) {
	if token == "" {
		return nil, nil, nil
	}

	session, err := p.store.GetSessionByToken(ctx, token)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("failed to look up session: %w", err)
	}
	if session.IsExpired() {
		// Best effort cleanup.
		_ = p.store.DeleteSessionByToken(ctx, token)
		return nil, nil, nil
	}

	user, err := p.store.GetUser(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("failed to look up session user: %w", err)
	}
	return session, user, nil
}

// UpdateSession persists session changes (active organization).
func (p *Provider) UpdateSession(ctx context.Context, session *store.Session) error {
	session.UpdatedAt = time.Now().UTC()
	return p.store.UpdateSession(ctx, session)
}

// ForgetPassword starts the password reset flow. To avoid revealing
// which emails exist, unknown addresses succeed silently.
func (p *Provider) ForgetPassword(ctx context.Context, emailAddr string) error {
	emailAddr = NormalizeEmail(emailAddr)

	user, err := p.store.GetUserByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			p.logger.Info("password reset requested for unknown email")
			return nil
		}
		return fmt.Errorf("failed to look up user: %w", err)
	}
	return p.sendVerification(ctx, user, store.VerifyPwReset)
}

// ResetPassword consumes a reset token and replaces the credential
// password. All existing sessions for the user are revoked.
func (p *Provider) ResetPassword(ctx context.Context, token, newPassword string) error {
	v, err := p.consumeToken(ctx, token, store.VerifyPwReset)
	if err != nil {
		return err
	}
	userID := identifierSubject(v.Identifier)

	hash, err := HashPassword(newPassword)
	if err != nil {
		return err
	}

	account, err := p.store.GetAccountByUser(ctx, userID, store.ProviderCredential)
	if err != nil {
		return fmt.Errorf("failed to look up account: %w", err)
	}
	account.Password = hash
	account.UpdatedAt = time.Now().UTC()
	if err := p.store.UpdateAccount(ctx, account); err != nil {
		return fmt.Errorf("failed to update account: %w", err)
	}

	if err := p.store.DeleteSessionsByUser(ctx, userID); err != nil {
		return fmt.Errorf("failed to revoke sessions: %w", err)
	}

	p.logger.Info("password reset", "user", userID)
	return nil
}

// VerifyEmail consumes a verification token and marks the user
// verified.
func (p *Provider) VerifyEmail(ctx context.Context, token string) error {
	v, err := p.consumeToken(ctx, token, store.VerifyEmail)
	if err != nil {
		return err
	}
	userID := identifierSubject(v.Identifier)

	user, err := p.store.GetUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to look up user: %w", err)
	}
	if user.EmailVerified {
		return nil
	}
	user.EmailVerified = true
	user.UpdatedAt = time.Now().UTC()
	if err := p.store.UpdateUser(ctx, user); err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}

	p.logger.Info("email verified", "user", userID)
	return nil
}

// sendVerification writes a one-time token and mails the link for it.
func (p *Provider) sendVerification(ctx context.Context, user *store.User, kind string) error {
	token, err := GenerateToken()
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	v := &store.Verification{
		ID:         NewID(KindVerification),
		Identifier: kind + ":" + user.ID,
		Value:      token,
		ExpiresAt:  now.Add(p.verifyTTL),
		CreatedAt:  now,
	}
	if err := p.store.CreateVerification(ctx, v); err != nil {
		return fmt.Errorf("failed to create verification: %w", err)
	}

	var msg email.Message
	switch kind {
	case store.VerifyEmail:
		msg = email.Message{
			To:      user.Email,
			Subject: "Verify your email",
			Body:    fmt.Sprintf("Hi %s,\n\nVerify your email:\n%s/api/auth/verify-email?token=%s\n", user.Name, p.baseURL, token),
		}
	case store.VerifyPwReset:
		msg = email.Message{
			To:      user.Email,
			Subject: "Reset your password",
			Body:    fmt.Sprintf("Hi %s,\n\nReset your password:\n%s/reset-password?token=%s\n", user.Name, p.baseURL, token),
		}
	default:
		return fmt.Errorf("unknown verification kind %q", kind)
	}
	return p.sender.Send(ctx, msg)
}

// consumeToken validates and deletes a one-time token of the expected
// kind. Tokens are single use.
func (p *Provider) consumeToken(ctx context.Context, token, kind string) (*store.Verification, error) {
	if token == "" {
		return nil, ErrTokenInvalid
	}
	v, err := p.store.GetVerificationByValue(ctx, token)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrTokenInvalid
		}
		return nil, fmt.Errorf("failed to look up token: %w", err)
	}
	if !strings.HasPrefix(v.Identifier, kind+":") {
		return nil, ErrTokenInvalid
	}
	if v.IsExpired() {
		_ = p.store.DeleteVerification(ctx, v.ID)
		return nil, ErrTokenInvalid
	}
	if err := p.store.DeleteVerification(ctx, v.ID); err != nil {
		return nil, fmt.Errorf("failed to consume token: %w", err)
	}
	return v, nil
}

// identifierSubject extracts the user id from a "<kind>:<userID>"
// identifier.
func identifierSubject(identifier string) string {
	if i := strings.IndexByte(identifier, ':'); i >= 0 {
		return identifier[i+1:]
	}
	return identifier
}

// NormalizeEmail lowercases and trims an email address.
func NormalizeEmail(emailAddr string) string {
	return strings.ToLower(strings.TrimSpace(emailAddr))
}
