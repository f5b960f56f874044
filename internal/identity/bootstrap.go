package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/openleague/openleague-go/internal/store"
)

// EnsureAdmin creates the configured admin user if it does not exist.
// The admin is created pre-verified so it can sign in immediately.
// Safe to call on every startup.
func EnsureAdmin(ctx context.Context, s Store, logger *slog.Logger, name, emailAddr, password string) error {
	if emailAddr == "" || password == "" {
		return nil
	}
	emailAddr = NormalizeEmail(emailAddr)

	if _, err := s.GetUserByEmail(ctx, emailAddr); err == nil {
		return nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("failed to look up admin user: %w", err)
	}

	hash, err := HashPassword(password)
	if err != nil {
		return fmt.Errorf("invalid admin password: %w", err)
	}
	if name == "" {
		name = "Admin"
	}

	now := time.Now().UTC()
	user := &store.User{
		ID:            NewID(KindUser),
		Name:          name,
		Email:         emailAddr,
		EmailVerified: true,
		Role:          "admin",
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil
		}
		return fmt.Errorf("failed to create admin user: %w", err)
	}

	account := &store.Account{
		ID:         NewID(KindAccount),
		ProviderID: store.ProviderCredential,
		UserID:     user.ID,
		Password:   hash,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.CreateAccount(ctx, account); err != nil {
		return fmt.Errorf("failed to create admin account: %w", err)
	}

	logger.Info("admin user created", "user", user.ID, "email", user.Email)
	return nil
}
