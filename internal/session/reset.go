package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/averybrooks/fonezone/internal/errs"
	"github.com/averybrooks/fonezone/internal/kv"
	"github.com/averybrooks/fonezone/internal/models"
)

type resetToken struct {
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expires_at"`
}

// RequestPasswordReset issues a one-shot reset token valid for an hour.
// Whether the email exists is never revealed to the caller; unknown emails
// are only logged.
func (s *Store) RequestPasswordReset(ctx context.Context, email string) error {
	if _, err := s.FindActor(ctx, email); err != nil {
		slog.Info("Password reset requested for unknown email", "email", email)
		return nil
	}

	token := uuid.New().String()
	doc, err := json.Marshal(resetToken{
		Email:     strings.ToLower(email),
		ExpiresAt: time.Now().UTC().Add(1 * time.Hour),
	})
	if err != nil {
		return fmt.Errorf("encode reset token: %w", err)
	}
	if err := s.kv.Put(ctx, kv.ResetTokenPrefix+token, doc); err != nil {
		return fmt.Errorf("save reset token: %w", err)
	}

	// MOCK EMAIL SENDING
	slog.Info("==========================================")
	slog.Info("📧 EMAIL SENT TO: " + email)
	slog.Info("Subject: Reset your Fone Zone password")
	slog.Info("Reset link token: " + token)
	slog.Info("==========================================")
	return nil
}

// ResetPassword redeems a token and sets the new password, returning the
// actor so the caller can start a session. The token is consumed even when
// it turns out expired, so it can never be replayed.
func (s *Store) ResetPassword(ctx context.Context, token, newPassword string) (*models.Actor, error) {
	if newPassword == "" {
		return nil, fmt.Errorf("%w: password is required", errs.ErrValidation)
	}

	key := kv.ResetTokenPrefix + token
	doc, ok, err := s.kv.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("read reset token: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: invalid or expired reset token", errs.ErrUnauthorized)
	}
	_ = s.kv.Delete(ctx, key)

	var rt resetToken
	if err := json.Unmarshal(doc, &rt); err != nil || time.Now().UTC().After(rt.ExpiresAt) {
		return nil, fmt.Errorf("%w: invalid or expired reset token", errs.ErrUnauthorized)
	}

	hash, err := hashPassword(newPassword)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	actors, err := s.readActors(ctx)
	if err != nil {
		return nil, err
	}
	for i := range actors {
		if strings.EqualFold(actors[i].Email, rt.Email) {
			actors[i].Password = hash
			if err := s.writeActors(ctx, actors); err != nil {
				return nil, err
			}
			reset := actors[i]
			return &reset, nil
		}
	}
	return nil, fmt.Errorf("%w: no actor with email %s", errs.ErrNotFound, rt.Email)
}
