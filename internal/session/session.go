// Package session owns "who is logged in": the current session actor, the
// registered-actor directory, admin bootstrap and the password reset flow.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/averybrooks/fonezone/internal/kv"
	"github.com/averybrooks/fonezone/internal/models"
)

// Listener observes session changes. The actor is nil after a logout.
type Listener func(actor *models.Actor)

type Store struct {
	kv kv.Store

	mu        sync.Mutex
	listeners []Listener
}

func NewStore(db kv.Store) *Store {
	return &Store{kv: db}
}

// Subscribe registers a listener that is invoked synchronously on every
// Login/Logout, so no observer sees a stale actor after the call returns.
func (s *Store) Subscribe(l Listener) {
	s.mu.Lock()
	s.listeners = append(s.listeners, l)
	s.mu.Unlock()
}

func (s *Store) notify(actor *models.Actor) {
	s.mu.Lock()
	ls := make([]Listener, len(s.listeners))
	copy(ls, s.listeners)
	s.mu.Unlock()
	for _, l := range ls {
		l(actor)
	}
}

func sessionKey(email string) string {
	return kv.SessionKeyPrefix + strings.ToLower(email)
}

// Login makes actor the session actor for their own principal. Sessions are
// one document per email, never a shared singleton, so clients cannot observe
// each other's logins. Admin-ness is derived from actor.Role, with no second
// flag to drift out of sync.
func (s *Store) Login(ctx context.Context, actor *models.Actor) error {
	doc, err := json.Marshal(actor)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := s.kv.Put(ctx, sessionKey(actor.Email), doc); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	s.notify(actor)
	return nil
}

// Logout clears one principal's session and touches nobody else's.
// Idempotent. Also removes the legacy single-browser session document and
// the redundant admin marker if older data left them behind.
func (s *Store) Logout(ctx context.Context, email string) error {
	if email != "" {
		if err := s.kv.Delete(ctx, sessionKey(email)); err != nil {
			return fmt.Errorf("clear session: %w", err)
		}
	}
	_ = s.kv.Delete(ctx, kv.KeyLegacySession)
	_ = s.kv.Delete(ctx, kv.KeyAdminMarker)
	s.notify(nil)
	return nil
}

// Current returns the principal's session actor, or nil when they are not
// logged in. A stored document that fails to decode is treated as "nobody"
// and cleared, so one bad write can never wedge every guarded route.
func (s *Store) Current(ctx context.Context, email string) (*models.Actor, error) {
	if email == "" {
		return nil, nil
	}
	doc, ok, err := s.kv.Get(ctx, sessionKey(email))
	if err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}
	if !ok {
		return nil, nil
	}
	var actor models.Actor
	if err := json.Unmarshal(doc, &actor); err != nil || actor.Email == "" {
		slog.Warn("Discarding corrupt session document", "email", email, "error", err)
		_ = s.kv.Delete(ctx, sessionKey(email))
		return nil, nil
	}
	return &actor, nil
}

// IsAdmin reports whether the principal's session actor is an admin. This is
// the derived replacement for the old adminLoggedIn flag.
func (s *Store) IsAdmin(ctx context.Context, email string) (bool, error) {
	actor, err := s.Current(ctx, email)
	if err != nil {
		return false, err
	}
	return actor != nil && actor.Role == models.RoleAdmin, nil
}

// BootstrapAdmin ensures the well-known admin email maps to an admin actor.
// Safe to call on every startup. An existing actor holding the email with a
// different role (after an ADMIN_EMAIL change, say) is raised to admin rather
// than leaving the directory with zero admins.
func (s *Store) BootstrapAdmin(ctx context.Context, email, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	actors, err := s.readActors(ctx)
	if err != nil {
		return err
	}
	for i := range actors {
		if strings.EqualFold(actors[i].Email, email) {
			if actors[i].Role == models.RoleAdmin {
				return nil
			}
			actors[i].Role = models.RoleAdmin
			actors[i].Category = ""
			if err := s.writeActors(ctx, actors); err != nil {
				return err
			}
			slog.Info("Raised existing actor to admin", "email", email)
			return nil
		}
	}
	hash, err := hashPassword(password)
	if err != nil {
		return err
	}
	actors = append(actors, models.Actor{
		Email:       email,
		Username:    "admin",
		DisplayName: "Administrator",
		Password:    hash,
		Role:        models.RoleAdmin,
		CreatedAt:   time.Now().UTC(),
	})
	if err := s.writeActors(ctx, actors); err != nil {
		return err
	}
	slog.Info("Bootstrapped admin actor", "email", email)
	return nil
}
