package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/averybrooks/fonezone/internal/errs"
	"github.com/averybrooks/fonezone/internal/kv"
	"github.com/averybrooks/fonezone/internal/models"
)

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func (s *Store) readActors(ctx context.Context) ([]models.Actor, error) {
	doc, ok, err := s.kv.Get(ctx, kv.KeyRegisteredUsers)
	if err != nil {
		return nil, fmt.Errorf("read actor directory: %w", err)
	}
	if !ok {
		return nil, nil
	}
	var actors []models.Actor
	if err := json.Unmarshal(doc, &actors); err != nil {
		slog.Warn("Discarding corrupt actor directory", "error", err)
		_ = s.kv.Delete(ctx, kv.KeyRegisteredUsers)
		return nil, nil
	}
	return actors, nil
}

func (s *Store) writeActors(ctx context.Context, actors []models.Actor) error {
	doc, err := json.Marshal(actors)
	if err != nil {
		return fmt.Errorf("encode actor directory: %w", err)
	}
	if err := s.kv.Put(ctx, kv.KeyRegisteredUsers, doc); err != nil {
		return fmt.Errorf("save actor directory: %w", err)
	}
	return nil
}

// Register creates a customer actor. Emails are the directory key and are
// matched case-insensitively; a duplicate leaves the directory untouched.
func (s *Store) Register(ctx context.Context, email, username, displayName, password string) (*models.Actor, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: a valid email is required", errs.ErrValidation)
	}
	if password == "" {
		return nil, fmt.Errorf("%w: password is required", errs.ErrValidation)
	}
	if username == "" {
		username = email[:strings.Index(email, "@")]
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	actors, err := s.readActors(ctx)
	if err != nil {
		return nil, err
	}
	for _, a := range actors {
		if strings.EqualFold(a.Email, email) {
			return nil, fmt.Errorf("%w: email already registered", errs.ErrConflict)
		}
	}

	hash, err := hashPassword(password)
	if err != nil {
		return nil, err
	}
	actor := models.Actor{
		Email:       email,
		Username:    username,
		DisplayName: displayName,
		Password:    hash,
		Role:        models.RoleCustomer,
		CreatedAt:   time.Now().UTC(),
	}
	actors = append(actors, actor)
	if err := s.writeActors(ctx, actors); err != nil {
		return nil, err
	}
	return &actor, nil
}

// Authenticate checks credentials against the directory. Wrong email and
// wrong password are indistinguishable to the caller.
func (s *Store) Authenticate(ctx context.Context, email, password string) (*models.Actor, error) {
	actors, err := s.readActors(ctx)
	if err != nil {
		return nil, err
	}
	for i := range actors {
		if strings.EqualFold(actors[i].Email, email) {
			if bcrypt.CompareHashAndPassword([]byte(actors[i].Password), []byte(password)) != nil {
				return nil, fmt.Errorf("%w: invalid email or password", errs.ErrUnauthorized)
			}
			return &actors[i], nil
		}
	}
	return nil, fmt.Errorf("%w: invalid email or password", errs.ErrUnauthorized)
}

// FindActor looks an actor up by email.
func (s *Store) FindActor(ctx context.Context, email string) (*models.Actor, error) {
	actors, err := s.readActors(ctx)
	if err != nil {
		return nil, err
	}
	for i := range actors {
		if strings.EqualFold(actors[i].Email, email) {
			return &actors[i], nil
		}
	}
	return nil, fmt.Errorf("%w: no actor with email %s", errs.ErrNotFound, email)
}

// ListActors returns the whole directory, for the admin console.
func (s *Store) ListActors(ctx context.Context) ([]models.Actor, error) {
	return s.readActors(ctx)
}

// Promote turns a customer into an employee with the given category. Admins
// cannot be demoted this way and employees keep their category unless
// promoted again.
func (s *Store) Promote(ctx context.Context, email string, category models.Category) (*models.Actor, error) {
	switch category {
	case models.CategoryRepairTechnician, models.CategoryDeliveryDriver, models.CategorySalesSupport:
	default:
		return nil, fmt.Errorf("%w: unknown employee category %q", errs.ErrValidation, category)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	actors, err := s.readActors(ctx)
	if err != nil {
		return nil, err
	}
	for i := range actors {
		if strings.EqualFold(actors[i].Email, email) {
			if actors[i].Role == models.RoleAdmin {
				return nil, fmt.Errorf("%w: cannot change the admin actor's role", errs.ErrValidation)
			}
			actors[i].Role = models.RoleEmployee
			actors[i].Category = category
			if err := s.writeActors(ctx, actors); err != nil {
				return nil, err
			}
			return &actors[i], nil
		}
	}
	return nil, fmt.Errorf("%w: no actor with email %s", errs.ErrNotFound, email)
}

// DeleteActor removes an actor from the directory. The bootstrap admin is
// protected; deleting it would break the exactly-one-admin invariant.
func (s *Store) DeleteActor(ctx context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	actors, err := s.readActors(ctx)
	if err != nil {
		return err
	}
	for i := range actors {
		if strings.EqualFold(actors[i].Email, email) {
			if actors[i].Role == models.RoleAdmin {
				return fmt.Errorf("%w: the admin actor cannot be deleted", errs.ErrValidation)
			}
			actors = append(actors[:i], actors[i+1:]...)
			return s.writeActors(ctx, actors)
		}
	}
	return fmt.Errorf("%w: no actor with email %s", errs.ErrNotFound, email)
}
