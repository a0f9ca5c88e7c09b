package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/averybrooks/fonezone/internal/errs"
	"github.com/averybrooks/fonezone/internal/kv"
	"github.com/averybrooks/fonezone/internal/models"
)

// CreateRepair files a new repair request. A requester may have at most one
// pending ticket at a time; the check runs inside the collection lock so two
// rapid submissions cannot both slip through.
func (s *Store) CreateRepair(ctx context.Context, requesterEmail, requesterName, device, issue string) (*models.RepairTicket, error) {
	if requesterEmail == "" {
		return nil, fmt.Errorf("%w: requester email is required", errs.ErrValidation)
	}
	if device == "" {
		return nil, fmt.Errorf("%w: device is required", errs.ErrValidation)
	}
	if issue == "" {
		return nil, fmt.Errorf("%w: issue description is required", errs.ErrValidation)
	}

	mu := s.lock(kv.KeyRepairs)
	mu.Lock()
	defer mu.Unlock()

	tickets, err := readList[models.RepairTicket](ctx, s.db, kv.KeyRepairs)
	if err != nil {
		return nil, err
	}
	for _, t := range tickets {
		if strings.EqualFold(t.RequesterEmail, requesterEmail) && t.Status == models.RepairPending {
			return nil, fmt.Errorf("%w: a pending repair request already exists", errs.ErrConflict)
		}
	}

	ticket := models.RepairTicket{
		ID:             uuid.New().String(),
		RequesterEmail: strings.ToLower(requesterEmail),
		RequesterName:  requesterName,
		Device:         device,
		Issue:          issue,
		Status:         models.RepairPending,
		CreatedAt:      time.Now().UTC(),
	}
	tickets = append(tickets, ticket)
	if err := writeList(ctx, s.db, kv.KeyRepairs, tickets); err != nil {
		return nil, err
	}
	return &ticket, nil
}

// RepairsByRequester lists a customer's own tickets, newest first.
func (s *Store) RepairsByRequester(ctx context.Context, email string) ([]models.RepairTicket, error) {
	tickets, err := readList[models.RepairTicket](ctx, s.db, kv.KeyRepairs)
	if err != nil {
		return nil, err
	}
	var out []models.RepairTicket
	for _, t := range tickets {
		if strings.EqualFold(t.RequesterEmail, email) {
			out = append(out, t)
		}
	}
	sortNewestFirst(out, func(t models.RepairTicket) time.Time { return t.CreatedAt })
	return out, nil
}

// TechnicianQueue is the union of tickets assigned to the technician and the
// unclaimed pending backlog, so every idle technician sees work to pick up.
func (s *Store) TechnicianQueue(ctx context.Context, technicianEmail string) ([]models.RepairTicket, error) {
	tickets, err := readList[models.RepairTicket](ctx, s.db, kv.KeyRepairs)
	if err != nil {
		return nil, err
	}
	var out []models.RepairTicket
	for _, t := range tickets {
		mine := strings.EqualFold(t.AssignedTo, technicianEmail)
		unclaimed := t.AssignedTo == "" && t.Status == models.RepairPending
		if mine || unclaimed {
			out = append(out, t)
		}
	}
	sortNewestFirst(out, func(t models.RepairTicket) time.Time { return t.CreatedAt })
	return out, nil
}

// AllRepairs returns the full collection, for the admin overview.
func (s *Store) AllRepairs(ctx context.Context) ([]models.RepairTicket, error) {
	tickets, err := readList[models.RepairTicket](ctx, s.db, kv.KeyRepairs)
	if err != nil {
		return nil, err
	}
	sortNewestFirst(tickets, func(t models.RepairTicket) time.Time { return t.CreatedAt })
	return tickets, nil
}

// ClaimRepair self-assigns an unclaimed pending ticket to the technician and
// moves it to processing in one combined update. The unassigned re-check runs
// under the collection lock: of two concurrent claims, exactly one wins and
// the other gets a conflict instead of silently overwriting the assignment.
func (s *Store) ClaimRepair(ctx context.Context, id, technicianEmail string) (*models.RepairTicket, error) {
	mu := s.lock(kv.KeyRepairs)
	mu.Lock()
	defer mu.Unlock()

	tickets, err := readList[models.RepairTicket](ctx, s.db, kv.KeyRepairs)
	if err != nil {
		return nil, err
	}
	for i := range tickets {
		if tickets[i].ID != id {
			continue
		}
		if tickets[i].AssignedTo != "" || tickets[i].Status != models.RepairPending {
			return nil, fmt.Errorf("%w: ticket already claimed", errs.ErrConflict)
		}
		tickets[i].AssignedTo = strings.ToLower(technicianEmail)
		tickets[i].Status = models.RepairProcessing
		if err := writeList(ctx, s.db, kv.KeyRepairs, tickets); err != nil {
			return nil, err
		}
		claimed := tickets[i]
		return &claimed, nil
	}
	return nil, fmt.Errorf("%w: ticket %s", errs.ErrNotFound, id)
}

// AdvanceRepair moves a ticket one step forward in the fixed status
// sequence. Only the assigned technician may advance, and a completed ticket
// stays completed.
func (s *Store) AdvanceRepair(ctx context.Context, id, technicianEmail string) (*models.RepairTicket, error) {
	mu := s.lock(kv.KeyRepairs)
	mu.Lock()
	defer mu.Unlock()

	tickets, err := readList[models.RepairTicket](ctx, s.db, kv.KeyRepairs)
	if err != nil {
		return nil, err
	}
	for i := range tickets {
		if tickets[i].ID != id {
			continue
		}
		if !strings.EqualFold(tickets[i].AssignedTo, technicianEmail) {
			return nil, fmt.Errorf("%w: ticket is not assigned to you", errs.ErrUnauthorized)
		}
		next := tickets[i].Status.Next()
		if next == "" {
			return nil, fmt.Errorf("%w: ticket is already %s", errs.ErrConflict, tickets[i].Status)
		}
		tickets[i].Status = next
		if err := writeList(ctx, s.db, kv.KeyRepairs, tickets); err != nil {
			return nil, err
		}
		advanced := tickets[i]
		return &advanced, nil
	}
	return nil, fmt.Errorf("%w: ticket %s", errs.ErrNotFound, id)
}

// CancelRepair deletes the requester's own ticket, allowed only while it is
// still pending.
func (s *Store) CancelRepair(ctx context.Context, id, requesterEmail string) error {
	mu := s.lock(kv.KeyRepairs)
	mu.Lock()
	defer mu.Unlock()

	tickets, err := readList[models.RepairTicket](ctx, s.db, kv.KeyRepairs)
	if err != nil {
		return err
	}
	for i := range tickets {
		if tickets[i].ID != id {
			continue
		}
		if !strings.EqualFold(tickets[i].RequesterEmail, requesterEmail) {
			return fmt.Errorf("%w: not your ticket", errs.ErrUnauthorized)
		}
		if tickets[i].Status != models.RepairPending {
			return fmt.Errorf("%w: only pending tickets can be cancelled", errs.ErrConflict)
		}
		tickets = append(tickets[:i], tickets[i+1:]...)
		return writeList(ctx, s.db, kv.KeyRepairs, tickets)
	}
	return fmt.Errorf("%w: ticket %s", errs.ErrNotFound, id)
}
