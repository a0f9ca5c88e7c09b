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

// AppendSupportMessage adds one entry to the append-only chat log. sender is
// "user" or "support"; messages are never edited or deleted.
func (s *Store) AppendSupportMessage(ctx context.Context, from, to, sender, body string) (*models.SupportMessage, error) {
	if body == "" {
		return nil, fmt.Errorf("%w: message body is required", errs.ErrValidation)
	}
	if sender != models.SenderUser && sender != models.SenderSupport {
		return nil, fmt.Errorf("%w: unknown sender %q", errs.ErrValidation, sender)
	}

	mu := s.lock(kv.KeySupportMessages)
	mu.Lock()
	defer mu.Unlock()

	msgs, err := readList[models.SupportMessage](ctx, s.db, kv.KeySupportMessages)
	if err != nil {
		return nil, err
	}
	msg := models.SupportMessage{
		ID:     uuid.New().String(),
		From:   strings.ToLower(from),
		To:     strings.ToLower(to),
		Sender: sender,
		Body:   body,
		SentAt: time.Now().UTC(),
	}
	msgs = append(msgs, msg)
	if err := writeList(ctx, s.db, kv.KeySupportMessages, msgs); err != nil {
		return nil, err
	}
	return &msg, nil
}

// SupportThread returns every message the customer sent or received, oldest
// first, the order a chat renders in.
func (s *Store) SupportThread(ctx context.Context, customerEmail string) ([]models.SupportMessage, error) {
	msgs, err := readList[models.SupportMessage](ctx, s.db, kv.KeySupportMessages)
	if err != nil {
		return nil, err
	}
	var out []models.SupportMessage
	for _, m := range msgs {
		if strings.EqualFold(m.From, customerEmail) || strings.EqualFold(m.To, customerEmail) {
			out = append(out, m)
		}
	}
	return out, nil
}

// SupportCustomers lists the distinct customer emails with at least one
// message, for the support console's conversation sidebar.
func (s *Store) SupportCustomers(ctx context.Context) ([]string, error) {
	msgs, err := readList[models.SupportMessage](ctx, s.db, kv.KeySupportMessages)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var out []string
	for _, m := range msgs {
		customer := m.From
		if m.Sender == models.SenderSupport {
			customer = m.To
		}
		if customer != "" && !seen[customer] {
			seen[customer] = true
			out = append(out, customer)
		}
	}
	return out, nil
}

// MarkThreadRead flags every message addressed to reader in the customer's
// thread as read. Called when the recipient opens the thread.
func (s *Store) MarkThreadRead(ctx context.Context, customerEmail, reader string) error {
	mu := s.lock(kv.KeySupportMessages)
	mu.Lock()
	defer mu.Unlock()

	msgs, err := readList[models.SupportMessage](ctx, s.db, kv.KeySupportMessages)
	if err != nil {
		return err
	}
	changed := false
	for i := range msgs {
		inThread := strings.EqualFold(msgs[i].From, customerEmail) || strings.EqualFold(msgs[i].To, customerEmail)
		if inThread && strings.EqualFold(msgs[i].To, reader) && !msgs[i].Read {
			msgs[i].Read = true
			changed = true
		}
	}
	if !changed {
		return nil
	}
	return writeList(ctx, s.db, kv.KeySupportMessages, msgs)
}
