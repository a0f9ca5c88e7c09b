package store

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/averybrooks/fonezone/internal/errs"
	"github.com/averybrooks/fonezone/internal/kv"
	"github.com/averybrooks/fonezone/internal/models"
)

func newTestStore(t *testing.T) (*Store, *kv.Memory) {
	t.Helper()
	db := kv.NewMemory()
	return NewStore(db), db
}

func TestCreateRepair(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	ticket, err := s.CreateRepair(ctx, "cust@x.com", "Cust", "iPhone 12", "cracked screen")
	require.NoError(t, err)
	assert.NotEmpty(t, ticket.ID)
	assert.Equal(t, models.RepairPending, ticket.Status)
	assert.Empty(t, ticket.AssignedTo, "a fresh ticket has no technician")
}

func TestCreateRepairValidation(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	_, err := s.CreateRepair(ctx, "", "Cust", "iPhone 12", "cracked screen")
	assert.ErrorIs(t, err, errs.ErrValidation)
	_, err = s.CreateRepair(ctx, "cust@x.com", "Cust", "", "cracked screen")
	assert.ErrorIs(t, err, errs.ErrValidation)
	_, err = s.CreateRepair(ctx, "cust@x.com", "Cust", "iPhone 12", "")
	assert.ErrorIs(t, err, errs.ErrValidation)

	// Nothing was written on the failed attempts.
	tickets, err := s.AllRepairs(ctx)
	require.NoError(t, err)
	assert.Empty(t, tickets)
}

func TestOnePendingTicketPerRequester(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	first, err := s.CreateRepair(ctx, "cust@x.com", "Cust", "iPhone 12", "cracked screen")
	require.NoError(t, err)

	_, err = s.CreateRepair(ctx, "cust@x.com", "Cust", "iPhone 12", "battery drain")
	assert.ErrorIs(t, err, errs.ErrConflict)

	// Once the pending ticket is claimed, a new submission is allowed.
	_, err = s.ClaimRepair(ctx, first.ID, "tech@x.com")
	require.NoError(t, err)
	_, err = s.CreateRepair(ctx, "cust@x.com", "Cust", "iPhone 12", "battery drain")
	assert.NoError(t, err)
}

func TestClaimRepair(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	ticket, err := s.CreateRepair(ctx, "cust@x.com", "Cust", "iPhone 12", "cracked screen")
	require.NoError(t, err)

	claimed, err := s.ClaimRepair(ctx, ticket.ID, "t1@x.com")
	require.NoError(t, err)
	assert.Equal(t, "t1@x.com", claimed.AssignedTo)
	assert.Equal(t, models.RepairProcessing, claimed.Status)

	// A second technician's claim is rejected and the ticket is unchanged.
	_, err = s.ClaimRepair(ctx, ticket.ID, "t2@x.com")
	assert.ErrorIs(t, err, errs.ErrConflict)

	queue, err := s.TechnicianQueue(ctx, "t1@x.com")
	require.NoError(t, err)
	require.Len(t, queue, 1)
	assert.Equal(t, "t1@x.com", queue[0].AssignedTo)
	assert.Equal(t, models.RepairProcessing, queue[0].Status)
}

func TestClaimRepairNotFound(t *testing.T) {
	s, _ := newTestStore(t)
	_, err := s.ClaimRepair(context.Background(), "no-such-id", "t1@x.com")
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

// Two technicians racing to claim the same ticket: exactly one wins, the
// other observes a conflict, never a silent overwrite.
func TestClaimRepairExclusiveUnderConcurrency(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	ticket, err := s.CreateRepair(ctx, "cust@x.com", "Cust", "iPhone 12", "cracked screen")
	require.NoError(t, err)

	const technicians = 16
	var wg sync.WaitGroup
	winners := make(chan string, technicians)
	losers := make(chan error, technicians)

	for i := 0; i < technicians; i++ {
		wg.Add(1)
		go func(email string) {
			defer wg.Done()
			if claimed, err := s.ClaimRepair(ctx, ticket.ID, email); err != nil {
				losers <- err
			} else {
				winners <- claimed.AssignedTo
			}
		}("tech" + string(rune('a'+i)) + "@x.com")
	}
	wg.Wait()
	close(winners)
	close(losers)

	require.Len(t, winners, 1, "exactly one claim must succeed")
	winner := <-winners

	for err := range losers {
		assert.ErrorIs(t, err, errs.ErrConflict)
	}

	all, err := s.AllRepairs(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, winner, all[0].AssignedTo)
	assert.Equal(t, models.RepairProcessing, all[0].Status)
}

func TestAdvanceRepair(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	ticket, err := s.CreateRepair(ctx, "cust@x.com", "Cust", "iPhone 12", "cracked screen")
	require.NoError(t, err)
	_, err = s.ClaimRepair(ctx, ticket.ID, "t1@x.com")
	require.NoError(t, err)

	// Only the assignee may advance.
	_, err = s.AdvanceRepair(ctx, ticket.ID, "t2@x.com")
	assert.ErrorIs(t, err, errs.ErrUnauthorized)

	advanced, err := s.AdvanceRepair(ctx, ticket.ID, "t1@x.com")
	require.NoError(t, err)
	assert.Equal(t, models.RepairCompleted, advanced.Status)

	// Completed is terminal.
	_, err = s.AdvanceRepair(ctx, ticket.ID, "t1@x.com")
	assert.ErrorIs(t, err, errs.ErrConflict)

	all, err := s.AllRepairs(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.RepairCompleted, all[0].Status)
}

func TestCancelRepair(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	ticket, err := s.CreateRepair(ctx, "cust@x.com", "Cust", "iPhone 12", "cracked screen")
	require.NoError(t, err)

	// Only the requester may cancel.
	assert.ErrorIs(t, s.CancelRepair(ctx, ticket.ID, "other@x.com"), errs.ErrUnauthorized)

	require.NoError(t, s.CancelRepair(ctx, ticket.ID, "cust@x.com"))
	all, err := s.AllRepairs(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestCancelRepairOnlyWhilePending(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	ticket, err := s.CreateRepair(ctx, "cust@x.com", "Cust", "iPhone 12", "cracked screen")
	require.NoError(t, err)
	_, err = s.ClaimRepair(ctx, ticket.ID, "t1@x.com")
	require.NoError(t, err)

	assert.ErrorIs(t, s.CancelRepair(ctx, ticket.ID, "cust@x.com"), errs.ErrConflict)
}

func TestTechnicianQueueUnion(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	mine, err := s.CreateRepair(ctx, "c1@x.com", "C1", "iPhone 12", "screen")
	require.NoError(t, err)
	_, err = s.ClaimRepair(ctx, mine.ID, "t1@x.com")
	require.NoError(t, err)

	unclaimed, err := s.CreateRepair(ctx, "c2@x.com", "C2", "Pixel 8", "battery")
	require.NoError(t, err)

	other, err := s.CreateRepair(ctx, "c3@x.com", "C3", "Galaxy S24", "camera")
	require.NoError(t, err)
	_, err = s.ClaimRepair(ctx, other.ID, "t2@x.com")
	require.NoError(t, err)

	queue, err := s.TechnicianQueue(ctx, "t1@x.com")
	require.NoError(t, err)
	ids := make(map[string]bool, len(queue))
	for _, q := range queue {
		ids[q.ID] = true
	}
	assert.True(t, ids[mine.ID], "own assignment visible")
	assert.True(t, ids[unclaimed.ID], "unclaimed backlog visible")
	assert.False(t, ids[other.ID], "another technician's ticket hidden")
}

func TestCorruptRepairCollectionSelfHeals(t *testing.T) {
	s, db := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, db.Put(ctx, kv.KeyRepairs, []byte("not json at all")))

	all, err := s.AllRepairs(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	// New writes work after the corrupt document is discarded.
	_, err = s.CreateRepair(ctx, "cust@x.com", "Cust", "iPhone 12", "cracked screen")
	require.NoError(t, err)
}
