package session

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/averybrooks/fonezone/internal/errs"
	"github.com/averybrooks/fonezone/internal/kv"
)

// tokenFor digs the issued reset token out of the backing store, standing in
// for the emailed link.
func tokenFor(t *testing.T, db *kv.Memory, email string) string {
	t.Helper()
	keys, err := db.Keys(context.Background(), kv.ResetTokenPrefix)
	require.NoError(t, err)
	for _, k := range keys {
		doc, ok, err := db.Get(context.Background(), k)
		require.NoError(t, err)
		require.True(t, ok)
		var rt resetToken
		require.NoError(t, json.Unmarshal(doc, &rt))
		if rt.Email == email {
			return k[len(kv.ResetTokenPrefix):]
		}
	}
	t.Fatalf("no reset token issued for %s", email)
	return ""
}

func TestPasswordResetFlow(t *testing.T) {
	s, db := newTestStore(t)
	ctx := context.Background()

	_, err := s.Register(ctx, "resetme@x.com", "resetme", "Reset Me", "oldpw")
	require.NoError(t, err)

	require.NoError(t, s.RequestPasswordReset(ctx, "resetme@x.com"))
	token := tokenFor(t, db, "resetme@x.com")

	actor, err := s.ResetPassword(ctx, token, "newpw")
	require.NoError(t, err)
	assert.Equal(t, "resetme@x.com", actor.Email)

	_, err = s.Authenticate(ctx, "resetme@x.com", "oldpw")
	assert.ErrorIs(t, err, errs.ErrUnauthorized)
	_, err = s.Authenticate(ctx, "resetme@x.com", "newpw")
	assert.NoError(t, err)
}

func TestResetTokenIsOneShot(t *testing.T) {
	s, db := newTestStore(t)
	ctx := context.Background()

	_, err := s.Register(ctx, "once@x.com", "once", "Once", "pw")
	require.NoError(t, err)
	require.NoError(t, s.RequestPasswordReset(ctx, "once@x.com"))
	token := tokenFor(t, db, "once@x.com")

	_, err = s.ResetPassword(ctx, token, "first")
	require.NoError(t, err)

	_, err = s.ResetPassword(ctx, token, "second")
	assert.ErrorIs(t, err, errs.ErrUnauthorized)
}

func TestExpiredResetTokenRejected(t *testing.T) {
	s, db := newTestStore(t)
	ctx := context.Background()

	_, err := s.Register(ctx, "late@x.com", "late", "Late", "pw")
	require.NoError(t, err)

	doc, err := json.Marshal(resetToken{
		Email:     "late@x.com",
		ExpiresAt: time.Now().UTC().Add(-time.Minute),
	})
	require.NoError(t, err)
	require.NoError(t, db.Put(ctx, kv.ResetTokenPrefix+"stale-token", doc))

	_, err = s.ResetPassword(ctx, "stale-token", "newpw")
	assert.ErrorIs(t, err, errs.ErrUnauthorized)
}

func TestResetRequestForUnknownEmailIsSilent(t *testing.T) {
	s, db := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.RequestPasswordReset(ctx, "stranger@x.com"))

	keys, err := db.Keys(ctx, kv.ResetTokenPrefix)
	require.NoError(t, err)
	assert.Empty(t, keys, "no token may be issued for an unknown email")
}
