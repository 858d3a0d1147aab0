package audit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devYoryet/user-final/internal/user"
)

func TestRecorder(t *testing.T) {
	ctx := context.Background()

	newRecorder := func(t *testing.T) (*Recorder, *goredis.Client) {
		t.Helper()
		mr := miniredis.RunT(t)
		client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { _ = client.Close() })
		return NewRecorder(client), client
	}

	t.Run("Should append reconciliation events to the stream", func(t *testing.T) {
		rec, client := newRecorder(t)

		userID := uuid.New()
		rec.RecordReconciliation(ctx, user.ReconciliationEvent{
			Outcome:  user.OutcomeCreated,
			UserID:   userID,
			Subject:  "sub-1",
			Email:    "a@x.com",
			Provider: "cognito",
			At:       time.Now(),
		})

		entries, err := client.XRange(ctx, defaultStream, "-", "+").Result()
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, user.OutcomeCreated, entries[0].Values["outcome"])
		assert.Equal(t, userID.String(), entries[0].Values["user_id"])
		assert.Equal(t, "sub-1", entries[0].Values["subject"])
	})

	t.Run("Should preserve event order", func(t *testing.T) {
		rec, client := newRecorder(t)

		rec.RecordReconciliation(ctx, user.ReconciliationEvent{Outcome: user.OutcomeCreated, At: time.Now()})
		rec.RecordReconciliation(ctx, user.ReconciliationEvent{Outcome: user.OutcomeFound, At: time.Now()})

		entries, err := client.XRange(ctx, defaultStream, "-", "+").Result()
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, user.OutcomeCreated, entries[0].Values["outcome"])
		assert.Equal(t, user.OutcomeFound, entries[1].Values["outcome"])
	})

	t.Run("Should swallow redis failures", func(t *testing.T) {
		mr := miniredis.RunT(t)
		client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
		rec := NewRecorder(client)
		mr.Close()

		// Must not panic or surface the error.
		rec.RecordReconciliation(ctx, user.ReconciliationEvent{Outcome: user.OutcomeFound, At: time.Now()})
	})
}
