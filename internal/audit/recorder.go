package audit

import (
	"context"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/devYoryet/user-final/internal/logger"
	"github.com/devYoryet/user-final/internal/user"
)

const (
	// Stream is capped so an unconsumed audit trail cannot grow without
	// bound.
	defaultStream = "audit:reconciliation"
	maxStreamLen  = 10000
)

// Recorder writes reconciliation outcomes to a Redis stream. It is the
// per-call observability hook of the reconciliation engine: best-effort,
// never failing the reconciliation it records.
type Recorder struct {
	client *goredis.Client
	stream string
}

func NewRecorder(client *goredis.Client) *Recorder {
	return &Recorder{
		client: client,
		stream: defaultStream,
	}
}

func (r *Recorder) RecordReconciliation(ctx context.Context, ev user.ReconciliationEvent) {
	err := r.client.XAdd(ctx, &goredis.XAddArgs{
		Stream: r.stream,
		MaxLen: maxStreamLen,
		Approx: true,
		Values: map[string]any{
			"outcome":  ev.Outcome,
			"user_id":  ev.UserID.String(),
			"subject":  ev.Subject,
			"email":    ev.Email,
			"provider": ev.Provider,
			"at":       ev.At.Format(time.RFC3339Nano),
		},
	}).Err()

	if err != nil {
		logger.Warn("audit record failed", map[string]any{
			"stream": r.stream,
			"error":  err.Error(),
		})
	}
}
