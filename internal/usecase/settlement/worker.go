package settlement

import (
	"context"
	"errors"

	domain "rentfi-backend/internal/domain/marketplace"

	"github.com/rs/zerolog"
)

// Worker drains the settlement queue in its own goroutine so webhook handlers
// can acknowledge the gateway immediately instead of waiting on the chain.
// Sends never block: a full queue is reported to the caller, who falls back
// to the admin reprocess path.
type Worker struct {
	uc    *Usecase
	tasks chan string
	log   zerolog.Logger
}

func NewWorker(uc *Usecase, queueSize int, log zerolog.Logger) *Worker {
	if queueSize <= 0 {
		queueSize = 256
	}
	return &Worker{uc: uc, tasks: make(chan string, queueSize), log: log}
}

// Enqueue hands an intent to the worker; false means the queue is full and
// the intent stays in paid until an operator reprocesses it.
func (w *Worker) Enqueue(intentID string) bool {
	select {
	case w.tasks <- intentID:
		return true
	default:
		w.log.Warn().Str("intent_id", intentID).Msg("settlement queue full, intent left in paid")
		return false
	}
}

// Run processes settlements until ctx is cancelled, then drains whatever is
// already queued before returning.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.drain()
			return ctx.Err()
		case intentID, ok := <-w.tasks:
			if !ok {
				return nil
			}
			w.process(ctx, intentID)
		}
	}
}

func (w *Worker) drain() {
	for {
		select {
		case intentID := <-w.tasks:
			w.process(context.Background(), intentID)
		default:
			return
		}
	}
}

func (w *Worker) process(ctx context.Context, intentID string) {
	if _, err := w.uc.Settle(ctx, intentID); err != nil {
		// a lost CAS means another path settled it already, not a failure
		if errors.Is(err, domain.ErrInvalidTransition) {
			w.log.Debug().Str("intent_id", intentID).Msg("intent already claimed, skipping")
			return
		}
		w.log.Error().Err(err).Str("intent_id", intentID).Msg("settlement failed")
	}
}
