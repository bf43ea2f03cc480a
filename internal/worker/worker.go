// Package worker moves upload events from the queue into the postgres ledger
package worker

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/UnendingLoop/ImageDrop/internal/model"
	"github.com/UnendingLoop/ImageDrop/internal/mwlogger"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"
)

type EventStore interface {
	Create(ctx context.Context, e *model.UploadEvent) error
}

// Committer - подтверждение обработанного сообщения
type Committer interface {
	Commit(ctx context.Context, msg kafkago.Message) error
}

// CommitFunc adapts a plain func (e.g. a wbf consumer method value) to Committer.
type CommitFunc func(ctx context.Context, msg kafkago.Message) error

func (f CommitFunc) Commit(ctx context.Context, msg kafkago.Message) error {
	return f(ctx, msg)
}

// DefaultSaveStrategy - сколько раз пробуем записать событие за один заход
var DefaultSaveStrategy = retry.Strategy{
	Attempts: 3,
	Delay:    time.Second,
	Backoff:  2,
}

type Worker struct {
	repo     EventStore
	queue    <-chan kafkago.Message
	consumer Committer
	strategy retry.Strategy
}

func NewWorkerInstance(repo EventStore, q <-chan kafkago.Message, cons Committer, strategy retry.Strategy) *Worker {
	if strategy.Attempts <= 0 {
		strategy.Attempts = 1
	}
	return &Worker{repo: repo, queue: q, consumer: cons, strategy: strategy}
}

func (w *Worker) StartWorker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-w.queue:
			if !ok {
				log.Println("Queue channel closed, stopping worker...")
				return
			}
			// коммиты в кафке накопительные: пропустить несохраненное событие нельзя
			if !w.saveUntilDone(ctx, msg) {
				log.Println("Worker stopped with an unsaved event, it will be redelivered")
				return
			}
			if err := w.consumer.Commit(ctx, msg); err != nil {
				log.Printf("Failed to commit queue-message: %v", err)
			}
		}
	}
}

// saveUntilDone retries handle until it succeeds; false means ctx was canceled first.
func (w *Worker) saveUntilDone(ctx context.Context, msg kafkago.Message) bool {
	for {
		err := retry.DoContext(ctx, w.strategy, func() error {
			return w.handle(ctx, msg)
		})
		if err == nil {
			return true
		}
		if ctx.Err() != nil {
			return false
		}
		log.Printf("Event of draft %q at offset %d still failing: %v", string(msg.Key), msg.Offset, err)
	}
}

// handle writes one event; undecodable messages are dropped so they can't block the partition
func (w *Worker) handle(ctx context.Context, msg kafkago.Message) error {
	logger := zlog.Logger.With().
		Str("draft_id", string(msg.Key)).
		Int64("offset", msg.Offset).
		Logger()
	ctx = mwlogger.WithLogger(ctx, logger)

	e, err := model.DecodeEvent(msg.Value)
	if err != nil {
		if errors.Is(err, model.ErrUnsupportedEvent) {
			logger.Warn().Msg("Skipping upload event of unsupported kind")
		} else {
			logger.Error().Err(err).Msg("Skipping malformed upload event")
		}
		return nil
	}

	if err := w.repo.Create(ctx, &e); err != nil {
		return fmt.Errorf("worker failed to save %q event to DB: %w", e.Kind, err)
	}

	logger.Debug().Int64("event_id", e.ID).Str("kind", string(e.Kind)).Msg("Upload event saved")
	return nil
}
