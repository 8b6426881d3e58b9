package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	log "github.com/sirupsen/logrus"

	"contest-tracker/internal/model"
	rabbitmqClient "contest-tracker/internal/platform/rabbitmq"
	"contest-tracker/internal/repository"
)

// ContestAuditWorker consumes contest events and stores them as audit entries.
type ContestAuditWorker struct {
	conn      *amqp.Connection
	repo      *repository.ContestAuditRepository
	queueName string

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewContestAuditWorker(conn *amqp.Connection, repo *repository.ContestAuditRepository, queueName string) *ContestAuditWorker {
	return &ContestAuditWorker{
		conn:      conn,
		repo:      repo,
		queueName: queueName,
	}
}

func (w *ContestAuditWorker) Start(ctx context.Context) error {
	if w.cancel != nil {
		return nil
	}

	workerCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	ch, err := w.conn.Channel()
	if err != nil {
		cancel()
		return fmt.Errorf("open worker channel failed: %w", err)
	}

	if err := rabbitmqClient.DeclareQueue(ch, w.queueName); err != nil {
		_ = ch.Close()
		cancel()
		return err
	}

	deliveries, err := ch.Consume(
		w.queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("consume queue failed: %w", err)
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer ch.Close()

		for {
			select {
			case <-workerCtx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					return
				}
				w.deliver(workerCtx, d)
			}
		}
	}()

	log.WithField("queue", w.queueName).Info("contest audit worker started")
	return nil
}

func (w *ContestAuditWorker) Close() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}

func (w *ContestAuditWorker) deliver(ctx context.Context, d amqp.Delivery) {
	if err := w.handle(ctx, d.Body); err != nil {
		log.WithField("message_id", d.MessageId).Errorf("worker handle contest event failed: %v", err)
		// malformed payloads are dropped; storage failures go back to the queue once
		_ = d.Nack(false, !d.Redelivered && !isDecodeError(err))
		return
	}
	_ = d.Ack(false)
}

type decodeError struct {
	err error
}

func (e *decodeError) Error() string {
	return fmt.Sprintf("decode contest event failed: %v", e.err)
}

func (e *decodeError) Unwrap() error {
	return e.err
}

func isDecodeError(err error) bool {
	var decodeErr *decodeError
	return errors.As(err, &decodeErr)
}

// handle persists one event body. Redelivered events are stored once.
func (w *ContestAuditWorker) handle(ctx context.Context, body []byte) error {
	var event model.ContestEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return &decodeError{err: err}
	}
	if event.EventID == "" || event.ContestID == 0 {
		return &decodeError{err: fmt.Errorf("event %q for contest %d is incomplete", event.EventID, event.ContestID)}
	}

	entry := event.AuditEntry()
	if err := w.repo.Create(ctx, &entry); err != nil {
		return err
	}
	return nil
}
