package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"contest-tracker/internal/model"
)

type ContestEventPublisher struct {
	conn      *amqp.Connection
	queueName string
}

func NewContestEventPublisher(conn *amqp.Connection, queueName string) *ContestEventPublisher {
	return &ContestEventPublisher{
		conn:      conn,
		queueName: queueName,
	}
}

func (p *ContestEventPublisher) Publish(ctx context.Context, event model.ContestEvent) error {
	ch, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("open rabbitmq channel failed: %w", err)
	}
	defer ch.Close()

	if err := DeclareQueue(ch, p.queueName); err != nil {
		return err
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal contest event failed: %w", err)
	}

	if err := ch.PublishWithContext(
		ctx,
		"",
		p.queueName,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			MessageId:    event.EventID,
			Timestamp:    event.OccurredAt,
			Type:         string(event.Action),
			Body:         payload,
			DeliveryMode: amqp.Persistent,
		},
	); err != nil {
		return fmt.Errorf("publish contest event failed: %w", err)
	}
	return nil
}
