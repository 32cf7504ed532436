package records

import (
	"context"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"ticketmister-backend/logger"
)

const rabbitQueue = "marketplace.records"

// RabbitSink publishes records to a durable queue so downstream
// consumers (notifications, analytics) can follow the marketplace
// without querying it. Publish errors are logged and dropped.
type RabbitSink struct {
	ctx context.Context
	ch  *amqp.Channel
}

// NewRabbitSink dials the broker and declares the records queue. The
// returned closer shuts down the connection.
func NewRabbitSink(ctx context.Context, url string) (*RabbitSink, func(), error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, nil, err
	}

	if _, err := ch.QueueDeclare(
		rabbitQueue,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,
	); err != nil {
		ch.Close()
		conn.Close()
		return nil, nil, err
	}

	closer := func() {
		ch.Close()
		conn.Close()
	}
	return &RabbitSink{ctx: ctx, ch: ch}, closer, nil
}

func (s *RabbitSink) Publish(records ...Record) {
	for _, r := range records {
		payload, err := marshalRecord(r)
		if err != nil {
			logger.Errorf(s.ctx, "rabbitSink: unable to marshal %s record: %+v", r.Kind(), err)
			continue
		}

		pub := amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now().UTC(),
			Type:         r.Kind(),
			Body:         payload,
		}
		if err := s.ch.PublishWithContext(s.ctx, "", rabbitQueue, false, false, pub); err != nil {
			logger.Errorf(s.ctx, "rabbitSink: unable to publish %s record: %+v", r.Kind(), err)
		}
	}
}
