package rpc

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/taskhive/taskhive/types"
)

// transport carries one raw request to a service queue and returns the raw
// response body. Implementations report broker and deadline failures as
// plain errors; classification happens in Client.
type transport interface {
	roundTrip(ctx context.Context, service, pattern string, body []byte) ([]byte, error)
	close() error
}

// Client is a broker-backed Caller. Each call publishes to the callee's
// queue with a fresh correlation ID and an exclusive reply queue, then waits
// for the correlated response or the call deadline, whichever comes first.
type Client struct {
	transport transport
	timeout   time.Duration
}

// Dial connects to the broker. timeout bounds every call issued through the
// client unless the caller's context expires sooner.
func Dial(url string, timeout time.Duration) (*Client, error) {
	if strings.TrimSpace(url) == "" {
		return nil, errors.New("rabbitmq url is required")
	}

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}

	return &Client{transport: &amqpTransport{conn: conn}, timeout: timeout}, nil
}

// Call implements Caller. Transport failures of any kind, including an
// exceeded deadline, come back as a 503 rejection; a rejection produced by
// the remote operation keeps its own status and message.
func (c *Client) Call(ctx context.Context, service, pattern string, payload, result any) error {
	if strings.TrimSpace(service) == "" || strings.TrimSpace(pattern) == "" {
		return errors.New("rpc service and pattern are required")
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	response, err := c.transport.roundTrip(ctx, service, pattern, body)
	if err != nil {
		return types.Unavailable("service unavailable")
	}
	return decodeResponse(response, result)
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	return c.transport.close()
}

// amqpTransport performs the per-call channel work against RabbitMQ.
type amqpTransport struct {
	conn *amqp.Connection
}

func (t *amqpTransport) roundTrip(ctx context.Context, service, pattern string, body []byte) ([]byte, error) {
	// Channels are cheap and not safe for concurrent use; one per call.
	ch, err := t.conn.Channel()
	if err != nil {
		return nil, err
	}
	defer ch.Close()

	replyQueue, err := ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		return nil, err
	}

	deliveries, err := ch.ConsumeWithContext(ctx, replyQueue.Name, "", true, true, false, false, nil)
	if err != nil {
		return nil, err
	}

	correlationID := newCorrelationID()
	err = ch.PublishWithContext(ctx, "", service, false, false, amqp.Publishing{
		ContentType:   "application/json",
		CorrelationId: correlationID,
		ReplyTo:       replyQueue.Name,
		Type:          pattern,
		Body:          body,
	})
	if err != nil {
		return nil, err
	}

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case delivery, ok := <-deliveries:
			if !ok {
				return nil, errors.New("reply channel closed")
			}
			if delivery.CorrelationId != correlationID {
				continue
			}
			return delivery.Body, nil
		}
	}
}

func (t *amqpTransport) close() error {
	return t.conn.Close()
}

func newCorrelationID() string {
	var buf [16]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return ""
	}
	return hex.EncodeToString(buf[:])
}
