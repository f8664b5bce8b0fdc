package rpc

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/taskhive/taskhive/types"
)

const defaultHandlerTimeout = 30 * time.Second

// Server consumes a service queue and dispatches each message to the handler
// registered for its pattern. Every message gets exactly one response,
// published to the reply queue the caller named.
type Server struct {
	conn          *amqp.Connection
	channel       *amqp.Channel
	queue         string
	handlers      map[string]HandlerFunc
	logger        *slog.Logger
	prefetchCount int
}

// NewServer connects to the broker and prepares the named service queue.
func NewServer(url, queue string, prefetchCount int, logger *slog.Logger) (*Server, error) {
	if strings.TrimSpace(queue) == "" {
		return nil, errors.New("rpc queue is required")
	}

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	if prefetchCount > 0 {
		if err := ch.Qos(prefetchCount, 0, false); err != nil {
			_ = ch.Close()
			_ = conn.Close()
			return nil, err
		}
	}

	if _, err := ch.QueueDeclare(queue, false, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}

	return &Server{
		conn:          conn,
		channel:       ch,
		queue:         queue,
		handlers:      map[string]HandlerFunc{},
		logger:        logger,
		prefetchCount: prefetchCount,
	}, nil
}

// Handle registers the handler for a message pattern.
func (s *Server) Handle(pattern string, handler HandlerFunc) {
	s.handlers[pattern] = handler
}

// Run consumes the service queue until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	deliveries, err := s.channel.Consume(s.queue, "", false, false, false, false, nil)
	if err != nil {
		return err
	}

	s.logger.Info("rpc server started", "queue", s.queue)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case delivery, ok := <-deliveries:
			if !ok {
				return errors.New("rpc delivery channel closed")
			}
			// Requests are independent units of work; handle them in
			// parallel up to the prefetch window.
			go s.handleDelivery(ctx, delivery)
		}
	}
}

// Close closes the underlying channel and connection.
func (s *Server) Close() error {
	if s.channel != nil {
		_ = s.channel.Close()
	}
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

func (s *Server) handleDelivery(ctx context.Context, delivery amqp.Delivery) {
	ctx, cancel := context.WithTimeout(ctx, defaultHandlerTimeout)
	defer cancel()

	body := s.dispatch(ctx, delivery.Type, delivery.Body)

	// The response conveys rejections; a failed handler must not requeue.
	_ = delivery.Ack(false)

	if delivery.ReplyTo == "" {
		return
	}

	err := s.channel.PublishWithContext(ctx, "", delivery.ReplyTo, false, false, amqp.Publishing{
		ContentType:   "application/json",
		CorrelationId: delivery.CorrelationId,
		Body:          body,
	})
	if err != nil {
		s.logger.Error("rpc response publish failed", "queue", s.queue, "pattern", delivery.Type, "error", err)
	}
}

// dispatch runs the handler for pattern and encodes its outcome as a
// response envelope. Unknown patterns and non-APIError failures never leak
// internal detail to the caller.
func (s *Server) dispatch(ctx context.Context, pattern string, body []byte) []byte {
	handler, ok := s.handlers[pattern]
	if !ok {
		s.logger.Warn("unknown message pattern", "queue", s.queue, "pattern", pattern)
		return encodeRejection(types.NotFound("unknown message pattern"))
	}

	result, err := handler(ctx, body)
	if err != nil {
		if apiErr, ok := types.AsAPIError(err); ok {
			return encodeRejection(apiErr)
		}
		s.logger.Error("handler failed", "queue", s.queue, "pattern", pattern, "error", err)
		return encodeRejection(types.Internal("internal server error"))
	}

	response, err := encodeResult(result)
	if err != nil {
		s.logger.Error("response encoding failed", "queue", s.queue, "pattern", pattern, "error", err)
		return encodeRejection(types.Internal("internal server error"))
	}
	return response
}
