package messaging

import (
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stocktrack/stocktrack-backend/pkg/config"
	"github.com/stocktrack/stocktrack-backend/pkg/logger"
)

// RabbitMQ holds the broker connection used to publish stock events.
// This service only publishes; consumers live in downstream services.
type RabbitMQ struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	logger  *logger.Logger
	mu      sync.RWMutex
}

// New dials the broker, retrying on failure. The broker often comes up
// after the service in local compose setups, so a few attempts with a
// delay cover the usual startup race.
func New(cfg *config.RabbitMQConfig, log *logger.Logger) (*RabbitMQ, error) {
	rmq := &RabbitMQ{logger: log}

	var err error
	for attempt := 0; ; attempt++ {
		if err = rmq.dial(cfg.URL); err == nil {
			return rmq, nil
		}
		if attempt >= cfg.MaxRetries {
			break
		}
		log.Warn().Err(err).Int("attempt", attempt+1).Msg("RabbitMQ not reachable, retrying")
		time.Sleep(cfg.ReconnectDelay)
	}

	return nil, fmt.Errorf("failed to connect to RabbitMQ after %d attempts: %w", cfg.MaxRetries+1, err)
}

func (r *RabbitMQ) dial(url string) error {
	conn, err := amqp.Dial(url)
	if err != nil {
		return err
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to open channel: %w", err)
	}

	r.mu.Lock()
	r.conn = conn
	r.channel = channel
	r.mu.Unlock()

	r.logger.Info().Msg("connected to RabbitMQ")
	return nil
}

// Channel returns the current channel
func (r *RabbitMQ) Channel() *amqp.Channel {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.channel
}

// DeclareExchange declares the durable topic exchange events are
// published to. Routing keys are the event types (stock.product.*,
// stock.movement.*, stock.alert.*), so consumers bind with patterns.
func (r *RabbitMQ) DeclareExchange(name string) error {
	return r.Channel().ExchangeDeclare(name, "topic", true, false, false, false, nil)
}

// Health reports whether the broker connection is alive
func (r *RabbitMQ) Health() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.conn == nil || r.conn.IsClosed() {
		return map[string]string{"status": "down", "error": "connection closed"}
	}
	return map[string]string{"status": "up"}
}

// Close shuts down the channel and connection
func (r *RabbitMQ) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.channel != nil {
		if err := r.channel.Close(); err != nil {
			r.logger.Warn().Err(err).Msg("failed to close channel")
		}
	}
	if r.conn != nil {
		if err := r.conn.Close(); err != nil {
			return fmt.Errorf("failed to close connection: %w", err)
		}
	}

	r.logger.Info().Msg("RabbitMQ connection closed")
	return nil
}
