package events

import (
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Logger defines the logging operations the publisher needs. Any
// compatible structured logger can be injected.
type Logger interface {
	Info(msg string, err error, fields ...map[string]interface{})
	Warn(msg string, err error, fields ...map[string]interface{})
	Error(msg string, err error, fields ...map[string]interface{})
}

// RabbitPublisher publishes pipeline events to a RabbitMQ topic exchange.
// The channel is guarded by a mutex; amqp channels are not safe for
// concurrent publishing.
type RabbitPublisher struct {
	cfg     Config
	conn    *amqp.Connection
	channel *amqp.Channel
	mu      sync.Mutex
	logger  Logger
}

// NewRabbitPublisher connects to RabbitMQ and declares the event exchange.
func NewRabbitPublisher(cfg Config, logger Logger) (*RabbitPublisher, error) {
	url := fmt.Sprintf("amqp://%s:%s@%s:%d/",
		cfg.Connection.User,
		cfg.Connection.Password,
		cfg.Connection.Host,
		cfg.Connection.Port)

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to rabbitmq: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to create channel: %w", err)
	}

	err = channel.ExchangeDeclare(
		cfg.Channel.ExchangeName,
		"topic",
		true,  // Durable
		false, // AutoDelete
		false, // Internal
		false, // NoWait
		nil,   // Arguments
	)
	if err != nil {
		_ = channel.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("failed to declare exchange %q: %w", cfg.Channel.ExchangeName, err)
	}

	logger.Info("connected to rabbitmq event exchange", nil, map[string]interface{}{
		"host":     cfg.Connection.Host,
		"exchange": cfg.Channel.ExchangeName,
	})

	return &RabbitPublisher{
		cfg:     cfg,
		conn:    conn,
		channel: channel,
		logger:  logger,
	}, nil
}

// GracefulShutdown closes the channel and the underlying connection.
func (p *RabbitPublisher) GracefulShutdown() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.channel != nil {
		if err := p.channel.Close(); err != nil {
			p.logger.Warn("failed to close rabbitmq channel", err)
		}
	}
	if p.conn != nil {
		if err := p.conn.Close(); err != nil {
			p.logger.Warn("failed to close rabbitmq connection", err)
		}
	}
}
