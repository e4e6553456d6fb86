package events

import (
	"os"
	"strconv"
)

// Config provides the fields necessary to connect to RabbitMQ and declare
// the event exchange.
type Config struct {
	Connection Connection
	Channel    Channel

	// Enabled turns the publisher off entirely; when false a no-op
	// publisher is wired instead and no connection is attempted.
	Enabled bool
}

type Connection struct {
	Host     string
	Port     uint
	User     string
	Password string
}

type Channel struct {
	// ExchangeName is the topic exchange the events are published to.
	ExchangeName string

	// ContentType is the content type stamped on every publishing.
	ContentType string
}

// NewConfig reads the publisher configuration from environment variables.
func NewConfig() Config {
	port := uint(5672)
	if v := os.Getenv("RABBITMQ_PORT"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 16); err == nil {
			port = uint(n)
		}
	}

	exchange := os.Getenv("RABBITMQ_EVENTS_EXCHANGE")
	if exchange == "" {
		exchange = "simri.events"
	}

	return Config{
		Connection: Connection{
			Host:     os.Getenv("RABBITMQ_HOST"),
			Port:     port,
			User:     os.Getenv("RABBITMQ_USER"),
			Password: os.Getenv("RABBITMQ_PASSWORD"),
		},
		Channel: Channel{
			ExchangeName: exchange,
			ContentType:  "application/json",
		},
		Enabled: os.Getenv("RABBITMQ_EVENTS_ENABLED") == "true",
	}
}
