// Command sms-sink consumes ledger notifications and renders the customer
// and operator messages they would trigger. Delivery to an SMS gateway is
// left to the gateway adapter; this binary logs the rendered message.
package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	env "github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/josh-kwaku/float-ledger/internal/logging"
	"github.com/josh-kwaku/float-ledger/internal/rabbitmq"
)

type config struct {
	AMQPURL  string `env:"AMQP_URL,required"`
	Exchange string `env:"NOTIFY_EXCHANGE" envDefault:"float-ledger.events"`
	Queue    string `env:"SMS_QUEUE" envDefault:"float-ledger.sms"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	AppEnv   string `env:"APP_ENV" envDefault:"production"`
}

func main() {
	_ = godotenv.Load()

	cfg, err := env.ParseAs[config]()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := logging.Init("sms-sink", cfg.LogLevel, cfg.AppEnv)

	consumer, err := rabbitmq.NewConsumer(cfg.AMQPURL, logger)
	if err != nil {
		slog.Error("failed to connect to broker", "error", err)
		os.Exit(1)
	}
	defer consumer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	patterns := []string{"transaction.*", "commission.*", "float.*"}
	slog.Info("sms sink started", "exchange", cfg.Exchange, "queue", cfg.Queue)
	if err := consumer.Consume(ctx, cfg.Exchange, cfg.Queue, patterns, handle(logger)); err != nil {
		slog.Error("consumer stopped", "error", err)
		os.Exit(1)
	}
	slog.Info("sms sink stopped")
}

type envelope struct {
	EventID   string          `json:"event_id"`
	EventType string          `json:"event_type"`
	Data      json.RawMessage `json:"data"`
}

func handle(logger *slog.Logger) rabbitmq.Handler {
	return func(_ context.Context, routingKey string, body []byte) bool {
		var env envelope
		if err := json.Unmarshal(body, &env); err != nil {
			// Malformed messages are dropped; requeuing would loop forever.
			logger.Error("malformed notification", "routing_key", routingKey, "error", err)
			return true
		}

		to, text, ok := render(env.EventType, env.Data)
		if !ok {
			logger.Debug("no message for event", "event_type", env.EventType, "event_id", env.EventID)
			return true
		}
		logger.Info("sms rendered", "event_id", env.EventID, "to", to, "text", text)
		return true
	}
}
