// Command bus_smoketest publishes one TransactionRecorded event through the
// configured event bus and waits for a registered handler to receive it.
//
// Usage: EVENTBUS_DRIVER=kafka KAFKA_BROKERS=localhost:9092 go run ./scripts/bus_smoketest
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	infra_eventbus "github.com/amirasaad/ledger/infra/eventbus"
	"github.com/amirasaad/ledger/pkg/domain/account"
	"github.com/amirasaad/ledger/pkg/eventbus"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
)

func main() {
	if err := RunSmokeTest(); err != nil {
		os.Exit(1)
	}
}

// RunSmokeTest round-trips an event through Redis Streams or Kafka.
func RunSmokeTest() error {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	bus, closeBus, err := openBus(ctx, logger)
	if err != nil {
		logger.Error("bus unavailable", "error", err)
		return err
	}
	defer closeBus()

	reference := uuid.New()
	received := make(chan account.TransactionRecorded, 1)
	bus.Register(account.EventTransactionRecorded, func(_ context.Context, e eventbus.Event) error {
		ev, ok := e.(*account.TransactionRecorded)
		if !ok {
			return fmt.Errorf("unexpected event %T", e)
		}
		if ev.Reference == reference {
			received <- *ev
		}
		return nil
	})

	// consumer groups join asynchronously
	time.Sleep(2 * time.Second)

	sent := account.TransactionRecorded{
		TransactionID: 1,
		Reference:     reference,
		Kind:          account.KindDeposit,
		AccountID:     42,
		Amount:        decimal.NewFromInt(1000),
		Fee:           decimal.Zero,
		BalanceAfter:  decimal.NewFromInt(1000),
		OccurredAt:    time.Now().UTC(),
	}
	if err := bus.Emit(ctx, sent); err != nil {
		logger.Error("emit failed", "error", err)
		return err
	}
	logger.Info("produced", "reference", reference)

	select {
	case got := <-received:
		if !got.Amount.Equal(sent.Amount) || got.AccountID != sent.AccountID {
			err := fmt.Errorf("payload mismatch: %+v", got)
			logger.Error("smoke test failed", "error", err)
			return err
		}
		logger.Info("consumed", "reference", got.Reference, "kind", got.Kind)
		return nil
	case <-ctx.Done():
		logger.Error("timed out waiting for event")
		return ctx.Err()
	}
}

func openBus(ctx context.Context, logger *slog.Logger) (eventbus.Bus, func(), error) {
	switch driver := strings.ToLower(getenv("EVENTBUS_DRIVER", "kafka")); driver {
	case "redis":
		bus, err := infra_eventbus.NewWithRedis(getenv("REDIS_URL", "redis://localhost:6379/0"), "smoke:", nil, logger)
		if err != nil {
			return nil, nil, err
		}
		return bus, func() { _ = bus.Close() }, nil
	case "kafka":
		brokers := getenv("KAFKA_BROKERS", "localhost:9092")
		cfg := infra_eventbus.DefaultKafkaEventBusConfig()
		cfg.GroupID = getenv("KAFKA_GROUP_ID", "ledger-smoke")
		if err := ensureTopic(ctx, brokers, cfg.TopicPrefix+"."+account.EventTransactionRecorded, logger); err != nil {
			return nil, nil, err
		}
		bus, err := infra_eventbus.NewWithKafka(brokers, cfg, nil, logger)
		if err != nil {
			return nil, nil, err
		}
		return bus, func() { _ = bus.Close() }, nil
	default:
		return nil, nil, errors.New("EVENTBUS_DRIVER must be redis or kafka")
	}
}

// ensureTopic creates topic so the consumer does not race auto-creation.
func ensureTopic(ctx context.Context, brokers, topic string, logger *slog.Logger) error {
	dialer := &kafka.Dialer{Timeout: 5 * time.Second}
	conn, err := dialer.DialContext(ctx, "tcp", strings.Split(brokers, ",")[0])
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()
	err = conn.CreateTopics(kafka.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	})
	if err != nil && !strings.Contains(strings.ToLower(err.Error()), "already exists") {
		return err
	}
	logger.Info("topic ready", "topic", topic)
	return nil
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
