package eventbus

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/amirasaad/ledger/pkg/eventbus"
	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/sasl"
	"github.com/segmentio/kafka-go/sasl/plain"
)

// KafkaEventBusConfig holds configuration for the Kafka event bus.
type KafkaEventBusConfig struct {
	GroupID       string
	TopicPrefix   string
	SASLUsername  string
	SASLPassword  string
	TLSEnabled    bool
	TLSCAFile     string
	TLSCertFile   string
	TLSKeyFile    string
	TLSSkipVerify bool
}

// DefaultKafkaEventBusConfig returns default configuration for KafkaEventBus.
func DefaultKafkaEventBusConfig() *KafkaEventBusConfig {
	return &KafkaEventBusConfig{
		GroupID:     "ledger",
		TopicPrefix: "ledger.events",
	}
}

// KafkaEventBus publishes one topic per event type. Messages are keyed by
// the event's partition key so events of one account stay ordered.
type KafkaEventBus struct {
	brokers  []string
	writer   *kafka.Writer
	dialer   *kafka.Dialer
	decoders Decoders
	config   *KafkaEventBusConfig
	logger   *slog.Logger

	readersMtx sync.Mutex
	readers    []*kafka.Reader
	perType    map[string]int

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewWithKafka creates a Kafka-backed event bus.
// brokers: comma-separated list (e.g. "localhost:9092,localhost:9093").
func NewWithKafka(brokers string, config *KafkaEventBusConfig, decoders Decoders, logger *slog.Logger) (*KafkaEventBus, error) {
	parsed := parseBrokers(brokers)
	if len(parsed) == 0 {
		return nil, fmt.Errorf("kafka event bus: brokers are required")
	}
	if config == nil {
		config = DefaultKafkaEventBusConfig()
	}
	if config.GroupID == "" {
		config.GroupID = "ledger"
	}
	if decoders == nil {
		decoders = DefaultDecoders()
	}
	if logger == nil {
		logger = slog.Default()
	}

	dialer, transport, err := newKafkaDialer(config)
	if err != nil {
		return nil, err
	}
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(parsed...),
		AllowAutoTopicCreation: true,
		RequiredAcks:           kafka.RequireOne,
		Balancer:               &kafka.Hash{},
	}
	if transport != nil {
		writer.Transport = transport
	}

	ctx, cancel := context.WithCancel(context.Background())
	bus := &KafkaEventBus{
		brokers:  parsed,
		writer:   writer,
		dialer:   dialer,
		decoders: decoders,
		config:   config,
		logger:   logger.With("bus", "kafka"),
		perType:  make(map[string]int),
		ctx:      ctx,
		cancel:   cancel,
	}
	if err := bus.ping(ctx); err != nil {
		_ = bus.Close()
		return nil, err
	}
	bus.logger.Info("kafka event bus initialized",
		"brokers", parsed,
		"group_id", config.GroupID,
		"tls_enabled", dialer.TLS != nil,
		"sasl_enabled", dialer.SASLMechanism != nil,
	)
	return bus, nil
}

// Emit writes the event to its topic.
func (b *KafkaEventBus) Emit(ctx context.Context, event eventbus.Event) error {
	msg, err := buildMessage(b.config.TopicPrefix, event)
	if err != nil {
		return err
	}
	if err := b.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka event bus: publish failed: %w", err)
	}
	return nil
}

// buildMessage wraps event in an envelope addressed to its type's topic.
func buildMessage(prefix string, event eventbus.Event) (kafka.Message, error) {
	envBytes, err := encodeEnvelope(event)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("kafka event bus: %w", err)
	}
	key := event.Type()
	if pk, ok := event.(partitionKeyer); ok {
		key = pk.PartitionKey()
	}
	return kafka.Message{
		Topic: topicNameFor(prefix, event.Type()),
		Key:   []byte(key),
		Value: envBytes,
		Time:  time.Now(),
	}, nil
}

// Register starts a consumer-group reader for eventType. One reader is
// created per type; further handlers for the same type get their own group.
func (b *KafkaEventBus) Register(eventType string, handler eventbus.HandlerFunc) {
	b.readersMtx.Lock()
	defer b.readersMtx.Unlock()

	groupID := b.config.GroupID
	if n := b.perType[eventType]; n > 0 {
		groupID = fmt.Sprintf("%s-%d", groupID, n)
	}
	b.perType[eventType]++
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     b.brokers,
		GroupID:     groupID,
		Topic:       topicNameFor(b.config.TopicPrefix, eventType),
		StartOffset: kafka.FirstOffset,
		MinBytes:    1,
		MaxBytes:    10e6,
		MaxWait:     time.Second,
		Dialer:      b.dialer,
	})
	b.readers = append(b.readers, reader)

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		b.consumeLoop(eventType, handler, reader)
	}()
}

func (b *KafkaEventBus) consumeLoop(eventType string, handler eventbus.HandlerFunc, reader *kafka.Reader) {
	for {
		msg, err := reader.FetchMessage(b.ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || b.ctx.Err() != nil {
				return
			}
			b.logger.Error("kafka consume error", "error", err, "event_type", eventType)
			time.Sleep(500 * time.Millisecond)
			continue
		}
		b.process(eventType, handler, msg)
		if err := reader.CommitMessages(b.ctx, msg); err != nil {
			b.logger.Error("kafka commit error", "error", err, "topic", msg.Topic, "offset", msg.Offset)
		}
	}
}

func (b *KafkaEventBus) process(eventType string, handler eventbus.HandlerFunc, msg kafka.Message) {
	evt, err := decodeEnvelope(msg.Value, b.decoders)
	if err != nil {
		b.logger.Error("failed to decode event", "error", err, "topic", msg.Topic, "offset", msg.Offset)
		return
	}
	if err := handler(b.ctx, evt); err != nil {
		b.logger.Error("handler error", "error", err, "event_type", eventType, "offset", msg.Offset)
		b.publishToDLQ(eventType, msg)
	}
}

func (b *KafkaEventBus) publishToDLQ(eventType string, msg kafka.Message) {
	dlq := dlqTopicNameFor(b.config.TopicPrefix, eventType)
	if err := b.writer.WriteMessages(b.ctx, kafka.Message{
		Topic: dlq,
		Key:   msg.Key,
		Value: msg.Value,
		Time:  time.Now(),
	}); err != nil {
		b.logger.Error("kafka dlq publish failed", "error", err, "topic", dlq)
		return
	}
	b.logger.Warn("message sent to DLQ", "event_type", eventType, "dlq_topic", dlq)
}

func (b *KafkaEventBus) ping(ctx context.Context) error {
	conn, err := b.dialer.DialContext(ctx, "tcp", b.brokers[0])
	if err != nil {
		return fmt.Errorf("kafka event bus: connection failed: %w", err)
	}
	_ = conn.Close()
	return nil
}

// Close stops consumers and flushes the writer.
func (b *KafkaEventBus) Close() error {
	b.cancel()
	b.readersMtx.Lock()
	for _, r := range b.readers {
		_ = r.Close()
	}
	b.readersMtx.Unlock()
	b.wg.Wait()
	return b.writer.Close()
}

func newKafkaDialer(config *KafkaEventBusConfig) (*kafka.Dialer, *kafka.Transport, error) {
	tlsConfig, err := buildKafkaTLSConfig(config)
	if err != nil {
		return nil, nil, err
	}
	mechanism, err := buildKafkaSASLMechanism(config)
	if err != nil {
		return nil, nil, err
	}
	dialer := &kafka.Dialer{
		Timeout:       5 * time.Second,
		TLS:           tlsConfig,
		SASLMechanism: mechanism,
	}
	if tlsConfig == nil && mechanism == nil {
		return dialer, nil, nil
	}
	return dialer, &kafka.Transport{TLS: tlsConfig, SASL: mechanism}, nil
}

func buildKafkaTLSConfig(config *KafkaEventBusConfig) (*tls.Config, error) {
	if !config.TLSEnabled {
		return nil, nil
	}
	tlsConfig := &tls.Config{
		MinVersion:         tls.VersionTLS12,
		InsecureSkipVerify: config.TLSSkipVerify, //nolint:gosec
	}
	if caFile := strings.TrimSpace(config.TLSCAFile); caFile != "" {
		caBytes, err := os.ReadFile(caFile)
		if err != nil {
			return nil, fmt.Errorf("kafka event bus: read tls ca file: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(caBytes) {
			return nil, fmt.Errorf("kafka event bus: invalid tls ca file")
		}
		tlsConfig.RootCAs = pool
	}
	certFile := strings.TrimSpace(config.TLSCertFile)
	keyFile := strings.TrimSpace(config.TLSKeyFile)
	if certFile != "" || keyFile != "" {
		if certFile == "" || keyFile == "" {
			return nil, fmt.Errorf("kafka event bus: tls cert and key are required")
		}
		cert, err := tls.LoadX509KeyPair(certFile, keyFile)
		if err != nil {
			return nil, fmt.Errorf("kafka event bus: load tls key pair: %w", err)
		}
		tlsConfig.Certificates = []tls.Certificate{cert}
	}
	return tlsConfig, nil
}

func buildKafkaSASLMechanism(config *KafkaEventBusConfig) (sasl.Mechanism, error) {
	username := strings.TrimSpace(config.SASLUsername)
	password := strings.TrimSpace(config.SASLPassword)
	if username == "" && password == "" {
		return nil, nil
	}
	if username == "" || password == "" {
		return nil, fmt.Errorf("kafka event bus: sasl username and password are required")
	}
	return plain.Mechanism{Username: username, Password: password}, nil
}

func dlqTopicNameFor(prefix, eventType string) string {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = "ledger.events"
	}
	return fmt.Sprintf("%s.dlq.%s", prefix, strings.ToLower(eventType))
}

var _ eventbus.Bus = (*KafkaEventBus)(nil)
