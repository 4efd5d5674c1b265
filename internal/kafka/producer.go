package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Domenick1991/railwatch/internal/domain"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

// Watch lifecycle event types.
const (
	EventWatchCreated   = "watch_created"
	EventWatchDelivered = "watch_delivered"
	EventWatchExpired   = "watch_expired"
	EventWatchCancelled = "watch_cancelled"
	EventWatchFailed    = "watch_failed"
)

type WatchEvent struct {
	EventID   string    `json:"event_id"`
	Type      string    `json:"type"`
	WatchID   int64     `json:"watch_id"`
	ChatID    int64     `json:"chat_id"`
	FromCity  string    `json:"from_city"`
	ToCity    string    `json:"to_city"`
	CreatedAt time.Time `json:"created_at"`
	Deadline  time.Time `json:"deadline"`
}

func NewWatchEvent(eventType string, w *domain.Watch) WatchEvent {
	return WatchEvent{
		EventID:   uuid.NewString(),
		Type:      eventType,
		WatchID:   w.ID,
		ChatID:    w.ChatID,
		FromCity:  w.Query.From,
		ToCity:    w.Query.To,
		CreatedAt: w.CreatedAt,
		Deadline:  w.Deadline,
	}
}

type Producer struct {
	writer *kafka.Writer
}

func NewProducer(brokers []string) *Producer {
	return &Producer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Balancer:     &kafka.LeastBytes{},
			BatchTimeout: 50 * time.Millisecond,
			RequiredAcks: kafka.RequireOne,
		},
	}
}

func (p *Producer) Publish(ctx context.Context, topic, key string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	message := kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: data,
		Time:  time.Now(),
	}
	if err := p.writer.WriteMessages(ctx, message); err != nil {
		return fmt.Errorf("failed to write message to Kafka: %w", err)
	}
	return nil
}

func (p *Producer) Close() error {
	if p.writer != nil {
		return p.writer.Close()
	}
	return nil
}
