package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/openfolio/portfolio-service/internal/models"
)

// Producer handles publishing portfolio events to Kafka
type Producer struct {
	writer *kafka.Writer
	topic  string
}

// NewProducer creates a new Kafka producer
func NewProducer(brokers []string, topic string) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
	}

	return &Producer{
		writer: writer,
		topic:  topic,
	}
}

// PublishPortfolioCreated publishes a portfolio created event
func (p *Producer) PublishPortfolioCreated(ctx context.Context, ownerID int, name string) error {
	event := models.PortfolioEvent{
		EventType: models.EventPortfolioCreated,
		OwnerID:   ownerID,
		Portfolio: name,
		Timestamp: time.Now(),
	}
	return p.publish(ctx, name, event)
}

// PublishPortfolioDeleted publishes a portfolio deleted event
func (p *Producer) PublishPortfolioDeleted(ctx context.Context, ownerID int, name string) error {
	event := models.PortfolioEvent{
		EventType: models.EventPortfolioDeleted,
		OwnerID:   ownerID,
		Portfolio: name,
		Timestamp: time.Now(),
	}
	return p.publish(ctx, name, event)
}

// PublishPositionAdded publishes a position added event
func (p *Producer) PublishPositionAdded(ctx context.Context, ownerID int, portfolio string, pos *models.Position) error {
	return p.publishPosition(ctx, models.EventPositionAdded, ownerID, portfolio, pos.Ticker, pos)
}

// PublishPositionUpdated publishes a position updated event
func (p *Producer) PublishPositionUpdated(ctx context.Context, ownerID int, portfolio string, pos *models.Position) error {
	return p.publishPosition(ctx, models.EventPositionUpdated, ownerID, portfolio, pos.Ticker, pos)
}

// PublishPositionDeleted publishes a position deleted event
func (p *Producer) PublishPositionDeleted(ctx context.Context, ownerID int, portfolio, ticker string) error {
	return p.publishPosition(ctx, models.EventPositionDeleted, ownerID, portfolio, ticker, nil)
}

func (p *Producer) publishPosition(ctx context.Context, eventType string, ownerID int, portfolio, ticker string, pos *models.Position) error {
	event := models.PortfolioEvent{
		EventType: eventType,
		OwnerID:   ownerID,
		Portfolio: portfolio,
		Ticker:    ticker,
		Position:  pos,
		Timestamp: time.Now(),
	}
	return p.publish(ctx, portfolio, event)
}

func (p *Producer) publish(ctx context.Context, key string, event models.PortfolioEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: data,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write message to kafka: %w", err)
	}

	return nil
}

// Close closes the Kafka producer
func (p *Producer) Close() error {
	return p.writer.Close()
}
