package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"readit/internal/models"

	"github.com/segmentio/kafka-go"
)

const VoteChanged = "vote.changed"

// VoteEvent is published after every applied vote.
type VoteEvent struct {
	Type       string          `json:"type"`
	VoterID    uint            `json:"voterId"`
	ItemKind   models.ItemKind `json:"itemKind"`
	ItemID     uint            `json:"itemId"`
	Identifier string          `json:"identifier"`
	Value      int             `json:"value"`
	At         time.Time       `json:"at"`
}

func NewVoteEvent(voterID uint, item models.ItemKey, identifier string, value int, at time.Time) VoteEvent {
	return VoteEvent{
		Type:       VoteChanged,
		VoterID:    voterID,
		ItemKind:   item.Kind,
		ItemID:     item.ID,
		Identifier: identifier,
		Value:      value,
		At:         at.UTC(),
	}
}

// Key partitions events by item so each item's events stay in order.
func (e VoteEvent) Key() string {
	return models.ItemKey{Kind: e.ItemKind, ID: e.ItemID}.String()
}

type Publisher interface {
	Publish(ctx context.Context, ev VoteEvent) error
	Close() error
}

// NopPublisher drops events. Used when no brokers are configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, VoteEvent) error { return nil }
func (NopPublisher) Close() error                             { return nil }

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaPublisher struct {
	w messageWriter
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{w: &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		BatchTimeout:           50 * time.Millisecond,
		AllowAutoTopicCreation: true,
	}}
}

func (p *KafkaPublisher) Publish(ctx context.Context, ev VoteEvent) error {
	msg, err := encodeEvent(ev)
	if err != nil {
		return err
	}
	if err := p.w.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish %s: %w", ev.Key(), err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.w.Close()
}

func encodeEvent(ev VoteEvent) (kafka.Message, error) {
	body, err := json.Marshal(ev)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("encode vote event: %w", err)
	}
	return kafka.Message{
		Key:   []byte(ev.Key()),
		Value: body,
		Time:  ev.At,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(ev.Type)},
		},
	}, nil
}

// NewPublisher returns a Kafka publisher, or a NopPublisher when brokers is empty.
func NewPublisher(brokers []string, topic string) Publisher {
	if len(brokers) == 0 {
		return NopPublisher{}
	}
	return NewKafkaPublisher(brokers, topic)
}
