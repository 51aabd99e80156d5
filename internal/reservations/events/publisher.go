// Package events publishes reservation lifecycle events so downstream
// consumers (notifications, reporting) can react without the booking path
// waiting on them.
package events

import (
	"context"
	"encoding/json"
	"time"

	"slotdesk/pkg/localtime"
	"slotdesk/pkg/logger"
	"slotdesk/pkg/model"

	"github.com/segmentio/kafka-go"
)

const (
	TypeReservationCreated = "reservation.created"
	TypeReservationUpdated = "reservation.updated"
	TypeReservationDeleted = "reservation.deleted"
)

type Event struct {
	Type          string         `json:"type"`
	ReservationID string         `json:"reservation_id"`
	StudentID     string         `json:"student_id"`
	SlotStart     localtime.Time `json:"slot_start"`
	SlotEnd       localtime.Time `json:"slot_end"`
	Company       string         `json:"company"`
	Round         string         `json:"round"`
	OccurredAt    time.Time      `json:"occurred_at"`
}

type Publisher interface {
	ReservationCreated(ctx context.Context, reservation *model.Reservation) error
	ReservationUpdated(ctx context.Context, reservation *model.Reservation) error
	ReservationDeleted(ctx context.Context, reservation *model.Reservation) error
	Close() error
}

type kafkaPublisher struct {
	writer *kafka.Writer
	log    *logger.Logger
}

func NewKafkaPublisher(brokers []string, topic string, log *logger.Logger) Publisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{}, // key by day keeps one day's events ordered
		RequiredAcks: kafka.RequireAll,
		Compression:  kafka.Snappy,
		BatchTimeout: 50 * time.Millisecond,
		Logger:       kafka.LoggerFunc(func(msg string, args ...any) {}),
		ErrorLogger:  kafka.LoggerFunc(func(msg string, args ...any) { log.Error("kafka: "+msg, "args", args) }),
	}

	return &kafkaPublisher{
		writer: writer,
		log:    log,
	}
}

func (p *kafkaPublisher) ReservationCreated(ctx context.Context, reservation *model.Reservation) error {
	return p.publish(ctx, TypeReservationCreated, reservation)
}

func (p *kafkaPublisher) ReservationUpdated(ctx context.Context, reservation *model.Reservation) error {
	return p.publish(ctx, TypeReservationUpdated, reservation)
}

func (p *kafkaPublisher) ReservationDeleted(ctx context.Context, reservation *model.Reservation) error {
	return p.publish(ctx, TypeReservationDeleted, reservation)
}

func (p *kafkaPublisher) publish(ctx context.Context, eventType string, reservation *model.Reservation) error {
	event := Event{
		Type:          eventType,
		ReservationID: reservation.ID,
		StudentID:     reservation.StudentID,
		SlotStart:     reservation.SlotStart,
		SlotEnd:       reservation.SlotEnd,
		Company:       reservation.Company,
		Round:         reservation.Round,
		OccurredAt:    time.Now().UTC(),
	}

	value, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(reservation.SlotStart.DateString()),
		Value: value,
		Time:  event.OccurredAt,
	})
}

func (p *kafkaPublisher) Close() error {
	return p.writer.Close()
}

// NoopPublisher discards events; used when event publishing is disabled and
// in unit tests.
type NoopPublisher struct{}

func (NoopPublisher) ReservationCreated(context.Context, *model.Reservation) error { return nil }
func (NoopPublisher) ReservationUpdated(context.Context, *model.Reservation) error { return nil }
func (NoopPublisher) ReservationDeleted(context.Context, *model.Reservation) error { return nil }
func (NoopPublisher) Close() error                                                 { return nil }
