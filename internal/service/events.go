package service

import (
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// Grading lifecycle event subjects.
const (
	EventSubmissionReceived = "submission.received"
	EventSubmissionGraded   = "submission.graded"
)

// GradingEvent is the payload published on grading lifecycle subjects.
type GradingEvent struct {
	SubmissionID uint      `json:"submission_id"`
	QuizID       uint      `json:"quiz_id"`
	StudentID    uint      `json:"student_id"`
	Status       string    `json:"status"`
	Score        *float64  `json:"score,omitempty"`
	SentAt       time.Time `json:"sent_at"`
}

// EventPublisher pushes grading lifecycle events to interested consumers
// (report generation, notifications). Publishing is best effort: failures are
// logged, never surfaced to the grading caller.
type EventPublisher interface {
	Publish(subject string, event GradingEvent)
}

type natsPublisher struct {
	conn   *nats.Conn
	prefix string
	logger zerolog.Logger
}

// NewEventPublisher builds a NATS-backed publisher. A nil connection degrades
// to a no-op.
func NewEventPublisher(conn *nats.Conn, prefix string, logger zerolog.Logger) EventPublisher {
	if prefix == "" {
		prefix = "nilai"
	}
	return &natsPublisher{
		conn:   conn,
		prefix: prefix,
		logger: logger.With().Str("component", "event_publisher").Logger(),
	}
}

func (p *natsPublisher) Publish(subject string, event GradingEvent) {
	if p.conn == nil {
		return
	}

	if event.SentAt.IsZero() {
		event.SentAt = time.Now().UTC()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.Error().Err(err).Msg("failed to encode grading event")
		return
	}

	full := p.prefix + "." + subject
	if err := p.conn.Publish(full, payload); err != nil {
		p.logger.Warn().Err(err).Str("subject", full).Msg("failed to publish grading event")
	}
}
