// Package notification publishes patient-facing status events to Redis
// pub/sub channels.
package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Event types.
const (
	RequestSubmitted     = "request.submitted"
	RequestStatusChanged = "request.status_changed"
	ReportCreated        = "report.created"
	ReportApproved       = "report.approved"
)

// Event is the JSON payload published for a patient.
type Event struct {
	Type       string    `json:"type"`
	PatientID  string    `json:"patient_id"`
	ResourceID string    `json:"resource_id"`
	Status     string    `json:"status"`
	ActorID    string    `json:"actor_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Channel is the pub/sub channel carrying a patient's events.
func Channel(patientID string) string {
	return "nutrilab:patient:" + patientID
}

// Publisher is what domain services depend on.
type Publisher interface {
	Publish(ctx context.Context, ev Event)
}

// FailureCounter is notified of every publish that did not reach Redis.
type FailureCounter interface {
	NotificationFailed(eventType string)
}

// Notifier publishes events through go-redis. A Notifier with a nil client
// drops every event.
type Notifier struct {
	rdb      *redis.Client
	logger   zerolog.Logger
	failures FailureCounter
}

func NewNotifier(rdb *redis.Client, logger zerolog.Logger, failures FailureCounter) *Notifier {
	return &Notifier{rdb: rdb, logger: logger, failures: failures}
}

// Publish sends ev to the patient's channel. Failures are logged and counted
// but never returned: the state change behind the event has already been
// committed.
func (n *Notifier) Publish(ctx context.Context, ev Event) {
	if n == nil || n.rdb == nil {
		return
	}
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}
	if err := n.publish(ctx, ev); err != nil {
		n.logger.Warn().Err(err).
			Str("event", ev.Type).
			Str("patient_id", ev.PatientID).
			Str("resource_id", ev.ResourceID).
			Msg("notification publish failed")
		if n.failures != nil {
			n.failures.NotificationFailed(ev.Type)
		}
	}
}

func (n *Notifier) publish(ctx context.Context, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return n.rdb.Publish(ctx, Channel(ev.PatientID), payload).Err()
}

// Subscribe opens a subscription to one patient's channel. The caller owns
// the returned PubSub and must Close it. It returns nil without a client.
func (n *Notifier) Subscribe(ctx context.Context, patientID string) *redis.PubSub {
	if n == nil || n.rdb == nil {
		return nil
	}
	return n.rdb.Subscribe(ctx, Channel(patientID))
}

// Enabled reports whether events are actually delivered.
func (n *Notifier) Enabled() bool {
	return n != nil && n.rdb != nil
}

// Ping reports Redis liveness for the health endpoint.
func (n *Notifier) Ping(ctx context.Context) error {
	if n == nil || n.rdb == nil {
		return nil
	}
	return n.rdb.Ping(ctx).Err()
}

// NewRedisClient parses a redis:// URL. An empty URL yields a nil client,
// which turns notifications off.
func NewRedisClient(url string) (*redis.Client, error) {
	if url == "" {
		return nil, nil
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return redis.NewClient(opts), nil
}
