package calendar

import (
	"context"
	"time"

	"github.com/your-org/meetingcal/pkg/kafka"
)

// SyncEventType tags sync notifications on the wire.
const SyncEventType = "calendar.synced"

// SourceStatus values recorded per source in a sync.
const (
	StatusFulfilled = "fulfilled"
	StatusRejected  = "rejected"
)

// SyncNotification summarises one successful sync for downstream consumers.
type SyncNotification struct {
	ID         string         `json:"id"`
	FetchedAt  time.Time      `json:"fetchedAt"`
	ExpiresAt  time.Time      `json:"expiresAt"`
	EventCount int            `json:"eventCount"`
	Sources    []SourceReport `json:"sources"`
}

type SourceReport struct {
	Source string `json:"source"`
	Status string `json:"status"`
	Events int    `json:"events"`
	Error  string `json:"error,omitempty"`
}

// Publisher receives a notification after each successful sync.
type Publisher interface {
	PublishSync(ctx context.Context, n SyncNotification) error
}

// KafkaPublisher sends notifications through a Kafka producer keyed by sync id.
type KafkaPublisher struct {
	Producer *kafka.Producer
}

func (p KafkaPublisher) PublishSync(ctx context.Context, n SyncNotification) error {
	return p.Producer.PublishJSON(ctx, n.ID, SyncEventType, n)
}
