// Mediagraph - Media Catalog Hypergraph Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediagraph

package events

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	natsgo "github.com/nats-io/nats.go"

	"github.com/tomtom215/mediagraph/internal/config"
	"github.com/tomtom215/mediagraph/internal/metrics"
	"github.com/tomtom215/mediagraph/internal/models"
)

// Default topics.
const (
	TopicReadiness = "mediagraph.readiness"
	TopicCompleted = "mediagraph.ingest.completed"
)

// Metadata keys set on every message.
const (
	MetaEventType = "event_type"
	MetaRunID     = "run_id"
	MetaMovieID   = "movie_id"
)

// Event type names carried in MetaEventType.
const (
	TypeReadiness    = "movie.readiness"
	TypeRunCompleted = "ingest.completed"
)

// ErrClosed is returned after Close.
var ErrClosed = errors.New("publisher is closed")

// ReadinessEvent announces a movie's platform readiness after it is stored.
type ReadinessEvent struct {
	EventID        string                    `json:"eventId"`
	RunID          string                    `json:"runId"`
	MovieID        string                    `json:"movieId"`
	Title          string                    `json:"title"`
	Status         models.DistributionStatus `json:"status"`
	Readiness      models.PlatformReadiness  `json:"readiness"`
	ReadyPlatforms []models.Platform         `json:"readyPlatforms"`
	OccurredAt     time.Time                 `json:"occurredAt"`
}

// RunCompletedEvent announces the end of an ingestion run.
type RunCompletedEvent struct {
	EventID    string           `json:"eventId"`
	RunID      string           `json:"runId"`
	Success    bool             `json:"success"`
	Error      string           `json:"error,omitempty"`
	Stats      *models.RunStats `json:"stats"`
	OccurredAt time.Time        `json:"occurredAt"`
}

// Publisher emits pipeline events on a Watermill publisher. NATS is used in
// production; any message.Publisher (the gochannel pub/sub in tests) works.
type Publisher struct {
	publisher      message.Publisher
	readinessTopic string
	completedTopic string
	now            func() time.Time

	mu     sync.RWMutex
	closed bool
}

// NewPublisher wraps pub. Empty topics fall back to the defaults.
func NewPublisher(pub message.Publisher, readinessTopic, completedTopic string) *Publisher {
	if readinessTopic == "" {
		readinessTopic = TopicReadiness
	}
	if completedTopic == "" {
		completedTopic = TopicCompleted
	}
	return &Publisher{
		publisher:      pub,
		readinessTopic: readinessTopic,
		completedTopic: completedTopic,
		now:            time.Now,
	}
}

// NewNATSPublisher connects to NATS core (no JetStream stream is required)
// and returns a Publisher on the configured topics.
func NewNATSPublisher(cfg *config.NATSConfig, logger watermill.LoggerAdapter) (*Publisher, error) {
	if logger == nil {
		logger = NewWatermillLogger()
	}

	natsOpts := []natsgo.Option{
		natsgo.Name("mediagraph"),
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(cfg.MaxReconnects),
		natsgo.ReconnectWait(2 * time.Second),
		natsgo.DisconnectErrHandler(func(nc *natsgo.Conn, err error) {
			if err != nil {
				logger.Error("NATS disconnected", err, nil)
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logger.Info("NATS reconnected", watermill.LogFields{
				"url": nc.ConnectedUrl(),
			})
		}),
	}

	pub, err := wmNats.NewPublisher(wmNats.PublisherConfig{
		URL:         cfg.URL,
		NatsOptions: natsOpts,
		Marshaler:   &wmNats.NATSMarshaler{},
		JetStream:   wmNats.JetStreamConfig{Disabled: true},
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("create watermill publisher: %w", err)
	}

	return NewPublisher(pub, cfg.ReadinessTopic, cfg.CompletedTopic), nil
}

// ReadinessTopic returns the topic readiness events go to.
func (p *Publisher) ReadinessTopic() string { return p.readinessTopic }

// CompletedTopic returns the topic run-completed events go to.
func (p *Publisher) CompletedTopic() string { return p.completedTopic }

// PublishReadiness publishes one ReadinessEvent per movie. Every message is
// attempted; the errors are joined.
func (p *Publisher) PublishReadiness(ctx context.Context, runID string, movies []*models.MovieNode) error {
	if len(movies) == 0 {
		return nil
	}
	msgs := make([]*message.Message, 0, len(movies))
	for _, m := range movies {
		ev := ReadinessEvent{
			EventID:        uuid.NewString(),
			RunID:          runID,
			MovieID:        m.ID,
			Title:          m.Title,
			Status:         m.DistributionStatus,
			Readiness:      m.PlatformReadiness,
			ReadyPlatforms: m.PlatformReadiness.Ready(),
			OccurredAt:     p.now().UTC(),
		}
		msg, err := newMessage(ev.EventID, TypeReadiness, runID, ev)
		if err != nil {
			return err
		}
		msg.Metadata.Set(MetaMovieID, m.ID)
		msgs = append(msgs, msg)
	}

	var errs []error
	for _, msg := range msgs {
		if err := p.publish(ctx, p.readinessTopic, msg); err != nil {
			errs = append(errs, fmt.Errorf("publish readiness for movie %s: %w", msg.Metadata.Get(MetaMovieID), err))
		}
	}
	return errors.Join(errs...)
}

// PublishRunCompleted publishes the final statistics of a run.
func (p *Publisher) PublishRunCompleted(ctx context.Context, stats *models.RunStats, runErr error) error {
	ev := RunCompletedEvent{
		EventID:    uuid.NewString(),
		RunID:      stats.RunID,
		Success:    runErr == nil,
		Stats:      stats,
		OccurredAt: p.now().UTC(),
	}
	if runErr != nil {
		ev.Error = runErr.Error()
	}
	msg, err := newMessage(ev.EventID, TypeRunCompleted, stats.RunID, ev)
	if err != nil {
		return err
	}
	return p.publish(ctx, p.completedTopic, msg)
}

func newMessage(id, eventType, runID string, payload any) (*message.Message, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("serialize %s event: %w", eventType, err)
	}
	msg := message.NewMessage(id, data)
	msg.Metadata.Set(MetaEventType, eventType)
	msg.Metadata.Set(MetaRunID, runID)
	middleware.SetCorrelationID(runID, msg)
	return msg, nil
}

func (p *Publisher) publish(ctx context.Context, topic string, msg *message.Message) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	msg.SetContext(ctx)

	err := p.publisher.Publish(topic, msg)
	metrics.RecordEvent(topic, err)
	return err
}

// Close shuts down the underlying publisher.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true
	return p.publisher.Close()
}
