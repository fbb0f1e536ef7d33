// Mediagraph - Media Catalog Hypergraph Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediagraph

package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tomtom215/mediagraph/internal/metrics"
	"github.com/tomtom215/mediagraph/internal/models"
)

func newPubSub(t *testing.T) *gochannel.GoChannel {
	t.Helper()
	ps := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 16}, watermill.NopLogger{})
	t.Cleanup(func() { _ = ps.Close() })
	return ps
}

func receive(t *testing.T, ch <-chan *message.Message) *message.Message {
	t.Helper()
	select {
	case msg := <-ch:
		msg.Ack()
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
		return nil
	}
}

func TestPublisher_PublishReadiness(t *testing.T) {
	ctx := context.Background()
	ps := newPubSub(t)
	ch, err := ps.Subscribe(ctx, TopicReadiness)
	if err != nil {
		t.Fatal(err)
	}

	pub := NewPublisher(ps, "", "")
	fixed := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	pub.now = func() time.Time { return fixed }

	m := models.NewMovieNode("949", "Heat", fixed)
	m.PlatformReadiness = models.PlatformReadiness{Netflix: true, Amazon: true, FAST: true}
	m.DistributionStatus = models.StatusReady

	before := testutil.ToFloat64(metrics.EventsPublished.WithLabelValues(TopicReadiness, metrics.ResultSuccess))
	if err := pub.PublishReadiness(ctx, "run-1", []*models.MovieNode{m}); err != nil {
		t.Fatalf("PublishReadiness() error = %v", err)
	}

	msg := receive(t, ch)
	if msg.Metadata.Get(MetaEventType) != TypeReadiness || msg.Metadata.Get(MetaRunID) != "run-1" || msg.Metadata.Get(MetaMovieID) != "949" {
		t.Errorf("metadata = %v", msg.Metadata)
	}
	if middleware.MessageCorrelationID(msg) != "run-1" {
		t.Errorf("correlation id = %q", middleware.MessageCorrelationID(msg))
	}

	var ev ReadinessEvent
	if err := json.Unmarshal(msg.Payload, &ev); err != nil {
		t.Fatal(err)
	}
	if ev.EventID != msg.UUID || ev.MovieID != "949" || ev.Status != models.StatusReady || len(ev.ReadyPlatforms) != 3 || !ev.OccurredAt.Equal(fixed) {
		t.Errorf("event = %+v", ev)
	}

	if got := testutil.ToFloat64(metrics.EventsPublished.WithLabelValues(TopicReadiness, metrics.ResultSuccess)) - before; got != 1 {
		t.Errorf("published metric delta = %v, want 1", got)
	}
}

func TestPublisher_PublishRunCompleted(t *testing.T) {
	ctx := context.Background()
	ps := newPubSub(t)
	ch, err := ps.Subscribe(ctx, "custom.completed")
	if err != nil {
		t.Fatal(err)
	}
	pub := NewPublisher(ps, "custom.readiness", "custom.completed")
	if pub.ReadinessTopic() != "custom.readiness" || pub.CompletedTopic() != "custom.completed" {
		t.Fatalf("topics = %s %s", pub.ReadinessTopic(), pub.CompletedTopic())
	}

	stats := models.NewRunStats("run-7", time.Now())
	stats.TotalProcessed = 3
	stats.SuccessfulMovies = 2

	if err := pub.PublishRunCompleted(ctx, stats, errors.New("store unavailable")); err != nil {
		t.Fatal(err)
	}

	var ev RunCompletedEvent
	if err := json.Unmarshal(receive(t, ch).Payload, &ev); err != nil {
		t.Fatal(err)
	}
	if ev.RunID != "run-7" || ev.Success || ev.Error != "store unavailable" || ev.Stats.SuccessfulMovies != 2 {
		t.Errorf("event = %+v", ev)
	}
}

func TestPublisher_Closed(t *testing.T) {
	pub := NewPublisher(newPubSub(t), "", "")
	if err := pub.Close(); err != nil {
		t.Fatal(err)
	}
	if err := pub.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}

	m := models.NewMovieNode("1", "A", time.Now())
	if err := pub.PublishReadiness(context.Background(), "r", []*models.MovieNode{m}); !errors.Is(err, ErrClosed) {
		t.Errorf("publish after close error = %v, want ErrClosed", err)
	}
}

func TestPublisher_NothingToPublish(t *testing.T) {
	pub := NewPublisher(newPubSub(t), "", "")
	if err := pub.PublishReadiness(context.Background(), "r", nil); err != nil {
		t.Errorf("PublishReadiness(nil) error = %v", err)
	}
}
