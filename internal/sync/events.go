// Nexent Go Client - Knowledge Base Ingestion Tracking
// Copyright 2026 LittlPenguin
// SPDX-License-Identifier: MIT
// https://github.com/LittlPenguin/nexent

/*
events.go - Typed notification bus

The polling core and the directory signal state changes to any number of
presentation-layer listeners without a direct call dependency. Built on
Watermill's in-process gochannel Pub/Sub with typed JSON payloads:

  - kb.documents.updated: a knowledge base's document snapshot changed
  - kb.list.refresh: the knowledge base list should be re-fetched

Listeners keyed on the manager's active knowledge base drop document
events for other knowledge bases.
*/

package sync

import (
	"context"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/LittlPenguin/nexent/internal/logging"
	"github.com/LittlPenguin/nexent/internal/models"
)

// Topics carried by the bus.
const (
	TopicDocumentsUpdated = "kb.documents.updated"
	TopicListRefresh      = "kb.list.refresh"
)

// DocumentsUpdated is published after a reconciliation that changed a
// knowledge base's snapshot.
type DocumentsUpdated struct {
	KBID      string            `json:"kb_id"`
	Documents []models.Document `json:"documents"`
}

// ListRefresh asks listeners to re-fetch the knowledge base list.
// The event does not perform the fetch itself.
type ListRefresh struct {
	ForceRefresh bool `json:"force_refresh"`
}

// Bus is the in-process notification channel between the sync core and
// its consumers. Safe for concurrent use.
type Bus struct {
	pubSub *gochannel.GoChannel
}

// NewBus creates a bus with a buffered output channel per subscriber.
func NewBus() *Bus {
	return &Bus{
		pubSub: gochannel.NewGoChannel(
			gochannel.Config{OutputChannelBuffer: 64},
			newWatermillLogger(),
		),
	}
}

// PublishDocumentsUpdated emits a document update event.
func (b *Bus) PublishDocumentsUpdated(ev DocumentsUpdated) error {
	return b.publish(TopicDocumentsUpdated, ev)
}

// PublishListRefresh emits a list refresh signal. Fire and forget.
func (b *Bus) PublishListRefresh(ev ListRefresh) error {
	return b.publish(TopicListRefresh, ev)
}

func (b *Bus) publish(topic string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return b.pubSub.Publish(topic, message.NewMessage(uuid.NewString(), data))
}

// SubscribeDocuments returns a channel of document update events. The
// channel closes when ctx is canceled or the bus is closed.
func (b *Bus) SubscribeDocuments(ctx context.Context) (<-chan DocumentsUpdated, error) {
	msgs, err := b.pubSub.Subscribe(ctx, TopicDocumentsUpdated)
	if err != nil {
		return nil, err
	}
	out := make(chan DocumentsUpdated, 1)
	go func() {
		defer close(out)
		for msg := range msgs {
			var ev DocumentsUpdated
			if err := json.Unmarshal(msg.Payload, &ev); err != nil {
				logging.Warn().Err(err).Str("topic", TopicDocumentsUpdated).Msg("dropping undecodable event")
				msg.Ack()
				continue
			}
			msg.Ack()
			select {
			case out <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// SubscribeListRefresh returns a channel of list refresh signals. The
// channel closes when ctx is canceled or the bus is closed.
func (b *Bus) SubscribeListRefresh(ctx context.Context) (<-chan ListRefresh, error) {
	msgs, err := b.pubSub.Subscribe(ctx, TopicListRefresh)
	if err != nil {
		return nil, err
	}
	out := make(chan ListRefresh, 1)
	go func() {
		defer close(out)
		for msg := range msgs {
			var ev ListRefresh
			if err := json.Unmarshal(msg.Payload, &ev); err != nil {
				logging.Warn().Err(err).Str("topic", TopicListRefresh).Msg("dropping undecodable event")
				msg.Ack()
				continue
			}
			msg.Ack()
			select {
			case out <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// Close shuts the bus down and closes all subscriber channels.
func (b *Bus) Close() error {
	return b.pubSub.Close()
}

// watermillLogger adapts Watermill's logging interface onto zerolog.
type watermillLogger struct {
	fields watermill.LogFields
}

func newWatermillLogger() watermill.LoggerAdapter {
	return &watermillLogger{}
}

func (l *watermillLogger) Error(msg string, err error, fields watermill.LogFields) {
	l.event(logging.Error().Err(err), fields).Msg(msg)
}

func (l *watermillLogger) Info(msg string, fields watermill.LogFields) {
	l.event(logging.Debug(), fields).Msg(msg) // watermill info is noise at our info level
}

func (l *watermillLogger) Debug(msg string, fields watermill.LogFields) {
	l.event(logging.Debug(), fields).Msg(msg)
}

func (l *watermillLogger) Trace(msg string, fields watermill.LogFields) {
	l.event(logging.Debug(), fields).Msg(msg)
}

func (l *watermillLogger) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return &watermillLogger{fields: l.fields.Add(fields)}
}

func (l *watermillLogger) event(ev *zerolog.Event, fields watermill.LogFields) *zerolog.Event {
	for k, v := range l.fields {
		ev = ev.Interface(k, v)
	}
	for k, v := range fields {
		ev = ev.Interface(k, v)
	}
	return ev
}
