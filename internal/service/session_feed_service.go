package service

import (
	"context"
	"encoding/json"
	"fmt"

	"dashboard-summarizer/internal/dto"
	"dashboard-summarizer/internal/pkg/logger"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

const SessionSnapshotTopic = "session.snapshots"

type ISessionFeed interface {
	Publish(snapshot dto.SessionSnapshot) error
	// Consume delivers every snapshot published after the call to handler,
	// one at a time, until ctx is done.
	Consume(ctx context.Context, handler func(dto.SessionSnapshot)) error
	Close() error
}

type sessionFeed struct {
	pubSub *gochannel.GoChannel
	topic  string
	logger logger.ILogger
}

// NewSessionFeed returns a feed whose Publish blocks until every subscriber
// has handled the snapshot, so consumers observe transitions in order.
func NewSessionFeed(log logger.ILogger) ISessionFeed {
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{BlockPublishUntilSubscriberAck: true},
		watermill.NopLogger{},
	)
	return &sessionFeed{pubSub: pubSub, topic: SessionSnapshotTopic, logger: log}
}

func (f *sessionFeed) Publish(snapshot dto.SessionSnapshot) error {
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("encode session snapshot: %w", err)
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	if err := f.pubSub.Publish(f.topic, msg); err != nil {
		return fmt.Errorf("publish session snapshot: %w", err)
	}
	return nil
}

func (f *sessionFeed) Consume(ctx context.Context, handler func(dto.SessionSnapshot)) error {
	messages, err := f.pubSub.Subscribe(ctx, f.topic)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			var snapshot dto.SessionSnapshot
			if err := json.Unmarshal(msg.Payload, &snapshot); err != nil {
				f.logger.Warn("SessionFeed", "Dropping undecodable snapshot", map[string]interface{}{"error": err.Error()})
				msg.Ack()
				continue
			}
			handler(snapshot)
			msg.Ack()
		}
	}()

	return nil
}

func (f *sessionFeed) Close() error {
	return f.pubSub.Close()
}
