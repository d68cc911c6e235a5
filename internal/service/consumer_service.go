package service

import (
	"context"
	"encoding/json"

	"canvas-annotations-be/internal/pkg/logger"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService drains the annotation event bus into the audit log. The
// audit log is the record a user consults when an export or clear did not do
// what they expected.
type consumerService struct {
	pubSub      *gochannel.GoChannel
	topicName   string
	auditLogger logger.ILogger
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	auditLogger logger.ILogger,
) IConsumerService {
	return &consumerService{
		pubSub:      pubSub,
		topicName:   topicName,
		auditLogger: auditLogger,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(msg *message.Message) {
	var evt eventMessage
	if err := json.Unmarshal(msg.Payload, &evt); err != nil {
		// Ack malformed messages: retrying cannot fix them.
		cs.auditLogger.Error("AnnotationAudit", "unreadable event payload", map[string]interface{}{
			"error": err.Error(),
		})
		msg.Ack()
		return
	}

	details := evt.Data
	if details == nil {
		details = map[string]interface{}{}
	}
	details["occurred_at"] = evt.OccurredAt

	cs.auditLogger.Info("AnnotationAudit", evt.Type, details)
	msg.Ack()
}
