package bus

import (
	"github.com/tickd/tickd/logger"
	"github.com/tickd/tickd/model"
	"github.com/tickd/tickd/persistence"
	"github.com/tickd/tickd/util"
	"go.uber.org/zap"
)

const EVENT_QUEUE string = "events"

// EventBus accepts named domain events and queues them for dispatch.
// Publish is fire-and-forget: delivery to subscribed workflows is
// done by the event poller, at least once.
type EventBus struct {
	queue  persistence.Queue
	encDec util.EncoderDecoder[model.Event]
}

func NewEventBus(queue persistence.Queue) *EventBus {
	return &EventBus{
		queue:  queue,
		encDec: util.NewJsonEncoderDecoder[model.Event](),
	}
}

func (b *EventBus) Publish(name string, data map[string]any) error {
	event := model.Event{Name: name, Data: data}
	encoded, err := b.encDec.Encode(event)
	if err != nil {
		return err
	}
	if err := b.queue.Push(EVENT_QUEUE, encoded); err != nil {
		logger.Error("error publishing event", zap.String("event", name), zap.Error(err))
		return err
	}
	logger.Info("event published", zap.String("event", name))
	return nil
}
