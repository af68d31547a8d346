package executor

import (
	"sync"
	"time"

	"github.com/tickd/tickd/bus"
	"github.com/tickd/tickd/engine"
	"github.com/tickd/tickd/logger"
	"github.com/tickd/tickd/model"
	"github.com/tickd/tickd/persistence"
	"github.com/tickd/tickd/util"
	"go.uber.org/zap"
)

var _ Executor = new(EventExecutor)

// EventExecutor pops published events off the durable event queue and
// dispatches one run per subscribed workflow.
type EventExecutor struct {
	queue        persistence.Queue
	engine       *engine.Engine
	encDec       util.EncoderDecoder[model.Event]
	pollInterval time.Duration
	pollBatch    int
	wg           *sync.WaitGroup
	stop         chan struct{}
}

func NewEventExecutor(queue persistence.Queue, eng *engine.Engine, pollInterval time.Duration, pollBatch int, wg *sync.WaitGroup) *EventExecutor {
	return &EventExecutor{
		queue:        queue,
		engine:       eng,
		encDec:       util.NewJsonEncoderDecoder[model.Event](),
		pollInterval: pollInterval,
		pollBatch:    pollBatch,
		stop:         make(chan struct{}),
		wg:           wg,
	}
}

func (ex *EventExecutor) Name() string {
	return "event-executor"
}

func (ex *EventExecutor) Start() error {
	fn := func() {
		res, err := ex.queue.Pop(bus.EVENT_QUEUE, ex.pollBatch)
		if err != nil {
			logger.Error("error while polling event queue", zap.Error(err))
			return
		}
		for _, r := range res {
			event, err := ex.encDec.Decode([]byte(r))
			if err != nil {
				logger.Error("can not decode event", zap.Error(err))
				continue
			}
			if _, err := ex.engine.Trigger(*event); err != nil {
				logger.Error("error dispatching event", zap.String("event", event.Name), zap.Error(err))
			}
		}
	}
	tw := util.NewTickWorker("event-worker", ex.pollInterval, ex.stop, fn, ex.wg)
	tw.Start()
	logger.Info("event executor started")
	return nil
}

func (ex *EventExecutor) Stop() error {
	ex.stop <- struct{}{}
	return nil
}
