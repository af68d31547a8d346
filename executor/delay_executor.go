package executor

import (
	"sync"
	"time"

	"github.com/tickd/tickd/engine"
	"github.com/tickd/tickd/logger"
	"github.com/tickd/tickd/model"
	"github.com/tickd/tickd/persistence"
	"github.com/tickd/tickd/util"
	"go.uber.org/zap"
)

var _ Executor = new(DelayExecutor)

// DelayExecutor wakes runs parked on a durable sleep once their
// wake time has passed.
type DelayExecutor struct {
	delayQueue   persistence.DelayQueue
	engine       *engine.Engine
	encDec       util.EncoderDecoder[model.RunExecutionRequest]
	pollInterval time.Duration
	wg           *sync.WaitGroup
	stop         chan struct{}
}

func NewDelayExecutor(delayQueue persistence.DelayQueue, eng *engine.Engine, pollInterval time.Duration, wg *sync.WaitGroup) *DelayExecutor {
	return &DelayExecutor{
		delayQueue:   delayQueue,
		engine:       eng,
		encDec:       util.NewJsonEncoderDecoder[model.RunExecutionRequest](),
		pollInterval: pollInterval,
		stop:         make(chan struct{}),
		wg:           wg,
	}
}

func (ex *DelayExecutor) Name() string {
	return "delay-executor"
}

func (ex *DelayExecutor) Start() error {
	fn := func() {
		res, err := ex.delayQueue.Pop(engine.SLEEP_QUEUE)
		if err != nil {
			logger.Error("error while polling sleep queue", zap.Error(err))
			return
		}
		for _, r := range res {
			req, err := ex.encDec.Decode([]byte(r))
			if err != nil {
				logger.Error("can not decode run execution request", zap.Error(err))
				continue
			}
			ex.engine.Enqueue(*req)
		}
	}
	tw := util.NewTickWorker("delay-worker", ex.pollInterval, ex.stop, fn, ex.wg)
	tw.Start()
	logger.Info("delay executor started")
	return nil
}

func (ex *DelayExecutor) Stop() error {
	ex.stop <- struct{}{}
	return nil
}
