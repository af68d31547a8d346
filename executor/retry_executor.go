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

var _ Executor = new(RetryExecutor)

// RetryExecutor re-dispatches runs whose retry backoff has elapsed.
type RetryExecutor struct {
	delayQueue   persistence.DelayQueue
	engine       *engine.Engine
	encDec       util.EncoderDecoder[model.RunExecutionRequest]
	pollInterval time.Duration
	wg           *sync.WaitGroup
	stop         chan struct{}
}

func NewRetryExecutor(delayQueue persistence.DelayQueue, eng *engine.Engine, pollInterval time.Duration, wg *sync.WaitGroup) *RetryExecutor {
	return &RetryExecutor{
		delayQueue:   delayQueue,
		engine:       eng,
		encDec:       util.NewJsonEncoderDecoder[model.RunExecutionRequest](),
		pollInterval: pollInterval,
		stop:         make(chan struct{}),
		wg:           wg,
	}
}

func (ex *RetryExecutor) Name() string {
	return "retry-executor"
}

func (ex *RetryExecutor) Start() error {
	fn := func() {
		res, err := ex.delayQueue.Pop(engine.RETRY_QUEUE)
		if err != nil {
			logger.Error("error while polling retry queue", zap.Error(err))
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
	tw := util.NewTickWorker("retry-worker", ex.pollInterval, ex.stop, fn, ex.wg)
	tw.Start()
	logger.Info("retry executor started")
	return nil
}

func (ex *RetryExecutor) Stop() error {
	ex.stop <- struct{}{}
	return nil
}
