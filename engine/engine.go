package engine

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tickd/tickd/analytics"
	"github.com/tickd/tickd/config"
	"github.com/tickd/tickd/logger"
	"github.com/tickd/tickd/model"
	"github.com/tickd/tickd/persistence"
	"github.com/tickd/tickd/util"
	"go.uber.org/zap"
)

const RETRY_QUEUE string = "retries"

// Definition is one named workflow bound to one event name. Execute
// must be idempotent per step: it is re-entered from the top on every
// retry and resume, with completed steps replayed from the run log.
type Definition interface {
	Name() string
	Event() string
	Execute(run *Run) error
}

type Engine struct {
	definitions map[string]Definition
	byEvent     map[string][]Definition
	runDao      persistence.RunDao
	delayQueue  persistence.DelayQueue
	maxRetries  int
	retryDelay  time.Duration
	worker      *util.Worker[model.RunExecutionRequest]
	reqEncDec   util.EncoderDecoder[model.RunExecutionRequest]
	audit       *analytics.RunAuditLog
}

func NewEngine(runDao persistence.RunDao, delayQueue persistence.DelayQueue, conf config.EngineConfig, wg *sync.WaitGroup) *Engine {
	e := &Engine{
		definitions: make(map[string]Definition),
		byEvent:     make(map[string][]Definition),
		runDao:      runDao,
		delayQueue:  delayQueue,
		maxRetries:  conf.MaxRetries,
		retryDelay:  conf.RetryDelay,
		reqEncDec:   util.NewJsonEncoderDecoder[model.RunExecutionRequest](),
	}
	e.worker = util.NewWorker("engine-worker", wg, e.handle, 1000)
	return e
}

// SetAuditLog attaches an optional audit collector recording terminal
// run outcomes.
func (e *Engine) SetAuditLog(audit *analytics.RunAuditLog) {
	e.audit = audit
}

// Register binds a workflow definition to its event name. Called at
// startup, before Start.
func (e *Engine) Register(def Definition) {
	e.definitions[def.Name()] = def
	e.byEvent[def.Event()] = append(e.byEvent[def.Event()], def)
	logger.Info("workflow registered", zap.String("workflow", def.Name()), zap.String("event", def.Event()))
}

func (e *Engine) Start() {
	e.worker.Start()
}

func (e *Engine) Stop() error {
	e.worker.Stop()
	return nil
}

func (e *Engine) Enqueue(req model.RunExecutionRequest) {
	e.worker.Sender() <- req
}

func (e *Engine) handle(req model.RunExecutionRequest) error {
	switch req.RequestType {
	case model.RESUME_RUN_EXECUTION:
		e.resume(req)
	default:
		e.execute(req)
	}
	return nil
}

// Trigger creates exactly one run per workflow subscribed to the
// event and dispatches each for execution.
func (e *Engine) Trigger(event model.Event) ([]string, error) {
	defs := e.byEvent[event.Name]
	if len(defs) == 0 {
		logger.Warn("no workflow subscribed to event", zap.String("event", event.Name))
		return nil, nil
	}
	runIds := make([]string, 0, len(defs))
	for _, def := range defs {
		runId := uuid.New().String()
		runCtx := &model.RunContext{
			Id:       runId,
			Workflow: def.Name(),
			Event:    event,
			Steps:    make(map[string]model.StepResult),
			State:    model.RUNNING,
		}
		if err := e.runDao.SaveRunContext(def.Name(), runCtx); err != nil {
			return runIds, err
		}
		e.Enqueue(model.RunExecutionRequest{
			Workflow:    def.Name(),
			RunId:       runId,
			RequestType: model.NEW_RUN_EXECUTION,
		})
		runIds = append(runIds, runId)
		logger.Info("run created", zap.String("workflow", def.Name()), zap.String("runId", runId), zap.String("event", event.Name))
	}
	return runIds, nil
}

func (e *Engine) resume(req model.RunExecutionRequest) {
	runCtx, err := e.runDao.GetRunContext(req.Workflow, req.RunId)
	if err != nil || runCtx == nil || runCtx.IsTerminal() {
		return
	}
	if req.SleepStep != "" {
		if _, done := runCtx.Steps[req.SleepStep]; !done {
			runCtx.Steps[req.SleepStep] = model.StepResult{
				Name:        req.SleepStep,
				Data:        json.RawMessage("{}"),
				CompletedAt: time.Now().UnixMilli(),
			}
		}
	}
	runCtx.State = model.RUNNING
	if err := e.runDao.SaveRunContext(req.Workflow, runCtx); err != nil {
		// the wake-up entry is already gone from the sleep queue; put
		// it back so the run is not stranded in WAITING_DELAY
		logger.Error("error resuming run, rescheduling wake-up", zap.String("workflow", req.Workflow), zap.String("runId", req.RunId), zap.Error(err))
		data, encErr := e.reqEncDec.Encode(req)
		if encErr != nil {
			logger.Error("can not encode resume request", zap.String("runId", req.RunId), zap.Error(encErr))
			return
		}
		if pushErr := e.delayQueue.PushWithDelay(SLEEP_QUEUE, e.retryDelay, data); pushErr != nil {
			logger.Error("error rescheduling wake-up", zap.String("runId", req.RunId), zap.Error(pushErr))
		}
		return
	}
	logger.Info("run resumed after delay", zap.String("workflow", req.Workflow), zap.String("runId", req.RunId))
	e.executeContext(req, runCtx)
}

func (e *Engine) execute(req model.RunExecutionRequest) {
	runCtx, err := e.runDao.GetRunContext(req.Workflow, req.RunId)
	if err != nil {
		logger.Error("error loading run context", zap.String("workflow", req.Workflow), zap.String("runId", req.RunId), zap.Error(err))
		return
	}
	if runCtx == nil {
		logger.Warn("run context not found", zap.String("workflow", req.Workflow), zap.String("runId", req.RunId))
		return
	}
	// duplicate delivery of a finished run is a no-op
	if runCtx.IsTerminal() {
		return
	}
	e.executeContext(req, runCtx)
}

func (e *Engine) executeContext(req model.RunExecutionRequest, runCtx *model.RunContext) {
	def, ok := e.definitions[req.Workflow]
	if !ok {
		logger.Error("no definition for workflow", zap.String("workflow", req.Workflow))
		return
	}
	runCtx.TryCount = req.TryCount
	run := newRun(runCtx, e.runDao, e.delayQueue)
	err := def.Execute(run)
	switch {
	case err == nil:
		e.complete(runCtx)
	case errors.Is(err, ErrSuspended):
		// state and wake-up already persisted by Sleep
	case IsNonRetriable(err):
		logger.Warn("run failed with non-retriable error", zap.String("workflow", runCtx.Workflow), zap.String("runId", runCtx.Id), zap.Error(err))
		e.fail(runCtx, err)
	default:
		e.retryOrFail(req, runCtx, err)
	}
}

func (e *Engine) complete(runCtx *model.RunContext) {
	runCtx.State = model.COMPLETED
	runCtx.Result = &model.RunResult{Success: true}
	if err := e.runDao.SaveRunContext(runCtx.Workflow, runCtx); err != nil {
		logger.Error("error saving completed run", zap.String("workflow", runCtx.Workflow), zap.String("runId", runCtx.Id), zap.Error(err))
		return
	}
	logger.Info("run completed", zap.String("workflow", runCtx.Workflow), zap.String("runId", runCtx.Id))
	e.audit.RecordRunSuccess(runCtx.Workflow, runCtx.Id, len(runCtx.Steps))
}

func (e *Engine) fail(runCtx *model.RunContext, cause error) {
	runCtx.State = model.FAILED
	runCtx.Result = &model.RunResult{Success: false, Error: cause.Error()}
	if err := e.runDao.SaveRunContext(runCtx.Workflow, runCtx); err != nil {
		logger.Error("error saving failed run", zap.String("workflow", runCtx.Workflow), zap.String("runId", runCtx.Id), zap.Error(err))
	}
	e.audit.RecordRunFailure(runCtx.Workflow, runCtx.Id, cause.Error())
}

func (e *Engine) retryOrFail(req model.RunExecutionRequest, runCtx *model.RunContext, cause error) {
	if req.TryCount >= e.maxRetries {
		logger.Error("run failed, retries exhausted", zap.String("workflow", runCtx.Workflow), zap.String("runId", runCtx.Id), zap.Int("tries", req.TryCount+1), zap.Error(cause))
		e.fail(runCtx, cause)
		return
	}
	retryReq := model.RunExecutionRequest{
		Workflow:    req.Workflow,
		RunId:       req.RunId,
		TryCount:    req.TryCount + 1,
		RequestType: model.RETRY_RUN_EXECUTION,
	}
	data, err := e.reqEncDec.Encode(retryReq)
	if err != nil {
		e.fail(runCtx, cause)
		return
	}
	if err := e.delayQueue.PushWithDelay(RETRY_QUEUE, e.retryDelay, data); err != nil {
		logger.Error("error scheduling retry", zap.String("workflow", runCtx.Workflow), zap.String("runId", runCtx.Id), zap.Error(err))
		e.fail(runCtx, cause)
		return
	}
	logger.Warn("run scheduled for retry", zap.String("workflow", runCtx.Workflow), zap.String("runId", runCtx.Id), zap.Int("try", retryReq.TryCount), zap.Error(cause))
}
