package engine

import (
	"encoding/json"
	"time"

	"github.com/tickd/tickd/logger"
	"github.com/tickd/tickd/model"
	"github.com/tickd/tickd/persistence"
	"github.com/tickd/tickd/util"
	"go.uber.org/zap"
)

const SLEEP_QUEUE string = "sleeps"

// Run is the execution handle a workflow definition works against.
// It owns the run context for the lifetime of one execution attempt.
type Run struct {
	ctx        *model.RunContext
	runDao     persistence.RunDao
	delayQueue persistence.DelayQueue
	reqEncDec  util.EncoderDecoder[model.RunExecutionRequest]
}

func newRun(ctx *model.RunContext, runDao persistence.RunDao, delayQueue persistence.DelayQueue) *Run {
	return &Run{
		ctx:        ctx,
		runDao:     runDao,
		delayQueue: delayQueue,
		reqEncDec:  util.NewJsonEncoderDecoder[model.RunExecutionRequest](),
	}
}

func (r *Run) Id() string {
	return r.ctx.Id
}

func (r *Run) Event() model.Event {
	return r.ctx.Event
}

// RunStep executes fn at most once per (run, name). A prior result in
// the run log is decoded and returned without invoking fn; a fresh
// result is persisted before it is returned so a crash cannot re-run
// the step.
func RunStep[T any](r *Run, name string, fn func() (T, error)) (T, error) {
	var zero T
	if prior, ok := r.ctx.Steps[name]; ok {
		var out T
		if err := json.Unmarshal(prior.Data, &out); err != nil {
			return zero, err
		}
		logger.Debug("step replayed from run log", zap.String("runId", r.ctx.Id), zap.String("step", name))
		return out, nil
	}
	out, err := fn()
	if err != nil {
		return zero, err
	}
	data, err := json.Marshal(out)
	if err != nil {
		return zero, err
	}
	r.ctx.Steps[name] = model.StepResult{
		Name:        name,
		Data:        data,
		CompletedAt: time.Now().UnixMilli(),
	}
	if err := r.runDao.SaveRunContext(r.ctx.Workflow, r.ctx); err != nil {
		return zero, err
	}
	return out, nil
}

// Sleep parks the run until at least d has elapsed. The wake-up is a
// delay-queue entry, so it survives process restarts. On the resume
// pass the recorded checkpoint makes this a no-op.
func (r *Run) Sleep(label string, d time.Duration) error {
	stepName := "sleep:" + label
	if _, ok := r.ctx.Steps[stepName]; ok {
		return nil
	}
	r.ctx.State = model.WAITING_DELAY
	if err := r.runDao.SaveRunContext(r.ctx.Workflow, r.ctx); err != nil {
		return err
	}
	req := model.RunExecutionRequest{
		Workflow:    r.ctx.Workflow,
		RunId:       r.ctx.Id,
		SleepStep:   stepName,
		RequestType: model.RESUME_RUN_EXECUTION,
	}
	data, err := r.reqEncDec.Encode(req)
	if err != nil {
		return err
	}
	if err := r.delayQueue.PushWithDelay(SLEEP_QUEUE, d, data); err != nil {
		return err
	}
	logger.Info("run suspended for delay", zap.String("workflow", r.ctx.Workflow), zap.String("runId", r.ctx.Id), zap.Duration("delay", d))
	return ErrSuspended
}
