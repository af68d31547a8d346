package engine

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tickd/tickd/model"
	"github.com/tickd/tickd/persistence/inmem"
)

func newTestRun(t *testing.T) (*Run, *inmem.RunDao, *inmem.DelayQueue) {
	runDao := inmem.NewRunDao()
	delayQueue := inmem.NewDelayQueue()
	runCtx := &model.RunContext{
		Id:       "run-1",
		Workflow: "test-workflow",
		Event:    model.Event{Name: "test/event", Data: map[string]any{}},
		Steps:    make(map[string]model.StepResult),
		State:    model.RUNNING,
	}
	require.NoError(t, runDao.SaveRunContext("test-workflow", runCtx))
	return newRun(runCtx, runDao, delayQueue), runDao, delayQueue
}

func TestRunStepExecutesOnce(t *testing.T) {
	run, _, _ := newTestRun(t)
	calls := 0

	for i := 0; i < 3; i++ {
		out, err := RunStep(run, "compute", func() (int, error) {
			calls++
			return 42, nil
		})
		require.NoError(t, err)
		require.Equal(t, 42, out)
	}
	require.Equal(t, 1, calls)
}

func TestRunStepPersistsResultBeforeReturning(t *testing.T) {
	run, runDao, _ := newTestRun(t)

	_, err := RunStep(run, "compute", func() (string, error) {
		return "done", nil
	})
	require.NoError(t, err)

	stored, err := runDao.GetRunContext("test-workflow", "run-1")
	require.NoError(t, err)
	require.Contains(t, stored.Steps, "compute")
}

func TestRunStepReplayPreservesPriorOutputs(t *testing.T) {
	run, runDao, delayQueue := newTestRun(t)

	first, err := RunStep(run, "step-1", func() (string, error) { return "alpha", nil })
	require.NoError(t, err)

	// simulate a crash: rebuild the run from the persisted log
	stored, err := runDao.GetRunContext("test-workflow", "run-1")
	require.NoError(t, err)
	replayed := newRun(stored, runDao, delayQueue)

	second, err := RunStep(replayed, "step-1", func() (string, error) {
		t.Fatal("memoized step must not re-execute")
		return "", nil
	})
	require.NoError(t, err)
	require.Equal(t, first, second)

	calls := 0
	_, err = RunStep(replayed, "step-2", func() (string, error) {
		calls++
		return "beta", nil
	})
	require.NoError(t, err)
	require.Equal(t, 1, calls)
}

func TestRunStepErrorNotMemoized(t *testing.T) {
	run, _, _ := newTestRun(t)
	calls := 0

	_, err := RunStep(run, "flaky", func() (int, error) {
		calls++
		if calls == 1 {
			return 0, errors.New("transient")
		}
		return 7, nil
	})
	require.Error(t, err)

	out, err := RunStep(run, "flaky", func() (int, error) {
		calls++
		return 7, nil
	})
	require.NoError(t, err)
	require.Equal(t, 7, out)
	require.Equal(t, 2, calls)
}

func TestSleepSuspendsAndSchedulesWakeup(t *testing.T) {
	run, runDao, delayQueue := newTestRun(t)

	err := run.Sleep("wait", 10*time.Millisecond)
	require.ErrorIs(t, err, ErrSuspended)

	stored, err := runDao.GetRunContext("test-workflow", "run-1")
	require.NoError(t, err)
	require.Equal(t, model.WAITING_DELAY, stored.State)

	// nothing due before the wake time
	due, err := delayQueue.Pop(SLEEP_QUEUE)
	require.NoError(t, err)
	require.Empty(t, due)

	time.Sleep(15 * time.Millisecond)
	due, err = delayQueue.Pop(SLEEP_QUEUE)
	require.NoError(t, err)
	require.Len(t, due, 1)
}

func TestSleepCheckpointSkips(t *testing.T) {
	run, _, _ := newTestRun(t)
	run.ctx.Steps["sleep:wait"] = model.StepResult{Name: "sleep:wait", CompletedAt: time.Now().UnixMilli()}

	require.NoError(t, run.Sleep("wait", time.Hour))
}
