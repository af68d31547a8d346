package util

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWorkerDrainsTasksInOrder(t *testing.T) {
	wg := &sync.WaitGroup{}
	var mu sync.Mutex
	var handled []int
	done := make(chan struct{})
	worker := NewWorker("test-worker", wg, func(task int) error {
		mu.Lock()
		handled = append(handled, task)
		n := len(handled)
		mu.Unlock()
		if n == 3 {
			close(done)
		}
		return nil
	}, 10)
	worker.Start()
	defer func() {
		worker.Stop()
		wg.Wait()
	}()

	worker.Sender() <- 1
	worker.Sender() <- 2
	worker.Sender() <- 3

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("tasks not handled in time")
	}
	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []int{1, 2, 3}, handled)
}

func TestWorkerSurvivesHandlerError(t *testing.T) {
	wg := &sync.WaitGroup{}
	done := make(chan string, 2)
	worker := NewWorker("test-worker", wg, func(task string) error {
		if task == "bad" {
			return errors.New("handler failed")
		}
		done <- task
		return nil
	}, 10)
	worker.Start()
	defer func() {
		worker.Stop()
		wg.Wait()
	}()

	worker.Sender() <- "bad"
	worker.Sender() <- "good"

	select {
	case task := <-done:
		require.Equal(t, "good", task)
	case <-time.After(2 * time.Second):
		t.Fatal("worker stopped draining after handler error")
	}
}
