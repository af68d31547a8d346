package util

import (
	"sync"

	"github.com/tickd/tickd/logger"
	"go.uber.org/zap"
)

// Worker owns one goroutine draining a buffered task channel through
// a handler. Producers submit through Sender; a handler error is
// logged and the worker keeps draining.
type Worker[T any] struct {
	name     string
	stop     chan struct{}
	wg       *sync.WaitGroup
	handler  func(T) error
	taskChan chan T
}

func NewWorker[T any](name string, wg *sync.WaitGroup, handler func(T) error, capacity int) *Worker[T] {
	return &Worker[T]{
		taskChan: make(chan T, capacity),
		name:     name,
		wg:       wg,
		stop:     make(chan struct{}),
		handler:  handler,
	}
}

func (w *Worker[T]) Start() {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		for {
			select {
			case task := <-w.taskChan:
				err := w.handler(task)
				if err != nil {
					logger.Error("error in executing task in worker", zap.String("worker", w.name), zap.Any("task", task))
				}
			case <-w.stop:
				logger.Info("stopping worker", zap.String("worker", w.name))
				return
			}
		}
	}()
}

func (w *Worker[T]) Sender() chan<- T {
	return w.taskChan
}

func (w *Worker[T]) Stop() {
	w.stop <- struct{}{}
}
