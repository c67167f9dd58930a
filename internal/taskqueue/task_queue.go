package taskqueue

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gammazero/workerpool"
)

// TaskExpirationTime bounds how long a task may wait in the queue.
var TaskExpirationTime = 4 * time.Hour

// ErrTaskExpired is returned when a task has expired
var ErrTaskExpired = errors.New("task expired")

// AnyTask is an interface for tasks that can be executed
type AnyTask interface {
	Execute() error
	ShouldRetry(error) bool
	IsExpired() bool
}

// Task is a generic implementation of AnyTask
type Task[T any] struct {
	ExecuteFunc func() (T, error)
	Callback    func(T, error)
	RetryError  error
	CreatedAt   time.Time
}

// NewTask creates a new task with the given execute function, callback, and retry error
func NewTask[T any](
	executeFunc func() (T, error),
	callback func(T, error),
	retryError error,
) Task[T] {
	return Task[T]{
		ExecuteFunc: executeFunc,
		Callback:    callback,
		RetryError:  retryError,
		CreatedAt:   time.Now(),
	}
}

// Execute executes the task and calls the callback with the result.
// The callback is always called exactly once per attempt: an expired task
// reports ErrTaskExpired and a panicking task reports the recovered value.
func (t Task[T]) Execute() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in task callback: %v", r)
		}
	}()

	if t.IsExpired() {
		var zero T
		t.Callback(zero, ErrTaskExpired)
		return ErrTaskExpired
	}

	result, err := t.run()
	t.Callback(result, err)
	return err
}

func (t Task[T]) run() (result T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in task execution: %v", r)
		}
	}()

	return t.ExecuteFunc()
}

// ShouldRetry returns true if the error is the retry error
func (t Task[T]) ShouldRetry(err error) bool {
	return t.RetryError != nil && errors.Is(err, t.RetryError)
}

// IsExpired returns true if the task was created more than TaskExpirationTime ago
func (t Task[T]) IsExpired() bool {
	return time.Since(t.CreatedAt) > TaskExpirationTime
}

// Queue is a task queue that executes tasks sequentially
type Queue struct {
	pool *workerpool.WorkerPool
	wg   sync.WaitGroup
}

// NewQueue creates a new task queue
func NewQueue() *Queue {
	// a single worker keeps execution strictly sequential
	return &Queue{
		pool: workerpool.New(1),
	}
}

// Add adds a task to the queue
func (q *Queue) Add(task AnyTask) {
	q.wg.Add(1)
	q.pool.Submit(func() {
		q.processTask(task)
	})
}

func (q *Queue) processTask(task AnyTask) {
	defer q.wg.Done()

	err := task.Execute()
	if err == nil || errors.Is(err, ErrTaskExpired) {
		return
	}
	if task.ShouldRetry(err) {
		q.Add(task)
	}
}

// Run adds a task to the queue and blocks until it has been executed,
// returning whatever the task produced. Tasks submitted through Run are
// never retried.
func Run[T any](q *Queue, executeFunc func() (T, error)) (T, error) {
	type outcome struct {
		result T
		err    error
	}

	done := make(chan outcome, 1)
	q.Add(NewTask(
		executeFunc,
		func(result T, err error) {
			done <- outcome{result: result, err: err}
		},
		nil,
	))

	o := <-done
	return o.result, o.err
}

// Wait waits for all tasks to complete
func (q *Queue) Wait() {
	q.wg.Wait()
}

// Close stops the worker pool and waits for all tasks to complete
func (q *Queue) Close() {
	q.pool.StopWait()
	q.wg.Wait()
}
