package taskqueue

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitWithTimeout(t *testing.T, queue *Queue) {
	t.Helper()

	done := make(chan struct{})
	go func() {
		queue.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Test timed out")
	}
}

func TestSequentialExecutionWithRetry(t *testing.T) {
	queue := NewQueue()
	defer queue.Close()

	var mu sync.Mutex
	var results []string
	record := func(s string) {
		mu.Lock()
		defer mu.Unlock()
		results = append(results, s)
	}

	writeTask := NewTask(
		func() (string, error) {
			record("write ledger")
			return "CERT-2024-0000AAAA", nil
		},
		func(id string, err error) {
			record(fmt.Sprintf("issued %s", id))
		},
		nil,
	)

	retryError := errors.New("ledger busy")
	attempts := 0
	retryTask := NewTask(
		func() (int, error) {
			record("retry attempt")
			if attempts < 2 {
				attempts++
				return 0, retryError
			}
			return attempts, nil
		},
		func(n int, err error) {
			if err != nil {
				record("retry failed")
				return
			}
			record(fmt.Sprintf("retry succeeded after %d", n))
		},
		retryError,
	)

	queue.Add(writeTask)
	queue.Add(retryTask)
	waitWithTimeout(t, queue)

	assert.Equal(t, []string{
		"write ledger",
		"issued CERT-2024-0000AAAA",
		"retry attempt",
		"retry failed",
		"retry attempt",
		"retry failed",
		"retry attempt",
		"retry succeeded after 2",
	}, results)
}

func TestTaskExpiration(t *testing.T) {
	originalExpirationTime := TaskExpirationTime
	TaskExpirationTime = 10 * time.Millisecond
	defer func() {
		TaskExpirationTime = originalExpirationTime
	}()

	queue := NewQueue()
	defer queue.Close()

	var mu sync.Mutex
	var results []string

	freshTask := NewTask(
		func() (string, error) {
			return "fresh", nil
		},
		func(result string, err error) {
			mu.Lock()
			defer mu.Unlock()
			results = append(results, fmt.Sprintf("callback %s", result))
		},
		nil,
	)

	staleTask := NewTask(
		func() (string, error) {
			t.Error("expired task must not execute")
			return "stale", nil
		},
		func(result string, err error) {
			mu.Lock()
			defer mu.Unlock()
			results = append(results, fmt.Sprintf("callback error: %v", err))
		},
		nil,
	)
	staleTask.CreatedAt = time.Now().Add(-TaskExpirationTime * 2)

	queue.Add(freshTask)
	queue.Add(staleTask)
	waitWithTimeout(t, queue)

	assert.Equal(t, []string{
		"callback fresh",
		"callback error: task expired",
	}, results)
}

func TestRun(t *testing.T) {
	queue := NewQueue()
	defer queue.Close()

	got, err := Run(queue, func() (int, error) { return 7, nil })
	require.NoError(t, err)
	assert.Equal(t, 7, got)

	boom := errors.New("boom")
	_, err = Run(queue, func() (int, error) { return 0, boom })
	assert.ErrorIs(t, err, boom)
}

func TestRunRecoversPanic(t *testing.T) {
	queue := NewQueue()
	defer queue.Close()

	_, err := Run(queue, func() (string, error) { panic("disk on fire") })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk on fire")
}

func TestRunSerializesConcurrentCallers(t *testing.T) {
	queue := NewQueue()
	defer queue.Close()

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = Run(queue, func() (struct{}, error) {
				// unsynchronized on purpose: the queue is the only guard
				v := counter
				time.Sleep(time.Microsecond)
				counter = v + 1
				return struct{}{}, nil
			})
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, counter)
}
