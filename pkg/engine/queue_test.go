package engine

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestQueue_BoundsConcurrency(t *testing.T) {
	defer goleak.VerifyNone(t)

	q := NewQueue(2, nil)

	var current, peak int32
	release := make(chan struct{})

	for i := 0; i < 6; i++ {
		require.NoError(t, q.Submit(func() error {
			n := atomic.AddInt32(&current, 1)
			for {
				p := atomic.LoadInt32(&peak)
				if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
					break
				}
			}
			<-release
			atomic.AddInt32(&current, -1)
			return nil
		}))
	}

	assert.Eventually(t, func() bool {
		running, queued, _ := q.GetStatus()
		return running == 2 && queued == 4
	}, time.Second, 5*time.Millisecond)

	close(release)
	q.Wait()

	assert.Equal(t, int32(2), atomic.LoadInt32(&peak))
	running, queued, slots := q.GetStatus()
	assert.Equal(t, 0, running)
	assert.Equal(t, 0, queued)
	assert.Equal(t, 2, slots)
}

func TestQueue_SubmitDoesNotBlock(t *testing.T) {
	defer goleak.VerifyNone(t)

	q := NewQueue(1, nil)
	block := make(chan struct{})

	done := make(chan struct{})
	go func() {
		for i := 0; i < 3; i++ {
			_ = q.Submit(func() error {
				<-block
				return nil
			})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Submit blocked on a full queue")
	}

	close(block)
	q.Shutdown()
}

func TestQueue_ShutdownDrainsAndRejects(t *testing.T) {
	defer goleak.VerifyNone(t)

	q := NewQueue(1, nil)
	var finished int32
	for i := 0; i < 3; i++ {
		require.NoError(t, q.Submit(func() error {
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt32(&finished, 1)
			return errors.New("task failed")
		}))
	}

	q.Shutdown()

	assert.Equal(t, int32(3), atomic.LoadInt32(&finished))
	assert.ErrorIs(t, q.Submit(func() error { return nil }), ErrQueueClosed)
}

func TestQueue_MinimumOneSlot(t *testing.T) {
	q := NewQueue(0, nil)
	_, _, slots := q.GetStatus()
	assert.Equal(t, 1, slots)
}

func TestQueue_ExecuteWithQueueReturnsError(t *testing.T) {
	q := NewQueue(1, nil)
	want := errors.New("boom")

	var wg sync.WaitGroup
	wg.Add(1)
	var got error
	go func() {
		defer wg.Done()
		got = q.ExecuteWithQueue(func() error { return want })
	}()
	wg.Wait()

	assert.Equal(t, want, got)
}
