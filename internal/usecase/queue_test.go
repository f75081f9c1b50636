package usecase

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobQueueFIFO(t *testing.T) {
	q := NewJobQueue()
	q.Enqueue("a")
	q.Enqueue("b")
	q.Enqueue("c")

	require.Equal(t, 3, q.Len())

	for _, want := range []string{"a", "b", "c"} {
		id, ok := q.Dequeue(10 * time.Millisecond)
		require.True(t, ok)
		assert.Equal(t, want, id)
	}
	assert.Equal(t, 0, q.Len())
}

func TestJobQueueDequeueTimesOutWhenEmpty(t *testing.T) {
	q := NewJobQueue()

	start := time.Now()
	id, ok := q.Dequeue(20 * time.Millisecond)

	assert.False(t, ok)
	assert.Empty(t, id)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestJobQueueWakesBlockedDequeue(t *testing.T) {
	q := NewJobQueue()

	got := make(chan string, 1)
	go func() {
		id, ok := q.Dequeue(2 * time.Second)
		if ok {
			got <- id
		}
	}()

	time.Sleep(10 * time.Millisecond)
	q.Enqueue("late")

	select {
	case id := <-got:
		assert.Equal(t, "late", id)
	case <-time.After(time.Second):
		t.Fatal("dequeue never woke up")
	}
}

func TestJobQueueConcurrentProducers(t *testing.T) {
	q := NewJobQueue()

	const producers = 8
	const perProducer = 50

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				q.Enqueue(fmt.Sprintf("%d-%d", p, i))
			}
		}(p)
	}
	wg.Wait()

	seen := make(map[string]bool)
	for i := 0; i < producers*perProducer; i++ {
		id, ok := q.Dequeue(100 * time.Millisecond)
		require.True(t, ok)
		require.False(t, seen[id], "id %s dequeued twice", id)
		seen[id] = true
	}
	assert.Equal(t, 0, q.Len())
}
