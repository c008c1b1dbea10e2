package queue

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnqueue_RunsJobsInOrderPerChannel(t *testing.T) {
	m := NewManager()
	var mu sync.Mutex
	var order []int
	var wg sync.WaitGroup
	wg.Add(5)

	for i := 0; i < 5; i++ {
		i := i
		m.Enqueue("chan1", func() {
			defer wg.Done()
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
		})
	}

	waitTimeout(t, &wg, time.Second)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
}

func TestEnqueue_SeparateChannelsRunIndependently(t *testing.T) {
	m := NewManager()
	var wg sync.WaitGroup
	wg.Add(2)

	var aRan, bRan bool
	m.Enqueue("a", func() { aRan = true; wg.Done() })
	m.Enqueue("b", func() { bRan = true; wg.Done() })

	waitTimeout(t, &wg, time.Second)
	assert.True(t, aRan)
	assert.True(t, bRan)
}

func TestEnqueue_DropsJobWhenQueueFull(t *testing.T) {
	m := NewManager()
	release := make(chan struct{})
	started := make(chan struct{})

	m.Enqueue("chan1", func() {
		close(started)
		<-release
	})
	<-started

	for i := 0; i < maxDepth+3; i++ {
		m.Enqueue("chan1", func() {})
	}

	require.LessOrEqual(t, m.Depth("chan1"), maxDepth)
	close(release)
}

func TestDepth_ZeroForUnknownChannel(t *testing.T) {
	m := NewManager()
	assert.Equal(t, 0, m.Depth("nonexistent"))
}

func waitTimeout(t *testing.T, wg *sync.WaitGroup, timeout time.Duration) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(timeout):
		t.Fatal("timed out waiting for jobs to finish")
	}
}
