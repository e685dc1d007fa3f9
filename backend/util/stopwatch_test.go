package util

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStopwatch_Accumulates(t *testing.T) {
	var sw Stopwatch
	assert.Zero(t, sw.Elapsed())

	sw.Start()
	time.Sleep(10 * time.Millisecond)
	sw.Stop()
	first := sw.Elapsed()
	assert.GreaterOrEqual(t, first, 10*time.Millisecond)

	time.Sleep(5 * time.Millisecond)
	assert.Equal(t, first, sw.Elapsed(), "stopped stopwatch must not advance")

	sw.Start()
	sw.Start() // no-op while running
	time.Sleep(5 * time.Millisecond)
	sw.Stop()
	sw.Stop()
	assert.GreaterOrEqual(t, sw.Elapsed(), first+5*time.Millisecond)
}

func TestStopwatch_Restart(t *testing.T) {
	var sw Stopwatch
	sw.Start()
	time.Sleep(10 * time.Millisecond)

	sw.Restart(true)
	assert.True(t, sw.Running())
	assert.Less(t, sw.Elapsed(), 10*time.Millisecond)

	sw.Restart(false)
	assert.False(t, sw.Running())
	assert.Zero(t, sw.Elapsed())

	sw.Start()
	sw.Reset()
	assert.False(t, sw.Running())
	assert.Zero(t, sw.Elapsed())
}

func TestStopwatch_ConcurrentAccess(t *testing.T) {
	var sw Stopwatch
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(3)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				sw.Start()
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				sw.Stop()
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				sw.Restart(j%2 == 0)
				_ = sw.Elapsed()
			}
		}()
	}
	wg.Wait()
}
