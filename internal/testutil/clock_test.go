package testutil

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClock_StartsAtEpoch(t *testing.T) {
	c := NewClock()
	assert.Equal(t, Epoch, c.Now())
	assert.Equal(t, Epoch.Add(time.Second), c.Now())
	assert.Equal(t, Epoch.Add(time.Second), c.Current())
}

func TestClock_Reset(t *testing.T) {
	c := NewClock()
	c.Now()
	c.Now()
	c.Reset()
	assert.Equal(t, Epoch, c.Now())
}

func TestClock_ConcurrentCallsAreUnique(t *testing.T) {
	c := NewClock()
	var mu sync.Mutex
	seen := make(map[time.Time]bool)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			now := c.Now()
			mu.Lock()
			seen[now] = true
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Len(t, seen, 50)
}
