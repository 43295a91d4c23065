package primitives

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSemaCollectorWait(t *testing.T) {
	s := NewSemaCollector()
	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Notify()
		}()
	}
	wg.Wait()
	require.Equal(t, 5, s.Wait(5, 0))
}

func TestSemaCollectorWaitTimesOut(t *testing.T) {
	s := NewSemaCollector()
	start := time.Now()
	got := s.Wait(1, int64(20*time.Millisecond/time.Microsecond))
	assert.Equal(t, 0, got)
	assert.GreaterOrEqual(t, time.Since(start), 15*time.Millisecond)
}

func TestSemaCollectorReset(t *testing.T) {
	s := NewSemaCollector()
	s.Notify()
	s.Notify()
	require.Equal(t, 2, s.Count())
	s.Reset()
	assert.Equal(t, 0, s.Count())
}

func TestNotifWaitInvokesCallback(t *testing.T) {
	n := NewNotif()
	var calls int
	done := make(chan struct{})
	go func() {
		n.Wait(1, func() { calls++ })
		close(done)
	}()

	time.Sleep(120 * time.Millisecond)
	assert.True(t, n.Get(), "flag should be set once Wait begins")
	n.Notify()
	<-done
	assert.GreaterOrEqual(t, calls, 1)
}

func TestNotifReset(t *testing.T) {
	n := NewNotif()
	n.Set(true)
	n.Notify()
	n.Reset()
	assert.False(t, n.Get())
	assert.Equal(t, 0, n.Count())
}
