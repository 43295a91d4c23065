package primitives

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSemaphoreNotifyWait(t *testing.T) {
	s := NewSemaphore[int]()
	s.Notify(7)
	var out int
	ok := s.Wait(&out, 0)
	assert.True(t, ok)
	assert.Equal(t, 7, out)
}

func TestSemaphoreWaitAndReset(t *testing.T) {
	s := NewSemaphore[string]()
	s.Notify("payload")

	var out string
	ok := s.WaitAndReset(&out, 0)
	assert.True(t, ok)
	assert.Equal(t, "payload", out)

	ok = s.Wait(&out, int64(10*time.Millisecond/time.Microsecond))
	assert.False(t, ok, "WaitAndReset must clear the flag")
}
