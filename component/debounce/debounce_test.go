package debounce

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestManual(t *testing.T) {
	m := NewManual()
	var order []int
	m.Arm(200*time.Millisecond, func() { order = append(order, 2) })
	m.Arm(100*time.Millisecond, func() { order = append(order, 1) })
	cancelled := m.Arm(100*time.Millisecond, func() { order = append(order, -1) })
	cancelled.Cancel()
	cancelled.Cancel()

	assert.Equal(t, 2, m.Pending())
	m.Advance(99 * time.Millisecond)
	assert.Empty(t, order)

	m.Advance(time.Millisecond)
	assert.Equal(t, []int{1}, order)
	m.Advance(time.Second)
	assert.Equal(t, []int{1, 2}, order)
	assert.Equal(t, 0, m.Pending())
}

func TestSystem(t *testing.T) {
	var fired atomic.Int32
	s := System()
	s.Arm(time.Millisecond, func() { fired.Add(1) })
	h := s.Arm(time.Hour, func() { fired.Add(10) })
	h.Cancel()

	assert.Eventually(t, func() bool {
		return fired.Load() == 1
	}, time.Second, 5*time.Millisecond)
}
