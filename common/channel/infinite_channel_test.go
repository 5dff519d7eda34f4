package channel

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInfiniteChannel(t *testing.T) {
	ch := NewInfiniteChannel[int]()
	for i := 0; i < 100; i++ {
		ch.In() <- i
	}
	assert.Equal(t, 100, ch.Len())
	ch.Close()

	var got []int
	for v := range ch.Out() {
		got = append(got, v)
	}
	assert.Len(t, got, 100)
	assert.Equal(t, 0, got[0])
	assert.Equal(t, 99, got[99])
}
