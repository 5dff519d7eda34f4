package observable

import (
	"sync"

	"github.com/xiaobei/singbox-manager/common/channel"
)

type Subscription[T any] <-chan T

type Subscriber[T any] struct {
	buffer *channel.InfiniteChannel[T]
	once   sync.Once
}

func (s *Subscriber[T]) Emit(item T) {
	s.buffer.In() <- item
}

func (s *Subscriber[T]) Out() Subscription[T] {
	return s.buffer.Out()
}

func (s *Subscriber[T]) Close() {
	s.once.Do(func() {
		s.buffer.Close()
	})
}

func newSubscriber[T any]() *Subscriber[T] {
	sub := &Subscriber[T]{
		buffer: channel.NewInfiniteChannel[T](),
	}
	return sub
}
