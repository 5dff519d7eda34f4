package channel

// InfiniteChannel implements an unbounded buffer between In and Out.
type InfiniteChannel[T any] struct {
	inChan  chan T
	outChan chan T
	lenChan chan int
	buffer  []T
}

func NewInfiniteChannel[T any]() *InfiniteChannel[T] {
	ch := &InfiniteChannel[T]{
		inChan:  make(chan T),
		outChan: make(chan T),
		lenChan: make(chan int),
	}
	go ch.process()
	return ch
}

func (ch *InfiniteChannel[T]) In() chan<- T {
	return ch.inChan
}

func (ch *InfiniteChannel[T]) Out() <-chan T {
	return ch.outChan
}

func (ch *InfiniteChannel[T]) Len() int {
	return <-ch.lenChan
}

func (ch *InfiniteChannel[T]) Close() {
	close(ch.inChan)
}

func (ch *InfiniteChannel[T]) process() {
	var zero T
	input := ch.inChan

	for input != nil || len(ch.buffer) > 0 {
		var (
			output chan T
			next   T
		)
		if len(ch.buffer) > 0 {
			output = ch.outChan
			next = ch.buffer[0]
		}

		select {
		case item, ok := <-input:
			if !ok {
				input = nil
				continue
			}
			ch.buffer = append(ch.buffer, item)
		case output <- next:
			ch.buffer[0] = zero
			ch.buffer = ch.buffer[1:]
		case ch.lenChan <- len(ch.buffer):
		}
	}

	close(ch.outChan)
	close(ch.lenChan)
}
