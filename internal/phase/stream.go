package phase

import (
	"sync"
)

const defaultSubscriberBufferSize = 64

// Stream 한 Phase의 상태 변화를 구독자들에게 전달하는 멀티캐스트 스트림입니다.
//
//   - 새로 구독하면 가장 최근 상태를 먼저 받습니다.
//   - 구독자 버퍼가 가득 차면 가장 오래된 상태를 버리고 최신 상태를 넣습니다.
//     따라서 종료 상태는 유실되지 않습니다.
//   - 종료 상태가 발행되면 모든 구독 채널이 닫히고 이후의 Publish는 무시됩니다.
type Stream struct {
	mu sync.Mutex

	subscribers map[uint64]chan Status
	nextID      uint64
	bufferSize  int

	latest    Status
	hasLatest bool

	terminated bool
	done       chan struct{}
}

func NewStream() *Stream {
	return &Stream{
		subscribers: make(map[uint64]chan Status),
		bufferSize:  defaultSubscriberBufferSize,
		done:        make(chan struct{}),
	}
}

// Publish 상태를 모든 구독자에게 전달합니다.
// 이미 종료된 스트림이면 false를 반환하고 아무것도 하지 않습니다.
func (s *Stream) Publish(status Status) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.terminated {
		return false
	}

	s.latest = status
	s.hasLatest = true

	for _, ch := range s.subscribers {
		offer(ch, status)
	}

	if status.State.IsTerminal() {
		s.terminated = true
		for id, ch := range s.subscribers {
			close(ch)
			delete(s.subscribers, id)
		}
		close(s.done)
	}

	return true
}

// Subscribe 상태 채널과 구독 해지 함수를 반환합니다.
// 해지 함수는 여러 번 호출해도 안전합니다.
func (s *Stream) Subscribe() (<-chan Status, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan Status, s.bufferSize)
	if s.hasLatest {
		ch <- s.latest
	}

	if s.terminated {
		close(ch)
		return ch, func() {}
	}

	id := s.nextID
	s.nextID++
	s.subscribers[id] = ch

	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		if c, ok := s.subscribers[id]; ok {
			delete(s.subscribers, id)
			close(c)
		}
	}
}

// Latest 가장 최근에 발행된 상태를 반환합니다.
func (s *Stream) Latest() (Status, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.latest, s.hasLatest
}

// Done 종료 상태가 발행되면 닫히는 채널을 반환합니다.
func (s *Stream) Done() <-chan struct{} {
	return s.done
}

// offer 버퍼가 가득 찼으면 가장 오래된 값을 하나 버리고 넣습니다.
// 송신은 Stream의 잠금 안에서만 일어나므로 비운 자리는 바로 채울 수 있습니다.
func offer(ch chan Status, status Status) {
	select {
	case ch <- status:
		return
	default:
	}

	select {
	case <-ch:
	default:
	}

	select {
	case ch <- status:
	default:
	}
}
