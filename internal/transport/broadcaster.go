// Package transport 프로세스 내부 피드 분배와 도어 명령 발행 구현을 제공합니다.
//
// Broadcaster는 도어 상태/하트비트 피드와 명령 버스로 쓰이며,
// Publisher 구현체는 명령을 루프백 버스 또는 HTTP 웹훅으로 내보냅니다.
package transport

import (
	"sync"
)

const defaultSubscriberBufferSize = 64

// Broadcaster 한 생산자의 값을 여러 구독자에게 나누어 보내는 허브입니다.
//
// 새 구독자는 가장 최근 값을 먼저 받습니다. 구독자 버퍼가 가득 차면 가장 오래된 값을 버리므로
// 느린 구독자가 생산자를 막지 않습니다. door.Feed[T]를 구현합니다.
//
// 키 함수와 함께 만든 Broadcaster는 키(예: 도어 이름)마다 최신 값을 유지합니다.
// 버퍼가 가득 차면 같은 키의 이전 값만 합쳐서 버리므로, 다른 키의 갱신이 몰려도
// 어떤 키의 마지막 값은 사라지지 않습니다. 새 구독자는 키마다 최신 값을 받습니다.
type Broadcaster[T any] struct {
	mu sync.Mutex

	subscribers map[uint64]chan T
	nextID      uint64
	bufferSize  int

	latest    T
	hasLatest bool

	keyOf       func(T) string
	latestByKey map[string]T
	keyOrder    []string

	closed bool
}

func NewBroadcaster[T any]() *Broadcaster[T] {
	return NewBroadcasterWithBuffer[T](defaultSubscriberBufferSize)
}

func NewBroadcasterWithBuffer[T any](size int) *Broadcaster[T] {
	if size <= 0 {
		size = defaultSubscriberBufferSize
	}
	return &Broadcaster[T]{
		subscribers: make(map[uint64]chan T),
		bufferSize:  size,
	}
}

// NewKeyedBroadcaster keyOf로 값을 구분하는 Broadcaster를 생성합니다.
func NewKeyedBroadcaster[T any](keyOf func(T) string) *Broadcaster[T] {
	b := NewBroadcaster[T]()
	b.keyOf = keyOf
	b.latestByKey = make(map[string]T)
	return b
}

// Broadcast 값을 모든 구독자에게 전달합니다. 블로킹하지 않습니다.
// 이미 닫힌 Broadcaster이면 false를 반환합니다.
func (b *Broadcaster[T]) Broadcast(v T) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return false
	}

	b.latest = v
	b.hasLatest = true
	if b.keyOf != nil {
		b.rememberKey(v)
	}

	for _, ch := range b.subscribers {
		select {
		case ch <- v:
			continue
		default:
		}

		if b.keyOf != nil {
			b.coalesce(ch, v)
			continue
		}

		// 가장 오래된 값을 버리고 최신 값을 넣습니다.
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- v:
		default:
		}
	}

	return true
}

func (b *Broadcaster[T]) rememberKey(v T) {
	key := b.keyOf(v)
	if _, ok := b.latestByKey[key]; ok {
		for i, k := range b.keyOrder {
			if k == key {
				b.keyOrder = append(b.keyOrder[:i], b.keyOrder[i+1:]...)
				break
			}
		}
	}
	b.latestByKey[key] = v
	b.keyOrder = append(b.keyOrder, key)
}

// coalesce 가득 찬 구독 채널을 비우고 키마다 마지막 값만 순서대로 다시 넣습니다(v 포함).
// 서로 다른 키가 버퍼보다 많으면 가장 오래된 키부터 버립니다.
// b.mu를 잡은 상태에서 호출해야 합니다.
func (b *Broadcaster[T]) coalesce(ch chan T, v T) {
	queued := make([]T, 0, cap(ch)+1)
drain:
	for {
		select {
		case q := <-ch:
			queued = append(queued, q)
		default:
			break drain
		}
	}
	queued = append(queued, v)

	last := make(map[string]int, len(queued))
	for i, q := range queued {
		last[b.keyOf(q)] = i
	}

	merged := make([]T, 0, len(last))
	for i, q := range queued {
		if last[b.keyOf(q)] == i {
			merged = append(merged, q)
		}
	}

	if len(merged) > cap(ch) {
		merged = merged[len(merged)-cap(ch):]
	}
	for _, q := range merged {
		select {
		case ch <- q:
		default:
		}
	}
}

// Subscribe 값 채널과 구독 해지 함수를 반환합니다.
// 닫힌 Broadcaster에 구독하면 즉시 닫힌 채널을 받습니다.
func (b *Broadcaster[T]) Subscribe() (<-chan T, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan T, b.bufferSize)
	if b.closed {
		close(ch)
		return ch, func() {}
	}

	switch {
	case b.keyOf != nil:
		// 버퍼에 들어가는 만큼 가장 최근에 갱신된 키들을 보냅니다.
		start := 0
		if len(b.keyOrder) > b.bufferSize {
			start = len(b.keyOrder) - b.bufferSize
		}
		for _, key := range b.keyOrder[start:] {
			ch <- b.latestByKey[key]
		}
	case b.hasLatest:
		ch <- b.latest
	}

	id := b.nextID
	b.nextID++
	b.subscribers[id] = ch

	return ch, func() {
		b.mu.Lock()
		defer b.mu.Unlock()

		if c, ok := b.subscribers[id]; ok {
			delete(b.subscribers, id)
			close(c)
		}
	}
}

func (b *Broadcaster[T]) Latest() (T, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.latest, b.hasLatest
}

// HasLatest 한 번이라도 값이 전달되었는지 여부입니다.
func (b *Broadcaster[T]) HasLatest() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.hasLatest
}

func (b *Broadcaster[T]) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return len(b.subscribers)
}

// Close 모든 구독 채널을 닫습니다. 여러 번 호출해도 안전합니다.
func (b *Broadcaster[T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true

	for id, ch := range b.subscribers {
		close(ch)
		delete(b.subscribers, id)
	}
}
