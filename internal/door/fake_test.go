package door

import (
	"context"
	"sync"
	"sync/atomic"
)

// fakeFeed 최신 값을 새 구독자에게 다시 보내는 테스트용 피드입니다.
type fakeFeed[T any] struct {
	mu     sync.Mutex
	subs   map[int]chan T
	nextID int
	latest *T
}

func newFakeFeed[T any]() *fakeFeed[T] {
	return &fakeFeed[T]{subs: make(map[int]chan T)}
}

func (f *fakeFeed[T]) Subscribe() (<-chan T, func()) {
	f.mu.Lock()
	defer f.mu.Unlock()

	ch := make(chan T, 64)
	if f.latest != nil {
		ch <- *f.latest
	}

	id := f.nextID
	f.nextID++
	f.subs[id] = ch

	return ch, func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		if c, ok := f.subs[id]; ok {
			delete(f.subs, id)
			close(c)
		}
	}
}

func (f *fakeFeed[T]) Emit(v T) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.latest = &v
	for _, ch := range f.subs {
		ch <- v
	}
}

func (f *fakeFeed[T]) Subscribers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}

type fakePublisher struct {
	mu       sync.Mutex
	requests []Request
	err      error
}

func (p *fakePublisher) Publish(_ context.Context, req Request) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.requests = append(p.requests, req)
	return p.err
}

func (p *fakePublisher) Requests() []Request {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Request(nil), p.requests...)
}

func (p *fakePublisher) Count(mode Mode) int {
	n := 0
	for _, r := range p.Requests() {
		if r.Mode == mode {
			n++
		}
	}
	return n
}

type sequenceIDs struct {
	ids  []string
	next atomic.Int32
}

func (s *sequenceIDs) NewRequestID() string {
	return s.ids[int(s.next.Add(1)-1)%len(s.ids)]
}

type fixture struct {
	publisher  *fakePublisher
	doorStates *fakeFeed[State]
	heartbeats *fakeFeed[Heartbeat]
	deps       Deps
}

func newFixture(cfg Config) *fixture {
	f := &fixture{
		publisher:  &fakePublisher{},
		doorStates: newFakeFeed[State](),
		heartbeats: newFakeFeed[Heartbeat](),
	}
	f.deps = Deps{
		Publisher:  f.publisher,
		DoorStates: f.doorStates,
		Heartbeats: f.heartbeats,
		RequestIDs: &sequenceIDs{ids: []string{"req-2"}},
		Config:     cfg,
	}
	return f
}

func (f *fixture) door(mode Mode) {
	f.doorStates.Emit(State{DoorName: "main_door", Mode: mode})
}

func (f *fixture) heartbeat(ids ...string) {
	f.heartbeats.Emit(Heartbeat{ActiveRequestIDs: ids})
}
