package phase

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func drain(ch <-chan Status) []Status {
	var got []Status
	for s := range ch {
		got = append(got, s)
	}
	return got
}

func TestStream_PublishAndTerminate(t *testing.T) {
	s := NewStream()
	ch, unsubscribe := s.Subscribe()
	defer unsubscribe()

	assert.True(t, s.Publish(Underway("대기 중")))
	assert.True(t, s.Publish(Completed("완료")))
	assert.False(t, s.Publish(Underway("종료 이후")), "종료 이후에는 발행되지 않아야 합니다")

	got := drain(ch)
	require.Len(t, got, 2)
	assert.Equal(t, StateUnderway, got[0].State)
	assert.Equal(t, StateCompleted, got[1].State)

	select {
	case <-s.Done():
	default:
		t.Fatal("Done 채널이 닫혀야 합니다")
	}
}

func TestStream_LateSubscriberReplay(t *testing.T) {
	t.Run("Success_ReplayLatest", func(t *testing.T) {
		s := NewStream()
		s.Publish(Underway("first"))
		s.Publish(Underway("second"))

		ch, unsubscribe := s.Subscribe()
		defer unsubscribe()

		assert.Equal(t, Underway("second"), <-ch)
	})

	t.Run("Success_AfterTermination", func(t *testing.T) {
		s := NewStream()
		s.Publish(Failed("닫기 실패"))

		ch, unsubscribe := s.Subscribe()
		defer unsubscribe()

		assert.Equal(t, []Status{Failed("닫기 실패")}, drain(ch))
	})
}

func TestStream_DropOldestKeepsTerminal(t *testing.T) {
	s := NewStream()
	ch, unsubscribe := s.Subscribe()
	defer unsubscribe()

	for i := 0; i < defaultSubscriberBufferSize*3; i++ {
		s.Publish(Underway("waiting"))
	}
	s.Publish(Completed("done"))

	got := drain(ch)
	require.Len(t, got, defaultSubscriberBufferSize)
	assert.Equal(t, Completed("done"), got[len(got)-1])
}

func TestStream_Unsubscribe(t *testing.T) {
	s := NewStream()
	ch, unsubscribe := s.Subscribe()

	unsubscribe()
	unsubscribe()

	_, ok := <-ch
	assert.False(t, ok)
	assert.True(t, s.Publish(Underway("구독자 없음")))
}

func TestStream_ConcurrentPublish(t *testing.T) {
	s := NewStream()
	ch, unsubscribe := s.Subscribe()
	defer unsubscribe()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				s.Publish(Underway("concurrent"))
			}
		}()
	}

	terminals := 0
	var mu sync.Mutex
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if s.Publish(Completed("done")) {
				mu.Lock()
				terminals++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, terminals, "종료 상태는 정확히 한 번만 발행되어야 합니다")

	completed := 0
	for st := range ch {
		if st.State.IsTerminal() {
			completed++
		}
	}
	assert.Equal(t, 1, completed)
}

func TestState_JSON(t *testing.T) {
	data, err := StateFailed.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `"failed"`, string(data))

	var st State
	require.NoError(t, st.UnmarshalJSON([]byte(`"COMPLETED"`)))
	assert.Equal(t, StateCompleted, st)
	assert.Error(t, st.UnmarshalJSON([]byte(`"paused"`)))
}
