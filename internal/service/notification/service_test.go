package notification

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type mockSender struct {
	mock.Mock
}

func (m *mockSender) Send(ctx context.Context, message string) error {
	args := m.Called(ctx, message)
	return args.Error(0)
}

func TestService_NotifyDelivers(t *testing.T) {
	sender := &mockSender{}
	delivered := make(chan string, 1)
	sender.On("Send", mock.Anything, "도어 [main_door] 닫기 실패").
		Run(func(args mock.Arguments) { delivered <- args.String(1) }).
		Return(nil).Once()

	s := NewService(sender)

	ctx, cancel := context.WithCancel(context.Background())
	wg := &sync.WaitGroup{}
	wg.Add(1)
	require.NoError(t, s.Start(ctx, wg))

	require.NoError(t, s.Notify(ctx, "도어 [main_door] 닫기 실패"))

	select {
	case msg := <-delivered:
		assert.Equal(t, "도어 [main_door] 닫기 실패", msg)
	case <-time.After(time.Second):
		t.Fatal("알림이 전송되지 않았습니다")
	}

	cancel()
	wg.Wait()
	sender.AssertExpectations(t)
}

func TestService_NotRunning(t *testing.T) {
	s := NewService(&mockSender{})
	assert.ErrorIs(t, s.Notify(context.Background(), "message"), ErrNotRunning)
}

func TestService_QueueFull(t *testing.T) {
	sender := &mockSender{}
	release := make(chan struct{})
	sender.On("Send", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { <-release }).
		Return(nil)

	s := NewService(sender)
	ctx, cancel := context.WithCancel(context.Background())
	wg := &sync.WaitGroup{}
	wg.Add(1)
	require.NoError(t, s.Start(ctx, wg))

	var errFull error
	for i := 0; i < defaultQueueSize+2; i++ {
		if err := s.Notify(ctx, "burst"); err != nil {
			errFull = err
			break
		}
	}
	assert.ErrorIs(t, errFull, ErrQueueFull)

	close(release)
	cancel()
	wg.Wait()
}

func TestService_DrainOnStop(t *testing.T) {
	sender := &mockSender{}
	sender.On("Send", mock.Anything, mock.Anything).Return(errors.New("network down"))

	s := NewService(sender)

	// 워커가 시작되기 전에 큐를 채워 두고 종료 시 비워지는지 확인합니다.
	s.running = true
	s.queue <- "first"
	s.queue <- "second"
	s.running = false

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	wg := &sync.WaitGroup{}
	wg.Add(1)
	require.NoError(t, s.Start(ctx, wg))
	wg.Wait()

	assert.Len(t, s.queue, 0)
	sender.AssertNumberOfCalls(t, "Send", 2)
}

func TestService_StartTwice(t *testing.T) {
	s := NewService(&mockSender{})

	ctx, cancel := context.WithCancel(context.Background())
	wg := &sync.WaitGroup{}
	wg.Add(2)
	require.NoError(t, s.Start(ctx, wg))
	require.NoError(t, s.Start(ctx, wg))

	cancel()
	wg.Wait()
}

func TestService_SenderPanicRecovered(t *testing.T) {
	sender := &mockSender{}
	done := make(chan struct{})
	sender.On("Send", mock.Anything, "panic").Run(func(mock.Arguments) { panic("boom") }).Once()
	sender.On("Send", mock.Anything, "after").Run(func(mock.Arguments) { close(done) }).Return(nil).Once()

	s := NewService(sender)
	ctx, cancel := context.WithCancel(context.Background())
	wg := &sync.WaitGroup{}
	wg.Add(1)
	require.NoError(t, s.Start(ctx, wg))

	require.NoError(t, s.Notify(ctx, "panic"))
	require.NoError(t, s.Notify(ctx, "after"))

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("패닉 이후 워커가 계속 동작해야 합니다")
	}

	cancel()
	wg.Wait()
}

func TestLogSender(t *testing.T) {
	assert.NoError(t, NewLogSender().Send(context.Background(), "로그 알림"))
}
