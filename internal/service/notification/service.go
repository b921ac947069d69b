// Package notification 운영자 알림(Phase 실패 등)을 비동기로 전송합니다.
//
// 호출자는 Notify로 메시지를 큐에 넣기만 하며, 전송은 전용 워커 고루틴이 담당합니다.
// 큐가 가득 차면 메시지를 버리고 ErrQueueFull을 반환하므로 호출자가 막히지 않습니다.
package notification

import (
	"context"
	"sync"
	"time"

	apperrors "github.com/darkkaiser/fleet-adapter/internal/pkg/errors"
	applog "github.com/darkkaiser/fleet-adapter/pkg/log"
)

const component = "notification.service"

const (
	defaultQueueSize = 32

	// sendTimeout 메시지 한 건의 전송(재시도 포함)에 허용되는 최대 시간입니다.
	sendTimeout = 30 * time.Second

	// drainTimeout 서비스 종료 시 큐에 남은 메시지를 보내는 데 허용되는 시간입니다.
	drainTimeout = 10 * time.Second
)

var (
	ErrQueueFull  = apperrors.New(apperrors.Unavailable, "알림 큐가 가득 찼습니다")
	ErrNotRunning = apperrors.New(apperrors.Unavailable, "알림 서비스가 실행 중이 아닙니다")
)

type Service struct {
	sender Sender
	queue  chan string

	running   bool
	runningMu sync.Mutex
}

func NewService(sender Sender) *Service {
	if sender == nil {
		panic("알림 Sender는 필수입니다")
	}

	return &Service{
		sender: sender,
		queue:  make(chan string, defaultQueueSize),
	}
}

// Start 전송 워커를 시작합니다. 워커는 serviceStopCtx가 취소되면 큐를 비운 뒤 종료합니다.
func (s *Service) Start(serviceStopCtx context.Context, serviceStopWG *sync.WaitGroup) error {
	s.runningMu.Lock()
	defer s.runningMu.Unlock()

	if s.running {
		defer serviceStopWG.Done()
		applog.WithComponent(component).Warn("알림 서비스가 이미 실행 중입니다 (중복 호출)")
		return nil
	}
	s.running = true

	go s.run(serviceStopCtx, serviceStopWG)

	applog.WithComponent(component).Info("알림 서비스 시작")

	return nil
}

// Notify 메시지를 전송 큐에 넣습니다. 블로킹하지 않습니다.
func (s *Service) Notify(_ context.Context, message string) error {
	s.runningMu.Lock()
	defer s.runningMu.Unlock()

	if !s.running {
		return ErrNotRunning
	}

	select {
	case s.queue <- message:
		return nil
	default:
		applog.WithComponentAndFields(component, applog.Fields{
			"queue_size": cap(s.queue),
		}).Warn("알림 큐가 가득 차 메시지를 버립니다")
		return ErrQueueFull
	}
}

func (s *Service) run(serviceStopCtx context.Context, serviceStopWG *sync.WaitGroup) {
	defer serviceStopWG.Done()

	for {
		select {
		case message := <-s.queue:
			s.deliver(serviceStopCtx, message)

		case <-serviceStopCtx.Done():
			s.runningMu.Lock()
			s.running = false
			s.runningMu.Unlock()

			s.drain()

			applog.WithComponent(component).Info("알림 서비스 종료")
			return
		}
	}
}

// drain 종료 시점에 큐에 남아 있는 메시지를 제한 시간 안에서 최대한 전송합니다.
func (s *Service) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()

	for {
		select {
		case message := <-s.queue:
			s.deliver(ctx, message)
		default:
			return
		}
	}
}

func (s *Service) deliver(parent context.Context, message string) {
	defer func() {
		if r := recover(); r != nil {
			applog.WithComponentAndFields(component, applog.Fields{
				"panic": r,
			}).Error("알림 전송 중 패닉 복구")
		}
	}()

	ctx, cancel := context.WithTimeout(parent, sendTimeout)
	defer cancel()

	if err := s.sender.Send(ctx, message); err != nil {
		applog.WithComponentAndFields(component, applog.Fields{
			"error": err,
		}).Error("알림 전송 실패")
	}
}
