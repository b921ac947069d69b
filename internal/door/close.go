package door

import (
	"fmt"
	"sync"
	"time"

	"github.com/darkkaiser/fleet-adapter/internal/phase"
	applog "github.com/darkkaiser/fleet-adapter/pkg/log"
)

const componentClose = "door.close"

// PendingClose 시작 전의 도어 닫기 Phase입니다.
type PendingClose struct {
	doorName  string
	requestID string
	deps      Deps
	timing    Timing

	beginOnce sync.Once
	active    *ActiveClose
}

// NewClose 도어 닫기 Phase를 생성합니다.
// 식별자가 비어 있거나 협력자가 빠져 있으면 InvalidInput 에러를 반환합니다.
func NewClose(doorName, requestID string, deps Deps) (*PendingClose, error) {
	if err := validateIdentifiers(doorName, requestID); err != nil {
		return nil, err
	}
	if err := deps.validate(false); err != nil {
		return nil, err
	}

	deps.Config = deps.Config.orDefault()
	if err := deps.Config.Close.validate(); err != nil {
		return nil, err
	}

	return &PendingClose{
		doorName:  doorName,
		requestID: requestID,
		deps:      deps,
		timing:    deps.Config.Close,
	}, nil
}

func (p *PendingClose) Begin() phase.ActivePhase {
	return p.begin()
}

func (p *PendingClose) begin() *ActiveClose {
	p.beginOnce.Do(func() {
		p.active = &ActiveClose{
			proto: newProtocol(componentClose, p.doorName, p.requestID, ModeClosed, p.timing, p.deps),
		}

		applog.WithComponentAndFields(componentClose, p.active.proto.logFields()).Info("도어 닫기 Phase 시작")

		go p.active.run()
	})

	return p.active
}

func (p *PendingClose) EstimatePhaseDuration() time.Duration {
	return p.timing.EstimatedDuration
}

func (p *PendingClose) Description() string {
	return fmt.Sprintf("Close [%s]", p.doorName)
}

// ActiveClose 실행 중인 도어 닫기 Phase입니다.
// 취소하면 더 이상의 보상 동작 없이 Failed로 종료합니다.
type ActiveClose struct {
	proto *protocol
}

func (a *ActiveClose) run() {
	out := a.proto.run()

	log := applog.WithComponentAndFields(componentClose, a.proto.logFields())

	switch out.kind {
	case outcomeConfirmed:
		log.Info("도어 닫힘 확인")
		a.proto.stream.Publish(phase.Completed(fmt.Sprintf("Door [%s] is closed", a.proto.doorName)))

	case outcomeCancelled:
		log.Warn("도어 닫기 Phase 취소")
		a.proto.stream.Publish(phase.Failed(fmt.Sprintf("Cancelled closing [%s]", a.proto.doorName)))

	case outcomeFailed:
		log.WithField("reason", out.reason).Error("도어 닫기 Phase 실패")
		a.proto.stream.Publish(phase.Failed(out.reason))
	}
}

func (a *ActiveClose) Observe() *phase.Stream {
	return a.proto.stream
}

func (a *ActiveClose) EstimateRemainingTime() time.Duration {
	return a.proto.remaining()
}

// EmergencyAlarm 비상 신호를 기록합니다. 닫기 프로토콜 자체는 계속 진행됩니다.
func (a *ActiveClose) EmergencyAlarm(on bool) {
	if a.proto.alarm.Swap(on) == on {
		return
	}

	applog.WithComponentAndFields(componentClose, a.proto.logFields()).WithField("alarm", on).Warn("비상 신호 수신")
}

func (a *ActiveClose) Cancel() {
	a.proto.cancel()
}

func (a *ActiveClose) Description() string {
	return fmt.Sprintf("Closing [%s]", a.proto.doorName)
}

// RequestID 이 Phase가 발행하는 명령의 요청 ID입니다.
func (a *ActiveClose) RequestID() string {
	return a.proto.requestID
}

// EmergencyAlarmOn 마지막으로 전달받은 비상 신호 상태입니다.
func (a *ActiveClose) EmergencyAlarmOn() bool {
	return a.proto.alarm.Load()
}
