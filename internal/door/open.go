package door

import (
	"fmt"
	"sync"
	"time"

	"github.com/darkkaiser/fleet-adapter/internal/phase"
	applog "github.com/darkkaiser/fleet-adapter/pkg/log"
)

const componentOpen = "door.open"

// PendingOpen 시작 전의 도어 열기 Phase입니다.
type PendingOpen struct {
	doorName  string
	requestID string
	deps      Deps

	beginOnce sync.Once
	active    *ActiveOpen
}

// NewOpen 도어 열기 Phase를 생성합니다.
//
// 취소 시 보상 닫기에 사용할 요청 ID를 만들어야 하므로 deps.RequestIDs가 필요합니다.
// 식별자가 비어 있거나 협력자가 빠져 있으면 InvalidInput 에러를 반환합니다.
func NewOpen(doorName, requestID string, deps Deps) (*PendingOpen, error) {
	if err := validateIdentifiers(doorName, requestID); err != nil {
		return nil, err
	}
	if err := deps.validate(true); err != nil {
		return nil, err
	}

	deps.Config = deps.Config.orDefault()
	if err := deps.Config.Open.validate(); err != nil {
		return nil, err
	}
	if err := deps.Config.Close.validate(); err != nil {
		return nil, err
	}

	return &PendingOpen{
		doorName:  doorName,
		requestID: requestID,
		deps:      deps,
	}, nil
}

// Begin 열기 프로토콜을 시작합니다. 두 번째 호출부터는 같은 ActivePhase를 반환합니다.
func (p *PendingOpen) Begin() phase.ActivePhase {
	return p.begin()
}

func (p *PendingOpen) begin() *ActiveOpen {
	p.beginOnce.Do(func() {
		p.active = &ActiveOpen{
			proto: newProtocol(componentOpen, p.doorName, p.requestID, ModeOpen, p.deps.Config.Open, p.deps),
			deps:  p.deps,
		}

		applog.WithComponentAndFields(componentOpen, p.active.proto.logFields()).Info("도어 열기 Phase 시작")

		go p.active.run()
	})

	return p.active
}

func (p *PendingOpen) EstimatePhaseDuration() time.Duration {
	return p.deps.Config.Open.EstimatedDuration
}

func (p *PendingOpen) Description() string {
	return fmt.Sprintf("Open [%s]", p.doorName)
}

// ActiveOpen 실행 중인 도어 열기 Phase입니다.
//
// 확인 전에 취소되면 같은 도어에 대한 닫기 Phase를 새 요청 ID로 시작하고,
// 그 상태 스트림을 이 Phase의 스트림으로 중계한 뒤 닫기 결과와 같은 종료 상태로 끝납니다.
type ActiveOpen struct {
	proto *protocol
	deps  Deps

	mu         sync.Mutex
	cancelling bool
	closing    *ActiveClose
}

func (a *ActiveOpen) run() {
	out := a.proto.run()

	log := applog.WithComponentAndFields(componentOpen, a.proto.logFields())

	// Cancel과 확인이 겹치면 실제 결과를 따릅니다.
	a.mu.Lock()
	a.cancelling = out.kind == outcomeCancelled
	a.mu.Unlock()

	switch out.kind {
	case outcomeConfirmed:
		log.Info("도어 열림 확인")
		a.proto.stream.Publish(phase.Completed(fmt.Sprintf("Door [%s] is open", a.proto.doorName)))

	case outcomeFailed:
		log.WithField("reason", out.reason).Error("도어 열기 Phase 실패")
		a.proto.stream.Publish(phase.Failed(out.reason))

	case outcomeCancelled:
		log.Warn("도어 열기 Phase 취소: 보상 닫기를 시작합니다")
		a.compensate()
	}
}

// compensate 닫기 Phase를 시작하고 종료될 때까지 상태를 중계합니다.
func (a *ActiveOpen) compensate() {
	doorName := a.proto.doorName

	pending, err := NewClose(doorName, a.deps.RequestIDs.NewRequestID(), a.deps)
	if err != nil {
		applog.WithComponentAndFields(componentOpen, a.proto.logFields()).WithError(err).Error("보상 닫기 Phase 생성 실패")
		a.proto.stream.Publish(phase.Failed(fmt.Sprintf("Cancelled opening [%s]; could not start closing: %v", doorName, err)))
		return
	}

	// EmergencyAlarm과 같은 잠금 안에서 전달해야 늦게 도착한 이전 값이 닫기 Phase를 덮어쓰지 않습니다.
	a.mu.Lock()
	closing := pending.begin()
	a.closing = closing
	if a.proto.alarm.Load() {
		closing.EmergencyAlarm(true)
	}
	a.mu.Unlock()

	statusC, unsubscribe := closing.Observe().Subscribe()
	defer unsubscribe()

	for status := range statusC {
		switch status.State {
		case phase.StateCompleted:
			a.proto.stream.Publish(phase.Completed(fmt.Sprintf("Cancelled opening [%s]; door closed", doorName)))
			return
		case phase.StateFailed:
			a.proto.stream.Publish(phase.Failed(fmt.Sprintf("Cancelled opening [%s]; closing failed: %s", doorName, status.Description)))
			return
		default:
			a.proto.stream.Publish(status)
		}
	}

	a.proto.stream.Publish(phase.Failed(fmt.Sprintf("Cancelled opening [%s]; closing ended without a result", doorName)))
}

func (a *ActiveOpen) Observe() *phase.Stream {
	return a.proto.stream
}

func (a *ActiveOpen) EstimateRemainingTime() time.Duration {
	a.mu.Lock()
	closing := a.closing
	a.mu.Unlock()

	if closing != nil {
		return closing.EstimateRemainingTime()
	}
	return a.proto.remaining()
}

// EmergencyAlarm 비상 신호를 기록하고 보상 닫기가 진행 중이면 그쪽으로 전달합니다.
// 열기 프로토콜을 멈추지는 않습니다. 실제 안전 정지는 슈퍼바이저의 책임입니다.
func (a *ActiveOpen) EmergencyAlarm(on bool) {
	a.mu.Lock()
	changed := a.proto.alarm.Swap(on) != on
	if a.closing != nil {
		a.closing.EmergencyAlarm(on)
	}
	a.mu.Unlock()

	if changed {
		applog.WithComponentAndFields(componentOpen, a.proto.logFields()).WithField("alarm", on).Warn("비상 신호 수신")
	}
}

// Cancel 확인 전이면 보상 닫기로 전환하고, 이미 종료되었으면 아무 일도 하지 않습니다.
func (a *ActiveOpen) Cancel() {
	a.mu.Lock()
	select {
	case <-a.proto.stream.Done():
	default:
		a.cancelling = true
	}
	a.mu.Unlock()

	a.proto.cancel()
}

func (a *ActiveOpen) Description() string {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.cancelling {
		return fmt.Sprintf("Cancelling: closing [%s]", a.proto.doorName)
	}
	return fmt.Sprintf("Opening [%s]", a.proto.doorName)
}

// RequestID 이 Phase가 발행하는 열기 명령의 요청 ID입니다.
func (a *ActiveOpen) RequestID() string {
	return a.proto.requestID
}

// ClosingRequestID 보상 닫기가 시작되었으면 그 요청 ID를 반환합니다.
func (a *ActiveOpen) ClosingRequestID() (string, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closing == nil {
		return "", false
	}
	return a.closing.RequestID(), true
}
