package door

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	apperrors "github.com/darkkaiser/fleet-adapter/internal/pkg/errors"
	"github.com/darkkaiser/fleet-adapter/internal/phase"
	applog "github.com/darkkaiser/fleet-adapter/pkg/log"
)

type outcomeKind int

const (
	outcomeConfirmed outcomeKind = iota
	outcomeCancelled
	outcomeFailed
)

type outcome struct {
	kind   outcomeKind
	reason string
}

// protocol 열기와 닫기가 공유하는 명령 재전송 및 확인 대기 루프입니다.
//
// 하나의 고루틴(run)이 도어 상태, 하트비트, 재전송 타이머, 취소 신호를 모두 처리하므로
// 내부 상태(마지막 모드, 마지막 하트비트, 재전송 횟수)에는 잠금이 필요 없습니다.
type protocol struct {
	component string
	doorName  string
	requestID string
	target    Mode
	timing    Timing
	publisher Publisher

	stream *phase.Stream

	states       <-chan State
	unsubStates  func()
	heartbeats   <-chan Heartbeat
	unsubHBs     func()
	resendTicker *time.Ticker

	startedAt time.Time

	cancelC    chan struct{}
	cancelOnce sync.Once

	alarm atomic.Bool
}

func validateIdentifiers(doorName, requestID string) error {
	if strings.TrimSpace(doorName) == "" {
		return apperrors.New(apperrors.InvalidInput, "도어 이름이 비어 있습니다")
	}
	if strings.TrimSpace(requestID) == "" {
		return apperrors.New(apperrors.InvalidInput, "요청 ID가 비어 있습니다")
	}
	return nil
}

// newProtocol 피드 구독과 재전송 타이머를 동기적으로 준비합니다.
// 명령 발행은 run에서 시작됩니다.
func newProtocol(component, doorName, requestID string, target Mode, timing Timing, deps Deps) *protocol {
	p := &protocol{
		component: component,
		doorName:  doorName,
		requestID: requestID,
		target:    target,
		timing:    timing,
		publisher: deps.Publisher,
		stream:    phase.NewStream(),
		startedAt: time.Now(),
		cancelC:   make(chan struct{}),
	}

	p.states, p.unsubStates = deps.DoorStates.Subscribe()
	p.heartbeats, p.unsubHBs = deps.Heartbeats.Subscribe()
	p.resendTicker = time.NewTicker(timing.ResendInterval)

	return p
}

func (p *protocol) logFields() applog.Fields {
	return applog.Fields{
		"door_name":  p.doorName,
		"request_id": p.requestID,
		"target":     p.target.String(),
	}
}

// teardown 재전송 타이머를 먼저 멈추고 피드 구독을 해지합니다.
// 종료 상태는 반드시 teardown 이후에 발행합니다.
func (p *protocol) teardown() {
	p.resendTicker.Stop()
	p.unsubStates()
	p.unsubHBs()
}

func (p *protocol) cancel() {
	p.cancelOnce.Do(func() {
		close(p.cancelC)
	})
}

func (p *protocol) publish() {
	req := Request{
		DoorName:    p.doorName,
		RequestID:   p.requestID,
		Mode:        p.target,
		RequestedAt: time.Now(),
	}

	ctx, cancel := context.WithTimeout(context.Background(), p.timing.ResendInterval)
	defer cancel()

	if err := p.publisher.Publish(ctx, req); err != nil {
		if errors.Is(err, ErrTransportClosed) {
			applog.WithComponentAndFields(p.component, p.logFields()).Debug("전송 계층이 종료되어 도어 명령 발행을 건너뜁니다")
			return
		}

		applog.WithComponentAndFields(p.component, applog.Fields{
			"door_name":  p.doorName,
			"request_id": p.requestID,
			"error":      err,
		}).Warn("도어 명령 발행 실패: 다음 재전송 주기에 다시 시도합니다")
	}
}

func (p *protocol) waitingDescription(mode Mode, acknowledged bool) string {
	verb := "open"
	if p.target == ModeClosed {
		verb = "close"
	}

	desc := fmt.Sprintf("Waiting for door [%s] to %s; current mode: %s", p.doorName, verb, mode)
	if !acknowledged {
		desc += fmt.Sprintf("; supervisor has not acknowledged request [%s]", p.requestID)
	}
	return desc
}

func (p *protocol) remaining() time.Duration {
	remaining := p.timing.EstimatedDuration - time.Since(p.startedAt)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// run 확인, 취소, 실패 중 하나가 결정될 때까지 이벤트를 처리하고 teardown 한 뒤 결과를 반환합니다.
func (p *protocol) run() outcome {
	defer p.teardown()

	var stallTimer *time.Timer
	var stallC <-chan time.Time
	if p.timing.StallTimeout > 0 {
		stallTimer = time.NewTimer(p.timing.StallTimeout)
		defer stallTimer.Stop()
		stallC = stallTimer.C
	}

	var deadlineC <-chan time.Time
	if p.timing.Deadline > 0 {
		deadlineTimer := time.NewTimer(p.timing.Deadline)
		defer deadlineTimer.Stop()
		deadlineC = deadlineTimer.C
	}

	mode := ModeUnknown
	var heartbeat Heartbeat
	resends := 0

	p.publish()

	lastDesc := p.waitingDescription(mode, false)
	p.stream.Publish(phase.Underway(lastDesc))

	for {
		select {
		case <-p.cancelC:
			return outcome{kind: outcomeCancelled}

		case st, ok := <-p.states:
			if !ok {
				p.states = nil
				continue
			}
			if st.DoorName != p.doorName {
				continue
			}
			mode = st.Mode

		case hb, ok := <-p.heartbeats:
			if !ok {
				p.heartbeats = nil
				continue
			}
			heartbeat = hb

		case <-p.resendTicker.C:
			if p.timing.MaxResends > 0 && resends >= p.timing.MaxResends {
				continue
			}
			resends++
			p.publish()

			applog.WithComponentAndFields(p.component, applog.Fields{
				"door_name":  p.doorName,
				"request_id": p.requestID,
				"resends":    resends,
			}).Debug("확인되지 않은 도어 명령 재전송")

			if p.timing.MaxResends > 0 && resends == p.timing.MaxResends {
				applog.WithComponentAndFields(p.component, p.logFields()).Warn("재전송 횟수 상한에 도달했습니다: 확인은 계속 기다립니다")
			}
			continue

		case <-stallC:
			return outcome{
				kind:   outcomeFailed,
				reason: fmt.Sprintf("No door state or heartbeat update for [%s] within %s", p.doorName, p.timing.StallTimeout),
			}

		case <-deadlineC:
			return outcome{
				kind:   outcomeFailed,
				reason: fmt.Sprintf("Door [%s] did not reach %s within %s; last mode: %s", p.doorName, p.target, p.timing.Deadline, mode),
			}
		}

		if stallTimer != nil {
			stallTimer.Reset(p.timing.StallTimeout)
		}

		acknowledged := heartbeat.Contains(p.requestID)
		if acknowledged && mode == p.target {
			return outcome{kind: outcomeConfirmed}
		}

		if desc := p.waitingDescription(mode, acknowledged); desc != lastDesc {
			lastDesc = desc
			p.stream.Publish(phase.Underway(desc))
		}
	}
}
