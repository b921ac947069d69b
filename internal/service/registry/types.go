package registry

import (
	"context"
	"time"

	"github.com/darkkaiser/fleet-adapter/internal/phase"
)

// Kind Phase 종류입니다.
type Kind string

const (
	KindOpen  Kind = "open"
	KindClose Kind = "close"
)

// Notifier 운영자 알림을 보냅니다. (notification.Service가 구현)
type Notifier interface {
	Notify(ctx context.Context, message string) error
}

// Snapshot 특정 시점의 Phase 상태입니다. API 응답으로 그대로 사용됩니다.
type Snapshot struct {
	RequestID   string `json:"request_id"`
	DoorName    string `json:"door_name"`
	Kind        Kind   `json:"kind"`
	Description string `json:"description"`

	Status phase.Status `json:"status"`

	// ClosingRequestID 열기 Phase가 취소되어 보상 닫기가 시작된 경우 닫기 명령의 요청 ID입니다.
	ClosingRequestID string `json:"closing_request_id,omitempty"`

	EstimatedRemainingMillis int64 `json:"estimated_remaining_ms"`
	EmergencyAlarm           bool  `json:"emergency_alarm"`

	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// Finished 종료 상태(Completed/Failed)에 도달했는지 여부입니다.
func (s Snapshot) Finished() bool {
	return s.Status.State.IsTerminal()
}

// closingRequestIDer 보상 닫기 요청 ID를 제공하는 ActivePhase입니다. (door.ActiveOpen)
type closingRequestIDer interface {
	ClosingRequestID() (string, bool)
}

type entry struct {
	requestID string
	doorName  string
	kind      Kind

	active phase.ActivePhase

	startedAt  time.Time
	finishedAt time.Time
}

func (e *entry) finished() bool {
	return !e.finishedAt.IsZero()
}

func (e *entry) snapshot(alarm bool) Snapshot {
	s := Snapshot{
		RequestID:                e.requestID,
		DoorName:                 e.doorName,
		Kind:                     e.kind,
		Description:              e.active.Description(),
		EstimatedRemainingMillis: e.active.EstimateRemainingTime().Milliseconds(),
		EmergencyAlarm:           alarm,
		StartedAt:                e.startedAt,
	}

	if status, ok := e.active.Observe().Latest(); ok {
		s.Status = status
	} else {
		s.Status = phase.Underway(s.Description)
	}

	if c, ok := e.active.(closingRequestIDer); ok {
		if id, ok := c.ClosingRequestID(); ok {
			s.ClosingRequestID = id
		}
	}

	if e.finished() {
		finishedAt := e.finishedAt
		s.FinishedAt = &finishedAt
		s.EstimatedRemainingMillis = 0
	}

	return s
}

type doneEvent struct {
	requestID string
	status    phase.Status
}
