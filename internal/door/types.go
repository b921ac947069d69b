package door

import (
	"context"
	"slices"
	"time"

	apperrors "github.com/darkkaiser/fleet-adapter/internal/pkg/errors"
)

// ErrTransportClosed 전송 계층이 이미 종료된 뒤 발행을 시도하면 반환됩니다.
// 프로토콜은 이 에러를 실패로 취급하지 않고 기록만 합니다.
var ErrTransportClosed = apperrors.New(apperrors.Unavailable, "도어 명령 전송 계층이 종료되었습니다")

// State 도어 상태 피드의 스냅샷입니다.
type State struct {
	DoorName string    `json:"door_name"`
	Mode     Mode      `json:"current_mode"`
	Time     time.Time `json:"time"`
}

// Heartbeat 슈퍼바이저가 현재 활성 상태로 간주하는 요청 ID 목록입니다.
type Heartbeat struct {
	ActiveRequestIDs []string  `json:"active_request_ids"`
	Time             time.Time `json:"time"`
}

func (h Heartbeat) Contains(requestID string) bool {
	return slices.Contains(h.ActiveRequestIDs, requestID)
}

// Request 도어 컨트롤러로 보내는 열기/닫기 명령입니다.
// 재전송 시에도 RequestID는 바뀌지 않습니다.
type Request struct {
	DoorName    string    `json:"door_name"`
	RequestID   string    `json:"request_id"`
	Mode        Mode      `json:"requested_mode"`
	RequestedAt time.Time `json:"requested_at"`
}

// Publisher 도어 명령을 단방향으로 발행합니다. 전달 확인은 하지 않습니다.
type Publisher interface {
	Publish(ctx context.Context, req Request) error
}

// Feed 계속 갱신되는 외부 피드입니다.
// 반환된 해지 함수를 호출하면 채널이 닫힙니다.
type Feed[T any] interface {
	Subscribe() (<-chan T, func())
}

// RequestIDGenerator 보상 동작(닫기)에 사용할 새 요청 ID를 만듭니다.
type RequestIDGenerator interface {
	NewRequestID() string
}

// Deps 프로토콜이 사용하는 외부 협력자들입니다.
// 모두 외부에서 수명을 관리하며 프로토콜은 관찰하거나 발행만 합니다.
type Deps struct {
	Publisher  Publisher
	DoorStates Feed[State]
	Heartbeats Feed[Heartbeat]
	RequestIDs RequestIDGenerator

	// Config 값이 비어 있으면 DefaultConfig()가 사용됩니다.
	Config Config
}

func (d Deps) validate(needRequestIDs bool) error {
	if d.Publisher == nil {
		return apperrors.New(apperrors.InvalidInput, "도어 명령 Publisher가 지정되지 않았습니다")
	}
	if d.DoorStates == nil {
		return apperrors.New(apperrors.InvalidInput, "도어 상태 피드가 지정되지 않았습니다")
	}
	if d.Heartbeats == nil {
		return apperrors.New(apperrors.InvalidInput, "슈퍼바이저 하트비트 피드가 지정되지 않았습니다")
	}
	if needRequestIDs && d.RequestIDs == nil {
		return apperrors.New(apperrors.InvalidInput, "요청 ID 생성기가 지정되지 않았습니다")
	}

	return nil
}
