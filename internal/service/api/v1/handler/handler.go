// Package handler v1 API의 HTTP 요청 핸들러를 제공합니다.
//
// 도어 Phase 제어(열기/닫기/취소/비상 신호), Phase 조회와 상태 스트림,
// 도어 상태와 감독자 heartbeat 피드 수신, 도어 명령 스트림을 처리합니다.
package handler

import (
	"context"

	"github.com/darkkaiser/fleet-adapter/internal/door"
	"github.com/darkkaiser/fleet-adapter/internal/phase"
	"github.com/darkkaiser/fleet-adapter/internal/service/registry"
)

// PhaseRegistry Phase 레지스트리 서비스(registry.Service)가 구현합니다.
type PhaseRegistry interface {
	OpenDoor(ctx context.Context, doorName string) (registry.Snapshot, error)
	CloseDoor(ctx context.Context, doorName string) (registry.Snapshot, error)
	Cancel(requestID string) (registry.Snapshot, error)
	Get(requestID string) (registry.Snapshot, error)
	List() []registry.Snapshot
	Subscribe(requestID string) (<-chan phase.Status, func(), error)
	EmergencyAlarm(on bool)
	EmergencyAlarmOn() bool
}

// Ingress 외부에서 수신한 값을 피드로 전달합니다. (transport.Broadcaster가 구현)
type Ingress[T any] interface {
	Broadcast(v T) bool
}

// Handler v1 API 요청을 처리합니다.
type Handler struct {
	registry PhaseRegistry

	doorStates Ingress[door.State]
	heartbeats Ingress[door.Heartbeat]

	// doorRequests loopback 전송 방식일 때만 설정됩니다. nil이면 명령 스트림 엔드포인트는 404를 반환합니다.
	doorRequests door.Feed[door.Request]
}

func NewHandler(registry PhaseRegistry, doorStates Ingress[door.State], heartbeats Ingress[door.Heartbeat], doorRequests door.Feed[door.Request]) *Handler {
	return &Handler{
		registry: registry,

		doorStates: doorStates,
		heartbeats: heartbeats,

		doorRequests: doorRequests,
	}
}
