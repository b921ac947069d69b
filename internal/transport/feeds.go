package transport

import (
	"github.com/darkkaiser/fleet-adapter/internal/door"
)

// NewDoorStateBroadcaster 도어 이름별로 최신 상태를 유지하는 도어 상태 피드를 생성합니다.
//
// 모든 도어가 하나의 피드를 공유하므로, 다른 도어의 갱신이 몰려도
// 각 도어의 마지막 상태는 구독자에게 남아 있어야 합니다.
func NewDoorStateBroadcaster() *Broadcaster[door.State] {
	return NewKeyedBroadcaster(func(s door.State) string {
		return s.DoorName
	})
}
