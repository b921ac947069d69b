// Package phase 작업(Task)을 구성하는 한 단계(Phase)의 공통 계약을 정의합니다.
//
// Phase는 Pending -> Active -> 종료(Completed/Failed) 순서로 각각 한 번씩만 전이합니다.
// 상위 스케줄러는 PendingPhase를 보관하다가 Begin()으로 ActivePhase를 얻고,
// Observe()가 반환하는 Stream을 구독하여 종료 시점을 확인합니다.
package phase

import "time"

// PendingPhase 아직 시작되지 않은 Phase입니다.
// Begin() 호출 전까지는 어떠한 부수 효과도 발생시키지 않습니다.
type PendingPhase interface {
	// Begin Phase를 시작하고 ActivePhase를 반환합니다.
	// 블로킹하지 않으며, 두 번째 호출부터는 최초에 생성된 ActivePhase를 그대로 반환합니다.
	Begin() ActivePhase

	// EstimatePhaseDuration 스케줄링 계획용 예상 소요 시간입니다.
	EstimatePhaseDuration() time.Duration

	Description() string
}

// ActivePhase 실행 중인 Phase입니다.
type ActivePhase interface {
	// Observe 상태 스트림을 반환합니다. 여러 번 구독할 수 있으며,
	// 늦게 구독한 쪽은 가장 최근 상태부터 전달받습니다.
	Observe() *Stream

	// EstimateRemainingTime 남은 예상 시간입니다. 0 미만으로 내려가지 않습니다.
	EstimateRemainingTime() time.Duration

	// EmergencyAlarm 비상 신호를 전달합니다. 프로토콜을 강제로 중단시키지는 않습니다.
	EmergencyAlarm(on bool)

	// Cancel 취소를 요청합니다. 여러 번, 여러 고루틴에서 동시에 호출해도 안전하며
	// 이미 종료된 Phase에서는 아무 일도 하지 않습니다.
	Cancel()

	Description() string
}
