// Package request API 요청 본문 모델을 정의합니다.
package request

// EmergencyAlarmRequest 비상 신호 설정 요청
type EmergencyAlarmRequest struct {
	// On nil이면 본문에 on 필드가 없는 것으로 보고 400을 반환합니다.
	On *bool `json:"on" example:"true"`
}

// DoorStateRequest 도어 상태 피드 요청 (swagger 문서용, 실제 파싱은 gjson)
type DoorStateRequest struct {
	DoorName    string `json:"door_name" example:"main_door"`
	CurrentMode string `json:"current_mode" example:"OPEN"`
}

// HeartbeatRequest 감독자 heartbeat 피드 요청 (swagger 문서용, 실제 파싱은 gjson)
type HeartbeatRequest struct {
	ActiveRequestIDs []string `json:"active_request_ids" example:"door-1a2b3c0001"`
}
