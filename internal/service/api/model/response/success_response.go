package response

// SuccessResponse API 성공 응답
type SuccessResponse struct {
	// ResultCode 처리 결과 코드 (0: 성공)
	ResultCode int `json:"result_code" example:"0"`

	Message string `json:"message,omitempty" example:"성공"`
}

// AcceptedResponse 피드 수신 응답
type AcceptedResponse struct {
	ResultCode int `json:"result_code" example:"0"`

	// Delivered 수신 데이터가 피드에 전달되었는지 여부 (피드가 닫혔으면 false)
	Delivered bool `json:"delivered" example:"true"`
}

// EmergencyAlarmResponse 비상 신호 상태 응답
type EmergencyAlarmResponse struct {
	On bool `json:"on" example:"false"`
}
