package response

// ErrorResponse API 오류 응답
type ErrorResponse struct {
	// ResultCode HTTP 상태 코드 (예: 400, 404, 409, 500)
	ResultCode int `json:"result_code" example:"409"`

	// Message 에러 메시지
	Message string `json:"message" example:"도어 'main_door'에 진행 중인 Phase가 있습니다 (request_id: door-1a2b)"`
}
