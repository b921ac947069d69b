// Package constants API 서비스 전반에서 공유하는 상수를 정의합니다.
package constants

import "time"

// 로깅 컴포넌트 이름
const (
	ComponentService      = "api.service"
	ComponentHandler      = "api.handler"
	ComponentMiddleware   = "api.middleware"
	ComponentErrorHandler = "api.error_handler"
	ComponentStream       = "api.stream"
	ComponentEcho         = "api.echo"
)

// HTTP 서버 타임아웃
const (
	DefaultReadTimeout       = 10 * time.Second
	DefaultReadHeaderTimeout = 5 * time.Second
	DefaultIdleTimeout       = 120 * time.Second

	// DefaultWriteTimeout SSE 스트림이 끊기지 않도록 0(무제한)으로 둡니다. 일반 요청은 Timeout 미들웨어가 제한합니다.
	DefaultWriteTimeout = 0

	DefaultRequestTimeout = 60 * time.Second

	DefaultMaxBodySize = "64K"

	// DefaultRateLimitPerSecond 설정이 비어 있을 때 사용하는 IP별 초당 요청 수입니다.
	DefaultRateLimitPerSecond = 20
	DefaultRateLimitBurst     = 40

	// ShutdownTimeout Graceful Shutdown 최대 대기 시간입니다.
	ShutdownTimeout = 5 * time.Second

	// StreamKeepAliveInterval SSE 연결 유지를 위한 주석 라인 전송 주기입니다.
	StreamKeepAliveInterval = 15 * time.Second
)

// 경로 파라미터
const (
	ParamDoor      = "door"
	ParamRequestID = "id"
)

// 헬스체크
const (
	HealthStatusHealthy   = "healthy"
	HealthStatusUnhealthy = "unhealthy"

	DependencyPhaseRegistry = "phase_registry"
	DependencyDoorStateFeed = "door_state_feed"
	DependencyHeartbeatFeed = "supervisor_heartbeat_feed"

	MsgDepStatusHealthy    = "정상 작동 중"
	MsgDepStatusNotRunning = "서비스가 실행 중이 아닙니다"
	MsgDepStatusNoData     = "아직 수신된 데이터가 없습니다"
)

// 응답 메시지
const (
	ErrMsgInternalServer       = "내부 서버 오류가 발생했습니다"
	ErrMsgNotFound             = "요청한 리소스를 찾을 수 없습니다"
	ErrMsgTooManyRequests      = "요청이 너무 많습니다. 잠시 후 다시 시도해주세요"
	ErrMsgUnsupportedMediaType = "지원하지 않는 Content-Type 형식입니다"
	ErrMsgStreamingUnsupported = "스트리밍을 지원하지 않는 연결입니다"
)

// 패닉 메시지
const (
	PanicMsgAppConfigRequired     = "AppConfig는 필수입니다"
	PanicMsgPhaseRegistryRequired = "PhaseRegistry는 필수입니다"
	PanicMsgFeedsRequired         = "DoorStates/Heartbeats 피드는 필수입니다"
)

// 로그 메시지
const (
	LogMsgServiceStarting                = "서비스 시작 진입: API 서비스 초기화 프로세스를 시작합니다"
	LogMsgServiceStarted                 = "서비스 시작 완료: API 서비스가 정상적으로 초기화되었습니다"
	LogMsgServiceAlreadyStarted          = "API 서비스가 이미 실행 중입니다 (중복 호출)"
	LogMsgServiceHTTPServerStarting      = "HTTP 서버 시작"
	LogMsgServiceHTTPServerStopped       = "HTTP 서버 종료 완료"
	LogMsgServiceHTTPServerFatalError    = "HTTP 서버 구동 중 치명적인 오류가 발생했습니다"
	LogMsgServiceHTTPServerShutdownError = "HTTP 서버 Graceful Shutdown 중 오류가 발생했습니다"
	LogMsgServiceStopping                = "종료 절차 진입: API 서비스 중지 시그널을 수신했습니다"
	LogMsgServiceUnexpectedExit          = "HTTP 서버가 예기치 않게 종료되었습니다"
	LogMsgServiceStopped                 = "API 서비스 종료 완료"

	LogMsgHTTP4xxClientError = "HTTP 4xx: 클라이언트 요청 오류"
	LogMsgHTTP5xxServerError = "HTTP 5xx: 서버 내부 오류"
)
