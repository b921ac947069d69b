package log

// NewProductionOptions 운영(Production) 환경에 맞춘 로그 설정을 반환합니다.
func NewProductionOptions(appName string) Options {
	return Options{
		Name:  appName,
		Level: InfoLevel,

		MaxAge:     30,
		MaxSizeMB:  100,
		MaxBackups: 20,

		EnableCriticalLog: true,  // 장애 대응용 ERROR 이상 로그 격리
		EnableVerboseLog:  true,  // 도어 프로토콜 추적용 DEBUG 이하 로그 분리
		EnableConsoleLog:  false, // 서비스 매니저 환경에서는 파일만 사용

		ReportCaller:     true,
		CallerPathPrefix: "github.com/darkkaiser/fleet-adapter",
	}
}

// NewDevelopmentOptions 개발(Development) 환경에 맞춘 로그 설정을 반환합니다.
func NewDevelopmentOptions(appName string) Options {
	return Options{
		Name:  appName,
		Level: TraceLevel,

		MaxAge:     1,
		MaxSizeMB:  50,
		MaxBackups: 5,

		EnableCriticalLog: false,
		EnableVerboseLog:  false,
		EnableConsoleLog:  true,

		ReportCaller:     true,
		CallerPathPrefix: "github.com/darkkaiser/fleet-adapter",
	}
}
