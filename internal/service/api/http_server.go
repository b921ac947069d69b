package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/darkkaiser/fleet-adapter/internal/service/api/constants"
	"github.com/darkkaiser/fleet-adapter/internal/service/api/httputil"
	appmiddleware "github.com/darkkaiser/fleet-adapter/internal/service/api/middleware"
	applog "github.com/darkkaiser/fleet-adapter/pkg/log"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// HTTPServerConfig HTTP 서버 생성에 필요한 설정입니다.
type HTTPServerConfig struct {
	Debug bool

	// AllowOrigins CORS 허용 Origin 목록
	AllowOrigins []string

	// RequestTimeout 일반 요청의 최대 처리 시간입니다. SSE 스트림에는 적용되지 않습니다.
	RequestTimeout time.Duration

	// BodyLimit 요청 본문 최대 크기 (예: "64K")
	BodyLimit string

	RateLimitEnabled bool
	RateLimitPerSec  float64
	RateLimitBurst   int
}

// isStreamRequest SSE 엔드포인트(.../events) 여부입니다.
func isStreamRequest(c echo.Context) bool {
	return strings.HasSuffix(c.Request().URL.Path, "/events")
}

// NewHTTPServer 미들웨어가 적용된 Echo 인스턴스를 생성합니다. 라우트는 별도로 등록해야 합니다.
//
// 미들웨어 적용 순서:
//  1. PanicRecovery: 이후 미들웨어의 panic까지 복구
//  2. RequestID: 로그에 request_id를 남기기 위해 로깅보다 먼저
//  3. Server 헤더 제거
//  4. HTTPLogger: RateLimit/Timeout 이전에 위치하여 429/503도 기록
//  5. RateLimiting (설정 시)
//  6. BodyLimit
//  7. Timeout (SSE 제외)
//  8. CORS
//  9. Secure
func NewHTTPServer(cfg HTTPServerConfig) *echo.Echo {
	e := echo.New()

	e.Debug = cfg.Debug
	e.HideBanner = true
	e.HidePort = true

	e.Server.ReadTimeout = constants.DefaultReadTimeout
	e.Server.ReadHeaderTimeout = constants.DefaultReadHeaderTimeout
	e.Server.WriteTimeout = constants.DefaultWriteTimeout
	e.Server.IdleTimeout = constants.DefaultIdleTimeout

	e.Logger = appmiddleware.NewEchoLogger(applog.StandardLogger(), constants.ComponentEcho)

	e.HTTPErrorHandler = httputil.ErrorHandler

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = constants.DefaultRequestTimeout
	}

	bodyLimit := cfg.BodyLimit
	if bodyLimit == "" {
		bodyLimit = constants.DefaultMaxBodySize
	}

	e.Use(appmiddleware.PanicRecovery())
	e.Use(middleware.RequestID())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Response().Header().Set(echo.HeaderServer, "")
			return next(c)
		}
	})
	e.Use(appmiddleware.HTTPLogger())
	if cfg.RateLimitEnabled {
		rps, burst := cfg.RateLimitPerSec, cfg.RateLimitBurst
		if rps <= 0 {
			rps = constants.DefaultRateLimitPerSecond
		}
		if burst <= 0 {
			burst = constants.DefaultRateLimitBurst
		}
		e.Use(appmiddleware.RateLimiting(rps, burst))
	}
	e.Use(middleware.BodyLimit(bodyLimit))
	e.Use(middleware.TimeoutWithConfig(middleware.TimeoutConfig{
		Skipper:      isStreamRequest,
		Timeout:      timeout,
		ErrorMessage: "요청 처리 시간이 초과되었습니다",
	}))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.AllowOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete},
	}))
	e.Use(middleware.Secure())

	return e
}
