// Package system 헬스체크, 버전 정보 등 시스템 수준의 엔드포인트를 처리합니다.
package system

import (
	"net/http"
	"time"

	"github.com/darkkaiser/fleet-adapter/internal/pkg/version"
	"github.com/darkkaiser/fleet-adapter/internal/service/api/constants"
	"github.com/darkkaiser/fleet-adapter/internal/service/api/model/system"
	applog "github.com/darkkaiser/fleet-adapter/pkg/log"
	"github.com/labstack/echo/v4"
)

// RunningChecker 실행 상태를 보고하는 서비스입니다. (registry.Service)
type RunningChecker interface {
	Running() bool
}

// LatestProvider 피드가 한 번이라도 값을 수신했는지 확인합니다. (transport.Broadcaster)
type LatestProvider interface {
	HasLatest() bool
}

// Handler 시스템 엔드포인트 핸들러 (헬스체크, 버전 정보)
type Handler struct {
	registry RunningChecker

	feeds map[string]LatestProvider

	buildInfo version.Info

	serverStartTime time.Time
}

// NewHandler feeds는 의존성 이름별 피드입니다. 값을 받은 적이 없는 피드는 정보성으로만 보고되며 전체 상태에 영향을 주지 않습니다.
func NewHandler(registry RunningChecker, feeds map[string]LatestProvider, buildInfo version.Info) *Handler {
	if registry == nil {
		panic(constants.PanicMsgPhaseRegistryRequired)
	}

	return &Handler{
		registry: registry,

		feeds: feeds,

		buildInfo: buildInfo,

		serverStartTime: time.Now(),
	}
}

// HealthCheckHandler godoc
// @Summary 서버 헬스체크
// @Description Phase 레지스트리 실행 상태와 피드 수신 여부를 반환합니다.
// @Tags System
// @Produce json
// @Success 200 {object} system.HealthResponse "헬스체크 결과"
// @Failure 503 {object} system.HealthResponse "Phase 레지스트리가 실행 중이 아님"
// @Router /health [get]
func (h *Handler) HealthCheckHandler(c echo.Context) error {
	applog.WithComponentAndFields(constants.ComponentHandler, applog.Fields{
		"endpoint":  "/health",
		"remote_ip": c.RealIP(),
	}).Debug("헬스체크 요청")

	deps := make(map[string]system.DependencyStatus, len(h.feeds)+1)

	status := constants.HealthStatusHealthy
	code := http.StatusOK

	if h.registry.Running() {
		deps[constants.DependencyPhaseRegistry] = system.DependencyStatus{
			Status:  constants.HealthStatusHealthy,
			Message: constants.MsgDepStatusHealthy,
		}
	} else {
		deps[constants.DependencyPhaseRegistry] = system.DependencyStatus{
			Status:  constants.HealthStatusUnhealthy,
			Message: constants.MsgDepStatusNotRunning,
		}
		status = constants.HealthStatusUnhealthy
		code = http.StatusServiceUnavailable
	}

	for name, feed := range h.feeds {
		if feed.HasLatest() {
			deps[name] = system.DependencyStatus{Status: constants.HealthStatusHealthy, Message: constants.MsgDepStatusHealthy}
		} else {
			deps[name] = system.DependencyStatus{Status: constants.HealthStatusHealthy, Message: constants.MsgDepStatusNoData}
		}
	}

	return c.JSON(code, system.HealthResponse{
		Status:       status,
		Uptime:       int64(time.Since(h.serverStartTime).Seconds()),
		Dependencies: deps,
	})
}

// VersionHandler godoc
// @Summary 서버 버전 정보
// @Tags System
// @Produce json
// @Success 200 {object} system.VersionResponse "버전 정보"
// @Router /version [get]
func (h *Handler) VersionHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, system.VersionResponse{
		Version:   h.buildInfo.Version,
		Commit:    h.buildInfo.Commit,
		BuildDate: h.buildInfo.BuildDate,
		GoVersion: h.buildInfo.GoVersion,
		OS:        h.buildInfo.OS,
		Arch:      h.buildInfo.Arch,
		Dirty:     h.buildInfo.DirtyBuild,
	})
}
