// Package api 도어 Phase 제어와 피드 수신을 위한 HTTP API 서비스입니다.
package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"

	_ "github.com/darkkaiser/fleet-adapter/docs"
	"github.com/darkkaiser/fleet-adapter/internal/config"
	"github.com/darkkaiser/fleet-adapter/internal/door"
	"github.com/darkkaiser/fleet-adapter/internal/pkg/version"
	"github.com/darkkaiser/fleet-adapter/internal/service/api/constants"
	"github.com/darkkaiser/fleet-adapter/internal/service/api/handler/system"
	v1 "github.com/darkkaiser/fleet-adapter/internal/service/api/v1"
	v1handler "github.com/darkkaiser/fleet-adapter/internal/service/api/v1/handler"
	"github.com/darkkaiser/fleet-adapter/internal/service/registry"
	"github.com/darkkaiser/fleet-adapter/internal/transport"
	applog "github.com/darkkaiser/fleet-adapter/pkg/log"
	"github.com/labstack/echo/v4"
)

// Deps API 서비스가 사용하는 서비스와 피드입니다.
type Deps struct {
	Registry *registry.Service

	DoorStates *transport.Broadcaster[door.State]
	Heartbeats *transport.Broadcaster[door.Heartbeat]

	// DoorRequests loopback 전송 방식일 때만 설정합니다.
	DoorRequests *transport.Broadcaster[door.Request]

	// Notifier HTTP 서버가 예기치 않게 종료되면 운영자에게 알립니다. (선택)
	Notifier registry.Notifier
}

// Service Echo HTTP 서버의 생명주기를 관리합니다.
// Start()로 시작하고 serviceStopCtx 취소로 Graceful Shutdown 합니다.
type Service struct {
	appConfig *config.AppConfig

	deps Deps

	buildInfo version.Info

	// addr 실제로 바인딩된 주소입니다. 포트 0으로 시작한 테스트에서 사용합니다.
	addr   net.Addr
	addrMu sync.Mutex
	ready  chan struct{}

	running   bool
	runningMu sync.Mutex
}

func NewService(appConfig *config.AppConfig, deps Deps, buildInfo version.Info) *Service {
	if appConfig == nil {
		panic(constants.PanicMsgAppConfigRequired)
	}
	if deps.DoorStates == nil || deps.Heartbeats == nil {
		panic(constants.PanicMsgFeedsRequired)
	}

	return &Service{
		appConfig: appConfig,

		deps: deps,

		buildInfo: buildInfo,

		ready: make(chan struct{}),
	}
}

func (s *Service) Start(serviceStopCtx context.Context, serviceStopWG *sync.WaitGroup) error {
	s.runningMu.Lock()
	defer s.runningMu.Unlock()

	applog.WithComponent(constants.ComponentService).Info(constants.LogMsgServiceStarting)

	if s.deps.Registry == nil {
		defer serviceStopWG.Done()
		return ErrRegistryNotInitialized
	}

	if s.running {
		defer serviceStopWG.Done()
		applog.WithComponent(constants.ComponentService).Warn(constants.LogMsgServiceAlreadyStarted)
		return nil
	}

	s.running = true

	s.addrMu.Lock()
	s.addr = nil
	s.ready = make(chan struct{})
	s.addrMu.Unlock()

	go s.runServiceLoop(serviceStopCtx, serviceStopWG)

	applog.WithComponent(constants.ComponentService).Info(constants.LogMsgServiceStarted)

	return nil
}

func (s *Service) runServiceLoop(serviceStopCtx context.Context, serviceStopWG *sync.WaitGroup) {
	defer serviceStopWG.Done()

	e := s.setupServer()

	// 요청 Context가 streamCtx에서 파생되므로 Shutdown 시작 시 SSE 스트림이 함께 종료됩니다.
	streamCtx, cancelStreams := context.WithCancel(context.Background())
	defer cancelStreams()
	e.Server.BaseContext = func(net.Listener) context.Context { return streamCtx }
	e.Server.RegisterOnShutdown(cancelStreams)

	httpServerDone := make(chan struct{})
	go s.startHTTPServer(e, httpServerDone)

	s.waitForShutdown(serviceStopCtx, e, httpServerDone)
}

// setupServer 미들웨어와 라우트가 모두 등록된 Echo 인스턴스를 생성합니다.
func (s *Service) setupServer() *echo.Echo {
	apiConfig := s.appConfig.API

	systemHandler := system.NewHandler(s.deps.Registry, map[string]system.LatestProvider{
		constants.DependencyDoorStateFeed: s.deps.DoorStates,
		constants.DependencyHeartbeatFeed: s.deps.Heartbeats,
	}, s.buildInfo)

	// nil 포인터를 인터페이스에 담으면 nil 비교가 실패하므로 명시적으로 구분합니다.
	var doorRequests door.Feed[door.Request]
	if s.deps.DoorRequests != nil {
		doorRequests = s.deps.DoorRequests
	}
	v1Handler := v1handler.NewHandler(s.deps.Registry, s.deps.DoorStates, s.deps.Heartbeats, doorRequests)

	e := NewHTTPServer(HTTPServerConfig{
		Debug:            s.appConfig.Debug,
		AllowOrigins:     apiConfig.CORS.AllowOrigins,
		RequestTimeout:   apiConfig.RequestTimeout,
		BodyLimit:        apiConfig.BodyLimit,
		RateLimitEnabled: apiConfig.RateLimit.Enabled,
		RateLimitPerSec:  apiConfig.RateLimit.RequestsPerSecond,
		RateLimitBurst:   apiConfig.RateLimit.Burst,
	})

	RegisterRoutes(e, systemHandler)
	v1.RegisterRoutes(e, v1Handler)

	return e
}

// startHTTPServer 서버가 종료될 때까지 블로킹되며, 종료되면 done을 닫습니다.
func (s *Service) startHTTPServer(e *echo.Echo, done chan struct{}) {
	defer close(done)

	address := fmt.Sprintf(":%d", s.appConfig.API.ListenPort)

	applog.WithComponentAndFields(constants.ComponentService, applog.Fields{
		"address": address,
	}).Info(constants.LogMsgServiceHTTPServerStarting)

	listener, err := net.Listen("tcp", address)
	if err != nil {
		s.handleServerError(err)
		return
	}
	e.Listener = listener

	s.addrMu.Lock()
	s.addr = listener.Addr()
	close(s.ready)
	s.addrMu.Unlock()

	s.handleServerError(e.Start(""))
}

// Addr 서버가 바인딩된 주소입니다. 서버가 아직 시작되지 않았으면 nil입니다.
func (s *Service) Addr() net.Addr {
	s.addrMu.Lock()
	defer s.addrMu.Unlock()

	return s.addr
}

// Ready 리스너가 바인딩되면 닫히는 채널입니다.
func (s *Service) Ready() <-chan struct{} {
	s.addrMu.Lock()
	defer s.addrMu.Unlock()

	return s.ready
}

// handleServerError http.ErrServerClosed는 정상 종료이고, 그 외 에러는 로깅 후 운영자에게 알립니다.
func (s *Service) handleServerError(err error) {
	if err == nil {
		return
	}

	if errors.Is(err, http.ErrServerClosed) {
		applog.WithComponent(constants.ComponentService).Info(constants.LogMsgServiceHTTPServerStopped)
		return
	}

	message := constants.LogMsgServiceHTTPServerFatalError
	applog.WithComponentAndFields(constants.ComponentService, applog.Fields{
		"port":  s.appConfig.API.ListenPort,
		"error": err,
	}).Error(message)

	if s.deps.Notifier != nil {
		_ = s.deps.Notifier.Notify(context.Background(), fmt.Sprintf("%s\n\n%s", message, err))
	}
}

func (s *Service) waitForShutdown(serviceStopCtx context.Context, e *echo.Echo, httpServerDone chan struct{}) {
	select {
	case <-serviceStopCtx.Done():
		applog.WithComponent(constants.ComponentService).Info(constants.LogMsgServiceStopping)
	case <-httpServerDone:
		// 포트 바인딩 실패 등으로 이미 종료되었으므로 Shutdown 없이 상태만 정리
		applog.WithComponent(constants.ComponentService).Error(constants.LogMsgServiceUnexpectedExit)
		s.cleanup()
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		applog.WithComponentAndFields(constants.ComponentService, applog.Fields{
			"error": err,
		}).Error(constants.LogMsgServiceHTTPServerShutdownError)
		_ = e.Close()
	}

	<-httpServerDone

	s.cleanup()
}

func (s *Service) cleanup() {
	s.runningMu.Lock()
	s.running = false
	s.runningMu.Unlock()

	applog.WithComponent(constants.ComponentService).Info(constants.LogMsgServiceStopped)
}
