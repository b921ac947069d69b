package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/darkkaiser/fleet-adapter/internal/config"
	"github.com/darkkaiser/fleet-adapter/internal/door"
	"github.com/darkkaiser/fleet-adapter/internal/pkg/idgen"
	"github.com/darkkaiser/fleet-adapter/internal/pkg/version"
	"github.com/darkkaiser/fleet-adapter/internal/service"
	"github.com/darkkaiser/fleet-adapter/internal/service/api"
	"github.com/darkkaiser/fleet-adapter/internal/service/notification"
	"github.com/darkkaiser/fleet-adapter/internal/service/registry"
	"github.com/darkkaiser/fleet-adapter/internal/transport"
	applog "github.com/darkkaiser/fleet-adapter/pkg/log"
	"github.com/jessevdk/go-flags"
)

// @title Fleet Adapter API
// @version 1.0.0
// @description 도어 열기/닫기 Phase를 제어하고 도어 상태와 감독자 heartbeat 피드를 수신하는 REST API입니다.
// @description
// @description ## 도어 열기 프로토콜
// @description 1. POST /api/v1/doors/{door}/open 으로 Phase를 시작하면 요청 ID가 발급됩니다.
// @description 2. 감독자 heartbeat에 요청 ID가 나타날 때까지 도어 명령이 주기적으로 재전송됩니다.
// @description 3. heartbeat에 요청 ID가 있고 도어가 OPEN이면 Phase가 완료됩니다.
// @description 4. 진행 중에 취소하면 보상 닫기 명령이 시작됩니다.

// @contact.name DarkKaiser
// @contact.url https://github.com/DarkKaiser

// @license.name MIT

// @BasePath /

const requestIDPrefix = "door"

type options struct {
	Config  string `short:"c" long:"config" default:"fleet-adapter.json" description:"설정 파일 경로"`
	Debug   bool   `short:"d" long:"debug" description:"디버그 모드 (설정 파일의 debug 값보다 우선)"`
	Version bool   `short:"v" long:"version" description:"버전 정보를 출력하고 종료"`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

// run ctx가 취소될 때까지 서비스를 실행하고 프로세스 종료 코드를 반환합니다.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	var opts options
	parser := flags.NewParser(&opts, flags.HelpFlag|flags.PassDoubleDash)
	if _, err := parser.ParseArgs(args); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			fmt.Fprintln(stdout, err)
			return 0
		}
		fmt.Fprintf(stderr, "[FATAL] 명령행 인자 해석 실패: %v\n", err)
		return 2
	}

	buildInfo := version.Get()
	if opts.Version {
		fmt.Fprintf(stdout, "%s %s\n", config.AppName, buildInfo.String())
		return 0
	}

	// 1. 환경설정 로드 (로그 설정에 필요하므로 가장 먼저 수행)
	appConfig, err := config.LoadWithFile(opts.Config)
	if err != nil {
		// 로거 초기화 전이므로 표준 에러에 출력
		fmt.Fprintf(stderr, "[FATAL] 환경설정 로드 실패: %v\n", err)
		return 1
	}
	if opts.Debug {
		appConfig.Debug = true
	}

	// 2. 로그 시스템 초기화
	logOpts := applog.NewProductionOptions(config.AppName)
	if appConfig.Debug {
		logOpts = applog.NewDevelopmentOptions(config.AppName)
	}
	logCloser, err := applog.Setup(logOpts)
	if err != nil {
		fmt.Fprintf(stderr, "[FATAL] 로그 시스템 초기화 실패: %v\n", err)
		return 1
	}
	defer logCloser.Close()

	applog.SetDebugMode(appConfig.Debug)

	fields := applog.Fields(buildInfo.Fields())
	fields["env"] = map[bool]string{true: "development", false: "production"}[appConfig.Debug]
	fields["doors"] = appConfig.DoorNames()
	fields["transport"] = appConfig.Transport.Mode
	applog.WithComponentAndFields("main", fields).Info("서버 초기화 시작")

	for _, w := range appConfig.VerifyRecommendations() {
		applog.WithComponent("main").Warn(w)
	}

	if err := serve(ctx, appConfig, buildInfo); err != nil {
		applog.WithComponentAndFields("main", applog.Fields{
			"error": err,
		}).Error("서비스 초기화 실패로 프로그램을 종료합니다")
		return 1
	}

	return 0
}

// serve 피드, 전송 계층, 서비스를 구성하고 ctx가 취소될 때까지 실행합니다.
func serve(ctx context.Context, appConfig *config.AppConfig, buildInfo version.Info) error {
	doorStates := transport.NewDoorStateBroadcaster()
	heartbeats := transport.NewBroadcaster[door.Heartbeat]()
	defer doorStates.Close()
	defer heartbeats.Close()

	publisher, doorRequests, err := newPublisher(appConfig.Transport)
	if err != nil {
		return err
	}
	defer publisher.Close()
	if doorRequests != nil {
		defer doorRequests.Close()
	}

	sender, err := newSender(appConfig)
	if err != nil {
		return err
	}

	notificationService := notification.NewService(sender)
	registryService := registry.NewService(appConfig, door.Deps{
		Publisher:  publisher,
		DoorStates: doorStates,
		Heartbeats: heartbeats,
		RequestIDs: idgen.New(requestIDPrefix),
	}, notificationService)
	apiService := api.NewService(appConfig, api.Deps{
		Registry:     registryService,
		DoorStates:   doorStates,
		Heartbeats:   heartbeats,
		DoorRequests: doorRequests,
		Notifier:     notificationService,
	}, buildInfo)

	serviceStopCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	serviceStopWG := &sync.WaitGroup{}

	services := []service.Service{notificationService, registryService, apiService}
	for _, s := range services {
		serviceStopWG.Add(1)
		if err := s.Start(serviceStopCtx, serviceStopWG); err != nil {
			// 이미 시작된 서비스도 종료
			cancel()
			serviceStopWG.Wait()
			return err
		}
	}

	applog.WithComponent("main").Info("서버 가동 완료")

	<-serviceStopCtx.Done()

	applog.WithComponent("main").Info("종료 시그널 수신: 서비스를 종료합니다")
	serviceStopWG.Wait()
	applog.WithComponent("main").Info("서버 종료 완료")

	return nil
}

// publishCloser 종료 시 Close가 필요한 도어 명령 Publisher입니다.
type publishCloser interface {
	door.Publisher
	io.Closer
}

// newPublisher loopback 방식이면 명령 버스도 함께 반환합니다. (API의 도어 명령 스트림에서 사용)
func newPublisher(cfg config.TransportConfig) (publishCloser, *transport.Broadcaster[door.Request], error) {
	switch cfg.Mode {
	case config.TransportHTTP:
		p, err := transport.NewHTTPPublisher(transport.HTTPOptions{
			Endpoint:  cfg.Endpoint,
			Timeout:   cfg.Timeout,
			RateLimit: cfg.RateLimit,
			Burst:     cfg.Burst,
		})
		if err != nil {
			return nil, nil, err
		}
		return p, nil, nil

	default:
		bus := transport.NewBroadcaster[door.Request]()
		return transport.NewLoopbackPublisher(bus), bus, nil
	}
}

func newSender(appConfig *config.AppConfig) (notification.Sender, error) {
	tg := appConfig.Notifier.Telegram
	if !tg.Enabled {
		return notification.NewLogSender(), nil
	}
	return notification.NewTelegramSender(tg.BotToken, tg.ChatID, appConfig.Debug)
}
