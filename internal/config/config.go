// Package config fleet-adapter의 설정을 로드하고 검증합니다.
//
// 우선순위(낮음 -> 높음): 내장 기본값 -> JSON 설정 파일 -> 환경 변수(FLEET_ 접두사).
// 환경 변수는 이중 언더스코어(__)로 계층을 표현합니다.
//
//	FLEET_PHASE__OPEN__RESEND_INTERVAL=500ms -> phase.open.resend_interval
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/darkkaiser/fleet-adapter/internal/door"
	apperrors "github.com/darkkaiser/fleet-adapter/internal/pkg/errors"
	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

const (
	// AppName 애플리케이션 식별자입니다. 로그 파일명과 기본 설정 파일명에 사용됩니다.
	AppName = "fleet-adapter"

	DefaultFilename = AppName + ".json"

	envPrefix = "FLEET_"
)

const (
	TransportLoopback = "loopback"
	TransportHTTP     = "http"
)

// AppConfig 최상위 설정입니다.
type AppConfig struct {
	Debug bool `json:"debug"`

	// Doors 이 어댑터가 제어하는 도어 목록입니다.
	Doors []DoorConfig `json:"doors" validate:"required,min=1,unique=Name,dive"`

	Phase     door.Config     `json:"phase"`
	Transport TransportConfig `json:"transport"`
	Registry  RegistryConfig  `json:"registry"`
	Notifier  NotifierConfig  `json:"notifier"`
	API       APIConfig       `json:"api"`
}

type DoorConfig struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
}

// TransportConfig 도어 명령을 내보내는 방식입니다.
//   - loopback: 프로세스 내부 버스로 발행하고 SSE(/api/v1/door-requests/events)로 제공
//   - http: 도어 컨트롤러 웹훅(endpoint)으로 POST
type TransportConfig struct {
	Mode      string        `json:"mode" validate:"oneof=loopback http"`
	Endpoint  string        `json:"endpoint" validate:"required_if=Mode http,omitempty,url"`
	Timeout   time.Duration `json:"timeout" validate:"gte=0"`
	RateLimit float64       `json:"rate_limit" validate:"gte=0"`
	Burst     int           `json:"burst" validate:"gte=0"`
}

// RegistryConfig 종료된 Phase를 조회 가능 상태로 보관하는 기간입니다.
type RegistryConfig struct {
	Retention time.Duration `json:"retention" validate:"gt=0"`
}

type NotifierConfig struct {
	Telegram TelegramConfig `json:"telegram"`
}

// TelegramConfig Phase 실패를 운영자에게 알리는 텔레그램 봇 설정입니다.
type TelegramConfig struct {
	Enabled  bool   `json:"enabled"`
	BotToken string `json:"bot_token" validate:"required_if=Enabled true,omitempty,telegram_bot_token"`
	ChatID   int64  `json:"chat_id" validate:"required_if=Enabled true"`
}

type APIConfig struct {
	ListenPort     int             `json:"listen_port" validate:"min=1,max=65535"`
	BodyLimit      string          `json:"body_limit" validate:"required"`
	RequestTimeout time.Duration   `json:"request_timeout" validate:"gt=0"`
	CORS           CORSConfig      `json:"cors"`
	RateLimit      RateLimitConfig `json:"rate_limit"`
}

type CORSConfig struct {
	AllowOrigins []string `json:"allow_origins" validate:"required,min=1,dive,cors_origin"`
}

// RateLimitConfig 클라이언트 IP별 요청 속도 제한입니다.
type RateLimitConfig struct {
	Enabled           bool    `json:"enabled"`
	RequestsPerSecond float64 `json:"requests_per_second" validate:"required_if=Enabled true,omitempty,gt=0"`
	Burst             int     `json:"burst" validate:"required_if=Enabled true,omitempty,gt=0"`
}

// Default 설정 파일에 값이 없을 때 적용되는 기본값입니다.
func Default() AppConfig {
	return AppConfig{
		Phase: door.DefaultConfig(),
		Transport: TransportConfig{
			Mode:    TransportLoopback,
			Timeout: 5 * time.Second,
		},
		Registry: RegistryConfig{
			Retention: 10 * time.Minute,
		},
		API: APIConfig{
			ListenPort:     8080,
			BodyLimit:      "64K",
			RequestTimeout: 30 * time.Second,
			CORS:           CORSConfig{AllowOrigins: []string{"*"}},
			RateLimit: RateLimitConfig{
				Enabled:           true,
				RequestsPerSecond: 20,
				Burst:             40,
			},
		},
	}
}

// DoorNames 설정된 도어 이름 목록입니다.
func (c *AppConfig) DoorNames() []string {
	names := make([]string, 0, len(c.Doors))
	for _, d := range c.Doors {
		names = append(names, d.Name)
	}
	return names
}

// VerifyRecommendations 오류는 아니지만 운영상 주의가 필요한 설정을 경고 메시지로 반환합니다.
func (c *AppConfig) VerifyRecommendations() []string {
	var warnings []string

	if c.API.ListenPort < 1024 {
		warnings = append(warnings, fmt.Sprintf("시스템 예약 포트(1-1023)를 사용하도록 설정되었습니다(port: %d). 관리자 권한이 필요할 수 있습니다", c.API.ListenPort))
	}
	if c.Phase.Open.Deadline == 0 && c.Phase.Open.StallTimeout == 0 {
		warnings = append(warnings, "도어 열기 Phase에 deadline과 stall_timeout이 모두 비활성화되어 있습니다. 확인되지 않으면 상위 작업이 취소할 때까지 재전송합니다")
	}
	if !c.Notifier.Telegram.Enabled {
		warnings = append(warnings, "텔레그램 알림이 비활성화되어 있습니다. Phase 실패는 로그로만 기록됩니다")
	}

	return warnings
}

// Load 기본 설정 파일을 읽어 설정을 로드합니다.
func Load() (*AppConfig, error) {
	return LoadWithFile(DefaultFilename)
}

// LoadWithFile 지정된 설정 파일을 읽어 AppConfig를 생성합니다.
func LoadWithFile(filename string) (*AppConfig, error) {
	k := koanf.New(".")

	// 1. 기본값
	if err := k.Load(structs.Provider(Default(), "json"), nil); err != nil {
		return nil, apperrors.Wrap(err, apperrors.System, "애플리케이션 기본 설정 로드에 실패했습니다")
	}

	// 2. JSON 설정 파일
	if err := k.Load(file.Provider(filename), json.Parser()); err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.Wrap(err, apperrors.System, fmt.Sprintf("설정 파일을 찾을 수 없습니다: '%s'", filename))
		}
		return nil, apperrors.Wrap(err, apperrors.InvalidInput, fmt.Sprintf("설정 파일 로드 중 오류가 발생했습니다: '%s'", filename))
	}

	// 3. 환경 변수
	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(s, envPrefix)
		s = strings.ToLower(s)
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, apperrors.Wrap(err, apperrors.System, "환경 변수 로드에 실패했습니다")
	}

	unmarshalConf := koanf.UnmarshalConf{
		Tag: "json",
		DecoderConfig: &mapstructure.DecoderConfig{
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
			),
			ErrorUnused:      true,
			WeaklyTypedInput: true,
		},
	}

	var appConfig AppConfig
	if err := k.UnmarshalWithConf("", &appConfig, unmarshalConf); err != nil {
		return nil, apperrors.Wrap(err, apperrors.System, "설정 데이터를 애플리케이션 구조체로 변환하는데 실패했습니다")
	}

	if err := appConfig.validate(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.InvalidInput, fmt.Sprintf("설정 파일('%s')의 유효성 검증에 실패했습니다", filename))
	}

	return &appConfig, nil
}
