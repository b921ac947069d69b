package door

import (
	"time"

	apperrors "github.com/darkkaiser/fleet-adapter/internal/pkg/errors"
)

const (
	DefaultResendInterval    = 1 * time.Second
	DefaultEstimatedDuration = 4 * time.Second
	DefaultCloseDeadline     = 30 * time.Second
)

// Timing 한 종류의 프로토콜(열기 또는 닫기)에 적용되는 시간 설정입니다.
type Timing struct {
	// ResendInterval 확인되지 않은 명령을 다시 보내는 주기입니다.
	ResendInterval time.Duration `json:"resend_interval" validate:"required,gt=0"`

	// EstimatedDuration 스케줄링용 예상 소요 시간입니다. 정합성 판단에는 쓰이지 않습니다.
	EstimatedDuration time.Duration `json:"estimated_duration" validate:"gte=0"`

	// MaxResends 재전송 횟수 상한입니다. 상한에 도달하면 재전송만 멈추고 확인은 계속 기다립니다. (0: 무제한)
	MaxResends int `json:"max_resends" validate:"gte=0"`

	// StallTimeout 이 시간 동안 피드 갱신이 없으면 Failed로 종료합니다. (0: 사용 안 함)
	StallTimeout time.Duration `json:"stall_timeout" validate:"gte=0"`

	// Deadline 시작 후 이 시간 안에 확인되지 않으면 Failed로 종료합니다. (0: 사용 안 함)
	Deadline time.Duration `json:"deadline" validate:"gte=0"`
}

func (t Timing) validate() error {
	if t.ResendInterval <= 0 {
		return apperrors.Newf(apperrors.InvalidInput, "재전송 주기는 0보다 커야 합니다: %s", t.ResendInterval)
	}
	if t.EstimatedDuration < 0 || t.StallTimeout < 0 || t.Deadline < 0 || t.MaxResends < 0 {
		return apperrors.New(apperrors.InvalidInput, "도어 프로토콜 시간 설정에 음수 값이 있습니다")
	}
	return nil
}

// Config 열기와 닫기 프로토콜의 시간 설정입니다.
// 열기 취소 시 실행되는 보상 닫기도 Close 설정을 따릅니다.
type Config struct {
	Open  Timing `json:"open"`
	Close Timing `json:"close"`
}

// DefaultConfig 열기는 확인될 때까지 무기한 재전송하고,
// 닫기는 30초 안에 확인되지 않으면 실패로 처리합니다.
func DefaultConfig() Config {
	return Config{
		Open: Timing{
			ResendInterval:    DefaultResendInterval,
			EstimatedDuration: DefaultEstimatedDuration,
		},
		Close: Timing{
			ResendInterval:    DefaultResendInterval,
			EstimatedDuration: DefaultEstimatedDuration,
			Deadline:          DefaultCloseDeadline,
		},
	}
}

func (c Config) orDefault() Config {
	if c == (Config{}) {
		return DefaultConfig()
	}
	return c
}
