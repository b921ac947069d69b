package notification

import (
	"context"

	applog "github.com/darkkaiser/fleet-adapter/pkg/log"
)

// Sender 실제 알림 채널(텔레그램 등)로 메시지 한 건을 전송합니다.
type Sender interface {
	Send(ctx context.Context, message string) error
}

// logSender 텔레그램이 비활성화된 환경에서 알림을 로그로만 남깁니다.
type logSender struct{}

func NewLogSender() Sender {
	return logSender{}
}

func (logSender) Send(_ context.Context, message string) error {
	applog.WithComponentAndFields(component, applog.Fields{
		"channel": "log",
	}).Warn(message)

	return nil
}
