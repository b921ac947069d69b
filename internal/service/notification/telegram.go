package notification

import (
	"context"
	"errors"
	"net/http"
	"time"

	apperrors "github.com/darkkaiser/fleet-adapter/internal/pkg/errors"
	applog "github.com/darkkaiser/fleet-adapter/pkg/log"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/time/rate"
)

const (
	componentTelegram = "notification.telegram"

	telegramHTTPClientTimeout = 30 * time.Second

	// 텔레그램 정책상 같은 채팅방에는 초당 1건 정도만 보내야 합니다.
	telegramRateLimit = 1
	telegramRateBurst = 5

	telegramMaxAttempts = 3
	telegramRetryDelay  = 2 * time.Second
)

// botClient 텔레그램 봇 API 중 전송에 필요한 부분만 추상화합니다.
type botClient interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type telegramSender struct {
	chatID     int64
	client     botClient
	limiter    *rate.Limiter
	retryDelay time.Duration
}

// NewTelegramSender 봇 토큰으로 텔레그램 API 클라이언트를 초기화합니다.
func NewTelegramSender(botToken string, chatID int64, debug bool) (Sender, error) {
	applog.WithComponentAndFields(componentTelegram, applog.Fields{
		"bot_token": applog.MaskSensitiveData(botToken),
		"chat_id":   chatID,
	}).Debug("텔레그램 봇 API 클라이언트 초기화")

	botAPI, err := tgbotapi.NewBotAPIWithClient(botToken, tgbotapi.APIEndpoint, &http.Client{Timeout: telegramHTTPClientTimeout})
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.InvalidInput, "텔레그램 봇 API 클라이언트 초기화에 실패했습니다. BotToken이 올바른지 확인해주세요")
	}
	botAPI.Debug = debug

	return newTelegramSender(botAPI, chatID), nil
}

func newTelegramSender(client botClient, chatID int64) *telegramSender {
	return &telegramSender{
		chatID:     chatID,
		client:     client,
		limiter:    rate.NewLimiter(rate.Limit(telegramRateLimit), telegramRateBurst),
		retryDelay: telegramRetryDelay,
	}
}

func (s *telegramSender) Send(ctx context.Context, message string) error {
	return s.send(ctx, message, true)
}

func (s *telegramSender) send(ctx context.Context, message string, useHTML bool) error {
	msg := tgbotapi.NewMessage(s.chatID, message)
	if useHTML {
		msg.ParseMode = tgbotapi.ModeHTML
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}

	var lastErr error
	for attempt := 1; attempt <= telegramMaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		_, err := s.client.Send(msg)
		if err == nil {
			applog.WithComponentAndFields(componentTelegram, applog.Fields{
				"chat_id": s.chatID,
				"attempt": attempt,
			}).Info("텔레그램 메시지 전송 성공")
			return nil
		}
		lastErr = err

		code, retryAfter := telegramErrorCode(err)

		applog.WithComponentAndFields(componentTelegram, applog.Fields{
			"chat_id": s.chatID,
			"attempt": attempt,
			"code":    code,
			"error":   err,
		}).Warn("텔레그램 메시지 전송 실패")

		// HTML 파싱 오류는 일반 텍스트로 다시 보냅니다.
		if useHTML && code == http.StatusBadRequest {
			return s.send(ctx, message, false)
		}

		// 429를 제외한 4xx는 재시도해도 결과가 같습니다.
		if code >= 400 && code < 500 && code != http.StatusTooManyRequests {
			return err
		}

		if attempt == telegramMaxAttempts {
			break
		}

		wait := s.retryDelay
		if retryAfter > 0 {
			wait = time.Duration(retryAfter) * time.Second
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}

	return lastErr
}

func telegramErrorCode(err error) (code int, retryAfter int) {
	var apiErr *tgbotapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code, apiErr.ResponseParameters.RetryAfter
	}

	var apiErrValue tgbotapi.Error
	if errors.As(err, &apiErrValue) {
		return apiErrValue.Code, apiErrValue.ResponseParameters.RetryAfter
	}

	return 0, 0
}
