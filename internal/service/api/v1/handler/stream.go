package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/darkkaiser/fleet-adapter/internal/service/api/constants"
	"github.com/darkkaiser/fleet-adapter/internal/service/api/httputil"
	applog "github.com/darkkaiser/fleet-adapter/pkg/log"
	"github.com/labstack/echo/v4"
)

// keepAliveInterval 테스트에서 단축합니다.
var keepAliveInterval = constants.StreamKeepAliveInterval

// streamEvents 채널의 값을 Server-Sent Events로 전송합니다.
// 채널이 닫히거나 클라이언트 연결이 끊기면 반환합니다.
func streamEvents[T any](c echo.Context, event string, events <-chan T) error {
	w := c.Response()

	flusher, ok := w.Writer.(http.Flusher)
	if !ok {
		return httputil.NewInternalServerError(constants.ErrMsgStreamingUnsupported)
	}

	w.Header().Set(echo.HeaderContentType, "text/event-stream")
	w.Header().Set(echo.HeaderCacheControl, "no-cache")
	w.Header().Set(echo.HeaderConnection, "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	keepAlive := time.NewTicker(keepAliveInterval)
	defer keepAlive.Stop()

	ctx := c.Request().Context()
	sent := 0

	defer func() {
		applog.WithComponentAndFields(constants.ComponentStream, applog.Fields{
			"path":       c.Request().URL.Path,
			"event":      event,
			"sent":       sent,
			"request_id": w.Header().Get(echo.HeaderXRequestID),
		}).Debug("SSE 스트림 종료")
	}()

	for {
		select {
		case v, ok := <-events:
			if !ok {
				return nil
			}

			data, err := json.Marshal(v)
			if err != nil {
				applog.WithComponentAndFields(constants.ComponentStream, applog.Fields{
					"event": event,
					"error": err,
				}).Warn("SSE 이벤트 직렬화 실패")
				continue
			}

			if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data); err != nil {
				return nil
			}
			flusher.Flush()
			sent++

		case <-keepAlive.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return nil
			}
			flusher.Flush()

		case <-ctx.Done():
			return nil
		}
	}
}
