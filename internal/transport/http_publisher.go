package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/darkkaiser/fleet-adapter/internal/door"
	apperrors "github.com/darkkaiser/fleet-adapter/internal/pkg/errors"
	applog "github.com/darkkaiser/fleet-adapter/pkg/log"
	"golang.org/x/time/rate"
)

const (
	componentHTTP = "transport.http"

	defaultHTTPTimeout = 5 * time.Second

	// maxBodySnippet 에러 메시지에 포함할 응답 본문의 최대 길이입니다.
	maxBodySnippet = 512
)

// HTTPStatusError 도어 컨트롤러가 2xx 이외의 상태 코드로 응답했을 때 반환됩니다.
type HTTPStatusError struct {
	StatusCode  int
	URL         string
	BodySnippet string
}

func (e *HTTPStatusError) Error() string {
	if e.BodySnippet == "" {
		return fmt.Sprintf("HTTP %d URL: %s", e.StatusCode, e.URL)
	}
	return fmt.Sprintf("HTTP %d URL: %s, Body: %s", e.StatusCode, e.URL, e.BodySnippet)
}

// HTTPOptions HTTPPublisher 설정입니다.
type HTTPOptions struct {
	Endpoint string
	Timeout  time.Duration

	// RateLimit 초당 최대 발행 수입니다. (0 이하: 제한 없음)
	RateLimit float64
	Burst     int
}

// HTTPPublisher 도어 명령을 JSON으로 직렬화하여 도어 컨트롤러 웹훅으로 POST 합니다.
type HTTPPublisher struct {
	endpoint string
	client   *http.Client
	limiter  *rate.Limiter
	closed   atomic.Bool
}

func NewHTTPPublisher(opts HTTPOptions) (*HTTPPublisher, error) {
	if opts.Endpoint == "" {
		return nil, apperrors.New(apperrors.InvalidInput, "도어 컨트롤러 엔드포인트가 설정되지 않았습니다")
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if opts.RateLimit > 0 {
		burst := opts.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}

	return &HTTPPublisher{
		endpoint: opts.Endpoint,
		client:   &http.Client{Timeout: timeout},
		limiter:  limiter,
	}, nil
}

func (p *HTTPPublisher) Publish(ctx context.Context, req door.Request) error {
	if p.closed.Load() {
		return door.ErrTransportClosed
	}

	if err := p.limiter.Wait(ctx); err != nil {
		return apperrors.Wrap(err, apperrors.Timeout, "도어 명령 발행 대기 중 취소되었습니다")
	}

	body, err := json.Marshal(req)
	if err != nil {
		return apperrors.Wrap(err, apperrors.Internal, "도어 명령 직렬화 실패")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return apperrors.Wrap(err, apperrors.InvalidInput, "도어 명령 요청 생성 실패")
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return apperrors.Wrap(err, apperrors.Unavailable, "도어 컨트롤러에 연결할 수 없습니다")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxBodySnippet))
		return apperrors.Wrap(&HTTPStatusError{
			StatusCode:  resp.StatusCode,
			URL:         p.endpoint,
			BodySnippet: string(snippet),
		}, apperrors.ExecutionFailed, "도어 컨트롤러가 명령을 거부했습니다")
	}

	// 연결 재사용을 위해 본문을 모두 읽어 버립니다.
	_, _ = io.Copy(io.Discard, resp.Body)

	applog.WithComponentAndFields(componentHTTP, applog.Fields{
		"door_name":      req.DoorName,
		"request_id":     req.RequestID,
		"requested_mode": req.Mode.String(),
		"status_code":    resp.StatusCode,
	}).Trace("도어 명령 전송 완료")

	return nil
}

func (p *HTTPPublisher) Close() error {
	if p.closed.CompareAndSwap(false, true) {
		p.client.CloseIdleConnections()
	}
	return nil
}
