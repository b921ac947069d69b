// Package httputil HTTP 응답과 에러 변환을 담당합니다.
package httputil

import (
	"errors"
	"fmt"
	"net/http"

	apperrors "github.com/darkkaiser/fleet-adapter/internal/pkg/errors"
	"github.com/darkkaiser/fleet-adapter/internal/service/api/constants"
	"github.com/darkkaiser/fleet-adapter/internal/service/api/model/response"
	applog "github.com/darkkaiser/fleet-adapter/pkg/log"
	"github.com/labstack/echo/v4"
)

// StatusCode AppError의 ErrorType을 HTTP 상태 코드로 변환합니다.
// 체인의 가장 바깥쪽 AppError를 기준으로 합니다.
func StatusCode(errType apperrors.ErrorType) int {
	switch errType {
	case apperrors.InvalidInput, apperrors.ParsingFailed:
		return http.StatusBadRequest
	case apperrors.NotFound:
		return http.StatusNotFound
	case apperrors.Conflict:
		return http.StatusConflict
	case apperrors.Unavailable:
		return http.StatusServiceUnavailable
	case apperrors.Timeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// FromError 서비스 계층 에러를 echo.HTTPError로 변환합니다.
// 5xx 에러는 내부 메시지를 노출하지 않습니다.
func FromError(err error) error {
	if err == nil {
		return nil
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he
	}

	var appErr *apperrors.AppError
	if !apperrors.As(err, &appErr) {
		return echo.NewHTTPError(http.StatusInternalServerError, constants.ErrMsgInternalServer).SetInternal(err)
	}

	code := StatusCode(appErr.Type())
	message := appErr.Message()
	if code >= http.StatusInternalServerError && code != http.StatusServiceUnavailable {
		message = constants.ErrMsgInternalServer
	}

	he = echo.NewHTTPError(code, response.ErrorResponse{ResultCode: code, Message: message})
	return he.SetInternal(err)
}

// ErrorHandler Echo 프레임워크의 전역 에러 핸들러입니다.
//
// 모든 HTTP 에러를 가로채서 표준 ErrorResponse JSON 형식으로 변환하여 반환합니다.
func ErrorHandler(err error, c echo.Context) {
	code := http.StatusInternalServerError
	message := constants.ErrMsgInternalServer

	var he *echo.HTTPError
	if errors.As(FromError(err), &he) {
		code = he.Code
		switch m := he.Message.(type) {
		case string:
			message = m
		case response.ErrorResponse:
			message = m.Message
		}
	}

	// 라우트가 없는 경우 Echo 기본 메시지 대신 한국어 메시지로 통일
	if code == http.StatusNotFound && message == http.StatusText(http.StatusNotFound) {
		message = constants.ErrMsgNotFound
	}

	fields := applog.Fields{
		"path":        c.Request().URL.Path,
		"method":      c.Request().Method,
		"status_code": code,
		"error":       err,
		"remote_ip":   c.RealIP(),
		"request_id":  c.Response().Header().Get(echo.HeaderXRequestID),
	}

	if code >= http.StatusInternalServerError {
		var appErr *apperrors.AppError
		if apperrors.As(err, &appErr) {
			fields["stack"] = fmt.Sprintf("%+v", err)
		}
		applog.WithComponentAndFields(constants.ComponentErrorHandler, fields).Error(constants.LogMsgHTTP5xxServerError)
	} else if code >= http.StatusBadRequest {
		applog.WithComponentAndFields(constants.ComponentErrorHandler, fields).Warn(constants.LogMsgHTTP4xxClientError)
	}

	// 이미 응답이 전송된 경우(SSE 스트림 등) 추가 응답을 시도하지 않습니다.
	if c.Response().Committed {
		return
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(code)
		return
	}

	_ = c.JSON(code, response.ErrorResponse{
		ResultCode: code,
		Message:    message,
	})
}
