// Package errors ErrorType으로 분류되는 애플리케이션 에러를 제공합니다.
//
// 도어 프로토콜, 설정 로더, 전송 계층, 페이즈 레지스트리는 모두 이 패키지로 에러를 만들고,
// API 계층은 체인의 가장 바깥쪽 AppError 타입으로 HTTP 상태 코드를 정합니다.
// 5xx 응답을 기록할 때는 %+v 형식으로 생성 지점의 호출 스택까지 남깁니다.
//
//	if err := deps.validate(); err != nil {
//	    return errors.Wrap(err, errors.InvalidInput, "도어 열기 Phase를 만들 수 없습니다")
//	}
//
// ErrorType 선택 기준:
//   - InvalidInput: 빈 식별자, nil 협력 객체, 잘못된 요청 본문
//   - ParsingFailed: 피드 페이로드나 설정 파일을 해석할 수 없음
//   - NotFound: 설정에 없는 도어, 존재하지 않는 페이즈
//   - Conflict: 이미 진행 중인 페이즈가 있는 도어
//   - Unavailable: 종료된 전송 계층, 기동되지 않은 서비스
//   - ExecutionFailed: 도어 컨트롤러가 명령을 거부함
//   - Timeout: 외부 호출 시간 초과
//   - System: 파일, 네트워크 등 인프라 오류
//   - Internal: 예상하지 못한 상태 (버그)
package errors

import (
	"errors"
	"fmt"
	"io"
)

// AppError 분류와 원인, 생성 지점을 함께 가진 에러입니다.
type AppError struct {
	errType ErrorType
	message string
	cause   error
	callers callers
}

func (e *AppError) Type() ErrorType {
	return e.errType
}

// Message 원인을 제외한 이 단계의 메시지입니다. API 응답 본문에 그대로 쓰입니다.
func (e *AppError) Message() string {
	return e.message
}

func (e *AppError) Error() string {
	if e.cause == nil {
		return fmt.Sprintf("[%s] %s", e.errType, e.message)
	}
	return fmt.Sprintf("[%s] %s: %v", e.errType, e.message, e.cause)
}

func (e *AppError) Unwrap() error {
	return e.cause
}

// Format %+v는 체인의 각 단계를 한 줄씩 출력하고,
// 가장 안쪽 AppError(또는 외부 에러를 감싼 AppError)에서만 호출 스택을 덧붙입니다.
func (e *AppError) Format(s fmt.State, verb rune) {
	switch {
	case verb == 'v' && s.Flag('+'):
		fmt.Fprintf(s, "[%s] %s", e.errType, e.message)

		var inner *AppError
		if !errors.As(e.cause, &inner) {
			e.callers.writeTo(s)
		}

		if e.cause != nil {
			io.WriteString(s, "\ncaused by: ")
			fmt.Fprintf(s, "%+v", e.cause)
		}
	case verb == 'q':
		fmt.Fprintf(s, "%q", e.Error())
	default:
		io.WriteString(s, e.Error())
	}
}

func New(errType ErrorType, message string) error {
	return &AppError{errType: errType, message: message, callers: capture()}
}

func Newf(errType ErrorType, format string, args ...any) error {
	return &AppError{errType: errType, message: fmt.Sprintf(format, args...), callers: capture()}
}

// Wrap err에 분류와 메시지를 덧붙입니다. err가 nil이면 nil을 반환합니다.
func Wrap(err error, errType ErrorType, message string) error {
	if err == nil {
		return nil
	}
	return &AppError{errType: errType, message: message, cause: err, callers: capture()}
}

// Is 체인 어딘가에 errType의 AppError가 있는지 확인합니다.
func Is(err error, errType ErrorType) bool {
	var appErr *AppError
	for errors.As(err, &appErr) {
		if appErr.errType == errType {
			return true
		}
		err = appErr.cause
	}
	return false
}

// As 표준 errors.As와 같습니다. 호출부에서 두 errors 패키지를 함께 import하지 않도록 둡니다.
func As(err error, target any) bool {
	return errors.As(err, target)
}
