package config

import (
	"fmt"

	apperrors "github.com/darkkaiser/fleet-adapter/internal/pkg/errors"
	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

// validate 태그 규칙 검사 후 태그로 표현할 수 없는 교차 항목 규칙을 확인합니다.
func (c *AppConfig) validate() error {
	if err := checkUniqueField(validate, c.Doors, "Name", "Door"); err != nil {
		return err
	}

	if err := checkStruct(validate, c, "AppConfig"); err != nil {
		return err
	}

	for _, origin := range c.API.CORS.AllowOrigins {
		if origin == "*" && len(c.API.CORS.AllowOrigins) > 1 {
			return apperrors.New(apperrors.InvalidInput, "와일드카드(*)는 다른 도메인과 함께 사용할 수 없습니다. 모든 도메인을 허용하려면 와일드카드만 설정하세요")
		}
	}

	// 보상 닫기가 무기한 대기하지 않도록 닫기에는 실패 조건이 하나 이상 있어야 합니다.
	if c.Phase.Close.Deadline == 0 && c.Phase.Close.StallTimeout == 0 {
		return apperrors.New(apperrors.InvalidInput, "도어 닫기 Phase에는 deadline 또는 stall_timeout 중 하나 이상이 설정되어야 합니다")
	}

	return nil
}

// checkStruct 구조체를 태그 규칙에 따라 검증하고 첫 번째 위반 사항을 도메인 에러로 변환합니다.
func checkStruct(v *validator.Validate, s any, contextName string) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}

	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return apperrors.Wrap(err, apperrors.InvalidInput, fmt.Sprintf("%s 유효성 검증에 실패했습니다", contextName))
	}

	fieldErr := validationErrors[0]

	switch fieldErr.Tag() {
	case "cors_origin":
		return apperrors.New(apperrors.InvalidInput, fmt.Sprintf("CORS Origin 형식이 올바르지 않습니다: '%v' (형식: Scheme://Host[:Port], 예: https://example.com)", fieldErr.Value()))
	case "telegram_bot_token":
		return apperrors.New(apperrors.InvalidInput, "텔레그램 봇 토큰(bot_token) 형식이 올바르지 않습니다")
	}

	switch fieldErr.StructField() {
	case "ListenPort":
		return apperrors.New(apperrors.InvalidInput, "웹 서버 포트(listen_port)는 1에서 65535 사이의 값이어야 합니다")
	case "Doors":
		return apperrors.New(apperrors.InvalidInput, "제어할 도어(doors)가 하나 이상 설정되어야 합니다")
	case "ResendInterval":
		return apperrors.New(apperrors.InvalidInput, fmt.Sprintf("재전송 주기(resend_interval)는 0보다 커야 합니다: %s", fieldErr.Namespace()))
	case "Endpoint":
		return apperrors.New(apperrors.InvalidInput, "http 전송 방식에는 유효한 도어 컨트롤러 URL(transport.endpoint)이 필요합니다")
	}

	return apperrors.New(apperrors.InvalidInput, fmt.Sprintf("%s의 설정이 올바르지 않습니다: %s (조건: %s)", contextName, fieldErr.Namespace(), fieldErr.Tag()))
}

// checkUniqueField 슬라이스 내 특정 필드 값이 유일한지 검사합니다.
func checkUniqueField(v *validator.Validate, data any, fieldName, contextName string) error {
	if err := v.Var(data, "unique="+fieldName); err != nil {
		return apperrors.New(apperrors.InvalidInput, fmt.Sprintf("중복된 %s %s가 존재합니다", contextName, fieldName))
	}
	return nil
}
