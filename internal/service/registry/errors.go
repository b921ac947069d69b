package registry

import (
	apperrors "github.com/darkkaiser/fleet-adapter/internal/pkg/errors"
)

var (
	ErrNotRunning = apperrors.New(apperrors.Unavailable, "Phase 레지스트리 서비스가 실행 중이 아닙니다")

	ErrNotifierNotInitialized = apperrors.New(apperrors.Internal, "Notifier 객체가 초기화되지 않았습니다")
)

func newErrUnknownDoor(doorName string) error {
	return apperrors.Newf(apperrors.NotFound, "등록되지 않은 도어입니다: '%s'", doorName)
}

func newErrDoorBusy(doorName, requestID string) error {
	return apperrors.Newf(apperrors.Conflict, "도어 '%s'에 진행 중인 Phase가 있습니다 (request_id: %s)", doorName, requestID)
}

func newErrPhaseNotFound(requestID string) error {
	return apperrors.Newf(apperrors.NotFound, "Phase를 찾을 수 없습니다: '%s'", requestID)
}
