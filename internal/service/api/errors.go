package api

import (
	apperrors "github.com/darkkaiser/fleet-adapter/internal/pkg/errors"
)

var (
	// ErrRegistryNotInitialized 서비스 시작 시 Phase 레지스트리가 주입되지 않았을 때 반환합니다.
	ErrRegistryNotInitialized = apperrors.New(apperrors.Internal, "Phase 레지스트리 객체가 초기화되지 않았습니다")
)
