// Package service 애플리케이션을 구성하는 장기 실행 서비스의 공통 계약을 정의합니다.
package service

import (
	"context"
	"sync"
)

// Service Start는 즉시 반환하고, serviceStopCtx가 취소되면 정리를 마친 뒤 serviceStopWG.Done()을 호출합니다.
// 시작에 실패한 경우에도 serviceStopWG.Done()은 호출됩니다.
type Service interface {
	Start(serviceStopCtx context.Context, serviceStopWG *sync.WaitGroup) error
}
