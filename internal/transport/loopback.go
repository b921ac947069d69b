package transport

import (
	"context"
	"sync/atomic"

	"github.com/darkkaiser/fleet-adapter/internal/door"
	applog "github.com/darkkaiser/fleet-adapter/pkg/log"
)

const componentLoopback = "transport.loopback"

var (
	_ door.Feed[door.State]     = (*Broadcaster[door.State])(nil)
	_ door.Feed[door.Heartbeat] = (*Broadcaster[door.Heartbeat])(nil)
	_ door.Publisher            = (*LoopbackPublisher)(nil)
	_ door.Publisher            = (*HTTPPublisher)(nil)
)

// LoopbackPublisher 도어 명령을 프로세스 내부 버스로 발행합니다.
// 도어 컨트롤러는 버스(API의 SSE 스트림)를 구독하여 명령을 받습니다.
type LoopbackPublisher struct {
	bus    *Broadcaster[door.Request]
	closed atomic.Bool
}

func NewLoopbackPublisher(bus *Broadcaster[door.Request]) *LoopbackPublisher {
	return &LoopbackPublisher{bus: bus}
}

func (p *LoopbackPublisher) Publish(ctx context.Context, req door.Request) error {
	if p.closed.Load() {
		return door.ErrTransportClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if !p.bus.Broadcast(req) {
		return door.ErrTransportClosed
	}

	applog.WithComponentAndFields(componentLoopback, applog.Fields{
		"door_name":      req.DoorName,
		"request_id":     req.RequestID,
		"requested_mode": req.Mode.String(),
	}).Trace("도어 명령 발행")

	return nil
}

// Close 이후의 Publish는 door.ErrTransportClosed를 반환합니다. 버스는 닫지 않습니다.
func (p *LoopbackPublisher) Close() error {
	p.closed.Store(true)
	return nil
}
