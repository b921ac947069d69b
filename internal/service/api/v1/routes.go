// Package v1 /api/v1 경로 하위의 엔드포인트를 등록합니다.
//
// 주요 엔드포인트:
//   - POST   /api/v1/doors/:door/open, /api/v1/doors/:door/close
//   - GET    /api/v1/phases, /api/v1/phases/:id, /api/v1/phases/:id/events
//   - DELETE /api/v1/phases/:id
//   - GET    /api/v1/emergency-alarm, POST /api/v1/emergency-alarm
//   - POST   /api/v1/feeds/door-states, /api/v1/feeds/supervisor-heartbeats
//   - GET    /api/v1/door-requests/events
package v1

import (
	"github.com/darkkaiser/fleet-adapter/internal/service/api/middleware"
	"github.com/darkkaiser/fleet-adapter/internal/service/api/v1/handler"
	"github.com/labstack/echo/v4"
)

func RegisterRoutes(e *echo.Echo, h *handler.Handler) {
	v1Group := e.Group("/api/v1")

	jsonOnly := middleware.ValidateContentType(echo.MIMEApplicationJSON)

	doors := v1Group.Group("/doors")
	doors.POST("/:door/open", h.OpenDoorHandler)
	doors.POST("/:door/close", h.CloseDoorHandler)

	phases := v1Group.Group("/phases")
	phases.GET("", h.ListPhasesHandler)
	phases.GET("/:id", h.GetPhaseHandler)
	phases.DELETE("/:id", h.CancelPhaseHandler)
	phases.GET("/:id/events", h.PhaseEventsHandler)

	v1Group.GET("/emergency-alarm", h.GetEmergencyAlarmHandler)
	v1Group.POST("/emergency-alarm", h.EmergencyAlarmHandler, jsonOnly)

	feeds := v1Group.Group("/feeds", jsonOnly)
	feeds.POST("/door-states", h.DoorStateHandler)
	feeds.POST("/supervisor-heartbeats", h.HeartbeatHandler)

	v1Group.GET("/door-requests/events", h.DoorRequestEventsHandler)
}
