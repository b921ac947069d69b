package handler

import (
	"net/http"

	"github.com/darkkaiser/fleet-adapter/internal/service/api/constants"
	"github.com/darkkaiser/fleet-adapter/internal/service/api/httputil"
	"github.com/darkkaiser/fleet-adapter/internal/service/api/model/request"
	"github.com/darkkaiser/fleet-adapter/internal/service/api/model/response"
	applog "github.com/darkkaiser/fleet-adapter/pkg/log"
	"github.com/labstack/echo/v4"
)

// OpenDoorHandler godoc
// @Summary 도어 열기
// @Description 도어 열기 Phase를 시작합니다. 감독자 heartbeat에 요청 ID가 포함되고 도어가 OPEN 상태가 되면 완료됩니다.
// @Tags Doors
// @Produce json
// @Param door path string true "도어 이름"
// @Success 202 {object} registry.Snapshot
// @Failure 404 {object} response.ErrorResponse "등록되지 않은 도어"
// @Failure 409 {object} response.ErrorResponse "진행 중인 Phase가 있음"
// @Router /api/v1/doors/{door}/open [post]
func (h *Handler) OpenDoorHandler(c echo.Context) error {
	snap, err := h.registry.OpenDoor(c.Request().Context(), c.Param(constants.ParamDoor))
	if err != nil {
		return httputil.FromError(err)
	}

	return c.JSON(http.StatusAccepted, snap)
}

// CloseDoorHandler godoc
// @Summary 도어 닫기
// @Description 도어 닫기 Phase를 시작합니다.
// @Tags Doors
// @Produce json
// @Param door path string true "도어 이름"
// @Success 202 {object} registry.Snapshot
// @Failure 404 {object} response.ErrorResponse "등록되지 않은 도어"
// @Failure 409 {object} response.ErrorResponse "진행 중인 Phase가 있음"
// @Router /api/v1/doors/{door}/close [post]
func (h *Handler) CloseDoorHandler(c echo.Context) error {
	snap, err := h.registry.CloseDoor(c.Request().Context(), c.Param(constants.ParamDoor))
	if err != nil {
		return httputil.FromError(err)
	}

	return c.JSON(http.StatusAccepted, snap)
}

// ListPhasesHandler godoc
// @Summary Phase 목록
// @Description 진행 중이거나 보관 기간 내에 종료된 Phase를 시작 시각 순으로 반환합니다.
// @Tags Phases
// @Produce json
// @Success 200 {array} registry.Snapshot
// @Router /api/v1/phases [get]
func (h *Handler) ListPhasesHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, h.registry.List())
}

// GetPhaseHandler godoc
// @Summary Phase 조회
// @Tags Phases
// @Produce json
// @Param id path string true "요청 ID"
// @Success 200 {object} registry.Snapshot
// @Failure 404 {object} response.ErrorResponse
// @Router /api/v1/phases/{id} [get]
func (h *Handler) GetPhaseHandler(c echo.Context) error {
	snap, err := h.registry.Get(c.Param(constants.ParamRequestID))
	if err != nil {
		return httputil.FromError(err)
	}

	return c.JSON(http.StatusOK, snap)
}

// CancelPhaseHandler godoc
// @Summary Phase 취소
// @Description 진행 중인 Phase를 취소합니다. 열기 Phase를 취소하면 보상 닫기가 시작됩니다. 종료된 Phase는 변화가 없습니다.
// @Tags Phases
// @Produce json
// @Param id path string true "요청 ID"
// @Success 202 {object} registry.Snapshot
// @Failure 404 {object} response.ErrorResponse
// @Router /api/v1/phases/{id} [delete]
func (h *Handler) CancelPhaseHandler(c echo.Context) error {
	snap, err := h.registry.Cancel(c.Param(constants.ParamRequestID))
	if err != nil {
		return httputil.FromError(err)
	}

	return c.JSON(http.StatusAccepted, snap)
}

// PhaseEventsHandler godoc
// @Summary Phase 상태 스트림
// @Description Server-Sent Events로 Phase 상태를 전송합니다. 최신 상태가 먼저 전송되고 종료 상태 이후 연결이 닫힙니다.
// @Tags Phases
// @Produce text/event-stream
// @Param id path string true "요청 ID"
// @Success 200 {object} phase.Status
// @Failure 404 {object} response.ErrorResponse
// @Router /api/v1/phases/{id}/events [get]
func (h *Handler) PhaseEventsHandler(c echo.Context) error {
	requestID := c.Param(constants.ParamRequestID)

	statusC, unsubscribe, err := h.registry.Subscribe(requestID)
	if err != nil {
		return httputil.FromError(err)
	}
	defer unsubscribe()

	return streamEvents(c, "status", statusC)
}

// EmergencyAlarmHandler godoc
// @Summary 비상 신호 설정
// @Description 진행 중인 모든 Phase와 이후 시작되는 Phase에 비상 신호를 전달합니다. 프로토콜은 중단되지 않습니다.
// @Tags Phases
// @Accept json
// @Produce json
// @Param request body request.EmergencyAlarmRequest true "비상 신호"
// @Success 200 {object} response.EmergencyAlarmResponse
// @Failure 400 {object} response.ErrorResponse
// @Router /api/v1/emergency-alarm [post]
func (h *Handler) EmergencyAlarmHandler(c echo.Context) error {
	var req request.EmergencyAlarmRequest
	if err := c.Bind(&req); err != nil {
		return httputil.NewBadRequestError("잘못된 JSON 형식입니다")
	}
	if req.On == nil {
		return httputil.NewBadRequestError("on 필드는 필수입니다")
	}

	h.registry.EmergencyAlarm(*req.On)

	applog.WithComponentAndFields(constants.ComponentHandler, applog.Fields{
		"on":        *req.On,
		"remote_ip": c.RealIP(),
	}).Warn("비상 신호 설정 요청")

	return c.JSON(http.StatusOK, response.EmergencyAlarmResponse{On: h.registry.EmergencyAlarmOn()})
}

// GetEmergencyAlarmHandler godoc
// @Summary 비상 신호 상태
// @Tags Phases
// @Produce json
// @Success 200 {object} response.EmergencyAlarmResponse
// @Router /api/v1/emergency-alarm [get]
func (h *Handler) GetEmergencyAlarmHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, response.EmergencyAlarmResponse{On: h.registry.EmergencyAlarmOn()})
}
