package handler

import (
	"io"
	"net/http"
	"time"

	"github.com/darkkaiser/fleet-adapter/internal/door"
	"github.com/darkkaiser/fleet-adapter/internal/service/api/constants"
	"github.com/darkkaiser/fleet-adapter/internal/service/api/httputil"
	"github.com/darkkaiser/fleet-adapter/internal/service/api/model/response"
	applog "github.com/darkkaiser/fleet-adapter/pkg/log"
	"github.com/labstack/echo/v4"
	"github.com/tidwall/gjson"
)

// readJSONBody 요청 본문을 읽어 유효한 JSON 객체인지 확인합니다.
func readJSONBody(c echo.Context) (gjson.Result, error) {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return gjson.Result{}, httputil.NewBadRequestError("요청 본문을 읽을 수 없습니다")
	}
	if len(body) == 0 {
		return gjson.Result{}, httputil.NewBadRequestError("요청 본문이 비어있습니다")
	}
	if !gjson.ValidBytes(body) {
		return gjson.Result{}, httputil.NewBadRequestError("잘못된 JSON 형식입니다")
	}

	root := gjson.ParseBytes(body)
	if !root.IsObject() {
		return gjson.Result{}, httputil.NewBadRequestError("요청 본문은 JSON 객체여야 합니다")
	}

	return root, nil
}

// parseTime time 필드가 있으면 RFC3339로 해석하고, 없으면 수신 시각을 사용합니다.
func parseTime(root gjson.Result) (time.Time, error) {
	v := root.Get("time")
	if !v.Exists() || v.String() == "" {
		return time.Now(), nil
	}

	t, err := time.Parse(time.RFC3339Nano, v.String())
	if err != nil {
		return time.Time{}, httputil.NewBadRequestError("time 필드는 RFC3339 형식이어야 합니다")
	}
	return t, nil
}

// DoorStateHandler godoc
// @Summary 도어 상태 수신
// @Description 도어 컨트롤러가 보고한 도어 상태를 피드로 전달합니다. current_mode는 CLOSED, MOVING, OPEN, OFFLINE, UNKNOWN 중 하나입니다.
// @Tags Feeds
// @Accept json
// @Produce json
// @Param request body request.DoorStateRequest true "도어 상태"
// @Success 202 {object} response.AcceptedResponse
// @Failure 400 {object} response.ErrorResponse
// @Router /api/v1/feeds/door-states [post]
func (h *Handler) DoorStateHandler(c echo.Context) error {
	root, err := readJSONBody(c)
	if err != nil {
		return err
	}

	doorName := root.Get("door_name")
	if doorName.Type != gjson.String || doorName.String() == "" {
		return httputil.NewBadRequestError("door_name 필드는 필수입니다")
	}

	mode, ok := door.ParseMode(root.Get("current_mode").String())
	if !ok {
		return httputil.NewBadRequestError("current_mode 값이 올바르지 않습니다")
	}

	t, err := parseTime(root)
	if err != nil {
		return err
	}

	state := door.State{DoorName: doorName.String(), Mode: mode, Time: t}
	delivered := h.doorStates.Broadcast(state)

	applog.WithComponentAndFields(constants.ComponentHandler, applog.Fields{
		"door_name": state.DoorName,
		"mode":      state.Mode.String(),
		"delivered": delivered,
	}).Trace("도어 상태 수신")

	return c.JSON(http.StatusAccepted, response.AcceptedResponse{Delivered: delivered})
}

// HeartbeatHandler godoc
// @Summary 감독자 heartbeat 수신
// @Description 도어 감독자가 현재 처리 중인 요청 ID 목록을 피드로 전달합니다.
// @Tags Feeds
// @Accept json
// @Produce json
// @Param request body request.HeartbeatRequest true "heartbeat"
// @Success 202 {object} response.AcceptedResponse
// @Failure 400 {object} response.ErrorResponse
// @Router /api/v1/feeds/supervisor-heartbeats [post]
func (h *Handler) HeartbeatHandler(c echo.Context) error {
	root, err := readJSONBody(c)
	if err != nil {
		return err
	}

	ids := root.Get("active_request_ids")
	if !ids.IsArray() {
		return httputil.NewBadRequestError("active_request_ids 필드는 배열이어야 합니다")
	}

	elems := ids.Array()
	requestIDs := make([]string, 0, len(elems))
	for _, id := range elems {
		if id.Type != gjson.String {
			return httputil.NewBadRequestError("active_request_ids 항목은 문자열이어야 합니다")
		}
		requestIDs = append(requestIDs, id.String())
	}

	t, err := parseTime(root)
	if err != nil {
		return err
	}

	delivered := h.heartbeats.Broadcast(door.Heartbeat{ActiveRequestIDs: requestIDs, Time: t})

	applog.WithComponentAndFields(constants.ComponentHandler, applog.Fields{
		"active_request_ids": len(requestIDs),
		"delivered":          delivered,
	}).Trace("감독자 heartbeat 수신")

	return c.JSON(http.StatusAccepted, response.AcceptedResponse{Delivered: delivered})
}

// DoorRequestEventsHandler godoc
// @Summary 도어 명령 스트림
// @Description loopback 전송 방식에서 발행된 도어 명령을 Server-Sent Events로 전송합니다. 도어 컨트롤러가 구독합니다.
// @Tags Feeds
// @Produce text/event-stream
// @Success 200 {object} door.Request
// @Failure 404 {object} response.ErrorResponse "loopback 전송 방식이 아님"
// @Router /api/v1/door-requests/events [get]
func (h *Handler) DoorRequestEventsHandler(c echo.Context) error {
	if h.doorRequests == nil {
		return httputil.NewNotFoundError("도어 명령 스트림은 loopback 전송 방식에서만 제공됩니다")
	}

	requestC, unsubscribe := h.doorRequests.Subscribe()
	defer unsubscribe()

	return streamEvents(c, "door_request", requestC)
}
