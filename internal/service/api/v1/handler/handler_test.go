package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/darkkaiser/fleet-adapter/internal/door"
	"github.com/darkkaiser/fleet-adapter/internal/phase"
	apperrors "github.com/darkkaiser/fleet-adapter/internal/pkg/errors"
	"github.com/darkkaiser/fleet-adapter/internal/service/api/httputil"
	"github.com/darkkaiser/fleet-adapter/internal/service/api/model/response"
	"github.com/darkkaiser/fleet-adapter/internal/service/registry"
	"github.com/darkkaiser/fleet-adapter/internal/transport"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockRegistry struct {
	mock.Mock
}

func (m *mockRegistry) OpenDoor(ctx context.Context, doorName string) (registry.Snapshot, error) {
	args := m.Called(ctx, doorName)
	return args.Get(0).(registry.Snapshot), args.Error(1)
}

func (m *mockRegistry) CloseDoor(ctx context.Context, doorName string) (registry.Snapshot, error) {
	args := m.Called(ctx, doorName)
	return args.Get(0).(registry.Snapshot), args.Error(1)
}

func (m *mockRegistry) Cancel(requestID string) (registry.Snapshot, error) {
	args := m.Called(requestID)
	return args.Get(0).(registry.Snapshot), args.Error(1)
}

func (m *mockRegistry) Get(requestID string) (registry.Snapshot, error) {
	args := m.Called(requestID)
	return args.Get(0).(registry.Snapshot), args.Error(1)
}

func (m *mockRegistry) List() []registry.Snapshot {
	return m.Called().Get(0).([]registry.Snapshot)
}

func (m *mockRegistry) Subscribe(requestID string) (<-chan phase.Status, func(), error) {
	args := m.Called(requestID)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(<-chan phase.Status), args.Get(1).(func()), args.Error(2)
}

func (m *mockRegistry) EmergencyAlarm(on bool) {
	m.Called(on)
}

func (m *mockRegistry) EmergencyAlarmOn() bool {
	return m.Called().Bool(0)
}

type fixture struct {
	e          *echo.Echo
	registry   *mockRegistry
	doorStates *transport.Broadcaster[door.State]
	heartbeats *transport.Broadcaster[door.Heartbeat]
	requests   *transport.Broadcaster[door.Request]
}

func newFixture(t *testing.T, withRequests bool) *fixture {
	t.Helper()

	f := &fixture{
		e:          echo.New(),
		registry:   &mockRegistry{},
		doorStates: transport.NewDoorStateBroadcaster(),
		heartbeats: transport.NewBroadcaster[door.Heartbeat](),
	}
	f.e.HTTPErrorHandler = httputil.ErrorHandler

	var requests door.Feed[door.Request]
	if withRequests {
		f.requests = transport.NewBroadcaster[door.Request]()
		requests = f.requests
	}

	h := NewHandler(f.registry, f.doorStates, f.heartbeats, requests)

	f.e.POST("/doors/:door/open", h.OpenDoorHandler)
	f.e.POST("/doors/:door/close", h.CloseDoorHandler)
	f.e.GET("/phases", h.ListPhasesHandler)
	f.e.GET("/phases/:id", h.GetPhaseHandler)
	f.e.DELETE("/phases/:id", h.CancelPhaseHandler)
	f.e.GET("/phases/:id/events", h.PhaseEventsHandler)
	f.e.GET("/emergency-alarm", h.GetEmergencyAlarmHandler)
	f.e.POST("/emergency-alarm", h.EmergencyAlarmHandler)
	f.e.POST("/feeds/door-states", h.DoorStateHandler)
	f.e.POST("/feeds/supervisor-heartbeats", h.HeartbeatHandler)
	f.e.GET("/door-requests/events", h.DoorRequestEventsHandler)

	t.Cleanup(func() {
		f.doorStates.Close()
		f.heartbeats.Close()
		if f.requests != nil {
			f.requests.Close()
		}
	})

	return f
}

func (f *fixture) do(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) response.ErrorResponse {
	t.Helper()

	var body response.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestHandler_OpenCloseDoor(t *testing.T) {
	f := newFixture(t, false)

	snap := registry.Snapshot{
		RequestID: "door-1",
		DoorName:  "main_door",
		Kind:      registry.KindOpen,
		Status:    phase.Underway("Opening [main_door]"),
	}
	f.registry.On("OpenDoor", mock.Anything, "main_door").Return(snap, nil)
	f.registry.On("OpenDoor", mock.Anything, "garage").Return(registry.Snapshot{}, apperrors.New(apperrors.NotFound, "등록되지 않은 도어입니다: 'garage'"))
	f.registry.On("CloseDoor", mock.Anything, "main_door").Return(registry.Snapshot{}, apperrors.New(apperrors.Conflict, "busy"))

	t.Run("Success_Accepted", func(t *testing.T) {
		rec := f.do(http.MethodPost, "/doors/main_door/open", "")
		assert.Equal(t, http.StatusAccepted, rec.Code)

		var got registry.Snapshot
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, snap.RequestID, got.RequestID)
		assert.Equal(t, phase.StateUnderway, got.Status.State)
	})

	t.Run("Fail_UnknownDoor", func(t *testing.T) {
		rec := f.do(http.MethodPost, "/doors/garage/open", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Contains(t, decodeError(t, rec).Message, "garage")
	})

	t.Run("Fail_Busy", func(t *testing.T) {
		rec := f.do(http.MethodPost, "/doors/main_door/close", "")
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, http.StatusConflict, decodeError(t, rec).ResultCode)
	})
}

func TestHandler_Phases(t *testing.T) {
	f := newFixture(t, false)

	list := []registry.Snapshot{{RequestID: "door-1"}, {RequestID: "door-2"}}
	f.registry.On("List").Return(list)
	f.registry.On("Get", "door-1").Return(list[0], nil)
	f.registry.On("Get", "missing").Return(registry.Snapshot{}, apperrors.New(apperrors.NotFound, "missing"))
	f.registry.On("Cancel", "door-1").Return(list[0], nil)

	rec := f.do(http.MethodGet, "/phases", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var got []registry.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Len(t, got, 2)

	assert.Equal(t, http.StatusOK, f.do(http.MethodGet, "/phases/door-1", "").Code)
	assert.Equal(t, http.StatusNotFound, f.do(http.MethodGet, "/phases/missing", "").Code)
	assert.Equal(t, http.StatusAccepted, f.do(http.MethodDelete, "/phases/door-1", "").Code)

	f.registry.AssertCalled(t, "Cancel", "door-1")
}

func TestHandler_PhaseEvents(t *testing.T) {
	f := newFixture(t, false)

	statusC := make(chan phase.Status, 2)
	statusC <- phase.Underway("Opening [main_door]")
	statusC <- phase.Completed("Door [main_door] is open")
	close(statusC)

	unsubscribed := false
	f.registry.On("Subscribe", "door-1").Return((<-chan phase.Status)(statusC), func() { unsubscribed = true }, nil)
	f.registry.On("Subscribe", "missing").Return(nil, nil, apperrors.New(apperrors.NotFound, "missing"))

	t.Run("Success_StreamUntilTerminal", func(t *testing.T) {
		rec := f.do(http.MethodGet, "/phases/door-1/events", "")

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "text/event-stream", rec.Header().Get(echo.HeaderContentType))

		body := rec.Body.String()
		assert.Equal(t, 2, strings.Count(body, "event: status\n"))
		assert.Contains(t, body, `data: {"state":"completed","description":"Door [main_door] is open"}`)
		assert.True(t, unsubscribed)
	})

	t.Run("Fail_NotFound", func(t *testing.T) {
		assert.Equal(t, http.StatusNotFound, f.do(http.MethodGet, "/phases/missing/events", "").Code)
	})
}

func TestHandler_EmergencyAlarm(t *testing.T) {
	f := newFixture(t, false)

	f.registry.On("EmergencyAlarm", true).Return()
	f.registry.On("EmergencyAlarmOn").Return(true)

	t.Run("Success_Set", func(t *testing.T) {
		rec := f.do(http.MethodPost, "/emergency-alarm", `{"on":true}`)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"on":true}`, rec.Body.String())
		f.registry.AssertCalled(t, "EmergencyAlarm", true)
	})

	t.Run("Success_Get", func(t *testing.T) {
		rec := f.do(http.MethodGet, "/emergency-alarm", "")
		assert.JSONEq(t, `{"on":true}`, rec.Body.String())
	})

	t.Run("Fail_MissingField", func(t *testing.T) {
		rec := f.do(http.MethodPost, "/emergency-alarm", `{}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("Fail_InvalidJSON", func(t *testing.T) {
		rec := f.do(http.MethodPost, "/emergency-alarm", `{"on":`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHandler_DoorStateFeed(t *testing.T) {
	f := newFixture(t, false)

	states, unsubscribe := f.doorStates.Subscribe()
	defer unsubscribe()

	t.Run("Success_Delivered", func(t *testing.T) {
		rec := f.do(http.MethodPost, "/feeds/door-states", `{"door_name":"main_door","current_mode":"open","time":"2026-01-01T00:00:00Z"}`)
		require.Equal(t, http.StatusAccepted, rec.Code)
		assert.JSONEq(t, `{"result_code":0,"delivered":true}`, rec.Body.String())

		select {
		case st := <-states:
			assert.Equal(t, "main_door", st.DoorName)
			assert.Equal(t, door.ModeOpen, st.Mode)
			assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), st.Time.UTC())
		case <-time.After(time.Second):
			t.Fatal("도어 상태가 피드로 전달되지 않았습니다")
		}
	})

	tests := []struct {
		name string
		body string
	}{
		{"Fail_InvalidJSON", `{"door_name":`},
		{"Fail_NotObject", `[1,2]`},
		{"Fail_MissingDoor", `{"current_mode":"OPEN"}`},
		{"Fail_DoorNotString", `{"door_name":3,"current_mode":"OPEN"}`},
		{"Fail_UnknownMode", `{"door_name":"main_door","current_mode":"AJAR"}`},
		{"Fail_BadTime", `{"door_name":"main_door","current_mode":"OPEN","time":"yesterday"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, http.StatusBadRequest, f.do(http.MethodPost, "/feeds/door-states", tt.body).Code)
		})
	}
}

func TestHandler_HeartbeatFeed(t *testing.T) {
	f := newFixture(t, false)

	heartbeats, unsubscribe := f.heartbeats.Subscribe()
	defer unsubscribe()

	rec := f.do(http.MethodPost, "/feeds/supervisor-heartbeats", `{"active_request_ids":["door-1","door-2"]}`)
	require.Equal(t, http.StatusAccepted, rec.Code)

	select {
	case hb := <-heartbeats:
		assert.Equal(t, []string{"door-1", "door-2"}, hb.ActiveRequestIDs)
		assert.False(t, hb.Time.IsZero())
	case <-time.After(time.Second):
		t.Fatal("heartbeat가 피드로 전달되지 않았습니다")
	}

	assert.Equal(t, http.StatusAccepted, f.do(http.MethodPost, "/feeds/supervisor-heartbeats", `{"active_request_ids":[]}`).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodPost, "/feeds/supervisor-heartbeats", `{}`).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodPost, "/feeds/supervisor-heartbeats", `{"active_request_ids":[1]}`).Code)
}

func TestHandler_FeedClosed(t *testing.T) {
	f := newFixture(t, false)
	f.doorStates.Close()

	rec := f.do(http.MethodPost, "/feeds/door-states", `{"door_name":"main_door","current_mode":"OPEN"}`)
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.JSONEq(t, `{"result_code":0,"delivered":false}`, rec.Body.String())
}

func TestHandler_DoorRequestEvents(t *testing.T) {
	t.Run("Fail_NotLoopback", func(t *testing.T) {
		f := newFixture(t, false)
		assert.Equal(t, http.StatusNotFound, f.do(http.MethodGet, "/door-requests/events", "").Code)
	})

	t.Run("Success_StreamsPublishedRequests", func(t *testing.T) {
		f := newFixture(t, true)

		done := make(chan *httptest.ResponseRecorder)
		go func() {
			done <- f.do(http.MethodGet, "/door-requests/events", "")
		}()

		require.Eventually(t, func() bool { return f.requests.SubscriberCount() == 1 }, time.Second, 5*time.Millisecond)

		f.requests.Broadcast(door.Request{DoorName: "main_door", RequestID: "door-1", Mode: door.ModeOpen})

		// 버스가 닫히면 스트림이 종료됩니다.
		f.requests.Close()

		rec := <-done
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "event: door_request\n")
		assert.Contains(t, rec.Body.String(), `"request_id":"door-1"`)
	})
}
