package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/darkkaiser/fleet-adapter/internal/config"
	"github.com/darkkaiser/fleet-adapter/internal/door"
	"github.com/darkkaiser/fleet-adapter/internal/phase"
	"github.com/darkkaiser/fleet-adapter/internal/pkg/idgen"
	"github.com/darkkaiser/fleet-adapter/internal/pkg/version"
	"github.com/darkkaiser/fleet-adapter/internal/service/api/model/system"
	"github.com/darkkaiser/fleet-adapter/internal/service/registry"
	"github.com/darkkaiser/fleet-adapter/internal/transport"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, string) error { return nil }

type testEnv struct {
	appConfig *config.AppConfig
	deps      Deps
	registry  *registry.Service
}

func newTestConfig() *config.AppConfig {
	cfg := config.Default()
	cfg.Doors = []config.DoorConfig{{Name: "main_door"}}
	cfg.Phase.Open.ResendInterval = 20 * time.Millisecond
	cfg.Phase.Close.ResendInterval = 20 * time.Millisecond
	cfg.Phase.Close.Deadline = 300 * time.Millisecond
	cfg.API.ListenPort = 0
	cfg.API.RateLimit.Enabled = false
	return &cfg
}

// newTestEnv Phase 레지스트리를 시작하고, 테스트 종료 시 레지스트리와 피드를 정리합니다.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cfg := newTestConfig()

	doorStates := transport.NewDoorStateBroadcaster()
	heartbeats := transport.NewBroadcaster[door.Heartbeat]()
	requests := transport.NewBroadcaster[door.Request]()

	reg := registry.NewService(cfg, door.Deps{
		Publisher:  transport.NewLoopbackPublisher(requests),
		DoorStates: doorStates,
		Heartbeats: heartbeats,
		RequestIDs: idgen.New("door"),
	}, nopNotifier{})

	ctx, cancel := context.WithCancel(context.Background())
	wg := &sync.WaitGroup{}
	wg.Add(1)
	require.NoError(t, reg.Start(ctx, wg))

	t.Cleanup(func() {
		cancel()
		wg.Wait()
		doorStates.Close()
		heartbeats.Close()
		requests.Close()
	})

	return &testEnv{
		appConfig: cfg,
		deps: Deps{
			Registry:     reg,
			DoorStates:   doorStates,
			Heartbeats:   heartbeats,
			DoorRequests: requests,
		},
		registry: reg,
	}
}

func serve(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestNewService_Panics(t *testing.T) {
	assert.PanicsWithValue(t, "AppConfig는 필수입니다", func() {
		NewService(nil, Deps{}, version.Info{})
	})
	assert.PanicsWithValue(t, "DoorStates/Heartbeats 피드는 필수입니다", func() {
		NewService(newTestConfig(), Deps{}, version.Info{})
	})
}

func TestService_SystemRoutes(t *testing.T) {
	env := newTestEnv(t)
	s := NewService(env.appConfig, env.deps, version.Info{Version: "v1.0.0", Commit: "abc1234"})
	e := s.setupServer()

	t.Run("Health", func(t *testing.T) {
		rec := serve(e, http.MethodGet, "/health", "")
		require.Equal(t, http.StatusOK, rec.Code)

		var body system.HealthResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "healthy", body.Status)
		assert.Contains(t, body.Dependencies, "phase_registry")
		assert.Contains(t, body.Dependencies, "door_state_feed")
	})

	t.Run("Version", func(t *testing.T) {
		rec := serve(e, http.MethodGet, "/version", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"version":"v1.0.0"`)
		assert.Contains(t, rec.Body.String(), `"commit":"abc1234"`)
	})

	t.Run("Swagger", func(t *testing.T) {
		rec := serve(e, http.MethodGet, "/swagger/doc.json", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "/api/v1/doors/{door}/open")
	})

	t.Run("UnknownRoute", func(t *testing.T) {
		rec := serve(e, http.MethodGet, "/nope", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Contains(t, rec.Body.String(), "요청한 리소스를 찾을 수 없습니다")
	})

	t.Run("SecurityHeaders", func(t *testing.T) {
		rec := serve(e, http.MethodGet, "/version", "")
		assert.Empty(t, rec.Header().Get(echo.HeaderServer))
		assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))
		assert.Equal(t, "nosniff", rec.Header().Get(echo.HeaderXContentTypeOptions))
	})
}

func TestService_OpenDoorFlow(t *testing.T) {
	env := newTestEnv(t)
	e := NewService(env.appConfig, env.deps, version.Info{}).setupServer()

	rec := serve(e, http.MethodPost, "/api/v1/doors/main_door/open", "")
	require.Equal(t, http.StatusAccepted, rec.Code)

	var snap registry.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	require.NotEmpty(t, snap.RequestID)

	assert.Equal(t, http.StatusConflict, serve(e, http.MethodPost, "/api/v1/doors/main_door/close", "").Code)
	assert.Equal(t, http.StatusNotFound, serve(e, http.MethodPost, "/api/v1/doors/garage/open", "").Code)

	// 감독자 heartbeat와 도어 상태를 피드로 전달하면 Phase가 완료됩니다.
	require.Equal(t, http.StatusAccepted, serve(e, http.MethodPost, "/api/v1/feeds/supervisor-heartbeats",
		fmt.Sprintf(`{"active_request_ids":[%q]}`, snap.RequestID)).Code)
	require.Equal(t, http.StatusAccepted, serve(e, http.MethodPost, "/api/v1/feeds/door-states",
		`{"door_name":"main_door","current_mode":"OPEN"}`).Code)

	require.Eventually(t, func() bool {
		rec := serve(e, http.MethodGet, "/api/v1/phases/"+snap.RequestID, "")
		var got registry.Snapshot
		return json.Unmarshal(rec.Body.Bytes(), &got) == nil && got.Status.State == phase.StateCompleted
	}, 2*time.Second, 10*time.Millisecond)

	// 종료된 Phase의 스트림은 마지막 상태를 전송하고 즉시 닫힙니다.
	events := serve(e, http.MethodGet, "/api/v1/phases/"+snap.RequestID+"/events", "")
	assert.Equal(t, http.StatusOK, events.Code)
	assert.Contains(t, events.Body.String(), `"state":"completed"`)
}

func TestService_StartAndShutdown(t *testing.T) {
	env := newTestEnv(t)
	s := NewService(env.appConfig, env.deps, version.Info{})

	ctx, cancel := context.WithCancel(context.Background())
	wg := &sync.WaitGroup{}
	wg.Add(1)
	require.NoError(t, s.Start(ctx, wg))

	select {
	case <-s.Ready():
	case <-time.After(2 * time.Second):
		t.Fatal("HTTP 서버가 시작되지 않았습니다")
	}

	client := &http.Client{Transport: &http.Transport{DisableKeepAlives: true}}
	base := "http://" + s.Addr().String()

	resp, err := client.Get(base + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// 열린 SSE 스트림이 있어도 종료가 지연되지 않아야 합니다.
	streamResp, err := client.Get(base + "/api/v1/door-requests/events")
	require.NoError(t, err)
	defer streamResp.Body.Close()
	assert.Equal(t, "text/event-stream", streamResp.Header.Get(echo.HeaderContentType))

	stopped := make(chan struct{})
	go func() {
		cancel()
		wg.Wait()
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-time.After(3 * time.Second):
		t.Fatal("API 서비스가 제시간에 종료되지 않았습니다")
	}

	_, _ = io.Copy(io.Discard, streamResp.Body)
}

func TestService_StartWithoutRegistry(t *testing.T) {
	env := newTestEnv(t)
	deps := env.deps
	deps.Registry = nil

	wg := &sync.WaitGroup{}
	wg.Add(1)
	assert.ErrorIs(t, NewService(env.appConfig, deps, version.Info{}).Start(context.Background(), wg), ErrRegistryNotInitialized)
	wg.Wait()
}
