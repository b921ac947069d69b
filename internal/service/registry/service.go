// Package registry 실행 중이거나 최근 종료된 도어 Phase를 요청 ID 기준으로 관리합니다.
//
// 도어마다 동시에 하나의 Phase만 진행할 수 있습니다. Phase마다 감시 고루틴이 상태 스트림을 구독하여
// 종료 시점을 기록하고, 종료 이벤트는 서비스 이벤트 루프에서 처리합니다. (Failed 알림 등)
// 종료된 Phase는 보관 기간이 지나면 cron 작업이 정리합니다.
package registry

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/darkkaiser/fleet-adapter/internal/config"
	"github.com/darkkaiser/fleet-adapter/internal/door"
	"github.com/darkkaiser/fleet-adapter/internal/phase"
	applog "github.com/darkkaiser/fleet-adapter/pkg/log"
	"github.com/robfig/cron/v3"
)

const component = "phase.registry"

const (
	defaultQueueSize = 32

	// defaultStopGracePeriod 종료 시 취소된 Phase(보상 닫기 포함)가 끝나기를 기다리는 최대 시간입니다.
	defaultStopGracePeriod = 35 * time.Second
)

type Service struct {
	doors     map[string]struct{}
	retention time.Duration

	deps door.Deps

	notifier Notifier

	mu       sync.RWMutex
	phases   map[string]*entry
	alarmOn  bool
	watchers sync.WaitGroup

	doneC    chan doneEvent
	stoppedC chan struct{}

	cron *cron.Cron

	stopGracePeriod time.Duration

	// now 테스트에서 보관 기간 정리를 검증하기 위해 교체합니다.
	now func() time.Time

	running   bool
	runningMu sync.Mutex
}

// NewService deps.Config가 비어 있으면 appConfig.Phase가 사용됩니다.
func NewService(appConfig *config.AppConfig, deps door.Deps, notifier Notifier) *Service {
	if appConfig == nil {
		panic("AppConfig는 필수입니다")
	}
	if deps.RequestIDs == nil {
		panic("RequestIDGenerator는 필수입니다")
	}

	if deps.Config == (door.Config{}) {
		deps.Config = appConfig.Phase
	}

	doors := make(map[string]struct{}, len(appConfig.Doors))
	for _, d := range appConfig.Doors {
		doors[d.Name] = struct{}{}
	}

	return &Service{
		doors:     doors,
		retention: appConfig.Registry.Retention,

		deps: deps,

		notifier: notifier,

		phases: make(map[string]*entry),

		doneC:    make(chan doneEvent, defaultQueueSize),
		stoppedC: make(chan struct{}),

		stopGracePeriod: defaultStopGracePeriod,

		now: time.Now,
	}
}

func (s *Service) Start(serviceStopCtx context.Context, serviceStopWG *sync.WaitGroup) error {
	s.runningMu.Lock()
	defer s.runningMu.Unlock()

	applog.WithComponent(component).Info("서비스 시작 진입: Phase 레지스트리 서비스 초기화 프로세스를 시작합니다")

	if s.notifier == nil {
		defer serviceStopWG.Done()
		return ErrNotifierNotInitialized
	}

	if s.running {
		defer serviceStopWG.Done()
		applog.WithComponent(component).Warn("Phase 레지스트리 서비스가 이미 실행 중입니다 (중복 호출)")
		return nil
	}

	s.cron = cron.New(
		cron.WithLogger(cron.VerbosePrintfLogger(applog.StandardLogger())),
		cron.WithChain(
			cron.Recover(cron.VerbosePrintfLogger(applog.StandardLogger())),
			cron.SkipIfStillRunning(cron.VerbosePrintfLogger(applog.StandardLogger())),
		),
	)

	interval := s.retention / 2
	if interval < time.Second {
		interval = time.Second
	}
	if _, err := s.cron.AddFunc(fmt.Sprintf("@every %s", interval), s.prune); err != nil {
		defer serviceStopWG.Done()
		return err
	}
	s.cron.Start()

	s.running = true

	go s.runEventLoop(serviceStopCtx, serviceStopWG)

	applog.WithComponentAndFields(component, applog.Fields{
		"doors":          len(s.doors),
		"retention":      s.retention.String(),
		"prune_interval": interval.String(),
	}).Info("서비스 시작 완료: Phase 레지스트리 서비스가 정상적으로 초기화되었습니다")

	return nil
}

func (s *Service) runEventLoop(serviceStopCtx context.Context, serviceStopWG *sync.WaitGroup) {
	defer serviceStopWG.Done()

	for {
		shouldStop := func() bool {
			defer func() {
				if r := recover(); r != nil {
					applog.WithComponentAndFields(component, applog.Fields{
						"panic":          r,
						"done_queue_len": len(s.doneC),
					}).Error("Phase 레지스트리 이벤트 루프 패닉 복구: 이벤트 처리를 재개합니다")
				}
			}()

			select {
			case ev := <-s.doneC:
				s.handlePhaseDone(serviceStopCtx, ev)

			case <-serviceStopCtx.Done():
				s.handleStop()
				return true
			}

			return false
		}()

		if shouldStop {
			return
		}
	}
}

// Running 헬스체크에서 사용합니다.
func (s *Service) Running() bool {
	return s.isRunning()
}

func (s *Service) isRunning() bool {
	s.runningMu.Lock()
	defer s.runningMu.Unlock()

	return s.running
}

// OpenDoor 도어 열기 Phase를 시작합니다.
func (s *Service) OpenDoor(ctx context.Context, doorName string) (Snapshot, error) {
	return s.begin(ctx, doorName, KindOpen)
}

// CloseDoor 도어 닫기 Phase를 시작합니다.
func (s *Service) CloseDoor(ctx context.Context, doorName string) (Snapshot, error) {
	return s.begin(ctx, doorName, KindClose)
}

func (s *Service) begin(_ context.Context, doorName string, kind Kind) (Snapshot, error) {
	if !s.isRunning() {
		return Snapshot{}, ErrNotRunning
	}

	if _, ok := s.doors[doorName]; !ok {
		return Snapshot{}, newErrUnknownDoor(doorName)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range s.phases {
		if e.doorName == doorName && !e.finished() {
			return Snapshot{}, newErrDoorBusy(doorName, e.requestID)
		}
	}

	requestID := s.deps.RequestIDs.NewRequestID()

	var pending phase.PendingPhase
	var err error
	switch kind {
	case KindOpen:
		pending, err = door.NewOpen(doorName, requestID, s.deps)
	default:
		pending, err = door.NewClose(doorName, requestID, s.deps)
	}
	if err != nil {
		return Snapshot{}, err
	}

	e := &entry{
		requestID: requestID,
		doorName:  doorName,
		kind:      kind,
		startedAt: s.now(),
	}
	e.active = pending.Begin()
	if s.alarmOn {
		e.active.EmergencyAlarm(true)
	}
	s.phases[requestID] = e

	statusC, unsubscribe := e.active.Observe().Subscribe()
	s.watchers.Add(1)
	go s.watch(e, statusC, unsubscribe)

	applog.WithComponentAndFields(component, applog.Fields{
		"request_id":  requestID,
		"door_name":   doorName,
		"kind":        kind,
		"description": pending.Description(),
		"estimate":    pending.EstimatePhaseDuration().String(),
	}).Info("Phase 시작")

	return e.snapshot(s.alarmOn), nil
}

// watch 상태 스트림이 끝날 때까지 구독하고, 종료 시각을 기록한 뒤 이벤트 루프에 알립니다.
func (s *Service) watch(e *entry, statusC <-chan phase.Status, unsubscribe func()) {
	defer s.watchers.Done()
	defer unsubscribe()

	var last phase.Status
	for status := range statusC {
		last = status
	}

	if !last.State.IsTerminal() {
		return
	}

	s.mu.Lock()
	e.finishedAt = s.now()
	s.mu.Unlock()

	select {
	case s.doneC <- doneEvent{requestID: e.requestID, status: last}:
	case <-s.stoppedC:
	}
}

func (s *Service) handlePhaseDone(serviceStopCtx context.Context, ev doneEvent) {
	s.mu.RLock()
	e, ok := s.phases[ev.requestID]
	s.mu.RUnlock()

	if !ok {
		applog.WithComponentAndFields(component, applog.Fields{
			"request_id": ev.requestID,
			"reason":     "not_found",
		}).Warn("Phase 종료 처리 무시: 등록되지 않은 요청 ID")
		return
	}

	fields := applog.Fields{
		"request_id": e.requestID,
		"door_name":  e.doorName,
		"kind":       e.kind,
		"state":      ev.status.State.String(),
		"elapsed":    e.finishedAt.Sub(e.startedAt).String(),
	}

	if ev.status.State == phase.StateCompleted {
		applog.WithComponentAndFields(component, fields).Info("Phase 완료")
		return
	}

	applog.WithComponentAndFields(component, fields).Error(ev.status.Description)

	message := fmt.Sprintf("🚨 도어 Phase 실패\n도어: %s\n종류: %s\n요청 ID: %s\n사유: %s", e.doorName, e.kind, e.requestID, ev.status.Description)
	if err := s.notifier.Notify(serviceStopCtx, message); err != nil {
		applog.WithComponentAndFields(component, applog.Fields{
			"request_id": e.requestID,
			"error":      err,
		}).Warn("Phase 실패 알림 요청 실패")
	}
}

// Cancel 진행 중인 Phase를 취소합니다. 이미 종료된 Phase이면 아무 일도 하지 않습니다.
func (s *Service) Cancel(requestID string) (Snapshot, error) {
	s.mu.RLock()
	e, ok := s.phases[requestID]
	alarm := s.alarmOn
	s.mu.RUnlock()

	if !ok {
		return Snapshot{}, newErrPhaseNotFound(requestID)
	}

	e.active.Cancel()

	applog.WithComponentAndFields(component, applog.Fields{
		"request_id": requestID,
		"door_name":  e.doorName,
		"kind":       e.kind,
	}).Info("Phase 취소 요청")

	s.mu.RLock()
	defer s.mu.RUnlock()
	return e.snapshot(alarm), nil
}

// EmergencyAlarm 진행 중인 모든 Phase에 비상 신호를 전달하고, 이후 시작되는 Phase에도 적용합니다.
func (s *Service) EmergencyAlarm(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.alarmOn = on

	affected := 0
	for _, e := range s.phases {
		if e.finished() {
			continue
		}
		e.active.EmergencyAlarm(on)
		affected++
	}

	applog.WithComponentAndFields(component, applog.Fields{
		"alarm":    on,
		"affected": affected,
	}).Warn("비상 신호 전파")
}

func (s *Service) EmergencyAlarmOn() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.alarmOn
}

func (s *Service) Get(requestID string) (Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.phases[requestID]
	if !ok {
		return Snapshot{}, newErrPhaseNotFound(requestID)
	}
	return e.snapshot(s.alarmOn), nil
}

// List 시작 시각 순으로 정렬된 Phase 목록입니다.
func (s *Service) List() []Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]Snapshot, 0, len(s.phases))
	for _, e := range s.phases {
		list = append(list, e.snapshot(s.alarmOn))
	}

	slices.SortFunc(list, func(a, b Snapshot) int {
		if c := a.StartedAt.Compare(b.StartedAt); c != 0 {
			return c
		}
		if a.RequestID < b.RequestID {
			return -1
		}
		if a.RequestID > b.RequestID {
			return 1
		}
		return 0
	})

	return list
}

// Subscribe Phase 상태 스트림을 구독합니다. 종료된 Phase는 마지막 상태 하나와 닫힌 채널을 받습니다.
func (s *Service) Subscribe(requestID string) (<-chan phase.Status, func(), error) {
	s.mu.RLock()
	e, ok := s.phases[requestID]
	s.mu.RUnlock()

	if !ok {
		return nil, nil, newErrPhaseNotFound(requestID)
	}

	statusC, unsubscribe := e.active.Observe().Subscribe()
	return statusC, unsubscribe, nil
}

// prune 보관 기간이 지난 종료 Phase를 제거합니다.
func (s *Service) prune() {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-s.retention)

	removed := 0
	for id, e := range s.phases {
		if e.finished() && e.finishedAt.Before(cutoff) {
			delete(s.phases, id)
			removed++
		}
	}

	if removed > 0 {
		applog.WithComponentAndFields(component, applog.Fields{
			"removed":   removed,
			"remaining": len(s.phases),
		}).Debug("보관 기간이 지난 Phase 정리")
	}
}

func (s *Service) handleStop() {
	applog.WithComponent(component).Info("종료 절차 진입: Phase 레지스트리 서비스 중지 시그널을 수신했습니다")

	s.runningMu.Lock()
	s.running = false
	c := s.cron
	s.cron = nil
	s.runningMu.Unlock()

	if c != nil {
		<-c.Stop().Done()
	}

	close(s.stoppedC)

	s.mu.RLock()
	for _, e := range s.phases {
		if !e.finished() {
			e.active.Cancel()
		}
	}
	s.mu.RUnlock()

	watchersDone := make(chan struct{})
	go func() {
		s.watchers.Wait()
		close(watchersDone)
	}()

	select {
	case <-watchersDone:
		applog.WithComponent(component).Info("Phase 레지스트리 서비스 종료 완료: 모든 Phase가 종료되었습니다")
	case <-time.After(s.stopGracePeriod):
		applog.WithComponentAndFields(component, applog.Fields{
			"grace_period": s.stopGracePeriod.String(),
		}).Warn("Phase 레지스트리 서비스 종료: 유예 시간 내에 끝나지 않은 Phase가 있습니다")
	}
}
