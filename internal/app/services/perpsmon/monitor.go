package perpsmon

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/ArenaX-Network/arena_layer/internal/app/domain/competition"
	"github.com/ArenaX-Network/arena_layer/internal/app/metrics"
	"github.com/ArenaX-Network/arena_layer/internal/app/storage"
	"github.com/ArenaX-Network/arena_layer/pkg/logger"
)

// Monitor periodically syncs every active perps competition. It implements
// the system.Service lifecycle so the application manager owns it.
type Monitor struct {
	svc          *Service
	competitions storage.CompetitionStore
	schedule     string

	cron *cron.Cron
	// tickMu guards against overlapping passes when a sync outlasts the
	// schedule interval.
	tickMu sync.Mutex
	log    *logger.Logger
}

// NewMonitor constructs a monitor with a cron schedule ("@every 1m" style
// or a standard five-field expression).
func NewMonitor(svc *Service, competitions storage.CompetitionStore, schedule string, log *logger.Logger) *Monitor {
	if log == nil {
		log = logger.NewDefault("perps-monitor")
	}
	if schedule == "" {
		schedule = "@every 1m"
	}
	return &Monitor{
		svc:          svc,
		competitions: competitions,
		schedule:     schedule,
		log:          log,
	}
}

func (m *Monitor) Name() string { return "perps-monitor" }

// Start schedules the sync pass and runs one immediately so the store is
// warm before the first interval elapses.
func (m *Monitor) Start(ctx context.Context) error {
	m.cron = cron.New()
	if _, err := m.cron.AddFunc(m.schedule, m.tick); err != nil {
		return fmt.Errorf("schedule %q: %w", m.schedule, err)
	}
	m.cron.Start()
	go m.tick()
	m.log.WithField("schedule", m.schedule).Info("perps monitor started")
	return nil
}

// Stop halts the scheduler and waits for an in-flight pass to finish, or
// for the shutdown context to expire.
func (m *Monitor) Stop(ctx context.Context) error {
	if m.cron == nil {
		return nil
	}
	finished := m.cron.Stop()
	select {
	case <-finished.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Monitor) tick() {
	if !m.tickMu.TryLock() {
		m.log.Warn("previous sync pass still running, skipping tick")
		return
	}
	defer m.tickMu.Unlock()

	ctx := context.Background()
	active, err := m.competitions.ListCompetitions(ctx, competition.StatusActive)
	if err != nil {
		m.log.WithError(err).Error("list active competitions")
		return
	}
	for _, c := range active {
		if c.Type != competition.TypePerps {
			continue
		}
		result, err := m.svc.SyncCompetition(ctx, c.ID)
		if err != nil {
			metrics.RecordPerpsSync(c.ID, 0, false)
			m.log.WithError(err).WithField("competition_id", c.ID).Error("sync competition")
			continue
		}
		metrics.RecordPerpsSync(c.ID, result.AgentsSynced, !result.Failed())
		if result.Failed() {
			m.log.WithFields(map[string]any{
				"competition_id": c.ID,
				"errors":         result.Errors,
			}).Warn("sync pass had per-agent failures")
		}
	}
}
