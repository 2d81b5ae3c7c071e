package supervisor

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Job names one of the five pipeline kinds, or the heartbeat, that the
// Manager schedules. This package does not import internal/pipeline;
// cmd/agent maps each pipeline.Kind onto its Job.
type Job string

const (
	JobDBLevel          Job = "DB"
	JobTableLevel       Job = "TABLE"
	JobLongRunningQuery Job = "LONG_RUNNING_QUERY"
	JobQuery            Job = "QUERY"
	JobSchema           Job = "SCHEMA"
	JobHeartbeat        Job = "HEARTBEAT"
)

// Spec is one job's desired schedule, as recomputed from config on every
// build/reconfiguration.
type Spec struct {
	Enabled bool
	Period  time.Duration
	// Immediate requests next_run_time = now instead of now+period: when a
	// job is absent, it registers with next_run_time = now. The agent
	// applies this only to the DB-level job; every other job defers its
	// first run by one interval.
	Immediate bool
}

// Manager owns one Scheduler per job id and applies the add/update rules:
// register a job that doesn't exist yet, leave an unchanged job alone,
// reschedule one whose interval changed, and stop one that became disabled.
// Modifying a job's arguments needs no explicit action here: every Doer
// reads the live config through the Dispatcher's atomic pointer at fire
// time, so a changed argument is already in effect on the next tick
// without touching the Scheduler at all.
type Manager struct {
	mu   sync.Mutex
	jobs map[Job]*Scheduler
	log  logrus.FieldLogger
}

// NewManager returns an empty Manager.
func NewManager(log logrus.FieldLogger) *Manager {
	return &Manager{jobs: make(map[Job]*Scheduler), log: log}
}

// Sync applies the desired Spec for one job id: registers if absent,
// reschedules if the period changed, stops if the job became disabled,
// and otherwise does nothing.
func (m *Manager) Sync(id Job, spec Spec, doer Doer) {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.jobs[id]

	if !spec.Enabled {
		if ok {
			m.closeLocked(id)
		}
		return
	}

	if !ok {
		s := NewScheduler(doer, spec.Period)
		m.jobs[id] = s
		if spec.Immediate {
			_ = s.Do()
		}
		m.log.WithField("job", string(id)).WithField("period", spec.Period).Info("registered job")
		return
	}

	if existing.Period() == spec.Period {
		return
	}

	m.log.WithField("job", string(id)).WithField("old_period", existing.Period()).
		WithField("new_period", spec.Period).Info("rescheduling job")
	m.closeLocked(id)
	m.jobs[id] = NewScheduler(doer, spec.Period)
}

func (m *Manager) closeLocked(id Job) {
	if s, ok := m.jobs[id]; ok {
		if err := s.Close(); err != nil {
			m.log.WithError(err).WithField("job", string(id)).Warn("failed to close job scheduler")
		}
		delete(m.jobs, id)
	}
}

// Close stops every registered job, waiting for in-flight ticks to finish:
// it stops accepting new ticks and lets in-flight ticks finish.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id := range m.jobs {
		m.closeLocked(id)
	}
}
