package supervisor_test

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"github.com/ottertune/db-agent/internal/supervisor"
)

func discardLogger() logrus.FieldLogger {
	log := logrus.New()
	log.SetOutput(discardWriter{})
	return log
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }

func TestManagerRegistersDisabledAndDisablesJobs(t *testing.T) {
	m := supervisor.NewManager(discardLogger())

	doer := &testDoer{calls: make(chan bool, 1)}
	m.Sync(supervisor.JobQuery, supervisor.Spec{Enabled: false, Period: 30 * time.Second}, doer)

	// A disabled job is never registered, so no scheduler exists to fire it.
	select {
	case <-doer.calls:
		assert.Fail(t, "disabled job should never be registered")
	case <-time.After(200 * time.Millisecond):
	}

	m.Sync(supervisor.JobQuery, supervisor.Spec{Enabled: true, Period: 50 * time.Millisecond}, doer)
	select {
	case <-doer.calls:
	case <-time.After(2 * time.Second):
		assert.Fail(t, "enabled job should have fired within its period")
	}

	// Disabling it again should stop further ticks.
	m.Sync(supervisor.JobQuery, supervisor.Spec{Enabled: false}, doer)
	drain(doer.calls)
	select {
	case <-doer.calls:
		assert.Fail(t, "job should stop ticking once disabled")
	case <-time.After(300 * time.Millisecond):
	}

	m.Close()
}

func TestManagerRegistersImmediateJob(t *testing.T) {
	m := supervisor.NewManager(discardLogger())
	defer m.Close()

	doer := &testDoer{calls: make(chan bool, 1)}
	m.Sync(supervisor.JobDBLevel, supervisor.Spec{Enabled: true, Period: 30 * time.Second, Immediate: true}, doer)

	select {
	case <-doer.calls:
	case <-time.After(2 * time.Second):
		assert.Fail(t, "immediate job should fire right away, not after its full period")
	}
}

func TestManagerSyncIsIdempotentForUnchangedPeriod(t *testing.T) {
	m := supervisor.NewManager(discardLogger())
	defer m.Close()

	doer := &testDoer{calls: make(chan bool, 1)}
	spec := supervisor.Spec{Enabled: true, Period: 30 * time.Second}
	m.Sync(supervisor.JobSchema, spec, doer)
	// Re-syncing the same spec must not tear down and recreate the
	// scheduler (no observable effect here beyond not panicking or
	// blocking).
	m.Sync(supervisor.JobSchema, spec, doer)
}

func drain(ch <-chan bool) {
	select {
	case <-ch:
	default:
	}
}
