package supervisor_test

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ottertune/db-agent/internal/supervisor"
)

// testDoer counts invocations and signals each one on calls, matching the
// Doer interface the real job wrappers (internal/pipeline) implement. With
// block set, Do waits until its signal is received, so a run stays in
// flight until the test reads calls.
type testDoer struct {
	calls     chan bool
	block     bool
	callCount atomic.Int32
	shutdowns atomic.Int32
}

func (d *testDoer) Do() error {
	d.callCount.Add(1)
	if d.block {
		d.calls <- true
		return nil
	}
	select {
	case d.calls <- true:
	default:
	}
	return nil
}

func (d *testDoer) Shutdown() {
	d.shutdowns.Add(1)
}

func TestScheduler(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		t.Parallel()

		doer := &testDoer{calls: make(chan bool, 1)}
		scheduler := supervisor.NewScheduler(doer, 0*time.Second)
		defer func() { require.NoError(t, scheduler.Close()) }()

		require.NoError(t, scheduler.Do())

		select {
		case <-doer.calls:
			assert.Fail(t, "doer should not have been invoked when period is zero")
		case <-time.After(500 * time.Millisecond):
		}
	})

	t.Run("periodic only", func(t *testing.T) {
		t.Parallel()

		doer := &testDoer{calls: make(chan bool, 1)}
		scheduler := supervisor.NewScheduler(doer, 50*time.Millisecond)
		defer func() { require.NoError(t, scheduler.Close()) }()

		for i := 0; i < 5; i++ {
			select {
			case <-doer.calls:
			case <-time.After(5 * time.Second):
				assert.Fail(t, "doer not invoked within 5 seconds")
			}
		}
	})

	t.Run("periodic and manual", func(t *testing.T) {
		t.Parallel()

		doer := &testDoer{calls: make(chan bool, 1)}
		scheduler := supervisor.NewScheduler(doer, 30*time.Second)
		defer func() { require.NoError(t, scheduler.Close()) }()

		require.NoError(t, scheduler.Do())

		select {
		case <-doer.calls:
		case <-time.After(5 * time.Second):
			assert.Fail(t, "doer not invoked within 5 seconds")
		}
	})

	t.Run("after close", func(t *testing.T) {
		t.Parallel()

		doer := &testDoer{calls: make(chan bool, 1)}
		scheduler := supervisor.NewScheduler(doer, 30*time.Second)
		require.NoError(t, scheduler.Close())

		require.NoError(t, scheduler.Do())

		select {
		case <-doer.calls:
			assert.Fail(t, "doer should not have been invoked after scheduler close")
		case <-time.After(500 * time.Millisecond):
		}
	})

	t.Run("while busy", func(t *testing.T) {
		t.Parallel()

		doer := &testDoer{calls: make(chan bool), block: true}
		scheduler := supervisor.NewScheduler(doer, 30*time.Second)
		defer func() { require.NoError(t, scheduler.Close()) }()

		require.NoError(t, scheduler.Do())

		time.Sleep(1 * time.Second)

		// A second request while the first is still in flight must be
		// coalesced into a single additional run, never queued twice: a
		// missed tick is coalesced into the next one.
		require.NoError(t, scheduler.Do())

		select {
		case <-doer.calls:
		case <-time.After(5 * time.Second):
			assert.Fail(t, "doer not invoked within 5 seconds")
		}

		<-doer.calls
	})
}
