// Package health implements the heartbeat job and its backing error queue:
// on every fire it classifies agent status, atomically drains the error
// queue, and ships an AgentHealthData record over HTTPS — never S3, and
// never itself a source of enqueued errors.
package health

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/ottertune/db-agent/internal/errqueue"
	"github.com/ottertune/db-agent/internal/model"
	"github.com/ottertune/db-agent/internal/sink"
)

// Heartbeat owns the error queue and ships AgentHealthData on its own
// schedule. It is constructed once at startup and shared by every
// component that can call Queue().Add.
type Heartbeat struct {
	queue   *errqueue.Queue
	sink    sink.Sink
	metrics *Metrics
	log     logrus.FieldLogger

	organizationID string
	dbKey          string
	agentVersion   string
	startTime      time.Time

	now          func() time.Time
	terminating  atomic.Bool
}

// New builds a Heartbeat. sink must be the HTTPS sink; the object-store
// sink is never used for health payloads.
func New(httpsSink sink.Sink, metrics *Metrics, log logrus.FieldLogger, organizationID, dbKey, agentVersion string) *Heartbeat {
	return &Heartbeat{
		queue:          errqueue.New(),
		sink:           httpsSink,
		metrics:        metrics,
		log:            log,
		organizationID: organizationID,
		dbKey:          dbKey,
		agentVersion:   agentVersion,
		startTime:      time.Now().UTC(),
		now:            time.Now,
	}
}

// Queue returns the shared error queue that every other component enqueues
// failures onto; any component may call Add on it at any time.
func (h *Heartbeat) Queue() *errqueue.Queue {
	return h.queue
}

// Terminate marks the agent as shutting down; the next Fire (and every
// subsequent one) reports a terminating status instead of ok/error.
func (h *Heartbeat) Terminate() {
	h.terminating.Store(true)
}

// Fire computes status, drains the queue, and ships the resulting
// AgentHealthData. A shipping failure is logged but deliberately NOT
// enqueued back onto the error queue — the heartbeat must never become a
// source of the errors it reports, which would let it amplify rather than
// converge.
func (h *Heartbeat) Fire(ctx context.Context) {
	records := h.queue.Drain()
	h.metrics.QueueDepth.Set(0)

	status := computeStatus(h.terminating.Load(), len(records))

	now := h.now().UTC()
	data := model.AgentHealthData{
		OrganizationID: h.organizationID,
		DBKey:          h.dbKey,
		AgentStatus:    status,
		AgentStartTime: h.startTime.Format(time.RFC3339),
		HeartbeatTime:  now.Format(time.RFC3339),
		AgentVersion:   h.agentVersion,
		Errors:         toHealthErrors(records),
	}

	body, err := json.Marshal(data)
	if err != nil {
		h.log.WithError(err).Error("failed to marshal agent health payload")
		return
	}

	h.metrics.HeartbeatsSent.Inc()
	if err := h.sink.Ship(ctx, sink.KindHealth, body); err != nil {
		h.log.WithError(errors.Wrap(err, "ship agent health")).Warn("heartbeat post failed")
	}
}

func computeStatus(terminating bool, queueLen int) model.AgentStatus {
	switch {
	case !terminating && queueLen == 0:
		return model.AgentStatusOK
	case !terminating && queueLen > 0:
		return model.AgentStatusError
	case terminating && queueLen == 0:
		return model.AgentStatusTerminatingOK
	default:
		return model.AgentStatusTerminatingError
	}
}

func toHealthErrors(records []model.ErrorRecord) []model.HealthError {
	out := make([]model.HealthError, 0, len(records))
	for _, r := range records {
		out = append(out, model.HealthError{
			Data: model.HealthErrorData{
				Name:       r.Name,
				Message:    r.Message,
				Stacktrace: r.Stacktrace,
			},
			Timestamp: time.Unix(r.Timestamp, 0).UTC().Format(time.RFC3339),
		})
	}
	return out
}
