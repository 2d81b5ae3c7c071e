package health

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ottertune/db-agent/internal/model"
	"github.com/ottertune/db-agent/internal/sink"
)

type fakeSink struct {
	lastKind sink.Kind
	lastBody []byte
	err      error
	calls    int
}

func (f *fakeSink) Ship(ctx context.Context, kind sink.Kind, body []byte) error {
	f.calls++
	f.lastKind = kind
	f.lastBody = body
	return f.err
}

func TestComputeStatus(t *testing.T) {
	assert.Equal(t, model.AgentStatusOK, computeStatus(false, 0))
	assert.Equal(t, model.AgentStatusError, computeStatus(false, 3))
	assert.Equal(t, model.AgentStatusTerminatingOK, computeStatus(true, 0))
	assert.Equal(t, model.AgentStatusTerminatingError, computeStatus(true, 1))
}

func TestFireShipsViaHTTPSKindOnly(t *testing.T) {
	fs := &fakeSink{}
	hb := New(fs, NewMetricsWith(prometheus.NewRegistry()), logrus.New(), "org1", "db1", "1.0.0")
	hb.Fire(context.Background())

	require.Equal(t, 1, fs.calls)
	assert.Equal(t, sink.KindHealth, fs.lastKind)

	var data model.AgentHealthData
	require.NoError(t, json.Unmarshal(fs.lastBody, &data))
	assert.Equal(t, model.AgentStatusOK, data.AgentStatus)
	assert.Equal(t, "org1", data.OrganizationID)
}

func TestFireReportsErrorStatusWhenQueueNonEmpty(t *testing.T) {
	fs := &fakeSink{}
	hb := New(fs, NewMetricsWith(prometheus.NewRegistry()), logrus.New(), "org1", "db1", "1.0.0")
	hb.Queue().Add(errors.New("boom"), "CollectorQueryFailed")
	hb.Fire(context.Background())

	var data model.AgentHealthData
	require.NoError(t, json.Unmarshal(fs.lastBody, &data))
	assert.Equal(t, model.AgentStatusError, data.AgentStatus)
	require.Len(t, data.Errors, 1)
	assert.Equal(t, "boom", data.Errors[0].Data.Message)
}

func TestFireDoesNotEnqueueOnShipFailure(t *testing.T) {
	fs := &fakeSink{err: errors.New("network down")}
	hb := New(fs, NewMetricsWith(prometheus.NewRegistry()), logrus.New(), "org1", "db1", "1.0.0")
	hb.Fire(context.Background())

	assert.Equal(t, 0, hb.Queue().Len())
}

func TestTerminateFlipsStatus(t *testing.T) {
	fs := &fakeSink{}
	hb := New(fs, NewMetricsWith(prometheus.NewRegistry()), logrus.New(), "org1", "db1", "1.0.0")
	hb.Terminate()
	hb.Fire(context.Background())

	var data model.AgentHealthData
	require.NoError(t, json.Unmarshal(fs.lastBody, &data))
	assert.Equal(t, model.AgentStatusTerminatingOK, data.AgentStatus)
}
