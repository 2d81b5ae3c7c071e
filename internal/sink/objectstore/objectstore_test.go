package objectstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ottertune/db-agent/internal/sink"
)

func TestObjectKeyFormat(t *testing.T) {
	s := &Sink{
		cfg: Config{OrganizationID: "org1", DBKey: "db1"},
		now: func() time.Time { return time.Date(2026, 3, 4, 17, 30, 0, 0, time.UTC) },
	}
	assert.Equal(t, "org1/db1/DB/20260304/17/data", s.objectKey("DB"))
}

func TestShipRejectsHealthKind(t *testing.T) {
	s := &Sink{cfg: Config{OrganizationID: "org1", DBKey: "db1"}, now: time.Now}
	err := s.Ship(context.Background(), sink.KindHealth, []byte(`{}`))
	require.Error(t, err)
}

func TestGzipBytesRoundTrips(t *testing.T) {
	compressed, err := gzipBytes([]byte(`{"a":1}`))
	require.NoError(t, err)
	assert.NotEmpty(t, compressed)
}
