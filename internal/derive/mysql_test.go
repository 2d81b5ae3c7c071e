package derive

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBufferMissRatioZeroRequests(t *testing.T) {
	assert.Equal(t, 0.0, BufferMissRatio(map[string]string{}))
}

func TestBufferMissRatio(t *testing.T) {
	status := map[string]string{
		"innodb_buffer_pool_reads":         "100",
		"innodb_buffer_pool_read_requests": "10000",
	}
	assert.InDelta(t, 1.0, BufferMissRatio(status), 0.0001)
}

func TestReadWriteRatioFloorsAtOne(t *testing.T) {
	assert.Equal(t, 1.0, ReadWriteRatio(map[string]string{}))
}

func TestReadWriteRatio(t *testing.T) {
	status := map[string]string{
		"com_select": "200",
		"com_insert": "50",
		"com_update": "25",
		"com_delete": "25",
	}
	assert.InDelta(t, 2.0, ReadWriteRatio(status), 0.0001)
}
