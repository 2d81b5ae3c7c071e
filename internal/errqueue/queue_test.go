package errqueue

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDrainIsAtomicAndEmpties(t *testing.T) {
	q := New()
	q.Add(errors.New("boom1"), "err1")
	q.Add(errors.New("boom2"), "err2")

	require.Equal(t, 2, q.Len())

	drained := q.Drain()
	require.Len(t, drained, 2)
	assert.Equal(t, "err1", drained[0].Name)
	assert.Equal(t, "err2", drained[1].Name)
	assert.Equal(t, 0, q.Len())

	assert.Nil(t, q.Drain())
}

func TestAddIsConcurrencySafe(t *testing.T) {
	q := New()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			q.Add(errors.New("x"), "concurrent")
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, q.Len())
}

func TestAddNilIsNoop(t *testing.T) {
	q := New()
	q.Add(nil, "should-not-appear")
	assert.Equal(t, 0, q.Len())
}
