package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorRecordsTimings(t *testing.T) {
	c := NewCollector()

	c.RecordTiming(OpLLMCall, 100*time.Millisecond)
	c.RecordTiming(OpLLMCall, 300*time.Millisecond)
	c.RecordError(OpLLMCall, 50*time.Millisecond)

	snap := c.Snapshot()
	require.NotNil(t, snap.LLMCall)
	assert.Equal(t, int64(3), snap.LLMCall.Count)
	assert.Equal(t, int64(1), snap.LLMCall.Errors)
	assert.Equal(t, int64(50), snap.LLMCall.MinTimeMs)
	assert.Equal(t, int64(300), snap.LLMCall.MaxTimeMs)
	assert.InDelta(t, 150.0, snap.LLMCall.AvgTimeMs, 0.5)
}

func TestCollectorEmptySnapshots(t *testing.T) {
	c := NewCollector()
	snap := c.Snapshot()

	assert.Nil(t, snap.Turns)
	assert.Nil(t, snap.NLUClassify)
	assert.GreaterOrEqual(t, snap.UptimeSeconds, 0.0)
}

func TestObservePassesErrorThrough(t *testing.T) {
	c := NewCollector()
	boom := errors.New("boom")

	err := c.Observe(OpToolExec, func() error { return boom })
	assert.ErrorIs(t, err, boom)

	err = c.Observe(OpToolExec, func() error { return nil })
	assert.NoError(t, err)

	snap := c.Snapshot()
	require.NotNil(t, snap.ToolExec)
	assert.Equal(t, int64(2), snap.ToolExec.Count)
	assert.Equal(t, int64(1), snap.ToolExec.Errors)
}

func TestCollectorConcurrentAccess(t *testing.T) {
	c := NewCollector()
	done := make(chan struct{})

	for i := 0; i < 8; i++ {
		go func() {
			for j := 0; j < 100; j++ {
				c.RecordTiming(OpTurn, time.Millisecond)
			}
			done <- struct{}{}
		}()
	}
	for i := 0; i < 8; i++ {
		<-done
	}

	snap := c.Snapshot()
	require.NotNil(t, snap.Turns)
	assert.Equal(t, int64(800), snap.Turns.Count)
}
