package presence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var trackerBase = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func TestTracker_Counters(t *testing.T) {
	tr := NewTracker()

	tr.RecordJoin("demo", trackerBase)
	tr.RecordJoin("demo", trackerBase.Add(time.Minute))
	tr.RecordMessage("demo", trackerBase.Add(2*time.Minute))
	tr.RecordLeave("demo", trackerBase.Add(3*time.Minute))

	s, ok := tr.Stats("demo")
	require.True(t, ok)
	assert.Equal(t, 2, s.Joins)
	assert.Equal(t, 1, s.Leaves)
	assert.Equal(t, 1, s.Messages)
	assert.Equal(t, trackerBase.Add(3*time.Minute), s.LastActivity)
}

func TestTracker_UnknownRoom(t *testing.T) {
	tr := NewTracker()

	_, ok := tr.Stats("absent")
	assert.False(t, ok)
	assert.Empty(t, tr.AllStats())
}

func TestTracker_AllStatsSorted(t *testing.T) {
	tr := NewTracker()

	tr.RecordJoin("zebra", trackerBase)
	tr.RecordJoin("alpha", trackerBase)
	tr.RecordMessage("mid", trackerBase)

	all := tr.AllStats()
	require.Len(t, all, 3)
	assert.Equal(t, "alpha", all[0].Room)
	assert.Equal(t, "mid", all[1].Room)
	assert.Equal(t, "zebra", all[2].Room)
}

func TestTracker_StatsIsCopy(t *testing.T) {
	tr := NewTracker()
	tr.RecordJoin("demo", trackerBase)

	s, ok := tr.Stats("demo")
	require.True(t, ok)
	s.Joins = 99

	fresh, _ := tr.Stats("demo")
	assert.Equal(t, 1, fresh.Joins)
}
