package audit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordAndQueryOrder(t *testing.T) {
	l := New(DefaultRetention)
	l.Record(Entry{ActorID: 1, Action: "LOGIN", Resource: "auth", Outcome: Success})
	l.Record(Entry{ActorID: 2, Action: "LOGIN", Resource: "auth", Outcome: Failure})
	l.Record(Entry{ActorID: 1, Action: "ENROLL", Resource: "enrollment", Outcome: Success})

	all := l.Query(Filter{})
	require.Len(t, all, 3)
	assert.Equal(t, "LOGIN", all[0].Action)
	assert.Equal(t, "ENROLL", all[2].Action)
	assert.False(t, all[0].Timestamp.IsZero(), "Record stamps the clock")
}

func TestQueryFilters(t *testing.T) {
	l := New(DefaultRetention)
	l.Record(Entry{ActorID: 1, Action: "LOGIN", Outcome: Success})
	l.Record(Entry{ActorID: 2, Action: "LOGIN", Outcome: Failure})
	l.Record(Entry{ActorID: 1, Action: "SIGNUP", Outcome: Success})

	assert.Len(t, l.Query(Filter{ActorID: 1}), 2)
	assert.Len(t, l.Query(Filter{Action: "LOGIN"}), 2)
	assert.Len(t, l.Query(Filter{Outcome: Failure}), 1)
	assert.Len(t, l.Query(Filter{ActorID: 1, Action: "LOGIN"}), 1)
	assert.Empty(t, l.Query(Filter{ActorID: 3}))
}

func TestQueryTimeRange(t *testing.T) {
	l := New(DefaultRetention)
	l.Record(Entry{Action: "A"})
	mid := time.Now().UTC()
	time.Sleep(5 * time.Millisecond)
	l.Record(Entry{Action: "B"})

	after := l.Query(Filter{From: mid})
	require.Len(t, after, 1)
	assert.Equal(t, "B", after[0].Action)

	before := l.Query(Filter{To: mid})
	require.Len(t, before, 1)
	assert.Equal(t, "A", before[0].Action)
}

func TestRetentionSweep(t *testing.T) {
	l := New(30 * time.Millisecond)
	l.Record(Entry{Action: "OLD"})
	time.Sleep(50 * time.Millisecond)

	// The next write sweeps anything past retention.
	l.Record(Entry{Action: "NEW"})
	got := l.Query(Filter{})
	require.Len(t, got, 1)
	assert.Equal(t, "NEW", got[0].Action)
}

func TestRecordConcurrent(t *testing.T) {
	l := New(DefaultRetention)
	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func() {
			for j := 0; j < 50; j++ {
				l.Record(Entry{Action: "X"})
			}
			done <- struct{}{}
		}()
	}
	for i := 0; i < 8; i++ {
		<-done
	}
	assert.Len(t, l.Query(Filter{}), 400)
}
