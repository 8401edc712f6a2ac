package stepdetect

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func targets(ls ...Listener) []Target {
	var r listenerRegistry
	for _, l := range ls {
		r.add(l)
	}
	return r.snapshot()
}

func TestSyncDispatcher_OrderAndPanics(t *testing.T) {
	var got []string
	ts := targets(
		ListenerFunc(func(StepEvent) { got = append(got, "a") }),
		ListenerFunc(func(StepEvent) { panic("listener exploded") }),
		ListenerFunc(func(StepEvent) { got = append(got, "c") }),
	)

	d := &SyncDispatcher{}
	d.Dispatch(ts, StepEvent{Probability: 1})
	d.Dispatch(ts, StepEvent{Probability: 1})

	assert.Equal(t, []string{"a", "c", "a", "c"}, got)
	assert.Equal(t, uint64(2), d.Failures())
}

func TestListenerRegistry(t *testing.T) {
	var r listenerRegistry
	noop := ListenerFunc(func(StepEvent) {})

	a := r.add(noop)
	b := r.add(noop)
	c := r.add(noop)
	assert.NotEqual(t, a, b)
	assert.Equal(t, 3, r.len())

	before := r.snapshot()
	assert.True(t, r.remove(b))
	assert.False(t, r.remove(b))

	after := r.snapshot()
	require.Len(t, after, 2)
	assert.Equal(t, a, after[0].ID)
	assert.Equal(t, c, after[1].ID)

	// Snapshots handed out earlier are not disturbed by removal.
	require.Len(t, before, 3)
	assert.Equal(t, b, before[1].ID)
}

func TestAsyncDispatcher_DeliversInOrder(t *testing.T) {
	d := NewAsyncDispatcher(16)
	var got []float64
	ts := targets(ListenerFunc(func(ev StepEvent) { got = append(got, ev.Duration) }))

	for i := 1; i <= 10; i++ {
		d.Dispatch(ts, StepEvent{Duration: float64(i)})
	}
	d.Close()

	assert.Equal(t, []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, got)
	assert.Equal(t, uint64(0), d.Dropped())
}

func TestAsyncDispatcher_DropsWhenFull(t *testing.T) {
	d := NewAsyncDispatcher(1)
	started := make(chan struct{})
	release := make(chan struct{})
	var got []float64
	ts := targets(ListenerFunc(func(ev StepEvent) {
		if ev.Duration == 1 {
			close(started)
			<-release
		}
		got = append(got, ev.Duration)
	}))

	d.Dispatch(ts, StepEvent{Duration: 1})
	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("worker never picked up the first event")
	}
	d.Dispatch(ts, StepEvent{Duration: 2}) // fills the queue
	d.Dispatch(ts, StepEvent{Duration: 3}) // dropped
	close(release)
	d.Close()

	assert.Equal(t, []float64{1, 2}, got)
	assert.Equal(t, uint64(1), d.Dropped())

	d.Dispatch(ts, StepEvent{Duration: 4})
	assert.Equal(t, uint64(2), d.Dropped())
	d.Close()
}

func TestAsyncDispatcher_PanicsCounted(t *testing.T) {
	d := NewAsyncDispatcher(0)
	ts := targets(ListenerFunc(func(StepEvent) { panic("nope") }))
	d.Dispatch(ts, StepEvent{})
	d.Dispatch(ts, StepEvent{})
	d.Close()
	assert.Equal(t, uint64(2), d.Failures())
}
