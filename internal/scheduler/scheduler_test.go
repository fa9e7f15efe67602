package scheduler

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specialistvlad/flowsim/internal/dag"
	"github.com/specialistvlad/flowsim/internal/eventloop"
	"github.com/specialistvlad/flowsim/internal/events"
	"github.com/specialistvlad/flowsim/internal/graph"
	"github.com/specialistvlad/flowsim/internal/node"
)

var epoch = time.Date(2025, 8, 25, 12, 0, 0, 0, time.UTC)

type harness struct {
	loop   *eventloop.Loop
	stream *events.Stream
	sched  *Scheduler
	got    []events.Event
}

func newHarness(t *testing.T, g *dag.TaskGraph, cfg Config) *harness {
	t.Helper()
	h := &harness{
		loop:   eventloop.New(eventloop.NewManualClock(epoch)),
		stream: events.NewStream(0),
	}
	h.stream.Subscribe(func(e events.Event) { h.got = append(h.got, e) })

	n := 0
	s, err := New(context.Background(), g, h.loop, h.stream, cfg, WithRunIDs(func() string {
		n++
		return fmt.Sprintf("run-%d", n)
	}))
	require.NoError(t, err)
	h.sched = s
	return h
}

// drain returns and forgets the events recorded so far, rendered as short
// strings.
func (h *harness) drain() []string {
	out := make([]string, 0, len(h.got))
	for _, e := range h.got {
		out = append(out, describe(e))
	}
	h.got = nil
	return out
}

func describe(e events.Event) string {
	switch ev := e.(type) {
	case events.NodeStatusChanged:
		return fmt.Sprintf("%s %s", ev.NodeID, ev.New)
	case events.EdgeActivated:
		return "+" + ev.EdgeID
	case events.EdgeDeactivated:
		return "-" + ev.EdgeID
	case events.RunStarted:
		return "started " + ev.RunID
	case events.RunCompleted:
		return fmt.Sprintf("completed %s", ev.Elapsed)
	case events.RunCancelled:
		return "cancelled " + ev.Reason
	case events.RunReset:
		return "reset"
	}
	return e.Topic()
}

func TestStart_ExampleTimeline(t *testing.T) {
	h := newHarness(t, dag.Example(), DefaultConfig())

	handle := h.sched.Start("Plan launch: three markets")
	require.NotNil(t, handle)
	assert.Equal(t, "run-1", handle.ID())
	assert.Equal(t, []string{
		"started run-1",
		"coordinator running",
		"+e1", "+e2", "+e3",
	}, h.drain())

	h.loop.Advance(2 * time.Second)
	assert.Equal(t, []string{"coordinator success"}, h.drain())

	h.loop.Advance(time.Second)
	assert.Equal(t, []string{
		"demand running", "inventory running", "pricing running",
		"+e4", "+e7", "+e5", "+e8", "+e6", "+e9",
	}, h.drain())

	h.loop.Advance(2 * time.Second)
	assert.Equal(t, []string{"demand success", "inventory success", "pricing success"}, h.drain())

	h.loop.Advance(time.Second)
	assert.Equal(t, []string{"final running", "downstream running"}, h.drain())

	h.loop.Advance(2 * time.Second)
	assert.Equal(t, []string{"final success", "downstream success", "completed 8s"}, h.drain())

	select {
	case <-handle.Done():
	default:
		t.Fatal("handle not done after completion")
	}
	assert.Equal(t, OutcomeCompleted, handle.Outcome())
	assert.Zero(t, h.loop.Pending())
}

func TestStart_EmitsRunningAndSuccessOncePerNode(t *testing.T) {
	h := newHarness(t, dag.Example(), DefaultConfig())
	h.sched.Start("goal")
	h.loop.Advance(time.Minute)

	running := map[string]int{}
	success := map[string]int{}
	for _, e := range h.got {
		if ev, ok := e.(events.NodeStatusChanged); ok {
			switch ev.New {
			case node.Running:
				running[ev.NodeID]++
				assert.Equal(t, node.Pending, ev.Old)
			case node.Success:
				success[ev.NodeID]++
				assert.Equal(t, node.Running, ev.Old)
			}
		}
	}
	assert.Len(t, running, 6)
	assert.Len(t, success, 6)
	for id := range running {
		assert.Equal(t, 1, running[id], id)
		assert.Equal(t, 1, success[id], id)
	}
}

func TestCompletion_EdgesStayActive(t *testing.T) {
	h := newHarness(t, dag.Example(), DefaultConfig())
	h.sched.Start("goal")
	h.loop.Advance(time.Minute)

	snap := h.sched.Snapshot()
	assert.Equal(t, graph.StateCompleted, snap.State)
	for _, e := range snap.Edges {
		assert.True(t, e.Active, e.ID)
	}
	for _, n := range snap.Nodes {
		assert.Equal(t, node.Success, n.Status, n.ID)
	}
	assert.Nil(t, h.sched.ActiveRun())
	assert.NotNil(t, h.sched.Current())
}

func TestCancel_MidRun(t *testing.T) {
	h := newHarness(t, dag.Example(), DefaultConfig())
	handle := h.sched.Start("goal")
	h.loop.Advance(4 * time.Second)
	h.drain()

	require.True(t, h.sched.Cancel(handle))
	got := h.drain()
	require.Len(t, got, 10)
	assert.Equal(t, "-e1", got[0])
	assert.Equal(t, "cancelled "+ReasonCancelled, got[9])

	h.loop.Advance(time.Minute)
	assert.Empty(t, h.drain(), "no events after cancellation")
	assert.Zero(t, h.loop.Pending())

	snap := h.sched.Snapshot()
	assert.Equal(t, graph.StateCancelled, snap.State)
	coord, _ := snap.Node("coordinator")
	demand, _ := snap.Node("demand")
	final, _ := snap.Node("final")
	assert.Equal(t, node.Success, coord.Status)
	assert.Equal(t, node.Running, demand.Status)
	assert.Equal(t, node.Pending, final.Status)
	for _, e := range snap.Edges {
		assert.False(t, e.Active)
	}

	<-handle.Done()
	assert.Equal(t, OutcomeCancelled, handle.Outcome())
	assert.False(t, h.sched.Cancel(handle), "second cancel is ignored")
}

// runningIn matches the event that moves nodeID of runID to Running.
func runningIn(e events.Event, runID, nodeID string) bool {
	ev, ok := e.(events.NodeStatusChanged)
	return ok && ev.RunID == runID && ev.NodeID == nodeID && ev.New == node.Running
}

func TestCancel_FromSubscriberMidLayer(t *testing.T) {
	h := newHarness(t, dag.Example(), DefaultConfig())
	var handle *RunHandle
	h.stream.Subscribe(func(e events.Event) {
		if runningIn(e, "run-1", "demand") {
			assert.True(t, h.sched.Cancel(handle))
		}
	})

	handle = h.sched.Start("goal")
	h.loop.Advance(3 * time.Second)
	assert.Equal(t, []string{
		"started run-1",
		"coordinator running",
		"+e1", "+e2", "+e3",
		"coordinator success",
		"demand running",
		"-e1", "-e2", "-e3",
		"cancelled " + ReasonCancelled,
	}, h.drain())

	h.loop.Advance(time.Minute)
	assert.Empty(t, h.drain(), "no events after cancellation")
	assert.Zero(t, h.loop.Pending())

	snap := h.sched.Snapshot()
	assert.Equal(t, graph.StateCancelled, snap.State)
	for _, e := range snap.Edges {
		assert.False(t, e.Active, e.ID)
	}
	inventory, _ := snap.Node("inventory")
	assert.Equal(t, node.Pending, inventory.Status)
	assert.Equal(t, OutcomeCancelled, handle.Outcome())
}

func TestStart_FromSubscriberMidLayer(t *testing.T) {
	h := newHarness(t, dag.Example(), DefaultConfig())
	var second *RunHandle
	h.stream.Subscribe(func(e events.Event) {
		if second == nil && runningIn(e, "run-1", "demand") {
			second = h.sched.Start("second")
		}
	})

	first := h.sched.Start("first")
	h.loop.Advance(3 * time.Second)
	assert.Equal(t, []string{
		"started run-1",
		"coordinator running",
		"+e1", "+e2", "+e3",
		"coordinator success",
		"demand running",
		"-e1", "-e2", "-e3",
		"cancelled " + ReasonSuperseded,
		"started run-2",
		"coordinator running",
		"+e1", "+e2", "+e3",
	}, h.drain())
	require.NotNil(t, second)
	assert.Equal(t, OutcomeCancelled, first.Outcome())

	h.loop.Advance(time.Minute)
	for _, e := range h.got {
		assert.Equal(t, "run-2", e.Header().RunID, describe(e))
	}
	assert.Equal(t, OutcomeCompleted, second.Outcome())
	assert.Equal(t, graph.StateCompleted, h.sched.Snapshot().State)
	assert.Zero(t, h.loop.Pending())
}

func TestStart_FromCompletionSubscriber(t *testing.T) {
	h := newHarness(t, dag.Example(), DefaultConfig())
	var second *RunHandle
	h.stream.Subscribe(func(e events.Event) {
		if _, ok := e.(events.RunCompleted); ok && second == nil {
			second = h.sched.Start("again")
		}
	})

	first := h.sched.Start("first")
	h.loop.Advance(8 * time.Second)
	require.NotNil(t, second)
	assert.Equal(t, OutcomeCompleted, first.Outcome())
	assert.Equal(t, OutcomeRunning, second.Outcome())
	assert.Same(t, second, h.sched.Handle())

	h.loop.Advance(time.Minute)
	assert.Equal(t, OutcomeCompleted, second.Outcome())
}

func TestClear_FromSubscriberOnStart(t *testing.T) {
	h := newHarness(t, dag.Example(), DefaultConfig())
	h.stream.Subscribe(func(e events.Event) {
		if _, ok := e.(events.RunStarted); ok {
			h.sched.Clear()
		}
	})

	handle := h.sched.Start("goal")
	assert.Equal(t, []string{"started run-1", "cancelled " + ReasonCleared, "reset"}, h.drain())
	assert.Equal(t, OutcomeCancelled, handle.Outcome())
	assert.Nil(t, h.sched.Current())
	assert.Zero(t, h.loop.Pending())
}

func TestCancel_StaleOrNilHandle(t *testing.T) {
	h := newHarness(t, dag.Example(), DefaultConfig())
	assert.False(t, h.sched.Cancel(nil))

	old := h.sched.Start("a")
	h.sched.Start("b")
	h.drain()

	assert.False(t, h.sched.Cancel(old))
	assert.Empty(t, h.drain())
}

func TestCancel_AfterCompletionIsIgnored(t *testing.T) {
	h := newHarness(t, dag.Example(), DefaultConfig())
	handle := h.sched.Start("a")
	h.loop.Advance(time.Minute)
	h.drain()

	assert.False(t, h.sched.Cancel(handle))
	assert.Empty(t, h.drain())
	assert.Equal(t, OutcomeCompleted, handle.Outcome())
}

func TestStartEmpty_ResetsDisplayedRun(t *testing.T) {
	h := newHarness(t, dag.Example(), DefaultConfig())
	handle := h.sched.Start("goal")
	h.loop.Advance(3 * time.Second)
	h.drain()

	assert.Nil(t, h.sched.Start(""))
	assert.Equal(t, []string{
		"-e1", "-e2", "-e3", "-e4", "-e5", "-e6", "-e7", "-e8", "-e9",
		"cancelled " + ReasonCleared,
		"coordinator pending", "demand pending", "inventory pending", "pricing pending",
		"reset",
	}, h.drain())
	assert.Equal(t, OutcomeCancelled, handle.Outcome())

	snap := h.sched.Snapshot()
	assert.Equal(t, graph.StateIdle, snap.State)
	for _, n := range snap.Nodes {
		assert.Equal(t, node.Pending, n.Status)
	}
	assert.Nil(t, h.sched.Current())
	assert.Nil(t, h.sched.Handle())

	h.loop.Advance(time.Minute)
	assert.Empty(t, h.drain())

	h.sched.Start("")
	h.sched.Start("  \t")
	assert.Empty(t, h.drain(), "clearing an idle workflow emits nothing")
}

func TestStartEmpty_AfterCompletion(t *testing.T) {
	h := newHarness(t, dag.Example(), DefaultConfig())
	h.sched.Start("goal")
	h.loop.Advance(time.Minute)
	h.drain()

	h.sched.Clear()
	got := h.drain()
	require.Len(t, got, 6+9+1)
	assert.Equal(t, "coordinator pending", got[0])
	assert.Equal(t, "-e1", got[6])
	assert.Equal(t, "reset", got[15])
}

func TestStart_SupersedesActiveRun(t *testing.T) {
	h := newHarness(t, dag.Example(), DefaultConfig())
	first := h.sched.Start("first")
	h.loop.Advance(time.Second)
	h.drain()

	second := h.sched.Start("second")
	assert.Equal(t, []string{
		"-e1", "-e2", "-e3",
		"cancelled " + ReasonSuperseded,
		"started run-2",
		"coordinator running",
		"+e1", "+e2", "+e3",
	}, h.drain())
	assert.Equal(t, OutcomeCancelled, first.Outcome())

	h.loop.Advance(time.Minute)
	for _, e := range h.got {
		assert.Equal(t, "run-2", e.Header().RunID, describe(e))
	}
	assert.Equal(t, OutcomeCompleted, second.Outcome())
	assert.Equal(t, "second", h.sched.Snapshot().Trigger)
}

func TestStart_AfterCompletionSwitchesEdgesOff(t *testing.T) {
	h := newHarness(t, dag.Example(), DefaultConfig())
	h.sched.Start("first")
	h.loop.Advance(time.Minute)
	h.drain()

	h.sched.Start("second")
	got := h.drain()
	require.GreaterOrEqual(t, len(got), 10)
	for i := 0; i < 9; i++ {
		assert.Equal(t, fmt.Sprintf("-e%d", i+1), got[i])
	}
	assert.Equal(t, "started run-2", got[9])
}

func TestNew_InvalidTiming(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"zero dwell", Config{Dwell: 0, Stagger: time.Second}},
		{"negative stagger", Config{Dwell: time.Second, Stagger: -time.Second}},
		{"dwell exceeds stagger", Config{Dwell: 4 * time.Second, Stagger: 3 * time.Second}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			loop := eventloop.New(eventloop.NewManualClock(epoch))
			_, err := New(context.Background(), dag.Example(), loop, events.NewStream(0), tc.cfg)
			assert.True(t, errors.Is(err, ErrInvalidTiming), "got %v", err)
		})
	}
}

func TestNew_EqualDwellAndStaggerIsValid(t *testing.T) {
	h := newHarness(t, dag.Example(), Config{Dwell: time.Second, Stagger: time.Second})
	h.sched.Start("goal")
	h.loop.Advance(3 * time.Second)
	got := h.drain()
	assert.Equal(t, "completed 3s", got[len(got)-1])
}

func TestNew_PanicsWithoutDependencies(t *testing.T) {
	assert.Panics(t, func() {
		_, _ = New(context.Background(), nil, nil, nil, DefaultConfig())
	})
}

func randomDAG(r *rand.Rand, n int) *dag.TaskGraph {
	nodes := make([]dag.NodeSpec, n)
	for i := range nodes {
		nodes[i] = dag.NodeSpec{ID: fmt.Sprintf("n%d", i)}
	}
	var edges []dag.EdgeSpec
	for j := 1; j < n; j++ {
		for i := 0; i < j; i++ {
			if r.IntN(4) == 0 {
				edges = append(edges, dag.EdgeSpec{Source: nodes[i].ID, Target: nodes[j].ID})
			}
		}
	}
	g, err := dag.Build(nodes, edges)
	if err != nil {
		panic(err)
	}
	return g
}

// Every layer d starts at d*Stagger, finishes Dwell later, and all of its
// Success events precede the next layer's Running events.
func TestStart_LayerTimingOnRandomGraphs(t *testing.T) {
	r := rand.New(rand.NewPCG(7, 11))
	for iter := 0; iter < 50; iter++ {
		g := randomDAG(r, 1+r.IntN(12))
		stagger := time.Duration(1+r.IntN(5)) * time.Second
		dwell := time.Duration(1+r.Int64N(int64(stagger/time.Millisecond))) * time.Millisecond
		h := newHarness(t, g, Config{Dwell: dwell, Stagger: stagger})

		h.sched.Start("random")
		h.loop.Advance(time.Duration(len(g.Layers())+1) * stagger)

		lastLayerSeen := -1
		successSeen := map[int]int{}
		for _, e := range h.got {
			ev, ok := e.(events.NodeStatusChanged)
			if !ok {
				continue
			}
			d, _ := g.LayerOf(ev.NodeID)
			offset := ev.Timestamp.Sub(epoch)
			switch ev.New {
			case node.Running:
				require.Equal(t, time.Duration(d)*stagger, offset, "iter %d node %s", iter, ev.NodeID)
				if d > 0 {
					require.Equal(t, len(g.Layers()[d-1]), successSeen[d-1], "layer %d started before layer %d finished", d, d-1)
				}
				require.GreaterOrEqual(t, d, lastLayerSeen)
				lastLayerSeen = d
			case node.Success:
				require.Equal(t, time.Duration(d)*stagger+dwell, offset)
				successSeen[d]++
			}
		}
		require.Equal(t, len(g.Layers())-1, lastLayerSeen)
		require.Equal(t, graph.StateCompleted, h.sched.Snapshot().State)
	}
}

func TestOutcome_String(t *testing.T) {
	assert.Equal(t, "running", OutcomeRunning.String())
	assert.Equal(t, "completed", OutcomeCompleted.String())
	assert.Equal(t, "cancelled", OutcomeCancelled.String())
	assert.Equal(t, "unknown", Outcome(9).String())
}
