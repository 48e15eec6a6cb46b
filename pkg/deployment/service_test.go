package deployment

import (
	"bytes"
	"context"
	"testing"

	"github.com/cuemby/burrow/pkg/dispatch"
	"github.com/cuemby/burrow/pkg/events"
	"github.com/cuemby/burrow/pkg/executor"
	"github.com/cuemby/burrow/pkg/log"
	"github.com/cuemby/burrow/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestGetDeploymentStatsNoMatchSkipsDispatch(t *testing.T) {
	metadata := &fakeMetadata{states: []*types.ClusterState{
		clusterState(assignment("elser", types.AssignmentStateStarted, map[string]types.RoutingInfo{"n1": started(1)})),
	}}
	dispatcher := &fakeDispatcher{}
	svc := NewService(Config{Metadata: metadata, Dispatcher: dispatcher})

	resp, err := svc.GetDeploymentStats(context.Background(), "zzz*")

	require.NoError(t, err)
	assert.Equal(t, 0, dispatcher.calls)
	assert.Equal(t, types.EmptyDeploymentStatsResponse(), resp)
	assert.Equal(t, 1, metadata.calls)
}

func TestGetDeploymentStats(t *testing.T) {
	resolveState := clusterState(
		assignment("m1", types.AssignmentStateStarted, map[string]types.RoutingInfo{
			"n1": started(1),
			"n2": routing(types.RoutingStateStarting, ""),
		}),
		assignment("m2", types.AssignmentStateStarted, map[string]types.RoutingInfo{
			"n1": routing(types.RoutingStateFailed, "oom"),
			"n3": routing(types.RoutingStateFailed, "oom"),
		}),
		assignment("m3", types.AssignmentStateStarting, map[string]types.RoutingInfo{
			"n3": routing(types.RoutingStateStarting, ""),
		}),
		assignment("other", types.AssignmentStateStarted, map[string]types.RoutingInfo{"n3": started(1)}),
	)
	// m3 is deleted between the two reads
	annotateState := clusterState(resolveState.Assignments["m1"], resolveState.Assignments["m2"])

	metadata := &fakeMetadata{states: []*types.ClusterState{resolveState, annotateState}}
	dispatcher := &fakeDispatcher{result: &dispatch.Result{
		Responses:    []*types.AssignmentStats{record("m1", live("n1", 12))},
		TaskFailures: []types.TaskFailure{{NodeID: "n1", ModelID: "m1", Reason: "stats unavailable"}},
		NodeFailures: []types.NodeFailure{},
	}}
	broker := events.NewBroker()
	broker.Start()
	defer broker.Stop()
	sub := broker.Subscribe()

	svc := NewService(Config{
		Metadata:   metadata,
		Dispatcher: dispatcher,
		Pool:       executor.NewPool("test", 1),
		Events:     broker,
	})

	resp, err := svc.GetDeploymentStats(context.Background(), "m*")
	require.NoError(t, err)

	assert.Equal(t, 1, dispatcher.calls)
	assert.Equal(t, []string{"n1"}, dispatcher.nodeIDs)
	assert.Equal(t, []string{"m1", "m2", "m3"}, dispatcher.request.ModelIDs)
	assert.Equal(t, 2, metadata.calls)

	require.Equal(t, 3, resp.Count)
	require.Len(t, resp.Stats, 3)
	assert.Equal(t, dispatcher.result.TaskFailures, resp.TaskFailures)
	assert.Empty(t, resp.NodeFailures)

	m1, m2, m3 := resp.Stats[0], resp.Stats[1], resp.Stats[2]

	assert.Equal(t, "m1", m1.ModelID)
	assert.Equal(t, []string{"n1", "n2"}, m1.NodeStats.NodeIDs())
	assert.IsType(t, &types.LiveNodeStats{}, m1.NodeStats[0])
	assert.IsType(t, &types.NotStartedNodeStats{}, m1.NodeStats[1])
	assert.Equal(t, types.AssignmentStateStarted, m1.State)
	require.NotNil(t, m1.AllocationStatus)
	assert.Equal(t, types.AllocationStateStarted, m1.AllocationStatus.State)

	assert.Equal(t, "m2", m2.ModelID)
	assert.Equal(t, types.AssignmentStateFailed, m2.State)
	assert.Equal(t, AllRoutesFailedReason, m2.Reason)
	assert.Nil(t, m2.ThreadsPerAllocation)
	assert.Equal(t, []string{"n1", "n3"}, m2.NodeStats.NodeIDs())

	assert.Equal(t, "m3", m3.ModelID)
	assert.Empty(t, m3.State, "assignment deleted before annotation")
	assert.Nil(t, m3.AllocationStatus)
	assert.Equal(t, []string{"n3"}, m3.NodeStats.NodeIDs())

	event := <-sub
	assert.Equal(t, events.EventStatsPartial, event.Type)
	assert.Equal(t, "1", event.Metadata["task_failures"])
}

func TestGetDeploymentStatsOnlyUnstartedModels(t *testing.T) {
	metadata := &fakeMetadata{states: []*types.ClusterState{
		clusterState(assignment("m3", types.AssignmentStateStarting, map[string]types.RoutingInfo{
			"n2": routing(types.RoutingStateStarting, ""),
		})),
	}}
	dispatcher := &fakeDispatcher{}
	svc := NewService(Config{Metadata: metadata, Dispatcher: dispatcher})

	resp, err := svc.GetDeploymentStats(context.Background(), "m3")
	require.NoError(t, err)

	assert.Equal(t, 0, dispatcher.calls, "no started routes to query")
	require.Equal(t, 1, resp.Count)
	assert.Nil(t, resp.Stats[0].NumberOfAllocations)
	assert.Equal(t, types.AssignmentStateStarting, resp.Stats[0].State)
	assert.NotNil(t, resp.TaskFailures)
	assert.NotNil(t, resp.NodeFailures)
}

func TestGetDeploymentStatsMetadataError(t *testing.T) {
	svc := NewService(Config{Metadata: &fakeMetadata{err: errMetadata}, Dispatcher: &fakeDispatcher{}})

	_, err := svc.GetDeploymentStats(context.Background(), "_all")
	assert.ErrorIs(t, err, errMetadata)
}

func TestGetDeploymentStatsCancelledWhileWaiting(t *testing.T) {
	pool := executor.NewPool("busy", 1)
	release := make(chan struct{})
	busy := make(chan struct{})
	go func() {
		_ = pool.Run(context.Background(), func(ctx context.Context) error {
			close(busy)
			<-release
			return nil
		})
	}()
	<-busy
	defer close(release)

	var out bytes.Buffer
	saved := log.Logger
	log.Logger = zerolog.New(&out)
	defer func() { log.Logger = saved }()

	dispatcher := &fakeDispatcher{}
	svc := NewService(Config{
		Metadata:   &fakeMetadata{states: []*types.ClusterState{clusterState()}},
		Dispatcher: dispatcher,
		Pool:       pool,
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := svc.GetDeploymentStats(ctx, "_all")

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, dispatcher.calls)
	assert.Contains(t, out.String(), `"pool":"busy","pool_size":1`)
	assert.Contains(t, out.String(), "failed to acquire busy slot")
}
