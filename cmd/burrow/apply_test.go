package main

import (
	"testing"
	"time"

	"github.com/cuemby/burrow/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const manifest = `
apiVersion: burrow/v1
kind: Assignment
metadata:
  name: elser
spec:
  threadsPerAllocation: 2
  numberOfAllocations: 3
  queueCapacity: 1024
  state: started
  startTime: 2024-01-01T00:00:00Z
  routingTable:
    n1: {state: started, currentAllocations: 2, targetAllocations: 2}
    n2: {state: failed, reason: out of memory}
---
apiVersion: burrow/v1
kind: Node
metadata:
  name: n1
  labels:
    zone: a
spec:
  address: 10.0.0.1:9090
`

func TestParseResources(t *testing.T) {
	resources, err := parseResources([]byte(manifest))
	require.NoError(t, err)
	require.Len(t, resources, 2)

	assignment, err := resources[0].assignment()
	require.NoError(t, err)
	assert.Equal(t, "elser", assignment.ModelID())
	assert.Equal(t, 3, assignment.TaskParams.NumberOfAllocations)
	assert.Equal(t, types.AssignmentStateStarted, assignment.State)
	assert.True(t, assignment.StartTime.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, types.RoutingInfo{State: types.RoutingStateFailed, Reason: "out of memory"}, assignment.RoutingTable["n2"])
	assert.Equal(t, 2, assignment.RoutingTable["n1"].CurrentAllocations)

	node, err := resources[1].node()
	require.NoError(t, err)
	assert.Equal(t, "n1", node.ID)
	assert.Equal(t, types.NodeRoleWorker, node.Role)
	assert.Equal(t, "10.0.0.1:9090", node.Address)
	assert.Equal(t, "a", node.Labels["zone"])
}

func TestParseResourcesInvalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "empty", data: ""},
		{name: "not yaml", data: "kind: ["},
		{name: "no name", data: "kind: Assignment\nspec: {}\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseResources([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestNodeWithoutAddress(t *testing.T) {
	resources, err := parseResources([]byte("kind: Node\nmetadata: {name: n1}\nspec: {role: worker}\n"))
	require.NoError(t, err)

	_, err = resources[0].node()
	assert.Error(t, err)
}
