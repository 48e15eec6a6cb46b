package client

import (
	"context"
	"fmt"
	"time"

	"github.com/cuemby/burrow/api/rpc"
	"github.com/cuemby/burrow/pkg/types"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// DefaultTimeout bounds every call made through Client
const DefaultTimeout = 10 * time.Second

// Client wraps the Burrow manager API for CLI and worker usage
type Client struct {
	conn    *grpc.ClientConn
	client  rpc.ManagerAPIClient
	timeout time.Duration
}

// NewClient creates a new client for the manager at addr
func NewClient(addr string, opts ...grpc.DialOption) (*Client, error) {
	if len(opts) == 0 {
		opts = []grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}
	}

	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to manager: %w", err)
	}

	return newClient(conn), nil
}

func newClient(conn *grpc.ClientConn) *Client {
	return &Client{
		conn:    conn,
		client:  rpc.NewManagerAPIClient(conn),
		timeout: DefaultTimeout,
	}
}

// Close closes the connection
func (c *Client) Close() error {
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

func (c *Client) context() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), c.timeout)
}

// GetDeploymentStats returns the stats of every deployment matching pattern.
// An empty pattern matches all deployments.
func (c *Client) GetDeploymentStats(pattern string) (*types.DeploymentStatsResponse, error) {
	ctx, cancel := c.context()
	defer cancel()

	return c.client.GetDeploymentStats(ctx, &rpc.GetDeploymentStatsRequest{Pattern: pattern})
}

// PutAssignment creates or replaces a deployment assignment
func (c *Client) PutAssignment(assignment *types.Assignment) (*types.Assignment, error) {
	ctx, cancel := c.context()
	defer cancel()

	resp, err := c.client.PutAssignment(ctx, &rpc.PutAssignmentRequest{Assignment: assignment})
	if err != nil {
		return nil, err
	}
	return resp.Assignment, nil
}

// DeleteAssignment removes the assignment of modelID
func (c *Client) DeleteAssignment(modelID string) error {
	ctx, cancel := c.context()
	defer cancel()

	_, err := c.client.DeleteAssignment(ctx, &rpc.DeleteAssignmentRequest{ModelID: modelID})
	return err
}

// ListAssignments lists all assignments
func (c *Client) ListAssignments() ([]*types.Assignment, error) {
	ctx, cancel := c.context()
	defer cancel()

	resp, err := c.client.ListAssignments(ctx, &rpc.ListAssignmentsRequest{})
	if err != nil {
		return nil, err
	}
	return resp.Assignments, nil
}

// RegisterNode registers or refreshes a node with the manager
func (c *Client) RegisterNode(node *types.Node, token string) (*types.Node, error) {
	ctx, cancel := c.context()
	defer cancel()

	resp, err := c.client.RegisterNode(ctx, &rpc.RegisterNodeRequest{Node: node, Token: token})
	if err != nil {
		return nil, err
	}
	return resp.Node, nil
}

// ListNodes lists all nodes
func (c *Client) ListNodes() ([]*types.Node, error) {
	ctx, cancel := c.context()
	defer cancel()

	resp, err := c.client.ListNodes(ctx, &rpc.ListNodesRequest{})
	if err != nil {
		return nil, err
	}
	return resp.Nodes, nil
}

// RemoveNode removes a node from the cluster
func (c *Client) RemoveNode(nodeID string) (*rpc.RemoveNodeResponse, error) {
	ctx, cancel := c.context()
	defer cancel()

	return c.client.RemoveNode(ctx, &rpc.RemoveNodeRequest{NodeID: nodeID})
}

// JoinCluster asks the leader to add a manager as a Raft voter
func (c *Client) JoinCluster(nodeID, bindAddr, token string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	_, err := c.client.JoinCluster(ctx, &rpc.JoinClusterRequest{
		NodeID:   nodeID,
		BindAddr: bindAddr,
		Token:    token,
	})

	return err
}
