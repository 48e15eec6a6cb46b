package dispatch

import (
	"fmt"
	"sync"

	"github.com/cuemby/burrow/api/rpc"
	lru "github.com/hashicorp/golang-lru/v2"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// Connector hands out node stats clients by node address
type Connector interface {
	NodeStatsClient(address string) (rpc.NodeStatsClient, error)
	Close() error
}

// GRPCConnector keeps one gRPC connection per node address. The least
// recently used connection is closed once more than size addresses are
// cached.
type GRPCConnector struct {
	mu       sync.Mutex
	conns    *lru.Cache[string, *grpc.ClientConn]
	dialOpts []grpc.DialOption
}

// NewGRPCConnector creates a connector caching up to size connections
func NewGRPCConnector(size int, opts ...grpc.DialOption) (*GRPCConnector, error) {
	conns, err := lru.NewWithEvict[string, *grpc.ClientConn](size, func(_ string, conn *grpc.ClientConn) {
		_ = conn.Close()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create connection cache: %w", err)
	}

	if len(opts) == 0 {
		opts = []grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}
	}

	return &GRPCConnector{conns: conns, dialOpts: opts}, nil
}

// NodeStatsClient returns a client for the node at address, dialing on
// first use.
func (c *GRPCConnector) NodeStatsClient(address string) (rpc.NodeStatsClient, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if conn, ok := c.conns.Get(address); ok {
		return rpc.NewNodeStatsClient(conn), nil
	}

	conn, err := grpc.NewClient(address, c.dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create client for %s: %w", address, err)
	}
	c.conns.Add(address, conn)

	return rpc.NewNodeStatsClient(conn), nil
}

// Len returns the number of cached connections
func (c *GRPCConnector) Len() int {
	return c.conns.Len()
}

// Close closes every cached connection
func (c *GRPCConnector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conns.Purge()
	return nil
}
