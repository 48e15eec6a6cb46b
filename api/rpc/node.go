package rpc

import (
	"context"

	"github.com/cuemby/burrow/pkg/types"
	"google.golang.org/grpc"
)

const NodeStats_GetNodeStats_FullMethodName = "/burrow.NodeStats/GetNodeStats"

// NodeStatsServer is the server API for the burrow.NodeStats service
type NodeStatsServer interface {
	GetNodeStats(context.Context, *types.NodeStatsRequest) (*types.NodeStatsResponse, error)
}

// NodeStatsClient is the client API for the burrow.NodeStats service
type NodeStatsClient interface {
	GetNodeStats(ctx context.Context, in *types.NodeStatsRequest, opts ...grpc.CallOption) (*types.NodeStatsResponse, error)
}

type nodeStatsClient struct {
	cc grpc.ClientConnInterface
}

// NewNodeStatsClient creates a NodeStats client on an existing connection
func NewNodeStatsClient(cc grpc.ClientConnInterface) NodeStatsClient {
	return &nodeStatsClient{cc: cc}
}

func (c *nodeStatsClient) GetNodeStats(ctx context.Context, in *types.NodeStatsRequest, opts ...grpc.CallOption) (*types.NodeStatsResponse, error) {
	return invoke[types.NodeStatsResponse](ctx, c.cc, NodeStats_GetNodeStats_FullMethodName, in, opts...)
}

// RegisterNodeStatsServer registers srv on s
func RegisterNodeStatsServer(s grpc.ServiceRegistrar, srv NodeStatsServer) {
	s.RegisterService(&NodeStats_ServiceDesc, srv)
}

// NodeStats_ServiceDesc is the grpc.ServiceDesc for the burrow.NodeStats service
var NodeStats_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "burrow.NodeStats",
	HandlerType: (*NodeStatsServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "GetNodeStats",
			Handler: unaryHandler(NodeStats_GetNodeStats_FullMethodName,
				func(srv interface{}, ctx context.Context, req *types.NodeStatsRequest) (*types.NodeStatsResponse, error) {
					return srv.(NodeStatsServer).GetNodeStats(ctx, req)
				}),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "api/rpc/node.go",
}
