package rpc

import (
	"context"

	"github.com/cuemby/burrow/pkg/types"
	"google.golang.org/grpc"
)

const (
	ManagerAPI_GetDeploymentStats_FullMethodName = "/burrow.ManagerAPI/GetDeploymentStats"
	ManagerAPI_PutAssignment_FullMethodName      = "/burrow.ManagerAPI/PutAssignment"
	ManagerAPI_DeleteAssignment_FullMethodName   = "/burrow.ManagerAPI/DeleteAssignment"
	ManagerAPI_ListAssignments_FullMethodName    = "/burrow.ManagerAPI/ListAssignments"
	ManagerAPI_RegisterNode_FullMethodName       = "/burrow.ManagerAPI/RegisterNode"
	ManagerAPI_ListNodes_FullMethodName          = "/burrow.ManagerAPI/ListNodes"
	ManagerAPI_RemoveNode_FullMethodName         = "/burrow.ManagerAPI/RemoveNode"
	ManagerAPI_JoinCluster_FullMethodName        = "/burrow.ManagerAPI/JoinCluster"
)

type GetDeploymentStatsRequest struct {
	Pattern string `json:"pattern"`
}

type PutAssignmentRequest struct {
	Assignment *types.Assignment `json:"assignment"`
}

type PutAssignmentResponse struct {
	Assignment *types.Assignment `json:"assignment"`
}

type DeleteAssignmentRequest struct {
	ModelID string `json:"model_id"`
}

type DeleteAssignmentResponse struct{}

type ListAssignmentsRequest struct{}

type ListAssignmentsResponse struct {
	Assignments []*types.Assignment `json:"assignments"`
}

type RegisterNodeRequest struct {
	Node  *types.Node `json:"node"`
	Token string      `json:"token"`
}

type RegisterNodeResponse struct {
	Node *types.Node `json:"node"`
}

type ListNodesRequest struct{}

type ListNodesResponse struct {
	Nodes []*types.Node `json:"nodes"`
}

type RemoveNodeRequest struct {
	NodeID string `json:"node_id"`
}

type RemoveNodeResponse struct {
	NodeRemoved  bool `json:"node_removed"`
	VoterRemoved bool `json:"voter_removed"`
}

type JoinClusterRequest struct {
	NodeID   string `json:"node_id"`
	BindAddr string `json:"bind_addr"`
	Token    string `json:"token"`
}

type JoinClusterResponse struct {
	LeaderAddr string `json:"leader_addr"`
}

// ManagerAPIServer is the server API for the burrow.ManagerAPI service
type ManagerAPIServer interface {
	GetDeploymentStats(context.Context, *GetDeploymentStatsRequest) (*types.DeploymentStatsResponse, error)
	PutAssignment(context.Context, *PutAssignmentRequest) (*PutAssignmentResponse, error)
	DeleteAssignment(context.Context, *DeleteAssignmentRequest) (*DeleteAssignmentResponse, error)
	ListAssignments(context.Context, *ListAssignmentsRequest) (*ListAssignmentsResponse, error)
	RegisterNode(context.Context, *RegisterNodeRequest) (*RegisterNodeResponse, error)
	ListNodes(context.Context, *ListNodesRequest) (*ListNodesResponse, error)
	RemoveNode(context.Context, *RemoveNodeRequest) (*RemoveNodeResponse, error)
	JoinCluster(context.Context, *JoinClusterRequest) (*JoinClusterResponse, error)
}

// ManagerAPIClient is the client API for the burrow.ManagerAPI service
type ManagerAPIClient interface {
	GetDeploymentStats(ctx context.Context, in *GetDeploymentStatsRequest, opts ...grpc.CallOption) (*types.DeploymentStatsResponse, error)
	PutAssignment(ctx context.Context, in *PutAssignmentRequest, opts ...grpc.CallOption) (*PutAssignmentResponse, error)
	DeleteAssignment(ctx context.Context, in *DeleteAssignmentRequest, opts ...grpc.CallOption) (*DeleteAssignmentResponse, error)
	ListAssignments(ctx context.Context, in *ListAssignmentsRequest, opts ...grpc.CallOption) (*ListAssignmentsResponse, error)
	RegisterNode(ctx context.Context, in *RegisterNodeRequest, opts ...grpc.CallOption) (*RegisterNodeResponse, error)
	ListNodes(ctx context.Context, in *ListNodesRequest, opts ...grpc.CallOption) (*ListNodesResponse, error)
	RemoveNode(ctx context.Context, in *RemoveNodeRequest, opts ...grpc.CallOption) (*RemoveNodeResponse, error)
	JoinCluster(ctx context.Context, in *JoinClusterRequest, opts ...grpc.CallOption) (*JoinClusterResponse, error)
}

type managerAPIClient struct {
	cc grpc.ClientConnInterface
}

// NewManagerAPIClient creates a ManagerAPI client on an existing connection
func NewManagerAPIClient(cc grpc.ClientConnInterface) ManagerAPIClient {
	return &managerAPIClient{cc: cc}
}

func (c *managerAPIClient) GetDeploymentStats(ctx context.Context, in *GetDeploymentStatsRequest, opts ...grpc.CallOption) (*types.DeploymentStatsResponse, error) {
	return invoke[types.DeploymentStatsResponse](ctx, c.cc, ManagerAPI_GetDeploymentStats_FullMethodName, in, opts...)
}

func (c *managerAPIClient) PutAssignment(ctx context.Context, in *PutAssignmentRequest, opts ...grpc.CallOption) (*PutAssignmentResponse, error) {
	return invoke[PutAssignmentResponse](ctx, c.cc, ManagerAPI_PutAssignment_FullMethodName, in, opts...)
}

func (c *managerAPIClient) DeleteAssignment(ctx context.Context, in *DeleteAssignmentRequest, opts ...grpc.CallOption) (*DeleteAssignmentResponse, error) {
	return invoke[DeleteAssignmentResponse](ctx, c.cc, ManagerAPI_DeleteAssignment_FullMethodName, in, opts...)
}

func (c *managerAPIClient) ListAssignments(ctx context.Context, in *ListAssignmentsRequest, opts ...grpc.CallOption) (*ListAssignmentsResponse, error) {
	return invoke[ListAssignmentsResponse](ctx, c.cc, ManagerAPI_ListAssignments_FullMethodName, in, opts...)
}

func (c *managerAPIClient) RegisterNode(ctx context.Context, in *RegisterNodeRequest, opts ...grpc.CallOption) (*RegisterNodeResponse, error) {
	return invoke[RegisterNodeResponse](ctx, c.cc, ManagerAPI_RegisterNode_FullMethodName, in, opts...)
}

func (c *managerAPIClient) ListNodes(ctx context.Context, in *ListNodesRequest, opts ...grpc.CallOption) (*ListNodesResponse, error) {
	return invoke[ListNodesResponse](ctx, c.cc, ManagerAPI_ListNodes_FullMethodName, in, opts...)
}

func (c *managerAPIClient) RemoveNode(ctx context.Context, in *RemoveNodeRequest, opts ...grpc.CallOption) (*RemoveNodeResponse, error) {
	return invoke[RemoveNodeResponse](ctx, c.cc, ManagerAPI_RemoveNode_FullMethodName, in, opts...)
}

func (c *managerAPIClient) JoinCluster(ctx context.Context, in *JoinClusterRequest, opts ...grpc.CallOption) (*JoinClusterResponse, error) {
	return invoke[JoinClusterResponse](ctx, c.cc, ManagerAPI_JoinCluster_FullMethodName, in, opts...)
}

// RegisterManagerAPIServer registers srv on s
func RegisterManagerAPIServer(s grpc.ServiceRegistrar, srv ManagerAPIServer) {
	s.RegisterService(&ManagerAPI_ServiceDesc, srv)
}

// ManagerAPI_ServiceDesc is the grpc.ServiceDesc for the burrow.ManagerAPI service
var ManagerAPI_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "burrow.ManagerAPI",
	HandlerType: (*ManagerAPIServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "GetDeploymentStats",
			Handler: unaryHandler(ManagerAPI_GetDeploymentStats_FullMethodName,
				func(srv interface{}, ctx context.Context, req *GetDeploymentStatsRequest) (*types.DeploymentStatsResponse, error) {
					return srv.(ManagerAPIServer).GetDeploymentStats(ctx, req)
				}),
		},
		{
			MethodName: "PutAssignment",
			Handler: unaryHandler(ManagerAPI_PutAssignment_FullMethodName,
				func(srv interface{}, ctx context.Context, req *PutAssignmentRequest) (*PutAssignmentResponse, error) {
					return srv.(ManagerAPIServer).PutAssignment(ctx, req)
				}),
		},
		{
			MethodName: "DeleteAssignment",
			Handler: unaryHandler(ManagerAPI_DeleteAssignment_FullMethodName,
				func(srv interface{}, ctx context.Context, req *DeleteAssignmentRequest) (*DeleteAssignmentResponse, error) {
					return srv.(ManagerAPIServer).DeleteAssignment(ctx, req)
				}),
		},
		{
			MethodName: "ListAssignments",
			Handler: unaryHandler(ManagerAPI_ListAssignments_FullMethodName,
				func(srv interface{}, ctx context.Context, req *ListAssignmentsRequest) (*ListAssignmentsResponse, error) {
					return srv.(ManagerAPIServer).ListAssignments(ctx, req)
				}),
		},
		{
			MethodName: "RegisterNode",
			Handler: unaryHandler(ManagerAPI_RegisterNode_FullMethodName,
				func(srv interface{}, ctx context.Context, req *RegisterNodeRequest) (*RegisterNodeResponse, error) {
					return srv.(ManagerAPIServer).RegisterNode(ctx, req)
				}),
		},
		{
			MethodName: "ListNodes",
			Handler: unaryHandler(ManagerAPI_ListNodes_FullMethodName,
				func(srv interface{}, ctx context.Context, req *ListNodesRequest) (*ListNodesResponse, error) {
					return srv.(ManagerAPIServer).ListNodes(ctx, req)
				}),
		},
		{
			MethodName: "RemoveNode",
			Handler: unaryHandler(ManagerAPI_RemoveNode_FullMethodName,
				func(srv interface{}, ctx context.Context, req *RemoveNodeRequest) (*RemoveNodeResponse, error) {
					return srv.(ManagerAPIServer).RemoveNode(ctx, req)
				}),
		},
		{
			MethodName: "JoinCluster",
			Handler: unaryHandler(ManagerAPI_JoinCluster_FullMethodName,
				func(srv interface{}, ctx context.Context, req *JoinClusterRequest) (*JoinClusterResponse, error) {
					return srv.(ManagerAPIServer).JoinCluster(ctx, req)
				}),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "api/rpc/manager.go",
}
