package statusserver

import (
	"context"

	"github.com/nais/publish/pkg/deployment"
	"google.golang.org/grpc"
)

const (
	ServiceName = "publish.Status"
	watchMethod = "/publish.Status/Watch"
)

type WatchRequest struct {
	DeploymentID string `json:"deploymentID"`
}

type StatusServer interface {
	// Watch streams the current status of a deployment followed by every later transition,
	// and returns once the deployment has finished.
	Watch(*WatchRequest, Status_WatchServer) error
}

type Status_WatchServer interface {
	Send(*deployment.Status) error
	grpc.ServerStream
}

type statusWatchServer struct {
	grpc.ServerStream
}

func (x *statusWatchServer) Send(m *deployment.Status) error {
	return x.ServerStream.SendMsg(m)
}

func _Status_Watch_Handler(srv interface{}, stream grpc.ServerStream) error {
	m := new(WatchRequest)
	if err := stream.RecvMsg(m); err != nil {
		return err
	}
	return srv.(StatusServer).Watch(m, &statusWatchServer{stream})
}

var Status_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*StatusServer)(nil),
	Methods:     []grpc.MethodDesc{},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "Watch",
			Handler:       _Status_Watch_Handler,
			ServerStreams: true,
		},
	},
	Metadata: "publish/status",
}

func RegisterStatusServer(s grpc.ServiceRegistrar, srv StatusServer) {
	s.RegisterService(&Status_ServiceDesc, srv)
}

type StatusClient interface {
	Watch(ctx context.Context, in *WatchRequest, opts ...grpc.CallOption) (Status_WatchClient, error)
}

type Status_WatchClient interface {
	Recv() (*deployment.Status, error)
	grpc.ClientStream
}

type statusClient struct {
	cc grpc.ClientConnInterface
}

func NewStatusClient(cc grpc.ClientConnInterface) StatusClient {
	return &statusClient{cc}
}

func (c *statusClient) Watch(ctx context.Context, in *WatchRequest, opts ...grpc.CallOption) (Status_WatchClient, error) {
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	stream, err := c.cc.NewStream(ctx, &Status_ServiceDesc.Streams[0], watchMethod, opts...)
	if err != nil {
		return nil, err
	}
	x := &statusWatchClient{stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}

type statusWatchClient struct {
	grpc.ClientStream
}

func (x *statusWatchClient) Recv() (*deployment.Status, error) {
	m := new(deployment.Status)
	if err := x.ClientStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}
