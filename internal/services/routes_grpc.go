package services

import (
	"context"
	"encoding/json"
	"errors"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/dpup/dateline/internal/lib/geo"
)

// RouteServiceServer is the gRPC API of dateline.v1.RouteService.
// Messages are google.protobuf.Struct values carrying the same JSON shapes as
// the HTTP API (RouteRequest in, RouteResponse out).
type RouteServiceServer interface {
	ComputeRoute(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

const computeRouteMethod = "/dateline.v1.RouteService/ComputeRoute"

// RouteServiceDesc describes dateline.v1.RouteService for registration
var RouteServiceDesc = grpc.ServiceDesc{
	ServiceName: "dateline.v1.RouteService",
	HandlerType: (*RouteServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "ComputeRoute",
			Handler:    computeRouteHandler,
		},
	},
	Streams: []grpc.StreamDesc{},
}

// RouteServiceClient is the client API for dateline.v1.RouteService
type RouteServiceClient interface {
	ComputeRoute(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type routeServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewRouteServiceClient creates a route service client over a connection
func NewRouteServiceClient(cc grpc.ClientConnInterface) RouteServiceClient {
	return &routeServiceClient{cc: cc}
}

func (c *routeServiceClient) ComputeRoute(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, computeRouteMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// RegisterRouteServiceServer registers the route service with a gRPC server
func RegisterRouteServiceServer(s grpc.ServiceRegistrar, srv RouteServiceServer) {
	s.RegisterService(&RouteServiceDesc, srv)
}

func computeRouteHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RouteServiceServer).ComputeRoute(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: computeRouteMethod,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(RouteServiceServer).ComputeRoute(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// ComputeRoute implements the gRPC method
func (s *RouteService) ComputeRoute(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var routeReq RouteRequest
	if err := convertJSON(req.AsMap(), &routeReq); err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid request: %v", err)
	}

	endpoints, name, numPoints, err := s.Resolve(routeReq)
	if err != nil {
		return nil, grpcError(err)
	}

	route, err := s.Compute(ctx, endpoints, numPoints)
	if err != nil {
		return nil, grpcError(err)
	}

	resp, err := toStruct(s.response(route, name))
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode route: %v", err)
	}
	return resp, nil
}

// toStruct converts a JSON-tagged value into a google.protobuf.Struct
func toStruct(v interface{}) (*structpb.Struct, error) {
	var m map[string]interface{}
	if err := convertJSON(v, &m); err != nil {
		return nil, err
	}
	return structpb.NewStruct(m)
}

// convertJSON copies between JSON-compatible shapes
func convertJSON(in, out interface{}) error {
	data, err := json.Marshal(in)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

// grpcError maps route errors onto gRPC status codes
func grpcError(err error) error {
	if _, ok := status.FromError(err); ok {
		return err
	}

	var badReq *badRequestError
	switch {
	case errors.As(err, &badReq), errors.Is(err, geo.ErrInvalidInput):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, geo.ErrDegenerateCrossing):
		return status.Error(codes.FailedPrecondition, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
