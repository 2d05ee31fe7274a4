package fastd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/protobuf/types/known/structpb"
)

// ControllerServiceName is the fully qualified gRPC service name.
const ControllerServiceName = "fast.v1.ControllerService"

// ControllerServiceServer is the server API of fast.v1.ControllerService.
// Requests and responses are google.protobuf.Struct values holding the same
// JSON documents as the HTTP API.
type ControllerServiceServer interface {
	CreateController(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetController(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ComputeSchedule(context.Context, *structpb.Struct) (*structpb.Struct, error)
	TuneController(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DeleteController(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryMethod func(ControllerServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(name string, call unaryMethod) grpc.MethodDesc {
	fullMethod := "/" + ControllerServiceName + "/" + name
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(ControllerServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(ControllerServiceServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// ControllerServiceDesc describes fast.v1.ControllerService for grpc.Server.
var ControllerServiceDesc = grpc.ServiceDesc{
	ServiceName: ControllerServiceName,
	HandlerType: (*ControllerServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryHandler("CreateController", ControllerServiceServer.CreateController),
		unaryHandler("GetController", ControllerServiceServer.GetController),
		unaryHandler("ComputeSchedule", ControllerServiceServer.ComputeSchedule),
		unaryHandler("TuneController", ControllerServiceServer.TuneController),
		unaryHandler("DeleteController", ControllerServiceServer.DeleteController),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "fast/v1/controller_service.proto",
}

// RegisterControllerServiceServer registers srv on s.
func RegisterControllerServiceServer(s grpc.ServiceRegistrar, srv ControllerServiceServer) {
	s.RegisterService(&ControllerServiceDesc, srv)
}

// RegisterGRPC registers the controller service backed by store and a health
// service reporting it as serving.
func RegisterGRPC(s grpc.ServiceRegistrar, store *Store) *health.Server {
	RegisterControllerServiceServer(s, NewGRPCServer(store))
	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(ControllerServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(s, hs)
	return hs
}

// ControllerClient calls fast.v1.ControllerService.
type ControllerClient struct {
	cc grpc.ClientConnInterface
}

func NewControllerClient(cc grpc.ClientConnInterface) *ControllerClient {
	return &ControllerClient{cc: cc}
}

func (c *ControllerClient) invoke(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+ControllerServiceName+"/"+method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ControllerClient) CreateController(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "CreateController", in, opts...)
}

func (c *ControllerClient) GetController(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "GetController", in, opts...)
}

func (c *ControllerClient) ComputeSchedule(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "ComputeSchedule", in, opts...)
}

func (c *ControllerClient) TuneController(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "TuneController", in, opts...)
}

func (c *ControllerClient) DeleteController(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "DeleteController", in, opts...)
}

// EncodeStruct converts a JSON-encodable value to a Struct.
func EncodeStruct(v any) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return structpb.NewStruct(m)
}

// DecodeStruct decodes s into v as if s were a JSON object. Unknown fields
// are rejected.
func DecodeStruct(s *structpb.Struct, v any) error {
	data, err := json.Marshal(s.AsMap())
	if err != nil {
		return err
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	return nil
}
