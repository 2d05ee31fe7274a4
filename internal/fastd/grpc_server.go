package fastd

import (
	"context"

	"github.com/GoSim-25-26J-441/fast-controller/pkg/logger"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// GRPCServer implements ControllerServiceServer using a Store backend.
type GRPCServer struct {
	store *Store
}

// NewGRPCServer creates a new GRPCServer with the provided Store.
func NewGRPCServer(store *Store) *GRPCServer {
	return &GRPCServer{store: store}
}

type idRequest struct {
	ID string `json:"id"`
}

type grpcScheduleRequest struct {
	ID string `json:"id"`
	ScheduleRequest
}

type grpcTuneRequest struct {
	ID string `json:"id"`
	TuneRequest
}

func statusError(err error) error {
	return status.Error(grpcCode(err), err.Error())
}

func respond(v any) (*structpb.Struct, error) {
	out, err := EncodeStruct(v)
	if err != nil {
		logger.Error("failed to encode response", "error", err)
		return nil, status.Error(codes.Internal, "failed to encode response")
	}
	return out, nil
}

func (s *GRPCServer) session(req *structpb.Struct, v any, id func() string) (*Session, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	if err := DecodeStruct(req, v); err != nil {
		return nil, statusError(err)
	}
	if id() == "" {
		return nil, status.Error(codes.InvalidArgument, "id is required")
	}
	sess, err := s.store.Get(id())
	if err != nil {
		return nil, statusError(err)
	}
	return sess, nil
}

func (s *GRPCServer) CreateController(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	var in CreateRequest
	if err := DecodeStruct(req, &in); err != nil {
		return nil, statusError(err)
	}
	sess, err := s.store.Create(in.ID, in.Controller)
	if err != nil {
		return nil, statusError(err)
	}
	logger.Info("controller created", "controller_id", sess.ID())
	return respond(map[string]any{"controller": sess.Info()})
}

func (s *GRPCServer) GetController(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in idRequest
	sess, err := s.session(req, &in, func() string { return in.ID })
	if err != nil {
		return nil, err
	}
	return respond(map[string]any{"controller": sess.Info()})
}

func (s *GRPCServer) ComputeSchedule(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in grpcScheduleRequest
	sess, err := s.session(req, &in, func() string { return in.ID })
	if err != nil {
		return nil, err
	}
	res, err := sess.ComputeSchedule(in.Tag, in.Measures)
	if err != nil {
		return nil, statusError(err)
	}
	if res.Schedule.Oscillating {
		logger.Warn("controller oscillating", "controller_id", in.ID, "iteration", res.Iteration)
	}
	return respond(res)
}

func (s *GRPCServer) TuneController(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in grpcTuneRequest
	sess, err := s.session(req, &in, func() string { return in.ID })
	if err != nil {
		return nil, err
	}
	if err := sess.Tune(in.TuneRequest); err != nil {
		return nil, statusError(err)
	}
	logger.Info("controller tuned", "controller_id", in.ID)
	return respond(map[string]any{"controller": sess.Info()})
}

func (s *GRPCServer) DeleteController(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	var in idRequest
	if err := DecodeStruct(req, &in); err != nil {
		return nil, statusError(err)
	}
	if in.ID == "" {
		return nil, status.Error(codes.InvalidArgument, "id is required")
	}
	if err := s.store.Delete(in.ID); err != nil {
		return nil, statusError(err)
	}
	logger.Info("controller deleted", "controller_id", in.ID)
	return respond(map[string]any{"deleted": in.ID})
}
