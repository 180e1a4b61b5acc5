// Package grpcapi exposes the roll evaluator as the gRPC service
// dice.v1.DiceService. Messages are protobuf well-known types, so the service
// is declared with a hand-written grpc.ServiceDesc rather than generated stubs:
//
//	service DiceService {
//	  rpc Roll(google.protobuf.StringValue) returns (google.protobuf.Struct);
//	}
//
// The response Struct has the shape {"total": n, "rolls": {key: [[n, ...], ...]}}.
// Integers outside ±2^53 are sent as decimal strings, since a Struct number is a
// double.
package grpcapi

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/cory-johannsen/diceroller/internal/dice"
)

// ServiceName is the fully-qualified gRPC service name.
const ServiceName = "dice.v1.DiceService"

const rollMethod = "/" + ServiceName + "/Roll"

// DiceServiceServer is the server API for dice.v1.DiceService.
type DiceServiceServer interface {
	Roll(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error)
}

var diceServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*DiceServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Roll", Handler: rollHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "dice/v1/dice.proto",
}

// RegisterDiceServiceServer registers srv on s.
func RegisterDiceServiceServer(s grpc.ServiceRegistrar, srv DiceServiceServer) {
	s.RegisterService(&diceServiceDesc, srv)
}

func rollHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(DiceServiceServer).Roll(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: rollMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(DiceServiceServer).Roll(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

// RollFunc evaluates a roll string. *dice.Roller satisfies it via its Roll method.
type RollFunc func(rollString string) (dice.RollResult, error)

// Service implements DiceServiceServer over a RollFunc.
type Service struct {
	roll        RollFunc
	defaultRoll string
	logger      *zap.Logger
}

// NewService creates a Service.
//
// Precondition: roll and logger must be non-nil; defaultRoll must be non-empty.
func NewService(roll RollFunc, defaultRoll string, logger *zap.Logger) *Service {
	return &Service{roll: roll, defaultRoll: defaultRoll, logger: logger}
}

// Roll evaluates req's roll string, or the default roll string when empty.
//
// Postcondition: validation failures map to codes.InvalidArgument, anything
// else to codes.Internal.
func (s *Service) Roll(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	rollString := req.GetValue()
	if rollString == "" {
		rollString = s.defaultRoll
	}

	result, err := s.roll(rollString)
	if err != nil {
		if dice.IsValidationError(err) {
			return nil, status.Error(codes.InvalidArgument, err.Error())
		}
		s.logger.Error("roll evaluation failed",
			zap.String("roll_string", rollString),
			zap.Error(err),
		)
		return nil, status.Error(codes.Internal, "internal server error")
	}

	out, err := ResultToStruct(result)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

// ResultToStruct converts r to its wire Struct.
func ResultToStruct(r dice.RollResult) (*structpb.Struct, error) {
	rolls := make(map[string]any, len(r.Rolls))
	for key, groups := range r.Rolls {
		gs := make([]any, len(groups))
		for i, g := range groups {
			faces := make([]any, len(g))
			for j, f := range g {
				faces[j] = wireInt(f)
			}
			gs[i] = faces
		}
		rolls[key] = gs
	}
	s, err := structpb.NewStruct(map[string]any{
		"total": wireInt(r.Total),
		"rolls": rolls,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding roll result: %w", err)
	}
	return s, nil
}

// ResultFromStruct decodes a wire Struct produced by ResultToStruct.
func ResultFromStruct(s *structpb.Struct) (dice.RollResult, error) {
	fields := s.GetFields()
	totalV, ok := fields["total"]
	if !ok {
		return dice.RollResult{}, fmt.Errorf("decoding roll result: missing total")
	}
	total, err := intFromValue(totalV)
	if err != nil {
		return dice.RollResult{}, fmt.Errorf("decoding roll result total: %w", err)
	}
	result := dice.RollResult{
		Total: total,
		Rolls: map[string][]dice.RollGroup{},
	}
	for key, v := range fields["rolls"].GetStructValue().GetFields() {
		groups := v.GetListValue().GetValues()
		out := make([]dice.RollGroup, len(groups))
		for i, g := range groups {
			faces := g.GetListValue().GetValues()
			group := make(dice.RollGroup, len(faces))
			for j, f := range faces {
				n, err := intFromValue(f)
				if err != nil {
					return dice.RollResult{}, fmt.Errorf("decoding roll result %s: %w", key, err)
				}
				group[j] = n
			}
			out[i] = group
		}
		result.Rolls[key] = out
	}
	return result, nil
}

// maxExactWireInt is the largest magnitude a float64 Struct number holds exactly.
const maxExactWireInt = 1 << 53

func wireInt(n int) any {
	if n > maxExactWireInt || n < -maxExactWireInt {
		return strconv.Itoa(n)
	}
	return n
}

func intFromValue(v *structpb.Value) (int, error) {
	switch k := v.GetKind().(type) {
	case *structpb.Value_NumberValue:
		return int(k.NumberValue), nil
	case *structpb.Value_StringValue:
		n, err := strconv.Atoi(k.StringValue)
		if err != nil {
			return 0, fmt.Errorf("integer %q: %w", k.StringValue, err)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("expected integer, got %T", k)
	}
}

// DiceServiceClient is the client API for dice.v1.DiceService.
type DiceServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewDiceServiceClient creates a client over cc.
func NewDiceServiceClient(cc grpc.ClientConnInterface) *DiceServiceClient {
	return &DiceServiceClient{cc: cc}
}

// Roll evaluates rollString remotely; an empty string selects the server's default.
func (c *DiceServiceClient) Roll(ctx context.Context, rollString string, opts ...grpc.CallOption) (dice.RollResult, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, rollMethod, wrapperspb.String(rollString), out, opts...); err != nil {
		return dice.RollResult{}, err
	}
	return ResultFromStruct(out)
}
