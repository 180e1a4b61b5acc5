package grpcapi

import (
	"context"
	"net"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"

	"github.com/cory-johannsen/diceroller/internal/config"
	"github.com/cory-johannsen/diceroller/internal/observability"
)

// UnaryLoggingInterceptor logs one line per unary call with a fresh request
// ID, the method, the resulting status code, and the elapsed time.
func UnaryLoggingInterceptor(logger *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		reqLogger := observability.RequestLogger(logger, "grpc", observability.NewRequestID())

		resp, err := handler(ctx, req)

		reqLogger.Info("grpc request",
			zap.String("method", info.FullMethod),
			zap.String("code", status.Code(err).String()),
			zap.Duration("elapsed", time.Since(start)),
		)
		return resp, err
	}
}

// Server runs DiceService as a server.Service.
type Server struct {
	addr   string
	grpc   *grpc.Server
	logger *zap.Logger
}

// NewServer creates a Server for svc listening on cfg.Addr().
//
// Precondition: svc and logger must be non-nil.
func NewServer(cfg config.GRPCConfig, svc DiceServiceServer, logger *zap.Logger) *Server {
	gs := grpc.NewServer(grpc.UnaryInterceptor(UnaryLoggingInterceptor(logger)))
	RegisterDiceServiceServer(gs, svc)
	return &Server{addr: cfg.Addr(), grpc: gs, logger: logger}
}

// Start listens and serves until Stop is called.
func (s *Server) Start() error {
	lis, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	return s.Serve(lis)
}

// Serve serves on an existing listener until Stop is called.
//
// Postcondition: Returns nil after Stop.
func (s *Server) Serve(lis net.Listener) error {
	s.logger.Info("grpc server listening", zap.String("addr", lis.Addr().String()))
	return s.grpc.Serve(lis)
}

// Stop drains in-flight calls, forcing a hard stop when ctx is done first.
func (s *Server) Stop(ctx context.Context) error {
	stopped := make(chan struct{})
	go func() {
		s.grpc.GracefulStop()
		close(stopped)
	}()
	select {
	case <-stopped:
		return nil
	case <-ctx.Done():
		s.grpc.Stop()
		<-stopped
		return ctx.Err()
	}
}
