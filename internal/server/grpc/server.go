package grpc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"

	"github.com/Additional-Code/creditdesk/internal/config"
	"github.com/Additional-Code/creditdesk/pkg/errorbank"
)

// Module exposes the gRPC server and lifecycle hooks to Fx.
var Module = fx.Module("grpc_server",
	fx.Provide(NewServer),
	fx.Invoke(Run),
)

// NewServer builds a gRPC server with the standard health service and
// interceptors that log calls and translate application errors into
// status codes.
func NewServer(logger *zap.Logger) (*grpc.Server, *health.Server) {
	log := logger.Named("grpc")

	server := grpc.NewServer(
		grpc.ChainUnaryInterceptor(unaryLogger(log), unaryErrors(log)),
		grpc.ChainStreamInterceptor(streamLogger(log)),
	)

	hs := health.NewServer()
	healthpb.RegisterHealthServer(server, hs)
	reflection.Register(server)

	return server, hs
}

func unaryLogger(log *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		fields := []zap.Field{zap.String("method", info.FullMethod), zap.Duration("duration", time.Since(start))}
		if err != nil {
			log.Warn("grpc unary call finished", append(fields, zap.String("code", status.Code(err).String()), zap.Error(err))...)
		} else {
			log.Debug("grpc unary call finished", fields...)
		}
		return resp, err
	}
}

// unaryErrors maps errorbank kinds onto gRPC codes. Internal causes are
// logged and never sent to the caller.
func unaryErrors(log *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		resp, err := handler(ctx, req)
		if err == nil {
			return resp, nil
		}
		return resp, toStatus(log, info.FullMethod, err)
	}
}

func toStatus(log *zap.Logger, method string, err error) error {
	if _, ok := status.FromError(err); ok {
		return err
	}
	appErr := errorbank.From(err)
	if appErr.Kind() == errorbank.KindInternal {
		log.Error("grpc call failed", zap.String("method", method), zap.String("cause", appErr.Debug()))
	}
	return status.Error(appErr.GRPCCode(), appErr.Message())
}

func streamLogger(log *zap.Logger) grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		start := time.Now()
		err := handler(srv, ss)
		fields := []zap.Field{zap.String("method", info.FullMethod), zap.Duration("duration", time.Since(start))}
		if err != nil {
			log.Warn("grpc stream call finished", append(fields, zap.Error(err))...)
		} else {
			log.Debug("grpc stream call finished", fields...)
		}
		return err
	}
}

// Run binds the gRPC server to the configured host/port and manages lifecycle.
func Run(lc fx.Lifecycle, cfg config.Config, server *grpc.Server, hs *health.Server, logger *zap.Logger) {
	addr := fmt.Sprintf("%s:%d", cfg.GRPC.Host, cfg.GRPC.Port)
	var listener net.Listener

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", addr)
			if err != nil {
				return fmt.Errorf("listen grpc: %w", err)
			}
			listener = ln
			hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
			logger.Info("starting gRPC server", zap.String("addr", addr))
			go func() {
				if err := server.Serve(listener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
					logger.Fatal("grpc server failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("stopping gRPC server")
			hs.Shutdown()
			stopped := make(chan struct{})
			go func() {
				server.GracefulStop()
				close(stopped)
			}()

			select {
			case <-ctx.Done():
				server.Stop()
				return ctx.Err()
			case <-stopped:
				if listener != nil {
					_ = listener.Close()
				}
				return nil
			}
		},
	})
}
