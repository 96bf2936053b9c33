package grpc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/dmehra2102/inventory-service/internal/inventory/domain"
)

type StockChecker interface {
	CheckStock(ctx context.Context, req domain.AvailabilityRequest) error
}

type Server struct {
	log *slog.Logger
	svc StockChecker
}

func NewServer(log *slog.Logger, svc StockChecker) *Server {
	return &Server{log: log, svc: svc}
}

func (s *Server) CheckStock(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if err := s.svc.CheckStock(ctx, requestFromStruct(req)); err != nil {
		return nil, toStatus(err)
	}
	return structpb.NewStruct(map[string]any{"available": true})
}

// NewGRPCServer registers the stock and health services on a fresh server.
func NewGRPCServer(log *slog.Logger, srv *Server) *grpc.Server {
	gs := grpc.NewServer(grpc.ChainUnaryInterceptor(recoverInterceptor(log)))
	RegisterStockServiceServer(gs, srv)

	hs := health.NewServer()
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(gs, hs)
	return gs
}

func Run(log *slog.Logger, addr string, srv *Server) (*grpc.Server, error) {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	gs := NewGRPCServer(log, srv)
	go func() {
		if err := gs.Serve(lis); err != nil {
			log.Error("grpc serve stopped", "err", err)
		}
	}()
	log.Info("grpc listening", "addr", addr)
	return gs, nil
}

func toStatus(err error) error {
	var se *domain.StockError
	productID := ""
	if errors.As(err, &se) {
		productID = fmt.Sprint(se.ProductID)
	}
	switch {
	case errors.Is(err, domain.ErrOutOfStock):
		return status.Errorf(codes.FailedPrecondition, "%v (product_id=%s)", err, productID)
	case errors.Is(err, domain.ErrNotFound):
		return status.Errorf(codes.NotFound, "%v (product_id=%s)", err, productID)
	case domain.IsValidation(err):
		return status.Error(codes.InvalidArgument, err.Error())
	default:
		return status.Error(codes.Internal, "stock check failed")
	}
}

func recoverInterceptor(log *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp any, err error) {
		defer func() {
			if r := recover(); r != nil {
				log.Error("grpc handler panic", "method", info.FullMethod, "panic", r)
				err = status.Error(codes.Internal, "internal error")
			}
		}()
		return handler(ctx, req)
	}
}
