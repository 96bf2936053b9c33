package grpc

import (
	"context"
	"log/slog"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/dmehra2102/inventory-service/internal/inventory/domain"
)

// StockClient calls inventory.v1.StockService for upstream services that
// precheck a checkout.
type StockClient struct {
	log *slog.Logger
	cc  grpc.ClientConnInterface
}

func NewStockClient(log *slog.Logger, addr string, opts ...grpc.DialOption) (*StockClient, *grpc.ClientConn, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, nil, err
	}
	return &StockClient{log: log, cc: conn}, conn, nil
}

// CheckStock reports false when a product is missing or short; other
// failures are returned as errors.
func (c *StockClient) CheckStock(ctx context.Context, lines []domain.Reservation) (bool, error) {
	req, err := requestToStruct(lines)
	if err != nil {
		return false, err
	}
	resp := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, CheckStockMethod, req, resp); err != nil {
		switch status.Code(err) {
		case codes.FailedPrecondition, codes.NotFound:
			c.log.Info("stock unavailable", "reason", status.Convert(err).Message())
			return false, nil
		}
		return false, err
	}
	return resp.GetFields()["available"].GetBoolValue(), nil
}
