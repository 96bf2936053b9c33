package grpc

import (
	"context"
	"math"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/dmehra2102/inventory-service/internal/inventory/domain"
)

const (
	ServiceName      = "inventory.v1.StockService"
	CheckStockMethod = "/" + ServiceName + "/CheckStock"
)

// StockServiceServer is the server API of inventory.v1.StockService. Messages
// are google.protobuf.Struct values:
//
//	request:  {"lines": [{"productId": 10, "quantity": 3}]}
//	response: {"available": true}
type StockServiceServer interface {
	CheckStock(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

var StockServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*StockServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "CheckStock", Handler: checkStockHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "inventory/v1/stock.proto",
}

func RegisterStockServiceServer(s grpc.ServiceRegistrar, srv StockServiceServer) {
	s.RegisterService(&StockServiceDesc, srv)
}

func checkStockHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(StockServiceServer).CheckStock(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: CheckStockMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(StockServiceServer).CheckStock(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func requestFromStruct(s *structpb.Struct) domain.AvailabilityRequest {
	var req domain.AvailabilityRequest
	for _, v := range s.GetFields()["lines"].GetListValue().GetValues() {
		fields := v.GetStructValue().GetFields()
		req.Lines = append(req.Lines, domain.StockLine{
			ProductID: intField(fields, "productId"),
			Quantity:  intField(fields, "quantity"),
		})
	}
	return req
}

func intField(fields map[string]*structpb.Value, name string) *int64 {
	v, ok := fields[name]
	if !ok {
		return nil
	}
	n, ok := v.GetKind().(*structpb.Value_NumberValue)
	if !ok {
		return nil
	}
	f := n.NumberValue
	// Fractions, NaN and values outside int64 count as missing.
	if f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
		return nil
	}
	i := int64(f)
	return &i
}

func requestToStruct(lines []domain.Reservation) (*structpb.Struct, error) {
	items := make([]any, 0, len(lines))
	for _, l := range lines {
		items = append(items, map[string]any{"productId": l.ProductID, "quantity": l.Quantity})
	}
	return structpb.NewStruct(map[string]any{"lines": items})
}
