package grpc

import (
	"context"
	"strings"

	"github.com/DRSN-tech/storefront-backend/internal/usecase"
	"github.com/DRSN-tech/storefront-backend/pkg/e"
	"github.com/DRSN-tech/storefront-backend/pkg/logger"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// CatalogServiceName — имя сервиса каталога для внутренних потребителей (склад, рекомендации).
// Сообщения описаны стандартными well-known types.
const CatalogServiceName = "storefront.v1.Catalog"

type CatalogServer interface {
	GetProduct(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error)
	ListProducts(ctx context.Context, req *emptypb.Empty) (*structpb.ListValue, error)
}

type CatalogService struct {
	prUC   usecase.ProductUC
	logger logger.Logger
}

func NewCatalogService(prUC usecase.ProductUC, logger logger.Logger) *CatalogService {
	return &CatalogService{prUC: prUC, logger: logger}
}

func (g *CatalogService) GetProduct(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	const op = "grpc.GetProduct"

	id := strings.TrimSpace(req.GetValue())
	if id == "" {
		return nil, GRPCErrorResponse(e.Wrap(op, e.ErrStatusBadRequest))
	}

	product, err := g.prUC.GetProduct(ctx, id)
	if err != nil {
		g.logger.Warnf("%s: %v", op, err)
		return nil, GRPCErrorResponse(e.Wrap(op, err))
	}

	res, err := toStruct(product)
	if err != nil {
		g.logger.Errorf(e.Wrap(op, err), "%s", op)
		return nil, GRPCErrorResponse(e.Wrap(op, err))
	}

	return res, nil
}

func (g *CatalogService) ListProducts(ctx context.Context, _ *emptypb.Empty) (*structpb.ListValue, error) {
	const op = "grpc.ListProducts"

	products, err := g.prUC.ListProducts(ctx)
	if err != nil {
		g.logger.Errorf(e.Wrap(op, err), "%s", op)
		return nil, GRPCErrorResponse(e.Wrap(op, err))
	}

	values := make([]*structpb.Value, 0, len(products))
	for i := range products {
		s, err := toStruct(&products[i])
		if err != nil {
			g.logger.Errorf(e.Wrap(op, err), "%s", op)
			return nil, GRPCErrorResponse(e.Wrap(op, err))
		}
		values = append(values, structpb.NewStructValue(s))
	}

	return &structpb.ListValue{Values: values}, nil
}

func RegisterCatalogServer(s grpc.ServiceRegistrar, srv CatalogServer) {
	s.RegisterService(&catalogServiceDesc, srv)
}

func catalogGetProductHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CatalogServer).GetProduct(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + CatalogServiceName + "/GetProduct"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(CatalogServer).GetProduct(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func catalogListProductsHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CatalogServer).ListProducts(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + CatalogServiceName + "/ListProducts"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(CatalogServer).ListProducts(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

var catalogServiceDesc = grpc.ServiceDesc{
	ServiceName: CatalogServiceName,
	HandlerType: (*CatalogServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetProduct", Handler: catalogGetProductHandler},
		{MethodName: "ListProducts", Handler: catalogListProductsHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "storefront/v1/catalog.proto",
}
