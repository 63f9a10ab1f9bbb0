package grpc

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/DRSN-tech/storefront-backend/internal/cfg"
	"github.com/DRSN-tech/storefront-backend/internal/domain"
	"github.com/DRSN-tech/storefront-backend/internal/repository/memory"
	"github.com/DRSN-tech/storefront-backend/internal/usecase"
	"github.com/DRSN-tech/storefront-backend/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

func startServer(t *testing.T) *grpc.ClientConn {
	t.Helper()

	store := memory.NewStore()
	t.Cleanup(store.Close)

	log := logger.NewNopLogger()
	cache := memory.NewCache()
	prUC := usecase.NewProductUC(store.Products(), cache, usecase.NewStockLedger(store.Products(), cache, log), store, log)
	_, err := prUC.SaveProduct(context.Background(), &domain.Product{
		ID: "kb", Name: "Keyboard", OriginalPrice: 50000, DiscountedPrice: 45000, Stock: 3, Category: domain.CategoryPhysical,
	})
	require.NoError(t, err)

	srv := NewGRPCServer(&cfg.GRPCConfig{}, log)
	srv.RegisterServices(prUC)

	lis := bufconn.Listen(1 << 20)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Stop(ctx)
	})

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return conn
}

func TestCatalogGetProduct(t *testing.T) {
	conn := startServer(t)
	ctx := context.Background()

	var out structpb.Struct
	err := conn.Invoke(ctx, "/"+CatalogServiceName+"/GetProduct", wrapperspb.String("kb"), &out)
	require.NoError(t, err)

	fields := out.AsMap()
	assert.Equal(t, "Keyboard", fields["name"])
	assert.Equal(t, float64(10), fields["discountPercent"])

	err = conn.Invoke(ctx, "/"+CatalogServiceName+"/GetProduct", wrapperspb.String("missing"), &out)
	assert.Equal(t, codes.NotFound, status.Code(err))

	err = conn.Invoke(ctx, "/"+CatalogServiceName+"/GetProduct", wrapperspb.String(" "), &out)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestCatalogListProducts(t *testing.T) {
	conn := startServer(t)

	var out structpb.ListValue
	require.NoError(t, conn.Invoke(context.Background(), "/"+CatalogServiceName+"/ListProducts", &emptypb.Empty{}, &out))
	require.Len(t, out.GetValues(), 1)
	assert.Equal(t, "kb", out.GetValues()[0].GetStructValue().AsMap()["id"])
}

func TestHealth(t *testing.T) {
	conn := startServer(t)

	res, err := healthpb.NewHealthClient(conn).Check(context.Background(), &healthpb.HealthCheckRequest{Service: CatalogServiceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, res.GetStatus())
}
