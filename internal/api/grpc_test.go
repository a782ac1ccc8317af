package api

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

func newTestGRPC(t *testing.T, api *testAPI) *grpc.ClientConn {
	t.Helper()
	cfg := testAPIConfig()
	lis := bufconn.Listen(1 << 20)

	srv, err := newGRPCServer(&cfg, lis, NewInventoryService(api.svc.Events, api.svc.Analytics), nil)
	require.NoError(t, err)
	go func() { _ = srv.Serve() }()
	t.Cleanup(func() { srv.Shutdown(context.Background()) })

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func authed(key, extra string) context.Context {
	return metadata.AppendToOutgoingContext(context.Background(), "x-api-key", key, "x-api-extra", extra)
}

func TestInventoryService(t *testing.T) {
	api := newTestAPI(t)
	event := api.createEvent(t, "Festivals", 30, 45)
	_, token := api.register(t, "asha")
	resp := api.do(t, "POST", "/api/v1/bookings", token, map[string]any{"event_id": event.ID, "seats": 3})
	require.Equal(t, 201, resp.StatusCode)

	conn := newTestGRPC(t, api)

	t.Run("availability", func(t *testing.T) {
		out := new(structpb.Struct)
		err := conn.Invoke(authed("valid-key", "valid-extra"), methodGetAvailability, wrapperspb.Int64(event.ID), out)
		require.NoError(t, err)
		fields := out.AsMap()
		assert.Equal(t, float64(27), fields["available_seats"])
		assert.Equal(t, float64(3), fields["booked_seats"])
		assert.Equal(t, "Festivals Night", fields["title"])
	})

	t.Run("unknown event", func(t *testing.T) {
		err := conn.Invoke(authed("valid-key", "valid-extra"), methodGetAvailability, wrapperspb.Int64(9999), new(structpb.Struct))
		assert.Equal(t, codes.NotFound, status.Code(err))
	})

	t.Run("invalid id", func(t *testing.T) {
		err := conn.Invoke(authed("valid-key", "valid-extra"), methodGetAvailability, wrapperspb.Int64(0), new(structpb.Struct))
		assert.Equal(t, codes.InvalidArgument, status.Code(err))
	})

	t.Run("unauthenticated", func(t *testing.T) {
		err := conn.Invoke(context.Background(), methodGetAvailability, wrapperspb.Int64(event.ID), new(structpb.Struct))
		assert.Equal(t, codes.Unauthenticated, status.Code(err))
	})

	t.Run("statistics", func(t *testing.T) {
		err := conn.Invoke(authed("valid-key", "valid-extra"), methodGetBookingStatistics, &emptypb.Empty{}, new(structpb.Struct))
		assert.Equal(t, codes.PermissionDenied, status.Code(err))

		out := new(structpb.Struct)
		require.NoError(t, conn.Invoke(authed("all-key", "all-extra"), methodGetBookingStatistics, &emptypb.Empty{}, out))
		fields := out.AsMap()
		assert.Equal(t, float64(1), fields["total_bookings"])
		assert.InDelta(t, 135.0, fields["total_revenue"], 0.001)
	})

	t.Run("health", func(t *testing.T) {
		resp, err := healthpb.NewHealthClient(conn).Check(context.Background(), &healthpb.HealthCheckRequest{Service: inventoryServiceName})
		require.NoError(t, err)
		assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())
	})
}
