package api

import (
	"context"
	"errors"

	"bookhive/internal/analytics"
	"bookhive/internal/domain"
	"bookhive/internal/models"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	inventoryServiceName       = "bookhive.inventory.v1.InventoryService"
	methodGetAvailability      = "/" + inventoryServiceName + "/GetAvailability"
	methodGetBookingStatistics = "/" + inventoryServiceName + "/GetBookingStatistics"
)

// InventoryServer is the seat inventory surface for other services.
type InventoryServer interface {
	GetAvailability(context.Context, *wrapperspb.Int64Value) (*structpb.Struct, error)
	GetBookingStatistics(context.Context, *emptypb.Empty) (*structpb.Struct, error)
}

// InventoryServiceDesc describes InventoryServer using well-known message types only.
var InventoryServiceDesc = grpc.ServiceDesc{
	ServiceName: inventoryServiceName,
	HandlerType: (*InventoryServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetAvailability", Handler: getAvailabilityHandler},
		{MethodName: "GetBookingStatistics", Handler: getBookingStatisticsHandler},
	},
	Streams: []grpc.StreamDesc{},
}

func getAvailabilityHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.Int64Value)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(InventoryServer).GetAvailability(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodGetAvailability}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(InventoryServer).GetAvailability(ctx, req.(*wrapperspb.Int64Value))
	}
	return interceptor(ctx, in, info, handler)
}

func getBookingStatisticsHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(InventoryServer).GetBookingStatistics(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodGetBookingStatistics}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(InventoryServer).GetBookingStatistics(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

type eventReader interface {
	Get(ctx context.Context, id int64) (*models.Event, error)
}

type salesReader interface {
	Sales(ctx context.Context, topN int) (*analytics.SalesReport, error)
}

type InventoryService struct {
	events eventReader
	sales  salesReader
}

func NewInventoryService(events eventReader, sales salesReader) *InventoryService {
	return &InventoryService{events: events, sales: sales}
}

func (s *InventoryService) GetAvailability(ctx context.Context, req *wrapperspb.Int64Value) (*structpb.Struct, error) {
	if req.GetValue() <= 0 {
		return nil, status.Error(codes.InvalidArgument, "event id is required")
	}

	event, err := s.events.Get(ctx, req.GetValue())
	if errors.Is(err, domain.ErrNotFound) {
		return nil, status.Error(codes.NotFound, "event not found")
	}
	if err != nil {
		return nil, status.Error(codes.Internal, "failed to load event")
	}

	out, err := structpb.NewStruct(availabilityFields(event))
	if err != nil {
		return nil, status.Error(codes.Internal, "failed to encode availability")
	}
	return out, nil
}

func (s *InventoryService) GetBookingStatistics(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	report, err := s.sales.Sales(ctx, 0)
	if err != nil {
		return nil, status.Error(codes.Internal, "failed to load bookings")
	}

	out, err := structpb.NewStruct(statisticsFields(report.Statistics))
	if err != nil {
		return nil, status.Error(codes.Internal, "failed to encode statistics")
	}
	return out, nil
}

func availabilityFields(event *models.Event) map[string]any {
	return map[string]any{
		"event_id":        event.ID,
		"title":           event.Title,
		"status":          event.Status,
		"total_seats":     event.TotalSeats,
		"available_seats": event.AvailableSeats,
		"booked_seats":    event.TotalSeats - event.AvailableSeats,
		"bookable":        event.IsActive() && event.AvailableSeats > 0,
	}
}

func statisticsFields(stats analytics.BookingStats) map[string]any {
	breakdown := make(map[string]any, len(stats.StatusBreakdown))
	for k, v := range stats.StatusBreakdown {
		breakdown[k] = v
	}
	return map[string]any{
		"total_bookings":        stats.TotalBookings,
		"total_revenue":         stats.TotalRevenue,
		"average_booking_value": stats.AverageBookingValue,
		"booking_rate":          stats.BookingRate,
		"status_breakdown":      breakdown,
	}
}
