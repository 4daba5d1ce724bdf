package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ServiceName is the fully qualified name of the present weather service.
const ServiceName = "precipmeter.v1.PresentWeather"

// Full method names, as used with grpc.ClientConn.Invoke.
const (
	GetCurrentMethod   = "/" + ServiceName + "/GetCurrent"
	ListStationsMethod = "/" + ServiceName + "/ListStations"
)

// PresentWeatherServer is the server API of the present weather service.
// Messages are well-known types so no generated code is needed.
type PresentWeatherServer interface {
	GetCurrent(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	ListStations(context.Context, *emptypb.Empty) (*structpb.Struct, error)
}

var presentWeatherServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*PresentWeatherServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetCurrent", Handler: getCurrentHandler},
		{MethodName: "ListStations", Handler: listStationsHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "precipmeter/v1/present_weather.proto",
}

func getCurrentHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(PresentWeatherServer).GetCurrent(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: GetCurrentMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(PresentWeatherServer).GetCurrent(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func listStationsHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(PresentWeatherServer).ListStations(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ListStationsMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(PresentWeatherServer).ListStations(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}
