package grpcserver

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// serviceDesc mirrors the shape protoc-gen-go-grpc emits for a service
// definition, hand-written here since this package has no .proto source
// to generate one from (spec.md §1 leaves the wire schema out of
// scope). Every method handler decodes a structpb.Struct request and
// dispatches to the matching unexported Server method.

func unaryHandler(fn func(*Server, context.Context, *structpb.Struct) (*structpb.Struct, error)) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		s := srv.(*Server)
		if interceptor == nil {
			return fn(s, ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv}
		handler := func(ctx context.Context, req any) (any, error) {
			return fn(s, ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

type subscribeNotificationsServer struct {
	grpc.ServerStream
}

func (x *subscribeNotificationsServer) Send(m *structpb.Struct) error {
	return x.ServerStream.SendMsg(m)
}

func subscribeNotificationsStreamHandler(srv any, stream grpc.ServerStream) error {
	in := new(structpb.Struct)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(*Server).subscribeNotifications(in, &subscribeNotificationsServer{stream})
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: "sushi.Controller",
	HandlerType: (*any)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "GetTrackInfo",
			Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
				return unaryHandler((*Server).getTrackInfo)(srv, ctx, dec, interceptor)
			},
		},
		{
			MethodName: "GetAllTracks",
			Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
				return unaryHandler((*Server).getAllTracks)(srv, ctx, dec, interceptor)
			},
		},
		{
			MethodName: "SetParameterValue",
			Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
				return unaryHandler((*Server).setParameterValue)(srv, ctx, dec, interceptor)
			},
		},
		{
			MethodName: "SendNoteOn",
			Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
				return unaryHandler((*Server).sendNoteOn)(srv, ctx, dec, interceptor)
			},
		},
		{
			MethodName: "SetTempo",
			Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
				return unaryHandler((*Server).setTempo)(srv, ctx, dec, interceptor)
			},
		},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "SubscribeNotifications",
			Handler:       subscribeNotificationsStreamHandler,
			ServerStreams: true,
		},
	},
	Metadata: "sushi.proto",
}
