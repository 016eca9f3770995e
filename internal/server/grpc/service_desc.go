package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "tokenkeeper.AuthService"

// Full method names.
const (
	MethodLogin          = "/" + ServiceName + "/Login"
	MethodGetAccessToken = "/" + ServiceName + "/GetAccessToken"
	MethodRefresh        = "/" + ServiceName + "/Refresh"
	MethodLogout         = "/" + ServiceName + "/Logout"
	MethodValidate       = "/" + ServiceName + "/Validate"
	MethodGetAuthInfo    = "/" + ServiceName + "/GetAuthInfo"
)

// AuthServiceServer is the server API for tokenkeeper.AuthService. Messages
// are protobuf well-known types:
//
//	Login          Struct{username, password}  -> Struct{type, accessToken, refreshToken}
//	GetAccessToken StringValue(refresh token)  -> Struct{type, accessToken, refreshToken}
//	Refresh        StringValue(refresh token)  -> Struct{type, accessToken, refreshToken}
//	Logout         StringValue(refresh token)  -> BoolValue
//	Validate       StringValue(refresh token)  -> BoolValue
//	GetAuthInfo    Empty                       -> Struct{authenticated, username, firstname, lastname, roles}
type AuthServiceServer interface {
	Login(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetAccessToken(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	Refresh(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	Logout(context.Context, *wrapperspb.StringValue) (*wrapperspb.BoolValue, error)
	Validate(context.Context, *wrapperspb.StringValue) (*wrapperspb.BoolValue, error)
	GetAuthInfo(context.Context, *emptypb.Empty) (*structpb.Struct, error)
}

// ServiceDesc describes tokenkeeper.AuthService for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AuthServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("Login", MethodLogin, AuthServiceServer.Login),
		unary("GetAccessToken", MethodGetAccessToken, AuthServiceServer.GetAccessToken),
		unary("Refresh", MethodRefresh, AuthServiceServer.Refresh),
		unary("Logout", MethodLogout, AuthServiceServer.Logout),
		unary("Validate", MethodValidate, AuthServiceServer.Validate),
		unary("GetAuthInfo", MethodGetAuthInfo, AuthServiceServer.GetAuthInfo),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "tokenkeeper/auth.proto",
}

// unary builds the method descriptor protoc-gen-go-grpc would generate for a
// unary method.
func unary[Req any, Resp proto.Message, PReq interface {
	*Req
	proto.Message
}](name, fullMethod string, call func(AuthServiceServer, context.Context, PReq) (Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := PReq(new(Req))
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(AuthServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(AuthServiceServer), ctx, req.(PReq))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}
