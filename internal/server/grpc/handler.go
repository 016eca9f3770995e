package grpc

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/tokenkeeper/internal/common"
	"github.com/dmitrijs2005/tokenkeeper/internal/server/services"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// Field names of the Struct messages.
const (
	fieldUsername      = "username"
	fieldPassword      = "password"
	fieldType          = "type"
	fieldAccessToken   = "accessToken"
	fieldRefreshToken  = "refreshToken"
	fieldAuthenticated = "authenticated"
	fieldFirstname     = "firstname"
	fieldLastname      = "lastname"
	fieldRoles         = "roles"
)

func (s *GRPCServer) Login(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {

	username := req.GetFields()[fieldUsername].GetStringValue()
	password := req.GetFields()[fieldPassword].GetStringValue()
	if username == "" {
		return nil, status.Error(codes.InvalidArgument, "username is required")
	}

	pair, err := s.auth.Login(ctx, username, password)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	return pairToStruct(pair)
}

func (s *GRPCServer) GetAccessToken(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {

	pair, err := s.auth.GetAccessToken(ctx, req.GetValue())
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	return pairToStruct(pair)
}

func (s *GRPCServer) Refresh(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {

	pair, err := s.auth.Refresh(ctx, req.GetValue())
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	return pairToStruct(pair)
}

func (s *GRPCServer) Logout(ctx context.Context, req *wrapperspb.StringValue) (*wrapperspb.BoolValue, error) {

	ok, err := s.auth.Logout(ctx, req.GetValue())
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	return wrapperspb.Bool(ok), nil
}

func (s *GRPCServer) Validate(ctx context.Context, req *wrapperspb.StringValue) (*wrapperspb.BoolValue, error) {
	return wrapperspb.Bool(s.auth.Validate(req.GetValue())), nil
}

func (s *GRPCServer) GetAuthInfo(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {

	info, ok := s.auth.GetAuthInfo(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "unauthenticated")
	}

	roles := make([]any, len(info.Roles))
	for i, r := range info.Roles {
		roles[i] = r
	}

	return structpb.NewStruct(map[string]any{
		fieldAuthenticated: info.Authenticated,
		fieldUsername:      info.Username,
		fieldFirstname:     info.Firstname,
		fieldLastname:      info.Lastname,
		fieldRoles:         roles,
	})
}

// toStatus maps service errors onto gRPC status codes. Details of internal
// failures are logged, not returned.
func (s *GRPCServer) toStatus(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, common.ErrorUnauthorized):
		return status.Error(codes.Unauthenticated, "unauthorized")
	case errors.Is(err, common.ErrInvalidToken):
		return status.Error(codes.Unauthenticated, "invalid token")
	case errors.Is(err, common.ErrorNotFound):
		return status.Error(codes.NotFound, "not found")
	default:
		s.logger.Error(ctx, err.Error())
		return status.Error(codes.Internal, "internal error")
	}
}

// pairToStruct renders a token pair; absent tokens become null.
func pairToStruct(p *services.TokenPair) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		fieldType:         p.Type,
		fieldAccessToken:  nullIfEmpty(p.AccessToken),
		fieldRefreshToken: nullIfEmpty(p.RefreshToken),
	})
}

func pairFromStruct(s *structpb.Struct) *services.TokenPair {
	f := s.GetFields()
	return &services.TokenPair{
		Type:         f[fieldType].GetStringValue(),
		AccessToken:  f[fieldAccessToken].GetStringValue(),
		RefreshToken: f[fieldRefreshToken].GetStringValue(),
	}
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
