package grpc

import (
	"context"

	"github.com/dmitrijs2005/tokenkeeper/internal/common"
	"github.com/dmitrijs2005/tokenkeeper/internal/server/auth"
	"github.com/dmitrijs2005/tokenkeeper/internal/server/services"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// Client is a typed client for tokenkeeper.AuthService.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) Login(ctx context.Context, username, password string) (*services.TokenPair, error) {
	in, err := structpb.NewStruct(map[string]any{fieldUsername: username, fieldPassword: password})
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, MethodLogin, in, out); err != nil {
		return nil, err
	}
	return pairFromStruct(out), nil
}

func (c *Client) GetAccessToken(ctx context.Context, refreshToken string) (*services.TokenPair, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, MethodGetAccessToken, wrapperspb.String(refreshToken), out); err != nil {
		return nil, err
	}
	return pairFromStruct(out), nil
}

func (c *Client) Refresh(ctx context.Context, refreshToken string) (*services.TokenPair, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, MethodRefresh, wrapperspb.String(refreshToken), out); err != nil {
		return nil, err
	}
	return pairFromStruct(out), nil
}

func (c *Client) Logout(ctx context.Context, refreshToken string) (bool, error) {
	out := new(wrapperspb.BoolValue)
	if err := c.cc.Invoke(ctx, MethodLogout, wrapperspb.String(refreshToken), out); err != nil {
		return false, err
	}
	return out.GetValue(), nil
}

func (c *Client) Validate(ctx context.Context, refreshToken string) (bool, error) {
	out := new(wrapperspb.BoolValue)
	if err := c.cc.Invoke(ctx, MethodValidate, wrapperspb.String(refreshToken), out); err != nil {
		return false, err
	}
	return out.GetValue(), nil
}

// GetAuthInfo presents accessToken as a bearer credential and returns the
// identity the server derived from it.
func (c *Client) GetAuthInfo(ctx context.Context, accessToken string) (*auth.Info, error) {
	ctx = metadata.AppendToOutgoingContext(ctx, common.AuthorizationHeaderName, common.TokenType+" "+accessToken)

	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, MethodGetAuthInfo, &emptypb.Empty{}, out); err != nil {
		return nil, err
	}

	f := out.GetFields()
	info := &auth.Info{
		Authenticated: f[fieldAuthenticated].GetBoolValue(),
		Username:      f[fieldUsername].GetStringValue(),
		Firstname:     f[fieldFirstname].GetStringValue(),
		Lastname:      f[fieldLastname].GetStringValue(),
	}
	for _, v := range f[fieldRoles].GetListValue().GetValues() {
		info.Roles = append(info.Roles, v.GetStringValue())
	}
	return info, nil
}
