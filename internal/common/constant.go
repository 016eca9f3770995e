package common

const (
	// AccessTokenHeaderName is the gRPC metadata key that may carry a raw
	// access token.
	AccessTokenHeaderName = "access_token"

	// AuthorizationHeaderName carries "Bearer <token>".
	AuthorizationHeaderName = "authorization"

	// TokenType is reported alongside every issued token pair.
	TokenType = "Bearer"
)
