package auth

import "context"

type ctxKey string

const infoKey ctxKey = "authInfo"

// Info is the identity bound to an authenticated request.
type Info struct {
	Authenticated bool
	Username      string
	Firstname     string
	Lastname      string
	Roles         []string
}

// InfoFromClaims builds an authenticated Info from decoded access claims.
func InfoFromClaims(c *AccessClaims) *Info {
	return &Info{
		Authenticated: true,
		Username:      c.Subject,
		Firstname:     c.Firstname,
		Lastname:      c.Lastname,
		Roles:         c.Authorities,
	}
}

// WithInfo returns a child context carrying info.
func WithInfo(ctx context.Context, info *Info) context.Context {
	return context.WithValue(ctx, infoKey, info)
}

// InfoFromContext returns the Info stored by WithInfo, if any.
func InfoFromContext(ctx context.Context) (*Info, bool) {
	info, ok := ctx.Value(infoKey).(*Info)
	return info, ok && info != nil
}
