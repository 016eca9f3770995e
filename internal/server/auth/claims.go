package auth

import "github.com/golang-jwt/jwt/v5"

// AccessClaims is the payload of an access token. It carries everything an
// authorization check needs without a database round trip.
type AccessClaims struct {
	Firstname   string   `json:"firstname"`
	Lastname    string   `json:"lastname"`
	Authorities []string `json:"authorities"`
	jwt.RegisteredClaims
}

// RefreshClaims is the payload of a refresh token: subject, timestamps and
// token id only.
type RefreshClaims struct {
	jwt.RegisteredClaims
}
