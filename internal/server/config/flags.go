package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/tokenkeeper/internal/flagx"
)

// flagNames lists every flag parseFlags understands.
var flagNames = []string{"-a", "-b", "-d", "-R", "-P", "-D", "-x", "-i", "-u", "-w", "-k", "-K", "-t", "-r", "-l"}

// parseFlags populates server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   gRPC bind address (e.g., ":50051")
//	-b string   token store backend: postgres, redis, memory
//	-d string   PostgreSQL DSN
//	-R string   Redis address
//	-P string   Redis password
//	-D int      Redis database
//	-x string   Redis key prefix
//	-i string   identity backend: http, postgres
//	-u string   users service base URL
//	-w int      users service timeout, seconds
//	-k string   access token secret (base64)
//	-K string   refresh token secret (base64)
//	-t int      access token validity, minutes
//	-r int      refresh token validity, minutes
//	-l string   log level
//
// Notes:
//   - The function first filters os.Args to only the flags it recognizes using
//     flagx.FilterArgs, avoiding collisions with other components.
//   - Duration flags are accepted as integers and then converted to
//     time.Duration values.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], flagNames)

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrGRPC, "a", config.EndpointAddrGRPC, "address and port to run server")
	fs.StringVar(&config.StoreBackend, "b", config.StoreBackend, "token store backend (postgres|redis|memory)")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.RedisAddr, "R", config.RedisAddr, "redis address")
	fs.StringVar(&config.RedisPassword, "P", config.RedisPassword, "redis password")
	fs.IntVar(&config.RedisDB, "D", config.RedisDB, "redis database")
	fs.StringVar(&config.RedisKeyPrefix, "x", config.RedisKeyPrefix, "redis key prefix")
	fs.StringVar(&config.IdentityBackend, "i", config.IdentityBackend, "identity backend (http|postgres)")
	fs.StringVar(&config.UsersServiceURL, "u", config.UsersServiceURL, "users service base URL")

	usersServiceTimeout := fs.Int("w", int(config.UsersServiceTimeout.Seconds()), "users service timeout (in seconds)")

	fs.StringVar(&config.AccessTokenSecret, "k", config.AccessTokenSecret, "access token secret (base64)")
	fs.StringVar(&config.RefreshTokenSecret, "K", config.RefreshTokenSecret, "refresh token secret (base64)")

	accessTokenValidityDuration := fs.Int("t", int(config.AccessTokenValidityDuration.Minutes()), "access_token_validity_duration (in minutes)")
	refreshTokenValidityDuration := fs.Int("r", int(config.RefreshTokenValidityDuration.Minutes()), "refresh_token_validity_duration (in minutes)")

	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level (debug|info|warn|error)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	// Only flags actually given override durations, so sub-minute values from
	// JSON survive.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "w":
			config.UsersServiceTimeout = time.Duration(*usersServiceTimeout) * time.Second
		case "t":
			config.AccessTokenValidityDuration = time.Duration(*accessTokenValidityDuration) * time.Minute
		case "r":
			config.RefreshTokenValidityDuration = time.Duration(*refreshTokenValidityDuration) * time.Minute
		}
	})
}
