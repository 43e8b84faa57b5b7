package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmolchanov/packvault/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string    HTTP bind address (e.g., ":8080")
//	-d string    PostgreSQL DSN
//	-s string    JWT HMAC secret key
//	-t int       operator token validity, minutes
//	-sa string   service account name
//	-oa string   oracle account name
//	-ra string   registry account name
//	-ru string   registry base URL
//	-ou string   oracle base URL
//	-rd string   Redis address (empty disables event publishing)
//	-rn string   Redis channel namespace
//	-u string    S3 root user
//	-p string    S3 root password
//	-b string    S3 bucket name
//	-g string    S3 region
//	-e string    S3 base endpoint (e.g., "http://127.0.0.1:9000/")
//
// Notes:
//   - The function first filters os.Args to only the flags it recognizes using
//     flagx.FilterArgs, avoiding collisions with other components.
//   - Duration flags are accepted as integers in minutes and then converted
//     to time.Duration values.
func parseFlags(config *Config) {
	// Filter args to include only the flags handled here.
	args := flagx.FilterArgs(os.Args[1:], []string{
		"-a", "-d", "-s", "-t", "-sa", "-oa", "-ra", "-ru", "-ou", "-rd", "-rn",
		"-u", "-p", "-b", "-g", "-e",
	})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	tokenValidityDuration := fs.Int("t", int(config.TokenValidityDuration.Minutes()), "token_validity_duration (in minutes)")

	fs.StringVar(&config.ServiceAccount, "sa", config.ServiceAccount, "service account")
	fs.StringVar(&config.OracleAccount, "oa", config.OracleAccount, "oracle account")
	fs.StringVar(&config.RegistryAccount, "ra", config.RegistryAccount, "registry account")
	fs.StringVar(&config.RegistryBaseURL, "ru", config.RegistryBaseURL, "registry base URL")
	fs.StringVar(&config.OracleBaseURL, "ou", config.OracleBaseURL, "oracle base URL")
	fs.StringVar(&config.RedisAddr, "rd", config.RedisAddr, "redis address")
	fs.StringVar(&config.RedisNamespace, "rn", config.RedisNamespace, "redis channel namespace")

	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 root bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 root region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.TokenValidityDuration = time.Duration(*tokenValidityDuration) * time.Minute
}
