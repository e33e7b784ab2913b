package config

import (
	"flag"
	"os"

	"github.com/jengacalc/jengacalc/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":3000")
//	-u string   public base URL
//	-b string   storage backend: sqlite | postgres | mongo
//	-d string   SQL DSN (sqlite file or PostgreSQL URL)
//	-m string   MongoDB URI
//	-r string   Redis address for the shared challenge store
//	-s string   session signing secret
//	-l string   log level
//	-f int      free calculations per identity
//
// Only these flags are parsed; os.Args is filtered with flagx.FilterArgs first
// so -c/-config and test binary flags do not collide.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-u", "-b", "-d", "-m", "-r", "-s", "-l", "-f"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "address and port to run server")
	fs.StringVar(&config.BaseURL, "u", config.BaseURL, "public base URL")
	fs.StringVar(&config.StorageBackend, "b", config.StorageBackend, "storage backend (sqlite|postgres|mongo)")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.MongoURI, "m", config.MongoURI, "mongodb URI")
	fs.StringVar(&config.RedisAddr, "r", config.RedisAddr, "redis address")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "session secret key")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")
	fs.Int64Var(&config.FreeCalculations, "f", config.FreeCalculations, "free calculations per user")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
