package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmolchanov/packvault/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   base URL of the backend server (default from Config)
//	-n string   acting account name
//	-t int      token validity in minutes
//
// Note: The function filters os.Args to only include the flags it knows about,
// using flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config) {
	// Filter args to include only those handled here.
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-n", "-t"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerEndpointAddr, "a", cfg.ServerEndpointAddr, "base URL to access server")
	fs.StringVar(&cfg.Account, "n", cfg.Account, "acting account name")
	tokenValidity := fs.Int("t", int(cfg.TokenValidity.Minutes()), "token validity (in minutes)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.TokenValidity = time.Duration(*tokenValidity) * time.Minute
}
