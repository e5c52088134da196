// Package main provides the entry point for oauth2nmail, the OAuth2 token
// helper invoked by the nmail email client.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/router-for-me/oauth2nmail/internal/buildinfo"
	"github.com/router-for-me/oauth2nmail/internal/cmd"
	"github.com/router-for-me/oauth2nmail/internal/logging"
)

var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

// init initializes the shared logger setup.
func init() {
	logging.SetupBaseLogger()
	buildinfo.Version = Version
	buildinfo.Commit = Commit
	buildinfo.BuildDate = BuildDate
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	runner := &cmd.Runner{
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		Lookup: os.LookupEnv,
	}
	code := runner.Run(ctx, os.Args[1:])
	stop()
	os.Exit(code)
}
