package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/router-for-me/oauth2nmail/internal/auth"
	"github.com/router-for-me/oauth2nmail/internal/config"
	"github.com/router-for-me/oauth2nmail/internal/flow"
	"github.com/router-for-me/oauth2nmail/internal/logging"
	log "github.com/sirupsen/logrus"
)

// Builder creates the orchestrator for a loaded configuration.
type Builder func(cfg *config.Config) (*flow.Orchestrator, error)

// Runner holds the collaborators of one invocation.
type Runner struct {
	Stdout io.Writer
	Stderr io.Writer
	Lookup config.LookupFunc
	Build  Builder
}

// Run executes the helper for args (without the program name) and returns
// the process exit code. Failures are reported as one line on Stderr.
func (r *Runner) Run(ctx context.Context, args []string) int {
	mode, err := ParseMode(args)
	if err != nil {
		PrintUsage(r.Stdout)
		return auth.ExitUsage
	}

	switch mode {
	case ModeHelp:
		PrintUsage(r.Stdout)
		return auth.ExitSuccess
	case ModeVersion:
		PrintVersion(r.Stdout)
		return auth.ExitSuccess
	}

	err = r.execute(ctx, mode)
	if err != nil {
		_, _ = fmt.Fprintln(r.Stderr, err.Error())
	}
	return auth.ExitCode(err)
}

func (r *Runner) execute(ctx context.Context, mode Mode) error {
	cfg, err := config.Load(r.Lookup)
	if err != nil {
		return err
	}
	if err = logging.ConfigureLogOutput(cfg.LogLevel, cfg.LogFile); err != nil {
		return auth.NewError(auth.KindUsage, "invalid logging configuration", err)
	}
	defer logging.CloseLogOutputs()

	build := r.Build
	if build == nil {
		build = flow.FromConfig
	}
	orchestrator, err := build(cfg)
	if err != nil {
		return err
	}

	log.WithField("mode", mode.String()).WithField("provider", cfg.ProviderID).Debug("starting")
	switch mode {
	case ModeGenerate:
		err = orchestrator.Generate(ctx)
	case ModeRefresh:
		err = orchestrator.Refresh(ctx)
	}
	switch {
	case err == nil:
	case errors.Is(err, auth.ErrInterrupted):
		log.WithField("mode", mode.String()).Info("cancelled before completion")
	default:
		log.WithField("mode", mode.String()).WithError(err).Debug("failed")
	}
	return err
}
