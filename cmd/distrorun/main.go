// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/distrorun/distro"
	"github.com/bureau-foundation/distrorun/lib/config"
	"github.com/bureau-foundation/distrorun/lib/process"
	"github.com/bureau-foundation/distrorun/lib/version"
)

// Set at build time with -ldflags -X. They are deliberately not flags:
// the configuration decides what a setuid program mounts.
var (
	configDirectory  = config.DefaultDirectory
	requireRootOwned = "true"
)

func main() {
	process.Exit("distrorun", run(os.Args[1:], os.Stdout, os.Stderr))
}

type options struct {
	extraVolumes []string
	supervise    bool
	dryRun       bool
	quiet        bool
	version      bool
	help         bool

	name string
	argv []string
}

func newFlagSet(opts *options) *pflag.FlagSet {
	flagSet := pflag.NewFlagSet("distrorun", pflag.ContinueOnError)
	// Everything after NAME belongs to the command, including its flags.
	flagSet.SetInterspersed(false)
	flagSet.SetOutput(io.Discard)
	flagSet.StringArrayVar(&opts.extraVolumes, "extra-volume", nil, "additional host directory to map into the container (repeatable)")
	flagSet.BoolVar(&opts.supervise, "supervise", false, "wait for the command and exit with its status instead of replacing this process")
	flagSet.BoolVar(&opts.dryRun, "dry-run", false, "print the mounts and working directory, then exit without launching")
	flagSet.BoolVarP(&opts.quiet, "quiet", "q", false, "log only warnings and errors")
	flagSet.BoolVar(&opts.version, "version", false, "print version information and exit")
	flagSet.BoolVarP(&opts.help, "help", "h", false, "show help")
	return flagSet
}

// parseArgs parses the command line. It does not touch the system, so
// it is safe to run before privileges are checked.
func parseArgs(args []string) (*options, error) {
	opts := &options{}
	flagSet := newFlagSet(opts)
	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			opts.help = true
			return opts, nil
		}
		return opts, &distro.Error{Kind: distro.KindUsage, Op: "parsing arguments", Err: err}
	}
	if opts.help || opts.version {
		return opts, nil
	}

	positional := flagSet.Args()
	if len(positional) == 0 {
		return opts, &distro.Error{Kind: distro.KindUsage, Op: "container name", Err: errors.New("is required")}
	}
	opts.name = positional[0]
	if err := distro.ValidateName(opts.name); err != nil {
		return opts, err
	}
	if len(positional) < 2 {
		return opts, &distro.Error{Kind: distro.KindUsage, Op: "command", Err: errors.New("is required")}
	}
	opts.argv = positional[1:]
	return opts, nil
}

func run(args []string, stdout, stderr io.Writer) error {
	opts, parseErr := parseArgs(args)
	if opts.help {
		printHelp(stdout)
		return nil
	}
	if opts.version {
		fmt.Fprintf(stdout, "distrorun %s\n", version.Full())
		return nil
	}

	logger := newLogger(stderr, opts.quiet)
	launcher := distro.NewLauncher(distro.LauncherConfig{Logger: logger})

	// Privilege is checked before anything else is read, so an
	// uninstalled binary reports the same failure for any input.
	root, err := launcher.Acquire()
	if err != nil {
		return err
	}
	if parseErr != nil {
		printUsage(stderr)
		return parseErr
	}

	loader := config.Loader{Directory: configDirectory, RequireRootOwned: requireRootOwned == "true"}
	container, err := loader.Load(opts.name)
	if err != nil {
		return &distro.Error{Kind: distro.KindConfig, Op: "couldn't load configuration for", Path: opts.name, Err: err}
	}
	logger.Info("loaded configuration",
		"name", container.Name,
		"path", container.Path,
		"config_digest", container.Digest.String(),
	)

	workDir, err := os.Getwd()
	if err != nil {
		return &distro.Error{Kind: distro.KindSetup, Op: "couldn't determine working directory", Err: err}
	}

	request, err := distro.NewRequest(distro.RequestConfig{
		Name:         opts.name,
		Root:         container.Dir,
		Volumes:      container.MappedVolumes,
		ExtraVolumes: opts.extraVolumes,
		WorkDir:      workDir,
		Argv:         opts.argv,
		Env:          os.Environ(),
	})
	if err != nil {
		return err
	}

	switch {
	case opts.dryRun:
		return printPlan(stdout, launcher, request)
	case opts.supervise:
		return outcomeError(launcher.Supervise(root, request))
	default:
		return launcher.Exec(root, request)
	}
}

func printPlan(w io.Writer, launcher *distro.Launcher, request *distro.Request) error {
	mounts, workDir, err := launcher.Plan(request)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "root %s\n", request.Root())
	for _, mount := range mounts {
		fmt.Fprintf(w, "mount %s on %s\n", mount.Source, mount.Mountpoint)
	}
	fmt.Fprintf(w, "workdir %s\n", workDir)
	fmt.Fprintf(w, "command %q\n", request.Argv())
	return nil
}

// commandError reports a supervised command that did not exit on its
// own.
type commandError struct {
	outcome distro.Outcome
}

func (e *commandError) Error() string { return "command " + e.outcome.String() }

func (e *commandError) ExitCode() int { return e.outcome.ExitCode() }

// outcomeError converts a supervised outcome into the error run
// returns. A command that exited passes its status through silently.
func outcomeError(outcome distro.Outcome) error {
	switch outcome.Kind {
	case distro.OutcomeExited:
		if outcome.Code == 0 {
			return nil
		}
		return &process.ExitError{Code: outcome.Code}
	case distro.OutcomeFailed:
		return outcome.Err
	default:
		return &commandError{outcome: outcome}
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "usage: distrorun [--extra-volume PATH]... [--supervise] [--dry-run] [--quiet] NAME COMMAND [ARG...]")
}

func printHelp(w io.Writer) {
	printUsage(w)
	fmt.Fprintf(w, `
Run COMMAND inside the container NAME configured in %s.

Flags:
`, configDirectory)
	flagSet := newFlagSet(&options{})
	flagSet.SetOutput(w)
	flagSet.PrintDefaults()
}
