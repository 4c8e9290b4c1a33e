// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package distro

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"syscall"
)

// LauncherConfig holds configuration for creating a new Launcher.
type LauncherConfig struct {
	// System performs the operating system calls. Defaults to
	// [NewSystem].
	System System

	// Logger for launch operations.
	Logger *slog.Logger
}

// Launcher runs a [Request]: it validates extra volumes as the invoking
// user, assembles the container, drops privileges and starts the
// command.
type Launcher struct {
	system System
	logger *slog.Logger
}

// NewLauncher creates a new Launcher.
func NewLauncher(config LauncherConfig) *Launcher {
	system := config.System
	if system == nil {
		system = NewSystem()
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Launcher{system: system, logger: logger}
}

// Acquire checks the process privileges through the launcher's System.
// See [Acquire].
func (l *Launcher) Acquire() (*Root, error) {
	return Acquire(l.system)
}

// Plan returns the bind-mounts the request would perform, in order, and
// the working directory the command would start in. It does not touch
// the system.
func (l *Launcher) Plan(request *Request) ([]VolumeMount, string, error) {
	mounts, err := request.Mounts()
	if err != nil {
		return nil, "", err
	}
	workDir, _ := ResolveWorkDir(request.Root(), request.WorkDir())
	return mounts, workDir, nil
}

// Exec runs the whole launch sequence on the calling OS thread and
// replaces the process image with the command. It returns only on
// failure; the goroutine stays locked to its thread either way.
func (l *Launcher) Exec(root *Root, request *Request) error {
	runtime.LockOSThread()

	path, err := l.assemble(root, request)
	if err != nil {
		return err
	}
	if err := l.system.Exec(path, request.Argv(), request.Env()); err != nil {
		return &Error{Kind: KindLaunch, Op: "couldn't execute command", Path: path, Err: err}
	}
	return nil
}

// Supervise runs the launch sequence on a dedicated OS thread, starts
// the command as a child of that thread and waits for it. The calling
// goroutine is unaffected: it stays in the host mount namespace, though
// the process has lost its privileges by the time Supervise returns.
func (l *Launcher) Supervise(root *Root, request *Request) Outcome {
	result := make(chan Outcome, 1)
	go func() {
		// Never unlocked, so the thread is discarded together with the
		// container's namespace and root when the goroutine returns.
		runtime.LockOSThread()
		result <- l.supervise(root, request)
	}()
	return <-result
}

func (l *Launcher) supervise(root *Root, request *Request) Outcome {
	path, err := l.assemble(root, request)
	if err != nil {
		return Outcome{Kind: OutcomeFailed, Err: err}
	}

	process, err := l.system.Start(path, request.Argv(), request.Env())
	if err != nil {
		return Outcome{Kind: OutcomeFailed, Err: &Error{Kind: KindLaunch, Op: "couldn't execute command", Path: path, Err: err}}
	}
	l.logger.Debug("command started", "pid", process.Pid(), "path", path)

	status, err := process.Wait()
	if err != nil {
		return Outcome{Kind: OutcomeIndeterminate, Err: fmt.Errorf("waiting for pid %d: %w", process.Pid(), err)}
	}
	outcome := outcomeFromStatus(status)
	if outcome.Kind != OutcomeExited {
		l.logger.Warn("command did not exit normally", "pid", process.Pid(), "outcome", outcome.String())
	}
	return outcome
}

// assemble performs every step up to and including the permanent
// privilege drop and the move into the command's working directory. It
// returns the resolved command path.
func (l *Launcher) assemble(root *Root, request *Request) (string, error) {
	mounts, err := request.Mounts()
	if err != nil {
		return "", err
	}

	user, err := root.AsRealUser()
	if err != nil {
		return "", err
	}
	if err := ValidateVolumes(user, request.ExtraVolumes()); err != nil {
		return "", err
	}
	root, err = user.Restore()
	if err != nil {
		return "", err
	}

	l.logger.Info("assembling container", "name", request.Name(), "root", request.Root())
	namespace, err := Isolate(root, request.Root())
	if err != nil {
		return "", err
	}
	private, err := namespace.MakePrivate()
	if err != nil {
		return "", err
	}
	for _, mount := range mounts {
		l.logger.Info("mounting volume", "source", mount.Source, "mountpoint", mount.Mountpoint)
		if err := private.Bind(mount); err != nil {
			return "", err
		}
	}
	jail, err := private.EnterRoot()
	if err != nil {
		return "", err
	}

	dropped, err := root.Drop(jail)
	if err != nil {
		return "", err
	}

	// The working directory is entered as the invoking user so the
	// command cannot start somewhere the user could not reach.
	workDir, mapped := ResolveWorkDir(request.Root(), request.WorkDir())
	if mapped {
		l.logger.Debug("mapping work dir", "from", request.WorkDir(), "to", workDir)
	}
	if err := l.system.Chdir(workDir); err != nil {
		return "", setupError("couldn't chdir to", workDir, err)
	}

	argv := request.Argv()
	path, err := l.system.LookPath(argv[0], request.Env())
	if err != nil {
		return "", &Error{Kind: KindLaunch, Op: "couldn't execute command", Path: argv[0], Err: err}
	}
	l.logger.Debug("launching command", "path", path, "uid", dropped.UID(), "work_dir", workDir)
	return path, nil
}

// OutcomeKind classifies how a supervised command ended.
type OutcomeKind int

const (
	// OutcomeExited means the command exited normally; Code holds its
	// exit status.
	OutcomeExited OutcomeKind = iota + 1
	// OutcomeSignaled means the command was killed; Signal holds the
	// signal.
	OutcomeSignaled
	// OutcomeIndeterminate means the wait result could not be
	// interpreted.
	OutcomeIndeterminate
	// OutcomeFailed means the command was never started; Err holds the
	// cause.
	OutcomeFailed
)

// Outcome is the normalized result of [Launcher.Supervise]. A
// successful [Launcher.Exec] has no outcome: the process is replaced.
type Outcome struct {
	Kind   OutcomeKind
	Code   int
	Signal syscall.Signal
	Err    error
}

// ExitCode returns the exit status the supervising process should exit
// with.
func (o Outcome) ExitCode() int {
	switch o.Kind {
	case OutcomeExited:
		return o.Code
	case OutcomeSignaled:
		return ExitChildSignaled
	case OutcomeFailed:
		var distroErr *Error
		if errors.As(o.Err, &distroErr) {
			return distroErr.ExitCode()
		}
		return ExitSetup
	default:
		return ExitIndeterminate
	}
}

func (o Outcome) String() string {
	switch o.Kind {
	case OutcomeExited:
		return fmt.Sprintf("exited with code %d", o.Code)
	case OutcomeSignaled:
		return fmt.Sprintf("killed by signal %d (%s)", int(o.Signal), o.Signal)
	case OutcomeFailed:
		return fmt.Sprintf("launch failed: %v", o.Err)
	default:
		if o.Err != nil {
			return fmt.Sprintf("indeterminate termination: %v", o.Err)
		}
		return "indeterminate termination"
	}
}

func outcomeFromStatus(status syscall.WaitStatus) Outcome {
	switch {
	case status.Exited():
		return Outcome{Kind: OutcomeExited, Code: status.ExitStatus()}
	case status.Signaled():
		return Outcome{Kind: OutcomeSignaled, Signal: status.Signal()}
	default:
		return Outcome{Kind: OutcomeIndeterminate}
	}
}
