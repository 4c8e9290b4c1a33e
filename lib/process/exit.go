// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package process

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// ExitError signals a non-zero exit code without printing an error
// message. The process is expected to have already reported whatever
// the user needs to see.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit code %d", e.Code)
}

// ExitCode returns the exit code.
func (e *ExitError) ExitCode() int {
	return e.Code
}

type exitCoder interface {
	ExitCode() int
}

// ExitCode returns the exit status carried by err: the first error in
// the chain with an ExitCode method decides, otherwise 1. A nil error
// is status 0.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var coder exitCoder
	if errors.As(err, &coder) {
		return coder.ExitCode()
	}
	return 1
}

// Report writes "program: error: err" to w unless err is an
// [ExitError], and returns the exit status for err.
func Report(w io.Writer, program string, err error) int {
	if err == nil {
		return 0
	}
	var silent *ExitError
	if !errors.As(err, &silent) {
		fmt.Fprintf(w, "%s: error: %v\n", program, err)
	}
	return ExitCode(err)
}

// Exit reports err on stderr and exits with its status. Use it in
// main() for the error returned by run().
func Exit(program string, err error) {
	os.Exit(Report(os.Stderr, program, err))
}
