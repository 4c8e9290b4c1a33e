// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package process provides the binary entrypoint helper for distrorun.
// It centralizes the one legitimate raw I/O pattern that exists outside
// the structured logger: reporting the error that ends main() and
// exiting with the status it carries.
//
// Exit statuses are part of distrorun's contract, so errors carry them:
// any error in the chain with an ExitCode() int method selects the
// status. [ExitError] ends the process with a status and no message,
// for a supervised command whose own exit code is passed through.
package process
