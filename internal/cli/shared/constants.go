// Package shared provides constants and types used across CLI subpackages.
package shared

import (
	"errors"
	"fmt"

	clierrors "github.com/ariel-frischer/versiontext/internal/errors"
)

// Exit codes for the versiontext CLI.
// These codes support programmatic composition and CI/CD integration.
const (
	// ExitSuccess indicates success, including a skipped run.
	ExitSuccess = 0

	// ExitFailure indicates a runtime failure, such as an unwritable output.
	ExitFailure = 1

	// ExitInvalidArguments indicates invalid arguments or configuration.
	ExitInvalidArguments = 3

	// ExitMissingDependency indicates the repository, git or the document
	// is not usable.
	ExitMissingDependency = 4
)

// Command groups shown in help output.
const (
	GroupReconcile     = "reconcile"
	GroupInspect       = "inspect"
	GroupConfiguration = "configuration"
)

// ExitError carries an exit code for errors that were already reported.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit code %d", e.Code)
}

// NewExitError returns an error that makes the process exit with code.
func NewExitError(code int) error {
	return &ExitError{Code: code}
}

// ExitCode maps an error to the process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	if cliErr := clierrors.AsCLIError(err); cliErr != nil {
		return CategoryExitCode(cliErr.Category)
	}
	return ExitFailure
}

// CategoryExitCode returns the exit code for an error category.
func CategoryExitCode(category clierrors.ErrorCategory) int {
	switch category {
	case clierrors.Argument, clierrors.Configuration:
		return ExitInvalidArguments
	case clierrors.Prerequisite:
		return ExitMissingDependency
	default:
		return ExitFailure
	}
}
