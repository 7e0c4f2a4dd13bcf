// Package git implements the source backend on top of the git CLI, keeping
// bare mirrors under a shared cache directory.
package git

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"strings"

	"go.trai.ch/utica/internal/core/domain"
	"go.trai.ch/zerr"
)

// Runner abstracts git subprocess execution.
//
//go:generate go run go.uber.org/mock/mockgen -source=runner.go -destination=mocks/mock_runner.go -package=mocks
type Runner interface {
	// Run executes git with the given arguments in dir, returning stdout.
	// extraEnv entries are appended to the inherited environment.
	Run(ctx context.Context, dir string, extraEnv []string, args ...string) (string, error)
}

// ExecRunner runs git via os/exec.
type ExecRunner struct{}

// Run executes the git command and captures its output. A non-zero exit
// surfaces as ErrCommandFailed carrying the command line and captured stderr.
func (ExecRunner) Run(ctx context.Context, dir string, extraEnv []string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	if len(extraEnv) > 0 {
		cmd.Env = append(os.Environ(), extraEnv...)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		cmdErr := zerr.Wrap(err, domain.ErrCommandFailed.Error())
		cmdErr = zerr.With(cmdErr, "command", "git "+strings.Join(args, " "))
		return "", zerr.With(cmdErr, "output", strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}
