package commands_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/utica/cmd/utica/commands"
	"go.trai.ch/utica/internal/adapters/config"
	"go.trai.ch/utica/internal/adapters/git"
	"go.trai.ch/utica/internal/adapters/logger"
	"go.trai.ch/utica/internal/app"
)

func newCLI() *commands.CLI {
	a := app.New(config.NewLoader(), logger.New(), git.ExecRunner{})
	return commands.New(a)
}

func TestVersionCommand(t *testing.T) {
	cli := newCLI()
	cli.SetArgs([]string{"version"})
	assert.NoError(t, cli.Execute(context.Background()))
}

func TestUnknownCommand(t *testing.T) {
	cli := newCLI()
	cli.SetArgs([]string{"frobnicate"})
	assert.Error(t, cli.Execute(context.Background()))
}

func TestUnknownPlatformFlag(t *testing.T) {
	cli := newCLI()
	cli.SetArgs([]string{"build", "--platform", "Amiga", "--project-directory", t.TempDir()})
	err := cli.Execute(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown platform")
}

func TestBuildWithoutLockfileFails(t *testing.T) {
	cli := newCLI()
	cli.SetArgs([]string{"build", "--no-tui", "--project-directory", t.TempDir()})
	err := cli.Execute(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "resolved file not found")
}
